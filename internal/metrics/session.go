package metrics

import (
	"github.com/QuesmaOrg/tfc-rig/internal/events"
)

// SessionMetrics is one row per (mouse, session). Field names are the column
// names consumed by downstream statistics and must not change.
type SessionMetrics struct {
	MouseID   string `json:"mouse_id"`
	SessionID int64  `json:"session_id"`
	DayOfWeek string `json:"day_of_week"`

	AvgLickFreq              float64 `json:"avg_lick_freq"`
	AvgLickFreqCSPlus        float64 `json:"avg_lick_freq_csplus"`
	AvgLickFreqCSMinus       float64 `json:"avg_lick_freq_csminus"`
	AvgLickFreqITI           float64 `json:"avg_lick_freq_iti"`
	AvgLickFreqCSPlusTone    float64 `json:"avg_lick_freq_csplus_tone"`
	AvgLickFreqCSMinusTone   float64 `json:"avg_lick_freq_csminus_tone"`
	AvgLickFreqCSPlusTrace   float64 `json:"avg_lick_freq_csplus_trace"`
	AvgLickFreqCSMinusTrace  float64 `json:"avg_lick_freq_csminus_trace"`
	AvgLickFreqCSPlusITI     float64 `json:"avg_lick_freq_csplus_iti"`
	AvgLickFreqCSMinusITI    float64 `json:"avg_lick_freq_csminus_iti"`
	ZAvgLickFreq             float64 `json:"z_avg_lick_freq"`
	ZAvgLickFreqCSPlus       float64 `json:"z_avg_lick_freq_csplus"`
	ZAvgLickFreqCSMinus      float64 `json:"z_avg_lick_freq_csminus"`
	ZAvgLickFreqITI          float64 `json:"z_avg_lick_freq_iti"`
	ZAvgLickFreqCSPlusTone   float64 `json:"z_avg_lick_freq_csplus_tone"`
	ZAvgLickFreqCSMinusTone  float64 `json:"z_avg_lick_freq_csminus_tone"`
	ZAvgLickFreqCSPlusTrace  float64 `json:"z_avg_lick_freq_csplus_trace"`
	ZAvgLickFreqCSMinusTrace float64 `json:"z_avg_lick_freq_csminus_trace"`
	ZAvgLickFreqCSPlusITI    float64 `json:"z_avg_lick_freq_csplus_iti"`
	ZAvgLickFreqCSMinusITI   float64 `json:"z_avg_lick_freq_csminus_iti"`
	ZAvgLickFreqNoSignal     float64 `json:"z_avg_lick_freq_no_signal"`

	TotalLicks                    int     `json:"total_licks"`
	TotalPuffedLicks              int     `json:"total_puffed_licks"`
	TotalLicksInTrial             int     `json:"total_licks_in_trial"`
	TotalPuffedLicksInTrial       int     `json:"total_puffed_licks_in_trial"`
	ZTotalLicksInTrial            float64 `json:"z_total_licks_in_trial"`
	ZTotalPuffedLicksInTrial      float64 `json:"z_total_puffed_licks_in_trial"`
	TotalLicksType0               int     `json:"total_licks_type_0"`
	ZTotalLicksType0              float64 `json:"z_total_licks_type_0"`
	ZTotalPuffedLicksType0        float64 `json:"z_total_puffed_licks_type_0"`
	TotalLicksType1               int     `json:"total_licks_type_1"`
	ZTotalLicksType1              float64 `json:"z_total_licks_type_1"`
	TotalLicksType2               int     `json:"total_licks_type_2"`
	ZTotalLicksType2              float64 `json:"z_total_licks_type_2"`
	TotalLicksType3               int     `json:"total_licks_type_3"`
	ZTotalLicksType3              float64 `json:"z_total_licks_type_3"`
	TotalLicksType4               int     `json:"total_licks_type_4"`
	ZTotalLicksType4              float64 `json:"z_total_licks_type_4"`
	ZTotalPuffedLicksType1        float64 `json:"z_total_puffed_licks_type_1"`
	TotalLicksWaterOn             int     `json:"total_licks_water_on"`
	TotalLicksWaterOnType0        int     `json:"total_licks_water_on_type_0"`
	ZTotalLicksWaterOnType0       float64 `json:"z_total_licks_water_on_type_0"`
	ZTotalPuffedLicksWaterOnType0 float64 `json:"z_total_puffed_licks_water_on_type_0"`
	TotalLicksWaterOnType1        int     `json:"total_licks_water_on_type_1"`
	ZTotalLicksWaterOnType1       float64 `json:"z_total_licks_water_on_type_1"`
	ZTotalPuffedLicksWaterOnType1 float64 `json:"z_total_puffed_licks_water_on_type_1"`
	ZLearningRate                 float64 `json:"z_learning_rate"`
	ZTraceLearningRate            float64 `json:"z_trace_learning_rate"`
	ZLearningRateReward           float64 `json:"z_learning_rate_reward"`
}

// zScale keeps normalized frequencies readable.
const zScale = 1000

// counter accumulates lick and puffed-lick totals for one event filter.
type counter struct {
	licks, puffed int
}

func (c *counter) add(e events.Event) {
	c.licks += events.Bit(e.Lick)
	c.puffed += events.Bit(e.PuffedLick)
}

// computeSession fills the session row. Frequencies use in-session events
// only; totals use every event of the mouse.
func computeSession(row *SessionMetrics, evs []events.Event, samples []sample) error {
	var d divider

	inTrial := func(s sample) bool { return s.State.IsTrial }
	iti := func(s sample) bool { return !s.State.IsTrial }
	csPlus := func(s sample) bool { return inTrial(s) && events.CSPlus(s.State.TrialType) }
	csMinus := func(s sample) bool { return inTrial(s) && events.CSMinus(s.State.TrialType) }

	sessionLicks := 0
	for _, s := range samples {
		sessionLicks += events.Bit(s.Lick)
	}
	avg := func(keep func(sample) bool) float64 { return mean(frequencies(samples, keep)) }
	z := func(v float64) float64 { return d.scaled(zScale, v, float64(sessionLicks)) }

	row.AvgLickFreq = avg(func(sample) bool { return true })
	row.AvgLickFreqCSPlus = avg(csPlus)
	row.AvgLickFreqCSMinus = avg(csMinus)
	avgNoSignal := avg(func(s sample) bool { return inTrial(s) && events.NoSignal(s.State.TrialType) })
	row.AvgLickFreqCSPlusTone = avg(func(s sample) bool { return csPlus(s) && s.State.IsTone })
	row.AvgLickFreqCSMinusTone = avg(func(s sample) bool { return csMinus(s) && s.State.IsTone })
	row.AvgLickFreqCSPlusTrace = avg(func(s sample) bool { return csPlus(s) && s.State.IsTrace })
	row.AvgLickFreqCSMinusTrace = avg(func(s sample) bool { return csMinus(s) && s.State.IsTrace })
	row.AvgLickFreqITI = avg(iti)
	row.AvgLickFreqCSPlusITI = avg(func(s sample) bool { return iti(s) && events.CSPlus(s.State.TrialType) })
	row.AvgLickFreqCSMinusITI = avg(func(s sample) bool { return iti(s) && events.CSMinus(s.State.TrialType) })

	row.ZAvgLickFreq = z(row.AvgLickFreq)
	row.ZAvgLickFreqCSPlus = z(row.AvgLickFreqCSPlus)
	row.ZAvgLickFreqCSMinus = z(row.AvgLickFreqCSMinus)
	row.ZAvgLickFreqITI = z(row.AvgLickFreqITI)
	row.ZAvgLickFreqNoSignal = z(avgNoSignal)
	row.ZAvgLickFreqCSPlusTone = z(row.AvgLickFreqCSPlusTone)
	row.ZAvgLickFreqCSMinusTone = z(row.AvgLickFreqCSMinusTone)
	row.ZAvgLickFreqCSPlusTrace = z(row.AvgLickFreqCSPlusTrace)
	row.ZAvgLickFreqCSMinusTrace = z(row.AvgLickFreqCSMinusTrace)
	row.ZAvgLickFreqCSPlusITI = z(row.AvgLickFreqCSPlusITI)
	row.ZAvgLickFreqCSMinusITI = z(row.AvgLickFreqCSMinusITI)

	var all, trial, waterOn counter
	var byType [5]counter
	var waterByType [2]counter
	for _, e := range evs {
		all.add(e)
		if e.State.Water {
			waterOn.add(e)
		}
		if !e.State.IsTrial {
			continue
		}
		trial.add(e)
		tt := e.State.TrialType
		if tt >= 0 && tt < len(byType) {
			byType[tt].add(e)
		}
		if e.State.Water && tt >= 0 && tt < len(waterByType) {
			waterByType[tt].add(e)
		}
	}

	ratio := func(a, b int) float64 { return d.div(float64(a), float64(b)) }

	row.TotalLicks = all.licks
	row.TotalPuffedLicks = all.puffed
	row.TotalLicksInTrial = trial.licks
	row.TotalPuffedLicksInTrial = trial.puffed
	row.ZTotalLicksInTrial = ratio(trial.licks, all.licks)
	row.ZTotalPuffedLicksInTrial = ratio(trial.puffed, all.puffed)

	row.TotalLicksType0 = byType[0].licks
	row.TotalLicksType1 = byType[1].licks
	row.TotalLicksType2 = byType[2].licks
	row.TotalLicksType3 = byType[3].licks
	row.TotalLicksType4 = byType[4].licks
	row.ZTotalLicksType0 = ratio(byType[0].licks, all.licks)
	row.ZTotalLicksType1 = ratio(byType[1].licks, all.licks)
	row.ZTotalLicksType2 = ratio(byType[2].licks, all.licks)
	row.ZTotalLicksType3 = ratio(byType[3].licks, all.licks)
	row.ZTotalLicksType4 = ratio(byType[4].licks, all.licks)
	row.ZTotalPuffedLicksType0 = ratio(byType[0].puffed, all.puffed)
	row.ZTotalPuffedLicksType1 = ratio(byType[1].puffed, all.puffed)

	row.TotalLicksWaterOn = waterOn.licks
	row.TotalLicksWaterOnType0 = waterByType[0].licks
	row.TotalLicksWaterOnType1 = waterByType[1].licks
	row.ZTotalLicksWaterOnType0 = ratio(waterByType[0].licks, waterOn.licks)
	row.ZTotalLicksWaterOnType1 = ratio(waterByType[1].licks, waterOn.licks)
	row.ZTotalPuffedLicksWaterOnType0 = ratio(waterByType[0].puffed, waterOn.puffed)
	row.ZTotalPuffedLicksWaterOnType1 = ratio(waterByType[1].puffed, waterOn.puffed)

	// Air puffs land on type 1 trials; as the mouse learns, type 1 licking
	// drops relative to type 0.
	row.ZLearningRate = d.div(row.ZTotalPuffedLicksType0, row.ZTotalPuffedLicksType1)
	row.ZTraceLearningRate = d.div(row.ZAvgLickFreqCSMinusTrace, row.ZAvgLickFreqCSPlusTrace)
	row.ZLearningRateReward = d.div(row.ZTotalPuffedLicksWaterOnType0, row.ZTotalPuffedLicksWaterOnType1)

	return d.err
}
