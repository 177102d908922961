package metrics

import (
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/QuesmaOrg/tfc-rig/internal/events"
	"github.com/QuesmaOrg/tfc-rig/internal/trial"
)

// TrialMetrics is one row per (mouse, session, trial).
type TrialMetrics struct {
	MouseID     string `json:"mouse_id"`
	SessionID   int64  `json:"session_id"`
	DayOfWeek   string `json:"day_of_week"`
	Trial       int    `json:"trial"`
	TrialNumber int    `json:"trial_number"`
	TrialType   int    `json:"trial_type"`
	Complete    int    `json:"complete"`

	AvgLickFreq              float64 `json:"avg_lick_freq"`
	AvgLickFreqCSPlus        float64 `json:"avg_lick_freq_csplus"`
	AvgLickFreqCSMinus       float64 `json:"avg_lick_freq_csminus"`
	AvgLickFreqITI           float64 `json:"avg_lick_freq_iti"`
	AvgLickFreqCSPlusTrace   float64 `json:"avg_lick_freq_csplus_trace"`
	AvgLickFreqCSMinusTrace  float64 `json:"avg_lick_freq_csminus_trace"`
	ZAvgLickFreq             float64 `json:"z_avg_lick_freq"`
	ZAvgLickFreqCSPlus       float64 `json:"z_avg_lick_freq_csplus"`
	ZAvgLickFreqCSMinus      float64 `json:"z_avg_lick_freq_csminus"`
	ZAvgLickFreqITI          float64 `json:"z_avg_lick_freq_iti"`
	ZAvgLickFreqCSPlusTrace  float64 `json:"z_avg_lick_freq_csplus_trace"`
	ZAvgLickFreqCSMinusTrace float64 `json:"z_avg_lick_freq_csminus_trace"`
	TotalLicks               int     `json:"total_licks"`

	PreToneLicks       int     `json:"pre_tone_licks"`
	ToneLicks          int     `json:"tone_licks"`
	TraceLicks         int     `json:"trace_licks"`
	PostTraceLicks     int     `json:"post_trace_licks"`
	NormPreToneLicks   float64 `json:"norm_pre_tone_licks"`
	NormToneLicks      float64 `json:"norm_tone_licks"`
	NormTraceLicks     float64 `json:"norm_trace_licks"`
	NormPostTraceLicks float64 `json:"norm_post_trace_licks"`
	PreToneDuration    int     `json:"pre_tone_duration"`
	ToneDuration       int     `json:"tone_duration"`
	TraceDuration      int     `json:"trace_duration"`
	PostTraceDuration  int     `json:"post_trace_duration"`
	NormLickRate       float64 `json:"norm_lick_rate"`

	Rewards                int `json:"rewards"`
	PreToneReward          int `json:"pre_tone_reward"`
	ToneReward             int `json:"tone_reward"`
	TraceReward            int `json:"trace_reward"`
	PostTraceReward        int `json:"post_trace_reward"`
	RewardedLicks          int `json:"rewarded_licks"`
	PreToneRewardedLicks   int `json:"pre_tone_rewarded_licks"`
	ToneRewardedLicks      int `json:"tone_rewarded_licks"`
	TraceRewardedLicks     int `json:"trace_rewarded_licks"`
	PostTraceRewardedLicks int `json:"post_trace_rewarded_licks"`
}

// Interval is a reward window in trial time. Closed is false when the
// window was capped because no "Water off" arrived.
type Interval struct {
	Start, End int
	Closed     bool
}

// Contains reports whether t lies strictly inside the interval.
func (iv Interval) Contains(t int) bool { return t > iv.Start && t < iv.End }

// RewardIntervals pairs "Water on" with the next "Water off" in a trial. A
// window still open at the end of the trial closes at
// min(start+WATER_DISPENSE_TIME, TRIAL_DURATION); without TRIAL_DURATION
// only the dispense time applies.
func RewardIntervals(t trial.Trial, md trial.Metadata) []Interval {
	dispense := md.Int(trial.KeyWaterDispenseTime)
	duration := md.Int(trial.KeyTrialDuration)

	var (
		out  []Interval
		open *Interval
	)
	for _, e := range t.Events {
		switch {
		case strings.Contains(e.Name, events.MarkerWaterOn):
			if open == nil {
				open = &Interval{Start: e.TrialTime}
			}
		case strings.Contains(e.Name, events.MarkerWaterOff):
			if open != nil {
				open.End = e.TrialTime
				open.Closed = true
				out = append(out, *open)
				open = nil
			}
		}
	}
	if open != nil {
		end := open.Start + dispense
		if duration > 0 {
			end = min(end, duration)
		}
		open.End = end
		out = append(out, *open)
	}
	return out
}

// stageTrial fills the stage-based fields of a row from a segmented trial.
func stageTrial(row *TrialMetrics, t trial.Trial, b trial.Bounds, md trial.Metadata, d *divider) {
	var licks [4]int
	var rewarded [4]int
	var rewards [4]int

	intervals := RewardIntervals(t, md)
	for _, lt := range t.Licks() {
		st := b.StageOf(lt)
		licks[st]++
		for _, iv := range intervals {
			if iv.Contains(lt) {
				rewarded[st]++
				break
			}
		}
	}
	for _, iv := range intervals {
		rewards[b.StageOf(iv.Start)]++
	}

	row.PreToneLicks = licks[trial.PreTone]
	row.ToneLicks = licks[trial.Tone]
	row.TraceLicks = licks[trial.Trace]
	row.PostTraceLicks = licks[trial.PostTrace]

	divisor := float64(row.PreToneLicks)
	if row.PreToneLicks == 0 {
		log.Warn().Int("trial", t.Number).Msg("no pre-tone licks, normalizing by 1")
		divisor = 1
	}
	row.NormPreToneLicks = d.div(float64(row.PreToneLicks), divisor)
	row.NormToneLicks = d.div(float64(row.ToneLicks), divisor)
	row.NormTraceLicks = d.div(float64(row.TraceLicks), divisor)
	row.NormPostTraceLicks = d.div(float64(row.PostTraceLicks), divisor)

	row.PreToneDuration = b.Duration(trial.PreTone)
	row.ToneDuration = b.Duration(trial.Tone)
	row.TraceDuration = b.Duration(trial.Trace)
	row.PostTraceDuration = b.Duration(trial.PostTrace)
	row.NormLickRate = d.div(
		d.div(float64(row.ToneLicks), float64(row.ToneDuration)),
		d.div(divisor, float64(row.PreToneDuration)),
	)

	row.Rewards = len(intervals)
	row.PreToneReward = rewards[trial.PreTone]
	row.ToneReward = rewards[trial.Tone]
	row.TraceReward = rewards[trial.Trace]
	row.PostTraceReward = rewards[trial.PostTrace]
	row.PreToneRewardedLicks = rewarded[trial.PreTone]
	row.ToneRewardedLicks = rewarded[trial.Tone]
	row.TraceRewardedLicks = rewarded[trial.Trace]
	row.PostTraceRewardedLicks = rewarded[trial.PostTrace]
	row.RewardedLicks = rewarded[0] + rewarded[1] + rewarded[2] + rewarded[3]
}

// trialAccumulator gathers the per-trial frequency groups keyed by the rig's
// trial counter.
type trialAccumulator struct {
	all, csPlus, csMinus, iti, csPlusTrace, csMinusTrace []float64
	licks                                                int
}

// computeTrials builds the per-trial rows. Rows cover every trial counter
// between the first and last in-session event plus any segmented trial
// outside that range.
func computeTrials(base TrialMetrics, samples []sample, trials []trial.Trial, trialTypes string, md trial.Metadata) ([]TrialMetrics, error) {
	var d divider

	acc := map[int]*trialAccumulator{}
	numbers := map[int]bool{}
	get := func(n int) *trialAccumulator {
		a, ok := acc[n]
		if !ok {
			a = &trialAccumulator{}
			acc[n] = a
		}
		return a
	}

	if len(samples) > 0 {
		lo, hi := samples[0].Trial(), samples[0].Trial()
		for _, s := range samples {
			lo = min(lo, s.Trial())
			hi = max(hi, s.Trial())
		}
		for n := lo; n <= hi; n++ {
			numbers[n] = true
		}
	}

	for _, s := range samples {
		a := get(s.Trial())
		a.all = append(a.all, s.freq)
		a.licks += events.Bit(s.Lick)
		tt := s.State.TrialType
		if !s.State.IsTrial {
			a.iti = append(a.iti, s.freq)
			continue
		}
		switch {
		case events.CSPlus(tt):
			a.csPlus = append(a.csPlus, s.freq)
			if s.State.IsTrace {
				a.csPlusTrace = append(a.csPlusTrace, s.freq)
			}
		case events.CSMinus(tt):
			a.csMinus = append(a.csMinus, s.freq)
			if s.State.IsTrace {
				a.csMinusTrace = append(a.csMinusTrace, s.freq)
			}
		}
	}

	segmented := map[int]trial.Trial{}
	for _, t := range trials {
		if _, dup := segmented[t.Number]; dup {
			log.Warn().Int("trial", t.Number).Msg("duplicate trial number, keeping the first")
			continue
		}
		segmented[t.Number] = t
		numbers[t.Number] = true
	}

	ordered := make([]int, 0, len(numbers))
	for n := range numbers {
		ordered = append(ordered, n)
	}
	sort.Ints(ordered)

	bounds := trial.BoundsFrom(md)
	rows := make([]TrialMetrics, 0, len(ordered))
	for _, n := range ordered {
		row := base
		row.Trial = n
		row.TrialNumber = n
		row.TrialType = typeFromList(trialTypes, n)

		a := get(n)
		row.TotalLicks = a.licks
		row.AvgLickFreq = mean(a.all)
		row.AvgLickFreqCSPlus = mean(a.csPlus)
		row.AvgLickFreqCSMinus = mean(a.csMinus)
		row.AvgLickFreqITI = mean(a.iti)
		row.AvgLickFreqCSPlusTrace = mean(a.csPlusTrace)
		row.AvgLickFreqCSMinusTrace = mean(a.csMinusTrace)

		total := float64(a.licks)
		row.ZAvgLickFreq = d.scaled(zScale, row.AvgLickFreq, total)
		row.ZAvgLickFreqCSPlus = d.scaled(zScale, row.AvgLickFreqCSPlus, total)
		row.ZAvgLickFreqCSMinus = d.scaled(zScale, row.AvgLickFreqCSMinus, total)
		row.ZAvgLickFreqITI = d.scaled(zScale, row.AvgLickFreqITI, total)
		row.ZAvgLickFreqCSPlusTrace = d.scaled(zScale, row.AvgLickFreqCSPlusTrace, total)
		row.ZAvgLickFreqCSMinusTrace = d.scaled(zScale, row.AvgLickFreqCSMinusTrace, total)

		if t, ok := segmented[n]; ok {
			if t.Type != events.NoTrialType {
				row.TrialType = t.Type
			}
			row.Complete = events.Bit(t.Complete)
			stageTrial(&row, t, bounds, md, &d)
		}
		rows = append(rows, row)
	}
	return rows, d.err
}

// typeFromList reads trial n's type from the session's trialTypes list, or
// -1 when the list does not cover it.
func typeFromList(trialTypes string, n int) int {
	if n < 0 || n >= len(trialTypes) {
		return events.NoTrialType
	}
	v, err := strconv.Atoi(trialTypes[n : n+1])
	if err != nil {
		return events.NoTrialType
	}
	return v
}
