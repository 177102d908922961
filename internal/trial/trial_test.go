package trial

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QuesmaOrg/tfc-rig/internal/events"
	"github.com/QuesmaOrg/tfc-rig/internal/session"
)

func run(t *testing.T, lines ...string) []events.Event {
	t.Helper()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	raws := make([]session.RawEvent, len(lines))
	for i, l := range lines {
		raws[i] = session.RawEvent{Message: l, AbsoluteTime: session.NewTimestamp(base.Add(time.Duration(i) * time.Second))}
	}
	res, err := events.Run(raws, events.DefaultOptions())
	require.NoError(t, err)
	return res.Events
}

func TestSegment(t *testing.T) {
	evs := run(t,
		"0: 0: 0: Session has started",
		"0: 5: 5: Lick",
		"1: 10: 0: Trial has started",
		"1: 11: 1: currentTrialType: 2",
		"1: 500: 490: Lick",
		"1: 50010: 50000: Trial has ended",
		"1: 50500: 50490: Lick",
		"2: 60000: 0: Trial has started",
		"2: 60001: 1: currentTrialType: 0",
		"2: 61000: 1000: Lick",
		"2: 110000: 50000: Trial has ended",
		"2: 120000: 60000: Session has ended",
	)

	trials := Segment(evs)
	require.Len(t, trials, 2)

	assert.Equal(t, 1, trials[0].Number)
	assert.Equal(t, 2, trials[0].Type)
	assert.True(t, trials[0].Complete)
	assert.Len(t, trials[0].Events, 4)
	assert.Equal(t, "Trial has started", trials[0].Events[0].Name)
	assert.Equal(t, []int{490}, trials[0].Licks())

	assert.Equal(t, 2, trials[1].Number)
	assert.Equal(t, 0, trials[1].Type)
	assert.Equal(t, 50000, trials[1].LastTime())
}

func TestSegment_ForceClose(t *testing.T) {
	evs := run(t,
		"0: 0: 0: Session has started",
		"1: 10: 0: Trial has started",
		"1: 20: 10: Lick",
		"2: 30: 0: Trial has started",
		"2: 40: 10: Lick",
		"2: 50: 20: Trial has ended",
		"3: 60: 0: Trial has started",
		"3: 70: 10: Lick",
	)

	trials := Segment(evs)
	require.Len(t, trials, 3)
	assert.False(t, trials[0].Complete)
	assert.Len(t, trials[0].Events, 2)
	assert.True(t, trials[1].Complete)
	assert.False(t, trials[2].Complete)
	assert.Equal(t, []int{10}, trials[2].Licks())
}

func TestParseMetadata(t *testing.T) {
	evs := run(t,
		"0: 0: 0: AUDITORY_START: 15000",
		"0: 0: 0: AUDITORY_STOP: 35000",
		"0: 0: 0: TRIAL_TYPE_1: no_water_CS-",
		"0: 0: 0: currentTrialType: 1",
		"0: 0: 0: Lick",
	)
	md := ParseMetadata(evs)

	assert.Equal(t, 15000, md.Int(KeyAuditoryStart))
	assert.Equal(t, 0, md.Int(KeyAirPuffStart))
	assert.Equal(t, "no_water_CS-", md.String("TRIAL_TYPE_1"))
	assert.Equal(t, 0, md.Int("TRIAL_TYPE_1"))
	assert.Equal(t, []string{"AUDITORY_START", "AUDITORY_STOP", "TRIAL_TYPE_1"}, md.Keys())
}

func TestBounds(t *testing.T) {
	md := Metadata{
		KeyAuditoryStart: "15000",
		KeyAuditoryStop:  "35000",
		KeyAirPuffStart:  "45000",
		KeyAirPuffTotal:  "200",
		KeyTrialDuration: "50000",
	}
	b := BoundsFrom(md)
	assert.Equal(t, Bounds{PreToneEnd: 15000, ToneEnd: 35000, TraceEnd: 45000, TrialEnd: 50000}, b)

	tests := []struct {
		trialMS int
		want    Stage
	}{
		{0, PreTone},
		{14999, PreTone},
		{15000, Tone},
		{34999, Tone},
		{35000, Trace},
		{40000, Trace},
		{45000, PostTrace},
		{49000, PostTrace},
	}
	for _, tt := range tests {
		if got := b.StageOf(tt.trialMS); got != tt.want {
			t.Errorf("StageOf(%d) = %v, want %v", tt.trialMS, got, tt.want)
		}
	}

	assert.Equal(t, 15000, b.Duration(PreTone))
	assert.Equal(t, 20000, b.Duration(Tone))
	assert.Equal(t, 10000, b.Duration(Trace))
	assert.Equal(t, 5000, b.Duration(PostTrace))
}

func TestBounds_Clamped(t *testing.T) {
	b := BoundsFrom(Metadata{KeyAuditoryStart: "-5", KeyAuditoryStop: "-10", KeyAirPuffStart: "-20"})
	assert.Equal(t, 0, b.PreToneEnd)
	assert.Equal(t, 0, b.ToneEnd)
	assert.Equal(t, 0, b.TraceEnd)

	empty := BoundsFrom(Metadata{})
	assert.Equal(t, PostTrace, empty.StageOf(100))
}
