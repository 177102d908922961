package events

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QuesmaOrg/tfc-rig/internal/grammar"
	"github.com/QuesmaOrg/tfc-rig/internal/session"
)

var base = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func raws(lines ...string) []session.RawEvent {
	out := make([]session.RawEvent, len(lines))
	for i, l := range lines {
		out[i] = session.RawEvent{Message: l, AbsoluteTime: session.NewTimestamp(base.Add(time.Duration(i) * 10 * time.Millisecond))}
	}
	return out
}

func find(t *testing.T, events []Event, name string, trialMS int) Event {
	t.Helper()
	for _, e := range events {
		if e.Name() == name && e.TrialTime() == trialMS {
			return e
		}
	}
	t.Fatalf("no event %q at %d", name, trialMS)
	return Event{}
}

func TestRun_SessionAndTrialFlags(t *testing.T) {
	res, err := Run(raws(
		"0: 0: 0: Session has started",
		"1: 100: 0: Trial has started",
		"1: 101: 1: currentTrialType: 1",
		"1: 200: 100: Lick",
		"1: 50100: 50000: Trial has ended",
		"1: 50200: 50100: Lick",
		"1: 60000: 59900: Session has ended",
	), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.Events, 7)

	lick := res.Events[3]
	assert.True(t, lick.Lick)
	assert.True(t, lick.State.IsSession)
	assert.True(t, lick.State.IsTrial)
	assert.Equal(t, 1, lick.State.TrialType)

	iti := res.Events[5]
	assert.False(t, iti.State.IsTrial)
	assert.Equal(t, 1, iti.State.TrialType, "trial type survives trial end")

	end := res.Events[6]
	assert.False(t, end.State.IsSession)
	assert.Equal(t, NoTrialType, end.State.TrialType)
	assert.False(t, end.Lick)
}

func TestRun_ResetTrialTypeOnEnd(t *testing.T) {
	opts := DefaultOptions()
	opts.ResetTrialTypeOnEnd = true
	res, err := Run(raws(
		"0: 0: 0: Session has started",
		"1: 100: 0: Trial has started",
		"1: 101: 1: currentTrialType: 3",
		"1: 50100: 50000: Trial has ended",
	), opts)
	require.NoError(t, err)
	assert.Equal(t, NoTrialType, res.Events[3].State.TrialType)
}

func TestRun_InvalidTrialType(t *testing.T) {
	lines := raws(
		"0: 0: 0: Session has started",
		"1: 101: 1: currentTrialType: 3",
	)

	_, err := Run(lines, Options{AllowedTrialTypes: TwoTypeTrialTypes})
	var tte *InvalidTrialTypeError
	require.True(t, errors.As(err, &tte), "got %v", err)
	assert.Equal(t, "currentTrialType: 3", tte.Payload)

	_, err = Run(lines, DefaultOptions())
	assert.NoError(t, err)

	_, err = Run(raws("1: 101: 1: currentTrialType: 7"), DefaultOptions())
	assert.True(t, errors.As(err, &tte))
}

func TestBalanced(t *testing.T) {
	tests := []struct {
		trialTypes string
		want       bool
	}{
		{"", true},
		{"0", true},
		{"0101", true},
		{"1100", true},
		{"012210", true},
		{"0111", false},
		{"00112", false},
		{"0123401234", true},
	}
	for _, tt := range tests {
		t.Run(tt.trialTypes, func(t *testing.T) {
			assert.Equal(t, tt.want, Balanced(tt.trialTypes))
		})
	}
}

func TestRun_UnbalancedTrialTypes(t *testing.T) {
	lines := raws(
		"0: 0: 0: Session has started",
		"0: 1: 1: trialTypes: 0111",
	)

	_, err := Run(lines, DefaultOptions())
	var ue *UnbalancedTrialTypesError
	require.True(t, errors.As(err, &ue), "got %v", err)
	assert.Equal(t, "0=1 1=3", ue.Counts())

	opts := DefaultOptions()
	opts.WarnUnbalanced = true
	res, err := Run(lines, opts)
	require.NoError(t, err)
	assert.Len(t, res.Warnings, 1)
	assert.Equal(t, "0111", res.TrialTypes)
}

func TestRun_TrialTypesContinuation(t *testing.T) {
	res, err := Run(raws(
		"0: 0: 0: Session has started",
		"0: 1: 1: trialTypes",
		"0: 2: 2: 0110",
		"0: 3: 3: Lick",
	), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, "0110", res.TrialTypes)
	require.Len(t, res.Events, 3, "key line without value is not emitted")
	assert.Equal(t, "0110", res.Events[1].Name())
}

func TestRun_MalformedLinesSkipped(t *testing.T) {
	lines := raws(
		"Waiting for session to start...",
		"0: 0: 0: Session has started",
		"0: 12",
		"x: 1: 1: Lick",
		"0: 2: 2: Lick",
	)
	lines = append(lines, session.RawEvent{Message: "0: 3: 3: Lick"})

	res, err := Run(lines, DefaultOptions())
	require.NoError(t, err)
	assert.Len(t, res.Events, 2)
	assert.Len(t, res.Malformed, 4)
}

func TestRun_BadTimeIsWarned(t *testing.T) {
	lines := raws(
		"0: 0: 0: Session has started",
		"0: 2: 2: Lick",
	)
	lines = append(lines, session.RawEvent{Message: "0: 3: 3: Lick"})

	res, err := Run(lines, DefaultOptions())
	require.NoError(t, err)
	assert.Len(t, res.Events, 2)
	require.Len(t, res.Malformed, 1)
	assert.Equal(t, grammar.ReasonBadTime, res.Malformed[0].Reason)

	require.Len(t, res.Warnings, 1)
	var bad *BadTimeError
	require.ErrorAs(t, res.Warnings[0], &bad)
	assert.Equal(t, "0: 3: 3: Lick", bad.Line)
}

func TestRun_UnknownPayloadIsEmitted(t *testing.T) {
	res, err := Run(raws(
		"0: 0: 0: Session has started",
		"0: 5: 5: Rig reset: port 3",
	), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.Events, 2)
	assert.Equal(t, "Rig reset: port 3", res.Events[1].Name())
	assert.Equal(t, res.Events[0].State, res.Events[1].State)
}

func TestRun_ToneTracePuff(t *testing.T) {
	res, err := Run(raws(
		"0: 0: 0: Session has started",
		"0: 1: 1: AUDITORY_START: 15000",
		"0: 2: 2: AUDITORY_STOP: 35000",
		"0: 3: 3: AIR_PUFF_START_TIME: 45000",
		"0: 4: 4: AIR_PUFF_TOTAL_TIME: 5000",
		"1: 10: 0: Trial has started",
		"1: 20010: 20000: Lick",
		"1: 40010: 40000: Lick",
		"1: 44010: 44000: Lick",
		"1: 45010: 45000: Puff start",
		"1: 46010: 46000: Lick",
		"1: 50010: 50000: Lick",
		"1: 50020: 50001: Lick",
		"1: 50030: 50002: Puff stop",
	), DefaultOptions())
	require.NoError(t, err)

	st := res.Events[4].State
	assert.Equal(t, 45000, st.AirPuffStart)
	assert.Equal(t, 50000, st.AirPuffStop)

	tone := find(t, res.Events, "Lick", 20000)
	assert.True(t, tone.State.IsTone)
	assert.False(t, tone.State.IsTrace)
	assert.False(t, tone.PuffedLick)

	trace := find(t, res.Events, "Lick", 40000)
	assert.False(t, trace.State.IsTone)
	assert.True(t, trace.State.IsTrace)

	assert.False(t, find(t, res.Events, "Lick", 44000).PuffedLick, "before puff start")
	assert.True(t, find(t, res.Events, "Lick", 46000).PuffedLick)
	assert.True(t, find(t, res.Events, "Lick", 50000).PuffedLick, "window is inclusive")

	late := find(t, res.Events, "Lick", 50001)
	assert.False(t, late.PuffedLick)
	assert.False(t, late.State.FirstPuffStarted)
}

func TestRun_Toggles(t *testing.T) {
	res, err := Run(raws(
		"0: 0: 0: Session has started",
		"1: 1: 1: Negative signal start",
		"1: 2: 2: Water on",
		"1: 3: 3: Positive signal start",
		"1: 4: 4: Negative signal stop",
		"1: 5: 5: Water off",
	), DefaultOptions())
	require.NoError(t, err)

	assert.True(t, res.Events[1].State.NegativeSignal)
	assert.True(t, res.Events[2].State.Water)
	assert.True(t, res.Events[3].State.PositiveSignal)
	assert.False(t, res.Events[4].State.NegativeSignal)
	assert.True(t, res.Events[4].State.Water)
	assert.False(t, res.Events[5].State.Water)
}

func TestRun_ParameterError(t *testing.T) {
	_, err := Run(raws("0: 1: 1: AUDITORY_START: soon"), DefaultOptions())
	var pe *ParameterError
	require.True(t, errors.As(err, &pe), "got %v", err)
	assert.Equal(t, ParamAuditoryStart, pe.Key)
}
