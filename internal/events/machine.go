package events

import (
	"errors"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/QuesmaOrg/tfc-rig/internal/grammar"
	"github.com/QuesmaOrg/tfc-rig/internal/integrity"
	"github.com/QuesmaOrg/tfc-rig/internal/session"
)

// Payload markers the machine reacts to.
const (
	MarkerCurrentTrialType    = "currentTrialType"
	MarkerTrialTypes          = "trialTypes"
	MarkerLick                = "Lick"
	MarkerPuffStart           = "Puff start"
	MarkerPuffStop            = "Puff stop"
	MarkerNegativeSignalStart = "Negative signal start"
	MarkerNegativeSignalStop  = "Negative signal stop"
	MarkerPositiveSignalStart = "Positive signal start"
	MarkerPositiveSignalStop  = "Positive signal stop"
	MarkerWaterOn             = "Water on"
	MarkerWaterOff            = "Water off"
)

// Timing parameter keys.
const (
	ParamAirPuffStart  = "AIR_PUFF_START_TIME"
	ParamAirPuffTotal  = "AIR_PUFF_TOTAL_TIME"
	ParamAuditoryStart = "AUDITORY_START"
	ParamAuditoryStop  = "AUDITORY_STOP"
)

// DefaultTrialTypes are the trial types a five-type rig may announce.
var DefaultTrialTypes = []int{0, 1, 2, 3, 4}

// TwoTypeTrialTypes restrict a legacy two-type rig.
var TwoTypeTrialTypes = []int{0, 1}

// Options configure a Machine.
type Options struct {
	AllowedTrialTypes []int
	// WarnUnbalanced logs an unbalanced trialTypes list instead of failing.
	WarnUnbalanced bool
	// ResetTrialTypeOnEnd sets the trial type back to -1 on "Trial has ended".
	ResetTrialTypeOnEnd bool
}

// DefaultOptions allow all five trial types and fail on imbalance.
func DefaultOptions() Options {
	return Options{AllowedTrialTypes: DefaultTrialTypes}
}

// Machine applies rig lines to a State in arrival order. A Machine is owned
// by one session and is not safe for concurrent use.
type Machine struct {
	opts  Options
	state State

	trialTypes      string
	awaitTrialTypes bool

	malformed []grammar.Result
	warnings  []error
}

// NewMachine returns a machine positioned before the first line.
func NewMachine(opts Options) *Machine {
	if len(opts.AllowedTrialTypes) == 0 {
		opts.AllowedTrialTypes = DefaultTrialTypes
	}
	return &Machine{opts: opts, state: NewState()}
}

// State returns a copy of the current state.
func (m *Machine) State() State { return m.state }

// TrialTypes is the last trialTypes list seen.
func (m *Machine) TrialTypes() string { return m.trialTypes }

// Malformed returns the lines skipped so far.
func (m *Machine) Malformed() []grammar.Result { return m.malformed }

// Warnings returns soft failures recorded so far.
func (m *Machine) Warnings() []error { return m.warnings }

// Step applies one raw line. ok is false when the line produced no event:
// malformed lines and a trialTypes key whose value arrives on the next line.
func (m *Machine) Step(raw session.RawEvent) (ev Event, ok bool, err error) {
	res := grammar.Classify(raw.Message)
	if res.OK() && raw.AbsoluteTime.IsZero() {
		m.malformed = append(m.malformed, grammar.Result{Kind: grammar.Malformed, Reason: grammar.ReasonBadTime, Line: raw.Message})
		m.warnings = append(m.warnings, &BadTimeError{Line: raw.Message})
		log.Warn().Str("line", raw.Message).Msg("skipping line with unparseable absolute_time")
		return Event{}, false, nil
	}
	if !res.OK() {
		m.malformed = append(m.malformed, res)
		log.Debug().Str("line", raw.Message).Str("reason", string(res.Reason)).Msg("skipping bad data line")
		return Event{}, false, nil
	}

	tok := res.Token
	msg := tok.Payload
	s := &m.state

	if strings.Contains(msg, integrity.SessionStarted) {
		s.IsSession = true
	}
	if strings.Contains(msg, integrity.SessionEnded) {
		s.IsSession = false
		s.TrialType = NoTrialType
	}

	if strings.Contains(msg, integrity.TrialStarted) {
		s.IsTrial = true
	}
	if strings.Contains(msg, integrity.TrialEnded) {
		s.IsTrial = false
		if m.opts.ResetTrialTypeOnEnd {
			s.TrialType = NoTrialType
		}
	}

	if strings.Contains(msg, MarkerCurrentTrialType) {
		if err := m.applyCurrentTrialType(msg); err != nil {
			return Event{}, false, err
		}
	}

	if strings.Contains(msg, MarkerTrialTypes) || m.awaitTrialTypes {
		held, err := m.applyTrialTypes(msg)
		if err != nil {
			return Event{}, false, err
		}
		if held {
			return Event{}, false, nil
		}
	}

	if err := m.applyParameters(msg); err != nil {
		return Event{}, false, err
	}

	t := tok.TrialMS
	lick := msg == MarkerLick
	if msg == MarkerPuffStart {
		s.FirstPuffStarted = true
	}

	puffed := false
	if s.AirPuffStart > 0 && s.AirPuffStop > 0 {
		if lick && s.FirstPuffStarted && t >= s.AirPuffStart && t <= s.AirPuffStop {
			puffed = true
		}
		if t > s.AirPuffStop {
			s.FirstPuffStarted = false
		}
	}

	if s.AuditoryStart > 0 && s.AuditoryStop > 0 {
		s.IsTone = t > s.AuditoryStart && t < s.AuditoryStop
	}
	if s.AirPuffStart > 0 && s.AuditoryStop > 0 {
		s.IsTrace = t > s.AuditoryStop && t < s.AirPuffStart
	}

	toggle(msg, MarkerNegativeSignalStart, MarkerNegativeSignalStop, &s.NegativeSignal)
	toggle(msg, MarkerPositiveSignalStart, MarkerPositiveSignalStop, &s.PositiveSignal)
	toggle(msg, MarkerWaterOn, MarkerWaterOff, &s.Water)

	return Event{
		Raw:        raw,
		Token:      tok,
		State:      m.state,
		Lick:       lick,
		PuffedLick: puffed,
	}, true, nil
}

func toggle(msg, on, off string, flag *bool) {
	if strings.Contains(msg, on) {
		*flag = true
	}
	if strings.Contains(msg, off) {
		*flag = false
	}
}

func (m *Machine) applyCurrentTrialType(msg string) error {
	v, ok := grammar.Value(msg)
	if !ok {
		return &InvalidTrialTypeError{Payload: msg, Allowed: m.opts.AllowedTrialTypes}
	}
	tt, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || !slices.Contains(m.opts.AllowedTrialTypes, tt) {
		return &InvalidTrialTypeError{Payload: msg, Allowed: m.opts.AllowedTrialTypes}
	}
	m.state.TrialType = tt
	return nil
}

// applyTrialTypes records the session's trial type list. held reports that
// the key arrived without its value, which is then taken from the first
// field of the next line.
func (m *Machine) applyTrialTypes(msg string) (held bool, err error) {
	if m.awaitTrialTypes {
		m.trialTypes = grammar.Fields(msg)[0]
		m.awaitTrialTypes = false
	} else {
		v, ok := grammar.Value(msg)
		if !ok {
			m.awaitTrialTypes = true
			return true, nil
		}
		m.trialTypes = v
	}

	if Balanced(m.trialTypes) {
		return false, nil
	}
	uerr := &UnbalancedTrialTypesError{Payload: msg, TrialTypes: m.trialTypes}
	if !m.opts.WarnUnbalanced {
		return false, uerr
	}
	log.Warn().Str("trial_types", m.trialTypes).Str("counts", uerr.Counts()).Msg("unbalanced trial types")
	m.warnings = append(m.warnings, uerr)
	return false, nil
}

func (m *Machine) applyParameters(msg string) error {
	s := &m.state
	params := []struct {
		key string
		set func(int)
	}{
		{ParamAirPuffStart, func(n int) { s.AirPuffStart = n }},
		{ParamAirPuffTotal, func(n int) {
			s.AirPuffTotal = n
			s.AirPuffStop = s.AirPuffStart + n
		}},
		{ParamAuditoryStart, func(n int) { s.AuditoryStart = n }},
		{ParamAuditoryStop, func(n int) { s.AuditoryStop = n }},
	}
	for _, p := range params {
		if !strings.Contains(msg, p.key) {
			continue
		}
		v, ok := grammar.Value(msg)
		if !ok {
			return &ParameterError{Key: p.key, Payload: msg, Err: errors.New("missing value")}
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return &ParameterError{Key: p.key, Payload: msg, Err: err}
		}
		p.set(n)
	}
	return nil
}

// Balanced reports whether every distinct character of trialTypes occurs the
// same number of times.
func Balanced(trialTypes string) bool {
	want := -1
	for _, n := range countRunes(trialTypes) {
		if want == -1 {
			want = n
			continue
		}
		if n != want {
			return false
		}
	}
	return true
}

func countRunes(s string) map[rune]int {
	counts := map[rune]int{}
	for _, r := range s {
		counts[r]++
	}
	return counts
}

// Result is the outcome of running a whole session through a Machine.
type Result struct {
	Events     []Event
	Malformed  []grammar.Result
	Warnings   []error
	TrialTypes string
}

// Run applies every line of a session in order. The first hard error stops
// the run.
func Run(raws []session.RawEvent, opts Options) (*Result, error) {
	m := NewMachine(opts)
	events := make([]Event, 0, len(raws))
	for _, raw := range raws {
		ev, ok, err := m.Step(raw)
		if err != nil {
			return nil, err
		}
		if ok {
			events = append(events, ev)
		}
	}
	return &Result{
		Events:     events,
		Malformed:  m.Malformed(),
		Warnings:   m.Warnings(),
		TrialTypes: m.TrialTypes(),
	}, nil
}
