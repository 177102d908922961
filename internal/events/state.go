// Package events runs the rig state machine over a session's serial lines,
// producing one enriched event per valid line.
package events

import (
	"github.com/QuesmaOrg/tfc-rig/internal/grammar"
	"github.com/QuesmaOrg/tfc-rig/internal/session"
)

// NoTrialType is the trial type before the first currentTrialType line and
// after the session ends.
const NoTrialType = -1

// unset marks timing parameters that have not been printed yet.
const unset = -1

// State is the mutable accumulator carried across one session's lines.
type State struct {
	IsSession        bool
	IsTrial          bool
	TrialType        int
	NegativeSignal   bool
	PositiveSignal   bool
	Water            bool
	AuditoryStart    int
	AuditoryStop     int
	AirPuffStart     int
	AirPuffTotal     int
	AirPuffStop      int
	FirstPuffStarted bool
	IsTone           bool
	IsTrace          bool
}

// NewState returns the state at the top of a session log.
func NewState() State {
	return State{
		TrialType:     NoTrialType,
		AuditoryStart: unset,
		AuditoryStop:  unset,
		AirPuffStart:  unset,
		AirPuffTotal:  unset,
		AirPuffStop:   unset,
	}
}

// Event is a raw line enriched with its parsed token and a snapshot of the
// state after the line was applied.
type Event struct {
	Raw        session.RawEvent
	Token      grammar.Token
	State      State
	Lick       bool
	PuffedLick bool
}

// Name is the event's payload text.
func (e Event) Name() string { return e.Token.Payload }

// TrialTime is the trial-relative time in milliseconds.
func (e Event) TrialTime() int { return e.Token.TrialMS }

// Trial is the rig's trial counter for the line.
func (e Event) Trial() int { return e.Token.Trial }

// CSPlus reports whether t is a reward-predicting trial type.
func CSPlus(t int) bool { return t == 1 || t == 2 }

// CSMinus reports whether t is a non-reward-predicting trial type.
func CSMinus(t int) bool { return t == 0 || t == 3 }

// NoSignal reports whether t is the trial type without a conditioned stimulus.
func NoSignal(t int) bool { return t == 4 }

// Bit renders a flag the way tabular consumers expect it.
func Bit(b bool) int {
	if b {
		return 1
	}
	return 0
}
