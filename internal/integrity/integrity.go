// Package integrity gates a session log before any derived computation.
package integrity

import (
	"fmt"
	"strings"
)

// Markers searched for in the session text.
const (
	SessionStarted = "Session has started"
	SessionEnded   = "Session has ended"
	TrialStarted   = "Trial has started"
	TrialEnded     = "Trial has ended"
)

// SessionBoundaryError means the log does not both start and end a session.
type SessionBoundaryError struct {
	HasStart bool
	HasEnd   bool
}

func (e *SessionBoundaryError) Error() string {
	return "session either does not start or does not end"
}

// TrialBalanceError means trial start and end markers are unpaired.
type TrialBalanceError struct {
	Starts int
	Ends   int
}

func (e *TrialBalanceError) Error() string {
	return "trial start, end mismatch"
}

// Detail describes the counts behind a failure.
func (e *TrialBalanceError) Detail() string {
	return fmt.Sprintf("%d started, %d ended", e.Starts, e.Ends)
}

// Report is the outcome of a whole-blob scan.
type Report struct {
	HasStart    bool
	HasEnd      bool
	TrialStarts int
	TrialEnds   int
}

// Scan counts the markers in the concatenated messages.
func Scan(messages []string) Report {
	blob := strings.Join(messages, "\n")
	return Report{
		HasStart:    strings.Contains(blob, SessionStarted),
		HasEnd:      strings.Contains(blob, SessionEnded),
		TrialStarts: strings.Count(blob, TrialStarted),
		TrialEnds:   strings.Count(blob, TrialEnded),
	}
}

// Err returns the first invariant the report violates, or nil.
func (r Report) Err() error {
	if !r.HasStart || !r.HasEnd {
		return &SessionBoundaryError{HasStart: r.HasStart, HasEnd: r.HasEnd}
	}
	if r.TrialStarts != r.TrialEnds {
		return &TrialBalanceError{Starts: r.TrialStarts, Ends: r.TrialEnds}
	}
	return nil
}

// Check validates one (mouse, session) log. The search runs over raw text
// rather than parsed tokens so garbled lines still count.
func Check(messages []string) error {
	return Scan(messages).Err()
}
