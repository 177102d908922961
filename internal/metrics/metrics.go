// Package metrics derives lick, reward and learning-rate metrics from a
// session's enriched events. Every ratio with a zero denominator resolves to
// 0; any other numeric failure is returned as a NumericError.
package metrics

import (
	"fmt"

	"github.com/QuesmaOrg/tfc-rig/internal/events"
	"github.com/QuesmaOrg/tfc-rig/internal/trial"
)

// Input is everything known about one (mouse, session).
type Input struct {
	MouseID    string
	SessionID  int64
	DayOfWeek  string
	Events     []events.Event
	TrialTypes string
	Trials     []trial.Trial
	Metadata   trial.Metadata
}

// Result holds the session row and its per-trial rows.
type Result struct {
	Session SessionMetrics
	Trials  []TrialMetrics
}

// Compute derives both record sets for one (mouse, session).
func Compute(in Input) (*Result, error) {
	samples := lickFrequency(in.Events)

	res := &Result{
		Session: SessionMetrics{
			MouseID:   in.MouseID,
			SessionID: in.SessionID,
			DayOfWeek: in.DayOfWeek,
		},
	}
	if err := computeSession(&res.Session, in.Events, samples); err != nil {
		return nil, fmt.Errorf("session metrics: %w", err)
	}

	base := TrialMetrics{
		MouseID:   in.MouseID,
		SessionID: in.SessionID,
		DayOfWeek: in.DayOfWeek,
	}
	rows, err := computeTrials(base, samples, in.Trials, in.TrialTypes, in.Metadata)
	if err != nil {
		return nil, fmt.Errorf("trial metrics: %w", err)
	}
	res.Trials = rows
	return res, nil
}
