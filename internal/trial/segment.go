// Package trial regroups enriched events into per-trial records and places
// them on the pre-tone, tone, trace and post-trace stages.
package trial

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/QuesmaOrg/tfc-rig/internal/events"
	"github.com/QuesmaOrg/tfc-rig/internal/integrity"
)

// Event is one line inside a trial.
type Event struct {
	AbsoluteTime time.Time
	TrialTime    int
	Name         string
	Lick         bool
	PuffedLick   bool
}

// Trial is the event list bracketed by "Trial has started" and
// "Trial has ended". Complete is false for trials closed without their end
// marker.
type Trial struct {
	Number   int
	Type     int
	Events   []Event
	Complete bool
}

// Licks returns the trial times of all licks.
func (t *Trial) Licks() []int {
	var out []int
	for _, e := range t.Events {
		if e.Lick {
			out = append(out, e.TrialTime)
		}
	}
	return out
}

// LastTime is the trial time of the final event.
func (t *Trial) LastTime() int {
	if len(t.Events) == 0 {
		return 0
	}
	return t.Events[len(t.Events)-1].TrialTime
}

// Segment splits the event sequence into trials. A start marker inside an
// open trial force-closes it, and a trial still open at the end of the
// stream is kept with whatever events it has.
func Segment(evs []events.Event) []Trial {
	var (
		trials []Trial
		open   *Trial
	)

	finish := func(complete bool) {
		open.Complete = complete
		trials = append(trials, *open)
		open = nil
	}

	for _, e := range evs {
		name := e.Name()
		if strings.Contains(name, integrity.TrialStarted) {
			if open != nil {
				log.Warn().Int("trial", open.Number).Msg("trial started before previous trial ended, closing it")
				finish(false)
			}
			open = &Trial{Number: e.Trial(), Type: events.NoTrialType}
		}
		if open == nil {
			continue
		}

		if e.State.TrialType != events.NoTrialType {
			open.Type = e.State.TrialType
		}
		open.Events = append(open.Events, Event{
			AbsoluteTime: e.Raw.AbsoluteTime.Time,
			TrialTime:    e.TrialTime(),
			Name:         name,
			Lick:         e.Lick,
			PuffedLick:   e.PuffedLick,
		})

		if strings.Contains(name, integrity.TrialEnded) {
			finish(true)
		}
	}

	if open != nil {
		log.Warn().Int("trial", open.Number).Msg("stream ended inside a trial, keeping partial trial")
		finish(false)
	}
	return trials
}
