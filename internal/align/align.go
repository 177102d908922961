// Package align reconstructs stimulus and reward markers on a secondary
// subject's log from the primary subject's log when both rigs share trial
// timing but run on separate clocks.
package align

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/QuesmaOrg/tfc-rig/internal/events"
	"github.com/QuesmaOrg/tfc-rig/internal/integrity"
	"github.com/QuesmaOrg/tfc-rig/internal/session"
)

// SourcePrefix starts the provenance tag of injected events.
const SourcePrefix = "align:"

// DefaultMarkers are the payloads copied from the primary stream.
var DefaultMarkers = []string{
	events.MarkerPuffStart,
	events.MarkerPuffStop,
	events.MarkerNegativeSignalStart,
	events.MarkerNegativeSignalStop,
	events.MarkerPositiveSignalStart,
	events.MarkerPositiveSignalStop,
}

// Options configure an Aligner.
type Options struct {
	Markers []string
	// RunID identifies one alignment run in provenance tags. A random id is
	// used when empty.
	RunID string
}

// Aligner copies markers between two streams.
type Aligner struct {
	markers []string
	runID   string
}

// New returns an Aligner.
func New(opts Options) *Aligner {
	markers := opts.Markers
	if len(markers) == 0 {
		markers = DefaultMarkers
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	return &Aligner{markers: markers, runID: runID}
}

// Report summarizes one alignment.
type Report struct {
	RunID     string
	Trials    int
	Injected  int
	Skipped   bool
	Reason    string
	Unmatched int
}

// Injected reports whether e was added by a previous alignment.
func Injected(e session.RawEvent) bool {
	return strings.HasPrefix(e.Source, SourcePrefix)
}

// Align returns the secondary stream with the primary's markers merged in.
// For trial i, markers in (t_end[i-1], t_end[i]] are shifted by
// t_end[i]-s_end[i] onto the secondary clock. A secondary stream that
// already carries injected events is returned unchanged.
func (a *Aligner) Align(primary, secondary []session.RawEvent, primaryID, secondaryID string) ([]session.RawEvent, Report, error) {
	rep := Report{RunID: a.runID}

	for _, e := range secondary {
		if Injected(e) {
			rep.Skipped = true
			rep.Reason = fmt.Sprintf("already aligned by %s", strings.TrimPrefix(e.Source, SourcePrefix))
			return secondary, rep, nil
		}
	}

	pEnds := trialEnds(primary)
	sEnds := trialEnds(secondary)
	if len(pEnds) == 0 {
		return secondary, rep, fmt.Errorf("primary stream %s has no trial ends", primaryID)
	}
	n := min(len(pEnds), len(sEnds))
	if len(pEnds) != len(sEnds) {
		rep.Unmatched = max(len(pEnds), len(sEnds)) - n
		log.Warn().
			Int("primary_trials", len(pEnds)).
			Int("secondary_trials", len(sEnds)).
			Msg("trial end counts differ, aligning matched trials only")
	}
	rep.Trials = n

	tag := SourcePrefix + a.runID + ":" + primaryID
	merged := make([]session.RawEvent, len(secondary), len(secondary)+len(primary))
	copy(merged, secondary)

	for i := 0; i < n; i++ {
		delta := pEnds[i].Sub(sEnds[i])
		var lower time.Time
		if i > 0 {
			lower = pEnds[i-1]
		}
		for _, e := range primary {
			t := e.AbsoluteTime.Time
			if t.IsZero() || !a.isMarker(e.Message) {
				continue
			}
			if i > 0 && !t.After(lower) {
				continue
			}
			if t.After(pEnds[i]) {
				continue
			}
			merged = append(merged, session.RawEvent{
				Message:      rewriteSubject(e.Message, primaryID, secondaryID),
				AbsoluteTime: session.NewTimestamp(t.Add(-delta)),
				Source:       tag,
			})
			rep.Injected++
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].AbsoluteTime.Before(merged[j].AbsoluteTime.Time)
	})
	return merged, rep, nil
}

// AlignDocument aligns two streams of one session document in place.
func (a *Aligner) AlignDocument(doc *session.Document, primaryID, secondaryID string) (Report, error) {
	primary, ok := doc.Data[primaryID]
	if !ok {
		return Report{}, fmt.Errorf("no data for primary %s", primaryID)
	}
	secondary, ok := doc.Data[secondaryID]
	if !ok {
		return Report{}, fmt.Errorf("no data for secondary %s", secondaryID)
	}
	merged, rep, err := a.Align(primary, secondary, primaryID, secondaryID)
	if err != nil {
		return rep, err
	}
	doc.Data[secondaryID] = merged
	return rep, nil
}

func (a *Aligner) isMarker(msg string) bool {
	for _, m := range a.markers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

func trialEnds(evs []session.RawEvent) []time.Time {
	var out []time.Time
	for _, e := range evs {
		if strings.Contains(e.Message, integrity.TrialEnded) && !e.AbsoluteTime.IsZero() {
			out = append(out, e.AbsoluteTime.Time)
		}
	}
	return out
}

// rewriteSubject swaps whole occurrences of the mouse id from for to. An id
// embedded in a longer id ("10_1" in "110_1") is left alone.
func rewriteSubject(msg, from, to string) string {
	if from == "" || from == to {
		return msg
	}
	var b strings.Builder
	rest := msg
	for {
		i := strings.Index(rest, from)
		if i < 0 {
			b.WriteString(rest)
			return b.String()
		}
		end := i + len(from)
		whole := (i == 0 || !isIDByte(rest[i-1])) && (end == len(rest) || !isIDByte(rest[end]))
		b.WriteString(rest[:i])
		if whole {
			b.WriteString(to)
		} else {
			b.WriteString(from)
		}
		rest = rest[end:]
	}
}

func isIDByte(c byte) bool {
	return c == '_' || c == '-' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
