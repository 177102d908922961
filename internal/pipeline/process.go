// Package pipeline runs session logs through integrity checks, the state
// machine, trial segmentation and metrics, one file or a whole batch at a
// time.
package pipeline

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/QuesmaOrg/tfc-rig/internal/events"
	"github.com/QuesmaOrg/tfc-rig/internal/integrity"
	"github.com/QuesmaOrg/tfc-rig/internal/metrics"
	"github.com/QuesmaOrg/tfc-rig/internal/session"
	"github.com/QuesmaOrg/tfc-rig/internal/trial"
)

// SessionResult is the processed form of one (mouse, session).
type SessionResult struct {
	Info       session.Info
	MouseID    string
	Lines      int
	Events     []events.Event
	Malformed  int
	Trials     []trial.Trial
	Metadata   trial.Metadata
	TrialTypes string
	Warnings   []error
	Metrics    *metrics.Result
}

// ProcessStream runs one mouse's raw lines through the full chain.
func ProcessStream(info session.Info, mouseID string, raws []session.RawEvent, opts events.Options) (*SessionResult, error) {
	res, err := Analyze(info, mouseID, raws, opts)
	if err != nil {
		return nil, err
	}

	m, err := metrics.Compute(metrics.Input{
		MouseID:    mouseID,
		SessionID:  info.SessionID,
		DayOfWeek:  info.DayOfWeek,
		Events:     res.Events,
		TrialTypes: res.TrialTypes,
		Trials:     res.Trials,
		Metadata:   res.Metadata,
	})
	if err != nil {
		return nil, err
	}
	res.Metrics = m
	return res, nil
}

// Analyze runs the integrity gate, state machine and segmenter without
// computing metrics.
func Analyze(info session.Info, mouseID string, raws []session.RawEvent, opts events.Options) (*SessionResult, error) {
	msgs := make([]string, len(raws))
	for i, r := range raws {
		msgs[i] = r.Message
	}
	if err := integrity.Check(msgs); err != nil {
		return nil, err
	}

	run, err := events.Run(raws, opts)
	if err != nil {
		return nil, err
	}
	if len(run.Malformed) > 0 {
		log.Debug().Str("mouse", mouseID).Int("lines", len(run.Malformed)).Msg("skipped malformed lines")
	}

	return &SessionResult{
		Info:       info,
		MouseID:    mouseID,
		Lines:      len(raws),
		Events:     run.Events,
		Malformed:  len(run.Malformed),
		Trials:     trial.Segment(run.Events),
		Metadata:   trial.ParseMetadata(run.Events),
		TrialTypes: run.TrialTypes,
		Warnings:   run.Warnings,
	}, nil
}

// streams resolves the mouse ids to process for a document. Ids come from
// the file name when it encodes them, otherwise from the header.
func streams(info session.Info, doc *session.Document) ([]string, error) {
	ids := info.MouseIDs
	if len(ids) == 0 {
		ids = doc.MouseIDs()
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no mouse ids in file name or header")
	}
	for _, id := range ids {
		if _, ok := doc.Data[id]; !ok {
			return nil, &MouseIDMismatchError{MouseID: id}
		}
	}
	return ids, nil
}

// ProcessFile loads one session file and processes every mouse in it.
// Streams without any lines are skipped. The first failing mouse fails the
// whole file.
func ProcessFile(info session.Info, opts events.Options) ([]*SessionResult, error) {
	doc, err := session.Load(info.Path)
	if err != nil {
		return nil, &FileError{Path: info.Path, Err: &LoadError{Err: err}}
	}
	ids, err := streams(info, doc)
	if err != nil {
		return nil, &FileError{Path: info.Path, Err: err}
	}

	var out []*SessionResult
	for _, id := range ids {
		raws := doc.Data[id]
		if len(raws) == 0 {
			log.Debug().Str("path", info.Path).Str("mouse", id).Msg("empty stream")
			continue
		}
		res, err := ProcessStream(info, id, raws, opts)
		if err != nil {
			return nil, &FileError{Path: info.Path, MouseID: id, Err: err}
		}
		out = append(out, res)
	}
	return out, nil
}
