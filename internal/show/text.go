package show

import (
	"fmt"
	"io"

	"github.com/QuesmaOrg/tfc-rig/internal/display"
	"github.com/QuesmaOrg/tfc-rig/internal/pipeline"
	"github.com/QuesmaOrg/tfc-rig/internal/session"
	"github.com/QuesmaOrg/tfc-rig/internal/trial"
)

// Print writes a plain-text summary of each session. With full set every
// trial event is listed under its trial.
func Print(w io.Writer, results []*pipeline.SessionResult, full bool) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No sessions to display")
		return err
	}

	for _, res := range results {
		if err := printSession(w, res, full); err != nil {
			return err
		}
	}
	return nil
}

func printSession(w io.Writer, res *pipeline.SessionResult, full bool) error {
	pw := &printer{w: w}
	pw.printf("Mouse: %s\n", res.MouseID)
	pw.printf("Session: %s\n", session.SessionIDString(res.Info.SessionID))
	if res.Info.Path != "" {
		pw.printf("File: %s\n", res.Info.Path)
	}
	if res.Malformed > 0 {
		pw.printf("Malformed lines: %d\n", res.Malformed)
	}
	if res.Metrics != nil {
		s := res.Metrics.Session
		pw.printf("Licks: %d total, %d in trial, %d puffed\n", s.TotalLicks, s.TotalLicksInTrial, s.TotalPuffedLicks)
		pw.printf("Learning rate: %.3f (trace %.3f, reward %.3f)\n", s.ZLearningRate, s.ZTraceLearningRate, s.ZLearningRateReward)
	}
	pw.printf("\n")

	if len(res.Trials) == 0 {
		pw.printf("No trials recorded\n\n")
		return pw.err
	}

	bounds := trial.BoundsFrom(res.Metadata)
	for _, t := range res.Trials {
		counts := map[trial.Stage]int{}
		for _, e := range t.Events {
			if e.Lick {
				counts[bounds.StageOf(e.TrialTime)]++
			}
		}
		status := "complete"
		if !t.Complete {
			status = "partial"
		}
		pw.printf("[%3d] %-14s %-8s licks %d/%d/%d/%d\n",
			t.Number, display.TrialTypeLabel(t.Type), status,
			counts[trial.PreTone], counts[trial.Tone], counts[trial.Trace], counts[trial.PostTrace])

		if full {
			for _, e := range t.Events {
				pw.printf("      %s\n", NewEventNode(e, 0).Label())
			}
		}
	}
	pw.printf("\n")
	return pw.err
}

// printer keeps the first write error so callers check once.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
