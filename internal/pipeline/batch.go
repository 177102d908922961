package pipeline

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/QuesmaOrg/tfc-rig/internal/events"
	"github.com/QuesmaOrg/tfc-rig/internal/metrics"
	"github.com/QuesmaOrg/tfc-rig/internal/session"
)

// Options controls a batch run.
type Options struct {
	Machine events.Options
	Workers int
}

// Report collects the outcome of a batch.
type Report struct {
	Results  []*SessionResult
	Failures []*FileError
}

// SessionRows returns one session row per result, in result order.
func (r *Report) SessionRows() []metrics.SessionMetrics {
	rows := make([]metrics.SessionMetrics, 0, len(r.Results))
	for _, res := range r.Results {
		rows = append(rows, res.Metrics.Session)
	}
	return rows
}

// TrialRows returns every trial row, ordered by session, trial and mouse.
func (r *Report) TrialRows() []metrics.TrialMetrics {
	n := 0
	for _, res := range r.Results {
		n += len(res.Metrics.Trials)
	}
	rows := make([]metrics.TrialMetrics, 0, n)
	for _, res := range r.Results {
		rows = append(rows, res.Metrics.Trials...)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.SessionID != b.SessionID {
			return a.SessionID < b.SessionID
		}
		if a.Trial != b.Trial {
			return a.Trial < b.Trial
		}
		return a.MouseID < b.MouseID
	})
	return rows
}

type collector struct {
	mu     sync.Mutex
	report Report
}

func (c *collector) add(res []*SessionResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.Results = append(c.report.Results, res...)
}

func (c *collector) fail(fe *FileError) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.Failures = append(c.report.Failures, fe)
}

// Batch processes files concurrently. Files failing with a recoverable error
// are recorded in the report; any other error cancels the batch. A
// (mouse, session) recorded in two files fails the batch before any work.
func Batch(ctx context.Context, files []session.Info, opts Options) (*Report, error) {
	if err := session.CheckUnique(files); err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	c := &collector{}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, info := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := ProcessFile(info, opts.Machine)
			if err == nil {
				c.add(res)
				return nil
			}
			var fe *FileError
			if !errors.As(err, &fe) {
				fe = &FileError{Path: info.Path, Err: err}
			}
			if !IsRecoverable(fe.Err) {
				return fe
			}
			log.Warn().Str("path", fe.Path).Str("mouse", fe.MouseID).Err(fe.Err).Msg("skipping file")
			c.fail(fe)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rep := &c.report
	sort.Slice(rep.Results, func(i, j int) bool {
		a, b := rep.Results[i], rep.Results[j]
		if a.Info.SessionID != b.Info.SessionID {
			return a.Info.SessionID < b.Info.SessionID
		}
		if a.MouseID != b.MouseID {
			return a.MouseID < b.MouseID
		}
		return a.Info.Path < b.Info.Path
	})
	sort.Slice(rep.Failures, func(i, j int) bool {
		if rep.Failures[i].Path != rep.Failures[j].Path {
			return rep.Failures[i].Path < rep.Failures[j].Path
		}
		return rep.Failures[i].MouseID < rep.Failures[j].MouseID
	})
	return rep, nil
}
