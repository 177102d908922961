package pipeline

import (
	"github.com/QuesmaOrg/tfc-rig/internal/events"
	"github.com/QuesmaOrg/tfc-rig/internal/integrity"
	"github.com/QuesmaOrg/tfc-rig/internal/session"
)

// Summary describes one mouse stream without computing metrics.
type Summary struct {
	Path           string `json:"path"`
	MouseID        string `json:"mouse_id"`
	SessionID      int64  `json:"session_id"`
	Lines          int    `json:"lines"`
	Events         int    `json:"events"`
	Malformed      int    `json:"malformed"`
	TrialStarts    int    `json:"trial_starts"`
	TrialEnds      int    `json:"trial_ends"`
	Trials         int    `json:"trials"`
	CompleteTrials int    `json:"complete_trials"`
	TrialTypes     string `json:"trial_types"`
	Error          string `json:"error,omitempty"`
}

// OK reports whether the stream passed every check.
func (s Summary) OK() bool { return s.Error == "" }

// Check inspects every mouse stream of a file. Failures are reported per
// stream rather than returned; only a file that cannot be loaded at all
// yields a single failed summary.
func Check(info session.Info, opts events.Options) []Summary {
	doc, err := session.Load(info.Path)
	if err != nil {
		return []Summary{{Path: info.Path, SessionID: info.SessionID, Error: err.Error()}}
	}
	ids, err := streams(info, doc)
	if err != nil {
		return []Summary{{Path: info.Path, SessionID: info.SessionID, Error: err.Error()}}
	}

	out := make([]Summary, 0, len(ids))
	for _, id := range ids {
		out = append(out, checkStream(info, id, doc.Data[id], opts))
	}
	return out
}

func checkStream(info session.Info, id string, raws []session.RawEvent, opts events.Options) Summary {
	msgs := make([]string, len(raws))
	for i, r := range raws {
		msgs[i] = r.Message
	}
	rep := integrity.Scan(msgs)
	s := Summary{
		Path:        info.Path,
		MouseID:     id,
		SessionID:   info.SessionID,
		Lines:       len(raws),
		TrialStarts: rep.TrialStarts,
		TrialEnds:   rep.TrialEnds,
	}

	res, err := Analyze(info, id, raws, opts)
	if err != nil {
		s.Error = err.Error()
		return s
	}
	s.Events = len(res.Events)
	s.Malformed = res.Malformed
	s.Trials = len(res.Trials)
	for _, t := range res.Trials {
		if t.Complete {
			s.CompleteTrials++
		}
	}
	s.TrialTypes = res.TrialTypes
	return s
}
