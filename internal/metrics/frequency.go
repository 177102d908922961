package metrics

import (
	"sort"
	"time"

	"github.com/QuesmaOrg/tfc-rig/internal/events"
)

// FrequencyWindow is the width of the centered lick-frequency window.
const FrequencyWindow = time.Second

// sample is one in-session event with its lick frequency.
type sample struct {
	events.Event
	freq float64
}

// lickFrequency orders session events by absolute time and attaches the
// number of licks in the centered window (t-w/2, t+w/2] around each event.
func lickFrequency(evs []events.Event) []sample {
	out := make([]sample, 0, len(evs))
	for _, e := range evs {
		if e.State.IsSession {
			out = append(out, sample{Event: e})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Raw.AbsoluteTime.Before(out[j].Raw.AbsoluteTime.Time)
	})

	prefix := make([]int, len(out)+1)
	for i, s := range out {
		prefix[i+1] = prefix[i] + events.Bit(s.Lick)
	}

	half := FrequencyWindow / 2
	lo, hi := 0, 0
	for i := range out {
		t := out[i].Raw.AbsoluteTime.Time
		for lo < len(out) && !out[lo].Raw.AbsoluteTime.After(t.Add(-half)) {
			lo++
		}
		if hi < i {
			hi = i
		}
		for hi < len(out) && !out[hi].Raw.AbsoluteTime.After(t.Add(half)) {
			hi++
		}
		out[i].freq = float64(prefix[hi] - prefix[lo])
	}
	return out
}

// frequencies selects the lick frequency of samples matching keep.
func frequencies(samples []sample, keep func(sample) bool) []float64 {
	var out []float64
	for _, s := range samples {
		if keep(s) {
			out = append(out, s.freq)
		}
	}
	return out
}
