package trial

// Stage is one temporal sub-window of a trial.
type Stage int

const (
	PreTone Stage = iota
	Tone
	Trace
	PostTrace
)

// Stages lists the stages in trial order.
var Stages = []Stage{PreTone, Tone, Trace, PostTrace}

func (s Stage) String() string {
	switch s {
	case PreTone:
		return "pre_tone"
	case Tone:
		return "tone"
	case Trace:
		return "trace"
	case PostTrace:
		return "post_trace"
	}
	return "unknown"
}

// Bounds are the stage boundaries in trial time (ms). Windows are half open:
// pre-tone [0, PreToneEnd), tone [PreToneEnd, ToneEnd), trace
// [ToneEnd, TraceEnd), post-trace [TraceEnd, end of trial).
type Bounds struct {
	PreToneEnd int
	ToneEnd    int
	TraceEnd   int
	// TrialEnd is TRIAL_DURATION, or 0 when the rig did not print it.
	TrialEnd int
}

// BoundsFrom derives the stage boundaries from session metadata.
func BoundsFrom(md Metadata) Bounds {
	audStart := md.Int(KeyAuditoryStart)
	audStop := md.Int(KeyAuditoryStop)
	puffStart := md.Int(KeyAirPuffStart)

	pre := max(audStart, 0)
	tone := max(pre+(audStop-audStart), 0)
	trace := max(tone+(puffStart-audStop), 0)
	return Bounds{
		PreToneEnd: pre,
		ToneEnd:    tone,
		TraceEnd:   trace,
		TrialEnd:   max(md.Int(KeyTrialDuration), 0),
	}
}

// StageOf classifies a trial time. Times before the trial start fall into
// pre-tone.
func (b Bounds) StageOf(trialMS int) Stage {
	switch {
	case trialMS < b.PreToneEnd:
		return PreTone
	case trialMS < b.ToneEnd:
		return Tone
	case trialMS < b.TraceEnd:
		return Trace
	}
	return PostTrace
}

// Duration is the stage length in ms. Post-trace runs to TrialEnd; without
// it the post-trace duration is 0.
func (b Bounds) Duration(s Stage) int {
	switch s {
	case PreTone:
		return b.PreToneEnd
	case Tone:
		return max(b.ToneEnd-b.PreToneEnd, 0)
	case Trace:
		return max(b.TraceEnd-b.ToneEnd, 0)
	case PostTrace:
		return max(b.TrialEnd-b.TraceEnd, 0)
	}
	return 0
}
