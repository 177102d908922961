package grammar

import (
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		kind   Kind
		reason Reason
		want   Token
	}{
		{
			name: "simple payload",
			line: "3: 120500: 40000: Lick",
			kind: Valid,
			want: Token{Trial: 3, SessionMS: 120500, TrialMS: 40000, Payload: "Lick"},
		},
		{
			name: "payload with delimiter",
			line: "0: 10: 10: AUDITORY_START: 15000",
			kind: Valid,
			want: Token{Trial: 0, SessionMS: 10, TrialMS: 10, Payload: "AUDITORY_START: 15000"},
		},
		{
			name:   "too few fields",
			line:   "3: 120500: Lick",
			kind:   Malformed,
			reason: ReasonTooFew,
		},
		{
			name:   "non integer trial",
			line:   "x: 1: 2: Lick",
			kind:   Malformed,
			reason: ReasonNotInteger,
		},
		{
			name:   "truncated number",
			line:   "1: 12a: 2: Lick",
			kind:   Malformed,
			reason: ReasonNotInteger,
		},
		{
			name:   "waiting line",
			line:   "Waiting for session to start...",
			kind:   Malformed,
			reason: ReasonWaiting,
		},
		{
			name:   "waiting line with extra fields",
			line:   "Waiting for session to start: 1: 2",
			kind:   Malformed,
			reason: ReasonWaiting,
		},
		{
			name: "waiting text in a valid payload",
			line: "0: 5: 5: Waiting for session to start",
			kind: Valid,
			want: Token{Trial: 0, SessionMS: 5, TrialMS: 5, Payload: "Waiting for session to start"},
		},
		{
			name:   "empty",
			line:   "  ",
			kind:   Malformed,
			reason: ReasonEmptyLine,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.line)
			if got.Kind != tt.kind {
				t.Fatalf("Classify(%q).Kind = %v, want %v", tt.line, got.Kind, tt.kind)
			}
			if got.Reason != tt.reason {
				t.Errorf("Classify(%q).Reason = %q, want %q", tt.line, got.Reason, tt.reason)
			}
			if tt.kind == Valid && got.Token != tt.want {
				t.Errorf("Classify(%q).Token = %+v, want %+v", tt.line, got.Token, tt.want)
			}
		})
	}
}

func TestClassifyRoundTrip(t *testing.T) {
	lines := []string{
		"1: 2: 3: Lick",
		"1: 2: 3: trialTypes: 0101",
		"1: 2: 3: a: b: c: ",
		"12: 99999: 0: Trial has started",
		"1: 2: 3: ",
	}
	for _, line := range lines {
		r := Classify(line)
		if !r.OK() {
			t.Fatalf("Classify(%q) = %v (%s), want valid", line, r.Kind, r.Reason)
		}
		idx := 0
		for i := 0; i < 3; i++ {
			idx += strings.Index(line[idx:], Delimiter) + len(Delimiter)
		}
		if r.Token.Payload != line[idx:] {
			t.Errorf("payload = %q, want %q", r.Token.Payload, line[idx:])
		}
		if Format(r.Token) != line {
			t.Errorf("Format(Classify(%q)) = %q", line, Format(r.Token))
		}
	}
}

func TestValue(t *testing.T) {
	if v, ok := Value("currentTrialType: 1"); !ok || v != "1" {
		t.Errorf("Value() = %q, %v, want \"1\", true", v, ok)
	}
	if _, ok := Value("trialTypes"); ok {
		t.Error("Value(\"trialTypes\") ok = true, want false")
	}
}
