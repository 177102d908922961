// Package grammar classifies rig serial lines of the form
// "{trial}: {session_ms}: {trial_ms}: {payload}".
package grammar

import (
	"strconv"
	"strings"
)

// Delimiter separates the positional fields of a rig line. Payloads may
// contain it too.
const Delimiter = ": "

// WaitingPrefix starts the idle line the rig prints before a session.
const WaitingPrefix = "Waiting for session to start"

// Token is the typed form of a valid rig line.
type Token struct {
	Trial     int
	SessionMS int
	TrialMS   int
	Payload   string
}

// Kind tags a classification result.
type Kind int

const (
	Valid Kind = iota
	Malformed
)

func (k Kind) String() string {
	if k == Valid {
		return "valid"
	}
	return "malformed"
}

// Reason explains why a line is malformed.
type Reason string

const (
	ReasonNone       Reason = ""
	ReasonWaiting    Reason = "waiting for session"
	ReasonTooFew     Reason = "fewer than four fields"
	ReasonNotInteger Reason = "positional field is not an integer"
	ReasonEmptyLine  Reason = "empty line"
	ReasonBadTime    Reason = "absolute_time does not parse"
)

// Result is either a Valid token or a Malformed line with its reason.
type Result struct {
	Kind   Kind
	Token  Token
	Reason Reason
	Line   string
}

// OK reports whether the line is valid.
func (r Result) OK() bool { return r.Kind == Valid }

// Classify parses one rig line. It never fails: lines that do not fit the
// grammar come back Malformed. The idle waiting line is only recognized when
// it does not parse; a valid line may carry it in its payload.
func Classify(line string) Result {
	malformed := func(reason Reason) Result {
		if strings.HasPrefix(strings.TrimSpace(line), WaitingPrefix) {
			reason = ReasonWaiting
		}
		return Result{Kind: Malformed, Reason: reason, Line: line}
	}

	if strings.TrimSpace(line) == "" {
		return malformed(ReasonEmptyLine)
	}

	fields := strings.Split(line, Delimiter)
	if len(fields) < 4 {
		return malformed(ReasonTooFew)
	}

	var nums [3]int
	for i := range nums {
		n, err := strconv.Atoi(strings.TrimSpace(fields[i]))
		if err != nil {
			return malformed(ReasonNotInteger)
		}
		nums[i] = n
	}

	return Result{
		Kind: Valid,
		Token: Token{
			Trial:     nums[0],
			SessionMS: nums[1],
			TrialMS:   nums[2],
			Payload:   strings.Join(fields[3:], Delimiter),
		},
		Line: line,
	}
}

// Fields splits a payload on the delimiter.
func Fields(payload string) []string {
	return strings.Split(payload, Delimiter)
}

// Value returns the second field of a "KEY: value" payload.
func Value(payload string) (string, bool) {
	parts := Fields(payload)
	if len(parts) < 2 {
		return "", false
	}
	return parts[1], true
}

// Format renders a token back into a rig line.
func Format(t Token) string {
	return strconv.Itoa(t.Trial) + Delimiter +
		strconv.Itoa(t.SessionMS) + Delimiter +
		strconv.Itoa(t.TrialMS) + Delimiter +
		t.Payload
}
