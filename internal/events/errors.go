package events

import (
	"fmt"
	"sort"
	"strings"
)

// InvalidTrialTypeError is returned for a currentTrialType outside the
// allowed set.
type InvalidTrialTypeError struct {
	Payload string
	Allowed []int
}

func (e *InvalidTrialTypeError) Error() string {
	return fmt.Sprintf("invalid trial type in: '%s'", e.Payload)
}

// UnbalancedTrialTypesError is returned when the trialTypes list does not
// hold every trial type the same number of times.
type UnbalancedTrialTypesError struct {
	Payload    string
	TrialTypes string
}

func (e *UnbalancedTrialTypesError) Error() string {
	return fmt.Sprintf("unbalanced trial types in: '%s'", e.Payload)
}

// Counts returns the occurrences of each trial type character.
func (e *UnbalancedTrialTypesError) Counts() string {
	counts := countRunes(e.TrialTypes)
	keys := make([]rune, 0, len(counts))
	for r := range counts {
		keys = append(keys, r)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	parts := make([]string, len(keys))
	for i, r := range keys {
		parts[i] = fmt.Sprintf("%c=%d", r, counts[r])
	}
	return strings.Join(parts, " ")
}

// BadTimeError records a well-formed line dropped because its absolute time
// did not parse.
type BadTimeError struct {
	Line string
}

func (e *BadTimeError) Error() string {
	return fmt.Sprintf("absolute_time does not parse for: '%s'", e.Line)
}

// ParameterError is returned when a timing parameter line carries no
// integer value.
type ParameterError struct {
	Key     string
	Payload string
	Err     error
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("invalid %s parameter in: '%s'", e.Key, e.Payload)
}

func (e *ParameterError) Unwrap() error { return e.Err }
