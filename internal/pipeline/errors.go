package pipeline

import (
	"errors"
	"fmt"
	"sort"

	"github.com/QuesmaOrg/tfc-rig/internal/events"
	"github.com/QuesmaOrg/tfc-rig/internal/integrity"
)

// MouseIDMismatchError means a mouse named in the file name has no stream in
// the document.
type MouseIDMismatchError struct {
	MouseID string
}

func (e *MouseIDMismatchError) Error() string {
	return "file name does not match its 'mouse_ids'"
}

// LoadError wraps a document that could not be read or decoded.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string { return e.Err.Error() }
func (e *LoadError) Unwrap() error { return e.Err }

// FileError attributes a failure to one file.
type FileError struct {
	Path    string
	MouseID string
	Err     error
}

func (e *FileError) Error() string {
	if e.MouseID != "" {
		return fmt.Sprintf("%s (%s): %v", e.Path, e.MouseID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// IsRecoverable reports whether err only invalidates the file it came from.
// A batch records such files and moves on.
func IsRecoverable(err error) bool {
	var (
		boundary   *integrity.SessionBoundaryError
		balance    *integrity.TrialBalanceError
		trialType  *events.InvalidTrialTypeError
		unbalanced *events.UnbalancedTrialTypesError
		param      *events.ParameterError
		mismatch   *MouseIDMismatchError
		load       *LoadError
	)
	switch {
	case errors.As(err, &boundary),
		errors.As(err, &balance),
		errors.As(err, &trialType),
		errors.As(err, &unbalanced),
		errors.As(err, &param),
		errors.As(err, &mismatch),
		errors.As(err, &load):
		return true
	}
	return false
}

// FailureGroup lists the files that failed with one message.
type FailureGroup struct {
	Message string
	Paths   []string
}

// GroupFailures groups file errors by their underlying message, largest
// group first.
func GroupFailures(failures []*FileError) []FailureGroup {
	byMsg := map[string][]string{}
	for _, f := range failures {
		msg := f.Err.Error()
		byMsg[msg] = append(byMsg[msg], f.Path)
	}
	groups := make([]FailureGroup, 0, len(byMsg))
	for msg, paths := range byMsg {
		sort.Strings(paths)
		groups = append(groups, FailureGroup{Message: msg, Paths: paths})
	}
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i].Paths) != len(groups[j].Paths) {
			return len(groups[i].Paths) > len(groups[j].Paths)
		}
		return groups[i].Message < groups[j].Message
	})
	return groups
}
