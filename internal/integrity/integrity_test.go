package integrity

import (
	"errors"
	"testing"
)

func TestCheck(t *testing.T) {
	full := []string{
		"0: 0: 0: Session has started",
		"1: 10: 0: Trial has started",
		"1: 50010: 50000: Trial has ended",
		"1: 60000: 60000: Session has ended",
	}

	tests := []struct {
		name     string
		messages []string
		check    func(error) bool
	}{
		{
			name:     "valid",
			messages: full,
			check:    func(err error) bool { return err == nil },
		},
		{
			name:     "missing end",
			messages: full[:3],
			check: func(err error) bool {
				var be *SessionBoundaryError
				return errors.As(err, &be) && be.HasStart && !be.HasEnd
			},
		},
		{
			name:     "missing start",
			messages: full[1:],
			check: func(err error) bool {
				var be *SessionBoundaryError
				return errors.As(err, &be)
			},
		},
		{
			name: "three starts two ends",
			messages: []string{
				"0: 0: 0: Session has started",
				"1: 1: 0: Trial has started",
				"1: 2: 1: Trial has ended",
				"2: 3: 0: Trial has started",
				"2: 4: 1: Trial has ended",
				"3: 5: 0: Trial has started",
				"3: 6: 1: Session has ended",
			},
			check: func(err error) bool {
				var te *TrialBalanceError
				return errors.As(err, &te) && te.Starts == 3 && te.Ends == 2
			},
		},
		{
			name: "garbled line still counts",
			messages: []string{
				"0: 0: 0: Session has started",
				"1: 1: Trial has started",
				"1: 6: 1: Session has ended",
			},
			check: func(err error) bool {
				var te *TrialBalanceError
				return errors.As(err, &te)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.messages)
			if !tt.check(err) {
				t.Errorf("Check() = %v", err)
			}
		})
	}
}
