package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/QuesmaOrg/tfc-rig/internal/metrics"
)

type StoreSuite struct {
	suite.Suite
	ctx   context.Context
	path  string
	store *Store
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.path = filepath.Join(s.T().TempDir(), "metrics.db")
	st, err := Open(s.ctx, s.path)
	s.Require().NoError(err)
	s.store = st
}

func (s *StoreSuite) TearDownTest() {
	s.Require().NoError(s.store.Close())
}

func sessionRow(mouse string, id int64, licks int) metrics.SessionMetrics {
	return metrics.SessionMetrics{
		MouseID:       mouse,
		SessionID:     id,
		DayOfWeek:     "Friday",
		TotalLicks:    licks,
		ZLearningRate: 0.5,
	}
}

func (s *StoreSuite) TestSaveAndRead() {
	sessions := []metrics.SessionMetrics{
		sessionRow("106_2", 20240301100000, 4),
		sessionRow("106_1", 20240301100000, 6),
	}
	trials := []metrics.TrialMetrics{
		{MouseID: "106_1", SessionID: 20240301100000, Trial: 2, TrialType: 1, NormToneLicks: 1.5},
		{MouseID: "106_1", SessionID: 20240301100000, Trial: 1, TrialType: 0, Complete: 1},
	}

	run, err := s.store.Save(s.ctx, sessions, trials, 3)
	s.Require().NoError(err)
	s.NotEmpty(run.ID)

	got, err := s.store.Sessions(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("106_1", got[0].MouseID)
	s.Equal(6, got[0].TotalLicks)
	s.Equal(0.5, got[0].ZLearningRate)
	s.Equal("Friday", got[1].DayOfWeek)

	gotTrials, err := s.store.Trials(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(gotTrials, 2)
	s.Equal(1, gotTrials[0].Trial)
	s.Equal(1, gotTrials[0].Complete)
	s.Equal(1.5, gotTrials[1].NormToneLicks)

	runs, err := s.store.Runs(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(runs, 1)
	s.Equal(run.ID, runs[0].ID)
	s.Equal(3, runs[0].Failures)
	s.Equal(2, runs[0].Sessions)
}

func (s *StoreSuite) TestSaveReplacesSameKey() {
	_, err := s.store.Save(s.ctx, []metrics.SessionMetrics{sessionRow("106_1", 1, 6)}, nil, 0)
	s.Require().NoError(err)
	_, err = s.store.Save(s.ctx, []metrics.SessionMetrics{sessionRow("106_1", 1, 9)}, nil, 0)
	s.Require().NoError(err)

	got, err := s.store.Sessions(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(9, got[0].TotalLicks)

	runs, err := s.store.Runs(s.ctx)
	s.Require().NoError(err)
	s.Len(runs, 2)
}

func (s *StoreSuite) TestReopenKeepsRows() {
	_, err := s.store.Save(s.ctx, []metrics.SessionMetrics{sessionRow("106_1", 1, 6)}, nil, 0)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Close())

	st, err := Open(s.ctx, s.path)
	s.Require().NoError(err)
	s.store = st

	got, err := s.store.Sessions(s.ctx)
	s.Require().NoError(err)
	s.Len(got, 1)
}

func (s *StoreSuite) TestSchema() {
	create := trialTable.create()
	s.True(strings.HasPrefix(create, "CREATE TABLE IF NOT EXISTS trial_metrics"))
	s.Contains(create, "norm_tone_licks REAL NOT NULL")
	s.Contains(create, "trial_type INTEGER NOT NULL")
	s.Contains(create, "mouse_id TEXT NOT NULL")
	s.Contains(create, "PRIMARY KEY (mouse_id, session_id, trial)")
}
