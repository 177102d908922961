package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/QuesmaOrg/tfc-rig/internal/events"
)

type ConfigSuite struct {
	suite.Suite
	dir string
}

func (s *ConfigSuite) SetupTest() {
	s.dir = s.T().TempDir()
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

func (s *ConfigSuite) write(body string) string {
	path := filepath.Join(s.dir, FileName)
	s.Require().NoError(os.WriteFile(path, []byte(body), 0o644))
	return path
}

func (s *ConfigSuite) TestDefault() {
	cfg := Default()

	s.GreaterOrEqual(cfg.Workers, 1)
	s.Equal([]int{0, 1, 2, 3, 4}, cfg.AllowedTrialTypes)
	s.Equal([]string{"test_data", "duplicate_data"}, cfg.SkipDirs)
	s.Equal(FormatCSV, cfg.Output.Format)
	s.Len(cfg.Align.Markers, 6)
	s.NoError(cfg.Validate())
}

func (s *ConfigSuite) TestLoadMissingFile() {
	cfg, err := Load(filepath.Join(s.dir, "nope.yaml"))
	s.Require().NoError(err)
	s.Equal(Default().AllowedTrialTypes, cfg.AllowedTrialTypes)
}

func (s *ConfigSuite) TestLoadOverrides() {
	path := s.write(`
workers: 2
allowed_trial_types: [0, 1]
warn_unbalanced: true
cohorts: [IV]
output:
  format: tsv
  dir: out
db_path: results.db
align:
  markers: ["Puff start"]
`)
	cfg, err := Load(path)
	s.Require().NoError(err)

	s.Equal(2, cfg.Workers)
	s.Equal([]int{0, 1}, cfg.AllowedTrialTypes)
	s.Equal([]string{"IV"}, cfg.Cohorts)
	s.Equal(FormatTSV, cfg.Output.Format)
	s.Equal("out", cfg.Output.Dir)
	s.Equal("results.db", cfg.DBPath)
	s.Equal([]string{"Puff start"}, cfg.Align.Markers)
	s.Equal([]string{"test_data", "duplicate_data"}, cfg.SkipDirs, "unset keys keep defaults")

	opts := cfg.MachineOptions()
	s.Equal(events.TwoTypeTrialTypes, opts.AllowedTrialTypes)
	s.True(opts.WarnUnbalanced)
}

func (s *ConfigSuite) TestLoadRejectsBadValues() {
	_, err := Load(s.write("output:\n  format: xlsx\n"))
	s.Error(err)

	_, err = Load(s.write("allowed_trial_types: [7]\n"))
	s.Error(err)

	_, err = Load(s.write("workers: [\n"))
	s.Error(err)
}

func (s *ConfigSuite) TestValidateClampsWorkers() {
	cfg := Default()
	cfg.Workers = 0
	s.NoError(cfg.Validate())
	s.Equal(1, cfg.Workers)
}
