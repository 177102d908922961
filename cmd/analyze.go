package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/QuesmaOrg/tfc-rig/internal/output"
	"github.com/QuesmaOrg/tfc-rig/internal/pipeline"
	"github.com/QuesmaOrg/tfc-rig/internal/session"
	"github.com/QuesmaOrg/tfc-rig/internal/store"
)

var (
	analyzeFormat  string
	analyzeOutDir  string
	analyzeDBPath  string
	analyzeWorkers int
	analyzeTrials  bool
	analyzeCohorts []string
	analyzeMice    []string
	analyzeWarn    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file|dir>...",
	Short: "Compute session and trial metrics",
	Long: `Process every session file under the given paths and compute lick
metrics per (mouse, session) and per trial.

Files that fail their integrity checks are skipped and listed at the end.
With --out the session_metrics and trial_metrics tables are written as files;
otherwise the session table is printed to stdout.

Examples:
  tfc-rig analyze data/                       # Session table as CSV on stdout
  tfc-rig analyze data/ --out results --format tsv
  tfc-rig analyze data/ --mouse 106_1 --trials --format markdown
  tfc-rig analyze data/ --db metrics.db       # Also store rows in SQLite`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		applyAnalyzeFlags(cmd)

		rep, err := runBatch(args)
		if err != nil {
			fail(err)
		}
		reportFailures(rep.Failures)

		sessions, trials := rep.SessionRows(), rep.TrialRows()
		if cfg.Output.Dir != "" {
			tables := []struct {
				name string
				rows any
			}{
				{"session_metrics", sessions},
				{"trial_metrics", trials},
			}
			for _, t := range tables {
				path, err := output.WriteFile(cfg.Output.Dir, t.name, cfg.Output.Format, t.rows)
				if err != nil {
					fail(err)
				}
				log.Info().Str("path", path).Msg("wrote table")
			}
		} else {
			if err := output.Render(os.Stdout, cfg.Output.Format, sessions); err != nil {
				fail(err)
			}
			if analyzeTrials {
				fmt.Println()
				if err := output.Render(os.Stdout, cfg.Output.Format, trials); err != nil {
					fail(err)
				}
			}
		}

		if cfg.DBPath != "" {
			if err := saveRows(cmd.Context(), rep); err != nil {
				fail(err)
			}
		}
	},
}

// applyAnalyzeFlags lets explicit flags override the settings file.
func applyAnalyzeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	if f.Changed("format") {
		cfg.Output.Format = analyzeFormat
	}
	if f.Changed("out") {
		cfg.Output.Dir = analyzeOutDir
	}
	if f.Changed("db") {
		cfg.DBPath = analyzeDBPath
	}
	if f.Changed("workers") {
		cfg.Workers = analyzeWorkers
	}
	if f.Changed("cohort") {
		cfg.Cohorts = analyzeCohorts
	}
	if f.Changed("mouse") {
		cfg.Mice = analyzeMice
	}
	if f.Changed("warn-unbalanced") {
		cfg.WarnUnbalanced = analyzeWarn
	}
	if err := cfg.Validate(); err != nil {
		fail(err)
	}
}

// runBatch finds session files under paths and processes them with the
// current settings. Ctrl-C cancels outstanding files.
func runBatch(paths []string) (*pipeline.Report, error) {
	files, err := session.FindFiles(paths, cfg.Filter())
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no session files found")
	}
	log.Info().Int("files", len(files)).Int("workers", cfg.Workers).Msg("processing sessions")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return pipeline.Batch(ctx, files, pipeline.Options{
		Machine: cfg.MachineOptions(),
		Workers: cfg.Workers,
	})
}

func reportFailures(failures []*pipeline.FileError) {
	if len(failures) == 0 {
		return
	}
	log.Warn().Int("files", len(failures)).Msg("some files were skipped")
	for _, g := range pipeline.GroupFailures(failures) {
		fmt.Fprintf(os.Stderr, "\n%s (%d):\n", g.Message, len(g.Paths))
		for _, p := range g.Paths {
			fmt.Fprintf(os.Stderr, "  %s\n", p)
		}
	}
}

func saveRows(ctx context.Context, rep *pipeline.Report) error {
	st, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := st.Save(ctx, rep.SessionRows(), rep.TrialRows(), len(rep.Failures))
	if err != nil {
		return fmt.Errorf("saving to %s: %w", cfg.DBPath, err)
	}
	log.Info().Str("db", cfg.DBPath).Str("run", run.ID).Int("sessions", run.Sessions).Int("trials", run.Trials).Msg("stored metrics")
	return nil
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "csv", "Output format: csv, tsv, json or markdown")
	analyzeCmd.Flags().StringVarP(&analyzeOutDir, "out", "o", "", "Write session_metrics and trial_metrics files to this directory")
	analyzeCmd.Flags().StringVar(&analyzeDBPath, "db", "", "Also store rows in this SQLite database")
	analyzeCmd.Flags().IntVarP(&analyzeWorkers, "workers", "j", 0, "Files processed in parallel (default: number of CPUs)")
	analyzeCmd.Flags().BoolVar(&analyzeTrials, "trials", false, "Also print the trial table when writing to stdout")
	analyzeCmd.Flags().StringSliceVar(&analyzeCohorts, "cohort", nil, "Only process these cohorts (e.g. IV)")
	analyzeCmd.Flags().StringSliceVar(&analyzeMice, "mouse", nil, "Only process files whose mice are all listed (e.g. 106_1)")
	analyzeCmd.Flags().BoolVar(&analyzeWarn, "warn-unbalanced", false, "Warn instead of failing on unbalanced trialTypes lists")
	rootCmd.AddCommand(analyzeCmd)
}
