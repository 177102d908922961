package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/QuesmaOrg/tfc-rig/internal/output"
	"github.com/QuesmaOrg/tfc-rig/internal/pipeline"
	"github.com/QuesmaOrg/tfc-rig/internal/session"
)

var (
	checkFormat   string
	checkFailOnly bool
)

var checkCmd = &cobra.Command{
	Use:   "check <file|dir>...",
	Short: "Validate session files without computing metrics",
	Long: `Run the integrity checks and the state machine over every session
file and print one summary row per mouse: line, event and malformed counts,
trial start/end balance, segmented trials and the trial-type list.

Exits with status 1 when any stream fails.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		files, err := session.FindFiles(args, cfg.Filter())
		if err != nil {
			fail(err)
		}

		var rows []pipeline.Summary
		failed := 0
		for _, info := range files {
			for _, s := range pipeline.Check(info, cfg.MachineOptions()) {
				if !s.OK() {
					failed++
					log.Warn().Str("path", s.Path).Str("mouse", s.MouseID).Msg(s.Error)
				} else if checkFailOnly {
					continue
				}
				rows = append(rows, s)
			}
		}

		if err := output.Render(os.Stdout, checkFormat, rows); err != nil {
			fail(err)
		}
		if failed > 0 {
			fail(fmt.Errorf("%d of %d streams failed", failed, countStreams(files)))
		}
	},
}

func countStreams(files []session.Info) int {
	n := 0
	for _, f := range files {
		n += max(len(f.MouseIDs), 1)
	}
	return n
}

func init() {
	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "markdown", "Output format: csv, tsv, json or markdown")
	checkCmd.Flags().BoolVar(&checkFailOnly, "failed", false, "Only list streams that failed")
	rootCmd.AddCommand(checkCmd)
}
