package cmd

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/QuesmaOrg/tfc-rig/internal/show"
)

var (
	fullFlag          bool
	interactiveFlag   bool
	noInteractiveFlag bool
	showMice          []string
)

var showCmd = &cobra.Command{
	Use:   "show <file|dir>...",
	Short: "Browse sessions trial by trial",
	Long: `Display the trials of one or more sessions with their stages, licks
and metrics.

By default, opens an interactive TUI viewer when running in a terminal.
Use --no-interactive for plain text output (useful for piping).
Use --full to list every event under its trial in plain text output.

Examples:
  tfc-rig show 106_1_2024-03-01_10-00-00.json
  tfc-rig show data/IV_spring --mouse 106_1
  tfc-rig show data/ --no-interactive --full | less`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("mouse") {
			cfg.Mice = showMice
		}

		rep, err := runBatch(args)
		if err != nil {
			fail(err)
		}
		reportFailures(rep.Failures)

		// Determine if we should use interactive mode
		isTTY := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
		useInteractive := (interactiveFlag || isTTY) && !noInteractiveFlag

		if useInteractive {
			err = show.RunTUI(rep.Results)
		} else {
			err = show.Print(os.Stdout, rep.Results, fullFlag)
		}
		if err != nil {
			fail(err)
		}
	},
}

func init() {
	showCmd.Flags().BoolVar(&fullFlag, "full", false, "List every event in plain text output")
	showCmd.Flags().BoolVarP(&interactiveFlag, "interactive", "i", false, "Force interactive TUI mode")
	showCmd.Flags().BoolVar(&noInteractiveFlag, "no-interactive", false, "Disable interactive TUI, use plain text output")
	showCmd.Flags().StringSliceVar(&showMice, "mouse", nil, "Only show files whose mice are all listed")
	rootCmd.AddCommand(showCmd)
}
