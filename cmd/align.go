package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/QuesmaOrg/tfc-rig/internal/align"
	"github.com/QuesmaOrg/tfc-rig/internal/session"
)

var (
	alignPrimary   string
	alignSecondary string
	alignOutput    string
	alignRunID     string
	alignMarkers   []string
)

var alignCmd = &cobra.Command{
	Use:   "align <file>",
	Short: "Copy stimulus markers from one mouse's stream onto another's",
	Long: `Reconstruct the stimulus and puff markers of a secondary mouse from the
primary mouse of the same session. Trials are matched by order and each
marker is shifted by the clock offset between the two "Trial has ended"
lines of its trial.

Injected lines are tagged, so aligning an already aligned file is a no-op.

Examples:
  tfc-rig align 106_1_106_2_2024-03-01_10-00-00.json --primary 106_1 --secondary 106_2
  tfc-rig align session.json --primary 106_1 --secondary 106_2 -o aligned.json`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := args[0]

		doc, err := session.Load(path)
		if err != nil {
			fail(err)
		}

		primary, secondary := alignPrimary, alignSecondary
		if primary == "" || secondary == "" {
			ids := doc.MouseIDs()
			if len(ids) != 2 {
				fail(fmt.Errorf("%s has %d mice; pass --primary and --secondary", path, len(ids)))
			}
			primary, secondary = ids[0], ids[1]
		}

		markers := cfg.Align.Markers
		if cmd.Flags().Changed("marker") {
			markers = alignMarkers
		}
		a := align.New(align.Options{Markers: markers, RunID: alignRunID})
		rep, err := a.AlignDocument(doc, primary, secondary)
		if err != nil {
			fail(err)
		}
		if rep.Skipped {
			log.Info().Str("reason", rep.Reason).Msg("nothing to align")
			return
		}

		out := alignOutput
		if out == "" {
			out = path
		}
		if err := session.Save(out, doc); err != nil {
			fail(err)
		}
		log.Info().
			Str("run", rep.RunID).
			Int("trials", rep.Trials).
			Int("injected", rep.Injected).
			Int("unmatched", rep.Unmatched).
			Str("path", out).
			Msgf("aligned %s onto %s", primary, secondary)
	},
}

func init() {
	alignCmd.Flags().StringVar(&alignPrimary, "primary", "", "Mouse whose markers are copied (default: first mouse in header)")
	alignCmd.Flags().StringVar(&alignSecondary, "secondary", "", "Mouse that receives the markers (default: second mouse in header)")
	alignCmd.Flags().StringVarP(&alignOutput, "output", "o", "", "Write the aligned file here instead of in place")
	alignCmd.Flags().StringVar(&alignRunID, "run-id", "", "Provenance id stored on injected lines (default: random)")
	alignCmd.Flags().StringSliceVar(&alignMarkers, "marker", nil, "Marker payloads to copy (default: settings file or built-in list)")
	rootCmd.AddCommand(alignCmd)
}
