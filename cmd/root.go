package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/QuesmaOrg/tfc-rig/internal/config"
)

var (
	version = "dev"

	configFlag string
	debugFlag  bool
	quietFlag  bool

	// cfg is loaded before any subcommand runs.
	cfg *config.Config
)

func SetVersionInfo(v, commit, date string) {
	version = v

	parts := []string{v}
	if commit != "" {
		parts = append(parts, commit)
	}
	if date != "" {
		// Shorten ISO date to just the date part if it's a full timestamp
		if len(date) > 10 {
			date = date[:10]
		}
		parts = append(parts, date)
	}

	rootCmd.Version = strings.Join(parts, " ")
}

// GetVersion returns the version set at startup.
func GetVersion() string {
	return version
}

var rootCmd = &cobra.Command{
	Use:   "tfc-rig",
	Short: "Turn trace fear conditioning rig logs into trial metrics",
	Long: `tfc-rig reads the session logs written by the trace fear conditioning
rig, checks them, splits them into trials and computes lick metrics per
session and per trial.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := configFlag
		if path == "" {
			path = config.DefaultPath()
		}
		c, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = c
		setupLogging(debugFlag || cfg.Verbose, quietFlag)
		log.Debug().Str("config", path).Int("workers", cfg.Workers).Msg("loaded settings")
		return nil
	},
}

func setupLogging(debug, quiet bool) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})
	switch {
	case quiet:
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case debug:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "tfc-rig: %v\n", err)
	os.Exit(1)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fail(err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Settings file (default ./"+config.FileName+")")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false, "Log skipped lines and other details")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Only log errors")
}
