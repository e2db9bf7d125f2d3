package commands

import (
	"ai-impact/internal/config"
	"ai-impact/internal/logging"
	"ai-impact/internal/snapshot"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig
	phases  []config.Phase
	store   *snapshot.Store
)

var rootCmd = &cobra.Command{
	Use:   "ai-impact",
	Short: "ai-impact analyzes engineering velocity across AI adoption phases",
	Long: `Fetches Jira issue and GitHub PR activity per configured phase, reconstructs
workflow state histories, and compares closure time, state dwell, re-entry and
throughput metrics across phases to evaluate the impact of AI tooling.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		// Load configuration
		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		phases, err = config.ParsePhasesFile(cfg.PhasesFile)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.PhasesFile).Msg("No phase configuration loaded")
		}

		store, err = snapshot.NewStore(cfg.SnapshotDir)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open snapshot store")
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Msg("ai-impact starting")
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// phaseByName resolves a configured phase, or falls back to an ad-hoc phase
// built from explicit --start/--end flags.
func phaseByName(name, start, end string) (config.Phase, bool) {
	for _, p := range phases {
		if p.Name == name {
			return p, true
		}
	}
	if start != "" && end != "" {
		label := name
		if label == "" {
			label = "adhoc"
		}
		return config.Phase{Name: label, Start: start, End: end}, true
	}
	return config.Phase{}, false
}
