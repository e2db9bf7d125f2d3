package commands

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"ai-impact/internal/compare"
	"ai-impact/internal/metrics"
	"ai-impact/internal/report"
)

var (
	compareSource   string
	compareAssignee string
	compareOpen     bool
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare the snapshotted phases and write the cross-phase TSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(phases) == 0 {
			return fmt.Errorf("no phases configured at %s", cfg.PhasesFile)
		}
		if compareSource != "jira" && compareSource != "pr" {
			return fmt.Errorf("invalid --source %q: must be jira or pr", compareSource)
		}

		now := time.Now().UTC()
		named := make([]compare.Named, 0, len(phases))
		for _, phase := range phases {
			items, err := store.Load(phase.Name, compareSource)
			if err != nil {
				return fmt.Errorf("phase %q: %w", phase.Name, err)
			}
			if items == nil {
				log.Warn().Str("phase", phase.Name).Str("source", compareSource).
					Msg("No snapshot for phase; comparing against an empty cohort")
			}
			items = metrics.FilterByActor(items, compareAssignee)
			named = append(named, compare.Named{Name: phase.Name, M: metrics.Aggregate(items, now)})
		}

		table := compare.Compare(named)
		content := report.RenderComparison(phases, table, compareAssignee, now)

		path, err := report.Write(cfg.ReportsDir, report.ComparisonFilename(compareSource, compareAssignee, now), content)
		if err != nil {
			return err
		}
		log.Info().Int("phases", len(phases)).Str("report", path).Msg("Comparison written")

		if compareOpen {
			if err := report.Open(path); err != nil {
				log.Warn().Err(err).Msg("Failed to open report")
			}
		}
		return nil
	},
}

func init() {
	compareCmd.Flags().StringVar(&compareSource, "source", "jira", "snapshot source to compare: jira or pr")
	compareCmd.Flags().StringVar(&compareAssignee, "assignee", "", "restrict to one assignee/author")
	compareCmd.Flags().BoolVar(&compareOpen, "open", false, "open the written comparison")
	rootCmd.AddCommand(compareCmd)
}
