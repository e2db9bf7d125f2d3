package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"ai-impact/internal/config"
	"ai-impact/internal/jira"
	"ai-impact/internal/metrics"
	"ai-impact/internal/report"
)

var (
	jiraPhase     string
	jiraStart     string
	jiraEnd       string
	jiraAssignee  string
	jiraProject   string
	jiraAllPhases bool
	jiraOpen      bool
)

var jiraCmd = &cobra.Command{
	Use:   "jira",
	Short: "Fetch Jira issues for a phase, snapshot them and write an analysis report",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client := jira.NewClient(cfg.Jira)

		project := jiraProject
		if project == "" {
			project = cfg.JiraProject
		}
		if project == "" {
			return fmt.Errorf("no Jira project configured; set JIRA_PROJECT_KEY or pass --project")
		}

		if jiraAllPhases {
			if len(phases) == 0 {
				return fmt.Errorf("--all-phases requires a phase configuration at %s", cfg.PhasesFile)
			}
			// The client's rate limiter serializes the actual requests, so
			// concurrency here overlaps mapping and report writing only.
			g, gctx := errgroup.WithContext(ctx)
			for _, phase := range phases {
				phase := phase
				g.Go(func() error {
					return runJiraPhase(gctx, client, project, phase)
				})
			}
			return g.Wait()
		}

		phase, ok := phaseByName(jiraPhase, jiraStart, jiraEnd)
		if !ok {
			return fmt.Errorf("unknown phase %q and no --start/--end window given", jiraPhase)
		}
		return runJiraPhase(ctx, client, project, phase)
	},
}

func runJiraPhase(ctx context.Context, client *jira.Client, project string, phase config.Phase) error {
	q := jira.Query{
		Project:  project,
		Assignee: jiraAssignee,
		Start:    phase.Start,
		End:      phase.End,
	}

	dtos, err := client.FetchAll(ctx, q)
	if err != nil {
		return fmt.Errorf("phase %q: %w", phase.Name, err)
	}

	items, diags, err := jira.MapSearchResults(dtos)
	for _, d := range diags {
		log.Warn().Str("item", d.ItemID).Str("kind", d.Kind).Msg(d.Detail)
	}
	if err != nil {
		return fmt.Errorf("phase %q: %w", phase.Name, err)
	}

	if err := store.Save(phase.Name, "jira", items); err != nil {
		return fmt.Errorf("phase %q: %w", phase.Name, err)
	}

	now := time.Now().UTC()
	m := metrics.Aggregate(items, now)
	content := report.RenderPhase(report.PhaseOptions{
		Title:     "JIRA Data Analysis Report - " + phase.Name,
		Project:   project,
		Assignee:  jiraAssignee,
		Query:     jira.BuildJQL(q, now),
		Generated: now,
	}, m)

	path, err := report.Write(cfg.ReportsDir, report.PhaseFilename("jira", jiraAssignee, now), content)
	if err != nil {
		return err
	}
	log.Info().Str("phase", phase.Name).Int("issues", m.Count).Str("report", path).Msg("Jira phase analyzed")

	if jiraOpen {
		if err := report.Open(path); err != nil {
			log.Warn().Err(err).Msg("Failed to open report")
		}
	}
	return nil
}

func init() {
	jiraCmd.Flags().StringVar(&jiraPhase, "phase", "", "configured phase name to analyze")
	jiraCmd.Flags().StringVar(&jiraStart, "start", "", "ad-hoc window start (YYYY-MM-DD or -Nd)")
	jiraCmd.Flags().StringVar(&jiraEnd, "end", "", "ad-hoc window end (YYYY-MM-DD or -Nd)")
	jiraCmd.Flags().StringVar(&jiraAssignee, "assignee", "", "restrict to one assignee")
	jiraCmd.Flags().StringVar(&jiraProject, "project", "", "Jira project key (overrides JIRA_PROJECT_KEY)")
	jiraCmd.Flags().BoolVar(&jiraAllPhases, "all-phases", false, "fetch and analyze every configured phase")
	jiraCmd.Flags().BoolVar(&jiraOpen, "open", false, "open the written report")
	rootCmd.AddCommand(jiraCmd)
}
