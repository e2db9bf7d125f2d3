package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"ai-impact/internal/config"
	"ai-impact/internal/github"
	"ai-impact/internal/metrics"
	"ai-impact/internal/report"
)

var (
	prPhase     string
	prStart     string
	prEnd       string
	prAuthor    string
	prAllPhases bool
	prOpen      bool
)

var prCmd = &cobra.Command{
	Use:   "pr",
	Short: "Fetch merged GitHub PRs for a phase, snapshot them and write an analysis report",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if cfg.GitHub.Owner == "" || cfg.GitHub.Repo == "" {
			return fmt.Errorf("no GitHub repository configured; set GITHUB_REPO_OWNER and GITHUB_REPO_NAME")
		}
		client := github.NewClient(cfg.GitHub)

		if prAllPhases {
			if len(phases) == 0 {
				return fmt.Errorf("--all-phases requires a phase configuration at %s", cfg.PhasesFile)
			}
			g, gctx := errgroup.WithContext(ctx)
			for _, phase := range phases {
				phase := phase
				g.Go(func() error {
					return runPRPhase(gctx, client, phase)
				})
			}
			return g.Wait()
		}

		phase, ok := phaseByName(prPhase, prStart, prEnd)
		if !ok {
			return fmt.Errorf("unknown phase %q and no --start/--end window given", prPhase)
		}
		return runPRPhase(ctx, client, phase)
	},
}

func runPRPhase(ctx context.Context, client *github.Client, phase config.Phase) error {
	start, err := time.Parse("2006-01-02", phase.Start)
	if err != nil {
		return fmt.Errorf("phase %q: invalid start date %q", phase.Name, phase.Start)
	}
	end, err := time.Parse("2006-01-02", phase.End)
	if err != nil {
		return fmt.Errorf("phase %q: invalid end date %q", phase.Name, phase.End)
	}

	items, err := client.FetchMergedPRs(ctx, start, end)
	if err != nil {
		return fmt.Errorf("phase %q: %w", phase.Name, err)
	}
	items = metrics.FilterByActor(items, prAuthor)

	if err := store.Save(phase.Name, "pr", items); err != nil {
		return fmt.Errorf("phase %q: %w", phase.Name, err)
	}

	now := time.Now().UTC()
	m := metrics.Aggregate(items, now)
	content := report.RenderPhase(report.PhaseOptions{
		Title:     "PR Data Analysis Report - " + phase.Name,
		Project:   cfg.GitHub.Owner + "/" + cfg.GitHub.Repo,
		Assignee:  prAuthor,
		Query:     fmt.Sprintf("merged %s to %s", phase.Start, phase.End),
		Generated: now,
	}, m)

	path, err := report.Write(cfg.ReportsDir, report.PhaseFilename("pr", prAuthor, now), content)
	if err != nil {
		return err
	}
	log.Info().Str("phase", phase.Name).Int("prs", m.Count).Str("report", path).Msg("PR phase analyzed")

	if prOpen {
		if err := report.Open(path); err != nil {
			log.Warn().Err(err).Msg("Failed to open report")
		}
	}
	return nil
}

func init() {
	prCmd.Flags().StringVar(&prPhase, "phase", "", "configured phase name to analyze")
	prCmd.Flags().StringVar(&prStart, "start", "", "ad-hoc window start (YYYY-MM-DD)")
	prCmd.Flags().StringVar(&prEnd, "end", "", "ad-hoc window end (YYYY-MM-DD)")
	prCmd.Flags().StringVar(&prAuthor, "author", "", "restrict to one PR author")
	prCmd.Flags().BoolVar(&prAllPhases, "all-phases", false, "fetch and analyze every configured phase")
	prCmd.Flags().BoolVar(&prOpen, "open", false, "open the written report")
	rootCmd.AddCommand(prCmd)
}
