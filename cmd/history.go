package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"tasnim.dev/hostprep/internal/journal"
	"tasnim.dev/hostprep/internal/theme"
	"tasnim.dev/hostprep/internal/utils"
)

func NewHistoryCmd(g *GlobalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded provisioning runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := g.load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if cfg.Journal.Disabled || cfg.Journal.Path == "" {
				return errors.New("journal is disabled")
			}

			j, err := journal.Open(cfg.Journal.Path)
			if err != nil {
				return err
			}
			defer j.Close()

			if len(args) == 1 {
				return printRunDetail(cmd.Context(), cmd.OutOrStdout(), j, args[0])
			}
			return printRuns(cmd.Context(), cmd.OutOrStdout(), j, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of runs to show")

	return cmd
}

func printRuns(ctx context.Context, w io.Writer, j *journal.Journal, limit int) error {
	runs, err := j.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, theme.MutedStyle.Render("no runs recorded"))
		return nil
	}

	tbl := utils.NewTable(theme.HeaderStyle, 19, 36, 10, 6)
	tbl.Header("STARTED", "RUN", "OUTCOME", "FAILED", "REPOSITORY")
	for _, r := range runs {
		tbl.Row(
			utils.TimeOrDash(r.StartedAt, utils.DateTimeSec),
			r.ID,
			r.Outcome,
			strconv.Itoa(r.Failures)+"/"+strconv.Itoa(r.Steps),
			r.RepositoryURI,
		)
	}
	fmt.Fprint(w, tbl.String())
	return nil
}

func printRunDetail(ctx context.Context, w io.Writer, j *journal.Journal, runID string) error {
	steps, err := j.Steps(ctx, runID)
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		return fmt.Errorf("run %s not found", runID)
	}

	db := utils.NewDetailBuilder(18, theme.HeaderStyle)
	db.Section("Run " + runID)
	for _, s := range steps {
		db.Row(s.Name, theme.RenderStatus(s.Status)+"  "+theme.MutedStyle.Render(utils.Elapsed(s.Duration)))
		if s.Error != "" {
			db.Row("", theme.ErrorStyle.Render(s.Error))
		}
	}
	fmt.Fprint(w, db.String())
	return nil
}
