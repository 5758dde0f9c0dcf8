package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"auction-analyzer/backend/internal/app"
	"auction-analyzer/backend/internal/services"
	"auction-analyzer/backend/internal/workflow"
	"auction-analyzer/backend/pkg/models"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run FILE...",
		Short: "Analyse local auction documents and print the result as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range args {
				if _, err := os.Stat(p); err != nil {
					return fmt.Errorf("cannot read %s: %w", p, err)
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			progress := workflow.NotifierFunc(func(_ context.Context, ev workflow.Event) {
				fmt.Fprintf(cmd.ErrOrStderr(), "%-18s %-8s %3d%%\n", ev.Stage, ev.Status, ev.Percent)
			})
			orchestrator := app.NewWorkflow(cfg, logger, progress)

			analysis := &models.Analysis{ID: uuid.New().String(), FilePaths: args}
			final := orchestrator.Execute(ctx, workflow.NewState(analysis.ID, args))

			record, err := services.Record(analysis, final)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(record)
		},
	}
	return cmd
}
