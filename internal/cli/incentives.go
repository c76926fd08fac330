package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/olympiad-api/internal/docstore"
	"github.com/noah-isme/olympiad-api/internal/incentive"
	"github.com/noah-isme/olympiad-api/internal/repository"
	"github.com/noah-isme/olympiad-api/internal/service"
	"github.com/noah-isme/olympiad-api/internal/tables"
)

func newIncentivesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "incentives",
		Short: "Coordinator incentive maintenance",
	}

	var coordinatorID string
	recalc := &cobra.Command{
		Use:   "recalc",
		Short: "Recompute incentives for one or all coordinators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			refTables, err := tables.Load(cfg.TablesPath)
			if err != nil {
				return err
			}
			db, err := openStore(cfg)
			if err != nil {
				return err
			}

			store := docstore.NewGormGateway(db)
			svc := service.NewIncentiveService(
				repository.NewCoordinatorRepository(store),
				repository.NewStudentRepository(store),
				incentive.NewCalculator(refTables),
				nil,
				service.NewEventPublisher(nil, nil, "", opts.logger),
				opts.logger,
			)

			out := cmd.OutOrStdout()
			if coordinatorID != "" {
				resp, err := svc.Recalculate(cmd.Context(), coordinatorID, service.TriggerCLI)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: %s, %d paid, earnings %d\n",
					resp.UserID, resp.Category, resp.TotalRegistrations, resp.TotalEarnings)
				return nil
			}

			updated, err := svc.RecalculateAll(cmd.Context(), service.TriggerCLI)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "recalculated %d coordinators\n", updated)
			return nil
		},
	}
	recalc.Flags().StringVar(&coordinatorID, "coordinator", "", "recalculate a single coordinator by id")

	cmd.AddCommand(recalc)
	return cmd
}
