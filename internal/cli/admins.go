package cli

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/noah-isme/olympiad-api/internal/docstore"
	"github.com/noah-isme/olympiad-api/internal/dto"
	"github.com/noah-isme/olympiad-api/internal/repository"
	"github.com/noah-isme/olympiad-api/internal/service"
)

// newAdminsCmd bootstraps admin accounts; the HTTP register route needs an existing admin.
func newAdminsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admins",
		Short: "Manage admin accounts",
	}

	var req dto.AdminRegisterRequest
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an admin account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if req.Password == "" {
				req.Password = os.Getenv("OLYMPIAD_ADMIN_PASSWORD")
			}
			req.ConfirmPassword = req.Password

			cfg, err := opts.config()
			if err != nil {
				return err
			}
			db, err := openStore(cfg)
			if err != nil {
				return err
			}

			svc := service.NewAdminService(service.AdminServiceDeps{
				Admins:    repository.NewAdminRepository(docstore.NewGormGateway(db)),
				Validator: validator.New(validator.WithRequiredStructEnabled()),
				Logger:    opts.logger,
			})
			admin, err := svc.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s created (%s)\n", admin.Email, admin.UID)
			return nil
		},
	}
	create.Flags().StringVar(&req.Name, "name", "", "display name")
	create.Flags().StringVar(&req.Email, "email", "", "login email")
	create.Flags().StringVar(&req.Password, "password", "", "password (defaults to $OLYMPIAD_ADMIN_PASSWORD)")

	cmd.AddCommand(create)
	return cmd
}
