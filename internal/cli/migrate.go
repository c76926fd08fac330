package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/noah-isme/olympiad-api/internal/config"
	"github.com/noah-isme/olympiad-api/internal/database"
	"github.com/noah-isme/olympiad-api/internal/docstore"
)

// newMigrateCmd applies the document table schema.
func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			if _, err := openStore(cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func openStore(cfg config.Config) (*gorm.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database url not configured")
	}

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := docstore.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate documents: %w", err)
	}
	return db, nil
}
