package cli

import (
	"os"

	"github.com/spf13/cobra"

	"yatube/database"
)

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "migrate",
		Short:        "Create or update the database schema",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.load()
			if err != nil {
				return err
			}
			log := cfg.Log.NewLogger(os.Stderr)

			// Connect migrates as part of opening.
			db, err := database.Connect(cfg.Database, log)
			if err != nil {
				return err
			}
			defer database.Close(db, log)
			log.Info("schema is up to date")
			return nil
		},
	}
}
