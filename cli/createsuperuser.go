package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"yatube/database"
	"yatube/forms"
	"yatube/services"
)

type superuserOptions struct {
	Username string
	Email    string
	Password string
}

func NewCreateSuperuserCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &superuserOptions{}

	cmd := &cobra.Command{
		Use:          "createsuperuser",
		Short:        "Create a staff account that can use /admin/",
		Example:      "  yatube createsuperuser --username admin --email admin@example.com --password 's3cret-pass'",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.load()
			if err != nil {
				return err
			}
			log := cfg.Log.NewLogger(os.Stderr)

			db, err := database.Connect(cfg.Database, log)
			if err != nil {
				return err
			}
			defer database.Close(db, log)

			user, err := services.NewUserService(db, log).CreateSuperuser(cmd.Context(), forms.SignupForm{
				Username: opts.Username,
				Email:    opts.Email,
				Password: opts.Password,
			})
			var verr *services.ValidationError
			if errors.As(err, &verr) {
				return fmt.Errorf("invalid superuser: %s", verr.Errors.Error())
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Superuser %s created.\n", user.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Username, "username", "", "login name (required)")
	cmd.Flags().StringVar(&opts.Email, "email", "", "email address")
	cmd.Flags().StringVar(&opts.Password, "password", os.Getenv("YATUBE_SUPERUSER_PASSWORD"), "password, defaults to $YATUBE_SUPERUSER_PASSWORD")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}
