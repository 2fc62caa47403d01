// Package cli holds the yatube command line: serve, migrate and createsuperuser.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"yatube/config"
)

type RootOptions struct {
	ConfigPath string
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "yatube",
		Short: "yatube blogging platform",
		Long:  "Posts, groups, comments and author subscriptions, served over HTTP.",
	}
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", os.Getenv("YATUBE_CONFIG"), "path to a YAML config file")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewCreateSuperuserCommand(opts))
	return cmd
}

func (o *RootOptions) load() (*config.Config, error) {
	return config.Load(o.ConfigPath)
}
