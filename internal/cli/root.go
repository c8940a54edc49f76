// Package cli is the archivectl command tree.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/debemdeboas/archive-console/internal/config"
	"github.com/debemdeboas/archive-console/internal/logger"
)

var version = "dev"

func SetVersion(v string) {
	version = v
}

type rootOptions struct {
	cfgFile  string
	logLevel string

	app *App
}

func (o *rootOptions) close() error {
	if o.app == nil {
		return nil
	}
	return o.app.Close()
}

// Execute runs archivectl with the process arguments.
func Execute(ctx context.Context) error {
	root, opts := newRootCmd()
	defer opts.close()
	return root.ExecuteContext(ctx)
}

// NewRootCmd builds a fresh command tree. Every command except version and help gets a
// wired App through the persistent hooks.
func NewRootCmd() *cobra.Command {
	root, _ := newRootCmd()
	return root
}

func newRootCmd() (*cobra.Command, *rootOptions) {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "archivectl",
		Short: "Manage the posts of the archive blog",
		Long: `archivectl is the admin console of the archive blog.

It lists, edits, publishes and deletes posts through the blog API. List changes are applied
locally first and rolled back when the server refuses them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}

			if err := config.LoadConfig(opts.cfgFile); err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg := config.AppConfig

			level := cfg.Logging.Level
			if opts.logLevel != "" {
				level = opts.logLevel
			}
			l := logger.NewWithWriter(level, cmd.ErrOrStderr())
			setLoggers(l)

			app, err := newApp(cmd.Context(), cfg, l)
			if err != nil {
				return err
			}
			opts.app = app
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return opts.close()
		},
	}

	root.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", "config.yaml", "config file path")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level")

	root.AddCommand(
		newPostsCmd(opts),
		newPublicCmd(opts),
		newRequestAdminCmd(opts),
		newWhoAmICmd(opts),
		newVersionCmd(),
	)
	return root, opts
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "archivectl %s\n", version)
		},
	}
}
