package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/waabox/sitedeck/internal/tui"
)

// NewRootCommand creates the root command. Without a subcommand it starts the TUI.
func NewRootCommand(version string) *cobra.Command {
	opts := &globalOptions{}
	rootCmd := &cobra.Command{
		Use:           "sitedeck",
		Short:         "Generate websites from a description and follow the build live",
		Long:          `sitedeck submits a website description to the generation backend and shows each pipeline stage as it runs.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default ~/.config/sitedeck/config.toml)")
	flags.StringVar(&opts.apiURL, "api-url", "", "backend base URL")
	flags.StringVar(&opts.backend, "backend", "", "status shape to track: project or deployment")
	flags.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")

	rootCmd.AddCommand(NewBuildCommand(opts))
	rootCmd.AddCommand(NewWatchCommand(opts))
	rootCmd.AddCommand(NewProjectsCommand(opts))
	rootCmd.AddCommand(NewLoginCommand(opts))
	rootCmd.AddCommand(NewLogoutCommand(opts))
	rootCmd.AddCommand(NewWhoamiCommand(opts))
	rootCmd.AddCommand(NewDomainCommand(opts))
	rootCmd.AddCommand(NewMockServerCommand())

	return rootCmd
}

// Execute runs the root command until it returns or the process is interrupted.
func Execute(version string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand(version).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func runTUI(ctx context.Context, opts *globalOptions) error {
	a, err := newApp(ctx, opts, true)
	if err != nil {
		return err
	}
	defer a.Close()

	notifier := tui.NewNotifier()
	sess, err := a.newSession("", notifier.Notify)
	if err != nil {
		return err
	}
	defer sess.Reset()

	model := tui.NewAppModel(tui.Deps{
		Context:  ctx,
		Flow:     a.newFlow(sess),
		Session:  sess,
		Updates:  notifier.C(),
		Projects: a.service,
		Auth:     a.authn,
	})
	if err := tui.Run(model); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
