package commands

import (
	"github.com/spf13/cobra"

	"github.com/waabox/sitedeck/internal/domain"
	"github.com/waabox/sitedeck/internal/provider"
)

// NewWatchCommand creates the watch command, which follows an existing project.
func NewWatchCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <project-id>",
		Short: "Follow the build of an existing project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, global, false)
			if err != nil {
				return err
			}
			defer a.Close()

			printer := newProgressPrinter(cmd.OutOrStdout())
			// Watching reads project status only; the deployment shape would start a new deployment.
			sess, err := a.newSession(provider.ShapeProject, printer.OnChange)
			if err != nil {
				return err
			}
			attempt, err := sess.Begin()
			if err != nil {
				return err
			}
			if err := sess.Start(ctx, attempt, domain.Project{ID: args[0]}); err != nil {
				return err
			}
			return printer.wait(ctx, sess)
		},
	}
}
