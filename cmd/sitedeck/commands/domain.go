package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDomainCommand creates the domain command, which checks whether a domain name is free.
func NewDomainCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "domain <name>",
		Short: "Check whether a domain name is available",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, global, false)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.service.CheckDomain(ctx, args[0])
			if err != nil {
				return fmt.Errorf("checking domain: %w", err)
			}
			if res.Available {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is available\n", res.Domain)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "✗ %s is taken\n", res.Domain)
			}
			return nil
		},
	}
}
