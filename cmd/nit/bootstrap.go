package main

import (
	"strings"

	"github.com/spf13/cobra"
)

func newBootstrapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Set up test infrastructure for the target framework if none exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withBudget(cmd)
			defer cancel()

			orch, _, err := buildOrchestrator()
			if err != nil {
				return err
			}
			defer orch.Close()

			result, err := orch.Bootstrap(ctx, flags.framework, flags.language)
			if err != nil {
				return err
			}

			return emit(result, func() string {
				if len(result.Actions) == 0 {
					return result.Message
				}
				return result.Message + "\n- " + strings.Join(result.Actions, "\n- ")
			})
		},
	}
}
