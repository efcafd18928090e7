package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAuditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Scan the project for security findings",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withBudget(cmd)
			defer cancel()

			orch, _, err := buildOrchestrator()
			if err != nil {
				return err
			}
			defer orch.Close()

			result, err := orch.Audit(ctx, flags.language)
			if err != nil {
				return err
			}

			if emitErr := emit(result, func() string {
				return fmt.Sprintf("%d security findings across the scanned tree", len(result.Findings))
			}); emitErr != nil {
				return emitErr
			}
			if len(result.Findings) > 0 {
				return &runFailedError{reason: fmt.Sprintf("audit: %d security findings", len(result.Findings))}
			}
			return nil
		},
	}
}
