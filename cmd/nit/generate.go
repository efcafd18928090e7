package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nit-test/nit/internal/orchestrator"
)

func newGenerateCmd() *cobra.Command {
	var maxTargets int
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Detect coverage gaps and generate tests for the highest-priority ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withBudget(cmd)
			defer cancel()

			orch, _, err := buildOrchestrator()
			if err != nil {
				return err
			}
			defer orch.Close()

			summary, err := orch.Generate(ctx, orchestrator.GenerateOptions{
				Framework:  flags.framework,
				MaxTargets: maxTargets,
				DryRun:     flags.dryRun,
			})
			if err != nil {
				return err
			}

			if emitErr := emit(summary, func() string {
				return fmt.Sprintf("generated %d tests (%d passed, %d failed) in %s",
					summary.TestsGenerated, summary.TestsPassed, summary.TestsFailed, summary.Duration())
			}); emitErr != nil {
				return emitErr
			}
			if !summary.Success {
				return &runFailedError{reason: "generate: one or more generated tests failed validation"}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&maxTargets, "max-targets", 0, "maximum coverage gaps to dispatch a builder for (0 = default)")
	return cmd
}
