package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nit-test/nit/internal/orchestrator"
)

func newDriftCmd() *cobra.Command {
	var testsFile string

	run := func(mode orchestrator.DriftMode) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withBudget(cmd)
			defer cancel()

			orch, _, err := buildOrchestrator()
			if err != nil {
				return err
			}
			defer orch.Close()

			result, err := orch.Drift(ctx, mode, testsFile)
			if err != nil {
				return err
			}

			if emitErr := emit(result, func() string {
				return fmt.Sprintf("%d/%d drift tests failed (drift detected: %v)",
					result.FailedTests, result.TotalTests, result.DriftDetected)
			}); emitErr != nil {
				return emitErr
			}
			if mode == orchestrator.DriftModeTest && result.DriftDetected {
				return &runFailedError{reason: "drift: behavioral drift detected"}
			}
			return nil
		}
	}

	parent := &cobra.Command{
		Use:       "drift {baseline|test}",
		Short:     "Capture or check behavioral-drift baselines",
		ValidArgs: []string{"baseline", "test"},
	}
	parent.PersistentFlags().StringVar(&testsFile, "tests-file", "", "path to drift-tests.yml (default .nit/drift-tests.yml)")

	baseline := &cobra.Command{
		Use:   "baseline",
		Short: "Record the current output of every drift test as its new baseline",
		RunE:  run(orchestrator.DriftModeBaseline),
	}
	test := &cobra.Command{
		Use:   "test",
		Short: "Run every drift test and compare against its recorded baseline",
		RunE:  run(orchestrator.DriftModeTest),
	}
	parent.AddCommand(baseline, test)
	return parent
}
