package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nit-test/nit/internal/agent/debug"
	"github.com/nit-test/nit/internal/orchestrator"
)

func newVerifyFixCmd() *cobra.Command {
	var bugReportPath, reproTestFile string
	cmd := &cobra.Command{
		Use:   "verify-fix",
		Short: "Root-cause a bug report, generate a fix, and verify it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if bugReportPath == "" {
				return fmt.Errorf("nit: verify-fix requires --bug-report <file.json>")
			}

			raw, err := os.ReadFile(bugReportPath)
			if err != nil {
				return fmt.Errorf("nit: read %s: %w", bugReportPath, err)
			}
			var bug debug.BugReport
			if err := json.Unmarshal(raw, &bug); err != nil {
				return fmt.Errorf("nit: parse %s: %w", bugReportPath, err)
			}

			ctx, cancel := withBudget(cmd)
			defer cancel()

			orch, _, err := buildOrchestrator()
			if err != nil {
				return err
			}
			defer orch.Close()

			verification, err := orch.VerifyFix(ctx, orchestrator.VerifyFixInput{
				BugReport:            bug,
				ReproductionTestFile: reproTestFile,
				Framework:            flags.framework,
			})
			if err != nil {
				return err
			}

			if emitErr := emit(verification, func() string {
				return fmt.Sprintf("fix verified: %v, bug fixed: %v, regressions found: %v",
					verification.IsVerified, verification.BugFixed, verification.RegressionsFound)
			}); emitErr != nil {
				return emitErr
			}
			if !verification.IsVerified {
				return &runFailedError{reason: "verify-fix: generated fix did not verify"}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&bugReportPath, "bug-report", "", "path to a BugReport JSON file (required)")
	cmd.Flags().StringVar(&reproTestFile, "repro-test", "", "path to the test file reproducing the bug")
	return cmd
}
