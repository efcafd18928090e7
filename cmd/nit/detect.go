package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Detect the project's stack, framework, dependencies, and infra",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withBudget(cmd)
			defer cancel()

			orch, _, err := buildOrchestrator()
			if err != nil {
				return err
			}
			defer orch.Close()

			result, err := orch.Detect(ctx)
			if err != nil {
				return err
			}

			return emit(result, func() string {
				name, lang, ok := result.PrimaryFramework()
				if !ok {
					return fmt.Sprintf("language: %s\nframework: none detected above threshold", result.Stack.PrimaryLanguage)
				}
				return fmt.Sprintf("language: %s\nframework: %s (%s)", lang, name, result.Stack.PrimaryLanguage)
			})
		},
	}
}
