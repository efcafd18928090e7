package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/nit-test/nit/internal/config"
	"github.com/nit-test/nit/internal/orchestrator"
)

// globalFlags holds spec.md §6's common flags, shared by every
// subcommand (--project/--language/--framework/--timeout/--dry-run/--json).
type globalFlags struct {
	project        string
	language       string
	framework      string
	timeoutSeconds int
	dryRun         bool
	jsonOut        bool
}

var flags globalFlags

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "nit",
		Short: "Detects, generates, verifies, and watches a project's test suite",
		Long: `nit is an agent-orchestrated test generation and QA assistant:
it detects your stack and framework, writes missing unit tests, chases
down bugs to a verified fix, watches for behavioral drift, and audits
for security findings.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.project, "project", ".", "project root directory")
	root.PersistentFlags().StringVar(&flags.language, "language", "", "override language detection")
	root.PersistentFlags().StringVar(&flags.framework, "framework", "", "override test framework detection")
	root.PersistentFlags().IntVar(&flags.timeoutSeconds, "timeout", 0, "per-run time budget in seconds (0 = no limit)")
	root.PersistentFlags().BoolVar(&flags.dryRun, "dry-run", false, "report what would happen without writing or running anything")
	root.PersistentFlags().BoolVar(&flags.jsonOut, "json", false, "emit machine-readable JSON output")

	root.AddCommand(
		newDetectCmd(),
		newGenerateCmd(),
		newVerifyFixCmd(),
		newDriftCmd(),
		newAuditCmd(),
		newBootstrapCmd(),
	)
	return root
}

// withBudget derives a context bounded by --timeout from cmd's own
// context (already bounded by main's signal.NotifyContext), satisfying
// spec.md §5's per-run time budget without overriding cancellation.
func withBudget(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if flags.timeoutSeconds <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, time.Duration(flags.timeoutSeconds)*time.Second)
}

// buildOrchestrator loads nit.yaml under the project root, applies CLI
// overrides for language, and constructs an Orchestrator rooted there.
func buildOrchestrator() (*orchestrator.Orchestrator, *config.Config, error) {
	root, err := filepath.Abs(flags.project)
	if err != nil {
		return nil, nil, fmt.Errorf("nit: resolve project root: %w", err)
	}

	cfgPath := filepath.Join(root, "nit.yaml")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	cfg.Project.Root = root
	if flags.language != "" {
		cfg.Project.PrimaryLanguage = flags.language
	}

	orch, err := orchestrator.New(cfg, root)
	if err != nil {
		return nil, nil, fmt.Errorf("nit: %w", err)
	}
	return orch, cfg, nil
}
