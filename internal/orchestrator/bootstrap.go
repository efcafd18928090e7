package orchestrator

import (
	"context"

	"github.com/nit-test/nit/internal/agent/build"
)

// Bootstrap implements the CLI's bootstrap subcommand: detect the
// project's stack and framework (unless overridden), then hand
// InfraBuilder the target framework to set up test infrastructure for
// (spec.md §4.8: "InfraBuilder: bootstraps test infrastructure ... when
// none exists for the target framework").
func (o *Orchestrator) Bootstrap(ctx context.Context, framework, language string) (build.BootstrapResult, error) {
	if framework == "" || language == "" {
		detected, err := o.Detect(ctx)
		if err != nil {
			return build.BootstrapResult{}, err
		}
		if framework == "" {
			framework, _, _ = detected.PrimaryFramework()
		}
		if language == "" {
			language = detected.Stack.PrimaryLanguage
		}
	}

	return o.infraBuilder.Bootstrap(ctx, build.BootstrapTask{
		Framework:   framework,
		Language:    language,
		ProjectPath: o.ProjectRoot,
	})
}
