package orchestrator

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/nit-test/nit/internal/agent/detect"
)

// DetectionResult aggregates every detector's independent output
// (spec.md §4.13: "generate: detect -> ..."; §4.6 lists StackDetector,
// FrameworkDetector, DependencyDetector, InfraDetector, and
// LLMUsageDetector as the five detectors a run fans out to).
type DetectionResult struct {
	Stack      detect.StackProfile
	Frameworks detect.FrameworkProfile
	Deps       detect.DependencyProfile
	Infra      detect.InfraProfile
	LLMUsage   detect.LLMUsageProfile
}

// Detect runs every detector concurrently via errgroup, since each
// reads the project tree independently and none depends on another's
// output (spec.md §4.13: "independent detectors run concurrently via
// golang.org/x/sync/errgroup"). A detector failing is fatal to the
// whole Detect call — spec.md §9's propagation policy names detector
// failure during generate as the fatal case, unlike a single builder
// failing among many.
func (o *Orchestrator) Detect(ctx context.Context) (DetectionResult, error) {
	var result DetectionResult
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := o.RC.Acquire(gctx); err != nil {
			return err
		}
		defer o.RC.Release()
		result.Stack = o.stackDetector.Detect(o.ProjectRoot)
		return nil
	})
	g.Go(func() error {
		if err := o.RC.Acquire(gctx); err != nil {
			return err
		}
		defer o.RC.Release()
		result.Frameworks = o.frameworkDetector.Detect(gctx, o.ProjectRoot)
		return nil
	})
	g.Go(func() error {
		if err := o.RC.Acquire(gctx); err != nil {
			return err
		}
		defer o.RC.Release()
		result.Deps = o.dependencyDetector.Detect(o.ProjectRoot)
		return nil
	})
	g.Go(func() error {
		if err := o.RC.Acquire(gctx); err != nil {
			return err
		}
		defer o.RC.Release()
		result.Infra = o.infraDetector.Detect(o.ProjectRoot)
		return nil
	})
	g.Go(func() error {
		if err := o.RC.Acquire(gctx); err != nil {
			return err
		}
		defer o.RC.Release()
		result.LLMUsage = o.llmUsageDetector.Detect(o.ProjectRoot)
		return nil
	})

	if err := g.Wait(); err != nil {
		return DetectionResult{}, err
	}
	return result, nil
}

// PrimaryFramework returns the highest-confidence detected framework's
// name and language, or ("", "", false) if none cleared MinConfidence.
func (d DetectionResult) PrimaryFramework() (name, language string, ok bool) {
	best := -1.0
	for _, f := range d.Frameworks.Frameworks {
		if f.Confidence > best {
			best = f.Confidence
			name, language, ok = f.Name, f.Language, true
		}
	}
	return
}
