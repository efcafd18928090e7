package orchestrator

import (
	"context"
	"os"
	"sort"
	"time"

	"github.com/nit-test/nit/internal/agent/analyze"
	"github.com/nit-test/nit/internal/agent/build"
	"github.com/nit-test/nit/internal/agent/report"
	"github.com/nit-test/nit/internal/cover"
)

// GenerateOptions parameterizes a generate run. Framework overrides
// detection (spec.md's `--framework <name>` CLI flag); MaxTargets bounds
// how many prioritized coverage gaps get a builder dispatched for them,
// since an unbounded run on a large repo could dispatch thousands of LLM
// calls in one invocation.
type GenerateOptions struct {
	Framework  string
	MaxTargets int
	DryRun     bool
}

const defaultMaxTargets = 10

// Generate implements spec.md §4.13's generate command: detect -> analyze
// coverage + patterns -> select builder(s) -> for each prioritized
// target, run a builder with validation -> aggregate RunSummary -> report.
func (o *Orchestrator) Generate(ctx context.Context, opts GenerateOptions) (report.RunSummary, error) {
	summary := report.RunSummary{ProjectRoot: o.ProjectRoot, Command: "generate", StartedAt: time.Now()}
	if opts.MaxTargets <= 0 {
		opts.MaxTargets = defaultMaxTargets
	}

	detected, err := o.Detect(ctx)
	if err != nil {
		summary.FinishedAt = time.Now()
		return summary, err
	}

	framework, language, ok := detected.PrimaryFramework()
	if opts.Framework != "" {
		framework = opts.Framework
	}
	if !ok && framework == "" {
		summary.FinishedAt = time.Now()
		summary.Success = false
		summary.Messages = append(summary.Messages, "no test framework detected above the confidence threshold")
		return summary, nil
	}
	if language == "" {
		language = detected.Stack.PrimaryLanguage
	}

	if profile, err := o.patternAnalyzer.Analyze(ctx, o.ProjectRoot, language); err != nil {
		o.Logger.Warn("generate: pattern analysis failed", "error", err)
	} else if err := o.patternAnalyzer.SeedMemory(o.RC.Memory, profile); err != nil {
		o.Logger.Warn("generate: seeding memory with conventions failed", "error", err)
	}

	gaps := o.collectGaps(ctx, language)
	if len(gaps) > opts.MaxTargets {
		summary.Messages = append(summary.Messages, "coverage gaps exceeded max-targets; lowest-priority gaps were skipped this run")
		gaps = gaps[:opts.MaxTargets]
	}

	if opts.DryRun {
		summary.Messages = append(summary.Messages, "dry run: no builders were dispatched")
		summary.Success = true
		summary.FinishedAt = time.Now()
		return summary, nil
	}

	for _, gap := range gaps {
		if err := o.RC.Acquire(ctx); err != nil {
			break
		}
		result, buildErr := o.unitBuilder.Build(ctx, build.BuildTask{
			SourceFile: gap.FilePath,
			Framework:  framework,
		})
		o.RC.Release()

		summary.TestsGenerated++
		if buildErr != nil || !result.ValidationPassed {
			summary.TestsFailed++
			if buildErr != nil {
				summary.Messages = append(summary.Messages, "generation failed for "+gap.FilePath+": "+buildErr.Error())
			}
			continue
		}
		summary.TestsPassed++
	}

	summary.Success = summary.TestsFailed == 0
	summary.FinishedAt = time.Now()
	o.deliver(ctx, summary)
	return summary, nil
}

// collectGaps runs CodeAnalyzer then CoverageAnalyzer over every source
// file for language, merging every file's FunctionGaps into one
// priority-ranked slice. No coverage data is collected here — generate
// runs before tests exist to produce any — so every function starts at
// 0% covered, which CoverageAnalyzer already treats as the worst case.
func (o *Orchestrator) collectGaps(ctx context.Context, language string) []analyze.FunctionGap {
	var all []analyze.FunctionGap
	for _, path := range sourceFilesForLanguage(o.ProjectRoot, language) {
		src, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		cm := o.codeAnalyzer.Analyze(ctx, src, path)
		all = append(all, o.coverageAnalyzer.Analyze(cm, cover.Report{})...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return gapRank(all[i]) < gapRank(all[j])
	})
	return all
}

var gapPriorityOrder = map[analyze.GapPriority]int{
	analyze.GapPriorityCritical: 0,
	analyze.GapPriorityHigh:     1,
	analyze.GapPriorityMedium:   2,
	analyze.GapPriorityLow:      3,
}

func gapRank(g analyze.FunctionGap) int { return gapPriorityOrder[g.Priority] }

// deliver ships summary to every configured sink. Every reporter
// already logs its own failures; deliver never lets a sink failure
// affect the command's own return value (spec.md: "failures are
// logged, never abort a run").
func (o *Orchestrator) deliver(ctx context.Context, summary report.RunSummary) {
	_ = o.slack.Send(ctx, summary)
	_ = o.platform.UploadReport(ctx, summary)
}
