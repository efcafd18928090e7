// Package build implements nit's Builder agents: UnitBuilder,
// IntegrationBuilder, E2EBuilder, ContractTestBuilder, and InfraBuilder
// (spec.md §4.8). Every LLM-backed builder follows the same nine-step
// contract — assemble context, select adapter, render prompt, generate,
// strip fences, validate with bounded retry, optionally execute and
// self-heal, update memory, return a BuildResult — implemented once in
// pipeline.go and reused by each builder's thin Build method.
package build

import "github.com/nit-test/nit/internal/adapter"

// BuildTask is the uniform input an LLM-backed builder processes
// (spec.md §4.8: "A BuildTask{source_file, framework, output_file?}").
type BuildTask struct {
	SourceFile string
	Framework  string
	OutputFile string
}

// BuildResult is the uniform output every builder returns
// (spec.md §4.8 step 9).
type BuildResult struct {
	TestCode         string
	ValidationPassed bool
	TokensUsed       int
	OutputFile       string
	Model            string
}

// ErrAdapterUnavailable is the same failure adapter.Registry raises when
// a framework name is unknown; builders also raise it themselves when
// the adapter is registered but Detect(projectRoot) reports it isn't
// actually present in the target project (spec.md §4.8 step 2's second
// clause, which the registry alone can't evaluate).
type ErrAdapterUnavailable = adapter.ErrAdapterUnavailable
