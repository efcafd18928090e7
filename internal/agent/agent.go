// Package agent defines the shared shape every detector, analyzer,
// builder, debugger, healer, watcher, and reporter in nit implements.
package agent

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/nit-test/nit/internal/adapter"
	"github.com/nit-test/nit/internal/config"
	"github.com/nit-test/nit/internal/llm"
	"github.com/nit-test/nit/internal/memory"
)

// RunContext is the arena spec.md §9 prescribes to break the cyclic
// agent↔orchestrator↔memory object graph: one struct owning every
// shared, run-scoped collaborator, passed by reference to every agent
// instead of agents holding back-pointers to an orchestrator.
type RunContext struct {
	Config   *config.Config
	Engine   *llm.Engine
	Memory   *memory.Store
	Adapters *adapter.Registry
	Limiter  chan struct{} // global concurrency semaphore; nil means unbounded
}

// Acquire blocks on the concurrency semaphore until a slot is free or
// ctx is done. Agents call this before any suspension point that counts
// against the global concurrency cap (spec.md §5).
func (rc *RunContext) Acquire(ctx context.Context) error {
	if rc.Limiter == nil {
		return nil
	}
	select {
	case rc.Limiter <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a concurrency slot acquired via Acquire.
func (rc *RunContext) Release() {
	if rc.Limiter == nil {
		return
	}
	<-rc.Limiter
}

// TaskInput is the generic envelope agents receive; concrete agents
// type-assert Payload to their own request type.
type TaskInput struct {
	Kind    string
	Payload any
}

// TaskOutput is the generic envelope agents return. Err is set on
// failure instead of the agent returning a Go error directly, so a
// failing detector or analyzer never aborts a run that has other
// independent work still in flight (spec.md §9: "agent panics/errors
// convert to a failed TaskOutput without automatic retry").
type TaskOutput struct {
	Kind    string
	Payload any
	Err     error
}

// Agent is the capability every concrete agent type implements.
type Agent interface {
	Name() string
	Run(ctx context.Context, rc *RunContext, input TaskInput) TaskOutput
}

// Recover turns a panic inside an agent's Run into a failed TaskOutput
// instead of crashing the orchestrator — spec.md §9's "any panic inside
// an agent's Run converts to a failed TaskOutput". Call via
// `defer agent.Recover(&out, name)` at the top of Run.
func Recover(out *TaskOutput, name string) {
	if r := recover(); r != nil {
		*out = TaskOutput{
			Kind: "panic",
			Err:  fmt.Errorf("nit/agent: %s panicked: %v\n%s", name, r, debug.Stack()),
		}
	}
}
