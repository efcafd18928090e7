package build

import (
	"context"
	"fmt"
	"strings"

	"github.com/nit-test/nit/internal/adapter"
	"github.com/nit-test/nit/internal/llm"
	"github.com/nit-test/nit/internal/memory"
)

const defaultMaxRetries = 3

// selectAdapter implements step 2 of the contract: look the framework up
// in the registry, then additionally require it to detect itself in the
// project, since a registered-but-absent framework is exactly as
// unusable to a builder as an unregistered one.
func selectAdapter(registry *adapter.Registry, framework, projectRoot string) (adapter.TestAdapter, error) {
	ad, err := registry.GetTestAdapter(framework)
	if err != nil {
		return nil, err
	}
	if !ad.Detect(projectRoot) {
		return nil, &adapter.ErrAdapterUnavailable{Name: framework}
	}
	return ad, nil
}

// memoryHints is the rendered block injected into the first user message
// (spec.md §4.8 step 3: "inject memory hints: known good patterns for
// this language; failed patterns to avoid; convention profile").
func memoryHints(store *memory.Store, language string) string {
	if store == nil {
		return ""
	}

	var b strings.Builder
	conv := store.Conventions()
	if conv.Language != "" {
		fmt.Fprintf(&b, "Project conventions: naming=%s, assertions=%s", conv.NamingStyle, conv.AssertionStyle)
		if len(conv.MockingPatterns) > 0 {
			fmt.Fprintf(&b, ", mocking=%s", strings.Join(conv.MockingPatterns, "/"))
		}
		b.WriteString(".\n")
	}

	known := store.GetKnownPatterns(func(p memory.KnownPattern) bool {
		return language == "" || p.Context["language"] == language
	})
	if len(known) > 0 {
		b.WriteString("Patterns that have worked before:\n")
		for _, p := range known {
			fmt.Fprintf(&b, "- %s\n", p.Pattern)
		}
	}

	failed := store.GetFailedPatterns(func(p memory.FailedPattern) bool { return true })
	if len(failed) > 0 {
		b.WriteString("Patterns to avoid (previously failed):\n")
		for _, p := range failed {
			fmt.Fprintf(&b, "- %s (%s)\n", p.Pattern, p.Reason)
		}
	}

	return b.String()
}

// renderMessages builds step 3's initial message history: the adapter's
// system preamble, then a user message combining the adapter's body
// instructions, the assembled context, and any memory hints.
func renderMessages(tmpl adapter.Template, contextText, hints string) []llm.Message {
	user := tmpl.Body + "\n\n" + contextText
	if hints != "" {
		user += "\n\n" + hints
	}
	return []llm.Message{
		{Role: llm.RoleSystem, Content: tmpl.System},
		{Role: llm.RoleUser, Content: user},
	}
}

// stripCodeFences implements step 5: drop a leading ``` opener line and
// a matching trailing ``` closer, if the model wrapped its response.
func stripCodeFences(code string) string {
	lines := strings.Split(strings.TrimSpace(code), "\n")
	if len(lines) == 0 {
		return code
	}
	if strings.HasPrefix(lines[0], "```") {
		lines = lines[1:]
		if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
			lines = lines[:len(lines)-1]
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// validationOutcome carries everything the rest of the pipeline needs
// out of the generate+validate loop.
type validationOutcome struct {
	code       string
	result     adapter.ValidationResult
	tokensUsed int
	model      string
}

// runGenerateAndValidate implements steps 4-6: generate, strip fences,
// then loop validate→regenerate-with-errors up to maxRetries times.
func runGenerateAndValidate(
	ctx context.Context,
	engine *llm.Engine,
	ad adapter.TestAdapter,
	messages []llm.Message,
	meta llm.Metadata,
	maxRetries int,
	enableValidation bool,
) (validationOutcome, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	req := llm.GenerationRequest{Messages: messages, Metadata: meta}
	resp, err := engine.Generate(ctx, req)
	if err != nil {
		return validationOutcome{}, err
	}

	code := stripCodeFences(resp.Text)
	tokens := resp.PromptTokens + resp.CompletionTokens
	model := resp.Model

	if !enableValidation {
		return validationOutcome{code: code, result: adapter.ValidationResult{Valid: true}, tokensUsed: tokens, model: model}, nil
	}

	result := ad.Validate(code)
	history := messages
	for attempt := 1; !result.Valid && attempt < maxRetries; attempt++ {
		history = append(history,
			llm.Message{Role: llm.RoleAssistant, Content: code},
			llm.Message{Role: llm.RoleUser, Content: "errors: " + strings.Join(result.Errors, "; ") + "\nplease fix"},
		)
		resp, err = engine.Generate(ctx, llm.GenerationRequest{Messages: history, Metadata: meta})
		if err != nil {
			return validationOutcome{}, err
		}
		code = stripCodeFences(resp.Text)
		tokens += resp.PromptTokens + resp.CompletionTokens
		model = resp.Model
		result = ad.Validate(code)
	}

	return validationOutcome{code: code, result: result, tokensUsed: tokens, model: model}, nil
}

// recordOutcome implements step 8: on success, remember the pattern; on
// failure, remember why it failed. Errors from the memory write are
// swallowed — a memory-update failure must never fail an otherwise
// successful build (spec.md §9: agent side effects are best-effort).
func recordOutcome(store *memory.Store, successful bool, pattern, language string, errSummary string) {
	if store == nil {
		return
	}
	if successful {
		_ = store.AddKnownPattern(memory.KnownPattern{
			Pattern: pattern,
			Context: map[string]string{"language": language},
		})
	} else {
		_ = store.AddFailedPattern(memory.FailedPattern{Pattern: pattern, Reason: errSummary})
	}
	_ = store.UpdateStats(successful, 1)
}
