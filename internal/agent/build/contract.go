package build

import (
	"fmt"
	"strings"

	"github.com/nit-test/nit/internal/agent/analyze"
)

// GeneratedContractTest pairs one analyze.ContractTestCase with the
// rendered test source for it.
type GeneratedContractTest struct {
	analyze.ContractTestCase
	Code string
}

// ContractBuilder is the non-LLM builder variant (spec.md §4.8:
// "ContractTestBuilder: non-LLM; for each PactInteraction, emits both a
// consumer-mock and a provider-verification test case"). It wraps
// internal/agent/analyze's ContractAnalyzer/ContractTestBuilder rather
// than reimplementing contract parsing — that pair already owns pact
// file discovery, parsing, and test-plan shape.
type ContractBuilder struct {
	analyzer    *analyze.ContractAnalyzer
	testBuilder *analyze.ContractTestBuilder
}

func NewContractBuilder() *ContractBuilder {
	return &ContractBuilder{
		analyzer:    analyze.NewContractAnalyzer(),
		testBuilder: analyze.NewContractTestBuilder(),
	}
}

func (b *ContractBuilder) Name() string { return "contract_test_builder" }

// Build discovers every pact contract under root, builds a test plan,
// and renders one scaffolded test body per test case.
func (b *ContractBuilder) Build(root string) ([]GeneratedContractTest, error) {
	analysis := b.analyzer.AnalyzeContracts(root)
	plan := b.testBuilder.GenerateTestPlan(analysis)

	out := make([]GeneratedContractTest, 0, len(plan))
	for _, tc := range plan {
		out = append(out, GeneratedContractTest{ContractTestCase: tc, Code: renderContractTest(tc)})
	}
	return out, nil
}

// renderContractTest scaffolds a test body for one ContractTestCase.
// Pact consumer/provider tests are written in whatever language the
// consumer or provider service is implemented in, which the pact file
// itself doesn't name — so this renders a framework-neutral scaffold
// carrying every detail a human (or a follow-up LLM builder) needs to
// finish it, rather than guessing a language.
func renderContractTest(tc analyze.ContractTestCase) string {
	var b strings.Builder
	fmt.Fprintf(&b, "// %s\n", tc.TestName)
	fmt.Fprintf(&b, "// consumer=%s provider=%s\n", tc.Consumer, tc.Provider)
	fmt.Fprintf(&b, "// interaction: %s\n", tc.Interaction.Description)
	if tc.Interaction.ProviderState != "" {
		fmt.Fprintf(&b, "// given: %s\n", tc.Interaction.ProviderState)
	}

	switch tc.TestType {
	case "consumer_mock":
		fmt.Fprintf(&b, "test(%q, async () => {\n", tc.TestName)
		fmt.Fprintf(&b, "  // mock provider expects %s %s\n", tc.Interaction.Request.Method, tc.Interaction.Request.Path)
		fmt.Fprintf(&b, "  // and responds with status %d\n", tc.Interaction.Response.Status)
		b.WriteString("  // assert the consumer handles that response correctly\n")
		b.WriteString("});\n")
	case "provider_verification":
		fmt.Fprintf(&b, "test(%q, async () => {\n", tc.TestName)
		fmt.Fprintf(&b, "  // verify provider %s honors the contract for %s %s\n",
			tc.Provider, tc.Interaction.Request.Method, tc.Interaction.Request.Path)
		fmt.Fprintf(&b, "  // expected response status: %d\n", tc.Interaction.Response.Status)
		b.WriteString("});\n")
	}

	return b.String()
}
