package analyze

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// contractDirNames are the conventional locations Pact-style JSON
// contracts live in, per the original's detect_contract_files.
var contractDirNames = []string{"pacts", "pact", "contracts"}

// PactRequest is one interaction's expected request.
type PactRequest struct {
	Method  string
	Path    string
	Headers map[string]string
	Body    map[string]any
}

// PactResponse is one interaction's expected response.
type PactResponse struct {
	Status  int
	Headers map[string]string
	Body    map[string]any
}

// PactInteraction is one request/response exchange within a contract,
// ported from the original's PactInteraction dataclass.
type PactInteraction struct {
	Description   string
	ProviderState string
	Request       PactRequest
	Response      PactResponse
}

// PactContract is one consumer/provider contract file's parsed content.
type PactContract struct {
	Consumer     string
	Provider     string
	Interactions []PactInteraction
}

// ContractAnalysisResult aggregates every contract found under a
// project root.
type ContractAnalysisResult struct {
	Contracts         []PactContract
	TotalInteractions int
	Consumers         []string
	Providers         []string
}

// ContractAnalyzer detects and parses Pact-style JSON contracts,
// grounded on original_source/.../analyzers/contract.py (absent from
// the retrieval pack; recovered from tests/test_contract_analyzer.py,
// which is present and exercises the full public surface).
type ContractAnalyzer struct{}

func NewContractAnalyzer() *ContractAnalyzer { return &ContractAnalyzer{} }

// DetectContractFiles finds every *.json file directly under root's
// pacts/, pact/, or contracts/ directories (non-recursive, matching the
// original's glob("*.json") over each candidate dir).
func (a *ContractAnalyzer) DetectContractFiles(root string) []string {
	var files []string
	for _, dirName := range contractDirNames {
		dir := filepath.Join(root, dirName)
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
				continue
			}
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files
}

type rawPactFile struct {
	Consumer     *rawPactParty    `json:"consumer"`
	Provider     *rawPactParty    `json:"provider"`
	Interactions []rawInteraction `json:"interactions"`
}

type rawPactParty struct {
	Name string `json:"name"`
}

type rawInteraction struct {
	Description     string          `json:"description"`
	ProviderState   string          `json:"providerState"`
	ProviderStateV3 string          `json:"provider_state"`
	Request         rawPactRequest  `json:"request"`
	Response        rawPactResponse `json:"response"`
}

type rawPactRequest struct {
	Method  string            `json:"method"`
	Path    string            `json:"path"`
	Headers map[string]string `json:"headers"`
	Body    map[string]any    `json:"body"`
}

type rawPactResponse struct {
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers"`
	Body    map[string]any    `json:"body"`
}

// AnalyzeContracts parses every contract file found under root and
// aggregates consumers/providers/interaction counts. Invalid JSON and
// JSON files that lack a consumer/provider shape are silently skipped,
// matching the original's defensive parsing.
func (a *ContractAnalyzer) AnalyzeContracts(root string) ContractAnalysisResult {
	result := ContractAnalysisResult{}
	consumerSet := map[string]bool{}
	providerSet := map[string]bool{}

	for _, path := range a.DetectContractFiles(root) {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var raw rawPactFile
		if err := json.Unmarshal(data, &raw); err != nil {
			continue
		}
		if raw.Consumer == nil || raw.Provider == nil || raw.Consumer.Name == "" || raw.Provider.Name == "" {
			continue
		}

		contract := PactContract{Consumer: raw.Consumer.Name, Provider: raw.Provider.Name}
		for _, ri := range raw.Interactions {
			state := ri.ProviderState
			if state == "" {
				state = ri.ProviderStateV3
			}
			contract.Interactions = append(contract.Interactions, PactInteraction{
				Description:   ri.Description,
				ProviderState: state,
				Request: PactRequest{
					Method:  ri.Request.Method,
					Path:    ri.Request.Path,
					Headers: ri.Request.Headers,
					Body:    ri.Request.Body,
				},
				Response: PactResponse{
					Status:  ri.Response.Status,
					Headers: ri.Response.Headers,
					Body:    ri.Response.Body,
				},
			})
		}

		result.Contracts = append(result.Contracts, contract)
		result.TotalInteractions += len(contract.Interactions)
		consumerSet[contract.Consumer] = true
		providerSet[contract.Provider] = true
	}

	result.Consumers = sortedSetKeys(consumerSet)
	result.Providers = sortedSetKeys(providerSet)
	return result
}

func sortedSetKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var nonIdentifierRe = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// slugify turns a free-text description into a valid test-name
// fragment, matching the original's test_name slugification.
func slugify(s string) string {
	slug := nonIdentifierRe.ReplaceAllString(strings.ToLower(s), "_")
	return strings.Trim(slug, "_")
}

// ContractTestCase is one generated Pact test case: either a
// consumer-side mock-server test or a provider-side verification test.
type ContractTestCase struct {
	TestType    string // "consumer_mock" or "provider_verification"
	TestName    string
	Consumer    string
	Provider    string
	Interaction PactInteraction
}

// ContractTestBuilder emits a consumer-mock and a provider-verification
// test case per PactInteraction, a non-LLM builder per spec.md §4.8.
type ContractTestBuilder struct{}

func NewContractTestBuilder() *ContractTestBuilder { return &ContractTestBuilder{} }

// GenerateTestPlan expands every interaction in analysis into its two
// test cases, consumer test before provider test, contracts and
// interactions in the order they appear in analysis.
func (b *ContractTestBuilder) GenerateTestPlan(analysis ContractAnalysisResult) []ContractTestCase {
	var cases []ContractTestCase
	for _, contract := range analysis.Contracts {
		for _, interaction := range contract.Interactions {
			slug := slugify(interaction.Description)
			cases = append(cases,
				ContractTestCase{
					TestType:    "consumer_mock",
					TestName:    "test_consumer_" + slug,
					Consumer:    contract.Consumer,
					Provider:    contract.Provider,
					Interaction: interaction,
				},
				ContractTestCase{
					TestType:    "provider_verification",
					TestName:    "test_provider_" + slug,
					Consumer:    contract.Consumer,
					Provider:    contract.Provider,
					Interaction: interaction,
				},
			)
		}
	}
	return cases
}
