package detect

import "regexp"

// LLMUsageProfile reports whether a project itself talks to an LLM
// provider — used by BuilderAgents to flag files that need semantic test
// doubles instead of naive mocks (spec.md §4.6).
type LLMUsageProfile struct {
	Root           string
	Providers      []string // "openai", "anthropic", "cohere", "huggingface", "bedrock"
	HasPromptFiles bool
}

var llmSDKPatterns = map[string]*regexp.Regexp{
	"openai":      regexp.MustCompile(`openai(\.ChatCompletion|\.Client|import openai|from openai)`),
	"anthropic":   regexp.MustCompile(`anthropic(\.Client|import anthropic|from anthropic)`),
	"cohere":      regexp.MustCompile(`import cohere|cohere\.Client`),
	"huggingface": regexp.MustCompile(`transformers\.|huggingface_hub`),
	"bedrock":     regexp.MustCompile(`bedrock-runtime|boto3\.client\(['"]bedrock`),
}

// LLMUsageDetector scans source files for LLM SDK imports/calls and
// prompt-template file conventions.
type LLMUsageDetector struct{}

func NewLLMUsageDetector() *LLMUsageDetector { return &LLMUsageDetector{} }

func (d *LLMUsageDetector) Detect(root string) LLMUsageProfile {
	pf := newProjectFiles(root)

	profile := LLMUsageProfile{Root: root}
	for provider, re := range llmSDKPatterns {
		if pf.grepSourceFiles(re) {
			profile.Providers = append(profile.Providers, provider)
		}
	}

	profile.HasPromptFiles = pf.hasFileGlob("**/*.prompt.txt") ||
		pf.hasFileGlob("**/prompts/*.txt") ||
		pf.hasFileGlob("**/prompts/*.md") ||
		pf.hasFileGlob("**/*.prompt.md")

	return profile
}
