package llm

import (
	tiktoken "github.com/pkoukk/tiktoken-go"
)

// charsPerTokenFallback approximates token count when no tokenizer
// encoding is available for a model (spec.md §4.4/§4.5).
const charsPerTokenFallback = 4

// Tokenizer wraps tiktoken-go, caching one encoding per model and
// falling back to a 4-chars-per-token heuristic for models tiktoken
// doesn't recognize (local/open-weight models via Ollama, for instance).
type Tokenizer struct {
	defaultModel string
	encodings    map[string]*tiktoken.Tiktoken
}

func NewTokenizer(defaultModel string) *Tokenizer {
	return &Tokenizer{defaultModel: defaultModel, encodings: map[string]*tiktoken.Tiktoken{}}
}

// Count returns the token count of text under model's encoding, or the
// fallback heuristic if model has no known encoding.
func (t *Tokenizer) Count(text string, model string) int {
	if model == "" {
		model = t.defaultModel
	}
	enc, ok := t.encodings[model]
	if !ok {
		var err error
		enc, err = tiktoken.EncodingForModel(model)
		if err != nil {
			t.encodings[model] = nil
			enc = nil
		} else {
			t.encodings[model] = enc
		}
	}
	if enc == nil {
		return fallbackCount(text)
	}
	return len(enc.Encode(text, nil, nil))
}

func fallbackCount(text string) int {
	if len(text) == 0 {
		return 0
	}
	n := len(text) / charsPerTokenFallback
	if n == 0 {
		n = 1
	}
	return n
}
