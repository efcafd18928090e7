package context

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nit-test/nit/internal/ast"
	"github.com/nit-test/nit/internal/llm"
)

// ErrUnsupportedLanguage is returned when sourcePath's extension doesn't
// map to a known language (spec.md §4.4 step 1).
type ErrUnsupportedLanguage struct {
	Path string
}

func (e *ErrUnsupportedLanguage) Error() string {
	return fmt.Sprintf("nit/context: unsupported language for %s", e.Path)
}

// section is one named, priority-ranked, pre-rendered block of text
// windowed into the final context (spec.md §4.4 step 5).
type section struct {
	name     string
	priority int
	text     string
}

// Assembler is ContextAssembler: given a source path, produces an
// AssembledContext windowed to a token budget.
type Assembler struct {
	parser        *ast.Parser
	tokens        *llm.Tokenizer
	maxContextTok int
}

func NewAssembler(parser *ast.Parser, tokens *llm.Tokenizer, maxContextTokens int) *Assembler {
	if maxContextTokens <= 0 {
		maxContextTokens = 8000
	}
	return &Assembler{parser: parser, tokens: tokens, maxContextTok: maxContextTokens}
}

// Assemble implements spec.md §4.4's six steps: detect language, parse,
// discover related files, extract test conventions, window by priority,
// count tokens (truncating the last partial section at a line boundary).
func (a *Assembler) Assemble(ctx context.Context, sourcePath string) (*AssembledContext, error) {
	lang := ast.DetectLanguage(sourcePath)
	if lang == "" {
		return nil, &ErrUnsupportedLanguage{Path: sourcePath}
	}

	src, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("nit/context: read %s: %w", sourcePath, err)
	}

	parsed, err := a.parser.Parse(ctx, src, sourcePath)
	if err != nil {
		return nil, fmt.Errorf("nit/context: parse %s: %w", sourcePath, err)
	}
	defer parsed.Close()

	related := a.discoverRelatedFiles(sourcePath, parsed)
	pattern := a.extractTestPattern(related)

	signatures := renderSignatures(parsed)

	sections := []section{
		{name: "source", priority: 100, text: string(src)},
		{name: "signatures", priority: 80, text: signatures},
		{name: "related", priority: 60, text: renderRelated(related)},
		{name: "patterns", priority: 50, text: renderPattern(pattern)},
		{name: "imports", priority: 40, text: renderImports(parsed)},
	}
	sort.SliceStable(sections, func(i, j int) bool { return sections[i].priority > sections[j].priority })

	var b strings.Builder
	totalTokens := 0
	model := ""
	for _, s := range sections {
		if s.text == "" {
			continue
		}
		tok := a.tokens.Count(s.text, model)
		if totalTokens+tok <= a.maxContextTok {
			b.WriteString(s.text)
			b.WriteString("\n")
			totalTokens += tok
			continue
		}

		remaining := a.maxContextTok - totalTokens
		if remaining <= 0 {
			break
		}
		truncated := truncateToTokenBudget(s.text, remaining, a.tokens, model)
		if truncated != "" {
			b.WriteString(truncated)
			b.WriteString("\n")
			totalTokens += a.tokens.Count(truncated, model)
		}
		break
	}

	return &AssembledContext{
		SourcePath:  sourcePath,
		SourceCode:  string(src),
		Language:    lang,
		Functions:   functionSignatures(parsed),
		Related:     related,
		TestPattern: pattern,
		TotalTokens: totalTokens,
	}, nil
}

// truncateToTokenBudget keeps whole lines from text until the token
// budget would be exceeded, appending a truncation marker (spec.md
// §4.4 step 5: "truncated at line boundaries with a `# ... (truncated)`
// marker").
func truncateToTokenBudget(text string, budget int, tok *llm.Tokenizer, model string) string {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var kept strings.Builder
	used := 0
	for scanner.Scan() {
		line := scanner.Text()
		cost := tok.Count(line+"\n", model)
		if used+cost > budget {
			kept.WriteString("# ... (truncated)\n")
			break
		}
		kept.WriteString(line)
		kept.WriteString("\n")
		used += cost
	}
	return kept.String()
}

func renderSignatures(p *ast.ParseResult) string {
	var b strings.Builder
	for _, fn := range p.Functions {
		b.WriteString(fn.Signature)
		b.WriteString("\n")
	}
	return b.String()
}

func functionSignatures(p *ast.ParseResult) []string {
	out := make([]string, 0, len(p.Functions))
	for _, fn := range p.Functions {
		out = append(out, fn.Signature)
	}
	return out
}

func renderImports(p *ast.ParseResult) string {
	var b strings.Builder
	for _, imp := range p.Imports {
		b.WriteString(imp.Module)
		b.WriteString("\n")
	}
	return b.String()
}

func renderRelated(related []RelatedFile) string {
	var b strings.Builder
	for _, r := range related {
		fmt.Fprintf(&b, "# %s (%s)\n%s\n", r.Path, r.Reason, r.Content)
	}
	return b.String()
}

func renderPattern(p DetectedTestPattern) string {
	if p.SampleTest == "" {
		return ""
	}
	return fmt.Sprintf("# sample test (%s/%s style)\n%s\n", p.NamingStyle, p.AssertionStyle, p.SampleTest)
}

// discoverRelatedFiles finds sibling test files by language-specific
// naming convention and import targets resolved to project-local paths
// (spec.md §4.4 step 3; external packages are ignored).
func (a *Assembler) discoverRelatedFiles(sourcePath string, parsed *ast.ParseResult) []RelatedFile {
	var related []RelatedFile
	dir := filepath.Dir(sourcePath)

	for _, candidate := range siblingTestCandidates(sourcePath) {
		full := filepath.Join(dir, candidate)
		if content, err := os.ReadFile(full); err == nil {
			related = append(related, RelatedFile{Path: full, Content: string(content), Reason: "sibling_test"})
		}
	}

	for _, imp := range parsed.Imports {
		resolved := resolveLocalImport(dir, imp.Module)
		if resolved == "" {
			continue
		}
		if content, err := os.ReadFile(resolved); err == nil {
			related = append(related, RelatedFile{Path: resolved, Content: string(content), Reason: "import"})
		}
	}

	return related
}

// siblingTestCandidates returns language-conventional test file names
// next to sourcePath (e.g. foo.go -> foo_test.go, math.ts ->
// math.test.ts).
func siblingTestCandidates(sourcePath string) []string {
	base := filepath.Base(sourcePath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	switch ext {
	case ".go":
		return []string{stem + "_test.go"}
	case ".py":
		return []string{"test_" + stem + ".py", stem + "_test.py"}
	case ".ts", ".tsx":
		return []string{stem + ".test" + ext, stem + ".spec" + ext}
	case ".js", ".jsx":
		return []string{stem + ".test" + ext, stem + ".spec" + ext}
	case ".rs":
		return []string{stem + "_test.rs"}
	case ".java":
		return []string{stem + "Test.java"}
	default:
		return nil
	}
}

// resolveLocalImport maps an import module string to a project-local
// file path relative to dir, or "" if it looks like an external
// package (spec.md §4.4 step 3: "external packages are ignored").
func resolveLocalImport(dir, module string) string {
	if module == "" || !strings.HasPrefix(module, ".") {
		return ""
	}
	for _, ext := range []string{".go", ".py", ".ts", ".tsx", ".js", ".jsx"} {
		candidate := filepath.Join(dir, module+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// extractTestPattern scans found sibling test files for naming style,
// assertion style, and mocking idioms (spec.md §4.4 step 4). Heuristic,
// not a full parse: looks for conventional markers per language family.
func (a *Assembler) extractTestPattern(related []RelatedFile) DetectedTestPattern {
	var pattern DetectedTestPattern
	for _, r := range related {
		if r.Reason != "sibling_test" {
			continue
		}
		pattern.SampleTest = r.Content
		pattern.NamingStyle = inferNamingStyle(r.Content)
		pattern.AssertionStyle = inferAssertionStyle(r.Content)
		pattern.MockingPatterns = inferMockingPatterns(r.Content)
		break
	}
	return pattern
}

func inferNamingStyle(content string) string {
	switch {
	case strings.Contains(content, "func Test"):
		return "TestXxx"
	case strings.Contains(content, "def test_"):
		return "snake_case"
	case strings.Contains(content, "it("), strings.Contains(content, "test("):
		return "describe/it"
	default:
		return "unknown"
	}
}

func inferAssertionStyle(content string) string {
	switch {
	case strings.Contains(content, "assert.") || strings.Contains(content, "require."):
		return "testify"
	case strings.Contains(content, "expect("):
		return "expect"
	case strings.Contains(content, "assert "):
		return "plain_assert"
	default:
		return "unknown"
	}
}

func inferMockingPatterns(content string) []string {
	var out []string
	for needle, label := range map[string]string{
		"mock.":         "mock-library",
		"jest.fn(":      "jest-mock",
		"MonkeyPatch":   "monkeypatch",
		"unittest.mock": "unittest-mock",
		"gomock":        "gomock",
	} {
		if strings.Contains(content, needle) {
			out = append(out, label)
		}
	}
	sort.Strings(out)
	return out
}
