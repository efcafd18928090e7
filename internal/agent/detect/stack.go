package detect

import (
	"sort"
)

// languageByExt maps a source extension to the language name used
// throughout nit (ast.DetectLanguage uses the same vocabulary).
var languageByExt = map[string]string{
	".go": "go", ".py": "python", ".ts": "typescript", ".tsx": "typescript",
	".js": "javascript", ".jsx": "javascript", ".rs": "rust", ".java": "java",
	".kt": "kotlin", ".cs": "csharp", ".cpp": "cpp", ".cc": "cpp", ".c": "c", ".h": "c", ".hpp": "cpp",
}

// StackProfile is StackDetector's output: the languages present in a
// project root, ranked by file count.
type StackProfile struct {
	Root            string
	LanguageCounts  map[string]int
	PrimaryLanguage string
}

// StackDetector walks a project root and tallies source files per
// language — the coarse signal FrameworkDetector's per-language rule
// filtering and the orchestrator's builder fan-out key off of.
type StackDetector struct{}

func NewStackDetector() *StackDetector { return &StackDetector{} }

func (d *StackDetector) Detect(root string) StackProfile {
	pf := newProjectFiles(root)
	counts := map[string]int{}
	for _, f := range pf.walk() {
		lang, ok := languageByExt[extOf(f)]
		if !ok {
			continue
		}
		counts[lang]++
	}

	primary := ""
	best := -1
	// deterministic iteration: sort language names before comparing counts
	names := make([]string, 0, len(counts))
	for lang := range counts {
		names = append(names, lang)
	}
	sort.Strings(names)
	for _, lang := range names {
		if counts[lang] > best {
			best = counts[lang]
			primary = lang
		}
	}

	return StackProfile{Root: root, LanguageCounts: counts, PrimaryLanguage: primary}
}
