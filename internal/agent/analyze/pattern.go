package analyze

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/nit-test/nit/internal/ast"
	"github.com/nit-test/nit/internal/memory"
)

// testFilePatterns are glob suffixes rglob'd per language, ported from
// pattern.py's _TEST_FILE_PATTERNS.
var testFilePatterns = map[string][]string{
	"python":     {"test_*.py", "*_test.py"},
	"javascript": {"*.test.js", "*.spec.js"},
	"typescript": {"*.test.ts", "*.spec.ts", "*.test.tsx", "*.spec.tsx"},
	"tsx":        {"*.test.tsx", "*.spec.tsx"},
	"java":       {"*Test.java", "*Tests.java"},
	"go":         {"*_test.go"},
	"c":          {"*_test.c", "test_*.c"},
	"cpp":        {"*_test.cpp", "test_*.cpp", "*_test.cc", "test_*.cc"},
}

var namingPatterns = map[string]*regexp.Regexp{
	"function": regexp.MustCompile(`(?m)^\s*(?:async\s+)?(?:def|function)\s+test_\w+`),
	"class":    regexp.MustCompile(`(?mi)^\s*class\s+Test\w+|^\s*class\s+\w+Test`),
	"describe": regexp.MustCompile(`(?m)\bdescribe\s*\(`),
}

var assertionPatterns = map[string]*regexp.Regexp{
	"assert": regexp.MustCompile(`(?m)\bassert\s+`),
	"expect": regexp.MustCompile(`(?m)\bexpect\s*\(`),
	"should": regexp.MustCompile(`(?m)\.should\b`),
}

var mockingPatterns = map[string]*regexp.Regexp{
	"pytest.fixture": regexp.MustCompile(`(?m)@pytest\.fixture\b`),
	"unittest.mock":  regexp.MustCompile(`(?m)\bunittest\.mock\b|\bfrom unittest import mock\b`),
	"mock.patch":     regexp.MustCompile(`(?m)@mock\.patch\b|@patch\b`),
	"vi.mock":        regexp.MustCompile(`(?m)\bvi\.mock\s*\(`),
	"jest.mock":      regexp.MustCompile(`(?m)\bjest\.mock\s*\(`),
	"vitest.mock":    regexp.MustCompile(`(?m)\bvitest\.mock\s*\(`),
}

var importPatterns = map[string]*regexp.Regexp{
	"python":     regexp.MustCompile(`(?m)^(?:from\s+[\w.]+\s+import\s+[\w,\s*()]+|import\s+[\w.,\s]+)`),
	"javascript": regexp.MustCompile(`(?m)^import\s+(?:[\w{},\s*]+\s+from\s+)?['"][\w./@-]+['"]`),
	"typescript": regexp.MustCompile(`(?m)^import\s+(?:[\w{},\s*]+\s+from\s+)?['"][\w./@-]+['"]`),
}

// ConventionProfile is the aggregated result of scanning a project's
// existing test files for naming/assertion/mocking/import conventions,
// ported from pattern.py's ConventionProfile dataclass.
type ConventionProfile struct {
	Language        string
	NamingStyle     string
	NamingCounts    map[string]int
	AssertionStyle  string
	AssertionCounts map[string]int
	MockingPatterns []string
	MockingCounts   map[string]int
	CommonImports   []string
	SampleTests     []string
	FilesAnalyzed   int
}

type patternStats struct {
	naming     map[string]int
	assertion  map[string]int
	mocking    map[string]int
	imports    map[string]int
	sampleTest []string
}

func newPatternStats() *patternStats {
	return &patternStats{
		naming:    map[string]int{},
		assertion: map[string]int{},
		mocking:   map[string]int{},
		imports:   map[string]int{},
	}
}

// PatternAnalyzer scans a project's existing test files to extract test
// conventions and seed them into GlobalMemory, grounded on
// original_source/.../analyzers/pattern.py. Unlike most of this
// package's analyzers it is a direct filesystem/regex tool with no LLM
// or coverage-report dependency, matching the original's pure-regex
// implementation.
type PatternAnalyzer struct {
	MaxFiles   int
	SampleSize int
}

func NewPatternAnalyzer() *PatternAnalyzer {
	return &PatternAnalyzer{MaxFiles: 50, SampleSize: 3}
}

// Analyze walks root for test files (optionally restricted to language),
// extracts conventions, and returns the aggregated profile. It does not
// touch memory — callers that want the task-1.15.4 "seed memory on first
// run" behavior call SeedMemory explicitly with the result.
func (a *PatternAnalyzer) Analyze(ctx context.Context, root, language string) (ConventionProfile, error) {
	maxFiles := a.MaxFiles
	if maxFiles <= 0 {
		maxFiles = 50
	}
	sampleSize := a.SampleSize
	if sampleSize <= 0 {
		sampleSize = 3
	}

	files, err := findTestFiles(root, language, maxFiles)
	if err != nil {
		return ConventionProfile{}, err
	}
	if len(files) == 0 {
		lang := language
		if lang == "" {
			lang = "unknown"
		}
		return ConventionProfile{Language: lang}, nil
	}

	stats := newPatternStats()
	for _, f := range files {
		select {
		case <-ctx.Done():
			return ConventionProfile{}, ctx.Err()
		default:
		}
		analyzeTestFile(f, stats, sampleSize)
	}

	lang := language
	if lang == "" {
		lang = ast.DetectLanguage(files[0])
	}
	if lang == "" {
		lang = "unknown"
	}

	return buildConventionProfile(lang, stats, len(files)), nil
}

func findTestFiles(root, language string, maxFiles int) ([]string, error) {
	var patterns []string
	if pats, ok := testFilePatterns[language]; ok {
		patterns = pats
	} else {
		seen := map[string]bool{}
		for _, lang := range sortedLanguageKeys() {
			for _, p := range testFilePatterns[lang] {
				if !seen[p] {
					seen[p] = true
					patterns = append(patterns, p)
				}
			}
		}
	}

	var matches []string
	seen := map[string]bool{}
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if skipDirs[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		base := filepath.Base(path)
		for _, pat := range patterns {
			if ok, _ := filepath.Match(pat, base); ok && !seen[path] {
				seen[path] = true
				matches = append(matches, path)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	if len(matches) > maxFiles {
		matches = matches[:maxFiles]
	}
	return matches, nil
}

func sortedLanguageKeys() []string {
	keys := make([]string, 0, len(testFilePatterns))
	for k := range testFilePatterns {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func analyzeTestFile(path string, stats *patternStats, sampleSize int) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	content := string(data)

	for style, re := range namingPatterns {
		if n := len(re.FindAllString(content, -1)); n > 0 {
			stats.naming[style] += n
		}
	}
	for style, re := range assertionPatterns {
		if n := len(re.FindAllString(content, -1)); n > 0 {
			stats.assertion[style] += n
		}
	}
	for name, re := range mockingPatterns {
		if re.MatchString(content) {
			stats.mocking[name]++
		}
	}

	lang := ast.DetectLanguage(path)
	if re, ok := importPatterns[lang]; ok {
		for _, imp := range re.FindAllString(content, -1) {
			stats.imports[strings.TrimSpace(imp)]++
		}
	}

	if len(stats.sampleTest) < sampleSize && lang != "" {
		if sample := extractSampleTest(content, lang); sample != "" {
			stats.sampleTest = append(stats.sampleTest, sample)
		}
	}
}

var (
	pySampleTestRe = regexp.MustCompile(`(?m)(def test_\w+\([^)]*\):(?:\n(?:    |\t).+)+)`)
	jsSampleTestRe = regexp.MustCompile(`(?s)((?:test|it)\s*\(['"][\w\s]+['"]\s*,\s*(?:async\s+)?\([^)]*\)\s*=>\s*\{[^}]+\})`)
)

// extractSampleTest pulls one representative test body via a regex
// fallback — the original also tries tree-sitter first, but nit's own
// CodeAnalyzer/parser already covers structural extraction elsewhere, so
// this mirrors only the original's regex fallback path, which is what
// actually runs for most real test files.
func extractSampleTest(content, language string) string {
	switch language {
	case "python":
		if m := pySampleTestRe.FindString(content); m != "" {
			return m
		}
	case "javascript", "typescript", "tsx":
		if m := jsSampleTestRe.FindString(content); m != "" {
			if len(m) > 200 {
				return m[:200]
			}
			return m
		}
	}
	return ""
}

func buildConventionProfile(language string, stats *patternStats, filesAnalyzed int) ConventionProfile {
	return ConventionProfile{
		Language:        language,
		NamingStyle:     mostCommon(stats.naming),
		NamingCounts:    stats.naming,
		AssertionStyle:  mostCommon(stats.assertion),
		AssertionCounts: stats.assertion,
		MockingPatterns: sortedKeys(stats.mocking),
		MockingCounts:   stats.mocking,
		CommonImports:   topN(stats.imports, 10),
		SampleTests:     stats.sampleTest,
		FilesAnalyzed:   filesAnalyzed,
	}
}

func mostCommon(counts map[string]int) string {
	best, bestCount := "unknown", 0
	for _, k := range sortedKeys(counts) {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func topN(counts map[string]int, n int) []string {
	keys := sortedKeys(counts)
	sort.SliceStable(keys, func(i, j int) bool {
		return counts[keys[i]] > counts[keys[j]]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// SeedMemory stores the profile into GlobalMemory as conventions and
// known_patterns entries, implementing the original's _seed_memory (task
// 1.15.4: populate memory from existing tests on first run). A failure
// here is logged by the caller, never fatal to the analysis itself.
func (a *PatternAnalyzer) SeedMemory(store *memory.Store, profile ConventionProfile) error {
	extra := map[string]string{
		"common_imports": strings.Join(profile.CommonImports, "\n"),
	}
	if len(profile.SampleTests) > 0 {
		extra["sample_test"] = profile.SampleTests[0]
	}
	if err := store.SetConventions(memory.Conventions{
		Language:        profile.Language,
		NamingStyle:     profile.NamingStyle,
		AssertionStyle:  profile.AssertionStyle,
		MockingPatterns: profile.MockingPatterns,
		Extra:           extra,
	}); err != nil {
		return err
	}

	for _, style := range sortedKeys(profile.NamingCounts) {
		if profile.NamingCounts[style] <= 0 {
			continue
		}
		if err := store.AddKnownPattern(memory.KnownPattern{
			Pattern: "naming_style:" + style,
			Context: map[string]string{"count": strconv.Itoa(profile.NamingCounts[style]), "language": profile.Language},
		}); err != nil {
			return err
		}
	}
	for _, style := range sortedKeys(profile.AssertionCounts) {
		if profile.AssertionCounts[style] <= 0 {
			continue
		}
		if err := store.AddKnownPattern(memory.KnownPattern{
			Pattern: "assertion_style:" + style,
			Context: map[string]string{"count": strconv.Itoa(profile.AssertionCounts[style]), "language": profile.Language},
		}); err != nil {
			return err
		}
	}
	for _, pat := range sortedKeys(profile.MockingCounts) {
		if profile.MockingCounts[pat] <= 0 {
			continue
		}
		if err := store.AddKnownPattern(memory.KnownPattern{
			Pattern: "mocking_pattern:" + pat,
			Context: map[string]string{"count": strconv.Itoa(profile.MockingCounts[pat]), "language": profile.Language},
		}); err != nil {
			return err
		}
	}
	return nil
}
