// Package detect implements nit's Detectors: StackDetector,
// FrameworkDetector, DependencyDetector, InfraDetector, and
// LLMUsageDetector (spec.md §4.6).
package detect

import (
	"path/filepath"
	"regexp"
)

// Category groups detected frameworks by what they test.
type Category string

const (
	CategoryUnitTest Category = "unit_test"
	CategoryE2ETest  Category = "e2e_test"
)

// Signal is one piece of detection evidence a FrameworkRule checks for.
// Weight lies in (0, 1] and is the contribution a single matching
// signal makes toward a rule's confidence (spec.md §4.3).
type Signal interface {
	Weight() float64
	Match(pf *projectFiles) bool
}

// ConfigFile matches if any file under the project root matches glob.
type ConfigFile struct {
	Glob string
}

func (s ConfigFile) Weight() float64 { return 0.5 }
func (s ConfigFile) Match(pf *projectFiles) bool {
	return pf.hasFileGlob(s.Glob)
}

// Dependency matches if name appears in a Node/Python/etc. manifest's
// dependency list. DevOnly limits the match to dev-dependency fields
// when the manifest distinguishes them (package.json).
type Dependency struct {
	Name    string
	DevOnly bool
}

func (s Dependency) Weight() float64 { return 0.45 }
func (s Dependency) Match(pf *projectFiles) bool {
	return pf.hasDependency(s.Name)
}

// ImportPattern matches if re is found in the content of any scanned
// source file.
type ImportPattern struct {
	Pattern string
	re      *regexp.Regexp
}

func (s *ImportPattern) compiled() *regexp.Regexp {
	if s.re == nil {
		s.re = regexp.MustCompile(s.Pattern)
	}
	return s.re
}

func (s *ImportPattern) Weight() float64 { return 0.3 }
func (s *ImportPattern) Match(pf *projectFiles) bool {
	return pf.grepSourceFiles(s.compiled())
}

// FilePattern matches if any file under the root matches glob (e.g. a
// test-file naming convention, as opposed to ConfigFile's tool config).
type FilePattern struct {
	Glob string
}

func (s FilePattern) Weight() float64 { return 0.2 }
func (s FilePattern) Match(pf *projectFiles) bool {
	return pf.hasFileGlob(s.Glob)
}

// CMakePattern matches if re is found inside CMakeLists.txt.
type CMakePattern struct {
	Pattern string
	re      *regexp.Regexp
}

func (s *CMakePattern) compiled() *regexp.Regexp {
	if s.re == nil {
		s.re = regexp.MustCompile(s.Pattern)
	}
	return s.re
}

func (s *CMakePattern) Weight() float64 { return 0.4 }
func (s *CMakePattern) Match(pf *projectFiles) bool {
	return pf.grepCMake(s.compiled())
}

// PackageJsonField matches if package.json has a dot-path field whose
// value contains substr.
type PackageJsonField struct {
	DotPath string
	Substr  string
}

func (s PackageJsonField) Weight() float64 { return 0.3 }
func (s PackageJsonField) Match(pf *projectFiles) bool {
	return pf.packageJSONFieldContains(s.DotPath, s.Substr)
}

// FrameworkRule is one framework's declarative detection recipe.
type FrameworkRule struct {
	Name     string
	Language string
	Category Category
	Signals  []Signal
}

// DetectedFramework is one rule's scored result.
type DetectedFramework struct {
	Name       string
	Language   string
	Category   Category
	Confidence float64
	MatchedAny bool
}

// FrameworkProfile is the full output of framework detection for a
// project.
type FrameworkProfile struct {
	Root       string
	Frameworks []DetectedFramework
}

func extOf(path string) string { return filepath.Ext(path) }
