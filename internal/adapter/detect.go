package adapter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
)

// fileExistsGlob reports whether any file under root matches pattern
// (a glob relative to root, e.g. "vitest.config.*").
func fileExistsGlob(root, pattern string) bool {
	matches, err := filepath.Glob(filepath.Join(root, pattern))
	return err == nil && len(matches) > 0
}

// packageJSON is the minimal shape adapters need from a Node project's
// manifest to detect dev/runtime dependencies.
type packageJSON struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

func readPackageJSON(root string) (*packageJSON, bool) {
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return nil, false
	}
	var pj packageJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return nil, false
	}
	return &pj, true
}

// hasNodeDependency reports whether name appears in dependencies or
// devDependencies of root's package.json.
func hasNodeDependency(root, name string) bool {
	pj, ok := readPackageJSON(root)
	if !ok {
		return false
	}
	if _, ok := pj.Dependencies[name]; ok {
		return true
	}
	_, ok = pj.DevDependencies[name]
	return ok
}

func hasFile(root, relPath string) bool {
	_, err := os.Stat(filepath.Join(root, relPath))
	return err == nil
}

// grepGlob reports whether any file matching pattern under root contains
// a match for re — used for ImportPattern signals (spec.md §4.3).
func grepGlob(root, pattern string, re *regexp.Regexp) bool {
	matches, err := filepath.Glob(filepath.Join(root, pattern))
	if err != nil {
		return false
	}
	for _, m := range matches {
		data, err := os.ReadFile(m)
		if err != nil {
			continue
		}
		if re.Match(data) {
			return true
		}
	}
	return false
}
