package detect

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// projectFiles is a small, memoized view over a project root used by
// Signal.Match implementations — it avoids re-walking or re-reading the
// same manifests once per signal.
type projectFiles struct {
	root string

	walked      bool
	files       []string
	pkgJSON     map[string]any
	pkgJSONRead bool
	manifests   map[string]string // relPath -> content, lazily read
}

var skipDirs = map[string]bool{
	"node_modules": true, ".git": true, "vendor": true, "dist": true,
	"build": true, "target": true, ".venv": true, "venv": true,
	"__pycache__": true, ".nit": true,
}

func newProjectFiles(root string) *projectFiles {
	return &projectFiles{root: root, manifests: map[string]string{}}
}

func (pf *projectFiles) walk() []string {
	if pf.walked {
		return pf.files
	}
	pf.walked = true
	filepath.Walk(pf.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if skipDirs[info.Name()] && path != pf.root {
				return filepath.SkipDir
			}
			return nil
		}
		pf.files = append(pf.files, path)
		return nil
	})
	return pf.files
}

func (pf *projectFiles) hasFileGlob(glob string) bool {
	matches, err := filepath.Glob(filepath.Join(pf.root, glob))
	if err == nil && len(matches) > 0 {
		return true
	}
	// also support recursive-ish globs like "**/*.spec.ts" via manual walk
	if strings.Contains(glob, "**") {
		suffix := strings.TrimPrefix(glob, "**/")
		for _, f := range pf.walk() {
			if ok, _ := filepath.Match(suffix, filepath.Base(f)); ok {
				return true
			}
		}
	}
	return false
}

func (pf *projectFiles) readPackageJSON() (map[string]any, bool) {
	if pf.pkgJSONRead {
		return pf.pkgJSON, pf.pkgJSON != nil
	}
	pf.pkgJSONRead = true
	data, err := os.ReadFile(filepath.Join(pf.root, "package.json"))
	if err != nil {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, false
	}
	pf.pkgJSON = m
	return m, true
}

// hasDependency looks for name across package.json dependencies and
// devDependencies, plus Python requirement files and go.mod/Cargo.toml
// require/dependencies blocks — the common manifest shapes across the
// language families the built-in rules cover.
func (pf *projectFiles) hasDependency(name string) bool {
	if pj, ok := pf.readPackageJSON(); ok {
		for _, field := range []string{"dependencies", "devDependencies"} {
			if deps, ok := pj[field].(map[string]any); ok {
				if _, ok := deps[name]; ok {
					return true
				}
			}
		}
	}
	for _, manifest := range []string{"requirements.txt", "requirements-dev.txt", "pyproject.toml", "Cargo.toml", "go.mod"} {
		content := pf.readManifest(manifest)
		if content != "" && strings.Contains(content, name) {
			return true
		}
	}
	return false
}

func (pf *projectFiles) readManifest(relPath string) string {
	if v, ok := pf.manifests[relPath]; ok {
		return v
	}
	data, err := os.ReadFile(filepath.Join(pf.root, relPath))
	if err != nil {
		pf.manifests[relPath] = ""
		return ""
	}
	pf.manifests[relPath] = string(data)
	return pf.manifests[relPath]
}

func (pf *projectFiles) packageJSONFieldContains(dotPath, substr string) bool {
	pj, ok := pf.readPackageJSON()
	if !ok {
		return false
	}
	var cur any = pj
	for _, part := range strings.Split(dotPath, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return false
		}
		cur, ok = m[part]
		if !ok {
			return false
		}
	}
	s, ok := cur.(string)
	if ok {
		return strings.Contains(s, substr)
	}
	// object field (e.g. scripts.test) — check all string values
	if m, ok := cur.(map[string]any); ok {
		for _, v := range m {
			if s, ok := v.(string); ok && strings.Contains(s, substr) {
				return true
			}
		}
	}
	return false
}

// sourceExtensions bounds grepSourceFiles/grepCMake to text source files,
// skipping binaries and huge trees.
var sourceExtensions = map[string]bool{
	".go": true, ".py": true, ".ts": true, ".tsx": true, ".js": true, ".jsx": true,
	".rs": true, ".java": true, ".kt": true, ".cpp": true, ".cc": true, ".c": true, ".h": true, ".hpp": true,
}

func (pf *projectFiles) grepSourceFiles(re *regexp.Regexp) bool {
	for _, f := range pf.walk() {
		if !sourceExtensions[extOf(f)] {
			continue
		}
		data, err := os.ReadFile(f)
		if err != nil {
			continue
		}
		if re.Match(data) {
			return true
		}
	}
	return false
}

func (pf *projectFiles) grepCMake(re *regexp.Regexp) bool {
	content := pf.readManifest("CMakeLists.txt")
	return content != "" && re.MatchString(content)
}
