package orchestrator

import (
	"os"
	"path/filepath"
)

// skipDirs mirrors internal/agent/detect's walk exclusions — vendored
// and build-output trees are never a source of generation targets.
var skipDirs = map[string]bool{
	"node_modules": true, ".git": true, "vendor": true, "dist": true,
	"build": true, "target": true, ".venv": true, "venv": true,
	"__pycache__": true, ".nit": true,
}

var extByLanguage = map[string][]string{
	"go":         {".go"},
	"python":     {".py"},
	"typescript": {".ts", ".tsx"},
	"javascript": {".js", ".jsx"},
	"rust":       {".rs"},
	"java":       {".java"},
	"kotlin":     {".kt"},
}

// sourceFilesForLanguage lists every non-test source file under root
// whose extension matches language, skipping the same directories the
// detectors skip.
func sourceFilesForLanguage(root, language string) []string {
	exts := extByLanguage[language]
	if len(exts) == 0 {
		return nil
	}
	extSet := map[string]bool{}
	for _, e := range exts {
		extSet[e] = true
	}

	var out []string
	filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if skipDirs[info.Name()] && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !extSet[filepath.Ext(path)] {
			return nil
		}
		if isTestFile(path) {
			return nil
		}
		out = append(out, path)
		return nil
	})
	return out
}

func isTestFile(path string) bool {
	base := filepath.Base(path)
	for _, marker := range []string{"_test.go", ".test.ts", ".test.tsx", ".test.js", ".spec.ts", ".spec.js"} {
		if len(base) >= len(marker) && base[len(base)-len(marker):] == marker {
			return true
		}
	}
	if filepath.Ext(filepath.Dir(path)) == "" {
		dir := filepath.Base(filepath.Dir(path))
		if dir == "test" || dir == "tests" || dir == "__tests__" {
			return true
		}
	}
	return len(base) >= 10 && base[:5] == "test_"
}
