package report

import (
	"os"
	"path/filepath"
)

func writeFile(dir, relPath string, contents []byte) error {
	full := filepath.Join(dir, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, contents, 0o644)
}
