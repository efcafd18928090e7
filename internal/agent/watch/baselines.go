package watch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// BaselinesManager persists one DriftBaseline per test id under
// dir/<test_id>.json (spec.md's persisted-state layout:
// `.nit/drift-baselines/<test_id>.json`), each written with the same
// atomic temp-then-rename discipline internal/memory's Store uses for
// GlobalMemory — no checksum or version handling needed since each
// file is read and written only by this process.
type BaselinesManager struct {
	mu        sync.Mutex
	dir       string
	baselines map[string]DriftBaseline
}

// NewBaselinesManager loads every baseline file already present under
// dir, or starts empty if the directory doesn't exist yet.
func NewBaselinesManager(dir string) (*BaselinesManager, error) {
	m := &BaselinesManager{dir: dir, baselines: map[string]DriftBaseline{}}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("nit/watch: read %s: %w", dir, err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("nit/watch: read %s: %w", e.Name(), err)
		}
		var b DriftBaseline
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("nit/watch: parse %s: %w", e.Name(), err)
		}
		m.baselines[b.TestID] = b
	}
	return m, nil
}

// GetBaseline returns the stored baseline for id, if any.
func (m *BaselinesManager) GetBaseline(id string) (DriftBaseline, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.baselines[id]
	return b, ok
}

// SetBaseline stores output (and, for semantic tests, its embedding)
// as the canonical baseline for id and flushes it to its own file.
func (m *BaselinesManager) SetBaseline(id, output string, embedding []float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := DriftBaseline{
		TestID:    id,
		Output:    output,
		Embedding: embedding,
		UpdatedAt: time.Now(),
	}
	m.baselines[id] = b
	return m.flushLocked(b)
}

func (m *BaselinesManager) flushLocked(b DriftBaseline) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("nit/watch: marshal baseline %s: %w", b.TestID, err)
	}

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("nit/watch: mkdir %s: %w", m.dir, err)
	}

	tmp, err := os.CreateTemp(m.dir, ".drift-baseline-*.tmp")
	if err != nil {
		return fmt.Errorf("nit/watch: create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("nit/watch: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("nit/watch: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("nit/watch: close temp file: %w", err)
	}

	target := filepath.Join(m.dir, b.TestID+".json")
	if err := os.Rename(tmpPath, target); err != nil {
		return fmt.Errorf("nit/watch: rename: %w", err)
	}
	committed = true
	return nil
}
