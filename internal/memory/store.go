package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Store is GlobalMemory: a project-local JSON file loaded once per run and
// flushed on every update, owned exclusively by the Orchestrator's
// RunContext (spec.md §4.12, §9). Writes are atomic: serialize to a temp
// file in the same directory, fsync, then rename over the target — the
// same pattern services/trace/dag/checkpoint.go uses for DAG checkpoints,
// adapted here for a small always-whole-file-rewritten document instead
// of a versioned/checksummed execution checkpoint (GlobalMemory has no
// need for checksum verification or version-mismatch detection: it's
// read and written only by this process, never resumed cross-version).
type Store struct {
	mu   sync.Mutex
	path string
	doc  document
}

// Open loads path if it exists, or starts from an empty document if it
// doesn't — GlobalMemory has no bootstrap-default-file behavior the way
// config does; an absent file just means a fresh project.
func Open(path string) (*Store, error) {
	s := &Store{path: path, doc: newDocument()}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("nit/memory: read %s: %w", path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("nit/memory: parse %s: %w", path, err)
	}
	if doc.KnownPatterns == nil {
		doc.KnownPatterns = []KnownPattern{}
	}
	if doc.FailedPatterns == nil {
		doc.FailedPatterns = []FailedPattern{}
	}
	s.doc = doc
	return s, nil
}

// SetConventions replaces the stored conventions and flushes.
func (s *Store) SetConventions(c Conventions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Conventions = c
	return s.flushLocked()
}

// AddKnownPattern appends a successful pattern and flushes. The set grows
// monotonically — nothing in nit ever removes a known pattern.
func (s *Store) AddKnownPattern(p KnownPattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.KnownPatterns = append(s.doc.KnownPatterns, p)
	return s.flushLocked()
}

// AddFailedPattern appends a failed pattern with its reason and flushes.
func (s *Store) AddFailedPattern(p FailedPattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.FailedPatterns = append(s.doc.FailedPatterns, p)
	return s.flushLocked()
}

// UpdateStats increments rolling counters and flushes.
func (s *Store) UpdateStats(successful bool, testsGenerated int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Stats.TotalGenerated += testsGenerated
	if successful {
		s.doc.Stats.Successful++
	} else {
		s.doc.Stats.Failed++
	}
	s.doc.Stats.LastUpdated = time.Now()
	return s.flushLocked()
}

// GetKnownPatterns returns patterns for which filter returns true, or all
// of them if filter is nil.
func (s *Store) GetKnownPatterns(filter func(KnownPattern) bool) []KnownPattern {
	s.mu.Lock()
	defer s.mu.Unlock()
	if filter == nil {
		out := make([]KnownPattern, len(s.doc.KnownPatterns))
		copy(out, s.doc.KnownPatterns)
		return out
	}
	var out []KnownPattern
	for _, p := range s.doc.KnownPatterns {
		if filter(p) {
			out = append(out, p)
		}
	}
	return out
}

// GetFailedPatterns returns patterns for which filter returns true, or all
// of them if filter is nil.
func (s *Store) GetFailedPatterns(filter func(FailedPattern) bool) []FailedPattern {
	s.mu.Lock()
	defer s.mu.Unlock()
	if filter == nil {
		out := make([]FailedPattern, len(s.doc.FailedPatterns))
		copy(out, s.doc.FailedPatterns)
		return out
	}
	var out []FailedPattern
	for _, p := range s.doc.FailedPatterns {
		if filter(p) {
			out = append(out, p)
		}
	}
	return out
}

// Conventions returns a copy of the currently stored conventions.
func (s *Store) Conventions() Conventions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Conventions
}

// Stats returns a copy of the currently stored rolling statistics.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Stats
}

// flushLocked writes s.doc to s.path atomically: temp file in the same
// directory, fsync, then rename. Caller must hold s.mu — this is the one
// lock spec.md §5 permits to be held across a suspension point (the
// write+rename sequence itself), never across a network or subprocess call.
func (s *Store) flushLocked() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("nit/memory: marshal: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("nit/memory: mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".memory-*.tmp")
	if err != nil {
		return fmt.Errorf("nit/memory: create temp file: %w", err)
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
		return fmt.Errorf("nit/memory: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("nit/memory: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("nit/memory: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("nit/memory: rename: %w", err)
	}

	committed = true
	return nil
}
