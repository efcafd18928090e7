package detect

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nit-test/nit/internal/config"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestFrameworkDetectorDetectsVitestFromConfigAndDependency(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "vitest.config.ts", "export default {}")
	writeFile(t, dir, "package.json", `{"devDependencies":{"vitest":"^1.0.0"}}`)
	writeFile(t, dir, "src/math.test.ts", "import { test } from 'vitest'")

	d := NewFrameworkDetector(config.DefaultDetectionConfig())
	profile := d.Detect(context.Background(), dir)

	var vitest *DetectedFramework
	for i := range profile.Frameworks {
		if profile.Frameworks[i].Name == "vitest" {
			vitest = &profile.Frameworks[i]
		}
	}
	require.NotNil(t, vitest)
	assert.Greater(t, vitest.Confidence, 0.5)
	assert.LessOrEqual(t, vitest.Confidence, 1.0)
}

func TestFrameworkDetectorResolvesJestVsVitestConflict(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "vitest.config.ts", "export default {}")
	writeFile(t, dir, "jest.config.js", "module.exports = {}")
	writeFile(t, dir, "package.json", `{"devDependencies":{"vitest":"^1.0.0","jest":"^29.0.0"}}`)

	d := NewFrameworkDetector(config.DefaultDetectionConfig())
	profile := d.Detect(context.Background(), dir)

	var unitTestJS []DetectedFramework
	for _, df := range profile.Frameworks {
		if df.Language == "javascript" && df.Category == CategoryUnitTest {
			unitTestJS = append(unitTestJS, df)
		}
	}
	assert.Len(t, unitTestJS, 1, "only the highest-confidence framework should survive per (language, category)")
}

func TestFrameworkDetectorFiltersBelowMinConfidence(t *testing.T) {
	dir := t.TempDir()
	// Only a single weak FilePattern match for mocha, well under MinConfidence.
	writeFile(t, dir, "test/spec.js", "describe('x', () => {})")

	cfg := config.DefaultDetectionConfig()
	cfg.MinConfidence = 0.9
	d := NewFrameworkDetector(cfg)
	profile := d.Detect(context.Background(), dir)

	for _, df := range profile.Frameworks {
		assert.GreaterOrEqual(t, df.Confidence, 0.9)
	}
}

func TestNeedsLLMFallbackReturnsBorderlineDetectionsOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "go.mod", "module example.com/x\n")
	writeFile(t, dir, "main_test.go", `package main

import "testing"

func TestX(t *testing.T) {}
`)

	d := NewFrameworkDetector(config.DefaultDetectionConfig())
	profile := d.Detect(context.Background(), dir)
	fallback := d.NeedsLLMFallback(profile)
	for _, df := range fallback {
		assert.Less(t, df.Confidence, config.DefaultDetectionConfig().LLMFallbackThreshold)
	}
}
