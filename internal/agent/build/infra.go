package build

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BootstrapTask asks InfraBuilder to set up test infrastructure for one
// framework in one project (spec.md §4.8: "InfraBuilder: bootstraps test
// infrastructure ... when none exists for the target framework").
type BootstrapTask struct {
	Framework   string
	Language    string
	ProjectPath string
	UseDocker   bool
}

// BootstrapResult reports what InfraBuilder did.
type BootstrapResult struct {
	Message string
	Actions []string
}

const defaultInfraTimeout = 120 * time.Second

// InfraBuilder creates the config files, directories, package-manifest
// scripts, and dependency installs a framework needs to run at all, when
// a project has none of that infrastructure yet.
type InfraBuilder struct {
	ProjectRoot  string
	EnableDocker bool
	DockerImage  string

	runCommand func(ctx context.Context, dir string, args []string) (string, error)
	runDocker  func(ctx context.Context, image, dir string, args []string) (string, error)
}

func NewInfraBuilder(projectRoot string, enableDocker bool, dockerImage string) *InfraBuilder {
	if dockerImage == "" {
		dockerImage = "node:20"
	}
	b := &InfraBuilder{ProjectRoot: projectRoot, EnableDocker: enableDocker, DockerImage: dockerImage}
	b.runCommand = b.execCommand
	b.runDocker = b.execInDocker
	return b
}

func (b *InfraBuilder) Name() string { return "infra_builder" }

func (b *InfraBuilder) Description() string {
	return "Bootstraps test infrastructure (config, scripts, dependencies) for a framework with none installed"
}

// Bootstrap implements the framework-specific setup, idempotently
// skipping projects that already have the framework's infrastructure.
func (b *InfraBuilder) Bootstrap(ctx context.Context, task BootstrapTask) (BootstrapResult, error) {
	switch task.Framework {
	case "vitest":
		if b.hasVitestInfrastructure(task.ProjectPath) {
			return BootstrapResult{Message: "vitest infrastructure already exists"}, nil
		}
		return b.bootstrapVitest(ctx, task)
	case "pytest":
		if b.hasPytestInfrastructure(task.ProjectPath) {
			return BootstrapResult{Message: "pytest infrastructure already exists"}, nil
		}
		return b.bootstrapPytest(ctx, task)
	case "playwright":
		if b.hasPlaywrightInfrastructure(task.ProjectPath) {
			return BootstrapResult{Message: "playwright infrastructure already exists"}, nil
		}
		return b.bootstrapPlaywright(ctx, task)
	default:
		return BootstrapResult{}, fmt.Errorf("nit/build: unknown framework %q", task.Framework)
	}
}

func (b *InfraBuilder) hasVitestInfrastructure(root string) bool {
	if fileExists(filepath.Join(root, "vitest.config.ts")) || fileExists(filepath.Join(root, "vitest.config.js")) {
		return true
	}
	return nodeDependencyPresent(root, "vitest")
}

func (b *InfraBuilder) hasPytestInfrastructure(root string) bool {
	if fileExists(filepath.Join(root, "conftest.py")) {
		return true
	}
	if data, err := os.ReadFile(filepath.Join(root, "pyproject.toml")); err == nil {
		return strings.Contains(string(data), "[tool.pytest.ini_options]")
	}
	return false
}

func (b *InfraBuilder) hasPlaywrightInfrastructure(root string) bool {
	if fileExists(filepath.Join(root, "playwright.config.ts")) || fileExists(filepath.Join(root, "playwright.config.js")) {
		return true
	}
	return nodeDependencyPresent(root, "@playwright/test")
}

func (b *InfraBuilder) bootstrapVitest(ctx context.Context, task BootstrapTask) (BootstrapResult, error) {
	var actions []string
	root := task.ProjectPath

	configPath := filepath.Join(root, "vitest.config.ts")
	configContent := "import { defineConfig } from 'vitest/config';\n\n" +
		"export default defineConfig({\n  test: {\n    environment: 'jsdom',\n    globals: true,\n  },\n});\n"
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		return BootstrapResult{}, err
	}
	actions = append(actions, "created vitest.config.ts")

	setupDir := filepath.Join(root, "src", "test")
	if err := os.MkdirAll(setupDir, 0o755); err != nil {
		return BootstrapResult{}, err
	}
	if err := os.WriteFile(filepath.Join(setupDir, "setup.ts"), []byte("import '@testing-library/jest-dom';\n"), 0o644); err != nil {
		return BootstrapResult{}, err
	}
	actions = append(actions, "created src/test/setup.ts")

	if err := addPackageJSONScripts(root, map[string]string{
		"test":          "vitest",
		"test:coverage": "vitest run --coverage",
	}); err != nil {
		return BootstrapResult{}, err
	}
	actions = append(actions, "updated package.json scripts")

	_, runErr := b.runOrDocker(ctx, root, task.UseDocker, []string{
		"npm", "install", "--save-dev", "vitest", "@testing-library/react", "@testing-library/jest-dom", "jsdom",
	})
	if runErr != nil {
		actions = append(actions, "dependency install failed: "+runErr.Error())
	} else {
		actions = append(actions, "installed vitest dependencies")
	}

	return BootstrapResult{Message: "bootstrapped vitest", Actions: actions}, nil
}

func (b *InfraBuilder) bootstrapPytest(ctx context.Context, task BootstrapTask) (BootstrapResult, error) {
	var actions []string
	root := task.ProjectPath

	testsDir := filepath.Join(root, "tests")
	if err := os.MkdirAll(testsDir, 0o755); err != nil {
		return BootstrapResult{}, err
	}
	if err := os.WriteFile(filepath.Join(testsDir, "__init__.py"), []byte(""), 0o644); err != nil {
		return BootstrapResult{}, err
	}
	actions = append(actions, "created tests/ directory")

	conftestContent := "\"\"\"Shared pytest fixtures.\"\"\"\nimport pytest\n"
	if err := os.WriteFile(filepath.Join(root, "conftest.py"), []byte(conftestContent), 0o644); err != nil {
		return BootstrapResult{}, err
	}
	actions = append(actions, "created conftest.py")

	if err := appendPyprojectPytestSection(root); err != nil {
		return BootstrapResult{}, err
	}
	actions = append(actions, "updated pyproject.toml")

	_, runErr := b.runOrDocker(ctx, root, task.UseDocker, []string{"pip", "install", "pytest", "pytest-cov"})
	if runErr != nil {
		actions = append(actions, "dependency install failed: "+runErr.Error())
	} else {
		actions = append(actions, "installed pytest dependencies")
	}

	return BootstrapResult{Message: "bootstrapped pytest", Actions: actions}, nil
}

func (b *InfraBuilder) bootstrapPlaywright(ctx context.Context, task BootstrapTask) (BootstrapResult, error) {
	var actions []string
	root := task.ProjectPath

	configContent := "import { defineConfig } from '@playwright/test';\n\n" +
		"export default defineConfig({\n  testDir: './e2e',\n});\n"
	if err := os.WriteFile(filepath.Join(root, "playwright.config.ts"), []byte(configContent), 0o644); err != nil {
		return BootstrapResult{}, err
	}
	actions = append(actions, "created playwright.config.ts")

	e2eDir := filepath.Join(root, "e2e")
	if err := os.MkdirAll(e2eDir, 0o755); err != nil {
		return BootstrapResult{}, err
	}
	exampleContent := "import { test, expect } from '@playwright/test';\n\n" +
		"test('homepage loads', async ({ page }) => {\n  await page.goto('/');\n  await expect(page).toHaveTitle(/.+/);\n});\n"
	if err := os.WriteFile(filepath.Join(e2eDir, "example.spec.ts"), []byte(exampleContent), 0o644); err != nil {
		return BootstrapResult{}, err
	}
	actions = append(actions, "created e2e/example.spec.ts")

	if err := addPackageJSONScripts(root, map[string]string{
		"test:e2e": "playwright test",
	}); err != nil {
		return BootstrapResult{}, err
	}
	actions = append(actions, "updated package.json scripts")

	_, runErr := b.runOrDocker(ctx, root, task.UseDocker, []string{"npm", "install", "--save-dev", "@playwright/test"})
	if runErr != nil {
		actions = append(actions, "dependency install failed: "+runErr.Error())
	} else {
		actions = append(actions, "installed playwright dependencies")
	}

	return BootstrapResult{Message: "bootstrapped playwright", Actions: actions}, nil
}

func (b *InfraBuilder) runOrDocker(ctx context.Context, root string, useDocker bool, args []string) (string, error) {
	if useDocker || b.EnableDocker {
		return b.runDocker(ctx, b.DockerImage, root, args)
	}
	return b.runCommand(ctx, root, args)
}

func (b *InfraBuilder) execCommand(ctx context.Context, dir string, args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("nit/build: empty command")
	}
	cmdCtx, cancel := context.WithTimeout(ctx, defaultInfraTimeout)
	defer cancel()
	cmd := exec.CommandContext(cmdCtx, args[0], args[1:]...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// execInDocker wraps args to run inside EnableDocker's image, bind-mounting
// the project root — new code (the teacher has no builder-level Docker
// exec wrapper), grounded on runSubprocess's timeout/context idiom in
// internal/adapter/exec.go.
func (b *InfraBuilder) execInDocker(ctx context.Context, image, dir string, args []string) (string, error) {
	dockerArgs := append([]string{"run", "--rm", "-v", dir + ":/workspace", "-w", "/workspace", image}, args...)
	cmdCtx, cancel := context.WithTimeout(ctx, defaultInfraTimeout)
	defer cancel()
	cmd := exec.CommandContext(cmdCtx, "docker", dockerArgs...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

type packageJSONDoc = map[string]any

func nodeDependencyPresent(root, name string) bool {
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return false
	}
	var doc packageJSONDoc
	if json.Unmarshal(data, &doc) != nil {
		return false
	}
	for _, key := range []string{"dependencies", "devDependencies"} {
		deps, ok := doc[key].(map[string]any)
		if !ok {
			continue
		}
		if _, ok := deps[name]; ok {
			return true
		}
	}
	return false
}

func addPackageJSONScripts(root string, scripts map[string]string) error {
	path := filepath.Join(root, "package.json")
	doc := packageJSONDoc{"name": filepath.Base(root)}
	if data, err := os.ReadFile(path); err == nil {
		_ = json.Unmarshal(data, &doc)
	}

	existing, _ := doc["scripts"].(map[string]any)
	if existing == nil {
		existing = map[string]any{}
	}
	for k, v := range scripts {
		existing[k] = v
	}
	doc["scripts"] = existing

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

func appendPyprojectPytestSection(root string) error {
	path := filepath.Join(root, "pyproject.toml")
	data, _ := os.ReadFile(path)
	content := string(data)
	if strings.Contains(content, "[tool.pytest.ini_options]") {
		return nil
	}
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += "\n[tool.pytest.ini_options]\ntestpaths = [\"tests\"]\n"
	return os.WriteFile(path, []byte(content), 0o644)
}
