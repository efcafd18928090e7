package analyze

import (
	"strings"

	"github.com/nit-test/nit/internal/ast"
)

// IntegrationDependencyType classifies an external touch-point a file
// depends on, ported from the original's IntegrationDependencyType enum.
type IntegrationDependencyType string

const (
	IntegrationHTTPClient      IntegrationDependencyType = "http_client"
	IntegrationDatabase        IntegrationDependencyType = "database"
	IntegrationFilesystem      IntegrationDependencyType = "filesystem"
	IntegrationMessageQueue    IntegrationDependencyType = "message_queue"
	IntegrationExternalProcess IntegrationDependencyType = "external_process"
)

// integrationModuleRule maps a known import/module name to the
// dependency type it implies, the mocking strategies recommended for
// it, and the fixture recommendations it should contribute. Table
// keyed per language since the same concern (e.g. HTTP client) is
// named differently per ecosystem, mirroring detect_integration_deps's
// per-language module tables recovered from the test fixtures
// (test_integration_builder.py: requests/sqlalchemy for Python,
// axios/msw for TypeScript).
type integrationModuleRule struct {
	modulePrefixes []string
	depType        IntegrationDependencyType
	mockStrategies []string
	fixtures       []string
}

var integrationRulesByLanguage = map[string][]integrationModuleRule{
	"python": {
		{[]string{"requests", "httpx", "urllib3", "aiohttp"}, IntegrationHTTPClient,
			[]string{"responses library", "unittest.mock.patch", "httpx MockTransport"},
			[]string{"http_response_fixture"}},
		{[]string{"sqlalchemy", "psycopg2", "pymongo", "sqlite3", "asyncpg"}, IntegrationDatabase,
			[]string{"pytest-postgresql", "sqlalchemy StaticPool in-memory engine", "mongomock"},
			[]string{"database_session_fixture", "test_model_factory_fixture"}},
		{[]string{"os", "pathlib", "shutil", "open"}, IntegrationFilesystem,
			[]string{"pyfakefs", "tmp_path fixture"},
			[]string{"tmp_path_fixture"}},
		{[]string{"pika", "kafka", "celery", "redis"}, IntegrationMessageQueue,
			[]string{"fakeredis", "in-memory broker"},
			[]string{"message_broker_fixture"}},
		{[]string{"subprocess"}, IntegrationExternalProcess,
			[]string{"unittest.mock.patch on subprocess.run"},
			[]string{"subprocess_fixture"}},
	},
	"javascript": {
		{[]string{"axios", "fetch", "node-fetch", "got"}, IntegrationHTTPClient,
			[]string{"msw", "nock"}, []string{"http_response_fixture"}},
		{[]string{"pg", "mongodb", "mongoose", "mysql2", "better-sqlite3"}, IntegrationDatabase,
			[]string{"mongodb-memory-server", "sqlite in-memory test database"},
			[]string{"database_session_fixture"}},
		{[]string{"fs", "fs/promises"}, IntegrationFilesystem,
			[]string{"memfs", "mock-fs"}, []string{"tmp_dir_fixture"}},
		{[]string{"amqplib", "kafkajs", "bullmq"}, IntegrationMessageQueue,
			[]string{"in-memory broker mock"}, []string{"message_broker_fixture"}},
		{[]string{"child_process"}, IntegrationExternalProcess,
			[]string{"jest mock of child_process"}, []string{"subprocess_fixture"}},
	},
}

func init() {
	integrationRulesByLanguage["typescript"] = integrationRulesByLanguage["javascript"]
	integrationRulesByLanguage["tsx"] = integrationRulesByLanguage["javascript"]
}

// IntegrationDependency is one detected external touch-point.
type IntegrationDependency struct {
	DependencyType IntegrationDependencyType
	ModuleName     string
	UsedByFuncs    []string
	MockStrategies []string
}

// IntegrationDependencyReport is the aggregate result for one file.
type IntegrationDependencyReport struct {
	FilePath              string
	NeedsIntegrationTests bool
	Dependencies          []IntegrationDependency
	RecommendedFixtures   []string
}

// IntegrationDepsAnalyzer classifies a parsed file's external
// touch-points (HTTP, DB, filesystem, queue, subprocess) from its
// imports, and proposes fixtures/mock strategies for each — grounded on
// tests/test_integration_builder.py's detect_integration_dependencies
// contract (the analyzer module itself is absent from the retrieval
// pack).
type IntegrationDepsAnalyzer struct{}

func NewIntegrationDepsAnalyzer() *IntegrationDepsAnalyzer { return &IntegrationDepsAnalyzer{} }

// Analyze classifies parsed's imports against the per-language rule
// table and attributes each dependency to the functions whose bodies
// reference the module's bare name.
func (a *IntegrationDepsAnalyzer) Analyze(filePath string, parsed *ast.ParseResult, language string) IntegrationDependencyReport {
	report := IntegrationDependencyReport{FilePath: filePath}
	rules, ok := integrationRulesByLanguage[language]
	if !ok || parsed == nil {
		return report
	}

	fixtureSet := map[string]bool{}
	for _, imp := range parsed.Imports {
		rule, bareName := matchIntegrationRule(imp.Module, rules)
		if rule == nil {
			continue
		}
		dep := IntegrationDependency{
			DependencyType: rule.depType,
			ModuleName:     imp.Module,
			MockStrategies: rule.mockStrategies,
			UsedByFuncs:    functionsReferencing(parsed.Functions, bareName),
		}
		report.Dependencies = append(report.Dependencies, dep)
		for _, f := range rule.fixtures {
			fixtureSet[f] = true
		}
	}

	report.NeedsIntegrationTests = len(report.Dependencies) > 0
	report.RecommendedFixtures = sortedSetKeys(fixtureSet)
	return report
}

func matchIntegrationRule(module string, rules []integrationModuleRule) (*integrationModuleRule, string) {
	lower := strings.ToLower(module)
	for i := range rules {
		for _, prefix := range rules[i].modulePrefixes {
			if strings.HasPrefix(lower, prefix) {
				return &rules[i], prefix
			}
		}
	}
	return nil, ""
}

func functionsReferencing(funcs []ast.FunctionInfo, bareName string) []string {
	var names []string
	for _, fn := range funcs {
		if strings.Contains(fn.BodyText, bareName+".") || strings.Contains(fn.BodyText, bareName+"(") {
			names = append(names, fn.Name)
		}
	}
	return names
}
