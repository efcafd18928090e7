package analyze

import (
	"context"
	"regexp"
	"strings"

	"github.com/nit-test/nit/internal/ast"
)

// decisionPatterns maps a decision-point kind to the regexes counted
// toward it. "else" is tracked for reporting but never added to
// cyclomatic complexity (Open Question 2: "and"/"or" are counted as
// independent matches with no short-circuit lowering, matching
// original_source/.../code.py::_calculate_complexity exactly).
var decisionPatterns = map[string][]*regexp.Regexp{
	"if":      {regexp.MustCompile(`(?i)\bif\b`), regexp.MustCompile(`(?i)\belif\b`), regexp.MustCompile(`(?i)\belse\s+if\b`)},
	"else":    {regexp.MustCompile(`(?i)\belse\b`)},
	"for":     {regexp.MustCompile(`(?i)\bfor\b`), regexp.MustCompile(`(?i)\bforeach\b`)},
	"while":   {regexp.MustCompile(`(?i)\bwhile\b`)},
	"case":    {regexp.MustCompile(`(?i)\bcase\b`), regexp.MustCompile(`(?i)\bwhen\b`)},
	"catch":   {regexp.MustCompile(`(?i)\bcatch\b`), regexp.MustCompile(`(?i)\bexcept\b`), regexp.MustCompile(`(?i)\brescue\b`)},
	"and":     {regexp.MustCompile(`(?i)\band\b`), regexp.MustCompile(`&&`)},
	"or":      {regexp.MustCompile(`(?i)\bor\b`), regexp.MustCompile(`\|\|`)},
	"ternary": {regexp.MustCompile(`\?[^?]*:`), regexp.MustCompile(`(?is)\bif\b.*\belse\b`)},
	"match":   {regexp.MustCompile(`(?i)\bmatch\b`)},
}

// decisionOrder fixes iteration order so DecisionPoints population (and
// any test asserting on it) is deterministic across runs — Python dict
// insertion order did this implicitly; Go map iteration does not.
var decisionOrder = []string{"if", "else", "for", "while", "case", "catch", "and", "or", "ternary", "match"}

// callPattern matches a bare function-call expression: name(.
var callPattern = regexp.MustCompile(`\b([a-zA-Z_]\w*)\s*\(`)

var sideEffectImportPatterns = map[SideEffectType][]*regexp.Regexp{
	SideEffectDatabase: compileAll(
		`\bsqlalchemy\b`, `\bdjango\.db\b`, `\bpsycopg\d?\b`, `\bmysql\b`, `\bpymongo\b`,
		`\bsqlite3\b`, `\bmssql\b`, `\boracle\b`, `\bsequelize\b`, `\bmongoose\b`, `\bprisma\b`, `\bdrizzle\b`,
	),
	SideEffectFilesystem: compileAll(
		`\bopen\(`, `\bfs\.`, `\bpath\.`, `\bshutil\b`, `\bos\.path\b`, `\bpathlib\b`,
		`\bfile_get_contents\b`, `\bfile_put_contents\b`,
	),
	SideEffectHTTP: compileAll(
		`\brequests\b`, `\bhttpx\b`, `\baxios\b`, `\bfetch\(`, `\bhttp\b`, `\bhttps\b`, `\burl`, `\baiohttp\b`, `\bgot\b`, `\bsuperagent\b`,
	),
	SideEffectExternalProcess: compileAll(
		`\bsubprocess\b`, `\bchild_process\b`, `\bexec\(`, `\bspawn\(`, `\bpopen\b`,
	),
	SideEffectLogging: compileAll(
		`\blogging\b`, `\bwarn\(`, `\blog\(`, `\bconsole\.`, `\bprint\(`,
	),
}

var sideEffectCallPatterns = map[SideEffectType][]*regexp.Regexp{
	SideEffectFilesystem: compileAll(
		`\bopen\(`, `\breadFile\(`, `\bwriteFile\(`, `\bwriteFileSync\(`, `\breadFileSync\(`,
		`\bread_text\(`, `\bwrite_text\(`, `\bunlink\(`, `\brm\(`, `\bmkdir\(`,
	),
	SideEffectHTTP: compileAll(
		`\bfetch\(`, `\bget\(`, `\bpost\(`, `\bput\(`, `\bdelete\(`, `\brequest\(`, `\baxios\.`,
	),
	SideEffectExternalProcess: compileAll(
		`\bexec\(`, `\bspawn\(`, `\bpopen\(`, `\brun\(`,
	),
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile("(?i)" + p)
	}
	return out
}

// CodeAnalyzer performs complexity, call-graph, and side-effect analysis
// over a parsed source file (spec.md §4.7).
type CodeAnalyzer struct {
	parser *ast.Parser
}

func NewCodeAnalyzer(parser *ast.Parser) *CodeAnalyzer {
	return &CodeAnalyzer{parser: parser}
}

// Analyze parses src and builds its CodeMap. Parse errors are non-fatal:
// HasErrors is set and an empty CodeMap with no functions is returned,
// matching the partial-results contract internal/ast.Parse already
// honors.
func (a *CodeAnalyzer) Analyze(ctx context.Context, src []byte, filePath string) CodeMap {
	lang := ast.DetectLanguage(filePath)
	if lang == "" {
		return CodeMap{FilePath: filePath, Language: "unknown", HasErrors: true}
	}

	parsed, err := a.parser.Parse(ctx, src, filePath)
	if err != nil {
		return CodeMap{FilePath: filePath, Language: lang, HasErrors: true}
	}
	defer parsed.Close()

	cm := CodeMap{
		FilePath:      filePath,
		Language:      parsed.Language,
		Functions:     append([]ast.FunctionInfo{}, parsed.Functions...),
		Classes:       parsed.Classes,
		Imports:       parsed.Imports,
		ComplexityMap: map[string]ComplexityMetrics{},
		HasErrors:     parsed.HasErrors,
	}

	for _, fn := range parsed.Functions {
		cm.ComplexityMap[fn.Name] = calculateComplexity(fn)
	}
	for _, cls := range parsed.Classes {
		for _, method := range cls.Methods {
			full := cls.Name + "." + method.Name
			cm.ComplexityMap[full] = calculateComplexity(method)
			cm.Functions = append(cm.Functions, method)
		}
	}

	cm.CallGraph = buildCallGraph(parsed)
	cm.SideEffectsMap = detectSideEffects(parsed)

	return cm
}

func calculateComplexity(fn ast.FunctionInfo) ComplexityMetrics {
	complexity := 1
	decisionPoints := map[string]int{}

	for _, kind := range decisionOrder {
		count := 0
		for _, re := range decisionPatterns[kind] {
			count += len(re.FindAllStringIndex(fn.BodyText, -1))
		}
		if count == 0 {
			continue
		}
		decisionPoints[kind] = count
		if kind != "else" {
			complexity += count
		}
	}

	return ComplexityMetrics{Cyclomatic: complexity, DecisionPoints: decisionPoints}
}

func buildCallGraph(parsed *ast.ParseResult) []FunctionCall {
	known := map[string]bool{}
	for _, fn := range parsed.Functions {
		known[fn.Name] = true
	}
	for _, cls := range parsed.Classes {
		for _, m := range cls.Methods {
			known[m.Name] = true
		}
	}

	var calls []FunctionCall
	for _, fn := range parsed.Functions {
		calls = append(calls, extractFunctionCalls(fn, known, "")...)
	}
	for _, cls := range parsed.Classes {
		for _, m := range cls.Methods {
			calls = append(calls, extractFunctionCalls(m, known, cls.Name+"."+m.Name)...)
		}
	}
	return calls
}

func extractFunctionCalls(fn ast.FunctionInfo, known map[string]bool, callerOverride string) []FunctionCall {
	caller := fn.Name
	if callerOverride != "" {
		caller = callerOverride
	}

	var calls []FunctionCall
	for _, m := range callPattern.FindAllStringSubmatchIndex(fn.BodyText, -1) {
		callee := fn.BodyText[m[2]:m[3]]
		if !known[callee] || callee == fn.Name {
			continue
		}
		lineOffset := strings.Count(fn.BodyText[:m[0]], "\n")
		calls = append(calls, FunctionCall{Caller: caller, Callee: callee, LineNumber: fn.StartLine + lineOffset})
	}
	return calls
}

func detectSideEffects(parsed *ast.ParseResult) map[string][]SideEffect {
	evidence := buildImportEvidence(parsed.Imports)
	out := map[string][]SideEffect{}

	for _, fn := range parsed.Functions {
		if se := analyzeFunctionSideEffects(fn, evidence); len(se) > 0 {
			out[fn.Name] = se
		}
	}
	for _, cls := range parsed.Classes {
		for _, m := range cls.Methods {
			if se := analyzeFunctionSideEffects(m, evidence); len(se) > 0 {
				out[cls.Name+"."+m.Name] = se
			}
		}
	}
	return out
}

// buildImportEvidence maps each side effect type to the import module
// names (as written in source) that match one of its patterns.
func buildImportEvidence(imports []ast.Import) map[SideEffectType][]string {
	evidence := map[SideEffectType][]string{}
	for _, imp := range imports {
		text := strings.ToLower(imp.Module)
		for _, n := range imp.Names {
			text += " " + strings.ToLower(n)
		}
		for effectType, patterns := range sideEffectImportPatterns {
			for _, re := range patterns {
				if re.MatchString(text) {
					evidence[effectType] = append(evidence[effectType], imp.Module)
					break
				}
			}
		}
	}
	return evidence
}

func analyzeFunctionSideEffects(fn ast.FunctionInfo, evidence map[SideEffectType][]string) []SideEffect {
	var out []SideEffect
	body := strings.ToLower(fn.BodyText)

	for effectType, modules := range evidence {
		for _, module := range modules {
			if strings.Contains(body, strings.ToLower(module)) {
				out = append(out, SideEffect{Type: effectType, Evidence: "import: " + module, LineNumber: fn.StartLine})
				break
			}
		}
	}

	for effectType, patterns := range sideEffectCallPatterns {
		for _, re := range patterns {
			loc := re.FindStringIndex(body)
			if loc == nil {
				continue
			}
			lineOffset := strings.Count(body[:loc[0]], "\n")
			out = append(out, SideEffect{
				Type:       effectType,
				Evidence:   "call: " + body[loc[0]:loc[1]],
				LineNumber: fn.StartLine + lineOffset,
			})
			break
		}
	}

	return out
}
