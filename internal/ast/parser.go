package ast

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// node is a minimal alias kept so ParseResult does not need to import
// sitter directly in types.go.
type node = sitter.Node

// DefaultMaxFileSize bounds how large a source file Parse will accept,
// mirroring the teacher's go_parser.go safety limit.
const DefaultMaxFileSize = 10 * 1024 * 1024

var ErrFileTooLarge = errors.New("nit/ast: file exceeds maximum parse size")
var ErrInvalidContent = errors.New("nit/ast: content is not valid UTF-8")
var ErrUnsupportedLanguage = errors.New("nit/ast: unsupported language")

// langSpec captures everything generic about one language's grammar
// needed by the structural extractor below: its tree-sitter Language,
// and the node-type names that denote functions, classes, and imports in
// that grammar. This is deliberately table-driven rather than one
// hand-written extractor file per language (the teacher's go_parser.go
// style) — the nine languages spec.md names share enough structural
// shape (function/class/import declarations) that a single extractor
// parameterized per grammar covers all of them, while query_ast (below)
// remains available for anything that needs real per-grammar precision.
type langSpec struct {
	language       func() *sitter.Language
	extensions     []string
	functionTypes  map[string]bool
	classTypes     map[string]bool
	importTypes    map[string]bool
	nameFieldFirst bool // if true, first identifier child is usually the name
}

var registry map[string]langSpec

func init() {
	registry = map[string]langSpec{
		"go": {
			language:      golang.GetLanguage,
			extensions:    []string{".go"},
			functionTypes: set("function_declaration", "method_declaration"),
			classTypes:    set("type_declaration"),
			importTypes:   set("import_spec", "import_declaration"),
		},
		"python": {
			language:      python.GetLanguage,
			extensions:    []string{".py"},
			functionTypes: set("function_definition"),
			classTypes:    set("class_definition"),
			importTypes:   set("import_statement", "import_from_statement"),
		},
		"javascript": {
			language:      javascript.GetLanguage,
			extensions:    []string{".js", ".jsx", ".mjs", ".cjs"},
			functionTypes: set("function_declaration", "method_definition", "arrow_function"),
			classTypes:    set("class_declaration"),
			importTypes:   set("import_statement"),
		},
		"typescript": {
			language:      typescript.GetLanguage,
			extensions:    []string{".ts"},
			functionTypes: set("function_declaration", "method_definition", "arrow_function"),
			classTypes:    set("class_declaration", "interface_declaration"),
			importTypes:   set("import_statement"),
		},
		"tsx": {
			language:      tsx.GetLanguage,
			extensions:    []string{".tsx"},
			functionTypes: set("function_declaration", "method_definition", "arrow_function"),
			classTypes:    set("class_declaration", "interface_declaration"),
			importTypes:   set("import_statement"),
		},
		"java": {
			language:      java.GetLanguage,
			extensions:    []string{".java"},
			functionTypes: set("method_declaration", "constructor_declaration"),
			classTypes:    set("class_declaration", "interface_declaration"),
			importTypes:   set("import_declaration"),
		},
		"c": {
			language:      c.GetLanguage,
			extensions:    []string{".c", ".h"},
			functionTypes: set("function_definition"),
			classTypes:    set("struct_specifier"),
			importTypes:   set("preproc_include"),
		},
		"cpp": {
			language:      cpp.GetLanguage,
			extensions:    []string{".cpp", ".cc", ".cxx", ".hpp", ".hh", ".hxx"},
			functionTypes: set("function_definition"),
			classTypes:    set("class_specifier", "struct_specifier"),
			importTypes:   set("preproc_include"),
		},
		"rust": {
			language:      rust.GetLanguage,
			extensions:    []string{".rs"},
			functionTypes: set("function_item"),
			classTypes:    set("struct_item", "impl_item", "trait_item"),
			importTypes:   set("use_declaration"),
		},
	}
}

func set(values ...string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}

// DetectLanguage maps a file extension to one of the nine supported
// language identifiers, or "" if none match.
func DetectLanguage(filePath string) string {
	ext := extOf(filePath)
	for lang, spec := range registry {
		for _, e := range spec.extensions {
			if e == ext {
				return lang
			}
		}
	}
	return ""
}

func extOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i:]
		}
		if path[i] == '/' {
			break
		}
	}
	return ""
}

// Parser is nit's LanguageParser: it dispatches to the right tree-sitter
// grammar based on file extension and extracts a ParseResult.
type Parser struct {
	maxFileSize int64
}

// Option configures a Parser.
type Option func(*Parser)

// WithMaxFileSize overrides DefaultMaxFileSize.
func WithMaxFileSize(bytes int64) Option {
	return func(p *Parser) { p.maxFileSize = bytes }
}

// NewParser builds a Parser with the given options.
func NewParser(opts ...Option) *Parser {
	p := &Parser{maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Languages returns every language identifier this Parser supports.
func (p *Parser) Languages() []string {
	out := make([]string, 0, len(registry))
	for lang := range registry {
		out = append(out, lang)
	}
	return out
}

// Parse extracts a ParseResult from content, whose language is detected
// from filePath's extension. A syntax-error-laden file still returns a
// partial ParseResult with HasErrors set, per spec.md §4.1.
func (p *Parser) Parse(ctx context.Context, content []byte, filePath string) (*ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if int64(len(content)) > p.maxFileSize {
		return nil, fmt.Errorf("%w: %s (%d bytes)", ErrFileTooLarge, filePath, len(content))
	}
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidContent, filePath)
	}

	lang := DetectLanguage(filePath)
	spec, ok := registry[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, filePath)
	}

	hash := sha256.Sum256(content)

	sp := sitter.NewParser()
	sp.SetLanguage(spec.language())
	tree, err := sp.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("nit/ast: parse %s: %w", filePath, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root := tree.RootNode()
	result := &ParseResult{
		FilePath:      filePath,
		Language:      lang,
		Hash:          hex.EncodeToString(hash[:]),
		ParsedAtMilli: time.Now().UnixMilli(),
		root:          root,
		src:           content,
		lang:          lang,
	}

	if root.HasError() {
		result.HasErrors = true
		result.Errors = append(result.Errors, "source contains syntax errors")
	}

	walk(root, content, spec, result)

	return result, nil
}

// walk traverses the tree once collecting functions, classes, and
// imports based on the per-language node-type sets in spec.
func walk(n *sitter.Node, src []byte, spec langSpec, result *ParseResult) {
	var visit func(n *sitter.Node, inClass string)
	visit = func(n *sitter.Node, inClass string) {
		if n == nil {
			return
		}
		t := n.Type()
		switch {
		case spec.importTypes[t]:
			result.Imports = append(result.Imports, Import{
				Module: firstIdentifierText(n, src),
				Line:   int(n.StartPoint().Row) + 1,
			})
		case spec.classTypes[t]:
			cls := ClassInfo{
				Name:      firstIdentifierText(n, src),
				StartLine: int(n.StartPoint().Row) + 1,
				EndLine:   int(n.EndPoint().Row) + 1,
			}
			for i := 0; i < int(n.ChildCount()); i++ {
				visitForClass(n.Child(i), src, spec, &cls)
			}
			result.Classes = append(result.Classes, cls)
			return // children of a class are consumed by visitForClass
		case spec.functionTypes[t] && inClass == "":
			result.Functions = append(result.Functions, functionInfoFrom(n, src))
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			visit(n.Child(i), inClass)
		}
	}
	visit(n, "")
}

func visitForClass(n *sitter.Node, src []byte, spec langSpec, cls *ClassInfo) {
	if n == nil {
		return
	}
	if spec.functionTypes[n.Type()] {
		fn := functionInfoFrom(n, src)
		fn.IsMethod = true
		fn.Receiver = cls.Name
		cls.Methods = append(cls.Methods, fn)
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		visitForClass(n.Child(i), src, spec, cls)
	}
}

func functionInfoFrom(n *sitter.Node, src []byte) FunctionInfo {
	name := firstIdentifierText(n, src)
	return FunctionInfo{
		Name:      name,
		StartLine: int(n.StartPoint().Row) + 1,
		EndLine:   int(n.EndPoint().Row) + 1,
		StartCol:  int(n.StartPoint().Column),
		EndCol:    int(n.EndPoint().Column),
		BodyText:  n.Content(src),
		Exported:  isExportedName(name),
	}
}

// firstIdentifierText finds the first identifier-like child of n and
// returns its source text, used as a best-effort "name" for any
// declaration node regardless of grammar-specific field names.
func firstIdentifierText(n *sitter.Node, src []byte) string {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "identifier", "type_identifier", "field_identifier",
			"package_identifier", "property_identifier":
			return child.Content(src)
		}
	}
	return ""
}

func isExportedName(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return r != 0 && r >= 'A' && r <= 'Z'
}
