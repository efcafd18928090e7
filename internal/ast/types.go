// Package ast implements nit's LanguageParser: tree-sitter-backed source
// parsing for the nine languages spec.md names, plus the structural
// query_ast entry point security scanning needs.
package ast

// SymbolKind classifies an extracted symbol.
type SymbolKind int

const (
	SymbolKindUnknown SymbolKind = iota
	SymbolKindPackage
	SymbolKindFunction
	SymbolKindMethod
	SymbolKindClass
	SymbolKindInterface
	SymbolKindStruct
	SymbolKindType
	SymbolKindVariable
	SymbolKindConstant
	SymbolKindImport
)

// Import records a single import/require statement.
type Import struct {
	Module string
	Names  []string
	Line   int
}

// FunctionInfo describes one function or method extracted from source.
type FunctionInfo struct {
	Name       string
	StartLine  int
	EndLine    int
	StartCol   int
	EndCol     int
	BodyText   string
	Signature  string
	DocComment string
	Exported   bool
	IsMethod   bool
	Receiver   string
}

// ClassInfo describes a class/struct/interface-like type and its methods.
type ClassInfo struct {
	Name       string
	StartLine  int
	EndLine    int
	Methods    []FunctionInfo
	Fields     []string
	DocComment string
}

// ParseResult is the output of parsing a single source file. Parse errors
// are non-fatal: HasErrors is set and whatever was successfully extracted
// is still returned (spec.md §4.1: "requires partial results").
type ParseResult struct {
	FilePath      string
	Language      string
	Hash          string
	ParsedAtMilli int64
	Functions     []FunctionInfo
	Classes       []ClassInfo
	Imports       []Import
	Errors        []string
	HasErrors     bool

	// root is the underlying tree-sitter tree, retained so query_ast can
	// run structural queries without reparsing. Nil once Close is called.
	root *node
	src  []byte
	lang string
}

// Close releases the underlying tree-sitter tree, if any. Safe to call
// more than once.
func (r *ParseResult) Close() {
	r.root = nil
}
