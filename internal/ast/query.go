package ast

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// Match is a single capture produced by a structural query: the captured
// node's text, type, and 1-indexed line.
type Match struct {
	CaptureName string
	Text        string
	NodeType    string
	Line        int
}

// QueryAST runs a tree-sitter s-expression query against result's parsed
// tree and returns every capture. This is the structural counterpart to
// the regex-based scanning the rest of nit's analyzers use — spec.md
// §4.1 requires it for SecurityAnalyzer's structural pattern matching,
// where a regex over raw text would produce too many false positives
// (e.g. matching a call name inside a string literal).
//
// result must still hold its parsed tree (i.e. Close has not been called).
func QueryAST(result *ParseResult, sExpr string) ([]Match, error) {
	if result.root == nil {
		return nil, fmt.Errorf("nit/ast: QueryAST called after Close on %s", result.FilePath)
	}
	spec, ok := registry[result.lang]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, result.lang)
	}

	q, err := sitter.NewQuery([]byte(sExpr), spec.language())
	if err != nil {
		return nil, fmt.Errorf("nit/ast: invalid query: %w", err)
	}

	cursor := sitter.NewQueryCursor()
	cursor.Exec(q, result.root)

	var matches []Match
	for {
		m, ok := cursor.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			matches = append(matches, Match{
				CaptureName: q.CaptureNameForId(c.Index),
				Text:        c.Node.Content(result.src),
				NodeType:    c.Node.Type(),
				Line:        int(c.Node.StartPoint().Row) + 1,
			})
		}
	}
	return matches, nil
}
