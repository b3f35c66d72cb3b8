package codetree

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/src-d/enry/v2"
)

// Supported language names as reported by DetectLanguage.
const (
	LangPython = "python"
	LangGo     = "go"
)

// DetectLanguage classifies a source snippet. Samples carry no filename,
// so classification is content-based; unknown languages fall back to
// Python, the dominant language of mined pattern corpora.
func DetectLanguage(source []byte) string {
	switch enry.GetLanguage("snippet", source) {
	case "Go":
		return LangGo
	default:
		return LangPython
	}
}

// grammar returns the tree-sitter language for one of the supported
// language names.
func grammar(language string) (*sitter.Language, error) {
	switch language {
	case LangPython:
		return python.GetLanguage(), nil
	case LangGo:
		return golang.GetLanguage(), nil
	}

	return nil, fmt.Errorf("no grammar for language %q", language)
}

// Parse builds a structural tree from a source snippet. The tree-sitter
// CST is lowered to named nodes only; leaf nodes carry their verbatim
// token text as the label.
func Parse(ctx context.Context, source []byte, language string) (*Tree, error) {
	lang, err := grammar(language)
	if err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang)

	cst, parseErr := parser.ParseCtx(ctx, nil, source)
	if parseErr != nil {
		return nil, fmt.Errorf("parse %s snippet: %w", language, parseErr)
	}
	defer cst.Close()

	tree := NewTree(language)
	tree.Root = lower(tree, cst.RootNode(), source)

	return tree, nil
}

// lower converts one tree-sitter node and its named descendants.
func lower(tree *Tree, n *sitter.Node, source []byte) *Node {
	label := ""
	if n.NamedChildCount() == 0 {
		label = strings.TrimSpace(n.Content(source))
	}

	out := tree.NewNode(n.Type(), label)

	for i := range int(n.NamedChildCount()) {
		child := lower(tree, n.NamedChild(i), source)
		child.Parent = out
		out.Children = append(out.Children, child)
	}

	return out
}
