package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Tree is a parsed source file. Node byte offsets index into Source.
type Tree struct {
	Source   []byte
	Language string
	tree     *sitter.Tree
}

func (t *Tree) Root() *sitter.Node {
	return t.tree.RootNode()
}

// Text returns the source text covered by n.
func (t *Tree) Text(n *sitter.Node) string {
	return NodeText(n, t.Source)
}

func (t *Tree) Close() {
	if t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}

func NodeText(n *sitter.Node, source []byte) string {
	if n == nil {
		return ""
	}
	start, end := n.StartByte(), n.EndByte()
	if end > uint(len(source)) || start > end {
		return ""
	}
	return string(source[start:end])
}

// firstError returns the earliest error or missing node below n, or nil.
func firstError(n *sitter.Node) *sitter.Node {
	if n == nil || !n.HasError() {
		return nil
	}
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		if child.IsError() || child.IsMissing() {
			return child
		}
		if bad := firstError(child); bad != nil {
			return bad
		}
	}
	return n
}
