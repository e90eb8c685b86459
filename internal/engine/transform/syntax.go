package transform

import (
	"strconv"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"modlink/internal/engine/parser"
)

// functionKinds open a new function scope.
var functionKinds = map[string]bool{
	"function_declaration":           true,
	"generator_function_declaration": true,
	"function_expression":            true,
	"function":                       true,
	"generator_function":             true,
	"arrow_function":                 true,
	"method_definition":              true,
}

// declarationKinds bind their name in the enclosing block.
var declarationKinds = map[string]bool{
	"function_declaration":           true,
	"generator_function_declaration": true,
	"class_declaration":              true,
	"abstract_class_declaration":     true,
	"enum_declaration":               true,
}

func children(n *sitter.Node) []*sitter.Node {
	count := n.ChildCount()
	out := make([]*sitter.Node, 0, count)
	for i := uint(0); i < count; i++ {
		if child := n.Child(i); child != nil {
			out = append(out, child)
		}
	}
	return out
}

func namedChildren(n *sitter.Node) []*sitter.Node {
	count := n.NamedChildCount()
	out := make([]*sitter.Node, 0, count)
	for i := uint(0); i < count; i++ {
		child := n.NamedChild(i)
		if child == nil || child.Kind() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

func childOfKind(n *sitter.Node, kind string) *sitter.Node {
	for _, child := range children(n) {
		if child.Kind() == kind {
			return child
		}
	}
	return nil
}

// hasToken reports whether n has a direct anonymous child spelled tok.
func hasToken(n *sitter.Node, tok string) bool {
	for _, child := range children(n) {
		if !child.IsNamed() && child.Kind() == tok {
			return true
		}
	}
	return false
}

func line(n *sitter.Node) int {
	return int(n.StartPosition().Row) + 1
}

// stringValue decodes a string literal node.
func stringValue(n *sitter.Node, src []byte) string {
	var b strings.Builder
	for _, part := range namedChildren(n) {
		text := parser.NodeText(part, src)
		switch part.Kind() {
		case "string_fragment":
			b.WriteString(text)
		case "escape_sequence":
			b.WriteString(unescape(text))
		}
	}
	return b.String()
}

func unescape(seq string) string {
	if len(seq) < 2 {
		return seq
	}
	switch seq[1] {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	case 'b':
		return "\b"
	case 'f':
		return "\f"
	case 'v':
		return "\v"
	case '0':
		return "\x00"
	case '\n', '\r':
		return ""
	case 'x', 'u':
		hex := strings.Trim(seq[2:], "{}")
		if v, err := strconv.ParseUint(hex, 16, 32); err == nil {
			return string(rune(v))
		}
		return seq
	}
	return seq[1:]
}

// exportName returns the name spelled by an identifier or string node.
func exportName(n *sitter.Node, src []byte) string {
	if n.Kind() == "string" {
		return stringValue(n, src)
	}
	return parser.NodeText(n, src)
}

// patternNames appends every name bound by a binding pattern.
func patternNames(n *sitter.Node, src []byte, out []string) []string {
	if n == nil {
		return out
	}
	switch n.Kind() {
	case "identifier", "shorthand_property_identifier_pattern":
		return append(out, parser.NodeText(n, src))
	case "assignment_pattern", "object_assignment_pattern":
		return patternNames(n.ChildByFieldName("left"), src, out)
	case "pair_pattern":
		return patternNames(n.ChildByFieldName("value"), src, out)
	case "required_parameter", "optional_parameter":
		return patternNames(n.ChildByFieldName("pattern"), src, out)
	case "object_pattern", "array_pattern", "rest_pattern", "formal_parameters":
		for _, child := range namedChildren(n) {
			out = patternNames(child, src, out)
		}
	}
	return out
}

// declaratorNames appends the names bound by a var, let or const declaration.
func declaratorNames(decl *sitter.Node, src []byte, out []string) []string {
	for _, child := range namedChildren(decl) {
		if child.Kind() == "variable_declarator" {
			out = patternNames(child.ChildByFieldName("name"), src, out)
		}
	}
	return out
}

// parameterNames returns the names bound by a function's parameter list.
func parameterNames(fn *sitter.Node, src []byte) []string {
	if single := fn.ChildByFieldName("parameter"); single != nil {
		return patternNames(single, src, nil)
	}
	return patternNames(fn.ChildByFieldName("parameters"), src, nil)
}

// importBindings returns the local names introduced by an import statement.
func importBindings(stmt *sitter.Node, src []byte) []string {
	var out []string
	if clause := childOfKind(stmt, "import_require_clause"); clause != nil {
		if id := childOfKind(clause, "identifier"); id != nil {
			out = append(out, parser.NodeText(id, src))
		}
		return out
	}
	clause := childOfKind(stmt, "import_clause")
	if clause == nil {
		return nil
	}
	for _, part := range namedChildren(clause) {
		switch part.Kind() {
		case "identifier":
			out = append(out, parser.NodeText(part, src))
		case "namespace_import":
			if id := childOfKind(part, "identifier"); id != nil {
				out = append(out, parser.NodeText(id, src))
			}
		case "named_imports":
			for _, spec := range namedChildren(part) {
				if spec.Kind() != "import_specifier" {
					continue
				}
				local := spec.ChildByFieldName("alias")
				if local == nil {
					local = spec.ChildByFieldName("name")
				}
				if local != nil && local.Kind() == "identifier" {
					out = append(out, parser.NodeText(local, src))
				}
			}
		}
	}
	return out
}
