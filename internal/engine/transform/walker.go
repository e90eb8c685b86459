package transform

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"modlink/internal/engine/parser"
	"modlink/internal/engine/scope"
)

// walker visits a tree once, in source order, and records every module
// reference whose loader is not shadowed at the call site.
type walker struct {
	src      []byte
	policy   scope.Policy
	tracked  map[string]bool
	scopes   scope.Tracker
	sites    []Site
	shadowed int
	// exports counts export statements without a source, which stay ES syntax.
	exports int
}

func newWalker(src []byte, policy scope.Policy, tracked []string) *walker {
	w := &walker{
		src:     src,
		policy:  policy,
		tracked: make(map[string]bool, len(tracked)),
	}
	for _, name := range tracked {
		w.tracked[name] = true
	}
	return w
}

// collectSites returns the module references below root in source order,
// the number of loader calls skipped because a local binding shadowed them,
// and the number of local export statements.
func collectSites(root *sitter.Node, src []byte, policy scope.Policy, tracked []string) ([]Site, int, int) {
	w := newWalker(src, policy, tracked)
	w.visit(root)
	return w.sites, w.shadowed, w.exports
}

func (w *walker) visit(n *sitter.Node) {
	kind := n.Kind()
	switch {
	case kind == "program":
		w.scoped(n, w.programFrame(n))
	case kind == "import_statement":
		w.importSite(n)
	case kind == "export_statement" && n.ChildByFieldName("source") != nil:
		w.exportSite(n)
	case kind == "export_statement":
		w.exports++
		w.visitChildren(n)
	case kind == "call_expression":
		w.callSite(n)
		w.visitChildren(n)
	case functionKinds[kind]:
		w.scoped(n, w.functionFrame(n))
	case kind == "class_static_block":
		w.scoped(n, w.staticBlockFrame(n))
	case kind == "statement_block":
		w.scoped(n, w.blockFrame(namedChildren(n)))
	case kind == "switch_body":
		var stmts []*sitter.Node
		for _, c := range namedChildren(n) {
			stmts = append(stmts, namedChildren(c)...)
		}
		w.scoped(n, w.blockFrame(stmts))
	case kind == "for_statement" || kind == "for_in_statement":
		w.scoped(n, w.loopFrame(n))
	case kind == "catch_clause":
		w.scoped(n, w.catchFrame(n))
	default:
		w.visitChildren(n)
	}
}

func (w *walker) visitChildren(n *sitter.Node) {
	for _, child := range children(n) {
		w.visit(child)
	}
}

func (w *walker) scoped(n *sitter.Node, f scope.Frame) {
	w.scopes.Push(f)
	w.visitChildren(n)
	w.scopes.Pop()
}

// frame keeps only tracked names; untracked bindings never matter.
func (w *walker) frame(names []string) scope.Frame {
	kept := names[:0]
	for _, name := range names {
		if w.tracked[name] {
			kept = append(kept, name)
		}
	}
	return scope.NewFrame(kept...)
}

func (w *walker) bindings() bool {
	return w.policy == scope.PolicyBindings
}

func (w *walker) programFrame(n *sitter.Node) scope.Frame {
	if !w.bindings() {
		return scope.Frame{}
	}
	names := hoistedVars(n, w.src, nil)
	names = append(names, lexicalNames(namedChildren(n), w.src)...)
	for _, stmt := range namedChildren(n) {
		if stmt.Kind() == "import_statement" && !typeOnlyImport(stmt) {
			names = append(names, importBindings(stmt, w.src)...)
		}
	}
	return w.frame(names)
}

func (w *walker) functionFrame(n *sitter.Node) scope.Frame {
	names := parameterNames(n, w.src)
	if !w.bindings() {
		return w.frame(names)
	}
	switch n.Kind() {
	case "function_expression", "function", "generator_function":
		if name := n.ChildByFieldName("name"); name != nil {
			names = append(names, parser.NodeText(name, w.src))
		}
	}
	if body := n.ChildByFieldName("body"); body != nil && body.Kind() == "statement_block" {
		names = hoistedVars(body, w.src, names)
	}
	return w.frame(names)
}

func (w *walker) blockFrame(stmts []*sitter.Node) scope.Frame {
	if !w.bindings() {
		return scope.Frame{}
	}
	return w.frame(lexicalNames(stmts, w.src))
}

// staticBlockFrame holds the vars of a class static block, which hoist no
// further than the block itself.
func (w *walker) staticBlockFrame(n *sitter.Node) scope.Frame {
	if !w.bindings() {
		return scope.Frame{}
	}
	body := n.ChildByFieldName("body")
	if body == nil {
		body = n
	}
	names := hoistedVars(body, w.src, nil)
	names = append(names, lexicalNames(namedChildren(body), w.src)...)
	return w.frame(names)
}

func (w *walker) loopFrame(n *sitter.Node) scope.Frame {
	if !w.bindings() {
		return scope.Frame{}
	}
	var names []string
	if init := n.ChildByFieldName("initializer"); init != nil && init.Kind() == "lexical_declaration" {
		names = declaratorNames(init, w.src, names)
	}
	if kind := n.ChildByFieldName("kind"); kind != nil && kind.Kind() != "var" {
		names = patternNames(n.ChildByFieldName("left"), w.src, names)
	}
	return w.frame(names)
}

func (w *walker) catchFrame(n *sitter.Node) scope.Frame {
	if !w.bindings() {
		return scope.Frame{}
	}
	return w.frame(patternNames(n.ChildByFieldName("parameter"), w.src, nil))
}

func (w *walker) callSite(n *sitter.Node) {
	callee := n.ChildByFieldName("function")
	if callee == nil || callee.Kind() != "identifier" {
		return
	}
	name := parser.NodeText(callee, w.src)
	if !w.tracked[name] {
		return
	}
	args := n.ChildByFieldName("arguments")
	if args == nil || args.Kind() != "arguments" {
		return
	}
	list := namedChildren(args)
	if len(list) != 1 || list[0].Kind() != "string" {
		return
	}
	if w.scopes.Shadowed(name) {
		w.shadowed++
		return
	}
	w.sites = append(w.sites, Site{
		Kind:      SiteRequire,
		Specifier: stringValue(list[0], w.src),
		Line:      line(n),
		node:      n,
		source:    list[0],
	})
}

func (w *walker) importSite(n *sitter.Node) {
	kind := SiteImport
	source := n.ChildByFieldName("source")
	if clause := childOfKind(n, "import_require_clause"); clause != nil {
		kind = SiteImportEquals
		source = clause.ChildByFieldName("source")
	}
	if source == nil {
		return
	}
	w.sites = append(w.sites, Site{
		Kind:      kind,
		Specifier: stringValue(source, w.src),
		Line:      line(n),
		TypeOnly:  typeOnlyImport(n),
		node:      n,
		source:    source,
	})
}

func (w *walker) exportSite(n *sitter.Node) {
	source := n.ChildByFieldName("source")
	kind := SiteExportFrom
	if childOfKind(n, "namespace_export") != nil || hasToken(n, "*") {
		kind = SiteExportStar
	}
	w.sites = append(w.sites, Site{
		Kind:      kind,
		Specifier: stringValue(source, w.src),
		Line:      line(n),
		TypeOnly:  typeOnlyExport(n),
		node:      n,
		source:    source,
	})
}

// typeOnlyImport reports `import type ...` and imports whose every named
// specifier is marked `type`.
func typeOnlyImport(n *sitter.Node) bool {
	if hasToken(n, "type") || hasToken(n, "typeof") {
		return true
	}
	clause := childOfKind(n, "import_clause")
	if clause == nil {
		return false
	}
	parts := namedChildren(clause)
	if len(parts) != 1 || parts[0].Kind() != "named_imports" {
		return false
	}
	return allTypeSpecifiers(parts[0], "import_specifier")
}

func typeOnlyExport(n *sitter.Node) bool {
	if hasToken(n, "type") {
		return true
	}
	clause := childOfKind(n, "export_clause")
	return clause != nil && allTypeSpecifiers(clause, "export_specifier")
}

func allTypeSpecifiers(list *sitter.Node, kind string) bool {
	count := 0
	for _, spec := range namedChildren(list) {
		if spec.Kind() != kind {
			continue
		}
		if !typeSpecifier(spec) {
			return false
		}
		count++
	}
	return count > 0
}

func typeSpecifier(spec *sitter.Node) bool {
	return hasToken(spec, "type") || hasToken(spec, "typeof")
}

// hoistedVars appends the var-declared names of a function body or program,
// not descending into nested functions or class static blocks.
func hoistedVars(n *sitter.Node, src []byte, out []string) []string {
	for _, child := range namedChildren(n) {
		switch kind := child.Kind(); {
		case functionKinds[kind] || kind == "class_static_block":
			continue
		case kind == "variable_declaration":
			out = declaratorNames(child, src, out)
		case kind == "for_in_statement":
			if k := child.ChildByFieldName("kind"); k != nil && k.Kind() == "var" {
				out = patternNames(child.ChildByFieldName("left"), src, out)
			}
		}
		out = hoistedVars(child, src, out)
	}
	return out
}

// lexicalNames returns the block-scoped names declared directly by stmts.
func lexicalNames(stmts []*sitter.Node, src []byte) []string {
	var out []string
	for _, stmt := range stmts {
		if stmt.Kind() == "export_statement" {
			if decl := stmt.ChildByFieldName("declaration"); decl != nil {
				stmt = decl
			}
		}
		switch kind := stmt.Kind(); {
		case kind == "lexical_declaration":
			out = declaratorNames(stmt, src, out)
		case declarationKinds[kind]:
			if name := stmt.ChildByFieldName("name"); name != nil {
				out = append(out, parser.NodeText(name, src))
			}
		}
	}
	return out
}
