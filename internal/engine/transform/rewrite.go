package transform

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"modlink/internal/engine/parser"
)

const (
	helperInterop     = "_interopRequireDefault"
	helperExportStar  = "_exportStar"
	tempModuleBinding = "_m"
)

var helperSources = map[string]string{
	helperInterop: "function %s(obj) { return obj && obj.__esModule ? obj : { default: obj }; }",
	helperExportStar: "function %s(from, to) { Object.keys(from).forEach(function (k) { " +
		"if (k !== \"default\" && k !== \"__esModule\" && !Object.prototype.hasOwnProperty.call(to, k)) { " +
		"Object.defineProperty(to, k, { enumerable: true, get: function () { return from[k]; } }); } }); return from; }",
}

// helperOrder fixes the order helpers are appended in.
var helperOrder = []string{helperInterop, helperExportStar}

type edit struct {
	start, end uint
	text       string
}

// rewriter accumulates non-overlapping byte-range edits against one source.
type rewriter struct {
	src     []byte
	edits   []edit
	names   *namer
	helpers map[string]string
	block   string
}

func newRewriter(src []byte) *rewriter {
	return &rewriter{src: src, helpers: make(map[string]string)}
}

// replace swaps the bytes of n for text, padding with newlines so the lines
// after n keep their numbers.
func (r *rewriter) replace(n *sitter.Node, text string) {
	start, end := n.StartByte(), n.EndByte()
	if lost := strings.Count(string(r.src[start:end]), "\n") - strings.Count(text, "\n"); lost > 0 {
		text += strings.Repeat("\n", lost)
	}
	r.edits = append(r.edits, edit{start: start, end: end, text: text})
}

func (r *rewriter) remove(n *sitter.Node) {
	r.replace(n, "")
}

func (r *rewriter) namer() *namer {
	if r.names == nil {
		r.names = newNamer(r.src)
	}
	return r.names
}

// helper marks a runtime helper as used and returns its local name.
func (r *rewriter) helper(base string) string {
	if name, ok := r.helpers[base]; ok {
		return name
	}
	name := r.namer().fresh(base)
	r.helpers[base] = name
	return name
}

// temp returns a fresh top-level binding for a required module.
func (r *rewriter) temp() string {
	return r.namer().fresh(tempModuleBinding)
}

// blockTemp returns the binding used inside generated blocks. Blocks never
// nest, so one name serves the whole file.
func (r *rewriter) blockTemp() string {
	if r.block == "" {
		r.block = r.namer().fresh(tempModuleBinding)
	}
	return r.block
}

func (r *rewriter) apply() string {
	sort.Slice(r.edits, func(i, j int) bool { return r.edits[i].start < r.edits[j].start })

	var b strings.Builder
	b.Grow(len(r.src))
	var pos uint
	for _, e := range r.edits {
		b.Write(r.src[pos:e.start])
		b.WriteString(e.text)
		pos = e.end
	}
	b.Write(r.src[pos:])

	if len(r.helpers) > 0 {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteByte('\n')
		}
		for _, base := range helperOrder {
			if name, ok := r.helpers[base]; ok {
				b.WriteString(fmt.Sprintf(helperSources[base], name))
				b.WriteByte('\n')
			}
		}
	}
	return b.String()
}

func requireCall(callee, specifier string) string {
	return callee + "(" + quote(specifier) + ")"
}

func quote(s string) string {
	return strconv.Quote(s)
}

// lowerImport renders an import declaration as CommonJS bindings.
func (r *rewriter) lowerImport(stmt *sitter.Node, call string) string {
	clause := childOfKind(stmt, "import_clause")
	if clause == nil {
		return call + ";"
	}

	var (
		defaultName string
		namespace   string
		named       []string
	)
	for _, part := range namedChildren(clause) {
		switch part.Kind() {
		case "identifier":
			defaultName = parser.NodeText(part, r.src)
		case "namespace_import":
			if id := childOfKind(part, "identifier"); id != nil {
				namespace = parser.NodeText(id, r.src)
			}
		case "named_imports":
			named = r.importProperties(part)
		}
	}

	parts := 0
	for _, present := range []bool{defaultName != "", namespace != "", len(named) > 0} {
		if present {
			parts++
		}
	}
	if parts == 0 {
		return call + ";"
	}

	module := call
	var out []string
	if parts > 1 {
		module = r.temp()
		out = append(out, "const "+module+" = "+call+";")
	}
	if defaultName != "" {
		out = append(out, fmt.Sprintf("const %s = %s(%s).default;", defaultName, r.helper(helperInterop), module))
	}
	if namespace != "" {
		out = append(out, "const "+namespace+" = "+module+";")
	}
	if len(named) > 0 {
		out = append(out, "const { "+strings.Join(named, ", ")+" } = "+module+";")
	}
	return strings.Join(out, " ")
}

// importProperties renders named import specifiers as destructuring
// properties, skipping type-only ones.
func (r *rewriter) importProperties(list *sitter.Node) []string {
	var out []string
	for _, spec := range namedChildren(list) {
		if spec.Kind() != "import_specifier" || typeSpecifier(spec) {
			continue
		}
		nameNode := spec.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		local := nameNode
		if alias := spec.ChildByFieldName("alias"); alias != nil {
			local = alias
		}
		key := propertyKey(nameNode, r.src)
		localName := parser.NodeText(local, r.src)
		if key == localName {
			out = append(out, key)
		} else {
			out = append(out, key+": "+localName)
		}
	}
	return out
}

func (r *rewriter) lowerImportEquals(stmt *sitter.Node, call string) string {
	names := importBindings(stmt, r.src)
	if len(names) == 0 {
		return call + ";"
	}
	return "const " + names[0] + " = " + call + ";"
}

// lowerExportFrom renders `export { a as b } from` as live getters on
// module.exports.
func (r *rewriter) lowerExportFrom(stmt *sitter.Node, call string) string {
	clause := childOfKind(stmt, "export_clause")
	if clause == nil {
		return call + ";"
	}

	type binding struct {
		exported string
		access   string
	}
	var bindings []binding
	for _, spec := range namedChildren(clause) {
		if spec.Kind() != "export_specifier" || typeSpecifier(spec) {
			continue
		}
		nameNode := spec.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		exported := exportName(nameNode, r.src)
		if alias := spec.ChildByFieldName("alias"); alias != nil {
			exported = exportName(alias, r.src)
		}
		bindings = append(bindings, binding{exported: exported, access: memberAccess(nameNode, r.src)})
	}
	if len(bindings) == 0 {
		return call + ";"
	}

	tmp := r.blockTemp()
	var b strings.Builder
	b.WriteString("{ const " + tmp + " = " + call + ";")
	for _, bd := range bindings {
		fmt.Fprintf(&b, " Object.defineProperty(module.exports, %s, { enumerable: true, get: function () { return %s%s; } });",
			quote(bd.exported), tmp, bd.access)
	}
	b.WriteString(" }")
	return b.String()
}

func (r *rewriter) lowerExportStar(stmt *sitter.Node, call string) string {
	if ns := childOfKind(stmt, "namespace_export"); ns != nil {
		if names := namedChildren(ns); len(names) > 0 {
			return "module.exports[" + quote(exportName(names[0], r.src)) + "] = " + call + ";"
		}
	}
	return r.helper(helperExportStar) + "(" + call + ", module.exports);"
}

// propertyKey renders a module export name as an object pattern key.
func propertyKey(n *sitter.Node, src []byte) string {
	if n.Kind() == "string" {
		return quote(stringValue(n, src))
	}
	return parser.NodeText(n, src)
}

func memberAccess(n *sitter.Node, src []byte) string {
	if n.Kind() == "string" {
		return "[" + quote(stringValue(n, src)) + "]"
	}
	return "." + parser.NodeText(n, src)
}

var identifierPattern = regexp.MustCompile(`[A-Za-z_$][A-Za-z0-9_$]*`)

// namer hands out identifiers that appear nowhere in the source.
type namer struct {
	taken map[string]bool
}

func newNamer(src []byte) *namer {
	n := &namer{taken: make(map[string]bool)}
	for _, id := range identifierPattern.FindAll(src, -1) {
		n.taken[string(id)] = true
	}
	return n
}

func (n *namer) fresh(base string) string {
	name := base
	for i := 2; n.taken[name]; i++ {
		name = base + strconv.Itoa(i)
	}
	n.taken[name] = true
	return name
}
