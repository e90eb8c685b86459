package transform

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// SiteKind is the closed set of syntactic forms that reference a module.
type SiteKind uint8

const (
	// SiteImport is an ES import declaration, with or without bindings.
	SiteImport SiteKind = iota
	// SiteImportEquals is the TypeScript form `import x = require("y")`.
	SiteImportEquals
	// SiteExportFrom re-exports named bindings: `export { a } from "y"`.
	SiteExportFrom
	// SiteExportStar re-exports a whole module: `export * from "y"`,
	// optionally under a namespace name.
	SiteExportStar
	// SiteRequire is a call to an unshadowed loader such as require("y").
	SiteRequire
)

func (k SiteKind) String() string {
	switch k {
	case SiteImport:
		return "import"
	case SiteImportEquals:
		return "import-equals"
	case SiteExportFrom:
		return "export-from"
	case SiteExportStar:
		return "export-star"
	case SiteRequire:
		return "require"
	}
	return "unknown"
}

// Statement reports whether the site is a whole ES statement rather than a
// call expression.
func (k SiteKind) Statement() bool {
	return k != SiteRequire
}

// Site is one module reference found in a tree.
type Site struct {
	Kind      SiteKind
	Specifier string
	Line      int
	// TypeOnly sites vanish from the emitted code and are never resolved.
	TypeOnly bool

	node   *sitter.Node // statement, or call expression for SiteRequire
	source *sitter.Node // string literal holding the specifier
}
