package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	"modlink/internal/core/errors"
	"modlink/internal/shared/util"
)

// Parser maps file extensions to grammars and hands out syntax trees.
// It is safe for concurrent use.
type Parser struct {
	loader     *GrammarLoader
	pools      map[string]*ParserPool
	extensions map[string]string
}

func NewParser(loader *GrammarLoader) *Parser {
	p := &Parser{
		loader:     loader,
		pools:      make(map[string]*ParserPool),
		extensions: make(map[string]string),
	}
	for lang, spec := range loader.LanguageRegistry() {
		if !spec.Enabled {
			continue
		}
		grammar, ok := loader.Language(lang)
		if !ok {
			continue
		}
		p.pools[lang] = NewParserPool(grammar)
		for _, ext := range spec.Extensions {
			p.extensions[strings.ToLower(ext)] = lang
		}
	}
	return p
}

// Parse parses source using the grammar selected by filename's extension.
// The caller owns the returned tree and must Close it.
func (p *Parser) Parse(filename string, source []byte) (*Tree, error) {
	lang := p.detectLanguage(filename)
	if lang == "" {
		return nil, errors.AddContext(
			errors.New(errors.CodeNotSupported, "unsupported file extension"),
			errors.CtxPath, filename)
	}
	pool := p.pools[lang]
	if pool == nil {
		return nil, errors.New(errors.CodeInternal, fmt.Sprintf("grammar not loaded: %s", lang))
	}

	sp := pool.Get()
	raw := sp.Parse(source, nil)
	pool.Put(sp)
	if raw == nil {
		return nil, errors.New(errors.CodeInternal, "parse failed")
	}

	tree := &Tree{Source: source, Language: lang, tree: raw}
	if bad := firstError(tree.Root()); bad != nil {
		pos := bad.StartPosition()
		tree.Close()
		de := &errors.DomainError{Code: errors.CodeSyntaxUnsupported, Message: "source does not parse"}
		return nil, de.
			WithContext(errors.CtxPath, filename).
			WithContext(errors.CtxLanguage, lang).
			WithContext(errors.CtxLine, int(pos.Row)+1).
			WithContext(errors.CtxColumn, int(pos.Column)+1)
	}
	return tree, nil
}

func (p *Parser) detectLanguage(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	return p.extensions[ext]
}

func (p *Parser) IsSupportedPath(filePath string) bool {
	return p.GetLanguage(filePath) != ""
}

func (p *Parser) GetLanguage(path string) string {
	return p.detectLanguage(path)
}

func (p *Parser) SupportedExtensions() []string {
	return util.SortedStringKeys(p.extensions)
}
