package app

import (
	"fmt"

	"modlink/internal/core/config"
	"modlink/internal/engine/emit"
	"modlink/internal/engine/fs"
	"modlink/internal/engine/parser"
	"modlink/internal/engine/resolver"
	"modlink/internal/engine/scope"
	"modlink/internal/engine/transform"
	"modlink/internal/shared/util"
)

// pipeline holds everything derived from one configuration. Reconfigure
// swaps the whole value.
type pipeline struct {
	cfg         *config.Config
	parser      *parser.Parser
	fsys        *fs.CachedFS
	transformer *transform.Transformer
	emitter     *emit.Emitter
	filter      *util.PathFilter
	// assets are copied to the output untouched, e.g. ".json".
	assets map[string]bool
}

func newPipeline(cfg *config.Config, paths config.ResolvedPaths) (*pipeline, error) {
	registry, err := buildParserRegistry(cfg)
	if err != nil {
		return nil, err
	}
	loader, err := parser.NewGrammarLoaderWithRegistry(registry)
	if err != nil {
		return nil, err
	}
	p := parser.NewParser(loader)

	policy, err := scope.ParsePolicy(cfg.Transform.ShadowPolicy)
	if err != nil {
		return nil, err
	}

	cached := fs.NewCachedFS(fs.RealFS(), cfg.Build.CacheEntries)
	globalDir := ""
	if paths.GlobalDir != "" {
		globalDir = fs.ToSlash(paths.GlobalDir)
	}
	res := resolver.New(cached, resolver.Options{
		Extensions:       cfg.Resolve.Extensions,
		MainFields:       cfg.Resolve.MainFields,
		GlobalModulesDir: globalDir,
		Externals:        cfg.Resolve.Externals,
		BuiltinsExternal: cfg.Resolve.BuiltinsAreExternal(),
		StyleExtensions:  cfg.Resolve.StyleExtensions,
	})

	tr := transform.New(p, res, transform.Options{
		Root:         fs.ToSlash(paths.ProjectRoot),
		Policy:       policy,
		TrackedNames: cfg.Transform.TrackedNames,
	})

	em, err := emit.New(emit.Options{
		JSX:    cfg.Build.JSX,
		Minify: cfg.Build.Minify,
		Target: cfg.Build.Target,
	})
	if err != nil {
		return nil, err
	}

	// Resolvable extensions without a grammar, such as ".json", are assets.
	assets := make(map[string]bool)
	extensions := p.SupportedExtensions()
	for _, ext := range cfg.Resolve.Extensions {
		if !p.IsSupportedPath("x" + ext) {
			assets[ext] = true
			extensions = append(extensions, ext)
		}
	}

	filter, err := util.NewPathFilter(cfg.Exclude.Dirs, cfg.Exclude.Files, extensions)
	if err != nil {
		return nil, fmt.Errorf("compile exclude patterns: %w", err)
	}

	return &pipeline{
		cfg:         cfg,
		parser:      p,
		fsys:        cached,
		transformer: tr,
		emitter:     em,
		filter:      filter,
		assets:      assets,
	}, nil
}

func buildParserRegistry(cfg *config.Config) (map[string]parser.LanguageSpec, error) {
	overrides := make(map[string]parser.LanguageOverride, len(cfg.Languages))
	for lang, languageCfg := range cfg.Languages {
		overrides[lang] = parser.LanguageOverride{
			Enabled:    languageCfg.Enabled,
			Extensions: append([]string(nil), languageCfg.Extensions...),
		}
	}
	return parser.BuildLanguageRegistry(overrides)
}
