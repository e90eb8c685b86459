// Package emit turns rewritten sources into plain JavaScript: TypeScript
// types and JSX are compiled away and the result is optionally minified.
package emit

import (
	"fmt"
	"path"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"modlink/internal/core/errors"
)

type Options struct {
	// JSX is "transform" or "preserve". The automatic runtime is not offered:
	// its injected import would bypass resolution.
	JSX    string
	Minify bool
	// Target is an ECMAScript version such as "es2019", or "esnext".
	Target string
}

func DefaultOptions() Options {
	return Options{JSX: "transform", Target: "esnext"}
}

type Emitter struct {
	opts   Options
	jsx    api.JSX
	target api.Target
}

func New(opts Options) (*Emitter, error) {
	if opts.JSX == "" {
		opts.JSX = "transform"
	}
	if opts.Target == "" {
		opts.Target = "esnext"
	}
	jsx, err := parseJSX(opts.JSX)
	if err != nil {
		return nil, err
	}
	target, err := parseTarget(opts.Target)
	if err != nil {
		return nil, err
	}
	return &Emitter{opts: opts, jsx: jsx, target: target}, nil
}

// Needed reports whether filename must pass through the compiler. esm marks
// code that still carries ES export statements. Plain JavaScript is otherwise
// only compiled when minifying; JSON is never compiled.
func (e *Emitter) Needed(filename string, esm bool) bool {
	switch loaderFor(filename) {
	case api.LoaderTS, api.LoaderTSX:
		return true
	case api.LoaderJSON:
		return false
	}
	if esm {
		return true
	}
	if strings.EqualFold(path.Ext(filename), ".jsx") && e.jsx != api.JSXPreserve {
		return true
	}
	return e.opts.Minify
}

// Emit compiles code to CommonJS. filename picks the loader and is used in
// messages.
func (e *Emitter) Emit(filename, code string, esm bool) ([]byte, error) {
	if !e.Needed(filename, esm) {
		return []byte(code), nil
	}
	result := api.Transform(code, api.TransformOptions{
		Loader:            loaderFor(filename),
		Sourcefile:        filename,
		Format:            api.FormatCommonJS,
		JSX:               e.jsx,
		Target:            e.target,
		MinifyWhitespace:  e.opts.Minify,
		MinifyIdentifiers: e.opts.Minify,
		MinifySyntax:      e.opts.Minify,
		LogLevel:          api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		msg := result.Errors[0]
		de := &errors.DomainError{Code: errors.CodeSyntaxUnsupported, Message: msg.Text}
		de.WithContext(errors.CtxPath, filename).WithContext(errors.CtxOperation, "emit")
		if loc := msg.Location; loc != nil {
			de.WithContext(errors.CtxLine, loc.Line).WithContext(errors.CtxColumn, loc.Column+1)
		}
		return nil, de
	}
	return result.Code, nil
}

// OutputName maps a source file name to the emitted ".js" name.
func OutputName(name string) string {
	ext := path.Ext(name)
	switch strings.ToLower(ext) {
	case ".ts", ".tsx", ".jsx", ".mts", ".cts":
		return strings.TrimSuffix(name, ext) + ".js"
	}
	return name
}

func loaderFor(filename string) api.Loader {
	switch strings.ToLower(path.Ext(filename)) {
	case ".ts", ".mts", ".cts":
		return api.LoaderTS
	case ".tsx":
		return api.LoaderTSX
	case ".json":
		return api.LoaderJSON
	}
	return api.LoaderJSX
}

func parseJSX(mode string) (api.JSX, error) {
	switch mode {
	case "transform":
		return api.JSXTransform, nil
	case "preserve":
		return api.JSXPreserve, nil
	}
	return api.JSXTransform, errors.New(errors.CodeValidationError,
		fmt.Sprintf("invalid jsx mode %q (valid: transform, preserve)", mode))
}

var targets = map[string]api.Target{
	"esnext": api.ESNext,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
}

func parseTarget(name string) (api.Target, error) {
	if t, ok := targets[strings.ToLower(name)]; ok {
		return t, nil
	}
	return api.ESNext, errors.New(errors.CodeValidationError, fmt.Sprintf("invalid target %q", name))
}
