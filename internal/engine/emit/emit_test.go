package emit

import (
	"strings"
	"testing"

	"modlink/internal/core/errors"
)

func TestEmit(t *testing.T) {
	e, err := New(DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	t.Run("strips types", func(t *testing.T) {
		out, err := e.Emit("util.ts", "const n: number = 1;\nexport const util = require(\"/a.js\");\n", true)
		if err != nil {
			t.Fatal(err)
		}
		got := string(out)
		if strings.Contains(got, ": number") {
			t.Fatalf("type annotation survived: %q", got)
		}
		if !strings.Contains(got, `require("/a.js")`) {
			t.Fatalf("require call was not preserved: %q", got)
		}
	})

	t.Run("compiles jsx", func(t *testing.T) {
		out, err := e.Emit("view.jsx", "const v = <div />;\n", false)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(out), "React.createElement") {
			t.Fatalf("expected createElement call, got %q", out)
		}
	})

	t.Run("plain javascript passes through", func(t *testing.T) {
		src := "const  a = require(\"/a.js\") ;\n"
		out, err := e.Emit("index.js", src, false)
		if err != nil {
			t.Fatal(err)
		}
		if string(out) != src {
			t.Fatalf("expected untouched source, got %q", out)
		}
	})

	t.Run("reports syntax errors", func(t *testing.T) {
		_, err := e.Emit("bad.ts", "const = ;\n", false)
		if !errors.IsCode(err, errors.CodeSyntaxUnsupported) {
			t.Fatalf("expected SYNTAX_UNSUPPORTED, got %v", err)
		}
		if line, ok := errors.ContextValue(err, errors.CtxLine); !ok || line != 1 {
			t.Fatalf("expected line 1 context, got %v", line)
		}
	})
}

func TestEmitProducesCommonJS(t *testing.T) {
	e, err := New(DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name     string
		filename string
		code     string
		esm      bool
	}{
		{"typescript with lowered re-export", "mod.ts", "_exportStar(require(\"/a.js\"), module.exports);\nexport const x: number = 1;\n", true},
		{"javascript with local export", "mod.js", "const a = require(\"/a.js\");\nexport default a;\n", true},
		{"jsx with local export", "view.jsx", "const a = require(\"/a.js\");\nexport const v = <div>{a}</div>;\n", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := e.Emit(tc.filename, tc.code, tc.esm)
			if err != nil {
				t.Fatal(err)
			}
			got := string(out)
			for _, line := range strings.Split(got, "\n") {
				trimmed := strings.TrimSpace(line)
				if strings.HasPrefix(trimmed, "export ") || strings.HasPrefix(trimmed, "import ") {
					t.Fatalf("ES module syntax survived: %q", got)
				}
			}
			if !strings.Contains(got, `require("/a.js")`) {
				t.Fatalf("require call was not preserved: %q", got)
			}
			if !strings.Contains(got, "module.exports") {
				t.Fatalf("expected CommonJS exports, got %q", got)
			}
		})
	}
}

func TestEmitMinify(t *testing.T) {
	e, err := New(Options{Minify: true})
	if err != nil {
		t.Fatal(err)
	}
	if !e.Needed("index.js", false) {
		t.Fatal("minify must compile plain javascript")
	}
	out, err := e.Emit("index.js", "const a = require(\"/a.js\");\n\n\nconsole.log(a);\n", false)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(string(out), "\n") > 1 {
		t.Fatalf("expected minified output, got %q", out)
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	if _, err := New(Options{JSX: "react"}); !errors.IsCode(err, errors.CodeValidationError) {
		t.Fatalf("expected VALIDATION_ERROR for jsx mode, got %v", err)
	}
	if _, err := New(Options{JSX: "automatic"}); !errors.IsCode(err, errors.CodeValidationError) {
		t.Fatalf("expected VALIDATION_ERROR for the automatic runtime, got %v", err)
	}
	if _, err := New(Options{Target: "es3"}); !errors.IsCode(err, errors.CodeValidationError) {
		t.Fatalf("expected VALIDATION_ERROR for target, got %v", err)
	}
}

func TestOutputName(t *testing.T) {
	cases := map[string]string{
		"a.ts":         "a.js",
		"ui/View.tsx":  "ui/View.js",
		"ui/Old.jsx":   "ui/Old.js",
		"plain.js":     "plain.js",
		"lib/mod.mjs":  "lib/mod.mjs",
		"data.json":    "data.json",
		"legacy.CTS":   "legacy.js",
	}
	for in, want := range cases {
		if got := OutputName(in); got != want {
			t.Errorf("OutputName(%q) = %q, want %q", in, got, want)
		}
	}
}
