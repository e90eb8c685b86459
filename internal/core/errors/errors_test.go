package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeFileNotFound, "module not found")
		if err.Error() != "[FILE_NOT_FOUND] module not found" {
			t.Errorf("expected [FILE_NOT_FOUND] module not found, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("original error")
		err := Wrap(original, CodeInternal, "internal failure")
		expected := "[INTERNAL_ERROR] internal failure: original error"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
		if !errors.Is(err, original) {
			t.Error("expected wrapped error to unwrap to original")
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodePackageNotFound, "missing package")
		if !IsCode(err, CodePackageNotFound) {
			t.Error("expected IsCode to return true for CodePackageNotFound")
		}
		if IsCode(err, CodeFileNotFound) {
			t.Error("expected IsCode to return false for CodeFileNotFound")
		}
	})

	t.Run("IsCodeThroughFmtWrap", func(t *testing.T) {
		err := fmt.Errorf("transform app.js: %w", New(CodeSyntaxUnsupported, "bad tree"))
		if !IsCode(err, CodeSyntaxUnsupported) {
			t.Error("expected IsCode to see through fmt.Errorf wrapping")
		}
		if CodeOf(err) != CodeSyntaxUnsupported {
			t.Errorf("expected CodeOf SYNTAX_UNSUPPORTED, got %q", CodeOf(err))
		}
	})

	t.Run("ContextIsSortedInMessage", func(t *testing.T) {
		err := New(CodeFileNotFound, "module not found")
		err = AddContext(err, CtxSpecifier, "./a")
		err = AddContext(err, CtxImporter, "/app")
		expected := "[FILE_NOT_FOUND] module not found {importer=/app specifier=./a}"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
		v, ok := ContextValue(err, CtxSpecifier)
		if !ok || v != "./a" {
			t.Errorf("expected specifier context ./a, got %v", v)
		}
	})

	t.Run("AddContextWrapsPlainErrors", func(t *testing.T) {
		err := AddContext(errors.New("boom"), CtxPath, "a.js")
		if !IsCode(err, CodeInternal) {
			t.Error("expected plain error to be wrapped as INTERNAL_ERROR")
		}
	})
}
