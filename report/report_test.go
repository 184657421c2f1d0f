package report

import (
	"fmt"
	"testing"
)

// Test that error kinds survive wrapping.
func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("building: %w", Raise(CircularImport, nil, "circular import: %s", "a"))

	kind, ok := KindOf(err)
	if !ok {
		t.Fatal("expected a compile error")
	}

	if kind != CircularImport {
		t.Fatalf("expected CircularImport, got %s", kind)
	}

	if !IsKind(err, CircularImport) || IsKind(err, DuplicateModule) {
		t.Error("IsKind disagrees with KindOf")
	}

	if _, ok := KindOf(fmt.Errorf("plain")); ok {
		t.Error("plain errors have no kind")
	}
}

// Test that module paths are attached once.
func TestInModule(t *testing.T) {
	cerr := Raise(UnresolvedSymbol, &TextSpan{StartLine: 2, StartCol: 4}, "variable not found with name: %s", "x")

	InModule(cerr, "a.requite")
	InModule(cerr, "b.requite")

	if cerr.ModulePath != "a.requite" {
		t.Fatalf("expected first module path to stick, got %s", cerr.ModulePath)
	}

	if got := cerr.Error(); got != "a.requite:3:5: variable not found with name: x" {
		t.Errorf("unexpected error string: %s", got)
	}
}

// Test span merging.
func TestNewSpanOver(t *testing.T) {
	a := &TextSpan{StartLine: 1, StartCol: 2, EndLine: 1, EndCol: 5}
	b := &TextSpan{StartLine: 3, StartCol: 0, EndLine: 3, EndCol: 7}

	s := NewSpanOver(a, b)
	if s.StartLine != 1 || s.StartCol != 2 || s.EndLine != 3 || s.EndCol != 7 {
		t.Errorf("bad span: %+v", *s)
	}

	if NewSpanOver(nil, b) != b || NewSpanOver(a, nil) != a {
		t.Error("nil spans should yield the other span")
	}
}

// Test log level names.
func TestLogLevelFromName(t *testing.T) {
	if lvl, err := LogLevelFromName(""); err != nil || lvl != LogLevelVerbose {
		t.Errorf("default log level should be verbose")
	}

	if lvl, err := LogLevelFromName("warn"); err != nil || lvl != LogLevelWarn {
		t.Errorf("bad warn log level")
	}

	if _, err := LogLevelFromName("loud"); err == nil {
		t.Error("expected error for unknown log level")
	}
}

// Test caret highlighting.
func TestCaretLine(t *testing.T) {
	span := &TextSpan{StartLine: 0, StartCol: 2, EndLine: 0, EndCol: 5}
	if got := caretLine("a bcd e", true, true, span); got != "  ^^^" {
		t.Errorf("unexpected carets: %q", got)
	}
}
