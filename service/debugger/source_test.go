package debugger

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSource(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.c")
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadSourceContext(t *testing.T) {
	path := writeSource(t, "one\ntwo\nthree\nfour\nfive\nsix\n")
	ctx := ReadSourceContext(path, 3, 2)
	if len(ctx) != 5 {
		t.Fatalf("got %d lines, want 5", len(ctx))
	}
	if ctx[0].Line != 1 || ctx[4].Line != 5 {
		t.Errorf("range = %d..%d, want 1..5", ctx[0].Line, ctx[4].Line)
	}
	for _, l := range ctx {
		if l.Current != (l.Line == 3) {
			t.Errorf("line %d current = %v", l.Line, l.Current)
		}
	}
	if ctx[2].Text != "three" {
		t.Errorf("line 3 text = %q", ctx[2].Text)
	}
}

func TestReadSourceContextClampsAtEdges(t *testing.T) {
	path := writeSource(t, "one\ntwo\nthree\n")
	ctx := ReadSourceContext(path, 1, 2)
	if len(ctx) == 0 || ctx[0].Line != 1 {
		t.Fatalf("context at line 1 = %+v", ctx)
	}
	if ctx[len(ctx)-1].Line != 3 {
		t.Errorf("last line = %d, want 3", ctx[len(ctx)-1].Line)
	}
}

func TestReadSourceContextUnavailable(t *testing.T) {
	if ctx := ReadSourceContext("", 3, 2); ctx != nil {
		t.Errorf("empty file path: %+v", ctx)
	}
	if ctx := ReadSourceContext("/does/not/exist.c", 3, 2); ctx != nil {
		t.Errorf("missing file: %+v", ctx)
	}
	if ctx := ReadSourceContext(writeSource(t, "one\n"), 0, 2); ctx != nil {
		t.Errorf("unknown line: %+v", ctx)
	}
}
