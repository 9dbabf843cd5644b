package scan

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/Companion-TheCube/todosync/internal/todo"
)

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func mustScanner(t *testing.T, opts Options) *Scanner {
	t.Helper()
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func TestScanFindsMarkerWithLineNumber(t *testing.T) {
	root := t.TempDir()
	content := strings.Repeat("x = 1\n", 6) + "# TODO fix parsing\n"
	mustWrite(t, filepath.Join(root, "a.py"), content)

	findings, err := mustScanner(t, Options{}).Scan(root)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	want := todo.NewFindingSet(todo.Finding{Path: "a.py", Line: 7, Message: "fix parsing"})
	if len(findings) != 1 || !findings.Has(todo.Finding{Path: "a.py", Line: 7, Message: "fix parsing"}) {
		t.Errorf("findings = %v, want %v", findings.Sorted(), want.Sorted())
	}
}

func TestScanExtensionFilter(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "keep.cpp"), "// TODO cpp\n")
	mustWrite(t, filepath.Join(root, "UPPER.HPP"), "// TODO upper\n")
	mustWrite(t, filepath.Join(root, "notes.txt"), "TODO text\n")
	mustWrite(t, filepath.Join(root, "Makefile"), "# TODO make\n")
	mustWrite(t, filepath.Join(root, "sub", "deep", "x.ts"), "// TODO deep\n")

	findings, err := mustScanner(t, Options{}).Scan(root)
	if err != nil {
		t.Fatal(err)
	}

	var paths []string
	for _, f := range findings.Sorted() {
		paths = append(paths, f.Path)
	}
	want := []string{"UPPER.HPP", "keep.cpp", "sub/deep/x.ts"}
	if strings.Join(paths, ",") != strings.Join(want, ",") {
		t.Errorf("paths = %v, want %v", paths, want)
	}
}

func TestScanCustomExtensions(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "main.go"), "// TODO go\n")
	mustWrite(t, filepath.Join(root, "main.cpp"), "// TODO cpp\n")

	findings, err := mustScanner(t, Options{Extensions: []string{"GO"}}).Scan(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(findings) != 1 || !findings.Has(todo.Finding{Path: "main.go", Line: 1, Message: "go"}) {
		t.Errorf("findings = %v", findings.Sorted())
	}
}

func TestMatchLine(t *testing.T) {
	s := mustScanner(t, Options{})

	tests := []struct {
		line    string
		want    string
		matched bool
	}{
		{line: "# TODO fix parsing", want: "fix parsing", matched: true},
		{line: "// TODO", want: DefaultPlaceholder, matched: true},
		{line: "// TODO   ", want: DefaultPlaceholder, matched: true},
		{line: "// todo: lower case", want: ": lower case", matched: true},
		{line: "x() // ToDo mixed", want: "mixed", matched: true},
		{line: "// TODO first TODO second", want: "first TODO second", matched: true},
		{line: "/* TODO(bob) */", want: "(bob) */", matched: true},
		{line: "// TODOS plural", matched: false},
		{line: "// mastodon", matched: false},
		{line: "// NOTODO", matched: false},
		{line: "plain code", matched: false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := s.MatchLine(tt.line)
			if ok != tt.matched {
				t.Fatalf("MatchLine(%q) matched = %v, want %v", tt.line, ok, tt.matched)
			}
			if ok && got != tt.want {
				t.Errorf("MatchLine(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestCustomMarkerAndPlaceholder(t *testing.T) {
	s := mustScanner(t, Options{Marker: "FIXME", Placeholder: "-"})
	if msg, ok := s.MatchLine("// fixme"); !ok || msg != "-" {
		t.Errorf("MatchLine = %q, %v", msg, ok)
	}
	if _, ok := s.MatchLine("// TODO"); ok {
		t.Error("default marker matched with custom marker configured")
	}
}

func TestScanLineTerminators(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "crlf.c"), "a\r\nb\r\n// TODO three\r\n")
	mustWrite(t, filepath.Join(root, "cr.c"), "a\r// TODO two\r")

	findings, err := mustScanner(t, Options{}).Scan(root)
	if err != nil {
		t.Fatal(err)
	}
	if !findings.Has(todo.Finding{Path: "crlf.c", Line: 3, Message: "three"}) {
		t.Errorf("crlf finding missing: %v", findings.Sorted())
	}
	if !findings.Has(todo.Finding{Path: "cr.c", Line: 2, Message: "two"}) {
		t.Errorf("cr finding missing: %v", findings.Sorted())
	}
}

func TestScanInvalidUTF8(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "bad.c"), "// TODO caf\xe9 bar\n// TODO ok\n")

	t.Run("drop", func(t *testing.T) {
		findings, err := mustScanner(t, Options{Decode: DecodeDrop}).Scan(root)
		if err != nil {
			t.Fatal(err)
		}
		if !findings.Has(todo.Finding{Path: "bad.c", Line: 1, Message: "caf bar"}) {
			t.Errorf("findings = %v", findings.Sorted())
		}
		if !findings.Has(todo.Finding{Path: "bad.c", Line: 2, Message: "ok"}) {
			t.Errorf("findings = %v", findings.Sorted())
		}
	})

	t.Run("replace", func(t *testing.T) {
		findings, err := mustScanner(t, Options{Decode: DecodeReplace}).Scan(root)
		if err != nil {
			t.Fatal(err)
		}
		if !findings.Has(todo.Finding{Path: "bad.c", Line: 1, Message: "caf\uFFFD bar"}) {
			t.Errorf("findings = %v", findings.Sorted())
		}
	})
}

func TestScanStripsBOM(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "bom.h"), "\xef\xbb\xbfTODO first line\n")

	findings, err := mustScanner(t, Options{}).Scan(root)
	if err != nil {
		t.Fatal(err)
	}
	if !findings.Has(todo.Finding{Path: "bom.h", Line: 1, Message: "first line"}) {
		t.Errorf("findings = %v", findings.Sorted())
	}
}

func TestScanBaseDir(t *testing.T) {
	project := t.TempDir()
	mustWrite(t, filepath.Join(project, "src", "gui", "renderer.cpp"), "// TODO resize\n")

	s := mustScanner(t, Options{BaseDir: project})
	findings, err := s.Scan(filepath.Join(project, "src"))
	if err != nil {
		t.Fatal(err)
	}
	if !findings.Has(todo.Finding{Path: "src/gui/renderer.cpp", Line: 1, Message: "resize"}) {
		t.Errorf("findings = %v", findings.Sorted())
	}
}

func TestScanIgnorePatterns(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "keep.c"), "// TODO keep\n")
	mustWrite(t, filepath.Join(root, "third_party", "lib.c"), "// TODO vendored\n")
	mustWrite(t, filepath.Join(root, "gen", "out.pb.cc"), "// TODO generated\n")

	s := mustScanner(t, Options{Ignore: []string{"third_party", "**/*.pb.cc"}})
	findings, err := s.Scan(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(findings) != 1 || !findings.Has(todo.Finding{Path: "keep.c", Line: 1, Message: "keep"}) {
		t.Errorf("findings = %v", findings.Sorted())
	}
}

func TestScanMissingRoot(t *testing.T) {
	s := mustScanner(t, Options{})

	_, err := s.Scan(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, ErrMissingRoot) {
		t.Errorf("missing dir: error = %v, want ErrMissingRoot", err)
	}

	file := filepath.Join(t.TempDir(), "file.c")
	mustWrite(t, file, "")
	_, err = s.Scan(file)
	if !errors.Is(err, ErrMissingRoot) {
		t.Errorf("file root: error = %v, want ErrMissingRoot", err)
	}
}

func TestScanSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root := t.TempDir()
	outside := t.TempDir()
	mustWrite(t, filepath.Join(outside, "ext.c"), "// TODO outside\n")
	mustWrite(t, filepath.Join(outside, "target.c"), "// TODO via link\n")

	if err := os.Symlink(outside, filepath.Join(root, "linkdir")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(outside, "target.c"), filepath.Join(root, "link.c")); err != nil {
		t.Fatal(err)
	}

	findings, err := mustScanner(t, Options{}).Scan(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(findings) != 1 || !findings.Has(todo.Finding{Path: "link.c", Line: 1, Message: "via link"}) {
		t.Errorf("findings = %v", findings.Sorted())
	}
}

func TestScanSkipsUnreadableFile(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "ok.c"), "// TODO ok\n")
	locked := filepath.Join(root, "locked.c")
	mustWrite(t, locked, "// TODO hidden\n")
	if err := os.Chmod(locked, 0); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0644) })

	s := mustScanner(t, Options{})
	findings, err := s.Scan(root)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(findings) != 1 {
		t.Errorf("findings = %v", findings.Sorted())
	}
	if skipped := s.Skipped(); len(skipped) != 1 || skipped[0].Path != "locked.c" {
		t.Errorf("Skipped() = %v", skipped)
	}
}

func TestScanIsDeterministic(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.c", "b.c", "c/d.c", "c/e.h"} {
		mustWrite(t, filepath.Join(root, name), "int x;\n// TODO "+name+"\n")
	}
	s := mustScanner(t, Options{})

	first, err := s.Scan(root)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Scan(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 4 || len(first) != len(second) {
		t.Fatalf("sizes differ: %d vs %d", len(first), len(second))
	}
	for f := range first {
		if !second.Has(f) {
			t.Errorf("second scan missing %v", f)
		}
	}
}

func TestParseDecodePolicy(t *testing.T) {
	for in, want := range map[string]DecodePolicy{"": DecodeDrop, "drop": DecodeDrop, "REPLACE": DecodeReplace} {
		got, err := ParseDecodePolicy(in)
		if err != nil || got != want {
			t.Errorf("ParseDecodePolicy(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseDecodePolicy("strict"); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestHasSourceExt(t *testing.T) {
	s := mustScanner(t, Options{Extensions: []string{"cpp", ".H"}})
	for path, want := range map[string]bool{
		"a/b.cpp":  true,
		"B.CPP":    true,
		"x.h":      true,
		"x.hpp":    false,
		"Makefile": false,
	} {
		if got := s.HasSourceExt(path); got != want {
			t.Errorf("HasSourceExt(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestScanWorkersAgree(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 40; i++ {
		dir := filepath.Join(root, fmt.Sprintf("d%d", i%5))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		content := fmt.Sprintf("// TODO item %d\nint x;\n// todo: second %d\n", i, i)
		if err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("f%d.c", i)), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	serial, err := mustScanner(t, Options{Workers: 1}).Scan(root)
	if err != nil {
		t.Fatalf("serial scan failed: %v", err)
	}
	concurrent, err := mustScanner(t, Options{Workers: 8}).Scan(root)
	if err != nil {
		t.Fatalf("concurrent scan failed: %v", err)
	}
	if len(serial) != 80 {
		t.Errorf("serial scan found %d, want 80", len(serial))
	}
	if !reflect.DeepEqual(serial.Sorted(), concurrent.Sorted()) {
		t.Error("worker count changed the scan result")
	}
}
