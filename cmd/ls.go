package cmd

import (
	"encoding/json"
	"flag"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/Companion-TheCube/todosync/internal/config"
	"github.com/Companion-TheCube/todosync/internal/todo"
)

// lsCommand lists the entries recorded in the tracking document.
func lsCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("todosync ls", flag.ContinueOnError)
	fs.SetOutput(stderr)
	asJSON := fs.Bool("json", false, "Print findings as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	remaining := fs.Args()
	if len(remaining) > 1 {
		return fmt.Errorf("unexpected arguments: %v", remaining[1:])
	}
	prefix := "."
	if len(remaining) == 1 {
		prefix = path.Clean(filepath.ToSlash(remaining[0]))
	}

	doc, err := todo.LoadDocument(cfg.TodoFile, cfg.Title)
	if err != nil {
		return fmt.Errorf("loading tracking document: %w", err)
	}

	findings := make([]todo.Finding, 0, len(doc.Entries))
	for _, f := range doc.Findings() {
		if underPath(f.Path, prefix) {
			findings = append(findings, f)
		}
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(findings)
	}

	if len(findings) == 0 {
		fmt.Fprintln(stdout, "No TODOs recorded.")
		return nil
	}
	for _, f := range findings {
		fmt.Fprintf(stdout, "%s:%d: %s\n", f.Path, f.Line, f.Message)
	}
	fmt.Fprintf(stdout, "\n%d TODOs\n", len(findings))
	return nil
}

// underPath reports whether p is dir itself or lies below it. Both are
// slash-separated and relative to the project root.
func underPath(p, dir string) bool {
	return dir == "." || p == dir || strings.HasPrefix(p, dir+"/")
}
