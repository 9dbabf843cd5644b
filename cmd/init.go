package cmd

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Companion-TheCube/todosync/internal/config"
	"github.com/Companion-TheCube/todosync/internal/tododir"
)

// initCommand writes a starter config and its JSON schema into the
// project's .todosync directory.
func initCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("todosync init", flag.ContinueOnError)
	force := fs.Bool("force", false, "Overwrite existing files")
	if err := parseNoArgs(fs, args); err != nil {
		return err
	}

	files := []struct {
		path    string
		content string
	}{
		{tododir.ConfigPath(cfg.ProjectRoot), config.ExampleConfig()},
		{tododir.SchemaPath(cfg.ProjectRoot), config.Schema},
	}

	if err := os.MkdirAll(tododir.DirPath(cfg.ProjectRoot), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", tododir.Dir, err)
	}
	for _, f := range files {
		rel, err := filepath.Rel(cfg.ProjectRoot, f.path)
		if err != nil {
			rel = f.path
		}
		if _, err := os.Stat(f.path); err == nil && !*force {
			fmt.Fprintf(stdout, "Skipping %s (already exists)\n", rel)
			continue
		}
		if err := os.WriteFile(f.path, []byte(f.content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", rel, err)
		}
		fmt.Fprintf(stdout, "Wrote %s\n", rel)
	}
	return nil
}
