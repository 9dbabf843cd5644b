package cmd

import (
	"flag"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/Companion-TheCube/todosync/internal/config"
	"github.com/Companion-TheCube/todosync/internal/logging"
	"github.com/Companion-TheCube/todosync/internal/scan"
	"github.com/Companion-TheCube/todosync/internal/todo"
)

// doctorCommand checks config, paths and the tracking document.
func doctorCommand(cws *config.ConfigWithSources, args []string) error {
	fs := flag.NewFlagSet("todosync doctor", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "Verbose output")
	if err := parseNoArgs(fs, args); err != nil {
		return err
	}
	cfg := cws.Config
	w := stdout

	fmt.Fprintln(w, "todosync doctor")
	fmt.Fprintln(w, "===============")
	fmt.Fprintln(w)

	allOK := true

	fmt.Fprintf(w, "Project root: %s\n", cfg.ProjectRoot)
	if !checkDir(cfg.ProjectRoot, true) {
		allOK = false
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Config:")
	if len(cws.Files) == 0 {
		fmt.Fprintln(w, "  ⚠️  No config file (using defaults)")
	}
	for _, f := range cws.Files {
		fmt.Fprintf(w, "  File: %s\n", f)
	}
	if result := config.Validate(cfg); result.Valid {
		fmt.Fprintln(w, "  ✅ Valid")
	} else {
		fmt.Fprintln(w, "  ❌ Validation failed:")
		for _, e := range result.Errors {
			fmt.Fprintf(w, "     - %v\n", e)
		}
		allOK = false
	}
	if *verbose {
		printSources(cws)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Scanner:")
	if _, err := scan.New(cfg.ScanOptions()); err != nil {
		fmt.Fprintf(w, "  ❌ Error: %v\n", err)
		allOK = false
	} else {
		fmt.Fprintf(w, "  ✅ Marker %q, %d extensions, %d ignore patterns\n",
			cfg.Marker, len(cfg.Extensions), len(cfg.Ignore))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Source directory: %s\n", cfg.SourceDir)
	if !checkDir(cfg.SourceDir, true) {
		allOK = false
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Tracking document: %s\n", cfg.TodoFile)
	info, err := os.Stat(cfg.TodoFile)
	switch {
	case os.IsNotExist(err):
		fmt.Fprintln(w, "  ⚠️  Not found (will be created on sync)")
	case err != nil:
		fmt.Fprintf(w, "  ❌ Error: %v\n", err)
		allOK = false
	case info.IsDir():
		fmt.Fprintln(w, "  ❌ Error: path is a directory")
		allOK = false
	default:
		doc, err := todo.LoadDocument(cfg.TodoFile, cfg.Title)
		if err != nil {
			fmt.Fprintf(w, "  ❌ Load error: %v\n", err)
			allOK = false
		} else {
			fmt.Fprintf(w, "  ✅ OK (%d entries, %d freeform lines)\n", len(doc.Entries), len(doc.Freeform))
		}
	}
	fmt.Fprintln(w)

	if cfg.Journal {
		logDir, err := logging.FindLogDir(cfg.LogDir, cfg.ProjectRoot)
		if err != nil {
			fmt.Fprintf(w, "Log directory: %s\n", cfg.LogDir)
			fmt.Fprintf(w, "  ❌ Error: %v\n", err)
			allOK = false
		} else {
			fmt.Fprintf(w, "Log directory: %s\n", logDir)
			if !checkDir(logDir, false) {
				allOK = false
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Build server: %s\n", cfg.BuildServer)
	fmt.Fprintf(w, "Upload URL: %s\n", cfg.ArtifactURL())
	if cfg.Offline {
		fmt.Fprintln(w, "  ⚠️  Offline mode, uploads are skipped")
	}
	fmt.Fprintln(w)

	if allOK {
		fmt.Fprintln(w, "✅ All checks passed!")
		return nil
	}
	fmt.Fprintln(w, "⚠️  Some checks failed. todosync may not function correctly.")
	return fmt.Errorf("doctor checks failed")
}

// checkDir prints the status of a directory. A missing directory is an
// error only when required.
func checkDir(path string, required bool) bool {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err) && !required:
		fmt.Fprintln(stdout, "  ⚠️  Not found (will be created on first run)")
		return true
	case err != nil:
		fmt.Fprintf(stdout, "  ❌ Error: %v\n", err)
		return false
	case !info.IsDir():
		fmt.Fprintln(stdout, "  ❌ Error: path is not a directory")
		return false
	}
	fmt.Fprintln(stdout, "  ✅ OK")
	return true
}

// printSources lists every config value with the layer it came from.
func printSources(cws *config.ConfigWithSources) {
	v := reflect.ValueOf(cws.Config).Elem()
	t := v.Type()
	names := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name := strings.Split(t.Field(i).Tag.Get("toml"), ",")[0]
		if name != "" && name != "-" {
			names[name] = i
		}
	}

	keys := make([]string, 0, len(cws.Sources))
	for k := range cws.Sources {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		value := "?"
		if i, ok := names[k]; ok {
			value = fmt.Sprintf("%v", v.Field(i).Interface())
		}
		fmt.Fprintf(stdout, "  %s = %s (%s)\n", k, value, cws.Sources[k])
	}
}
