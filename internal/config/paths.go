package config

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
)

// windowsVar matches a %NAME% reference.
var windowsVar = regexp.MustCompile(`%([^%\s]+)%`)

// resolvePath expands p and anchors it at root unless it is already
// absolute. Every path setting in a config file means "relative to the
// project", never "relative to the working directory".
func resolvePath(root, p string) string {
	p = expandPath(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

// relPath returns target relative to root, or target unchanged when no
// relative form exists (different volumes on Windows).
func relPath(root, target string) string {
	if rel, err := filepath.Rel(root, target); err == nil {
		return rel
	}
	return target
}

// expandPath expands environment variables and a leading ~ in p.
// On Windows %NAME% references and a ~\ prefix are understood as well.
func expandPath(p string) string {
	if p == "" {
		return p
	}
	p = os.ExpandEnv(p)
	if runtime.GOOS == "windows" {
		p = expandWindowsEnv(p)
	}

	rest, ok := strings.CutPrefix(p, "~")
	if !ok || (rest != "" && !isHomeSep(rest[0])) {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if rest == "" {
		return home
	}
	return filepath.Join(home, rest[1:])
}

func isHomeSep(c byte) bool {
	return c == '/' || (runtime.GOOS == "windows" && c == '\\')
}

// expandWindowsEnv replaces %NAME% with the variable's value. Unset
// variables are left as written.
func expandWindowsEnv(p string) string {
	if !strings.Contains(p, "%") {
		return p
	}
	return windowsVar.ReplaceAllStringFunc(p, func(ref string) string {
		if val, ok := os.LookupEnv(ref[1 : len(ref)-1]); ok {
			return val
		}
		return ref
	})
}
