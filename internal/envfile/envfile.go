// Package envfile reads KEY=value environment files such as a project's .env.
package envfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Parse reads KEY=value lines from r. Blank lines, # comments and lines
// without "=" are skipped. Keys and values are trimmed and an optional
// "export " prefix is dropped. Values keep any quotes; later keys win.
func Parse(r io.Reader) (map[string]string, error) {
	vars := make(map[string]string)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		key, value, ok := parseLine(sc.Text())
		if !ok {
			continue
		}
		vars[key] = value
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read env file: %w", err)
	}
	return vars, nil
}

// Lookup returns the value of key in r, and whether it was present.
func Lookup(r io.Reader, key string) (string, bool, error) {
	vars, err := Parse(r)
	if err != nil {
		return "", false, err
	}
	v, ok := vars[key]
	return v, ok, nil
}

// Load parses the env file at path.
func Load(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open env file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func parseLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	line = strings.TrimPrefix(line, "export ")
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", false
	}
	return key, strings.TrimSpace(value), true
}
