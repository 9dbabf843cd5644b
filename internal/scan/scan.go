// Package scan discovers marker annotations (TODO by default) in a source tree.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gobwas/glob"

	"github.com/Companion-TheCube/todosync/internal/parallel"
	"github.com/Companion-TheCube/todosync/internal/todo"
	"github.com/Companion-TheCube/todosync/internal/utils"
)

// Defaults used when Options leave a field empty.
const (
	DefaultMarker      = "TODO"
	DefaultPlaceholder = "(no description)"
)

// DefaultExtensions is the allow-list of source file extensions.
var DefaultExtensions = []string{
	".c", ".cpp", ".cc", ".cxx", ".h", ".hpp", ".hh", ".py", ".js", ".ts", ".cs",
}

// ErrMissingRoot is returned when the scan root does not exist or is not a directory.
var ErrMissingRoot = errors.New("scan root missing or not a directory")

// Options configures a Scanner.
type Options struct {
	// BaseDir is the directory finding paths are made relative to.
	// Defaults to the scan root.
	BaseDir string
	// Extensions is the case-insensitive allow-list of file extensions.
	Extensions []string
	// Marker is the keyword to look for, matched case-insensitively as a whole word.
	Marker string
	// Placeholder replaces an empty message.
	Placeholder string
	// Ignore holds glob patterns. A file or directory is skipped when a
	// pattern matches its slash-separated path relative to the scan root,
	// or its base name.
	Ignore []string
	// Decode selects how undecodable bytes are handled.
	Decode DecodePolicy
	// Workers bounds how many files are read at once. Zero or one reads
	// them sequentially.
	Workers int
	// Logger receives skip and warning messages. Nil discards them.
	Logger *log.Logger
}

// SkippedFile records a file whose contents could not be read.
type SkippedFile struct {
	Path string
	Err  error
}

// Scanner walks a directory tree and extracts findings.
type Scanner struct {
	baseDir     string
	exts        map[string]bool
	marker      *regexp.Regexp
	placeholder string
	ignore      []glob.Glob
	decode      DecodePolicy
	workers     int
	logger      *log.Logger
	skipped     []SkippedFile
}

// New builds a Scanner from opts, filling in defaults.
func New(opts Options) (*Scanner, error) {
	marker := opts.Marker
	if marker == "" {
		marker = DefaultMarker
	}
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(marker) + `\b`)
	if err != nil {
		return nil, fmt.Errorf("compile marker %q: %w", marker, err)
	}

	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	extSet := make(map[string]bool)
	for _, ext := range utils.NormalizeExtensions(exts) {
		extSet[ext] = true
	}

	ignore := make([]glob.Glob, 0, len(opts.Ignore))
	for _, pattern := range opts.Ignore {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("compile ignore pattern %q: %w", pattern, err)
		}
		ignore = append(ignore, g)
	}

	decode := opts.Decode
	if decode == "" {
		decode = DecodeDrop
	}
	placeholder := opts.Placeholder
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Scanner{
		baseDir:     opts.BaseDir,
		exts:        extSet,
		marker:      re,
		placeholder: placeholder,
		ignore:      ignore,
		decode:      decode,
		workers:     workers,
		logger:      logger,
	}, nil
}

// Skipped returns the files the last Scan could not read.
func (s *Scanner) Skipped() []SkippedFile {
	return s.skipped
}

// Scan walks root and returns every finding in files on the allow-list.
// Unreadable files are logged and skipped; a missing root or a directory
// that cannot be listed fails the whole scan.
func (s *Scanner) Scan(root string) (todo.FindingSet, error) {
	s.skipped = nil

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMissingRoot, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrMissingRoot, root)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve scan root: %w", err)
	}
	baseDir := absRoot
	if s.baseDir != "" {
		if baseDir, err = filepath.Abs(s.baseDir); err != nil {
			return nil, fmt.Errorf("resolve base dir: %w", err)
		}
	}

	// Walk first so a directory error fails the scan before any file is read
	var files []string
	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", path, err)
		}
		if path == absRoot {
			return nil
		}

		rel, _ := filepath.Rel(absRoot, path)
		if s.ignored(filepath.ToSlash(rel), d.Name()) {
			s.logger.Debug("Ignoring path", "path", rel)
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() || !s.regularFile(path, d) || !s.HasSourceExt(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	findings := make(todo.FindingSet)
	for _, r := range s.readAll(baseDir, files) {
		if r.Err != nil {
			s.logger.Warn("Skipping unreadable file", "path", r.ID, "err", r.Err)
			s.skipped = append(s.skipped, SkippedFile{Path: r.ID, Err: r.Err})
			continue
		}
		for _, f := range r.Value {
			findings.Add(f)
		}
	}
	s.logger.Debug("Scan complete", "files", len(files), "findings", len(findings))

	return findings, nil
}

// readAll scans files, concurrently when more than one worker is configured.
// Results are in the order of files.
func (s *Scanner) readAll(baseDir string, files []string) []parallel.Result[[]todo.Finding] {
	relPath := func(path string) string {
		rel, err := filepath.Rel(baseDir, path)
		if err != nil {
			return filepath.ToSlash(path)
		}
		return filepath.ToSlash(rel)
	}

	if s.workers == 1 {
		results := make([]parallel.Result[[]todo.Finding], 0, len(files))
		for _, path := range files {
			rel := relPath(path)
			found, err := s.ScanFile(path, rel)
			results = append(results, parallel.Result[[]todo.Finding]{ID: rel, Value: found, Err: err})
		}
		return results
	}

	pool := parallel.NewWorkerPool[[]todo.Finding](context.Background(), s.workers, false)
	for _, path := range files {
		path := path
		rel := relPath(path)
		pool.Submit(rel, func() ([]todo.Finding, error) {
			return s.ScanFile(path, rel)
		})
	}
	results, _ := pool.Wait()
	return results
}

// ScanFile extracts findings from a single file, labelling them with relPath.
func (s *Scanner) ScanFile(path, relPath string) ([]todo.Finding, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	text, err := s.decode.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	var out []todo.Finding
	for i, line := range utils.SplitLines(text) {
		msg, ok := s.MatchLine(line)
		if !ok {
			continue
		}
		out = append(out, todo.Finding{Path: relPath, Line: i + 1, Message: msg})
	}
	return out, nil
}

// MatchLine reports whether line carries the marker and returns its message:
// the text after the first marker occurrence, trimmed, or the placeholder
// when nothing is left.
func (s *Scanner) MatchLine(line string) (string, bool) {
	loc := s.marker.FindStringIndex(line)
	if loc == nil {
		return "", false
	}
	msg := strings.TrimSpace(line[loc[1]:])
	if msg == "" {
		msg = s.placeholder
	}
	return msg, true
}

// HasSourceExt reports whether path has an extension on the allow-list.
func (s *Scanner) HasSourceExt(path string) bool {
	return s.exts[strings.ToLower(filepath.Ext(path))]
}

func (s *Scanner) ignored(rel, name string) bool {
	for _, g := range s.ignore {
		if g.Match(rel) || g.Match(name) {
			return true
		}
	}
	return false
}

// regularFile reports whether the entry is a regular file, following symlinks.
// Symlinks to directories are never descended into.
func (s *Scanner) regularFile(path string, d fs.DirEntry) bool {
	if d.Type()&fs.ModeSymlink == 0 {
		return d.Type().IsRegular()
	}
	info, err := os.Stat(path)
	if err != nil {
		s.logger.Debug("Skipping broken symlink", "path", path)
		return false
	}
	return info.Mode().IsRegular()
}
