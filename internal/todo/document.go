package todo

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/Companion-TheCube/todosync/internal/utils"
)

// DefaultTitle is the title line of a freshly seeded document.
const DefaultTitle = "# Project TODOs"

// ErrWriteDocument is returned when the tracking document cannot be written.
var ErrWriteDocument = errors.New("write tracking document")

// utf8BOM is the byte order mark some editors prepend to Markdown files.
var utf8BOM = []byte("\xef\xbb\xbf")

// Document is a tracking document split into freeform lines and entries.
type Document struct {
	// BOM records a leading byte order mark, written back on save.
	BOM bool
	// Freeform holds every non-entry line in original order.
	Freeform []string
	// Entries is the set of entry lines, keyed by their exact text.
	Entries map[string]struct{}
}

// NewDocument returns the seed document: a title line and one blank line.
func NewDocument(title string) *Document {
	if title == "" {
		title = DefaultTitle
	}
	return &Document{
		Freeform: []string{title, ""},
		Entries:  make(map[string]struct{}),
	}
}

// ParseDocument partitions raw document content into freeform lines and entries.
func ParseDocument(data []byte) *Document {
	doc := &Document{Entries: make(map[string]struct{})}
	if bytes.HasPrefix(data, utf8BOM) {
		doc.BOM = true
		data = data[len(utf8BOM):]
	}
	for _, line := range utils.SplitLines(string(data)) {
		if IsEntry(line) {
			doc.Entries[line] = struct{}{}
			continue
		}
		doc.Freeform = append(doc.Freeform, line)
	}
	return doc
}

// LoadDocument reads the document at path. A missing file yields the seed
// document for title rather than an error.
func LoadDocument(path, title string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDocument(title), nil
		}
		return nil, fmt.Errorf("read tracking document: %w", err)
	}
	return ParseDocument(data), nil
}

// SortedEntries returns the entry lines in lexicographic order.
func (d *Document) SortedEntries() []string {
	out := make([]string, 0, len(d.Entries))
	for e := range d.Entries {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// Findings decodes the entries back into findings, in entry order.
func (d *Document) Findings() []Finding {
	out := make([]Finding, 0, len(d.Entries))
	for _, e := range d.SortedEntries() {
		if f, ok := Parse(e); ok {
			out = append(out, f)
		}
	}
	return out
}

// Lines returns the document as written: freeform lines, then sorted entries.
func (d *Document) Lines() []string {
	lines := make([]string, 0, len(d.Freeform)+len(d.Entries))
	lines = append(lines, d.Freeform...)
	return append(lines, d.SortedEntries()...)
}

// Bytes renders the document with "\n" separators and a trailing newline,
// restoring the byte order mark if the parsed file had one.
func (d *Document) Bytes() []byte {
	var buf bytes.Buffer
	if d.BOM {
		buf.Write(utf8BOM)
	}
	buf.WriteString(strings.Join(d.Lines(), "\n"))
	buf.WriteByte('\n')
	return buf.Bytes()
}

// Save replaces the file at path with the rendered document. The replace is
// atomic: on failure the previous file is left untouched.
func (d *Document) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w %s: %w", ErrWriteDocument, path, err)
		}
	}
	_, statErr := os.Stat(path)
	existed := statErr == nil

	if err := atomic.WriteFile(path, bytes.NewReader(d.Bytes())); err != nil {
		return fmt.Errorf("%w %s: %w", ErrWriteDocument, path, err)
	}

	// atomic.WriteFile creates new files from a 0600 temp file
	if !existed {
		if err := os.Chmod(path, 0o644); err != nil {
			return fmt.Errorf("%w %s: %w", ErrWriteDocument, path, err)
		}
	}
	return nil
}
