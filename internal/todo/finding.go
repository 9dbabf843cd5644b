package todo

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// entryPattern is the structural predicate for entry lines. The path is
// the shortest prefix followed by ":<line>]" and whitespace, so paths may
// hold colons and brackets and messages may hold "] ".
var entryPattern = regexp.MustCompile(`^- \[(.+?):([1-9][0-9]*)\]\s+(.*)$`)

// Finding is a single marker occurrence discovered in a source file.
// Findings compare structurally, so two scans of an unchanged file
// produce equal values.
type Finding struct {
	Path    string `json:"path"` // slash-separated, relative to the project root
	Line    int    `json:"line"` // 1-based
	Message string `json:"message"`
}

// String returns the entry encoding of the finding.
func (f Finding) String() string {
	return Render(f)
}

// Render encodes a finding as a document entry line.
func Render(f Finding) string {
	return fmt.Sprintf("- [%s:%d] %s", f.Path, f.Line, f.Message)
}

// IsEntry reports whether line has the entry shape, including the
// bracketed path:line prefix.
func IsEntry(line string) bool {
	return entryPattern.MatchString(line)
}

// Parse decodes an entry line back into a finding.
func Parse(line string) (Finding, bool) {
	m := entryPattern.FindStringSubmatch(line)
	if m == nil {
		return Finding{}, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return Finding{}, false
	}
	return Finding{Path: m[1], Line: n, Message: m[3]}, true
}

// FindingSet is an unordered set of findings.
type FindingSet map[Finding]struct{}

// NewFindingSet returns a set holding the given findings.
func NewFindingSet(findings ...Finding) FindingSet {
	s := make(FindingSet, len(findings))
	for _, f := range findings {
		s[f] = struct{}{}
	}
	return s
}

// Add inserts f into the set.
func (s FindingSet) Add(f Finding) {
	s[f] = struct{}{}
}

// Has reports whether f is in the set.
func (s FindingSet) Has(f Finding) bool {
	_, ok := s[f]
	return ok
}

// Entries returns the set of rendered entry lines.
func (s FindingSet) Entries() map[string]struct{} {
	entries := make(map[string]struct{}, len(s))
	for f := range s {
		entries[Render(f)] = struct{}{}
	}
	return entries
}

// Sorted returns the findings ordered by path, then line, then message.
func (s FindingSet) Sorted() []Finding {
	out := make([]Finding, 0, len(s))
	for f := range s {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].Message < out[j].Message
	})
	return out
}
