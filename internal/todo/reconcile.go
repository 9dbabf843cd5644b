package todo

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
)

// DiffResult is the outcome of comparing recorded entries with discovered ones.
// All slices are sorted.
type DiffResult struct {
	Added   []string
	Removed []string
	Kept    []string
}

// Diff computes which entries to add, remove and keep. It is a pure function
// of its two inputs.
func Diff(existing, discovered map[string]struct{}) DiffResult {
	var res DiffResult
	for e := range discovered {
		if _, ok := existing[e]; !ok {
			res.Added = append(res.Added, e)
		}
	}
	for e := range existing {
		if _, ok := discovered[e]; ok {
			res.Kept = append(res.Kept, e)
		} else {
			res.Removed = append(res.Removed, e)
		}
	}
	sort.Strings(res.Added)
	sort.Strings(res.Removed)
	sort.Strings(res.Kept)
	return res
}

// Final returns kept plus added, sorted.
func (r DiffResult) Final() []string {
	out := make([]string, 0, len(r.Kept)+len(r.Added))
	out = append(out, r.Kept...)
	out = append(out, r.Added...)
	sort.Strings(out)
	return out
}

// Apply replaces the document's entries with the final set of diff.
func (d *Document) Apply(diff DiffResult) {
	entries := make(map[string]struct{}, len(diff.Kept)+len(diff.Added))
	for _, e := range diff.Kept {
		entries[e] = struct{}{}
	}
	for _, e := range diff.Added {
		entries[e] = struct{}{}
	}
	d.Entries = entries
}

// ReconcileOptions controls a reconcile run.
type ReconcileOptions struct {
	// Title seeds a document that does not exist yet.
	Title string
	// DryRun computes the result without writing the document.
	DryRun bool
}

// Result summarizes a reconcile run.
type Result struct {
	Path           string
	Added          int
	Removed        int
	Total          int
	AddedEntries   []string
	RemovedEntries []string
	// Changed is true when the rendered document differs from the file on disk.
	Changed bool
	// Written is true when the document was saved.
	Written bool
}

// Reconcile synchronizes the document at path with findings: entries that
// are no longer discovered are dropped, new ones are added, and freeform
// lines are kept verbatim.
func Reconcile(path string, findings FindingSet, opts ReconcileOptions) (*Result, error) {
	var doc *Document
	previous, err := os.ReadFile(path)
	missing := false
	switch {
	case err == nil:
		doc = ParseDocument(previous)
	case errors.Is(err, os.ErrNotExist):
		doc = NewDocument(opts.Title)
		missing = true
	default:
		return nil, fmt.Errorf("read tracking document: %w", err)
	}

	diff := Diff(doc.Entries, findings.Entries())
	doc.Apply(diff)
	rendered := doc.Bytes()

	res := &Result{
		Path:           path,
		Added:          len(diff.Added),
		Removed:        len(diff.Removed),
		Total:          len(doc.Entries),
		AddedEntries:   diff.Added,
		RemovedEntries: diff.Removed,
		Changed:        missing || !bytes.Equal(previous, rendered),
	}
	if opts.DryRun {
		return res, nil
	}

	if err := doc.Save(path); err != nil {
		return nil, err
	}
	res.Written = true
	return res, nil
}
