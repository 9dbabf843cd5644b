// Package todo models the tracking document and reconciles it against
// findings discovered in source code.
//
// The tracking document (TODO's.md by default) is plain Markdown:
//
//	# Project TODOs
//
//	Notes written by hand stay exactly where they are.
//	- [src/gui/renderer.cpp:42] handle resize
//	- [src/main.cpp:7] fix parsing
//
// # Entries and Freeform Lines
//
// Every line is classified by a single structural predicate. Lines of the
// shape "- [<path>:<line>] <message>" are entries; everything else is a
// freeform line. Freeform lines (title, prose, blank lines) are written back
// verbatim and in their original order. Entries form a set keyed by their
// exact text and are always written after the freeform lines, sorted
// lexicographically.
//
// # Reconciliation
//
// A run computes:
//
//	added   = rendered(findings) - existing
//	removed = existing - rendered(findings)
//	final   = (existing - removed) + added
//
// Matching is byte-exact. An entry typed by hand that no current finding
// renders to is removed like any other stale entry, and an entry whose text
// was tweaked by hand coexists with the freshly rendered one until the next
// run drops it.
//
// # File Format
//
// When writing the document, the package uses:
//   - "\n" line endings
//   - Trailing newline
//   - The leading byte order mark, if the file had one
//   - Atomic replace (temp file then rename)
package todo
