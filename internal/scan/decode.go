package scan

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// DecodePolicy selects how undecodable bytes in source files are handled.
// Neither policy fails on malformed input.
type DecodePolicy string

const (
	// DecodeDrop removes bytes that are not valid UTF-8.
	DecodeDrop DecodePolicy = "drop"
	// DecodeReplace substitutes U+FFFD for bytes that are not valid UTF-8.
	DecodeReplace DecodePolicy = "replace"
)

// ParseDecodePolicy parses a policy name. Empty selects DecodeDrop.
func ParseDecodePolicy(s string) (DecodePolicy, error) {
	switch DecodePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", DecodeDrop:
		return DecodeDrop, nil
	case DecodeReplace:
		return DecodeReplace, nil
	default:
		return "", fmt.Errorf("invalid decode policy %q, must be one of: drop, replace", s)
	}
}

// Transformer returns the byte-to-UTF-8 transformer for the policy.
// A leading byte order mark is honored and stripped; UTF-16 files with a
// BOM are converted to UTF-8.
func (p DecodePolicy) Transformer() transform.Transformer {
	bom := unicode.BOMOverride(transform.Nop)
	if p == DecodeReplace {
		return transform.Chain(bom, runes.ReplaceIllFormed())
	}
	return transform.Chain(bom, runes.Remove(runes.Predicate(func(r rune) bool {
		return r == utf8.RuneError
	})))
}

// Decode reads r to the end and returns its text under the policy.
func (p DecodePolicy) Decode(r io.Reader) (string, error) {
	data, err := io.ReadAll(transform.NewReader(r, p.Transformer()))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
