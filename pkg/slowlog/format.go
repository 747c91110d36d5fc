// Package slowlog reads slow-query log files in the supported encodings and
// yields raw execution records.
package slowlog

import (
	"fmt"

	"github.com/querydoctor/querydoctor/pkg/apperrors"
)

// Format selects the log file encoding.
type Format string

const (
	// FormatPlain is the line-oriented server log style: records opened by a
	// timestamp line, duration and statement markers, multi-line statement
	// bodies.
	FormatPlain Format = "plain"
	// FormatDelimited is header-named delimited records (CSV or TSV).
	FormatDelimited Format = "delimited"
	// FormatStructured is one JSON object per line.
	FormatStructured Format = "structured-lines"
)

// String returns the string representation of a Format.
func (f Format) String() string {
	return string(f)
}

// ParseFormat maps a user-supplied format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "plain", "postgres":
		return FormatPlain, nil
	case "delimited", "csv", "tsv":
		return FormatDelimited, nil
	case "structured-lines", "structured", "jsonl":
		return FormatStructured, nil
	default:
		return "", fmt.Errorf("%w: %q", apperrors.ErrUnknownFormat, s)
	}
}
