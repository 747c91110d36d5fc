// Package report renders analysis results as Markdown, JSON, or HTML.
// Renderers are pure: they produce bytes and leave file writing to the
// caller.
package report

import (
	"fmt"

	"github.com/querydoctor/querydoctor/pkg/models"
)

// Format identifies a report output format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatHTML     Format = "html"
)

// ParseFormat maps a user-supplied format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatMarkdown, FormatJSON, FormatHTML:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown report format %q (expected markdown, json, or html)", s)
	}
}

// DefaultMaxQueryChars is how many characters of an example query reports
// show before cutting it off.
const DefaultMaxQueryChars = 500

// Options adjusts rendering behavior shared across formats.
type Options struct {
	// MaxQueryChars truncates example queries; zero means DefaultMaxQueryChars.
	MaxQueryChars int
}

func (o Options) maxQueryChars() int {
	if o.MaxQueryChars > 0 {
		return o.MaxQueryChars
	}
	return DefaultMaxQueryChars
}

// Renderer turns an analysis result into report bytes.
type Renderer interface {
	Render(result *models.AnalysisResult) ([]byte, error)
}

// NewRenderer builds the renderer for the requested format.
func NewRenderer(format Format, opts Options) (Renderer, error) {
	switch format {
	case FormatMarkdown:
		return NewMarkdownRenderer(opts), nil
	case FormatJSON:
		return NewJSONRenderer(), nil
	case FormatHTML:
		return NewHTMLRenderer(opts), nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// truncateQuery cuts a query off at max characters for display.
func truncateQuery(query string, max int) string {
	if max > 0 && len(query) > max {
		return query[:max]
	}
	return query
}
