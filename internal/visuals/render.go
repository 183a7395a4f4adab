// Package visuals turns a projected chart model into text, Mermaid, JSON or
// HTML output.
package visuals

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"talktrace/internal/projection"
)

type Format string

const (
	FormatTable   Format = "table"
	FormatMermaid Format = "mermaid"
	FormatJSON    Format = "json"
	FormatHTML    Format = "html"
)

// Formats lists the supported output formats.
var Formats = []Format{FormatTable, FormatMermaid, FormatJSON, FormatHTML}

// ParseFormat accepts a format name case-insensitively. Empty means table.
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return FormatTable, nil
	}
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want one of table, mermaid, json, html)", s)
}

// Options carries the per-format switches for Render.
type Options struct {
	Colour bool
	HTML   HTMLOptions
}

// Render writes m to w in the given format.
func Render(w io.Writer, format Format, m projection.ChartModel, opts Options) error {
	switch format {
	case FormatTable:
		return WriteTable(w, m, opts.Colour)
	case FormatMermaid:
		_, err := io.WriteString(w, GenerateMarkdown(m))
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	case FormatHTML:
		return WriteHTML(w, m, opts.HTML)
	}
	return fmt.Errorf("unknown format %q", format)
}
