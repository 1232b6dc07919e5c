package output

import (
	"encoding/json"
	"io"
)

// JSONFormatter renders the report as indented JSON; amounts are decimal strings
type JSONFormatter struct{}

// Format implements Formatter
func (f *JSONFormatter) Format() Format {
	return FormatJSON
}

// Render implements Formatter
func (f *JSONFormatter) Render(w io.Writer, report *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
