// Package presentation renders command results as JSON for scripts.
package presentation

import (
	"encoding/json"
	"io"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
	}
}

// FormatBuild formats a build result as JSON
func (f *Formatter) FormatBuild(build BuildDTO) error {
	return f.encode(build)
}

// FormatStale formats check results as JSON
func (f *Formatter) FormatStale(stale []StaleDTO) error {
	return f.encode(stale)
}

func (f *Formatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
