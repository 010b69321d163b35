// Package cformat renders C source lines as highlighted HTML fragments.
//
// The formatter is a single pass over the characters of a file. A
// FormatState tracks whether the current character is inside a string
// literal or an escape sequence; every other decision (directive, keyword,
// LINK macro, URL) is made per whitespace-delimited token.
package cformat

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DefaultLineClass is the font class carried by every rendered line.
const DefaultLineClass = "c-code"

// maxLineSize bounds a single source line read by RenderReader.
const maxLineSize = 1024 * 1024

// Options controls line rendering.
type Options struct {
	TabWidth  int        // pixels per leading tab
	LineClass string     // class attribute of the line span
	Keywords  KeywordSet // nil means DefaultKeywords()
}

// DefaultOptions returns the options used by the published site.
func DefaultOptions() Options {
	return Options{
		TabWidth:  DefaultTabWidth,
		LineClass: DefaultLineClass,
		Keywords:  DefaultKeywords(),
	}
}

// Renderer turns the lines of one file into HTML fragments.
// A Renderer must not be reused for another file or shared between goroutines.
type Renderer struct {
	opts  Options
	state FormatState
	lines int
}

// NewRenderer creates a renderer with fresh state.
func NewRenderer(opts Options) *Renderer {
	if opts.Keywords == nil {
		opts.Keywords = DefaultKeywords()
	}
	if opts.LineClass == "" {
		opts.LineClass = DefaultLineClass
	}
	return &Renderer{opts: opts}
}

// RenderLine renders a single source line without its newline.
// Every line after the first is preceded by a <br> tag.
func (r *Renderer) RenderLine(line string) string {
	tokens := strings.Fields(line)
	formatted := make([]string, len(tokens))
	for i, tok := range tokens {
		formatted[i] = FormatToken(tok, &r.state, r.opts.Keywords)
	}

	var b strings.Builder
	if r.lines > 0 {
		b.WriteString("<br>")
	}
	b.WriteString(`<span class="`)
	b.WriteString(r.opts.LineClass)
	b.WriteString(`" style="margin-left: `)
	b.WriteString(strconv.Itoa(Indent(line, r.opts.TabWidth)))
	b.WriteString(`px;">`)
	b.WriteString(strings.Join(formatted, " "))
	b.WriteString(spanClose)

	r.lines++
	return b.String()
}

// RenderLines renders lines in order, continuing from the current state.
func (r *Renderer) RenderLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, r.RenderLine(line))
	}
	return out
}

// RenderReader renders every line read from src.
// Lines end at "\n", "\r\n" or a lone "\r".
func (r *Renderer) RenderReader(src io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	scanner.Split(scanSourceLines)

	var out []string
	for scanner.Scan() {
		out = append(out, r.RenderLine(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading source: %w", err)
	}
	return out, nil
}

// scanSourceLines is bufio.ScanLines that also ends a line at a lone '\r'.
func scanSourceLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		switch {
		case i+1 < len(data) && data[i+1] == '\n':
			return i + 2, data[:i], nil
		case i+1 < len(data) || atEOF:
			return i + 1, data[:i], nil
		}
		// '\r' at the end of the buffer; the next byte decides.
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// State returns the lexical state after the last rendered line.
// A non-zero state at end of file means an unterminated string or escape.
func (r *Renderer) State() FormatState {
	return r.state
}

// Lines returns the number of lines rendered so far.
func (r *Renderer) Lines() int {
	return r.lines
}
