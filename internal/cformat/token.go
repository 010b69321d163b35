package cformat

import (
	"html"
	"strings"
	"unicode/utf8"
)

// Markup emitted by the formatter. The class names are part of the site
// stylesheet contract.
const (
	stringOpen    = `<span class="c-string">`
	escapeOpen    = `<span class="escape-sequence">`
	directiveOpen = `<span class="compiler-directive">`
	keywordOpen   = `<span class="c-keyword">`
	spanClose     = `</span>`
	anchorClose   = `</a>`
)

// textEscaper encodes the characters that would otherwise break the markup.
// Quotes and backslashes are lexically significant and pass through as-is.
var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// FormatToken renders one whitespace-free token as HTML.
//
// st is advanced across every character of tok. Spans still open when the
// token ends are closed in the output but stay open in st, and are re-opened
// at the start of the next token, so every returned string is balanced.
// Classification uses the state as it was when the token started.
func FormatToken(tok string, st *FormatState, kw KeywordSet) string {
	start := st.Snapshot()

	var b strings.Builder
	b.Grow(len(tok) * 2)

	reopenSpans(&b, start)
	for i := 0; i < len(tok); {
		r, size := utf8.DecodeRuneInString(tok[i:])
		writeRune(&b, st, r, tok[i:i+size])
		i += size
	}
	closeSpans(&b, *st)

	return decorate(tok, b.String(), Classify(tok, start, kw))
}

// writeRune steps the state machine and renders r according to the transition.
// raw holds the source bytes of r, so invalid UTF-8 is copied through unchanged.
func writeRune(b *strings.Builder, st *FormatState, r rune, raw string) {
	switch st.Step(r) {
	case TransitionEscapeStart:
		b.WriteString(escapeOpen)
		writeText(b, r, raw)
	case TransitionEscapeEnd:
		writeText(b, r, raw)
		b.WriteString(spanClose)
	case TransitionStringOpen:
		b.WriteString(stringOpen)
		b.WriteString(raw)
	case TransitionStringClose:
		b.WriteString(raw)
		b.WriteString(spanClose)
	default:
		writeText(b, r, raw)
	}
}

func writeText(b *strings.Builder, r rune, raw string) {
	switch r {
	case '&':
		b.WriteString("&amp;")
	case '<':
		b.WriteString("&lt;")
	case '>':
		b.WriteString("&gt;")
	default:
		b.WriteString(raw)
	}
}

// reopenSpans restores the markup for state carried in from a previous token.
// An escape span always sits inside a string span, never around one.
func reopenSpans(b *strings.Builder, st FormatState) {
	if st.InString {
		b.WriteString(stringOpen)
	}
	if st.InEscape {
		b.WriteString(escapeOpen)
	}
}

func closeSpans(b *strings.Builder, st FormatState) {
	if st.InEscape {
		b.WriteString(spanClose)
	}
	if st.InString {
		b.WriteString(spanClose)
	}
}

// decorate wraps the formatted body in the outer markup for class.
func decorate(tok, body string, class Class) string {
	switch class {
	case ClassDirective:
		return directiveOpen + body + spanClose
	case ClassKeyword:
		return keywordOpen + body + spanClose
	case ClassLinkMacro:
		return `<a href="` + html.EscapeString(LinkTarget(tok)) + `">` + body + anchorClose
	case ClassURL:
		return wrapURL(body, textEscaper.Replace(ExtractURL(tok)))
	default:
		return body
	}
}

// wrapURL turns the first verbatim occurrence of url in body into an anchor.
// A URL holding a quote or backslash is split by markup and is left alone.
func wrapURL(body, url string) string {
	idx := strings.Index(body, url)
	if url == "" || idx < 0 {
		return body
	}
	anchor := `<a href="` + url + `">` + url + anchorClose
	return body[:idx] + anchor + body[idx+len(url):]
}
