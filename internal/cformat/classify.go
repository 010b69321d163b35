package cformat

import "strings"

// Class is the decoration applied to a whole token.
type Class int

const (
	ClassPlain Class = iota
	ClassDirective
	ClassKeyword
	ClassLinkMacro
	ClassURL
)

// String returns the name of the class.
func (c Class) String() string {
	switch c {
	case ClassPlain:
		return "plain"
	case ClassDirective:
		return "directive"
	case ClassKeyword:
		return "keyword"
	case ClassLinkMacro:
		return "link"
	case ClassURL:
		return "url"
	default:
		return "unknown"
	}
}

const (
	linkPrefix = "LINK("
	linkSuffix = ")"
	urlScheme  = "https://"
)

// IsDirective reports whether tok is a compiler directive such as "#include".
func IsDirective(tok string, st FormatState) bool {
	return !st.InEscape && !st.InString && strings.HasPrefix(tok, "#")
}

// IsKeyword reports whether tok is exactly a keyword outside a string.
func IsKeyword(tok string, st FormatState, kw KeywordSet) bool {
	return !st.InString && kw.Contains(tok)
}

// IsLinkMacro reports whether tok is a LINK(name) macro outside a string.
func IsLinkMacro(tok string, st FormatState) bool {
	return !st.InEscape && !st.InString &&
		len(tok) >= len(linkPrefix)+len(linkSuffix) &&
		strings.HasPrefix(tok, linkPrefix) &&
		strings.HasSuffix(tok, linkSuffix)
}

// IsURL reports whether tok contains a bare https URL.
func IsURL(tok string) bool {
	return strings.Contains(tok, urlScheme)
}

// LinkTarget returns the site path a LINK(name) macro points at.
func LinkTarget(tok string) string {
	name := tok[len(linkPrefix) : len(tok)-len(linkSuffix)]
	return "/" + name + ".html"
}

// ExtractURL returns the URL starting at the first "https://" in tok,
// dropping one trailing quote picked up from a closing string literal.
func ExtractURL(tok string) string {
	idx := strings.Index(tok, urlScheme)
	if idx < 0 {
		return ""
	}
	return strings.TrimSuffix(tok[idx:], `"`)
}

// rule is one entry of the classification chain.
type rule struct {
	class Class
	match func(tok string, st FormatState, kw KeywordSet) bool
}

// rules is ordered by priority; the first match wins.
var rules = []rule{
	{ClassDirective, func(tok string, st FormatState, _ KeywordSet) bool { return IsDirective(tok, st) }},
	{ClassKeyword, IsKeyword},
	{ClassLinkMacro, func(tok string, st FormatState, _ KeywordSet) bool { return IsLinkMacro(tok, st) }},
	{ClassURL, func(tok string, _ FormatState, _ KeywordSet) bool { return IsURL(tok) }},
}

// Classify returns the decoration for tok given the state at token start.
func Classify(tok string, st FormatState, kw KeywordSet) Class {
	for _, r := range rules {
		if r.match(tok, st, kw) {
			return r.class
		}
	}
	return ClassPlain
}
