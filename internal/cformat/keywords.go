package cformat

// KeywordSet is the set of tokens highlighted as keywords.
// A token must equal a member exactly; "return;" or "int32_t*" never match.
type KeywordSet map[string]struct{}

// cKeywords covers C89, C99 and C11.
var cKeywords = []string{
	"auto", "break", "case", "char", "const", "continue", "default", "do",
	"double", "else", "enum", "extern", "float", "for", "goto", "if",
	"inline", "int", "long", "register", "restrict", "return", "short",
	"signed", "sizeof", "static", "struct", "switch", "typedef", "union",
	"unsigned", "void", "volatile", "while",
	"_Alignas", "_Alignof", "_Atomic", "_Bool", "_Complex", "_Generic",
	"_Imaginary", "_Noreturn", "_Static_assert", "_Thread_local",
}

// fixedWidthTypes are the stdint/stdbool aliases used throughout the site sources.
var fixedWidthTypes = []string{
	"int8_t", "int16_t", "int32_t", "int64_t",
	"uint8_t", "uint16_t", "uint32_t", "uint64_t",
	"size_t", "bool",
}

// DefaultKeywords returns the built-in keyword set.
func DefaultKeywords() KeywordSet {
	return NewKeywordSet()
}

// NewKeywordSet returns the built-in keywords plus any extras.
// Empty extras are ignored.
func NewKeywordSet(extra ...string) KeywordSet {
	set := make(KeywordSet, len(cKeywords)+len(fixedWidthTypes)+len(extra))
	for _, list := range [][]string{cKeywords, fixedWidthTypes, extra} {
		for _, kw := range list {
			if kw == "" {
				continue
			}
			set[kw] = struct{}{}
		}
	}
	return set
}

// Contains reports whether tok is exactly a keyword.
func (k KeywordSet) Contains(tok string) bool {
	_, ok := k[tok]
	return ok
}
