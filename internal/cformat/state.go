package cformat

// FormatState is the lexical context carried across every character of a file.
//
// One FormatState belongs to exactly one file render. It is never reset at
// token or line boundaries: a string or escape that is still open at the end
// of a line stays open for the next one.
type FormatState struct {
	InString bool
	InEscape bool
}

// Transition describes what a single character did to the state.
type Transition int

const (
	TransitionNone        Transition = iota
	TransitionEscapeStart            // unescaped backslash
	TransitionEscapeEnd              // second character of an escape pair
	TransitionStringOpen             // unescaped quote entering a string
	TransitionStringClose            // unescaped quote leaving a string
)

// Step advances the state by one character and reports the transition.
// It must be called before the character is rendered.
//
// Escapes are always two characters wide, so "\012" is the pair "\0"
// followed by plain "12".
func (s *FormatState) Step(r rune) Transition {
	if s.InEscape {
		// An escaped quote never toggles string mode.
		s.InEscape = false
		return TransitionEscapeEnd
	}

	switch r {
	case '\\':
		s.InEscape = true
		return TransitionEscapeStart
	case '"':
		s.InString = !s.InString
		if s.InString {
			return TransitionStringOpen
		}
		return TransitionStringClose
	}
	return TransitionNone
}

// Snapshot returns a copy of the current state.
func (s *FormatState) Snapshot() FormatState {
	return *s
}
