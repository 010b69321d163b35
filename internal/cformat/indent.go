package cformat

// DefaultTabWidth is the left margin, in pixels, contributed by each leading tab.
const DefaultTabWidth = 25

// LeadingTabs counts the tabs at the start of line.
// Counting stops at the first other character, so "\t \t" counts one.
func LeadingTabs(line string) int {
	n := 0
	for n < len(line) && line[n] == '\t' {
		n++
	}
	return n
}

// Indent returns the left margin in pixels for line.
func Indent(line string, tabWidth int) int {
	return LeadingTabs(line) * tabWidth
}
