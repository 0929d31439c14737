package tutor

import (
	"regexp"
	"strings"
)

var excessBlankLines = regexp.MustCompile(`\n{3,}`)

// Format converts a raw model reply into a stable, renderable text block.
// Pure and total: malformed input passes through normalized, never an error.
// Idempotent — Format(Format(x)) == Format(x).
func Format(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	// Strip trailing whitespace per line.
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	s = strings.Join(lines, "\n")

	// At most one blank line between paragraphs.
	s = excessBlankLines.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}
