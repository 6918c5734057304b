package format

import (
	"strings"
	"unicode/utf8"
)

// SplitMessage splits text into chunks of at most limit bytes for sequential
// posting. Lines are kept whole where possible; a single line longer than
// the limit is hard-cut on rune boundaries. Concatenating the chunks yields
// the original text.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 || len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	current := ""

	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		if current != "" && len(current)+len(line) > limit {
			chunks = append(chunks, current)
			current = ""
		}
		if len(line) > limit {
			parts := hardCut(line, limit)
			chunks = append(chunks, parts[:len(parts)-1]...)
			current = parts[len(parts)-1]
			continue
		}
		current += line
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

func hardCut(line string, limit int) []string {
	var parts []string
	for line != "" {
		size := 0
		for size < len(line) {
			_, runeLen := utf8.DecodeRuneInString(line[size:])
			if size+runeLen > limit {
				break
			}
			size += runeLen
		}
		parts = append(parts, line[:size])
		line = line[size:]
	}
	return parts
}
