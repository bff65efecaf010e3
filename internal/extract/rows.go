package extract

import (
	"html"
	"iter"
	"regexp"
	"strings"
)

var (
	rowStartPattern = regexp.MustCompile(`(?i)<tr\b`)
	cellPattern     = regexp.MustCompile(`(?is)<td\b[^>]*>(.*?)</td\s*>`)
	tagPattern      = regexp.MustCompile(`(?s)<[^>]*>`)
)

// SplitRows yields one fragment per row-start marker. A fragment runs up to the
// next marker or the end of the table, so rows without a closing tag still
// produce a fragment. Content before the first marker is dropped.
func SplitRows(fragment string) iter.Seq[string] {
	return func(yield func(string) bool) {
		first := rowStartPattern.FindStringIndex(fragment)
		if first == nil {
			return
		}

		pos := first[0]
		for {
			searchFrom := pos + len("<tr")
			next := rowStartPattern.FindStringIndex(fragment[searchFrom:])

			end := len(fragment)
			if next != nil {
				end = searchFrom + next[0]
			}

			if !yield(fragment[pos:end]) || next == nil {
				return
			}
			pos = end
		}
	}
}

// ExtractCells returns the text of every cell in row, in document order, with
// nested tags stripped, entities decoded and surrounding whitespace trimmed.
func ExtractCells(row string) []string {
	matches := cellPattern.FindAllStringSubmatch(row, -1)
	cells := make([]string, 0, len(matches))
	for _, m := range matches {
		cells = append(cells, cellText(m[1]))
	}
	return cells
}

func cellText(content string) string {
	text := tagPattern.ReplaceAllString(content, "")
	return strings.TrimSpace(html.UnescapeString(text))
}
