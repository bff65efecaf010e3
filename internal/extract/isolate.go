package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// containerPattern matches the opening tag carrying id=containerID with either quote style.
// The tag name is captured so the matching closing tag can be located.
func containerPattern(containerID string) *regexp.Regexp {
	id := regexp.QuoteMeta(containerID)
	return regexp.MustCompile(fmt.Sprintf(`(?is)<([a-z][a-z0-9]*)\b[^>]*?\sid\s*=\s*(?:"%s"|'%s')[^>]*>`, id, id))
}

// IsolateTable returns the content strictly between the element whose id is
// containerID and its closing tag.
func IsolateTable(document, containerID string) (string, error) {
	return isolate(document, containerID, containerPattern(containerID))
}

func isolate(document, containerID string, open *regexp.Regexp) (string, error) {
	loc := open.FindStringSubmatchIndex(document)
	if loc == nil {
		return "", tableMissing(containerID)
	}

	tag := strings.ToLower(document[loc[2]:loc[3]])
	rest := document[loc[1]:]

	end := indexClosingTag(rest, tag)
	if end < 0 {
		return "", tableMissing(containerID)
	}

	return rest[:end], nil
}

// indexClosingTag returns the offset of the first </tag> in s, matching the tag
// name case-insensitively and allowing whitespace before '>'. tag is lower case.
func indexClosingTag(s, tag string) int {
	for i := 0; i+2+len(tag) < len(s); i++ {
		if s[i] != '<' || s[i+1] != '/' {
			continue
		}
		j := i + 2
		if !hasPrefixFold(s[j:], tag) {
			continue
		}
		j += len(tag)
		for j < len(s) && isSpace(s[j]) {
			j++
		}
		if j < len(s) && s[j] == '>' {
			return i
		}
	}
	return -1
}

// hasPrefixFold is an ASCII case-insensitive strings.HasPrefix for a lower-case prefix.
func hasPrefixFold(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	for i := 0; i < len(prefix); i++ {
		c := s[i]
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != prefix[i] {
			return false
		}
	}
	return true
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
