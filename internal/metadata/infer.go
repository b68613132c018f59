// Package metadata infers book metadata from filenames and text content.
package metadata

import (
	"path/filepath"
	"strings"
)

// titleLineWindow is how many leading lines may override the filename title.
const titleLineWindow = 3

// authorLineWindow is how many non-empty lines are scanned for an author
// marker.
const authorLineWindow = 10

// authorPrefixes are explicit author markers. The half-width and full-width
// colon variants of 作者 both appear in real text files.
var authorPrefixes = []string{"作者:", "作者：", "by ", "By "}

// Infer heuristically determines a title and author for a text file.
//
// The title defaults to the filename without its extension; a non-empty line
// within the first three lines of the text overrides it. The author comes
// from the first of the leading ten non-empty lines carrying an explicit
// marker ("作者:" or a leading "by "); no marker yields an empty author,
// which is a normal outcome rather than an error.
func Infer(path, text string) (title, author string) {
	base := filepath.Base(path)
	title = strings.TrimSuffix(base, filepath.Ext(base))

	lines := strings.Split(text, "\n")

	for i := 0; i < len(lines) && i < titleLineWindow; i++ {
		if line := strings.TrimSpace(lines[i]); line != "" {
			title = line
			break
		}
	}

	seen := 0
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		seen++
		if seen > authorLineWindow {
			break
		}
		if a, ok := matchAuthor(line); ok {
			return title, a
		}
	}

	return title, ""
}

// matchAuthor checks a line for an author marker and returns the trimmed
// value after it.
func matchAuthor(line string) (string, bool) {
	for _, prefix := range authorPrefixes {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(line[len(prefix):]), true
		}
	}
	return "", false
}
