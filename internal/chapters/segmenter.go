// Package chapters segments plain text into chapters by recognizing
// structural heading lines, and provides quality heuristics over the result.
package chapters

import (
	"regexp"
	"strings"
)

// Chapter is one segmented chapter. Content excludes the heading line
// itself; StartLine is the 0-based index of the heading line in the source
// text (0 for the synthesized whole-document fallback).
type Chapter struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	StartLine int    `json:"startLine"`
}

// FallbackTitle is the synthesized title used when no headings are
// recognized and the whole document becomes a single chapter.
const FallbackTitle = "Full Text"

// cjkNumerals matches Arabic digits and common Chinese numerals used in
// chapter ordinals.
const cjkNumerals = `[0-9零〇一二两三四五六七八九十百千万]`

// headingPatterns is the fixed, ordered set of leading-anchored heading
// patterns. The patterns are mutually exclusive, so order only affects
// readability, not which one matches. Changing the set silently changes
// segmentation on ambiguous real-world text, so keep it stable.
var headingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^第` + cjkNumerals + `+[章节回]`), // 第三章 / 第12节 / 第一百回
	regexp.MustCompile(`^Chapter\s+\d+`),
	regexp.MustCompile(`^CHAPTER\s+\d+`),
	regexp.MustCompile(`^卷` + cjkNumerals + `+`), // 卷一 / 卷2
	regexp.MustCompile(`^第` + cjkNumerals + `+部分`),
}

// isHeading reports whether the line starts with a recognized chapter,
// volume, or part marker.
func isHeading(line string) bool {
	for _, p := range headingPatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// Segment partitions text into ordered chapters. A line that matches a
// heading pattern closes the chapter being accumulated and opens a new one;
// all other lines (blank lines included) belong to the current chapter. A
// chapter is only emitted when it has both a title and buffered content.
//
// If nothing is emitted — no headings at all, or headings never followed by
// content — the result is a single fallback chapter spanning the whole text.
// For every non-fallback result, re-inserting each chapter's title line
// before its content reconstructs the original line sequence.
func Segment(text string) []Chapter {
	lines := strings.Split(text, "\n")

	var (
		result       []Chapter
		currentTitle string
		haveTitle    bool
		buffer       []string
		titleLine    int
	)

	flush := func() {
		if haveTitle && len(buffer) > 0 {
			result = append(result, Chapter{
				Title:     currentTitle,
				Content:   strings.Join(buffer, "\n"),
				StartLine: titleLine,
			})
		}
	}

	for i, line := range lines {
		if isHeading(line) && strings.TrimSpace(line) != "" {
			flush()
			currentTitle = line
			haveTitle = true
			titleLine = i
			buffer = nil
			continue
		}
		buffer = append(buffer, line)
	}
	flush()

	if len(result) == 0 {
		return []Chapter{{
			Title:     FallbackTitle,
			Content:   text,
			StartLine: 0,
		}}
	}
	return result
}
