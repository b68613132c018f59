package epub

import (
	"bytes"
	"errors"
	"io"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// blockTags is the set of tags that insert a line break during text extraction.
var blockTags = map[atom.Atom]bool{
	atom.P:          true,
	atom.Br:         true,
	atom.Div:        true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
	atom.Li:         true,
	atom.Tr:         true,
	atom.Blockquote: true,
	atom.Hr:         true,
}

// skipTags is the set of tags whose content is excluded from extraction.
var skipTags = map[atom.Atom]bool{
	atom.Script: true,
	atom.Style:  true,
	atom.Title:  true,
}

// extractText extracts plain text from XHTML content. Block-level elements
// produce line breaks so downstream line-oriented processing keeps the
// document structure.
func extractText(htmlData []byte) (string, error) {
	tokenizer := html.NewTokenizer(bytes.NewReader(htmlData))

	var buf strings.Builder
	skipDepth := 0
	lastWasNewline := true

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			err := tokenizer.Err()
			if errors.Is(err, io.EOF) {
				return strings.TrimSpace(buf.String()), nil
			}
			return "", err

		case html.StartTagToken, html.SelfClosingTagToken:
			tn, _ := tokenizer.TagName()
			a := atom.Lookup(tn)
			if skipTags[a] && tt == html.StartTagToken {
				skipDepth++
				continue
			}
			if skipDepth > 0 {
				continue
			}
			if blockTags[a] && buf.Len() > 0 && !lastWasNewline {
				buf.WriteByte('\n')
				lastWasNewline = true
			}

		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			if skipTags[atom.Lookup(tn)] && skipDepth > 0 {
				skipDepth--
			}

		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			text := collapseWhitespace(string(tokenizer.Text()))
			if text != "" {
				buf.WriteString(text)
				lastWasNewline = false
			}
		}
	}
}

// firstHeading returns the text of the first <h1>-<h6> element, or an empty
// string if none is present. Used as a chapter title fallback when the TOC
// has no entry for a spine item.
func firstHeading(htmlData []byte) string {
	tokenizer := html.NewTokenizer(bytes.NewReader(htmlData))
	headingDepth := 0
	var buf strings.Builder

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			switch atom.Lookup(tn) {
			case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
				headingDepth++
			}
		case html.EndTagToken:
			if headingDepth > 0 {
				tn, _ := tokenizer.TagName()
				switch atom.Lookup(tn) {
				case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
					if title := strings.TrimSpace(buf.String()); title != "" {
						return title
					}
					headingDepth--
					buf.Reset()
				}
			}
		case html.TextToken:
			if headingDepth > 0 {
				buf.Write(tokenizer.Text())
			}
		}
	}
}

// collapseWhitespace replaces runs of whitespace with a single space.
// Returns an empty string if the input is all whitespace.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// htmlTagPattern matches common HTML tags to detect markup in metadata values.
var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote)[\s>/]`)

// htmlToMarkdown converts HTML content to Markdown. Publishers often ship
// descriptions as HTML fragments; storing Markdown keeps clients simple.
// If the input doesn't contain HTML, it's returned unchanged.
func htmlToMarkdown(s string) string {
	if s == "" || !htmlTagPattern.MatchString(strings.ToLower(s)) {
		return s
	}

	markdown, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(markdown)
}
