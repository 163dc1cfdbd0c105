package utils

import (
	"html"
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// Indent prefixes text with two spaces per depth level and ends the line.
func Indent(text string, depth int) string {
	return strings.Repeat("  ", depth) + text + "\n"
}

// StripMarkup removes tags from an HTML fragment, unescapes entities and
// collapses runs of whitespace.
func StripMarkup(fragment string) string {
	text := html.UnescapeString(tagPattern.ReplaceAllString(fragment, ""))
	return strings.Join(strings.Fields(text), " ")
}

// JoinNonEmpty joins the non-empty parts with sep.
func JoinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
