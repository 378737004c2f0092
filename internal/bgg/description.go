package bgg

import (
	"html"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// htmlTagPattern matches the tags BoardGameGeek editors occasionally paste into descriptions.
var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote)[\s>/]`)

var blankLines = regexp.MustCompile(`\n{3,}`)

func containsHTML(s string) bool {
	return htmlTagPattern.MatchString(strings.ToLower(s))
}

// cleanDescription turns a description as delivered in the XML into readable text.
// The API double-escapes entities, so "&amp;#10;" arrives here as "&#10;".
func cleanDescription(raw string) string {
	s := html.UnescapeString(raw)

	if containsHTML(s) {
		if markdown, err := htmltomarkdown.ConvertString(s); err == nil {
			s = markdown
		}
	}

	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
