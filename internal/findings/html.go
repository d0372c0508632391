package findings

import (
	"html"
	"regexp"
	"strings"
)

var paragraphRe = regexp.MustCompile(`(?is)<p(?:\s[^>]*)?>(.*?)</p>`)
var tagRe = regexp.MustCompile(`<[^>]+>`)

// renderParagraphs encodes entries as one escaped <p> per entry, the form
// Ghostwriter's rich text fields store.
func renderParagraphs(entries []string) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(strings.TrimSpace(e)))
		b.WriteString("</p>")
	}
	return b.String()
}

// parseParagraphs extracts the plain-text entries of a rich text field.
// Content without paragraphs counts as a single entry.
func parseParagraphs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	matches := paragraphRe.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return []string{plainText(s)}
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if t := plainText(m[1]); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(tagRe.ReplaceAllString(s, "")))
}
