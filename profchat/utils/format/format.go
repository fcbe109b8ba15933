// Package format renders assistant text for the web page and the terminal.
package format

import (
	"regexp"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/net/html"
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Applied once each, in this order, to already escaped text.
var htmlRules = []rule{
	{regexp.MustCompile(`\*\*(.*?)\*\*`), "<strong>$1</strong>"},
	{regexp.MustCompile(`(Professor:|Subject:|Reviews:)[ \t](.*?)\n`), "<strong>$1</strong> $2<br/>"},
	{regexp.MustCompile(`\n`), "<br />"},
	{regexp.MustCompile(`(1\.\s|\*\s)`), "<li>"},
	{regexp.MustCompile(`</strong>\s-\s`), "</strong><br/><ul><li>"},
}

// HTML turns raw assistant text into markup. The input is escaped first, so
// only the tags the rules produce reach the page.
func HTML(raw string) string {
	out := html.EscapeString(raw)
	for _, r := range htmlRules {
		out = r.pattern.ReplaceAllString(out, r.replacement)
	}
	return out
}

var (
	boldStyle = lipgloss.NewStyle().Bold(true)

	boldSpan    = regexp.MustCompile(`\*\*(.*?)\*\*`)
	labelPrefix = regexp.MustCompile(`(?m)^(Professor:|Subject:|Reviews:|Stars:)`)
	bullet      = regexp.MustCompile(`(?m)^([ \t]*)(?:1\.|\*)[ \t]`)
)

// Terminal renders the same conventions for a terminal: bold spans and
// labels in bold, list markers as bullets.
func Terminal(raw string) string {
	out := bullet.ReplaceAllString(raw, "${1}• ")
	out = boldSpan.ReplaceAllStringFunc(out, func(m string) string {
		return boldStyle.Render(boldSpan.FindStringSubmatch(m)[1])
	})
	out = labelPrefix.ReplaceAllStringFunc(out, func(m string) string {
		return boldStyle.Render(m)
	})
	return out
}
