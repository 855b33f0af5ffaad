// Package render converts a small markdown subset into display-safe HTML
// for chat transcripts. It is deliberately not a full markdown engine:
// model output in a chat window needs code blocks, inline code, emphasis,
// and bullet lists, and nothing else.
package render

import (
	"html"
	"regexp"
	"strings"
)

var (
	// (?s) so a fenced block spans lines.
	fencedCodePattern = regexp.MustCompile("(?s)```(.*?)```")
	inlineCodePattern = regexp.MustCompile("`(.*?)`")

	// Bold must be substituted before italic, or ** pairs are consumed as
	// two empty italics.
	boldPattern   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicPattern = regexp.MustCompile(`\*(.*?)\*`)
)

// Markdown renders content as HTML. The input is escaped first, so raw HTML
// in model output displays as text. Substitution order matters: fenced
// blocks before inline code (so fence backticks are not consumed as inline
// spans), code before emphasis, bold before italic. Consecutive bullet
// lines are grouped into one list container; lines are joined with <br>.
func Markdown(content string) string {
	content = html.EscapeString(content)

	content = fencedCodePattern.ReplaceAllString(content, "<pre>$1</pre>")
	content = inlineCodePattern.ReplaceAllString(content, "<code>$1</code>")

	content = boldPattern.ReplaceAllString(content, `<span class="md-bold">$1</span>`)
	content = italicPattern.ReplaceAllString(content, `<span class="md-italic">$1</span>`)

	return strings.Join(groupListLines(content), "<br>")
}

// groupListLines wraps runs of bullet lines ("- " or "* " prefixes) in a
// list container, one item div per line, leaving other lines untouched.
func groupListLines(content string) []string {
	lines := strings.Split(content, "\n")
	result := make([]string, 0, len(lines))
	inList := false

	for _, line := range lines {
		if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
			if !inList {
				result = append(result, `<div class="md-list">`)
				inList = true
			}
			result = append(result, `<div class="md-list-item">`+line[2:]+`</div>`)
			continue
		}

		if inList {
			result = append(result, "</div>")
			inList = false
		}
		result = append(result, line)
	}

	if inList {
		result = append(result, "</div>")
	}

	return result
}
