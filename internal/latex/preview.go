package latex

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// previewHeading matches the start of a chapter-to-subsubsection heading,
// optionally starred, up to the brace opening its title.
var previewHeading = regexp.MustCompile(`^\\(?:chapter|section|subsection|subsubsection)\*?\s*\{`)

// boilerplatePrefixes are document setup lines dropped from previews.
var boilerplatePrefixes = []string{
	`\documentclass`,
	`\usepackage`,
	`\begin{document}`,
	`\end{document}`,
}

const itemMarker = `\item`

// RenderPreview turns raw LaTeX into plain readable text. It is a pure
// function: the same input always yields the same output.
func RenderPreview(raw string) string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if skipPreviewLine(line) {
			continue
		}

		if title, ok := headingTitle(line); ok {
			title = strings.ToUpper(strings.TrimSpace(title))
			out = append(out, "", title, strings.Repeat("-", utf8.RuneCountInString(title)))
			continue
		}

		if text, ok := itemText(line); ok {
			out = append(out, "- "+text)
			continue
		}

		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// headingTitle returns the brace-balanced title of a heading line. Escaped
// braces do not count towards the balance.
func headingTitle(line string) (string, bool) {
	loc := previewHeading.FindStringIndex(line)
	if loc == nil {
		return "", false
	}
	rest := line[loc[1]:]
	depth := 1
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return rest[:i], true
			}
		}
	}
	return "", false
}

func skipPreviewLine(line string) bool {
	if line == "" || strings.HasPrefix(line, "%") {
		return true
	}
	for _, p := range boilerplatePrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// itemText strips a leading \item marker. \itemsep and friends are not items.
func itemText(line string) (string, bool) {
	if !strings.HasPrefix(line, itemMarker) {
		return "", false
	}
	rest := line[len(itemMarker):]
	if rest != "" && isLetter(rest[0]) {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
