package latex

import (
	"regexp"
	"strings"
)

// DefaultHeadingCommand is used when no heading command is given.
const DefaultHeadingCommand = "section"

// sectioningCommands end a section body wherever they appear.
var sectioningCommands = []string{
	"part",
	"chapter",
	"section",
	"subsection",
	"subsubsection",
	"paragraph",
}

const endDocument = `\end{document}`

// Section locates a heading and its body inside a document.
type Section struct {
	// HeadingStart and BodyStart delimit the heading, e.g. \section{Intro}.
	HeadingStart int
	BodyStart    int
	// BodyEnd is the offset of the next boundary, or the end of the text.
	BodyEnd int
}

// Heading returns the heading text of s within text.
func (s Section) Heading(text string) string {
	return text[s.HeadingStart:s.BodyStart]
}

// Body returns the body text of s within text.
func (s Section) Body(text string) string {
	return text[s.BodyStart:s.BodyEnd]
}

// NormalizeCommand strips a leading backslash and surrounding space from a
// heading command. Blank commands become DefaultHeadingCommand.
func NormalizeCommand(command string) string {
	command = strings.TrimPrefix(strings.TrimSpace(command), `\`)
	if command == "" {
		return DefaultHeadingCommand
	}
	return command
}

// headingPattern matches \command{title} literally, allowing a star and an
// optional short title in brackets.
func headingPattern(command, title string) *regexp.Regexp {
	return regexp.MustCompile(`\\` + regexp.QuoteMeta(command) + `\*?\s*(?:\[[^\]]*\])?\{` + regexp.QuoteMeta(title) + `\}`)
}

// boundaryPattern matches the start of the next section of any level, the
// same command again, or the end of the document.
func boundaryPattern(command string) *regexp.Regexp {
	names := make([]string, 0, len(sectioningCommands)+1)
	for _, c := range sectioningCommands {
		names = append(names, regexp.QuoteMeta(c))
	}
	names = append(names, regexp.QuoteMeta(command))
	return regexp.MustCompile(`\\(?:` + strings.Join(names, "|") + `)\*?\s*[\[{]|` + regexp.QuoteMeta(endDocument))
}

// FindSection returns the first section headed by \command{title} that is
// not commented out.
func FindSection(text, command, title string) (Section, bool) {
	command = NormalizeCommand(command)

	heading, ok := firstUncommented(headingPattern(command, title), text, 0)
	if !ok {
		return Section{}, false
	}
	s := Section{HeadingStart: heading[0], BodyStart: heading[1], BodyEnd: len(text)}

	if boundary, ok := firstUncommented(boundaryPattern(command), text, s.BodyStart); ok {
		s.BodyEnd = boundary[0]
	}
	return s, true
}

// ReplaceSectionBody replaces the body of the first \command{title} section
// with newBody, trimmed and wrapped in single newlines. The heading is kept
// byte for byte. When the section is absent the text is returned unchanged
// with found set to false.
func ReplaceSectionBody(text, command, title, newBody string) (patched string, found bool) {
	s, ok := FindSection(text, command, title)
	if !ok {
		return text, false
	}
	return text[:s.BodyStart] + "\n" + strings.TrimSpace(newBody) + "\n" + text[s.BodyEnd:], true
}

// firstUncommented returns the first match of re in text at or after from
// that is not inside a % comment.
func firstUncommented(re *regexp.Regexp, text string, from int) ([]int, bool) {
	for _, loc := range re.FindAllStringIndex(text[from:], -1) {
		start, end := loc[0]+from, loc[1]+from
		if !inComment(text, start) {
			return []int{start, end}, true
		}
	}
	return nil, false
}

// inComment reports whether an unescaped % precedes pos on its line.
func inComment(text string, pos int) bool {
	lineStart := strings.LastIndexByte(text[:pos], '\n') + 1
	escaped := false
	for i := lineStart; i < pos; i++ {
		switch c := text[i]; {
		case c == '\\':
			escaped = !escaped
			continue
		case c == '%' && !escaped:
			return true
		}
		escaped = false
	}
	return false
}
