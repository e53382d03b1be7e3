package latex

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resume = `\documentclass{article}
\begin{document}
\section{Experience}
Old job at ACME.
Another line.
\section{Education}
BSc, 2010.
\end{document}
`

func TestReplaceSectionBody_LeavesNeighboursUntouched(t *testing.T) {
	got, found := ReplaceSectionBody(resume, "section", "Experience", "  New job at Initech.\n")
	require.True(t, found)

	want := `\documentclass{article}
\begin{document}
\section{Experience}
New job at Initech.
\section{Education}
BSc, 2010.
\end{document}
`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReplaceSectionBody() mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, got, "\\section{Education}\nBSc, 2010.\n")
}

func TestReplaceSectionBody_LastSectionEndsAtEndDocument(t *testing.T) {
	got, found := ReplaceSectionBody(resume, "section", "Education", "PhD, 2015.")
	require.True(t, found)
	assert.True(t, strings.HasSuffix(got, "\\section{Education}\nPhD, 2015.\n\\end{document}\n"), got)
	assert.Contains(t, got, "Old job at ACME.\nAnother line.\n")
}

func TestReplaceSectionBody_EndOfText(t *testing.T) {
	got, found := ReplaceSectionBody("\\section{Only}\nbody", "section", "Only", "new")
	require.True(t, found)
	assert.Equal(t, "\\section{Only}\nnew\n", got)
}

func TestReplaceSectionBody_Idempotent(t *testing.T) {
	body := "First line.\n\nSecond paragraph."
	once, found := ReplaceSectionBody(resume, "section", "Experience", body)
	require.True(t, found)
	twice, found := ReplaceSectionBody(once, "section", "Experience", body)
	require.True(t, found)

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second application changed the text (-once +twice):\n%s", diff)
	}
}

func TestReplaceSectionBody_NotFoundIsByteIdentical(t *testing.T) {
	for _, title := range []string{"Skills", "experience", "Experience ", "Exp"} {
		t.Run(title, func(t *testing.T) {
			got, found := ReplaceSectionBody(resume, "section", title, "x")
			assert.False(t, found)
			assert.Equal(t, resume, got)
		})
	}
}

func TestReplaceSectionBody_PrefixTitleOnlyExactMatch(t *testing.T) {
	text := "\\section{Intro}\nA\n\\section{Introduction}\nB\n"

	got, found := ReplaceSectionBody(text, "section", "Introduction", "changed")
	require.True(t, found)
	assert.Equal(t, "\\section{Intro}\nA\n\\section{Introduction}\nchanged\n", got)

	got, found = ReplaceSectionBody(text, "section", "Intro", "changed")
	require.True(t, found)
	assert.Equal(t, "\\section{Intro}\nchanged\n\\section{Introduction}\nB\n", got)
}

func TestReplaceSectionBody_FirstMatchOnly(t *testing.T) {
	text := "\\section{Notes}\none\n\\section{Notes}\ntwo\n"
	got, found := ReplaceSectionBody(text, "section", "Notes", "new")
	require.True(t, found)
	assert.Equal(t, "\\section{Notes}\nnew\n\\section{Notes}\ntwo\n", got)
}

func TestReplaceSectionBody_Boundaries(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		command string
		title   string
		want    string
	}{
		{
			name:    "subsection ends a section body",
			text:    "\\section{A}\nbody\n\\subsection{A.1}\nsub\n",
			command: "section",
			title:   "A",
			want:    "\\section{A}\nnew\n\\subsection{A.1}\nsub\n",
		},
		{
			name:    "starred section is a boundary",
			text:    "\\section{A}\nbody\n\\section*{Unnumbered}\nx\n",
			command: "section",
			title:   "A",
			want:    "\\section{A}\nnew\n\\section*{Unnumbered}\nx\n",
		},
		{
			name:    "section with short title is a boundary",
			text:    "\\section{A}\nbody\n\\section[S]{Long}\nx\n",
			command: "section",
			title:   "A",
			want:    "\\section{A}\nnew\n\\section[S]{Long}\nx\n",
		},
		{
			name:    "custom command repeats as boundary",
			text:    "\\cventry{Job}\nbody\n\\cventry{Other}\nx\n",
			command: "cventry",
			title:   "Job",
			want:    "\\cventry{Job}\nnew\n\\cventry{Other}\nx\n",
		},
		{
			name:    "starred target heading",
			text:    "\\section*{Acknowledgements}\nthanks\n\\chapter{Next}\n",
			command: "section",
			title:   "Acknowledgements",
			want:    "\\section*{Acknowledgements}\nnew\n\\chapter{Next}\n",
		},
		{
			name:    "backslash on command is accepted",
			text:    "\\subsection{X}\nold\n\\paragraph{P}\n",
			command: "\\subsection",
			title:   "X",
			want:    "\\subsection{X}\nnew\n\\paragraph{P}\n",
		},
		{
			name:    "sectionmark is not a boundary",
			text:    "\\section{A}\n\\sectionmark{short}\nbody\n\\section{B}\n",
			command: "section",
			title:   "A",
			want:    "\\section{A}\nnew\n\\section{B}\n",
		},
		{
			name:    "title with regexp metacharacters",
			text:    "\\section{C++ (and $x^2$)}\nold\n\\section{Next}\n",
			command: "section",
			title:   "C++ (and $x^2$)",
			want:    "\\section{C++ (and $x^2$)}\nnew\n\\section{Next}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := ReplaceSectionBody(tt.text, tt.command, tt.title, "new")
			require.True(t, found)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ReplaceSectionBody() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReplaceSectionBody_CommentedHeadings(t *testing.T) {
	text := "% \\section{Experience} old draft\n" +
		"\\section{Experience}\nreal\n" +
		"%\\section{Education}\n" +
		"still experience\n" +
		"\\section{Education}\nedu\n"

	got, found := ReplaceSectionBody(text, "section", "Experience", "new")
	require.True(t, found)

	want := "% \\section{Experience} old draft\n" +
		"\\section{Experience}\nnew\n" +
		"\\section{Education}\nedu\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReplaceSectionBody() mismatch (-want +got):\n%s", diff)
	}
}

func TestReplaceSectionBody_EscapedPercentIsNotComment(t *testing.T) {
	text := "Growth of 50\\% \\section{Result}\nold\n"
	got, found := ReplaceSectionBody(text, "section", "Result", "new")
	require.True(t, found)
	assert.Equal(t, "Growth of 50\\% \\section{Result}\nnew\n", got)
}

func TestReplaceSectionBody_OnlyCommentedHeading(t *testing.T) {
	text := "%\\section{Draft}\nbody\n"
	got, found := ReplaceSectionBody(text, "section", "Draft", "new")
	assert.False(t, found)
	assert.Equal(t, text, got)
}

func TestFindSection(t *testing.T) {
	s, ok := FindSection(resume, "", "Experience")
	require.True(t, ok)
	assert.Equal(t, "\\section{Experience}", s.Heading(resume))
	assert.Equal(t, "\nOld job at ACME.\nAnother line.\n", s.Body(resume))

	_, ok = FindSection(resume, "subsection", "Experience")
	assert.False(t, ok)
}

func TestNormalizeCommand(t *testing.T) {
	assert.Equal(t, "section", NormalizeCommand(""))
	assert.Equal(t, "section", NormalizeCommand("  "))
	assert.Equal(t, "chapter", NormalizeCommand("\\chapter"))
	assert.Equal(t, "subsection", NormalizeCommand(" subsection "))
}

func TestInComment(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"X", false},
		{"% X", true},
		{"text % X", true},
		{"50\\% X", false},
		{"50\\\\% X", true},
	}
	for _, tt := range tests {
		pos := strings.Index(tt.line, "X")
		text := "first line\n" + tt.line
		assert.Equal(t, tt.want, inComment(text, pos+len("first line\n")), tt.line)
	}
}
