package main

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/NicabarNimble/go-texbridge/internal/config"
	"github.com/NicabarNimble/go-texbridge/internal/errors"
	"github.com/NicabarNimble/go-texbridge/internal/git/gittest"
)

const resume = `\documentclass{article}
\begin{document}
\section{Experience}
Old job at ACME.
\section{Education}
BSc, 2010.
\end{document}
`

type staticLoader struct {
	cfg config.Config
}

func (l staticLoader) Load(context.Context) (*config.Config, error) {
	cfg := l.cfg
	return &cfg, nil
}

func testConfig() config.Config {
	return config.Config{
		RepoURL:        "https://git.example.com/resume",
		Token:          "cli-token",
		CommitEmail:    config.DefaultCommitEmail,
		CommitName:     config.DefaultCommitName,
		PrimaryBranch:  "master",
		FallbackBranch: "main",
		LogLevel:       "info",
	}
}

// testApp wires an app to a local remote seeded with files.
func testApp(t *testing.T, files map[string]string) (*app, *gittest.Remote) {
	t.Helper()
	remote := gittest.NewRemote(t, files)
	base := t.TempDir()
	t.Cleanup(func() {
		entries, err := os.ReadDir(base)
		require.NoError(t, err)
		assert.Empty(t, entries, "workspace left behind")
	})
	return &app{
		logger:  zap.NewNop(),
		fs:      afero.NewMemMapFs(),
		loader:  staticLoader{cfg: testConfig()},
		runner:  remote.Runner(),
		baseDir: base,
	}, remote
}

func execute(a *app, stdin string, args ...string) (string, error) {
	cmd := newRootCmd(a)
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := newRootCmd(&app{})
	assert.Equal(t, "texbridge", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestSubcommands(t *testing.T) {
	cmd := newRootCmd(&app{})

	commandNames := make(map[string]bool)
	for _, subcmd := range cmd.Commands() {
		commandNames[subcmd.Name()] = true
	}

	for _, expected := range []string{"serve", "read", "write", "ls", "replace-section", "package", "version"} {
		assert.True(t, commandNames[expected], "Expected command %s not found", expected)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(&app{configFile: "/does/not/exist.yaml"}, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "texbridge dev\n", out)
}

func TestReplaceSectionRequiresTitle(t *testing.T) {
	_, err := execute(&app{logger: zap.NewNop(), loader: staticLoader{cfg: testConfig()}}, "", "replace-section", "resume.tex", "--body", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "title" not set`)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := execute(&app{configFile: "/does/not/exist.yaml"}, "", "ls")
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
	assert.True(t, strings.HasPrefix(err.Error(), "Configuration error: "))
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level   string
		enabled zap.AtomicLevel
		nop     bool
		wantErr bool
	}{
		{level: "debug", enabled: zap.NewAtomicLevelAt(zap.DebugLevel)},
		{level: "", enabled: zap.NewAtomicLevelAt(zap.InfoLevel)},
		{level: "WARN", enabled: zap.NewAtomicLevelAt(zap.WarnLevel)},
		{level: "none", nop: true},
		{level: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := newLogger(tt.level)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			core := logger.Core()
			if tt.nop {
				assert.False(t, core.Enabled(zap.ErrorLevel))
				return
			}
			lvl := tt.enabled.Level()
			assert.True(t, core.Enabled(lvl))
			if lvl > zap.DebugLevel {
				assert.False(t, core.Enabled(lvl-1))
			}
		})
	}
}

func TestReadAndList(t *testing.T) {
	a, _ := testApp(t, map[string]string{"resume.tex": resume, "refs.bib": "@book{x}"})

	out, err := execute(a, "", "ls")
	require.NoError(t, err)
	assert.Equal(t, "refs.bib\nresume.tex\n", out)

	out, err = execute(a, "", "read", "resume.tex")
	require.NoError(t, err)
	assert.Equal(t, "EXPERIENCE\n----------\nOld job at ACME.\n\nEDUCATION\n---------\nBSc, 2010.\n", out)

	out, err = execute(a, "", "read", "resume.tex", "--raw")
	require.NoError(t, err)
	assert.Equal(t, resume, out)
}

func TestReadMissingFileIsNotFatal(t *testing.T) {
	a, _ := testApp(t, map[string]string{"resume.tex": resume})

	out, err := execute(a, "", "read", "cover.tex")
	require.NoError(t, err)
	assert.Equal(t, "File not found: cover.tex does not exist in the repository\n", out)
}

func TestWriteFromStdin(t *testing.T) {
	a, remote := testApp(t, map[string]string{"resume.tex": resume})

	out, err := execute(a, "\\section{Notes}\n", "write", "notes.tex", "-m", "Add notes")
	require.NoError(t, err)
	assert.Equal(t, "Updated notes.tex and pushed to master (commit: \"Add notes\").\n", out)

	content, ok := remote.File("master", "notes.tex")
	require.True(t, ok)
	assert.Equal(t, "\\section{Notes}\n", content)
}

func TestWriteFromFileDryRun(t *testing.T) {
	a, remote := testApp(t, map[string]string{"resume.tex": resume})
	require.NoError(t, afero.WriteFile(a.fs, "/draft.tex", []byte("draft\n"), 0o644))

	out, err := execute(a, "", "write", "resume.tex", "--file", "/draft.tex", "--dry-run")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Dry run: resume.tex not published.\n"))
	assert.Contains(t, out, "+draft")
	assert.Equal(t, 1, remote.CommitCount("master"))
}

func TestReplaceSection(t *testing.T) {
	a, remote := testApp(t, map[string]string{"resume.tex": resume})

	out, err := execute(a, "", "replace-section", "resume.tex", "--title", "Experience", "--body", "New job at Initech.")
	require.NoError(t, err)
	assert.Equal(t, "Updated resume.tex and pushed to master (commit: \"Update \\\\section{Experience} in resume.tex\").\n", out)

	content, _ := remote.File("master", "resume.tex")
	assert.Contains(t, content, "\\section{Experience}\nNew job at Initech.\n\\section{Education}\nBSc, 2010.\n")

	out, err = execute(a, "", "replace-section", "resume.tex", "--title", "Experience", "--body", "New job at Initech.")
	require.NoError(t, err)
	assert.Equal(t, "No changes to commit: resume.tex already has this content.\n", out)
	assert.Equal(t, 2, remote.CommitCount("master"))
}

func TestReplaceSectionNotFound(t *testing.T) {
	a, remote := testApp(t, map[string]string{"resume.tex": resume})

	out, err := execute(a, "Chess.", "replace-section", "resume.tex", "--title", "Hobbies")
	require.NoError(t, err)
	assert.Equal(t, "No matching section: \\section{Hobbies} was not found in resume.tex. Nothing was committed.\n", out)
	assert.Equal(t, 1, remote.CommitCount("master"))
}

func TestPublishFailureIsFatal(t *testing.T) {
	a, remote := testApp(t, map[string]string{"resume.tex": resume})
	remote.RejectBranch("master")
	remote.RejectBranch("main")

	_, err := execute(a, "x\n", "write", "resume.tex")
	require.Error(t, err)
	assert.True(t, errors.IsPublishFailure(err))
	assert.True(t, strings.HasPrefix(err.Error(), "Publish failed: "))
	assert.NotContains(t, err.Error(), "cli-token")
}

type stubGenerator struct {
	reply string
	user  string
}

func (g *stubGenerator) Generate(_ context.Context, _, user string) (string, error) {
	g.user = user
	return g.reply, nil
}

func TestPackageCommand(t *testing.T) {
	gen := &stubGenerator{reply: `{"summary": "s", "usage_notes": "paste it"}`}
	a := &app{logger: zap.NewNop(), loader: staticLoader{cfg: testConfig()}, generator: gen}

	out, err := execute(a, "USER: hi\nASSISTANT: hello", "package", "--detail-level", "short", "--max-examples", "20")
	require.NoError(t, err)
	assert.JSONEq(t, `{"summary": "s", "usage_notes": "paste it"}`, out)
	assert.Contains(t, gen.user, "detail_level: short\n")
	assert.Contains(t, gen.user, "max_examples: 10\n")
}

func TestPackageCommandWithoutKey(t *testing.T) {
	a := &app{logger: zap.NewNop(), loader: staticLoader{cfg: testConfig()}}

	out, err := execute(a, "USER: hi", "package")
	require.Error(t, err)
	assert.Equal(t, "Gemini API key is not configured", err.Error())
	assert.JSONEq(t, `{"error": "Gemini API key is not configured"}`, out)
}
