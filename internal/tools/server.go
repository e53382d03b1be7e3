// Package tools exposes the bridge operations and the prompt packager as MCP
// tools served over stdio.
package tools

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/NicabarNimble/go-texbridge/internal/bridge"
	"github.com/NicabarNimble/go-texbridge/internal/latex"
	"github.com/NicabarNimble/go-texbridge/internal/packager"
)

// ServerName is reported to MCP clients during initialization.
const ServerName = "texbridge"

// Tool names.
const (
	ToolReadFile       = "read_file"
	ToolWriteFile      = "write_file"
	ToolListFiles      = "list_files"
	ToolReplaceSection = "replace_section"
	ToolPackage        = "build_prompt_package"
)

// Server routes MCP tool calls to the bridge service and the packager.
type Server struct {
	Bridge   *bridge.Service
	Packager *packager.Packager
	Logger   *zap.Logger

	mcp *server.MCPServer
}

// NewServer registers every tool on a new MCP server.
func NewServer(svc *bridge.Service, pkg *packager.Packager, version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pkg == nil {
		pkg = &packager.Packager{Logger: logger}
	}

	s := &Server{Bridge: svc, Packager: pkg, Logger: logger}
	s.mcp = server.NewMCPServer(ServerName, version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	s.mcp.AddTool(mcp.NewTool(ToolReadFile,
		mcp.WithDescription("Read a file from the LaTeX repository. Returns a plain-text preview unless raw is set."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path relative to the repository root, e.g. main.tex")),
		mcp.WithBoolean("raw", mcp.DefaultBool(false), mcp.Description("Return the LaTeX source instead of the preview")),
	), s.readFile)

	s.mcp.AddTool(mcp.NewTool(ToolWriteFile,
		mcp.WithDescription("Overwrite a file in the LaTeX repository with new content, then commit and push."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path relative to the repository root")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Full new file content")),
		mcp.WithString("message", mcp.Description("Commit message")),
	), s.writeFile)

	s.mcp.AddTool(mcp.NewTool(ToolListFiles,
		mcp.WithDescription("List every file in the LaTeX repository."),
	), s.listFiles)

	s.mcp.AddTool(mcp.NewTool(ToolReplaceSection,
		mcp.WithDescription("Replace the body of the first section with the given title, then commit and push. The heading itself is kept."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path relative to the repository root")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Exact heading title, e.g. Experience")),
		mcp.WithString("new_body", mcp.Required(), mcp.Description("New LaTeX body for the section")),
		mcp.WithString("heading_command", mcp.DefaultString(latex.DefaultHeadingCommand), mcp.Description("Sectioning command, e.g. section or subsection")),
		mcp.WithString("message", mcp.Description("Commit message")),
	), s.replaceSection)

	s.mcp.AddTool(mcp.NewTool(ToolPackage,
		mcp.WithDescription("Turn a full chat transcript into a portable prompt package (summary, context, examples, final prompt)."),
		mcp.WithString("raw_chat", mcp.Required(), mcp.Description("Transcript with SYSTEM:/USER:/ASSISTANT: lines")),
		mcp.WithString("detail_level", mcp.DefaultString(packager.DefaultDetailLevel), mcp.Enum("short", "medium", "long")),
		mcp.WithNumber("max_examples", mcp.DefaultNumber(packager.DefaultMaxExamples), mcp.Min(0), mcp.Max(packager.MaxExamplesLimit)),
		mcp.WithString("tone", mcp.DefaultString(packager.DefaultTone), mcp.Enum("neutral", "friendly", "formal")),
		mcp.WithString("target_use", mcp.DefaultString(packager.DefaultTargetUse), mcp.Enum("system_prompt", "single_prompt")),
		mcp.WithString("language", mcp.DefaultString(packager.DefaultLanguage)),
	), s.buildPromptPackage)

	return s
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// Serve speaks MCP over the given streams until ctx is cancelled or in is
// closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(zap.NewStdLog(s.Logger))
	s.Logger.Info("serving tools over stdio")
	return stdio.Listen(ctx, in, out)
}

// result converts a bridge outcome into tool output. Informational outcomes
// are ordinary text results; only fatal ones are flagged as errors.
func (s *Server) result(tool, text string, err error) *mcp.CallToolResult {
	if err == nil {
		return mcp.NewToolResultText(text)
	}
	msg := bridge.Describe(err)
	if bridge.Fatal(err) {
		s.Logger.Warn("tool failed", zap.String("tool", tool), zap.Error(err))
		return mcp.NewToolResultError(msg)
	}
	return mcp.NewToolResultText(msg)
}

func (s *Server) readFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := s.Bridge.ReadFile(ctx, path, req.GetBool("raw", false))
	return s.result(ToolReadFile, text, err), nil
}

func (s *Server) writeFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	report, err := s.Bridge.WriteFile(ctx, bridge.WriteRequest{
		Path:    path,
		Content: content,
		Message: req.GetString("message", ""),
	})
	if err != nil {
		return s.result(ToolWriteFile, "", err), nil
	}
	return mcp.NewToolResultText(report.String()), nil
}

func (s *Server) listFiles(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := s.Bridge.ListFiles(ctx)
	if err != nil {
		return s.result(ToolListFiles, "", err), nil
	}
	return mcp.NewToolResultText(strings.Join(files, "\n")), nil
}

func (s *Server) replaceSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args [3]string
	for i, key := range []string{"path", "title", "new_body"} {
		v, err := req.RequireString(key)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		args[i] = v
	}

	report, err := s.Bridge.ReplaceSection(ctx, bridge.ReplaceRequest{
		Path:    args[0],
		Title:   args[1],
		Body:    args[2],
		Command: req.GetString("heading_command", latex.DefaultHeadingCommand),
		Message: req.GetString("message", ""),
	})
	if err != nil {
		return s.result(ToolReplaceSection, "", err), nil
	}
	return mcp.NewToolResultText(report.String()), nil
}

func (s *Server) buildPromptPackage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	settings := packager.Settings{
		DetailLevel: req.GetString("detail_level", packager.DefaultDetailLevel),
		MaxExamples: req.GetInt("max_examples", packager.DefaultMaxExamples),
		Tone:        req.GetString("tone", packager.DefaultTone),
		TargetUse:   req.GetString("target_use", packager.DefaultTargetUse),
		Language:    req.GetString("language", packager.DefaultLanguage),
	}

	out := s.Packager.Package(ctx, req.GetString("raw_chat", ""), settings)
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, err
	}
	if _, failed := out["error"]; failed && len(out) == 1 {
		return mcp.NewToolResultError(string(data)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
