// Package packager condenses a chat transcript into a reusable prompt
// package by asking a generative model for a structured JSON summary.
package packager

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/NicabarNimble/go-texbridge/internal/config"
)

// Setting defaults and limits.
const (
	DefaultDetailLevel = "medium"
	DefaultTone        = "neutral"
	DefaultTargetUse   = "single_prompt"
	DefaultLanguage    = "en"
	DefaultMaxExamples = 3
	MaxExamplesLimit   = 10

	temperature = 0.2
)

var (
	detailLevels = []string{"short", "medium", "long"}
	tones        = []string{"neutral", "friendly", "formal"}
	targetUses   = []string{"system_prompt", "single_prompt"}
)

// Settings shape the generated package.
type Settings struct {
	DetailLevel string
	MaxExamples int
	Tone        string
	TargetUse   string
	Language    string
}

// DefaultSettings returns the settings used when a caller supplies none.
func DefaultSettings() Settings {
	return Settings{
		DetailLevel: DefaultDetailLevel,
		MaxExamples: DefaultMaxExamples,
		Tone:        DefaultTone,
		TargetUse:   DefaultTargetUse,
		Language:    DefaultLanguage,
	}
}

// Normalize replaces unknown values with defaults and clamps MaxExamples
// to [0, MaxExamplesLimit].
func (s Settings) Normalize() Settings {
	s.DetailLevel = SanitizeSetting(s.DetailLevel, detailLevels, DefaultDetailLevel)
	s.Tone = SanitizeSetting(s.Tone, tones, DefaultTone)
	s.TargetUse = SanitizeSetting(s.TargetUse, targetUses, DefaultTargetUse)
	if strings.TrimSpace(s.Language) == "" {
		s.Language = DefaultLanguage
	}
	switch {
	case s.MaxExamples < 0:
		s.MaxExamples = 0
	case s.MaxExamples > MaxExamplesLimit:
		s.MaxExamples = MaxExamplesLimit
	}
	return s
}

// SanitizeSetting lower-cases and trims value and returns it if allowed,
// otherwise def.
func SanitizeSetting(value string, allowed []string, def string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return def
}

// Generator produces text from a system instruction and user content.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// GeminiGenerator calls the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a Gemini-backed generator.
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = config.DefaultPackagerModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

// Generate implements Generator.
func (g *GeminiGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(user), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr[float32](temperature),
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// Packager builds prompt packages.
type Packager struct {
	Generator Generator
	Logger    *zap.Logger
}

// Package returns the model's prompt package for rawChat, or an object with
// an "error" field describing what went wrong. It never fails outright.
func (p *Packager) Package(ctx context.Context, rawChat string, s Settings) map[string]any {
	if strings.TrimSpace(rawChat) == "" {
		return errorResult("raw_chat is empty")
	}
	if p.Generator == nil {
		return errorResult("Gemini API key is not configured")
	}

	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s = s.Normalize()
	user, truncated := BuildUserContent(rawChat, s, MaxChatChars)
	logger.Info("building prompt package",
		zap.String("detail_level", s.DetailLevel),
		zap.Int("max_examples", s.MaxExamples),
		zap.Bool("truncated", truncated))

	out, err := p.Generator.Generate(ctx, SystemPrompt, user)
	if err != nil {
		logger.Warn("generation failed", zap.Error(err))
		return errorResult("Exception while calling Gemini: " + err.Error())
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return errorResult("Gemini returned empty response")
	}
	return SafeParseJSON(out)
}

func errorResult(msg string) map[string]any {
	return map[string]any{"error": msg}
}

// SafeParseJSON decodes a model reply into an object. It strips markdown
// code fences and a leading "json" tag, then falls back to the outermost
// brace-delimited span. Unparseable replies yield an error object holding
// the raw text.
func SafeParseJSON(raw string) map[string]any {
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		if len(lines) > 0 && strings.HasPrefix(lines[0], "```") {
			lines = lines[1:]
		}
		if len(lines) > 0 && strings.HasPrefix(lines[len(lines)-1], "```") {
			lines = lines[:len(lines)-1]
		}
		text = strings.TrimSpace(strings.Join(lines, "\n"))
		if strings.HasPrefix(strings.ToLower(text), "json") {
			text = strings.TrimSpace(text[4:])
		}
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err == nil && obj != nil {
		return obj
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), &obj); err == nil && obj != nil {
			return obj
		}
	}

	return map[string]any{
		"error": "Model did not return valid JSON",
		"raw":   raw,
	}
}
