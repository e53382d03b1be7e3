package packager

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxChatChars is the transcript length kept for the model. Longer
// transcripts keep only their most recent characters.
const MaxChatChars = 30000

const truncationNotice = "NOTE: The original conversation was very long. Only the most recent portion was provided below.\n\n"

// SystemPrompt instructs the model to turn a transcript into a prompt
// package.
const SystemPrompt = `You turn a complete chat history into a portable prompt package.

The user will paste your "final_prompt" into a new chat with any assistant, so that assistant can continue the work as if it had read the whole conversation.

INPUT
You receive a SETTINGS block and a transcript between CONVERSATION START and CONVERSATION END markers. Transcript lines look like "SYSTEM: ...", "USER: ..." or "ASSISTANT: ...".
Settings:
- detail_level: short, medium or long.
- max_examples: the most example pairs to include.
- tone: neutral, friendly or formal. Applies to the summary and final_prompt.
- target_use: system_prompt (configuration for a new assistant) or single_prompt (one user message pasted into a new chat).
- language: write every output field in this language.

TASKS
1. Read the conversation. Find the user's main goal, secondary topics, constraints, preferences, key facts, artifacts (schemas, formats, architectures, templates) and the answers the user accepted.
2. Summary. Cover what the user wants, what was decided, what progress was made and what is still open. Length: short = 3 to 5 sentences; medium = 1 to 3 short paragraphs; long = more detail, still concise. Skip small talk and irrelevant side topics.
3. Context object:
   - user_goal: one clear sentence.
   - constraints: rules and limits (style, technology, length, do and do-not rules).
   - preferences: tone, formatting, level of detail, favoured tools.
   - key_facts: values, URLs, IDs, numbers, deadlines, domain rules that matter later.
   - artifacts: schemas, patterns, architectures, formats, prompts, workflows agreed in the chat.
   - open_questions: unresolved questions and next steps.
   Prefer the most recent statement when information conflicts. Leave out trivial facts. Use an empty list when a field has nothing.
   Redact anything that looks like a secret (API keys, passwords, tokens, full personal addresses) as "[REDACTED]".
4. Examples. Pick up to max_examples pairs of a representative user request and a helpful assistant reply the user accepted. Prefer recent pairs that match the final direction and style. Trim long messages but keep their intent. Include fewer when good pairs are lacking.
5. final_prompt. One block of text with, in order: the new assistant's role; a short background summary; the user goal; constraints and preferences as short lines; key facts and artifacts (secrets redacted); the examples as "Example N - User:" / "Example N - Assistant:"; instructions for the new assistant. For system_prompt write configuration-style rules for answering future messages. For single_prompt write a user message that gives the context and says follow-up questions will come. Always tell the assistant to behave as if it read the whole conversation and to follow the constraints and preferences strictly. Use the requested tone.
6. usage_notes. Briefly tell the user how to use final_prompt on a new platform.

OUTPUT
Return a single JSON object and nothing else (no markdown, no backticks):
{
  "summary": "string",
  "context": {
    "user_goal": "string",
    "constraints": ["string"],
    "preferences": ["string"],
    "key_facts": ["string"],
    "artifacts": ["string"],
    "open_questions": ["string"]
  },
  "examples": [{"user": "string", "assistant": "string"}],
  "final_prompt": "string",
  "usage_notes": "string"
}
Lists must be valid JSON arrays, empty when there is nothing to list. Do not invent facts the conversation does not support. Do not leak secrets.`

// BuildUserContent formats the settings and transcript sent to the model.
// It reports whether the transcript was cut to its last maxChars characters.
func BuildUserContent(rawChat string, s Settings, maxChars int) (string, bool) {
	chat := rawChat
	truncated := false
	if maxChars > 0 && utf8.RuneCountInString(chat) > maxChars {
		runes := []rune(chat)
		chat = string(runes[len(runes)-maxChars:])
		truncated = true
	}

	var b strings.Builder
	if truncated {
		b.WriteString(truncationNotice)
	}
	b.WriteString("================ SETTINGS ====================\n")
	fmt.Fprintf(&b, "detail_level: %s\n", s.DetailLevel)
	fmt.Fprintf(&b, "max_examples: %d\n", s.MaxExamples)
	fmt.Fprintf(&b, "tone: %s\n", s.Tone)
	fmt.Fprintf(&b, "target_use: %s\n", s.TargetUse)
	fmt.Fprintf(&b, "language: %s\n", s.Language)
	b.WriteString("\n================ CONVERSATION START ================\n")
	b.WriteString(chat)
	b.WriteString("\n================ CONVERSATION END ==================\n")
	return b.String(), truncated
}
