// Package prompt builds the instruction block and user prompt sent to the
// generation endpoint.
package prompt

import (
	"strings"
	"unicode/utf8"
)

const (
	// MaxSnippetRunes bounds the reference text placed in the system prompt.
	MaxSnippetRunes = 200

	noneSentinel = "none"
)

const baseInstructions = `You are a dental aftercare assistant helping patients recover after restorative dental procedures.
Rules:
1. Answer in 80 to 120 characters.
2. Do not end with a follow-up question. Do not use lists, numbering or headings.
3. %CLOSING%
4. For emergency symptoms such as severe pain or heavy bleeding, tell the patient to seek in-person care at the clinic immediately.
5. Do not diagnose. Give general guidance only.`

// PatientFlags carries the profile details that change what the assistant
// may recommend.
type PatientFlags struct {
	Allergies string
}

// Bundle is everything needed for one generation call. It is never stored.
type Bundle struct {
	SystemPrompt string
	Knowledge    string
	Flags        *PatientFlags
	History      string
	UserMessage  string
}

// UserPrompt renders the history and the question as the user-side prompt.
func (b Bundle) UserPrompt() string {
	if b.History == "" {
		return b.UserMessage
	}
	return "Conversation so far:\n" + b.History + "\n\nPatient question: " + b.UserMessage
}

// Composer builds system prompts. It is safe for concurrent use.
type Composer struct {
	base string
}

// NewComposer creates a Composer. closingReply is the fixed reply the model
// should give when the patient ends the conversation.
func NewComposer(closingReply string) *Composer {
	closing := "If the patient thanks you or ends the conversation, reply with one short polite closing sentence."
	if closingReply != "" {
		closing = `If the patient thanks you or ends the conversation, reply only with: "` + closingReply + `"`
	}
	return &Composer{base: strings.Replace(baseInstructions, "%CLOSING%", closing, 1)}
}

// BuildSystemPrompt appends the first knowledge snippet and any allergy
// warning to the base instructions. Output depends only on its inputs.
func (c *Composer) BuildSystemPrompt(knowledge []string, flags *PatientFlags) string {
	var sb strings.Builder
	sb.WriteString(c.base)

	if ref := firstSnippet(knowledge); ref != "" {
		sb.WriteString("\n\nReference: ")
		sb.WriteString(ref)
	}

	if a := allergies(flags); a != "" {
		sb.WriteString("\n\nPatient allergies: ")
		sb.WriteString(a)
		sb.WriteString(". Do not suggest any medication or material the patient is allergic to.")
	}
	return sb.String()
}

// Compose assembles the full bundle for one answer.
func (c *Composer) Compose(message, history string, knowledge []string, flags *PatientFlags) Bundle {
	return Bundle{
		SystemPrompt: c.BuildSystemPrompt(knowledge, flags),
		Knowledge:    firstSnippet(knowledge),
		Flags:        flags,
		History:      history,
		UserMessage:  message,
	}
}

func firstSnippet(knowledge []string) string {
	if len(knowledge) == 0 {
		return ""
	}
	return truncateRunes(strings.TrimSpace(knowledge[0]), MaxSnippetRunes)
}

func allergies(flags *PatientFlags) string {
	if flags == nil {
		return ""
	}
	a := strings.TrimSpace(flags.Allergies)
	if a == "" || strings.EqualFold(a, noneSentinel) {
		return ""
	}
	return a
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
