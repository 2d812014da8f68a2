// Package postprocess enforces the reply format on generated text: length
// cap, no follow-up questions, no headings or lists.
package postprocess

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxRunes is the longest reply the processor lets through.
	MaxRunes = 120

	capSearchFrom = 60
	hardCutRunes  = 100
	ellipsis      = "..."

	DefaultClosingReply = "You're welcome. Wishing you a smooth recovery!"
)

const terminators = ".!?。！？"

var (
	headingLine = regexp.MustCompile(`(?m)^[ \t]*(?:\[[^\]\n]*\]|【[^】\n]*】|#{1,6}(?:[ \t][^\n]*)?)[ \t]*(?:\n|$)`)
	numbered    = regexp.MustCompile(`(?:\A|\n)[ \t]*\d{1,2}(?:[.)][ \t]+|[、）][ \t]*)`)
	bulleted    = regexp.MustCompile(`(?:\A|\n)[ \t]*[-*•][ \t]+`)
	blankLines  = regexp.MustCompile(`\n(?:[ \t]*\n)+`)
)

// Processor rewrites raw model output into a short plain answer. Process is
// deterministic and idempotent.
type Processor struct {
	detector     Detector
	closingReply string
}

// New creates a Processor. closingReply replaces any follow-up in a closing
// exchange; it must be short and must not itself contain a follow-up marker.
func New(detector Detector, closingReply string) (*Processor, error) {
	if detector == nil {
		return nil, errors.New("detector is required")
	}
	reply := cleanup(closingReply)
	if reply == "" {
		return nil, errors.New("closing reply is empty")
	}
	if n := utf8.RuneCountInString(reply); n > MaxRunes/2 {
		return nil, fmt.Errorf("closing reply is %d characters, limit %d", n, MaxRunes/2)
	}
	if detector.FollowUpIndex(reply) >= 0 {
		return nil, errors.New("closing reply contains a follow-up marker")
	}
	return &Processor{detector: detector, closingReply: reply}, nil
}

// Process applies, in order: the closing shortcut, the length cap,
// follow-up stripping, then heading, list and whitespace cleanup until the
// text stops changing.
func (p *Processor) Process(raw string) string {
	if p.detector.IsClosing(raw) {
		if idx := p.detector.FollowUpIndex(raw); idx >= 0 {
			return p.closing(raw[:idx])
		}
	}

	text := capLength(raw)
	for {
		if idx := p.detector.FollowUpIndex(text); idx >= 0 {
			text = strings.TrimRightFunc(text[:idx], unicode.IsSpace)
		}
		next := cleanup(text)
		if next == text {
			return next
		}
		text = next
	}
}

// closing keeps the answer given before the follow-up and appends the fixed
// reply, shortening the kept part so the whole stays within MaxRunes.
func (p *Processor) closing(prefix string) string {
	kept := ensureTerminal(cleanup(prefix))

	budget := MaxRunes - utf8.RuneCountInString(p.closingReply) - 1
	if utf8.RuneCountInString(kept) > budget {
		kept = shorten(kept, budget)
	}
	if kept == "" {
		return p.closingReply
	}

	out := cleanup(kept + " " + p.closingReply)
	// A hard cut can complete a marker ("anything elsewhere" -> "anything else...").
	if p.detector.FollowUpIndex(out) >= 0 || utf8.RuneCountInString(out) > MaxRunes {
		return p.closingReply
	}
	return out
}

// capLength cuts text longer than MaxRunes at the first sentence end between
// rune 60 and 119, or hard-cuts to 100 runes plus an ellipsis.
func capLength(text string) string {
	runes := []rune(text)
	if len(runes) <= MaxRunes {
		return text
	}
	for i := capSearchFrom; i < MaxRunes; i++ {
		if isTerminator(runes[i]) {
			return string(runes[:i+1])
		}
	}
	return string(runes[:hardCutRunes]) + ellipsis
}

// shorten fits text into n runes, preferring the last complete sentence.
func shorten(text string, n int) string {
	runes := []rune(text)
	for i := n - 1; i >= 0; i-- {
		if isTerminator(runes[i]) {
			return string(runes[:i+1])
		}
	}
	if n <= len(ellipsis) {
		return ""
	}
	return strings.TrimRightFunc(string(runes[:n-len(ellipsis)]), unicode.IsSpace) + ellipsis
}

func ensureTerminal(text string) string {
	text = strings.TrimRightFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(",;:，；：、", r)
	})
	if text == "" {
		return text
	}
	last, _ := utf8.DecodeLastRuneInString(text)
	if isTerminator(last) {
		return text
	}
	if unicode.Is(unicode.Han, last) {
		return text + "。"
	}
	return text + "."
}

func isTerminator(r rune) bool {
	return strings.ContainsRune(terminators, r)
}

// cleanup removes headings and list markers and collapses blank lines,
// repeating until nothing changes. Every rewrite shortens the text, so the
// loop ends.
func cleanup(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for {
		next := headingLine.ReplaceAllString(text, "")
		next = joinMarkers(next, numbered, "; ")
		next = joinMarkers(next, bulleted, ", ")
		next = blankLines.ReplaceAllString(next, "\n")
		next = strings.TrimSpace(next)
		if next == text {
			return next
		}
		text = next
	}
}

// joinMarkers replaces each list marker with sep, or with a single space
// when the text before it already ends a clause, or with nothing at the
// start of the text.
func joinMarkers(text string, re *regexp.Regexp, sep string) string {
	locs := re.FindAllStringIndex(text, -1)
	if locs == nil {
		return text
	}
	var sb strings.Builder
	prev := 0
	for _, loc := range locs {
		sb.WriteString(text[prev:loc[0]])
		before := strings.TrimRightFunc(sb.String(), unicode.IsSpace)
		sb.Reset()
		sb.WriteString(before)
		switch {
		case before == "":
		case endsClause(before):
			sb.WriteString(" ")
		default:
			sb.WriteString(sep)
		}
		prev = loc[1]
	}
	sb.WriteString(text[prev:])
	return sb.String()
}

func endsClause(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return isTerminator(r) || strings.ContainsRune(",;:，；：、", r)
}
