package postprocess

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Detector finds conversational phrases in generated text.
type Detector interface {
	// IsClosing reports whether text contains a gratitude or closing token.
	IsClosing(text string) bool
	// FollowUpIndex returns the byte offset of the first follow-up marker,
	// or -1.
	FollowUpIndex(text string) int
}

var (
	DefaultClosingPhrases = []string{
		"thank you", "thanks", "okay", "got it",
		"谢谢", "好的", "知道了",
	}
	DefaultFollowUpPhrases = []string{
		"anything else", "may i ask", "any other questions", "any more questions", "feel free to ask",
		"还有什么", "请问还有",
	}
)

// PhraseDetector matches fixed phrases case-insensitively. Latin phrases
// match on word boundaries; inner whitespace matches a single space.
type PhraseDetector struct {
	closing  *regexp.Regexp
	followUp *regexp.Regexp
}

func NewPhraseDetector(closing, followUp []string) (*PhraseDetector, error) {
	c, err := phraseRegexp(closing)
	if err != nil {
		return nil, fmt.Errorf("closing phrases: %w", err)
	}
	f, err := phraseRegexp(followUp)
	if err != nil {
		return nil, fmt.Errorf("follow-up phrases: %w", err)
	}
	return &PhraseDetector{closing: c, followUp: f}, nil
}

// DefaultDetector returns a detector for the built-in phrase lists.
func DefaultDetector() *PhraseDetector {
	d, err := NewPhraseDetector(DefaultClosingPhrases, DefaultFollowUpPhrases)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *PhraseDetector) IsClosing(text string) bool {
	return d.closing != nil && d.closing.MatchString(text)
}

func (d *PhraseDetector) FollowUpIndex(text string) int {
	if d.followUp == nil {
		return -1
	}
	loc := d.followUp.FindStringIndex(text)
	if loc == nil {
		return -1
	}
	return loc[0]
}

func phraseRegexp(phrases []string) (*regexp.Regexp, error) {
	var alts []string
	for _, p := range phrases {
		words := strings.Fields(strings.ToLower(p))
		if len(words) == 0 {
			continue
		}
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		alt := strings.Join(words, " ")
		if first, _ := utf8.DecodeRuneInString(words[0]); isASCIIWord(first) {
			alt = `\b` + alt
		}
		last := words[len(words)-1]
		if r, _ := utf8.DecodeLastRuneInString(last); isASCIIWord(r) {
			alt += `\b`
		}
		alts = append(alts, alt)
	}
	if len(alts) == 0 {
		return nil, nil
	}
	return regexp.Compile(`(?i)(?:` + strings.Join(alts, "|") + `)`)
}

func isASCIIWord(r rune) bool {
	return r == '_' || ('0' <= r && r <= '9') || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
}
