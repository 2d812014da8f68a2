// Package fallback picks a canned aftercare answer when generation is
// unavailable.
package fallback

import (
	"strings"
)

// ReferralSuffix follows a knowledge snippet returned without generation.
const ReferralSuffix = " Please follow your dentist's instructions, and contact the clinic if anything feels wrong."

// Generic is returned when no rule matches.
const Generic = "Thank you for your question. For care after dental restoration work:\n" +
	"1. Take medication exactly as prescribed\n" +
	"2. Keep your mouth clean\n" +
	"3. Attend your follow-up visits on time\n" +
	"4. Contact your dentist if anything feels unusual\n\n" +
	"Is there anything else I can help you with?"

// Rule maps keywords to a canned answer. A rule matches when the
// lower-cased message contains any keyword.
type Rule struct {
	Category string
	Keywords []string
	Answer   string
}

func (r Rule) matches(message string) bool {
	for _, kw := range r.Keywords {
		if kw != "" && strings.Contains(message, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// DefaultRules are evaluated in order; the first match wins.
var DefaultRules = []Rule{
	{
		Category: "timeline",
		Keywords: []string{"follow-up", "follow up", "recheck", "revisit", "check-up", "checkup", "appointment", "stitches", "复诊"},
		Answer: "Please come back for review at the times your dentist gave you. As a general guide:\n" +
			"- Implant stitches come out after 7 days\n" +
			"- The second implant stage follows after 3 to 6 months\n" +
			"- Fixed crowns and bridges are checked at 1 week, 1 month and 3 months\n" +
			"- Removable dentures are checked at 1 week and 1 month\n\n" +
			"Your own dentist's schedule always takes precedence.",
	},
	{
		Category: "pain",
		Keywords: []string{"hurt", "pain", "ache", "sore", "疼", "痛"},
		Answer: "Mild discomfort after the procedure is normal and usually eases within 3 to 5 days. We suggest you:\n" +
			"1. Take pain relief as prescribed\n" +
			"2. Avoid chewing on the treated side\n" +
			"3. Keep your mouth clean\n\n" +
			"If the pain is severe or keeps getting worse, contact your dentist or come in to be seen.",
	},
	{
		Category: "bleeding",
		Keywords: []string{"bleed", "blood", "出血"},
		Answer: "A little oozing in the first 24 hours is normal. We suggest you:\n" +
			"1. Bite gently on gauze for 30 to 60 minutes\n" +
			"2. Avoid frequent spitting or sucking at the wound\n" +
			"3. Avoid very hot food\n\n" +
			"If the bleeding does not stop or is heavy, seek care immediately.",
	},
	{
		Category: "hygiene",
		Keywords: []string{"brush", "rinse", "floss", "mouthwash", "刷牙", "漱口"},
		Answer: "Keeping your mouth clean after the procedure:\n" +
			"1. Do not brush for the first 24 hours; rinse gently with the prescribed mouthwash\n" +
			"2. After 24 hours brush normally but avoid the treated area\n" +
			"3. Rinse with warm salt water or mouthwash after meals",
	},
	{
		Category: "diet",
		Keywords: []string{"food", "diet", "drink", "meal", "eating", "can i eat", "chew", "吃", "饮食"},
		Answer: "Eating after the procedure:\n" +
			"1. Do not eat for 2 hours after the procedure\n" +
			"2. For the first week choose soft, lukewarm food and chew on the other side\n" +
			"3. Return to a normal diet gradually after a month\n" +
			"4. Avoid hard, very hot or spicy food",
	},
}

// Responder selects canned answers. It is pure and never returns an empty
// string.
type Responder struct {
	rules []Rule
}

// NewResponder creates a Responder over rules, or DefaultRules when rules is
// empty.
func NewResponder(rules []Rule) *Responder {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Responder{rules: rules}
}

// Respond returns the first knowledge snippet with a referral suffix when one
// is available, otherwise the answer of the first matching rule, otherwise
// Generic.
func (r *Responder) Respond(message string, knowledge []string) string {
	for _, k := range knowledge {
		if s := strings.TrimSpace(k); s != "" {
			return s + ReferralSuffix
		}
	}
	if rule, ok := r.Match(message); ok && rule.Answer != "" {
		return rule.Answer
	}
	return Generic
}

// Match returns the first rule that matches message.
func (r *Responder) Match(message string) (Rule, bool) {
	lower := strings.ToLower(message)
	for _, rule := range r.rules {
		if rule.matches(lower) {
			return rule, true
		}
	}
	return Rule{}, false
}
