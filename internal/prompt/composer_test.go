package prompt

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestBuildSystemPrompt_BaseOnly(t *testing.T) {
	c := NewComposer("Glad I could help. Wishing you a smooth recovery!")
	got := c.BuildSystemPrompt(nil, nil)

	assert.Contains(t, got, "80 to 120 characters")
	assert.Contains(t, got, "follow-up question")
	assert.Contains(t, got, `reply only with: "Glad I could help. Wishing you a smooth recovery!"`)
	assert.Contains(t, got, "severe pain or heavy bleeding")
	assert.Contains(t, got, "Do not diagnose")
	assert.NotContains(t, got, "Reference:")
	assert.NotContains(t, got, "allergies")
}

func TestBuildSystemPrompt_DefaultClosingWording(t *testing.T) {
	got := NewComposer("").BuildSystemPrompt(nil, nil)
	assert.Contains(t, got, "one short polite closing sentence")
	assert.NotContains(t, got, "%CLOSING%")
}

func TestBuildSystemPrompt_OnlyFirstSnippetTruncated(t *testing.T) {
	c := NewComposer("")
	long := strings.Repeat("护", 250)
	got := c.BuildSystemPrompt([]string{long, "second snippet"}, nil)

	idx := strings.Index(got, "Reference: ")
	assert.GreaterOrEqual(t, idx, 0)
	ref := got[idx+len("Reference: "):]
	assert.Equal(t, 200, utf8.RuneCountInString(ref))
	assert.NotContains(t, got, "second snippet")
}

func TestBuildSystemPrompt_Allergies(t *testing.T) {
	c := NewComposer("")

	tests := []struct {
		name  string
		flags *PatientFlags
		want  bool
	}{
		{"nil flags", nil, false},
		{"empty", &PatientFlags{}, false},
		{"blank", &PatientFlags{Allergies: "  "}, false},
		{"sentinel", &PatientFlags{Allergies: "none"}, false},
		{"sentinel upper", &PatientFlags{Allergies: "None"}, false},
		{"real allergy", &PatientFlags{Allergies: "penicillin"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.BuildSystemPrompt(nil, tt.flags)
			assert.Equal(t, tt.want, strings.Contains(got, "Patient allergies:"))
		})
	}
}

func TestBuildSystemPrompt_OrderAndDeterminism(t *testing.T) {
	c := NewComposer("")
	k := []string{"Avoid chewing on the crown for 24 hours."}
	f := &PatientFlags{Allergies: "latex"}

	a := c.BuildSystemPrompt(k, f)
	b := c.BuildSystemPrompt(k, f)
	assert.Equal(t, a, b)
	assert.Less(t, strings.Index(a, "Reference:"), strings.Index(a, "Patient allergies: latex"))
}

func TestCompose(t *testing.T) {
	c := NewComposer("")
	b := c.Compose("can I brush tonight", "user: hi\nassistant: hello", []string{"Brush gently."}, nil)

	assert.Equal(t, "Brush gently.", b.Knowledge)
	assert.Equal(t, c.BuildSystemPrompt([]string{"Brush gently."}, nil), b.SystemPrompt)
	assert.Equal(t, "Conversation so far:\nuser: hi\nassistant: hello\n\nPatient question: can I brush tonight", b.UserPrompt())
}

func TestUserPrompt_NoHistory(t *testing.T) {
	b := Bundle{UserMessage: "does it hurt"}
	assert.Equal(t, "does it hurt", b.UserPrompt())
}
