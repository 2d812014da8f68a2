package dialogue

import (
	"context"
	"log/slog"
	"strings"
)

// Assembler renders the recent history of a session as prompt context.
type Assembler struct {
	log Log
}

func NewAssembler(log Log) *Assembler {
	return &Assembler{log: log}
}

// GetContext returns the last maxTurns turns of the session, oldest first,
// as alternating "user:" and "assistant:" lines. It returns "" when there is
// nothing to show or the log cannot be read.
func (a *Assembler) GetContext(ctx context.Context, sessionID string, maxTurns int) string {
	if sessionID == "" || maxTurns <= 0 || a.log == nil {
		return ""
	}

	turns, err := a.log.RecentTurns(ctx, sessionID, maxTurns)
	if err != nil {
		slog.Warn("dialogue log unavailable, answering without history", "error", err, "session_id", sessionID)
		return ""
	}
	if len(turns) > maxTurns {
		turns = turns[:maxTurns]
	}

	lines := make([]string, 0, 2*len(turns))
	for i := len(turns) - 1; i >= 0; i-- {
		lines = append(lines,
			"user: "+turns[i].UserMessage,
			"assistant: "+turns[i].AIResponse,
		)
	}
	return strings.Join(lines, "\n")
}
