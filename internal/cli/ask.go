package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dentalcare/aftercare/internal/dialogue"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Ask the assistant a question",
		Long:  "Answer a patient question through the full pipeline and optionally record the turn.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk,
	}

	cmd.Flags().Int64P("patient", "p", 0, "Patient ID (0 for anonymous)")
	cmd.Flags().StringP("session", "s", "", "Session ID (default: a new one)")
	cmd.Flags().Bool("record", false, "Record the turn in the dialogue log")

	RootCmd.AddCommand(cmd)
}

type askOutput struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
	TurnID    string `json:"turn_id,omitempty"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	patientID, _ := cmd.Flags().GetInt64("patient")
	sessionID, _ := cmd.Flags().GetString("session")
	record, _ := cmd.Flags().GetBool("record")
	message := strings.Join(args, " ")

	if record && patientID <= 0 {
		return fmt.Errorf("--record requires --patient")
	}
	if sessionID == "" {
		sessionID = "cli-" + uuid.NewString()
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	answer := a.Orchestrator.Answer(cmd.Context(), message, patientID, sessionID)
	out := askOutput{SessionID: sessionID, Answer: answer}

	if record {
		turn := &dialogue.Turn{
			ID:          uuid.New(),
			PatientID:   patientID,
			SessionID:   sessionID,
			UserMessage: message,
			AIResponse:  answer,
			MessageType: dialogue.DefaultMessageType,
			CreatedAt:   time.Now().UTC(),
		}
		if err := a.Recorder.Record(cmd.Context(), turn); err != nil {
			return fmt.Errorf("recording turn: %w", err)
		}
		out.TurnID = turn.ID.String()
	}

	if formatFlag == "json" {
		b, _ := json.MarshalIndent(out, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), answer)
	return nil
}
