package patient

import (
	"context"
	"log/slog"

	"github.com/dentalcare/aftercare/internal/prompt"
)

// Loader turns a stored profile into prompt flags.
type Loader struct {
	store Store
}

func NewLoader(store Store) *Loader {
	return &Loader{store: store}
}

// Flags returns the prompt flags for a patient, or nil when the patient is
// unknown or the store cannot be read.
func (l *Loader) Flags(ctx context.Context, patientID int64) *prompt.PatientFlags {
	if l.store == nil || patientID <= 0 {
		return nil
	}
	p, err := l.store.Get(ctx, patientID)
	if err != nil {
		slog.Warn("loading patient profile, answering without flags", "error", err, "patient_id", patientID)
		return nil
	}
	if p == nil {
		return nil
	}
	return &prompt.PatientFlags{Allergies: p.AllergyHistory}
}
