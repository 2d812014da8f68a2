package patient

// Profile is the clinical snapshot read once per answer.
type Profile struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Age            int    `json:"age,omitempty"`
	Gender         string `json:"gender,omitempty"`
	MedicalHistory string `json:"medical_history,omitempty"`
	AllergyHistory string `json:"allergy_history,omitempty"`
}
