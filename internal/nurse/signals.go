package nurse

const (
	placeholderSummary = "Temporary clinical normalization"
	signalConfidence   = 0.7
)

// ExtractSignals normalises raw intake into a ClinicalSignals bag. It never
// fails: absent symptoms become an empty list and an absent mood is neutral.
func ExtractSignals(in Intake) ClinicalSignals {
	symptoms := in.Symptoms
	if symptoms == nil {
		symptoms = []string{}
	}

	mood := in.Mood
	if mood == "" {
		mood = string(MoodNeutral)
	}

	return ClinicalSignals{
		NormalizedSymptoms: symptoms,
		MentalState:        mood,
		ClinicalSummary:    placeholderSummary,
		Confidence:         signalConfidence,
	}
}

// AsMap renders signals the way they appear under clinical_signals on the wire.
func (s ClinicalSignals) AsMap() map[string]any {
	symptoms := make([]any, 0, len(s.NormalizedSymptoms))
	for _, sym := range s.NormalizedSymptoms {
		symptoms = append(symptoms, sym)
	}
	return map[string]any{
		"normalized_symptoms": symptoms,
		"mental_state":        s.MentalState,
		"clinical_summary":    s.ClinicalSummary,
		"confidence":          s.Confidence,
	}
}
