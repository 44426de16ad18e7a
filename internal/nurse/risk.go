package nurse

import "strings"

// lowConfidence is the reasoning confidence below which a case is bumped to MEDIUM.
const lowConfidence = 0.4

var redFlagSymptoms = map[string]struct{}{
	"chest pain":            {},
	"severe bleeding":       {},
	"shortness of breath":   {},
	"difficulty breathing":  {},
	"loss of consciousness": {},
}

var distressMoods = map[Mood]struct{}{
	MoodAnxious:   {},
	MoodDepressed: {},
	MoodSad:       {},
	MoodAngry:     {},
	MoodPanicked:  {},
}

// HasRedFlags reports whether any reported symptom is in the red-flag set.
func HasRedFlags(in Intake) bool {
	for _, s := range in.Symptoms {
		if _, ok := redFlagSymptoms[strings.ToLower(strings.TrimSpace(s))]; ok {
			return true
		}
	}
	return false
}

// ClassifyRisk maps intake (and optionally a prior reasoning result) to a risk
// tier. Rules are applied in order and the first match wins: red-flag
// symptoms, low reasoning confidence, distressed mood, then LOW.
func ClassifyRisk(in Intake, prior *ReasoningResult) RiskLevel {
	if HasRedFlags(in) {
		return RiskHigh
	}
	if prior != nil && prior.Confidence < lowConfidence {
		return RiskMedium
	}
	if _, ok := distressMoods[Mood(strings.ToLower(strings.TrimSpace(in.Mood)))]; ok {
		return RiskMedium
	}
	return RiskLow
}

// mostSevere returns the higher of two comparable levels. UNKNOWN never wins
// over a known level.
func mostSevere(a, b RiskLevel) RiskLevel {
	if b.Severity() > a.Severity() {
		return b
	}
	return a
}
