package nurse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyRisk(t *testing.T) {
	low := &ReasoningResult{Confidence: 0.2}
	high := &ReasoningResult{Confidence: 0.9}

	tests := []struct {
		name  string
		in    Intake
		prior *ReasoningResult
		want  RiskLevel
	}{
		{"no symptoms neutral", Intake{Mood: "neutral"}, nil, RiskLow},
		{"red flag", Intake{Symptoms: []string{"chest pain"}}, nil, RiskHigh},
		{"red flag case insensitive", Intake{Symptoms: []string{"  Shortness of Breath "}}, nil, RiskHigh},
		{"red flag beats calm mood and high confidence", Intake{Symptoms: []string{"severe bleeding"}, Mood: "neutral"}, high, RiskHigh},
		{"red flag beats low confidence", Intake{Symptoms: []string{"loss of consciousness"}}, low, RiskHigh},
		{"low confidence", Intake{Mood: "neutral"}, low, RiskMedium},
		{"confidence at threshold", Intake{Mood: "neutral"}, &ReasoningResult{Confidence: 0.4}, RiskLow},
		{"anxious mood", Intake{Mood: "anxious"}, high, RiskMedium},
		{"panicked mood", Intake{Mood: "PANICKED"}, nil, RiskMedium},
		{"unlisted symptom", Intake{Symptoms: []string{"headache"}, Mood: "neutral"}, high, RiskLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyRisk(tt.in, tt.prior))
		})
	}
}

func TestClassifyRisk_Pure(t *testing.T) {
	in := Intake{Symptoms: []string{"dizziness"}, Mood: "sad"}
	prior := &ReasoningResult{Confidence: 0.6}

	first := ClassifyRisk(in, prior)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ClassifyRisk(in, prior))
	}
	assert.Equal(t, []string{"dizziness"}, in.Symptoms)
	assert.Equal(t, 0.6, prior.Confidence)
}

func TestClassifyRisk_RedFlagsAlwaysHigh(t *testing.T) {
	moods := []string{"", "neutral", "anxious", "depressed", "angry"}
	confidences := []float64{0, 0.3, 0.5, 1}

	for flag := range redFlagSymptoms {
		for _, mood := range moods {
			for _, c := range confidences {
				in := Intake{Symptoms: []string{"fatigue", flag}, Mood: mood}
				assert.Equal(t, RiskHigh, ClassifyRisk(in, &ReasoningResult{Confidence: c}), "%s/%s/%v", flag, mood, c)
			}
		}
	}
}

func TestParseRiskLevel(t *testing.T) {
	assert.Equal(t, RiskHigh, ParseRiskLevel("high"))
	assert.Equal(t, RiskMedium, ParseRiskLevel(" Medium "))
	assert.Equal(t, RiskLow, ParseRiskLevel("LOW"))
	assert.Equal(t, RiskUnknown, ParseRiskLevel(""))
	assert.Equal(t, RiskUnknown, ParseRiskLevel("critical"))
}

func TestMostSevere(t *testing.T) {
	assert.Equal(t, RiskHigh, mostSevere(RiskLow, RiskHigh))
	assert.Equal(t, RiskMedium, mostSevere(RiskMedium, RiskLow))
	assert.Equal(t, RiskLow, mostSevere(RiskLow, RiskUnknown))
	assert.Equal(t, RiskMedium, mostSevere(RiskUnknown, RiskMedium))
}
