package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viora-backend/internal/nurse"
)

func TestTemplateTone_PreservesExplanation(t *testing.T) {
	explanation := "Your temperature is slightly elevated; keep drinking fluids."
	moods := []string{"", "neutral", "anxious", "sad", "angry", "panicked"}
	risks := []nurse.RiskLevel{nurse.RiskLow, nurse.RiskMedium, nurse.RiskHigh, nurse.RiskUnknown}

	for _, mood := range moods {
		for _, risk := range risks {
			out := TemplateTone{}.Adapt(context.Background(), nurse.ToneInput{Explanation: explanation, Risk: risk, Mood: mood})
			assert.Contains(t, out.Message, explanation, "%s/%s", mood, risk)
			assert.False(t, out.Fallback)
		}
	}
}

func TestTemplateTone_PrefixAndSuffix(t *testing.T) {
	out := TemplateTone{}.Adapt(context.Background(), nurse.ToneInput{Explanation: "Rest.", Risk: nurse.RiskMedium, Mood: "Anxious"})
	assert.Equal(t, "I understand this can feel worrying. Rest. It may help to monitor your symptoms closely.", out.Message)

	out = TemplateTone{}.Adapt(context.Background(), nurse.ToneInput{Explanation: "Rest.", Risk: nurse.RiskHigh})
	assert.Equal(t, "Rest. Please consider contacting a doctor as soon as possible.", out.Message)
}

func TestLLMTone_MissingKeyFallsBack(t *testing.T) {
	tone := NewLLMTone(NewChatClient(ChatConfig{}))

	var out nurse.ToneOutcome
	require.NotPanics(t, func() {
		out = tone.Adapt(context.Background(), nurse.ToneInput{Explanation: "Drink water.", Risk: nurse.RiskLow})
	})

	assert.True(t, out.Fallback)
	assert.Equal(t, "I’m here with you. Based on what we understand so far:\n\nDrink water.", out.Message)
}

func TestLLMTone_FailureFallsBackVerbatim(t *testing.T) {
	texts := []string{"", "Drink water.", "  spaced  ", "multi\nline"}
	for _, text := range texts {
		tone := &LLMTone{chat: &stubCompleter{err: errors.New("timeout")}}
		out := tone.Adapt(context.Background(), nurse.ToneInput{Explanation: text})
		assert.Equal(t, ToneFallbackPrefix+text, out.Message)
		assert.True(t, out.Fallback)
	}
}

func TestLLMTone_EmptyCompletionFallsBack(t *testing.T) {
	tone := &LLMTone{chat: &stubCompleter{content: "   "}}
	out := tone.Adapt(context.Background(), nurse.ToneInput{Explanation: "Rest."})
	assert.Equal(t, ToneFallback("Rest."), out.Message)
	assert.True(t, out.Fallback)
}

func TestLLMTone_Rewrites(t *testing.T) {
	chat := &stubCompleter{content: "  You're doing well, keep resting.  "}
	tone := &LLMTone{chat: chat}

	out := tone.Adapt(context.Background(), nurse.ToneInput{Explanation: "Rest.", Risk: nurse.RiskLow})

	assert.False(t, out.Fallback)
	assert.Equal(t, "You're doing well, keep resting.", out.Message)
	assert.Equal(t, toneTemperature, chat.temp)
	require.Len(t, chat.last, 2)
	assert.Contains(t, chat.last[1].Content, "Rest.")
	assert.Contains(t, chat.last[1].Content, "LOW")
}

func TestLLMTone_RateLimitWaitIsBounded(t *testing.T) {
	ts := completionServer(t, "Take it easy today.", nil)
	tone := NewLLMTone(NewChatClient(ChatConfig{
		APIKey:  "test-key",
		BaseURL: ts.URL,
		Timeout: 200 * time.Millisecond,
		Limiter: NewLimiter(20, 1),
	}))
	in := nurse.ToneInput{Explanation: "Rest.", Risk: nurse.RiskLow}

	first := tone.Adapt(context.Background(), in)
	require.False(t, first.Fallback)

	start := time.Now()
	second := tone.Adapt(context.Background(), in)

	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, second.Fallback)
	assert.Equal(t, ToneFallback("Rest."), second.Message)
}
