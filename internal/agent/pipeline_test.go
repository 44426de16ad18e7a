package agent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viora-backend/internal/nurse"
)

func centralServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestPipeline_ChestPainIsHighRegardlessOfConfidence(t *testing.T) {
	for _, confidence := range []string{"0.05", "0.5", "0.99"} {
		ts := centralServer(t, `{"risk_level":"LOW","ai_explanation":"Noted.","confidence":`+confidence+`}`)
		p := nurse.NewPipeline(NewCentralProvider(ts.URL, "", time.Second), TemplateTone{}, nil)

		resp := p.Run(context.Background(), nurse.Intake{PatientID: "p1", Symptoms: []string{"chest pain"}, Mood: "neutral"})
		assert.Equal(t, nurse.RiskHigh, resp.RiskLevel, confidence)
	}
}

func TestPipeline_AnxiousGetsEmpathyPrefix(t *testing.T) {
	ts := centralServer(t, `{"ai_explanation":"This is common after discharge.","confidence":0.9}`)
	p := nurse.NewPipeline(NewCentralProvider(ts.URL, "", time.Second), TemplateTone{}, nil)

	resp := p.Run(context.Background(), nurse.Intake{PatientID: "p1", Symptoms: []string{}, Mood: "anxious"})

	assert.Equal(t, nurse.RiskMedium, resp.RiskLevel)
	assert.True(t, strings.HasPrefix(resp.PatientMessage, "I understand this can feel worrying. "))
	assert.Contains(t, resp.PatientMessage, "This is common after discharge.")
}

func TestPipeline_CentralWithoutConfidenceStaysLow(t *testing.T) {
	ts := centralServer(t, `{"risk_level":"LOW","ai_explanation":"Rest and hydrate."}`)
	p := nurse.NewPipeline(NewCentralProvider(ts.URL, "", time.Second), TemplateTone{}, nil)

	resp := p.Run(context.Background(), nurse.Intake{PatientID: "p1", Symptoms: []string{"tiredness"}, Mood: "neutral"})

	assert.Equal(t, nurse.RiskLow, resp.RiskLevel)
	assert.Equal(t, 0.0, resp.Confidence)
	assert.Equal(t, "Rest and hydrate. Many people experience this temporarily.", resp.PatientMessage)
}

func TestPipeline_CentralUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	p := nurse.NewPipeline(NewCentralProvider(url, "", time.Second), NewLLMTone(nil), nil)

	var out nurse.Outcome
	require.NotPanics(t, func() {
		out = p.Evaluate(context.Background(), nurse.Intake{PatientID: "p1", Symptoms: []string{"headache"}})
	})

	resp := out.Response
	assert.True(t, out.Degraded)
	assert.Equal(t, nurse.RiskUnknown, resp.RiskLevel)
	assert.Equal(t, 0.0, resp.Confidence)
	assert.NotEmpty(t, resp.PatientMessage)
	assert.Equal(t, nurse.Escalation{RequiresDoctor: false, Reason: "central_unavailable"}, resp.Escalation)
}

func TestPipeline_CentralFailureModes(t *testing.T) {
	servers := map[string]*httptest.Server{
		"5xx":       statusServer(t, http.StatusServiceUnavailable, ""),
		"malformed": statusServer(t, http.StatusOK, "{"),
	}

	for name, ts := range servers {
		t.Run(name, func(t *testing.T) {
			p := nurse.NewPipeline(NewCentralProvider(ts.URL, "", time.Second), TemplateTone{}, nurse.Guard{})
			resp := p.Run(context.Background(), nurse.Intake{PatientID: "p1", Mood: "sad"})

			assert.Equal(t, nurse.RiskUnknown, resp.RiskLevel)
			assert.Equal(t, 0.0, resp.Confidence)
			assert.NotEmpty(t, resp.PatientMessage)
		})
	}
}

func TestPipeline_ToneWithoutKeyUsesFallback(t *testing.T) {
	ts := centralServer(t, `{"risk_level":"LOW","ai_explanation":"Keep resting.","confidence":0.8}`)
	p := nurse.NewPipeline(NewCentralProvider(ts.URL, "", time.Second), NewLLMTone(NewChatClient(ChatConfig{})), nil)

	out := p.Evaluate(context.Background(), nurse.Intake{PatientID: "p1", Mood: "neutral"})

	assert.True(t, out.ToneFallback)
	assert.Equal(t, ToneFallbackPrefix+"Keep resting.", out.Response.PatientMessage)
	assert.Equal(t, nurse.RiskLow, out.Response.RiskLevel)
}
