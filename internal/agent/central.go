package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"viora-backend/internal/nurse"
)

const (
	ReasonCentralUnavailable = "central_unavailable"

	centralUnavailableText = "I’m having a small delay understanding your symptoms right now. " +
		"Please give me a moment and try again shortly."

	// missingExplanationText is used when the central backend answers without
	// any explanation text.
	missingExplanationText = "I’ve noted what you shared. I don’t have a detailed explanation right now, " +
		"but I’m still here for you."
)

// CentralProvider delegates clinical reasoning to the central backend.
type CentralProvider struct {
	baseURL    string
	askPath    string
	httpClient *http.Client
}

func NewCentralProvider(baseURL, askPath string, timeout time.Duration) *CentralProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if askPath == "" {
		askPath = "/doctor/ask-nurse"
	}
	if !strings.HasPrefix(askPath, "/") {
		askPath = "/" + askPath
	}
	return &CentralProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		askPath: askPath,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// centralRequest is the intake flattened together with the computed signals.
type centralRequest struct {
	nurse.Intake
	ClinicalSignals nurse.ClinicalSignals `json:"clinical_signals"`
}

type centralResponse struct {
	RiskLevel     string `json:"risk_level"`
	AIExplanation string `json:"ai_explanation"`
	Counselling   *struct {
		Message string `json:"message"`
	} `json:"counselling"`
	Confidence      *float64          `json:"confidence"`
	Escalation      *nurse.Escalation `json:"escalation"`
	SafetyFlags     []string          `json:"safety_flags"`
	ClinicalSignals map[string]any    `json:"clinical_signals"`
	Disclaimer      string            `json:"disclaimer"`
}

// Reason never fails: any transport, status or decoding problem yields the
// central_unavailable fallback.
func (p *CentralProvider) Reason(ctx context.Context, req nurse.ReasoningRequest) nurse.Reasoning {
	parsed, err := p.ask(ctx, req)
	if err != nil {
		log.Warn().Err(err).
			Str("patient_id", req.Intake.PatientID).
			Str("reason", ReasonCentralUnavailable).
			Msg("central backend call failed")
		return CentralFallback()
	}
	return nurse.Reasoning{Result: parsed.toResult()}
}

func (p *CentralProvider) ask(ctx context.Context, req nurse.ReasoningRequest) (*centralResponse, error) {
	jsonBody, err := json.Marshal(centralRequest{Intake: req.Intake, ClinicalSignals: req.Signals})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+p.askPath, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("central backend returned status: %s, body: %s", resp.Status, string(body))
	}

	var parsed centralResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &parsed, nil
}

func (r *centralResponse) toResult() nurse.ReasoningResult {
	explanation := strings.TrimSpace(r.AIExplanation)
	if explanation == "" && r.Counselling != nil {
		explanation = strings.TrimSpace(r.Counselling.Message)
	}
	if explanation == "" {
		explanation = missingExplanationText
	}

	confidence := 0.0
	if r.Confidence != nil {
		confidence = clampConfidence(*r.Confidence)
	}

	escalation := nurse.Escalation{}
	if r.Escalation != nil {
		escalation = *r.Escalation
	}

	flags := r.SafetyFlags
	if flags == nil {
		flags = []string{}
	}
	signals := r.ClinicalSignals
	if signals == nil {
		signals = map[string]any{}
	}

	return nurse.ReasoningResult{
		Explanation:        explanation,
		Confidence:         confidence,
		ConfidenceReported: r.Confidence != nil,
		RiskLevel:          nurse.ParseRiskLevel(r.RiskLevel),
		Escalation:         escalation,
		SafetyFlags:        flags,
		ClinicalSignals:    signals,
		Disclaimer:         strings.TrimSpace(r.Disclaimer),
	}
}

// CentralFallback is the fixed safe payload returned when the central backend
// cannot be used.
func CentralFallback() nurse.Reasoning {
	return nurse.Reasoning{
		Result: nurse.ReasoningResult{
			Explanation: centralUnavailableText,
			Confidence:  0.0,
			RiskLevel:   nurse.RiskUnknown,
			Escalation: nurse.Escalation{
				RequiresDoctor: false,
				Reason:         ReasonCentralUnavailable,
			},
			SafetyFlags:     []string{},
			ClinicalSignals: map[string]any{},
		},
		Degraded: true,
		Reason:   ReasonCentralUnavailable,
	}
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
