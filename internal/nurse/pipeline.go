package nurse

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

const (
	degradedMessage = "I’m sorry, something went wrong while I was looking into this. Please try again in a little while, and if you feel unwell, contact your doctor."

	ReasonPipelineError = "pipeline_error"
)

// ReasoningProvider produces an explanation, confidence and risk metadata from
// clinical signals. Implementations never return an error: upstream failures
// come back as a degraded Reasoning.
type ReasoningProvider interface {
	Reason(ctx context.Context, req ReasoningRequest) Reasoning
}

// ToneAdapter rewrites a clinical explanation for the patient without
// changing its medical content.
type ToneAdapter interface {
	Adapt(ctx context.Context, in ToneInput) ToneOutcome
}

// Outcome is a pipeline run with the flags the caller may want to record.
type Outcome struct {
	Response     Response
	Degraded     bool
	ToneFallback bool
}

// Pipeline runs signal extraction, risk classification, reasoning, tone
// adaptation and safety enforcement for a single request.
type Pipeline struct {
	reasoning ReasoningProvider
	tone      ToneAdapter
	safety    SafetyEnforcer
}

func NewPipeline(reasoning ReasoningProvider, tone ToneAdapter, safety SafetyEnforcer) *Pipeline {
	if safety == nil {
		safety = Passthrough{}
	}
	return &Pipeline{
		reasoning: reasoning,
		tone:      tone,
		safety:    safety,
	}
}

// Run returns the patient-facing response. It never fails.
func (p *Pipeline) Run(ctx context.Context, in Intake) Response {
	return p.Evaluate(ctx, in).Response
}

// Evaluate runs the pipeline. Any panic or enforcer error is converted into
// the generic degraded response.
func (p *Pipeline) Evaluate(ctx context.Context, in Intake) (out Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Str("patient_id", in.PatientID).
				Str("panic", fmt.Sprint(rec)).
				Msg("nurse pipeline panicked")
			out = degradedOutcome(in)
		}
	}()

	out, err := p.evaluate(ctx, in)
	if err != nil {
		log.Error().Err(err).Str("patient_id", in.PatientID).Msg("nurse pipeline failed")
		return degradedOutcome(in)
	}
	return out
}

func (p *Pipeline) evaluate(ctx context.Context, in Intake) (Outcome, error) {
	// 1. Signals
	signals := ExtractSignals(in)

	// 2. Local risk, before any upstream call
	local := ClassifyRisk(in, nil)

	// 3. Reasoning (central or direct)
	reasoning := p.reasoning.Reason(ctx, ReasoningRequest{Intake: in, Signals: signals})
	result := reasoning.Result

	// Risk: degraded reasoning always yields UNKNOWN
	risk := RiskUnknown
	if !reasoning.Degraded {
		var prior *ReasoningResult
		if result.ConfidenceReported {
			prior = &result
		}
		risk = mostSevere(local, mostSevere(ClassifyRisk(in, prior), result.RiskLevel))
	}

	// 4. Tone
	tone := p.tone.Adapt(ctx, ToneInput{
		Explanation: result.Explanation,
		Risk:        risk,
		Mood:        signals.MentalState,
	})

	// 5. Shape
	draft := Response{
		PatientID:       in.PatientID,
		PatientMessage:  tone.Message,
		RiskLevel:       risk,
		Confidence:      result.Confidence,
		Escalation:      result.Escalation,
		SafetyFlags:     nonNilStrings(result.SafetyFlags),
		ClinicalSignals: nonNilMap(result.ClinicalSignals),
		Disclaimer:      result.Disclaimer,
	}

	// 6. Safety
	if err := p.safety.Enforce(ctx, in, &draft); err != nil {
		return Outcome{}, fmt.Errorf("safety enforcement: %w", err)
	}

	if reasoning.Degraded {
		log.Warn().
			Str("patient_id", in.PatientID).
			Str("reason", reasoning.Reason).
			Msg("reasoning degraded, returning safe fallback")
	}

	return Outcome{
		Response:     draft,
		Degraded:     reasoning.Degraded,
		ToneFallback: tone.Fallback,
	}, nil
}

func degradedOutcome(in Intake) Outcome {
	return Outcome{
		Response: Response{
			PatientID:       in.PatientID,
			PatientMessage:  degradedMessage,
			RiskLevel:       RiskUnknown,
			Confidence:      0,
			Escalation:      Escalation{RequiresDoctor: false, Reason: ReasonPipelineError},
			SafetyFlags:     []string{},
			ClinicalSignals: map[string]any{},
		},
		Degraded: true,
	}
}

// nonNilStrings copies s so enforcers can append without touching provider data.
func nonNilStrings(s []string) []string {
	return append([]string{}, s...)
}

func nonNilMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
