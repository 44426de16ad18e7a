package nurse

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100

	escalationTimeout = 30 * time.Second
)

// EscalationNotifier delivers cases that need a clinician.
// We define it here to decouple from the report implementation.
type EscalationNotifier interface {
	SendEscalationReport(ctx context.Context, c EscalationCase) error
}

type Service interface {
	Ask(ctx context.Context, in Intake, channel Channel) Response
	History(ctx context.Context, patientID string, limit int) ([]Interaction, error)
	Interaction(ctx context.Context, id uuid.UUID) (*Interaction, error)
	// Wait blocks until in-flight escalation reports finish.
	Wait()
}

type service struct {
	pipeline *Pipeline
	repo     Repository
	notifier EscalationNotifier

	pending sync.WaitGroup
	now     func() time.Time
}

// NewService wires the pipeline to the interaction log. notifier may be nil
// when no doctor channel is configured.
func NewService(pipeline *Pipeline, repo Repository, notifier EscalationNotifier) Service {
	return &service{
		pipeline: pipeline,
		repo:     repo,
		notifier: notifier,
		now:      time.Now,
	}
}

// Ask runs the pipeline and records the exchange. Recording and escalation
// failures are logged, never returned: the patient always gets the response.
func (s *service) Ask(ctx context.Context, in Intake, channel Channel) Response {
	outcome := s.pipeline.Evaluate(ctx, in)
	resp := outcome.Response

	interaction := &Interaction{
		ID:        uuid.New(),
		PatientID: in.PatientID,
		Channel:   channel,
		Message:   in.Message,
		RiskLevel: resp.RiskLevel,
		Degraded:  outcome.Degraded,
		CreatedAt: s.now().UTC(),
	}
	if raw, err := json.Marshal(resp); err == nil {
		interaction.Response = raw
	}
	if err := s.repo.Save(ctx, interaction); err != nil {
		log.Error().Err(err).Str("patient_id", in.PatientID).Msg("failed to record interaction")
	}

	if s.notifier != nil && resp.NeedsDoctor() {
		s.escalate(EscalationCase{
			InteractionID: interaction.ID,
			Intake:        in,
			Response:      resp,
			At:            interaction.CreatedAt,
		})
	}

	return resp
}

func (s *service) escalate(c EscalationCase) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		// Detached from the request: the patient response must not wait on delivery
		ctx, cancel := context.WithTimeout(context.Background(), escalationTimeout)
		defer cancel()

		if err := s.notifier.SendEscalationReport(ctx, c); err != nil {
			log.Error().Err(err).
				Str("patient_id", c.Intake.PatientID).
				Str("interaction_id", c.InteractionID.String()).
				Msg("failed to send escalation report")
			return
		}
		log.Info().
			Str("patient_id", c.Intake.PatientID).
			Str("risk_level", string(c.Response.RiskLevel)).
			Msg("escalation report sent")
	}()
}

func (s *service) Wait() {
	s.pending.Wait()
}

func (s *service) History(ctx context.Context, patientID string, limit int) ([]Interaction, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.repo.ListByPatient(ctx, patientID, limit)
}

// Interaction returns one recorded exchange or ErrNotFound.
func (s *service) Interaction(ctx context.Context, id uuid.UUID) (*Interaction, error) {
	return s.repo.GetByID(ctx, id)
}
