package nurse

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

type RiskLevel string

const (
	RiskLow     RiskLevel = "LOW"
	RiskMedium  RiskLevel = "MEDIUM"
	RiskHigh    RiskLevel = "HIGH"
	RiskUnknown RiskLevel = "UNKNOWN"
)

// ParseRiskLevel is case-insensitive and maps any unrecognised value to RiskUnknown.
func ParseRiskLevel(s string) RiskLevel {
	r := RiskLevel(strings.ToUpper(strings.TrimSpace(s)))
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return r
	default:
		return RiskUnknown
	}
}

// Severity orders LOW < MEDIUM < HIGH. UNKNOWN is not comparable and returns -1.
func (r RiskLevel) Severity() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	default:
		return -1
	}
}

type Mood string

const (
	MoodNeutral   Mood = "neutral"
	MoodAnxious   Mood = "anxious"
	MoodSad       Mood = "sad"
	MoodAngry     Mood = "angry"
	MoodDepressed Mood = "depressed"
	MoodPanicked  Mood = "panicked"
)

type MedicationSummary struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Dosage    string `json:"dosage,omitempty"`
	Frequency string `json:"frequency,omitempty"`
	Route     string `json:"route,omitempty"`
	IsActive  bool   `json:"is_active"`
}

type AppointmentSummary struct {
	ID         string    `json:"id,omitempty"`
	DoctorName string    `json:"doctor_name,omitempty"`
	StartTime  time.Time `json:"start_time"`
	Status     string    `json:"status"` // scheduled, completed, cancelled, no_show
}

// Intake is the inbound patient payload together with the patient context the
// caller assembled for this request. It is never persisted by the pipeline.
type Intake struct {
	PatientID string `json:"patient_id"`
	UserID    string `json:"user_id,omitempty"`

	FullName       string `json:"full_name,omitempty"`
	DateOfBirth    string `json:"date_of_birth,omitempty"`
	Gender         string `json:"gender,omitempty"`
	MedicalSummary string `json:"medical_summary,omitempty"`

	ActiveMedications    []MedicationSummary  `json:"active_medications,omitempty"`
	UpcomingAppointments []AppointmentSummary `json:"upcoming_appointments,omitempty"`
	Extras               map[string]any       `json:"extras,omitempty"`

	Symptoms          []string `json:"symptoms"`
	Mood              string   `json:"mood,omitempty"`
	DaysPostDischarge *int     `json:"days_post_discharge,omitempty"`
	Message           string   `json:"message,omitempty"`
}

type ClinicalSignals struct {
	NormalizedSymptoms []string `json:"normalized_symptoms"`
	MentalState        string   `json:"mental_state"`
	ClinicalSummary    string   `json:"clinical_summary"`
	Confidence         float64  `json:"confidence"`
}

type Escalation struct {
	RequiresDoctor bool   `json:"requires_doctor"`
	Reason         string `json:"reason,omitempty"`
}

// ReasoningResult is a provider's answer. ConfidenceReported is false when
// Confidence is only the 0.0 default; the low-confidence risk rule applies to
// reported values only.
type ReasoningResult struct {
	Explanation        string         `json:"explanation"`
	Confidence         float64        `json:"confidence"`
	ConfidenceReported bool           `json:"-"`
	RiskLevel          RiskLevel      `json:"risk_level"`
	Escalation         Escalation     `json:"escalation"`
	SafetyFlags        []string       `json:"safety_flags"`
	ClinicalSignals    map[string]any `json:"clinical_signals"`
	Disclaimer         string         `json:"disclaimer,omitempty"`
}

// Reasoning is what a ReasoningProvider hands back. Degraded is set when the
// upstream could not be reached and Result holds the documented safe payload.
type Reasoning struct {
	Result   ReasoningResult
	Degraded bool
	Reason   string
}

type ReasoningRequest struct {
	Intake  Intake
	Signals ClinicalSignals
}

type ToneInput struct {
	Explanation string
	Risk        RiskLevel
	Mood        string
}

type ToneOutcome struct {
	Message  string
	Fallback bool
}

// Response is the patient-facing payload returned at the HTTP boundary.
type Response struct {
	PatientID       string         `json:"patient_id"`
	PatientMessage  string         `json:"patient_message"`
	RiskLevel       RiskLevel      `json:"risk_level"`
	Confidence      float64        `json:"confidence"`
	Escalation      Escalation     `json:"escalation"`
	SafetyFlags     []string       `json:"safety_flags"`
	ClinicalSignals map[string]any `json:"clinical_signals"`
	Disclaimer      string         `json:"disclaimer,omitempty"`
}

// NeedsDoctor reports whether the response should reach a clinician.
func (r Response) NeedsDoctor() bool {
	return r.Escalation.RequiresDoctor || r.RiskLevel == RiskHigh
}

type Channel string

const (
	ChannelPatientAI Channel = "patient_ai"
	ChannelNurseChat Channel = "nurse_chat"
)

// Interaction is one recorded exchange in the interaction log.
type Interaction struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	PatientID string          `json:"patient_id" db:"patient_id"`
	Channel   Channel         `json:"channel" db:"channel"`
	Message   string          `json:"message" db:"message"`
	RiskLevel RiskLevel       `json:"risk_level" db:"risk_level"`
	Degraded  bool            `json:"degraded" db:"degraded"`
	Response  json.RawMessage `json:"response" db:"response"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// EscalationCase is what a clinician receives when a response needs follow-up.
type EscalationCase struct {
	InteractionID uuid.UUID
	Intake        Intake
	Response      Response
	At            time.Time
}
