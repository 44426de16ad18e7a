package nurse

import (
	"context"
	"fmt"
	"strings"

	"viora-backend/internal/config"
)

const (
	StandardDisclaimer = "This guidance is informational and not a medical diagnosis."

	FlagRedFlagSymptoms = "red_flag_symptoms"

	redFlagNotice = "Some of the symptoms you mentioned can be serious. If they are happening now or getting worse, please contact emergency services or a doctor right away."
)

// SafetyEnforcer is the last gate before a response reaches the patient. It
// may modify the draft in place but must keep the risk level and message
// unless it overrides them for a documented safety reason.
type SafetyEnforcer interface {
	Enforce(ctx context.Context, in Intake, draft *Response) error
}

// Passthrough leaves the draft untouched.
type Passthrough struct{}

func (Passthrough) Enforce(context.Context, Intake, *Response) error { return nil }

// Guard applies two overrides:
//   - a response without a disclaimer gets StandardDisclaimer;
//   - red-flag symptoms with an UNKNOWN risk (reasoning degraded) get the
//     red_flag_symptoms flag and an urgent-care notice appended to the message.
type Guard struct{}

func (Guard) Enforce(_ context.Context, in Intake, draft *Response) error {
	if strings.TrimSpace(draft.Disclaimer) == "" {
		draft.Disclaimer = StandardDisclaimer
	}

	if draft.RiskLevel == RiskUnknown && HasRedFlags(in) {
		if !containsString(draft.SafetyFlags, FlagRedFlagSymptoms) {
			draft.SafetyFlags = append(draft.SafetyFlags, FlagRedFlagSymptoms)
		}
		if !strings.Contains(draft.PatientMessage, redFlagNotice) {
			draft.PatientMessage = strings.TrimSpace(draft.PatientMessage + "\n\n" + redFlagNotice)
		}
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// NewSafetyEnforcer resolves the configured safety mode.
func NewSafetyEnforcer(mode string) (SafetyEnforcer, error) {
	switch mode {
	case "", config.SafetyPassthrough:
		return Passthrough{}, nil
	case config.SafetyGuard:
		return Guard{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnsupportedSafetyMode, mode)
	}
}
