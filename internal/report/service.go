package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/signintech/gopdf"

	"viora-backend/internal/nurse"
)

type TelegramClient interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendDocument(ctx context.Context, chatID int64, fileData []byte, fileName string) error
}

// DefaultFontPaths are tried in order; DejaVuSans covers the characters
// patients type in free text.
var DefaultFontPaths = []string{
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

var errNoFont = errors.New("no usable font for PDF")

type Service struct {
	tgClient     TelegramClient
	doctorChatID int64
	fontPaths    []string
}

func NewService(tg TelegramClient, doctorChatID int64) *Service {
	return &Service{
		tgClient:     tg,
		doctorChatID: doctorChatID,
		fontPaths:    DefaultFontPaths,
	}
}

// SendEscalationReport sends the case to the doctor chat as a PDF, or as a
// plain message when no font is available to render one.
func (s *Service) SendEscalationReport(ctx context.Context, c nurse.EscalationCase) error {
	pdfData, err := s.renderPDF(c)
	if err != nil {
		log.Warn().Err(err).
			Str("patient_id", c.Intake.PatientID).
			Msg("escalation PDF unavailable, sending text summary")
		return s.tgClient.SendMessage(ctx, s.doctorChatID, summaryText(c))
	}

	fileName := fmt.Sprintf("escalation_%s.pdf", c.InteractionID.String())
	if err := s.tgClient.SendDocument(ctx, s.doctorChatID, pdfData, fileName); err != nil {
		return fmt.Errorf("send escalation document: %w", err)
	}
	return nil
}

func (s *Service) renderPDF(c nurse.EscalationCase) ([]byte, error) {
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	fontLoaded := false
	for _, path := range s.fontPaths {
		if err := pdf.AddTTFFont("DejaVu", path); err == nil {
			fontLoaded = true
			break
		}
	}
	if !fontLoaded {
		return nil, errNoFont
	}

	if err := pdf.SetFont("DejaVu", "", 20); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "Patient escalation (AI nurse)")
	pdf.Br(30)

	if err := pdf.SetFont("DejaVu", "", 12); err != nil {
		return nil, err
	}
	for _, line := range headerLines(c) {
		pdf.Cell(nil, line)
		pdf.Br(15)
	}
	pdf.Br(10)

	sections := []struct {
		title string
		body  string
	}{
		{"Reported symptoms:", symptomsText(c.Intake.Symptoms)},
		{"Patient message:", c.Intake.Message},
		{"Reply sent to patient:", c.Response.PatientMessage},
	}
	for _, sec := range sections {
		if strings.TrimSpace(sec.body) == "" {
			continue
		}
		if err := pdf.SetFont("DejaVu", "", 14); err != nil {
			return nil, err
		}
		pdf.Cell(nil, sec.title)
		pdf.Br(15)
		if err := pdf.SetFont("DejaVu", "", 11); err != nil {
			return nil, err
		}
		lines, _ := pdf.SplitText(sec.body, 500)
		for _, l := range lines {
			pdf.Cell(nil, l)
			pdf.Br(12)
		}
		pdf.Br(10)
	}

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func headerLines(c nurse.EscalationCase) []string {
	reason := c.Response.Escalation.Reason
	if reason == "" {
		reason = "-"
	}
	lines := []string{
		fmt.Sprintf("Date: %s", c.At.Format("02.01.2006 15:04")),
		fmt.Sprintf("Patient ID: %s", c.Intake.PatientID),
		fmt.Sprintf("Mood: %s", describeMood(c.Intake.Mood)),
		fmt.Sprintf("Risk level: %s", c.Response.RiskLevel),
		fmt.Sprintf("Requires doctor: %t (reason: %s)", c.Response.Escalation.RequiresDoctor, reason),
		fmt.Sprintf("AI confidence: %.2f", c.Response.Confidence),
	}
	if c.Intake.DaysPostDischarge != nil {
		lines = append(lines, fmt.Sprintf("Days post discharge: %d", *c.Intake.DaysPostDischarge))
	}
	if len(c.Response.SafetyFlags) > 0 {
		lines = append(lines, fmt.Sprintf("Safety flags: %s", strings.Join(c.Response.SafetyFlags, ", ")))
	}
	return lines
}

func summaryText(c nurse.EscalationCase) string {
	var b strings.Builder
	b.WriteString("Patient escalation (AI nurse)\n\n")
	for _, line := range headerLines(c) {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(c.Intake.Symptoms) > 0 {
		b.WriteString("\nReported symptoms: ")
		b.WriteString(symptomsText(c.Intake.Symptoms))
		b.WriteString("\n")
	}
	if c.Intake.Message != "" {
		b.WriteString("\nPatient message: ")
		b.WriteString(c.Intake.Message)
		b.WriteString("\n")
	}
	return b.String()
}

func symptomsText(symptoms []string) string {
	if len(symptoms) == 0 {
		return "none reported"
	}
	return strings.Join(symptoms, ", ")
}

func describeMood(mood string) string {
	switch nurse.Mood(strings.ToLower(strings.TrimSpace(mood))) {
	case nurse.MoodAnxious:
		return "Anxious"
	case nurse.MoodSad:
		return "Sad"
	case nurse.MoodAngry:
		return "Angry"
	case nurse.MoodDepressed:
		return "Depressed"
	case nurse.MoodPanicked:
		return "Panicked"
	case nurse.MoodNeutral, "":
		return "Neutral"
	default:
		return mood
	}
}
