package nurse

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// maxBodyBytes bounds inbound JSON payloads.
const maxBodyBytes = 1 << 20

var dailyIntakeRequired = []string{"symptoms", "mood", "medications"}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

type ChatResponse struct {
	Reply string `json:"reply"`
	Response
}

// HandlePatientAI runs the full pipeline for a generic patient flow.
func (h *Handler) HandlePatientAI(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeIntake(w, r)
	if !ok {
		return
	}

	resp := h.svc.Ask(r.Context(), in, ChannelPatientAI)
	writeJSON(w, http.StatusOK, resp)
}

// HandleNurseChat answers a free-text message from the patient.
func (h *Handler) HandleNurseChat(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeIntake(w, r)
	if !ok {
		return
	}

	in.Message = strings.TrimSpace(in.Message)
	if in.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	resp := h.svc.Ask(r.Context(), in, ChannelNurseChat)
	writeJSON(w, http.StatusOK, ChatResponse{Reply: resp.PatientMessage, Response: resp})
}

// HandleDailyIntake checks that a daily check-in carries the fields the
// analysis step needs.
func (h *Handler) HandleDailyIntake(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	for _, name := range dailyIntakeRequired {
		if _, ok := fields[name]; !ok {
			writeError(w, http.StatusBadRequest, name+" missing")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "received",
		"next":   "analysis",
	})
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientID")
	if patientID == "" {
		writeError(w, http.StatusBadRequest, "patient_id is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	items, err := h.svc.History(r.Context(), patientID, limit)
	if err != nil {
		log.Error().Err(err).Str("patient_id", patientID).Msg("failed to load interactions")
		writeError(w, http.StatusInternalServerError, "failed to load interactions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"patient_id":   patientID,
		"interactions": items,
	})
}

func (h *Handler) HandleGetInteraction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "interactionID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid interaction id")
		return
	}

	item, err := h.svc.Interaction(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "interaction not found")
			return
		}
		log.Error().Err(err).Str("interaction_id", id.String()).Msg("failed to load interaction")
		writeError(w, http.StatusInternalServerError, "failed to load interaction")
		return
	}

	writeJSON(w, http.StatusOK, item)
}

func decodeIntake(w http.ResponseWriter, r *http.Request) (Intake, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return Intake{}, false
	}

	var in Intake
	if err := json.Unmarshal(body, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return Intake{}, false
	}

	in.PatientID = strings.TrimSpace(in.PatientID)
	if in.PatientID == "" {
		writeError(w, http.StatusBadRequest, "patient_id is required")
		return Intake{}, false
	}
	return in, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/patient/ai", h.HandlePatientAI)
	r.Post("/nurse/chat", h.HandleNurseChat)
	r.Post("/intake/daily", h.HandleDailyIntake)
	r.Get("/patients/{patientID}/interactions", h.HandleHistory)
	r.Get("/interactions/{interactionID}", h.HandleGetInteraction)
}
