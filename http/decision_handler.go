package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"credit-risk-agent/domain"
	"credit-risk-agent/service"

	"go.uber.org/zap"
)

const maxRequestBody = 1 << 16

// DecisionService is what the handler needs from the service layer.
type DecisionService interface {
	Decide(ctx context.Context, features domain.ApplicantFeatures) (domain.DecisionRecord, error)
	Get(ctx context.Context, id string) (domain.DecisionRecord, error)
	Recent(ctx context.Context, limit int) ([]domain.DecisionRecord, error)
	Model() domain.Model
}

type DecisionHandler struct {
	service DecisionService
	log     *zap.Logger
}

func NewDecisionHandler(service DecisionService, log *zap.Logger) *DecisionHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &DecisionHandler{service: service, log: log}
}

// CreateDecision scores the applicant in the request body.
func (h *DecisionHandler) CreateDecision(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Content-Type must be JSON
	if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeError(w, h.log, http.StatusBadRequest, "invalid request body")
		return
	}

	fieldErrs, err := validateApplicant(body)
	if err != nil {
		h.log.Debug("undecodable request body", zap.Error(err))
		writeError(w, h.log, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(fieldErrs) > 0 {
		writeError(w, h.log, http.StatusBadRequest, "invalid applicant", fieldErrs...)
		return
	}

	features, fieldErrs, err := decodeApplicant(body)
	if err != nil {
		h.log.Debug("undecodable request body", zap.Error(err))
		writeError(w, h.log, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(fieldErrs) > 0 {
		writeError(w, h.log, http.StatusBadRequest, "invalid applicant", fieldErrs...)
		return
	}

	record, err := h.service.Decide(r.Context(), features)
	if err != nil {
		h.log.Error("error deciding applicant", zap.Error(err))
		writeError(w, h.log, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, h.log, http.StatusOK, record)
}

// GetDecision returns one recorded decision by ID.
func (h *DecisionHandler) GetDecision(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, service.ErrDecisionNotFound) {
		writeError(w, h.log, http.StatusNotFound, "decision not found")
		return
	}
	if err != nil {
		h.log.Error("error loading decision", zap.Error(err))
		writeError(w, h.log, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, h.log, http.StatusOK, record)
}

// ListDecisions returns the most recent decisions, newest first.
func (h *DecisionHandler) ListDecisions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, h.log, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	records, err := h.service.Recent(r.Context(), limit)
	if err != nil {
		h.log.Error("error listing decisions", zap.Error(err))
		writeError(w, h.log, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, h.log, http.StatusOK, records)
}

// GetModel describes the classifier used for decisions.
func (h *DecisionHandler) GetModel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.log, http.StatusOK, h.service.Model())
}
