package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"credit-risk-agent/domain"
	"credit-risk-agent/metrics"
	"credit-risk-agent/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrDecisionNotFound is returned when no audit record has the requested ID.
var ErrDecisionNotFound = repository.ErrDecisionNotFound

// Narrator writes the customer-facing notice for a decision.
type Narrator interface {
	Explain(ctx context.Context, decision domain.Decision) string
}

type modelDescriber interface {
	Model() domain.Model
}

// DecisionService scores applicants, explains rejections and keeps the audit trail.
type DecisionService struct {
	classifier Classifier
	explainer  *Explainer
	narrator   Narrator
	repo       repository.DecisionRepository
	log        *zap.Logger
	now        func() time.Time
	newID      func() string
}

// NewDecisionService wires the fitted classifier into the decision flow.
// narrator may be nil, in which case no notice is attached.
func NewDecisionService(
	classifier Classifier,
	explainer *Explainer,
	narrator Narrator,
	repo repository.DecisionRepository,
	log *zap.Logger,
) *DecisionService {
	if log == nil {
		log = zap.NewNop()
	}
	return &DecisionService{
		classifier: classifier,
		explainer:  explainer,
		narrator:   narrator,
		repo:       repo,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      func() string { return uuid.NewString() },
	}
}

// Decide evaluates one applicant and records the outcome.
func (s *DecisionService) Decide(
	ctx context.Context,
	features domain.ApplicantFeatures,
) (domain.DecisionRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.DecisionRecord{}, err
	}

	started := time.Now()
	probability := s.classifier.PredictProba(features)
	decision := s.explainer.Evaluate(features, probability, s.classifier.Coefficients())
	metrics.DecisionDuration.Observe(time.Since(started).Seconds())

	record := domain.DecisionRecord{
		ID:           s.newID(),
		Features:     features,
		Decision:     decision,
		ModelVersion: s.Model().Version,
		CreatedAt:    s.now(),
	}
	if s.narrator != nil {
		record.Narrative = s.narrator.Explain(ctx, decision)
	}

	metrics.DecisionsTotal.WithLabelValues(metrics.Outcome(decision.Accepted)).Inc()
	for _, reason := range decision.Reasons {
		metrics.AdverseActionReasonsTotal.WithLabelValues(reason).Inc()
	}

	// A failed audit save does not fail the decision
	if err := s.repo.Save(ctx, record); err != nil {
		metrics.DecisionSaveFailures.Inc()
		s.log.Warn("failed to save decision", zap.String("decision_id", record.ID), zap.Error(err))
	}

	s.log.Info("credit decision",
		zap.String("decision_id", record.ID),
		zap.Float64("risk_probability", decision.RiskProbability),
		zap.Bool("accepted", decision.Accepted),
		zap.Int("reasons", len(decision.Reasons)),
		zap.String("model_version", record.ModelVersion),
	)

	return record, nil
}

// Get returns a previously recorded decision.
func (s *DecisionService) Get(ctx context.Context, id string) (domain.DecisionRecord, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrDecisionNotFound) {
			return domain.DecisionRecord{}, ErrDecisionNotFound
		}
		return domain.DecisionRecord{}, fmt.Errorf("get decision %s: %w", id, err)
	}
	return record, nil
}

// Recent returns up to limit decisions, newest first.
func (s *DecisionService) Recent(ctx context.Context, limit int) ([]domain.DecisionRecord, error) {
	if limit <= 0 || limit > MaxRecentDecisions {
		limit = MaxRecentDecisions
	}
	records, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	return records, nil
}

// Model describes the classifier behind the decisions.
func (s *DecisionService) Model() domain.Model {
	if d, ok := s.classifier.(modelDescriber); ok {
		return d.Model()
	}
	return domain.Model{Coefficients: s.classifier.Coefficients()}
}
