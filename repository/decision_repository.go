package repository

import (
	"context"
	"errors"

	"credit-risk-agent/domain"
)

var ErrDecisionNotFound = errors.New("decision not found")

// DecisionRepository keeps the audit trail of evaluated applicants.
type DecisionRepository interface {
	Save(ctx context.Context, record domain.DecisionRecord) error
	FindByID(ctx context.Context, id string) (domain.DecisionRecord, error)
	// List returns the most recent records first.
	List(ctx context.Context, limit int) ([]domain.DecisionRecord, error)
}
