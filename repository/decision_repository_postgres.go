package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"credit-risk-agent/domain"

	_ "github.com/lib/pq"
)

const createDecisionsTable = `
CREATE TABLE IF NOT EXISTS credit_decisions (
	id                 UUID PRIMARY KEY,
	credit_score       INTEGER NOT NULL,
	debt_to_income     DOUBLE PRECISION NOT NULL,
	num_delinquencies  INTEGER NOT NULL,
	loan_term_months   INTEGER NOT NULL,
	risk_probability   DOUBLE PRECISION NOT NULL,
	accepted           BOOLEAN NOT NULL,
	reasons            JSONB NOT NULL,
	model_version      TEXT NOT NULL,
	narrative          TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL
)`

const insertDecision = `INSERT INTO credit_decisions
	(id, credit_score, debt_to_income, num_delinquencies, loan_term_months,
	 risk_probability, accepted, reasons, model_version, narrative, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

const selectDecisionColumns = `SELECT id, credit_score, debt_to_income, num_delinquencies, loan_term_months,
	risk_probability, accepted, reasons, model_version, narrative, created_at
	FROM credit_decisions`

// PostgresOptions configure the connection pool.
type PostgresOptions struct {
	DSN            string
	MaxConnections int
	MaxIdle        int
}

// DecisionRepositoryPostgres stores decision records in PostgreSQL.
type DecisionRepositoryPostgres struct {
	db *sql.DB
}

// OpenPostgres opens a pooled connection with the lib/pq driver.
func OpenPostgres(opts PostgresOptions) (*sql.DB, error) {
	db, err := sql.Open("postgres", opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(opts.MaxConnections)
	db.SetMaxIdleConns(opts.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}

func NewDecisionRepositoryPostgres(db *sql.DB) *DecisionRepositoryPostgres {
	return &DecisionRepositoryPostgres{db: db}
}

// EnsureSchema creates the decisions table when missing.
func (r *DecisionRepositoryPostgres) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createDecisionsTable); err != nil {
		return fmt.Errorf("create credit_decisions: %w", err)
	}
	return nil
}

func (r *DecisionRepositoryPostgres) Save(ctx context.Context, record domain.DecisionRecord) error {
	reasons, err := json.Marshal(record.Decision.Reasons)
	if err != nil {
		return fmt.Errorf("marshal reasons: %w", err)
	}

	_, err = r.db.ExecContext(ctx, insertDecision,
		record.ID,
		record.Features.CreditScore,
		record.Features.DebtToIncome,
		record.Features.NumDelinquencies,
		int(record.Features.LoanTermMonths),
		record.Decision.RiskProbability,
		record.Decision.Accepted,
		reasons,
		record.ModelVersion,
		record.Narrative,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert decision %s: %w", record.ID, err)
	}
	return nil
}

func (r *DecisionRepositoryPostgres) FindByID(ctx context.Context, id string) (domain.DecisionRecord, error) {
	row := r.db.QueryRowContext(ctx, selectDecisionColumns+` WHERE id = $1`, id)

	record, err := scanDecision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DecisionRecord{}, ErrDecisionNotFound
	}
	if err != nil {
		return domain.DecisionRecord{}, fmt.Errorf("find decision %s: %w", id, err)
	}
	return record, nil
}

func (r *DecisionRepositoryPostgres) List(ctx context.Context, limit int) ([]domain.DecisionRecord, error) {
	rows, err := r.db.QueryContext(ctx, selectDecisionColumns+` ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	records := []domain.DecisionRecord{}
	for rows.Next() {
		record, err := scanDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDecision(row rowScanner) (domain.DecisionRecord, error) {
	var (
		record  domain.DecisionRecord
		term    int
		reasons []byte
	)
	err := row.Scan(
		&record.ID,
		&record.Features.CreditScore,
		&record.Features.DebtToIncome,
		&record.Features.NumDelinquencies,
		&term,
		&record.Decision.RiskProbability,
		&record.Decision.Accepted,
		&reasons,
		&record.ModelVersion,
		&record.Narrative,
		&record.CreatedAt,
	)
	if err != nil {
		return domain.DecisionRecord{}, err
	}

	record.Features.LoanTermMonths = domain.LoanTerm(term)
	record.Decision.Reasons = []string{}
	if err := json.Unmarshal(reasons, &record.Decision.Reasons); err != nil {
		return domain.DecisionRecord{}, fmt.Errorf("decode reasons: %w", err)
	}
	if record.Decision.Reasons == nil {
		record.Decision.Reasons = []string{}
	}
	return record, nil
}
