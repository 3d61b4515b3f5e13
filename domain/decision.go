package domain

import "time"

// ModelCoefficients maps each feature to its signed model weight.
type ModelCoefficients map[Feature]float64

// Decision is the outcome of evaluating one applicant.
type Decision struct {
	RiskProbability float64  `json:"risk_probability"`
	Accepted        bool     `json:"accepted"`
	Reasons         []string `json:"reasons"`
}

// DecisionRecord is the audit entry written for every evaluated applicant.
type DecisionRecord struct {
	ID           string            `json:"id"`
	Features     ApplicantFeatures `json:"features"`
	Decision     Decision          `json:"decision"`
	ModelVersion string            `json:"model_version"`
	Narrative    string            `json:"narrative,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}
