package domain

import "time"

// Model is the serialisable state of a fitted logistic-regression classifier.
type Model struct {
	Version      string            `json:"version"`
	Intercept    float64           `json:"intercept"`
	Coefficients ModelCoefficients `json:"coefficients"`
	TrainedAt    time.Time         `json:"trained_at"`
	Samples      int               `json:"samples"`
	Metrics      TrainingMetrics   `json:"metrics"`
}

// TrainingMetrics summarise how well the model fits its training set.
type TrainingMetrics struct {
	Accuracy    float64 `json:"accuracy"`
	ROCAUC      float64 `json:"roc_auc"`
	DefaultRate float64 `json:"default_rate"`
}

// Applicant is one labelled training row.
type Applicant struct {
	Features ApplicantFeatures
	Default  bool
}
