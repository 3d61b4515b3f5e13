package service

import (
	"math"

	"credit-risk-agent/domain"
)

// Classifier scores an applicant's probability of default.
type Classifier interface {
	PredictProba(features domain.ApplicantFeatures) float64
	Coefficients() domain.ModelCoefficients
}

// LogisticClassifier scores applicants with a fitted logistic-regression model.
type LogisticClassifier struct {
	model domain.Model
}

// NewLogisticClassifier wraps a fitted model. The model is not copied and must
// not be modified afterwards.
func NewLogisticClassifier(model domain.Model) *LogisticClassifier {
	return &LogisticClassifier{model: model}
}

// PredictProba returns the probability of default for the applicant.
func (c *LogisticClassifier) PredictProba(features domain.ApplicantFeatures) float64 {
	z := c.model.Intercept
	for i, value := range features.Vector() {
		z += c.model.Coefficients[domain.Features[i]] * value
	}
	return sigmoid(z)
}

// Coefficients returns the model weights per feature.
func (c *LogisticClassifier) Coefficients() domain.ModelCoefficients {
	return c.model.Coefficients
}

// Model returns the fitted model backing the classifier.
func (c *LogisticClassifier) Model() domain.Model {
	return c.model
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	ez := math.Exp(z)
	return ez / (1 + ez)
}
