package service

import (
	"math"
	"testing"

	"credit-risk-agent/domain"

	"github.com/stretchr/testify/assert"
)

func TestSigmoid(t *testing.T) {
	assert.InDelta(t, 0.5, sigmoid(0), 1e-12)
	assert.InDelta(t, 1/(1+math.Exp(-2)), sigmoid(2), 1e-12)
	assert.InDelta(t, 1-sigmoid(3), sigmoid(-3), 1e-12)

	// No overflow at the extremes
	assert.Equal(t, 1.0, sigmoid(1000))
	assert.Equal(t, 0.0, sigmoid(-1000))
	assert.False(t, math.IsNaN(sigmoid(-1e308)))
}

func TestLogisticClassifier_PredictProba(t *testing.T) {
	model := domain.Model{
		Intercept: -1,
		Coefficients: domain.ModelCoefficients{
			domain.FeatureCreditScore:      0.01,
			domain.FeatureDebtToIncome:     2,
			domain.FeatureNumDelinquencies: 0.5,
			domain.FeatureLoanTermMonths:   0,
		},
	}
	classifier := NewLogisticClassifier(model)

	applicant := domain.ApplicantFeatures{
		CreditScore:      500,
		DebtToIncome:     0.5,
		NumDelinquencies: 2,
		LoanTermMonths:   domain.LoanTerm36,
	}

	// z = -1 + 5 + 1 + 1 = 6
	assert.InDelta(t, 1/(1+math.Exp(-6)), classifier.PredictProba(applicant), 1e-12)
	assert.Equal(t, model.Coefficients, classifier.Coefficients())
	assert.Equal(t, model, classifier.Model())
}

func TestLogisticClassifier_MissingCoefficientIsZero(t *testing.T) {
	classifier := NewLogisticClassifier(domain.Model{Coefficients: domain.ModelCoefficients{}})

	p := classifier.PredictProba(riskyApplicant())

	assert.InDelta(t, 0.5, p, 1e-12)
}
