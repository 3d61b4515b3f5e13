package service

import (
	"testing"

	"credit-risk-agent/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var riskyCoefficients = domain.ModelCoefficients{
	domain.FeatureDebtToIncome:     1,
	domain.FeatureCreditScore:      -1,
	domain.FeatureNumDelinquencies: 1,
	domain.FeatureLoanTermMonths:   0,
}

func riskyApplicant() domain.ApplicantFeatures {
	return domain.ApplicantFeatures{
		CreditScore:      600,
		DebtToIncome:     0.55,
		NumDelinquencies: 3,
		LoanTermMonths:   domain.LoanTerm60,
	}
}

func TestEvaluate_AcceptedBelowThreshold(t *testing.T) {
	explainer := NewExplainer()

	for _, p := range []float64{0, 0.1, 0.3, 0.49, 0.4999999} {
		decision := explainer.Evaluate(riskyApplicant(), p, riskyCoefficients)

		assert.True(t, decision.Accepted, "p=%v", p)
		assert.Empty(t, decision.Reasons, "p=%v", p)
		assert.NotNil(t, decision.Reasons)
		assert.Equal(t, p, decision.RiskProbability)
	}
}

func TestEvaluate_RejectedAtOrAboveThreshold(t *testing.T) {
	explainer := NewExplainer()

	for _, p := range []float64{0.5, 0.51, 0.7, 0.99, 1} {
		decision := explainer.Evaluate(riskyApplicant(), p, riskyCoefficients)
		assert.False(t, decision.Accepted, "p=%v", p)
	}
}

func TestEvaluate_ThresholdIsInclusiveReject(t *testing.T) {
	decision := NewExplainer().Evaluate(riskyApplicant(), 0.50, riskyCoefficients)

	assert.False(t, decision.Accepted)
	assert.Len(t, decision.Reasons, 3)
}

func TestEvaluate_AllReasonsInOrder(t *testing.T) {
	decision := NewExplainer().Evaluate(riskyApplicant(), 0.70, riskyCoefficients)

	require.False(t, decision.Accepted)
	assert.Equal(t, []string{
		"High Debt-to-Income Ratio.",
		"Low Credit Score History.",
		"Excessive Number of Recent Delinquencies.",
	}, decision.Reasons)
}

func TestEvaluate_RejectedWithoutReasons(t *testing.T) {
	applicant := domain.ApplicantFeatures{
		CreditScore:      800,
		DebtToIncome:     0.10,
		NumDelinquencies: 0,
		LoanTermMonths:   domain.LoanTerm12,
	}

	decision := NewExplainer().Evaluate(applicant, 0.60, riskyCoefficients)

	assert.False(t, decision.Accepted)
	assert.NotNil(t, decision.Reasons)
	assert.Empty(t, decision.Reasons)
}

func TestEvaluate_SignGatedRules(t *testing.T) {
	tests := []struct {
		name         string
		coefficients domain.ModelCoefficients
		want         []string
	}{
		{
			name: "dti weight zero",
			coefficients: domain.ModelCoefficients{
				domain.FeatureDebtToIncome:     0,
				domain.FeatureCreditScore:      -1,
				domain.FeatureNumDelinquencies: 1,
			},
			want: []string{ReasonLowCreditScore, ReasonExcessiveDelinquencies},
		},
		{
			name: "dti weight negative",
			coefficients: domain.ModelCoefficients{
				domain.FeatureDebtToIncome:     -2.5,
				domain.FeatureCreditScore:      -1,
				domain.FeatureNumDelinquencies: 1,
			},
			want: []string{ReasonLowCreditScore, ReasonExcessiveDelinquencies},
		},
		{
			name: "credit score weight positive",
			coefficients: domain.ModelCoefficients{
				domain.FeatureDebtToIncome:     1,
				domain.FeatureCreditScore:      0.01,
				domain.FeatureNumDelinquencies: 1,
			},
			want: []string{ReasonHighDebtToIncome, ReasonExcessiveDelinquencies},
		},
		{
			name: "delinquency weight negative",
			coefficients: domain.ModelCoefficients{
				domain.FeatureDebtToIncome:     1,
				domain.FeatureCreditScore:      -1,
				domain.FeatureNumDelinquencies: -0.3,
			},
			want: []string{ReasonHighDebtToIncome, ReasonLowCreditScore},
		},
		{
			name:         "missing coefficients",
			coefficients: domain.ModelCoefficients{},
			want:         []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := NewExplainer().Evaluate(riskyApplicant(), 0.9, tt.coefficients)
			assert.Equal(t, tt.want, decision.Reasons)
		})
	}
}

func TestEvaluate_RuleBoundaries(t *testing.T) {
	explainer := NewExplainer()

	// DTI and score thresholds are strict, delinquencies inclusive
	applicant := domain.ApplicantFeatures{
		CreditScore:      620,
		DebtToIncome:     0.5,
		NumDelinquencies: 2,
		LoanTermMonths:   domain.LoanTerm36,
	}
	assert.Empty(t, explainer.Evaluate(applicant, 0.8, riskyCoefficients).Reasons)

	applicant.CreditScore = 619
	applicant.DebtToIncome = 0.51
	applicant.NumDelinquencies = 3
	assert.Len(t, explainer.Evaluate(applicant, 0.8, riskyCoefficients).Reasons, 3)
}

func TestEvaluate_OutOfDomainValuesAccepted(t *testing.T) {
	applicant := domain.ApplicantFeatures{
		CreditScore:      100,
		DebtToIncome:     3.0,
		NumDelinquencies: 42,
		LoanTermMonths:   7,
	}

	decision := NewExplainer().Evaluate(applicant, 1.7, riskyCoefficients)

	assert.Equal(t, 1.7, decision.RiskProbability)
	assert.False(t, decision.Accepted)
	assert.Len(t, decision.Reasons, 3)
}

func TestEvaluate_CapShortCircuitsLaterRules(t *testing.T) {
	evaluated := 0
	always := func(msg string) ReasonRule {
		return ReasonRule{
			Message: msg,
			Applies: func(domain.ApplicantFeatures, domain.ModelCoefficients) bool {
				evaluated++
				return true
			},
		}
	}

	explainer := NewExplainerWithRules([]ReasonRule{
		always("a"), always("b"), always("c"), always("d"), always("e"),
	})

	decision := explainer.Evaluate(riskyApplicant(), 0.9, riskyCoefficients)

	assert.Equal(t, []string{"a", "b", "c"}, decision.Reasons)
	assert.Equal(t, 3, evaluated)
}

func TestEvaluate_AcceptedSkipsRules(t *testing.T) {
	called := false
	explainer := NewExplainerWithRules([]ReasonRule{{
		Message: "never",
		Applies: func(domain.ApplicantFeatures, domain.ModelCoefficients) bool {
			called = true
			return true
		},
	}})

	decision := explainer.Evaluate(riskyApplicant(), 0.2, riskyCoefficients)

	assert.True(t, decision.Accepted)
	assert.False(t, called)
}

func TestEvaluate_ReasonCountNeverExceedsCap(t *testing.T) {
	explainer := NewExplainer()

	for cs := 450; cs <= 850; cs += 50 {
		for dti := 0.10; dti <= 0.70; dti += 0.05 {
			for delinq := 0; delinq <= 5; delinq++ {
				applicant := domain.ApplicantFeatures{
					CreditScore:      cs,
					DebtToIncome:     dti,
					NumDelinquencies: delinq,
					LoanTermMonths:   domain.LoanTerm36,
				}
				for _, p := range []float64{0.2, 0.5, 0.95} {
					decision := explainer.Evaluate(applicant, p, riskyCoefficients)
					assert.LessOrEqual(t, len(decision.Reasons), MaxReasons)
					assert.Equal(t, p < AcceptThreshold, decision.Accepted)
					if decision.Accepted {
						assert.Empty(t, decision.Reasons)
					}
				}
			}
		}
	}
}
