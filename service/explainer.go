package service

import "credit-risk-agent/domain"

// ReasonRule is one adverse-action check. Applies reports whether the
// applicant's value pushed the risk up under the given coefficients.
type ReasonRule struct {
	Message string
	Applies func(features domain.ApplicantFeatures, coefficients domain.ModelCoefficients) bool
}

// DefaultReasonRules returns the adverse-action rules in disclosure order.
func DefaultReasonRules() []ReasonRule {
	return []ReasonRule{
		{
			Message: ReasonHighDebtToIncome,
			Applies: func(f domain.ApplicantFeatures, c domain.ModelCoefficients) bool {
				return f.DebtToIncome > HighDebtToIncome && c[domain.FeatureDebtToIncome] > 0
			},
		},
		{
			Message: ReasonLowCreditScore,
			Applies: func(f domain.ApplicantFeatures, c domain.ModelCoefficients) bool {
				return f.CreditScore < LowCreditScore && c[domain.FeatureCreditScore] < 0
			},
		},
		{
			Message: ReasonExcessiveDelinquencies,
			Applies: func(f domain.ApplicantFeatures, c domain.ModelCoefficients) bool {
				return f.NumDelinquencies >= ExcessiveDelinquencies && c[domain.FeatureNumDelinquencies] > 0
			},
		},
	}
}

// Explainer turns a risk probability into an accept/reject decision and,
// for rejections, the adverse-action reasons behind it.
type Explainer struct {
	threshold  float64
	maxReasons int
	rules      []ReasonRule
}

// NewExplainer creates an Explainer with the standard threshold and rules.
func NewExplainer() *Explainer {
	return NewExplainerWithRules(DefaultReasonRules())
}

// NewExplainerWithRules creates an Explainer that evaluates rules in the given order.
func NewExplainerWithRules(rules []ReasonRule) *Explainer {
	return &Explainer{
		threshold:  AcceptThreshold,
		maxReasons: MaxReasons,
		rules:      rules,
	}
}

// Evaluate decides on the applicant. Inputs are not validated; a probability
// outside [0,1] is returned unchanged.
func (e *Explainer) Evaluate(
	features domain.ApplicantFeatures,
	riskProbability float64,
	coefficients domain.ModelCoefficients,
) domain.Decision {
	decision := domain.Decision{
		RiskProbability: riskProbability,
		Accepted:        riskProbability < e.threshold,
		Reasons:         []string{},
	}
	if decision.Accepted {
		return decision
	}

	// Later rules are not evaluated once the cap is reached
	for _, rule := range e.rules {
		if len(decision.Reasons) >= e.maxReasons {
			break
		}
		if rule.Applies(features, coefficients) {
			decision.Reasons = append(decision.Reasons, rule.Message)
		}
	}

	return decision
}
