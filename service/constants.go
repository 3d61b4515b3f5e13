package service

const (
	AcceptThreshold = 0.50 // default probability below which an applicant is accepted
	MaxReasons      = 3    // adverse-action reasons disclosed per decision

	HighDebtToIncome       = 0.5
	LowCreditScore         = 620
	ExcessiveDelinquencies = 3

	ReasonHighDebtToIncome       = "High Debt-to-Income Ratio."
	ReasonLowCreditScore         = "Low Credit Score History."
	ReasonExcessiveDelinquencies = "Excessive Number of Recent Delinquencies."

	AcceptedNarrative = "Applicant meets criteria."

	// Fit on the synthetic applicant book
	DefaultTrainingSamples   = 1000
	DefaultTrainingSeed      = 42
	DefaultIterations        = 200
	DefaultGradientTolerance = 1e-6
	DefaultL2Penalty         = 1e-3

	// Labelling rule of the synthetic data
	LabelCreditScoreWeight  = 0.01
	LabelDebtToIncomeWeight = 5.0
	LabelDelinquencyWeight  = 0.5
	LabelRiskCutoff         = 7.5

	ModelCacheKeyPrefix = "credit-risk:model:"
	MaxRecentDecisions  = 100
)
