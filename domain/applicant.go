package domain

// LoanTerm is the requested repayment term in months.
type LoanTerm int

const (
	LoanTerm12 LoanTerm = 12
	LoanTerm36 LoanTerm = 36
	LoanTerm60 LoanTerm = 60
)

// LoanTerms lists the terms offered to applicants.
var LoanTerms = []LoanTerm{LoanTerm12, LoanTerm36, LoanTerm60}

// Feature identifies one model input column.
type Feature string

const (
	FeatureCreditScore      Feature = "credit_score"
	FeatureDebtToIncome     Feature = "debt_to_income"
	FeatureNumDelinquencies Feature = "num_delinquencies"
	FeatureLoanTermMonths   Feature = "loan_term_months"
)

// Features is the canonical column order used by the model.
var Features = []Feature{
	FeatureCreditScore,
	FeatureDebtToIncome,
	FeatureNumDelinquencies,
	FeatureLoanTermMonths,
}

// ApplicantFeatures are the raw values an applicant submits.
// Values outside the offered ranges are carried as-is.
type ApplicantFeatures struct {
	CreditScore      int      `json:"credit_score"`
	DebtToIncome     float64  `json:"debt_to_income"`
	NumDelinquencies int      `json:"num_delinquencies"`
	LoanTermMonths   LoanTerm `json:"loan_term_months"`
}

// Vector returns the feature values in the order of Features.
func (a ApplicantFeatures) Vector() []float64 {
	return []float64{
		float64(a.CreditScore),
		a.DebtToIncome,
		float64(a.NumDelinquencies),
		float64(a.LoanTermMonths),
	}
}
