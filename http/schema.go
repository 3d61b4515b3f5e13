package http

import (
	"encoding/json"
	"fmt"
	"math"

	"credit-risk-agent/domain"

	"github.com/xeipuuv/gojsonschema"
)

// applicantSchema mirrors the ranges offered to applicants.
const applicantSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"credit_score":      {"type": "integer", "minimum": 450, "maximum": 850},
		"debt_to_income":    {"type": "number",  "minimum": 0.10, "maximum": 0.70},
		"num_delinquencies": {"type": "integer", "minimum": 0, "maximum": 5},
		"loan_term_months":  {"type": "integer", "enum": [12, 36, 60]}
	},
	"required": ["credit_score", "debt_to_income", "num_delinquencies", "loan_term_months"],
	"additionalProperties": false
}`

var compiledApplicantSchema = mustCompile(applicantSchema)

func mustCompile(schema string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		panic(fmt.Sprintf("compile schema: %v", err))
	}
	return s
}

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// validateApplicant checks a raw request body against applicantSchema.
// A nil slice with a nil error means the body is valid.
func validateApplicant(body []byte) ([]FieldError, error) {
	result, err := compiledApplicantSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	errs := make([]FieldError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "(root)" {
			if p, ok := desc.Details()["property"].(string); ok {
				field = p
			}
		}
		errs = append(errs, FieldError{Field: field, Message: desc.Description()})
	}
	return errs, nil
}

type applicantRequest struct {
	CreditScore      json.Number `json:"credit_score"`
	DebtToIncome     json.Number `json:"debt_to_income"`
	NumDelinquencies json.Number `json:"num_delinquencies"`
	LoanTermMonths   json.Number `json:"loan_term_months"`
}

// decodeApplicant converts a body that passed validateApplicant. The schema
// counts 600.0 as an integer, so integral numbers in any notation are accepted.
func decodeApplicant(body []byte) (domain.ApplicantFeatures, []FieldError, error) {
	var req applicantRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return domain.ApplicantFeatures{}, nil, fmt.Errorf("decode applicant: %w", err)
	}

	var errs []FieldError
	features := domain.ApplicantFeatures{
		CreditScore:      integerField("credit_score", req.CreditScore, &errs),
		NumDelinquencies: integerField("num_delinquencies", req.NumDelinquencies, &errs),
		LoanTermMonths:   domain.LoanTerm(integerField("loan_term_months", req.LoanTermMonths, &errs)),
	}
	dti, err := req.DebtToIncome.Float64()
	if err != nil {
		errs = append(errs, FieldError{Field: "debt_to_income", Message: "Invalid type. Expected: number"})
	}
	features.DebtToIncome = dti

	return features, errs, nil
}

func integerField(name string, n json.Number, errs *[]FieldError) int {
	v, err := n.Float64()
	if err != nil || v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		*errs = append(*errs, FieldError{Field: name, Message: "Invalid type. Expected: integer"})
		return 0
	}
	return int(v)
}
