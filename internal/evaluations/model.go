package evaluations

import (
	"encoding/json"
	"time"
)

// CheckStatus is the outcome of a single evaluation check.
type CheckStatus string

const (
	CheckPending  CheckStatus = "pending"
	CheckApproved CheckStatus = "approved"
	CheckRejected CheckStatus = "rejected"
)

func (s CheckStatus) IsValid() bool {
	switch s {
	case CheckPending, CheckApproved, CheckRejected:
		return true
	default:
		return false
	}
}

// Check names, also used as metric labels.
const (
	CheckCreditScoring  = "creditScoring"
	CheckKYC            = "kyc"
	CheckAML            = "aml"
	CheckRiskAssessment = "riskAssessment"
)

// CreditFactors holds the Altman-style inputs the credit score is computed
// from. Ratios are stored alongside their inputs so the evaluation is
// auditable without recomputation.
type CreditFactors struct {
	WorkingCapital         float64 `json:"workingCapital"`
	TotalAssets            float64 `json:"totalAssets"`
	X1Ratio                float64 `json:"x1_ratio"`
	RetainedEarnings       float64 `json:"retainedEarnings"`
	X2Ratio                float64 `json:"x2_ratio"`
	EBIT                   float64 `json:"ebit"`
	X3Ratio                float64 `json:"x3_ratio"`
	Equity                 float64 `json:"equity"`
	TotalLiabilities       float64 `json:"totalLiabilities"`
	X4Ratio                float64 `json:"x4_ratio"`
	Sales                  float64 `json:"sales"`
	X5Ratio                float64 `json:"x5_ratio"`
	OnTimePaymentRate      float64 `json:"onTimePaymentRate"`
	TopClientConcentration float64 `json:"topClientConcentration"`
	PaymentDilutionIndex   float64 `json:"paymentDilutionIndex"`
}

// CreditScoring is the credit scoring check.
type CreditScoring struct {
	Status       CheckStatus   `json:"status"`
	Notes        string        `json:"notes"`
	Score        float64       `json:"score"`
	MTFZScore    float64       `json:"mtfzScore"`
	RiskCategory string        `json:"riskCategory,omitempty"`
	Factors      CreditFactors `json:"factors"`
}

// KYCDocuments are the verification flags of the KYC check.
type KYCDocuments struct {
	IdentityVerified     bool `json:"identityVerified"`
	AddressVerified      bool `json:"addressVerified"`
	BusinessRegistration bool `json:"businessRegistration"`
	FinancialStatements  bool `json:"financialStatements"`
}

// KYC is the know-your-customer check.
type KYC struct {
	Status    CheckStatus  `json:"status"`
	Notes     string       `json:"notes"`
	Documents KYCDocuments `json:"documents"`
}

// AMLChecks are the screening flags of the AML check.
type AMLChecks struct {
	SanctionsList bool `json:"sanctionsList"`
	PEPCheck      bool `json:"pepCheck"`
	AdverseMedia  bool `json:"adverseMedia"`
	SourceOfFunds bool `json:"sourceOfFunds"`
}

// AML is the anti-money-laundering check.
type AML struct {
	Status CheckStatus `json:"status"`
	Notes  string      `json:"notes"`
	Checks AMLChecks   `json:"checks"`
}

// RiskFactors rate individual risk dimensions low/medium/high.
type RiskFactors struct {
	Country           string `json:"country"`
	Industry          string `json:"industry"`
	TransactionAmount string `json:"transactionAmount"`
	ClientProfile     string `json:"clientProfile"`
}

// RiskAssessment is the overall risk check. The checklist is a nested
// grouping of reviewer line items whose shape evolves with the review
// process, so it is carried opaquely.
type RiskAssessment struct {
	Status    CheckStatus     `json:"status"`
	Notes     string          `json:"notes"`
	RiskLevel string          `json:"riskLevel,omitempty"`
	Factors   RiskFactors     `json:"factors"`
	Checklist json.RawMessage `json:"checklist,omitempty"`
}

// Evaluation is the review record for one application. Exactly one exists
// per application once review starts. overallStatus and completedSteps are
// derived from the four checks and never taken from a caller.
type Evaluation struct {
	ID                  string         `json:"id"`
	ApplicationID       string         `json:"applicationId"`
	EvaluatorID         string         `json:"evaluatorId"`
	CreditScoring       CreditScoring  `json:"creditScoring"`
	KYC                 KYC            `json:"kyc"`
	AML                 AML            `json:"aml"`
	RiskAssessment      RiskAssessment `json:"riskAssessment"`
	OverallStatus       CheckStatus    `json:"overallStatus"`
	CompletedSteps      int            `json:"completedSteps"`
	FinalNotes          string         `json:"finalNotes,omitempty"`
	FinalRecommendation string         `json:"finalRecommendation,omitempty"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
}

// checkStatuses returns the four check statuses in canonical order.
func (e Evaluation) checkStatuses() [4]CheckStatus {
	return [4]CheckStatus{
		e.CreditScoring.Status,
		e.KYC.Status,
		e.AML.Status,
		e.RiskAssessment.Status,
	}
}

// newEvaluation returns the pristine record created when review starts:
// every check pending, nothing completed.
func newEvaluation(id, applicationID, evaluatorID string, now time.Time) Evaluation {
	return Evaluation{
		ID:            id,
		ApplicationID: applicationID,
		EvaluatorID:   evaluatorID,
		CreditScoring: CreditScoring{Status: CheckPending},
		KYC:           KYC{Status: CheckPending},
		AML:           AML{Status: CheckPending},
		RiskAssessment: RiskAssessment{
			Status:  CheckPending,
			Factors: RiskFactors{Country: "medium", Industry: "medium", TransactionAmount: "medium", ClientProfile: "medium"},
		},
		OverallStatus: CheckPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
