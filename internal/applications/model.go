package applications

import "time"

// Application is a trade-finance intake application. It is created by a
// salesman, filled in by an anonymous client through a password-gated link,
// and reviewed by evaluators.
type Application struct {
	ID          string
	SalesmanID  string
	ClientName  string
	CompanyName string
	Email       string

	// LinkToken is the capability that grants anonymous client access.
	// Unique and immutable after creation.
	LinkToken string
	// PasswordHash is the bcrypt hash of the client access password.
	PasswordHash string

	Status    Status
	Data      *ApplicationData
	Documents []Document
	Timeline  []TimelineEntry

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Document records an uploaded file attached to an application. The bytes
// live in the object store; StorageKey is the opaque handle.
type Document struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"-"`
	FileName      string    `json:"fileName"`
	OriginalName  string    `json:"originalName"`
	MimeType      string    `json:"mimeType"`
	SizeBytes     int64     `json:"size"`
	DocumentType  string    `json:"documentType"`
	StorageKey    string    `json:"-"`
	UploadedBy    string    `json:"uploadedBy"`
	UploadDate    time.Time `json:"uploadDate"`
}

// ApplicationData is the client-filled payload. The state machine treats it
// as opaque; shape is validated by the front end and the evaluation workflow.
type ApplicationData struct {
	SchemaVersion int `json:"schemaVersion,omitempty"`

	BusinessInfo           *BusinessInfo           `json:"businessInfo,omitempty"`
	PartnersInfo           *PartnersInfo           `json:"partnersInfo,omitempty"`
	PrincipalsInfo         *PrincipalsInfo         `json:"principalsInfo,omitempty"`
	FinancialRequestInfo   *FinancialRequestInfo   `json:"financialRequestInfo,omitempty"`
	BankDetailsInfo        *BankDetailsInfo        `json:"bankDetailsInfo,omitempty"`
	DocumentSubmissionInfo *DocumentSubmissionInfo `json:"documentSubmissionInfo,omitempty"`
	TradeFinanceInfo       *TradeFinanceInfo       `json:"tradeFinanceInfo,omitempty"`
	ContactInfo            *ContactInfo            `json:"contactInfo,omitempty"`
	AdditionalInfo         *AdditionalInfo         `json:"additionalInfo,omitempty"`
}

// BusinessInfo describes the applying company.
type BusinessInfo struct {
	CompanyName     string `json:"companyName,omitempty"`
	EstablishedDate string `json:"establishedDate,omitempty"`
	BusinessType    string `json:"businessType,omitempty"`
	Address         string `json:"address,omitempty"`
	Website         string `json:"website,omitempty"`
	Country         string `json:"country,omitempty"`
	State           string `json:"state,omitempty"`
	City            string `json:"city,omitempty"`
	ZipCode         string `json:"zipCode,omitempty"`
	Telephone       string `json:"telephone,omitempty"`
	CellPhone       string `json:"cellPhone,omitempty"`
	ContactName     string `json:"contactName,omitempty"`
	CEOName         string `json:"ceoName,omitempty"`
}

// Partner is an owner of the applying company.
type Partner struct {
	Name       string  `json:"name,omitempty"`
	Percentage float64 `json:"percentage,omitempty"`
	IDNumber   string  `json:"idNumber,omitempty"`
}

type PartnersInfo struct {
	Partners []Partner `json:"partners,omitempty"`
}

// Principal is a director of the applying company.
type Principal struct {
	Name      string `json:"name,omitempty"`
	BirthDate string `json:"birthDate,omitempty"`
	DIN       string `json:"din,omitempty"`
}

type PrincipalsInfo struct {
	Principals []Principal `json:"principals,omitempty"`
}

// FinancialRequestInfo captures the financing ask.
type FinancialRequestInfo struct {
	Currency                 string          `json:"currency,omitempty"`
	YearlySales              float64         `json:"yearlySales,omitempty"`
	GrossMargin              float64         `json:"grossMargin,omitempty"`
	FinancingRequired        float64         `json:"financingRequired,omitempty"`
	CreditUseDestination     string          `json:"creditUseDestination,omitempty"`
	NumberOfClientsToFinance int             `json:"numberOfClientsToFinance,omitempty"`
	DocumentTypes            map[string]bool `json:"documentTypes,omitempty"`
	FactoredReceivables      string          `json:"factoredReceivables,omitempty"`
	FactoredDetails          string          `json:"factoredDetails,omitempty"`
	CreditInsurancePolicy    string          `json:"creditInsurancePolicy,omitempty"`
	CreditInsuranceDetails   string          `json:"creditInsuranceDetails,omitempty"`
	UCCFilingOrLiens         string          `json:"uccFilingOrLiens,omitempty"`
	UCCFilingDetails         string          `json:"uccFilingDetails,omitempty"`
	DeclaredBankruptcy       string          `json:"declaredBankruptcy,omitempty"`
	PastDueTaxes             string          `json:"pastDueTaxes,omitempty"`
	PendingLawsuit           string          `json:"pendingLawsuit,omitempty"`
}

// BankAccount identifies a company bank account.
type BankAccount struct {
	AccountNumber string `json:"accountNumber,omitempty"`
	AccountName   string `json:"accountName,omitempty"`
	BankName      string `json:"bankName,omitempty"`
	BankAddress   string `json:"bankAddress,omitempty"`
	ABARouting    string `json:"abaRouting,omitempty"`
	IFSCCode      string `json:"ifscCode,omitempty"`
	SwiftCode     string `json:"swiftCode,omitempty"`
}

type BankDetailsInfo struct {
	BankAccounts []BankAccount `json:"bankAccounts,omitempty"`
}

// RequiredDocument is the client's declaration of a document they will
// supply, as opposed to the registry's record of an actual upload.
type RequiredDocument struct {
	DocumentType string `json:"documentType,omitempty"`
	FileName     string `json:"fileName,omitempty"`
	OriginalName string `json:"originalName,omitempty"`
	FilePath     string `json:"filePath,omitempty"`
	UploadDate   string `json:"uploadDate,omitempty"`
	FileSize     int64  `json:"fileSize,omitempty"`
	MimeType     string `json:"mimeType,omitempty"`
}

// DocumentSubmissionInfo covers terms acceptance and signature.
type DocumentSubmissionInfo struct {
	TermsAccepted      bool               `json:"termsAccepted,omitempty"`
	TermsAcceptedDate  string             `json:"termsAcceptedDate,omitempty"`
	SignatureName      string             `json:"signatureName,omitempty"`
	SignatureDate      string             `json:"signatureDate,omitempty"`
	SignatureImagePath string             `json:"signatureImagePath,omitempty"`
	RequiredDocuments  []RequiredDocument `json:"requiredDocuments,omitempty"`
}

// TradeFinanceInfo captures the requested facility.
type TradeFinanceInfo struct {
	FacilityType       string              `json:"facilityType,omitempty"`
	Amount             float64             `json:"amount,omitempty"`
	Currency           string              `json:"currency,omitempty"`
	Tenure             int                 `json:"tenure,omitempty"`
	Purpose            string              `json:"purpose,omitempty"`
	BeneficiaryDetails *BeneficiaryDetails `json:"beneficiaryDetails,omitempty"`
}

type BeneficiaryDetails struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
	Country string `json:"country,omitempty"`
}

// ContactPerson is a named contact with designation.
type ContactPerson struct {
	Name        string `json:"name,omitempty"`
	Designation string `json:"designation,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

type ContactInfo struct {
	PrimaryContact   *ContactPerson `json:"primaryContact,omitempty"`
	FinancialContact *ContactPerson `json:"financialContact,omitempty"`
}

// AdditionalInfo records trading background and urgency.
type AdditionalInfo struct {
	ExperienceInTrade   int      `json:"experienceInTrade,omitempty"`
	MainMarkets         []string `json:"mainMarkets,omitempty"`
	KeyProducts         []string `json:"keyProducts,omitempty"`
	SpecialRequirements string   `json:"specialRequirements,omitempty"`
	Urgency             string   `json:"urgency,omitempty"`
}
