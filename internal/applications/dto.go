package applications

import "time"

// ApplicationResponse is the outward-facing representation of an
// application. The password hash never leaves the service; the client link
// is present only in responses to staff who may share it.
type ApplicationResponse struct {
	ID          string             `json:"id"`
	SalesmanID  string             `json:"salesmanId"`
	ClientName  string             `json:"clientName"`
	CompanyName string             `json:"companyName"`
	Email       string             `json:"email,omitempty"`
	Status      Status             `json:"status"`
	Data        *ApplicationData   `json:"applicationData,omitempty"`
	Documents   []DocumentResponse `json:"documents"`
	Timeline    []TimelineEntry    `json:"timeline"`
	ClientLink  string             `json:"clientLink,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// DocumentResponse is the outward-facing representation of an uploaded
// document. The storage key stays internal.
type DocumentResponse struct {
	ID           string    `json:"id"`
	FileName     string    `json:"fileName"`
	OriginalName string    `json:"originalName"`
	MimeType     string    `json:"mimeType"`
	SizeBytes    int64     `json:"sizeBytes"`
	DocumentType string    `json:"documentType"`
	UploadedBy   string    `json:"uploadedBy"`
	UploadDate   time.Time `json:"uploadDate"`
}

// CreateApplicationResponse carries the one-time client credentials the
// salesman hands to the client. The password appears here and nowhere else.
type CreateApplicationResponse struct {
	Application ApplicationResponse `json:"application"`
	ClientLink  string              `json:"clientLink"`
	Password    string              `json:"applicationPassword"`
}

func toApplicationResponse(app Application, clientLink string) ApplicationResponse {
	docs := make([]DocumentResponse, 0, len(app.Documents))
	for _, doc := range app.Documents {
		docs = append(docs, toDocumentResponse(doc))
	}
	timeline := app.Timeline
	if timeline == nil {
		timeline = []TimelineEntry{}
	}
	return ApplicationResponse{
		ID:          app.ID,
		SalesmanID:  app.SalesmanID,
		ClientName:  app.ClientName,
		CompanyName: app.CompanyName,
		Email:       app.Email,
		Status:      app.Status,
		Data:        app.Data,
		Documents:   docs,
		Timeline:    timeline,
		ClientLink:  clientLink,
		CreatedAt:   app.CreatedAt,
		UpdatedAt:   app.UpdatedAt,
	}
}

func toDocumentResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		ID:           doc.ID,
		FileName:     doc.FileName,
		OriginalName: doc.OriginalName,
		MimeType:     doc.MimeType,
		SizeBytes:    doc.SizeBytes,
		DocumentType: doc.DocumentType,
		UploadedBy:   doc.UploadedBy,
		UploadDate:   doc.UploadDate,
	}
}
