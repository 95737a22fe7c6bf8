package documents

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tradeportal-backend/internal/applications"
	"tradeportal-backend/internal/shared/auth"
	"tradeportal-backend/internal/shared/server/middleware"
	"tradeportal-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the document service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document upload routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/applications/:id/documents", h.upload)
}

func (h *Handler) upload(c *gin.Context) {
	app, ok := h.loadAuthorized(c)
	if !ok {
		return
	}

	// One extra file size of headroom for multipart framing and form fields.
	maxBytes := int64(h.Svc.MaxBatch+1) * h.Svc.MaxFileSize
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)

	form, err := c.MultipartForm()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid multipart form", nil)
		return
	}

	headers := form.File["documents"]
	documentType := ""
	if v := form.Value["documentType"]; len(v) > 0 {
		documentType = strings.TrimSpace(v[0])
	}

	files := make([]File, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read uploaded file", nil)
			return
		}
		defer f.Close()
		files = append(files, File{
			Name:         header.Filename,
			Size:         header.Size,
			ContentType:  header.Header.Get("Content-Type"),
			DocumentType: documentType,
			Reader:       f,
		})
	}

	updated, docs, err := h.Svc.Upload(c.Request.Context(), app.ID, files, h.uploadedBy(c))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrTooManyFiles):
			respond.Error(c, http.StatusBadRequest, "too_many_files", err.Error(), nil)
		case errors.Is(err, ErrFileTooLarge):
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", err.Error(), nil)
		case errors.Is(err, ErrInvalidFileType):
			respond.Error(c, http.StatusBadRequest, "invalid_file_type", err.Error(), nil)
		case errors.Is(err, applications.ErrTerminalState):
			respond.Error(c, http.StatusConflict, "application_finalized", "application decision is final", nil)
		case errors.Is(err, applications.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "application not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to upload documents", nil)
		}
		return
	}

	resp := make([]applications.DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, applications.DocumentResponse{
			ID:           doc.ID,
			FileName:     doc.FileName,
			OriginalName: doc.OriginalName,
			MimeType:     doc.MimeType,
			SizeBytes:    doc.SizeBytes,
			DocumentType: doc.DocumentType,
			UploadedBy:   doc.UploadedBy,
			UploadDate:   doc.UploadDate,
		})
	}
	respond.JSON(c, http.StatusCreated, gin.H{
		"applicationId": updated.ID,
		"status":        updated.Status,
		"documents":     resp,
	})
}

// loadAuthorized fetches the application and checks upload rights: the
// owning salesman, an admin, or the client holding the matching link token.
func (h *Handler) loadAuthorized(c *gin.Context) (applications.Application, bool) {
	id := c.Param("id")
	if id == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "application id is required", nil)
		return applications.Application{}, false
	}

	app, err := h.Svc.Apps.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, applications.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "application not found", nil)
			return applications.Application{}, false
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch application", nil)
		return applications.Application{}, false
	}

	allowed := false
	if middleware.IsStaff(c) {
		switch middleware.RoleFromContext(c) {
		case auth.RoleAdmin:
			allowed = true
		case auth.RoleSalesman:
			allowed = app.SalesmanID == middleware.UserIDFromContext(c)
		}
	} else if token := middleware.LinkTokenFromContext(c); token != "" {
		allowed = token == app.LinkToken
	}
	if !allowed {
		respond.Error(c, http.StatusForbidden, "forbidden", "access denied", nil)
		return applications.Application{}, false
	}

	c.Set("applicationId", app.ID)
	return app, true
}

// uploadedBy is the registry marker for the uploader. Anonymous clients are
// recorded as "client".
func (h *Handler) uploadedBy(c *gin.Context) string {
	if middleware.IsStaff(c) {
		return middleware.UserIDFromContext(c)
	}
	return "client"
}
