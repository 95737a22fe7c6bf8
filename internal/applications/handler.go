package applications

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"tradeportal-backend/internal/shared/auth"
	"tradeportal-backend/internal/shared/server/middleware"
	"tradeportal-backend/internal/shared/server/respond"
	"tradeportal-backend/internal/shared/storage/object"
)

// Handler wires HTTP handlers to the application service.
type Handler struct {
	Svc   *Service
	Store object.ObjectStore
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, store object.ObjectStore) *Handler {
	return &Handler{Svc: svc, Store: store}
}

// RegisterRoutes attaches application routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/applications", h.create)
	rg.GET("/applications", h.list)
	rg.GET("/applications/token/:token", h.getByToken)
	rg.GET("/applications/:id", h.get)
	rg.PUT("/applications/:id", h.update)
	rg.POST("/applications/:id/submit", h.submit)
	rg.GET("/applications/:id/timeline", h.timeline)
	rg.GET("/applications/:id/documents", h.listDocuments)
	rg.GET("/applications/:id/documents/:documentId/download", h.downloadDocument)
}

type createRequest struct {
	ClientName  string `json:"clientName"`
	CompanyName string `json:"companyName"`
	Email       string `json:"email"`
}

func (h *Handler) create(c *gin.Context) {
	role := middleware.RoleFromContext(c)
	if role != auth.RoleSalesman && role != auth.RoleAdmin {
		respond.Error(c, http.StatusForbidden, "forbidden", "only salesmen can create applications", nil)
		return
	}

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid json body", nil)
		return
	}

	result, err := h.Svc.Create(c.Request.Context(), CreateParams{
		SalesmanID:  middleware.UserIDFromContext(c),
		ClientName:  req.ClientName,
		CompanyName: req.CompanyName,
		Email:       req.Email,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create application", nil)
		return
	}

	c.Set("applicationId", result.Application.ID)
	respond.JSON(c, http.StatusCreated, CreateApplicationResponse{
		Application: toApplicationResponse(result.Application, result.ClientLink),
		ClientLink:  result.ClientLink,
		Password:    result.Password,
	})
}

func (h *Handler) list(c *gin.Context) {
	if !middleware.IsStaff(c) {
		respond.Error(c, http.StatusForbidden, "forbidden", "staff access required", nil)
		return
	}

	role := middleware.RoleFromContext(c)
	userID := middleware.UserIDFromContext(c)
	apps, err := h.Svc.List(c.Request.Context(), role, userID)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.Error(c, http.StatusForbidden, "forbidden", "unknown role", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list applications", nil)
		return
	}

	resp := make([]ApplicationResponse, 0, len(apps))
	for _, app := range apps {
		link := ""
		if role == auth.RoleSalesman || role == auth.RoleAdmin {
			link = h.Svc.clientLink(app.LinkToken)
		}
		resp = append(resp, toApplicationResponse(app, link))
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) get(c *gin.Context) {
	app, ok := h.loadAuthorized(c, false)
	if !ok {
		return
	}
	respond.JSON(c, http.StatusOK, toApplicationResponse(app, h.staffLink(c, app)))
}

func (h *Handler) getByToken(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "token is required", nil)
		return
	}

	app, err := h.Svc.GetByLinkToken(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "application not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch application", nil)
		return
	}

	c.Set("applicationId", app.ID)
	respond.JSON(c, http.StatusOK, toApplicationResponse(app, ""))
}

type updateRequest struct {
	Data *ApplicationData `json:"applicationData"`
}

func (h *Handler) update(c *gin.Context) {
	app, ok := h.loadAuthorized(c, true)
	if !ok {
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid json body", nil)
		return
	}

	updated, err := h.Svc.UpdateData(c.Request.Context(), app.ID, req.Data, h.performedBy(c))
	if err != nil {
		h.respondLifecycleError(c, err, "failed to update application")
		return
	}

	h.noteTransition(c, app.Status, updated.Status)
	respond.JSON(c, http.StatusOK, toApplicationResponse(updated, h.staffLink(c, updated)))
}

func (h *Handler) submit(c *gin.Context) {
	app, ok := h.loadAuthorized(c, true)
	if !ok {
		return
	}

	updated, err := h.Svc.Submit(c.Request.Context(), app.ID, h.performedBy(c))
	if err != nil {
		h.respondLifecycleError(c, err, "failed to submit application")
		return
	}

	h.noteTransition(c, app.Status, updated.Status)
	respond.JSON(c, http.StatusOK, toApplicationResponse(updated, h.staffLink(c, updated)))
}

func (h *Handler) timeline(c *gin.Context) {
	app, ok := h.loadAuthorized(c, false)
	if !ok {
		return
	}

	entries, err := h.Svc.Timeline(c.Request.Context(), app.ID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list timeline", nil)
		return
	}
	respond.JSON(c, http.StatusOK, entries)
}

func (h *Handler) listDocuments(c *gin.Context) {
	app, ok := h.loadAuthorized(c, false)
	if !ok {
		return
	}

	resp := make([]DocumentResponse, 0, len(app.Documents))
	for _, doc := range app.Documents {
		resp = append(resp, toDocumentResponse(doc))
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) downloadDocument(c *gin.Context) {
	app, ok := h.loadAuthorized(c, false)
	if !ok {
		return
	}

	documentID := c.Param("documentId")
	if documentID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "document id is required", nil)
		return
	}

	doc, err := h.Svc.Repo.GetDocument(c.Request.Context(), app.ID, documentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch document", nil)
		return
	}

	reader, err := h.Store.Open(c.Request.Context(), doc.StorageKey)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load document", nil)
		return
	}
	defer reader.Close()

	c.Header("Content-Type", doc.MimeType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.OriginalName))
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, reader)
}

// loadAuthorized fetches the application from the path and checks that the
// caller may see it (mutate=false) or change it (mutate=true). It writes the
// error response itself when authorization fails.
func (h *Handler) loadAuthorized(c *gin.Context, mutate bool) (Application, bool) {
	id := c.Param("id")
	if id == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "application id is required", nil)
		return Application{}, false
	}

	app, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "application not found", nil)
			return Application{}, false
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch application", nil)
		return Application{}, false
	}

	if !h.canAccess(c, app, mutate) {
		respond.Error(c, http.StatusForbidden, "forbidden", "access denied", nil)
		return Application{}, false
	}

	c.Set("applicationId", app.ID)
	return app, true
}

// canAccess implements the access rules. Admins see and change everything;
// salesmen only their own applications; evaluators read any but change none
// here (their changes go through evaluations); a link token grants the
// client full access to exactly the application it was minted for.
func (h *Handler) canAccess(c *gin.Context, app Application, mutate bool) bool {
	if middleware.IsStaff(c) {
		switch middleware.RoleFromContext(c) {
		case auth.RoleAdmin:
			return true
		case auth.RoleSalesman:
			return app.SalesmanID == middleware.UserIDFromContext(c)
		case auth.RoleEvaluator:
			return !mutate
		default:
			return false
		}
	}
	token := middleware.LinkTokenFromContext(c)
	return token != "" && token == app.LinkToken
}

// performedBy is the actor recorded in the timeline. Anonymous client
// actions are recorded without an actor.
func (h *Handler) performedBy(c *gin.Context) string {
	if middleware.IsStaff(c) {
		return middleware.UserIDFromContext(c)
	}
	return ""
}

// staffLink returns the shareable client link for staff callers; clients
// already hold the token and get nothing extra.
func (h *Handler) staffLink(c *gin.Context, app Application) string {
	if !middleware.IsStaff(c) {
		return ""
	}
	switch middleware.RoleFromContext(c) {
	case auth.RoleSalesman, auth.RoleAdmin:
		return h.Svc.clientLink(app.LinkToken)
	default:
		return ""
	}
}

func (h *Handler) noteTransition(c *gin.Context, from, to Status) {
	if from != to {
		c.Set("statusTransition", fmt.Sprintf("%s->%s", from, to))
	}
}

func (h *Handler) respondLifecycleError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "application not found", nil)
	case errors.Is(err, ErrTerminalState):
		respond.Error(c, http.StatusConflict, "application_finalized", "application decision is final", nil)
	case errors.Is(err, ErrInvalidTransition):
		respond.Error(c, http.StatusConflict, "invalid_transition", "status transition not allowed", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
