package evaluations

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tradeportal-backend/internal/applications"
	"tradeportal-backend/internal/shared/auth"
	"tradeportal-backend/internal/shared/server/middleware"
	"tradeportal-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the evaluation service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches evaluation routes to the router group. All of
// them are restricted to evaluators and admins.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	gated := rg.Group("", middleware.RequireRole(auth.RoleEvaluator, auth.RoleAdmin))
	gated.GET("/evaluations/pending-applications", h.pendingApplications)
	gated.GET("/evaluations/application/:applicationId", h.getForApplication)
	gated.PUT("/evaluations/:id", h.update)
}

func (h *Handler) pendingApplications(c *gin.Context) {
	apps, err := h.Svc.PendingApplications(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list pending applications", nil)
		return
	}

	resp := make([]gin.H, 0, len(apps))
	for _, app := range apps {
		resp = append(resp, gin.H{
			"id":          app.ID,
			"clientName":  app.ClientName,
			"companyName": app.CompanyName,
			"status":      app.Status,
			"submittedAt": app.UpdatedAt,
			"documents":   len(app.Documents),
		})
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) getForApplication(c *gin.Context) {
	applicationID := c.Param("applicationId")
	if applicationID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "application id is required", nil)
		return
	}

	eval, err := h.Svc.GetForApplication(c.Request.Context(), applicationID, middleware.UserIDFromContext(c))
	if err != nil {
		switch {
		case errors.Is(err, applications.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "application not found", nil)
		case errors.Is(err, ErrNotSubmitted):
			respond.Error(c, http.StatusConflict, "not_submitted", "application has not been submitted", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load evaluation", nil)
		}
		return
	}

	c.Set("applicationId", eval.ApplicationID)
	respond.JSON(c, http.StatusOK, eval)
}

type updateRequest struct {
	CreditScoring       *CreditScoring  `json:"creditScoring"`
	KYC                 *KYC            `json:"kyc"`
	AML                 *AML            `json:"aml"`
	RiskAssessment      *RiskAssessment `json:"riskAssessment"`
	FinalNotes          *string         `json:"finalNotes"`
	FinalRecommendation *string         `json:"finalRecommendation"`
}

func (h *Handler) update(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "evaluation id is required", nil)
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid json body", nil)
		return
	}

	eval, err := h.Svc.Update(c.Request.Context(), id, middleware.UserIDFromContext(c), UpdateParams{
		CreditScoring:       req.CreditScoring,
		KYC:                 req.KYC,
		AML:                 req.AML,
		RiskAssessment:      req.RiskAssessment,
		FinalNotes:          req.FinalNotes,
		FinalRecommendation: req.FinalRecommendation,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "evaluation not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrFinalized):
			respond.Error(c, http.StatusConflict, "evaluation_finalized", "evaluation decision is final", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update evaluation", nil)
		}
		return
	}

	c.Set("applicationId", eval.ApplicationID)
	respond.JSON(c, http.StatusOK, eval)
}
