package clientaccess

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tradeportal-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the client access service.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches client access routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/applications/verify-password", h.verifyPassword)
}

type verifyRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *Handler) verifyPassword(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid json body", nil)
		return
	}

	app, err := h.Svc.Verify(c.Request.Context(), req.Token, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			respond.Error(c, http.StatusUnauthorized, "invalid_credentials", "invalid token or password", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to verify credentials", nil)
		return
	}

	c.Set("applicationId", app.ID)
	respond.JSON(c, http.StatusOK, gin.H{
		"valid":         true,
		"applicationId": app.ID,
		"status":        app.Status,
	})
}
