package clientaccess

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"tradeportal-backend/internal/applications"
	"tradeportal-backend/internal/shared/metrics"
	"tradeportal-backend/internal/shared/telemetry"
)

// Service verifies client access credentials against stored applications.
type Service struct {
	Repo applications.Repo
}

func NewService(repo applications.Repo) *Service {
	return &Service{Repo: repo}
}

// Verify checks a token and password pair and returns the application they
// unlock. Unknown token and wrong password are indistinguishable to the
// caller; the internal cause is kept in logs and metrics only.
func (s *Service) Verify(ctx context.Context, token, password string) (applications.Application, error) {
	if token == "" || password == "" {
		metrics.IncTokenVerify("missing_input")
		return applications.Application{}, ErrInvalidCredentials
	}

	app, err := s.Repo.GetByLinkToken(ctx, token)
	if err != nil {
		if errors.Is(err, applications.ErrNotFound) {
			metrics.IncTokenVerify("unknown_token")
			telemetry.Warn("clientaccess.verify_failed", map[string]any{"cause": "unknown_token"})
			return applications.Application{}, ErrInvalidCredentials
		}
		return applications.Application{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(app.PasswordHash), []byte(password)); err != nil {
		metrics.IncTokenVerify("wrong_password")
		telemetry.Warn("clientaccess.verify_failed", map[string]any{
			"cause":          "wrong_password",
			"application_id": app.ID,
		})
		return applications.Application{}, ErrInvalidCredentials
	}

	metrics.IncTokenVerify("ok")
	return app, nil
}
