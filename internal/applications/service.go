package applications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"tradeportal-backend/internal/shared/auth"
	"tradeportal-backend/internal/shared/metrics"
)

// CredentialIssuer mints the client-facing access pair for a new
// application: an unguessable link token and a one-time plaintext password
// whose hash is what gets stored.
type CredentialIssuer interface {
	Issue() (token, password, passwordHash string, err error)
}

// Service owns application lifecycle rules on top of a Repo.
type Service struct {
	Repo        Repo
	Credentials CredentialIssuer
	FrontendURL string
}

func NewService(repo Repo, creds CredentialIssuer, frontendURL string) *Service {
	return &Service{Repo: repo, Credentials: creds, FrontendURL: frontendURL}
}

// CreateParams is the salesman-supplied seed for a new application.
type CreateParams struct {
	SalesmanID  string
	ClientName  string
	CompanyName string
	Email       string
}

// CreateResult carries the one-time client credentials alongside the stored
// application. Password is plaintext here and nowhere else.
type CreateResult struct {
	Application Application
	ClientLink  string
	Password    string
}

// Create mints client credentials and stores a new application in pending
// state with its initial timeline entry.
func (s *Service) Create(ctx context.Context, p CreateParams) (CreateResult, error) {
	p.ClientName = strings.TrimSpace(p.ClientName)
	p.CompanyName = strings.TrimSpace(p.CompanyName)
	if p.SalesmanID == "" || p.ClientName == "" || p.CompanyName == "" {
		return CreateResult{}, fmt.Errorf("%w: salesmanId, clientName and companyName are required", ErrInvalidInput)
	}

	token, password, hash, err := s.Credentials.Issue()
	if err != nil {
		return CreateResult{}, fmt.Errorf("issue client credentials: %w", err)
	}

	now := time.Now().UTC()
	app := Application{
		ID:           uuid.NewString(),
		SalesmanID:   p.SalesmanID,
		ClientName:   p.ClientName,
		CompanyName:  p.CompanyName,
		Email:        strings.TrimSpace(p.Email),
		LinkToken:    token,
		PasswordHash: hash,
		Status:       StatusPending,
		Timeline:     []TimelineEntry{newEntry(ActionCreated, p.SalesmanID, "Application created by salesman")},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Repo.Create(ctx, app); err != nil {
		return CreateResult{}, err
	}

	return CreateResult{
		Application: app,
		ClientLink:  s.clientLink(token),
		Password:    password,
	}, nil
}

// Get returns one application by ID.
func (s *Service) Get(ctx context.Context, id string) (Application, error) {
	return s.Repo.GetByID(ctx, id)
}

// GetByLinkToken returns the application a link token points at.
func (s *Service) GetByLinkToken(ctx context.Context, token string) (Application, error) {
	return s.Repo.GetByLinkToken(ctx, token)
}

// List returns the applications visible to the caller's role. Salesmen see
// only their own; evaluators see applications that reached submission;
// admins see everything.
func (s *Service) List(ctx context.Context, role, userID string) ([]Application, error) {
	var filter ListFilter
	switch role {
	case auth.RoleSalesman:
		filter.SalesmanID = userID
	case auth.RoleEvaluator:
		filter.Statuses = []Status{StatusSubmitted, StatusUnderReview, StatusApproved, StatusRejected}
	case auth.RoleAdmin:
		// no filter
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	apps, err := s.Repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if apps == nil {
		apps = []Application{}
	}
	return apps, nil
}

// UpdateData replaces applicationData after the caller has been authorized.
// performedBy is empty for anonymous client edits.
func (s *Service) UpdateData(ctx context.Context, id string, data *ApplicationData, performedBy string) (Application, error) {
	if data == nil {
		return Application{}, fmt.Errorf("%w: applicationData is required", ErrInvalidInput)
	}
	return s.applyTransitioning(ctx, id, func() (Application, error) {
		return s.Repo.UpdateData(ctx, id, data, performedBy)
	})
}

// Submit marks the application submitted on behalf of the client.
func (s *Service) Submit(ctx context.Context, id string, performedBy string) (Application, error) {
	return s.applyTransitioning(ctx, id, func() (Application, error) {
		return s.Repo.Submit(ctx, id, performedBy)
	})
}

// Transition applies a staff-driven status change such as starting review or
// finalizing a decision.
func (s *Service) Transition(ctx context.Context, id string, to Status, performedBy, notes string) (Application, error) {
	if !to.IsValid() {
		return Application{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, to)
	}
	return s.applyTransitioning(ctx, id, func() (Application, error) {
		return s.Repo.Transition(ctx, id, to, performedBy, notes)
	})
}

// Timeline returns the audit trail in insertion order.
func (s *Service) Timeline(ctx context.Context, id string) ([]TimelineEntry, error) {
	entries, err := s.Repo.ListTimeline(ctx, id)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []TimelineEntry{}
	}
	return entries, nil
}

// applyTransitioning runs a repo mutation and records the status transition
// in metrics by comparing the state before and after.
func (s *Service) applyTransitioning(ctx context.Context, id string, fn func() (Application, error)) (Application, error) {
	before, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Application{}, err
	}
	app, err := fn()
	if err != nil {
		switch {
		case errors.Is(err, ErrTerminalState):
			metrics.IncTransitionRejected("terminal")
		case errors.Is(err, ErrInvalidTransition):
			metrics.IncTransitionRejected("invalid")
		}
		return Application{}, err
	}
	if app.Status != before.Status {
		metrics.IncTransition(string(before.Status), string(app.Status))
	}
	return app, nil
}

func (s *Service) clientLink(token string) string {
	base := strings.TrimSuffix(s.FrontendURL, "/")
	if base == "" {
		base = "http://localhost:5173"
	}
	return base + "/application/" + token
}
