package evaluations

import (
	"context"
	"errors"
	"fmt"

	"tradeportal-backend/internal/applications"
	"tradeportal-backend/internal/shared/metrics"
	"tradeportal-backend/internal/shared/telemetry"
)

// Service owns the evaluation workflow on top of a Repo. Decisions on the
// evaluation drive the application lifecycle: opening an evaluation moves a
// submitted application under review, and a terminal overall status
// finalizes the application.
type Service struct {
	Repo Repo
	Apps *applications.Service
}

func NewService(repo Repo, apps *applications.Service) *Service {
	return &Service{Repo: repo, Apps: apps}
}

// ErrNotSubmitted is returned when review is requested for an application
// that has not been submitted yet.
var ErrNotSubmitted = errors.New("application not submitted for review")

// ErrFinalized is returned when an evaluation with a terminal overall
// status is updated.
var ErrFinalized = errors.New("evaluation is finalized")

// PendingApplications lists submitted applications that no evaluator has
// opened yet.
func (s *Service) PendingApplications(ctx context.Context) ([]applications.Application, error) {
	apps, err := s.Apps.Repo.List(ctx, applications.ListFilter{
		Statuses: []applications.Status{applications.StatusSubmitted},
	})
	if err != nil {
		return nil, err
	}

	evaluated, err := s.Repo.EvaluatedApplicationIDs(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]applications.Application, 0, len(apps))
	for _, app := range apps {
		if _, ok := evaluated[app.ID]; !ok {
			out = append(out, app)
		}
	}
	return out, nil
}

// GetForApplication returns the application's evaluation, creating it on
// first access. Creation moves a submitted application under review.
func (s *Service) GetForApplication(ctx context.Context, applicationID, evaluatorID string) (Evaluation, error) {
	app, err := s.Apps.Get(ctx, applicationID)
	if err != nil {
		return Evaluation{}, err
	}
	switch app.Status {
	case applications.StatusSubmitted, applications.StatusUnderReview,
		applications.StatusApproved, applications.StatusRejected:
		// reviewable
	default:
		return Evaluation{}, fmt.Errorf("%w: application is %s", ErrNotSubmitted, app.Status)
	}

	eval, created, err := s.Repo.GetOrCreateForApplication(ctx, applicationID, evaluatorID)
	if err != nil {
		return Evaluation{}, err
	}

	if created && app.Status == applications.StatusSubmitted {
		_, err := s.Apps.Transition(ctx, applicationID, applications.StatusUnderReview, evaluatorID, "Evaluation started")
		// Another evaluator may have raced the transition; the evaluation
		// itself is unique either way.
		if err != nil && !errors.Is(err, applications.ErrInvalidTransition) && !errors.Is(err, applications.ErrTerminalState) {
			return Evaluation{}, err
		}
	}
	return eval, nil
}

// UpdateParams carries the sections of an evaluation update. Nil sections
// stay untouched; overallStatus and completedSteps are always recomputed
// here and never taken from the caller.
type UpdateParams struct {
	CreditScoring       *CreditScoring
	KYC                 *KYC
	AML                 *AML
	RiskAssessment      *RiskAssessment
	FinalNotes          *string
	FinalRecommendation *string
}

// Update applies an evaluator's changes, rederives the overall status and
// finalizes the application when the evaluation reaches a decision.
func (s *Service) Update(ctx context.Context, id, evaluatorID string, p UpdateParams) (Evaluation, error) {
	eval, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Evaluation{}, err
	}
	if eval.OverallStatus != CheckPending {
		return Evaluation{}, fmt.Errorf("%w: overall status is %s", ErrFinalized, eval.OverallStatus)
	}
	if err := p.validate(); err != nil {
		return Evaluation{}, err
	}

	if p.CreditScoring != nil {
		eval.CreditScoring = *p.CreditScoring
		metrics.IncEvaluationCheck(CheckCreditScoring, string(p.CreditScoring.Status))
	}
	if p.KYC != nil {
		eval.KYC = *p.KYC
		metrics.IncEvaluationCheck(CheckKYC, string(p.KYC.Status))
	}
	if p.AML != nil {
		eval.AML = *p.AML
		metrics.IncEvaluationCheck(CheckAML, string(p.AML.Status))
	}
	if p.RiskAssessment != nil {
		eval.RiskAssessment = *p.RiskAssessment
		metrics.IncEvaluationCheck(CheckRiskAssessment, string(p.RiskAssessment.Status))
	}
	if p.FinalNotes != nil {
		eval.FinalNotes = *p.FinalNotes
	}
	if p.FinalRecommendation != nil {
		eval.FinalRecommendation = *p.FinalRecommendation
	}
	eval.EvaluatorID = evaluatorID
	eval.recompute()

	if err := s.Repo.Update(ctx, eval); err != nil {
		return Evaluation{}, err
	}

	if eval.OverallStatus != CheckPending {
		if err := s.finalizeApplication(ctx, eval, evaluatorID); err != nil {
			return Evaluation{}, err
		}
	}
	return eval, nil
}

// finalizeApplication moves the application to its terminal status. An
// application still in submitted (the review transition was lost to a race
// or the store was swapped) is first moved under review.
func (s *Service) finalizeApplication(ctx context.Context, eval Evaluation, evaluatorID string) error {
	target := applications.StatusApproved
	if eval.OverallStatus == CheckRejected {
		target = applications.StatusRejected
	}
	notes := eval.FinalRecommendation
	if notes == "" {
		notes = eval.FinalNotes
	}

	_, err := s.Apps.Transition(ctx, eval.ApplicationID, target, evaluatorID, notes)
	if err == nil {
		return nil
	}
	if errors.Is(err, applications.ErrInvalidTransition) {
		if _, terr := s.Apps.Transition(ctx, eval.ApplicationID, applications.StatusUnderReview, evaluatorID, "Evaluation started"); terr == nil {
			_, err = s.Apps.Transition(ctx, eval.ApplicationID, target, evaluatorID, notes)
			if err == nil {
				return nil
			}
		}
	}
	if errors.Is(err, applications.ErrTerminalState) {
		telemetry.Warn("evaluations.finalize_skipped", map[string]any{
			"application_id": eval.ApplicationID,
			"target":         string(target),
		})
		return nil
	}
	return err
}

func (p UpdateParams) validate() error {
	if p.CreditScoring != nil && !p.CreditScoring.Status.IsValid() {
		return fmt.Errorf("%w: unknown %s status %q", ErrInvalidInput, CheckCreditScoring, p.CreditScoring.Status)
	}
	if p.KYC != nil && !p.KYC.Status.IsValid() {
		return fmt.Errorf("%w: unknown %s status %q", ErrInvalidInput, CheckKYC, p.KYC.Status)
	}
	if p.AML != nil && !p.AML.Status.IsValid() {
		return fmt.Errorf("%w: unknown %s status %q", ErrInvalidInput, CheckAML, p.AML.Status)
	}
	if p.RiskAssessment != nil {
		if !p.RiskAssessment.Status.IsValid() {
			return fmt.Errorf("%w: unknown %s status %q", ErrInvalidInput, CheckRiskAssessment, p.RiskAssessment.Status)
		}
		switch p.RiskAssessment.RiskLevel {
		case "", "low", "medium", "high":
		default:
			return fmt.Errorf("%w: unknown risk level %q", ErrInvalidInput, p.RiskAssessment.RiskLevel)
		}
	}
	return nil
}
