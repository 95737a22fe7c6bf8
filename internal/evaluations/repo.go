package evaluations

import "context"

// Repo defines persistence for evaluations. At most one evaluation exists
// per application; GetOrCreateForApplication enforces that even under
// concurrent callers.
type Repo interface {
	// GetOrCreateForApplication returns the application's evaluation,
	// creating the pristine record on first access. created reports whether
	// this call created it.
	GetOrCreateForApplication(ctx context.Context, applicationID, evaluatorID string) (eval Evaluation, created bool, err error)
	GetByID(ctx context.Context, id string) (Evaluation, error)
	GetByApplication(ctx context.Context, applicationID string) (Evaluation, error)
	// Update replaces the stored evaluation identified by eval.ID.
	Update(ctx context.Context, eval Evaluation) error
	// EvaluatedApplicationIDs returns the IDs of applications that already
	// have an evaluation record.
	EvaluatedApplicationIDs(ctx context.Context) (map[string]struct{}, error)
}
