package evaluations

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo is the in-memory Repo used when no database is configured.
// One mutex covers both indexes so get-or-create is atomic.
type MemoryRepo struct {
	mu    sync.RWMutex
	byID  map[string]*Evaluation
	byApp map[string]string // applicationID -> evaluationID
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:  make(map[string]*Evaluation),
		byApp: make(map[string]string),
	}
}

func (r *MemoryRepo) GetOrCreateForApplication(_ context.Context, applicationID, evaluatorID string) (Evaluation, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byApp[applicationID]; ok {
		return *r.byID[id], false, nil
	}

	eval := newEvaluation(uuid.NewString(), applicationID, evaluatorID, time.Now().UTC())
	r.byID[eval.ID] = &eval
	r.byApp[applicationID] = eval.ID
	return eval, true, nil
}

func (r *MemoryRepo) GetByID(_ context.Context, id string) (Evaluation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	eval, ok := r.byID[id]
	if !ok {
		return Evaluation{}, ErrNotFound
	}
	return *eval, nil
}

func (r *MemoryRepo) GetByApplication(_ context.Context, applicationID string) (Evaluation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byApp[applicationID]
	if !ok {
		return Evaluation{}, ErrNotFound
	}
	return *r.byID[id], nil
}

func (r *MemoryRepo) Update(_ context.Context, eval Evaluation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[eval.ID]
	if !ok {
		return ErrNotFound
	}
	eval.ApplicationID = stored.ApplicationID
	eval.CreatedAt = stored.CreatedAt
	*stored = eval
	return nil
}

func (r *MemoryRepo) EvaluatedApplicationIDs(_ context.Context) (map[string]struct{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]struct{}, len(r.byApp))
	for appID := range r.byApp {
		out[appID] = struct{}{}
	}
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
