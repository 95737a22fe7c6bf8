package applications

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo. A single mutex makes
// every state-changing call one atomic read-modify-write, mirroring the
// row-level locking of the Postgres implementation.
type MemoryRepo struct {
	mu      sync.RWMutex
	byID    map[string]*Application
	byToken map[string]string // linkToken -> application id
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:    make(map[string]*Application),
		byToken: make(map[string]string),
	}
}

// Create stores a new application with its initial timeline entry.
func (r *MemoryRepo) Create(ctx context.Context, app Application) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[app.ID]; exists {
		return fmt.Errorf("application %s already exists", app.ID)
	}
	if _, exists := r.byToken[app.LinkToken]; exists {
		return fmt.Errorf("link token collision")
	}
	stored := app
	stored.Documents = append([]Document(nil), app.Documents...)
	stored.Timeline = append([]TimelineEntry(nil), app.Timeline...)
	r.byID[app.ID] = &stored
	r.byToken[app.LinkToken] = app.ID
	return nil
}

// GetByID returns a copy of the application.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Application, error) {
	if err := ctx.Err(); err != nil {
		return Application{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	app, ok := r.byID[id]
	if !ok {
		return Application{}, ErrNotFound
	}
	return snapshot(app), nil
}

// GetByLinkToken returns the application owning the exact token.
func (r *MemoryRepo) GetByLinkToken(ctx context.Context, token string) (Application, error) {
	if err := ctx.Err(); err != nil {
		return Application{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byToken[token]
	if !ok {
		return Application{}, ErrNotFound
	}
	return snapshot(r.byID[id]), nil
}

// List returns applications matching the filter, newest first.
func (r *MemoryRepo) List(ctx context.Context, filter ListFilter) ([]Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Application
	for _, app := range r.byID {
		if filter.SalesmanID != "" && app.SalesmanID != filter.SalesmanID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, app.Status) {
			continue
		}
		out = append(out, snapshot(app))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// UpdateData replaces applicationData and advances the status per the edit
// rules, appending one timeline entry under the same lock.
func (r *MemoryRepo) UpdateData(ctx context.Context, id string, data *ApplicationData, performedBy string) (Application, error) {
	if err := ctx.Err(); err != nil {
		return Application{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.byID[id]
	if !ok {
		return Application{}, ErrNotFound
	}

	next, err := ApplyEdit(app.Status)
	if err != nil {
		return Application{}, err
	}

	app.Data = data
	app.Status = next
	appendEntry(app, newEntry(ActionUpdated, performedBy, "Application data updated"))
	return snapshot(app), nil
}

// Submit applies the client submit transition.
func (r *MemoryRepo) Submit(ctx context.Context, id string, performedBy string) (Application, error) {
	if err := ctx.Err(); err != nil {
		return Application{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.byID[id]
	if !ok {
		return Application{}, ErrNotFound
	}

	next, resubmitted, err := ApplySubmit(app.Status)
	if err != nil {
		return Application{}, err
	}

	app.Status = next
	if resubmitted {
		appendEntry(app, newEntry(ActionResubmitted, performedBy, "Application already submitted; re-submission recorded"))
	} else {
		appendEntry(app, newEntry(ActionSubmitted, performedBy, "Client submitted application"))
	}
	return snapshot(app), nil
}

// Transition applies a staff transition after validating the edge.
func (r *MemoryRepo) Transition(ctx context.Context, id string, to Status, performedBy, notes string) (Application, error) {
	if err := ctx.Err(); err != nil {
		return Application{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.byID[id]
	if !ok {
		return Application{}, ErrNotFound
	}

	if err := ApplyTransition(app.Status, to); err != nil {
		return Application{}, err
	}

	app.Status = to
	appendEntry(app, newEntry(actionForStatus(to), performedBy, notes))
	return snapshot(app), nil
}

// AppendDocuments attaches a batch plus one timeline entry atomically.
func (r *MemoryRepo) AppendDocuments(ctx context.Context, id string, docs []Document, performedBy string) (Application, error) {
	if err := ctx.Err(); err != nil {
		return Application{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.byID[id]
	if !ok {
		return Application{}, ErrNotFound
	}
	if app.Status.IsTerminal() {
		return Application{}, fmt.Errorf("%w: application is %s", ErrTerminalState, app.Status)
	}

	app.Documents = append(app.Documents, docs...)
	appendEntry(app, newEntry(ActionDocumentsUploaded, performedBy, fmt.Sprintf("%d document(s) uploaded", len(docs))))
	return snapshot(app), nil
}

// ListTimeline returns timeline entries in insertion order.
func (r *MemoryRepo) ListTimeline(ctx context.Context, id string) ([]TimelineEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	app, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]TimelineEntry(nil), app.Timeline...), nil
}

// ListDocuments returns documents in upload order.
func (r *MemoryRepo) ListDocuments(ctx context.Context, id string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	app, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]Document(nil), app.Documents...), nil
}

// GetDocument returns one document by ID.
func (r *MemoryRepo) GetDocument(ctx context.Context, id, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	app, ok := r.byID[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	for i := range app.Documents {
		if app.Documents[i].ID == documentID {
			return app.Documents[i], nil
		}
	}
	return Document{}, ErrNotFound
}

// appendEntry clamps the timestamp so it never precedes the last entry and
// keeps UpdatedAt in step with the newest entry.
func appendEntry(app *Application, entry TimelineEntry) {
	if n := len(app.Timeline); n > 0 && entry.Timestamp.Before(app.Timeline[n-1].Timestamp) {
		entry.Timestamp = app.Timeline[n-1].Timestamp
	}
	app.Timeline = append(app.Timeline, entry)
	app.UpdatedAt = entry.Timestamp
}

func snapshot(app *Application) Application {
	out := *app
	out.Documents = append([]Document(nil), app.Documents...)
	out.Timeline = append([]TimelineEntry(nil), app.Timeline...)
	return out
}

func containsStatus(statuses []Status, s Status) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

var _ Repo = (*MemoryRepo)(nil)
