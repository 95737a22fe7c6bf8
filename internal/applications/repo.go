package applications

import "context"

// ListFilter narrows List results by caller role.
type ListFilter struct {
	SalesmanID string   // only applications created by this salesman
	Statuses   []Status // only applications in one of these statuses
}

// Repo defines persistence for applications. Every state-changing method is
// one atomic unit: the status/data write and its timeline entry commit
// together or not at all, and concurrent writers never lose appends.
type Repo interface {
	Create(ctx context.Context, app Application) error
	GetByID(ctx context.Context, id string) (Application, error)
	GetByLinkToken(ctx context.Context, token string) (Application, error)
	List(ctx context.Context, filter ListFilter) ([]Application, error)

	// UpdateData replaces applicationData and advances draft/pending to
	// in-progress per the transition rules.
	UpdateData(ctx context.Context, id string, data *ApplicationData, performedBy string) (Application, error)
	// Submit applies the client submit transition; re-submission is recorded
	// in the timeline without a status change.
	Submit(ctx context.Context, id string, performedBy string) (Application, error)
	// Transition applies a staff transition (under-review, approved,
	// rejected) after validating the edge.
	Transition(ctx context.Context, id string, to Status, performedBy, notes string) (Application, error)
	// AppendDocuments attaches a pre-validated batch plus one summarizing
	// timeline entry. Legal at any non-terminal status.
	AppendDocuments(ctx context.Context, id string, docs []Document, performedBy string) (Application, error)

	ListTimeline(ctx context.Context, id string) ([]TimelineEntry, error)
	ListDocuments(ctx context.Context, id string) ([]Document, error)
	GetDocument(ctx context.Context, id, documentID string) (Document, error)
}
