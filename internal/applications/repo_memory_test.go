package applications

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func seedApplication(t *testing.T, repo *MemoryRepo, id string, status Status) {
	t.Helper()
	now := time.Now().UTC()
	app := Application{
		ID:          id,
		SalesmanID:  "sales-1",
		ClientName:  "Acme Trading",
		CompanyName: "Acme Trading LLC",
		LinkToken:   "token-" + id,
		Status:      status,
		Timeline:    []TimelineEntry{newEntry(ActionCreated, "sales-1", "Application created by salesman")},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repo.Create(context.Background(), app); err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func TestMemoryRepoUpdateDataAdvancesStatus(t *testing.T) {
	repo := NewMemoryRepo()
	seedApplication(t, repo, "app-1", StatusPending)

	data := &ApplicationData{SchemaVersion: 1}
	app, err := repo.UpdateData(context.Background(), "app-1", data, "")
	if err != nil {
		t.Fatalf("UpdateData: %v", err)
	}
	if app.Status != StatusInProgress {
		t.Fatalf("expected in-progress, got %s", app.Status)
	}
	if len(app.Timeline) != 2 {
		t.Fatalf("expected 2 timeline entries, got %d", len(app.Timeline))
	}
	if app.Timeline[1].Action != ActionUpdated {
		t.Fatalf("expected %q, got %q", ActionUpdated, app.Timeline[1].Action)
	}
	if app.Timeline[1].PerformedBy != "" {
		t.Fatalf("anonymous edit must not record an actor, got %q", app.Timeline[1].PerformedBy)
	}

	// A second edit keeps the status where it is.
	app, err = repo.UpdateData(context.Background(), "app-1", data, "")
	if err != nil {
		t.Fatalf("UpdateData second: %v", err)
	}
	if app.Status != StatusInProgress {
		t.Fatalf("expected in-progress after second edit, got %s", app.Status)
	}
}

func TestMemoryRepoSubmitAndResubmit(t *testing.T) {
	repo := NewMemoryRepo()
	seedApplication(t, repo, "app-1", StatusInProgress)

	app, err := repo.Submit(context.Background(), "app-1", "")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if app.Status != StatusSubmitted {
		t.Fatalf("expected submitted, got %s", app.Status)
	}

	// Submitting again keeps the status but records the attempt.
	app, err = repo.Submit(context.Background(), "app-1", "")
	if err != nil {
		t.Fatalf("re-Submit: %v", err)
	}
	if app.Status != StatusSubmitted {
		t.Fatalf("expected submitted after re-submit, got %s", app.Status)
	}
	last := app.Timeline[len(app.Timeline)-1]
	if last.Action != ActionResubmitted {
		t.Fatalf("expected %q, got %q", ActionResubmitted, last.Action)
	}
}

func TestMemoryRepoConcurrentAppendsLoseNothing(t *testing.T) {
	repo := NewMemoryRepo()
	seedApplication(t, repo, "app-1", StatusInProgress)

	makeBatch := func(prefix string, n int) []Document {
		docs := make([]Document, n)
		for i := range docs {
			docs[i] = Document{
				ID:            fmt.Sprintf("%s-%d", prefix, i),
				ApplicationID: "app-1",
				FileName:      fmt.Sprintf("%s-%d.pdf", prefix, i),
				MimeType:      "application/pdf",
				SizeBytes:     100,
				UploadedBy:    "client",
				UploadDate:    time.Now().UTC(),
			}
		}
		return docs
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if _, err := repo.AppendDocuments(context.Background(), "app-1", makeBatch("a", 2), ""); err != nil {
			t.Errorf("append a: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		if _, err := repo.AppendDocuments(context.Background(), "app-1", makeBatch("b", 3), ""); err != nil {
			t.Errorf("append b: %v", err)
		}
	}()
	wg.Wait()

	docs, err := repo.ListDocuments(context.Background(), "app-1")
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 5 {
		t.Fatalf("expected 5 documents, got %d", len(docs))
	}

	timeline, err := repo.ListTimeline(context.Background(), "app-1")
	if err != nil {
		t.Fatalf("ListTimeline: %v", err)
	}
	// One created entry plus one per batch.
	if len(timeline) != 3 {
		t.Fatalf("expected 3 timeline entries, got %d", len(timeline))
	}
	for i := 1; i < len(timeline); i++ {
		if timeline[i].Timestamp.Before(timeline[i-1].Timestamp) {
			t.Fatalf("timeline timestamps went backward at %d", i)
		}
	}
}

func TestMemoryRepoTerminalStateIsImmutable(t *testing.T) {
	repo := NewMemoryRepo()
	seedApplication(t, repo, "app-1", StatusApproved)

	if _, err := repo.UpdateData(context.Background(), "app-1", &ApplicationData{}, ""); err == nil {
		t.Fatal("expected error updating approved application")
	}
	if _, err := repo.Submit(context.Background(), "app-1", ""); err == nil {
		t.Fatal("expected error submitting approved application")
	}
	if _, err := repo.AppendDocuments(context.Background(), "app-1", []Document{{ID: "d1"}}, ""); err == nil {
		t.Fatal("expected error attaching to approved application")
	}

	timeline, err := repo.ListTimeline(context.Background(), "app-1")
	if err != nil {
		t.Fatalf("ListTimeline: %v", err)
	}
	if len(timeline) != 1 {
		t.Fatalf("rejected mutations must not leave timeline entries, got %d", len(timeline))
	}
}

func TestMemoryRepoListFilters(t *testing.T) {
	repo := NewMemoryRepo()
	seedApplication(t, repo, "app-1", StatusPending)
	seedApplication(t, repo, "app-2", StatusSubmitted)

	other := Application{
		ID:          "app-3",
		SalesmanID:  "sales-2",
		ClientName:  "Beta Industries",
		CompanyName: "Beta Industries Ltd",
		LinkToken:   "token-app-3",
		Status:      StatusSubmitted,
		CreatedAt:   time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), other); err != nil {
		t.Fatalf("seed app-3: %v", err)
	}

	bySalesman, err := repo.List(context.Background(), ListFilter{SalesmanID: "sales-1"})
	if err != nil {
		t.Fatalf("List by salesman: %v", err)
	}
	if len(bySalesman) != 2 {
		t.Fatalf("expected 2 applications for sales-1, got %d", len(bySalesman))
	}

	submitted, err := repo.List(context.Background(), ListFilter{Statuses: []Status{StatusSubmitted}})
	if err != nil {
		t.Fatalf("List by status: %v", err)
	}
	if len(submitted) != 2 {
		t.Fatalf("expected 2 submitted applications, got %d", len(submitted))
	}
}
