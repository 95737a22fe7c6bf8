package applications

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func applicationRow(id string, status Status, now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "salesman_id", "client_name", "company_name", "email",
		"link_token", "application_password_hash", "status", "application_data",
		"created_at", "updated_at",
	}).AddRow(id, "sales-1", "Acme Trading", "Acme Trading LLC", "client@acme.example",
		"token-1", "hash", string(status), nil, now, now)
}

func emptyDocumentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "application_id", "file_name", "original_name", "mime_type",
		"size_bytes", "document_type", "storage_key", "uploaded_by", "upload_date",
	})
}

func emptyTimelineRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"action", "performed_by", "occurred_at", "notes"})
}

func TestPGRepoSubmitLocksAndCommits(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM applications").
		WithArgs("app-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("in-progress"))
	mock.ExpectExec("UPDATE applications SET status").
		WithArgs("submitted", "app-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO application_timeline").
		WithArgs("app-1", ActionSubmitted, sqlmock.AnyArg(), sqlmock.AnyArg(), "Client submitted application").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT id, salesman_id").
		WithArgs("app-1").
		WillReturnRows(applicationRow("app-1", StatusSubmitted, now))
	mock.ExpectQuery("SELECT id, application_id").
		WithArgs("app-1").
		WillReturnRows(emptyDocumentRows())
	mock.ExpectQuery("SELECT action, performed_by").
		WithArgs("app-1").
		WillReturnRows(emptyTimelineRows())
	mock.ExpectCommit()

	repo := &PGRepo{DB: db}
	app, err := repo.Submit(context.Background(), "app-1", "")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if app.Status != StatusSubmitted {
		t.Fatalf("expected submitted, got %s", app.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoSubmitTerminalRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM applications").
		WithArgs("app-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("approved"))
	mock.ExpectRollback()

	repo := &PGRepo{DB: db}
	_, err = repo.Submit(context.Background(), "app-1", "")
	if !errors.Is(err, ErrTerminalState) {
		t.Fatalf("expected ErrTerminalState, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("SELECT id, salesman_id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	repo := &PGRepo{DB: db}
	_, err = repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
