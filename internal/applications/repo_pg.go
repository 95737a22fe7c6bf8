package applications

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// PGRepo implements Repo using Postgres. State-changing methods run in a
// transaction that locks the application row, so the status write and its
// timeline insert commit as one unit and concurrent writers serialize
// instead of losing appends.
type PGRepo struct {
	DB *sql.DB
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const applicationColumns = `id, salesman_id, client_name, company_name, email, link_token, application_password_hash, status, application_data, created_at, updated_at`

// Create inserts a new application with its initial timeline entries.
func (r *PGRepo) Create(ctx context.Context, app Application) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	dataJSON, err := marshalData(app.Data)
	if err != nil {
		return err
	}

	const query = `
INSERT INTO applications (id, salesman_id, client_name, company_name, email, link_token, application_password_hash, status, application_data, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`
	if _, err := tx.ExecContext(ctx, query,
		app.ID,
		app.SalesmanID,
		app.ClientName,
		app.CompanyName,
		app.Email,
		app.LinkToken,
		app.PasswordHash,
		string(app.Status),
		dataJSON,
		app.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert application: %w", err)
	}

	for _, entry := range app.Timeline {
		if err := insertTimelineEntry(ctx, tx, app.ID, entry); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByID fetches an application with its documents and timeline.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Application, error) {
	return loadApplication(ctx, r.DB, `WHERE id = $1`, id)
}

// GetByLinkToken fetches an application by exact token match.
func (r *PGRepo) GetByLinkToken(ctx context.Context, token string) (Application, error) {
	return loadApplication(ctx, r.DB, `WHERE link_token = $1`, token)
}

// List returns applications matching the filter, newest first. Documents and
// timeline are loaded per row; listings are small and staff-only.
func (r *PGRepo) List(ctx context.Context, filter ListFilter) ([]Application, error) {
	var (
		conds []string
		args  []any
	)
	if filter.SalesmanID != "" {
		args = append(args, filter.SalesmanID)
		conds = append(conds, fmt.Sprintf("salesman_id = $%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			args = append(args, string(s))
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}
		conds = append(conds, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ", ")))
	}

	query := `SELECT ` + applicationColumns + ` FROM applications`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		docs, err := listDocuments(ctx, r.DB, out[i].ID)
		if err != nil {
			return nil, err
		}
		timeline, err := listTimeline(ctx, r.DB, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Documents = docs
		out[i].Timeline = timeline
	}
	return out, nil
}

// UpdateData replaces applicationData and advances the status per the edit
// rules, with the timeline insert in the same transaction.
func (r *PGRepo) UpdateData(ctx context.Context, id string, data *ApplicationData, performedBy string) (Application, error) {
	return r.mutate(ctx, id, func(tx *sql.Tx, cur Status) error {
		next, err := ApplyEdit(cur)
		if err != nil {
			return err
		}

		dataJSON, err := marshalData(data)
		if err != nil {
			return err
		}

		const query = `UPDATE applications SET application_data = $1, status = $2, updated_at = now() WHERE id = $3`
		if _, err := tx.ExecContext(ctx, query, dataJSON, string(next), id); err != nil {
			return fmt.Errorf("update application data: %w", err)
		}
		return insertTimelineEntry(ctx, tx, id, newEntry(ActionUpdated, performedBy, "Application data updated"))
	})
}

// Submit applies the client submit transition.
func (r *PGRepo) Submit(ctx context.Context, id string, performedBy string) (Application, error) {
	return r.mutate(ctx, id, func(tx *sql.Tx, cur Status) error {
		next, resubmitted, err := ApplySubmit(cur)
		if err != nil {
			return err
		}

		if !resubmitted {
			const query = `UPDATE applications SET status = $1, updated_at = now() WHERE id = $2`
			if _, err := tx.ExecContext(ctx, query, string(next), id); err != nil {
				return fmt.Errorf("update application status: %w", err)
			}
			return insertTimelineEntry(ctx, tx, id, newEntry(ActionSubmitted, performedBy, "Client submitted application"))
		}
		return insertTimelineEntry(ctx, tx, id, newEntry(ActionResubmitted, performedBy, "Application already submitted; re-submission recorded"))
	})
}

// Transition applies a staff transition after validating the edge.
func (r *PGRepo) Transition(ctx context.Context, id string, to Status, performedBy, notes string) (Application, error) {
	return r.mutate(ctx, id, func(tx *sql.Tx, cur Status) error {
		if err := ApplyTransition(cur, to); err != nil {
			return err
		}

		const query = `UPDATE applications SET status = $1, updated_at = now() WHERE id = $2`
		if _, err := tx.ExecContext(ctx, query, string(to), id); err != nil {
			return fmt.Errorf("update application status: %w", err)
		}
		return insertTimelineEntry(ctx, tx, id, newEntry(actionForStatus(to), performedBy, notes))
	})
}

// AppendDocuments attaches a batch plus one timeline entry atomically.
func (r *PGRepo) AppendDocuments(ctx context.Context, id string, docs []Document, performedBy string) (Application, error) {
	return r.mutate(ctx, id, func(tx *sql.Tx, cur Status) error {
		if cur.IsTerminal() {
			return fmt.Errorf("%w: application is %s", ErrTerminalState, cur)
		}

		const query = `
INSERT INTO application_documents (id, application_id, file_name, original_name, mime_type, size_bytes, document_type, storage_key, uploaded_by, upload_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
		for _, doc := range docs {
			if _, err := tx.ExecContext(ctx, query,
				doc.ID,
				id,
				doc.FileName,
				doc.OriginalName,
				doc.MimeType,
				doc.SizeBytes,
				doc.DocumentType,
				doc.StorageKey,
				doc.UploadedBy,
				doc.UploadDate,
			); err != nil {
				return fmt.Errorf("insert document: %w", err)
			}
		}
		return insertTimelineEntry(ctx, tx, id, newEntry(ActionDocumentsUploaded, performedBy, fmt.Sprintf("%d document(s) uploaded", len(docs))))
	})
}

// ListTimeline returns timeline entries in insertion order.
func (r *PGRepo) ListTimeline(ctx context.Context, id string) ([]TimelineEntry, error) {
	if err := ensureExists(ctx, r.DB, id); err != nil {
		return nil, err
	}
	return listTimeline(ctx, r.DB, id)
}

// ListDocuments returns documents in upload order.
func (r *PGRepo) ListDocuments(ctx context.Context, id string) ([]Document, error) {
	if err := ensureExists(ctx, r.DB, id); err != nil {
		return nil, err
	}
	return listDocuments(ctx, r.DB, id)
}

// GetDocument returns one document by ID.
func (r *PGRepo) GetDocument(ctx context.Context, id, documentID string) (Document, error) {
	const query = `
SELECT id, application_id, file_name, original_name, mime_type, size_bytes, document_type, storage_key, uploaded_by, upload_date
FROM application_documents
WHERE application_id = $1 AND id = $2`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, id, documentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// mutate runs fn inside a transaction holding the application's row lock and
// returns the post-commit state.
func (r *PGRepo) mutate(ctx context.Context, id string, fn func(tx *sql.Tx, cur Status) error) (Application, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Application{}, err
	}
	defer tx.Rollback()

	var rawStatus string
	err = tx.QueryRowContext(ctx, `SELECT status FROM applications WHERE id = $1 FOR UPDATE`, id).Scan(&rawStatus)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Application{}, ErrNotFound
		}
		return Application{}, err
	}

	if err := fn(tx, Status(rawStatus)); err != nil {
		return Application{}, err
	}

	app, err := loadApplication(ctx, tx, `WHERE id = $1`, id)
	if err != nil {
		return Application{}, err
	}
	if err := tx.Commit(); err != nil {
		return Application{}, err
	}
	return app, nil
}

func insertTimelineEntry(ctx context.Context, q querier, applicationID string, entry TimelineEntry) error {
	const query = `
INSERT INTO application_timeline (application_id, action, performed_by, occurred_at, notes)
VALUES ($1, $2, $3, $4, $5)`
	var performedBy sql.NullString
	if entry.PerformedBy != "" {
		performedBy = sql.NullString{String: entry.PerformedBy, Valid: true}
	}
	if _, err := q.ExecContext(ctx, query, applicationID, entry.Action, performedBy, entry.Timestamp, entry.Notes); err != nil {
		return fmt.Errorf("insert timeline entry: %w", err)
	}
	return nil
}

func loadApplication(ctx context.Context, q querier, where string, arg any) (Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications ` + where
	app, err := scanApplication(q.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Application{}, ErrNotFound
		}
		return Application{}, err
	}

	docs, err := listDocuments(ctx, q, app.ID)
	if err != nil {
		return Application{}, err
	}
	timeline, err := listTimeline(ctx, q, app.ID)
	if err != nil {
		return Application{}, err
	}
	app.Documents = docs
	app.Timeline = timeline
	return app, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (Application, error) {
	var (
		app      Application
		email    sql.NullString
		status   string
		dataJSON []byte
	)
	if err := row.Scan(
		&app.ID,
		&app.SalesmanID,
		&app.ClientName,
		&app.CompanyName,
		&email,
		&app.LinkToken,
		&app.PasswordHash,
		&status,
		&dataJSON,
		&app.CreatedAt,
		&app.UpdatedAt,
	); err != nil {
		return Application{}, err
	}
	if email.Valid {
		app.Email = email.String
	}
	app.Status = Status(status)
	if len(dataJSON) > 0 {
		var data ApplicationData
		if err := json.Unmarshal(dataJSON, &data); err != nil {
			return Application{}, fmt.Errorf("decode application data: %w", err)
		}
		app.Data = &data
	}
	return app, nil
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	if err := row.Scan(
		&doc.ID,
		&doc.ApplicationID,
		&doc.FileName,
		&doc.OriginalName,
		&doc.MimeType,
		&doc.SizeBytes,
		&doc.DocumentType,
		&doc.StorageKey,
		&doc.UploadedBy,
		&doc.UploadDate,
	); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func listDocuments(ctx context.Context, q querier, applicationID string) ([]Document, error) {
	const query = `
SELECT id, application_id, file_name, original_name, mime_type, size_bytes, document_type, storage_key, uploaded_by, upload_date
FROM application_documents
WHERE application_id = $1
ORDER BY upload_date, id`
	rows, err := q.QueryContext(ctx, query, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func listTimeline(ctx context.Context, q querier, applicationID string) ([]TimelineEntry, error) {
	const query = `
SELECT action, performed_by, occurred_at, notes
FROM application_timeline
WHERE application_id = $1
ORDER BY seq`
	rows, err := q.QueryContext(ctx, query, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TimelineEntry
	for rows.Next() {
		var (
			entry       TimelineEntry
			performedBy sql.NullString
		)
		if err := rows.Scan(&entry.Action, &performedBy, &entry.Timestamp, &entry.Notes); err != nil {
			return nil, err
		}
		if performedBy.Valid {
			entry.PerformedBy = performedBy.String
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func ensureExists(ctx context.Context, q querier, id string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM applications WHERE id = $1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func marshalData(data *ApplicationData) (any, error) {
	if data == nil {
		return nil, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode application data: %w", err)
	}
	return raw, nil
}

var _ Repo = (*PGRepo)(nil)
