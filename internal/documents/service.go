package documents

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"tradeportal-backend/internal/applications"
	"tradeportal-backend/internal/shared/metrics"
	"tradeportal-backend/internal/shared/storage/object"
)

// DocumentTypeOther is the fallback when the uploader names no recognized
// document type.
const DocumentTypeOther = "other"

// File is one member of an upload batch, already opened by the handler.
type File struct {
	Name         string
	Size         int64
	ContentType  string
	DocumentType string
	Reader       io.Reader
}

// Service validates and attaches document batches. A batch is all or
// nothing: validation runs over every file before any byte is stored, and
// the registry append is a single atomic operation.
type Service struct {
	Store         object.ObjectStore
	Apps          applications.Repo
	MaxBatch      int
	MaxFileSize   int64
	AllowedMimes  map[string]struct{}
	DocumentTypes map[string]struct{}
}

// NewService constructs a Service from the configured limits and allow-lists.
func NewService(store object.ObjectStore, apps applications.Repo, maxBatch int, maxFileSize int64, allowedMimes, documentTypes []string) *Service {
	return &Service{
		Store:         store,
		Apps:          apps,
		MaxBatch:      maxBatch,
		MaxFileSize:   maxFileSize,
		AllowedMimes:  toSet(allowedMimes),
		DocumentTypes: toSet(documentTypes),
	}
}

// Upload validates the whole batch, stores each file and appends the batch
// to the application's registry with one timeline entry. uploadedBy is
// "client" for anonymous uploads, otherwise the staff user ID.
func (s *Service) Upload(ctx context.Context, applicationID string, files []File, uploadedBy string) (applications.Application, []applications.Document, error) {
	if err := s.validate(files); err != nil {
		return applications.Application{}, nil, err
	}

	now := time.Now().UTC()
	docs := make([]applications.Document, 0, len(files))
	for _, f := range files {
		storageKey, size, mimeType, err := s.Store.Save(ctx, applicationID, f.Name, f.Reader)
		if err != nil {
			return applications.Application{}, nil, fmt.Errorf("store %s: %w", f.Name, err)
		}
		docs = append(docs, applications.Document{
			ID:            uuid.NewString(),
			ApplicationID: applicationID,
			FileName:      f.Name,
			OriginalName:  f.Name,
			MimeType:      mimeType,
			SizeBytes:     size,
			DocumentType:  s.normalizeType(f.DocumentType),
			StorageKey:    storageKey,
			UploadedBy:    uploadedBy,
			UploadDate:    now,
		})
	}

	app, err := s.Apps.AppendDocuments(ctx, applicationID, docs, timelineActor(uploadedBy))
	if err != nil {
		return applications.Application{}, nil, err
	}

	metrics.AddDocumentsAttached(len(docs))
	return app, docs, nil
}

// validate applies the batch rules before anything is stored, so a bad file
// anywhere in the batch rejects the whole batch.
func (s *Service) validate(files []File) error {
	if len(files) == 0 {
		metrics.IncDocumentBatchRejected("empty")
		return fmt.Errorf("%w: at least one file is required", ErrInvalidInput)
	}
	if len(files) > s.MaxBatch {
		metrics.IncDocumentBatchRejected("too_many")
		return fmt.Errorf("%w: batch of %d exceeds limit of %d", ErrTooManyFiles, len(files), s.MaxBatch)
	}
	for _, f := range files {
		if f.Name == "" {
			metrics.IncDocumentBatchRejected("unnamed")
			return fmt.Errorf("%w: every file needs a name", ErrInvalidInput)
		}
		if f.Size <= 0 || f.Size > s.MaxFileSize {
			metrics.IncDocumentBatchRejected("too_large")
			return fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrFileTooLarge, f.Name, f.Size, s.MaxFileSize)
		}
		if _, ok := s.AllowedMimes[f.ContentType]; !ok {
			metrics.IncDocumentBatchRejected("bad_type")
			return fmt.Errorf("%w: %s (%s)", ErrInvalidFileType, f.Name, f.ContentType)
		}
	}
	return nil
}

func (s *Service) normalizeType(documentType string) string {
	if _, ok := s.DocumentTypes[documentType]; ok {
		return documentType
	}
	return DocumentTypeOther
}

// timelineActor maps the registry's uploadedBy marker to a timeline actor.
// Client uploads stay anonymous in the audit trail.
func timelineActor(uploadedBy string) string {
	if uploadedBy == "client" {
		return ""
	}
	return uploadedBy
}

func toSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}
