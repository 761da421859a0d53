package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/daruyar/daruyar_backend/internal/service/patient"
	"github.com/daruyar/daruyar_backend/internal/store"
	"github.com/daruyar/daruyar_backend/pkg/s3"
)

// MaxFileSize caps document uploads at 20 MiB.
const MaxFileSize = 20 << 20

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type UploadRequest struct {
	Title        string
	DocType      string
	FileName     string
	MimeType     string
	Size         int64
	CategoryID   *uuid.UUID
	DocumentDate *time.Time
	Body         io.Reader
}

type UpdateDocumentRequest struct {
	Title        *string
	DocType      *string
	CategoryID   *uuid.UUID
	DocumentDate *time.Time
}

type ListDocumentsRequest struct {
	CategoryID *uuid.UUID
	Query      string
	Page       int
	PerPage    int
}

// ---------------------------------------------------------------------------
// Dependencies
// ---------------------------------------------------------------------------

type DocumentStore interface {
	Create(ctx context.Context, d *store.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*store.Document, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, categoryID *uuid.UUID, limit, offset int) ([]*store.Document, int, error)
	Search(ctx context.Context, patientID uuid.UUID, query string, limit, offset int) ([]*store.Document, int, error)
	Update(ctx context.Context, d *store.Document) error
	Delete(ctx context.Context, id uuid.UUID) error

	CreateCategory(ctx context.Context, c *store.Category) error
	GetCategory(ctx context.Context, id uuid.UUID) (*store.Category, error)
	ListCategories(ctx context.Context, ownerID uuid.UUID) ([]*store.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

// ObjectStorage is the S3 surface the service needs.
type ObjectStorage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	PresignDownload(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Upload(ctx context.Context, userID, patientID uuid.UUID, req UploadRequest) (*store.Document, error)
	GetByID(ctx context.Context, userID, documentID uuid.UUID) (*store.Document, error)
	List(ctx context.Context, userID, patientID uuid.UUID, req ListDocumentsRequest) (*patient.PaginatedResult[*store.Document], error)
	Update(ctx context.Context, userID, documentID uuid.UUID, req UpdateDocumentRequest) (*store.Document, error)
	DownloadURL(ctx context.Context, userID, documentID uuid.UUID) (string, error)
	Delete(ctx context.Context, userID, documentID uuid.UUID) error

	CreateCategory(ctx context.Context, userID uuid.UUID, name string) (*store.Category, error)
	ListCategories(ctx context.Context, userID uuid.UUID) ([]*store.Category, error)
	DeleteCategory(ctx context.Context, userID, categoryID uuid.UUID) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type documentService struct {
	documents DocumentStore
	storage   ObjectStorage
	access    patient.Access
	logger    *slog.Logger
}

func New(documents DocumentStore, storage ObjectStorage, access patient.Access, logger *slog.Logger) Service {
	return &documentService{documents: documents, storage: storage, access: access, logger: logger}
}

// Upload stores the object first and only then inserts the row. If the insert
// fails the object is removed again so no orphan is left behind.
func (s *documentService) Upload(ctx context.Context, userID, patientID uuid.UUID, req UploadRequest) (*store.Document, error) {
	if _, err := s.access.CanModify(ctx, userID, patientID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Title) == "" || req.FileName == "" || req.Body == nil {
		return nil, ErrInvalidInput
	}
	if req.Size > MaxFileSize {
		return nil, ErrFileTooLarge
	}
	if req.CategoryID != nil {
		if _, err := s.documents.GetCategory(ctx, *req.CategoryID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, fmt.Errorf("get category: %w", err)
		}
	}

	key := s3.DocumentKey(patientID, req.FileName)
	if err := s.storage.Upload(ctx, key, req.MimeType, req.Body, req.Size); err != nil {
		s.logger.Error("document upload failed", "key", key, "error", err)
		return nil, ErrUploadFailed
	}

	d := &store.Document{
		PatientID:    patientID,
		Title:        strings.TrimSpace(req.Title),
		DocType:      req.DocType,
		FileKey:      key,
		FileName:     req.FileName,
		MimeType:     req.MimeType,
		Size:         req.Size,
		CategoryID:   req.CategoryID,
		DocumentDate: req.DocumentDate,
		UploadedBy:   userID,
	}
	if err := s.documents.Create(ctx, d); err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.logger.Error("orphan cleanup failed after insert error", "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("create document: %w", err)
	}
	return d, nil
}

type accessCheck func(ctx context.Context, userID, patientID uuid.UUID) (*store.Patient, error)

func (s *documentService) getOwned(ctx context.Context, userID, documentID uuid.UUID, check accessCheck) (*store.Document, error) {
	d, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	if _, err := check(ctx, userID, d.PatientID); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *documentService) GetByID(ctx context.Context, userID, documentID uuid.UUID) (*store.Document, error) {
	return s.getOwned(ctx, userID, documentID, s.access.CanAccess)
}

// List returns the patient's documents; a non-empty Query switches to search.
// Either way an empty result is an empty slice.
func (s *documentService) List(ctx context.Context, userID, patientID uuid.UUID, req ListDocumentsRequest) (*patient.PaginatedResult[*store.Document], error) {
	if _, err := s.access.CanAccess(ctx, userID, patientID); err != nil {
		return nil, err
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 || req.PerPage > 100 {
		req.PerPage = 20
	}
	offset := (req.Page - 1) * req.PerPage

	var (
		items []*store.Document
		total int
		err   error
	)
	if q := strings.TrimSpace(req.Query); q != "" {
		items, total, err = s.documents.Search(ctx, patientID, q, req.PerPage, offset)
	} else {
		items, total, err = s.documents.ListByPatient(ctx, patientID, req.CategoryID, req.PerPage, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	return &patient.PaginatedResult[*store.Document]{
		Data:       items,
		Total:      total,
		Page:       req.Page,
		PerPage:    req.PerPage,
		TotalPages: (total + req.PerPage - 1) / req.PerPage,
	}, nil
}

func (s *documentService) Update(ctx context.Context, userID, documentID uuid.UUID, req UpdateDocumentRequest) (*store.Document, error) {
	d, err := s.getOwned(ctx, userID, documentID, s.access.CanModify)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, ErrInvalidInput
		}
		d.Title = title
	}
	if req.DocType != nil {
		d.DocType = *req.DocType
	}
	if req.CategoryID != nil {
		if _, err := s.documents.GetCategory(ctx, *req.CategoryID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, fmt.Errorf("get category: %w", err)
		}
		d.CategoryID = req.CategoryID
	}
	if req.DocumentDate != nil {
		d.DocumentDate = req.DocumentDate
	}

	if err := s.documents.Update(ctx, d); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("update document: %w", err)
	}
	return d, nil
}

func (s *documentService) DownloadURL(ctx context.Context, userID, documentID uuid.UUID) (string, error) {
	d, err := s.getOwned(ctx, userID, documentID, s.access.CanAccess)
	if err != nil {
		return "", err
	}
	url, err := s.storage.PresignDownload(ctx, d.FileKey)
	if err != nil {
		return "", fmt.Errorf("presign download: %w", err)
	}
	return url, nil
}

// Delete removes the row and then the object. A failed object delete is
// logged but not surfaced: the row is already gone.
func (s *documentService) Delete(ctx context.Context, userID, documentID uuid.UUID) error {
	d, err := s.getOwned(ctx, userID, documentID, s.access.CanModify)
	if err != nil {
		return err
	}
	if err := s.documents.Delete(ctx, documentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrDocumentNotFound
		}
		return fmt.Errorf("delete document: %w", err)
	}
	if err := s.storage.Delete(ctx, d.FileKey); err != nil {
		s.logger.Error("object delete failed", "key", d.FileKey, "error", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Categories
// ---------------------------------------------------------------------------

func (s *documentService) CreateCategory(ctx context.Context, userID uuid.UUID, name string) (*store.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidInput
	}
	c := &store.Category{Name: name, OwnerID: userID}
	if err := s.documents.CreateCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (s *documentService) ListCategories(ctx context.Context, userID uuid.UUID) ([]*store.Category, error) {
	items, err := s.documents.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return items, nil
}

func (s *documentService) DeleteCategory(ctx context.Context, userID, categoryID uuid.UUID) error {
	c, err := s.documents.GetCategory(ctx, categoryID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("get category: %w", err)
	}
	if c.OwnerID != userID {
		return ErrCategoryNotFound
	}
	if err := s.documents.DeleteCategory(ctx, categoryID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
