package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Category struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	OwnerID   uuid.UUID `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Document struct {
	ID           uuid.UUID  `json:"id"`
	PatientID    uuid.UUID  `json:"patient_id"`
	Title        string     `json:"title"`
	DocType      string     `json:"doc_type"`
	FileKey      string     `json:"-"`
	FileName     string     `json:"file_name"`
	MimeType     string     `json:"mime_type"`
	Size         int64      `json:"size"`
	CategoryID   *uuid.UUID `json:"category_id"`
	DocumentDate *time.Time `json:"document_date"`
	UploadedBy   uuid.UUID  `json:"uploaded_by"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type DocumentStore struct{ pool *pgxpool.Pool }

func NewDocumentStore(pool *pgxpool.Pool) *DocumentStore {
	return &DocumentStore{pool: pool}
}

const documentCols = `id, patient_id, title, doc_type, file_key, file_name,
	mime_type, size, category_id, document_date, uploaded_by, created_at, updated_at`

func scanDocument(row pgx.Row) (*Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.PatientID, &d.Title, &d.DocType, &d.FileKey, &d.FileName,
		&d.MimeType, &d.Size, &d.CategoryID, &d.DocumentDate, &d.UploadedBy, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

func (s *DocumentStore) Create(ctx context.Context, d *Document) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO documents (id, patient_id, title, doc_type, file_key, file_name, mime_type, size, category_id, document_date, uploaded_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		d.ID, d.PatientID, d.Title, d.DocType, d.FileKey, d.FileName, d.MimeType, d.Size,
		d.CategoryID, d.DocumentDate, d.UploadedBy)
	return err
}

func (s *DocumentStore) GetByID(ctx context.Context, id uuid.UUID) (*Document, error) {
	return scanDocument(s.pool.QueryRow(ctx,
		`SELECT `+documentCols+` FROM documents WHERE id = $1`, id))
}

// ListByPatient returns documents for the patient, optionally restricted to a
// category, newest first.
func (s *DocumentStore) ListByPatient(ctx context.Context, patientID uuid.UUID, categoryID *uuid.UUID, limit, offset int) ([]*Document, int, error) {
	where := `patient_id = $1`
	args := []any{patientID}
	idx := 2
	if categoryID != nil {
		where += fmt.Sprintf(` AND category_id = $%d`, idx)
		args = append(args, *categoryID)
		idx++
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM documents WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT `+documentCols+` FROM documents WHERE `+where+
		` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]*Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}

// likeEscaper neutralizes LIKE metacharacters so user input matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLikePattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}

// Search matches the title and file name case-insensitively. No matches is an
// empty slice, never an error.
func (s *DocumentStore) Search(ctx context.Context, patientID uuid.UUID, query string, limit, offset int) ([]*Document, int, error) {
	pattern := escapeLikePattern(query)

	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM documents WHERE patient_id = $1 AND (title ILIKE $2 OR file_name ILIKE $2)`,
		patientID, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+documentCols+` FROM documents
		 WHERE patient_id = $1 AND (title ILIKE $2 OR file_name ILIKE $2)
		 ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		patientID, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]*Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}

func (s *DocumentStore) Update(ctx context.Context, d *Document) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE documents SET title=$2, doc_type=$3, category_id=$4, document_date=$5, updated_at=NOW()
		WHERE id = $1`,
		d.ID, d.Title, d.DocType, d.CategoryID, d.DocumentDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the row. The caller deletes the object from storage.
func (s *DocumentStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Category operations.

func (s *DocumentStore) CreateCategory(ctx context.Context, c *Category) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO categories (id, name, owner_id) VALUES ($1,$2,$3)`,
		c.ID, c.Name, c.OwnerID)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (s *DocumentStore) GetCategory(ctx context.Context, id uuid.UUID) (*Category, error) {
	var c Category
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, owner_id, created_at FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.OwnerID, &c.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (s *DocumentStore) ListCategories(ctx context.Context, ownerID uuid.UUID) ([]*Category, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, owner_id, created_at FROM categories WHERE owner_id = $1 ORDER BY name ASC`,
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.OwnerID, &c.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &c)
	}
	return items, rows.Err()
}

func (s *DocumentStore) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
