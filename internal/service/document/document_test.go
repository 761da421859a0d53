package document

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/daruyar/daruyar_backend/internal/store"
)

type fakeDocumentStore struct {
	docs       map[uuid.UUID]*store.Document
	categories map[uuid.UUID]*store.Category
	failCreate bool
}

func newFakeDocumentStore() *fakeDocumentStore {
	return &fakeDocumentStore{
		docs:       make(map[uuid.UUID]*store.Document),
		categories: make(map[uuid.UUID]*store.Category),
	}
}

func (f *fakeDocumentStore) Create(_ context.Context, d *store.Document) error {
	if f.failCreate {
		return errors.New("insert failed")
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	cp := *d
	f.docs[d.ID] = &cp
	return nil
}

func (f *fakeDocumentStore) GetByID(_ context.Context, id uuid.UUID) (*store.Document, error) {
	d, ok := f.docs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDocumentStore) ListByPatient(_ context.Context, patientID uuid.UUID, categoryID *uuid.UUID, limit, offset int) ([]*store.Document, int, error) {
	items := make([]*store.Document, 0)
	for _, d := range f.docs {
		if d.PatientID != patientID {
			continue
		}
		if categoryID != nil && (d.CategoryID == nil || *d.CategoryID != *categoryID) {
			continue
		}
		cp := *d
		items = append(items, &cp)
	}
	return items, len(items), nil
}

func (f *fakeDocumentStore) Search(_ context.Context, patientID uuid.UUID, query string, limit, offset int) ([]*store.Document, int, error) {
	items := make([]*store.Document, 0)
	for _, d := range f.docs {
		if d.PatientID != patientID {
			continue
		}
		if strings.Contains(strings.ToLower(d.Title), strings.ToLower(query)) ||
			strings.Contains(strings.ToLower(d.FileName), strings.ToLower(query)) {
			cp := *d
			items = append(items, &cp)
		}
	}
	return items, len(items), nil
}

func (f *fakeDocumentStore) Update(_ context.Context, d *store.Document) error {
	if _, ok := f.docs[d.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *d
	f.docs[d.ID] = &cp
	return nil
}

func (f *fakeDocumentStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.docs[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.docs, id)
	return nil
}

func (f *fakeDocumentStore) CreateCategory(_ context.Context, c *store.Category) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	f.categories[c.ID] = &cp
	return nil
}

func (f *fakeDocumentStore) GetCategory(_ context.Context, id uuid.UUID) (*store.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeDocumentStore) ListCategories(_ context.Context, ownerID uuid.UUID) ([]*store.Category, error) {
	items := make([]*store.Category, 0)
	for _, c := range f.categories {
		if c.OwnerID == ownerID {
			cp := *c
			items = append(items, &cp)
		}
	}
	return items, nil
}

func (f *fakeDocumentStore) DeleteCategory(_ context.Context, id uuid.UUID) error {
	if _, ok := f.categories[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.categories, id)
	return nil
}

type fakeStorage struct {
	objects map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (f *fakeStorage) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.objects[key] = b
	return nil
}

func (f *fakeStorage) PresignDownload(_ context.Context, key string) (string, error) {
	if _, ok := f.objects[key]; !ok {
		return "", errors.New("no such key")
	}
	return "https://storage.example.com/" + key + "?signed", nil
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

type allowAll struct{}

func (allowAll) CanAccess(_ context.Context, _, patientID uuid.UUID) (*store.Patient, error) {
	return &store.Patient{ID: patientID, IsActive: true}, nil
}

func (allowAll) CanModify(_ context.Context, _, patientID uuid.UUID) (*store.Patient, error) {
	return &store.Patient{ID: patientID, IsActive: true}, nil
}

func (allowAll) CanManage(_ context.Context, _, patientID uuid.UUID) (*store.Patient, error) {
	return &store.Patient{ID: patientID, IsActive: true}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUploadAndDownload(t *testing.T) {
	ds := newFakeDocumentStore()
	st := newFakeStorage()
	svc := New(ds, st, allowAll{}, discardLogger())
	userID, patientID := uuid.New(), uuid.New()

	d, err := svc.Upload(context.Background(), userID, patientID, UploadRequest{
		Title:    "آزمایش خون",
		FileName: "cbc.pdf",
		MimeType: "application/pdf",
		Size:     1024,
		Body:     strings.NewReader("pdf-bytes"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if _, ok := st.objects[d.FileKey]; !ok {
		t.Fatal("object missing from storage after upload")
	}

	url, err := svc.DownloadURL(context.Background(), userID, d.ID)
	if err != nil {
		t.Fatalf("download url: %v", err)
	}
	if !strings.Contains(url, d.FileKey) {
		t.Errorf("url %q does not reference the stored key", url)
	}
}

func TestUploadCleansUpOnInsertFailure(t *testing.T) {
	ds := newFakeDocumentStore()
	ds.failCreate = true
	st := newFakeStorage()
	svc := New(ds, st, allowAll{}, discardLogger())

	_, err := svc.Upload(context.Background(), uuid.New(), uuid.New(), UploadRequest{
		Title:    "x",
		FileName: "x.jpg",
		Size:     10,
		Body:     strings.NewReader("data"),
	})
	if err == nil {
		t.Fatal("upload should fail when the row insert fails")
	}
	if len(st.objects) != 0 {
		t.Errorf("orphaned object left in storage: %v", st.objects)
	}
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	svc := New(newFakeDocumentStore(), newFakeStorage(), allowAll{}, discardLogger())

	_, err := svc.Upload(context.Background(), uuid.New(), uuid.New(), UploadRequest{
		Title:    "big",
		FileName: "big.bin",
		Size:     MaxFileSize + 1,
		Body:     strings.NewReader(""),
	})
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("err = %v, want ErrFileTooLarge", err)
	}
}

func TestSearchNoMatchesReturnsEmptySlice(t *testing.T) {
	ds := newFakeDocumentStore()
	st := newFakeStorage()
	svc := New(ds, st, allowAll{}, discardLogger())
	userID, patientID := uuid.New(), uuid.New()

	if _, err := svc.Upload(context.Background(), userID, patientID, UploadRequest{
		Title: "سونوگرافی", FileName: "us.png", Size: 5, Body: strings.NewReader("img"),
	}); err != nil {
		t.Fatalf("upload: %v", err)
	}

	res, err := svc.List(context.Background(), userID, patientID, ListDocumentsRequest{Query: "nothing-matches-this"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.Data == nil {
		t.Fatal("search result must be an empty slice, not nil")
	}
	if len(res.Data) != 0 {
		t.Errorf("expected no matches, got %d", len(res.Data))
	}
}

func TestDeleteRemovesRowAndObject(t *testing.T) {
	ds := newFakeDocumentStore()
	st := newFakeStorage()
	svc := New(ds, st, allowAll{}, discardLogger())
	userID, patientID := uuid.New(), uuid.New()

	d, err := svc.Upload(context.Background(), userID, patientID, UploadRequest{
		Title: "نسخه", FileName: "rx.pdf", Size: 9, Body: strings.NewReader("rx"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if err := svc.Delete(context.Background(), userID, d.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), userID, d.ID); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("err = %v, want ErrDocumentNotFound", err)
	}
	if len(st.objects) != 0 {
		t.Error("object should be removed with the row")
	}
}

func TestCategoryLifecycle(t *testing.T) {
	svc := New(newFakeDocumentStore(), newFakeStorage(), allowAll{}, discardLogger())
	userID := uuid.New()

	c, err := svc.CreateCategory(context.Background(), userID, "آزمایش‌ها")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	cats, err := svc.ListCategories(context.Background(), userID)
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(cats) != 1 || cats[0].Name != "آزمایش‌ها" {
		t.Fatalf("unexpected categories: %+v", cats)
	}

	// Another user cannot delete it.
	if err := svc.DeleteCategory(context.Background(), uuid.New(), c.ID); !errors.Is(err, ErrCategoryNotFound) {
		t.Errorf("foreign delete err = %v, want ErrCategoryNotFound", err)
	}
	if err := svc.DeleteCategory(context.Background(), userID, c.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}
}
