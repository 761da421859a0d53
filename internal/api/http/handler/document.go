package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/daruyar/daruyar_backend/internal/service/document"
	"github.com/daruyar/daruyar_backend/internal/service/patient"
)

type DocumentHandler struct {
	svc document.Service
}

func NewDocumentHandler(svc document.Service) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

func mapDocumentError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, document.ErrDocumentNotFound), errors.Is(err, document.ErrCategoryNotFound):
		return notFound(c, faMessage(err))
	case errors.Is(err, document.ErrInvalidInput):
		return badRequest(c, faMessage(err))
	case errors.Is(err, document.ErrFileTooLarge):
		return payloadTooLarge(c, faMessage(err))
	case errors.Is(err, patient.ErrPatientNotFound):
		return notFound(c, faMessage(err))
	case errors.Is(err, patient.ErrAccessDenied):
		return forbidden(c)
	default:
		return internalError(c)
	}
}

// POST /api/v1/patients/:id/documents  (multipart form, field "file")
func (h *DocumentHandler) Upload(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	patientID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه بیمار نامعتبر است")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "فایل الزامی است")
	}
	f, err := fileHeader.Open()
	if err != nil {
		return badRequest(c, "خواندن فایل بارگذاری‌شده ممکن نیست")
	}
	defer f.Close()

	req := document.UploadRequest{
		Title:    c.FormValue("title"),
		DocType:  c.FormValue("doc_type"),
		FileName: fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Size:     fileHeader.Size,
		Body:     f,
	}
	if v := c.FormValue("category_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return badRequest(c, "شناسه دسته‌بندی نامعتبر است")
		}
		req.CategoryID = &id
	}
	if v := c.FormValue("document_date"); v != "" {
		d, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return badRequest(c, "قالب تاریخ سند نامعتبر است")
		}
		req.DocumentDate = &d
	}

	doc, err := h.svc.Upload(c.Context(), userID, patientID, req)
	if err != nil {
		return mapDocumentError(c, err)
	}
	return created(c, doc)
}

// GET /api/v1/patients/:id/documents
func (h *DocumentHandler) List(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	patientID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه بیمار نامعتبر است")
	}

	var q struct {
		CategoryID string `query:"category_id"`
		Query      string `query:"q"`
		Page       int    `query:"page"`
		PerPage    int    `query:"per_page"`
	}
	_ = c.Bind().Query(&q)

	req := document.ListDocumentsRequest{
		Query:   q.Query,
		Page:    q.Page,
		PerPage: q.PerPage,
	}
	if q.CategoryID != "" {
		id, err := uuid.Parse(q.CategoryID)
		if err != nil {
			return badRequest(c, "شناسه دسته‌بندی نامعتبر است")
		}
		req.CategoryID = &id
	}

	result, err := h.svc.List(c.Context(), userID, patientID, req)
	if err != nil {
		return mapDocumentError(c, err)
	}
	return paginated(c, "documents", result.Data, result.Total, result.Page, result.PerPage, result.TotalPages)
}

// GET /api/v1/documents/:id
func (h *DocumentHandler) Get(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	documentID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه سند نامعتبر است")
	}

	doc, err := h.svc.GetByID(c.Context(), userID, documentID)
	if err != nil {
		return mapDocumentError(c, err)
	}
	return ok(c, doc)
}

// PATCH /api/v1/documents/:id
func (h *DocumentHandler) Update(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	documentID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه سند نامعتبر است")
	}

	var body struct {
		Title        *string    `json:"title"`
		DocType      *string    `json:"doc_type"`
		CategoryID   *uuid.UUID `json:"category_id"`
		DocumentDate *time.Time `json:"document_date"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "بدنه درخواست نامعتبر است")
	}

	doc, err := h.svc.Update(c.Context(), userID, documentID, document.UpdateDocumentRequest{
		Title:        body.Title,
		DocType:      body.DocType,
		CategoryID:   body.CategoryID,
		DocumentDate: body.DocumentDate,
	})
	if err != nil {
		return mapDocumentError(c, err)
	}
	return ok(c, doc)
}

// GET /api/v1/documents/:id/download
func (h *DocumentHandler) Download(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	documentID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه سند نامعتبر است")
	}

	url, err := h.svc.DownloadURL(c.Context(), userID, documentID)
	if err != nil {
		return mapDocumentError(c, err)
	}
	return ok(c, fiber.Map{"url": url})
}

// DELETE /api/v1/documents/:id
func (h *DocumentHandler) Delete(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	documentID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه سند نامعتبر است")
	}

	if err := h.svc.Delete(c.Context(), userID, documentID); err != nil {
		return mapDocumentError(c, err)
	}
	return noContent(c)
}

// ---------------------------------------------------------------------------
// Categories
// ---------------------------------------------------------------------------

// POST /api/v1/categories
func (h *DocumentHandler) CreateCategory(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "بدنه درخواست نامعتبر است")
	}

	cat, err := h.svc.CreateCategory(c.Context(), userID, body.Name)
	if err != nil {
		return mapDocumentError(c, err)
	}
	return created(c, cat)
}

// GET /api/v1/categories
func (h *DocumentHandler) ListCategories(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}

	cats, err := h.svc.ListCategories(c.Context(), userID)
	if err != nil {
		return mapDocumentError(c, err)
	}
	return ok(c, cats)
}

// DELETE /api/v1/categories/:id
func (h *DocumentHandler) DeleteCategory(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	categoryID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه دسته‌بندی نامعتبر است")
	}

	if err := h.svc.DeleteCategory(c.Context(), userID, categoryID); err != nil {
		return mapDocumentError(c, err)
	}
	return noContent(c)
}
