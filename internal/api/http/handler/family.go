package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/daruyar/daruyar_backend/internal/service/family"
)

type FamilyHandler struct {
	svc family.Service
}

func NewFamilyHandler(svc family.Service) *FamilyHandler {
	return &FamilyHandler{svc: svc}
}

func mapFamilyError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, family.ErrFamilyNotFound),
		errors.Is(err, family.ErrMemberNotFound),
		errors.Is(err, family.ErrUserNotFound):
		return notFound(c, faMessage(err))
	case errors.Is(err, family.ErrAlreadyMember):
		return conflict(c, faMessage(err))
	case errors.Is(err, family.ErrInvalidRole),
		errors.Is(err, family.ErrInvalidInput),
		errors.Is(err, family.ErrLastOwner):
		return badRequest(c, faMessage(err))
	case errors.Is(err, family.ErrNotMember), errors.Is(err, family.ErrPermissionDenied):
		return forbidden(c)
	default:
		return internalError(c)
	}
}

// POST /api/v1/families
func (h *FamilyHandler) Create(c fiber.Ctx) error {
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

	f, err := h.svc.Create(c.Context(), userID, family.CreateFamilyRequest{Name: body.Name})
	if err != nil {
		return mapFamilyError(c, err)
	}
	return created(c, f)
}

// GET /api/v1/families
func (h *FamilyHandler) ListMine(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}

	families, err := h.svc.ListMine(c.Context(), userID)
	if err != nil {
		return mapFamilyError(c, err)
	}
	return ok(c, families)
}

// GET /api/v1/families/:id
func (h *FamilyHandler) Get(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	familyID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه خانواده نامعتبر است")
	}

	f, err := h.svc.GetByID(c.Context(), userID, familyID)
	if err != nil {
		return mapFamilyError(c, err)
	}
	return ok(c, f)
}

// PATCH /api/v1/families/:id
func (h *FamilyHandler) Rename(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	familyID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه خانواده نامعتبر است")
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "بدنه درخواست نامعتبر است")
	}

	f, err := h.svc.Rename(c.Context(), userID, familyID, body.Name)
	if err != nil {
		return mapFamilyError(c, err)
	}
	return ok(c, f)
}

// ---------------------------------------------------------------------------
// Members
// ---------------------------------------------------------------------------

// GET /api/v1/families/:id/members
func (h *FamilyHandler) ListMembers(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	familyID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه خانواده نامعتبر است")
	}

	members, err := h.svc.ListMembers(c.Context(), userID, familyID)
	if err != nil {
		return mapFamilyError(c, err)
	}
	return ok(c, members)
}

// POST /api/v1/families/:id/members
func (h *FamilyHandler) AddMember(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	familyID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه خانواده نامعتبر است")
	}

	var body struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "بدنه درخواست نامعتبر است")
	}

	m, err := h.svc.AddMember(c.Context(), userID, familyID, family.AddMemberRequest{
		Email: body.Email,
		Role:  body.Role,
	})
	if err != nil {
		return mapFamilyError(c, err)
	}
	return created(c, m)
}

// PUT /api/v1/families/:id/members/:uid/role
func (h *FamilyHandler) ChangeRole(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	familyID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه خانواده نامعتبر است")
	}
	memberUserID, valid := idParam(c, "uid")
	if !valid {
		return badRequest(c, "شناسه عضو نامعتبر است")
	}

	var body struct {
		Role string `json:"role"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "بدنه درخواست نامعتبر است")
	}

	if err := h.svc.ChangeRole(c.Context(), userID, familyID, memberUserID, body.Role); err != nil {
		return mapFamilyError(c, err)
	}
	return noContent(c)
}

// DELETE /api/v1/families/:id/members/:uid
func (h *FamilyHandler) RemoveMember(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	familyID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه خانواده نامعتبر است")
	}
	memberUserID, valid := idParam(c, "uid")
	if !valid {
		return badRequest(c, "شناسه عضو نامعتبر است")
	}

	if err := h.svc.RemoveMember(c.Context(), userID, familyID, memberUserID); err != nil {
		return mapFamilyError(c, err)
	}
	return noContent(c)
}

// POST /api/v1/families/:id/leave
func (h *FamilyHandler) Leave(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	familyID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه خانواده نامعتبر است")
	}

	if err := h.svc.Leave(c.Context(), userID, familyID); err != nil {
		return mapFamilyError(c, err)
	}
	return noContent(c)
}
