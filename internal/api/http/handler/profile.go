package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/daruyar/daruyar_backend/internal/service/profile"
	pasetotoken "github.com/daruyar/daruyar_backend/pkg/paseto"
)

type ProfileHandler struct {
	svc profile.Service
}

func NewProfileHandler(svc profile.Service) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

func mapProfileError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, profile.ErrUserNotFound):
		return notFound(c, faMessage(err))
	case errors.Is(err, profile.ErrInvalidPhone),
		errors.Is(err, profile.ErrEmptyName),
		errors.Is(err, profile.ErrWrongPassword),
		errors.Is(err, profile.ErrPasswordTooShort),
		errors.Is(err, profile.ErrNoPassword),
		errors.Is(err, profile.ErrAvatarBadType):
		return badRequest(c, faMessage(err))
	case errors.Is(err, profile.ErrAvatarTooLarge):
		return payloadTooLarge(c, faMessage(err))
	default:
		return internalError(c)
	}
}

// GET /api/v1/profile
func (h *ProfileHandler) Get(c fiber.Ctx) error {
	claims, valid := pasetotoken.ClaimsFromFiber(c)
	if !valid {
		return unauthorized(c)
	}

	p, err := h.svc.Get(c.Context(), claims.UserID)
	if err != nil {
		return mapProfileError(c, err)
	}
	return ok(c, p)
}

// PATCH /api/v1/profile
func (h *ProfileHandler) Update(c fiber.Ctx) error {
	claims, valid := pasetotoken.ClaimsFromFiber(c)
	if !valid {
		return unauthorized(c)
	}

	var body struct {
		FullName *string `json:"full_name"`
		Phone    *string `json:"phone"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "بدنه درخواست نامعتبر است")
	}

	p, err := h.svc.Update(c.Context(), claims.UserID, profile.UpdateProfileRequest{
		FullName: body.FullName,
		Phone:    body.Phone,
	})
	if err != nil {
		return mapProfileError(c, err)
	}
	return ok(c, p)
}

// POST /api/v1/profile/change-password
func (h *ProfileHandler) ChangePassword(c fiber.Ctx) error {
	claims, valid := pasetotoken.ClaimsFromFiber(c)
	if !valid {
		return unauthorized(c)
	}

	var body struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "بدنه درخواست نامعتبر است")
	}
	if body.CurrentPassword == "" || body.NewPassword == "" {
		return badRequest(c, "رمز عبور فعلی و جدید الزامی است")
	}

	if err := h.svc.ChangePassword(c.Context(), claims.UserID, profile.ChangePasswordRequest{
		CurrentPassword: body.CurrentPassword,
		NewPassword:     body.NewPassword,
	}); err != nil {
		return mapProfileError(c, err)
	}
	return noContent(c)
}

// POST /api/v1/profile/avatar  (multipart form, field "avatar")
func (h *ProfileHandler) UploadAvatar(c fiber.Ctx) error {
	claims, valid := pasetotoken.ClaimsFromFiber(c)
	if !valid {
		return unauthorized(c)
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return badRequest(c, "فایل تصویر الزامی است")
	}
	f, err := fileHeader.Open()
	if err != nil {
		return badRequest(c, "خواندن فایل تصویر ممکن نیست")
	}
	defer f.Close()

	p, err := h.svc.UploadAvatar(c.Context(), claims.UserID, profile.UploadAvatarRequest{
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        f,
	})
	if err != nil {
		return mapProfileError(c, err)
	}
	return ok(c, p)
}
