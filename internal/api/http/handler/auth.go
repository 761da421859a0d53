package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/daruyar/daruyar_backend/internal/service/auth"
	pasetotoken "github.com/daruyar/daruyar_backend/pkg/paseto"
)

type AuthHandler struct {
	svc auth.Service
}

func NewAuthHandler(svc auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func tokensResponse(t *auth.AuthTokens) fiber.Map {
	return fiber.Map{
		"access_token":  t.AccessToken,
		"refresh_token": t.RefreshToken,
		"expires_in":    t.ExpiresIn,
	}
}

// POST /api/v1/auth/register
func (h *AuthHandler) Register(c fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
		Phone    string `json:"phone"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "بدنه درخواست نامعتبر است")
	}

	if err := h.svc.Register(c.Context(), auth.RegisterRequest{
		Email:    body.Email,
		Password: body.Password,
		FullName: body.FullName,
		Phone:    body.Phone,
	}); err != nil {
		return mapAuthError(c, err)
	}

	return created(c, fiber.Map{"message": "verification code sent to your email"})
}

// POST /api/v1/auth/verify-email
func (h *AuthHandler) VerifyEmail(c fiber.Ctx) error {
	var body struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "بدنه درخواست نامعتبر است")
	}

	tokens, err := h.svc.VerifyEmail(c.Context(), auth.VerifyEmailRequest{
		Email: body.Email,
		Code:  body.Code,
	})
	if err != nil {
		return mapAuthError(c, err)
	}

	return ok(c, tokensResponse(tokens))
}

// POST /api/v1/auth/resend-verification
func (h *AuthHandler) ResendVerification(c fiber.Ctx) error {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "بدنه درخواست نامعتبر است")
	}

	if err := h.svc.ResendVerification(c.Context(), body.Email); err != nil {
		return mapAuthError(c, err)
	}
	return ok(c, fiber.Map{"message": "if the address is registered, a code has been sent"})
}

// POST /api/v1/auth/login
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "بدنه درخواست نامعتبر است")
	}

	tokens, err := h.svc.Login(c.Context(), auth.LoginRequest{
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		return mapAuthError(c, err)
	}

	return ok(c, tokensResponse(tokens))
}

// GET /api/v1/auth/oauth/:provider
func (h *AuthHandler) OAuthRedirect(c fiber.Ctx) error {
	state := c.Query("state")
	if state == "" {
		return badRequest(c, "پارامتر state الزامی است")
	}

	url, err := h.svc.OAuthURL(c.Params("provider"), state)
	if err != nil {
		return mapAuthError(c, err)
	}
	return c.Redirect().Status(fiber.StatusTemporaryRedirect).To(url)
}

// POST /api/v1/auth/oauth/:provider/callback
func (h *AuthHandler) OAuthCallback(c fiber.Ctx) error {
	var body struct {
		Code string `json:"code"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "بدنه درخواست نامعتبر است")
	}
	if body.Code == "" {
		return badRequest(c, "کد تأیید الزامی است")
	}

	tokens, err := h.svc.OAuthLogin(c.Context(), c.Params("provider"), body.Code)
	if err != nil {
		return mapAuthError(c, err)
	}

	return ok(c, tokensResponse(tokens))
}

// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c fiber.Ctx) error {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "بدنه درخواست نامعتبر است")
	}
	if body.RefreshToken == "" {
		return badRequest(c, "توکن تازه‌سازی الزامی است")
	}

	tokens, err := h.svc.RefreshTokens(c.Context(), body.RefreshToken)
	if err != nil {
		return mapAuthError(c, err)
	}

	return ok(c, tokensResponse(tokens))
}

// POST /api/v1/auth/logout  (requires AuthRequired middleware)
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	claims, valid := pasetotoken.ClaimsFromFiber(c)
	if !valid || claims.SessionID == nil {
		return unauthorized(c)
	}

	if err := h.svc.Logout(c.Context(), *claims.SessionID); err != nil {
		return internalError(c)
	}

	return noContent(c)
}

// POST /api/v1/auth/forgot-password
func (h *AuthHandler) ForgotPassword(c fiber.Ctx) error {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "بدنه درخواست نامعتبر است")
	}

	if err := h.svc.ForgotPassword(c.Context(), body.Email); err != nil {
		return mapAuthError(c, err)
	}
	return ok(c, fiber.Map{"message": "if the address is registered, a reset link has been sent"})
}

// POST /api/v1/auth/reset-password
func (h *AuthHandler) ResetPassword(c fiber.Ctx) error {
	var body struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "بدنه درخواست نامعتبر است")
	}
	if body.Token == "" {
		return badRequest(c, "توکن الزامی است")
	}

	if err := h.svc.ResetPassword(c.Context(), body.Token, body.NewPassword); err != nil {
		return mapAuthError(c, err)
	}
	return noContent(c)
}

// ---------------------------------------------------------------------------
// Error mapping
// ---------------------------------------------------------------------------

func mapAuthError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, auth.ErrEmailAlreadyExists):
		return conflict(c, faMessage(err))
	case errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrPasswordTooShort),
		errors.Is(err, auth.ErrCodeExpired),
		errors.Is(err, auth.ErrCodeInvalid),
		errors.Is(err, auth.ErrUnknownProvider),
		errors.Is(err, auth.ErrOAuthNoEmail),
		errors.Is(err, auth.ErrResetTokenInvalid):
		return badRequest(c, faMessage(err))
	case errors.Is(err, auth.ErrCodeMaxAttempts),
		errors.Is(err, auth.ErrAccountLocked):
		return tooManyRequests(c, faMessage(err))
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrSessionNotFound),
		errors.Is(err, auth.ErrInvalidToken):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": faMessage(err)})
	case errors.Is(err, auth.ErrAccountSuspended),
		errors.Is(err, auth.ErrEmailNotVerified):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": faMessage(err)})
	default:
		return internalError(c)
	}
}
