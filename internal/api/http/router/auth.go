package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/daruyar/daruyar_backend/internal/api/http/handler"
)

func (r *Router) registerAuthRoutes(api fiber.Router, h *handler.AuthHandler, authRequired fiber.Handler) {
	group := api.Group("/auth")
	group.Post("/register", h.Register)
	group.Post("/verify-email", h.VerifyEmail)
	group.Post("/resend-verification", h.ResendVerification)
	group.Post("/login", h.Login)
	group.Get("/oauth/:provider", h.OAuthRedirect)
	group.Post("/oauth/:provider/callback", h.OAuthCallback)
	group.Post("/refresh", h.Refresh)
	group.Post("/forgot-password", h.ForgotPassword)
	group.Post("/reset-password", h.ResetPassword)
	group.Post("/logout", authRequired, h.Logout)
}
