package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/daruyar/daruyar_backend/internal/api/http/handler"
)

func (r *Router) registerFamilyRoutes(api fiber.Router, fh *handler.FamilyHandler, ch *handler.ChatHandler, ph *handler.PatientHandler, authRequired fiber.Handler) {
	families := api.Group("/families", authRequired)
	families.Get("/", fh.ListMine)
	families.Post("/", fh.Create)

	f := families.Group("/:id")
	f.Get("/", fh.Get)
	f.Patch("/", fh.Rename)
	f.Post("/leave", fh.Leave)

	// Patients attached to the family
	f.Get("/patients", ph.ListByFamily)

	// Members
	f.Get("/members", fh.ListMembers)
	f.Post("/members", fh.AddMember)
	f.Put("/members/:uid/role", fh.ChangeRole)
	f.Delete("/members/:uid", fh.RemoveMember)

	// Chat
	f.Get("/chat", ch.List)
	f.Post("/chat", ch.Send)
	f.Get("/chat/stream", ch.Stream)
}
