package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/daruyar/daruyar_backend/internal/api/http/handler"
)

func (r *Router) registerPatientRoutes(
	api fiber.Router,
	ph *handler.PatientHandler,
	mh *handler.MedicineHandler,
	sh *handler.ScheduleHandler,
	vh *handler.VitalsHandler,
	ah *handler.AppointmentHandler,
	dh *handler.DocumentHandler,
	shh *handler.ShareHandler,
	rh *handler.ReportHandler,
	authRequired fiber.Handler,
) {
	patients := api.Group("/patients", authRequired)

	// Patient CRUD
	patients.Get("/", ph.List)
	patients.Post("/", ph.Create)

	p := patients.Group("/:id")
	p.Get("/", ph.Get)
	p.Patch("/", ph.Update)
	p.Delete("/", ph.Delete)
	p.Put("/family", ph.AssignFamily)

	// Medicine cabinet
	p.Get("/medicines", mh.List)
	p.Post("/medicines", mh.Create)

	// Dosage schedules and intake history
	p.Get("/schedules", sh.List)
	p.Post("/schedules", sh.Create)
	p.Get("/intakes", sh.PatientIntakeHistory)

	// Vitals
	p.Get("/vitals", vh.List)
	p.Post("/vitals", vh.Record)

	// Appointments
	p.Get("/appointments", ah.List)
	p.Post("/appointments", ah.Create)

	// Documents
	p.Get("/documents", dh.List)
	p.Post("/documents", dh.Upload)

	// Share links
	p.Get("/shares", shh.List)
	p.Post("/shares", shh.Create)

	// Reports
	p.Get("/reports/adherence", rh.Adherence)
	p.Get("/reports/inventory", rh.Inventory)
	p.Get("/reports/vitals", rh.Vitals)
}
