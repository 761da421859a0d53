package router

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/daruyar/daruyar_backend/config"
	"github.com/daruyar/daruyar_backend/internal/api/http/handler"
	"github.com/daruyar/daruyar_backend/internal/api/http/middleware"
	"github.com/daruyar/daruyar_backend/internal/service/appointment"
	"github.com/daruyar/daruyar_backend/internal/service/auth"
	"github.com/daruyar/daruyar_backend/internal/service/chat"
	"github.com/daruyar/daruyar_backend/internal/service/document"
	"github.com/daruyar/daruyar_backend/internal/service/family"
	"github.com/daruyar/daruyar_backend/internal/service/intake"
	"github.com/daruyar/daruyar_backend/internal/service/medicine"
	"github.com/daruyar/daruyar_backend/internal/service/notification"
	"github.com/daruyar/daruyar_backend/internal/service/patient"
	"github.com/daruyar/daruyar_backend/internal/service/profile"
	"github.com/daruyar/daruyar_backend/internal/service/report"
	"github.com/daruyar/daruyar_backend/internal/service/schedule"
	"github.com/daruyar/daruyar_backend/internal/service/share"
	"github.com/daruyar/daruyar_backend/internal/service/vitals"
	"github.com/daruyar/daruyar_backend/pkg/authorize"
	pasetotoken "github.com/daruyar/daruyar_backend/pkg/paseto"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg             *config.Config
	Pool            *pgxpool.Pool
	Redis           *redis.Client
	AuthSvc         auth.Service
	ProfileSvc      profile.Service
	PatientSvc      patient.Service
	MedicineSvc     medicine.Service
	ScheduleSvc     schedule.Service
	IntakeSvc       intake.Service
	VitalsSvc       vitals.Service
	AppointmentSvc  appointment.Service
	DocumentSvc     document.Service
	FamilySvc       family.Service
	ChatSvc         chat.Service
	ShareSvc        share.Service
	NotificationSvc notification.Service
	ReportSvc       report.Service
	PasetoMgr       *pasetotoken.Manager
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

func (r *Router) Register(app *fiber.App) {
	// 1. Health & Metrics
	r.registerSystemRoutes(app)

	// 2. Middlewares
	authRequired := middleware.AuthRequired(r.p.PasetoMgr, r.p.Redis)

	// 3. Handlers
	authH := handler.NewAuthHandler(r.p.AuthSvc)
	profileH := handler.NewProfileHandler(r.p.ProfileSvc)
	patientH := handler.NewPatientHandler(r.p.PatientSvc)
	medicineH := handler.NewMedicineHandler(r.p.MedicineSvc)
	scheduleH := handler.NewScheduleHandler(r.p.ScheduleSvc, r.p.IntakeSvc)
	vitalsH := handler.NewVitalsHandler(r.p.VitalsSvc)
	appointmentH := handler.NewAppointmentHandler(r.p.AppointmentSvc)
	documentH := handler.NewDocumentHandler(r.p.DocumentSvc)
	familyH := handler.NewFamilyHandler(r.p.FamilySvc)
	chatH := handler.NewChatHandler(r.p.ChatSvc)
	shareH := handler.NewShareHandler(r.p.ShareSvc)
	notificationH := handler.NewNotificationHandler(r.p.NotificationSvc)
	reportH := handler.NewReportHandler(r.p.ReportSvc)

	// Public share resolution lives outside the API prefix.
	app.Get("/shared/:token", shareH.Resolve)

	api := app.Group("/api/v1")

	// 4. Delegate to sub-files
	r.registerAuthRoutes(api, authH, authRequired)
	r.registerProfileRoutes(api, profileH, authRequired)
	r.registerPatientRoutes(api, patientH, medicineH, scheduleH, vitalsH, appointmentH, documentH, shareH, reportH, authRequired)
	r.registerMedicineRoutes(api, medicineH, authRequired)
	r.registerScheduleRoutes(api, scheduleH, authRequired)
	r.registerVitalsRoutes(api, vitalsH, authRequired)
	r.registerAppointmentRoutes(api, appointmentH, authRequired)
	r.registerDocumentRoutes(api, documentH, authRequired)
	r.registerFamilyRoutes(api, familyH, chatH, patientH, authRequired)
	r.registerShareRoutes(api, shareH, authRequired)
	r.registerNotificationRoutes(api, notificationH, authRequired)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	systemH := handler.NewSystemHandler(r.p.Pool, r.p.Redis)
	app.Get("/health", systemH.Health)

	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool { return authorize.IsPolicyHealthy() },
	}))
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Enabled && r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}
}
