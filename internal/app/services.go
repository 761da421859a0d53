package app

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/daruyar/daruyar_backend/config"
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
	"github.com/daruyar/daruyar_backend/internal/store"
	"github.com/daruyar/daruyar_backend/pkg/authorize"
	"github.com/daruyar/daruyar_backend/pkg/email"
	pasetotoken "github.com/daruyar/daruyar_backend/pkg/paseto"
	s3pkg "github.com/daruyar/daruyar_backend/pkg/s3"
	"github.com/daruyar/daruyar_backend/pkg/util/password"
)

// ServiceModule provides all stores and application services.
var ServiceModule = fx.Module("services",
	fx.Provide(
		store.NewUserStore,
		store.NewPatientStore,
		store.NewMedicineStore,
		store.NewScheduleStore,
		store.NewIntakeStore,
		store.NewVitalStore,
		store.NewAppointmentStore,
		store.NewDocumentStore,
		store.NewFamilyStore,
		store.NewChatStore,
		store.NewShareStore,
		store.NewNotificationStore,

		ProvideAuthService,
		ProvideProfileService,
		ProvidePatientService,
		ProvideMedicineService,
		ProvideScheduleService,
		ProvideIntakeService,
		ProvideVitalsService,
		ProvideAppointmentService,
		ProvideDocumentService,
		ProvideFamilyService,
		ProvideChatService,
		ProvideShareService,
		ProvideNotificationService,
		ProvideReportService,
		ProvidePasetoManager,
	),
	fx.Invoke(SeedAuthorization),
)

func ProvideAuthService(
	users *store.UserStore,
	rdb *redis.Client,
	mailer *email.Client,
	paseto *pasetotoken.Manager,
	cfg *config.Config,
) auth.Service {
	return auth.New(users, rdb, mailer, paseto, cfg)
}

func ProvideProfileService(users *store.UserStore, s3 *s3pkg.Client, cfg *config.Config) profile.Service {
	return profile.New(users, s3, password.FromCentralConfig(cfg.Password).ToParams())
}

func ProvidePatientService(patients *store.PatientStore, families *store.FamilyStore, shares *store.ShareStore) patient.Service {
	return patient.New(patients, families, shares)
}

func ProvideMedicineService(medicines *store.MedicineStore, patients patient.Service) medicine.Service {
	return medicine.New(medicines, patients)
}

func ProvideScheduleService(
	schedules *store.ScheduleStore,
	medicines *store.MedicineStore,
	intakes *store.IntakeStore,
	patients patient.Service,
) schedule.Service {
	return schedule.New(schedules, medicines, intakes, patients)
}

func ProvideIntakeService(intakes *store.IntakeStore, schedules *store.ScheduleStore, patients patient.Service) intake.Service {
	return intake.New(intakes, schedules, patients)
}

func ProvideVitalsService(vitalStore *store.VitalStore, patients patient.Service) vitals.Service {
	return vitals.New(vitalStore, patients)
}

func ProvideAppointmentService(appointments *store.AppointmentStore, patients patient.Service) appointment.Service {
	return appointment.New(appointments, patients)
}

func ProvideDocumentService(documents *store.DocumentStore, s3 *s3pkg.Client, patients patient.Service) document.Service {
	return document.New(documents, s3, patients, slog.Default())
}

func ProvideFamilyService(
	families *store.FamilyStore,
	users *store.UserStore,
	notifications *store.NotificationStore,
	authz authorize.IAuthorization,
) family.Service {
	return family.New(families, users, notifications, authz, slog.Default())
}

func ProvideChatService(messages *store.ChatStore, families *store.FamilyStore, nc *nats.Conn) chat.Service {
	return chat.New(messages, families, nc, slog.Default())
}

func ProvideShareService(
	shares *store.ShareStore,
	patients *store.PatientStore,
	access patient.Service,
	notifications *store.NotificationStore,
	cfg *config.Config,
) share.Service {
	return share.New(shares, patients, access, notifications, slog.Default(), cfg.Codes.ShareTokenByteLength)
}

func ProvideNotificationService(notifications *store.NotificationStore) notification.Service {
	return notification.New(notifications)
}

func ProvideReportService(
	intakes *store.IntakeStore,
	medicines *store.MedicineStore,
	vitalStore *store.VitalStore,
	patients patient.Service,
) report.Service {
	return report.New(intakes, medicines, vitalStore, patients)
}

func ProvidePasetoManager(cfg *config.Config) (*pasetotoken.Manager, error) {
	return pasetotoken.NewPasetoManager(cfg)
}

// SeedAuthorization installs the default RBAC policies and replays every
// family membership into Casbin grouping rules so checks work right after
// boot. Runs before the HTTP server starts accepting traffic.
func SeedAuthorization(lc fx.Lifecycle, authz authorize.IAuthorization, families *store.FamilyStore) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := authorize.SeedDefaultPolicies(ctx, authz); err != nil {
				return err
			}
			memberships, err := families.ListAllMemberships(ctx)
			if err != nil {
				return err
			}
			family.RebuildGroupingPolicies(ctx, authz, memberships, slog.Default())
			slog.Info("authorization seeded", "memberships", len(memberships))
			return nil
		},
	})
}
