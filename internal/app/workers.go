package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"

	"github.com/daruyar/daruyar_backend/config"
	"github.com/daruyar/daruyar_backend/internal/service/chat"
	"github.com/daruyar/daruyar_backend/internal/service/notification"
	"github.com/daruyar/daruyar_backend/internal/store"
	svcsms "github.com/daruyar/daruyar_backend/pkg/sms"
)

// WorkerModule registers the background workers: the chat notification
// fan-out and the appointment reminder sweep.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

type WorkerParams struct {
	fx.In

	Lc           fx.Lifecycle
	Cfg          *config.Config
	NC           *nats.Conn
	Families     *store.FamilyStore
	Patients     *store.PatientStore
	Users        *store.UserStore
	Appointments *store.AppointmentStore
	NotifSvc     notification.Service
	SMS          *svcsms.Client
}

func RegisterWorkers(p WorkerParams) {
	var c *cron.Cron

	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			startChatNotificationWorker(p.NC, p.Families, p.NotifSvc)

			if p.Cfg.Reminders.Enabled {
				var err error
				c, err = startReminderWorker(p.Cfg.Reminders.CronSpec, p.Appointments, p.Patients, p.Families, p.Users, p.NotifSvc, p.SMS)
				if err != nil {
					return err
				}
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			// NATS drain handled by ProvideNatsClient
			if c != nil {
				<-c.Stop().Done()
			}
			return nil
		},
	})
}

// ---------------------------------------------------------------------------
// chat notification worker
// ---------------------------------------------------------------------------

// startChatNotificationWorker turns every published chat message into an
// in-app notification for each family member except the sender. Members
// watching the live SSE stream still get a notification; clients dedupe.
func startChatNotificationWorker(nc *nats.Conn, families *store.FamilyStore, notifSvc notification.Service) {
	_, err := nc.Subscribe(chat.SubjectPrefix+"*", func(msg *nats.Msg) {
		var ev chat.Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			slog.Warn("chat_worker: bad event payload", "subject", msg.Subject, "err", err)
			return
		}

		ctx := context.Background()

		members, err := families.ListMembers(ctx, ev.FamilyID)
		if err != nil {
			slog.Warn("chat_worker: list members failed", "family_id", ev.FamilyID, "err", err)
			return
		}

		for _, m := range members {
			if m.UserID == ev.SenderID {
				continue
			}
			familyID := ev.FamilyID
			_, err := notifSvc.Create(ctx, notification.CreateNotificationRequest{
				UserID:   m.UserID,
				Type:     "chat_message",
				Title:    "پیام جدید",
				Body:     ev.Content,
				FamilyID: &familyID,
			})
			if err != nil {
				slog.Warn("chat_worker: create notification failed", "user_id", m.UserID, "err", err)
			}
		}
	})
	if err != nil {
		slog.Error("chat_worker: subscribe failed", "err", err)
		return
	}

	slog.Info("chat_worker: started")
}

// ---------------------------------------------------------------------------
// appointment reminder worker
// ---------------------------------------------------------------------------

func startReminderWorker(
	spec string,
	appointments *store.AppointmentStore,
	patients *store.PatientStore,
	families *store.FamilyStore,
	users *store.UserStore,
	notifSvc notification.Service,
	smsCli *svcsms.Client,
) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		sweepDueReminders(appointments, patients, families, users, notifSvc, smsCli)
	})
	if err != nil {
		return nil, fmt.Errorf("reminder cron spec %q: %w", spec, err)
	}
	c.Start()
	slog.Info("reminder_worker: started", "spec", spec)
	return c, nil
}

// sweepDueReminders notifies everyone who can see a patient about
// appointments whose reminder window has opened. Each appointment is
// marked sent exactly once; a crash mid-sweep re-notifies at most one
// cycle of appointments.
func sweepDueReminders(
	appointments *store.AppointmentStore,
	patients *store.PatientStore,
	families *store.FamilyStore,
	users *store.UserStore,
	notifSvc notification.Service,
	smsCli *svcsms.Client,
) {
	ctx := context.Background()

	due, err := appointments.ListDueReminders(ctx, time.Now())
	if err != nil {
		slog.Error("reminder_worker: list due reminders failed", "err", err)
		return
	}

	for _, appt := range due {
		p, err := patients.GetByID(ctx, appt.PatientID)
		if err != nil {
			slog.Warn("reminder_worker: patient not found", "patient_id", appt.PatientID, "err", err)
			continue
		}

		recipients := map[uuid.UUID]bool{p.CreatedBy: true}
		if p.FamilyID != nil {
			members, err := families.ListMembers(ctx, *p.FamilyID)
			if err != nil {
				slog.Warn("reminder_worker: list members failed", "family_id", *p.FamilyID, "err", err)
			} else {
				for _, m := range members {
					recipients[m.UserID] = true
				}
			}
		}

		body := fmt.Sprintf("نوبت «%s» برای %s در ساعت %s",
			appt.Title, p.FullName, appt.ScheduledAt.Format("15:04 2006-01-02"))

		for userID := range recipients {
			u, err := users.GetByID(ctx, userID)
			if err != nil {
				slog.Warn("reminder_worker: user not found", "user_id", userID, "err", err)
				continue
			}

			patientID := appt.PatientID
			_, err = notifSvc.Create(ctx, notification.CreateNotificationRequest{
				UserID:    u.ID,
				Type:      "appointment_reminder",
				Title:     "یادآوری نوبت پزشکی",
				Body:      body,
				PatientID: &patientID,
			})
			if err != nil {
				slog.Warn("reminder_worker: create notification failed", "user_id", u.ID, "err", err)
			}

			if smsCli.IsEnabled() && u.Phone != nil {
				if err := smsCli.SendReminder(ctx, *u.Phone, u.FullName, body); err != nil {
					slog.Warn("reminder_worker: sms failed", "user_id", u.ID, "err", err)
				}
			}
		}

		if err := appointments.MarkReminderSent(ctx, appt.ID); err != nil {
			slog.Warn("reminder_worker: mark sent failed", "appointment_id", appt.ID, "err", err)
		}
	}

	if len(due) > 0 {
		slog.Info("reminder_worker: sweep complete", "count", len(due))
	}
}
