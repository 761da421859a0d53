package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Notification types.
const (
	NotificationTypeMedicationReminder  = "medication_reminder"
	NotificationTypeAppointmentReminder = "appointment_reminder"
	NotificationTypeFamilyInvite        = "family_invite"
	NotificationTypeShareCreated        = "share_created"
	NotificationTypeChatMessage         = "chat_message"
)

type Notification struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	PatientID *uuid.UUID `json:"patient_id"`
	FamilyID  *uuid.UUID `json:"family_id"`
	ShareID   *uuid.UUID `json:"share_id"`
	IsRead    bool       `json:"is_read"`
	ReadAt    *time.Time `json:"read_at"`
	CreatedAt time.Time  `json:"created_at"`
}

type NotificationStore struct{ pool *pgxpool.Pool }

func NewNotificationStore(pool *pgxpool.Pool) *NotificationStore {
	return &NotificationStore{pool: pool}
}

const notificationCols = `id, user_id, type, title, body, patient_id, family_id, share_id,
	is_read, read_at, created_at`

func scanNotification(row pgx.Row) (*Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &n.PatientID,
		&n.FamilyID, &n.ShareID, &n.IsRead, &n.ReadAt, &n.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &n, nil
}

func (s *NotificationStore) Create(ctx context.Context, n *Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notifications (id, user_id, type, title, body, patient_id, family_id, share_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		n.ID, n.UserID, n.Type, n.Title, n.Body, n.PatientID, n.FamilyID, n.ShareID)
	return err
}

// List returns the user's notifications newest first. unreadOnly restricts to
// unread rows.
func (s *NotificationStore) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*Notification, int, error) {
	where := `user_id = $1`
	if unreadOnly {
		where += ` AND is_read = false`
	}

	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE `+where, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+notificationCols+` FROM notifications WHERE `+where+
			` ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]*Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, n)
	}
	return items, total, rows.Err()
}

// MarkRead is scoped to the owning user so one user cannot touch another's rows.
func (s *NotificationStore) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE notifications SET is_read=true, read_at=NOW() WHERE id = $1 AND user_id = $2`,
		id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *NotificationStore) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE notifications SET is_read=true, read_at=NOW() WHERE user_id = $1 AND is_read = false`,
		userID)
	return err
}

func (s *NotificationStore) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = false`, userID).Scan(&n)
	return n, err
}
