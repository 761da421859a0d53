package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChatMessage struct {
	ID        uuid.UUID `json:"id"`
	FamilyID  uuid.UUID `json:"family_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatStore struct{ pool *pgxpool.Pool }

func NewChatStore(pool *pgxpool.Pool) *ChatStore {
	return &ChatStore{pool: pool}
}

func scanChatMessage(row pgx.Row) (*ChatMessage, error) {
	var m ChatMessage
	err := row.Scan(&m.ID, &m.FamilyID, &m.SenderID, &m.Content, &m.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (s *ChatStore) Create(ctx context.Context, m *ChatMessage) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return s.pool.QueryRow(ctx, `
		INSERT INTO family_chat (id, family_id, sender_id, content)
		VALUES ($1,$2,$3,$4) RETURNING created_at`,
		m.ID, m.FamilyID, m.SenderID, m.Content).Scan(&m.CreatedAt)
}

// ListByFamily returns messages newest first.
func (s *ChatStore) ListByFamily(ctx context.Context, familyID uuid.UUID, limit, offset int) ([]*ChatMessage, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM family_chat WHERE family_id = $1`, familyID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, family_id, sender_id, content, created_at FROM family_chat
		 WHERE family_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		familyID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]*ChatMessage, 0)
	for rows.Next() {
		m, err := scanChatMessage(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, rows.Err()
}
