package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/daruyar/daruyar_backend/internal/service/patient"
	"github.com/daruyar/daruyar_backend/internal/store"
)

// MaxMessageLength caps a single chat message.
const MaxMessageLength = 4000

// streamBuffer is the per-subscriber event backlog before events are dropped.
const streamBuffer = 16

// SubjectPrefix is the NATS subject family chat events are published on,
// suffixed with the family id.
const SubjectPrefix = "daruyar.family.chat."

// Subject returns the NATS subject for one family's chat stream.
func Subject(familyID uuid.UUID) string {
	return SubjectPrefix + familyID.String()
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// Event is the wire form published to NATS and streamed over SSE.
type Event struct {
	ID        uuid.UUID `json:"id"`
	FamilyID  uuid.UUID `json:"family_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type ListMessagesRequest struct {
	Page    int
	PerPage int
}

// ---------------------------------------------------------------------------
// Dependencies
// ---------------------------------------------------------------------------

type ChatStore interface {
	Create(ctx context.Context, m *store.ChatMessage) error
	ListByFamily(ctx context.Context, familyID uuid.UUID, limit, offset int) ([]*store.ChatMessage, int, error)
}

type MembershipStore interface {
	GetMember(ctx context.Context, familyID, userID uuid.UUID) (*store.FamilyMember, error)
}

// Publisher is the NATS surface the service uses. *nats.Conn satisfies it.
type Publisher interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Send(ctx context.Context, userID, familyID uuid.UUID, content string) (*store.ChatMessage, error)
	List(ctx context.Context, userID, familyID uuid.UUID, req ListMessagesRequest) (*patient.PaginatedResult[*store.ChatMessage], error)

	// Stream subscribes to live events for the family. The channel carries
	// events until ctx is cancelled; it is never closed. Used by the SSE
	// endpoint.
	Stream(ctx context.Context, userID, familyID uuid.UUID) (<-chan Event, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type chatService struct {
	messages ChatStore
	members  MembershipStore
	nc       Publisher
	logger   *slog.Logger
}

func New(messages ChatStore, members MembershipStore, nc Publisher, logger *slog.Logger) Service {
	return &chatService{messages: messages, members: members, nc: nc, logger: logger}
}

func (s *chatService) requireMember(ctx context.Context, familyID, userID uuid.UUID) error {
	if _, err := s.members.GetMember(ctx, familyID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotMember
		}
		return fmt.Errorf("get membership: %w", err)
	}
	return nil
}

func (s *chatService) Send(ctx context.Context, userID, familyID uuid.UUID, content string) (*store.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if len(content) > MaxMessageLength {
		return nil, ErrMessageTooBig
	}
	if err := s.requireMember(ctx, familyID, userID); err != nil {
		return nil, err
	}

	m := &store.ChatMessage{FamilyID: familyID, SenderID: userID, Content: content}
	if err := s.messages.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("store chat message: %w", err)
	}

	// Publish after the row is durable. A failed publish only degrades the
	// live stream; history is already consistent.
	ev := Event{ID: m.ID, FamilyID: m.FamilyID, SenderID: m.SenderID, Content: m.Content, CreatedAt: m.CreatedAt}
	data, err := json.Marshal(ev)
	if err == nil {
		err = s.nc.Publish(Subject(familyID), data)
	}
	if err != nil {
		s.logger.Error("chat publish failed", "family_id", familyID, "error", err)
	}
	return m, nil
}

func (s *chatService) List(ctx context.Context, userID, familyID uuid.UUID, req ListMessagesRequest) (*patient.PaginatedResult[*store.ChatMessage], error) {
	if err := s.requireMember(ctx, familyID, userID); err != nil {
		return nil, err
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 || req.PerPage > 200 {
		req.PerPage = 50
	}
	offset := (req.Page - 1) * req.PerPage

	items, total, err := s.messages.ListByFamily(ctx, familyID, req.PerPage, offset)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}

	return &patient.PaginatedResult[*store.ChatMessage]{
		Data:       items,
		Total:      total,
		Page:       req.Page,
		PerPage:    req.PerPage,
		TotalPages: (total + req.PerPage - 1) / req.PerPage,
	}, nil
}

func (s *chatService) Stream(ctx context.Context, userID, familyID uuid.UUID) (<-chan Event, error) {
	if err := s.requireMember(ctx, familyID, userID); err != nil {
		return nil, err
	}

	events := make(chan Event, streamBuffer)
	sub, err := s.nc.Subscribe(Subject(familyID), func(msg *nats.Msg) {
		var ev Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			s.logger.Warn("malformed chat event", "family_id", familyID, "error", err)
			return
		}
		select {
		case events <- ev:
		case <-ctx.Done():
		default:
			// Drop when the consumer lags; history stays complete in Postgres.
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe chat: %w", err)
	}

	// The channel is deliberately never closed: NATS may still invoke the
	// callback while the unsubscribe is in flight. Consumers stop via ctx.
	go func() {
		<-ctx.Done()
		if err := sub.Unsubscribe(); err != nil {
			s.logger.Warn("chat unsubscribe failed", "family_id", familyID, "error", err)
		}
	}()

	return events, nil
}
