package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/daruyar/daruyar_backend/internal/service/patient"
	"github.com/daruyar/daruyar_backend/internal/store"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreateNotificationRequest struct {
	UserID    uuid.UUID
	Type      string
	Title     string
	Body      string
	PatientID *uuid.UUID
	FamilyID  *uuid.UUID
	ShareID   *uuid.UUID
}

type ListNotificationsRequest struct {
	UnreadOnly bool
	Page       int
	PerPage    int
}

// ---------------------------------------------------------------------------
// Store dependency
// ---------------------------------------------------------------------------

type NotificationStore interface {
	Create(ctx context.Context, n *store.Notification) error
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*store.Notification, int, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Create(ctx context.Context, req CreateNotificationRequest) (*store.Notification, error)
	List(ctx context.Context, userID uuid.UUID, req ListNotificationsRequest) (*patient.PaginatedResult[*store.Notification], error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type notificationService struct {
	notifications NotificationStore
}

func New(notifications NotificationStore) Service {
	return &notificationService{notifications: notifications}
}

func (s *notificationService) Create(ctx context.Context, req CreateNotificationRequest) (*store.Notification, error) {
	n := &store.Notification{
		UserID:    req.UserID,
		Type:      req.Type,
		Title:     req.Title,
		Body:      req.Body,
		PatientID: req.PatientID,
		FamilyID:  req.FamilyID,
		ShareID:   req.ShareID,
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	return n, nil
}

func (s *notificationService) List(ctx context.Context, userID uuid.UUID, req ListNotificationsRequest) (*patient.PaginatedResult[*store.Notification], error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 || req.PerPage > 100 {
		req.PerPage = 20
	}
	offset := (req.Page - 1) * req.PerPage

	items, total, err := s.notifications.List(ctx, userID, req.UnreadOnly, req.PerPage, offset)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	return &patient.PaginatedResult[*store.Notification]{
		Data:       items,
		Total:      total,
		Page:       req.Page,
		PerPage:    req.PerPage,
		TotalPages: (total + req.PerPage - 1) / req.PerPage,
	}, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if err := s.notifications.MarkRead(ctx, notificationID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if err := s.notifications.MarkAllRead(ctx, userID); err != nil {
		return fmt.Errorf("mark all read: %w", err)
	}
	return nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	n, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}
