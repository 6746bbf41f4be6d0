package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tenderhq/tenderdesk/internal/models"
	"github.com/tenderhq/tenderdesk/internal/realtime"
	apperrors "github.com/tenderhq/tenderdesk/pkg/errors"
	"github.com/tenderhq/tenderdesk/pkg/logger"
	"github.com/tenderhq/tenderdesk/pkg/metrics"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// CreateNotificationInput defines attributes required to persist a notification.
type CreateNotificationInput struct {
	UserID   string
	Type     string
	Title    string
	Message  string
	Link     string
	TenderID string
	Metadata map[string]any
}

// ListNotificationsInput defines filters for querying user notifications.
type ListNotificationsInput struct {
	UserID     string
	UnreadOnly bool
	Limit      int
}

// ListNotificationsResult bundles the page of notifications with the user's
// total unread count. The count is computed with its own query so it stays
// correct even when the list itself is filtered or truncated.
type ListNotificationsResult struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int64                 `json:"unread_count"`
}

// NotificationService manages user in-app notifications. Every operation is
// scoped to the owning user in the WHERE clause; a client-supplied id list is
// never trusted without the ownership filter.
type NotificationService struct {
	db  *gorm.DB
	hub *realtime.Hub
	log *zap.Logger
}

// NewNotificationService constructs a NotificationService. The hub may be nil,
// in which case realtime broadcasting is skipped.
func NewNotificationService(db *gorm.DB, hub *realtime.Hub) (*NotificationService, error) {
	if db == nil {
		return nil, errors.New("notification service: db is required")
	}
	return &NotificationService{
		db:  db,
		hub: hub,
		log: logger.WithModule("notifications"),
	}, nil
}

// ListForUser returns notifications for the supplied user ordered by recency,
// together with the unread count. The result is all-or-nothing: a failed query
// returns an error and no partial page.
func (s *NotificationService) ListForUser(ctx context.Context, input ListNotificationsInput) (*ListNotificationsResult, error) {
	ctx = ensureContext(ctx)
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, errors.New("notification service: user id is required")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	query := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit)
	if input.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	rows := make([]models.Notification, 0, limit)
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("notification service: list notifications: %w", err)
	}

	var unread int64
	if err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&unread).Error; err != nil {
		return nil, fmt.Errorf("notification service: count unread: %w", err)
	}

	return &ListNotificationsResult{Notifications: rows, UnreadCount: unread}, nil
}

// Create validates and persists a new notification, then broadcasts it to the
// owner's realtime stream. Validation failures surface as a 400 with a
// per-field detail list.
func (s *NotificationService) Create(ctx context.Context, input CreateNotificationInput) (*models.Notification, error) {
	ctx = ensureContext(ctx)

	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, errors.New("notification service: user id is required")
	}

	if fields := validateCreateInput(&input); len(fields) > 0 {
		return nil, apperrors.NewValidation(fields)
	}

	notification := models.Notification{
		UserID:  userID,
		Type:    strings.TrimSpace(input.Type),
		Title:   strings.TrimSpace(input.Title),
		Message: strings.TrimSpace(input.Message),
		Link:    strings.TrimSpace(input.Link),
	}

	if tenderID := strings.TrimSpace(input.TenderID); tenderID != "" {
		notification.TenderID = &tenderID
		if notification.Link == "" {
			notification.Link = "/tenders/" + tenderID
		}
	}

	if input.Metadata != nil {
		data, err := json.Marshal(input.Metadata)
		if err != nil {
			return nil, fmt.Errorf("notification service: marshal metadata: %w", err)
		}
		notification.Metadata = datatypes.JSON(data)
	}

	if err := s.db.WithContext(ctx).Create(&notification).Error; err != nil {
		return nil, fmt.Errorf("notification service: create notification: %w", err)
	}

	metrics.NotificationsCreated.WithLabelValues(notification.Type).Inc()
	s.broadcast(userID, realtime.EventNotificationCreated, map[string]any{
		"notification": notification,
	})

	return &notification, nil
}

// MarkRead marks the supplied notifications as read for the owner. Ids the
// caller does not own are excluded by the ownership filter, not reported as
// errors. Returns the number of rows actually updated.
func (s *NotificationService) MarkRead(ctx context.Context, userID string, ids []string) (int64, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(userID) == "" {
		return 0, errors.New("notification service: user id is required")
	}
	if len(ids) == 0 {
		return 0, nil
	}

	result := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND id IN ?", userID, ids).
		Update("is_read", true)
	if result.Error != nil {
		return 0, fmt.Errorf("notification service: mark read: %w", result.Error)
	}

	s.broadcast(userID, realtime.EventNotificationRead, map[string]any{
		"notification_ids": ids,
	})

	return result.RowsAffected, nil
}

// MarkAllRead marks every unread notification for the user as read and
// returns the number of rows updated.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(userID) == "" {
		return 0, errors.New("notification service: user id is required")
	}

	result := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if result.Error != nil {
		return 0, fmt.Errorf("notification service: mark all read: %w", result.Error)
	}

	s.broadcast(userID, realtime.EventNotificationReadAll, nil)
	return result.RowsAffected, nil
}

// DeleteBatch removes the supplied notifications owned by the user and returns
// the number of rows actually deleted. Ids not owned by the caller simply do
// not match; the API contract reports the requested count regardless (the
// matched count is logged so the discrepancy stays observable).
func (s *NotificationService) DeleteBatch(ctx context.Context, userID string, ids []string) (int64, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(userID) == "" {
		return 0, errors.New("notification service: user id is required")
	}
	if len(ids) == 0 {
		return 0, nil
	}

	result := s.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, ids).
		Delete(&models.Notification{})
	if result.Error != nil {
		return 0, fmt.Errorf("notification service: delete notifications: %w", result.Error)
	}

	if result.RowsAffected != int64(len(ids)) {
		s.log.Debug("delete batch matched fewer rows than requested",
			zap.Int("requested", len(ids)),
			zap.Int64("matched", result.RowsAffected),
		)
	}

	s.broadcast(userID, realtime.EventNotificationDeleted, map[string]any{
		"notification_ids": ids,
	})

	return result.RowsAffected, nil
}

func (s *NotificationService) broadcast(userID, event string, data map[string]any) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToUser(realtime.StreamNotifications, userID, realtime.Message{
		Event: event,
		Data:  data,
	})
}

func validateCreateInput(input *CreateNotificationInput) []apperrors.FieldError {
	var fields []apperrors.FieldError

	if !models.IsValidNotificationType(strings.TrimSpace(input.Type)) {
		fields = append(fields, apperrors.FieldError{
			Field:   "type",
			Message: fmt.Sprintf("unknown notification type %q", input.Type),
		})
	}
	if strings.TrimSpace(input.Title) == "" {
		fields = append(fields, apperrors.FieldError{Field: "title", Message: "title is required"})
	}
	if strings.TrimSpace(input.Message) == "" {
		fields = append(fields, apperrors.FieldError{Field: "message", Message: "message is required"})
	}
	if tenderID := strings.TrimSpace(input.TenderID); tenderID != "" {
		if _, err := uuid.Parse(tenderID); err != nil {
			fields = append(fields, apperrors.FieldError{Field: "tender_id", Message: "tender_id must be a valid UUID"})
		}
	}

	return fields
}
