package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tenderhq/tenderdesk/internal/models"
	"github.com/tenderhq/tenderdesk/internal/realtime"
	apperrors "github.com/tenderhq/tenderdesk/pkg/errors"
	"github.com/tenderhq/tenderdesk/pkg/logger"
)

// CreateTenderInput defines attributes required to register a tender.
type CreateTenderInput struct {
	OwnerID   string
	Title     string
	Reference string
	Buyer     string
	Deadline  *time.Time
	TeamID    string
}

// UpdateTenderInput carries optional tender mutations; nil fields are left untouched.
type UpdateTenderInput struct {
	Title    *string
	Buyer    *string
	Status   *string
	Deadline *time.Time
}

// TenderService manages tenders and emits notifications on outcome changes.
type TenderService struct {
	db            *gorm.DB
	hub           *realtime.Hub
	notifications *NotificationService
	log           *zap.Logger
}

// NewTenderService constructs a TenderService.
func NewTenderService(db *gorm.DB, hub *realtime.Hub, notifications *NotificationService) (*TenderService, error) {
	if db == nil {
		return nil, errors.New("tender service: db is required")
	}
	if notifications == nil {
		return nil, errors.New("tender service: notification service is required")
	}
	return &TenderService{
		db:            db,
		hub:           hub,
		notifications: notifications,
		log:           logger.WithModule("tenders"),
	}, nil
}

// Create registers a new tender owned by the supplied user.
func (s *TenderService) Create(ctx context.Context, input CreateTenderInput) (*models.Tender, error) {
	ctx = ensureContext(ctx)

	ownerID := strings.TrimSpace(input.OwnerID)
	if ownerID == "" {
		return nil, errors.New("tender service: owner id is required")
	}

	var fields []apperrors.FieldError
	if strings.TrimSpace(input.Title) == "" {
		fields = append(fields, apperrors.FieldError{Field: "title", Message: "title is required"})
	}
	if len(fields) > 0 {
		return nil, apperrors.NewValidation(fields)
	}

	tender := models.Tender{
		OwnerID:   ownerID,
		Title:     strings.TrimSpace(input.Title),
		Reference: strings.TrimSpace(input.Reference),
		Buyer:     strings.TrimSpace(input.Buyer),
		Status:    models.TenderStatusDraft,
		Deadline:  input.Deadline,
	}
	if teamID := strings.TrimSpace(input.TeamID); teamID != "" {
		tender.TeamID = &teamID
	}

	if err := s.db.WithContext(ctx).Create(&tender).Error; err != nil {
		return nil, fmt.Errorf("tender service: create tender: %w", err)
	}

	return &tender, nil
}

// Get loads a tender owned by the supplied user.
func (s *TenderService) Get(ctx context.Context, ownerID, tenderID string) (*models.Tender, error) {
	ctx = ensureContext(ctx)

	var tender models.Tender
	if err := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", tenderID, ownerID).
		First(&tender).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("tender service: load tender: %w", err)
	}
	return &tender, nil
}

// ListForOwner returns the user's tenders, soonest deadline first.
func (s *TenderService) ListForOwner(ctx context.Context, ownerID string) ([]models.Tender, error) {
	ctx = ensureContext(ctx)

	var rows []models.Tender
	if err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("deadline IS NULL, deadline ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("tender service: list tenders: %w", err)
	}
	return rows, nil
}

// Update applies the supplied mutations to a tender owned by the user. A
// transition to won or lost notifies the owner.
func (s *TenderService) Update(ctx context.Context, ownerID, tenderID string, input UpdateTenderInput) (*models.Tender, error) {
	ctx = ensureContext(ctx)

	tender, err := s.Get(ctx, ownerID, tenderID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, apperrors.NewValidation([]apperrors.FieldError{{Field: "title", Message: "title cannot be empty"}})
		}
		updates["title"] = strings.TrimSpace(*input.Title)
	}
	if input.Buyer != nil {
		updates["buyer"] = strings.TrimSpace(*input.Buyer)
	}
	if input.Deadline != nil {
		updates["deadline"] = *input.Deadline
	}

	previousStatus := tender.Status
	if input.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*input.Status))
		if !models.IsValidTenderStatus(status) {
			return nil, apperrors.NewValidation([]apperrors.FieldError{{Field: "status", Message: fmt.Sprintf("unknown status %q", *input.Status)}})
		}
		updates["status"] = status
	}

	if len(updates) == 0 {
		return tender, nil
	}

	if err := s.db.WithContext(ctx).Model(tender).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("tender service: update tender: %w", err)
	}

	if status, ok := updates["status"].(string); ok && status != previousStatus {
		s.notifyOutcome(ctx, tender, status)
	}

	if s.hub != nil {
		s.hub.BroadcastToUser(realtime.StreamTenders, ownerID, realtime.Message{
			Event: realtime.EventTenderUpdated,
			Data:  map[string]any{"tender": tender},
		})
	}

	return tender, nil
}

// Delete removes a tender owned by the user.
func (s *TenderService) Delete(ctx context.Context, ownerID, tenderID string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", tenderID, ownerID).
		Delete(&models.Tender{})
	if result.Error != nil {
		return fmt.Errorf("tender service: delete tender: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (s *TenderService) notifyOutcome(ctx context.Context, tender *models.Tender, status string) {
	var notificationType, title, message string
	switch status {
	case models.TenderStatusWon:
		notificationType = models.NotificationTenderWon
		title = "Tender won"
		message = fmt.Sprintf("Congratulations, your bid for %q was accepted.", tender.Title)
	case models.TenderStatusLost:
		notificationType = models.NotificationTenderLost
		title = "Tender lost"
		message = fmt.Sprintf("Your bid for %q was not retained.", tender.Title)
	default:
		return
	}

	if _, err := s.notifications.Create(ctx, CreateNotificationInput{
		UserID:   tender.OwnerID,
		Type:     notificationType,
		Title:    title,
		Message:  message,
		TenderID: tender.ID,
	}); err != nil {
		// Outcome notifications are best-effort; the status change itself stands.
		s.log.Warn("outcome notification failed", zap.String("tender_id", tender.ID), zap.Error(err))
	}
}
