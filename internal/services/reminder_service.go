package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tenderhq/tenderdesk/internal/models"
	"github.com/tenderhq/tenderdesk/pkg/logger"
	"github.com/tenderhq/tenderdesk/pkg/metrics"
)

const defaultReminderSpec = "@hourly"

// reminderWindow binds a deadline band to the notification type it produces.
// The bands do not overlap, so a single sweep creates at most one reminder
// per tender.
type reminderWindow struct {
	Type     string
	After    time.Duration
	Until    time.Duration
	Days     int
	Headline string
}

var reminderWindows = []reminderWindow{
	{Type: models.NotificationTenderDeadline24H, After: 0, Until: 24 * time.Hour, Days: 1, Headline: "Deadline in 24 hours"},
	{Type: models.NotificationTenderDeadline3D, After: 24 * time.Hour, Until: 3 * 24 * time.Hour, Days: 3, Headline: "Deadline in 3 days"},
	{Type: models.NotificationTenderDeadline7D, After: 3 * 24 * time.Hour, Until: 7 * 24 * time.Hour, Days: 7, Headline: "Deadline in 7 days"},
}

// ReminderService sweeps tender deadlines on a cron schedule and notifies
// owners at the 7d/3d/24h horizons. A reminder for the same tender and
// horizon is created at most once, keyed by the existing notification.
type ReminderService struct {
	db            *gorm.DB
	notifications *NotificationService
	cron          *cron.Cron
	schedule      string
	now           func() time.Time
	log           *zap.Logger
}

// ReminderOption customises the ReminderService.
type ReminderOption func(*ReminderService)

// WithReminderSchedule overrides the cron specification for deadline sweeps.
func WithReminderSchedule(spec string) ReminderOption {
	return func(s *ReminderService) {
		if spec != "" {
			s.schedule = spec
		}
	}
}

// WithReminderClock overrides the clock, primarily for tests.
func WithReminderClock(now func() time.Time) ReminderOption {
	return func(s *ReminderService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewReminderService constructs a ReminderService.
func NewReminderService(db *gorm.DB, notifications *NotificationService, opts ...ReminderOption) (*ReminderService, error) {
	if db == nil {
		return nil, errors.New("reminder service: db is required")
	}
	if notifications == nil {
		return nil, errors.New("reminder service: notification service is required")
	}

	service := &ReminderService{
		db:            db,
		notifications: notifications,
		schedule:      defaultReminderSpec,
		now:           time.Now,
		log:           logger.WithModule("reminders"),
	}
	for _, opt := range opts {
		opt(service)
	}
	service.cron = cron.New()

	return service, nil
}

// Start registers the sweep job and launches the scheduler.
func (s *ReminderService) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if err := s.RunOnce(ctx); err != nil {
			metrics.ReminderRuns.WithLabelValues("error").Inc()
			s.log.Warn("reminder sweep failed", zap.Error(err))
			return
		}
		metrics.ReminderRuns.WithLabelValues("success").Inc()
	})
	if err != nil {
		return fmt.Errorf("reminder service: schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *ReminderService) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce performs a single deadline sweep across all reminder windows.
func (s *ReminderService) RunOnce(ctx context.Context) error {
	ctx = ensureContext(ctx)
	now := s.now().UTC()

	var errs error
	for _, window := range reminderWindows {
		if err := s.sweepWindow(ctx, now, window); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func (s *ReminderService) sweepWindow(ctx context.Context, now time.Time, window reminderWindow) error {
	var tenders []models.Tender
	err := s.db.WithContext(ctx).
		Where("deadline IS NOT NULL AND deadline > ? AND deadline <= ?", now.Add(window.After), now.Add(window.Until)).
		Where("status IN ?", []string{models.TenderStatusDraft, models.TenderStatusInProgress}).
		Find(&tenders).Error
	if err != nil {
		return fmt.Errorf("reminder service: load tenders for %s: %w", window.Type, err)
	}

	for _, tender := range tenders {
		created, err := s.remindOnce(ctx, tender, window)
		if err != nil {
			return err
		}
		if created {
			s.log.Info("deadline reminder created",
				zap.String("tender_id", tender.ID),
				zap.String("type", window.Type),
			)
		}
	}
	return nil
}

func (s *ReminderService) remindOnce(ctx context.Context, tender models.Tender, window reminderWindow) (bool, error) {
	var existing int64
	err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND tender_id = ? AND type = ?", tender.OwnerID, tender.ID, window.Type).
		Count(&existing).Error
	if err != nil {
		return false, fmt.Errorf("reminder service: dedup check: %w", err)
	}
	if existing > 0 {
		return false, nil
	}

	_, err = s.notifications.Create(ctx, CreateNotificationInput{
		UserID:   tender.OwnerID,
		Type:     window.Type,
		Title:    window.Headline,
		Message:  fmt.Sprintf("The deadline for %q is %s.", tender.Title, tender.Deadline.Format("2006-01-02 15:04")),
		TenderID: tender.ID,
		Metadata: map[string]any{
			"days_remaining": window.Days,
		},
	})
	if err != nil {
		return false, fmt.Errorf("reminder service: create reminder: %w", err)
	}
	return true, nil
}
