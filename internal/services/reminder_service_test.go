package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tenderhq/tenderdesk/internal/database/testutil"
	"github.com/tenderhq/tenderdesk/internal/models"
)

func newReminderFixture(t *testing.T, now time.Time) (*ReminderService, *TenderService, *NotificationService) {
	t.Helper()

	db := testutil.MustOpenTestDB(t)
	notifications, err := NewNotificationService(db, nil)
	require.NoError(t, err)
	tenders, err := NewTenderService(db, nil, notifications)
	require.NoError(t, err)
	reminders, err := NewReminderService(db, notifications, WithReminderClock(func() time.Time { return now }))
	require.NoError(t, err)
	return reminders, tenders, notifications
}

func TestReminderSweepCreatesBandedNotifications(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	reminders, tenders, notifications := newReminderFixture(t, now)
	owner := uuid.NewString()

	in20h := now.Add(20 * time.Hour)
	in2d := now.Add(2 * 24 * time.Hour)
	in6d := now.Add(6 * 24 * time.Hour)
	in30d := now.Add(30 * 24 * time.Hour)

	for _, tc := range []struct {
		title    string
		deadline time.Time
	}{
		{"urgent", in20h},
		{"soon", in2d},
		{"upcoming", in6d},
		{"distant", in30d},
	} {
		_, err := tenders.Create(context.Background(), CreateTenderInput{
			OwnerID:  owner,
			Title:    tc.title,
			Deadline: &tc.deadline,
		})
		require.NoError(t, err)
	}

	require.NoError(t, reminders.RunOnce(context.Background()))

	result, err := notifications.ListForUser(context.Background(), ListNotificationsInput{UserID: owner})
	require.NoError(t, err)
	require.Len(t, result.Notifications, 3)

	byType := make(map[string]int)
	for _, notification := range result.Notifications {
		byType[notification.Type]++
	}
	require.Equal(t, 1, byType[models.NotificationTenderDeadline24H])
	require.Equal(t, 1, byType[models.NotificationTenderDeadline3D])
	require.Equal(t, 1, byType[models.NotificationTenderDeadline7D])
}

func TestReminderSweepIsIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	reminders, tenders, notifications := newReminderFixture(t, now)
	owner := uuid.NewString()

	deadline := now.Add(12 * time.Hour)
	_, err := tenders.Create(context.Background(), CreateTenderInput{
		OwnerID:  owner,
		Title:    "urgent",
		Deadline: &deadline,
	})
	require.NoError(t, err)

	require.NoError(t, reminders.RunOnce(context.Background()))
	require.NoError(t, reminders.RunOnce(context.Background()))

	result, err := notifications.ListForUser(context.Background(), ListNotificationsInput{UserID: owner})
	require.NoError(t, err)
	require.Len(t, result.Notifications, 1)
	require.Equal(t, models.NotificationTenderDeadline24H, result.Notifications[0].Type)
}

func TestReminderSweepSkipsClosedTenders(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	reminders, tenders, notifications := newReminderFixture(t, now)
	owner := uuid.NewString()

	deadline := now.Add(12 * time.Hour)
	created, err := tenders.Create(context.Background(), CreateTenderInput{
		OwnerID:  owner,
		Title:    "already submitted",
		Deadline: &deadline,
	})
	require.NoError(t, err)

	submitted := models.TenderStatusSubmitted
	_, err = tenders.Update(context.Background(), owner, created.ID, UpdateTenderInput{Status: &submitted})
	require.NoError(t, err)

	require.NoError(t, reminders.RunOnce(context.Background()))

	result, err := notifications.ListForUser(context.Background(), ListNotificationsInput{UserID: owner})
	require.NoError(t, err)
	require.Empty(t, result.Notifications)
}
