package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tenderhq/tenderdesk/internal/database/testutil"
	"github.com/tenderhq/tenderdesk/internal/models"
	apperrors "github.com/tenderhq/tenderdesk/pkg/errors"
)

func newNotificationService(t *testing.T) *NotificationService {
	t.Helper()

	service, err := NewNotificationService(testutil.MustOpenTestDB(t), nil)
	require.NoError(t, err)
	return service
}

func seedNotification(t *testing.T, service *NotificationService, userID, notificationType string) *models.Notification {
	t.Helper()

	notification, err := service.Create(context.Background(), CreateNotificationInput{
		UserID:  userID,
		Type:    notificationType,
		Title:   "title",
		Message: "message",
	})
	require.NoError(t, err)
	return notification
}

func TestNotificationCreateValidation(t *testing.T) {
	service := newNotificationService(t)

	_, err := service.Create(context.Background(), CreateNotificationInput{
		UserID:  uuid.NewString(),
		Type:    "NOT_A_REAL_TYPE",
		Title:   "t",
		Message: "m",
	})
	require.Error(t, err)

	appErr := apperrors.FromError(err)
	require.Equal(t, 400, appErr.StatusCode)
	require.Len(t, appErr.Fields, 1)
	require.Equal(t, "type", appErr.Fields[0].Field)

	_, err = service.Create(context.Background(), CreateNotificationInput{
		UserID: uuid.NewString(),
		Type:   models.NotificationSystem,
	})
	require.Error(t, err)

	appErr = apperrors.FromError(err)
	fields := make([]string, 0, len(appErr.Fields))
	for _, field := range appErr.Fields {
		fields = append(fields, field.Field)
	}
	require.ElementsMatch(t, []string{"title", "message"}, fields)
}

func TestNotificationCreateDerivesTenderLink(t *testing.T) {
	service := newNotificationService(t)
	tenderID := uuid.NewString()

	notification, err := service.Create(context.Background(), CreateNotificationInput{
		UserID:   uuid.NewString(),
		Type:     models.NotificationTenderWon,
		Title:    "Tender won",
		Message:  "your bid was accepted",
		TenderID: tenderID,
	})
	require.NoError(t, err)
	require.Equal(t, "/tenders/"+tenderID, notification.Link)
	require.NotNil(t, notification.TenderID)
	require.Equal(t, tenderID, *notification.TenderID)

	_, err = service.Create(context.Background(), CreateNotificationInput{
		UserID:   uuid.NewString(),
		Type:     models.NotificationTenderWon,
		Title:    "t",
		Message:  "m",
		TenderID: "not-a-uuid",
	})
	require.Error(t, err)
	require.Equal(t, "tender_id", apperrors.FromError(err).Fields[0].Field)
}

func TestNotificationListScopedToUser(t *testing.T) {
	service := newNotificationService(t)
	owner := uuid.NewString()
	other := uuid.NewString()

	seedNotification(t, service, owner, models.NotificationSystem)
	seedNotification(t, service, owner, models.NotificationTeamInvite)
	seedNotification(t, service, other, models.NotificationSystem)

	result, err := service.ListForUser(context.Background(), ListNotificationsInput{UserID: owner})
	require.NoError(t, err)
	require.Len(t, result.Notifications, 2)
	require.EqualValues(t, 2, result.UnreadCount)
	for _, notification := range result.Notifications {
		require.Equal(t, owner, notification.UserID)
	}
}

func TestNotificationListUnreadOnlyAndLimit(t *testing.T) {
	service := newNotificationService(t)
	owner := uuid.NewString()

	first := seedNotification(t, service, owner, models.NotificationSystem)
	seedNotification(t, service, owner, models.NotificationSystem)
	seedNotification(t, service, owner, models.NotificationSystem)

	_, err := service.MarkRead(context.Background(), owner, []string{first.ID})
	require.NoError(t, err)

	result, err := service.ListForUser(context.Background(), ListNotificationsInput{
		UserID:     owner,
		UnreadOnly: true,
	})
	require.NoError(t, err)
	require.Len(t, result.Notifications, 2)
	require.EqualValues(t, 2, result.UnreadCount)
	for _, notification := range result.Notifications {
		require.False(t, notification.Read)
	}

	// The unread count ignores the page limit.
	result, err = service.ListForUser(context.Background(), ListNotificationsInput{
		UserID: owner,
		Limit:  1,
	})
	require.NoError(t, err)
	require.Len(t, result.Notifications, 1)
	require.EqualValues(t, 2, result.UnreadCount)
}

func TestNotificationMarkReadScopedToUser(t *testing.T) {
	service := newNotificationService(t)
	owner := uuid.NewString()
	other := uuid.NewString()

	mine := seedNotification(t, service, owner, models.NotificationSystem)
	theirs := seedNotification(t, service, other, models.NotificationSystem)

	updated, err := service.MarkRead(context.Background(), owner, []string{mine.ID, theirs.ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, updated)

	result, err := service.ListForUser(context.Background(), ListNotificationsInput{UserID: other})
	require.NoError(t, err)
	require.EqualValues(t, 1, result.UnreadCount)
	require.False(t, result.Notifications[0].Read)
}

func TestNotificationMarkReadIdempotent(t *testing.T) {
	service := newNotificationService(t)
	owner := uuid.NewString()

	notification := seedNotification(t, service, owner, models.NotificationSystem)

	updated, err := service.MarkRead(context.Background(), owner, []string{notification.ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, updated)

	// A second mark is a no-op; the unread count stays at zero.
	_, err = service.MarkRead(context.Background(), owner, []string{notification.ID})
	require.NoError(t, err)

	result, err := service.ListForUser(context.Background(), ListNotificationsInput{UserID: owner})
	require.NoError(t, err)
	require.EqualValues(t, 0, result.UnreadCount)
}

func TestNotificationMarkAllRead(t *testing.T) {
	service := newNotificationService(t)
	owner := uuid.NewString()
	other := uuid.NewString()

	seedNotification(t, service, owner, models.NotificationSystem)
	seedNotification(t, service, owner, models.NotificationTeamInvite)
	seedNotification(t, service, other, models.NotificationSystem)

	updated, err := service.MarkAllRead(context.Background(), owner)
	require.NoError(t, err)
	require.EqualValues(t, 2, updated)

	result, err := service.ListForUser(context.Background(), ListNotificationsInput{UserID: owner})
	require.NoError(t, err)
	require.EqualValues(t, 0, result.UnreadCount)

	result, err = service.ListForUser(context.Background(), ListNotificationsInput{UserID: other})
	require.NoError(t, err)
	require.EqualValues(t, 1, result.UnreadCount)
}

func TestNotificationDeleteBatchSkipsForeignRows(t *testing.T) {
	service := newNotificationService(t)
	owner := uuid.NewString()
	other := uuid.NewString()

	first := seedNotification(t, service, owner, models.NotificationSystem)
	second := seedNotification(t, service, owner, models.NotificationSystem)
	theirs := seedNotification(t, service, other, models.NotificationSystem)

	deleted, err := service.DeleteBatch(context.Background(), owner, []string{first.ID, second.ID, theirs.ID})
	require.NoError(t, err)
	require.EqualValues(t, 2, deleted)

	result, err := service.ListForUser(context.Background(), ListNotificationsInput{UserID: owner})
	require.NoError(t, err)
	require.Empty(t, result.Notifications)

	result, err = service.ListForUser(context.Background(), ListNotificationsInput{UserID: other})
	require.NoError(t, err)
	require.Len(t, result.Notifications, 1)
}

func TestNotificationDeleteBatchEmptyInput(t *testing.T) {
	service := newNotificationService(t)

	deleted, err := service.DeleteBatch(context.Background(), uuid.NewString(), nil)
	require.NoError(t, err)
	require.EqualValues(t, 0, deleted)
}
