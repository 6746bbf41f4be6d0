package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tenderhq/tenderdesk/internal/database/testutil"
	"github.com/tenderhq/tenderdesk/internal/models"
	apperrors "github.com/tenderhq/tenderdesk/pkg/errors"
)

func newTenderFixture(t *testing.T) (*TenderService, *NotificationService, *gorm.DB) {
	t.Helper()

	db := testutil.MustOpenTestDB(t)
	notifications, err := NewNotificationService(db, nil)
	require.NoError(t, err)
	tenders, err := NewTenderService(db, nil, notifications)
	require.NoError(t, err)
	return tenders, notifications, db
}

func TestTenderCreateAndGet(t *testing.T) {
	tenders, _, _ := newTenderFixture(t)
	owner := uuid.NewString()

	deadline := time.Now().UTC().Add(48 * time.Hour)
	created, err := tenders.Create(context.Background(), CreateTenderInput{
		OwnerID:  owner,
		Title:    "Road maintenance 2026",
		Buyer:    "City of Lyon",
		Deadline: &deadline,
	})
	require.NoError(t, err)
	require.Equal(t, models.TenderStatusDraft, created.Status)

	loaded, err := tenders.Get(context.Background(), owner, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, loaded.ID)

	// Other users cannot see the tender.
	_, err = tenders.Get(context.Background(), uuid.NewString(), created.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestTenderListOrdersByDeadline(t *testing.T) {
	tenders, _, _ := newTenderFixture(t)
	owner := uuid.NewString()

	far := time.Now().UTC().Add(10 * 24 * time.Hour)
	near := time.Now().UTC().Add(24 * time.Hour)

	_, err := tenders.Create(context.Background(), CreateTenderInput{OwnerID: owner, Title: "no deadline"})
	require.NoError(t, err)
	_, err = tenders.Create(context.Background(), CreateTenderInput{OwnerID: owner, Title: "far", Deadline: &far})
	require.NoError(t, err)
	_, err = tenders.Create(context.Background(), CreateTenderInput{OwnerID: owner, Title: "near", Deadline: &near})
	require.NoError(t, err)

	rows, err := tenders.ListForOwner(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "near", rows[0].Title)
	require.Equal(t, "far", rows[1].Title)
	require.Equal(t, "no deadline", rows[2].Title)
}

func TestTenderUpdateRejectsUnknownStatus(t *testing.T) {
	tenders, _, _ := newTenderFixture(t)
	owner := uuid.NewString()

	created, err := tenders.Create(context.Background(), CreateTenderInput{OwnerID: owner, Title: "t"})
	require.NoError(t, err)

	bogus := "celebrated"
	_, err = tenders.Update(context.Background(), owner, created.ID, UpdateTenderInput{Status: &bogus})
	require.Error(t, err)
	require.Equal(t, "status", apperrors.FromError(err).Fields[0].Field)
}

func TestTenderWonCreatesNotification(t *testing.T) {
	tenders, notifications, _ := newTenderFixture(t)
	owner := uuid.NewString()

	created, err := tenders.Create(context.Background(), CreateTenderInput{OwnerID: owner, Title: "Bridge repair"})
	require.NoError(t, err)

	won := models.TenderStatusWon
	_, err = tenders.Update(context.Background(), owner, created.ID, UpdateTenderInput{Status: &won})
	require.NoError(t, err)

	result, err := notifications.ListForUser(context.Background(), ListNotificationsInput{UserID: owner})
	require.NoError(t, err)
	require.Len(t, result.Notifications, 1)
	require.Equal(t, models.NotificationTenderWon, result.Notifications[0].Type)
	require.Equal(t, "/tenders/"+created.ID, result.Notifications[0].Link)

	// Saving the same status again does not duplicate the notification.
	_, err = tenders.Update(context.Background(), owner, created.ID, UpdateTenderInput{Status: &won})
	require.NoError(t, err)

	result, err = notifications.ListForUser(context.Background(), ListNotificationsInput{UserID: owner})
	require.NoError(t, err)
	require.Len(t, result.Notifications, 1)
}

func TestTenderDeleteScopedToOwner(t *testing.T) {
	tenders, _, _ := newTenderFixture(t)
	owner := uuid.NewString()

	created, err := tenders.Create(context.Background(), CreateTenderInput{OwnerID: owner, Title: "t"})
	require.NoError(t, err)

	err = tenders.Delete(context.Background(), uuid.NewString(), created.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, tenders.Delete(context.Background(), owner, created.ID))
	_, err = tenders.Get(context.Background(), owner, created.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}
