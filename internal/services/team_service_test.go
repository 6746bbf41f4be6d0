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

func newTeamFixture(t *testing.T) (*TeamService, *NotificationService, *gorm.DB) {
	t.Helper()

	db := testutil.MustOpenTestDB(t)
	notifications, err := NewNotificationService(db, nil)
	require.NoError(t, err)
	teams, err := NewTeamService(db, notifications, nil)
	require.NoError(t, err)
	return teams, notifications, db
}

func seedUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	user := models.User{
		ID:       uuid.NewString(),
		Email:    email,
		Password: "x",
		IsActive: true,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func TestTeamCreateAddsOwnerAsMember(t *testing.T) {
	teams, _, db := newTeamFixture(t)
	owner := seedUser(t, db, "owner@example.com")

	team, err := teams.Create(context.Background(), owner.ID, "Bid squad", "")
	require.NoError(t, err)

	loaded, err := teams.Get(context.Background(), owner.ID, team.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Users, 1)
	require.Equal(t, owner.ID, loaded.Users[0].ID)

	// Non-members cannot load the team.
	stranger := seedUser(t, db, "stranger@example.com")
	_, err = teams.Get(context.Background(), stranger.ID, team.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestTeamInviteNotifiesExistingAccount(t *testing.T) {
	teams, notifications, db := newTeamFixture(t)
	owner := seedUser(t, db, "owner@example.com")
	invitee := seedUser(t, db, "invitee@example.com")

	team, err := teams.Create(context.Background(), owner.ID, "Bid squad", "")
	require.NoError(t, err)

	invite, err := teams.Invite(context.Background(), owner.ID, team.ID, "Invitee@Example.com")
	require.NoError(t, err)
	require.Equal(t, "invitee@example.com", invite.Email)
	require.True(t, invite.ExpiresAt.After(time.Now()))

	result, err := notifications.ListForUser(context.Background(), ListNotificationsInput{UserID: invitee.ID})
	require.NoError(t, err)
	require.Len(t, result.Notifications, 1)
	require.Equal(t, models.NotificationTeamInvite, result.Notifications[0].Type)
}

func TestTeamInviteRequiresMembership(t *testing.T) {
	teams, _, db := newTeamFixture(t)
	owner := seedUser(t, db, "owner@example.com")
	outsider := seedUser(t, db, "outsider@example.com")

	team, err := teams.Create(context.Background(), owner.ID, "Bid squad", "")
	require.NoError(t, err)

	_, err = teams.Invite(context.Background(), outsider.ID, team.ID, "someone@example.com")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestTeamAcceptInvite(t *testing.T) {
	teams, _, db := newTeamFixture(t)
	owner := seedUser(t, db, "owner@example.com")
	invitee := seedUser(t, db, "invitee@example.com")

	team, err := teams.Create(context.Background(), owner.ID, "Bid squad", "")
	require.NoError(t, err)

	invite, err := teams.Invite(context.Background(), owner.ID, team.ID, invitee.Email)
	require.NoError(t, err)

	require.NoError(t, teams.AcceptInvite(context.Background(), invitee.ID, invite.ID))

	memberTeams, err := teams.ListForUser(context.Background(), invitee.ID)
	require.NoError(t, err)
	require.Len(t, memberTeams, 1)
	require.Equal(t, team.ID, memberTeams[0].ID)

	// An invite cannot be accepted twice.
	err = teams.AcceptInvite(context.Background(), invitee.ID, invite.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestTeamAcceptInviteExpired(t *testing.T) {
	teams, _, db := newTeamFixture(t)
	owner := seedUser(t, db, "owner@example.com")
	invitee := seedUser(t, db, "invitee@example.com")

	team, err := teams.Create(context.Background(), owner.ID, "Bid squad", "")
	require.NoError(t, err)

	invite, err := teams.Invite(context.Background(), owner.ID, team.ID, invitee.Email)
	require.NoError(t, err)

	expired := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, db.Model(invite).Update("expires_at", expired).Error)

	err = teams.AcceptInvite(context.Background(), invitee.ID, invite.ID)
	require.Error(t, err)
	require.Equal(t, 400, apperrors.FromError(err).StatusCode)
}
