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
	apperrors "github.com/tenderhq/tenderdesk/pkg/errors"
	"github.com/tenderhq/tenderdesk/pkg/logger"
	"github.com/tenderhq/tenderdesk/pkg/mail"
)

const defaultInviteTTL = 7 * 24 * time.Hour

// TeamService manages teams and the invite flow that produces TEAM_INVITE
// notifications.
type TeamService struct {
	db            *gorm.DB
	notifications *NotificationService
	mailer        mail.Mailer
	inviteTTL     time.Duration
	log           *zap.Logger
}

// NewTeamService constructs a TeamService. The mailer may be nil; invites then
// rely on the in-app notification alone.
func NewTeamService(db *gorm.DB, notifications *NotificationService, mailer mail.Mailer) (*TeamService, error) {
	if db == nil {
		return nil, errors.New("team service: db is required")
	}
	if notifications == nil {
		return nil, errors.New("team service: notification service is required")
	}
	return &TeamService{
		db:            db,
		notifications: notifications,
		mailer:        mailer,
		inviteTTL:     defaultInviteTTL,
		log:           logger.WithModule("teams"),
	}, nil
}

// Create registers a team owned by the supplied user, who becomes its first member.
func (s *TeamService) Create(ctx context.Context, ownerID, name, description string) (*models.Team, error) {
	ctx = ensureContext(ctx)

	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, errors.New("team service: owner id is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.NewValidation([]apperrors.FieldError{{Field: "name", Message: "name is required"}})
	}

	team := models.Team{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		OwnerID:     ownerID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&team).Error; err != nil {
			return err
		}
		var owner models.User
		if err := tx.First(&owner, "id = ?", ownerID).Error; err != nil {
			return err
		}
		return tx.Model(&team).Association("Users").Append(&owner)
	})
	if err != nil {
		return nil, fmt.Errorf("team service: create team: %w", err)
	}

	return &team, nil
}

// Get loads a team the supplied user belongs to.
func (s *TeamService) Get(ctx context.Context, userID, teamID string) (*models.Team, error) {
	ctx = ensureContext(ctx)

	var team models.Team
	err := s.db.WithContext(ctx).
		Joins("JOIN user_teams ON user_teams.team_id = teams.id AND user_teams.user_id = ?", userID).
		Preload("Users").
		First(&team, "teams.id = ?", teamID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("team service: load team: %w", err)
	}
	return &team, nil
}

// ListForUser returns the teams the user belongs to.
func (s *TeamService) ListForUser(ctx context.Context, userID string) ([]models.Team, error) {
	ctx = ensureContext(ctx)

	var teams []models.Team
	err := s.db.WithContext(ctx).
		Joins("JOIN user_teams ON user_teams.team_id = teams.id AND user_teams.user_id = ?", userID).
		Find(&teams).Error
	if err != nil {
		return nil, fmt.Errorf("team service: list teams: %w", err)
	}
	return teams, nil
}

// Invite records an invitation to join a team. When the invitee already has an
// account a TEAM_INVITE notification is created for them; when SMTP is enabled
// an email goes out as well.
func (s *TeamService) Invite(ctx context.Context, inviterID, teamID, email string) (*models.TeamInvite, error) {
	ctx = ensureContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperrors.NewValidation([]apperrors.FieldError{{Field: "email", Message: "email is required"}})
	}

	team, err := s.Get(ctx, inviterID, teamID)
	if err != nil {
		return nil, err
	}

	invite := models.TeamInvite{
		Email:     email,
		TeamID:    team.ID,
		InvitedBy: inviterID,
		ExpiresAt: time.Now().UTC().Add(s.inviteTTL),
	}
	if err := s.db.WithContext(ctx).Create(&invite).Error; err != nil {
		return nil, fmt.Errorf("team service: create invite: %w", err)
	}

	s.notifyInvitee(ctx, team, email)
	s.sendInviteEmail(ctx, team, email)

	return &invite, nil
}

// AcceptInvite marks an invite accepted and adds the user to the team.
func (s *TeamService) AcceptInvite(ctx context.Context, userID, inviteID string) error {
	ctx = ensureContext(ctx)

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return fmt.Errorf("team service: load user: %w", err)
	}

	var invite models.TeamInvite
	err := s.db.WithContext(ctx).
		Where("id = ? AND email = ? AND accepted_at IS NULL", inviteID, user.Email).
		First(&invite).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("team service: load invite: %w", err)
	}

	if time.Now().UTC().After(invite.ExpiresAt) {
		return apperrors.NewBadRequest("invite has expired")
	}

	now := time.Now().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&invite).Update("accepted_at", now).Error; err != nil {
			return err
		}
		team := models.Team{BaseModel: models.BaseModel{ID: invite.TeamID}}
		return tx.Model(&team).Association("Users").Append(&user)
	})
}

func (s *TeamService) notifyInvitee(ctx context.Context, team *models.Team, email string) {
	var invitee models.User
	if err := s.db.WithContext(ctx).First(&invitee, "email = ?", email).Error; err != nil {
		// Invitee has no account yet; the email is the only channel.
		return
	}

	if _, err := s.notifications.Create(ctx, CreateNotificationInput{
		UserID:  invitee.ID,
		Type:    models.NotificationTeamInvite,
		Title:   "Invitation équipe",
		Message: fmt.Sprintf("Vous avez été invité à rejoindre l'équipe %s.", team.Name),
		Metadata: map[string]any{
			"team_id":   team.ID,
			"team_name": team.Name,
		},
	}); err != nil {
		s.log.Warn("invite notification failed", zap.String("team_id", team.ID), zap.Error(err))
	}
}

func (s *TeamService) sendInviteEmail(ctx context.Context, team *models.Team, email string) {
	if s.mailer == nil {
		return
	}

	err := s.mailer.Send(ctx, mail.Message{
		To:      []string{email},
		Subject: fmt.Sprintf("Invitation to join %s on TenderDesk", team.Name),
		Body:    fmt.Sprintf("You have been invited to join the team %s. Sign in to accept.", team.Name),
	})
	if err != nil && !errors.Is(err, mail.ErrSMTPDisabled) {
		s.log.Warn("invite email failed", zap.String("email", email), zap.Error(err))
	}
}
