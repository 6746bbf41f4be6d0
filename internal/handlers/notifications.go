package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/tenderhq/tenderdesk/internal/auth"
	"github.com/tenderhq/tenderdesk/internal/realtime"
	"github.com/tenderhq/tenderdesk/internal/services"
	apperrors "github.com/tenderhq/tenderdesk/pkg/errors"
	"github.com/tenderhq/tenderdesk/pkg/response"
)

// NotificationHandler exposes the notification REST and realtime endpoints.
type NotificationHandler struct {
	service *services.NotificationService
	hub     *realtime.Hub
	jwt     *iauth.JWTService
}

// NewNotificationHandler constructs a NotificationHandler.
func NewNotificationHandler(service *services.NotificationService, hub *realtime.Hub, jwt *iauth.JWTService) *NotificationHandler {
	return &NotificationHandler{service: service, hub: hub, jwt: jwt}
}

type createNotificationRequest struct {
	Type     string         `json:"type" validate:"required,notification_type"`
	Title    string         `json:"title" validate:"required,max=255"`
	Message  string         `json:"message" validate:"required"`
	Link     string         `json:"link"`
	TenderID string         `json:"tender_id"`
	Metadata map[string]any `json:"metadata"`
}

type updateReadStateRequest struct {
	NotificationIDs []string `json:"notification_ids"`
	MarkAllRead     bool     `json:"mark_all_read"`
}

type deleteNotificationsRequest struct {
	NotificationIDs []string `json:"notification_ids" validate:"required,min=1"`
}

// List returns the caller's notifications plus their unread count.
// GET /api/notifications?unread_only=true&limit=50
func (h *NotificationHandler) List(c *gin.Context) {
	userID := currentUserID(c)

	result, err := h.service.ListForUser(c.Request.Context(), services.ListNotificationsInput{
		UserID:     userID,
		UnreadOnly: parseBoolQuery(c, "unread_only"),
		Limit:      parseIntQuery(c, "limit", 0),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// Create persists a notification addressed to the caller.
// POST /api/notifications
func (h *NotificationHandler) Create(c *gin.Context) {
	var req createNotificationRequest
	if err := bindAndValidate(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	notification, err := h.service.Create(c.Request.Context(), services.CreateNotificationInput{
		UserID:   currentUserID(c),
		Type:     req.Type,
		Title:    req.Title,
		Message:  req.Message,
		Link:     req.Link,
		TenderID: req.TenderID,
		Metadata: req.Metadata,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"notification": notification})
}

// UpdateReadState marks specific notifications, or all of them, as read.
// PATCH /api/notifications
func (h *NotificationHandler) UpdateReadState(c *gin.Context) {
	var req updateReadStateRequest
	if err := bindAndValidate(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	userID := currentUserID(c)

	if req.MarkAllRead {
		updated, err := h.service.MarkAllRead(c.Request.Context(), userID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, http.StatusOK, gin.H{"updated_count": updated})
		return
	}

	if len(req.NotificationIDs) == 0 {
		response.Error(c, apperrors.NewValidation([]apperrors.FieldError{
			{Field: "notification_ids", Message: "notification_ids is required unless mark_all_read is set"},
		}))
		return
	}

	updated, err := h.service.MarkRead(c.Request.Context(), userID, req.NotificationIDs)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"updated_count": updated})
}

// Delete removes a batch of the caller's notifications. The reported count is
// the number of ids requested; ids the caller does not own are silently
// skipped by the ownership filter.
// DELETE /api/notifications
func (h *NotificationHandler) Delete(c *gin.Context) {
	var req deleteNotificationsRequest
	if err := bindAndValidate(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	if _, err := h.service.DeleteBatch(c.Request.Context(), currentUserID(c), req.NotificationIDs); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted_count": len(req.NotificationIDs)})
}

// Stream upgrades the request to a WebSocket subscribed to the caller's
// notification events. Browsers cannot set an Authorization header on a
// WebSocket handshake, so the token is also accepted as a query parameter.
// GET /api/notifications/stream?token=...&streams=notifications,tenders
func (h *NotificationHandler) Stream(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		token := strings.TrimSpace(c.Query("token"))
		if token == "" {
			if authz := c.GetHeader("Authorization"); len(authz) > 7 && strings.EqualFold(authz[:7], "Bearer ") {
				token = strings.TrimSpace(authz[7:])
			}
		}
		if token == "" {
			response.Error(c, apperrors.ErrUnauthorized)
			return
		}
		claims, err := h.jwt.ValidateAccessToken(token)
		if err != nil {
			response.Error(c, apperrors.ErrUnauthorized)
			return
		}
		userID = claims.UserID
	}

	streams := []string{realtime.StreamNotifications}
	if raw := strings.TrimSpace(c.Query("streams")); raw != "" {
		streams = strings.Split(raw, ",")
	}

	h.hub.Serve(userID, streams, c.Writer, c.Request)
}
