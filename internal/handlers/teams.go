package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tenderhq/tenderdesk/internal/services"
	"github.com/tenderhq/tenderdesk/pkg/response"
)

// TeamHandler exposes team and invite endpoints.
type TeamHandler struct {
	service *services.TeamService
}

// NewTeamHandler constructs a TeamHandler.
func NewTeamHandler(service *services.TeamService) *TeamHandler {
	return &TeamHandler{service: service}
}

type createTeamRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=1024"`
}

type inviteRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// List returns the teams the caller belongs to.
// GET /api/teams
func (h *TeamHandler) List(c *gin.Context) {
	teams, err := h.service.ListForUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"teams": teams})
}

// Get returns a team the caller belongs to, members included.
// GET /api/teams/:id
func (h *TeamHandler) Get(c *gin.Context) {
	team, err := h.service.Get(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"team": team})
}

// Create registers a team owned by the caller.
// POST /api/teams
func (h *TeamHandler) Create(c *gin.Context) {
	var req createTeamRequest
	if err := bindAndValidate(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	team, err := h.service.Create(c.Request.Context(), currentUserID(c), req.Name, req.Description)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"team": team})
}

// Invite records an invitation to join the team.
// POST /api/teams/:id/invites
func (h *TeamHandler) Invite(c *gin.Context) {
	var req inviteRequest
	if err := bindAndValidate(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	invite, err := h.service.Invite(c.Request.Context(), currentUserID(c), c.Param("id"), req.Email)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"invite": invite})
}

// AcceptInvite accepts a pending invitation addressed to the caller's email.
// POST /api/invites/:id/accept
func (h *TeamHandler) AcceptInvite(c *gin.Context) {
	if err := h.service.AcceptInvite(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"accepted": true})
}
