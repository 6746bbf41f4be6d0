package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tenderhq/tenderdesk/internal/services"
	"github.com/tenderhq/tenderdesk/pkg/response"
)

// TenderHandler exposes tender CRUD endpoints.
type TenderHandler struct {
	service *services.TenderService
}

// NewTenderHandler constructs a TenderHandler.
func NewTenderHandler(service *services.TenderService) *TenderHandler {
	return &TenderHandler{service: service}
}

type createTenderRequest struct {
	Title     string     `json:"title" validate:"required,max=255"`
	Reference string     `json:"reference" validate:"max=128"`
	Buyer     string     `json:"buyer" validate:"max=255"`
	Deadline  *time.Time `json:"deadline"`
	TeamID    string     `json:"team_id" validate:"omitempty,uuid"`
}

type updateTenderRequest struct {
	Title    *string    `json:"title"`
	Buyer    *string    `json:"buyer"`
	Status   *string    `json:"status"`
	Deadline *time.Time `json:"deadline"`
}

// List returns the caller's tenders.
// GET /api/tenders
func (h *TenderHandler) List(c *gin.Context) {
	tenders, err := h.service.ListForOwner(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"tenders": tenders})
}

// Get returns a single tender owned by the caller.
// GET /api/tenders/:id
func (h *TenderHandler) Get(c *gin.Context) {
	tender, err := h.service.Get(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"tender": tender})
}

// Create registers a tender owned by the caller.
// POST /api/tenders
func (h *TenderHandler) Create(c *gin.Context) {
	var req createTenderRequest
	if err := bindAndValidate(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	tender, err := h.service.Create(c.Request.Context(), services.CreateTenderInput{
		OwnerID:   currentUserID(c),
		Title:     req.Title,
		Reference: req.Reference,
		Buyer:     req.Buyer,
		Deadline:  req.Deadline,
		TeamID:    req.TeamID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"tender": tender})
}

// Update mutates a tender owned by the caller.
// PATCH /api/tenders/:id
func (h *TenderHandler) Update(c *gin.Context) {
	var req updateTenderRequest
	if err := bindAndValidate(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	tender, err := h.service.Update(c.Request.Context(), currentUserID(c), c.Param("id"), services.UpdateTenderInput{
		Title:    req.Title,
		Buyer:    req.Buyer,
		Status:   req.Status,
		Deadline: req.Deadline,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"tender": tender})
}

// Delete removes a tender owned by the caller.
// DELETE /api/tenders/:id
func (h *TenderHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
