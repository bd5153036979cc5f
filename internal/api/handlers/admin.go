package handlers

import (
	"errors"
	"strconv"
	"ticketdesk/internal/config"
	"ticketdesk/internal/models"
	"ticketdesk/internal/services"
	"time"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	ticketService *services.TicketService
}

func NewAdminHandler(cfg *config.Config) *AdminHandler {
	return &AdminHandler{
		ticketService: services.NewTicketService(cfg),
	}
}

type AdminTicketResponse struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	User        string `json:"user"`
}

type TicketLogResponse struct {
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// GetAllTickets lists every ticket annotated with its owner's username
func (h *AdminHandler) GetAllTickets(c *gin.Context) {
	tickets, err := h.ticketService.ListAll()
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to list tickets"})
		return
	}

	out := make([]AdminTicketResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, AdminTicketResponse{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Status:      t.Status.String(),
			User:        t.User.Username,
		})
	}
	c.JSON(200, out)
}

// UpdateTicket applies a status change to any ticket regardless of owner
func (h *AdminHandler) UpdateTicket(c *gin.Context) {
	user := c.MustGet("user").(*models.User)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid ticket ID"})
		return
	}

	var req UpdateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	_, err = h.ticketService.UpdateStatus(user, uint(id), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTicketNotFound):
			c.JSON(404, gin.H{"error": "Ticket not found"})
		case errors.Is(err, services.ErrInvalidStatus):
			c.JSON(400, gin.H{"error": "Invalid status value"})
		case errors.Is(err, services.ErrTransitionDenied):
			c.JSON(400, gin.H{"error": "Status transition not allowed"})
		default:
			c.JSON(500, gin.H{"error": "Failed to update ticket"})
		}
		return
	}

	c.JSON(200, gin.H{"message": "Ticket updated successfully"})
}

// GetTicketLogs returns a ticket's audit trail, newest first
func (h *AdminHandler) GetTicketLogs(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid ticket ID"})
		return
	}

	logs, err := h.ticketService.ListLogs(uint(id))
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to list logs"})
		return
	}

	out := make([]TicketLogResponse, 0, len(logs))
	for _, entry := range logs {
		out = append(out, TicketLogResponse{
			Action:    entry.Action,
			Timestamp: entry.CreatedAt,
		})
	}
	c.JSON(200, out)
}
