package handlers

import (
	"errors"
	"strconv"
	"ticketdesk/internal/config"
	"ticketdesk/internal/models"
	"ticketdesk/internal/services"

	"github.com/gin-gonic/gin"
)

type TicketHandler struct {
	ticketService  *services.TicketService
	storageService *services.StorageService
}

func NewTicketHandler(cfg *config.Config) *TicketHandler {
	return &TicketHandler{
		ticketService:  services.NewTicketService(cfg),
		storageService: services.NewStorageService(cfg),
	}
}

type TicketResponse struct {
	ID            uint   `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Status        string `json:"status"`
	AttachmentURL string `json:"attachment_url,omitempty"`
}

type UpdateTicketRequest struct {
	Status string `json:"status" binding:"required"`
}

func ticketResponse(t models.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status.String(),
	}
	if t.Attachment != "" {
		resp.AttachmentURL = "/uploads/" + t.Attachment
	}
	return resp
}

func ticketResponses(tickets []models.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, ticketResponse(t))
	}
	return out
}

// CreateTicket creates a ticket from a multipart form with an optional
// attachment
func (h *TicketHandler) CreateTicket(c *gin.Context) {
	user := c.MustGet("user").(*models.User)

	title := c.PostForm("title")
	description := c.PostForm("description")

	attachment := ""
	if file, err := c.FormFile("attachment"); err == nil {
		src, err := file.Open()
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to read attachment"})
			return
		}
		defer src.Close()

		attachment, err = h.storageService.Save(src, file.Filename)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to store attachment"})
			return
		}
	}

	ticket, err := h.ticketService.Create(user, title, description, attachment)
	if err != nil {
		if errors.Is(err, services.ErrMissingFields) {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		c.JSON(500, gin.H{"error": "Failed to create ticket"})
		return
	}

	c.JSON(201, gin.H{"message": "Ticket created successfully", "id": ticket.ID})
}

// GetTickets lists the caller's tickets with optional status and title
// filters
func (h *TicketHandler) GetTickets(c *gin.Context) {
	user := c.MustGet("user").(*models.User)

	tickets, err := h.ticketService.ListForOwner(user.ID, c.Query("status"), c.Query("title"))
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to list tickets"})
		return
	}

	c.JSON(200, ticketResponses(tickets))
}

// SearchTickets searches title and description across all tickets
func (h *TicketHandler) SearchTickets(c *gin.Context) {
	tickets, err := h.ticketService.Search(c.Query("query"))
	if err != nil {
		if errors.Is(err, services.ErrEmptyQuery) {
			c.JSON(400, gin.H{"error": "No query provided"})
			return
		}
		c.JSON(500, gin.H{"error": "Search failed"})
		return
	}

	c.JSON(200, ticketResponses(tickets))
}

// UpdateTicket applies a status change to a ticket
func (h *TicketHandler) UpdateTicket(c *gin.Context) {
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
		case errors.Is(err, services.ErrForbidden):
			c.JSON(403, gin.H{"error": "Forbidden"})
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

// DeleteTicket removes a ticket together with its logs and comments
func (h *TicketHandler) DeleteTicket(c *gin.Context) {
	user := c.MustGet("user").(*models.User)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid ticket ID"})
		return
	}

	if err := h.ticketService.Delete(user, uint(id)); err != nil {
		switch {
		case errors.Is(err, services.ErrTicketNotFound):
			c.JSON(404, gin.H{"error": "Ticket not found"})
		case errors.Is(err, services.ErrForbidden):
			c.JSON(403, gin.H{"error": "Forbidden"})
		default:
			c.JSON(500, gin.H{"error": "Failed to delete ticket"})
		}
		return
	}

	c.JSON(200, gin.H{"message": "Ticket deleted successfully"})
}

// GetAttachment serves a stored attachment blob by its generated name
func (h *TicketHandler) GetAttachment(c *gin.Context) {
	path, err := h.storageService.Path(c.Param("name"))
	if err != nil {
		c.JSON(404, gin.H{"error": "Attachment not found"})
		return
	}

	c.File(path)
}
