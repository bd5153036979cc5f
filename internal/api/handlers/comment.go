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

type CommentHandler struct {
	commentService *services.CommentService
}

func NewCommentHandler(cfg *config.Config) *CommentHandler {
	return &CommentHandler{
		commentService: services.NewCommentService(cfg),
	}
}

type CreateCommentRequest struct {
	Content string `json:"content"`
}

type CommentResponse struct {
	ID        uint      `json:"id"`
	Content   string    `json:"content"`
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

func commentResponse(c models.Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		Content:   c.Content,
		UserID:    c.UserID,
		Username:  c.User.Username,
		Timestamp: c.CreatedAt,
	}
}

// CreateComment adds a comment to a ticket
func (h *CommentHandler) CreateComment(c *gin.Context) {
	user := c.MustGet("user").(*models.User)

	ticketID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid ticket ID"})
		return
	}

	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	comment, err := h.commentService.Create(user, uint(ticketID), req.Content)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyContent):
			c.JSON(400, gin.H{"error": "Comment content is required"})
		case errors.Is(err, services.ErrTicketNotFound):
			c.JSON(404, gin.H{"error": "Ticket not found"})
		default:
			c.JSON(500, gin.H{"error": "Failed to create comment"})
		}
		return
	}

	c.JSON(201, commentResponse(*comment))
}

// GetComments lists a ticket's comments, newest first
func (h *CommentHandler) GetComments(c *gin.Context) {
	ticketID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid ticket ID"})
		return
	}

	comments, err := h.commentService.ListForTicket(uint(ticketID))
	if err != nil {
		if errors.Is(err, services.ErrTicketNotFound) {
			c.JSON(404, gin.H{"error": "Ticket not found"})
			return
		}
		c.JSON(500, gin.H{"error": "Failed to list comments"})
		return
	}

	out := make([]CommentResponse, 0, len(comments))
	for _, comment := range comments {
		out = append(out, commentResponse(comment))
	}
	c.JSON(200, out)
}

// DeleteComment removes a comment (author or admin only)
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	user := c.MustGet("user").(*models.User)

	commentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid comment ID"})
		return
	}

	if err := h.commentService.Delete(user, uint(commentID)); err != nil {
		switch {
		case errors.Is(err, services.ErrCommentNotFound):
			c.JSON(404, gin.H{"error": "Comment not found"})
		case errors.Is(err, services.ErrForbidden):
			c.JSON(403, gin.H{"error": "Forbidden"})
		default:
			c.JSON(500, gin.H{"error": "Failed to delete comment"})
		}
		return
	}

	c.JSON(200, gin.H{"message": "Comment deleted successfully"})
}
