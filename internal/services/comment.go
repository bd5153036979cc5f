package services

import (
	"errors"
	"strings"
	"ticketdesk/internal/config"
	"ticketdesk/internal/models"

	"gorm.io/gorm"
)

var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrEmptyContent    = errors.New("comment content is required")
)

type CommentService struct {
	cfg *config.Config
}

func NewCommentService(cfg *config.Config) *CommentService {
	return &CommentService{cfg: cfg}
}

// Create adds a comment to an existing ticket. Any authenticated user may
// comment, not just the ticket owner.
func (s *CommentService) Create(author *models.User, ticketID uint, content string) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	var ticket models.Ticket
	if err := models.DB.First(&ticket, ticketID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}

	comment := &models.Comment{
		TicketID: ticket.ID,
		UserID:   author.ID,
		Content:  content,
	}

	if err := models.DB.Create(comment).Error; err != nil {
		return nil, err
	}

	comment.User = *author
	return comment, nil
}

// ListForTicket returns a ticket's comments, newest first, with authors
// preloaded.
func (s *CommentService) ListForTicket(ticketID uint) ([]models.Comment, error) {
	var ticket models.Ticket
	if err := models.DB.First(&ticket, ticketID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}

	var comments []models.Comment
	if err := models.DB.Where("ticket_id = ?", ticketID).Preload("User").Order("created_at DESC, id DESC").Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// Delete removes a comment. Only the author or an admin may delete it.
func (s *CommentService) Delete(actor *models.User, commentID uint) error {
	var comment models.Comment
	if err := models.DB.First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return err
	}

	if comment.UserID != actor.ID && !actor.IsAdmin {
		return ErrForbidden
	}

	return models.DB.Delete(&comment).Error
}
