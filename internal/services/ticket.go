package services

import (
	"errors"
	"fmt"
	"strings"
	"ticketdesk/internal/config"
	"ticketdesk/internal/models"

	"gorm.io/gorm"
)

var (
	ErrTicketNotFound   = errors.New("ticket not found")
	ErrForbidden        = errors.New("forbidden")
	ErrEmptyQuery       = errors.New("no query provided")
	ErrInvalidStatus    = errors.New("invalid status value")
	ErrTransitionDenied = errors.New("status transition not allowed")
	ErrMissingFields    = errors.New("title and description are required")
)

// allowedTransitions is only consulted when tickets.strict_transitions is set.
// The default behavior matches the historical system: any status may move to
// any other.
var allowedTransitions = map[models.Status][]models.Status{
	models.StatusOpen:       {models.StatusInProgress, models.StatusClosed},
	models.StatusInProgress: {models.StatusOpen, models.StatusClosed},
	models.StatusClosed:     {models.StatusReopened},
	models.StatusReopened:   {models.StatusInProgress, models.StatusClosed},
}

func transitionAllowed(from, to models.Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type TicketService struct {
	cfg     *config.Config
	storage *StorageService
}

func NewTicketService(cfg *config.Config) *TicketService {
	return &TicketService{
		cfg:     cfg,
		storage: NewStorageService(cfg),
	}
}

// Create persists a new ticket with status Open. The attachment argument is
// the generated blob name returned by StorageService, or empty when the
// submission carried no file.
func (s *TicketService) Create(owner *models.User, title, description, attachment string) (*models.Ticket, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(description) == "" {
		return nil, ErrMissingFields
	}

	ticket := &models.Ticket{
		Title:       title,
		Description: description,
		Status:      models.StatusOpen,
		Attachment:  attachment,
		UserID:      owner.ID,
	}

	if err := models.DB.Create(ticket).Error; err != nil {
		return nil, err
	}

	return ticket, nil
}

// ListForOwner returns the caller's tickets. A status or title filter of ""
// or "all" is a no-op; the title filter is a case-insensitive substring match.
func (s *TicketService) ListForOwner(ownerID uint, status, title string) ([]models.Ticket, error) {
	query := models.DB.Where("user_id = ?", ownerID)

	if status != "" && status != "all" {
		query = query.Where("status = ?", status)
	}

	if title != "" && title != "all" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(title)+"%")
	}

	var tickets []models.Ticket
	if err := query.Find(&tickets).Error; err != nil {
		return nil, err
	}
	return tickets, nil
}

// ListAll returns every ticket with its owner preloaded. Admin-only; the
// route layer enforces that.
func (s *TicketService) ListAll() ([]models.Ticket, error) {
	var tickets []models.Ticket
	if err := models.DB.Preload("User").Find(&tickets).Error; err != nil {
		return nil, err
	}
	return tickets, nil
}

// Search matches the query as a case-insensitive substring of title or
// description, across all owners.
func (s *TicketService) Search(queryText string) ([]models.Ticket, error) {
	if queryText == "" {
		return nil, ErrEmptyQuery
	}

	pattern := "%" + strings.ToLower(queryText) + "%"
	var tickets []models.Ticket
	if err := models.DB.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern).Find(&tickets).Error; err != nil {
		return nil, err
	}
	return tickets, nil
}

// GetTicket returns a ticket by ID
func (s *TicketService) GetTicket(id uint) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := models.DB.First(&ticket, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

// UpdateStatus validates and applies a status change on behalf of actor. The
// owner may update their own ticket, an admin any ticket. The status write
// and the audit entry commit in one transaction; a validation or permission
// failure leaves both untouched.
func (s *TicketService) UpdateStatus(actor *models.User, ticketID uint, statusValue string) (*models.Ticket, error) {
	ticket, err := s.GetTicket(ticketID)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin && ticket.UserID != actor.ID {
		return nil, ErrForbidden
	}

	status, err := models.ParseStatus(statusValue)
	if err != nil {
		return nil, ErrInvalidStatus
	}

	if s.cfg.Tickets.StrictTransitions && status != ticket.Status && !transitionAllowed(ticket.Status, status) {
		return nil, ErrTransitionDenied
	}

	// The status is written even when unchanged; whether that still produces
	// an audit entry is a policy knob.
	logEntry := s.cfg.Tickets.LogUnchangedStatus || status != ticket.Status

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Ticket{}).Where("id = ?", ticket.ID).Update("status", status).Error; err != nil {
			return err
		}
		if logEntry {
			log := &models.TicketLog{
				TicketID: ticket.ID,
				Action:   fmt.Sprintf("Status changed to %s", status),
			}
			if err := tx.Create(log).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ticket.Status = status
	return ticket, nil
}

// Delete removes a ticket along with its audit log and comments. Only the
// owner may delete a ticket; there is no admin delete path.
func (s *TicketService) Delete(actor *models.User, ticketID uint) error {
	ticket, err := s.GetTicket(ticketID)
	if err != nil {
		return err
	}

	if ticket.UserID != actor.ID {
		return ErrForbidden
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ticket_id = ?", ticket.ID).Delete(&models.TicketLog{}).Error; err != nil {
			return err
		}
		if err := tx.Where("ticket_id = ?", ticket.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Ticket{}, ticket.ID).Error
	})
	if err != nil {
		return err
	}

	// Blob removal happens after the commit; a leftover file is harmless
	// compared to a dangling ticket row.
	if ticket.Attachment != "" {
		s.storage.Remove(ticket.Attachment)
	}

	return nil
}

// ListLogs returns the audit trail for a ticket, newest first.
func (s *TicketService) ListLogs(ticketID uint) ([]models.TicketLog, error) {
	var logs []models.TicketLog
	if err := models.DB.Where("ticket_id = ?", ticketID).Order("created_at DESC, id DESC").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
