package models

import (
	"fmt"
	"time"
)

// Status is the closed set of ticket lifecycle states. It is stored as its
// string value; anything else is rejected by ParseStatus before it can reach
// the database.
type Status string

const (
	StatusOpen       Status = "Open"
	StatusInProgress Status = "In Progress"
	StatusClosed     Status = "Closed"
	StatusReopened   Status = "Reopened"
)

// ParseStatus maps a raw string onto a Status value.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusOpen, StatusInProgress, StatusClosed, StatusReopened:
		return Status(s), nil
	}
	return "", fmt.Errorf("invalid status value: %q", s)
}

func (s Status) String() string {
	return string(s)
}

type Ticket struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"type:varchar(120);not null"`
	Description string    `json:"description" gorm:"type:text;not null"`
	Status      Status    `json:"status" gorm:"type:varchar(20);not null;default:'Open'"`
	Attachment  string    `json:"attachment,omitempty" gorm:"type:varchar(255)"`
	UserID      uint      `json:"user_id" gorm:"not null;index"`
	User        User      `json:"user,omitempty" gorm:"foreignKey:UserID"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TicketLog is an append-only audit entry recording a status change. Rows are
// only ever created inside the same transaction as the status write.
type TicketLog struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TicketID  uint      `json:"ticket_id" gorm:"not null;index"`
	Action    string    `json:"action" gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `json:"timestamp" gorm:"index"`
}

type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TicketID  uint      `json:"ticket_id" gorm:"not null;index"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"timestamp" gorm:"index"`
	User      User      `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
