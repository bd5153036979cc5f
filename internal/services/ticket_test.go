package services

import (
	"fmt"
	"os"
	"testing"
	"ticketdesk/internal/config"
	"ticketdesk/internal/models"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB initializes a test database and returns its config
func setupTestDB(t *testing.T) *config.Config {
	tmpDir := t.TempDir()
	testDBPath := fmt.Sprintf("%s/ticketdesk_test_%d.db", tmpDir, time.Now().UnixNano())

	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Type: "sqlite",
			SQLite: config.SQLiteConfig{
				Path: testDBPath,
			},
		},
		JWT: config.JWTConfig{
			Secret:    "test-secret-key-for-testing-only",
			ExpiresIn: "24h",
			Issuer:    "ticketdesk-test",
		},
		Security: config.SecurityConfig{
			BcryptCost: 4,
		},
		Storage: config.StorageConfig{
			UploadsPath: tmpDir + "/uploads",
		},
		Tickets: config.TicketsConfig{
			LogUnchangedStatus: true,
		},
	}

	require.NoError(t, os.MkdirAll(cfg.Storage.UploadsPath, 0755))
	require.NoError(t, models.InitDB(cfg))

	return cfg
}

// cleanupTestDB cleans up the test database
func cleanupTestDB(t *testing.T, cfg *config.Config) {
	if models.DB != nil {
		sqlDB, err := models.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
		if cfg != nil && cfg.Database.Type == "sqlite" {
			os.Remove(cfg.Database.SQLite.Path)
		}
	}
	models.DB = nil
}

func createTestUser(t *testing.T, cfg *config.Config, username string, isAdmin bool) *models.User {
	authService := NewAuthService(cfg)
	user, err := authService.Register(username, username+"@example.com", "password123", isAdmin)
	require.NoError(t, err)
	return user
}

func countLogs(t *testing.T, ticketID uint) int64 {
	var count int64
	require.NoError(t, models.DB.Model(&models.TicketLog{}).Where("ticket_id = ?", ticketID).Count(&count).Error)
	return count
}

func TestUpdateStatus(t *testing.T) {
	cfg := setupTestDB(t)
	defer cleanupTestDB(t, cfg)

	svc := NewTicketService(cfg)
	owner := createTestUser(t, cfg, "owner", false)
	other := createTestUser(t, cfg, "other", false)
	admin := createTestUser(t, cfg, "admin", true)

	t.Run("every valid status is applied and logged once", func(t *testing.T) {
		ticket, err := svc.Create(owner, "Printer jam", "paper stuck", "")
		require.NoError(t, err)

		values := []string{"In Progress", "Closed", "Reopened", "Open"}
		for i, value := range values {
			_, err := svc.UpdateStatus(owner, ticket.ID, value)
			require.NoError(t, err)

			got, err := svc.GetTicket(ticket.ID)
			require.NoError(t, err)
			assert.Equal(t, models.Status(value), got.Status)
			assert.Equal(t, int64(i+1), countLogs(t, ticket.ID))
		}

		logs, err := svc.ListLogs(ticket.ID)
		require.NoError(t, err)
		require.Len(t, logs, len(values))
		// Newest first
		assert.Equal(t, "Status changed to Open", logs[0].Action)
		assert.Equal(t, "Status changed to In Progress", logs[len(logs)-1].Action)
	})

	t.Run("invalid status leaves ticket and log unchanged", func(t *testing.T) {
		ticket, err := svc.Create(owner, "Invalid status target", "details", "")
		require.NoError(t, err)

		_, err = svc.UpdateStatus(owner, ticket.ID, "Done")
		assert.ErrorIs(t, err, ErrInvalidStatus)

		got, err := svc.GetTicket(ticket.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusOpen, got.Status)
		assert.Equal(t, int64(0), countLogs(t, ticket.ID))
	})

	t.Run("non-owner is forbidden, nothing is written", func(t *testing.T) {
		ticket, err := svc.Create(owner, "Keep out", "details", "")
		require.NoError(t, err)

		_, err = svc.UpdateStatus(other, ticket.ID, "Closed")
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Equal(t, int64(0), countLogs(t, ticket.ID))
	})

	t.Run("admin may update any ticket", func(t *testing.T) {
		ticket, err := svc.Create(owner, "Admin reach", "details", "")
		require.NoError(t, err)

		_, err = svc.UpdateStatus(admin, ticket.ID, "In Progress")
		require.NoError(t, err)

		logs, err := svc.ListLogs(ticket.ID)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, "Status changed to In Progress", logs[0].Action)
	})

	t.Run("unchanged status is still logged by default", func(t *testing.T) {
		ticket, err := svc.Create(owner, "Noop logging", "details", "")
		require.NoError(t, err)

		_, err = svc.UpdateStatus(owner, ticket.ID, "Open")
		require.NoError(t, err)
		assert.Equal(t, int64(1), countLogs(t, ticket.ID))
	})

	t.Run("missing ticket", func(t *testing.T) {
		_, err := svc.UpdateStatus(owner, 99999, "Closed")
		assert.ErrorIs(t, err, ErrTicketNotFound)
	})

	t.Run("owner never changes", func(t *testing.T) {
		ticket, err := svc.Create(owner, "Immutable owner", "details", "")
		require.NoError(t, err)

		_, err = svc.UpdateStatus(admin, ticket.ID, "Closed")
		require.NoError(t, err)

		got, err := svc.GetTicket(ticket.ID)
		require.NoError(t, err)
		assert.Equal(t, owner.ID, got.UserID)
	})
}

func TestUpdateStatusPolicies(t *testing.T) {
	cfg := setupTestDB(t)
	defer cleanupTestDB(t, cfg)

	owner := createTestUser(t, cfg, "owner", false)

	t.Run("log only on actual change", func(t *testing.T) {
		quiet := *cfg
		quiet.Tickets.LogUnchangedStatus = false
		svc := NewTicketService(&quiet)

		ticket, err := svc.Create(owner, "Quiet noop", "details", "")
		require.NoError(t, err)

		_, err = svc.UpdateStatus(owner, ticket.ID, "Open")
		require.NoError(t, err)
		assert.Equal(t, int64(0), countLogs(t, ticket.ID))

		_, err = svc.UpdateStatus(owner, ticket.ID, "Closed")
		require.NoError(t, err)
		assert.Equal(t, int64(1), countLogs(t, ticket.ID))
	})

	t.Run("strict transitions", func(t *testing.T) {
		strict := *cfg
		strict.Tickets.StrictTransitions = true
		svc := NewTicketService(&strict)

		ticket, err := svc.Create(owner, "Strict workflow", "details", "")
		require.NoError(t, err)

		// Open -> Reopened is not in the table
		_, err = svc.UpdateStatus(owner, ticket.ID, "Reopened")
		assert.ErrorIs(t, err, ErrTransitionDenied)
		assert.Equal(t, int64(0), countLogs(t, ticket.ID))

		// Open -> Closed -> Reopened is
		_, err = svc.UpdateStatus(owner, ticket.ID, "Closed")
		require.NoError(t, err)
		_, err = svc.UpdateStatus(owner, ticket.ID, "Reopened")
		require.NoError(t, err)

		// Closed -> Open is denied
		_, err = svc.UpdateStatus(owner, ticket.ID, "Closed")
		require.NoError(t, err)
		_, err = svc.UpdateStatus(owner, ticket.ID, "Open")
		assert.ErrorIs(t, err, ErrTransitionDenied)

		// Same-status writes bypass the table
		_, err = svc.UpdateStatus(owner, ticket.ID, "Closed")
		require.NoError(t, err)
	})
}

func TestListForOwner(t *testing.T) {
	cfg := setupTestDB(t)
	defer cleanupTestDB(t, cfg)

	svc := NewTicketService(cfg)
	alice := createTestUser(t, cfg, "alice", false)
	bob := createTestUser(t, cfg, "bob", false)

	open, err := svc.Create(alice, "Printer jam", "paper stuck", "")
	require.NoError(t, err)
	closed, err := svc.Create(alice, "Broken screen", "cracked glass", "")
	require.NoError(t, err)
	_, err = svc.UpdateStatus(alice, closed.ID, "Closed")
	require.NoError(t, err)
	bobsClosed, err := svc.Create(bob, "Printer noise", "loud clicking", "")
	require.NoError(t, err)
	_, err = svc.UpdateStatus(bob, bobsClosed.ID, "Closed")
	require.NoError(t, err)

	t.Run("no filters returns all owned tickets", func(t *testing.T) {
		tickets, err := svc.ListForOwner(alice.ID, "", "")
		require.NoError(t, err)
		assert.Len(t, tickets, 2)
	})

	t.Run("status filter restricts to exact match of own tickets", func(t *testing.T) {
		tickets, err := svc.ListForOwner(alice.ID, "Closed", "")
		require.NoError(t, err)
		require.Len(t, tickets, 1)
		assert.Equal(t, closed.ID, tickets[0].ID)
		assert.Equal(t, alice.ID, tickets[0].UserID)
	})

	t.Run("all sentinel disables the filter", func(t *testing.T) {
		tickets, err := svc.ListForOwner(alice.ID, "all", "all")
		require.NoError(t, err)
		assert.Len(t, tickets, 2)
	})

	t.Run("title filter is a case-insensitive substring", func(t *testing.T) {
		tickets, err := svc.ListForOwner(alice.ID, "", "PRINT")
		require.NoError(t, err)
		require.Len(t, tickets, 1)
		assert.Equal(t, open.ID, tickets[0].ID)
	})
}

func TestSearch(t *testing.T) {
	cfg := setupTestDB(t)
	defer cleanupTestDB(t, cfg)

	svc := NewTicketService(cfg)
	alice := createTestUser(t, cfg, "alice", false)
	bob := createTestUser(t, cfg, "bob", false)

	_, err := svc.Create(alice, "Printer jam", "paper stuck", "")
	require.NoError(t, err)
	_, err = svc.Create(bob, "Login broken", "the PRINTER page hangs", "")
	require.NoError(t, err)
	_, err = svc.Create(bob, "Slow network", "downloads crawl", "")
	require.NoError(t, err)

	t.Run("empty query is rejected", func(t *testing.T) {
		_, err := svc.Search("")
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})

	t.Run("matches title or description across owners", func(t *testing.T) {
		tickets, err := svc.Search("printer")
		require.NoError(t, err)
		assert.Len(t, tickets, 2)
	})

	t.Run("non-matching query returns nothing", func(t *testing.T) {
		tickets, err := svc.Search("keyboard")
		require.NoError(t, err)
		assert.Empty(t, tickets)
	})
}

func TestDeleteTicket(t *testing.T) {
	cfg := setupTestDB(t)
	defer cleanupTestDB(t, cfg)

	svc := NewTicketService(cfg)
	commentSvc := NewCommentService(cfg)
	owner := createTestUser(t, cfg, "owner", false)
	other := createTestUser(t, cfg, "other", false)
	admin := createTestUser(t, cfg, "admin", true)

	t.Run("delete cascades to logs and comments", func(t *testing.T) {
		ticket, err := svc.Create(owner, "Doomed", "will be deleted", "")
		require.NoError(t, err)

		_, err = svc.UpdateStatus(owner, ticket.ID, "In Progress")
		require.NoError(t, err)
		_, err = commentSvc.Create(other, ticket.ID, "looking into it")
		require.NoError(t, err)

		require.NoError(t, svc.Delete(owner, ticket.ID))

		_, err = svc.GetTicket(ticket.ID)
		assert.ErrorIs(t, err, ErrTicketNotFound)
		assert.Equal(t, int64(0), countLogs(t, ticket.ID))

		var comments int64
		require.NoError(t, models.DB.Model(&models.Comment{}).Where("ticket_id = ?", ticket.ID).Count(&comments).Error)
		assert.Equal(t, int64(0), comments)
	})

	t.Run("only the owner may delete, even admins are denied", func(t *testing.T) {
		ticket, err := svc.Create(owner, "Sticky", "details", "")
		require.NoError(t, err)

		assert.ErrorIs(t, svc.Delete(other, ticket.ID), ErrForbidden)
		assert.ErrorIs(t, svc.Delete(admin, ticket.ID), ErrForbidden)

		_, err = svc.GetTicket(ticket.ID)
		assert.NoError(t, err)
	})

	t.Run("missing ticket", func(t *testing.T) {
		assert.ErrorIs(t, svc.Delete(owner, 99999), ErrTicketNotFound)
	})
}

func TestCreateTicketValidation(t *testing.T) {
	cfg := setupTestDB(t)
	defer cleanupTestDB(t, cfg)

	svc := NewTicketService(cfg)
	owner := createTestUser(t, cfg, "owner", false)

	_, err := svc.Create(owner, "", "details", "")
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = svc.Create(owner, "Title", "   ", "")
	assert.ErrorIs(t, err, ErrMissingFields)

	ticket, err := svc.Create(owner, "Title", "details", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusOpen, ticket.Status)
	assert.Equal(t, owner.ID, ticket.UserID)
	assert.Equal(t, int64(0), countLogs(t, ticket.ID))
}
