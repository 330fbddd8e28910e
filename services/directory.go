package services

import (
	"fmt"
	"log/slog"

	"github.com/Akamalshaikh/telegram-bot/database"
	"github.com/Akamalshaikh/telegram-bot/models"
)

// Directory is the durable set of every user who has ever started the bot.
// It is the source of broadcast recipients.
type Directory struct {
	db  *database.Database
	log *slog.Logger
}

func NewDirectory(db *database.Database, log *slog.Logger) *Directory {
	return &Directory{db: db, log: log}
}

// Register adds userID if absent and reports whether the user was already
// known. The write is durable before Register returns nil.
func (d *Directory) Register(userID int64) (alreadyKnown bool, err error) {
	added, err := d.db.AddUser(userID)
	if err != nil {
		return false, fmt.Errorf("register user %d: %w", userID, err)
	}
	return !added, nil
}

// Knows reports whether userID has ever started the bot. Read failures
// degrade to false.
func (d *Directory) Knows(userID int64) bool {
	known, err := d.db.HasUser(userID)
	if err != nil {
		d.log.Error("user lookup failed", "user_id", userID, "error", err)
		return false
	}
	return known
}

// AllUsers returns a snapshot of every registered user id.
func (d *Directory) AllUsers() ([]int64, error) {
	userIDs, err := d.db.GetAllUserIDs()
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return userIDs, nil
}

func (d *Directory) Stats() (*models.Stats, error) {
	stats, err := d.db.GetStats()
	if err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}
	return stats, nil
}

func (d *Directory) Export() (*models.Export, error) {
	export, err := d.db.ExportAll()
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return export, nil
}
