package services

import (
	"fmt"

	"github.com/Akamalshaikh/telegram-bot/database"
	"github.com/Akamalshaikh/telegram-bot/models"
)

// Registry holds the most recently issued claim code per user, for manual
// reward fulfillment by the administrator.
type Registry struct {
	db *database.Database
}

func NewRegistry(db *database.Database) *Registry {
	return &Registry{db: db}
}

// Store records userID's code, overwriting any prior one.
func (r *Registry) Store(userID int64, code string) error {
	if err := r.db.StoreClaimCode(userID, code); err != nil {
		return fmt.Errorf("store claim code for %d: %w", userID, err)
	}
	return nil
}

// LookupAll returns every outstanding (user, code) pair.
func (r *Registry) LookupAll() ([]models.ClaimEntry, error) {
	entries, err := r.db.GetClaimCodes()
	if err != nil {
		return nil, fmt.Errorf("lookup claim codes: %w", err)
	}
	return entries, nil
}
