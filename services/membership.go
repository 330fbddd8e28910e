package services

import (
	"context"

	"github.com/Akamalshaikh/telegram-bot/models"
)

// MembershipGate answers whether a user currently belongs to the required
// channel. A non-nil error means the check itself could not be performed;
// callers must treat that as "cannot verify right now", never as a membership
// verdict.
type MembershipGate interface {
	IsMember(ctx context.Context, userID int64) (models.MembershipStatus, error)
}
