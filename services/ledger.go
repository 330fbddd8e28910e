package services

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Akamalshaikh/telegram-bot/database"
	"github.com/Akamalshaikh/telegram-bot/models"
)

// Ledger maps each referrer to the ordered, capacity-bounded set of users
// they referred. Points are derived: one point per referral on record.
//
// A single mutex serializes every mutation. Attribution must be exclusive per
// referred user system-wide (a user is credited to at most one referrer,
// ever) and the expected write volume does not justify finer locking.
type Ledger struct {
	mu  sync.Mutex
	db  *database.Database
	cap int
	log *slog.Logger
}

func NewLedger(db *database.Database, capacity int, log *slog.Logger) *Ledger {
	return &Ledger{db: db, cap: capacity, log: log}
}

// Attribute credits referredID to referrerID. The rejection rules are checked
// in order: self-referral, already referred by anyone, referrer at capacity.
// A non-nil error means the durable write failed and nothing was recorded.
func (l *Ledger) Attribute(referrerID, referredID int64) (models.AttributionResult, error) {
	if referrerID == referredID {
		return models.RejectedSelfReferral, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	_, referred, err := l.db.ReferrerOf(referredID)
	if err != nil {
		return models.AttributionNone, fmt.Errorf("attribute %d -> %d: %w", referrerID, referredID, err)
	}
	if referred {
		return models.RejectedAlreadyReferred, nil
	}

	count, err := l.db.CountReferrals(referrerID)
	if err != nil {
		return models.AttributionNone, fmt.Errorf("attribute %d -> %d: %w", referrerID, referredID, err)
	}
	if count >= l.cap {
		return models.RejectedCapReached, nil
	}

	if err := l.db.AddReferral(referrerID, referredID); err != nil {
		return models.AttributionNone, fmt.Errorf("attribute %d -> %d: %w", referrerID, referredID, err)
	}

	return models.AttributionAccepted, nil
}

// PointsOf returns the referrer's current point total. Read failures degrade
// to zero points.
func (l *Ledger) PointsOf(userID int64) int {
	count, err := l.db.CountReferrals(userID)
	if err != nil {
		l.log.Error("referral count failed", "user_id", userID, "error", err)
		return 0
	}
	return count
}

// Referrals returns the referrer's referred users in referral order.
func (l *Ledger) Referrals(userID int64) ([]int64, error) {
	return l.db.GetReferrals(userID)
}

// ResetPoints clears the referrer's set.
func (l *Ledger) ResetPoints(userID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.db.ClearReferrals(userID); err != nil {
		return fmt.Errorf("reset points for %d: %w", userID, err)
	}
	return nil
}

// Redeem stores the claim code and resets the user's points in a single
// durable transaction. Either both happen or neither does.
func (l *Ledger) Redeem(userID int64, code string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.db.RedeemPoints(userID, code); err != nil {
		return fmt.Errorf("redeem points for %d: %w", userID, err)
	}
	return nil
}
