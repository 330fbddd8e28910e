package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"sync"
)

var (
	// ErrInsufficientPoints blocks a withdrawal request below the threshold.
	ErrInsufficientPoints = errors.New("not enough points to withdraw")
	// ErrNoActiveSession means there is nothing to confirm or cancel.
	ErrNoActiveSession = errors.New("no withdrawal awaiting confirmation")
)

// Workflow is the two-step withdrawal protocol: a user with enough points
// opens a session, then either confirms (issuing a claim code and resetting
// points, atomically) or cancels. Sessions are in-memory only; they are a
// short-lived confirmation step, not a reward record, so losing them on
// restart is acceptable.
type Workflow struct {
	mu        sync.Mutex
	requested map[int64]struct{}
	ledger    *Ledger
	minPoints int
	log       *slog.Logger
}

func NewWorkflow(ledger *Ledger, minPoints int, log *slog.Logger) *Workflow {
	return &Workflow{
		requested: make(map[int64]struct{}),
		ledger:    ledger,
		minPoints: minPoints,
		log:       log,
	}
}

func (w *Workflow) MinPoints() int {
	return w.minPoints
}

// Request opens a withdrawal session for userID. A prior session for the same
// user is silently replaced, last request wins.
func (w *Workflow) Request(userID int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.ledger.PointsOf(userID) < w.minPoints {
		return ErrInsufficientPoints
	}

	w.requested[userID] = struct{}{}
	return nil
}

// Confirm closes userID's open session, issues a fresh 6-digit claim code and
// resets the user's points. Code issuance and the point reset commit
// together; on a persistence failure the session stays open so the user can
// retry.
func (w *Workflow) Confirm(userID int64) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, open := w.requested[userID]; !open {
		return "", ErrNoActiveSession
	}

	code, err := newClaimCode()
	if err != nil {
		return "", fmt.Errorf("generate claim code: %w", err)
	}

	if err := w.ledger.Redeem(userID, code); err != nil {
		return "", err
	}

	delete(w.requested, userID)
	w.log.Info("withdrawal confirmed", "user_id", userID)
	return code, nil
}

// Cancel closes userID's open session with no effect on points or codes.
func (w *Workflow) Cancel(userID int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, open := w.requested[userID]; !open {
		return ErrNoActiveSession
	}

	delete(w.requested, userID)
	return nil
}

// newClaimCode returns six random digits. Collisions between codes are not
// checked; the administrator redeems them keyed by user id.
func newClaimCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}
