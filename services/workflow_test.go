package services

import (
	"regexp"
	"testing"

	"github.com/Akamalshaikh/telegram-bot/models"

	"github.com/stretchr/testify/require"
)

var codePattern = regexp.MustCompile(`^\d{6}$`)

func newTestWorkflow(t *testing.T) (*Workflow, *Ledger, *Registry) {
	t.Helper()

	db := newTestDB(t)
	ledger := NewLedger(db, 5, testLogger())
	workflow := NewWorkflow(ledger, 5, testLogger())
	registry := NewRegistry(db)

	return workflow, ledger, registry
}

func earnPoints(t *testing.T, ledger *Ledger, userID int64, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		result, err := ledger.Attribute(userID, userID*1000+int64(i))
		require.NoError(t, err)
		require.Equal(t, models.AttributionAccepted, result)
	}
}

func TestRequestBelowThreshold(t *testing.T) {
	workflow, ledger, _ := newTestWorkflow(t)

	earnPoints(t, ledger, 1, 4)

	err := workflow.Request(1)
	require.ErrorIs(t, err, ErrInsufficientPoints)

	// No session was opened.
	_, err = workflow.Confirm(1)
	require.ErrorIs(t, err, ErrNoActiveSession)
}

func TestRequestConfirmIssuesCodeAndResetsPoints(t *testing.T) {
	workflow, ledger, registry := newTestWorkflow(t)

	earnPoints(t, ledger, 1, 5)

	require.NoError(t, workflow.Request(1))

	code, err := workflow.Confirm(1)
	require.NoError(t, err)
	require.Regexp(t, codePattern, code)
	require.Equal(t, 0, ledger.PointsOf(1))

	entries, err := registry.LookupAll()
	require.NoError(t, err)
	require.Equal(t, []models.ClaimEntry{{UserID: 1, Code: code}}, entries)
}

func TestRequestCancelLeavesPointsAndCodes(t *testing.T) {
	workflow, ledger, registry := newTestWorkflow(t)

	earnPoints(t, ledger, 1, 5)

	require.NoError(t, workflow.Request(1))
	require.NoError(t, workflow.Cancel(1))

	require.Equal(t, 5, ledger.PointsOf(1))

	entries, err := registry.LookupAll()
	require.NoError(t, err)
	require.Empty(t, entries)

	// The cancelled session is gone.
	_, err = workflow.Confirm(1)
	require.ErrorIs(t, err, ErrNoActiveSession)
}

func TestConfirmWithoutSession(t *testing.T) {
	workflow, _, registry := newTestWorkflow(t)

	_, err := workflow.Confirm(1)
	require.ErrorIs(t, err, ErrNoActiveSession)

	entries, err := registry.LookupAll()
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestCancelWithoutSession(t *testing.T) {
	workflow, _, _ := newTestWorkflow(t)

	err := workflow.Cancel(1)
	require.ErrorIs(t, err, ErrNoActiveSession)
}

func TestSecondConfirmOverwritesCode(t *testing.T) {
	workflow, ledger, registry := newTestWorkflow(t)

	earnPoints(t, ledger, 1, 5)
	require.NoError(t, workflow.Request(1))
	first, err := workflow.Confirm(1)
	require.NoError(t, err)
	require.Regexp(t, codePattern, first)

	// Earn a fresh batch and withdraw again; only the latest code remains.
	for i := int64(0); i < 5; i++ {
		result, err := ledger.Attribute(1, 2000+i)
		require.NoError(t, err)
		require.Equal(t, models.AttributionAccepted, result)
	}
	require.NoError(t, workflow.Request(1))
	second, err := workflow.Confirm(1)
	require.NoError(t, err)

	entries, err := registry.LookupAll()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, second, entries[0].Code)
}

func TestConfirmStorageFailureKeepsSessionOpen(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db, 5, testLogger())
	workflow := NewWorkflow(ledger, 5, testLogger())

	earnPoints(t, ledger, 1, 5)
	require.NoError(t, workflow.Request(1))

	require.NoError(t, db.Close())

	// The failed confirm reports the storage error, not a missing session.
	_, err := workflow.Confirm(1)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNoActiveSession)

	// The session stays open so the user can retry once storage recovers.
	_, err = workflow.Confirm(1)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNoActiveSession)
}

func TestRepeatedRequestIsLastRequestWins(t *testing.T) {
	workflow, ledger, _ := newTestWorkflow(t)

	earnPoints(t, ledger, 1, 5)

	require.NoError(t, workflow.Request(1))
	require.NoError(t, workflow.Request(1))

	// Still exactly one open session.
	code, err := workflow.Confirm(1)
	require.NoError(t, err)
	require.Regexp(t, codePattern, code)

	_, err = workflow.Confirm(1)
	require.ErrorIs(t, err, ErrNoActiveSession)
}
