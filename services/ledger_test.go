package services

import (
	"sync"
	"testing"

	"github.com/Akamalshaikh/telegram-bot/models"

	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T, cap int) *Ledger {
	t.Helper()
	return NewLedger(newTestDB(t), cap, testLogger())
}

func TestAttributeAcceptsAndCounts(t *testing.T) {
	ledger := newTestLedger(t, 5)

	result, err := ledger.Attribute(1, 100)
	require.NoError(t, err)
	require.Equal(t, models.AttributionAccepted, result)
	require.Equal(t, 1, ledger.PointsOf(1))

	referred, err := ledger.Referrals(1)
	require.NoError(t, err)
	require.Equal(t, []int64{100}, referred)
}

func TestAttributeRejectsSelfReferral(t *testing.T) {
	ledger := newTestLedger(t, 5)

	result, err := ledger.Attribute(1, 1)
	require.NoError(t, err)
	require.Equal(t, models.RejectedSelfReferral, result)
	require.Equal(t, 0, ledger.PointsOf(1))
}

func TestAttributeRejectsAlreadyReferredByAnyReferrer(t *testing.T) {
	ledger := newTestLedger(t, 5)

	result, err := ledger.Attribute(1, 100)
	require.NoError(t, err)
	require.Equal(t, models.AttributionAccepted, result)

	// Same referrer again.
	result, err = ledger.Attribute(1, 100)
	require.NoError(t, err)
	require.Equal(t, models.RejectedAlreadyReferred, result)

	// A different referrer cannot claim the same user either.
	result, err = ledger.Attribute(2, 100)
	require.NoError(t, err)
	require.Equal(t, models.RejectedAlreadyReferred, result)

	require.Equal(t, 1, ledger.PointsOf(1))
	require.Equal(t, 0, ledger.PointsOf(2))
}

func TestAttributeRejectsAtCap(t *testing.T) {
	ledger := newTestLedger(t, 3)

	for id := int64(100); id < 103; id++ {
		result, err := ledger.Attribute(1, id)
		require.NoError(t, err)
		require.Equal(t, models.AttributionAccepted, result)
	}

	result, err := ledger.Attribute(1, 999)
	require.NoError(t, err)
	require.Equal(t, models.RejectedCapReached, result)
	require.Equal(t, 3, ledger.PointsOf(1))
}

func TestResetPointsClearsReferrals(t *testing.T) {
	ledger := newTestLedger(t, 5)

	_, err := ledger.Attribute(1, 100)
	require.NoError(t, err)
	_, err = ledger.Attribute(1, 101)
	require.NoError(t, err)

	require.NoError(t, ledger.ResetPoints(1))
	require.Equal(t, 0, ledger.PointsOf(1))

	// A cleared referrer can earn fresh referrals.
	result, err := ledger.Attribute(1, 102)
	require.NoError(t, err)
	require.Equal(t, models.AttributionAccepted, result)
}

func TestAttributeFailsWhenStoreUnavailable(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db, 5, testLogger())

	require.NoError(t, db.Close())

	// A durable-write failure fails the whole attribution; the result must
	// not read as accepted.
	result, err := ledger.Attribute(1, 100)
	require.Error(t, err)
	require.Equal(t, models.AttributionNone, result)
}

func TestConcurrentAttributionOfSameUser(t *testing.T) {
	ledger := newTestLedger(t, 5)

	for round := int64(0); round < 10; round++ {
		referred := 1000 + round
		results := make([]models.AttributionResult, 2)
		errs := make([]error, 2)

		var wg sync.WaitGroup
		for i, referrer := range []int64{1, 2} {
			i, referrer := i, referrer
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i], errs[i] = ledger.Attribute(referrer, referred)
			}()
		}
		wg.Wait()

		require.NoError(t, errs[0])
		require.NoError(t, errs[1])

		accepted := 0
		for _, result := range results {
			switch result {
			case models.AttributionAccepted:
				accepted++
			case models.RejectedAlreadyReferred:
			default:
				t.Fatalf("unexpected attribution result %v", result)
			}
		}
		require.Equal(t, 1, accepted, "exactly one racing attribution must win")
	}
}
