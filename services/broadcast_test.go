package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestBroadcaster(t *testing.T, userIDs []int64, timeout time.Duration) *Broadcaster {
	t.Helper()

	directory := NewDirectory(newTestDB(t), testLogger())
	for _, id := range userIDs {
		_, err := directory.Register(id)
		require.NoError(t, err)
	}

	return NewBroadcaster(directory, 4, timeout, testLogger())
}

func TestBroadcastCountsFailuresWithoutAborting(t *testing.T) {
	userIDs := []int64{1, 2, 3, 4, 5, 6}
	broadcaster := newTestBroadcaster(t, userIDs, time.Second)

	var mu sync.Mutex
	attempted := make(map[int64]bool)

	send := func(ctx context.Context, userID int64, text string) error {
		mu.Lock()
		attempted[userID] = true
		mu.Unlock()
		if userID%3 == 0 {
			return errors.New("blocked by recipient")
		}
		return nil
	}

	sent, failed, err := broadcaster.Broadcast(context.Background(), "hello", send)
	require.NoError(t, err)
	require.Equal(t, 4, sent)
	require.Equal(t, 2, failed)

	// Every recipient was attempted despite the failures.
	require.Len(t, attempted, len(userIDs))
}

func TestBroadcastTimesOutSlowRecipients(t *testing.T) {
	broadcaster := newTestBroadcaster(t, []int64{1, 2}, 50*time.Millisecond)

	send := func(ctx context.Context, userID int64, text string) error {
		if userID == 2 {
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	}

	start := time.Now()
	sent, failed, err := broadcaster.Broadcast(context.Background(), "hello", send)
	require.NoError(t, err)
	require.Equal(t, 1, sent)
	require.Equal(t, 1, failed)
	require.Less(t, time.Since(start), 2*time.Second, "a slow recipient must not stall the batch")
}

func TestBroadcastEmptyDirectory(t *testing.T) {
	broadcaster := newTestBroadcaster(t, nil, time.Second)

	sent, failed, err := broadcaster.Broadcast(context.Background(), "hello", func(context.Context, int64, string) error {
		t.Fatal("send must not be called with no recipients")
		return nil
	})
	require.NoError(t, err)
	require.Zero(t, sent)
	require.Zero(t, failed)
}
