package services

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// SendFunc delivers one message to one recipient via the chat transport.
type SendFunc func(ctx context.Context, userID int64, text string) error

// Broadcaster fans a message out to every registered user with bounded
// concurrency. Individual delivery failures are counted, never aborting the
// batch, and a recipient that exceeds the per-recipient timeout is counted as
// failed so one blocked send cannot stall the whole run.
type Broadcaster struct {
	directory *Directory
	workers   int
	timeout   time.Duration
	log       *slog.Logger
}

func NewBroadcaster(directory *Directory, workers int, timeout time.Duration, log *slog.Logger) *Broadcaster {
	if workers < 1 {
		workers = 1
	}
	return &Broadcaster{
		directory: directory,
		workers:   workers,
		timeout:   timeout,
		log:       log,
	}
}

// Broadcast sends text to every user in the directory and returns the final
// tallies once every delivery attempt has finished.
func (b *Broadcaster) Broadcast(ctx context.Context, text string, send SendFunc) (sent, failed int, err error) {
	userIDs, err := b.directory.AllUsers()
	if err != nil {
		return 0, 0, err
	}

	var sentCount, failedCount atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for _, userID := range userIDs {
		userID := userID
		g.Go(func() error {
			sendCtx, cancel := context.WithTimeout(ctx, b.timeout)
			defer cancel()

			done := make(chan error, 1)
			go func() { done <- send(sendCtx, userID, text) }()

			select {
			case sendErr := <-done:
				if sendErr != nil {
					failedCount.Add(1)
					b.log.Warn("broadcast delivery failed", "user_id", userID, "error", sendErr)
				} else {
					sentCount.Add(1)
				}
			case <-sendCtx.Done():
				failedCount.Add(1)
				b.log.Warn("broadcast delivery timed out", "user_id", userID)
			}
			return nil
		})
	}

	// Workers never return errors; failures are tallied per recipient.
	_ = g.Wait()

	return int(sentCount.Load()), int(failedCount.Load()), nil
}
