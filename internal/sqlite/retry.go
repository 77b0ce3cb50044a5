package sqlite

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Busy and locked databases are retried with Fibonacci backoff; any other
// failure is returned at once.
const (
	busyRetries = 5
	busyBackoff = 10 * time.Millisecond
)

// withRetry runs op, retrying while SQLite reports the database busy.
func withRetry(ctx context.Context, op func(ctx context.Context) error) error {
	b := retry.WithMaxRetries(busyRetries, retry.NewFibonacci(busyBackoff))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := op(ctx)
		if isBusy(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func isBusy(err error) bool {
	var serr *msqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}
