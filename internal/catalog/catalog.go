// Package catalog defines the remote catalog contract and the Syncer that
// reconciles catalog snapshots into the library.
package catalog

import (
	"context"
	"time"

	"github.com/vmunix/fetcharr/internal/media"
)

type code int

const (
	codeOK code = iota
	codeAuthRequired
	codeFailed
)

// Status is the tagged outcome of a catalog call. Authentication failures
// are distinct from other failures so the caller can run a re-auth flow
// instead of retrying.
type Status struct {
	code code
	err  error
}

func StatusOK() Status              { return Status{} }
func StatusAuthRequired() Status    { return Status{code: codeAuthRequired} }
func StatusFailed(err error) Status { return Status{code: codeFailed, err: err} }

func (s Status) OK() bool           { return s.code == codeOK }
func (s Status) AuthRequired() bool { return s.code == codeAuthRequired }

// Err returns the underlying error, ErrAuthRequired for auth failures, or
// nil on success.
func (s Status) Err() error {
	switch s.code {
	case codeAuthRequired:
		return ErrAuthRequired
	case codeFailed:
		return s.err
	default:
		return nil
	}
}

// Activity carries the catalog's last-modified timestamps per domain, used
// to skip sync work when nothing changed remotely.
type Activity struct {
	CollectedAt   time.Time
	WatchlistedAt time.Time
	WatchedAt     time.Time
}

// Source is the remote catalog. Implementations must never panic on auth
// failure; they report it through the Status.
type Source interface {
	FetchActivity(ctx context.Context) (Activity, Status)
	FetchCollection(ctx context.Context, kind media.Kind) ([]*media.Media, Status)
	FetchWatchlist(ctx context.Context) ([]*media.Media, Status)
	FetchCalendar(ctx context.Context, kind media.Kind, from time.Time, days int) ([]*media.Media, Status)
	FetchWatched(ctx context.Context, kind media.Kind) ([]*media.Media, Status)
	EnrichMetadata(ctx context.Context, m *media.Media) Status
	PushCollected(ctx context.Context, items []*media.Media, resolution, audio string) ([]*media.Media, Status)
}
