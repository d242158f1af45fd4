// Package indexer defines the content indexer contract and the static
// registry the scouter searches through.
package indexer

import (
	"context"

	"github.com/vmunix/fetcharr/internal/media"
	"github.com/vmunix/fetcharr/pkg/release"
)

// Result is one candidate transfer as reported by an indexer.
type Result struct {
	Title    string
	Link     string
	Seeds    int
	Peers    int
	Size     int64
	Info     release.Info
	Indexer  string
	Priority int
}

// NewResult builds a Result, parsing quality metadata out of the title.
func NewResult(title, link string, seeds, peers int, size int64, indexerName string, priority int) Result {
	return Result{
		Title:    title,
		Link:     link,
		Seeds:    seeds,
		Peers:    peers,
		Size:     size,
		Info:     release.Parse(title),
		Indexer:  indexerName,
		Priority: priority,
	}
}

// FullSeason reports whether the result is a season pack.
func (r Result) FullSeason() bool { return r.Info.FullSeason() }

// Indexer is one content indexer. Implementations own their network and
// parsing details; Search errors are isolated per indexer by the caller.
type Indexer interface {
	Name() string
	Kinds() []media.Kind
	SpecializedGenres() []string
	Priority() int
	Search(ctx context.Context, m *media.Media) ([]Result, error)
}
