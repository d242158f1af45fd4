package indexer

import (
	"sort"
	"strings"

	"github.com/vmunix/fetcharr/internal/media"
)

// Registry is the fixed set of configured indexers. Built once at startup
// from configuration; no runtime discovery.
type Registry struct {
	indexers []Indexer
}

func NewRegistry(indexers ...Indexer) *Registry {
	return &Registry{indexers: indexers}
}

// All returns every registered indexer.
func (r *Registry) All() []Indexer {
	return r.indexers
}

// ForMedia returns the indexers that serve the media's kind, ordered so
// that indexers specialized in one of the media's genres come first, then
// by configured priority.
func (r *Registry) ForMedia(m *media.Media) []Indexer {
	var out []Indexer
	for _, ix := range r.indexers {
		if supportsKind(ix, m.Kind) {
			out = append(out, ix)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := specialized(out[i], m), specialized(out[j], m)
		if si != sj {
			return si
		}
		return out[i].Priority() > out[j].Priority()
	})
	return out
}

func supportsKind(ix Indexer, kind media.Kind) bool {
	for _, k := range ix.Kinds() {
		if k == kind {
			return true
		}
	}
	return false
}

func specialized(ix Indexer, m *media.Media) bool {
	for _, g := range ix.SpecializedGenres() {
		for _, mg := range m.Genres {
			if strings.EqualFold(g, mg) {
				return true
			}
		}
	}
	return false
}
