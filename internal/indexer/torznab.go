package indexer

import (
	"context"
	"fmt"

	"github.com/vmunix/fetcharr/internal/media"
	"github.com/vmunix/fetcharr/pkg/newznab"
)

// Torznab category roots.
var (
	movieCategories = []int{2000}
	tvCategories    = []int{5000}
)

// Torznab adapts a torznab indexer API to the Indexer interface.
type Torznab struct {
	client   *newznab.Client
	genres   []string
	priority int
}

func NewTorznab(client *newznab.Client, priority int, genres []string) *Torznab {
	return &Torznab{client: client, genres: genres, priority: priority}
}

func (t *Torznab) Name() string { return t.client.Name() }

func (t *Torznab) Kinds() []media.Kind {
	return []media.Kind{media.KindMovie, media.KindEpisode}
}

func (t *Torznab) SpecializedGenres() []string { return t.genres }

func (t *Torznab) Priority() int { return t.priority }

// Search queries the indexer. Episodes are searched both as a single
// episode and as a season, so season packs turn up in the same pass.
func (t *Torznab) Search(ctx context.Context, m *media.Media) ([]Result, error) {
	var queries []string
	cats := movieCategories

	switch m.Kind {
	case media.KindEpisode:
		cats = tvCategories
		queries = []string{
			fmt.Sprintf("%s S%02dE%02d", m.ShowTitle, m.Season, m.Number),
			fmt.Sprintf("%s S%02d", m.ShowTitle, m.Season),
		}
	default:
		q := m.Title
		if m.Year != 0 {
			q = fmt.Sprintf("%s %d", m.Title, m.Year)
		}
		queries = []string{q}
	}

	seen := make(map[string]struct{})
	var out []Result
	for _, q := range queries {
		releases, err := t.client.Search(ctx, q, cats)
		if err != nil {
			return nil, fmt.Errorf("torznab search %q: %w", q, err)
		}
		for _, r := range releases {
			link := r.MagnetURL
			if link == "" {
				link = r.DownloadURL
			}
			if link == "" {
				continue
			}
			if _, ok := seen[r.GUID]; ok {
				continue
			}
			seen[r.GUID] = struct{}{}
			out = append(out, NewResult(r.Title, link, r.Seeders, r.Peers, r.Size, t.client.Name(), t.priority))
		}
	}
	return out, nil
}
