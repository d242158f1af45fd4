// Package media holds the tracked catalog: movies, episodes, their state
// machine and the in-memory library index.
package media

import (
	"fmt"
	"time"
)

// Kind distinguishes movies from episodes.
type Kind string

const (
	KindMovie   Kind = "movie"
	KindEpisode Kind = "episode"
)

// ID is a multi-source catalog identity. Two ids refer to the same item when
// any populated field matches; different catalogs rarely populate the same
// subset of ids, so full equality would split identical media.
type ID struct {
	Trakt int    `json:"trakt,omitempty"`
	Slug  string `json:"slug,omitempty"`
	IMDB  string `json:"imdb,omitempty"`
	TVDB  int    `json:"tvdb,omitempty"`
}

// Matches reports whether any populated field is equal across both ids.
func (id ID) Matches(other ID) bool {
	if id.Trakt != 0 && id.Trakt == other.Trakt {
		return true
	}
	if id.IMDB != "" && id.IMDB == other.IMDB {
		return true
	}
	if id.TVDB != 0 && id.TVDB == other.TVDB {
		return true
	}
	if id.Slug != "" && id.Slug == other.Slug {
		return true
	}
	return false
}

// Key returns a stable index key, preferring IMDB over numeric ids over slug.
func (id ID) Key() string {
	switch {
	case id.IMDB != "":
		return id.IMDB
	case id.Trakt != 0:
		return fmt.Sprintf("%d", id.Trakt)
	case id.TVDB != 0:
		return fmt.Sprintf("tvdb%d", id.TVDB)
	default:
		return id.Slug
	}
}

// IsZero reports whether no field is populated.
func (id ID) IsZero() bool {
	return id.Trakt == 0 && id.Slug == "" && id.IMDB == "" && id.TVDB == 0
}

func (id ID) String() string {
	switch {
	case id.IMDB != "":
		return "imdb:" + id.IMDB
	case id.Trakt != 0:
		return fmt.Sprintf("trakt:%d", id.Trakt)
	case id.TVDB != 0:
		return fmt.Sprintf("tvdb:%d", id.TVDB)
	case id.Slug != "":
		return "slug:" + id.Slug
	default:
		return "unknown"
	}
}

// Candidate is one ranked magnet selected by a scout run.
type Candidate struct {
	Title      string `json:"title"`
	Link       string `json:"link"`
	Score      int    `json:"score"`
	Indexer    string `json:"indexer"`
	FullSeason bool   `json:"full_season"`
}

// Media is one tracked item, movie or episode.
type Media struct {
	Kind   Kind     `json:"kind"`
	ID     ID       `json:"id"`
	Title  string   `json:"title"`
	Year   int      `json:"year"`
	Genres []string `json:"genres,omitempty"`

	state          State
	StateChangedAt time.Time `json:"state_changed_at"`

	Release        *time.Time `json:"release,omitempty"`
	CollectedAt    *time.Time `json:"collected_at,omitempty"`
	WatchlistedAt  *time.Time `json:"watchlisted_at,omitempty"`
	WatchedAt      *time.Time `json:"watched_at,omitempty"`
	FirstSpottedAt *time.Time `json:"first_spotted_at,omitempty"`
	LastScoutedAt  *time.Time `json:"last_scouted_at,omitempty"`

	magnet     string
	Candidates []Candidate         `json:"candidates,omitempty"`
	Banned     map[string]struct{} `json:"banned,omitempty"`
	Paths      []string            `json:"paths,omitempty"`

	// Episode fields; zero for movies.
	ShowID        ID     `json:"show_id,omitempty"`
	ShowTitle     string `json:"show_title,omitempty"`
	Season        int    `json:"season,omitempty"`
	Number        int    `json:"number,omitempty"`
	TotalEpisodes int    `json:"total_episodes,omitempty"`
}

// NewMovie creates a movie in the Registered state.
func NewMovie(id ID) *Media {
	return &Media{Kind: KindMovie, ID: id, state: StateRegistered, StateChangedAt: time.Now()}
}

// NewEpisode creates an episode in the Registered state.
func NewEpisode(showID ID, season, number int) *Media {
	return &Media{
		Kind:           KindEpisode,
		ShowID:         showID,
		Season:         season,
		Number:         number,
		state:          StateRegistered,
		StateChangedAt: time.Now(),
	}
}

// Same reports whether both items identify the same media. Episodes compare
// by (show, season, number) so the same episode seen through different
// catalogs merges; movies compare by fuzzy id.
func (m *Media) Same(other *Media) bool {
	if m.Kind != other.Kind {
		return false
	}
	if m.Kind == KindEpisode {
		return m.ShowID.Matches(other.ShowID) && m.Season == other.Season && m.Number == other.Number
	}
	return m.ID.Matches(other.ID)
}

// Key returns the unique library index key for this item.
func (m *Media) Key() string {
	if m.Kind == KindEpisode {
		return fmt.Sprintf("%s.%d.%d", m.ShowID.Key(), m.Season, m.Number)
	}
	return m.ID.Key()
}

// State returns the current lifecycle state.
func (m *Media) State() State { return m.state }

// Magnet returns the selected magnet link, or "" when none is selected.
func (m *Media) Magnet() string { return m.magnet }

// SetMagnet selects a magnet link. The selection is write-once: overwriting
// an existing selection requires force.
func (m *Media) SetMagnet(link string, force bool) error {
	if m.magnet != "" && !force {
		return ErrMagnetSet
	}
	m.magnet = link
	return nil
}

// Transition moves the item to a new lifecycle state, validating the edge.
// Moving back to Registered clears the magnet selection and candidates.
func (m *Media) Transition(to State) error {
	if !m.state.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, to)
	}
	switch to {
	case StateAvailable:
		if m.Release == nil || m.Release.After(time.Now()) {
			return fmt.Errorf("%w: release %v", ErrNotReleased, m.Release)
		}
	case StateRegistered:
		m.magnet = ""
		m.Candidates = nil
	}
	m.state = to
	m.StateChangedAt = time.Now()
	return nil
}

// ForceState sets the state without edge validation. Used when the catalog
// asserts a state on our behalf (collected sync) and when restoring
// snapshots.
func (m *Media) ForceState(s State) {
	m.state = s
	m.StateChangedAt = time.Now()
}

// BanMagnet adds a link to the banned set so candidate selection skips it.
func (m *Media) BanMagnet(link string) {
	if m.Banned == nil {
		m.Banned = make(map[string]struct{})
	}
	m.Banned[link] = struct{}{}
}

// IsBanned reports whether a link is in the banned set.
func (m *Media) IsBanned(link string) bool {
	_, ok := m.Banned[link]
	return ok
}

// AddCandidates stores a ranked candidate list and selects the best
// non-banned link if no magnet is selected yet (or force is set). When every
// candidate is banned the banned set is cleared and selection restarts, so a
// fully poisoned list cannot wedge the item forever.
func (m *Media) AddCandidates(candidates []Candidate, force bool) error {
	m.Candidates = candidates
	if m.magnet != "" && !force {
		return nil
	}
	pick, ok := m.pickCandidate(candidates)
	if !ok {
		m.Banned = nil
		pick, ok = m.pickCandidate(candidates)
		if !ok {
			return ErrNoCandidates
		}
	}
	return m.SetMagnet(pick.Link, force)
}

func (m *Media) pickCandidate(candidates []Candidate) (Candidate, bool) {
	for _, c := range candidates {
		if !m.IsBanned(c.Link) {
			return c, true
		}
	}
	return Candidate{}, false
}

// Priority returns the download priority. Recent releases rank higher; for
// episodes, earlier seasons and numbers rank higher so seasons complete in
// order.
func (m *Media) Priority() int {
	ref := m.StateChangedAt
	if m.Release != nil {
		ref = *m.Release
	}
	age := int(time.Since(ref).Hours() / 24)

	if m.Kind == KindEpisode {
		recency := 7 - age
		if recency < 0 {
			recency = 0
		}
		return (100 - m.Number - m.Season) + recency
	}
	p := 360 - age
	if p < 0 {
		p = 0
	}
	return p
}

func (m *Media) String() string {
	if m.Kind == KindEpisode {
		return fmt.Sprintf("%s S%02dE%02d (%s)", m.ShowTitle, m.Season, m.Number, m.ShowID)
	}
	return fmt.Sprintf("%s (%d) (%s)", m.Title, m.Year, m.ID)
}
