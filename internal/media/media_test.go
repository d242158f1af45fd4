package media

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestStateTransitions(t *testing.T) {
	tests := []struct {
		from  State
		to    State
		valid bool
	}{
		{StateRegistered, StateAwaiting, true},
		{StateRegistered, StateAvailable, true},
		{StateRegistered, StateCollected, true},
		{StateAwaiting, StateAvailable, true},
		{StateAwaiting, StateRegistered, true},
		{StateAvailable, StateCollected, true},
		{StateAvailable, StateAbandoned, true},
		{StateCollected, StateRegistered, true},
		{StateAbandoned, StateRegistered, true},
		{StateCollected, StateAvailable, false},
		{StateAbandoned, StateAvailable, false},
		{StateCollected, StateAbandoned, false},
		{StateAvailable, StateAwaiting, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.valid {
			t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.valid)
		}
	}
}

func TestTransitionAvailableRequiresRelease(t *testing.T) {
	m := NewMovie(ID{IMDB: "tt0000001"})

	if err := m.Transition(StateAvailable); !errors.Is(err, ErrNotReleased) {
		t.Fatalf("no release date: got %v, want ErrNotReleased", err)
	}

	m.Release = timePtr(time.Now().Add(48 * time.Hour))
	if err := m.Transition(StateAvailable); !errors.Is(err, ErrNotReleased) {
		t.Fatalf("future release: got %v, want ErrNotReleased", err)
	}

	m.Release = timePtr(time.Now().Add(-time.Hour))
	if err := m.Transition(StateAvailable); err != nil {
		t.Fatalf("past release: %v", err)
	}
	if m.State() != StateAvailable {
		t.Fatalf("state = %s, want %s", m.State(), StateAvailable)
	}
}

func TestTransitionToRegisteredResetsSelection(t *testing.T) {
	m := NewMovie(ID{Trakt: 7})
	m.Release = timePtr(time.Now().Add(-time.Hour))
	if err := m.Transition(StateAvailable); err != nil {
		t.Fatal(err)
	}
	if err := m.AddCandidates([]Candidate{{Title: "a", Link: "magnet:a"}}, false); err != nil {
		t.Fatal(err)
	}

	if err := m.Transition(StateRegistered); err != nil {
		t.Fatal(err)
	}
	if m.Magnet() != "" {
		t.Errorf("magnet = %q, want cleared", m.Magnet())
	}
	if m.Candidates != nil {
		t.Errorf("candidates = %v, want cleared", m.Candidates)
	}
}

func TestMagnetWriteOnce(t *testing.T) {
	m := NewMovie(ID{Trakt: 1})
	if err := m.SetMagnet("magnet:first", false); err != nil {
		t.Fatal(err)
	}
	if err := m.SetMagnet("magnet:second", false); !errors.Is(err, ErrMagnetSet) {
		t.Fatalf("overwrite without force: got %v, want ErrMagnetSet", err)
	}
	if m.Magnet() != "magnet:first" {
		t.Errorf("magnet = %q, want magnet:first", m.Magnet())
	}
	if err := m.SetMagnet("magnet:second", true); err != nil {
		t.Fatal(err)
	}
	if m.Magnet() != "magnet:second" {
		t.Errorf("magnet = %q, want magnet:second", m.Magnet())
	}
}

func TestAddCandidatesSkipsBanned(t *testing.T) {
	m := NewMovie(ID{Trakt: 1})
	m.BanMagnet("magnet:a")

	err := m.AddCandidates([]Candidate{
		{Title: "a", Link: "magnet:a", Score: 10},
		{Title: "b", Link: "magnet:b", Score: 5},
	}, false)
	if err != nil {
		t.Fatal(err)
	}
	if m.Magnet() != "magnet:b" {
		t.Errorf("magnet = %q, want magnet:b", m.Magnet())
	}
}

func TestAddCandidatesBannedRecovery(t *testing.T) {
	m := NewMovie(ID{Trakt: 1})
	m.BanMagnet("magnet:a")
	m.BanMagnet("magnet:b")

	err := m.AddCandidates([]Candidate{
		{Title: "a", Link: "magnet:a", Score: 10},
		{Title: "b", Link: "magnet:b", Score: 5},
	}, true)
	if err != nil {
		t.Fatal(err)
	}
	if m.Magnet() != "magnet:a" {
		t.Errorf("magnet = %q, want best candidate after ban reset", m.Magnet())
	}
	if len(m.Banned) != 0 {
		t.Errorf("banned set = %v, want cleared", m.Banned)
	}
}

func TestAddCandidatesKeepsExistingSelection(t *testing.T) {
	m := NewMovie(ID{Trakt: 1})
	if err := m.SetMagnet("magnet:old", false); err != nil {
		t.Fatal(err)
	}
	if err := m.AddCandidates([]Candidate{{Link: "magnet:new"}}, false); err != nil {
		t.Fatal(err)
	}
	if m.Magnet() != "magnet:old" {
		t.Errorf("magnet = %q, selection must not be overwritten without force", m.Magnet())
	}
}

func TestIDMatches(t *testing.T) {
	tests := []struct {
		name string
		a, b ID
		want bool
	}{
		{"same trakt", ID{Trakt: 1, IMDB: "tt1"}, ID{Trakt: 1}, true},
		{"same imdb different trakt", ID{Trakt: 1, IMDB: "tt1"}, ID{Trakt: 2, IMDB: "tt1"}, true},
		{"same tvdb only", ID{TVDB: 9}, ID{TVDB: 9, Slug: "x"}, true},
		{"disjoint", ID{Trakt: 1}, ID{IMDB: "tt1"}, false},
		{"both empty", ID{}, ID{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Matches(tt.b); got != tt.want {
				t.Errorf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEpisodeSame(t *testing.T) {
	a := NewEpisode(ID{TVDB: 100, Trakt: 5}, 2, 3)
	b := NewEpisode(ID{TVDB: 100}, 2, 3)
	c := NewEpisode(ID{TVDB: 100}, 2, 4)
	d := NewEpisode(ID{TVDB: 200}, 2, 3)

	if !a.Same(b) {
		t.Error("same episode through different id subsets must match")
	}
	if a.Same(c) {
		t.Error("different episode number must not match")
	}
	if a.Same(d) {
		t.Error("different show must not match")
	}
	if a.Same(NewMovie(ID{TVDB: 100})) {
		t.Error("episode must not match movie")
	}
}

func TestPriorityOrdering(t *testing.T) {
	early := NewEpisode(ID{TVDB: 1}, 1, 1)
	late := NewEpisode(ID{TVDB: 1}, 1, 9)
	if early.Priority() <= late.Priority() {
		t.Errorf("episode 1 priority %d must exceed episode 9 priority %d", early.Priority(), late.Priority())
	}

	fresh := NewMovie(ID{Trakt: 1})
	fresh.Release = timePtr(time.Now().AddDate(0, 0, -7))
	old := NewMovie(ID{Trakt: 2})
	old.Release = timePtr(time.Now().AddDate(-2, 0, 0))
	if fresh.Priority() <= old.Priority() {
		t.Errorf("recent movie priority %d must exceed old movie priority %d", fresh.Priority(), old.Priority())
	}
	if old.Priority() != 0 {
		t.Errorf("movie older than a year: priority %d, want 0", old.Priority())
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	m := NewMovie(ID{IMDB: "tt0133093", Trakt: 481})
	m.Title = "The Matrix"
	m.Year = 1999
	m.Release = timePtr(time.Date(1999, 3, 31, 0, 0, 0, 0, time.UTC))
	if err := m.Transition(StateAvailable); err != nil {
		t.Fatal(err)
	}
	if err := m.SetMagnet("magnet:xt", false); err != nil {
		t.Fatal(err)
	}
	m.BanMagnet("magnet:bad")
	m.Candidates = []Candidate{{Title: "The.Matrix.1999.1080p", Link: "magnet:xt", Score: 40}}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	var got Media
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}

	if got.State() != StateAvailable {
		t.Errorf("state = %s, want %s", got.State(), StateAvailable)
	}
	if got.Magnet() != "magnet:xt" {
		t.Errorf("magnet = %q, want magnet:xt", got.Magnet())
	}
	if !got.IsBanned("magnet:bad") {
		t.Error("banned set lost in round trip")
	}
	if got.Key() != m.Key() {
		t.Errorf("key = %q, want %q", got.Key(), m.Key())
	}
}
