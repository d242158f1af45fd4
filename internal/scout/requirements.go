package scout

import (
	"strconv"
	"strings"
	"time"

	"github.com/vmunix/fetcharr/internal/indexer"
	"github.com/vmunix/fetcharr/pkg/release"
)

// Category selects which candidate attribute a parameter evaluates.
type Category string

const (
	CategoryResolution Category = "resolution"
	CategoryAudio      Category = "audio"
	CategorySource     Category = "source"
	CategoryTag        Category = "tag"
	CategoryGroup      Category = "group"
	CategorySizeMB     Category = "size_mb"
	CategoryFreeText   Category = "free_text"
	CategoryPeers      Category = "peers"
)

// Comparison is the operator applied between a candidate attribute and a
// parameter definition.
type Comparison string

const (
	CompareEqual    Comparison = "equal"
	CompareNotEqual Comparison = "not_equal"
	CompareMinimum  Comparison = "minimum"
	CompareMaximum  Comparison = "maximum"
)

// Parameter is one scored requirement. A parameter without patience is
// always mandatory; one with patience stays optional until the patience
// window elapses (or the release-day deadline forces it).
type Parameter struct {
	Category    Category
	Comparison  Comparison
	Definitions []string
	Patience    *time.Duration
	Weight      int
}

func (p Parameter) weight() int {
	if p.Weight <= 0 {
		return 1
	}
	return p.Weight
}

// Requirements is the per-kind scouting policy.
type Requirements struct {
	Parameters []Parameter

	// Delay suppresses searching until Release+Delay.
	Delay *time.Duration
	// Timeout abandons media with no pick within the window.
	Timeout *time.Duration
	// NoResultThrottle backs off re-scouting after an empty search.
	NoResultThrottle *time.Duration
	// ReleaseDayDeadline is a time of day (offset from midnight). Once it
	// passes on the release day, every parameter is evaluated as mandatory.
	ReleaseDayDeadline *time.Duration
}

// matches reports whether the candidate satisfies the parameter: true when
// any definition matches under the comparison operator.
func (p Parameter) matches(r indexer.Result) bool {
	for _, def := range p.Definitions {
		if p.matchesOne(r, def) {
			return true
		}
	}
	return false
}

func (p Parameter) matchesOne(r indexer.Result, def string) bool {
	switch p.Category {
	case CategoryResolution:
		want := release.ParseQualityLevel(strings.ToLower(def))
		if want == release.QualityUnknown {
			return false
		}
		return compareInt(int(r.Info.Quality), int(want), p.Comparison)
	case CategoryAudio, CategorySource, CategoryTag:
		return p.matchTrait(r, def)
	case CategoryGroup:
		return compareBool(strings.EqualFold(r.Info.Group, def), p.Comparison)
	case CategorySizeMB:
		want, err := strconv.ParseInt(def, 10, 64)
		if err != nil {
			return false
		}
		return compareInt64(r.Size/(1<<20), want, p.Comparison)
	case CategoryFreeText:
		has := strings.Contains(strings.ToLower(r.Title), strings.ToLower(def))
		return compareBool(has, p.Comparison)
	case CategoryPeers:
		want, err := strconv.Atoi(def)
		if err != nil {
			return false
		}
		return compareInt(r.Seeds+r.Peers, want, p.Comparison)
	default:
		return false
	}
}

// matchTrait checks trait presence. Definitions that do not name a known
// trait fall back to a substring check on the raw title.
func (p Parameter) matchTrait(r indexer.Result, def string) bool {
	t := release.ParseTrait(strings.ToLower(def))
	var has bool
	if t != release.TraitUnknown {
		has = release.HasTrait(r.Info.Traits, t)
	} else {
		has = strings.Contains(strings.ToLower(r.Title), strings.ToLower(def))
	}
	return compareBool(has, p.Comparison)
}

func compareInt(got, want int, cmp Comparison) bool {
	switch cmp {
	case CompareNotEqual:
		return got != want
	case CompareMinimum:
		return got >= want
	case CompareMaximum:
		return got <= want
	default:
		return got == want
	}
}

func compareInt64(got, want int64, cmp Comparison) bool {
	switch cmp {
	case CompareNotEqual:
		return got != want
	case CompareMinimum:
		return got >= want
	case CompareMaximum:
		return got <= want
	default:
		return got == want
	}
}

// compareBool treats presence checks: NotEqual inverts, everything else
// requires presence.
func compareBool(has bool, cmp Comparison) bool {
	if cmp == CompareNotEqual {
		return !has
	}
	return has
}
