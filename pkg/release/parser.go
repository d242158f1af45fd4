package release

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/moistari/rls"
)

// Info contains the parsed attributes of one release name.
type Info struct {
	Title   string // cleaned content title, without numbering or tags
	Year    int
	Season  int // 0 when absent
	Episode int // 0 when absent; a season pack has Season set and Episode 0
	Range   int // last episode for multi-episode releases (S01E05-E07 -> 7)
	Quality QualityLevel
	Traits  []Trait
	Group   string
}

// FullSeason reports whether the release covers a whole season rather than
// a single episode.
func (i Info) FullSeason() bool {
	return i.Season > 0 && i.Episode == 0
}

// Covers reports whether the release contains the given episode number,
// accounting for single episodes, multi-episode ranges and season packs.
func (i Info) Covers(season, episode int) bool {
	if i.Season != season {
		return false
	}
	if i.Episode == 0 {
		return true
	}
	if i.Range > 0 {
		return i.Episode <= episode && episode <= i.Range
	}
	return i.Episode == episode
}

// rangeRegex catches multi-episode numbering (S01E05-E07, S01E05-07) which
// rls collapses to the first episode.
var rangeRegex = regexp.MustCompile(`(?i)S\d{1,2}E\d{1,3}-E?(\d{1,3})\b`)

// Parse extracts quality metadata from a release name.
func Parse(name string) Info {
	r := rls.ParseString(name)

	info := Info{
		Title:   r.Title,
		Year:    r.Year,
		Season:  r.Series,
		Episode: r.Episode,
		Quality: ParseQualityLevel(strings.ToLower(r.Resolution)),
		Group:   r.Group,
	}

	if m := rangeRegex.FindStringSubmatch(name); m != nil {
		if last, err := strconv.Atoi(m[1]); err == nil && last > info.Episode {
			info.Range = last
		}
	}

	info.Traits = parseTraits(r)
	return info
}

func parseTraits(r rls.Release) []Trait {
	var traits []Trait
	add := func(t Trait) {
		if t != TraitUnknown && !HasTrait(traits, t) {
			traits = append(traits, t)
		}
	}

	switch strings.ToLower(r.Source) {
	case "bluray", "blu-ray", "bdrip", "brrip":
		add(TraitBluRay)
	case "web-dl", "webdl", "web", "webrip":
		add(TraitWebDL)
	}

	for _, audio := range r.Audio {
		switch strings.ToLower(strings.ReplaceAll(audio, ".", "")) {
		case "aac", "aac20":
			add(TraitAAC)
		case "dts":
			add(TraitDTS)
		case "dts-hd", "dtshd":
			add(TraitDTSHD)
		case "dts-hdma", "dtshdma", "dts-hd ma":
			add(TraitDTSHDMA)
		case "truehd":
			add(TraitTrueHD)
		case "atmos":
			add(TraitAtmos)
		}
	}

	switch r.Channels {
	case "5.1":
		add(TraitAC51)
	case "7.1":
		add(TraitAC71)
	}

	for _, other := range r.Other {
		switch strings.ToUpper(other) {
		case "PROPER":
			add(TraitProper)
		case "REPACK", "RERIP":
			add(TraitRepack)
		}
	}

	return traits
}
