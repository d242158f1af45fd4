package scout

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/vmunix/fetcharr/internal/media"
)

// RuleSpec is one redirect rule as configured: optional season/episode
// bounds (0 = unbounded) plus arithmetic over the variables s and e.
type RuleSpec struct {
	SeasonFrom  int
	SeasonTo    int
	EpisodeFrom int
	EpisodeTo   int
	SeasonExpr  string
	EpisodeExpr string
}

type rule struct {
	spec    RuleSpec
	season  *vm.Program
	episode *vm.Program
}

var exprEnv = map[string]any{"s": 0, "e": 0}

func compileRule(spec RuleSpec) (rule, error) {
	r := rule{spec: spec}
	var err error
	if spec.SeasonExpr != "" {
		if r.season, err = expr.Compile(spec.SeasonExpr, expr.Env(exprEnv), expr.AsInt()); err != nil {
			return rule{}, fmt.Errorf("season expression %q: %w", spec.SeasonExpr, err)
		}
	}
	if spec.EpisodeExpr != "" {
		if r.episode, err = expr.Compile(spec.EpisodeExpr, expr.Env(exprEnv), expr.AsInt()); err != nil {
			return rule{}, fmt.Errorf("episode expression %q: %w", spec.EpisodeExpr, err)
		}
	}
	return r, nil
}

func (r rule) applies(season, episode int) bool {
	if r.spec.SeasonFrom != 0 && season < r.spec.SeasonFrom {
		return false
	}
	if r.spec.SeasonTo != 0 && season > r.spec.SeasonTo {
		return false
	}
	if r.spec.EpisodeFrom != 0 && episode < r.spec.EpisodeFrom {
		return false
	}
	if r.spec.EpisodeTo != 0 && episode > r.spec.EpisodeTo {
		return false
	}
	return true
}

func (r rule) remap(season, episode int) (int, int, error) {
	vars := map[string]any{"s": season, "e": episode}
	outS, outE := season, episode
	if r.season != nil {
		v, err := expr.Run(r.season, vars)
		if err != nil {
			return 0, 0, fmt.Errorf("season expression: %w", err)
		}
		outS = v.(int)
	}
	if r.episode != nil {
		v, err := expr.Run(r.episode, vars)
		if err != nil {
			return 0, 0, fmt.Errorf("episode expression: %w", err)
		}
		outE = v.(int)
	}
	return outS, outE, nil
}

// Redirects remaps episode numbering before a search, for shows whose
// catalog numbering disagrees with release numbering. Keyed by show slug.
type Redirects struct {
	rules map[string][]rule
}

// NewRedirects compiles the configured rules. Compilation errors surface
// here, at startup, not at search time.
func NewRedirects(specs map[string][]RuleSpec) (*Redirects, error) {
	rd := &Redirects{rules: make(map[string][]rule, len(specs))}
	for slug, list := range specs {
		for _, spec := range list {
			r, err := compileRule(spec)
			if err != nil {
				return nil, fmt.Errorf("redirect for %q: %w", slug, err)
			}
			rd.rules[slug] = append(rd.rules[slug], r)
		}
	}
	return rd, nil
}

// Apply returns the media to search for: the original, or a shallow proxy
// with remapped season/number when the first matching rule applies.
func (rd *Redirects) Apply(m *media.Media) (*media.Media, error) {
	if rd == nil || m.Kind != media.KindEpisode {
		return m, nil
	}
	rules, ok := rd.rules[m.ShowID.Slug]
	if !ok {
		return m, nil
	}
	for _, r := range rules {
		if !r.applies(m.Season, m.Number) {
			continue
		}
		season, episode, err := r.remap(m.Season, m.Number)
		if err != nil {
			return m, err
		}
		proxy := *m
		proxy.Season = season
		proxy.Number = episode
		return &proxy, nil
	}
	return m, nil
}
