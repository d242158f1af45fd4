// internal/config/validate.go
package config

import (
	"fmt"
	"os"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

var validCategories = map[string]bool{
	"resolution": true, "audio": true, "source": true, "tag": true,
	"group": true, "size_mb": true, "free_text": true, "peers": true,
}

var validComparisons = map[string]bool{
	"equal": true, "not_equal": true, "minimum": true, "maximum": true,
}

var validRequirementTypes = map[string]bool{
	"movie": true, "episode": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}
	if c.Server.TickInterval < 0 {
		errs = append(errs, "server.tick_interval: must not be negative")
	}

	if c.Downloads.Port != 0 && (c.Downloads.Port < 1 || c.Downloads.Port > 65535) {
		errs = append(errs, fmt.Sprintf("downloads.port: must be between 1 and 65535, got %d", c.Downloads.Port))
	}
	if c.Downloads.MaxConcurrent < 0 {
		errs = append(errs, "downloads.max_concurrent: must not be negative")
	}

	for name, req := range c.Scout.Requirements {
		if !validRequirementTypes[name] {
			errs = append(errs, fmt.Sprintf("scout.requirements.%s: type must be movie or episode", name))
		}
		for i, p := range req.Parameters {
			if !validCategories[p.Category] {
				errs = append(errs, fmt.Sprintf("scout.requirements.%s.parameters[%d].category: unknown category %q", name, i, p.Category))
			}
			if !validComparisons[p.Comparison] {
				errs = append(errs, fmt.Sprintf("scout.requirements.%s.parameters[%d].comparison: unknown comparison %q", name, i, p.Comparison))
			}
			if len(p.Definitions) == 0 {
				errs = append(errs, fmt.Sprintf("scout.requirements.%s.parameters[%d].definitions: required", name, i))
			}
			if p.Weight < 0 {
				errs = append(errs, fmt.Sprintf("scout.requirements.%s.parameters[%d].weight: must not be negative", name, i))
			}
		}
	}

	for slug, rules := range c.Scout.Redirects {
		for i, r := range rules {
			if r.SeasonExpr == "" && r.EpisodeExpr == "" {
				errs = append(errs, fmt.Sprintf("scout.redirects.%s[%d]: at least one of season_expr, episode_expr required", slug, i))
			}
		}
	}

	if c.Cleanup.Enabled && c.Cleanup.Movies == nil && c.Cleanup.Episodes == nil {
		errs = append(errs, "cleanup: enabled but no retention window configured")
	}

	for name, ix := range c.Indexers {
		if !ix.Enabled {
			continue
		}
		if ix.URL == "" {
			errs = append(errs, fmt.Sprintf("indexers.%s.url: required", name))
		}
		if ix.APIKey == "" {
			errs = append(errs, fmt.Sprintf("indexers.%s.api_key: required", name))
		}
	}

	// Download root warning (non-fatal)
	if c.Downloads.Root != "" {
		if _, err := os.Stat(c.Downloads.Root); os.IsNotExist(err) {
			errs = append(errs, fmt.Sprintf("downloads.root: warning: directory %q does not exist", c.Downloads.Root))
		}
	}

	return errs
}
