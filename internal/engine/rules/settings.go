package rules

import (
	"fmt"
	"maps"
	"slices"

	"scriptlint/internal/engine/detectors"
)

// Settings is the per-rule configuration. Unset fields fall back to the
// rule's defaults.
type Settings struct {
	Enabled    *bool          `toml:"enabled"`
	Severity   string         `toml:"severity"`
	Thresholds map[string]int `toml:"thresholds"`
}

// Config maps rule ids to their settings.
type Config map[string]Settings

// Validate checks cfg against the registry: known rule ids, valid
// severities, known and positive thresholds.
func (r *Registry) Validate(cfg Config) error {
	for _, id := range slices.Sorted(maps.Keys(cfg)) {
		rule, ok := r.Get(id)
		if !ok {
			return fmt.Errorf("unknown rule %q", id)
		}
		s := cfg[id]
		if s.Severity != "" {
			if _, err := ParseSeverity(s.Severity); err != nil {
				return fmt.Errorf("rule %q: %w", id, err)
			}
		}
		for _, key := range slices.Sorted(maps.Keys(s.Thresholds)) {
			if _, known := rule.Defaults[key]; !known {
				return fmt.Errorf("rule %q: unknown threshold %q", id, key)
			}
			if s.Thresholds[key] <= 0 {
				return fmt.Errorf("rule %q: threshold %q must be > 0", id, key)
			}
		}
	}
	return nil
}

// resolved is a rule with its settings applied.
type resolved struct {
	Rule
	thresholds detectors.Thresholds
}

func resolve(rule Rule, s Settings) (resolved, bool, error) {
	if s.Enabled != nil && !*s.Enabled {
		return resolved{}, false, nil
	}
	out := resolved{Rule: rule, thresholds: maps.Clone(rule.Defaults)}
	if s.Severity != "" {
		sev, err := ParseSeverity(s.Severity)
		if err != nil {
			return resolved{}, false, fmt.Errorf("rule %q: %w", rule.ID, err)
		}
		out.Severity = sev
	}
	if len(s.Thresholds) > 0 && out.thresholds == nil {
		out.thresholds = detectors.Thresholds{}
	}
	for k, v := range s.Thresholds {
		out.thresholds[k] = v
	}
	return out, true, nil
}
