package filtering

import (
	"fmt"
	"slices"
	"strings"
)

// BuildSources converts list configuration into loadable sources. Catalog
// entries fill in the URL, mirrors and kind a list leaves empty. Sources are
// returned ordered by ID, followed by custom entries.
func BuildSources(catalog map[string]ListDefinition, configs map[string]ListConfig, custom []string) ([]Source, error) {
	sources := make([]Source, 0, len(configs)+len(custom))

	ids := make([]string, 0, len(configs))
	for id := range configs {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		cfg := configs[id]
		if !cfg.Enabled {
			continue
		}
		def, known := catalog[id]

		location := cfg.URL
		mirrors := cfg.Mirrors
		if location == "" && known {
			location = def.URL
			if len(mirrors) == 0 {
				mirrors = def.Mirrors
			}
		}
		if location == "" {
			continue
		}

		kind, err := ParseKind(cfg.Kind)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", id, err)
		}
		if cfg.Kind == "" && known && def.Kind != "" {
			kind = def.Kind
		}

		sources = append(sources, Source{
			ID:                id,
			Location:          location,
			Mirrors:           slices.Clone(mirrors),
			Kind:              kind,
			IncludeSubdomains: cfg.IncludeSubdomains,
			Enabled:           true,
			Auth: AuthConfig{
				Username: cfg.Username,
				Password: cfg.Password,
				Token:    cfg.Token,
				Header:   cfg.Header,
				Scheme:   cfg.Scheme,
			},
		})
	}

	for i, entry := range custom {
		trimmed := strings.TrimSpace(entry)
		if trimmed == "" {
			continue
		}
		sources = append(sources, Source{
			ID:       fmt.Sprintf("custom_%d", i+1),
			Location: trimmed,
			Kind:     KindHosts,
			Enabled:  true,
		})
	}

	return sources, nil
}
