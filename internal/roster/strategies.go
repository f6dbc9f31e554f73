package roster

import (
	"context"
	"strings"
	"unicode"

	"github.com/scrimsight/go-scrim-metrics/internal/model"
)

// Strategy is one pure name → user resolution attempt. Strategies run in
// priority order; the first non-nil user wins. Each is independently
// unit-testable.
type Strategy func(ctx context.Context, cat Catalog, name string) (*model.User, error)

// DefaultStrategies is the resolution cascade: stored display name first,
// then the tag-style identifier.
func DefaultStrategies() []Strategy {
	return []Strategy{ByDisplayName, ByBattleTag}
}

// ByDisplayName matches the raw name against stored display names and
// recorded aliases, tolerating case drift.
func ByDisplayName(ctx context.Context, cat Catalog, name string) (*model.User, error) {
	for _, v := range nameVariants(name) {
		u, err := cat.UserByName(ctx, v)
		if err != nil {
			return nil, err
		}
		if u != nil {
			return u, nil
		}
	}
	return nil, nil
}

// ByBattleTag matches the raw name against tag-style identifiers; the
// catalog compares with and without the discriminator suffix.
func ByBattleTag(ctx context.Context, cat Catalog, name string) (*model.User, error) {
	for _, v := range nameVariants(name) {
		u, err := cat.UserByBattleTag(ctx, v)
		if err != nil {
			return nil, err
		}
		if u != nil {
			return u, nil
		}
	}
	return nil, nil
}

// nameVariants yields the raw name, its capitalize-first normalization, and
// its lowercase form, deduplicated in that order.
func nameVariants(name string) []string {
	variants := []string{name, capitalizeFirst(name), strings.ToLower(name)}
	out := variants[:0]
	seen := make(map[string]struct{}, len(variants))
	for _, v := range variants {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
