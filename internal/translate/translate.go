// Package translate maps the localized hero/map/gamemode names appearing in
// logs to the canonical names used by the catalog.
package translate

import (
	_ "embed"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

//go:embed tables.json
var tablesJSON []byte

// UnknownNameError reports a localized name with no translation entry.
// The engine treats it as fatal for the current match.
type UnknownNameError struct {
	Kind string // "hero", "map" or "gamemode"
	Name string
}

func (e *UnknownNameError) Error() string {
	return fmt.Sprintf("unknown %s name %q", e.Kind, e.Name)
}

// Tables holds the localized-name → canonical-name mappings. Canonical names
// map to themselves so already-canonical logs pass through unchanged.
type Tables struct {
	Heroes    map[string]string `json:"heroes"`
	Maps      map[string]string `json:"maps"`
	Gamemodes map[string]string `json:"gamemodes"`
}

// Load decodes the embedded translation tables.
func Load() (*Tables, error) {
	var t Tables
	if err := json.Unmarshal(tablesJSON, &t); err != nil {
		return nil, fmt.Errorf("decode translation tables: %w", err)
	}
	return &t, nil
}

// Hero resolves a localized hero name.
func (t *Tables) Hero(name string) (string, error) {
	return lookup(t.Heroes, "hero", name)
}

// Map resolves a localized map name.
func (t *Tables) Map(name string) (string, error) {
	return lookup(t.Maps, "map", name)
}

// Gamemode resolves a localized gamemode name.
func (t *Tables) Gamemode(name string) (string, error) {
	return lookup(t.Gamemodes, "gamemode", name)
}

func lookup(table map[string]string, kind, name string) (string, error) {
	if name == "" {
		return "", nil
	}
	if v, ok := table[name]; ok {
		return v, nil
	}
	// Tables are keyed in log casing; tolerate case drift from older captures.
	folded := strings.ToLower(name)
	for k, v := range table {
		if strings.ToLower(k) == folded {
			return v, nil
		}
	}
	return "", &UnknownNameError{Kind: kind, Name: name}
}
