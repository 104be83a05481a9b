// Package prefs persists UI preferences: the light/dark toggle and the
// selected colour theme id. Colours themselves are a client concern.
package prefs

import (
	"context"
	"errors"
	"fmt"

	"focusdesk/pkg/storage"
)

const (
	ModeKey  = "theme"
	ThemeKey = "selectedTheme"
)

const (
	ModeLight = "light"
	ModeDark  = "dark"
)

const DefaultTheme = "light"

// Themes are the selectable theme ids in display order.
var Themes = []string{"light", "dark", "ocean", "sunset", "forest"}

var (
	ErrUnknownMode  = errors.New("unknown theme mode")
	ErrUnknownTheme = errors.New("unknown theme")
)

type Theme struct {
	Mode     string `json:"mode"`
	Selected string `json:"selected"`
}

type Store struct {
	kv *storage.Store
}

func NewStore(kv *storage.Store) *Store {
	return &Store{kv: kv}
}

func knownTheme(id string) bool {
	for _, t := range Themes {
		if t == id {
			return true
		}
	}
	return false
}

// Mode returns "light" or "dark"; anything else stored reads as light.
func (s *Store) Mode(ctx context.Context) string {
	if m := storage.Get(ctx, s.kv, ModeKey, ModeLight); m == ModeDark {
		return ModeDark
	}
	return ModeLight
}

func (s *Store) SetMode(ctx context.Context, mode string) error {
	if mode != ModeLight && mode != ModeDark {
		return fmt.Errorf("%q: %w", mode, ErrUnknownMode)
	}
	return s.kv.Set(ctx, ModeKey, mode)
}

// ToggleMode flips light and dark and returns the new mode.
func (s *Store) ToggleMode(ctx context.Context) (string, error) {
	next := ModeDark
	if s.Mode(ctx) == ModeDark {
		next = ModeLight
	}
	return next, s.SetMode(ctx, next)
}

// Selected returns the stored theme id, falling back to light for ids that
// are no longer offered.
func (s *Store) Selected(ctx context.Context) string {
	id := storage.Get(ctx, s.kv, ThemeKey, DefaultTheme)
	if !knownTheme(id) {
		return DefaultTheme
	}
	return id
}

func (s *Store) Select(ctx context.Context, id string) error {
	if !knownTheme(id) {
		return fmt.Errorf("%q: %w", id, ErrUnknownTheme)
	}
	return s.kv.Set(ctx, ThemeKey, id)
}

func (s *Store) Theme(ctx context.Context) Theme {
	return Theme{Mode: s.Mode(ctx), Selected: s.Selected(ctx)}
}
