package featureflag

import (
	"context"
	"errors"
)

// Flag is a persisted rollout switch. RolloutPct constrains what fraction
// of users see the flagged feature; nil means full rollout when enabled.
type Flag struct {
	Name       string `json:"name"`
	Enabled    bool   `json:"enabled"`
	RolloutPct *int   `json:"rollout_pct,omitempty"`
}

// Store reads flag records from persistent configuration storage.
type Store interface {
	// GetFlag returns the flag record, or ErrFlagNotFound when no record
	// exists under that name.
	GetFlag(ctx context.Context, name string) (*Flag, error)
}

// ErrFlagNotFound indicates that the requested feature flag was not found.
var ErrFlagNotFound = errors.New("feature flag not found")
