package base

import (
	"context"
	"hash/fnv"
	"slices"

	"billbridge/internal/featureflag"
	"billbridge/internal/provider"

	"github.com/rs/zerolog/log"
)

// Base carries the capability metadata and feature-flag gating shared by
// every provider, regardless of what it actually does. Concrete providers
// embed it and add their own lifecycle hooks and operations.
type Base struct {
	cfg   provider.Config
	flags featureflag.Store
}

// New creates the shared provider core. The config is treated as immutable
// from here on.
func New(cfg provider.Config, flags featureflag.Store) Base {
	return Base{cfg: cfg, flags: flags}
}

func (b *Base) Type() provider.ProviderType { return b.cfg.Type }
func (b *Base) Name() string                { return b.cfg.Name }
func (b *Base) Description() string         { return b.cfg.Description }
func (b *Base) Enabled() bool               { return b.cfg.Enabled }

// Supports reports whether the provider declares the capability.
func (b *Base) Supports(c provider.Capability) bool {
	return slices.Contains(b.cfg.Capabilities, c)
}

// Capabilities returns a copy of the declared set so callers cannot
// mutate the provider's config through it.
func (b *Base) Capabilities() []provider.Capability {
	return slices.Clone(b.cfg.Capabilities)
}

// CheckFeatureFlag reports whether the provider is available to the given
// user. It never returns an error: lookup failures fail closed so an
// availability bug cannot over-expose a gated provider.
func (b *Base) CheckFeatureFlag(ctx context.Context, userID string) bool {
	if b.cfg.FeatureFlagName == "" {
		return b.cfg.Enabled
	}

	flag, err := b.flags.GetFlag(ctx, b.cfg.FeatureFlagName)
	if err != nil {
		log.Warn().
			Err(err).
			Str("provider", string(b.cfg.Type)).
			Str("flag", b.cfg.FeatureFlagName).
			Msg("feature flag lookup failed, treating provider as disabled")
		return false
	}

	if !flag.Enabled {
		return false
	}

	// No percentage (or one at/above 100) means full rollout.
	if flag.RolloutPct == nil || *flag.RolloutPct >= 100 {
		return true
	}
	if *flag.RolloutPct <= 0 {
		return false
	}

	// Partial rollout needs a user to bucket; anonymous callers stay out.
	if userID == "" {
		return false
	}
	return int(b.HashUserID(userID)%100) < *flag.RolloutPct
}

// HashUserID maps a user id onto a stable non-negative bucket value.
// FNV-1a is deterministic and spreads well across 100 buckets; exact
// bucket assignment is not a compatibility requirement.
func (b *Base) HashUserID(userID string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return h.Sum32()
}
