package base_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"billbridge/internal/featureflag"
	"billbridge/internal/provider"
	"billbridge/internal/provider/base"

	"github.com/stretchr/testify/assert"
)

func pct(v int) *int { return &v }

type failingStore struct{}

func (failingStore) GetFlag(ctx context.Context, name string) (*featureflag.Flag, error) {
	return nil, errors.New("store down")
}

func newBase(cfg provider.Config, flags featureflag.Store) base.Base {
	return base.New(cfg, flags)
}

func TestSupports(t *testing.T) {
	t.Parallel()

	b := newBase(provider.Config{
		Type:         provider.ProviderSaySwitch,
		Capabilities: []provider.Capability{provider.CapBillPayments, provider.CapAirtime},
	}, featureflag.NewMemoryStore())

	assert.True(t, b.Supports(provider.CapBillPayments))
	assert.True(t, b.Supports(provider.CapAirtime))
	assert.False(t, b.Supports(provider.CapSubscriptions))
}

func TestCapabilitiesIsACopy(t *testing.T) {
	t.Parallel()

	b := newBase(provider.Config{
		Capabilities: []provider.Capability{provider.CapAirtime},
	}, featureflag.NewMemoryStore())

	caps := b.Capabilities()
	caps[0] = provider.CapTV

	assert.True(t, b.Supports(provider.CapAirtime))
	assert.False(t, b.Supports(provider.CapTV))
}

func TestCheckFeatureFlag(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	cfg := func(flagName string, enabled bool) provider.Config {
		return provider.Config{
			Type:            provider.ProviderPayPal,
			Enabled:         enabled,
			FeatureFlagName: flagName,
		}
	}

	t.Run("no flag name falls back to static enabled", func(t *testing.T) {
		t.Parallel()

		flags := featureflag.NewMemoryStore()
		on := newBase(cfg("", true), flags)
		off := newBase(cfg("", false), flags)

		assert.True(t, on.CheckFeatureFlag(ctx, "user-1"))
		assert.False(t, off.CheckFeatureFlag(ctx, "user-1"))
	})

	t.Run("missing flag record fails closed", func(t *testing.T) {
		t.Parallel()

		b := newBase(cfg("paypal_subscriptions", true), featureflag.NewMemoryStore())
		assert.False(t, b.CheckFeatureFlag(ctx, "user-1"))
	})

	t.Run("store failure fails closed", func(t *testing.T) {
		t.Parallel()

		b := newBase(cfg("paypal_subscriptions", true), failingStore{})
		assert.False(t, b.CheckFeatureFlag(ctx, "user-1"))
	})

	t.Run("disabled flag is off regardless of rollout", func(t *testing.T) {
		t.Parallel()

		flags := featureflag.NewMemoryStore()
		flags.SetFlag(featureflag.Flag{Name: "f", Enabled: false, RolloutPct: pct(100)})

		b := newBase(cfg("f", true), flags)
		assert.False(t, b.CheckFeatureFlag(ctx, "user-1"))
	})

	t.Run("enabled flag without percentage is full rollout", func(t *testing.T) {
		t.Parallel()

		flags := featureflag.NewMemoryStore()
		flags.SetFlag(featureflag.Flag{Name: "f", Enabled: true})

		b := newBase(cfg("f", true), flags)
		assert.True(t, b.CheckFeatureFlag(ctx, "user-1"))
		assert.True(t, b.CheckFeatureFlag(ctx, ""))
	})

	t.Run("rollout boundaries", func(t *testing.T) {
		t.Parallel()

		flags := featureflag.NewMemoryStore()
		b := newBase(cfg("f", true), flags)

		flags.SetFlag(featureflag.Flag{Name: "f", Enabled: true, RolloutPct: pct(0)})
		assert.False(t, b.CheckFeatureFlag(ctx, "user-1"))

		flags.SetFlag(featureflag.Flag{Name: "f", Enabled: true, RolloutPct: pct(100)})
		assert.True(t, b.CheckFeatureFlag(ctx, "user-1"))

		flags.SetFlag(featureflag.Flag{Name: "f", Enabled: true, RolloutPct: pct(150)})
		assert.True(t, b.CheckFeatureFlag(ctx, "user-1"))
	})

	t.Run("partial rollout excludes anonymous users", func(t *testing.T) {
		t.Parallel()

		flags := featureflag.NewMemoryStore()
		flags.SetFlag(featureflag.Flag{Name: "f", Enabled: true, RolloutPct: pct(50)})

		b := newBase(cfg("f", true), flags)
		assert.False(t, b.CheckFeatureFlag(ctx, ""))
	})

	t.Run("partial rollout is deterministic per user", func(t *testing.T) {
		t.Parallel()

		flags := featureflag.NewMemoryStore()
		flags.SetFlag(featureflag.Flag{Name: "f", Enabled: true, RolloutPct: pct(50)})

		b := newBase(cfg("f", true), flags)
		for i := 0; i < 20; i++ {
			userID := fmt.Sprintf("user-%d", i)
			first := b.CheckFeatureFlag(ctx, userID)
			for j := 0; j < 5; j++ {
				assert.Equal(t, first, b.CheckFeatureFlag(ctx, userID))
			}
		}
	})

	t.Run("partial rollout splits the population roughly in half", func(t *testing.T) {
		t.Parallel()

		flags := featureflag.NewMemoryStore()
		flags.SetFlag(featureflag.Flag{Name: "f", Enabled: true, RolloutPct: pct(50)})

		b := newBase(cfg("f", true), flags)
		in := 0
		for i := 0; i < 100; i++ {
			if b.CheckFeatureFlag(ctx, fmt.Sprintf("user-%d", i)) {
				in++
			}
		}
		assert.GreaterOrEqual(t, in, 30)
		assert.LessOrEqual(t, in, 70)
	})
}

func TestHashUserID(t *testing.T) {
	t.Parallel()

	b := newBase(provider.Config{}, featureflag.NewMemoryStore())

	assert.Equal(t, b.HashUserID("user-42"), b.HashUserID("user-42"))
	assert.NotEqual(t, b.HashUserID("user-42"), b.HashUserID("user-43"))
}
