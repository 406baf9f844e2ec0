package registry_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"billbridge/internal/domain/transaction"
	"billbridge/internal/featureflag"
	"billbridge/internal/provider"
	"billbridge/internal/provider/registry"
	"billbridge/internal/store/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	err error
}

func (f *fakeTransport) Do(ctx context.Context, action string, payload any) (*provider.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &provider.Response{Success: true}, nil
}

type memTxRepo struct {
	mu    sync.Mutex
	byRef map[string]*transaction.Transaction
}

func newMemTxRepo() *memTxRepo {
	return &memTxRepo{byRef: make(map[string]*transaction.Transaction)}
}

func (r *memTxRepo) Save(ctx context.Context, tx *transaction.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *tx
	r.byRef[tx.Reference] = &cp
	return nil
}

func (r *memTxRepo) FindByReference(ctx context.Context, reference string) (*transaction.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.byRef[reference]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *tx
	return &cp, nil
}

func (r *memTxRepo) FindByUser(ctx context.Context, userID string, txType transaction.Type, category string, limit, offset int) ([]*transaction.Transaction, error) {
	return nil, nil
}

func (r *memTxRepo) UpdateStatus(ctx context.Context, reference, status, providerReference string) error {
	return nil
}

type memFavRepo struct{}

func (memFavRepo) Save(ctx context.Context, fav *provider.Favorite) error { return nil }
func (memFavRepo) FindByUser(ctx context.Context, userID string) ([]provider.Favorite, error) {
	return nil, nil
}
func (memFavRepo) Delete(ctx context.Context, userID, favoriteID string) (bool, error) {
	return false, nil
}

func testDeps(paypalErr, sayswitchErr error) registry.Deps {
	return registry.Deps{
		PayPalTransport:    &fakeTransport{err: paypalErr},
		SaySwitchTransport: &fakeTransport{err: sayswitchErr},
		Flags:              featureflag.NewMemoryStore(),
		Transactions:       newMemTxRepo(),
		Favorites:          memFavRepo{},
	}
}

func initialized(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New(testDeps(nil, nil))
	require.NoError(t, reg.Initialize(context.Background()))
	return reg
}

func TestInitialize(t *testing.T) {
	t.Parallel()

	t.Run("registers both providers", func(t *testing.T) {
		t.Parallel()

		reg := initialized(t)
		assert.Len(t, reg.GetAllProviders(), 2)
	})

	t.Run("is idempotent", func(t *testing.T) {
		t.Parallel()

		reg := initialized(t)
		require.NoError(t, reg.Initialize(context.Background()))
		assert.Len(t, reg.GetAllProviders(), 2)
	})

	t.Run("a failing provider does not abort the rest", func(t *testing.T) {
		t.Parallel()

		reg := registry.New(testDeps(errors.New("paypal down"), nil))
		require.NoError(t, reg.Initialize(context.Background()))

		// Both providers stay registered; health reflects the failure.
		assert.Len(t, reg.GetAllProviders(), 2)
		health := reg.HealthCheckAll(context.Background())
		assert.False(t, health[provider.ProviderPayPal])
		assert.True(t, health[provider.ProviderSaySwitch])
	})

	t.Run("concurrent first calls resolve to one registration", func(t *testing.T) {
		t.Parallel()

		reg := registry.New(testDeps(nil, nil))

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = reg.Initialize(context.Background())
			}()
		}
		wg.Wait()

		assert.Len(t, reg.GetAllProviders(), 2)
	})
}

func TestLookups(t *testing.T) {
	t.Parallel()

	reg := initialized(t)

	t.Run("unknown provider type is not found", func(t *testing.T) {
		t.Parallel()

		_, err := reg.GetProvider("stripe")
		require.Error(t, err)

		var perr *provider.ProviderError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, provider.ErrNotFound, perr.Code)
	})

	t.Run("typed lookups enforce capability declarations", func(t *testing.T) {
		t.Parallel()

		sub, err := reg.GetSubscriptionProvider(provider.ProviderPayPal)
		require.NoError(t, err)
		assert.Equal(t, provider.ProviderPayPal, sub.Type())

		bill, err := reg.GetBillPaymentProvider(provider.ProviderSaySwitch)
		require.NoError(t, err)
		assert.Equal(t, provider.ProviderSaySwitch, bill.Type())

		_, err = reg.GetSubscriptionProvider(provider.ProviderSaySwitch)
		assert.Error(t, err)

		_, err = reg.GetBillPaymentProvider(provider.ProviderPayPal)
		assert.Error(t, err)
	})

	t.Run("capability filter", func(t *testing.T) {
		t.Parallel()

		airtime := reg.GetProvidersByCapability(provider.CapAirtime)
		require.Len(t, airtime, 1)
		assert.Equal(t, provider.ProviderSaySwitch, airtime[0].Type())

		subs := reg.GetSubscriptionProviders()
		require.Len(t, subs, 1)
		assert.Equal(t, provider.ProviderPayPal, subs[0].Type())

		bills := reg.GetBillPaymentProviders()
		require.Len(t, bills, 1)
		assert.Equal(t, provider.ProviderSaySwitch, bills[0].Type())
	})

	t.Run("enabled providers", func(t *testing.T) {
		t.Parallel()

		assert.Len(t, reg.GetEnabledProviders(), 2)
	})
}

func TestHealthCheckAll(t *testing.T) {
	t.Parallel()

	reg := initialized(t)
	health := reg.HealthCheckAll(context.Background())

	require.Len(t, health, 2)
	assert.True(t, health[provider.ProviderPayPal])
	assert.True(t, health[provider.ProviderSaySwitch])
}

func TestReset(t *testing.T) {
	t.Parallel()

	reg := initialized(t)
	reg.Reset()
	assert.Empty(t, reg.GetAllProviders())

	require.NoError(t, reg.Initialize(context.Background()))
	assert.Len(t, reg.GetAllProviders(), 2)
}

// Default is process-wide state, so these subtests run sequentially.
func TestDefault(t *testing.T) {
	registry.ResetDefault()
	t.Cleanup(registry.ResetDefault)

	first := registry.Default(testDeps(nil, nil))
	second := registry.Default(testDeps(nil, nil))
	assert.Same(t, first, second)

	registry.ResetDefault()
	third := registry.Default(testDeps(nil, nil))
	assert.NotSame(t, first, third)
}
