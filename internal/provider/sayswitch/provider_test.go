package sayswitch_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"billbridge/internal/domain/transaction"
	"billbridge/internal/featureflag"
	"billbridge/internal/provider"
	"billbridge/internal/provider/sayswitch"
	"billbridge/internal/store/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport scripts gateway replies per action and records every call.
type fakeTransport struct {
	mu      sync.Mutex
	calls   []string
	handler func(action string, payload any) (*provider.Response, error)
}

func (f *fakeTransport) Do(ctx context.Context, action string, payload any) (*provider.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, action)
	f.mu.Unlock()

	if f.handler == nil {
		return &provider.Response{Success: true}, nil
	}
	return f.handler(action, payload)
}

func (f *fakeTransport) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func okResponse(data any) *provider.Response {
	raw, _ := json.Marshal(data)
	return &provider.Response{Success: true, Data: raw}
}

// memTxRepo is an in-memory transaction log keyed by reference.
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
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*transaction.Transaction
	for _, tx := range r.byRef {
		if tx.UserID != userID || tx.Type != txType {
			continue
		}
		if category != "" && tx.Category != category {
			continue
		}
		cp := *tx
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memTxRepo) UpdateStatus(ctx context.Context, reference, status, providerReference string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.byRef[reference]
	if !ok {
		return repositories.ErrNotFound
	}
	tx.Status = status
	if providerReference != "" {
		tx.ProviderReference = providerReference
	}
	return nil
}

// memFavRepo is an in-memory favorites store.
type memFavRepo struct {
	mu   sync.Mutex
	favs map[string]provider.Favorite
	next int
}

func newMemFavRepo() *memFavRepo {
	return &memFavRepo{favs: make(map[string]provider.Favorite)}
}

func (r *memFavRepo) Save(ctx context.Context, fav *provider.Favorite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if fav.ID == "" {
		r.next++
		fav.ID = fmt.Sprintf("fav-%d", r.next)
	}
	r.favs[fav.ID] = *fav
	return nil
}

func (r *memFavRepo) FindByUser(ctx context.Context, userID string) ([]provider.Favorite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []provider.Favorite
	for _, f := range r.favs {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *memFavRepo) Delete(ctx context.Context, userID, favoriteID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.favs[favoriteID]
	if !ok || f.UserID != userID {
		return false, nil
	}
	delete(r.favs, favoriteID)
	return true, nil
}

func newProvider(handler func(action string, payload any) (*provider.Response, error)) (*sayswitch.Provider, *fakeTransport, *memTxRepo, *memFavRepo) {
	transport := &fakeTransport{handler: handler}
	txRepo := newMemTxRepo()
	favRepo := newMemFavRepo()
	p := sayswitch.New(transport, featureflag.NewMemoryStore(), txRepo, favRepo)
	return p, transport, txRepo, favRepo
}

func airtimeRequest() provider.BillPaymentRequest {
	return provider.BillPaymentRequest{
		Category:   provider.CategoryAirtime,
		Provider:   "MTN",
		CustomerID: "08012345678",
		Amount:     500,
		UserID:     "user-1",
	}
}

func TestProviderMetadata(t *testing.T) {
	t.Parallel()

	p, _, _, _ := newProvider(nil)

	assert.Equal(t, provider.ProviderSaySwitch, p.Type())
	assert.True(t, p.Enabled())
	assert.True(t, p.Supports(provider.CapBillPayments))
	assert.True(t, p.Supports(provider.CapAirtime))
	assert.False(t, p.Supports(provider.CapSubscriptions))
	assert.True(t, p.ValidateConfig())
}

func TestPayBillDispatch(t *testing.T) {
	t.Parallel()

	t.Run("routes airtime to the airtime action", func(t *testing.T) {
		t.Parallel()

		p, transport, _, _ := newProvider(func(action string, payload any) (*provider.Response, error) {
			return okResponse(map[string]string{"reference": "r-1", "status": "success"}), nil
		})

		resp := p.PayBill(context.Background(), airtimeRequest())
		require.True(t, resp.Success)
		assert.Contains(t, transport.calls, "pay_airtime")
	})

	t.Run("unknown category fails without touching the transport", func(t *testing.T) {
		t.Parallel()

		p, transport, _, _ := newProvider(nil)

		resp := p.PayBill(context.Background(), provider.BillPaymentRequest{
			Category:   "water",
			Provider:   "WATERCO",
			CustomerID: "123",
			Amount:     100,
		})

		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, provider.ErrInvalidCategory, resp.Error.Code)
		assert.Zero(t, transport.callCount())
	})
}

func TestPayAirtime(t *testing.T) {
	t.Parallel()

	t.Run("successful payment records a completed transaction", func(t *testing.T) {
		t.Parallel()

		p, _, txRepo, _ := newProvider(func(action string, payload any) (*provider.Response, error) {
			return okResponse(map[string]string{
				"reference": "BB-test", "status": "success", "id": "ss-900",
			}), nil
		})

		req := airtimeRequest()
		req.Reference = "BB-test"
		resp := p.PayAirtime(context.Background(), req)

		require.True(t, resp.Success)
		assert.Equal(t, provider.StatusCompleted, resp.Status)
		assert.Equal(t, "BB-test", resp.Reference)
		assert.Equal(t, "ss-900", resp.ProviderID)
		assert.Equal(t, int64(500), resp.Amount)

		tx, err := txRepo.FindByReference(context.Background(), "BB-test")
		require.NoError(t, err)
		assert.Equal(t, "completed", tx.Status)
		assert.Equal(t, "ss-900", tx.ProviderReference)
		assert.Equal(t, "user-1", tx.UserID)
		assert.Equal(t, "airtime", tx.Category)
	})

	t.Run("generates a reference when missing", func(t *testing.T) {
		t.Parallel()

		p, _, _, _ := newProvider(func(action string, payload any) (*provider.Response, error) {
			return okResponse(map[string]string{"status": "pending"}), nil
		})

		resp := p.PayAirtime(context.Background(), airtimeRequest())
		require.True(t, resp.Success)
		assert.Contains(t, resp.Reference, "BB-")
	})

	t.Run("validation failure never reaches the transport", func(t *testing.T) {
		t.Parallel()

		p, transport, _, _ := newProvider(nil)

		req := airtimeRequest()
		req.Amount = 10 // below minimum
		resp := p.PayAirtime(context.Background(), req)

		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, provider.ErrValidationFailed, resp.Error.Code)
		assert.Zero(t, transport.callCount())
	})

	t.Run("gateway rejection marks the transaction failed", func(t *testing.T) {
		t.Parallel()

		p, _, txRepo, _ := newProvider(func(action string, payload any) (*provider.Response, error) {
			return &provider.Response{Success: false, Error: "Insufficient balance"}, nil
		})

		req := airtimeRequest()
		req.Reference = "BB-reject"
		resp := p.PayAirtime(context.Background(), req)

		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, provider.ErrPaymentFailed, resp.Error.Code)
		assert.Equal(t, "Insufficient balance", resp.Error.Message)

		tx, err := txRepo.FindByReference(context.Background(), "BB-reject")
		require.NoError(t, err)
		assert.Equal(t, "failed", tx.Status)
	})

	t.Run("transport error marks the transaction failed", func(t *testing.T) {
		t.Parallel()

		p, _, txRepo, _ := newProvider(func(action string, payload any) (*provider.Response, error) {
			return nil, errors.New("connection refused")
		})

		req := airtimeRequest()
		req.Reference = "BB-neterr"
		resp := p.PayAirtime(context.Background(), req)

		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, provider.ErrProviderError, resp.Error.Code)

		tx, err := txRepo.FindByReference(context.Background(), "BB-neterr")
		require.NoError(t, err)
		assert.Equal(t, "failed", tx.Status)
	})

	t.Run("accepted payment with malformed body stays pending", func(t *testing.T) {
		t.Parallel()

		p, _, txRepo, _ := newProvider(func(action string, payload any) (*provider.Response, error) {
			return &provider.Response{Success: true, Data: json.RawMessage(`"not an object"`)}, nil
		})

		req := airtimeRequest()
		req.Reference = "BB-weird"
		resp := p.PayAirtime(context.Background(), req)

		require.True(t, resp.Success)
		assert.Equal(t, provider.StatusPending, resp.Status)

		tx, err := txRepo.FindByReference(context.Background(), "BB-weird")
		require.NoError(t, err)
		assert.Equal(t, "pending", tx.Status)
	})
}

func TestPayElectricity(t *testing.T) {
	t.Parallel()

	p, _, _, _ := newProvider(func(action string, payload any) (*provider.Response, error) {
		return okResponse(map[string]string{
			"reference": "BB-elec", "status": "delivered", "token": "1234-5678-9012",
		}), nil
	})

	resp := p.PayElectricity(context.Background(), provider.BillPaymentRequest{
		Provider:   "IKEDC",
		CustomerID: "45021234567",
		Amount:     5000,
		MeterType:  "prepaid",
		Reference:  "BB-elec",
		UserID:     "user-1",
	})

	require.True(t, resp.Success)
	assert.Equal(t, provider.StatusCompleted, resp.Status)
	assert.Equal(t, "1234-5678-9012", resp.Token)
}

func TestStatusMapping(t *testing.T) {
	t.Parallel()

	cases := map[string]provider.PaymentStatus{
		"success":    provider.StatusCompleted,
		"delivered":  provider.StatusCompleted,
		"initiated":  provider.StatusPending,
		"processing": provider.StatusProcessing,
		"declined":   provider.StatusFailed,
		"reversed":   provider.StatusCancelled,
		"weird":      provider.StatusPending, // unknown vendor status stays pending
	}

	for vendorStatus, want := range cases {
		vendorStatus, want := vendorStatus, want
		t.Run(vendorStatus, func(t *testing.T) {
			t.Parallel()

			p, _, _, _ := newProvider(func(action string, payload any) (*provider.Response, error) {
				return okResponse(map[string]string{"reference": "r", "status": vendorStatus}), nil
			})

			resp := p.PayAirtime(context.Background(), airtimeRequest())
			require.True(t, resp.Success)
			assert.Equal(t, want, resp.Status)
		})
	}
}

func TestGetProviders(t *testing.T) {
	t.Parallel()

	t.Run("invalid category fails without a gateway call", func(t *testing.T) {
		t.Parallel()

		p, transport, _, _ := newProvider(nil)
		result := p.GetProviders(context.Background(), "water")

		assert.False(t, result.Success)
		require.NotNil(t, result.Error)
		assert.Equal(t, provider.ErrInvalidCategory, result.Error.Code)
		assert.Zero(t, transport.callCount())
	})

	t.Run("vendors come back tagged with the category", func(t *testing.T) {
		t.Parallel()

		p, _, _, _ := newProvider(func(action string, payload any) (*provider.Response, error) {
			return okResponse([]map[string]string{
				{"code": "MTN", "name": "MTN Nigeria"},
				{"code": "GLO", "name": "Globacom"},
			}), nil
		})

		result := p.GetProviders(context.Background(), provider.CategoryAirtime)
		require.True(t, result.Success)
		require.Len(t, result.Items, 2)
		assert.Equal(t, provider.CategoryAirtime, result.Items[0].Category)
	})
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	healthy, _, _, _ := newProvider(nil)
	assert.True(t, healthy.HealthCheck(context.Background()))

	down, _, _, _ := newProvider(func(action string, payload any) (*provider.Response, error) {
		return nil, errors.New("timeout")
	})
	assert.False(t, down.HealthCheck(context.Background()))

	rejecting, _, _, _ := newProvider(func(action string, payload any) (*provider.Response, error) {
		return &provider.Response{Success: false}, nil
	})
	assert.False(t, rejecting.HealthCheck(context.Background()))
}

func TestTransactions(t *testing.T) {
	t.Parallel()

	t.Run("user history filters by category", func(t *testing.T) {
		t.Parallel()

		p, _, txRepo, _ := newProvider(nil)
		ctx := context.Background()

		for i, category := range []string{"airtime", "data", "airtime"} {
			tx, err := transaction.New("user-1", "sayswitch", transaction.TypeBill, fmt.Sprintf("r-%d", i), 100, "NGN")
			require.NoError(t, err)
			tx.Category = category
			require.NoError(t, txRepo.Save(ctx, tx))
		}

		all := p.GetUserTransactions(ctx, "user-1", "")
		require.True(t, all.Success)
		assert.Len(t, all.Items, 3)

		airtime := p.GetUserTransactions(ctx, "user-1", provider.CategoryAirtime)
		require.True(t, airtime.Success)
		assert.Len(t, airtime.Items, 2)
	})

	t.Run("lookup by unknown reference is not found", func(t *testing.T) {
		t.Parallel()

		p, _, _, _ := newProvider(nil)
		result := p.GetTransaction(context.Background(), "no-such-ref")

		assert.False(t, result.Success)
		require.NotNil(t, result.Error)
		assert.Equal(t, provider.ErrNotFound, result.Error.Code)
	})
}

func TestFavorites(t *testing.T) {
	t.Parallel()

	p, _, _, _ := newProvider(nil)
	ctx := context.Background()

	saved := p.SaveFavorite(ctx, provider.Favorite{
		UserID:     "user-1",
		Category:   provider.CategoryAirtime,
		Provider:   "MTN",
		CustomerID: "08012345678",
		Label:      "mum",
	})
	require.True(t, saved.Success)
	require.NotEmpty(t, saved.Data.ID)

	listed := p.GetFavorites(ctx, "user-1")
	require.True(t, listed.Success)
	require.Len(t, listed.Items, 1)
	assert.Equal(t, "mum", listed.Items[0].Label)

	// Another user cannot delete it.
	denied := p.DeleteFavorite(ctx, "user-2", saved.Data.ID)
	assert.False(t, denied.Success)
	require.NotNil(t, denied.Error)
	assert.Equal(t, provider.ErrNotFound, denied.Error.Code)

	deleted := p.DeleteFavorite(ctx, "user-1", saved.Data.ID)
	assert.True(t, deleted.Success)

	gone := p.GetFavorites(ctx, "user-1")
	require.True(t, gone.Success)
	assert.Empty(t, gone.Items)
}
