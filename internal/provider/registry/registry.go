package registry

import (
	"context"
	"fmt"
	"sync"

	"billbridge/internal/featureflag"
	"billbridge/internal/provider"
	"billbridge/internal/provider/paypal"
	"billbridge/internal/provider/sayswitch"
	"billbridge/internal/store/repositories"

	"github.com/rs/zerolog/log"
)

// state tracks the registry lifecycle: uninitialized → initializing →
// initialized. Initialize is idempotent; concurrent first calls resolve
// first-caller-wins through the in-progress state.
type state int

const (
	stateUninitialized state = iota
	stateInitializing
	stateInitialized
)

// Deps is everything the registry needs to construct its providers. Each
// provider gets its own transport since the gateways differ in base URL
// and signing key.
type Deps struct {
	PayPalTransport    provider.Transport
	SaySwitchTransport provider.Transport
	Flags              featureflag.Store
	Transactions       repositories.TransactionRepository
	Favorites          repositories.FavoriteRepository
}

// Registry owns the single long-lived instance of each provider type and
// answers typed and capability-filtered lookups. The provider map is
// populated during Initialize and read-only afterwards.
type Registry struct {
	mu        sync.RWMutex
	providers map[provider.ProviderType]provider.Provider
	deps      Deps
	state     state
}

// New creates an empty registry. Call Initialize before looking
// providers up.
func New(deps Deps) *Registry {
	return &Registry{
		providers: make(map[provider.ProviderType]provider.Provider),
		deps:      deps,
	}
}

// Initialize registers every known provider type and runs their
// initialization concurrently, so startup latency is bounded by the
// slowest provider rather than the sum. An individual provider's failure
// is logged and swallowed; the registry stays usable with that provider
// degraded. Calling Initialize again is a no-op.
func (r *Registry) Initialize(ctx context.Context) error {
	r.mu.Lock()
	if r.state != stateUninitialized {
		r.mu.Unlock()
		return nil
	}
	r.state = stateInitializing

	r.register(paypal.New(r.deps.PayPalTransport, r.deps.Flags, r.deps.Transactions))
	r.register(sayswitch.New(r.deps.SaySwitchTransport, r.deps.Flags, r.deps.Transactions, r.deps.Favorites))

	toInit := make([]provider.Provider, 0, len(r.providers))
	for _, p := range r.providers {
		toInit = append(toInit, p)
	}
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, p := range toInit {
		wg.Add(1)
		go func(p provider.Provider) {
			defer wg.Done()
			if err := p.Initialize(ctx); err != nil {
				log.Error().
					Err(err).
					Str("provider", string(p.Type())).
					Msg("provider initialization failed, continuing degraded")
			}
		}(p)
	}
	wg.Wait()

	r.mu.Lock()
	r.state = stateInitialized
	r.mu.Unlock()

	log.Info().Int("providers", len(toInit)).Msg("provider registry initialized")
	return nil
}

// register must be called with r.mu held.
func (r *Registry) register(p provider.Provider) {
	r.providers[p.Type()] = p
	log.Info().
		Str("provider", string(p.Type())).
		Str("name", p.Name()).
		Strs("capabilities", capabilitiesToStrings(p.Capabilities())).
		Msg("registered payment provider")
}

// GetProvider returns a provider by type.
func (r *Registry) GetProvider(providerType provider.ProviderType) (provider.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[providerType]
	if !ok {
		return nil, provider.NewError(provider.ErrNotFound,
			fmt.Sprintf("provider %s not registered", providerType))
	}
	return p, nil
}

// GetSubscriptionProvider returns the provider as its subscription role.
// A provider that does not declare the subscriptions capability comes
// back as not found; capability declarations are enforced here, not just
// documented.
func (r *Registry) GetSubscriptionProvider(providerType provider.ProviderType) (provider.SubscriptionProvider, error) {
	p, err := r.GetProvider(providerType)
	if err != nil {
		return nil, err
	}
	sub, ok := p.(provider.SubscriptionProvider)
	if !ok || !p.Supports(provider.CapSubscriptions) {
		return nil, provider.NewError(provider.ErrNotFound,
			fmt.Sprintf("provider %s does not support subscriptions", providerType))
	}
	return sub, nil
}

// GetBillPaymentProvider returns the provider as its bill-payment role.
func (r *Registry) GetBillPaymentProvider(providerType provider.ProviderType) (provider.BillPaymentProvider, error) {
	p, err := r.GetProvider(providerType)
	if err != nil {
		return nil, err
	}
	bill, ok := p.(provider.BillPaymentProvider)
	if !ok || !p.Supports(provider.CapBillPayments) {
		return nil, provider.NewError(provider.ErrNotFound,
			fmt.Sprintf("provider %s does not support bill payments", providerType))
	}
	return bill, nil
}

// GetAllProviders returns every registered provider. The view is computed
// per call; the provider set is small and static after Initialize.
func (r *Registry) GetAllProviders() []provider.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]provider.Provider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}
	return out
}

// GetEnabledProviders returns the providers whose static flag is on.
func (r *Registry) GetEnabledProviders() []provider.Provider {
	var out []provider.Provider
	for _, p := range r.GetAllProviders() {
		if p.Enabled() {
			out = append(out, p)
		}
	}
	return out
}

// GetProvidersByCapability returns every provider declaring the
// capability.
func (r *Registry) GetProvidersByCapability(c provider.Capability) []provider.Provider {
	var out []provider.Provider
	for _, p := range r.GetAllProviders() {
		if p.Supports(c) {
			out = append(out, p)
		}
	}
	return out
}

// GetSubscriptionProviders returns every provider in its subscription
// role.
func (r *Registry) GetSubscriptionProviders() []provider.SubscriptionProvider {
	var out []provider.SubscriptionProvider
	for _, p := range r.GetProvidersByCapability(provider.CapSubscriptions) {
		if sub, ok := p.(provider.SubscriptionProvider); ok {
			out = append(out, sub)
		}
	}
	return out
}

// GetBillPaymentProviders returns every provider in its bill-payment
// role.
func (r *Registry) GetBillPaymentProviders() []provider.BillPaymentProvider {
	var out []provider.BillPaymentProvider
	for _, p := range r.GetProvidersByCapability(provider.CapBillPayments) {
		if bill, ok := p.(provider.BillPaymentProvider); ok {
			out = append(out, bill)
		}
	}
	return out
}

// HealthCheckAll probes every provider concurrently and returns a map
// from type to health. A check that panics counts as unhealthy for that
// provider and never aborts the aggregate.
func (r *Registry) HealthCheckAll(ctx context.Context) map[provider.ProviderType]bool {
	providers := r.GetAllProviders()

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = make(map[provider.ProviderType]bool, len(providers))
	)

	for _, p := range providers {
		wg.Add(1)
		go func(p provider.Provider) {
			defer wg.Done()

			healthy := func() (h bool) {
				defer func() {
					if rec := recover(); rec != nil {
						log.Error().
							Interface("panic", rec).
							Str("provider", string(p.Type())).
							Msg("health check panicked")
						h = false
					}
				}()
				return p.HealthCheck(ctx)
			}()

			mu.Lock()
			out[p.Type()] = healthy
			mu.Unlock()
		}(p)
	}
	wg.Wait()

	return out
}

// Reset clears all registered providers and the initialized state so the
// registry can be initialized again. Test and operational escape hatch.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers = make(map[provider.ProviderType]provider.Provider)
	r.state = stateUninitialized
}

func capabilitiesToStrings(caps []provider.Capability) []string {
	out := make([]string, 0, len(caps))
	for _, c := range caps {
		out = append(out, string(c))
	}
	return out
}
