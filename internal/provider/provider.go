package provider

import (
	"context"

	"billbridge/internal/domain/transaction"
)

// Provider is the base contract every payment provider implements,
// regardless of what it actually does: capability metadata, feature-flag
// gating and lifecycle hooks.
type Provider interface {
	Type() ProviderType
	Name() string
	Description() string
	Enabled() bool

	// Supports reports whether the provider declares the capability.
	Supports(c Capability) bool
	// Capabilities returns a copy of the declared capability set.
	Capabilities() []Capability

	// CheckFeatureFlag reports whether the provider is available to the
	// given user. It never returns an error: every lookup failure degrades
	// to "not enabled" so availability bugs cannot over-expose a gated
	// provider.
	CheckFeatureFlag(ctx context.Context, userID string) bool

	// Lifecycle hooks. Each concrete provider defines its own behavior;
	// there is no shared implementation to inherit.
	Initialize(ctx context.Context) error
	ValidateConfig() bool
	HealthCheck(ctx context.Context) bool
}

// SubscriptionProvider is the role contract for providers that manage
// recurring subscriptions. Every operation returns a result envelope and
// never panics or errors across this boundary.
type SubscriptionProvider interface {
	Provider

	ListPlans(ctx context.Context) ListResult[SubscriptionPlan]
	GetPlan(ctx context.Context, planID string) Result[SubscriptionPlan]
	CreatePlan(ctx context.Context, req PlanRequest) Result[SubscriptionPlan]
	UpdatePlan(ctx context.Context, planID string, req PlanRequest) Result[SubscriptionPlan]
	DeactivatePlan(ctx context.Context, planID string) Result[bool]

	CreateSubscription(ctx context.Context, req SubscriptionRequest) Result[SubscriptionResponse]
	GetSubscription(ctx context.Context, subscriptionID string) Result[SubscriptionResponse]
	GetUserSubscriptions(ctx context.Context, userID string) ListResult[SubscriptionResponse]
	CancelSubscription(ctx context.Context, req CancelSubscriptionRequest) Result[bool]
	UpdateSubscription(ctx context.Context, req UpdateSubscriptionRequest) Result[SubscriptionResponse]
	SuspendSubscription(ctx context.Context, subscriptionID, reason string) Result[bool]
	ResumeSubscription(ctx context.Context, subscriptionID, reason string) Result[bool]

	VerifyWebhook(ctx context.Context, headers map[string]string, body []byte) Result[bool]
	ProcessWebhookEvent(ctx context.Context, body []byte) Result[WebhookEvent]
}

// BillPaymentProvider is the role contract for providers that execute
// one-shot bill payments (airtime, data, tv, electricity).
type BillPaymentProvider interface {
	Provider

	GetProviders(ctx context.Context, category BillCategory) ListResult[BillProvider]
	GetDataPlans(ctx context.Context, providerCode string) ListResult[DataPlan]
	GetTVPackages(ctx context.Context, providerCode string) ListResult[TVPackage]
	ValidateCustomer(ctx context.Context, req ValidateCustomerRequest) Result[CustomerInfo]

	// PayBill routes on req.Category to the matching category method. An
	// unrecognized category yields a failed response with code
	// INVALID_CATEGORY without touching the transport.
	PayBill(ctx context.Context, req BillPaymentRequest) BillPaymentResponse
	PayAirtime(ctx context.Context, req BillPaymentRequest) BillPaymentResponse
	PayData(ctx context.Context, req BillPaymentRequest) BillPaymentResponse
	PayTV(ctx context.Context, req BillPaymentRequest) BillPaymentResponse
	PayElectricity(ctx context.Context, req BillPaymentRequest) BillPaymentResponse

	GetUserTransactions(ctx context.Context, userID string, category BillCategory) ListResult[transaction.Transaction]
	GetTransaction(ctx context.Context, reference string) Result[transaction.Transaction]

	SaveFavorite(ctx context.Context, fav Favorite) Result[Favorite]
	GetFavorites(ctx context.Context, userID string) ListResult[Favorite]
	DeleteFavorite(ctx context.Context, userID, favoriteID string) Result[bool]
}
