package paypal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"billbridge/internal/domain/transaction"
	"billbridge/internal/featureflag"
	"billbridge/internal/provider"
	"billbridge/internal/provider/base"
	"billbridge/internal/store/repositories"

	"github.com/rs/zerolog/log"
)

// Provider is the PayPal subscription adapter. It translates PayPal's
// billing plan and subscription shapes into the normalized envelope.
type Provider struct {
	base.Base
	transport    provider.Transport
	transactions repositories.TransactionRepository
}

// statusMap translates PayPal subscription statuses onto the shared
// lifecycle enum. Unknown vendor statuses map to APPROVAL_PENDING, the
// only state that commits us to nothing.
var statusMap = map[string]provider.SubscriptionStatus{
	"APPROVAL_PENDING": provider.SubStatusApprovalPending,
	"APPROVED":         provider.SubStatusApproved,
	"ACTIVE":           provider.SubStatusActive,
	"SUSPENDED":        provider.SubStatusSuspended,
	"CANCELLED":        provider.SubStatusCancelled,
	"EXPIRED":          provider.SubStatusExpired,
}

func mapStatus(s string) provider.SubscriptionStatus {
	if mapped, ok := statusMap[strings.ToUpper(s)]; ok {
		return mapped
	}
	return provider.SubStatusApprovalPending
}

// New creates the PayPal provider.
func New(transport provider.Transport, flags featureflag.Store, transactions repositories.TransactionRepository) *Provider {
	cfg := provider.Config{
		Type:            provider.ProviderPayPal,
		Name:            "PayPal",
		Description:     "Subscription billing through PayPal billing plans",
		Enabled:         true,
		FeatureFlagName: "paypal_subscriptions",
		Capabilities: []provider.Capability{
			provider.CapSubscriptions,
			provider.CapOneTimePayments,
			provider.CapRefunds,
			provider.CapWebhooks,
		},
	}

	return &Provider{
		Base:         base.New(cfg, flags),
		transport:    transport,
		transactions: transactions,
	}
}

// Initialize probes the gateway with a plan listing.
func (p *Provider) Initialize(ctx context.Context) error {
	if !p.ValidateConfig() {
		return fmt.Errorf("paypal provider misconfigured")
	}

	resp, err := p.transport.Do(ctx, "list_plans", map[string]any{})
	if err != nil {
		return fmt.Errorf("paypal initialization probe failed: %w", err)
	}
	if !resp.Success {
		return fmt.Errorf("paypal initialization probe rejected: %s", resp.FailureMessage())
	}

	log.Info().Str("provider", string(p.Type())).Msg("subscription provider initialized")
	return nil
}

// ValidateConfig checks the wiring the adapter cannot run without.
func (p *Provider) ValidateConfig() bool {
	return p.transport != nil && p.transactions != nil && len(p.Capabilities()) > 0
}

// HealthCheck reports gateway reachability; any failure reads as
// unhealthy, never as a panic or error.
func (p *Provider) HealthCheck(ctx context.Context) bool {
	resp, err := p.transport.Do(ctx, "list_plans", map[string]any{})
	return err == nil && resp != nil && resp.Success
}

// Wire shapes, mirroring PayPal's billing API.

type paypalFrequency struct {
	IntervalUnit  string `json:"interval_unit"`
	IntervalCount int    `json:"interval_count"`
}

type paypalBillingCycle struct {
	Frequency     paypalFrequency `json:"frequency"`
	TenureType    string          `json:"tenure_type"`
	Sequence      int             `json:"sequence"`
	TotalCycles   int             `json:"total_cycles"`
	PricingScheme struct {
		FixedPrice struct {
			Value        string `json:"value"`
			CurrencyCode string `json:"currency_code"`
		} `json:"fixed_price"`
	} `json:"pricing_scheme"`
}

type paypalPlan struct {
	ID            string               `json:"id"`
	ProductID     string               `json:"product_id"`
	Name          string               `json:"name"`
	Description   string               `json:"description"`
	Status        string               `json:"status"`
	BillingCycles []paypalBillingCycle `json:"billing_cycles"`
}

type paypalSubscription struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	PlanID      string `json:"plan_id"`
	BillingInfo struct {
		NextBillingTime *time.Time `json:"next_billing_time"`
	} `json:"billing_info"`
	Links []struct {
		Href string `json:"href"`
		Rel  string `json:"rel"`
	} `json:"links"`
}

func normalizePlan(in paypalPlan) provider.SubscriptionPlan {
	cycles := make([]provider.BillingCycle, 0, len(in.BillingCycles))
	for _, c := range in.BillingCycles {
		cycles = append(cycles, provider.BillingCycle{
			Frequency: provider.Frequency{
				IntervalUnit:  c.Frequency.IntervalUnit,
				IntervalCount: c.Frequency.IntervalCount,
			},
			TenureType:  c.TenureType,
			Sequence:    c.Sequence,
			TotalCycles: c.TotalCycles,
			Price: provider.FixedPrice{
				Value:        c.PricingScheme.FixedPrice.Value,
				CurrencyCode: c.PricingScheme.FixedPrice.CurrencyCode,
			},
		})
	}
	return provider.SubscriptionPlan{
		ID:            in.ID,
		ProductID:     in.ProductID,
		Name:          in.Name,
		Description:   in.Description,
		Status:        in.Status,
		BillingCycles: cycles,
	}
}

func normalizeSubscription(in paypalSubscription) provider.SubscriptionResponse {
	out := provider.SubscriptionResponse{
		ID:              in.ID,
		Status:          mapStatus(in.Status),
		PlanID:          in.PlanID,
		NextBillingTime: in.BillingInfo.NextBillingTime,
	}
	// The approval URL only matters while the subscriber still has to act.
	if out.Status == provider.SubStatusApprovalPending {
		for _, link := range in.Links {
			if link.Rel == "approve" {
				out.ApprovalURL = link.Href
				break
			}
		}
	}
	return out
}

func isNotFound(resp *provider.Response) bool {
	return strings.EqualFold(resp.Error, "RESOURCE_NOT_FOUND") ||
		strings.Contains(strings.ToLower(resp.FailureMessage()), "not found")
}

// ListPlans fetches every billing plan configured on the PayPal account.
func (p *Provider) ListPlans(ctx context.Context) provider.ListResult[provider.SubscriptionPlan] {
	resp, err := p.transport.Do(ctx, "list_plans", map[string]any{})
	if err != nil {
		return provider.FailList[provider.SubscriptionPlan](provider.ErrProviderError, err.Error())
	}
	if !resp.Success {
		return provider.FailList[provider.SubscriptionPlan](provider.ErrListPlansFailed, resp.FailureMessage())
	}

	var raw []paypalPlan
	if err := resp.Decode(&raw); err != nil {
		return provider.FailList[provider.SubscriptionPlan](provider.ErrProviderError,
			fmt.Sprintf("malformed plans response: %v", err))
	}

	plans := make([]provider.SubscriptionPlan, 0, len(raw))
	for _, pl := range raw {
		plans = append(plans, normalizePlan(pl))
	}
	return provider.OkList(plans)
}

// GetPlan fetches one billing plan.
func (p *Provider) GetPlan(ctx context.Context, planID string) provider.Result[provider.SubscriptionPlan] {
	resp, err := p.transport.Do(ctx, "get_plan", map[string]any{"plan_id": planID})
	if err != nil {
		return provider.Fail[provider.SubscriptionPlan](provider.ErrProviderError, err.Error())
	}
	if !resp.Success {
		if isNotFound(resp) {
			return provider.Fail[provider.SubscriptionPlan](provider.ErrNotFound,
				fmt.Sprintf("plan %s not found", planID))
		}
		return provider.Fail[provider.SubscriptionPlan](provider.ErrGetPlanFailed, resp.FailureMessage())
	}

	var raw paypalPlan
	if err := resp.Decode(&raw); err != nil {
		return provider.Fail[provider.SubscriptionPlan](provider.ErrProviderError,
			fmt.Sprintf("malformed plan response: %v", err))
	}
	return provider.Ok(normalizePlan(raw))
}

// CreatePlan creates a billing plan. Admin-only in the calling layer.
func (p *Provider) CreatePlan(ctx context.Context, req provider.PlanRequest) provider.Result[provider.SubscriptionPlan] {
	resp, err := p.transport.Do(ctx, "create_plan", req)
	if err != nil {
		return provider.Fail[provider.SubscriptionPlan](provider.ErrProviderError, err.Error())
	}
	if !resp.Success {
		return provider.Fail[provider.SubscriptionPlan](provider.ErrCreatePlanFailed, resp.FailureMessage())
	}

	var raw paypalPlan
	if err := resp.Decode(&raw); err != nil {
		return provider.Fail[provider.SubscriptionPlan](provider.ErrProviderError,
			fmt.Sprintf("malformed plan response: %v", err))
	}
	return provider.Ok(normalizePlan(raw))
}

// UpdatePlan patches a billing plan's descriptive fields.
func (p *Provider) UpdatePlan(ctx context.Context, planID string, req provider.PlanRequest) provider.Result[provider.SubscriptionPlan] {
	payload := map[string]any{"plan_id": planID, "plan": req}
	resp, err := p.transport.Do(ctx, "update_plan", payload)
	if err != nil {
		return provider.Fail[provider.SubscriptionPlan](provider.ErrProviderError, err.Error())
	}
	if !resp.Success {
		if isNotFound(resp) {
			return provider.Fail[provider.SubscriptionPlan](provider.ErrNotFound,
				fmt.Sprintf("plan %s not found", planID))
		}
		return provider.Fail[provider.SubscriptionPlan](provider.ErrUpdatePlanFailed, resp.FailureMessage())
	}

	var raw paypalPlan
	if err := resp.Decode(&raw); err != nil {
		return provider.Fail[provider.SubscriptionPlan](provider.ErrProviderError,
			fmt.Sprintf("malformed plan response: %v", err))
	}
	return provider.Ok(normalizePlan(raw))
}

// DeactivatePlan retires a billing plan from sale.
func (p *Provider) DeactivatePlan(ctx context.Context, planID string) provider.Result[bool] {
	resp, err := p.transport.Do(ctx, "deactivate_plan", map[string]any{"plan_id": planID})
	if err != nil {
		return provider.Fail[bool](provider.ErrProviderError, err.Error())
	}
	if !resp.Success {
		if isNotFound(resp) {
			return provider.Fail[bool](provider.ErrNotFound, fmt.Sprintf("plan %s not found", planID))
		}
		return provider.Fail[bool](provider.ErrDeactivatePlanFailed, resp.FailureMessage())
	}
	return provider.Ok(true)
}

// CreateSubscription starts a subscription; the caller redirects the user
// to the returned approval URL.
func (p *Provider) CreateSubscription(ctx context.Context, req provider.SubscriptionRequest) provider.Result[provider.SubscriptionResponse] {
	resp, err := p.transport.Do(ctx, "create_subscription", req)
	if err != nil {
		return provider.Fail[provider.SubscriptionResponse](provider.ErrProviderError, err.Error())
	}
	if !resp.Success {
		return provider.Fail[provider.SubscriptionResponse](provider.ErrCreateSubscriptionFailed, resp.FailureMessage())
	}

	var raw paypalSubscription
	if err := resp.Decode(&raw); err != nil {
		return provider.Fail[provider.SubscriptionResponse](provider.ErrProviderError,
			fmt.Sprintf("malformed subscription response: %v", err))
	}

	sub := normalizeSubscription(raw)
	p.recordSubscription(ctx, req.UserID, sub)
	return provider.Ok(sub)
}

// GetSubscription fetches current subscription state from PayPal.
func (p *Provider) GetSubscription(ctx context.Context, subscriptionID string) provider.Result[provider.SubscriptionResponse] {
	resp, err := p.transport.Do(ctx, "get_subscription", map[string]any{"subscription_id": subscriptionID})
	if err != nil {
		return provider.Fail[provider.SubscriptionResponse](provider.ErrProviderError, err.Error())
	}
	if !resp.Success {
		if isNotFound(resp) {
			return provider.Fail[provider.SubscriptionResponse](provider.ErrNotFound,
				fmt.Sprintf("subscription %s not found", subscriptionID))
		}
		return provider.Fail[provider.SubscriptionResponse](provider.ErrGetSubscriptionFailed, resp.FailureMessage())
	}

	var raw paypalSubscription
	if err := resp.Decode(&raw); err != nil {
		return provider.Fail[provider.SubscriptionResponse](provider.ErrProviderError,
			fmt.Sprintf("malformed subscription response: %v", err))
	}
	return provider.Ok(normalizeSubscription(raw))
}

// GetUserSubscriptions projects the user's subscriptions from the
// transaction log; it does not call out to PayPal.
func (p *Provider) GetUserSubscriptions(ctx context.Context, userID string) provider.ListResult[provider.SubscriptionResponse] {
	rows, err := p.transactions.FindByUser(ctx, userID, transaction.TypeSubscription, "", 50, 0)
	if err != nil {
		return provider.FailList[provider.SubscriptionResponse](provider.ErrQueryFailed, err.Error())
	}

	subs := make([]provider.SubscriptionResponse, 0, len(rows))
	for _, tx := range rows {
		sub := provider.SubscriptionResponse{
			ID:     tx.Reference,
			Status: mapStatus(tx.Status),
		}
		var details struct {
			PlanID string `json:"plan_id"`
		}
		if len(tx.RecipientDetails) > 0 && json.Unmarshal(tx.RecipientDetails, &details) == nil {
			sub.PlanID = details.PlanID
		}
		subs = append(subs, sub)
	}
	return provider.OkList(subs)
}

// CancelSubscription cancels a subscription; terminal on the provider
// side, so the local record goes terminal too.
func (p *Provider) CancelSubscription(ctx context.Context, req provider.CancelSubscriptionRequest) provider.Result[bool] {
	resp, err := p.transport.Do(ctx, "cancel_subscription", req)
	if err != nil {
		return provider.Fail[bool](provider.ErrProviderError, err.Error())
	}
	if !resp.Success {
		if isNotFound(resp) {
			return provider.Fail[bool](provider.ErrNotFound,
				fmt.Sprintf("subscription %s not found", req.SubscriptionID))
		}
		return provider.Fail[bool](provider.ErrCancelFailed, resp.FailureMessage())
	}

	p.recordStatus(ctx, req.SubscriptionID, provider.SubStatusCancelled)
	return provider.Ok(true)
}

// UpdateSubscription moves the subscription onto a new plan.
func (p *Provider) UpdateSubscription(ctx context.Context, req provider.UpdateSubscriptionRequest) provider.Result[provider.SubscriptionResponse] {
	resp, err := p.transport.Do(ctx, "update_subscription", req)
	if err != nil {
		return provider.Fail[provider.SubscriptionResponse](provider.ErrProviderError, err.Error())
	}
	if !resp.Success {
		if isNotFound(resp) {
			return provider.Fail[provider.SubscriptionResponse](provider.ErrNotFound,
				fmt.Sprintf("subscription %s not found", req.SubscriptionID))
		}
		return provider.Fail[provider.SubscriptionResponse](provider.ErrUpdateFailed, resp.FailureMessage())
	}

	var raw paypalSubscription
	if err := resp.Decode(&raw); err != nil {
		return provider.Fail[provider.SubscriptionResponse](provider.ErrProviderError,
			fmt.Sprintf("malformed subscription response: %v", err))
	}
	return provider.Ok(normalizeSubscription(raw))
}

// SuspendSubscription pauses billing without cancelling.
func (p *Provider) SuspendSubscription(ctx context.Context, subscriptionID, reason string) provider.Result[bool] {
	return p.transition(ctx, "suspend_subscription", subscriptionID, reason,
		provider.SubStatusSuspended, provider.ErrSuspendFailed)
}

// ResumeSubscription reactivates a suspended subscription.
func (p *Provider) ResumeSubscription(ctx context.Context, subscriptionID, reason string) provider.Result[bool] {
	return p.transition(ctx, "resume_subscription", subscriptionID, reason,
		provider.SubStatusActive, provider.ErrResumeFailed)
}

func (p *Provider) transition(ctx context.Context, action, subscriptionID, reason string,
	target provider.SubscriptionStatus, failCode string) provider.Result[bool] {

	payload := map[string]any{"subscription_id": subscriptionID, "reason": reason}
	resp, err := p.transport.Do(ctx, action, payload)
	if err != nil {
		return provider.Fail[bool](provider.ErrProviderError, err.Error())
	}
	if !resp.Success {
		if isNotFound(resp) {
			return provider.Fail[bool](provider.ErrNotFound,
				fmt.Sprintf("subscription %s not found", subscriptionID))
		}
		return provider.Fail[bool](failCode, resp.FailureMessage())
	}

	p.recordStatus(ctx, subscriptionID, target)
	return provider.Ok(true)
}

// VerifyWebhook asks PayPal whether the signature headers match the body.
func (p *Provider) VerifyWebhook(ctx context.Context, headers map[string]string, body []byte) provider.Result[bool] {
	payload := map[string]any{"headers": headers, "body": json.RawMessage(body)}
	resp, err := p.transport.Do(ctx, "verify_webhook", payload)
	if err != nil {
		return provider.Fail[bool](provider.ErrProviderError, err.Error())
	}
	if !resp.Success {
		return provider.Fail[bool](provider.ErrWebhookFailed, resp.FailureMessage())
	}
	return provider.Ok(true)
}

// ProcessWebhookEvent applies a verified webhook notification to the
// local subscription record.
func (p *Provider) ProcessWebhookEvent(ctx context.Context, body []byte) provider.Result[provider.WebhookEvent] {
	var raw struct {
		EventType string `json:"event_type"`
		Resource  struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"resource"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return provider.Fail[provider.WebhookEvent](provider.ErrWebhookFailed,
			fmt.Sprintf("malformed webhook body: %v", err))
	}

	evt := provider.WebhookEvent{
		EventType:  raw.EventType,
		ResourceID: raw.Resource.ID,
	}

	switch raw.EventType {
	case "BILLING.SUBSCRIPTION.ACTIVATED":
		evt.Status = provider.SubStatusActive
	case "BILLING.SUBSCRIPTION.SUSPENDED":
		evt.Status = provider.SubStatusSuspended
	case "BILLING.SUBSCRIPTION.CANCELLED":
		evt.Status = provider.SubStatusCancelled
	case "BILLING.SUBSCRIPTION.EXPIRED":
		evt.Status = provider.SubStatusExpired
	default:
		if raw.Resource.Status != "" {
			evt.Status = mapStatus(raw.Resource.Status)
		}
	}

	if evt.ResourceID != "" && evt.Status != "" {
		p.recordStatus(ctx, evt.ResourceID, evt.Status)
	}

	log.Info().
		Str("provider", string(p.Type())).
		Str("event_type", evt.EventType).
		Str("resource_id", evt.ResourceID).
		Msg("processed subscription webhook")

	return provider.Ok(evt)
}

// recordSubscription writes the subscription into the transaction log so
// GetUserSubscriptions can answer without a provider round trip. Log-only
// on failure: the ledger must not block the subscription path.
func (p *Provider) recordSubscription(ctx context.Context, userID string, sub provider.SubscriptionResponse) {
	if sub.ID == "" {
		return
	}

	tx, err := transaction.New(orAnonymous(userID), string(p.Type()), transaction.TypeSubscription, sub.ID, 0, "")
	if err != nil {
		log.Warn().Err(err).Str("subscription_id", sub.ID).Msg("could not build subscription record")
		return
	}
	tx.Status = string(sub.Status)
	tx.ProviderReference = sub.ID
	if details, err := json.Marshal(map[string]string{"plan_id": sub.PlanID}); err == nil {
		tx.RecipientDetails = details
	}

	if err := p.transactions.Save(ctx, tx); err != nil {
		log.Warn().Err(err).Str("subscription_id", sub.ID).Msg("could not record subscription")
	}
}

func (p *Provider) recordStatus(ctx context.Context, subscriptionID string, status provider.SubscriptionStatus) {
	if err := p.transactions.UpdateStatus(ctx, subscriptionID, string(status), subscriptionID); err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			log.Warn().Err(err).Str("subscription_id", subscriptionID).Msg("could not update subscription status")
		}
	}
}

func orAnonymous(userID string) string {
	if userID == "" {
		return "anonymous"
	}
	return userID
}
