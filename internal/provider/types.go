package provider

import "time"

// Provider identification
type ProviderType string

const (
	ProviderPayPal    ProviderType = "paypal"
	ProviderSaySwitch ProviderType = "sayswitch"
)

// Capability tags a provider can declare. Membership is a plain
// set-containment check, there is no hierarchy between tags.
type Capability string

const (
	CapSubscriptions   Capability = "subscriptions"
	CapOneTimePayments Capability = "one_time_payments"
	CapRefunds         Capability = "refunds"
	CapWebhooks        Capability = "webhooks"
	CapBillPayments    Capability = "bill_payments"
	CapAirtime         Capability = "airtime"
	CapData            Capability = "data"
	CapTV              Capability = "tv"
	CapElectricity     Capability = "electricity"
)

// Bill payment categories
type BillCategory string

const (
	CategoryAirtime     BillCategory = "airtime"
	CategoryData        BillCategory = "data"
	CategoryTV          BillCategory = "tv"
	CategoryElectricity BillCategory = "electricity"
)

// CategoryCapability maps a bill category onto the capability a provider
// must declare to serve it.
func CategoryCapability(c BillCategory) (Capability, bool) {
	switch c {
	case CategoryAirtime:
		return CapAirtime, true
	case CategoryData:
		return CapData, true
	case CategoryTV:
		return CapTV, true
	case CategoryElectricity:
		return CapElectricity, true
	default:
		return "", false
	}
}

// Config is the static descriptor of a provider. Immutable once
// constructed; owned exclusively by its provider instance.
type Config struct {
	Type            ProviderType `json:"type"`
	Name            string       `json:"name"`
	Description     string       `json:"description"`
	Enabled         bool         `json:"enabled"`
	FeatureFlagName string       `json:"feature_flag_name,omitempty"`
	Capabilities    []Capability `json:"capabilities"`
}

// Subscription lifecycle status
type SubscriptionStatus string

const (
	SubStatusApprovalPending SubscriptionStatus = "APPROVAL_PENDING"
	SubStatusApproved        SubscriptionStatus = "APPROVED"
	SubStatusActive          SubscriptionStatus = "ACTIVE"
	SubStatusSuspended       SubscriptionStatus = "SUSPENDED"
	SubStatusCancelled       SubscriptionStatus = "CANCELLED"
	SubStatusExpired         SubscriptionStatus = "EXPIRED"
)

// Bill payment status. Terminal once completed, failed or cancelled.
type PaymentStatus string

const (
	StatusPending    PaymentStatus = "pending"
	StatusProcessing PaymentStatus = "processing"
	StatusCompleted  PaymentStatus = "completed"
	StatusFailed     PaymentStatus = "failed"
	StatusCancelled  PaymentStatus = "cancelled"
)

// Tenure types for billing cycles
const (
	TenureTrial   = "TRIAL"
	TenureRegular = "REGULAR"
)

// Frequency describes how often a billing cycle recurs.
type Frequency struct {
	IntervalUnit  string `json:"interval_unit"` // DAY, WEEK, MONTH, YEAR
	IntervalCount int    `json:"interval_count"`
}

// FixedPrice is a decimal-string money value; never a float.
type FixedPrice struct {
	Value        string `json:"value"`
	CurrencyCode string `json:"currency_code"`
}

// BillingCycle is one leg of a subscription pricing schedule.
// TotalCycles of 0 means the cycle repeats indefinitely.
type BillingCycle struct {
	Frequency   Frequency  `json:"frequency"`
	TenureType  string     `json:"tenure_type"` // TRIAL or REGULAR
	Sequence    int        `json:"sequence"`
	TotalCycles int        `json:"total_cycles"`
	Price       FixedPrice `json:"price"`
}

// SubscriptionPlan is an immutable snapshot of provider-side plan state
// at fetch time; it is not kept in sync automatically.
type SubscriptionPlan struct {
	ID            string         `json:"id"`
	ProductID     string         `json:"product_id,omitempty"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	Status        string         `json:"status"`
	BillingCycles []BillingCycle `json:"billing_cycles"`
}

// PlanRequest carries the fields needed to create or update a plan.
type PlanRequest struct {
	ProductID     string         `json:"product_id,omitempty"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	BillingCycles []BillingCycle `json:"billing_cycles,omitempty"`
}

// SubscriptionRequest asks a provider to start a subscription for a user.
type SubscriptionRequest struct {
	PlanID          string `json:"plan_id"`
	UserID          string `json:"user_id"`
	SubscriberEmail string `json:"subscriber_email,omitempty"`
	SubscriberName  string `json:"subscriber_name,omitempty"`
	ReturnURL       string `json:"return_url,omitempty"`
	CancelURL       string `json:"cancel_url,omitempty"`
}

// SubscriptionResponse is the normalized subscription instance state.
// ApprovalURL is present only while the subscription awaits approval.
type SubscriptionResponse struct {
	ID              string             `json:"id"`
	Status          SubscriptionStatus `json:"status"`
	PlanID          string             `json:"plan_id"`
	ApprovalURL     string             `json:"approval_url,omitempty"`
	NextBillingTime *time.Time         `json:"next_billing_time,omitempty"`
}

// CancelSubscriptionRequest cancels an active subscription.
type CancelSubscriptionRequest struct {
	SubscriptionID string `json:"subscription_id"`
	UserID         string `json:"user_id,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

// UpdateSubscriptionRequest moves a subscription onto another plan.
type UpdateSubscriptionRequest struct {
	SubscriptionID string `json:"subscription_id"`
	PlanID         string `json:"plan_id"`
}

// WebhookEvent is the normalized outcome of processing a provider webhook.
type WebhookEvent struct {
	EventType  string             `json:"event_type"`
	ResourceID string             `json:"resource_id"`
	Status     SubscriptionStatus `json:"status,omitempty"`
}

// BillPaymentRequest is a one-shot bill payment order. Reference is the
// caller-supplied idempotency/tracking key; a fresh one is generated when
// absent.
type BillPaymentRequest struct {
	Category   BillCategory `json:"category"`
	Provider   string       `json:"provider"`    // vendor code, e.g. MTN, DSTV, IKEDC
	CustomerID string       `json:"customer_id"` // phone, smartcard or meter number
	Amount     int64        `json:"amount"`
	PlanCode   string       `json:"plan_code,omitempty"`  // data plan / tv package code
	MeterType  string       `json:"meter_type,omitempty"` // prepaid or postpaid
	Reference  string       `json:"reference,omitempty"`
	UserID     string       `json:"user_id,omitempty"`
}

// BillPaymentResponse is the uniform outcome shape for every bill payment
// path, including dispatch failures. A response either carries a status or
// a non-nil Error, never both.
type BillPaymentResponse struct {
	Success    bool           `json:"success"`
	Reference  string         `json:"reference,omitempty"`
	Status     PaymentStatus  `json:"status,omitempty"`
	Amount     int64          `json:"amount,omitempty"`
	Provider   string         `json:"provider,omitempty"`
	ProviderID string         `json:"provider_id,omitempty"`
	Token      string         `json:"token,omitempty"` // prepaid electricity token
	Error      *ProviderError `json:"error,omitempty"`
}

// BillProvider is one vendor reachable through a bill-payment provider.
type BillProvider struct {
	Code     string       `json:"code"`
	Name     string       `json:"name"`
	Category BillCategory `json:"category"`
}

// DataPlan is a purchasable mobile data bundle.
type DataPlan struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Amount   int64  `json:"amount"`
	Validity string `json:"validity,omitempty"`
}

// TVPackage is a purchasable TV bouquet.
type TVPackage struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Amount int64  `json:"amount"`
}

// ValidateCustomerRequest resolves a customer identifier with a vendor
// before money moves.
type ValidateCustomerRequest struct {
	Category   BillCategory `json:"category"`
	Provider   string       `json:"provider"`
	CustomerID string       `json:"customer_id"`
	MeterType  string       `json:"meter_type,omitempty"`
}

// CustomerInfo is the vendor's view of a validated customer.
type CustomerInfo struct {
	CustomerID   string `json:"customer_id"`
	CustomerName string `json:"customer_name,omitempty"`
	Address      string `json:"address,omitempty"`
}

// Favorite is a saved bill recipient for quick repeat payments.
type Favorite struct {
	ID         string       `json:"id"`
	UserID     string       `json:"user_id"`
	Category   BillCategory `json:"category"`
	Provider   string       `json:"provider"`
	CustomerID string       `json:"customer_id"`
	Label      string       `json:"label,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}
