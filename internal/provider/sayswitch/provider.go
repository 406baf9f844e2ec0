package sayswitch

import (
	"context"
	"errors"
	"fmt"

	"billbridge/internal/domain/transaction"
	"billbridge/internal/featureflag"
	"billbridge/internal/provider"
	"billbridge/internal/provider/base"
	"billbridge/internal/store/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Provider is the SaySwitch bill-payment adapter. It translates the
// aggregator's request/response shapes into the normalized envelope and
// records every payment in the transaction log.
type Provider struct {
	base.Base
	transport    provider.Transport
	validator    *base.BillRequestValidator
	transactions repositories.TransactionRepository
	favorites    repositories.FavoriteRepository
}

const currency = "NGN"

// statusMap translates SaySwitch status vocabulary onto the shared enum.
// The vendor's vocabulary is not guaranteed stable, so unmapped values
// fall back to pending rather than failing the payment record.
var statusMap = map[string]provider.PaymentStatus{
	"success":     provider.StatusCompleted,
	"successful":  provider.StatusCompleted,
	"completed":   provider.StatusCompleted,
	"delivered":   provider.StatusCompleted,
	"pending":     provider.StatusPending,
	"initiated":   provider.StatusPending,
	"processing":  provider.StatusProcessing,
	"in_progress": provider.StatusProcessing,
	"failed":      provider.StatusFailed,
	"failure":     provider.StatusFailed,
	"declined":    provider.StatusFailed,
	"cancelled":   provider.StatusCancelled,
	"canceled":    provider.StatusCancelled,
	"reversed":    provider.StatusCancelled,
}

func mapStatus(s string) provider.PaymentStatus {
	if mapped, ok := statusMap[s]; ok {
		return mapped
	}
	return provider.StatusPending
}

// New creates the SaySwitch provider.
func New(transport provider.Transport, flags featureflag.Store,
	transactions repositories.TransactionRepository, favorites repositories.FavoriteRepository) *Provider {

	cfg := provider.Config{
		Type:            provider.ProviderSaySwitch,
		Name:            "SaySwitch",
		Description:     "Bill payments for airtime, data bundles, TV and electricity",
		Enabled:         true,
		FeatureFlagName: "sayswitch_bill_payments",
		Capabilities: []provider.Capability{
			provider.CapBillPayments,
			provider.CapAirtime,
			provider.CapData,
			provider.CapTV,
			provider.CapElectricity,
		},
	}

	return &Provider{
		Base:         base.New(cfg, flags),
		transport:    transport,
		validator:    base.NewBillRequestValidator("NG", currency, 50, 500000),
		transactions: transactions,
		favorites:    favorites,
	}
}

// Initialize probes the gateway with a lightweight providers listing.
func (p *Provider) Initialize(ctx context.Context) error {
	if !p.ValidateConfig() {
		return fmt.Errorf("sayswitch provider misconfigured")
	}

	resp, err := p.transport.Do(ctx, "get_providers", map[string]any{"category": provider.CategoryAirtime})
	if err != nil {
		return fmt.Errorf("sayswitch initialization probe failed: %w", err)
	}
	if !resp.Success {
		return fmt.Errorf("sayswitch initialization probe rejected: %s", resp.FailureMessage())
	}

	log.Info().Str("provider", string(p.Type())).Msg("bill payment provider initialized")
	return nil
}

// ValidateConfig checks the wiring the adapter cannot run without.
func (p *Provider) ValidateConfig() bool {
	return p.transport != nil && p.transactions != nil && len(p.Capabilities()) > 0
}

// HealthCheck reports gateway reachability. It never panics or errors;
// any failure reads as unhealthy.
func (p *Provider) HealthCheck(ctx context.Context) bool {
	resp, err := p.transport.Do(ctx, "get_providers", map[string]any{"category": provider.CategoryAirtime})
	return err == nil && resp != nil && resp.Success
}

// GetProviders lists the vendors payable under a category.
func (p *Provider) GetProviders(ctx context.Context, category provider.BillCategory) provider.ListResult[provider.BillProvider] {
	if _, ok := provider.CategoryCapability(category); !ok {
		return provider.FailList[provider.BillProvider](provider.ErrInvalidCategory,
			fmt.Sprintf("unknown bill category: %s", category))
	}

	resp, err := p.transport.Do(ctx, "get_providers", map[string]any{"category": category})
	if err != nil {
		return provider.FailList[provider.BillProvider](provider.ErrProviderError, err.Error())
	}
	if !resp.Success {
		return provider.FailList[provider.BillProvider](provider.ErrGetProvidersFailed, resp.FailureMessage())
	}

	var vendors []provider.BillProvider
	if err := resp.Decode(&vendors); err != nil {
		return provider.FailList[provider.BillProvider](provider.ErrProviderError,
			fmt.Sprintf("malformed providers response: %v", err))
	}
	for i := range vendors {
		vendors[i].Category = category
	}
	return provider.OkList(vendors)
}

// GetDataPlans lists the data bundles a network vendor sells.
func (p *Provider) GetDataPlans(ctx context.Context, providerCode string) provider.ListResult[provider.DataPlan] {
	resp, err := p.transport.Do(ctx, "get_data_plans", map[string]any{"provider": providerCode})
	if err != nil {
		return provider.FailList[provider.DataPlan](provider.ErrProviderError, err.Error())
	}
	if !resp.Success {
		return provider.FailList[provider.DataPlan](provider.ErrQueryFailed, resp.FailureMessage())
	}

	var plans []provider.DataPlan
	if err := resp.Decode(&plans); err != nil {
		return provider.FailList[provider.DataPlan](provider.ErrProviderError,
			fmt.Sprintf("malformed data plans response: %v", err))
	}
	return provider.OkList(plans)
}

// GetTVPackages lists the bouquets a TV vendor sells.
func (p *Provider) GetTVPackages(ctx context.Context, providerCode string) provider.ListResult[provider.TVPackage] {
	resp, err := p.transport.Do(ctx, "get_tv_packages", map[string]any{"provider": providerCode})
	if err != nil {
		return provider.FailList[provider.TVPackage](provider.ErrProviderError, err.Error())
	}
	if !resp.Success {
		return provider.FailList[provider.TVPackage](provider.ErrQueryFailed, resp.FailureMessage())
	}

	var packages []provider.TVPackage
	if err := resp.Decode(&packages); err != nil {
		return provider.FailList[provider.TVPackage](provider.ErrProviderError,
			fmt.Sprintf("malformed tv packages response: %v", err))
	}
	return provider.OkList(packages)
}

// ValidateCustomer resolves a meter or smartcard number with the vendor
// before any money moves.
func (p *Provider) ValidateCustomer(ctx context.Context, req provider.ValidateCustomerRequest) provider.Result[provider.CustomerInfo] {
	resp, err := p.transport.Do(ctx, "validate_customer", req)
	if err != nil {
		return provider.Fail[provider.CustomerInfo](provider.ErrProviderError, err.Error())
	}
	if !resp.Success {
		return provider.Fail[provider.CustomerInfo](provider.ErrValidationFailed, resp.FailureMessage())
	}

	var info provider.CustomerInfo
	if err := resp.Decode(&info); err != nil {
		return provider.Fail[provider.CustomerInfo](provider.ErrProviderError,
			fmt.Sprintf("malformed validation response: %v", err))
	}
	if info.CustomerID == "" {
		info.CustomerID = req.CustomerID
	}
	return provider.Ok(info)
}

// PayBill routes on the request category. Category routing lives here and
// nowhere else; an unrecognized category fails without touching the
// transport.
func (p *Provider) PayBill(ctx context.Context, req provider.BillPaymentRequest) provider.BillPaymentResponse {
	switch req.Category {
	case provider.CategoryAirtime:
		return p.PayAirtime(ctx, req)
	case provider.CategoryData:
		return p.PayData(ctx, req)
	case provider.CategoryTV:
		return p.PayTV(ctx, req)
	case provider.CategoryElectricity:
		return p.PayElectricity(ctx, req)
	default:
		return provider.BillPaymentResponse{
			Success:   false,
			Reference: req.Reference,
			Error: provider.NewError(provider.ErrInvalidCategory,
				fmt.Sprintf("unsupported bill category: %s", req.Category)),
		}
	}
}

// PayAirtime tops up a phone number.
func (p *Provider) PayAirtime(ctx context.Context, req provider.BillPaymentRequest) provider.BillPaymentResponse {
	req.Category = provider.CategoryAirtime
	return p.executePayment(ctx, "pay_airtime", req)
}

// PayData buys a data bundle.
func (p *Provider) PayData(ctx context.Context, req provider.BillPaymentRequest) provider.BillPaymentResponse {
	req.Category = provider.CategoryData
	return p.executePayment(ctx, "pay_data", req)
}

// PayTV renews a TV bouquet.
func (p *Provider) PayTV(ctx context.Context, req provider.BillPaymentRequest) provider.BillPaymentResponse {
	req.Category = provider.CategoryTV
	return p.executePayment(ctx, "pay_tv", req)
}

// PayElectricity buys electricity units; prepaid meters get a token back.
func (p *Provider) PayElectricity(ctx context.Context, req provider.BillPaymentRequest) provider.BillPaymentResponse {
	req.Category = provider.CategoryElectricity
	return p.executePayment(ctx, "pay_electricity", req)
}

// paymentData is the gateway's payment result shape.
type paymentData struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	ID        string `json:"id,omitempty"`
	Token     string `json:"token,omitempty"`
}

// executePayment is the single payment path every category method funnels
// through: validate, ensure a reference, record the attempt, call out,
// normalize the result. It is total; every failure mode comes back as a
// failed response, never an error or panic.
func (p *Provider) executePayment(ctx context.Context, action string, req provider.BillPaymentRequest) provider.BillPaymentResponse {
	if err := p.validator.ValidatePayment(&req); err != nil {
		var perr *provider.ProviderError
		if !errors.As(err, &perr) {
			perr = provider.NewError(provider.ErrValidationFailed, err.Error())
		}
		return provider.BillPaymentResponse{Success: false, Reference: req.Reference, Error: perr}
	}

	if req.Reference == "" {
		req.Reference = fmt.Sprintf("BB-%s", uuid.NewString())
	}

	p.recordPending(ctx, req)

	resp, err := p.transport.Do(ctx, action, req)
	if err != nil {
		p.recordStatus(ctx, req.Reference, provider.StatusFailed, "")
		return provider.BillPaymentResponse{
			Success:   false,
			Reference: req.Reference,
			Error:     provider.NewError(provider.ErrProviderError, err.Error()),
		}
	}
	if !resp.Success {
		p.recordStatus(ctx, req.Reference, provider.StatusFailed, "")
		return provider.BillPaymentResponse{
			Success:   false,
			Reference: req.Reference,
			Error:     provider.NewError(provider.ErrPaymentFailed, resp.FailureMessage()),
		}
	}

	var data paymentData
	if err := resp.Decode(&data); err != nil {
		// The gateway accepted the payment but returned an unexpected
		// body; the payment stays pending until the webhook settles it.
		log.Warn().
			Err(err).
			Str("provider", string(p.Type())).
			Str("reference", req.Reference).
			Msg("payment accepted with malformed result body")
		data = paymentData{Reference: req.Reference, Status: "pending"}
	}
	if data.Reference == "" {
		data.Reference = req.Reference
	}

	status := mapStatus(data.Status)
	p.recordStatus(ctx, data.Reference, status, data.ID)

	log.Info().
		Str("provider", string(p.Type())).
		Str("category", string(req.Category)).
		Str("reference", data.Reference).
		Str("status", string(status)).
		Int64("amount", req.Amount).
		Msg("bill payment executed")

	return provider.BillPaymentResponse{
		Success:    true,
		Reference:  data.Reference,
		Status:     status,
		Amount:     req.Amount,
		Provider:   req.Provider,
		ProviderID: data.ID,
		Token:      data.Token,
	}
}

// recordPending writes the pending transaction row. Log-only on failure:
// the ledger must not block the payment path.
func (p *Provider) recordPending(ctx context.Context, req provider.BillPaymentRequest) {
	tx, err := transaction.New(orAnonymous(req.UserID), string(p.Type()), transaction.TypeBill, req.Reference, req.Amount, currency)
	if err != nil {
		log.Warn().Err(err).Str("reference", req.Reference).Msg("could not build transaction record")
		return
	}
	tx.Category = string(req.Category)

	if err := p.transactions.Save(ctx, tx); err != nil {
		log.Warn().Err(err).Str("reference", req.Reference).Msg("could not record pending transaction")
	}
}

func (p *Provider) recordStatus(ctx context.Context, reference string, status provider.PaymentStatus, providerRef string) {
	if err := p.transactions.UpdateStatus(ctx, reference, string(status), providerRef); err != nil {
		log.Warn().Err(err).Str("reference", reference).Msg("could not update transaction status")
	}
}

func orAnonymous(userID string) string {
	if userID == "" {
		return "anonymous"
	}
	return userID
}

// GetUserTransactions reads the user's bill history from the transaction
// log, optionally narrowed to one category.
func (p *Provider) GetUserTransactions(ctx context.Context, userID string, category provider.BillCategory) provider.ListResult[transaction.Transaction] {
	rows, err := p.transactions.FindByUser(ctx, userID, transaction.TypeBill, string(category), 50, 0)
	if err != nil {
		return provider.FailList[transaction.Transaction](provider.ErrQueryFailed, err.Error())
	}

	out := make([]transaction.Transaction, 0, len(rows))
	for _, tx := range rows {
		out = append(out, *tx)
	}
	return provider.OkList(out)
}

// GetTransaction looks a payment up by its reference.
func (p *Provider) GetTransaction(ctx context.Context, reference string) provider.Result[transaction.Transaction] {
	tx, err := p.transactions.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return provider.Fail[transaction.Transaction](provider.ErrNotFound,
				fmt.Sprintf("no transaction with reference %s", reference))
		}
		return provider.Fail[transaction.Transaction](provider.ErrQueryFailed, err.Error())
	}
	return provider.Ok(*tx)
}

// SaveFavorite stores a bill recipient for quick repeat payments.
func (p *Provider) SaveFavorite(ctx context.Context, fav provider.Favorite) provider.Result[provider.Favorite] {
	if p.favorites == nil {
		return provider.Fail[provider.Favorite](provider.ErrSaveFailed, "favorites storage not configured")
	}
	if err := p.favorites.Save(ctx, &fav); err != nil {
		return provider.Fail[provider.Favorite](provider.ErrSaveFailed, err.Error())
	}
	return provider.Ok(fav)
}

// GetFavorites lists the user's saved recipients.
func (p *Provider) GetFavorites(ctx context.Context, userID string) provider.ListResult[provider.Favorite] {
	if p.favorites == nil {
		return provider.FailList[provider.Favorite](provider.ErrQueryFailed, "favorites storage not configured")
	}
	favs, err := p.favorites.FindByUser(ctx, userID)
	if err != nil {
		return provider.FailList[provider.Favorite](provider.ErrQueryFailed, err.Error())
	}
	return provider.OkList(favs)
}

// DeleteFavorite removes a saved recipient.
func (p *Provider) DeleteFavorite(ctx context.Context, userID, favoriteID string) provider.Result[bool] {
	if p.favorites == nil {
		return provider.Fail[bool](provider.ErrDeleteFailed, "favorites storage not configured")
	}
	deleted, err := p.favorites.Delete(ctx, userID, favoriteID)
	if err != nil {
		return provider.Fail[bool](provider.ErrDeleteFailed, err.Error())
	}
	if !deleted {
		return provider.Fail[bool](provider.ErrNotFound,
			fmt.Sprintf("no favorite %s for user", favoriteID))
	}
	return provider.Ok(true)
}
