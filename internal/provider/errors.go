package provider

// ProviderError is the machine-readable failure every operation surfaces.
// Code is a short stable tag, never localized; Message is for humans.
type ProviderError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Code + ": " + e.Message
	}
	return e.Code
}

// NewError builds a ProviderError without details.
func NewError(code, message string) *ProviderError {
	return &ProviderError{Code: code, Message: message}
}

// Error codes. PROVIDER_ERROR marks infrastructure failures (network,
// malformed responses); the *_FAILED family marks calls that completed but
// reported a business-level failure. Callers distinguish the two by code,
// never by exception type.
const (
	ErrProviderError   = "PROVIDER_ERROR"
	ErrNotFound        = "NOT_FOUND"
	ErrInvalidCategory = "INVALID_CATEGORY"

	ErrListPlansFailed          = "LIST_PLANS_FAILED"
	ErrGetPlanFailed            = "GET_PLAN_FAILED"
	ErrCreatePlanFailed         = "CREATE_PLAN_FAILED"
	ErrUpdatePlanFailed         = "UPDATE_PLAN_FAILED"
	ErrDeactivatePlanFailed     = "DEACTIVATE_PLAN_FAILED"
	ErrCreateSubscriptionFailed = "CREATE_SUBSCRIPTION_FAILED"
	ErrGetSubscriptionFailed    = "GET_SUBSCRIPTION_FAILED"
	ErrCancelFailed             = "CANCEL_FAILED"
	ErrSuspendFailed            = "SUSPEND_FAILED"
	ErrResumeFailed             = "RESUME_FAILED"
	ErrUpdateFailed             = "UPDATE_FAILED"
	ErrWebhookFailed            = "WEBHOOK_FAILED"

	ErrPaymentFailed      = "PAYMENT_FAILED"
	ErrGetProvidersFailed = "GET_PROVIDERS_FAILED"
	ErrValidationFailed   = "VALIDATION_FAILED"
	ErrQueryFailed        = "QUERY_FAILED"
	ErrSaveFailed         = "SAVE_FAILED"
	ErrDeleteFailed       = "DELETE_FAILED"
)
