package base

import (
	"fmt"
	"regexp"
	"strings"

	"billbridge/internal/provider"
)

// PhoneValidator normalizes and validates subscriber numbers for a
// specific country.
type PhoneValidator struct {
	countryCode string
	patterns    []*regexp.Regexp
}

// NewPhoneValidator creates a validator for a specific country.
func NewPhoneValidator(countryCode string) *PhoneValidator {
	var patterns []*regexp.Regexp

	switch countryCode {
	case "NG": // Nigeria
		patterns = []*regexp.Regexp{
			regexp.MustCompile(`^234[789][01]\d{8}$`), // MTN, Glo, Airtel, 9mobile
			regexp.MustCompile(`^0[789][01]\d{8}$`),   // local format
		}
	case "KE": // Kenya
		patterns = []*regexp.Regexp{
			regexp.MustCompile(`^254[17]\d{8}$`),
			regexp.MustCompile(`^254[78]\d{8}$`),
		}
	}

	return &PhoneValidator{
		countryCode: countryCode,
		patterns:    patterns,
	}
}

// ValidatePhone validates and normalizes a phone number.
func (v *PhoneValidator) ValidatePhone(phone string) (string, error) {
	normalized := strings.ReplaceAll(phone, " ", "")
	normalized = strings.ReplaceAll(normalized, "-", "")
	normalized = strings.ReplaceAll(normalized, "+", "")

	for _, pattern := range v.patterns {
		if pattern.MatchString(normalized) {
			return normalized, nil
		}
	}

	return "", provider.NewError(provider.ErrValidationFailed,
		fmt.Sprintf("invalid phone number format for %s", v.countryCode))
}

// AmountValidator bounds payment amounts.
type AmountValidator struct {
	minAmount int64
	maxAmount int64
	currency  string
}

// NewAmountValidator creates an amount validator with limits. A zero
// maxAmount disables the upper bound.
func NewAmountValidator(currency string, minAmount, maxAmount int64) *AmountValidator {
	return &AmountValidator{
		minAmount: minAmount,
		maxAmount: maxAmount,
		currency:  currency,
	}
}

// ValidateAmount validates a payment amount.
func (v *AmountValidator) ValidateAmount(amount int64) error {
	if amount <= 0 {
		return provider.NewError(provider.ErrValidationFailed, "amount must be greater than zero")
	}
	if amount < v.minAmount {
		return provider.NewError(provider.ErrValidationFailed,
			fmt.Sprintf("amount must be at least %d %s", v.minAmount, v.currency))
	}
	if v.maxAmount > 0 && amount > v.maxAmount {
		return provider.NewError(provider.ErrValidationFailed,
			fmt.Sprintf("amount must not exceed %d %s", v.maxAmount, v.currency))
	}
	return nil
}

// BillRequestValidator validates bill payment requests before they reach
// the transport.
type BillRequestValidator struct {
	phoneValidator  *PhoneValidator
	amountValidator *AmountValidator
}

// NewBillRequestValidator creates a validator for one market.
func NewBillRequestValidator(countryCode, currency string, minAmount, maxAmount int64) *BillRequestValidator {
	return &BillRequestValidator{
		phoneValidator:  NewPhoneValidator(countryCode),
		amountValidator: NewAmountValidator(currency, minAmount, maxAmount),
	}
}

// ValidatePayment checks the fields common to every bill payment, plus
// per-category requirements. Phone-addressed categories get their number
// normalized in place.
func (v *BillRequestValidator) ValidatePayment(req *provider.BillPaymentRequest) error {
	if strings.TrimSpace(req.Provider) == "" {
		return provider.NewError(provider.ErrValidationFailed, "provider code is required")
	}
	if strings.TrimSpace(req.CustomerID) == "" {
		return provider.NewError(provider.ErrValidationFailed, "customer ID is required")
	}

	switch req.Category {
	case provider.CategoryAirtime:
		if err := v.amountValidator.ValidateAmount(req.Amount); err != nil {
			return err
		}
		normalized, err := v.phoneValidator.ValidatePhone(req.CustomerID)
		if err != nil {
			return err
		}
		req.CustomerID = normalized
	case provider.CategoryData:
		normalized, err := v.phoneValidator.ValidatePhone(req.CustomerID)
		if err != nil {
			return err
		}
		req.CustomerID = normalized
		if strings.TrimSpace(req.PlanCode) == "" {
			return provider.NewError(provider.ErrValidationFailed, "data plan code is required")
		}
	case provider.CategoryTV:
		if strings.TrimSpace(req.PlanCode) == "" {
			return provider.NewError(provider.ErrValidationFailed, "tv package code is required")
		}
	case provider.CategoryElectricity:
		if err := v.amountValidator.ValidateAmount(req.Amount); err != nil {
			return err
		}
		if req.MeterType != "prepaid" && req.MeterType != "postpaid" {
			return provider.NewError(provider.ErrValidationFailed, "meter_type must be prepaid or postpaid")
		}
	}

	return nil
}
