package transaction

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Transaction is the normalized historical record of either a subscription
// event or a bill payment. It is a read-only projection built from
// persisted storage at query time.
type Transaction struct {
	ID                string          `json:"id"`
	UserID            string          `json:"user_id"`
	Provider          string          `json:"provider"`
	Type              Type            `json:"type"`
	Category          string          `json:"category,omitempty"`
	Amount            int64           `json:"amount"`
	Currency          string          `json:"currency"`
	Status            string          `json:"status"`
	Reference         string          `json:"reference"`
	ProviderReference string          `json:"provider_reference,omitempty"`
	RecipientDetails  json.RawMessage `json:"recipient_details,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty"`
	CancelledAt       *time.Time      `json:"cancelled_at,omitempty"`
}

// Type distinguishes what kind of money movement the record captures.
type Type string

const (
	TypeSubscription Type = "subscription"
	TypeBill         Type = "bill"
)

// New creates a transaction record with validation. Reference doubles as
// the caller-chosen idempotency key, so it must be present.
func New(userID, providerName string, txType Type, reference string, amount int64, currency string) (*Transaction, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if strings.TrimSpace(reference) == "" {
		return nil, fmt.Errorf("reference is required")
	}
	if amount < 0 {
		return nil, fmt.Errorf("amount cannot be negative: %d", amount)
	}

	return &Transaction{
		UserID:    userID,
		Provider:  providerName,
		Type:      txType,
		Reference: reference,
		Amount:    amount,
		Currency:  currency,
		Status:    "pending",
		CreatedAt: time.Now(),
	}, nil
}

// IsTerminal reports whether no further status transitions are allowed.
func (t *Transaction) IsTerminal() bool {
	switch t.Status {
	case "completed", "failed", "cancelled":
		return true
	}
	return false
}

// MarkStatus applies a status transition, stamping the matching timestamp
// for terminal states. Transitions out of a terminal state are rejected.
func (t *Transaction) MarkStatus(status string) error {
	if t.IsTerminal() {
		return fmt.Errorf("transaction %s is terminal in status %s", t.Reference, t.Status)
	}

	t.Status = status
	now := time.Now()
	switch status {
	case "completed":
		t.CompletedAt = &now
	case "cancelled":
		t.CancelledAt = &now
	}
	return nil
}
