package models

import "github.com/mmynk/splitledger/internal/money"

// Settlement represents a payment between participants to clear debts.
// Recorded settlements are applied to balances so the next plan only
// contains what is still outstanding.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string `json:"id"`

	// CategoryID is the category whose debts this payment settles.
	CategoryID string `json:"category_id"`

	// FromID is the participant who paid (debtor settling up).
	FromID string `json:"from_id"`

	// ToID is the participant who received payment (creditor being paid).
	ToID string `json:"to_id"`

	// Amount is the payment amount. Must be positive.
	Amount money.Money `json:"amount"`

	// Date is the Unix timestamp of the payment.
	Date int64 `json:"date"`

	// CreatedBy is the user ID who recorded this settlement.
	CreatedBy string `json:"created_by,omitempty"`

	// Note is an optional description for the settlement.
	Note string `json:"note,omitempty"`
}
