package models

import "github.com/mmynk/splitledger/internal/money"

// TransactionType distinguishes outflows from inflows.
// Only expenses participate in balances and settlement.
type TransactionType string

const (
	TypeExpense TransactionType = "expense"
	TypeIncome  TransactionType = "income"
)

func (t TransactionType) Valid() bool {
	return t == TypeExpense || t == TypeIncome
}

// ExpenseRecord represents one shared expense.
type ExpenseRecord struct {
	// ID is the unique identifier for the record (UUID format).
	ID string `json:"id"`

	// Title is a free-form description (e.g., "Groceries").
	Title string `json:"title"`

	// Total is the full amount of the transaction. Must be positive.
	Total money.Money `json:"total"`

	// Type is expense or income.
	Type TransactionType `json:"type"`

	// CategoryID references the category this record belongs to.
	CategoryID string `json:"category_id"`

	// Date is the Unix timestamp the expense happened at.
	Date int64 `json:"date"`

	// Participants are the IDs sharing this expense. Order is preserved and
	// entries are unique. May be empty until validated, in which case the
	// category's default participants apply.
	Participants []string `json:"participants"`

	// Contributions record who actually paid what, in entry order.
	// The record owns this list; deleting the record deletes them.
	Contributions []Contribution `json:"contributions"`

	// CreatedAt is the Unix timestamp when the record was created.
	CreatedAt int64 `json:"created_at"`
}

// Contribution is one payer's part of an expense's total.
type Contribution struct {
	PayerID string      `json:"payer_id"`
	Amount  money.Money `json:"amount"`
}

// IsExpense reports whether the record takes part in settlement.
func (r *ExpenseRecord) IsExpense() bool {
	return r.Type == TypeExpense || r.Type == ""
}

// HasParticipant reports whether id is declared on the record.
func (r *ExpenseRecord) HasParticipant(id string) bool {
	for _, p := range r.Participants {
		if p == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can modify participants and
// contributions without touching the original.
func (r *ExpenseRecord) Clone() *ExpenseRecord {
	c := *r
	c.Participants = append([]string(nil), r.Participants...)
	c.Contributions = append([]Contribution(nil), r.Contributions...)
	return &c
}
