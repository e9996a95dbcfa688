// Package api defines the request and response messages of the splitledger
// v1 RPC services. Messages travel as JSON; amounts are decimal strings
// ("12.50") and times are Unix seconds.
package api

// ─── Directory ──────────────────────────────────────────────────────────────

type Participant struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

type Category struct {
	ID                    string   `json:"id"`
	Name                  string   `json:"name"`
	DefaultParticipantIDs []string `json:"default_participant_ids"`
	CreatedAt             int64    `json:"created_at"`
}

type CreateParticipantRequest struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type CreateParticipantResponse struct {
	Participant *Participant `json:"participant"`
}

type ListParticipantsRequest struct{}

type ListParticipantsResponse struct {
	Participants []*Participant `json:"participants"`
}

type DeleteParticipantRequest struct {
	ParticipantID string `json:"participant_id"`
}

type DeleteParticipantResponse struct{}

type CreateCategoryRequest struct {
	Name                  string   `json:"name"`
	DefaultParticipantIDs []string `json:"default_participant_ids"`
}

type CreateCategoryResponse struct {
	Category *Category `json:"category"`
}

type GetCategoryRequest struct {
	CategoryID string `json:"category_id"`
}

type GetCategoryResponse struct {
	Category *Category `json:"category"`
}

type ListCategoriesRequest struct{}

type ListCategoriesResponse struct {
	Categories []*Category `json:"categories"`
}

type SetCategoryParticipantsRequest struct {
	CategoryID            string   `json:"category_id"`
	DefaultParticipantIDs []string `json:"default_participant_ids"`
}

type SetCategoryParticipantsResponse struct {
	Category *Category `json:"category"`
}

// ─── Expenses ───────────────────────────────────────────────────────────────

type Contribution struct {
	PayerID string `json:"payer_id"`
	Amount  string `json:"amount"`
}

// Expense is an expense record with its derived contribution status.
type Expense struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Total          string         `json:"total"`
	Type           string         `json:"type"`
	CategoryID     string         `json:"category_id"`
	Date           int64          `json:"date"`
	ParticipantIDs []string       `json:"participant_ids"`
	Contributions  []Contribution `json:"contributions"`
	CreatedAt      int64          `json:"created_at"`

	// Status is one of no_contributions, balanced, insufficient, excess.
	Status string `json:"status"`
	// Remainder is total minus the contribution sum.
	Remainder string `json:"remainder"`
}

// ExpenseInput is the writable part of an expense. Either PayerID (one payer
// covers the total) or Contributions may be set, not both.
type ExpenseInput struct {
	Title          string         `json:"title"`
	Total          string         `json:"total"`
	Type           string         `json:"type,omitempty"`
	CategoryID     string         `json:"category_id,omitempty"`
	Date           int64          `json:"date,omitempty"`
	ParticipantIDs []string       `json:"participant_ids"`
	PayerID        string         `json:"payer_id,omitempty"`
	Contributions  []Contribution `json:"contributions,omitempty"`
	// AutoBalance runs fix-and-balance before saving.
	AutoBalance bool `json:"auto_balance,omitempty"`
}

type CreateExpenseRequest struct {
	Expense ExpenseInput `json:"expense"`
}

type CreateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type GetExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type GetExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type UpdateExpenseRequest struct {
	ExpenseID string       `json:"expense_id"`
	Expense   ExpenseInput `json:"expense"`
}

type UpdateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type DeleteExpenseResponse struct{}

type ListExpensesRequest struct {
	CategoryID string `json:"category_id,omitempty"`
	From       int64  `json:"from,omitempty"`
	To         int64  `json:"to,omitempty"`
	Type       string `json:"type,omitempty"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

type ReconcileExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
	// Persist saves the fixed record; otherwise the fix is only proposed.
	Persist bool `json:"persist,omitempty"`
}

type ReconcileExpenseResponse struct {
	Before  string   `json:"before"`
	After   string   `json:"after"`
	Changed bool     `json:"changed"`
	Saved   bool     `json:"saved"`
	Expense *Expense `json:"expense"`
}

type ReconcileCategoryRequest struct {
	CategoryID string `json:"category_id"`
	From       int64  `json:"from,omitempty"`
	To         int64  `json:"to,omitempty"`
	Persist    bool   `json:"persist,omitempty"`
}

type RecordWarning struct {
	RecordID string `json:"record_id"`
	Message  string `json:"message"`
}

type ReconcileCategoryResponse struct {
	Fixed     []*Expense      `json:"fixed"`
	Unchanged int             `json:"unchanged"`
	Warnings  []RecordWarning `json:"warnings"`
	Saved     bool            `json:"saved"`
}

// ─── Settlement ─────────────────────────────────────────────────────────────

type Balance struct {
	ParticipantID string `json:"participant_id"`
	Name          string `json:"name,omitempty"`
	Paid          string `json:"paid"`
	Owed          string `json:"owed"`
	Net           string `json:"net"`
}

type Transfer struct {
	FromID   string `json:"from_id"`
	FromName string `json:"from_name,omitempty"`
	ToID     string `json:"to_id"`
	ToName   string `json:"to_name,omitempty"`
	Amount   string `json:"amount"`
}

type Residue struct {
	RecordID     string `json:"record_id"`
	Amount       string `json:"amount"`
	Participants int    `json:"participants"`
}

type Warning struct {
	RecordID      string `json:"record_id,omitempty"`
	ParticipantID string `json:"participant_id,omitempty"`
	Message       string `json:"message"`
}

type GetSettlementRequest struct {
	CategoryID string `json:"category_id"`
	From       int64  `json:"from,omitempty"`
	To         int64  `json:"to,omitempty"`
	// IgnoreRecorded computes the plan as if no payments had been recorded.
	IgnoreRecorded bool `json:"ignore_recorded,omitempty"`
}

type GetSettlementResponse struct {
	Currency  string            `json:"currency"`
	Balances  []Balance         `json:"balances"`
	Transfers []Transfer        `json:"transfers"`
	Imbalance string            `json:"imbalance"`
	Inexact   bool              `json:"inexact"`
	Discarded map[string]string `json:"discarded,omitempty"`
	Residues  []Residue         `json:"residues,omitempty"`
	Warnings  []Warning         `json:"warnings,omitempty"`
	Records   int               `json:"records"`
}

type Settlement struct {
	ID         string `json:"id"`
	CategoryID string `json:"category_id"`
	FromID     string `json:"from_id"`
	ToID       string `json:"to_id"`
	Amount     string `json:"amount"`
	Date       int64  `json:"date"`
	CreatedBy  string `json:"created_by,omitempty"`
	Note       string `json:"note,omitempty"`
}

type RecordSettlementRequest struct {
	CategoryID string `json:"category_id"`
	FromID     string `json:"from_id"`
	ToID       string `json:"to_id"`
	Amount     string `json:"amount"`
	Date       int64  `json:"date,omitempty"`
	Note       string `json:"note,omitempty"`
}

type RecordSettlementResponse struct {
	Settlement *Settlement `json:"settlement"`
}

type ListSettlementsRequest struct {
	CategoryID string `json:"category_id,omitempty"`
	From       int64  `json:"from,omitempty"`
	To         int64  `json:"to,omitempty"`
}

type ListSettlementsResponse struct {
	Settlements []*Settlement `json:"settlements"`
}

type DeleteSettlementRequest struct {
	SettlementID string `json:"settlement_id"`
}

type DeleteSettlementResponse struct{}

// ─── Auth ───────────────────────────────────────────────────────────────────

type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	CreatedAt   int64  `json:"created_at,omitempty"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type RegisterResponse struct {
	User      *User  `json:"user"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User      *User  `json:"user"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}
