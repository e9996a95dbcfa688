// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitledger/internal/models"
)

// ErrNotFound is returned (wrapped) when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ExpenseFilter selects expense records. Zero fields do not filter.
// The date range is half-open: From <= date < To.
type ExpenseFilter struct {
	CategoryID string
	From       int64
	To         int64
	Type       models.TransactionType
}

// SettlementFilter selects recorded settlements, with the same range rules
// as ExpenseFilter.
type SettlementFilter struct {
	CategoryID string
	From       int64
	To         int64
}

// Store defines the interface for ledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// CreateParticipant persists a new participant. ID and CreatedAt are
	// populated by the store when empty.
	CreateParticipant(ctx context.Context, p *models.Participant) error
	GetParticipant(ctx context.Context, id string) (*models.Participant, error)
	ListParticipants(ctx context.Context) ([]models.Participant, error)
	DeleteParticipant(ctx context.Context, id string) error

	// CreateCategory persists a new category with its default participants.
	CreateCategory(ctx context.Context, c *models.Category) error
	GetCategory(ctx context.Context, id string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]*models.Category, error)
	// SetCategoryParticipants replaces a category's default participant set.
	SetCategoryParticipants(ctx context.Context, categoryID string, participantIDs []string) error

	// CreateExpense persists a record with its participants and contributions.
	CreateExpense(ctx context.Context, rec *models.ExpenseRecord) error
	GetExpense(ctx context.Context, id string) (*models.ExpenseRecord, error)
	// UpdateExpense replaces a record, including its participants and contributions.
	UpdateExpense(ctx context.Context, rec *models.ExpenseRecord) error
	// DeleteExpense removes a record and, by cascade, its contributions.
	DeleteExpense(ctx context.Context, id string) error
	ListExpenses(ctx context.Context, filter ExpenseFilter) ([]*models.ExpenseRecord, error)

	CreateSettlement(ctx context.Context, s *models.Settlement) error
	ListSettlements(ctx context.Context, filter SettlementFilter) ([]*models.Settlement, error)
	DeleteSettlement(ctx context.Context, id string) error

	// Close releases any resources held by the store.
	Close() error
}
