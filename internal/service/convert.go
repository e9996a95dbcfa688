package service

import (
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/reconcile"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

// invalidArgument builds a CodeInvalidArgument error.
func invalidArgument(format string, args ...any) error {
	return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf(format, args...))
}

// toConnectError maps domain and storage errors to Connect codes, logging
// anything that ends up Internal.
func toConnectError(op string, err error) error {
	var connectErr *connect.Error
	switch {
	case errors.As(err, &connectErr):
		return err
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, reconcile.ErrUnreconcilable):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, ledger.ErrDuplicatePayer),
		errors.Is(err, ledger.ErrNegativeAmount),
		errors.Is(err, ledger.ErrEmptyPayer),
		errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, money.ErrTooPrecise),
		errors.Is(err, calculator.ErrNoParticipants),
		errors.Is(err, calculator.ErrUnknownParticipant):
		return connect.NewError(connect.CodeInvalidArgument, err)
	default:
		slog.Error(op+" failed", "error", err)
		return connect.NewError(connect.CodeInternal, err)
	}
}

// parseAmount parses a decimal amount and rejects digits below the
// currency's minor unit.
func parseAmount(field, s string, currency money.Currency) (money.Money, error) {
	m, err := money.Parse(s)
	if err != nil {
		return money.Zero, invalidArgument("%s: %w", field, err)
	}
	if err := currency.Exact(m); err != nil {
		return money.Zero, invalidArgument("%s: %w", field, err)
	}
	return m, nil
}

func toAPIParticipant(p *models.Participant) *api.Participant {
	return &api.Participant{
		ID:        p.ID,
		Name:      p.Name,
		Color:     p.Color,
		CreatedAt: p.CreatedAt,
	}
}

func toAPICategory(c *models.Category) *api.Category {
	return &api.Category{
		ID:                    c.ID,
		Name:                  c.Name,
		DefaultParticipantIDs: nonNil(c.DefaultParticipants),
		CreatedAt:             c.CreatedAt,
	}
}

func toAPIExpense(rec *models.ExpenseRecord, r *reconcile.Reconciler, currency money.Currency) *api.Expense {
	contributions := make([]api.Contribution, len(rec.Contributions))
	for i, c := range rec.Contributions {
		contributions[i] = api.Contribution{
			PayerID: c.PayerID,
			Amount:  c.Amount.StringFixed(currency.Places),
		}
	}
	return &api.Expense{
		ID:             rec.ID,
		Title:          rec.Title,
		Total:          rec.Total.StringFixed(currency.Places),
		Type:           string(rec.Type),
		CategoryID:     rec.CategoryID,
		Date:           rec.Date,
		ParticipantIDs: nonNil(rec.Participants),
		Contributions:  contributions,
		CreatedAt:      rec.CreatedAt,
		Status:         r.Status(rec).String(),
		Remainder:      r.Remainder(rec).StringFixed(currency.Places),
	}
}

func toAPISettlement(s *models.Settlement, currency money.Currency) *api.Settlement {
	return &api.Settlement{
		ID:         s.ID,
		CategoryID: s.CategoryID,
		FromID:     s.FromID,
		ToID:       s.ToID,
		Amount:     s.Amount.StringFixed(currency.Places),
		Date:       s.Date,
		CreatedBy:  s.CreatedBy,
		Note:       s.Note,
	}
}

func toAPIUser(u *models.User) *api.User {
	return &api.User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
