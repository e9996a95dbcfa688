package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/reconcile"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

var _ apiconnect.ExpenseServiceHandler = (*ExpenseService)(nil)

// ExpenseService implements the Connect ExpenseService.
type ExpenseService struct {
	store      storage.Store
	reconciler *reconcile.Reconciler
	currency   money.Currency
}

// NewExpenseService creates a new ExpenseService. Amounts are rendered and
// reconciled at the given currency's precision.
func NewExpenseService(store storage.Store, reconciler *reconcile.Reconciler, currency money.Currency) *ExpenseService {
	return &ExpenseService{store: store, reconciler: reconciler, currency: currency}
}

// CreateExpense validates and persists a new expense record.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	rec := &models.ExpenseRecord{}
	if err := s.applyInput(ctx, rec, req.Msg.Expense); err != nil {
		return nil, err
	}

	if err := s.store.CreateExpense(ctx, rec); err != nil {
		return nil, toConnectError("CreateExpense", err)
	}

	slog.Info("Expense created",
		"expense_id", rec.ID,
		"total", rec.Total,
		"participants", len(rec.Participants),
		"status", s.reconciler.Status(rec),
	)
	return connect.NewResponse(&api.CreateExpenseResponse{Expense: s.toAPI(rec)}), nil
}

// GetExpense retrieves an expense by ID.
func (s *ExpenseService) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error) {
	if req.Msg.ExpenseID == "" {
		return nil, invalidArgument("expense_id required")
	}
	rec, err := s.store.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, toConnectError("GetExpense", err)
	}
	return connect.NewResponse(&api.GetExpenseResponse{Expense: s.toAPI(rec)}), nil
}

// UpdateExpense replaces an existing expense. The creation time is kept.
func (s *ExpenseService) UpdateExpense(ctx context.Context, req *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error) {
	if req.Msg.ExpenseID == "" {
		return nil, invalidArgument("expense_id required")
	}
	existing, err := s.store.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, toConnectError("UpdateExpense", err)
	}

	rec := &models.ExpenseRecord{ID: existing.ID, CreatedAt: existing.CreatedAt, Date: existing.Date, Title: existing.Title}
	if err := s.applyInput(ctx, rec, req.Msg.Expense); err != nil {
		return nil, err
	}

	if err := s.store.UpdateExpense(ctx, rec); err != nil {
		return nil, toConnectError("UpdateExpense", err)
	}

	slog.Info("Expense updated", "expense_id", rec.ID, "status", s.reconciler.Status(rec))
	return connect.NewResponse(&api.UpdateExpenseResponse{Expense: s.toAPI(rec)}), nil
}

// DeleteExpense removes an expense and its contributions.
func (s *ExpenseService) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	if req.Msg.ExpenseID == "" {
		return nil, invalidArgument("expense_id required")
	}
	if err := s.store.DeleteExpense(ctx, req.Msg.ExpenseID); err != nil {
		return nil, toConnectError("DeleteExpense", err)
	}
	slog.Info("Expense deleted", "expense_id", req.Msg.ExpenseID)
	return connect.NewResponse(&api.DeleteExpenseResponse{}), nil
}

// ListExpenses returns expenses matching the category, date range and type filters.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	filter, err := expenseFilter(req.Msg.CategoryID, req.Msg.From, req.Msg.To, req.Msg.Type)
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListExpenses(ctx, filter)
	if err != nil {
		return nil, toConnectError("ListExpenses", err)
	}

	out := make([]*api.Expense, len(records))
	for i, rec := range records {
		out[i] = s.toAPI(rec)
	}
	return connect.NewResponse(&api.ListExpensesResponse{Expenses: out}), nil
}

// ReconcileExpense runs fix-and-balance on one record. The corrected record
// is returned; it is only saved when Persist is set and something changed.
func (s *ExpenseService) ReconcileExpense(ctx context.Context, req *connect.Request[api.ReconcileExpenseRequest]) (*connect.Response[api.ReconcileExpenseResponse], error) {
	if req.Msg.ExpenseID == "" {
		return nil, invalidArgument("expense_id required")
	}
	rec, err := s.store.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, toConnectError("ReconcileExpense", err)
	}
	if !rec.IsExpense() {
		return nil, connect.NewError(connect.CodeFailedPrecondition, fmt.Errorf("expense %s is income and takes no part in settlement", rec.ID))
	}

	eligible, err := s.eligibleFunc(ctx, []*models.ExpenseRecord{rec})
	if err != nil {
		return nil, toConnectError("ReconcileExpense", err)
	}

	allowed := eligible(rec)
	if len(allowed) == 0 {
		if err := s.checkDefaultPayer(ctx); err != nil {
			slog.Warn("Expense not reconcilable", "expense_id", rec.ID, "error", err)
			return nil, toConnectError("ReconcileExpense", err)
		}
	}

	before := s.reconciler.Status(rec)
	res, err := s.reconciler.FixAndBalanceWith(rec, allowed)
	if err != nil {
		metrics.ReconcileOutcomes.WithLabelValues(before.String(), "unreconcilable").Inc()
		slog.Warn("Expense not reconcilable", "expense_id", rec.ID, "error", err)
		return nil, toConnectError("ReconcileExpense", err)
	}
	metrics.ReconcileOutcomes.WithLabelValues(res.Before.String(), outcome(res.Changed)).Inc()

	saved := false
	if req.Msg.Persist && res.Changed {
		if err := s.store.UpdateExpense(ctx, res.Record); err != nil {
			return nil, toConnectError("ReconcileExpense", err)
		}
		saved = true
		slog.Info("Expense reconciled", "expense_id", rec.ID, "before", res.Before, "after", res.After)
	}

	return connect.NewResponse(&api.ReconcileExpenseResponse{
		Before:  res.Before.String(),
		After:   res.After.String(),
		Changed: res.Changed,
		Saved:   saved,
		Expense: s.toAPI(res.Record),
	}), nil
}

// ReconcileCategory reconciles every expense in a category and date range.
// Records that cannot be fixed are reported as warnings and do not stop the
// rest of the batch.
func (s *ExpenseService) ReconcileCategory(ctx context.Context, req *connect.Request[api.ReconcileCategoryRequest]) (*connect.Response[api.ReconcileCategoryResponse], error) {
	filter, err := expenseFilter(req.Msg.CategoryID, req.Msg.From, req.Msg.To, string(models.TypeExpense))
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListExpenses(ctx, filter)
	if err != nil {
		return nil, toConnectError("ReconcileCategory", err)
	}

	batch, err := s.ReconcileRecords(ctx, records)
	if err != nil {
		return nil, toConnectError("ReconcileCategory", err)
	}

	resp := &api.ReconcileCategoryResponse{Unchanged: batch.Unchanged}
	for _, res := range batch.Fixed {
		resp.Fixed = append(resp.Fixed, s.toAPI(res.Record))
	}
	for _, w := range batch.Warnings {
		resp.Warnings = append(resp.Warnings, api.RecordWarning{RecordID: w.RecordID, Message: w.Err.Error()})
	}

	if req.Msg.Persist {
		for _, res := range batch.Fixed {
			if err := s.store.UpdateExpense(ctx, res.Record); err != nil {
				return nil, toConnectError("ReconcileCategory", err)
			}
		}
		resp.Saved = len(batch.Fixed) > 0
	}

	slog.Info("Category reconciled",
		"category_id", req.Msg.CategoryID,
		"fixed", len(batch.Fixed),
		"unchanged", batch.Unchanged,
		"warnings", len(batch.Warnings),
		"saved", resp.Saved,
	)
	return connect.NewResponse(resp), nil
}

// ReconcileRecords runs the batch reconciler over records, with each
// record's category defaults as the fallback payer set. It records metrics
// but saves nothing.
func (s *ExpenseService) ReconcileRecords(ctx context.Context, records []*models.ExpenseRecord) (*reconcile.BatchResult, error) {
	eligible, err := s.eligibleFunc(ctx, records)
	if err != nil {
		return nil, err
	}

	// Records with no eligible payer fall back to the default payer, which
	// must be a registered participant.
	var skipped []reconcile.Warning
	if err := s.checkDefaultPayer(ctx); err != nil {
		if !errors.Is(err, reconcile.ErrUnreconcilable) {
			return nil, err
		}
		kept := make([]*models.ExpenseRecord, 0, len(records))
		for _, rec := range records {
			if rec.IsExpense() && len(eligible(rec)) == 0 {
				skipped = append(skipped, reconcile.Warning{RecordID: rec.ID, Err: err})
				continue
			}
			kept = append(kept, rec)
		}
		records = kept
	}

	batch := s.reconciler.ReconcileAll(records, eligible)
	batch.Warnings = append(batch.Warnings, skipped...)
	for _, res := range batch.Fixed {
		metrics.ReconcileOutcomes.WithLabelValues(res.Before.String(), "changed").Inc()
	}
	metrics.ReconcileOutcomes.WithLabelValues(reconcile.Balanced.String(), "unchanged").Add(float64(batch.Unchanged))
	for _, w := range batch.Warnings {
		metrics.ReconcileOutcomes.WithLabelValues("unknown", "unreconcilable").Inc()
		slog.Warn("Expense not reconcilable", "expense_id", w.RecordID, "error", w.Err)
	}
	return batch, nil
}

// eligibleFunc resolves allowed payers: the record's participants, or its
// category's default participants when it declares none.
func (s *ExpenseService) eligibleFunc(ctx context.Context, records []*models.ExpenseRecord) (reconcile.EligibleFunc, error) {
	defaults := make(map[string][]string)
	for _, rec := range records {
		if len(rec.Participants) > 0 || rec.CategoryID == "" {
			continue
		}
		if _, ok := defaults[rec.CategoryID]; ok {
			continue
		}
		c, err := s.store.GetCategory(ctx, rec.CategoryID)
		if errors.Is(err, storage.ErrNotFound) {
			defaults[rec.CategoryID] = nil
			continue
		}
		if err != nil {
			return nil, err
		}
		defaults[rec.CategoryID] = c.DefaultParticipants
	}

	return func(rec *models.ExpenseRecord) []string {
		if len(rec.Participants) > 0 {
			return rec.Participants
		}
		return defaults[rec.CategoryID]
	}, nil
}

// checkDefaultPayer returns an error wrapping ErrUnreconcilable when the
// configured default payer is not a registered participant.
func (s *ExpenseService) checkDefaultPayer(ctx context.Context) error {
	id := s.reconciler.DefaultPayer()
	if id == "" {
		return nil
	}
	_, err := s.store.GetParticipant(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: default payer %s is not a registered participant", reconcile.ErrUnreconcilable, id)
	}
	return err
}

// applyInput validates in and writes it onto rec.
func (s *ExpenseService) applyInput(ctx context.Context, rec *models.ExpenseRecord, in api.ExpenseInput) error {
	total, err := parseAmount("total", in.Total, s.currency)
	if err != nil {
		return err
	}
	if !total.IsPositive() {
		return invalidArgument("total must be positive, got %s", total)
	}
	rec.Total = total

	switch t := models.TransactionType(in.Type); {
	case t == "":
		rec.Type = models.TypeExpense
	case t.Valid():
		rec.Type = t
	default:
		return invalidArgument("type must be %q or %q, got %q", models.TypeExpense, models.TypeIncome, in.Type)
	}

	if title := strings.TrimSpace(in.Title); title != "" {
		rec.Title = title
	}
	if in.Date != 0 {
		rec.Date = in.Date
	}

	var category *models.Category
	rec.CategoryID = in.CategoryID
	if in.CategoryID != "" {
		category, err = s.store.GetCategory(ctx, in.CategoryID)
		if errors.Is(err, storage.ErrNotFound) {
			return invalidArgument("unknown category %s", in.CategoryID)
		}
		if err != nil {
			return toConnectError("GetCategory", err)
		}
	}

	registry, err := loadRegistry(ctx, s.store)
	if err != nil {
		return toConnectError("loadRegistry", err)
	}

	ledger.SetParticipants(rec, in.ParticipantIDs)
	if err := checkKnown(registry, rec.Participants); err != nil {
		return err
	}
	if len(rec.Participants) == 0 && (category == nil || len(category.DefaultParticipants) == 0) {
		return connect.NewError(connect.CodeInvalidArgument, calculator.ErrNoParticipants)
	}

	switch {
	case in.PayerID != "" && len(in.Contributions) > 0:
		return invalidArgument("set either payer_id or contributions, not both")
	case in.PayerID != "":
		if err := checkKnown(registry, []string{in.PayerID}); err != nil {
			return err
		}
		if err := ledger.SetSinglePayer(rec, in.PayerID); err != nil {
			return toConnectError("SetSinglePayer", err)
		}
	default:
		contributions := make([]models.Contribution, len(in.Contributions))
		for i, c := range in.Contributions {
			amount, err := parseAmount(fmt.Sprintf("contributions[%d].amount", i), c.Amount, s.currency)
			if err != nil {
				return err
			}
			contributions[i] = models.Contribution{PayerID: c.PayerID, Amount: amount}
		}
		if err := ledger.SetContributions(rec, contributions); err != nil {
			return toConnectError("SetContributions", err)
		}
		payers := make([]string, len(rec.Contributions))
		for i, c := range rec.Contributions {
			payers[i] = c.PayerID
		}
		if err := checkKnown(registry, payers); err != nil {
			return err
		}
	}

	if in.AutoBalance && rec.IsExpense() {
		allowed := rec.Participants
		if len(allowed) == 0 {
			allowed = category.DefaultParticipants
		}
		res, err := s.reconciler.FixAndBalanceWith(rec, allowed)
		if err != nil {
			metrics.ReconcileOutcomes.WithLabelValues(s.reconciler.Status(rec).String(), "unreconcilable").Inc()
			return toConnectError("FixAndBalance", err)
		}
		metrics.ReconcileOutcomes.WithLabelValues(res.Before.String(), outcome(res.Changed)).Inc()
		rec.Contributions = res.Record.Contributions
	}
	return nil
}

func (s *ExpenseService) toAPI(rec *models.ExpenseRecord) *api.Expense {
	return toAPIExpense(rec, s.reconciler, s.currency)
}

func expenseFilter(categoryID string, from, to int64, typ string) (storage.ExpenseFilter, error) {
	if from != 0 && to != 0 && to <= from {
		return storage.ExpenseFilter{}, invalidArgument("empty date range [%d, %d)", from, to)
	}
	t := models.TransactionType(typ)
	if t != "" && !t.Valid() {
		return storage.ExpenseFilter{}, invalidArgument("unknown type %q", typ)
	}
	return storage.ExpenseFilter{CategoryID: categoryID, From: from, To: to, Type: t}, nil
}

func outcome(changed bool) string {
	if changed {
		return "changed"
	}
	return "unchanged"
}
