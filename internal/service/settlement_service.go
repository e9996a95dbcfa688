package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

var _ apiconnect.SettlementServiceHandler = (*SettlementService)(nil)

// SettlementService implements the Connect SettlementService.
type SettlementService struct {
	store    storage.Store
	currency money.Currency
}

// NewSettlementService creates a new SettlementService.
func NewSettlementService(store storage.Store, currency money.Currency) *SettlementService {
	return &SettlementService{store: store, currency: currency}
}

// Report is a computed balance sheet together with its settlement plan.
type Report struct {
	Sheet    *calculator.BalanceSheet
	Plan     *calculator.SettlementPlan
	Registry calculator.MapRegistry
}

// Compute loads the expenses and recorded payments of a category and date
// range and turns them into balances and transfers. When the category has
// no default participants, everyone who ever paid in the range is used as
// the fallback set.
func (s *SettlementService) Compute(ctx context.Context, categoryID string, from, to int64, ignoreRecorded bool) (*Report, error) {
	var defaults []string
	if categoryID != "" {
		c, err := s.store.GetCategory(ctx, categoryID)
		if err != nil {
			return nil, err
		}
		defaults = c.DefaultParticipants
	}

	records, err := s.store.ListExpenses(ctx, storage.ExpenseFilter{
		CategoryID: categoryID,
		From:       from,
		To:         to,
		Type:       models.TypeExpense,
	})
	if err != nil {
		return nil, err
	}

	var settlements []*models.Settlement
	if !ignoreRecorded {
		settlements, err = s.store.ListSettlements(ctx, storage.SettlementFilter{CategoryID: categoryID, From: from, To: to})
		if err != nil {
			return nil, err
		}
	}

	registry, err := loadRegistry(ctx, s.store)
	if err != nil {
		return nil, err
	}

	if len(defaults) == 0 {
		defaults = payersOf(records)
	}

	sheet := calculator.NewBalanceCalculator(s.currency, registry).Calculate(records, settlements, defaults)
	plan := calculator.SettleSheet(sheet, s.currency)

	metrics.SettlementTransfers.Observe(float64(len(plan.Transfers)))
	if plan.Inexact {
		metrics.SettlementInexact.Inc()
	}
	for _, w := range sheet.Warnings {
		metrics.BalanceWarnings.WithLabelValues(warningKind(w.Err)).Inc()
	}

	return &Report{Sheet: sheet, Plan: plan, Registry: registry}, nil
}

// GetSettlement computes balances and the transfers that settle them.
func (s *SettlementService) GetSettlement(ctx context.Context, req *connect.Request[api.GetSettlementRequest]) (*connect.Response[api.GetSettlementResponse], error) {
	if req.Msg.CategoryID == "" {
		return nil, invalidArgument("category_id required")
	}
	if req.Msg.From != 0 && req.Msg.To != 0 && req.Msg.To <= req.Msg.From {
		return nil, invalidArgument("empty date range [%d, %d)", req.Msg.From, req.Msg.To)
	}

	report, err := s.Compute(ctx, req.Msg.CategoryID, req.Msg.From, req.Msg.To, req.Msg.IgnoreRecorded)
	if err != nil {
		return nil, toConnectError("GetSettlement", err)
	}

	if report.Plan.Inexact {
		slog.Warn("Settlement may be inexact",
			"category_id", req.Msg.CategoryID,
			"imbalance", report.Plan.Imbalance,
			"residue", report.Sheet.TotalResidue(),
		)
	}
	slog.Debug("Settlement computed",
		"category_id", req.Msg.CategoryID,
		"records", report.Sheet.Records,
		"participants", len(report.Sheet.Balances),
		"transfers", len(report.Plan.Transfers),
		"warnings", len(report.Sheet.Warnings),
	)

	return connect.NewResponse(s.toAPIReport(report)), nil
}

// RecordSettlement stores a payment from a debtor to a creditor. Later
// settlement plans take it into account.
func (s *SettlementService) RecordSettlement(ctx context.Context, req *connect.Request[api.RecordSettlementRequest]) (*connect.Response[api.RecordSettlementResponse], error) {
	msg := req.Msg
	if msg.CategoryID == "" {
		return nil, invalidArgument("category_id required")
	}
	if msg.FromID == "" || msg.ToID == "" {
		return nil, invalidArgument("from_id and to_id required")
	}
	if msg.FromID == msg.ToID {
		return nil, invalidArgument("cannot settle with oneself")
	}
	amount, err := parseAmount("amount", msg.Amount, s.currency)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, invalidArgument("amount must be positive, got %s", amount)
	}

	if _, err := s.store.GetCategory(ctx, msg.CategoryID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, invalidArgument("unknown category %s", msg.CategoryID)
		}
		return nil, toConnectError("RecordSettlement", err)
	}
	registry, err := loadRegistry(ctx, s.store)
	if err != nil {
		return nil, toConnectError("RecordSettlement", err)
	}
	if err := checkKnown(registry, []string{msg.FromID, msg.ToID}); err != nil {
		return nil, err
	}

	date := msg.Date
	if date == 0 {
		date = time.Now().Unix()
	}
	st := &models.Settlement{
		CategoryID: msg.CategoryID,
		FromID:     msg.FromID,
		ToID:       msg.ToID,
		Amount:     amount,
		Date:       date,
		CreatedBy:  middleware.GetUserID(ctx),
		Note:       msg.Note,
	}
	if err := s.store.CreateSettlement(ctx, st); err != nil {
		return nil, toConnectError("RecordSettlement", err)
	}

	slog.Info("Settlement recorded",
		"settlement_id", st.ID,
		"from", st.FromID,
		"to", st.ToID,
		"amount", st.Amount,
		"recorded_by", middleware.GetEmail(ctx),
	)
	return connect.NewResponse(&api.RecordSettlementResponse{Settlement: toAPISettlement(st, s.currency)}), nil
}

// ListSettlements returns recorded payments, oldest first.
func (s *SettlementService) ListSettlements(ctx context.Context, req *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	settlements, err := s.store.ListSettlements(ctx, storage.SettlementFilter{
		CategoryID: req.Msg.CategoryID,
		From:       req.Msg.From,
		To:         req.Msg.To,
	})
	if err != nil {
		return nil, toConnectError("ListSettlements", err)
	}

	out := make([]*api.Settlement, len(settlements))
	for i, st := range settlements {
		out[i] = toAPISettlement(st, s.currency)
	}
	return connect.NewResponse(&api.ListSettlementsResponse{Settlements: out}), nil
}

// DeleteSettlement removes a recorded payment, e.g. one entered by mistake.
func (s *SettlementService) DeleteSettlement(ctx context.Context, req *connect.Request[api.DeleteSettlementRequest]) (*connect.Response[api.DeleteSettlementResponse], error) {
	if req.Msg.SettlementID == "" {
		return nil, invalidArgument("settlement_id required")
	}
	if err := s.store.DeleteSettlement(ctx, req.Msg.SettlementID); err != nil {
		return nil, toConnectError("DeleteSettlement", err)
	}
	slog.Info("Settlement deleted", "settlement_id", req.Msg.SettlementID)
	return connect.NewResponse(&api.DeleteSettlementResponse{}), nil
}

func (s *SettlementService) toAPIReport(report *Report) *api.GetSettlementResponse {
	format := func(m money.Money) string { return m.StringFixed(s.currency.Places) }
	name := func(id string) string {
		p, err := report.Registry.Lookup(id)
		if err != nil {
			return ""
		}
		return p.Name
	}

	resp := &api.GetSettlementResponse{
		Currency:  s.currency.Code,
		Balances:  []api.Balance{},
		Transfers: []api.Transfer{},
		Imbalance: format(report.Plan.Imbalance),
		Inexact:   report.Plan.Inexact,
		Records:   report.Sheet.Records,
	}
	for _, b := range report.Sheet.Members() {
		resp.Balances = append(resp.Balances, api.Balance{
			ParticipantID: b.ParticipantID,
			Name:          b.Name,
			Paid:          format(b.Paid),
			Owed:          format(b.Owed),
			Net:           format(b.Net),
		})
	}
	for _, t := range report.Plan.Transfers {
		resp.Transfers = append(resp.Transfers, api.Transfer{
			FromID:   t.From,
			FromName: name(t.From),
			ToID:     t.To,
			ToName:   name(t.To),
			Amount:   format(t.Amount),
		})
	}
	if len(report.Plan.Discarded) > 0 {
		resp.Discarded = make(map[string]string, len(report.Plan.Discarded))
		for id, m := range report.Plan.Discarded {
			resp.Discarded[id] = format(m)
		}
	}
	for _, r := range report.Sheet.Residues {
		resp.Residues = append(resp.Residues, api.Residue{
			RecordID:     r.RecordID,
			Amount:       format(r.Amount),
			Participants: r.Participants,
		})
	}
	for _, w := range report.Sheet.Warnings {
		resp.Warnings = append(resp.Warnings, api.Warning{
			RecordID:      w.RecordID,
			ParticipantID: w.ParticipantID,
			Message:       w.Message,
		})
	}
	return resp
}

// payersOf lists everyone who paid toward records, in first-seen order.
func payersOf(records []*models.ExpenseRecord) []string {
	var payers []string
	for _, rec := range records {
		for _, c := range rec.Contributions {
			if !slices.Contains(payers, c.PayerID) {
				payers = append(payers, c.PayerID)
			}
		}
	}
	return payers
}

func warningKind(err error) string {
	switch {
	case errors.Is(err, calculator.ErrNoParticipants):
		return "no_participants"
	case errors.Is(err, calculator.ErrUnknownParticipant):
		return "unknown_participant"
	case errors.Is(err, calculator.ErrUnbalancedRecord):
		return "unbalanced_record"
	default:
		return "other"
	}
}
