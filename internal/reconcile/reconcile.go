// Package reconcile detects and repairs mismatches between an expense's total
// and the sum of its contributions.
//
// Every operation works on a copy of the record and returns it; the input is
// never modified, so a failed reconciliation leaves the caller's record as it
// was.
package reconcile

import (
	"errors"
	"fmt"
	"slices"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

var (
	ErrNoEligiblePayer = errors.New("no eligible payer")
	ErrUnreconcilable  = errors.New("contributions cannot be reconciled with the total")
)

// Reconciler compares contribution sums against totals within one minor unit
// of its currency.
type Reconciler struct {
	currency     money.Currency
	defaultPayer string
}

type Option func(*Reconciler)

// WithCurrency sets the currency whose minor unit is the tolerance.
func WithCurrency(c money.Currency) Option {
	return func(r *Reconciler) { r.currency = c }
}

// WithDefaultPayer sets the payer used when a record has no eligible payer
// left after cleanup and no allowed payers were given.
func WithDefaultPayer(id string) Option {
	return func(r *Reconciler) { r.defaultPayer = id }
}

func New(opts ...Option) *Reconciler {
	r := &Reconciler{currency: money.DefaultCurrency}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultPayer returns the configured fallback payer, or "".
func (r *Reconciler) DefaultPayer() string { return r.defaultPayer }

// Result is the outcome of FixAndBalance.
type Result struct {
	// Record is the corrected copy for the caller to persist.
	Record *models.ExpenseRecord
	Before Status
	After  Status
	// Changed is false when the record was already clean and balanced.
	Changed bool
}

// Status classifies rec's contributions against its total.
func (r *Reconciler) Status(rec *models.ExpenseRecord) Status {
	if len(rec.Contributions) == 0 {
		return NoContributions
	}
	sum := ledger.Sum(rec)
	eps := r.currency.Epsilon()
	switch {
	case sum.LessThan(rec.Total.Sub(eps)):
		return Insufficient
	case sum.GreaterThan(rec.Total.Add(eps)):
		return Excess
	default:
		return Balanced
	}
}

// Remainder returns total minus the contribution sum. Positive means money is
// missing, negative means too much was recorded.
func (r *Reconciler) Remainder(rec *models.ExpenseRecord) money.Money {
	return rec.Total.Sub(ledger.Sum(rec))
}

// DistributeRemainder closes the gap of an Insufficient or Excess record.
//
// A shortfall goes to zero-amount contributions first, split evenly with any
// leftover minor units on the first of them; with no zero entries it is spread
// over all contributions the same way. An excess is taken back evenly from the
// contributions that still have money on them, never pushing one below zero.
// Records in any other state are returned unchanged.
func (r *Reconciler) DistributeRemainder(rec *models.ExpenseRecord) *models.ExpenseRecord {
	out := rec.Clone()
	status := r.Status(rec)
	if status != Insufficient && status != Excess {
		return out
	}

	remainder := r.Remainder(rec)
	if remainder.IsPositive() {
		targets := indexes(out.Contributions, func(c models.Contribution) bool { return c.Amount.IsZero() })
		if len(targets) == 0 {
			targets = indexes(out.Contributions, func(models.Contribution) bool { return true })
		}
		r.spread(out.Contributions, targets, remainder)
	} else {
		r.drain(out.Contributions, remainder.Neg())
	}
	return out
}

// CleanupInvalidPayers drops contributions from payers outside allowed. If
// nothing is left, the full total is assigned to the first allowed payer, or
// to the default payer when allowed is empty.
func (r *Reconciler) CleanupInvalidPayers(rec *models.ExpenseRecord, allowed []string) (*models.ExpenseRecord, error) {
	out := rec.Clone()
	kept := out.Contributions[:0]
	for _, c := range out.Contributions {
		if slices.Contains(allowed, c.PayerID) {
			kept = append(kept, c)
		}
	}
	out.Contributions = kept
	if len(kept) > 0 {
		return out, nil
	}

	payer := r.defaultPayer
	if len(allowed) > 0 {
		payer = allowed[0]
	}
	if payer == "" {
		return nil, ErrNoEligiblePayer
	}
	if err := ledger.SetSinglePayer(out, payer); err != nil {
		return nil, err
	}
	return out, nil
}

// FixAndBalance cleans up payers against the record's own participants and
// then distributes any remainder. See FixAndBalanceWith.
func (r *Reconciler) FixAndBalance(rec *models.ExpenseRecord) (*Result, error) {
	return r.FixAndBalanceWith(rec, rec.Participants)
}

// FixAndBalanceWith is FixAndBalance with an explicit set of allowed payers,
// e.g. a category's default participants for a record that declares none.
// On success the returned record is Balanced; running it again on that record
// changes nothing. On failure the error wraps ErrUnreconcilable and rec is
// untouched.
func (r *Reconciler) FixAndBalanceWith(rec *models.ExpenseRecord, allowed []string) (*Result, error) {
	if !rec.Total.IsPositive() {
		return nil, fmt.Errorf("%w: total %s must be positive", ErrUnreconcilable, rec.Total)
	}
	before := r.Status(rec)

	fixed, err := r.CleanupInvalidPayers(rec, allowed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreconcilable, err)
	}
	if r.Status(fixed) != Balanced {
		fixed = r.DistributeRemainder(fixed)
	}

	after := r.Status(fixed)
	if after != Balanced {
		return nil, fmt.Errorf("%w: status %s after distribution", ErrUnreconcilable, after)
	}
	return &Result{
		Record:  fixed,
		Before:  before,
		After:   after,
		Changed: !sameContributions(rec.Contributions, fixed.Contributions),
	}, nil
}

func (r *Reconciler) spread(cs []models.Contribution, targets []int, amount money.Money) {
	share, residue := r.currency.Split(amount, len(targets))
	for k, i := range targets {
		add := share
		if k == 0 {
			add = add.Add(residue)
		}
		cs[i].Amount = cs[i].Amount.Add(add)
	}
}

// drain removes excess from positive contributions. Each round splits what is
// left evenly; an entry that cannot cover its cut is emptied and the rest
// rolls into the next round.
func (r *Reconciler) drain(cs []models.Contribution, excess money.Money) {
	for excess.IsPositive() {
		targets := indexes(cs, func(c models.Contribution) bool { return c.Amount.IsPositive() })
		if len(targets) == 0 {
			return
		}
		share, residue := r.currency.Split(excess, len(targets))
		for k, i := range targets {
			cut := share
			if k == 0 {
				cut = cut.Add(residue)
			}
			cut = money.Min(cut, cs[i].Amount)
			cs[i].Amount = cs[i].Amount.Sub(cut)
			excess = excess.Sub(cut)
		}
	}
}

func indexes(cs []models.Contribution, keep func(models.Contribution) bool) []int {
	var out []int
	for i, c := range cs {
		if keep(c) {
			out = append(out, i)
		}
	}
	return out
}

func sameContributions(a, b []models.Contribution) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].PayerID != b[i].PayerID || !a[i].Amount.Equal(b[i].Amount) {
			return false
		}
	}
	return true
}
