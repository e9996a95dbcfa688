package calculator

import (
	"slices"
	"strings"

	"github.com/mmynk/splitledger/internal/money"
)

// Transfer is a recommended payment from a debtor to a creditor.
type Transfer struct {
	From   string // Person who owes
	To     string // Person who is owed
	Amount money.Money
}

// SettlementPlan is the output of the settlement optimizer.
type SettlementPlan struct {
	// Transfers discharge all balances when applied in order.
	Transfers []Transfer

	// Imbalance is the sum of the input nets. Non-zero input is a caller
	// error, or the residue of equal splits.
	Imbalance money.Money

	// Inexact is set when |Imbalance| exceeds the tolerance; the caller
	// should warn that settlement may be incomplete.
	Inexact bool

	// Discarded holds what was left on each side once the other side ran
	// out. Positive for creditors, negative for debtors.
	Discarded map[string]money.Money
}

type position struct {
	id        string
	remaining money.Money
}

// Settle turns net balances into transfers, treating one minor unit of
// currency as settled.
func Settle(nets map[string]money.Money, currency money.Currency) *SettlementPlan {
	return SettleWithTolerance(nets, currency.Epsilon())
}

// SettleSheet settles a balance sheet. The sheet's split residue is known and
// bounded, so it widens the tolerance.
func SettleSheet(sheet *BalanceSheet, currency money.Currency) *SettlementPlan {
	tolerance := currency.Epsilon().Add(sheet.TotalResidue().Abs())
	return SettleWithTolerance(sheet.NetBalances(), tolerance)
}

// SettleWithTolerance matches the largest creditor with the largest debtor
// until one side runs out.
//
// Algorithm:
//   - Split participants into creditors (net > 0) and debtors (net < 0, as
//     positive amounts); drop zeros
//   - Sort both by amount descending, then by ID ascending
//   - Pay min(creditor, debtor) from the debtor to the creditor, subtract it
//     from both, and move past whichever side reached zero
//
// Each step retires at least one participant, so there are at most
// |creditors| + |debtors| - 1 transfers. This is a heuristic and not a
// minimum-cardinality solution. The result is deterministic for equal input.
func SettleWithTolerance(nets map[string]money.Money, tolerance money.Money) *SettlementPlan {
	plan := &SettlementPlan{Imbalance: money.Zero}

	var creditors, debtors []*position
	for id, net := range nets {
		plan.Imbalance = plan.Imbalance.Add(net)
		switch net.Sign() {
		case 1:
			creditors = append(creditors, &position{id: id, remaining: net})
		case -1:
			debtors = append(debtors, &position{id: id, remaining: net.Neg()})
		}
	}
	sortPositions(creditors)
	sortPositions(debtors)

	// Greedy algorithm: match largest debts with largest credits
	i, j := 0, 0
	for i < len(creditors) && j < len(debtors) {
		creditor := creditors[i]
		debtor := debtors[j]

		// Amount to settle is minimum of what debtor owes and creditor is owed
		amount := money.Min(creditor.remaining, debtor.remaining)
		if amount.IsPositive() {
			plan.Transfers = append(plan.Transfers, Transfer{
				From:   debtor.id,
				To:     creditor.id,
				Amount: amount,
			})
		}

		creditor.remaining = creditor.remaining.Sub(amount)
		debtor.remaining = debtor.remaining.Sub(amount)

		// Move to next creditor/debtor if fully settled
		if creditor.remaining.IsZero() {
			i++
		}
		if debtor.remaining.IsZero() {
			j++
		}
	}

	for ; i < len(creditors); i++ {
		plan.discard(creditors[i].id, creditors[i].remaining)
	}
	for ; j < len(debtors); j++ {
		plan.discard(debtors[j].id, debtors[j].remaining.Neg())
	}
	plan.Inexact = plan.Imbalance.Abs().GreaterThan(tolerance)
	return plan
}

func (p *SettlementPlan) discard(id string, amount money.Money) {
	if amount.IsZero() {
		return
	}
	if p.Discarded == nil {
		p.Discarded = make(map[string]money.Money)
	}
	p.Discarded[id] = amount
}

func sortPositions(ps []*position) {
	slices.SortFunc(ps, func(a, b *position) int {
		if c := b.remaining.Cmp(a.remaining); c != 0 {
			return c
		}
		return strings.Compare(a.id, b.id)
	})
}
