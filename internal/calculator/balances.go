package calculator

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

var ErrUnbalancedRecord = errors.New("contributions do not match expense total")

// MemberBalance represents the balance information for one participant.
type MemberBalance struct {
	ParticipantID string
	Name          string      // From the registry; empty if unknown
	Paid          money.Money // Total actually paid across all expenses
	Owed          money.Money // Total equal shares charged
	Net           money.Money // Paid - Owed. Positive = is owed money, negative = owes money
}

// Residue records the minor units left over by an equal split.
type Residue struct {
	RecordID     string
	Amount       money.Money
	Participants int
}

// Warning is a per-record or per-participant problem. Warnings never abort
// the calculation.
type Warning struct {
	RecordID      string
	ParticipantID string
	Err           error
	Message       string
}

func (w Warning) Error() string { return w.Message }

// BalanceSheet is the output of BalanceCalculator.Calculate.
type BalanceSheet struct {
	Balances map[string]*MemberBalance
	Residues []Residue
	Warnings []Warning
	// Records counts expenses that contributed to the balances.
	Records int
}

// BalanceCalculator aggregates paid and owed totals per participant.
type BalanceCalculator struct {
	currency money.Currency
	registry Registry
}

// NewBalanceCalculator creates a calculator. registry may be nil.
func NewBalanceCalculator(currency money.Currency, registry Registry) *BalanceCalculator {
	return &BalanceCalculator{currency: currency, registry: registry}
}

// Calculate computes balances over records and recorded settlements. records
// are expected to be pre-filtered to one category and date range; income
// records are ignored. defaultParticipants is used for records that declare
// no participants of their own.
//
// Algorithm:
//   - For each expense: every participant owes total/|participants|, truncated
//     to the minor unit; the residue is reported but charged to nobody
//   - Every contribution adds to its payer's paid total
//   - For each settlement: the payer's paid total grows, the receiver's owed
//     total grows
//   - net = paid - owed
//
// Inputs are never modified.
func (c *BalanceCalculator) Calculate(records []*models.ExpenseRecord, settlements []*models.Settlement, defaultParticipants []string) *BalanceSheet {
	sheet := &BalanceSheet{Balances: make(map[string]*MemberBalance)}
	fallback := unique(defaultParticipants)
	checked := make(map[string]bool)

	member := func(id string) *MemberBalance {
		if bal, ok := sheet.Balances[id]; ok {
			return bal
		}
		bal := &MemberBalance{ParticipantID: id}
		if c.registry != nil {
			if p, err := c.registry.Lookup(id); err == nil {
				bal.Name = p.Name
			}
		}
		sheet.Balances[id] = bal
		return bal
	}
	verify := func(recordID, id string) {
		if c.registry == nil || checked[id] {
			return
		}
		checked[id] = true
		if _, err := c.registry.Lookup(id); err != nil {
			sheet.Warnings = append(sheet.Warnings, Warning{
				RecordID:      recordID,
				ParticipantID: id,
				Err:           fmt.Errorf("%w: %s", ErrUnknownParticipant, id),
				Message:       fmt.Sprintf("record %s references unknown participant %s", recordID, id),
			})
		}
	}

	for _, rec := range records {
		if !rec.IsExpense() {
			continue
		}

		participants := unique(rec.Participants)
		if len(participants) == 0 {
			participants = fallback
		}
		share, err := SplitEqually(rec.Total, len(participants), c.currency)
		if err != nil {
			sheet.Warnings = append(sheet.Warnings, Warning{
				RecordID: rec.ID,
				Err:      err,
				Message:  fmt.Sprintf("%q (%s) has no participants and its category has no defaults; skipped", rec.Title, c.currency.Format(rec.Total)),
			})
			continue
		}
		sheet.Records++

		if sum := ledger.Sum(rec); !c.currency.Within(sum, rec.Total) {
			sheet.Warnings = append(sheet.Warnings, Warning{
				RecordID: rec.ID,
				Err:      ErrUnbalancedRecord,
				Message: fmt.Sprintf("%q: contributions sum to %s, total is %s",
					rec.Title, c.currency.Format(sum), c.currency.Format(rec.Total)),
			})
		}
		if !share.Residue.IsZero() {
			sheet.Residues = append(sheet.Residues, Residue{
				RecordID:     rec.ID,
				Amount:       share.Residue,
				Participants: share.Participants,
			})
		}

		// Each participant owes their share
		for _, id := range participants {
			verify(rec.ID, id)
			bal := member(id)
			bal.Owed = bal.Owed.Add(share.PerParticipant)
		}

		// Payers paid what they contributed
		for _, contrib := range rec.Contributions {
			verify(rec.ID, contrib.PayerID)
			bal := member(contrib.PayerID)
			bal.Paid = bal.Paid.Add(contrib.Amount)
		}
	}

	// Apply settlements to balances
	for _, s := range settlements {
		from := member(s.FromID)
		to := member(s.ToID)
		// Payer's balance improves (they effectively "paid" to settle debt)
		from.Paid = from.Paid.Add(s.Amount)
		// Receiver's balance decreases (they received payment)
		to.Owed = to.Owed.Add(s.Amount)
	}

	for _, bal := range sheet.Balances {
		bal.Net = bal.Paid.Sub(bal.Owed)
	}
	return sheet
}

// Members returns the balances ordered by participant ID.
func (s *BalanceSheet) Members() []MemberBalance {
	out := make([]MemberBalance, 0, len(s.Balances))
	for _, bal := range s.Balances {
		out = append(out, *bal)
	}
	slices.SortFunc(out, func(a, b MemberBalance) int {
		return strings.Compare(a.ParticipantID, b.ParticipantID)
	})
	return out
}

// NetBalances returns participant → net.
func (s *BalanceSheet) NetBalances() map[string]money.Money {
	nets := make(map[string]money.Money, len(s.Balances))
	for id, bal := range s.Balances {
		nets[id] = bal.Net
	}
	return nets
}

// TotalResidue is the sum of all split residues.
func (s *BalanceSheet) TotalResidue() money.Money {
	total := money.Zero
	for _, r := range s.Residues {
		total = total.Add(r.Amount)
	}
	return total
}

// Imbalance is the sum of all nets; zero for perfectly divisible, reconciled input.
func (s *BalanceSheet) Imbalance() money.Money {
	total := money.Zero
	for _, bal := range s.Balances {
		total = total.Add(bal.Net)
	}
	return total
}

func unique(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
