package calculator

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

func nets(pairs ...string) map[string]money.Money {
	out := make(map[string]money.Money)
	for i := 0; i+1 < len(pairs); i += 2 {
		out[pairs[i]] = m(pairs[i+1])
	}
	return out
}

func TestSettle(t *testing.T) {
	tests := []struct {
		name        string
		nets        map[string]money.Money
		want        []string
		wantInexact bool
	}{
		{
			name: "one creditor, two debtors",
			nets: nets("A", "60.00", "B", "-30.00", "C", "-30.00"),
			want: []string{"B->A 30.00", "C->A 30.00"},
		},
		{
			name: "largest matched first",
			nets: nets("A", "50.00", "B", "10.00", "C", "-40.00", "D", "-20.00"),
			want: []string{"C->A 40.00", "D->A 10.00", "D->B 10.00"},
		},
		{
			name: "ties broken by participant id",
			nets: nets("Z", "10.00", "Y", "10.00", "B", "-10.00", "A", "-10.00"),
			want: []string{"A->Y 10.00", "B->Z 10.00"},
		},
		{
			name: "settled participants produce nothing",
			nets: nets("A", "0", "B", "0"),
			want: nil,
		},
		{
			name: "split residue within tolerance is discarded",
			nets: nets("A", "66.67", "B", "-33.33", "C", "-33.33"),
			want: []string{"B->A 33.33", "C->A 33.33"},
		},
		{
			name:        "inconsistent input still runs to completion",
			nets:        nets("A", "10.00", "B", "-5.00"),
			want:        []string{"B->A 5.00"},
			wantInexact: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Settle(tt.nets, money.DefaultCurrency)
			got := describe(plan.Transfers)
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("transfers = %v, want %v", got, tt.want)
			}
			if plan.Inexact != tt.wantInexact {
				t.Errorf("inexact = %v, want %v (imbalance %s)", plan.Inexact, tt.wantInexact, plan.Imbalance)
			}
		})
	}
}

func TestSettle_DiscardedResidual(t *testing.T) {
	plan := Settle(nets("A", "10.00", "B", "-5.00"), money.DefaultCurrency)
	if got, ok := plan.Discarded["A"]; !ok || !got.Equal(m("5.00")) {
		t.Errorf("discarded = %v, want A: 5.00", plan.Discarded)
	}
	if !plan.Imbalance.Equal(m("5.00")) {
		t.Errorf("imbalance = %s, want 5.00", plan.Imbalance)
	}
}

func TestSettleSheet_ExampleScenario(t *testing.T) {
	calc := NewBalanceCalculator(money.DefaultCurrency, nil)
	sheet := calc.Calculate([]*models.ExpenseRecord{
		expense("dinner", "90.00", []string{"A", "B", "C"}, paid("A", "90.00")),
	}, nil, nil)

	plan := SettleSheet(sheet, money.DefaultCurrency)
	want := []string{"B->A 30.00", "C->A 30.00"}
	if got := describe(plan.Transfers); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("transfers = %v, want %v", got, want)
	}
	if plan.Inexact {
		t.Error("exact input reported as inexact")
	}
}

// TestSettle_Properties checks conservation, settlement correctness, the
// transfer bound and determinism over randomly generated reconciled groups.
func TestSettle_Properties(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	currency := money.DefaultCurrency
	calc := NewBalanceCalculator(currency, nil)

	for round := 0; round < 200; round++ {
		records := randomRecords(rng, round)
		for _, rec := range records {
			if err := ledger.SetContributions(&models.ExpenseRecord{}, rec.Contributions); err != nil {
				t.Fatalf("round %d: record %s is not a valid ledger: %v", round, rec.ID, err)
			}
		}
		sheet := calc.Calculate(records, nil, nil)

		// Conservation: the only imbalance is the reported split residue.
		if !sheet.Imbalance().Equal(sheet.TotalResidue()) {
			t.Fatalf("round %d: imbalance %s != residue %s", round, sheet.Imbalance(), sheet.TotalResidue())
		}

		plan := SettleSheet(sheet, currency)
		if plan.Inexact {
			t.Fatalf("round %d: reconciled input reported inexact (imbalance %s)", round, plan.Imbalance)
		}

		var creditors, debtors int
		for _, net := range sheet.NetBalances() {
			switch net.Sign() {
			case 1:
				creditors++
			case -1:
				debtors++
			}
		}
		if creditors+debtors > 0 && len(plan.Transfers) > creditors+debtors-1 {
			t.Fatalf("round %d: %d transfers for %d creditors and %d debtors",
				round, len(plan.Transfers), creditors, debtors)
		}

		// Applying the transfers leaves nothing beyond the residue.
		remaining := sheet.NetBalances()
		for _, tr := range plan.Transfers {
			if !tr.Amount.IsPositive() {
				t.Fatalf("round %d: non-positive transfer %+v", round, tr)
			}
			remaining[tr.From] = remaining[tr.From].Add(tr.Amount)
			remaining[tr.To] = remaining[tr.To].Sub(tr.Amount)
		}
		tolerance := currency.Epsilon().Add(sheet.TotalResidue())
		for id, left := range remaining {
			if left.Abs().GreaterThan(tolerance) {
				t.Fatalf("round %d: %s still has %s after settlement", round, id, left)
			}
		}

		// Determinism: map iteration order must not leak into the plan.
		for k := 0; k < 3; k++ {
			again := SettleSheet(calc.Calculate(records, nil, nil), currency)
			if fmt.Sprint(describe(again.Transfers)) != fmt.Sprint(describe(plan.Transfers)) {
				t.Fatalf("round %d: plan changed between runs", round)
			}
		}
	}
}

func randomRecords(rng *rand.Rand, round int) []*models.ExpenseRecord {
	people := make([]string, 2+rng.IntN(6))
	for i := range people {
		people[i] = fmt.Sprintf("p%d", i)
	}

	records := make([]*models.ExpenseRecord, 1+rng.IntN(8))
	for i := range records {
		var participants []string
		for _, p := range people {
			if rng.IntN(3) > 0 {
				participants = append(participants, p)
			}
		}
		if len(participants) == 0 {
			participants = []string{people[0]}
		}

		totalCents := int64(1 + rng.IntN(50000))
		rec := &models.ExpenseRecord{
			ID:           fmt.Sprintf("r%d-%d", round, i),
			Total:        money.FromMinor(totalCents, 2),
			Type:         models.TypeExpense,
			Participants: participants,
		}
		// Split the total across one to three distinct payers so contributions
		// reconcile exactly.
		order := rng.Perm(len(people))
		payers := 1 + rng.IntN(min(3, len(people)))
		left := totalCents
		for k := 0; k < payers; k++ {
			payer := people[order[k]]
			amount := left
			if k < payers-1 {
				amount = rng.Int64N(left + 1)
			}
			left -= amount
			rec.Contributions = append(rec.Contributions, models.Contribution{
				PayerID: payer,
				Amount:  money.FromMinor(amount, 2),
			})
		}
		records[i] = rec
	}
	return records
}

func describe(transfers []Transfer) []string {
	var out []string
	for _, tr := range transfers {
		out = append(out, fmt.Sprintf("%s->%s %s", tr.From, tr.To, tr.Amount))
	}
	return out
}
