package reconcile

import (
	"errors"
	"testing"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

func m(s string) money.Money { return money.MustParse(s) }

func contrib(payer, amount string) models.Contribution {
	return models.Contribution{PayerID: payer, Amount: m(amount)}
}

func record(total string, participants []string, cs ...models.Contribution) *models.ExpenseRecord {
	return &models.ExpenseRecord{
		ID:            "rec-1",
		Total:         m(total),
		Type:          models.TypeExpense,
		Participants:  participants,
		Contributions: cs,
	}
}

func amounts(rec *models.ExpenseRecord) []string {
	out := make([]string, len(rec.Contributions))
	for i, c := range rec.Contributions {
		out[i] = c.Amount.String()
	}
	return out
}

func assertAmounts(t *testing.T, rec *models.ExpenseRecord, want ...string) {
	t.Helper()
	got := amounts(rec)
	if len(got) != len(want) {
		t.Fatalf("amounts = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("amounts = %v, want %v", got, want)
		}
	}
}

func TestStatus(t *testing.T) {
	r := New()
	tests := []struct {
		name string
		rec  *models.ExpenseRecord
		want Status
	}{
		{"no contributions", record("50.00", nil), NoContributions},
		{"exact", record("50.00", nil, contrib("a", "20"), contrib("b", "30")), Balanced},
		{"within one minor unit below", record("50.00", nil, contrib("a", "49.99")), Balanced},
		{"within one minor unit above", record("50.00", nil, contrib("a", "50.01")), Balanced},
		{"insufficient", record("50.00", nil, contrib("a", "45.00")), Insufficient},
		{"excess", record("50.00", nil, contrib("a", "50.02")), Excess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Status(tt.rec); got != tt.want {
				t.Errorf("Status() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDistributeRemainder(t *testing.T) {
	r := New()
	tests := []struct {
		name string
		rec  *models.ExpenseRecord
		want []string
	}{
		{
			name: "shortfall goes to zero-amount entries",
			rec:  record("50.00", nil, contrib("a", "45.00"), contrib("b", "0"), contrib("c", "0")),
			want: []string{"45.00", "2.50", "2.50"},
		},
		{
			name: "leftover minor unit lands on first zero entry",
			rec:  record("10.00", nil, contrib("a", "9.95"), contrib("b", "0"), contrib("c", "0"), contrib("d", "0")),
			want: []string{"9.95", "0.03", "0.01", "0.01"},
		},
		{
			name: "no zero entries spreads over all",
			rec:  record("100.00", nil, contrib("a", "30.00"), contrib("b", "30.00"), contrib("c", "30.00")),
			want: []string{"33.34", "33.33", "33.33"},
		},
		{
			name: "excess taken back evenly",
			rec:  record("90.00", nil, contrib("a", "50.00"), contrib("b", "50.00")),
			want: []string{"45.00", "45.00"},
		},
		{
			name: "excess never goes below zero",
			rec:  record("50.00", nil, contrib("a", "1.00"), contrib("b", "99.00"), contrib("c", "0")),
			want: []string{"0.00", "50.00", "0.00"},
		},
		{
			name: "balanced record untouched",
			rec:  record("50.00", nil, contrib("a", "50.00"), contrib("b", "0")),
			want: []string{"50.00", "0.00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := amounts(tt.rec)
			got := r.DistributeRemainder(tt.rec)
			assertAmounts(t, got, tt.want...)
			if s := r.Status(got); s != Balanced {
				t.Errorf("status after distribution = %s", s)
			}
			assertAmounts(t, tt.rec, before...)
		})
	}
}

func TestCleanupInvalidPayers(t *testing.T) {
	t.Run("drops payers outside the allowed set", func(t *testing.T) {
		rec := record("30.00", []string{"a", "b"}, contrib("a", "10"), contrib("x", "20"))
		got, err := New().CleanupInvalidPayers(rec, rec.Participants)
		if err != nil {
			t.Fatalf("CleanupInvalidPayers: %v", err)
		}
		if len(got.Contributions) != 1 || got.Contributions[0].PayerID != "a" {
			t.Errorf("contributions = %+v", got.Contributions)
		}
		if len(rec.Contributions) != 2 {
			t.Error("input record was modified")
		}
	})

	t.Run("empty result falls back to first allowed payer", func(t *testing.T) {
		rec := record("30.00", []string{"b", "a"}, contrib("x", "30"))
		got, err := New().CleanupInvalidPayers(rec, rec.Participants)
		if err != nil {
			t.Fatalf("CleanupInvalidPayers: %v", err)
		}
		if len(got.Contributions) != 1 || got.Contributions[0].PayerID != "b" || !got.Contributions[0].Amount.Equal(m("30")) {
			t.Errorf("contributions = %+v, want single full payment by b", got.Contributions)
		}
	})

	t.Run("no allowed payers uses default payer", func(t *testing.T) {
		rec := record("30.00", nil, contrib("x", "30"))
		got, err := New(WithDefaultPayer("owner")).CleanupInvalidPayers(rec, nil)
		if err != nil {
			t.Fatalf("CleanupInvalidPayers: %v", err)
		}
		if got.Contributions[0].PayerID != "owner" {
			t.Errorf("payer = %s, want owner", got.Contributions[0].PayerID)
		}
	})

	t.Run("nobody eligible", func(t *testing.T) {
		rec := record("30.00", nil, contrib("x", "30"))
		_, err := New().CleanupInvalidPayers(rec, nil)
		if !errors.Is(err, ErrNoEligiblePayer) {
			t.Errorf("error = %v, want ErrNoEligiblePayer", err)
		}
	})
}

func TestFixAndBalance(t *testing.T) {
	tests := []struct {
		name string
		rec  *models.ExpenseRecord
		want []string
	}{
		{
			name: "stray payer removed then shortfall distributed",
			rec:  record("60.00", []string{"a", "b"}, contrib("a", "20"), contrib("b", "0"), contrib("x", "40")),
			want: []string{"20.00", "40.00"},
		},
		{
			name: "no contributions becomes single payer",
			rec:  record("25.00", []string{"a", "b"}),
			want: []string{"25.00"},
		},
		{
			name: "excess trimmed",
			rec:  record("10.00", []string{"a", "b"}, contrib("a", "8"), contrib("b", "8")),
			want: []string{"5.00", "5.00"},
		},
	}

	r := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, err := r.FixAndBalance(tt.rec)
			if err != nil {
				t.Fatalf("FixAndBalance: %v", err)
			}
			if first.After != Balanced {
				t.Errorf("after = %s, want balanced", first.After)
			}
			if !first.Changed {
				t.Error("expected Changed")
			}
			assertAmounts(t, first.Record, tt.want...)

			second, err := r.FixAndBalance(first.Record)
			if err != nil {
				t.Fatalf("second FixAndBalance: %v", err)
			}
			if second.Changed {
				t.Errorf("second pass changed the record: %v -> %v", amounts(first.Record), amounts(second.Record))
			}
			assertAmounts(t, second.Record, tt.want...)
			if !ledger.Sum(second.Record).Equal(tt.rec.Total) {
				t.Errorf("sum = %s, want %s", ledger.Sum(second.Record), tt.rec.Total)
			}
		})
	}
}

func TestFixAndBalance_IdempotentWithDefaultPayer(t *testing.T) {
	r := New(WithDefaultPayer("owner"))
	rec := record("12.00", nil, contrib("x", "3"))
	first, err := r.FixAndBalance(rec)
	if err != nil {
		t.Fatalf("FixAndBalance: %v", err)
	}
	second, err := r.FixAndBalance(first.Record)
	if err != nil {
		t.Fatalf("second FixAndBalance: %v", err)
	}
	if second.Changed {
		t.Errorf("second pass changed the record: %+v", second.Record.Contributions)
	}
}

func TestFixAndBalance_Unreconcilable(t *testing.T) {
	tests := []struct {
		name string
		rec  *models.ExpenseRecord
	}{
		{"no eligible payer", record("10.00", nil, contrib("x", "10"))},
		{"zero total", record("0", []string{"a"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := amounts(tt.rec)
			res, err := New().FixAndBalance(tt.rec)
			if !errors.Is(err, ErrUnreconcilable) {
				t.Fatalf("error = %v, want ErrUnreconcilable", err)
			}
			if res != nil {
				t.Error("expected nil result")
			}
			assertAmounts(t, tt.rec, before...)
		})
	}
}

func TestReconcileAll(t *testing.T) {
	good := record("20.00", []string{"a"}, contrib("a", "20"))
	good.ID = "good"
	short := record("20.00", []string{"a", "b"}, contrib("a", "10"), contrib("b", "0"))
	short.ID = "short"
	broken := record("20.00", nil, contrib("x", "20"))
	broken.ID = "broken"
	income := record("20.00", nil)
	income.ID = "income"
	income.Type = models.TypeIncome

	result := New().ReconcileAll([]*models.ExpenseRecord{good, short, broken, income}, nil)

	if result.Unchanged != 1 {
		t.Errorf("unchanged = %d, want 1", result.Unchanged)
	}
	if len(result.Fixed) != 1 || result.Fixed[0].Record.ID != "short" {
		t.Fatalf("fixed = %+v, want only short", result.Fixed)
	}
	assertAmounts(t, result.Fixed[0].Record, "10.00", "10.00")
	if len(result.Warnings) != 1 || result.Warnings[0].RecordID != "broken" {
		t.Fatalf("warnings = %+v, want one for broken", result.Warnings)
	}
	if !errors.Is(result.Warnings[0].Err, ErrUnreconcilable) {
		t.Errorf("warning error = %v", result.Warnings[0].Err)
	}
}
