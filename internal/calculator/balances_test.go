package calculator

import (
	"errors"
	"testing"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

func m(s string) money.Money { return money.MustParse(s) }

func expense(id, total string, participants []string, contributions ...models.Contribution) *models.ExpenseRecord {
	return &models.ExpenseRecord{
		ID:            id,
		Title:         id,
		Total:         m(total),
		Type:          models.TypeExpense,
		Participants:  participants,
		Contributions: contributions,
	}
}

func paid(payer, amount string) models.Contribution {
	return models.Contribution{PayerID: payer, Amount: m(amount)}
}

func TestSplitEqually(t *testing.T) {
	tests := []struct {
		name        string
		total       string
		n           int
		wantShare   string
		wantResidue string
		wantErr     bool
	}{
		{"even", "90.00", 3, "30.00", "0.00", false},
		{"odd total among three", "100.00", 3, "33.33", "0.01", false},
		{"two cents residue", "0.05", 3, "0.01", "0.02", false},
		{"no participants", "10.00", 0, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			share, err := SplitEqually(m(tt.total), tt.n, money.DefaultCurrency)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SplitEqually() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrNoParticipants) {
					t.Errorf("error = %v, want ErrNoParticipants", err)
				}
				return
			}
			if !share.PerParticipant.Equal(m(tt.wantShare)) {
				t.Errorf("share = %s, want %s", share.PerParticipant, tt.wantShare)
			}
			if !share.Residue.Equal(m(tt.wantResidue)) {
				t.Errorf("residue = %s, want %s", share.Residue, tt.wantResidue)
			}
		})
	}
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name         string
		records      []*models.ExpenseRecord
		settlements  []*models.Settlement
		defaults     []string
		wantNet      map[string]string
		wantWarnings int
		validateFunc func(t *testing.T, sheet *BalanceSheet)
	}{
		{
			name:    "one payer, three participants",
			records: []*models.ExpenseRecord{expense("dinner", "90.00", []string{"A", "B", "C"}, paid("A", "90.00"))},
			wantNet: map[string]string{"A": "60.00", "B": "-30.00", "C": "-30.00"},
			validateFunc: func(t *testing.T, sheet *BalanceSheet) {
				a := sheet.Balances["A"]
				if !a.Paid.Equal(m("90")) || !a.Owed.Equal(m("30")) {
					t.Errorf("A paid/owed = %s/%s, want 90.00/30.00", a.Paid, a.Owed)
				}
				if !sheet.Balances["B"].Paid.IsZero() {
					t.Errorf("B paid = %s, want 0", sheet.Balances["B"].Paid)
				}
			},
		},
		{
			name:    "odd total leaves reported residue",
			records: []*models.ExpenseRecord{expense("odd", "100.00", []string{"A", "B", "C"}, paid("A", "100.00"))},
			wantNet: map[string]string{"A": "66.67", "B": "-33.33", "C": "-33.33"},
			validateFunc: func(t *testing.T, sheet *BalanceSheet) {
				if len(sheet.Residues) != 1 || !sheet.Residues[0].Amount.Equal(m("0.01")) {
					t.Fatalf("residues = %+v, want one of 0.01", sheet.Residues)
				}
				for _, id := range []string{"A", "B", "C"} {
					if owed := sheet.Balances[id].Owed; !owed.Equal(m("33.33")) {
						t.Errorf("%s owed = %s, want 33.33", id, owed)
					}
				}
				if !sheet.Imbalance().Equal(m("0.01")) {
					t.Errorf("imbalance = %s, want the 0.01 residue", sheet.Imbalance())
				}
			},
		},
		{
			name: "multiple payers on one expense",
			records: []*models.ExpenseRecord{
				expense("trip", "120.00", []string{"A", "B", "C", "D"}, paid("A", "70.00"), paid("B", "50.00")),
			},
			wantNet: map[string]string{"A": "40.00", "B": "20.00", "C": "-30.00", "D": "-30.00"},
		},
		{
			name: "empty participants fall back to category defaults",
			records: []*models.ExpenseRecord{
				expense("rent", "40.00", nil, paid("A", "40.00")),
			},
			defaults: []string{"A", "B", "B"},
			wantNet:  map[string]string{"A": "20.00", "B": "-20.00"},
		},
		{
			name: "no participants anywhere is a warning, not a failure",
			records: []*models.ExpenseRecord{
				expense("orphan", "10.00", nil, paid("A", "10.00")),
				expense("ok", "20.00", []string{"A", "B"}, paid("B", "20.00")),
			},
			wantNet:      map[string]string{"A": "-10.00", "B": "10.00"},
			wantWarnings: 1,
			validateFunc: func(t *testing.T, sheet *BalanceSheet) {
				w := sheet.Warnings[0]
				if w.RecordID != "orphan" || !errors.Is(w.Err, ErrNoParticipants) {
					t.Errorf("warning = %+v, want ErrNoParticipants for orphan", w)
				}
				if sheet.Records != 1 {
					t.Errorf("records = %d, want 1", sheet.Records)
				}
			},
		},
		{
			name: "income is ignored",
			records: []*models.ExpenseRecord{
				expense("food", "30.00", []string{"A", "B"}, paid("A", "30.00")),
				{ID: "salary", Total: m("1000"), Type: models.TypeIncome, Participants: []string{"B"},
					Contributions: []models.Contribution{paid("B", "1000")}},
			},
			wantNet: map[string]string{"A": "15.00", "B": "-15.00"},
		},
		{
			name:    "recorded settlements reduce outstanding debt",
			records: []*models.ExpenseRecord{expense("dinner", "90.00", []string{"A", "B", "C"}, paid("A", "90.00"))},
			settlements: []*models.Settlement{
				{FromID: "B", ToID: "A", Amount: m("30.00")},
			},
			wantNet: map[string]string{"A": "30.00", "B": "0.00", "C": "-30.00"},
		},
		{
			name:         "unbalanced record is flagged but still counted",
			records:      []*models.ExpenseRecord{expense("short", "50.00", []string{"A", "B"}, paid("A", "45.00"))},
			wantNet:      map[string]string{"A": "20.00", "B": "-25.00"},
			wantWarnings: 1,
			validateFunc: func(t *testing.T, sheet *BalanceSheet) {
				if !errors.Is(sheet.Warnings[0].Err, ErrUnbalancedRecord) {
					t.Errorf("warning = %v, want ErrUnbalancedRecord", sheet.Warnings[0].Err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := NewBalanceCalculator(money.DefaultCurrency, nil)
			sheet := calc.Calculate(tt.records, tt.settlements, tt.defaults)

			if len(sheet.Balances) != len(tt.wantNet) {
				t.Errorf("balances = %d members, want %d", len(sheet.Balances), len(tt.wantNet))
			}
			for id, want := range tt.wantNet {
				bal, ok := sheet.Balances[id]
				if !ok {
					t.Errorf("missing balance for %s", id)
					continue
				}
				if !bal.Net.Equal(m(want)) {
					t.Errorf("%s net = %s, want %s", id, bal.Net, want)
				}
			}
			if len(sheet.Warnings) != tt.wantWarnings {
				t.Errorf("warnings = %+v, want %d", sheet.Warnings, tt.wantWarnings)
			}
			if tt.validateFunc != nil {
				tt.validateFunc(t, sheet)
			}
		})
	}
}

func TestCalculate_DoesNotMutateInput(t *testing.T) {
	rec := expense("x", "10.00", nil, paid("A", "10.00"))
	NewBalanceCalculator(money.DefaultCurrency, nil).Calculate([]*models.ExpenseRecord{rec}, nil, []string{"A", "B"})
	if len(rec.Participants) != 0 {
		t.Errorf("participants were filled in on the input record: %v", rec.Participants)
	}
}

func TestCalculate_RegistryDiagnostics(t *testing.T) {
	reg := NewRegistry([]models.Participant{{ID: "A", Name: "Alice"}, {ID: "B", Name: "Bob"}})
	calc := NewBalanceCalculator(money.DefaultCurrency, reg)
	sheet := calc.Calculate([]*models.ExpenseRecord{
		expense("one", "30.00", []string{"A", "B", "ghost"}, paid("A", "30.00")),
		expense("two", "30.00", []string{"A", "ghost"}, paid("ghost", "30.00")),
	}, nil, nil)

	if got := sheet.Balances["A"].Name; got != "Alice" {
		t.Errorf("A name = %q, want Alice", got)
	}
	if len(sheet.Warnings) != 1 {
		t.Fatalf("warnings = %+v, want one for ghost", sheet.Warnings)
	}
	if w := sheet.Warnings[0]; w.ParticipantID != "ghost" || !errors.Is(w.Err, ErrUnknownParticipant) {
		t.Errorf("warning = %+v", w)
	}
	// Unknown participants still take part in the computation.
	if !sheet.Balances["ghost"].Net.Equal(m("5")) {
		t.Errorf("ghost net = %s, want 5.00", sheet.Balances["ghost"].Net)
	}
}

func TestMembers_SortedByID(t *testing.T) {
	sheet := NewBalanceCalculator(money.DefaultCurrency, nil).Calculate([]*models.ExpenseRecord{
		expense("x", "30.00", []string{"C", "A", "B"}, paid("B", "30.00")),
	}, nil, nil)
	members := sheet.Members()
	if len(members) != 3 || members[0].ParticipantID != "A" || members[1].ParticipantID != "B" || members[2].ParticipantID != "C" {
		t.Errorf("members = %+v, want sorted A, B, C", members)
	}
}
