// Package ledger mutates the participants and contributions of an expense
// record. It rejects structurally invalid entries (duplicate payers, negative
// amounts) at the point of mutation but never checks that contributions add
// up to the record total; that is the reconciler's job.
package ledger

import (
	"errors"
	"fmt"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

var (
	ErrDuplicatePayer = errors.New("payer already has a contribution on this record")
	ErrNegativeAmount = errors.New("contribution amount must not be negative")
	ErrEmptyPayer     = errors.New("payer id required")
)

// SetParticipants replaces the participant set. Duplicate and empty IDs are
// dropped, first occurrence wins. Contributions from payers that are no
// longer participants are kept; see StrayPayers.
func SetParticipants(r *models.ExpenseRecord, ids []string) {
	seen := make(map[string]bool, len(ids))
	participants := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		participants = append(participants, id)
	}
	r.Participants = participants
}

// AddContribution appends a contribution for payer.
func AddContribution(r *models.ExpenseRecord, payer string, amount money.Money) error {
	if payer == "" {
		return ErrEmptyPayer
	}
	if amount.IsNegative() {
		return fmt.Errorf("%w: %s", ErrNegativeAmount, amount)
	}
	if indexOf(r, payer) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicatePayer, payer)
	}
	r.Contributions = append(r.Contributions, models.Contribution{PayerID: payer, Amount: amount})
	return nil
}

// RemoveContribution drops payer's contribution. It is a no-op if absent.
func RemoveContribution(r *models.ExpenseRecord, payer string) {
	i := indexOf(r, payer)
	if i < 0 {
		return
	}
	r.Contributions = append(r.Contributions[:i:i], r.Contributions[i+1:]...)
}

// SetSinglePayer replaces all contributions with one entry for the full total.
func SetSinglePayer(r *models.ExpenseRecord, payer string) error {
	if payer == "" {
		return ErrEmptyPayer
	}
	if r.Total.IsNegative() {
		return fmt.Errorf("%w: total %s", ErrNegativeAmount, r.Total)
	}
	r.Contributions = []models.Contribution{{PayerID: payer, Amount: r.Total}}
	return nil
}

// SetContributions replaces all contributions with an itemized list. The list
// is validated entry by entry as AddContribution would; on error the record
// is left unchanged.
func SetContributions(r *models.ExpenseRecord, contributions []models.Contribution) error {
	scratch := &models.ExpenseRecord{}
	for _, c := range contributions {
		if err := AddContribution(scratch, c.PayerID, c.Amount); err != nil {
			return err
		}
	}
	r.Contributions = scratch.Contributions
	return nil
}

// Sum returns the total of all contribution amounts.
func Sum(r *models.ExpenseRecord) money.Money {
	total := money.Zero
	for _, c := range r.Contributions {
		total = total.Add(c.Amount)
	}
	return total
}

// StrayPayers lists payers whose contributions reference someone who is not a
// declared participant, in contribution order.
func StrayPayers(r *models.ExpenseRecord) []string {
	var stray []string
	for _, c := range r.Contributions {
		if !r.HasParticipant(c.PayerID) {
			stray = append(stray, c.PayerID)
		}
	}
	return stray
}

func indexOf(r *models.ExpenseRecord, payer string) int {
	for i, c := range r.Contributions {
		if c.PayerID == payer {
			return i
		}
	}
	return -1
}
