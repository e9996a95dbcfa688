package reconcile

import "github.com/mmynk/splitledger/internal/models"

// Warning reports a record that could not be reconciled. It does not stop
// the rest of the batch.
type Warning struct {
	RecordID string
	Err      error
}

// BatchResult collects the outcome of ReconcileAll.
type BatchResult struct {
	// Fixed holds corrected copies of the records that changed, in input order.
	Fixed []*Result
	// Unchanged counts records that were already clean and balanced.
	Unchanged int
	Warnings  []Warning
}

// EligibleFunc returns the payers allowed on a record.
type EligibleFunc func(rec *models.ExpenseRecord) []string

// ReconcileAll runs FixAndBalanceWith over every expense record. Income
// records are skipped. A nil eligible func uses each record's participants.
func (r *Reconciler) ReconcileAll(records []*models.ExpenseRecord, eligible EligibleFunc) *BatchResult {
	if eligible == nil {
		eligible = func(rec *models.ExpenseRecord) []string { return rec.Participants }
	}

	result := &BatchResult{}
	for _, rec := range records {
		if !rec.IsExpense() {
			continue
		}
		res, err := r.FixAndBalanceWith(rec, eligible(rec))
		if err != nil {
			result.Warnings = append(result.Warnings, Warning{RecordID: rec.ID, Err: err})
			continue
		}
		if !res.Changed {
			result.Unchanged++
			continue
		}
		result.Fixed = append(result.Fixed, res)
	}
	return result
}
