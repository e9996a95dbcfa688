package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// CreateExpense persists a new expense record with its participants and contributions.
func (s *SQLiteStore) CreateExpense(ctx context.Context, rec *models.ExpenseRecord) error {
	// Generate fields if not set
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt == 0 {
		rec.CreatedAt = time.Now().Unix()
	}
	if rec.Date == 0 {
		rec.Date = rec.CreatedAt
	}
	if rec.Type == "" {
		rec.Type = models.TypeExpense
	}
	if rec.Title == "" {
		rec.Title = generateTitle(rec)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, title, total, type, category_id, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Title, rec.Total, string(rec.Type), rec.CategoryID, rec.Date, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	if err := insertLedger(ctx, tx, rec); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense by ID, including participants and contributions.
func (s *SQLiteStore) GetExpense(ctx context.Context, id string) (*models.ExpenseRecord, error) {
	rec := &models.ExpenseRecord{}
	var typ string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, total, type, category_id, date, created_at FROM expenses WHERE id = ?`,
		id,
	).Scan(&rec.ID, &rec.Title, &rec.Total, &typ, &rec.CategoryID, &rec.Date, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	rec.Type = models.TransactionType(typ)

	if err := s.loadLedgers(ctx, []*models.ExpenseRecord{rec}); err != nil {
		return nil, err
	}
	return rec, nil
}

// UpdateExpense replaces an existing expense, including its ledger.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, rec *models.ExpenseRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if rec.Type == "" {
		rec.Type = models.TypeExpense
	}
	result, err := tx.ExecContext(ctx,
		`UPDATE expenses SET title = ?, total = ?, type = ?, category_id = ?, date = ? WHERE id = ?`,
		rec.Title, rec.Total, string(rec.Type), rec.CategoryID, rec.Date, rec.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	} else if n == 0 {
		return fmt.Errorf("expense %s: %w", rec.ID, storage.ErrNotFound)
	}

	// Replace participants and contributions wholesale
	if _, err := tx.ExecContext(ctx, "DELETE FROM expense_participants WHERE expense_id = ?", rec.ID); err != nil {
		return fmt.Errorf("failed to clear participants: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM contributions WHERE expense_id = ?", rec.ID); err != nil {
		return fmt.Errorf("failed to clear contributions: %w", err)
	}
	if err := insertLedger(ctx, tx, rec); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteExpense removes an expense. Participants and contributions go with it.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// ListExpenses retrieves expenses matching filter, ordered by date then ID.
func (s *SQLiteStore) ListExpenses(ctx context.Context, filter storage.ExpenseFilter) ([]*models.ExpenseRecord, error) {
	var (
		where []string
		args  []any
	)
	if filter.CategoryID != "" {
		where = append(where, "category_id = ?")
		args = append(args, filter.CategoryID)
	}
	if filter.From != 0 {
		where = append(where, "date >= ?")
		args = append(args, filter.From)
	}
	if filter.To != 0 {
		where = append(where, "date < ?")
		args = append(args, filter.To)
	}
	if filter.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(filter.Type))
	}

	query := "SELECT id, title, total, type, category_id, date, created_at FROM expenses"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var records []*models.ExpenseRecord
	for rows.Next() {
		rec := &models.ExpenseRecord{}
		var typ string
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Total, &typ, &rec.CategoryID, &rec.Date, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		rec.Type = models.TransactionType(typ)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	rows.Close()

	if err := s.loadLedgers(ctx, records); err != nil {
		return nil, err
	}
	return records, nil
}

func insertLedger(ctx context.Context, tx execer, rec *models.ExpenseRecord) error {
	for i, id := range rec.Participants {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO expense_participants (expense_id, participant_id, position) VALUES (?, ?, ?)",
			rec.ID, id, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}
	for i, c := range rec.Contributions {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO contributions (expense_id, payer_id, amount, position) VALUES (?, ?, ?, ?)",
			rec.ID, c.PayerID, c.Amount, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert contribution: %w", err)
		}
	}
	return nil
}

// loadLedgers fills participants and contributions for records with two
// batched queries instead of one query per record.
func (s *SQLiteStore) loadLedgers(ctx context.Context, records []*models.ExpenseRecord) error {
	if len(records) == 0 {
		return nil
	}
	byID := make(map[string]*models.ExpenseRecord, len(records))
	ids := make([]string, len(records))
	for i, rec := range records {
		byID[rec.ID] = rec
		ids[i] = rec.ID
	}
	in := placeholders(len(ids))

	rows, err := s.db.QueryContext(ctx,
		"SELECT expense_id, participant_id FROM expense_participants WHERE expense_id IN ("+in+") ORDER BY expense_id, position",
		anySlice(ids)...,
	)
	if err != nil {
		return fmt.Errorf("failed to get participants: %w", err)
	}
	for rows.Next() {
		var expenseID, participantID string
		if err := rows.Scan(&expenseID, &participantID); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan participant: %w", err)
		}
		rec := byID[expenseID]
		rec.Participants = append(rec.Participants, participantID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("failed to iterate participants: %w", err)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx,
		"SELECT expense_id, payer_id, amount FROM contributions WHERE expense_id IN ("+in+") ORDER BY expense_id, position",
		anySlice(ids)...,
	)
	if err != nil {
		return fmt.Errorf("failed to get contributions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var expenseID string
		var c models.Contribution
		if err := rows.Scan(&expenseID, &c.PayerID, &c.Amount); err != nil {
			return fmt.Errorf("failed to scan contribution: %w", err)
		}
		rec := byID[expenseID]
		rec.Contributions = append(rec.Contributions, c)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate contributions: %w", err)
	}
	return nil
}

// generateTitle creates an auto-generated title from the record's date.
func generateTitle(rec *models.ExpenseRecord) string {
	label := "Expense"
	if rec.Type == models.TypeIncome {
		label = "Income"
	}
	return fmt.Sprintf("%s - %s", label, time.Unix(rec.Date, 0).UTC().Format("Jan 2, 2006"))
}
