package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// CreateSettlement records a payment between participants.
func (s *SQLiteStore) CreateSettlement(ctx context.Context, st *models.Settlement) error {
	if st.ID == "" {
		st.ID = uuid.New().String()
	}
	if st.Date == 0 {
		st.Date = time.Now().Unix()
	}

	var note sql.NullString
	if st.Note != "" {
		note = sql.NullString{String: st.Note, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settlements (id, category_id, from_id, to_id, amount, date, created_by, note)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.CategoryID, st.FromID, st.ToID, st.Amount, st.Date, st.CreatedBy, note,
	)
	if err != nil {
		return fmt.Errorf("failed to create settlement: %w", err)
	}
	return nil
}

// ListSettlements retrieves settlements matching filter, oldest first.
func (s *SQLiteStore) ListSettlements(ctx context.Context, filter storage.SettlementFilter) ([]*models.Settlement, error) {
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

	query := "SELECT id, category_id, from_id, to_id, amount, date, created_by, note FROM settlements"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		st := &models.Settlement{}
		var note sql.NullString
		if err := rows.Scan(&st.ID, &st.CategoryID, &st.FromID, &st.ToID, &st.Amount, &st.Date, &st.CreatedBy, &note); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		st.Note = note.String
		settlements = append(settlements, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}
	return settlements, nil
}

// DeleteSettlement removes a recorded settlement.
func (s *SQLiteStore) DeleteSettlement(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM settlements WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete settlement: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("settlement %s: %w", id, storage.ErrNotFound)
	}
	return nil
}
