package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// CreateParticipant inserts a new participant.
func (s *SQLiteStore) CreateParticipant(ctx context.Context, p *models.Participant) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO participants (id, name, color, created_at) VALUES (?, ?, ?, ?)",
		p.ID, p.Name, p.Color, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

// GetParticipant retrieves a participant by ID.
func (s *SQLiteStore) GetParticipant(ctx context.Context, id string) (*models.Participant, error) {
	p := &models.Participant{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, color, created_at FROM participants WHERE id = ?",
		id,
	).Scan(&p.ID, &p.Name, &p.Color, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("participant %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return p, nil
}

// ListParticipants returns every participant ordered by name.
func (s *SQLiteStore) ListParticipants(ctx context.Context) ([]models.Participant, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, color, created_at FROM participants ORDER BY name, id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.Name, &p.Color, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}
	return participants, nil
}

// DeleteParticipant removes a participant. Records that still reference the
// ID keep it; balance calculation reports them as unknown.
func (s *SQLiteStore) DeleteParticipant(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM participants WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete participant: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("participant %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// CreateCategory inserts a category and its default participants.
func (s *SQLiteStore) CreateCategory(ctx context.Context, c *models.Category) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt == 0 {
		c.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO categories (id, name, created_at) VALUES (?, ?, ?)",
		c.ID, c.Name, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	if err := insertCategoryParticipants(ctx, tx, c.ID, c.DefaultParticipants); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetCategory retrieves a category with its default participants.
func (s *SQLiteStore) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	c := &models.Category{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM categories WHERE id = ?",
		id,
	).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	if err := s.loadCategoryParticipants(ctx, []*models.Category{c}); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCategories returns every category ordered by name.
func (s *SQLiteStore) ListCategories(ctx context.Context) ([]*models.Category, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, created_at FROM categories ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		c := &models.Category{}
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}
	rows.Close()

	if err := s.loadCategoryParticipants(ctx, categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// SetCategoryParticipants replaces a category's default participants.
func (s *SQLiteStore) SetCategoryParticipants(ctx context.Context, categoryID string, participantIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM categories WHERE id = ?", categoryID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("category %s: %w", categoryID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check category: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM category_participants WHERE category_id = ?", categoryID); err != nil {
		return fmt.Errorf("failed to clear category participants: %w", err)
	}
	if err := insertCategoryParticipants(ctx, tx, categoryID, participantIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertCategoryParticipants(ctx context.Context, tx execer, categoryID string, ids []string) error {
	for i, id := range ids {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO category_participants (category_id, participant_id, position) VALUES (?, ?, ?)",
			categoryID, id, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert category participant: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) loadCategoryParticipants(ctx context.Context, categories []*models.Category) error {
	if len(categories) == 0 {
		return nil
	}
	byID := make(map[string]*models.Category, len(categories))
	ids := make([]string, len(categories))
	for i, c := range categories {
		byID[c.ID] = c
		ids[i] = c.ID
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT category_id, participant_id FROM category_participants WHERE category_id IN ("+placeholders(len(ids))+") ORDER BY category_id, position",
		anySlice(ids)...,
	)
	if err != nil {
		return fmt.Errorf("failed to get category participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var categoryID, participantID string
		if err := rows.Scan(&categoryID, &participantID); err != nil {
			return fmt.Errorf("failed to scan category participant: %w", err)
		}
		c := byID[categoryID]
		c.DefaultParticipants = append(c.DefaultParticipants, participantID)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate category participants: %w", err)
	}
	return nil
}
