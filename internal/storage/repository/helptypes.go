package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/quizory/quiz-league/internal/lib/apperr"
	"github.com/quizory/quiz-league/internal/models"
)

// CreateHelpType вставляет новый тип подсказки в каталог организации.
func (s *Storage) CreateHelpType(ctx context.Context, ht models.HelpType) error {
	const op = "storage.CreateHelpType"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO help_types (id, organization_id, name, behavior)
			  VALUES ($1, $2, $3, $4)`
	_, err := s.DB.ExecContext(ctx, query, ht.ID, ht.OrganizationID, ht.Name, ht.Behavior)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListHelpTypes возвращает неудалённые типы подсказок организации.
func (s *Storage) ListHelpTypes(ctx context.Context, orgID uuid.UUID) ([]*models.HelpType, error) {
	const op = "storage.ListHelpTypes"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, organization_id, name, behavior
			  FROM help_types
			  WHERE organization_id = $1 AND NOT is_deleted
			  ORDER BY name`
	rows, err := s.DB.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.HelpType
	for rows.Next() {
		var item models.HelpType
		if err := rows.Scan(&item.ID, &item.OrganizationID, &item.Name, &item.Behavior); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetHelpType возвращает тип подсказки организации по идентификатору.
func (s *Storage) GetHelpType(ctx context.Context, orgID, id uuid.UUID) (*models.HelpType, error) {
	const op = "storage.GetHelpType"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, organization_id, name, behavior
			  FROM help_types
			  WHERE id = $1 AND organization_id = $2 AND NOT is_deleted`
	row := s.DB.QueryRowContext(ctx, query, id, orgID)

	var result models.HelpType
	if err := row.Scan(&result.ID, &result.OrganizationID, &result.Name, &result.Behavior); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// UpdateHelpType обновляет имя и поведение типа подсказки.
func (s *Storage) UpdateHelpType(ctx context.Context, orgID, id uuid.UUID, name string, behavior models.HelpBehavior) error {
	const op = "storage.UpdateHelpType"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE help_types SET name = $1, behavior = $2, updated_at = now()
			  WHERE id = $3 AND organization_id = $4 AND NOT is_deleted`
	result, err := s.DB.ExecContext(ctx, query, name, behavior, id, orgID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	return nil
}

// SoftDeleteHelpType помечает тип подсказки удалённым.
func (s *Storage) SoftDeleteHelpType(ctx context.Context, orgID, id uuid.UUID) error {
	const op = "storage.SoftDeleteHelpType"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE help_types SET is_deleted = true, updated_at = now()
			  WHERE id = $1 AND organization_id = $2 AND NOT is_deleted`
	result, err := s.DB.ExecContext(ctx, query, id, orgID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	return nil
}
