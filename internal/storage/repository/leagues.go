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

// CreateLeague вставляет новую лигу.
func (s *Storage) CreateLeague(ctx context.Context, league models.League) error {
	const op = "storage.CreateLeague"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO leagues (id, organization_id, name) VALUES ($1, $2, $3)`
	_, err := s.DB.ExecContext(ctx, query, league.ID, league.OrganizationID, league.Name)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListLeagues возвращает неудалённые лиги организации.
func (s *Storage) ListLeagues(ctx context.Context, orgID uuid.UUID) ([]*models.League, error) {
	const op = "storage.ListLeagues"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, organization_id, name
			  FROM leagues
			  WHERE organization_id = $1 AND NOT is_deleted
			  ORDER BY name`
	rows, err := s.DB.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.League
	for rows.Next() {
		var item models.League
		if err := rows.Scan(&item.ID, &item.OrganizationID, &item.Name); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetLeague возвращает лигу организации по идентификатору.
func (s *Storage) GetLeague(ctx context.Context, orgID, id uuid.UUID) (*models.League, error) {
	const op = "storage.GetLeague"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, organization_id, name
			  FROM leagues
			  WHERE id = $1 AND organization_id = $2 AND NOT is_deleted`
	row := s.DB.QueryRowContext(ctx, query, id, orgID)

	var result models.League
	if err := row.Scan(&result.ID, &result.OrganizationID, &result.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// UpdateLeague переименовывает лигу.
func (s *Storage) UpdateLeague(ctx context.Context, orgID, id uuid.UUID, name string) error {
	const op = "storage.UpdateLeague"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE leagues SET name = $1, updated_at = now()
			  WHERE id = $2 AND organization_id = $3 AND NOT is_deleted`
	result, err := s.DB.ExecContext(ctx, query, name, id, orgID)
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

// SoftDeleteLeague помечает лигу удалённой.
func (s *Storage) SoftDeleteLeague(ctx context.Context, orgID, id uuid.UUID) error {
	const op = "storage.SoftDeleteLeague"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE leagues SET is_deleted = true, updated_at = now()
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
