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

// CreateCategory вставляет новую категорию.
func (s *Storage) CreateCategory(ctx context.Context, category models.Category) error {
	const op = "storage.CreateCategory"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO categories (id, organization_id, name) VALUES ($1, $2, $3)`
	_, err := s.DB.ExecContext(ctx, query, category.ID, category.OrganizationID, category.Name)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListCategories возвращает неудалённые категории организации.
func (s *Storage) ListCategories(ctx context.Context, orgID uuid.UUID) ([]*models.Category, error) {
	const op = "storage.ListCategories"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, organization_id, name
			  FROM categories
			  WHERE organization_id = $1 AND NOT is_deleted
			  ORDER BY name`
	rows, err := s.DB.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Category
	for rows.Next() {
		var item models.Category
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

// GetCategory возвращает категорию организации по идентификатору.
func (s *Storage) GetCategory(ctx context.Context, orgID, id uuid.UUID) (*models.Category, error) {
	const op = "storage.GetCategory"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, organization_id, name
			  FROM categories
			  WHERE id = $1 AND organization_id = $2 AND NOT is_deleted`
	row := s.DB.QueryRowContext(ctx, query, id, orgID)

	var result models.Category
	if err := row.Scan(&result.ID, &result.OrganizationID, &result.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// GetCategoryNames возвращает имена категорий по набору идентификаторов.
func (s *Storage) GetCategoryNames(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	const op = "storage.GetCategoryNames"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT id, name FROM categories
			  WHERE organization_id = $1 AND id = ANY($2)`
	rows, err := s.DB.QueryContext(ctx, query, orgID, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var id uuid.UUID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateCategory переименовывает категорию.
func (s *Storage) UpdateCategory(ctx context.Context, orgID, id uuid.UUID, name string) error {
	const op = "storage.UpdateCategory"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE categories SET name = $1, updated_at = now()
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

// SoftDeleteCategory помечает категорию удалённой.
func (s *Storage) SoftDeleteCategory(ctx context.Context, orgID, id uuid.UUID) error {
	const op = "storage.SoftDeleteCategory"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE categories SET is_deleted = true, updated_at = now()
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
