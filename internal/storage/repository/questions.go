package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/quizory/quiz-league/internal/lib/apperr"
	"github.com/quizory/quiz-league/internal/models"
)

// CreateQuestion добавляет вопрос в банк организации.
func (s *Storage) CreateQuestion(ctx context.Context, q models.Question) error {
	const op = "storage.CreateQuestion"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO questions (id, organization_id, category_id, text, answer)
			  VALUES ($1, $2, $3, $4, $5)`
	_, err := s.DB.ExecContext(ctx, query, q.ID, q.OrganizationID, q.CategoryID, q.Text, q.Answer)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListQuestions возвращает вопросы организации, опционально по категории.
func (s *Storage) ListQuestions(ctx context.Context, orgID uuid.UUID, categoryID *uuid.UUID) ([]*models.Question, error) {
	const op = "storage.ListQuestions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, organization_id, category_id, text, answer
			  FROM questions
			  WHERE organization_id = $1 AND NOT is_deleted
			    AND ($2::uuid IS NULL OR category_id = $2)
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, orgID, categoryID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Question
	for rows.Next() {
		var item models.Question
		if err := rows.Scan(&item.ID, &item.OrganizationID, &item.CategoryID, &item.Text, &item.Answer); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SoftDeleteQuestion помечает вопрос удалённым.
func (s *Storage) SoftDeleteQuestion(ctx context.Context, orgID, id uuid.UUID) error {
	const op = "storage.SoftDeleteQuestion"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE questions SET is_deleted = true, updated_at = now()
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
