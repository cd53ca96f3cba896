package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/quizory/quiz-league/internal/lib/apperr"
	"github.com/quizory/quiz-league/internal/models"
)

// CreateShareToken сохраняет токен публичного доступа к таблице результатов.
func (s *Storage) CreateShareToken(ctx context.Context, token models.PublicShareToken) error {
	const op = "storage.CreateShareToken"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO public_share_tokens (id, organization_id, quiz_id, token, expires_at)
			  VALUES ($1, $2, $3, $4, $5)`
	_, err := s.DB.ExecContext(ctx, query,
		token.ID, token.OrganizationID, token.QuizID, token.Token, token.ExpiresAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetShareToken возвращает запись токена по его значению.
func (s *Storage) GetShareToken(ctx context.Context, token string) (*models.PublicShareToken, error) {
	const op = "storage.GetShareToken"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, organization_id, quiz_id, token, expires_at
			  FROM public_share_tokens WHERE token = $1`
	row := s.DB.QueryRowContext(ctx, query, token)

	var result models.PublicShareToken
	if err := row.Scan(&result.ID, &result.OrganizationID, &result.QuizID,
		&result.Token, &result.ExpiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}
