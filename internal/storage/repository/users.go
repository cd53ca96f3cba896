package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quizory/quiz-league/internal/lib/apperr"
	"github.com/quizory/quiz-league/internal/models"
)

// CreateUser вставляет нового пользователя.
func (s *Storage) CreateUser(ctx context.Context, user models.User) error {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (id, email, password_hash, display_name, preferred_language, is_email_verified)
			  VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.DB.ExecContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.DisplayName, user.PreferredLanguage, user.IsEmailVerified)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetUserByEmail возвращает пользователя по email или apperr.ErrNotFound.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, email, password_hash, display_name, preferred_language, is_email_verified
			  FROM users WHERE email = $1`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, email), op)
}

// GetUserByID возвращает пользователя по идентификатору.
func (s *Storage) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "storage.GetUserByID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, email, password_hash, display_name, preferred_language, is_email_verified
			  FROM users WHERE id = $1`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, id), op)
}

func (s *Storage) scanUser(row *sql.Row, op string) (*models.User, error) {
	var result models.User
	if err := row.Scan(&result.ID, &result.Email, &result.PasswordHash,
		&result.DisplayName, &result.PreferredLanguage, &result.IsEmailVerified); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// UpdateUserLanguage сохраняет предпочитаемый язык пользователя.
func (s *Storage) UpdateUserLanguage(ctx context.Context, userID uuid.UUID, language string) error {
	const op = "storage.UpdateUserLanguage"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users SET preferred_language = $1 WHERE id = $2`
	_, err := s.DB.ExecContext(ctx, query, language, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// MarkEmailVerified отмечает email пользователя подтверждённым и удаляет токен.
func (s *Storage) MarkEmailVerified(ctx context.Context, token string, now time.Time) error {
	const op = "storage.MarkEmailVerified"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `WITH consumed AS (
			      DELETE FROM email_verification_tokens
			      WHERE token = $1 AND expires_at > $2
			      RETURNING user_id
			  )
			  UPDATE users SET is_email_verified = true
			  WHERE id IN (SELECT user_id FROM consumed)`
	result, err := s.DB.ExecContext(ctx, query, token, now)
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

// CreateEmailVerificationToken сохраняет токен подтверждения email.
func (s *Storage) CreateEmailVerificationToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	const op = "storage.CreateEmailVerificationToken"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO email_verification_tokens (user_id, token, expires_at)
			  VALUES ($1, $2, $3)`
	_, err := s.DB.ExecContext(ctx, query, userID, token, expiresAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CreateMembership вставляет членство пользователя в организации.
func (s *Storage) CreateMembership(ctx context.Context, m models.Membership) error {
	const op = "storage.CreateMembership"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO memberships (id, user_id, organization_id, role)
			  VALUES ($1, $2, $3, $4)`
	_, err := s.DB.ExecContext(ctx, query, m.ID, m.UserID, m.OrganizationID, m.Role)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetMembership возвращает членство по паре (пользователь, организация).
func (s *Storage) GetMembership(ctx context.Context, userID, orgID uuid.UUID) (*models.Membership, error) {
	const op = "storage.GetMembership"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, organization_id, role
			  FROM memberships WHERE user_id = $1 AND organization_id = $2`
	row := s.DB.QueryRowContext(ctx, query, userID, orgID)

	var result models.Membership
	if err := row.Scan(&result.ID, &result.UserID, &result.OrganizationID, &result.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// GetPrimaryMembership возвращает членство пользователя, предпочитая роль владельца.
func (s *Storage) GetPrimaryMembership(ctx context.Context, userID uuid.UUID) (*models.Membership, error) {
	const op = "storage.GetPrimaryMembership"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, organization_id, role
			  FROM memberships WHERE user_id = $1
			  ORDER BY CASE WHEN role = 'owner' THEN 0 ELSE 1 END
			  LIMIT 1`
	row := s.DB.QueryRowContext(ctx, query, userID)

	var result models.Membership
	if err := row.Scan(&result.ID, &result.UserID, &result.OrganizationID, &result.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// ListMembers возвращает участников организации с данными учетных записей.
func (s *Storage) ListMembers(ctx context.Context, orgID uuid.UUID) ([]*models.Member, error) {
	const op = "storage.ListMembers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT u.id, u.email, u.display_name, m.role
			  FROM memberships m
			  JOIN users u ON u.id = m.user_id
			  WHERE m.organization_id = $1
			  ORDER BY u.email`
	rows, err := s.DB.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Member
	for rows.Next() {
		var item models.Member
		if err := rows.Scan(&item.UserID, &item.Email, &item.DisplayName, &item.Role); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountMembers подсчитывает количество участников организации.
func (s *Storage) CountMembers(ctx context.Context, orgID uuid.UUID) (int, error) {
	const op = "storage.CountMembers"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var count int
	query := `SELECT COUNT(*) FROM memberships WHERE organization_id = $1`
	if err := s.DB.QueryRowContext(ctx, query, orgID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// CountAdminLevelMembers подсчитывает администраторов и владельцев организации.
func (s *Storage) CountAdminLevelMembers(ctx context.Context, orgID uuid.UUID) (int, error) {
	const op = "storage.CountAdminLevelMembers"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var count int
	query := `SELECT COUNT(*) FROM memberships
			  WHERE organization_id = $1 AND role IN ('owner', 'admin')`
	if err := s.DB.QueryRowContext(ctx, query, orgID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// UpdateMembershipRole меняет роль участника организации.
func (s *Storage) UpdateMembershipRole(ctx context.Context, orgID, userID uuid.UUID, role models.Role) error {
	const op = "storage.UpdateMembershipRole"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE memberships SET role = $1
			  WHERE organization_id = $2 AND user_id = $3`
	result, err := s.DB.ExecContext(ctx, query, role, orgID, userID)
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

// DeleteMembership удаляет участника из организации.
func (s *Storage) DeleteMembership(ctx context.Context, orgID, userID uuid.UUID) error {
	const op = "storage.DeleteMembership"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM memberships WHERE organization_id = $1 AND user_id = $2`
	result, err := s.DB.ExecContext(ctx, query, orgID, userID)
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
