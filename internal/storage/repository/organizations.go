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

// CreateOrganization вставляет новую организацию.
func (s *Storage) CreateOrganization(ctx context.Context, org models.Organization) error {
	const op = "storage.CreateOrganization"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO organizations (id, name, plan, trial_ends_at, primary_color)
			  VALUES ($1, $2, $3, $4, $5)`
	_, err := s.DB.ExecContext(ctx, query,
		org.ID, org.Name, org.Plan, org.TrialEndsAt, org.PrimaryColor)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetOrganization возвращает организацию по идентификатору.
func (s *Storage) GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	const op = "storage.GetOrganization"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, plan, trial_ends_at, primary_color, created_at, updated_at
			  FROM organizations WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	var result models.Organization
	if err := row.Scan(&result.ID, &result.Name, &result.Plan, &result.TrialEndsAt,
		&result.PrimaryColor, &result.CreatedAt, &result.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// UpdateOrganization обновляет имя и цвет организации.
func (s *Storage) UpdateOrganization(ctx context.Context, id uuid.UUID, name, primaryColor string) error {
	const op = "storage.UpdateOrganization"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE organizations
			  SET name = $1, primary_color = $2, updated_at = now()
			  WHERE id = $3`
	result, err := s.DB.ExecContext(ctx, query, name, primaryColor, id)
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

// UpdateOrganizationPlan записывает новый тарифный план и срок пробного периода.
func (s *Storage) UpdateOrganizationPlan(ctx context.Context, id uuid.UUID, plan models.Plan, trialEndsAt *time.Time) error {
	const op = "storage.UpdateOrganizationPlan"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE organizations
			  SET plan = $1, trial_ends_at = $2, updated_at = now()
			  WHERE id = $3`
	result, err := s.DB.ExecContext(ctx, query, plan, trialEndsAt, id)
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

// ExpireTrials переводит в free все организации с планом trial и истекшим
// сроком. Повторный запуск без истекших организаций ничего не меняет.
func (s *Storage) ExpireTrials(ctx context.Context, now time.Time) (int, error) {
	const op = "storage.ExpireTrials"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE organizations
			  SET plan = 'free', trial_ends_at = NULL, updated_at = $1
			  WHERE plan = 'trial' AND trial_ends_at < $1`
	result, err := s.DB.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// FindTrialsExpiringWithin находит организации на пробном периоде,
// истекающем в ближайшие days дней, вместе с владельцем для уведомления.
func (s *Storage) FindTrialsExpiringWithin(ctx context.Context, now time.Time, days int) ([]*models.TrialReminder, error) {
	const op = "storage.FindTrialsExpiringWithin"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT o.id, o.name, u.email, u.display_name, u.preferred_language,
			      GREATEST(0, EXTRACT(DAY FROM o.trial_ends_at - $1)::int)
			  FROM organizations o
			  JOIN memberships m ON m.organization_id = o.id AND m.role = 'owner'
			  JOIN users u ON u.id = m.user_id
			  WHERE o.plan = 'trial'
			    AND o.trial_ends_at >= $1
			    AND o.trial_ends_at < $1 + ($2 || ' days')::interval`
	rows, err := s.DB.QueryContext(ctx, query, now, days)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.TrialReminder
	for rows.Next() {
		var item models.TrialReminder
		if err := rows.Scan(&item.OrganizationID, &item.OrganizationName, &item.OwnerEmail,
			&item.OwnerName, &item.Language, &item.DaysLeft); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
