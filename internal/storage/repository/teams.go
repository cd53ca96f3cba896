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

// CreateTeam вставляет новую команду.
func (s *Storage) CreateTeam(ctx context.Context, team models.Team) error {
	const op = "storage.CreateTeam"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO teams (id, organization_id, name) VALUES ($1, $2, $3)`
	_, err := s.DB.ExecContext(ctx, query, team.ID, team.OrganizationID, team.Name)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListTeams возвращает неудалённые команды организации.
func (s *Storage) ListTeams(ctx context.Context, orgID uuid.UUID) ([]*models.Team, error) {
	const op = "storage.ListTeams"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, organization_id, name, created_at
			  FROM teams
			  WHERE organization_id = $1 AND NOT is_deleted
			  ORDER BY name`
	rows, err := s.DB.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Team
	for rows.Next() {
		var item models.Team
		if err := rows.Scan(&item.ID, &item.OrganizationID, &item.Name, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetTeam возвращает команду организации по идентификатору.
func (s *Storage) GetTeam(ctx context.Context, orgID, id uuid.UUID) (*models.Team, error) {
	const op = "storage.GetTeam"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, organization_id, name, created_at
			  FROM teams
			  WHERE id = $1 AND organization_id = $2 AND NOT is_deleted`
	row := s.DB.QueryRowContext(ctx, query, id, orgID)

	var result models.Team
	if err := row.Scan(&result.ID, &result.OrganizationID, &result.Name, &result.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// GetTeamNames возвращает имена команд по набору идентификаторов.
func (s *Storage) GetTeamNames(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	const op = "storage.GetTeamNames"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT id, name FROM teams
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

// UpdateTeam переименовывает команду.
func (s *Storage) UpdateTeam(ctx context.Context, orgID, id uuid.UUID, name string) error {
	const op = "storage.UpdateTeam"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE teams SET name = $1, updated_at = now()
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

// SoftDeleteTeam помечает команду удалённой.
func (s *Storage) SoftDeleteTeam(ctx context.Context, orgID, id uuid.UUID) error {
	const op = "storage.SoftDeleteTeam"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE teams SET is_deleted = true, updated_at = now()
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

// AddTeamAlias добавляет альтернативное имя команды.
func (s *Storage) AddTeamAlias(ctx context.Context, alias models.TeamAlias) error {
	const op = "storage.AddTeamAlias"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO team_aliases (id, organization_id, team_id, quiz_id, alias)
			  VALUES ($1, $2, $3, $4, $5)`
	_, err := s.DB.ExecContext(ctx, query,
		alias.ID, alias.OrganizationID, alias.TeamID, alias.QuizID, alias.Alias)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
