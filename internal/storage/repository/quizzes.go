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

// CreateQuiz вставляет квиз вместе со связками команд и пустыми строками
// результатов (декартово произведение команд и категорий) в одной
// транзакции.
func (s *Storage) CreateQuiz(ctx context.Context, quiz models.Quiz, teamIDs, categoryIDs []uuid.UUID) error {
	const op = "storage.CreateQuiz"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO quizzes (id, organization_id, name, date, location, status, league_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		quiz.ID, quiz.OrganizationID, quiz.Name, quiz.Date, quiz.Location, quiz.Status, quiz.LeagueID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, teamID := range teamIDs {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO quiz_teams (id, organization_id, quiz_id, team_id)
			 VALUES ($1, $2, $3, $4)`,
			uuid.New(), quiz.OrganizationID, quiz.ID, teamID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		for _, categoryID := range categoryIDs {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO score_entries (id, organization_id, quiz_id, team_id, category_id)
				 VALUES ($1, $2, $3, $4, $5)`,
				uuid.New(), quiz.OrganizationID, quiz.ID, teamID, categoryID)
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListQuizzes возвращает неудалённые квизы организации.
func (s *Storage) ListQuizzes(ctx context.Context, orgID uuid.UUID) ([]*models.Quiz, error) {
	const op = "storage.ListQuizzes"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, organization_id, name, date, location, status, league_id, created_at
			  FROM quizzes
			  WHERE organization_id = $1 AND NOT is_deleted
			  ORDER BY date DESC`
	return s.queryQuizzes(ctx, op, query, orgID)
}

// ListQuizzesByLeague возвращает квизы лиги.
func (s *Storage) ListQuizzesByLeague(ctx context.Context, orgID, leagueID uuid.UUID) ([]*models.Quiz, error) {
	const op = "storage.ListQuizzesByLeague"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, organization_id, name, date, location, status, league_id, created_at
			  FROM quizzes
			  WHERE organization_id = $1 AND league_id = $2 AND NOT is_deleted
			  ORDER BY date DESC`
	return s.queryQuizzes(ctx, op, query, orgID, leagueID)
}

// ListQuizzesForTeam возвращает последние квизы, в которых участвовала команда.
func (s *Storage) ListQuizzesForTeam(ctx context.Context, orgID, teamID uuid.UUID, leagueID *uuid.UUID, limit int) ([]*models.Quiz, error) {
	const op = "storage.ListQuizzesForTeam"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT q.id, q.organization_id, q.name, q.date, q.location, q.status, q.league_id, q.created_at
			  FROM quizzes q
			  JOIN quiz_teams qt ON qt.quiz_id = q.id AND qt.team_id = $2
			  WHERE q.organization_id = $1 AND NOT q.is_deleted
			    AND ($3::uuid IS NULL OR q.league_id = $3)
			  ORDER BY q.date DESC
			  LIMIT $4`
	return s.queryQuizzes(ctx, op, query, orgID, teamID, leagueID, limit)
}

// ListQuizzesFiltered возвращает страницу квизов по фильтрам дат, лиги и
// команды вместе с общим числом строк выборки.
func (s *Storage) ListQuizzesFiltered(ctx context.Context, orgID uuid.UUID, f models.QuizSummaryFilter) ([]*models.Quiz, int, error) {
	const op = "storage.ListQuizzesFiltered"
	select {
	case <-ctx.Done():
		return nil, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	where := `WHERE q.organization_id = $1 AND NOT q.is_deleted
		    AND ($2::timestamptz IS NULL OR q.date >= $2)
		    AND ($3::timestamptz IS NULL OR q.date <= $3)
		    AND ($4::uuid IS NULL OR q.league_id = $4)
		    AND ($5::uuid IS NULL OR EXISTS (
		        SELECT 1 FROM quiz_teams qt
		        WHERE qt.quiz_id = q.id AND qt.team_id = $5))`

	var total int
	countQuery := `SELECT COUNT(*) FROM quizzes q ` + where
	if err := s.DB.QueryRowContext(ctx, countQuery,
		orgID, f.From, f.To, f.LeagueID, f.TeamID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	query := `SELECT q.id, q.organization_id, q.name, q.date, q.location, q.status, q.league_id, q.created_at
			  FROM quizzes q ` + where + `
			  ORDER BY q.date DESC
			  LIMIT $6 OFFSET $7`
	items, err := s.queryQuizzes(ctx, op, query,
		orgID, f.From, f.To, f.LeagueID, f.TeamID, f.PageSize, (f.Page-1)*f.PageSize)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Storage) queryQuizzes(ctx context.Context, op, query string, args ...any) ([]*models.Quiz, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Quiz
	for rows.Next() {
		var item models.Quiz
		if err := rows.Scan(&item.ID, &item.OrganizationID, &item.Name, &item.Date,
			&item.Location, &item.Status, &item.LeagueID, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetQuiz возвращает квиз организации по идентификатору.
func (s *Storage) GetQuiz(ctx context.Context, orgID, id uuid.UUID) (*models.Quiz, error) {
	const op = "storage.GetQuiz"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, organization_id, name, date, location, status, league_id, created_at
			  FROM quizzes
			  WHERE id = $1 AND organization_id = $2 AND NOT is_deleted`
	row := s.DB.QueryRowContext(ctx, query, id, orgID)

	var result models.Quiz
	if err := row.Scan(&result.ID, &result.OrganizationID, &result.Name, &result.Date,
		&result.Location, &result.Status, &result.LeagueID, &result.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// CountQuizzesCreatedSince подсчитывает неудалённые квизы организации,
// созданные начиная с заданного момента.
func (s *Storage) CountQuizzesCreatedSince(ctx context.Context, orgID uuid.UUID, since time.Time) (int, error) {
	const op = "storage.CountQuizzesCreatedSince"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var count int
	query := `SELECT COUNT(*) FROM quizzes
			  WHERE organization_id = $1 AND NOT is_deleted AND created_at >= $2`
	if err := s.DB.QueryRowContext(ctx, query, orgID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// ListQuizTeamIDs возвращает команды, зарегистрированные в квизе.
func (s *Storage) ListQuizTeamIDs(ctx context.Context, orgID, quizID uuid.UUID) ([]uuid.UUID, error) {
	const op = "storage.ListQuizTeamIDs"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT team_id FROM quiz_teams
			  WHERE organization_id = $1 AND quiz_id = $2`
	rows, err := s.DB.QueryContext(ctx, query, orgID, quizID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []uuid.UUID
	for rows.Next() {
		var teamID uuid.UUID
		if err := rows.Scan(&teamID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, teamID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListScoreEntries возвращает все строки результатов квиза.
func (s *Storage) ListScoreEntries(ctx context.Context, orgID, quizID uuid.UUID) ([]*models.ScoreEntry, error) {
	const op = "storage.ListScoreEntries"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, organization_id, quiz_id, team_id, category_id, points, bonus_points, notes, is_locked
			  FROM score_entries
			  WHERE organization_id = $1 AND quiz_id = $2`
	rows, err := s.DB.QueryContext(ctx, query, orgID, quizID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.ScoreEntry
	for rows.Next() {
		var item models.ScoreEntry
		if err := rows.Scan(&item.ID, &item.OrganizationID, &item.QuizID, &item.TeamID,
			&item.CategoryID, &item.Points, &item.BonusPoints, &item.Notes, &item.IsLocked); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetScoreEntry возвращает строку результата по составному ключу.
func (s *Storage) GetScoreEntry(ctx context.Context, orgID, quizID, teamID, categoryID uuid.UUID) (*models.ScoreEntry, error) {
	const op = "storage.GetScoreEntry"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, organization_id, quiz_id, team_id, category_id, points, bonus_points, notes, is_locked
			  FROM score_entries
			  WHERE organization_id = $1 AND quiz_id = $2 AND team_id = $3 AND category_id = $4`
	row := s.DB.QueryRowContext(ctx, query, orgID, quizID, teamID, categoryID)

	var result models.ScoreEntry
	if err := row.Scan(&result.ID, &result.OrganizationID, &result.QuizID, &result.TeamID,
		&result.CategoryID, &result.Points, &result.BonusPoints, &result.Notes, &result.IsLocked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// UpdateScoreEntry обновляет очки строки результата. Заблокированные строки
// не изменяются на уровне запроса.
func (s *Storage) UpdateScoreEntry(ctx context.Context, entry models.ScoreEntry) (int, error) {
	const op = "storage.UpdateScoreEntry"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE score_entries
			  SET points = $1, bonus_points = $2, notes = $3, is_locked = $4, updated_at = now()
			  WHERE id = $5 AND organization_id = $6 AND NOT is_locked`
	result, err := s.DB.ExecContext(ctx, query,
		entry.Points, entry.BonusPoints, entry.Notes, entry.IsLocked, entry.ID, entry.OrganizationID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// HelpUsageExists проверяет, применяла ли команда данный тип подсказки в квизе.
func (s *Storage) HelpUsageExists(ctx context.Context, orgID, quizID, teamID, helpTypeID uuid.UUID) (bool, error) {
	const op = "storage.HelpUsageExists"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var exists bool
	query := `SELECT EXISTS (
			      SELECT 1 FROM help_usages
			      WHERE organization_id = $1 AND quiz_id = $2 AND team_id = $3 AND help_type_id = $4
			  )`
	if err := s.DB.QueryRowContext(ctx, query, orgID, quizID, teamID, helpTypeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// CreateHelpUsage вставляет факт применения подсказки.
func (s *Storage) CreateHelpUsage(ctx context.Context, usage models.HelpUsage) error {
	const op = "storage.CreateHelpUsage"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO help_usages (id, organization_id, quiz_id, team_id, help_type_id)
			  VALUES ($1, $2, $3, $4, $5)`
	_, err := s.DB.ExecContext(ctx, query,
		usage.ID, usage.OrganizationID, usage.QuizID, usage.TeamID, usage.HelpTypeID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListTeamCategoryAverages считает средний результат команды по категориям
// за все неудалённые квизы, в которых она участвовала.
func (s *Storage) ListTeamCategoryAverages(ctx context.Context, orgID, teamID uuid.UUID) ([]models.CategoryAverage, error) {
	const op = "storage.ListTeamCategoryAverages"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT se.category_id, c.name,
				     AVG(se.points + se.bonus_points)::float8, COUNT(*)
			  FROM score_entries se
			  JOIN categories c ON c.id = se.category_id
			  JOIN quizzes q ON q.id = se.quiz_id AND NOT q.is_deleted
			  WHERE se.organization_id = $1 AND se.team_id = $2
			  GROUP BY se.category_id, c.name
			  ORDER BY c.name`
	rows, err := s.DB.QueryContext(ctx, query, orgID, teamID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.CategoryAverage
	for rows.Next() {
		var item models.CategoryAverage
		if err := rows.Scan(&item.CategoryID, &item.CategoryName, &item.AveragePoints, &item.Quizzes); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListDoubleScoreTeams возвращает уникальные команды квиза, применившие
// подсказку с поведением double_score.
func (s *Storage) ListDoubleScoreTeams(ctx context.Context, orgID, quizID uuid.UUID) ([]uuid.UUID, error) {
	const op = "storage.ListDoubleScoreTeams"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT DISTINCT u.team_id
			  FROM help_usages u
			  JOIN help_types h ON h.id = u.help_type_id
			  WHERE u.organization_id = $1 AND u.quiz_id = $2 AND h.behavior = 'double_score'`
	rows, err := s.DB.QueryContext(ctx, query, orgID, quizID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []uuid.UUID
	for rows.Next() {
		var teamID uuid.UUID
		if err := rows.Scan(&teamID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, teamID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
