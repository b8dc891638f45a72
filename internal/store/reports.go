package store

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/airsage/backend/internal/models"
)

// ErrUserNotFound means no user record exists for the given id.
var ErrUserNotFound = errors.New("user not found")

// ReportQuery filters and limits a report listing. Zero values mean "no
// filter" / "no limit". Results are always newest first.
type ReportQuery struct {
	UserID string
	Status string
	Limit  uint64
}

// ReportStore is the interface to the external record store. Each call is
// one independent remote operation: no transactions span calls and no call
// is retried.
type ReportStore interface {
	InsertReport(ctx context.Context, report *models.Report) (*models.Report, error)
	FetchUserReportIDs(ctx context.Context, userID string) ([]string, error)
	UpdateUserReportIDs(ctx context.Context, userID string, ids []string) error
	QueryReports(ctx context.Context, query ReportQuery) ([]models.Report, error)
}

var reportColumns = []string{
	"id", "user_id", "title", "file_name", "file_path",
	"status", "message", "submitted_at", "updated_at",
}

// PostgresReportStore implements ReportStore over a pgx pool.
type PostgresReportStore struct {
	pool *pgxpool.Pool
	sq   sq.StatementBuilderType
}

func NewPostgresReportStore(pool *pgxpool.Pool) *PostgresReportStore {
	return &PostgresReportStore{
		pool: pool,
		sq:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (s *PostgresReportStore) InsertReport(ctx context.Context, report *models.Report) (*models.Report, error) {
	sqlStr, args, err := s.sq.Insert("reports").
		Columns(reportColumns...).
		Values(report.ID, report.UserID, report.Title, report.FileName, report.FilePath,
			report.Status, report.Message, report.SubmittedAt, report.UpdatedAt).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.pool.Exec(ctx, sqlStr, args...); err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}

	return report, nil
}

func (s *PostgresReportStore) FetchUserReportIDs(ctx context.Context, userID string) ([]string, error) {
	sqlStr, args, err := s.sq.Select("report_ids").
		From("users").
		Where(sq.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var ids []string

	if err := s.pool.QueryRow(ctx, sqlStr, args...).Scan(&ids); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
		}

		return nil, fmt.Errorf("fetch user report ids: %w", err)
	}

	return ids, nil
}

// UpdateUserReportIDs overwrites the user's report-id list. Callers do a
// fetch-append-write sequence with no compare-and-swap, so concurrent
// submissions by the same user can lose an append; the last write wins.
func (s *PostgresReportStore) UpdateUserReportIDs(ctx context.Context, userID string, ids []string) error {
	sqlStr, args, err := s.sq.Update("users").
		Set("report_ids", ids).
		Where(sq.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := s.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("update user report ids: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}

	return nil
}

func (s *PostgresReportStore) QueryReports(ctx context.Context, query ReportQuery) ([]models.Report, error) {
	builder := s.sq.Select(reportColumns...).
		From("reports").
		OrderBy("submitted_at DESC")

	if query.UserID != "" {
		builder = builder.Where(sq.Eq{"user_id": query.UserID})
	}

	if query.Status != "" {
		builder = builder.Where(sq.Eq{"status": query.Status})
	}

	if query.Limit > 0 {
		builder = builder.Limit(query.Limit)
	}

	sqlStr, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var reports []models.Report

	for rows.Next() {
		var r models.Report

		if err := rows.Scan(&r.ID, &r.UserID, &r.Title, &r.FileName, &r.FilePath,
			&r.Status, &r.Message, &r.SubmittedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}

		reports = append(reports, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}

	return reports, nil
}
