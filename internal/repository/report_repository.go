package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"leilao-insights/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

var ErrReportNotFound = errors.New("report not found")

// DB is the subset of pgxpool.Pool the repositories use.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const reportsTable = "reports"

var reportColumns = []string{"id", "session_id", "listing_url", "analysis", "created_at"}

const createReportsTable = `
CREATE TABLE IF NOT EXISTS reports (
	id          UUID PRIMARY KEY,
	session_id  UUID NOT NULL,
	listing_url TEXT NOT NULL,
	analysis    JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS reports_created_at_idx ON reports (created_at DESC);
`

// ReportRepository archives finished analyses. The record is stored as JSONB.
type ReportRepository struct {
	db     DB
	logger *zap.Logger
}

func NewReportRepository(db DB, logger *zap.Logger) *ReportRepository {
	return &ReportRepository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates the reports table when it does not exist.
func (r *ReportRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, createReportsTable); err != nil {
		return fmt.Errorf("failed to migrate reports table: %w", err)
	}
	r.logger.Info("Reports table ready")
	return nil
}

func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	analysis, err := json.Marshal(report.Analysis)
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}

	query := squirrel.Insert(reportsTable).
		Columns(reportColumns...).
		Values(report.ID, report.SessionID, report.ListingURL, analysis, report.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	query := squirrel.Select(reportColumns...).
		From(reportsTable).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	report, err := scanReport(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

// List returns archived reports, newest first.
func (r *ReportRepository) List(ctx context.Context, limit, offset int) ([]*models.Report, error) {
	query := squirrel.Select(reportColumns...).
		From(reportsTable).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	reports := []*models.Report{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

func scanReport(row pgx.Row) (*models.Report, error) {
	var report models.Report
	var analysis []byte
	if err := row.Scan(&report.ID, &report.SessionID, &report.ListingURL, &analysis, &report.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(analysis, &report.Analysis); err != nil {
		return nil, fmt.Errorf("failed to decode analysis of report %s: %w", report.ID, err)
	}
	return &report, nil
}
