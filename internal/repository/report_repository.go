package repository

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/repofy/repofy-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// pgUndefinedConflictTarget is raised when an ON CONFLICT target has no
// matching unique constraint, which happens on databases migrated before
// the (owner_id, analyzed_username) index existed.
const pgUndefinedConflictTarget = "42P10"

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Save upserts the report for (owner, analyzed username). The pair is kept
// unique: a re-analysis replaces the stored report in place. When the
// backing database lacks the unique index the upsert falls back to a fresh
// insert followed by a best-effort sweep of older rows for the same pair.
func (r *ReportRepository) Save(ctx context.Context, row *model.ReportRow) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.AnalyzedUsername = strings.ToLower(row.AnalyzedUsername)
	if row.GeneratedAt.IsZero() {
		row.GeneratedAt = time.Now().UTC()
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "owner_id"}, {Name: "analyzed_username"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"analyzed_name", "generated_at", "report_data", "updated_at",
		}),
	}).Create(row).Error
	if err == nil {
		return nil
	}
	if !isMissingConflictTarget(err) {
		return err
	}

	slog.Warn("upsert target index missing, falling back to insert and sweep",
		"owner_id", row.OwnerID, "analyzed_username", row.AnalyzedUsername)

	row.ID = uuid.New()
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	sweep := r.db.WithContext(ctx).
		Where("owner_id = ? AND analyzed_username = ? AND id <> ?",
			row.OwnerID, row.AnalyzedUsername, row.ID).
		Delete(&model.ReportRow{})
	if sweep.Error != nil {
		slog.Error("could not sweep superseded reports",
			"owner_id", row.OwnerID, "analyzed_username", row.AnalyzedUsername, "error", sweep.Error)
	}
	return nil
}

func (r *ReportRepository) FindByUsername(ctx context.Context, ownerID, username string) (*model.ReportRow, error) {
	var row model.ReportRow
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND analyzed_username = ?", ownerID, strings.ToLower(username)).
		Order("generated_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *ReportRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]model.ReportRow, int64, error) {
	var total int64
	base := r.db.WithContext(ctx).Model(&model.ReportRow{}).Where("owner_id = ?", ownerID)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.ReportRow
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("generated_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *ReportRepository) DeleteByID(ctx context.Context, ownerID string, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, id).
		Delete(&model.ReportRow{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// isMissingConflictTarget reports whether err means the ON CONFLICT clause
// named columns with no backing unique index. Covers Postgres and the
// sqlite driver used in tests.
func isMissingConflictTarget(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUndefinedConflictTarget
	}
	return strings.Contains(err.Error(), "ON CONFLICT clause does not match")
}
