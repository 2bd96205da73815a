package repository

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/repofy/repofy-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AdviceRepository struct {
	db *gorm.DB
}

func NewAdviceRepository(db *gorm.DB) *AdviceRepository {
	return &AdviceRepository{db: db}
}

// Save upserts the advice for (owner, analyzed username), mirroring the
// report upsert semantics including the missing-index fallback.
func (r *AdviceRepository) Save(ctx context.Context, row *model.AdviceRow) error {
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
			"analyzed_name", "generated_at", "advice_data", "updated_at",
		}),
	}).Create(row).Error
	if err == nil {
		return nil
	}
	if !isMissingConflictTarget(err) {
		return err
	}

	slog.Warn("advice upsert target index missing, falling back to insert and sweep",
		"owner_id", row.OwnerID, "analyzed_username", row.AnalyzedUsername)

	row.ID = uuid.New()
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	sweep := r.db.WithContext(ctx).
		Where("owner_id = ? AND analyzed_username = ? AND id <> ?",
			row.OwnerID, row.AnalyzedUsername, row.ID).
		Delete(&model.AdviceRow{})
	if sweep.Error != nil {
		slog.Error("could not sweep superseded advice",
			"owner_id", row.OwnerID, "analyzed_username", row.AnalyzedUsername, "error", sweep.Error)
	}
	return nil
}

func (r *AdviceRepository) FindByUsername(ctx context.Context, ownerID, username string) (*model.AdviceRow, error) {
	var row model.AdviceRow
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

func (r *AdviceRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]model.AdviceRow, int64, error) {
	var total int64
	base := r.db.WithContext(ctx).Model(&model.AdviceRow{}).Where("owner_id = ?", ownerID)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.AdviceRow
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

func (r *AdviceRepository) DeleteByID(ctx context.Context, ownerID string, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, id).
		Delete(&model.AdviceRow{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
