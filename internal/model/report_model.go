package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ReportRow is one persisted hiring report. At most one current row should
// exist per (owner_id, analyzed_username); the partial unique index that
// enforces this is created by a migration and may be absent.
type ReportRow struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID          string         `gorm:"type:varchar(100);index" json:"owner_id"`
	AnalyzedUsername string         `gorm:"type:varchar(100);index" json:"analyzed_username"`
	AnalyzedName     string         `gorm:"type:varchar(200)" json:"analyzed_name"`
	GeneratedAt      time.Time      `json:"generated_at"`
	ReportData       datatypes.JSON `gorm:"type:jsonb" json:"report_data"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func (ReportRow) TableName() string {
	return "reports"
}

// AdviceRow mirrors ReportRow for career advice payloads.
type AdviceRow struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID          string         `gorm:"type:varchar(100);index" json:"owner_id"`
	AnalyzedUsername string         `gorm:"type:varchar(100);index" json:"analyzed_username"`
	AnalyzedName     string         `gorm:"type:varchar(200)" json:"analyzed_name"`
	GeneratedAt      time.Time      `json:"generated_at"`
	AdviceData       datatypes.JSON `gorm:"type:jsonb" json:"advice_data"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func (AdviceRow) TableName() string {
	return "advice"
}
