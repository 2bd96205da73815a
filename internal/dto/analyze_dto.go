package dto

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AnalyzeRequest struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

type CompareRequest struct {
	UsernameA string `json:"username_a"`
	UsernameB string `json:"username_b"`
	Token     string `json:"token"`
}

type ReportResponse struct {
	ID               uuid.UUID      `json:"id"`
	AnalyzedUsername string         `json:"analyzed_username"`
	AnalyzedName     string         `json:"analyzed_name,omitempty"`
	GeneratedAt      time.Time      `json:"generated_at"`
	Report           datatypes.JSON `json:"report"`
}

type AdviceResponse struct {
	ID               uuid.UUID      `json:"id"`
	AnalyzedUsername string         `json:"analyzed_username"`
	AnalyzedName     string         `json:"analyzed_name,omitempty"`
	GeneratedAt      time.Time      `json:"generated_at"`
	Advice           datatypes.JSON `json:"advice"`
}
