package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/repofy/repofy-backend/internal/model"
	"github.com/repofy/repofy-backend/internal/repository"
	"github.com/repofy/repofy-backend/internal/service"
	"golang.org/x/sync/errgroup"
)

type ReportStore interface {
	Save(ctx context.Context, row *model.ReportRow) error
	FindByUsername(ctx context.Context, ownerID, username string) (*model.ReportRow, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]model.ReportRow, int64, error)
	DeleteByID(ctx context.Context, ownerID string, id uuid.UUID) error
}

type AdviceStore interface {
	Save(ctx context.Context, row *model.AdviceRow) error
	FindByUsername(ctx context.Context, ownerID, username string) (*model.AdviceRow, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]model.AdviceRow, int64, error)
	DeleteByID(ctx context.Context, ownerID string, id uuid.UUID) error
}

// AnalysisUsecase orchestrates evidence collection, model evaluation, and
// persistence. Reports are stored per (owner, analyzed username); the owner
// is always the account behind the caller's token.
type AnalysisUsecase struct {
	githubSvc  service.GithubServiceInterface
	aiSvc      service.AIServiceInterface
	reportRepo ReportStore
	adviceRepo AdviceStore
}

func NewAnalysisUsecase(githubSvc service.GithubServiceInterface, aiSvc service.AIServiceInterface, reportRepo ReportStore, adviceRepo AdviceStore) *AnalysisUsecase {
	return &AnalysisUsecase{
		githubSvc:  githubSvc,
		aiSvc:      aiSvc,
		reportRepo: reportRepo,
		adviceRepo: adviceRepo,
	}
}

// ResolveOwner maps the caller's token to its GitHub login.
func (u *AnalysisUsecase) ResolveOwner(ctx context.Context, token string) (string, error) {
	return u.githubSvc.ResolveViewer(ctx, token)
}

// Analyze runs the full pipeline for username and persists the report under
// ownerID. The stored row replaces any previous report for the same pair.
// Nothing is persisted when the model output fails validation. The collected
// profile is returned alongside the row so the caller can echo it back.
func (u *AnalysisUsecase) Analyze(ctx context.Context, ownerID, username, token string) (*model.Profile, *model.ReportRow, error) {
	bundle, err := u.githubSvc.Collect(ctx, username, token)
	if err != nil {
		return nil, nil, err
	}

	report, err := u.aiSvc.GenerateReport(ctx, bundle)
	if err != nil {
		return nil, nil, err
	}

	data, err := json.Marshal(report)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal report: %w", err)
	}

	row := &model.ReportRow{
		OwnerID:          ownerID,
		AnalyzedUsername: bundle.Profile.Login,
		AnalyzedName:     bundle.Profile.Name,
		ReportData:       data,
	}
	if err := u.reportRepo.Save(ctx, row); err != nil {
		return nil, nil, fmt.Errorf("persist report: %w", err)
	}
	return &bundle.Profile, row, nil
}

// Advise mirrors Analyze for career advice.
func (u *AnalysisUsecase) Advise(ctx context.Context, ownerID, username, token string) (*model.Profile, *model.AdviceRow, error) {
	bundle, err := u.githubSvc.Collect(ctx, username, token)
	if err != nil {
		return nil, nil, err
	}

	advice, err := u.aiSvc.GenerateAdvice(ctx, bundle)
	if err != nil {
		return nil, nil, err
	}

	data, err := json.Marshal(advice)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal advice: %w", err)
	}

	row := &model.AdviceRow{
		OwnerID:          ownerID,
		AnalyzedUsername: bundle.Profile.Login,
		AnalyzedName:     bundle.Profile.Name,
		AdviceData:       data,
	}
	if err := u.adviceRepo.Save(ctx, row); err != nil {
		return nil, nil, fmt.Errorf("persist advice: %w", err)
	}
	return &bundle.Profile, row, nil
}

// Compare evaluates two profiles head to head. The result is not persisted.
func (u *AnalysisUsecase) Compare(ctx context.Context, usernameA, usernameB, token string) (*model.ComparisonResult, error) {
	var bundleA, bundleB *model.EvidenceBundle

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bundleA, err = u.githubSvc.Collect(gCtx, usernameA, token)
		return err
	})
	g.Go(func() error {
		var err error
		bundleB, err = u.githubSvc.Collect(gCtx, usernameB, token)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return u.aiSvc.GenerateComparison(ctx, bundleA, bundleB)
}

// Search returns the public profile summary for username.
func (u *AnalysisUsecase) Search(ctx context.Context, username, token string) (*model.ProfileSummary, error) {
	return u.githubSvc.Search(ctx, username, token)
}

func (u *AnalysisUsecase) GetReport(ctx context.Context, ownerID, username string) (*model.ReportRow, error) {
	return u.reportRepo.FindByUsername(ctx, ownerID, username)
}

func (u *AnalysisUsecase) ListReports(ctx context.Context, ownerID string, limit, offset int) ([]model.ReportRow, int64, error) {
	return u.reportRepo.ListByOwner(ctx, ownerID, limit, offset)
}

func (u *AnalysisUsecase) DeleteReport(ctx context.Context, ownerID string, id uuid.UUID) error {
	return u.reportRepo.DeleteByID(ctx, ownerID, id)
}

func (u *AnalysisUsecase) GetAdvice(ctx context.Context, ownerID, username string) (*model.AdviceRow, error) {
	return u.adviceRepo.FindByUsername(ctx, ownerID, username)
}

func (u *AnalysisUsecase) ListAdvice(ctx context.Context, ownerID string, limit, offset int) ([]model.AdviceRow, int64, error) {
	return u.adviceRepo.ListByOwner(ctx, ownerID, limit, offset)
}

func (u *AnalysisUsecase) DeleteAdvice(ctx context.Context, ownerID string, id uuid.UUID) error {
	return u.adviceRepo.DeleteByID(ctx, ownerID, id)
}

var _ ReportStore = (*repository.ReportRepository)(nil)
var _ AdviceStore = (*repository.AdviceRepository)(nil)
