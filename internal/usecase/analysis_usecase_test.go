package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/repofy/repofy-backend/internal/model"
	"github.com/repofy/repofy-backend/internal/repository"
	"github.com/repofy/repofy-backend/internal/service"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeGithub struct {
	bundles map[string]*model.EvidenceBundle
	viewer  string
}

func (f *fakeGithub) Collect(_ context.Context, username, _ string) (*model.EvidenceBundle, error) {
	bundle, ok := f.bundles[username]
	if !ok {
		return nil, service.ErrUserNotFound
	}
	return bundle, nil
}

func (f *fakeGithub) Search(_ context.Context, username, _ string) (*model.ProfileSummary, error) {
	bundle, ok := f.bundles[username]
	if !ok {
		return nil, service.ErrUserNotFound
	}
	return &model.ProfileSummary{Login: bundle.Profile.Login}, nil
}

func (f *fakeGithub) ResolveViewer(_ context.Context, token string) (string, error) {
	if token == "" {
		return "", service.ErrUpstream
	}
	return f.viewer, nil
}

type fakeAI struct {
	reportErr error
}

func (f *fakeAI) GenerateReport(_ context.Context, bundle *model.EvidenceBundle) (*model.AnalysisReport, error) {
	if f.reportErr != nil {
		return nil, f.reportErr
	}
	return &model.AnalysisReport{
		CandidateLevel:       "Senior",
		HiringRecommendation: "Hire",
		SummaryNarrative:     "report for " + bundle.Profile.Login,
	}, nil
}

func (f *fakeAI) GenerateAdvice(_ context.Context, bundle *model.EvidenceBundle) (*model.AdviceData, error) {
	return &model.AdviceData{
		CurrentAssessment: "assessment for " + bundle.Profile.Login,
		Summary:           "keep going",
	}, nil
}

func (f *fakeAI) GenerateComparison(_ context.Context, a, b *model.EvidenceBundle) (*model.ComparisonResult, error) {
	return &model.ComparisonResult{
		Summary:   fmt.Sprintf("%s vs %s", a.Profile.Login, b.Profile.Login),
		Preferred: "tie",
	}, nil
}

func bundleFor(login string) *model.EvidenceBundle {
	return &model.EvidenceBundle{Profile: model.Profile{Login: login, Name: "Name of " + login}}
}

func newTestUsecase(t *testing.T, ai service.AIServiceInterface) (*AnalysisUsecase, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&model.ReportRow{}, &model.AdviceRow{}); err != nil {
		t.Fatal(err)
	}
	if err := db.Exec("CREATE UNIQUE INDEX idx_reports_owner_username ON reports (owner_id, analyzed_username)").Error; err != nil {
		t.Fatal(err)
	}

	gh := &fakeGithub{
		viewer: "viewer",
		bundles: map[string]*model.EvidenceBundle{
			"octocat": bundleFor("octocat"),
			"hubot":   bundleFor("hubot"),
		},
	}
	return NewAnalysisUsecase(gh, ai, repository.NewReportRepository(db), repository.NewAdviceRepository(db)), db
}

func TestAnalyzePersistsReport(t *testing.T) {
	uc, db := newTestUsecase(t, &fakeAI{})
	ctx := context.Background()

	profile, row, err := uc.Analyze(ctx, "viewer", "octocat", "token")
	if err != nil {
		t.Fatal(err)
	}
	if profile.Login != "octocat" {
		t.Errorf("profile login = %q", profile.Login)
	}
	if row.AnalyzedUsername != "octocat" {
		t.Errorf("analyzed_username = %q", row.AnalyzedUsername)
	}
	if row.AnalyzedName != "Name of octocat" {
		t.Errorf("analyzed_name = %q", row.AnalyzedName)
	}

	var n int64
	if err := db.Model(&model.ReportRow{}).Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("stored rows = %d, want 1", n)
	}

	stored, err := uc.GetReport(ctx, "viewer", "octocat")
	if err != nil {
		t.Fatal(err)
	}
	if len(stored.ReportData) == 0 {
		t.Error("stored report payload is empty")
	}
}

func TestAnalyzeUnknownUser(t *testing.T) {
	uc, _ := newTestUsecase(t, &fakeAI{})

	_, _, err := uc.Analyze(context.Background(), "viewer", "ghost", "token")
	if !errors.Is(err, service.ErrUserNotFound) {
		t.Errorf("got %v, want ErrUserNotFound", err)
	}
}

func TestAnalyzeSchemaViolationPersistsNothing(t *testing.T) {
	uc, db := newTestUsecase(t, &fakeAI{
		reportErr: fmt.Errorf("%w: bad enum", service.ErrSchemaViolation),
	})

	_, _, err := uc.Analyze(context.Background(), "viewer", "octocat", "token")
	if !errors.Is(err, service.ErrSchemaViolation) {
		t.Fatalf("got %v, want ErrSchemaViolation", err)
	}

	var n int64
	if err := db.Model(&model.ReportRow{}).Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("stored rows = %d, want none after a rejected response", n)
	}
}

func TestAdvisePersistsAdvice(t *testing.T) {
	uc, db := newTestUsecase(t, &fakeAI{})

	_, row, err := uc.Advise(context.Background(), "viewer", "octocat", "token")
	if err != nil {
		t.Fatal(err)
	}
	if row.AnalyzedUsername != "octocat" {
		t.Errorf("analyzed_username = %q", row.AnalyzedUsername)
	}

	var n int64
	if err := db.Model(&model.AdviceRow{}).Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("stored advice rows = %d, want 1", n)
	}
}

func TestCompareDoesNotPersist(t *testing.T) {
	uc, db := newTestUsecase(t, &fakeAI{})

	result, err := uc.Compare(context.Background(), "octocat", "hubot", "token")
	if err != nil {
		t.Fatal(err)
	}
	if result.Summary != "octocat vs hubot" {
		t.Errorf("summary = %q", result.Summary)
	}

	var n int64
	if err := db.Model(&model.ReportRow{}).Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("compare stored %d rows, want none", n)
	}
}

func TestCompareUnknownUser(t *testing.T) {
	uc, _ := newTestUsecase(t, &fakeAI{})

	_, err := uc.Compare(context.Background(), "octocat", "ghost", "token")
	if !errors.Is(err, service.ErrUserNotFound) {
		t.Errorf("got %v, want ErrUserNotFound", err)
	}
}

func TestDeleteReportScopedToOwner(t *testing.T) {
	uc, _ := newTestUsecase(t, &fakeAI{})
	ctx := context.Background()

	_, row, err := uc.Analyze(ctx, "viewer", "octocat", "token")
	if err != nil {
		t.Fatal(err)
	}

	if err := uc.DeleteReport(ctx, "someone-else", row.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("cross-owner delete: got %v, want ErrNotFound", err)
	}
	if err := uc.DeleteReport(ctx, "viewer", row.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := uc.GetReport(ctx, "viewer", "octocat"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("report should be gone, got %v", err)
	}
}
