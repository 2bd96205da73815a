package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/repofy/repofy-backend/internal/middleware"
	"github.com/repofy/repofy-backend/internal/model"
	"github.com/repofy/repofy-backend/internal/repository"
	"github.com/repofy/repofy-backend/internal/service"
	"github.com/repofy/repofy-backend/internal/usecase"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type stubGithub struct{}

func (s *stubGithub) Collect(_ context.Context, username, _ string) (*model.EvidenceBundle, error) {
	switch username {
	case "ghost":
		return nil, service.ErrUserNotFound
	case "flaky":
		return nil, fmt.Errorf("%w: 503", service.ErrUpstream)
	}
	return &model.EvidenceBundle{Profile: model.Profile{Login: username}}, nil
}

func (s *stubGithub) Search(_ context.Context, username, _ string) (*model.ProfileSummary, error) {
	switch username {
	case "ghost":
		return nil, service.ErrUserNotFound
	case "flaky":
		return nil, fmt.Errorf("%w: 503", service.ErrUpstream)
	}
	return &model.ProfileSummary{Login: username}, nil
}

func (s *stubGithub) ResolveViewer(_ context.Context, token string) (string, error) {
	if token == "bad" {
		return "", fmt.Errorf("%w: bad credential", service.ErrUpstream)
	}
	return "viewer", nil
}

func newTestApp(t *testing.T, aiMax int) *fiber.App {
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

	uc := usecase.NewAnalysisUsecase(
		&stubGithub{},
		service.NewMockAIService(),
		repository.NewReportRepository(db),
		repository.NewAdviceRepository(db),
	)

	app := fiber.New()
	h := NewAnalyzeHandler(uc)
	h.RegisterRoutes(app,
		middleware.NewFixedWindowLimiter(aiMax, time.Minute),
		middleware.NewFixedWindowLimiter(30, time.Minute),
	)
	return app
}

func TestAnalyzeWithoutTokenIsUnauthorized(t *testing.T) {
	app := newTestApp(t, 5)

	req := httptest.NewRequest("POST", "/analyze", strings.NewReader(`{"username":"octocat"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if want := `{"error":"Unauthorized"}`; string(body) != want {
		t.Errorf("body = %s, want %s", body, want)
	}
}

func TestAnalyzeUnknownUserIsNotFound(t *testing.T) {
	app := newTestApp(t, 5)

	req := httptest.NewRequest("POST", "/analyze", strings.NewReader(`{"username":"ghost"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer good-token")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if want := `{"error":"User not found"}`; string(body) != want {
		t.Errorf("body = %s, want %s", body, want)
	}
}

func TestAnalyzeUpstreamFailureIsServerError(t *testing.T) {
	app := newTestApp(t, 5)

	req := httptest.NewRequest("POST", "/analyze", strings.NewReader(`{"username":"flaky"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer good-token")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
}

func TestAnalyzeReturnsReport(t *testing.T) {
	app := newTestApp(t, 5)

	req := httptest.NewRequest("POST", "/analyze", strings.NewReader(`{"username":"octocat"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer good-token")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Profile struct {
			Login string `json:"login"`
		} `json:"profile"`
		Analysis json.RawMessage `json:"analysis"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Profile.Login != "octocat" {
		t.Errorf("profile.login = %q", body.Profile.Login)
	}
	if len(body.Analysis) == 0 {
		t.Error("response is missing the analysis payload")
	}
}

func TestAnalyzeDefaultsToTokenOwner(t *testing.T) {
	app := newTestApp(t, 5)

	req := httptest.NewRequest("POST", "/analyze", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer good-token")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Profile struct {
			Login string `json:"login"`
		} `json:"profile"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Profile.Login != "viewer" {
		t.Errorf("profile.login = %q, want the token owner", body.Profile.Login)
	}
}

func TestAnalyzeRateLimited(t *testing.T) {
	app := newTestApp(t, 2)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/analyze", strings.NewReader(`{"username":"octocat"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer good-token")
		resp, err := app.Test(req)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, resp.StatusCode)
		}
	}

	req := httptest.NewRequest("POST", "/analyze", strings.NewReader(`{"username":"octocat"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer good-token")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}
}

func TestCompareMissingUsernameReturnsFieldErrors(t *testing.T) {
	app := newTestApp(t, 5)

	req := httptest.NewRequest("POST", "/compare", strings.NewReader(`{"username_a":"octocat"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer good-token")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	var body struct {
		Success bool              `json:"success"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Success {
		t.Error("success should be false")
	}
	if body.Details["username_b"] != "required" {
		t.Errorf("details = %v, want username_b marked required", body.Details)
	}
	if _, ok := body.Details["username_a"]; ok {
		t.Error("username_a was provided and should not be flagged")
	}
}

func TestSearchRequiresUsername(t *testing.T) {
	app := newTestApp(t, 5)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/repofy-search", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSearchUnknownUser(t *testing.T) {
	app := newTestApp(t, 5)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/repofy-search?username=ghost", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if want := `{"error":"User not found"}`; string(body) != want {
		t.Errorf("body = %s, want %s", body, want)
	}
}

func TestSearchUpstreamFailureIsBadGateway(t *testing.T) {
	app := newTestApp(t, 5)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/repofy-search?username=flaky", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
}

func TestSearchReturnsProfile(t *testing.T) {
	app := newTestApp(t, 5)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/repofy-search?username=octocat", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var summary model.ProfileSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatal(err)
	}
	if summary.Login != "octocat" {
		t.Errorf("login = %q", summary.Login)
	}
}

func TestHistoryRequiresToken(t *testing.T) {
	app := newTestApp(t, 5)

	resp, err := app.Test(httptest.NewRequest("GET", "/reports", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestHistoryListsOwnReports(t *testing.T) {
	app := newTestApp(t, 5)

	req := httptest.NewRequest("POST", "/analyze", strings.NewReader(`{"username":"octocat"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer good-token")
	if resp, _ := app.Test(req); resp.StatusCode != fiber.StatusOK {
		t.Fatal("analyze setup failed")
	}

	req = httptest.NewRequest("GET", "/reports", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Success bool `json:"success"`
		Meta    struct {
			Owner string `json:"owner"`
		} `json:"meta"`
		Pagination struct {
			TotalItems int64 `json:"total_items"`
		} `json:"pagination"`
		Data []struct {
			AnalyzedUsername string `json:"analyzed_username"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if !body.Success {
		t.Error("success should be true")
	}
	if body.Meta.Owner != "viewer" {
		t.Errorf("meta.owner = %q, want the resolved token owner", body.Meta.Owner)
	}
	if body.Pagination.TotalItems != 1 || len(body.Data) != 1 {
		t.Fatalf("total = %d, rows = %d, want 1 and 1", body.Pagination.TotalItems, len(body.Data))
	}
	if body.Data[0].AnalyzedUsername != "octocat" {
		t.Errorf("listed username = %q", body.Data[0].AnalyzedUsername)
	}
}
