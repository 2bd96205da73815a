package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/repofy/repofy-backend/internal/dto"
	"github.com/repofy/repofy-backend/internal/middleware"
	"github.com/repofy/repofy-backend/internal/model"
	"github.com/repofy/repofy-backend/internal/repository"
	"github.com/repofy/repofy-backend/internal/response"
	"github.com/repofy/repofy-backend/internal/service"
	"github.com/repofy/repofy-backend/internal/usecase"
	"github.com/repofy/repofy-backend/internal/util"
)

const defaultPageSize = 20

type AnalyzeHandler struct {
	uc *usecase.AnalysisUsecase
}

func NewAnalyzeHandler(uc *usecase.AnalysisUsecase) *AnalyzeHandler {
	return &AnalyzeHandler{uc: uc}
}

func (h *AnalyzeHandler) RegisterRoutes(app *fiber.App, aiLimiter, githubLimiter *middleware.FixedWindowLimiter) {
	app.Post("/analyze", aiLimiter.Handler(), h.Analyze)
	app.Post("/advice", aiLimiter.Handler(), h.Advise)
	app.Post("/compare", aiLimiter.Handler(), h.Compare)
	app.Get("/api/repofy-search", githubLimiter.Handler(), h.Search)

	app.Get("/reports", h.ListReports)
	app.Get("/reports/:username", h.GetReport)
	app.Delete("/reports/:id", h.DeleteReport)
	app.Get("/advice", h.ListAdvice)
	app.Get("/advice/:username", h.GetAdvice)
	app.Delete("/advice/:id", h.DeleteAdvice)
}

func (h *AnalyzeHandler) Analyze(c *fiber.Ctx) error {
	var req dto.AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	token := requestToken(c, req.Token)
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	ownerID, err := h.uc.ResolveOwner(c.Context(), token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	username := req.Username
	if username == "" {
		username = ownerID
	}

	profile, row, err := h.uc.Analyze(c.Context(), ownerID, username, token)
	if err != nil {
		return analysisError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"profile":      profile,
		"analysis":     row.ReportData,
		"report_id":    row.ID,
		"generated_at": row.GeneratedAt,
	})
}

func (h *AnalyzeHandler) Advise(c *fiber.Ctx) error {
	var req dto.AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	token := requestToken(c, req.Token)
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	ownerID, err := h.uc.ResolveOwner(c.Context(), token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	username := req.Username
	if username == "" {
		username = ownerID
	}

	profile, row, err := h.uc.Advise(c.Context(), ownerID, username, token)
	if err != nil {
		return analysisError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"profile":      profile,
		"advice":       row.AdviceData,
		"advice_id":    row.ID,
		"generated_at": row.GeneratedAt,
	})
}

func (h *AnalyzeHandler) Compare(c *fiber.Ctx) error {
	var req dto.CompareRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	token := requestToken(c, req.Token)
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	if req.UsernameA == "" || req.UsernameB == "" {
		fieldErrs := map[string]string{}
		if req.UsernameA == "" {
			fieldErrs["username_a"] = "required"
		}
		if req.UsernameB == "" {
			fieldErrs["username_b"] = "required"
		}
		formErr := util.NewFormError("Both usernames are required", fieldErrs)
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: formErr.Message,
			Details: formErr.Errors,
		})
	}

	result, err := h.uc.Compare(c.Context(), req.UsernameA, req.UsernameB, token)
	if err != nil {
		return analysisError(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Success compare profiles",
		Data:    result,
	})
}

func (h *AnalyzeHandler) Search(c *fiber.Ctx) error {
	username := c.Query("username")
	if username == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Username is required"})
	}
	token := requestToken(c, "")

	summary, err := h.uc.Search(c.Context(), username, token)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "GitHub is unreachable"})
	}
	return c.Status(fiber.StatusOK).JSON(summary)
}

func (h *AnalyzeHandler) ListReports(c *fiber.Ctx) error {
	ownerID, err := h.owner(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := c.QueryInt("page_size", defaultPageSize)
	if pageSize < 1 || pageSize > 100 {
		pageSize = defaultPageSize
	}

	rows, total, err := h.uc.ListReports(c.Context(), ownerID, pageSize, (page-1)*pageSize)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{Message: "failed to list reports"}, err)
	}

	items := make([]dto.ReportResponse, len(rows))
	for i, row := range rows {
		items[i] = reportDTO(&row)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:       fiber.StatusOK,
		Message:    "Success list reports",
		Data:       items,
		Pagination: response.NewPagination(page, pageSize, len(items), total),
		Meta:       fiber.Map{"owner": ownerID},
	})
}

func (h *AnalyzeHandler) GetReport(c *fiber.Ctx) error {
	ownerID, err := h.owner(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	row, err := h.uc.GetReport(c.Context(), ownerID, c.Params("username"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusNotFound,
				Message: "report not found",
			})
		}
		return util.ErrorResponse(c, util.ErrorResponseFormat{Message: "failed to get report"}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Success get report",
		Data:    reportDTO(row),
	})
}

func (h *AnalyzeHandler) DeleteReport(c *fiber.Ctx) error {
	ownerID, err := h.owner(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid report id",
		}, err)
	}

	if err := h.uc.DeleteReport(c.Context(), ownerID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusNotFound,
				Message: "report not found",
			})
		}
		return util.ErrorResponse(c, util.ErrorResponseFormat{Message: "failed to delete report"}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Success delete report",
	})
}

func (h *AnalyzeHandler) ListAdvice(c *fiber.Ctx) error {
	ownerID, err := h.owner(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := c.QueryInt("page_size", defaultPageSize)
	if pageSize < 1 || pageSize > 100 {
		pageSize = defaultPageSize
	}

	rows, total, err := h.uc.ListAdvice(c.Context(), ownerID, pageSize, (page-1)*pageSize)
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{Message: "failed to list advice"}, err)
	}

	items := make([]dto.AdviceResponse, len(rows))
	for i, row := range rows {
		items[i] = adviceDTO(&row)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:       fiber.StatusOK,
		Message:    "Success list advice",
		Data:       items,
		Pagination: response.NewPagination(page, pageSize, len(items), total),
		Meta:       fiber.Map{"owner": ownerID},
	})
}

func (h *AnalyzeHandler) GetAdvice(c *fiber.Ctx) error {
	ownerID, err := h.owner(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	row, err := h.uc.GetAdvice(c.Context(), ownerID, c.Params("username"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusNotFound,
				Message: "advice not found",
			})
		}
		return util.ErrorResponse(c, util.ErrorResponseFormat{Message: "failed to get advice"}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Success get advice",
		Data:    adviceDTO(row),
	})
}

func (h *AnalyzeHandler) DeleteAdvice(c *fiber.Ctx) error {
	ownerID, err := h.owner(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid advice id",
		}, err)
	}

	if err := h.uc.DeleteAdvice(c.Context(), ownerID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusNotFound,
				Message: "advice not found",
			})
		}
		return util.ErrorResponse(c, util.ErrorResponseFormat{Message: "failed to delete advice"}, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Success delete advice",
	})
}

func (h *AnalyzeHandler) owner(c *fiber.Ctx) (string, error) {
	token := requestToken(c, "")
	if token == "" {
		return "", errors.New("missing token")
	}
	return h.uc.ResolveOwner(c.Context(), token)
}

// analysisError maps pipeline failures on the analysis endpoints. Anything
// that is not a missing user is a 500; the model never sees retries.
func analysisError(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrUserNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Analysis failed"})
}

// requestToken prefers the Authorization header over a token in the body.
func requestToken(c *fiber.Ctx, bodyToken string) string {
	auth := c.Get(fiber.HeaderAuthorization)
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok && token != "" {
		return token
	}
	return bodyToken
}

func reportDTO(row *model.ReportRow) dto.ReportResponse {
	return dto.ReportResponse{
		ID:               row.ID,
		AnalyzedUsername: row.AnalyzedUsername,
		AnalyzedName:     row.AnalyzedName,
		GeneratedAt:      row.GeneratedAt,
		Report:           row.ReportData,
	}
}

func adviceDTO(row *model.AdviceRow) dto.AdviceResponse {
	return dto.AdviceResponse{
		ID:               row.ID,
		AnalyzedUsername: row.AnalyzedUsername,
		AnalyzedName:     row.AnalyzedName,
		GeneratedAt:      row.GeneratedAt,
		Advice:           row.AdviceData,
	}
}
