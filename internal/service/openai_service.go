package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/repofy/repofy-backend/internal/config"
	"github.com/repofy/repofy-backend/internal/model"
	openai "github.com/sashabaranov/go-openai"
)

type AIServiceInterface interface {
	GenerateReport(ctx context.Context, bundle *model.EvidenceBundle) (*model.AnalysisReport, error)
	GenerateAdvice(ctx context.Context, bundle *model.EvidenceBundle) (*model.AdviceData, error)
	GenerateComparison(ctx context.Context, bundleA, bundleB *model.EvidenceBundle) (*model.ComparisonResult, error)
}

// OpenAIService produces structured evaluations from evidence bundles.
// Every call demands a strict JSON schema response; output that does not
// satisfy the contract is rejected, never repaired or retried.
type OpenAIService struct {
	client *openai.Client
	model  string
}

func NewOpenAIService() *OpenAIService {
	cfg := config.LoadOpenAIConfig()
	return &OpenAIService{
		client: openai.NewClient(cfg.APIKey),
		model:  cfg.Model,
	}
}

func (s *OpenAIService) GenerateReport(ctx context.Context, bundle *model.EvidenceBundle) (*model.AnalysisReport, error) {
	raw, err := s.complete(ctx, reportSystemPrompt, renderBundle(bundle), "analysis_report", reportSchema)
	if err != nil {
		return nil, err
	}
	return parseReport(raw)
}

func (s *OpenAIService) GenerateAdvice(ctx context.Context, bundle *model.EvidenceBundle) (*model.AdviceData, error) {
	raw, err := s.complete(ctx, adviceSystemPrompt, renderBundle(bundle), "advice_data", adviceSchema)
	if err != nil {
		return nil, err
	}
	return parseAdvice(raw)
}

func (s *OpenAIService) GenerateComparison(ctx context.Context, bundleA, bundleB *model.EvidenceBundle) (*model.ComparisonResult, error) {
	raw, err := s.complete(ctx, comparisonSystemPrompt, renderComparisonBundle(bundleA, bundleB), "comparison_result", comparisonSchema)
	if err != nil {
		return nil, err
	}
	return parseComparison(raw)
}

func (s *OpenAIService) complete(ctx context.Context, systemPrompt, userPrompt, schemaName, schema string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: json.RawMessage(schema),
				Strict: true,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: completion returned no choices", ErrUpstream)
	}
	return resp.Choices[0].Message.Content, nil
}
