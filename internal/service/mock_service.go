package service

import (
	"context"
	"fmt"

	"github.com/repofy/repofy-backend/internal/model"
)

// MockAIService returns canned evaluations so the rest of the pipeline can
// run without an API key. Enabled with MOCK_AI=true.
type MockAIService struct{}

func NewMockAIService() *MockAIService {
	return &MockAIService{}
}

func (s *MockAIService) GenerateReport(_ context.Context, bundle *model.EvidenceBundle) (*model.AnalysisReport, error) {
	report := &model.AnalysisReport{
		CandidateLevel:       "Mid-Level",
		HiringRecommendation: "Leaning Hire",
		CareerCapitalScore:   62,
		SummaryNarrative:     fmt.Sprintf("Mock evaluation of %s generated without calling a model.", bundle.Profile.Login),
		RadarChart: model.RadarChart{
			CodeQuality:   60,
			ProjectImpact: 55,
			Consistency:   70,
			Collaboration: 50,
			Documentation: 45,
			Breadth:       65,
		},
		KeyStrengths: []string{"Consistent commit activity", "Clear project naming"},
		Weaknesses:   []string{"Sparse documentation across repositories"},
		RedFlags:     []model.RedFlag{},
		SuggestedInterviewQuestions: []model.InterviewQuestion{
			{Question: "Walk me through your most complex repository.", Context: "Probes depth behind surface metrics."},
		},
	}
	for _, repo := range bundle.RepoDetails {
		report.TopReposAnalysis = append(report.TopReposAnalysis, model.RepoVerdict{
			RepoName:   repo.Name,
			Grade:      "B",
			HasTests:   false,
			CIStatus:   "unknown",
			Assessment: "Mock assessment.",
		})
	}
	return report, nil
}

func (s *MockAIService) GenerateAdvice(_ context.Context, bundle *model.EvidenceBundle) (*model.AdviceData, error) {
	return &model.AdviceData{
		CurrentAssessment: fmt.Sprintf("Mock assessment of %s.", bundle.Profile.Login),
		CareerTrajectory:  "On track toward a senior role with broader system design exposure.",
		SkillGaps:         []string{"Distributed systems", "Test discipline"},
		RecommendedProjects: []model.RecommendedProject{
			{Name: "Job queue", Description: "Build a small persistent job queue.", Skills: []string{"Go", "Postgres"}},
		},
		LearningPath: []model.LearningStep{
			{Step: "Read Designing Data-Intensive Applications", Resource: "book"},
		},
		Summary: "Mock advice generated without calling a model.",
	}, nil
}

func (s *MockAIService) GenerateComparison(_ context.Context, bundleA, bundleB *model.EvidenceBundle) (*model.ComparisonResult, error) {
	return &model.ComparisonResult{
		Summary:   fmt.Sprintf("Mock comparison of %s and %s.", bundleA.Profile.Login, bundleB.Profile.Login),
		Preferred: "tie",
		Dimensions: []model.ComparisonDimension{
			{Dimension: "Code quality", ScoreA: 60, ScoreB: 60, Rationale: "Mock scores."},
		},
	}, nil
}
