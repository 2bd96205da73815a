package model

// AnalysisReport is the closed record the language model must return for a
// hiring report. Field shapes mirror the JSON schema sent as the request's
// response_format; validation happens in the service layer before anything
// is persisted.
type AnalysisReport struct {
	CandidateLevel              string              `json:"candidate_level"`
	HiringRecommendation        string              `json:"hiring_recommendation"`
	CareerCapitalScore          int                 `json:"career_capital_score"`
	SummaryNarrative            string              `json:"summary_narrative"`
	RadarChart                  RadarChart          `json:"radar_chart"`
	TopReposAnalysis            []RepoVerdict       `json:"top_repos_analysis"`
	KeyStrengths                []string            `json:"key_strengths"`
	Weaknesses                  []string            `json:"weaknesses"`
	RedFlags                    []RedFlag           `json:"red_flags"`
	SuggestedInterviewQuestions []InterviewQuestion `json:"suggested_interview_questions"`
}

// RadarChart holds the six required integer sub-scores.
type RadarChart struct {
	CodeQuality   int `json:"code_quality"`
	ProjectImpact int `json:"project_impact"`
	Consistency   int `json:"consistency"`
	Collaboration int `json:"collaboration"`
	Documentation int `json:"documentation"`
	Breadth       int `json:"breadth"`
}

// RepoVerdict is the per-repository assessment inside a report.
type RepoVerdict struct {
	RepoName   string `json:"repo_name"`
	Grade      string `json:"grade"`
	HasTests   bool   `json:"has_tests"`
	CIStatus   string `json:"ci_status"`
	Assessment string `json:"assessment"`
}

// RedFlag pairs a concern with its severity.
type RedFlag struct {
	Flag     string `json:"flag"`
	Severity string `json:"severity"`
}

// InterviewQuestion is a suggested question with the evidence that motivated it.
type InterviewQuestion struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

// AdviceData is the closed record for career advice.
type AdviceData struct {
	CurrentAssessment   string               `json:"current_assessment"`
	CareerTrajectory    string               `json:"career_trajectory"`
	SkillGaps           []string             `json:"skill_gaps"`
	RecommendedProjects []RecommendedProject `json:"recommended_projects"`
	LearningPath        []LearningStep       `json:"learning_path"`
	Summary             string               `json:"summary"`
}

type RecommendedProject struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Skills      []string `json:"skills"`
}

type LearningStep struct {
	Step     string `json:"step"`
	Resource string `json:"resource"`
}

// ComparisonResult is the closed record for a two-candidate comparison.
// It is returned to the caller but never persisted.
type ComparisonResult struct {
	Summary    string                `json:"summary"`
	Preferred  string                `json:"preferred"`
	Dimensions []ComparisonDimension `json:"dimensions"`
}

type ComparisonDimension struct {
	Dimension string `json:"dimension"`
	ScoreA    int    `json:"score_a"`
	ScoreB    int    `json:"score_b"`
	Rationale string `json:"rationale"`
}
