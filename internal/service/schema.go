package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/repofy/repofy-backend/internal/model"
)

// Enum vocabularies enforced on model output. The schema constrains the
// model; validation re-checks here so a schema drift cannot leak through.
var (
	candidateLevels = []string{"Junior", "Mid-Level", "Senior", "Staff+"}
	hiringVerdicts  = []string{"Strong Hire", "Hire", "Leaning Hire", "Leaning No Hire", "No Hire"}
	repoGrades      = []string{"A", "B", "C", "D", "F"}
	ciStatuses      = []string{"present", "absent", "unknown"}
	flagSeverities  = []string{"Minor", "Notable", "Critical"}
	preferredValues = []string{"A", "B", "tie"}
)

const reportSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["candidate_level", "hiring_recommendation", "career_capital_score", "summary_narrative", "radar_chart", "top_repos_analysis", "key_strengths", "weaknesses", "red_flags", "suggested_interview_questions"],
  "properties": {
    "candidate_level": {"type": "string", "enum": ["Junior", "Mid-Level", "Senior", "Staff+"]},
    "hiring_recommendation": {"type": "string", "enum": ["Strong Hire", "Hire", "Leaning Hire", "Leaning No Hire", "No Hire"]},
    "career_capital_score": {"type": "integer"},
    "summary_narrative": {"type": "string"},
    "radar_chart": {
      "type": "object",
      "additionalProperties": false,
      "required": ["code_quality", "project_impact", "consistency", "collaboration", "documentation", "breadth"],
      "properties": {
        "code_quality": {"type": "integer"},
        "project_impact": {"type": "integer"},
        "consistency": {"type": "integer"},
        "collaboration": {"type": "integer"},
        "documentation": {"type": "integer"},
        "breadth": {"type": "integer"}
      }
    },
    "top_repos_analysis": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["repo_name", "grade", "has_tests", "ci_status", "assessment"],
        "properties": {
          "repo_name": {"type": "string"},
          "grade": {"type": "string", "enum": ["A", "B", "C", "D", "F"]},
          "has_tests": {"type": "boolean"},
          "ci_status": {"type": "string", "enum": ["present", "absent", "unknown"]},
          "assessment": {"type": "string"}
        }
      }
    },
    "key_strengths": {"type": "array", "items": {"type": "string"}},
    "weaknesses": {"type": "array", "items": {"type": "string"}},
    "red_flags": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["flag", "severity"],
        "properties": {
          "flag": {"type": "string"},
          "severity": {"type": "string", "enum": ["Minor", "Notable", "Critical"]}
        }
      }
    },
    "suggested_interview_questions": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["question", "context"],
        "properties": {
          "question": {"type": "string"},
          "context": {"type": "string"}
        }
      }
    }
  }
}`

const adviceSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["current_assessment", "career_trajectory", "skill_gaps", "recommended_projects", "learning_path", "summary"],
  "properties": {
    "current_assessment": {"type": "string"},
    "career_trajectory": {"type": "string"},
    "skill_gaps": {"type": "array", "items": {"type": "string"}},
    "recommended_projects": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["name", "description", "skills"],
        "properties": {
          "name": {"type": "string"},
          "description": {"type": "string"},
          "skills": {"type": "array", "items": {"type": "string"}}
        }
      }
    },
    "learning_path": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["step", "resource"],
        "properties": {
          "step": {"type": "string"},
          "resource": {"type": "string"}
        }
      }
    },
    "summary": {"type": "string"}
  }
}`

const comparisonSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["summary", "preferred", "dimensions"],
  "properties": {
    "summary": {"type": "string"},
    "preferred": {"type": "string", "enum": ["A", "B", "tie"]},
    "dimensions": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["dimension", "score_a", "score_b", "rationale"],
        "properties": {
          "dimension": {"type": "string"},
          "score_a": {"type": "integer"},
          "score_b": {"type": "integer"},
          "rationale": {"type": "string"}
        }
      }
    }
  }
}`

// stripCodeFence removes a leading ```json (or bare ```) fence and the
// trailing fence when a model wraps its output despite the response format.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func enumMember(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

// Required keys per schema. Presence is checked explicitly because a missing
// key decodes to a zero value, which would otherwise be accepted.
var (
	reportRequiredKeys = []string{
		"candidate_level", "hiring_recommendation", "career_capital_score",
		"summary_narrative", "radar_chart", "top_repos_analysis",
		"key_strengths", "weaknesses", "red_flags",
		"suggested_interview_questions",
	}
	radarRequiredKeys = []string{
		"code_quality", "project_impact", "consistency", "collaboration",
		"documentation", "breadth",
	}
	adviceRequiredKeys = []string{
		"current_assessment", "career_trajectory", "skill_gaps",
		"recommended_projects", "learning_path", "summary",
	}
	comparisonRequiredKeys = []string{"summary", "preferred", "dimensions"}
)

// requireKeys parses raw as a JSON object and confirms every key in keys is
// present, returning the raw fields for nested checks.
func requireKeys(raw string, keys []string) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	for _, k := range keys {
		if _, ok := fields[k]; !ok {
			return nil, fmt.Errorf("%w: missing required key %q", ErrSchemaViolation, k)
		}
	}
	return fields, nil
}

// parseReport decodes and validates a raw model response. Any deviation
// from the contract fails closed with ErrSchemaViolation.
func parseReport(raw string) (*model.AnalysisReport, error) {
	clean := stripCodeFence(raw)
	fields, err := requireKeys(clean, reportRequiredKeys)
	if err != nil {
		return nil, err
	}
	if _, err := requireKeys(string(fields["radar_chart"]), radarRequiredKeys); err != nil {
		return nil, err
	}

	var report model.AnalysisReport
	if err := decodeStrict(clean, &report); err != nil {
		return nil, err
	}
	if !enumMember(report.CandidateLevel, candidateLevels) {
		return nil, fmt.Errorf("%w: candidate_level %q not allowed", ErrSchemaViolation, report.CandidateLevel)
	}
	if !enumMember(report.HiringRecommendation, hiringVerdicts) {
		return nil, fmt.Errorf("%w: hiring_recommendation %q not allowed", ErrSchemaViolation, report.HiringRecommendation)
	}
	for _, repo := range report.TopReposAnalysis {
		if !enumMember(repo.Grade, repoGrades) {
			return nil, fmt.Errorf("%w: grade %q not allowed", ErrSchemaViolation, repo.Grade)
		}
		if !enumMember(repo.CIStatus, ciStatuses) {
			return nil, fmt.Errorf("%w: ci_status %q not allowed", ErrSchemaViolation, repo.CIStatus)
		}
	}
	for _, flag := range report.RedFlags {
		if !enumMember(flag.Severity, flagSeverities) {
			return nil, fmt.Errorf("%w: severity %q not allowed", ErrSchemaViolation, flag.Severity)
		}
	}
	return &report, nil
}

func parseAdvice(raw string) (*model.AdviceData, error) {
	clean := stripCodeFence(raw)
	if _, err := requireKeys(clean, adviceRequiredKeys); err != nil {
		return nil, err
	}

	var advice model.AdviceData
	if err := decodeStrict(clean, &advice); err != nil {
		return nil, err
	}
	return &advice, nil
}

func parseComparison(raw string) (*model.ComparisonResult, error) {
	clean := stripCodeFence(raw)
	if _, err := requireKeys(clean, comparisonRequiredKeys); err != nil {
		return nil, err
	}

	var result model.ComparisonResult
	if err := decodeStrict(clean, &result); err != nil {
		return nil, err
	}
	if !enumMember(result.Preferred, preferredValues) {
		return nil, fmt.Errorf("%w: preferred %q not allowed", ErrSchemaViolation, result.Preferred)
	}
	return &result, nil
}

func decodeStrict(raw string, dest any) error {
	dec := json.NewDecoder(strings.NewReader(stripCodeFence(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	return nil
}
