package service

import (
	"fmt"
	"strings"

	"github.com/repofy/repofy-backend/internal/model"
	"github.com/repofy/repofy-backend/internal/textutil"
)

const maxBundleChars = 24000

const reportSystemPrompt = `You are a senior engineering manager reviewing a GitHub profile for a hiring decision.
Judge only the evidence provided. Do not speculate about work you cannot see.
Grade harshly but fairly: an empty README, no tests, and no CI are real signals.
Score career_capital_score and every radar_chart dimension from 0 to 100.
Respond with a single JSON object matching the required schema and nothing else.`

const adviceSystemPrompt = `You are a career coach for software engineers.
Given the GitHub evidence below, assess where this engineer is today and lay out
a concrete path forward: skill gaps, projects worth building, and learning steps.
Be specific to the evidence, not generic. Respond with a single JSON object
matching the required schema and nothing else.`

const comparisonSystemPrompt = `You are a senior engineering manager comparing two GitHub profiles,
candidate A and candidate B, for the same role. Score each comparison dimension
from 0 to 100 for both candidates and pick a preferred candidate, or "tie" when
the evidence does not separate them. Respond with a single JSON object matching
the required schema and nothing else.`

// renderBundle serializes collected evidence into the prompt text, trimming
// to a character budget so large profiles cannot blow out the context window.
func renderBundle(bundle *model.EvidenceBundle) string {
	var b strings.Builder

	p := bundle.Profile
	fmt.Fprintf(&b, "## Profile\n")
	fmt.Fprintf(&b, "Login: %s\n", p.Login)
	if p.Name != "" {
		fmt.Fprintf(&b, "Name: %s\n", p.Name)
	}
	if p.Bio != "" {
		fmt.Fprintf(&b, "Bio: %s\n", p.Bio)
	}
	if p.Company != "" {
		fmt.Fprintf(&b, "Company: %s\n", p.Company)
	}
	if p.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", p.Location)
	}
	fmt.Fprintf(&b, "Followers: %d | Public repos: %d | Joined: %s\n", p.Followers, p.PublicRepos, p.CreatedAt)

	c := p.Contributions
	if c.Total > 0 {
		fmt.Fprintf(&b, "Contributions (last year): %d total, %d commits, %d PRs, %d issues\n",
			c.Total, c.Commits, c.PullRequests, c.Issues)
	}

	for _, repo := range bundle.RepoDetails {
		fmt.Fprintf(&b, "\n## Repository: %s (%d stars)\n", repo.Name, repo.Stars)
		if repo.Description != "" {
			fmt.Fprintf(&b, "Description: %s\n", repo.Description)
		}
		if len(repo.Languages) > 0 {
			fmt.Fprintf(&b, "Languages: %s\n", strings.Join(repo.Languages, ", "))
		}
		if len(repo.FileTree) > 0 {
			fmt.Fprintf(&b, "Files:\n")
			for _, path := range repo.FileTree {
				fmt.Fprintf(&b, "  %s\n", path)
			}
		}
		if repo.ReadmeExcerpt != "" {
			fmt.Fprintf(&b, "README:\n%s\n", repo.ReadmeExcerpt)
		}
	}

	return textutil.Truncate(b.String(), maxBundleChars, "\n... (evidence truncated)")
}

func renderComparisonBundle(a, b *model.EvidenceBundle) string {
	var sb strings.Builder
	sb.WriteString("# Candidate A\n\n")
	sb.WriteString(textutil.Truncate(renderBundle(a), maxBundleChars/2, "\n... (truncated)"))
	sb.WriteString("\n\n# Candidate B\n\n")
	sb.WriteString(textutil.Truncate(renderBundle(b), maxBundleChars/2, "\n... (truncated)"))
	return sb.String()
}
