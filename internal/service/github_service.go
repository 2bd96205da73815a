package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/go-github/v68/github"
	"github.com/repofy/repofy-backend/internal/config"
	"github.com/repofy/repofy-backend/internal/model"
	"github.com/repofy/repofy-backend/internal/textutil"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

const (
	userAgent = "repofy-backend"

	maxRepoDetails    = 8
	maxReadmeBytes    = 2000
	maxTreeEntries    = 25
	maxLanguages      = 5
	detailConcurrency = 4

	graphqlEndpoint = "https://api.github.com/graphql"
)

const contributionsQuery = `query($login: String!) {
  user(login: $login) {
    contributionsCollection {
      totalCommitContributions
      totalPullRequestContributions
      totalIssueContributions
      contributionCalendar { totalContributions }
    }
  }
}`

type GithubServiceInterface interface {
	Collect(ctx context.Context, username, token string) (*model.EvidenceBundle, error)
	Search(ctx context.Context, username, token string) (*model.ProfileSummary, error)
	ResolveViewer(ctx context.Context, token string) (string, error)
}

// GithubService collects public evidence about GitHub accounts. Every call
// uses the caller-supplied token; the service never stores a credential.
type GithubService struct {
	rest *resty.Client
}

func NewGithubService() *GithubService {
	return &GithubService{
		rest: resty.New().
			SetTimeout(30*time.Second).
			SetHeader("User-Agent", userAgent),
	}
}

// newGitHubClient builds a client for token. An empty token falls back to
// the optional service token, then to unauthenticated access.
func newGitHubClient(token string) *github.Client {
	if token == "" {
		token = config.LoadGithubConfig().Token
	}
	httpClient := &http.Client{Timeout: 30 * time.Second}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient.Transport = &oauth2.Transport{Source: ts, Base: http.DefaultTransport}
	}
	client := github.NewClient(httpClient)
	client.UserAgent = userAgent
	return client
}

// Collect fetches the profile, contribution summary, and top-repository
// details for username. The account missing is ErrUserNotFound; any other
// upstream failure on the profile fetch is ErrUpstream. Per-repo detail
// failures are logged and tolerated.
func (s *GithubService) Collect(ctx context.Context, username, token string) (*model.EvidenceBundle, error) {
	client := newGitHubClient(token)

	user, _, err := client.Users.Get(ctx, username)
	if err != nil {
		return nil, classifyGithubErr(err)
	}

	bundle := &model.EvidenceBundle{
		Profile: model.Profile{
			Login:       user.GetLogin(),
			Name:        user.GetName(),
			Bio:         user.GetBio(),
			Company:     user.GetCompany(),
			Location:    user.GetLocation(),
			Followers:   user.GetFollowers(),
			PublicRepos: user.GetPublicRepos(),
			CreatedAt:   user.GetCreatedAt().Format("2006-01-02"),
		},
	}

	contribs, err := s.fetchContributions(ctx, username, token)
	if err != nil {
		slog.Warn("could not fetch contributions", "username", username, "error", err)
	} else {
		bundle.Profile.Contributions = contribs
	}

	repos, err := fetchRecentRepos(ctx, client, username)
	if err != nil {
		slog.Warn("could not list repos", "username", username, "error", err)
		return bundle, nil
	}

	details := make([]model.RepoDetail, len(repos))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(detailConcurrency)
	for i, repo := range repos {
		i, repo := i, repo
		g.Go(func() error {
			details[i] = collectRepoDetail(gCtx, client, username, repo)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	bundle.RepoDetails = details

	return bundle, nil
}

// Search returns the flattened profile summary served by the search endpoint.
func (s *GithubService) Search(ctx context.Context, username, token string) (*model.ProfileSummary, error) {
	client := newGitHubClient(token)

	user, _, err := client.Users.Get(ctx, username)
	if err != nil {
		return nil, classifyGithubErr(err)
	}

	summary := &model.ProfileSummary{
		Login:       user.GetLogin(),
		Name:        user.GetName(),
		AvatarURL:   user.GetAvatarURL(),
		Bio:         user.GetBio(),
		Followers:   user.GetFollowers(),
		PublicRepos: user.GetPublicRepos(),
	}

	repos, err := fetchRecentRepos(ctx, client, username)
	if err != nil {
		slog.Warn("could not list repos for search", "username", username, "error", err)
		return summary, nil
	}

	langSet := map[string]bool{}
	for _, repo := range repos {
		summary.TopRepos = append(summary.TopRepos, repo.GetName())
		if lang := repo.GetLanguage(); lang != "" && !langSet[lang] {
			langSet[lang] = true
			summary.Languages = append(summary.Languages, lang)
		}
	}
	return summary, nil
}

// ResolveViewer returns the login of the account that owns token.
func (s *GithubService) ResolveViewer(ctx context.Context, token string) (string, error) {
	client := newGitHubClient(token)
	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		return "", classifyGithubErr(err)
	}
	return user.GetLogin(), nil
}

func (s *GithubService) fetchContributions(ctx context.Context, username, token string) (model.Contributions, error) {
	resp, err := s.rest.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(map[string]any{
			"query":     contributionsQuery,
			"variables": map[string]string{"login": username},
		}).
		Post(graphqlEndpoint)
	if err != nil {
		return model.Contributions{}, err
	}
	if resp.StatusCode() != http.StatusOK {
		return model.Contributions{}, fmt.Errorf("graphql returned status %d", resp.StatusCode())
	}

	body := resp.String()
	if errMsg := gjson.Get(body, "errors.0.message"); errMsg.Exists() {
		return model.Contributions{}, fmt.Errorf("graphql error: %s", errMsg.String())
	}
	coll := gjson.Get(body, "data.user.contributionsCollection")
	if !coll.Exists() {
		return model.Contributions{}, fmt.Errorf("graphql response missing contributionsCollection")
	}
	return model.Contributions{
		Total:        int(coll.Get("contributionCalendar.totalContributions").Int()),
		Commits:      int(coll.Get("totalCommitContributions").Int()),
		PullRequests: int(coll.Get("totalPullRequestContributions").Int()),
		Issues:       int(coll.Get("totalIssueContributions").Int()),
	}, nil
}

func fetchRecentRepos(ctx context.Context, client *github.Client, username string) ([]*github.Repository, error) {
	opts := &github.RepositoryListByUserOptions{
		Sort:        "pushed",
		Direction:   "desc",
		Type:        "owner",
		ListOptions: github.ListOptions{PerPage: maxRepoDetails},
	}
	repos, _, err := client.Repositories.ListByUser(ctx, username, opts)
	if err != nil {
		return nil, err
	}
	if len(repos) > maxRepoDetails {
		repos = repos[:maxRepoDetails]
	}
	return repos, nil
}

func collectRepoDetail(ctx context.Context, client *github.Client, owner string, repo *github.Repository) model.RepoDetail {
	name := repo.GetName()
	detail := model.RepoDetail{
		Name:        name,
		Description: repo.GetDescription(),
		Stars:       repo.GetStargazersCount(),
	}

	langs, _, err := client.Repositories.ListLanguages(ctx, owner, name)
	if err != nil {
		slog.Debug("could not list languages", "repo", name, "error", err)
	} else {
		detail.Languages = topLanguages(langs, maxLanguages)
	}

	readme, _, err := client.Repositories.GetReadme(ctx, owner, name, nil)
	if err == nil {
		if content, err := readme.GetContent(); err == nil {
			detail.ReadmeExcerpt = textutil.Truncate(content, maxReadmeBytes, "\n... (truncated)")
		}
	}

	tree, _, err := client.Git.GetTree(ctx, owner, name, repo.GetDefaultBranch(), true)
	if err != nil {
		slog.Debug("could not fetch tree", "repo", name, "error", err)
		return detail
	}
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" {
			continue
		}
		detail.FileTree = append(detail.FileTree, entry.GetPath())
		if len(detail.FileTree) >= maxTreeEntries {
			break
		}
	}
	return detail
}

// topLanguages orders a byte-count map by weight and keeps the heaviest max.
func topLanguages(langs map[string]int, max int) []string {
	type langWeight struct {
		name  string
		bytes int
	}
	weighted := make([]langWeight, 0, len(langs))
	for name, bytes := range langs {
		weighted = append(weighted, langWeight{name, bytes})
	}
	sort.Slice(weighted, func(i, j int) bool {
		if weighted[i].bytes != weighted[j].bytes {
			return weighted[i].bytes > weighted[j].bytes
		}
		return weighted[i].name < weighted[j].name
	})
	if len(weighted) > max {
		weighted = weighted[:max]
	}
	result := make([]string, len(weighted))
	for i, lw := range weighted {
		result[i] = lw.name
	}
	return result
}

func classifyGithubErr(err error) error {
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		switch errResp.Response.StatusCode {
		case http.StatusNotFound:
			return ErrUserNotFound
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: bad credential", ErrUpstream)
		}
	}
	return fmt.Errorf("%w: %v", ErrUpstream, err)
}
