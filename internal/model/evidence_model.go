package model

// EvidenceBundle is the bounded corpus of public signals collected for one
// GitHub account. Built fresh per request, never persisted.
type EvidenceBundle struct {
	Profile     Profile      `json:"profile"`
	RepoDetails []RepoDetail `json:"repo_details"`
}

// Profile holds the account-level evidence.
type Profile struct {
	Login         string        `json:"login"`
	Name          string        `json:"name"`
	Bio           string        `json:"bio"`
	Company       string        `json:"company"`
	Location      string        `json:"location"`
	Followers     int           `json:"followers"`
	PublicRepos   int           `json:"public_repos"`
	CreatedAt     string        `json:"created_at"`
	Contributions Contributions `json:"contributions"`
}

// Contributions summarizes the last year of activity. Zero values mean the
// contribution fetch failed; that is recorded as absent, not fatal.
type Contributions struct {
	Total        int `json:"total"`
	Commits      int `json:"commits"`
	PullRequests int `json:"pull_requests"`
	Issues       int `json:"issues"`
}

// RepoDetail holds the per-repository evidence: description, languages, a
// truncated README excerpt, and a file-tree sample. Fields an individual
// fetch could not fill stay empty.
type RepoDetail struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Stars         int      `json:"stars"`
	Languages     []string `json:"languages"`
	ReadmeExcerpt string   `json:"readme_excerpt"`
	FileTree      []string `json:"file_tree"`
}

// ProfileSummary is the flattened shape served by the search endpoint.
type ProfileSummary struct {
	Login       string   `json:"login"`
	Name        string   `json:"name"`
	AvatarURL   string   `json:"avatar_url"`
	Bio         string   `json:"bio"`
	Followers   int      `json:"followers"`
	PublicRepos int      `json:"public_repos"`
	TopRepos    []string `json:"top_repos"`
	Languages   []string `json:"languages"`
}
