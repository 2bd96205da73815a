package config

import (
	"os"
	"sync"
)

// GithubConfig holds the optional service token used when a request does not
// carry its own credential (public search only). Analysis always uses the
// caller-supplied token.
type GithubConfig struct {
	Token string
}

var (
	githubConfig *GithubConfig
	githubOnce   sync.Once
)

func LoadGithubConfig() *GithubConfig {
	githubOnce.Do(func() {
		githubConfig = &GithubConfig{
			Token: os.Getenv("GITHUB_TOKEN"),
		}
	})
	return githubConfig
}
