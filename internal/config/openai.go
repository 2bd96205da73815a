package config

import (
	"os"
	"sync"
)

type OpenAIConfig struct {
	APIKey string
	Model  string
	Mock   bool
}

var (
	openAIConfig *OpenAIConfig
	openAIOnce   sync.Once
)

func LoadOpenAIConfig() *OpenAIConfig {
	openAIOnce.Do(func() {
		model := os.Getenv("OPENAI_MODEL")
		if model == "" {
			model = "gpt-4o-mini"
		}
		openAIConfig = &OpenAIConfig{
			APIKey: os.Getenv("OPENAI_API_KEY"),
			Model:  model,
			Mock:   os.Getenv("MOCK_AI") == "true",
		}
	})
	return openAIConfig
}
