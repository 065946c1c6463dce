package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ModelSettings struct {
		Temperature float64 `yaml:"temperature"`
		TopP        float64 `yaml:"top_p"`
		MaxTokens   int     `yaml:"max_tokens"`
	} `yaml:"model_settings"`
	Safety struct {
		MaxResponseLength   int `yaml:"max_response_length"`
		ClassifierCacheSize int `yaml:"classifier_cache_size"`
	} `yaml:"safety"`
	Memory struct {
		StoragePath   string `yaml:"storage_path"`
		ShortTermSize int    `yaml:"short_term_size"`
	} `yaml:"memory"`
	Retrieval struct {
		TopK                int     `yaml:"top_k"`
		SimilarityThreshold float64 `yaml:"similarity_threshold"`
		EmbeddingCacheSize  int     `yaml:"embedding_cache_size"`
	} `yaml:"retrieval"`
}

func LoadConfig(path string) (*Config, error) {
	config := &Config{}

	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		// Set default values
		config.ModelSettings.Temperature = 0.7
		config.ModelSettings.TopP = 0.9
		config.ModelSettings.MaxTokens = 300
		config.Safety.MaxResponseLength = 300
		config.Safety.ClassifierCacheSize = 1000
		config.Memory.StoragePath = "data/user_memory.json"
		config.Memory.ShortTermSize = 10
		config.Retrieval.TopK = 3
		config.Retrieval.SimilarityThreshold = 0.6
		config.Retrieval.EmbeddingCacheSize = 500
		return config, nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(file, config)
	if err != nil {
		return nil, err
	}

	return config, nil
}
