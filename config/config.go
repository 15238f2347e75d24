// Copyright 2025 Experfolio
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "FOLIOSEARCH_"

// Config is the top-level service configuration.
type Config struct {
	DataDir  string `yaml:"data_dir" koanf:"data_dir"`
	FilesDir string `yaml:"files_dir" koanf:"files_dir"`
	Listen   string `yaml:"listen" koanf:"listen"`
	Debug    bool   `yaml:"debug" koanf:"debug"`

	AI     AIConfig     `yaml:"ai" koanf:"ai"`
	OCR    OCRConfig    `yaml:"ocr" koanf:"ocr"`
	Rerank RerankConfig `yaml:"rerank" koanf:"rerank"`
	Batch  BatchConfig  `yaml:"batch" koanf:"batch"`
	Search SearchConfig `yaml:"search" koanf:"search"`
}

// AIConfig configures the embedding and analysis providers.
type AIConfig struct {
	EmbeddingHost  string  `yaml:"embedding_host" koanf:"embedding_host"`
	AnalysisHost   string  `yaml:"analysis_host" koanf:"analysis_host"`
	EmbeddingModel string  `yaml:"embedding_model" koanf:"embedding_model"`
	AnalysisModel  string  `yaml:"analysis_model" koanf:"analysis_model"`
	APIKey         string  `yaml:"api_key" koanf:"api_key"`
	Temperature    float64 `yaml:"temperature" koanf:"temperature"`
	// RPM caps AnalyzeMatch calls per minute. Zero disables the cap.
	RPM int `yaml:"rpm" koanf:"rpm"`
}

// OCRConfig configures the OCR sidecar. An empty endpoint disables OCR
// formats in the extraction registry.
type OCRConfig struct {
	Endpoint string `yaml:"endpoint" koanf:"endpoint"`
}

// RerankConfig configures the cross-encoder reranker. An empty endpoint
// falls back to similarity-order truncation.
type RerankConfig struct {
	Endpoint string `yaml:"endpoint" koanf:"endpoint"`
}

// BatchConfig configures the batch orchestrator and its schedule.
type BatchConfig struct {
	Workers      int    `yaml:"workers" koanf:"workers"`
	MaxAttempts  int    `yaml:"max_attempts" koanf:"max_attempts"`
	InitialDelay string `yaml:"initial_delay" koanf:"initial_delay"`
	Schedule     string `yaml:"schedule" koanf:"schedule"`
}

// SearchConfig configures the search orchestrator, including the
// backoff applied when analysis calls are rate limited.
type SearchConfig struct {
	CandidateLimit      int     `yaml:"candidate_limit" koanf:"candidate_limit"`
	MinSimilarity       float64 `yaml:"min_similarity" koanf:"min_similarity"`
	TopK                int     `yaml:"top_k" koanf:"top_k"`
	MaxConcurrent       int     `yaml:"max_concurrent" koanf:"max_concurrent"`
	AnalysisTimeout     string  `yaml:"analysis_timeout" koanf:"analysis_timeout"`
	RateLimitRetries    int     `yaml:"rate_limit_retries" koanf:"rate_limit_retries"`
	RateLimitBaseDelay  string  `yaml:"rate_limit_base_delay" koanf:"rate_limit_base_delay"`
	RateLimitMultiplier float64 `yaml:"rate_limit_multiplier" koanf:"rate_limit_multiplier"`
}

// DefaultConfig returns the configuration used when no file and no
// overrides are present.
func DefaultConfig() *Config {
	return &Config{
		DataDir:  "data",
		FilesDir: "files",
		Listen:   ":8080",
		AI: AIConfig{
			EmbeddingHost:  "http://localhost:11434",
			AnalysisHost:   "http://localhost:11434",
			EmbeddingModel: "embeddinggemma",
			AnalysisModel:  "qwen2.5:3b",
			APIKey:         "none",
			Temperature:    0.0,
		},
		Batch: BatchConfig{
			Workers:      4,
			MaxAttempts:  3,
			InitialDelay: "1s",
			Schedule:     "0 2 * * *",
		},
		Search: SearchConfig{
			CandidateLimit:      20,
			MinSimilarity:       0.30,
			TopK:                10,
			MaxConcurrent:       4,
			AnalysisTimeout:     "30s",
			RateLimitRetries:    2,
			RateLimitBaseDelay:  "5s",
			RateLimitMultiplier: 2.0,
		},
	}
}

// Load reads configuration from the given YAML file, then overlays
// FOLIOSEARCH_* environment variables.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path. Used to
// produce a starter config.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains usable values.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}

	if c.AI.EmbeddingModel == "" {
		return fmt.Errorf("ai.embedding_model is required")
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("ai.temperature must be between 0 and 2, got %v", c.AI.Temperature)
	}
	if c.AI.RPM < 0 {
		return fmt.Errorf("ai.rpm must be non-negative")
	}

	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be at least 1")
	}
	if c.Batch.MaxAttempts < 1 {
		return fmt.Errorf("batch.max_attempts must be at least 1")
	}
	if _, err := c.BatchInitialDelay(); err != nil {
		return fmt.Errorf("batch.initial_delay: %w", err)
	}

	if c.Search.MinSimilarity < 0 || c.Search.MinSimilarity > 1 {
		return fmt.Errorf("search.min_similarity must be between 0 and 1, got %v", c.Search.MinSimilarity)
	}
	if c.Search.MaxConcurrent < 1 {
		return fmt.Errorf("search.max_concurrent must be at least 1")
	}
	if _, err := c.SearchAnalysisTimeout(); err != nil {
		return fmt.Errorf("search.analysis_timeout: %w", err)
	}
	if c.Search.RateLimitRetries < 0 {
		return fmt.Errorf("search.rate_limit_retries must be non-negative")
	}
	if _, err := c.SearchRateLimitBaseDelay(); err != nil {
		return fmt.Errorf("search.rate_limit_base_delay: %w", err)
	}
	if c.Search.RateLimitMultiplier < 1 {
		return fmt.Errorf("search.rate_limit_multiplier must be at least 1, got %v", c.Search.RateLimitMultiplier)
	}

	return nil
}

// BatchInitialDelay parses the batch retry base delay.
func (c *Config) BatchInitialDelay() (time.Duration, error) {
	return time.ParseDuration(c.Batch.InitialDelay)
}

// SearchAnalysisTimeout parses the per-candidate analysis budget.
func (c *Config) SearchAnalysisTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Search.AnalysisTimeout)
}

// SearchRateLimitBaseDelay parses the base delay used when backing off
// rate-limited analysis calls.
func (c *Config) SearchRateLimitBaseDelay() (time.Duration, error) {
	return time.ParseDuration(c.Search.RateLimitBaseDelay)
}
