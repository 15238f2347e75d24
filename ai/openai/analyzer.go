// Copyright 2025 Experfolio
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/experfolio/foliosearch/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// MatchAnalyzer implements ai.MatchAnalyzer using OpenAI-compatible chat APIs.
type MatchAnalyzer struct {
	client      llms.Model
	temperature float64
	logger      *slog.Logger
}

var _ ai.MatchAnalyzer = (*MatchAnalyzer)(nil)

// matchResponse matches the JSON structure the LLM is prompted to produce.
type matchResponse struct {
	MatchScore  float64  `json:"match_score"`
	MatchReason string   `json:"match_reason"`
	Keywords    []string `json:"keywords"`
}

// newMatchAnalyzer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newMatchAnalyzer(config *ai.Config) (*MatchAnalyzer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.AnalysisHost),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.AnalysisModel),
	)
	if err != nil {
		return nil, err
	}

	return &MatchAnalyzer{
		client:      client,
		temperature: config.Temperature,
		logger:      slog.Default().With("component", "openai-analyzer"),
	}, nil
}

// NewMatchAnalyzer creates a new match analyzer using the provided
// configuration.
//
// Returns ai.MatchAnalyzer interface to enforce abstraction.
func NewMatchAnalyzer(config *ai.Config) (ai.MatchAnalyzer, error) {
	return newMatchAnalyzer(config)
}

// AnalyzeMatch scores how well a candidate's portfolio text matches a search
// query. Scores come back in [0, 1]; out-of-range values are returned as-is
// for the caller to reject.
func (a *MatchAnalyzer) AnalyzeMatch(ctx context.Context, query, portfolioText string) (*ai.MatchAnalysis, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ai.ErrEmptyQuery
	}

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(matchAnalysisPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(buildMatchInput(query, portfolioText)),
			},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var result matchResponse
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := a.client.GenerateContent(ctx, content,
			llms.WithTemperature(a.temperature), llms.WithJSONMode())
		if err != nil {
			a.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			a.logger.Debug("no choices returned from model")
			return nil, ai.ErrInvalidResponse
		}

		choice := response.Choices[0]

		// Strip markdown code fences if present
		responseText := strings.TrimSpace(choice.Content)
		responseText = strings.TrimPrefix(responseText, "```json")
		responseText = strings.TrimPrefix(responseText, "```")
		responseText = strings.TrimSuffix(responseText, "```")
		responseText = strings.TrimSpace(responseText)

		// Try to repair common JSON issues
		responseText = repairJSON(responseText)

		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			a.logger.Warn("error parsing analyzer response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		a.logger.Error("failed to parse analyzer response after retries", "err", lastErr)
		return nil, ai.ErrInvalidResponse
	}

	a.logger.Debug("analyzed match",
		"score", result.MatchScore,
		"keywords", len(result.Keywords))

	return &ai.MatchAnalysis{
		MatchScore:  result.MatchScore,
		MatchReason: strings.TrimSpace(result.MatchReason),
		Keywords:    result.Keywords,
	}, nil
}
