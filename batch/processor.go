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


package batch

import (
	"context"
	"log/slog"
	"strings"

	"github.com/experfolio/foliosearch/ai"
	"github.com/experfolio/foliosearch/core"
	"github.com/experfolio/foliosearch/extract"
	"github.com/experfolio/foliosearch/storage"
)

// textSeparator joins the collected fragments into one searchable text.
const textSeparator = "\n\n"

// Extractor is the slice of the extraction layer the processor needs.
// *extract.Registry satisfies it.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// ItemProcessor turns one portfolio into its searchable representation:
// collect text, extract pending attachments, embed, persist. Every step
// tolerates partial prior completion, so a portfolio can be re-run safely
// after any failure.
type ItemProcessor struct {
	repo      storage.PortfolioRepository
	embedder  ai.Embedder
	extractor Extractor
	files     extract.FileStore
	logger    *slog.Logger
}

// NewItemProcessor creates a processor with the given collaborators.
func NewItemProcessor(repo storage.PortfolioRepository, embedder ai.Embedder, extractor Extractor, files extract.FileStore) *ItemProcessor {
	return &ItemProcessor{
		repo:      repo,
		embedder:  embedder,
		extractor: extractor,
		files:     files,
		logger:    slog.Default().With("component", "item-processor"),
	}
}

// Process runs the full pipeline for one portfolio and returns its ID on
// success. Attachment extraction failures are recorded on the attachment
// and never fail the item; embedding and persistence failures do.
func (p *ItemProcessor) Process(ctx context.Context, portfolio *core.Portfolio) core.Outcome[core.ID] {
	texts := collectText(portfolio)
	texts = append(texts, p.extractAttachments(ctx, portfolio)...)

	searchable := joinFragments(texts)

	// Empty content is a valid terminal state, not an error.
	if searchable == "" {
		p.logger.Debug("no searchable text, marking processed", "id", portfolio.Id)
		if err := p.repo.MarkProcessedOnly(ctx, portfolio); err != nil {
			return core.Fail[core.ID](core.ErrorNetwork, err)
		}
		return core.Ok(portfolio.Id)
	}

	// Unchanged text keeps its stored embedding; only the attachment
	// statuses and processing state need persisting.
	contentHash := core.HashContent(searchable)
	if contentHash == portfolio.Embedding.ContentHash && len(portfolio.Embedding.Vector) > 0 {
		p.logger.Debug("content unchanged, skipping embedding", "id", portfolio.Id)
		if err := p.repo.MarkProcessedOnly(ctx, portfolio); err != nil {
			return core.Fail[core.ID](core.ErrorNetwork, err)
		}
		return core.Ok(portfolio.Id)
	}

	vector, err := p.embedder.EmbedDocument(ctx, searchable)
	if err != nil {
		return core.FailWith[core.ID](core.Classify(err))
	}

	if err := p.repo.UpdateEmbeddings(ctx, portfolio, searchable, vector, contentHash); err != nil {
		return core.Fail[core.ID](core.ErrorNetwork, err)
	}

	return core.Ok(portfolio.Id)
}

// extractAttachments visits every attachment that has not completed
// extraction. Failures mark the attachment and move on; success marks it
// completed even when it yielded no text. Completed attachments are never
// re-extracted.
func (p *ItemProcessor) extractAttachments(ctx context.Context, portfolio *core.Portfolio) []string {
	var texts []string
	for _, att := range portfolio.Attachments() {
		if att.Status == core.ExtractionCompleted {
			continue
		}

		if !p.files.Exists(att.FilePath) {
			p.logger.Warn("attachment file missing",
				"id", portfolio.Id, "path", att.FilePath)
			att.Status = core.ExtractionFailed
			continue
		}

		text, err := p.extractor.Extract(ctx, att.FilePath)
		if err != nil {
			p.logger.Warn("attachment extraction failed",
				"id", portfolio.Id, "path", att.FilePath, "err", err)
			att.Status = core.ExtractionFailed
			continue
		}

		att.Status = core.ExtractionCompleted
		if text != "" {
			texts = append(texts, text)
		}
	}
	return texts
}

// collectText gathers the portfolio's structured fields in a deterministic
// order: identity fields, then repeated sub-collections, then free-form item
// content. Absent fields are skipped.
func collectText(portfolio *core.Portfolio) []string {
	info := portfolio.BasicInfo
	texts := []string{info.Name, info.School, info.Major, info.DesiredPosition}

	for _, award := range info.Awards {
		texts = append(texts, award.Name, award.Achievement)
	}
	for _, cert := range info.Certifications {
		texts = append(texts, cert.Name)
	}
	for _, lang := range info.Languages {
		texts = append(texts, lang.TestName, lang.Score)
	}
	for _, item := range portfolio.Items {
		texts = append(texts, item.Title, item.Content)
	}
	return texts
}

// joinFragments joins the non-empty trimmed fragments with the stable
// separator.
func joinFragments(texts []string) string {
	parts := make([]string, 0, len(texts))
	for _, t := range texts {
		if trimmed := strings.TrimSpace(t); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, textSeparator)
}
