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

// Package foliosearch wires the storage backend, AI provider and
// extraction layer into one service facade that the CLI and the HTTP
// boundary build on.
package foliosearch

import (
	"context"
	"log/slog"
	"time"

	"github.com/experfolio/foliosearch/ai"
	"github.com/experfolio/foliosearch/ai/openai"
	"github.com/experfolio/foliosearch/batch"
	"github.com/experfolio/foliosearch/extract"
	"github.com/experfolio/foliosearch/search"
	"github.com/experfolio/foliosearch/storage"
	"github.com/experfolio/foliosearch/storage/badger"
)

// Service owns the shared collaborators: the Badger backend, the
// portfolio repository, the AI provider and the extraction registry.
type Service struct {
	backend  *badger.Backend
	repo     storage.PortfolioRepository
	provider ai.Provider
	files    extract.FileStore
	registry *extract.Registry
	reranker ai.Reranker
	logger   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	aiConfig    *ai.Config
	provider    ai.Provider
	filesDir    string
	ocrEndpoint string
	rerankURL   string
	analyzerRPM int
	inMemory    bool
}

// WithAIConfig sets the provider configuration. Ignored when
// WithProvider is also given.
func WithAIConfig(config *ai.Config) ServiceOption {
	return func(o *serviceOptions) {
		o.aiConfig = config
	}
}

// WithProvider substitutes a pre-built AI provider, e.g. a mock.
func WithProvider(provider ai.Provider) ServiceOption {
	return func(o *serviceOptions) {
		o.provider = provider
	}
}

// WithFilesDir sets the attachment root directory.
func WithFilesDir(dir string) ServiceOption {
	return func(o *serviceOptions) {
		o.filesDir = dir
	}
}

// WithOCREndpoint enables OCR formats via the given sidecar endpoint.
func WithOCREndpoint(endpoint string) ServiceOption {
	return func(o *serviceOptions) {
		o.ocrEndpoint = endpoint
	}
}

// WithRerankEndpoint enables the cross-encoder reranker.
func WithRerankEndpoint(endpoint string) ServiceOption {
	return func(o *serviceOptions) {
		o.rerankURL = endpoint
	}
}

// WithAnalyzerRPM caps analysis calls per minute. Zero means no cap.
func WithAnalyzerRPM(rpm int) ServiceOption {
	return func(o *serviceOptions) {
		o.analyzerRPM = rpm
	}
}

// WithInMemoryStorage keeps all data in memory. For tests and demos.
func WithInMemoryStorage() ServiceOption {
	return func(o *serviceOptions) {
		o.inMemory = true
	}
}

// NewService opens the storage backend at dataDir and builds the
// collaborator graph.
func NewService(dataDir string, opts ...ServiceOption) (*Service, error) {
	options := &serviceOptions{
		aiConfig: ai.DefaultConfig(),
		filesDir: "files",
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(dataDir, options.inMemory)
	if err != nil {
		return nil, err
	}

	repo, err := badger.NewPortfolioRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			repo.Close()
			backend.Close()
			return nil, err
		}
	}

	files := extract.NewDiskStore(options.filesDir)

	var ocr *extract.OCRClient
	if options.ocrEndpoint != "" {
		ocr = extract.NewOCRClient(options.ocrEndpoint, files, 60*time.Second)
	}
	registry := extract.DefaultRegistry(files, ocr)

	var reranker ai.Reranker
	if options.rerankURL != "" {
		reranker = ai.NewHTTPReranker(options.rerankURL, 10*time.Second, slog.Default())
	}

	s := &Service{
		backend:  backend,
		repo:     repo,
		provider: provider,
		files:    files,
		registry: registry,
		reranker: reranker,
		logger:   slog.Default(),
	}

	if options.analyzerRPM > 0 {
		s.provider = &rateLimitedProvider{
			Provider: provider,
			analyzer: ai.NewRateLimitedAnalyzer(provider.MatchAnalyzer(), options.analyzerRPM, 1),
		}
	}

	return s, nil
}

// rateLimitedProvider overlays a client-side RPM cap on the analysis
// service. Embedding and lifecycle pass through to the wrapped provider.
type rateLimitedProvider struct {
	ai.Provider
	analyzer ai.MatchAnalyzer
}

func (p *rateLimitedProvider) MatchAnalyzer() ai.MatchAnalyzer {
	return p.analyzer
}

// Close releases the provider and the storage backend.
func (s *Service) Close() error {
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}

	if err := s.repo.Close(); err != nil {
		s.logger.Error("error closing portfolio repository", "err", err)
		return err
	}

	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// PortfolioRepository exposes the portfolio store.
func (s *Service) PortfolioRepository() storage.PortfolioRepository {
	return s.repo
}

// Provider exposes the AI provider.
func (s *Service) Provider() ai.Provider {
	return s.provider
}

// HealthCheck reports whether the storage backend is usable.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return nil
}

// HealthChecks returns the per-component checks for the health
// endpoint: storage, the embedding service, and the reranker when one
// is configured.
func (s *Service) HealthChecks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{
		"storage": s.HealthCheck,
		"ai": func(ctx context.Context) error {
			_, err := s.provider.Embedder().EmbedQuery(ctx, "ping")
			return err
		},
	}
	if pinger, ok := s.reranker.(*ai.HTTPReranker); ok {
		checks["reranker"] = pinger.Ping
	}
	return checks
}

// NewOrchestrator builds a batch orchestrator over the service's
// collaborators.
func (s *Service) NewOrchestrator(opts ...batch.Option) (*batch.Orchestrator, error) {
	processor := batch.NewItemProcessor(s.repo, s.provider.Embedder(), s.registry, s.files)
	return batch.NewOrchestrator(s.repo, processor, opts...)
}

// NewSearcher builds a search orchestrator over the service's
// collaborators. The configured reranker is wired in unless the caller
// overrides it.
func (s *Service) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	if s.reranker != nil {
		opts = append([]search.Option{search.WithReranker(s.reranker)}, opts...)
	}
	return search.NewSearcher(s.repo, s.provider, opts...)
}
