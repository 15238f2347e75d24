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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/experfolio/foliosearch"
	"github.com/experfolio/foliosearch/ai"
	"github.com/experfolio/foliosearch/batch"
	"github.com/experfolio/foliosearch/config"
	"github.com/experfolio/foliosearch/core"
	"github.com/experfolio/foliosearch/retry"
	"github.com/experfolio/foliosearch/scheduler"
	"github.com/experfolio/foliosearch/search"
	"github.com/experfolio/foliosearch/server"
	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:  "foliosearch",
		Usage: "Semantic candidate search over portfolio data",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				Value:   "foliosearch.yml",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API with the daily batch schedule",
				Action: serveCommand,
			},
			{
				Name:   "batch",
				Usage:  "Run one batch embedding pass and exit",
				Action: batchCommand,
			},
			{
				Name:      "search",
				Usage:     "Run one search from the command line",
				Action:    searchCommand,
				ArgsUsage: "<query>",
			},
			{
				Name:   "reprocess",
				Usage:  "Mark portfolios for reprocessing and run a batch pass",
				Action: reprocessCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "user",
						Usage: "User IDs to reprocess (repeatable); all pending when omitted",
					},
				},
			},
			{
				Name:   "init-config",
				Usage:  "Write a starter configuration file",
				Action: initConfigCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func buildService(cfg *config.Config) (*foliosearch.Service, error) {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(cfg.AI.EmbeddingHost),
		ai.WithAnalysisHost(cfg.AI.AnalysisHost),
		ai.WithEmbeddingModel(cfg.AI.EmbeddingModel),
		ai.WithAnalysisModel(cfg.AI.AnalysisModel),
		ai.WithAPIKey(cfg.AI.APIKey),
		ai.WithTemperature(cfg.AI.Temperature),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	opts := []foliosearch.ServiceOption{
		foliosearch.WithAIConfig(aiConfig),
		foliosearch.WithFilesDir(cfg.FilesDir),
	}
	if cfg.OCR.Endpoint != "" {
		opts = append(opts, foliosearch.WithOCREndpoint(cfg.OCR.Endpoint))
	}
	if cfg.Rerank.Endpoint != "" {
		opts = append(opts, foliosearch.WithRerankEndpoint(cfg.Rerank.Endpoint))
	}
	if cfg.AI.RPM > 0 {
		opts = append(opts, foliosearch.WithAnalyzerRPM(cfg.AI.RPM))
	}

	return foliosearch.NewService(cfg.DataDir, opts...)
}

func buildOrchestrator(svc *foliosearch.Service, cfg *config.Config) (*batch.Orchestrator, error) {
	delay, err := cfg.BatchInitialDelay()
	if err != nil {
		return nil, err
	}
	return svc.NewOrchestrator(
		batch.WithWorkers(cfg.Batch.Workers),
		batch.WithRetryPolicy(retry.Policy{
			MaxAttempts:  cfg.Batch.MaxAttempts,
			InitialDelay: delay,
		}),
		batch.WithProgress(os.Stderr),
	)
}

func buildSearcher(svc *foliosearch.Service, cfg *config.Config) (*search.Searcher, error) {
	timeout, err := cfg.SearchAnalysisTimeout()
	if err != nil {
		return nil, err
	}
	baseDelay, err := cfg.SearchRateLimitBaseDelay()
	if err != nil {
		return nil, err
	}

	searchCfg := search.DefaultConfig()
	searchCfg.CandidateLimit = cfg.Search.CandidateLimit
	searchCfg.MinSimilarity = float32(cfg.Search.MinSimilarity)
	searchCfg.TopK = cfg.Search.TopK
	searchCfg.MaxConcurrent = cfg.Search.MaxConcurrent
	searchCfg.AnalysisTimeout = timeout
	searchCfg.RateLimitRetries = cfg.Search.RateLimitRetries
	searchCfg.RateLimitBaseDelay = baseDelay
	searchCfg.RateLimitMultiplier = cfg.Search.RateLimitMultiplier

	return svc.NewSearcher(search.WithConfig(searchCfg))
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	svc, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	orch, err := buildOrchestrator(svc, cfg)
	if err != nil {
		return err
	}
	defer orch.Release()

	searcher, err := buildSearcher(svc, cfg)
	if err != nil {
		return err
	}
	defer searcher.Release()

	sched, err := scheduler.New(orch, cfg.Batch.Schedule)
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	srv, err := server.New(searcher, sched,
		server.WithVersion(version),
		server.WithDebug(cfg.Debug),
		server.WithHealthChecks(svc.HealthChecks()))
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Listen)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func batchCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	svc, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	orch, err := buildOrchestrator(svc, cfg)
	if err != nil {
		return err
	}
	defer orch.Release()

	summary := orch.Run(context.Background())
	return printJSON(summary)
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("a search query is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	svc, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	searcher, err := buildSearcher(svc, cfg)
	if err != nil {
		return err
	}
	defer searcher.Release()

	outcome := searcher.Search(context.Background(), query)
	if !outcome.Ok() {
		return fmt.Errorf("search failed: %w", outcome.Failure())
	}
	return printJSON(outcome.Value())
}

func reprocessCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	svc, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := context.Background()
	repo := svc.PortfolioRepository()

	users := c.StringSlice("user")
	if len(users) > 0 {
		var ids []core.ID
		for _, user := range users {
			portfolio, err := repo.GetPortfolioByUserId(ctx, user)
			if err != nil {
				return fmt.Errorf("looking up user %q: %w", user, err)
			}
			ids = append(ids, portfolio.Id)
		}
		if err := repo.MarkForReprocessing(ctx, ids...); err != nil {
			return err
		}
	}

	orch, err := buildOrchestrator(svc, cfg)
	if err != nil {
		return err
	}
	defer orch.Release()

	summary := orch.Run(ctx)
	return printJSON(summary)
}

func initConfigCommand(c *cli.Context) error {
	path := c.String("config")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", path)
	return nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
