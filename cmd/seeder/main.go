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

// Seeder loads a set of sample portfolios into a foliosearch database
// and runs one batch embedding pass over them. Useful for demos and
// local development.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/experfolio/foliosearch"
	"github.com/experfolio/foliosearch/ai/mock"
	"github.com/experfolio/foliosearch/core"
)

var (
	dbPath  = flag.String("db", "./folio_db", "Path to the database directory")
	useMock = flag.Bool("mock", true, "Use the deterministic mock AI provider")
)

var samples = []*core.Portfolio{
	{
		UserId: "user-ada",
		BasicInfo: core.BasicInfo{
			Name:            "Ada Reynolds",
			School:          "Hanyang University",
			Major:           "Computer Science",
			DesiredPosition: "Backend engineer",
			Awards: []core.Award{
				{Name: "ACM-ICPC Regional", Achievement: "Silver medal"},
			},
			Languages: []core.LanguageSkill{
				{TestName: "TOEIC", Score: "935"},
			},
		},
		Items: []core.PortfolioItem{
			{
				Title:   "Order pipeline",
				Content: "Designed an event-driven order processing pipeline in Go with exactly-once delivery over Kafka.",
			},
			{
				Title:   "Key-value store",
				Content: "Built a log-structured key-value store with crash recovery and compaction.",
			},
		},
	},
	{
		UserId: "user-bo",
		BasicInfo: core.BasicInfo{
			Name:            "Bo Lindqvist",
			School:          "KTH",
			Major:           "Interaction Design",
			DesiredPosition: "Product designer",
			Certifications: []core.Certification{
				{Name: "Google UX Design Certificate"},
			},
		},
		Items: []core.PortfolioItem{
			{
				Title:   "Banking app redesign",
				Content: "Led the redesign of a retail banking app, raising task completion from 61% to 88% in usability tests.",
			},
		},
	},
	{
		UserId: "user-chen",
		BasicInfo: core.BasicInfo{
			Name:            "Chen Wu",
			School:          "Zhejiang University",
			Major:           "Data Science",
			DesiredPosition: "Machine learning engineer",
		},
		Items: []core.PortfolioItem{
			{
				Title:   "Churn model",
				Content: "Trained and deployed a gradient boosting churn model serving 40k predictions per day behind a gRPC API.",
			},
			{
				Title:   "Feature store",
				Content: "Introduced a feature store that cut training-serving skew incidents to zero over two quarters.",
			},
		},
	},
	{
		UserId: "user-dana",
		BasicInfo: core.BasicInfo{
			Name:            "Dana Okafor",
			School:          "University of Lagos",
			Major:           "Electrical Engineering",
			DesiredPosition: "Site reliability engineer",
			Awards: []core.Award{
				{Name: "Campus hackathon", Achievement: "First place"},
			},
		},
		Items: []core.PortfolioItem{
			{
				Title:   "Observability rollout",
				Content: "Rolled out tracing and SLO dashboards across 30 services; mean time to detection dropped by half.",
			},
		},
	},
}

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "seeder:", err)
		os.Exit(1)
	}
}

func run() error {
	opts := []foliosearch.ServiceOption{}
	if *useMock {
		opts = append(opts, foliosearch.WithProvider(mock.NewMockProvider()))
	}

	svc, err := foliosearch.NewService(*dbPath, opts...)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := context.Background()

	added, err := svc.PortfolioRepository().AddPortfolios(ctx, samples...)
	if err != nil {
		return err
	}
	slog.Info("seeded portfolios", "count", len(added))

	orch, err := svc.NewOrchestrator()
	if err != nil {
		return err
	}
	defer orch.Release()

	summary := orch.Run(ctx)
	slog.Info("batch pass finished",
		"total", summary.Total,
		"success", summary.Success,
		"failed", summary.Failed,
		"elapsed", summary.Elapsed)
	return nil
}
