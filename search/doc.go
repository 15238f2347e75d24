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


// Package search implements the candidate search pipeline.
//
// A query runs through four stages: query embedding, vector search over
// stored portfolios, best-effort reranking, and a bounded-concurrency LLM
// analysis fan-out. The first two stages are terminal on failure; the last
// two degrade gracefully — a dead reranker keeps the vector order, and a
// candidate whose analysis times out or errors is dropped without failing
// the request.
package search
