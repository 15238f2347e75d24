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


// Package ai defines the model collaborator interfaces the orchestration
// engine depends on: text embedding, LLM match analysis, and candidate
// reranking. Implementations live in subpackages (ai/openai for
// OpenAI-compatible services, ai/mock for tests); the orchestrators only
// ever see these interfaces.
package ai
