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

// Package config loads the service configuration: defaults, then a YAML
// file, then FOLIOSEARCH_* environment overrides, in that order.
//
// Nested keys are addressed in the environment with a double
// underscore: FOLIOSEARCH_AI__API_KEY overrides ai.api_key.
package config
