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


package ai

import "errors"

var (
	// ErrEmptyText is returned when an empty string is passed for embedding.
	ErrEmptyText = errors.New("cannot embed empty text")

	// ErrEmptyQuery is returned when an empty query is passed for analysis.
	ErrEmptyQuery = errors.New("cannot analyze empty query")

	// ErrInvalidResponse is returned when the LLM response cannot be parsed
	// after all repair attempts.
	ErrInvalidResponse = errors.New("invalid response from model")

	// ErrZeroVector is returned when a vector with zero magnitude cannot be
	// normalized.
	ErrZeroVector = errors.New("cannot normalize zero vector")
)
