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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidPortfolio indicates a Portfolio failed validation.
	ErrInvalidPortfolio = errors.New("invalid portfolio")

	// ErrEmptyUserId indicates the UserId field is empty.
	ErrEmptyUserId = errors.New("user id cannot be empty")

	// ErrInvalidQuery indicates a search query failed validation.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrEmptyQuery indicates the query is empty or only whitespace.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrQueryTooLong indicates the query exceeds the maximum length.
	ErrQueryTooLong = errors.New("query exceeds maximum length")

	// ErrScoreOutOfRange indicates a match score outside [0, 1].
	ErrScoreOutOfRange = errors.New("match score out of range")
)
