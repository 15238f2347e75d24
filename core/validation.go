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

import (
	"fmt"
	"strings"
)

// MaxQueryLength is the maximum accepted search query length in characters.
const MaxQueryLength = 500

// ValidatePortfolio validates a Portfolio according to domain rules.
//
// Validation rules:
//   - UserId must not be empty
//
// NOT validated (populated by the batch processor):
//   - Embedding (empty until processed)
//   - Processing.LastProcessed (zero until processed)
//   - ID (0 is valid from database sequences)
func ValidatePortfolio(p *Portfolio) error {
	if p == nil {
		return fmt.Errorf("%w: portfolio is nil", ErrInvalidPortfolio)
	}

	if p.UserId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPortfolio, ErrEmptyUserId)
	}

	return nil
}

// ValidateQuery trims and validates a search query. Returns the trimmed
// query, or an error wrapping ErrInvalidQuery when the query is empty or
// exceeds MaxQueryLength.
func ValidateQuery(query string) (string, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return "", fmt.Errorf("%w: %w", ErrInvalidQuery, ErrEmptyQuery)
	}
	if len([]rune(trimmed)) > MaxQueryLength {
		return "", fmt.Errorf("%w: %w (%d > %d)", ErrInvalidQuery, ErrQueryTooLong, len([]rune(trimmed)), MaxQueryLength)
	}
	return trimmed, nil
}

// ValidateMatchScore checks that an analysis score is within [0, 1].
// Out-of-range scores are invalid input, not clamped.
func ValidateMatchScore(score float64) error {
	if score < 0.0 || score > 1.0 {
		return fmt.Errorf("%w: %v", ErrScoreOutOfRange, score)
	}
	return nil
}
