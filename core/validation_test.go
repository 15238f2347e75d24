package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePortfolio(t *testing.T) {
	err := ValidatePortfolio(nil)
	assert.ErrorIs(t, err, ErrInvalidPortfolio)

	err = ValidatePortfolio(&Portfolio{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyUserId)

	err = ValidatePortfolio(&Portfolio{UserId: "user-1"})
	assert.NoError(t, err)
}

func TestValidateQuery(t *testing.T) {
	q, err := ValidateQuery("  react developer  ")
	require.NoError(t, err)
	assert.Equal(t, "react developer", q)

	_, err = ValidateQuery("   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = ValidateQuery(strings.Repeat("a", MaxQueryLength+1))
	assert.ErrorIs(t, err, ErrQueryTooLong)

	q, err = ValidateQuery(strings.Repeat("a", MaxQueryLength))
	require.NoError(t, err)
	assert.Len(t, q, MaxQueryLength)
}

func TestValidateMatchScore(t *testing.T) {
	assert.NoError(t, ValidateMatchScore(0.0))
	assert.NoError(t, ValidateMatchScore(1.0))
	assert.NoError(t, ValidateMatchScore(0.73))
	assert.ErrorIs(t, ValidateMatchScore(-0.1), ErrScoreOutOfRange)
	assert.ErrorIs(t, ValidateMatchScore(1.5), ErrScoreOutOfRange)
}
