package badger

import (
	"fmt"

	"github.com/experfolio/foliosearch/core"
)

// Key prefixes for different data types
const (
	portfolioPrefix     = "folrec"
	portfolioUserPrefix = "foluid"
	portfolioIDSeq      = "folrecseq"
)

// makePortfolioKey generates a key for a portfolio by ID.
func makePortfolioKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", portfolioPrefix, id))
}

// makeUserKey generates a key for the user index.
// Format: prefix:userId
func makeUserKey(userId string) []byte {
	return []byte(fmt.Sprintf("%s:%s", portfolioUserPrefix, userId))
}
