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


package badger

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/experfolio/foliosearch/core"
	"github.com/experfolio/foliosearch/storage"
)

// PortfolioRepository implements storage.PortfolioRepository for BadgerDB.
type PortfolioRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.PortfolioRepository = (*PortfolioRepository)(nil)

// NewPortfolioRepository creates a repository on the given backend.
//
// Returns storage.PortfolioRepository interface to enforce abstraction.
func NewPortfolioRepository(backend *Backend) (storage.PortfolioRepository, error) {
	return newPortfolioRepository(backend)
}

func newPortfolioRepository(backend *Backend) (*PortfolioRepository, error) {
	idSeq, err := backend.GetSequence(portfolioIDSeq)
	if err != nil {
		return nil, err
	}

	return &PortfolioRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *PortfolioRepository) Close() error {
	return r.idSeq.Release()
}

// AddPortfolios adds one or more portfolios to storage.
func (r *PortfolioRepository) AddPortfolios(ctx context.Context, portfolios ...*core.Portfolio) ([]*core.Portfolio, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, portfolio := range portfolios {
			if err := core.ValidatePortfolio(portfolio); err != nil {
				return err
			}

			// Reject a second portfolio for the same user
			userKey := makeUserKey(portfolio.UserId)
			if _, err := tx.Get(userKey); err == nil {
				return storage.ErrDuplicateKey
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}

			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			portfolio.Id = core.ID(nextID)

			portfolio.InsertedAt = time.Now().UTC()
			portfolio.UpdatedAt = portfolio.InsertedAt
			portfolio.Processing.NeedsEmbedding = true

			if err := tx.Set(makePortfolioKey(portfolio.Id), storage.MarshalPortfolio(portfolio)); err != nil {
				return err
			}
			if err := tx.Set(userKey, storage.MarshalID(portfolio.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return portfolios, err
}

// GetPortfolio retrieves a single portfolio by ID.
func (r *PortfolioRepository) GetPortfolio(ctx context.Context, id core.ID) (*core.Portfolio, error) {
	var portfolio *core.Portfolio
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		portfolio, err = r.readPortfolio(tx, makePortfolioKey(id))
		if err != nil {
			return err
		}
		if portfolio == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return portfolio, nil
}

// GetPortfolios retrieves multiple portfolios by their IDs.
// Missing IDs are skipped without error.
func (r *PortfolioRepository) GetPortfolios(ctx context.Context, ids ...core.ID) ([]*core.Portfolio, error) {
	var portfolios []*core.Portfolio
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			portfolio, err := r.readPortfolio(tx, makePortfolioKey(id))
			if err != nil {
				return err
			}
			if portfolio != nil {
				portfolios = append(portfolios, portfolio)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return portfolios, nil
}

// GetPortfolioByUserId retrieves the portfolio owned by a user.
func (r *PortfolioRepository) GetPortfolioByUserId(ctx context.Context, userId string) (*core.Portfolio, error) {
	var portfolio *core.Portfolio
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeUserKey(userId))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}

		var id core.ID
		if err := item.Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return err
		}

		portfolio, err = r.readPortfolio(tx, makePortfolioKey(id))
		if err != nil {
			return err
		}
		if portfolio == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return portfolio, nil
}

// FindNeedingProcessing scans all portfolios and returns the ones the batch
// job should pick up, ordered by ascending ID.
func (r *PortfolioRepository) FindNeedingProcessing(ctx context.Context) ([]*core.Portfolio, error) {
	var portfolios []*core.Portfolio
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(portfolioPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			if bytes.Equal(item.Key(), []byte(portfolioIDSeq)) {
				continue
			}

			var portfolio *core.Portfolio
			err := item.Value(func(val []byte) error {
				var err error
				portfolio, err = storage.UnmarshalPortfolio(val)
				return err
			})
			if err != nil {
				return err
			}
			if portfolio != nil && portfolio.NeedsProcessing() {
				portfolios = append(portfolios, portfolio)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(portfolios, func(a, b *core.Portfolio) int {
		switch {
		case a.Id < b.Id:
			return -1
		case a.Id > b.Id:
			return 1
		default:
			return 0
		}
	})
	return portfolios, nil
}

// FindSimilar delegates to the backend.
func (r *PortfolioRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]core.PortfolioMatch, error) {
	return r.backend.FindSimilar(ctx, vector, minSimilarity, limit)
}

// UpdateEmbeddings atomically persists the processed state of a portfolio.
func (r *PortfolioRepository) UpdateEmbeddings(ctx context.Context, portfolio *core.Portfolio, text string, vector []float32, contentHash uint64) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makePortfolioKey(portfolio.Id)
		stored, err := r.readPortfolio(tx, key)
		if err != nil {
			return err
		}
		if stored == nil {
			return storage.ErrNotFound
		}

		now := time.Now().UTC()
		portfolio.Embedding = core.Embedding{
			SearchableText: text,
			Vector:         vector,
			ContentHash:    contentHash,
			UpdatedAt:      now,
		}
		portfolio.Processing.NeedsEmbedding = false
		portfolio.Processing.LastProcessed = now
		portfolio.UpdatedAt = now

		if err := tx.Set(key, storage.MarshalPortfolio(portfolio)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// MarkProcessedOnly persists attachment statuses and processing state
// without touching the stored embedding.
func (r *PortfolioRepository) MarkProcessedOnly(ctx context.Context, portfolio *core.Portfolio) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makePortfolioKey(portfolio.Id)
		stored, err := r.readPortfolio(tx, key)
		if err != nil {
			return err
		}
		if stored == nil {
			return storage.ErrNotFound
		}

		now := time.Now().UTC()
		portfolio.Embedding = stored.Embedding
		portfolio.Processing.NeedsEmbedding = false
		portfolio.Processing.LastProcessed = now
		portfolio.UpdatedAt = now

		if err := tx.Set(key, storage.MarshalPortfolio(portfolio)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// MarkForReprocessing flags portfolios for the next batch run.
func (r *PortfolioRepository) MarkForReprocessing(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makePortfolioKey(id)
			portfolio, err := r.readPortfolio(tx, key)
			if err != nil {
				return err
			}
			if portfolio == nil {
				return storage.ErrNotFound
			}

			portfolio.Processing.NeedsEmbedding = true
			portfolio.UpdatedAt = time.Now().UTC()

			if err := tx.Set(key, storage.MarshalPortfolio(portfolio)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// DeletePortfolios removes portfolios and their user index entries.
func (r *PortfolioRepository) DeletePortfolios(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makePortfolioKey(id)
			portfolio, err := r.readPortfolio(tx, key)
			if err != nil {
				return err
			}
			if portfolio == nil {
				return storage.ErrNotFound
			}

			if err := tx.Delete(key); err != nil {
				return err
			}
			if err := tx.Delete(makeUserKey(portfolio.UserId)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// readPortfolio reads and deserializes a portfolio by key.
// Returns nil (no error) when the key does not exist.
func (r *PortfolioRepository) readPortfolio(tx *badger.Txn, key []byte) (*core.Portfolio, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var portfolio *core.Portfolio
	err = item.Value(func(val []byte) error {
		var err error
		portfolio, err = storage.UnmarshalPortfolio(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return portfolio, nil
}
