// Package dndb wires the storage gateway and the aggregate engines into a
// single handle.
package dndb

import (
	"context"

	"github.com/mesh-intelligence/dndb/internal/campaign"
	"github.com/mesh-intelligence/dndb/internal/catalog"
	"github.com/mesh-intelligence/dndb/internal/character"
	"github.com/mesh-intelligence/dndb/internal/item"
	"github.com/mesh-intelligence/dndb/internal/storage"
	"github.com/mesh-intelligence/dndb/pkg/types"
)

// Version is the release of the engine and CLI.
const Version = "0.3.0"

// Store is an open database with every engine bound to it.
type Store struct {
	db *storage.DB

	Characters *character.Repository
	Items      *item.Repository
	Campaigns  *campaign.Engine
	Catalog    *catalog.Catalog
}

// Open opens (and migrates) the configured backend.
func Open(ctx context.Context, cfg types.Config) (*Store, error) {
	db, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(db, cfg.PasswordCost()), nil
}

// New binds the engines to an already open database.
func New(db *storage.DB, bcryptCost int) *Store {
	return &Store{
		db:         db,
		Characters: character.NewRepository(db),
		Items:      item.NewRepository(db),
		Campaigns:  campaign.NewEngine(db, campaign.WithBcryptCost(bcryptCost)),
		Catalog:    catalog.New(db, bcryptCost),
	}
}

// Seed loads the bundled reference catalog. Rows already present are left
// alone.
func (s *Store) Seed(ctx context.Context) (*catalog.SeedResult, error) {
	data, err := catalog.DefaultSeed()
	if err != nil {
		return nil, err
	}
	return catalog.Seed(ctx, s.db, data)
}

// Dialect reports which backend the store is attached to.
func (s *Store) Dialect() storage.Dialect { return s.db.Dialect() }

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
