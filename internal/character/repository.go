// Package character persists the character sheet aggregate: the root row,
// six mandatory 1:1 child rows and three link collections.
package character

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/dndb/internal/storage"
	"github.com/mesh-intelligence/dndb/pkg/types"
)

// Repository reads and writes whole characters through a storage gateway.
type Repository struct {
	gw storage.Gateway
}

// NewRepository returns a Repository over gw.
func NewRepository(gw storage.Gateway) *Repository {
	return &Repository{gw: gw}
}

// Get assembles the character with the given id. A missing mandatory child
// row is reported as a storage failure wrapping types.ErrMissingChild.
func (r *Repository) Get(ctx context.Context, id string) (*types.Character, error) {
	if err := types.ValidateID("character", id); err != nil {
		return nil, err
	}
	var c *types.Character
	err := r.gw.View(ctx, func(q storage.Querier) error {
		var err error
		c, err = load(ctx, q, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts the root and every child in one transaction and returns
// the character as read back after commit. The input id is ignored.
func (r *Repository) Create(ctx context.Context, c *types.Character) (*types.Character, error) {
	if c == nil {
		return nil, types.Invalid("character is required")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	id := types.NewID()
	err := r.gw.Update(ctx, func(q storage.Querier) error {
		if err := checkReferences(ctx, q, c); err != nil {
			return err
		}
		if err := insertCore(ctx, q, id, &c.CharacterCore); err != nil {
			return err
		}
		if err := insertSheet(ctx, q, id, c); err != nil {
			return err
		}
		if err := insertProficiencies(ctx, q, id, c.Proficiencies); err != nil {
			return err
		}
		if err := insertTraits(ctx, q, id, c.Traits); err != nil {
			return err
		}
		return insertItems(ctx, q, id, c.Items)
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// Update rewrites the character in one transaction. The 1:1 rows are
// updated in place; the link collections are replaced wholesale.
func (r *Repository) Update(ctx context.Context, c *types.Character) (*types.Character, error) {
	if c == nil {
		return nil, types.Invalid("character is required")
	}
	if err := types.ValidateID("character", c.ID); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	err := r.gw.Update(ctx, func(q storage.Querier) error {
		var owner string
		err := q.QueryRow(ctx, "SELECT owner_id FROM characters WHERE id = ?", c.ID).Scan(&owner)
		if errors.Is(err, sql.ErrNoRows) {
			return types.NotFound("character %s not found", c.ID)
		}
		if err != nil {
			return fmt.Errorf("checking character: %w", err)
		}
		// A membership row vouches that its player owns the character.
		if owner != c.OwnerID {
			joined, err := storage.Exists(ctx, q, "SELECT 1 FROM campaigns_users WHERE character_id = ?", c.ID)
			if err != nil {
				return fmt.Errorf("checking memberships: %w", err)
			}
			if joined {
				return types.Conflict("character %s is in a campaign and cannot change owner", c.ID)
			}
		}
		if err := checkReferences(ctx, q, c); err != nil {
			return err
		}
		if err := updateCore(ctx, q, &c.CharacterCore); err != nil {
			return err
		}
		if err := updateSheet(ctx, q, c.ID, c); err != nil {
			return err
		}
		if err := replaceProficiencies(ctx, q, c.ID, c.Proficiencies); err != nil {
			return err
		}
		if err := replaceTraits(ctx, q, c.ID, c.Traits); err != nil {
			return err
		}
		return replaceItems(ctx, q, c.ID, c.Items)
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, c.ID)
}

// Delete removes the character. Child rows and campaign references go by
// cascade.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := types.ValidateID("character", id); err != nil {
		return err
	}
	return r.gw.Update(ctx, func(q storage.Querier) error {
		res, err := q.Exec(ctx, "DELETE FROM characters WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("deleting character: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("deleting character: %w", err)
		}
		if n == 0 {
			return types.NotFound("character %s not found", id)
		}
		return nil
	})
}

// ListByOwner returns one page of ownerID's characters whose name contains
// page.Search, ignoring case. Total counts every match, not just this page.
func (r *Repository) ListByOwner(ctx context.Context, ownerID string, page types.Page) (*types.CharacterPage, error) {
	if err := types.ValidateID("owner", ownerID); err != nil {
		return nil, err
	}
	if err := page.Validate(); err != nil {
		return nil, err
	}

	const where = " FROM characters WHERE owner_id = ? AND LOWER(name) LIKE ? ESCAPE '\\'"
	pattern := page.LikePattern()
	out := &types.CharacterPage{Characters: []types.CharacterCore{}}
	err := r.gw.View(ctx, func(q storage.Querier) error {
		if err := q.QueryRow(ctx, "SELECT COUNT(*)"+where, ownerID, pattern).Scan(&out.Total); err != nil {
			return fmt.Errorf("counting characters: %w", err)
		}
		rows, err := q.Query(ctx,
			"SELECT "+coreColumns+where+" ORDER BY LOWER(name), id LIMIT ? OFFSET ?",
			ownerID, pattern, page.Size, page.Offset())
		if err != nil {
			return fmt.Errorf("listing characters: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var c types.CharacterCore
			if err := rows.Scan(coreDest(&c)...); err != nil {
				return fmt.Errorf("scanning character: %w", err)
			}
			out.Characters = append(out.Characters, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// checkReferences verifies that the owner and every linked proficiency,
// trait and item exist, so a dangling id fails as NotFound instead of as a
// foreign key error.
func checkReferences(ctx context.Context, q storage.Querier, c *types.Character) error {
	ok, err := storage.Exists(ctx, q, "SELECT 1 FROM users WHERE id = ?", c.OwnerID)
	if err != nil {
		return fmt.Errorf("checking owner: %w", err)
	}
	if !ok {
		return types.NotFound("owner %s not found", c.OwnerID)
	}
	for _, ref := range []struct {
		what  string
		table string
		ids   []string
	}{
		{"proficiency", "proficiencies", c.ProficiencyIDs()},
		{"trait", "traits", c.TraitIDs()},
		{"item", "items", c.ItemIDs()},
	} {
		missing, err := storage.Missing(ctx, q, ref.table, ref.ids)
		if err != nil {
			return fmt.Errorf("checking %s references: %w", ref.what, err)
		}
		if len(missing) > 0 {
			return types.NotFound("%s not found: %s", ref.what, strings.Join(missing, ", "))
		}
	}
	return nil
}
