// Package item persists the polymorphic item aggregate: a root row, the
// detail row chosen by the item type (or the contents of an equipment pack)
// and the property links.
package item

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/dndb/internal/storage"
	"github.com/mesh-intelligence/dndb/pkg/types"
)

const coreColumns = "id, name, description, cost_gp, type, weight_lbs"

func coreDest(it *types.ItemCore) []any {
	return []any{&it.ID, &it.Name, &it.Description, &it.CostGP, &it.Type, &it.WeightLbs}
}

// Repository reads and writes whole items through a storage gateway.
type Repository struct {
	gw storage.Gateway
}

// NewRepository returns a Repository over gw.
func NewRepository(gw storage.Gateway) *Repository {
	return &Repository{gw: gw}
}

// Get assembles the item with the given id.
func (r *Repository) Get(ctx context.Context, id string) (*types.Item, error) {
	if err := types.ValidateID("item", id); err != nil {
		return nil, err
	}
	var it *types.Item
	err := r.gw.View(ctx, func(q storage.Querier) error {
		var err error
		it, err = load(ctx, q, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return it, nil
}

// Create inserts the root, property links and type detail in one
// transaction and returns the item as read back after commit.
func (r *Repository) Create(ctx context.Context, it *types.Item) (*types.Item, error) {
	if it == nil {
		return nil, types.Invalid("item is required")
	}
	if err := it.Validate(); err != nil {
		return nil, err
	}

	id := types.NewID()
	err := r.gw.Update(ctx, func(q storage.Querier) error {
		if err := checkReferences(ctx, q, it); err != nil {
			return err
		}
		if _, err := q.Exec(ctx,
			"INSERT INTO items ("+coreColumns+") VALUES (?, ?, ?, ?, ?, ?)",
			id, it.Name, it.Description, it.CostGP, string(it.Type), it.WeightLbs); err != nil {
			return fmt.Errorf("inserting item: %w", err)
		}
		if err := insertProperties(ctx, q, id, it.Properties); err != nil {
			return err
		}
		return writeDetails(ctx, q, id, it.Type, it.Details)
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// Update rewrites the item in one transaction. Property links and pack
// contents are replaced wholesale, and every type's detail row is cleared
// before the current one is written, so changing the type leaves nothing
// stale behind.
func (r *Repository) Update(ctx context.Context, it *types.Item) (*types.Item, error) {
	if it == nil {
		return nil, types.Invalid("item is required")
	}
	if err := types.ValidateID("item", it.ID); err != nil {
		return nil, err
	}
	if err := it.Validate(); err != nil {
		return nil, err
	}

	err := r.gw.Update(ctx, func(q storage.Querier) error {
		res, err := q.Exec(ctx,
			"UPDATE items SET name = ?, description = ?, cost_gp = ?, type = ?, weight_lbs = ? WHERE id = ?",
			it.Name, it.Description, it.CostGP, string(it.Type), it.WeightLbs, it.ID)
		if err != nil {
			return fmt.Errorf("updating item: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("updating item: %w", err)
		}
		if n == 0 {
			return types.NotFound("item %s not found", it.ID)
		}
		if err := checkReferences(ctx, q, it); err != nil {
			return err
		}
		if err := replaceProperties(ctx, q, it.ID, it.Properties); err != nil {
			return err
		}
		if err := clearDetails(ctx, q, it.ID); err != nil {
			return err
		}
		return writeDetails(ctx, q, it.ID, it.Type, it.Details)
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, it.ID)
}

// Delete removes the item. Detail rows, property links, pack entries and
// inventory entries that point at it go by cascade.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := types.ValidateID("item", id); err != nil {
		return err
	}
	return r.gw.Update(ctx, func(q storage.Querier) error {
		res, err := q.Exec(ctx, "DELETE FROM items WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("deleting item: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("deleting item: %w", err)
		}
		if n == 0 {
			return types.NotFound("item %s not found", id)
		}
		return nil
	})
}

// List returns one page of items whose name contains page.Search, ignoring
// case, together with the total number of matches.
func (r *Repository) List(ctx context.Context, page types.Page) (*types.ItemPage, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}

	const where = " FROM items WHERE LOWER(name) LIKE ? ESCAPE '\\'"
	pattern := page.LikePattern()
	out := &types.ItemPage{Items: []types.ItemCore{}}
	err := r.gw.View(ctx, func(q storage.Querier) error {
		if err := q.QueryRow(ctx, "SELECT COUNT(*)"+where, pattern).Scan(&out.Total); err != nil {
			return fmt.Errorf("counting items: %w", err)
		}
		rows, err := q.Query(ctx,
			"SELECT "+coreColumns+where+" ORDER BY LOWER(name), id LIMIT ? OFFSET ?",
			pattern, page.Size, page.Offset())
		if err != nil {
			return fmt.Errorf("listing items: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var it types.ItemCore
			if err := rows.Scan(coreDest(&it)...); err != nil {
				return fmt.Errorf("scanning item: %w", err)
			}
			out.Items = append(out.Items, it)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// checkReferences verifies that every linked property and packed item
// exists.
func checkReferences(ctx context.Context, q storage.Querier, it *types.Item) error {
	ids := make([]string, len(it.Properties))
	for i, p := range it.Properties {
		ids[i] = p.PropertyID
	}
	missing, err := storage.Missing(ctx, q, "properties", ids)
	if err != nil {
		return fmt.Errorf("checking property references: %w", err)
	}
	if len(missing) > 0 {
		return types.NotFound("property not found: %s", strings.Join(missing, ", "))
	}

	pack, ok := it.Details.(*types.PackDetails)
	if !ok || len(pack.Contents) == 0 {
		return nil
	}
	ids = make([]string, len(pack.Contents))
	for i, c := range pack.Contents {
		ids[i] = c.ID
	}
	missing, err = storage.Missing(ctx, q, "items", ids)
	if err != nil {
		return fmt.Errorf("checking pack contents: %w", err)
	}
	if len(missing) > 0 {
		return types.NotFound("packed item not found: %s", strings.Join(missing, ", "))
	}
	return nil
}

func load(ctx context.Context, q storage.Querier, id string) (*types.Item, error) {
	it := &types.Item{}
	err := q.QueryRow(ctx, "SELECT "+coreColumns+" FROM items WHERE id = ?", id).Scan(coreDest(&it.ItemCore)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.NotFound("item %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading item: %w", err)
	}
	if it.Properties, err = loadProperties(ctx, q, id); err != nil {
		return nil, err
	}
	if it.Details, err = readDetails(ctx, q, id, it.Type); err != nil {
		return nil, err
	}
	return it, nil
}

func loadProperties(ctx context.Context, q storage.Querier, id string) ([]types.ItemProperty, error) {
	rows, err := q.Query(ctx,
		`SELECT p.id, p.name, p.description, ip.details
		   FROM item_properties ip
		   JOIN properties p ON p.id = ip.property_id
		  WHERE ip.item_id = ?
		  ORDER BY ip.position`, id)
	if err != nil {
		return nil, fmt.Errorf("reading item properties: %w", err)
	}
	defer rows.Close()
	props := []types.ItemProperty{}
	for rows.Next() {
		var p types.ItemProperty
		if err := rows.Scan(&p.PropertyID, &p.Name, &p.Description, &p.Details); err != nil {
			return nil, fmt.Errorf("scanning item property: %w", err)
		}
		props = append(props, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading item properties: %w", err)
	}
	return props, nil
}

// replaceProperties deletes every property link of the item and inserts
// links. It never diffs against what is stored.
func replaceProperties(ctx context.Context, q storage.Querier, id string, links []types.ItemProperty) error {
	if _, err := q.Exec(ctx, "DELETE FROM item_properties WHERE item_id = ?", id); err != nil {
		return fmt.Errorf("clearing item properties: %w", err)
	}
	return insertProperties(ctx, q, id, links)
}

func insertProperties(ctx context.Context, q storage.Querier, id string, links []types.ItemProperty) error {
	for i, p := range links {
		if _, err := q.Exec(ctx,
			"INSERT INTO item_properties (item_id, property_id, details, position) VALUES (?, ?, ?, ?)",
			id, p.PropertyID, p.Details, i); err != nil {
			return fmt.Errorf("inserting item property: %w", err)
		}
	}
	return nil
}
