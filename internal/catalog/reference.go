package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/dndb/internal/storage"
	"github.com/mesh-intelligence/dndb/pkg/types"
)

// Traits stores character traits.
type Traits struct {
	gw storage.Gateway
}

// Get returns the trait with the given id.
func (s *Traits) Get(ctx context.Context, id string) (*types.Trait, error) {
	if err := types.ValidateID("trait", id); err != nil {
		return nil, err
	}
	var t types.Trait
	err := s.gw.View(ctx, func(q storage.Querier) error {
		return getRow(ctx, q, "trait",
			"SELECT id, name, description FROM traits WHERE id = ?", id,
			&t.ID, &t.Name, &t.Description)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a trait under a fresh id.
func (s *Traits) Create(ctx context.Context, in types.Trait) (*types.Trait, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, types.Invalid("trait name is required")
	}
	in.ID = types.NewID()
	err := s.gw.Update(ctx, func(q storage.Querier) error {
		_, err := q.Exec(ctx, "INSERT INTO traits (id, name, description) VALUES (?, ?, ?)", in.ID, in.Name, in.Description)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &in, nil
}

// List returns one page of traits filtered on name.
func (s *Traits) List(ctx context.Context, page types.Page) (*types.TraitPage, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	out := &types.TraitPage{Traits: []types.Trait{}}
	err := s.gw.View(ctx, func(q storage.Querier) error {
		var err error
		out.Total, err = listPage(ctx, q, "traits", "id, name, description", "name", page, func(rows *sql.Rows) error {
			var t types.Trait
			if err := rows.Scan(&t.ID, &t.Name, &t.Description); err != nil {
				return err
			}
			out.Traits = append(out.Traits, t)
			return nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Proficiencies stores character proficiencies.
type Proficiencies struct {
	gw storage.Gateway
}

// Get returns the proficiency with the given id.
func (s *Proficiencies) Get(ctx context.Context, id string) (*types.Proficiency, error) {
	if err := types.ValidateID("proficiency", id); err != nil {
		return nil, err
	}
	var p types.Proficiency
	err := s.gw.View(ctx, func(q storage.Querier) error {
		return getRow(ctx, q, "proficiency",
			"SELECT id, name, type FROM proficiencies WHERE id = ?", id,
			&p.ID, &p.Name, &p.Type)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a proficiency under a fresh id.
func (s *Proficiencies) Create(ctx context.Context, in types.Proficiency) (*types.Proficiency, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, types.Invalid("proficiency name is required")
	}
	in.ID = types.NewID()
	err := s.gw.Update(ctx, func(q storage.Querier) error {
		_, err := q.Exec(ctx, "INSERT INTO proficiencies (id, name, type) VALUES (?, ?, ?)", in.ID, in.Name, in.Type)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &in, nil
}

// List returns one page of proficiencies filtered on name.
func (s *Proficiencies) List(ctx context.Context, page types.Page) (*types.ProficiencyPage, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	out := &types.ProficiencyPage{Proficiencies: []types.Proficiency{}}
	err := s.gw.View(ctx, func(q storage.Querier) error {
		var err error
		out.Total, err = listPage(ctx, q, "proficiencies", "id, name, type", "name", page, func(rows *sql.Rows) error {
			var p types.Proficiency
			if err := rows.Scan(&p.ID, &p.Name, &p.Type); err != nil {
				return err
			}
			out.Proficiencies = append(out.Proficiencies, p)
			return nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Properties stores item properties.
type Properties struct {
	gw storage.Gateway
}

// Get returns the property with the given id.
func (s *Properties) Get(ctx context.Context, id string) (*types.Property, error) {
	if err := types.ValidateID("property", id); err != nil {
		return nil, err
	}
	var p types.Property
	err := s.gw.View(ctx, func(q storage.Querier) error {
		return getRow(ctx, q, "property",
			"SELECT id, name, description FROM properties WHERE id = ?", id,
			&p.ID, &p.Name, &p.Description)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a property under a fresh id.
func (s *Properties) Create(ctx context.Context, in types.Property) (*types.Property, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, types.Invalid("property name is required")
	}
	in.ID = types.NewID()
	err := s.gw.Update(ctx, func(q storage.Querier) error {
		_, err := q.Exec(ctx, "INSERT INTO properties (id, name, description) VALUES (?, ?, ?)", in.ID, in.Name, in.Description)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &in, nil
}

// Update rewrites the property's name and description.
func (s *Properties) Update(ctx context.Context, in types.Property) (*types.Property, error) {
	if err := types.ValidateID("property", in.ID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, types.Invalid("property name is required")
	}
	err := s.gw.Update(ctx, func(q storage.Querier) error {
		res, err := q.Exec(ctx, "UPDATE properties SET name = ?, description = ? WHERE id = ?", in.Name, in.Description, in.ID)
		if err != nil {
			return fmt.Errorf("updating property: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("updating property: %w", err)
		}
		if n == 0 {
			return types.NotFound("property %s not found", in.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &in, nil
}

// Delete removes the property and every item link to it.
func (s *Properties) Delete(ctx context.Context, id string) error {
	if err := types.ValidateID("property", id); err != nil {
		return err
	}
	return s.gw.Update(ctx, func(q storage.Querier) error {
		return deleteByID(ctx, q, "properties", "property", id)
	})
}

// List returns one page of properties filtered on name.
func (s *Properties) List(ctx context.Context, page types.Page) (*types.PropertyPage, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	out := &types.PropertyPage{Properties: []types.Property{}}
	err := s.gw.View(ctx, func(q storage.Querier) error {
		var err error
		out.Total, err = listPage(ctx, q, "properties", "id, name, description", "name", page, func(rows *sql.Rows) error {
			var p types.Property
			if err := rows.Scan(&p.ID, &p.Name, &p.Description); err != nil {
				return err
			}
			out.Properties = append(out.Properties, p)
			return nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// getRow scans a single row selected by id, mapping absence to NotFound.
func getRow(ctx context.Context, q storage.Querier, what, query, id string, dest ...any) error {
	err := q.QueryRow(ctx, query, id).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return types.NotFound("%s %s not found", what, id)
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", what, err)
	}
	return nil
}
