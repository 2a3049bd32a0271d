package catalog

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/dndb/internal/storage"
	"github.com/mesh-intelligence/dndb/pkg/types"
)

//go:embed seed.yaml
var seedYAML []byte

// seedNamespace roots the name-derived ids of seeded rows.
var seedNamespace = uuid.MustParse("6f1c4a52-3b0e-4f7d-9a8e-2d5b7c9e1f30")

// SeedData is the reference data loaded by Seed.
type SeedData struct {
	Properties    []types.Property    `yaml:"properties"`
	Proficiencies []types.Proficiency `yaml:"proficiencies"`
	Traits        []types.Trait       `yaml:"traits"`
}

// SeedResult counts the rows Seed actually inserted.
type SeedResult struct {
	Properties    int
	Proficiencies int
	Traits        int
}

// DefaultSeed parses the embedded reference data.
func DefaultSeed() (*SeedData, error) {
	var data SeedData
	if err := yaml.Unmarshal(seedYAML, &data); err != nil {
		return nil, fmt.Errorf("parsing seed data: %w", err)
	}
	return &data, nil
}

// SeedID is the id a seeded row of kind gets for name.
func SeedID(kind, name string) string {
	return uuid.NewSHA1(seedNamespace, []byte(kind+"/"+name)).String()
}

// Seed inserts data in one transaction. Rows already present are left
// alone, so seeding twice is a no-op.
func Seed(ctx context.Context, gw storage.Gateway, data *SeedData) (*SeedResult, error) {
	res := &SeedResult{}
	err := gw.Update(ctx, func(q storage.Querier) error {
		for _, p := range data.Properties {
			n, err := seedRow(ctx, q,
				"INSERT INTO properties (id, name, description) VALUES (?, ?, ?) ON CONFLICT (id) DO NOTHING",
				SeedID("property", p.Name), p.Name, p.Description)
			if err != nil {
				return fmt.Errorf("seeding property %s: %w", p.Name, err)
			}
			res.Properties += n
		}
		for _, p := range data.Proficiencies {
			n, err := seedRow(ctx, q,
				"INSERT INTO proficiencies (id, name, type) VALUES (?, ?, ?) ON CONFLICT (id) DO NOTHING",
				SeedID("proficiency", p.Name), p.Name, p.Type)
			if err != nil {
				return fmt.Errorf("seeding proficiency %s: %w", p.Name, err)
			}
			res.Proficiencies += n
		}
		for _, t := range data.Traits {
			n, err := seedRow(ctx, q,
				"INSERT INTO traits (id, name, description) VALUES (?, ?, ?) ON CONFLICT (id) DO NOTHING",
				SeedID("trait", t.Name), t.Name, t.Description)
			if err != nil {
				return fmt.Errorf("seeding trait %s: %w", t.Name, err)
			}
			res.Traits += n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func seedRow(ctx context.Context, q storage.Querier, query string, args ...any) (int, error) {
	r, err := q.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := r.RowsAffected()
	return int(n), err
}
