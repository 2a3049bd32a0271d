package item_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/dndb/internal/item"
	"github.com/mesh-intelligence/dndb/internal/storage"
	"github.com/mesh-intelligence/dndb/internal/storage/storagetest"
	"github.com/mesh-intelligence/dndb/pkg/types"
)

func setupRepo(t *testing.T) (*storage.DB, *item.Repository) {
	t.Helper()
	db := storagetest.Open(t)
	return db, item.NewRepository(db)
}

func longsword() *types.Item {
	return &types.Item{
		ItemCore: types.ItemCore{
			Name:        "Longsword",
			Description: "A versatile blade",
			CostGP:      15,
			Type:        types.ItemWeapon,
			WeightLbs:   3,
		},
		Details: &types.WeaponDetails{
			Category:   "Martial Melee",
			DamageDice: "1d8",
			DamageType: "slashing",
		},
	}
}

func TestCreateRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		item func(db *storage.DB, t *testing.T) *types.Item
	}{
		{
			name: "weapon with properties",
			item: func(db *storage.DB, t *testing.T) *types.Item {
				it := longsword()
				it.Properties = []types.ItemProperty{
					{PropertyID: storagetest.Property(t, db, "Versatile"), Details: "1d10"},
				}
				return it
			},
		},
		{
			name: "ranged weapon",
			item: func(*storage.DB, *testing.T) *types.Item {
				return &types.Item{
					ItemCore: types.ItemCore{Name: "Longbow", CostGP: 50, Type: types.ItemWeapon, WeightLbs: 2},
					Details: &types.WeaponDetails{
						Category: "Martial Ranged", DamageDice: "1d8", DamageType: "piercing",
						RangeNormal: 150, RangeLong: 600,
					},
				}
			},
		},
		{
			name: "armor",
			item: func(*storage.DB, *testing.T) *types.Item {
				return &types.Item{
					ItemCore: types.ItemCore{Name: "Chain Mail", CostGP: 75, Type: types.ItemArmor, WeightLbs: 55},
					Details: &types.ArmorDetails{
						Category: "Heavy", BaseAC: 16, StrengthRequirement: 13, StealthDisadvantage: true,
					},
				}
			},
		},
		{
			name: "adventuring gear",
			item: func(*storage.DB, *testing.T) *types.Item {
				return &types.Item{
					ItemCore: types.ItemCore{Name: "Crowbar", CostGP: 2, Type: types.ItemAdventuringGear, WeightLbs: 5},
					Details:  &types.GearDetails{Category: "Standard Gear"},
				}
			},
		},
		{
			name: "tool",
			item: func(*storage.DB, *testing.T) *types.Item {
				return &types.Item{
					ItemCore: types.ItemCore{Name: "Thieves' Tools", CostGP: 25, Type: types.ItemTool, WeightLbs: 1},
					Details:  &types.ToolDetails{Category: "Other Tools"},
				}
			},
		},
		{
			name: "empty pack",
			item: func(*storage.DB, *testing.T) *types.Item {
				return &types.Item{
					ItemCore: types.ItemCore{Name: "Empty Sack", Type: types.ItemEquipmentPack},
					Details:  &types.PackDetails{Contents: []types.PackContent{}},
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, repo := setupRepo(t)
			ctx := context.Background()
			in := tt.item(db, t)

			got, err := repo.Create(ctx, in)
			require.NoError(t, err)
			require.NoError(t, types.ValidateID("item", got.ID))

			assert.Equal(t, in.Name, got.Name)
			assert.Equal(t, in.Type, got.Type)
			assert.Equal(t, in.CostGP, got.CostGP)
			assert.Equal(t, in.WeightLbs, got.WeightLbs)
			assert.Equal(t, in.Details, got.Details)
			require.Len(t, got.Properties, len(in.Properties))
			for i := range in.Properties {
				assert.Equal(t, in.Properties[i].PropertyID, got.Properties[i].PropertyID)
				assert.Equal(t, in.Properties[i].Details, got.Properties[i].Details)
			}

			again, err := repo.Get(ctx, got.ID)
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestPackContentsAreJoinedWithNames(t *testing.T) {
	db, repo := setupRepo(t)
	ctx := context.Background()
	torch := storagetest.Gear(t, db, "Torch")
	rations := storagetest.Gear(t, db, "Rations (1 day)")

	body := fmt.Sprintf(`{
		"name": "Explorer's Pack",
		"cost_gp": 10,
		"type": "Equipment Pack",
		"weight_lbs": 59,
		"details": {"contents": [
			{"content_id": %q, "amount": 2},
			{"content_id": %q, "amount": 10}
		]}
	}`, torch, rations)
	var in types.Item
	require.NoError(t, json.Unmarshal([]byte(body), &in))

	created, err := repo.Create(ctx, &in)
	require.NoError(t, err)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	pack, ok := got.Details.(*types.PackDetails)
	require.True(t, ok, "details are %T", got.Details)
	assert.Equal(t, []types.PackContent{
		{ID: torch, Name: "Torch", Amount: 2},
		{ID: rations, Name: "Rations (1 day)", Amount: 10},
	}, pack.Contents)
	assert.Equal(t, 0, storagetest.Count(t, db, "SELECT COUNT(*) FROM items_adventuring_gear WHERE item_id = ?", created.ID))

	out, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"contents":[{"id":"`+torch+`","name":"Torch","amount":2}`)
}

func TestCreateRejectsBeforeWriting(t *testing.T) {
	tests := []struct {
		name  string
		build func(db *storage.DB, t *testing.T) *types.Item
		kind  types.Kind
		cause error
	}{
		{
			name: "unknown type",
			build: func(*storage.DB, *testing.T) *types.Item {
				it := longsword()
				it.Type = "Spell Scroll"
				return it
			},
			kind:  types.KindInvalidInput,
			cause: types.ErrInvalidItemType,
		},
		{
			name: "details of another type",
			build: func(*storage.DB, *testing.T) *types.Item {
				it := longsword()
				it.Details = &types.ToolDetails{}
				return it
			},
			kind: types.KindInvalidInput,
		},
		{
			name: "unknown property",
			build: func(*storage.DB, *testing.T) *types.Item {
				it := longsword()
				it.Properties = []types.ItemProperty{{PropertyID: types.NewID()}}
				return it
			},
			kind: types.KindNotFound,
		},
		{
			name: "unknown pack content",
			build: func(*storage.DB, *testing.T) *types.Item {
				return &types.Item{
					ItemCore: types.ItemCore{Name: "Ghost Pack", Type: types.ItemEquipmentPack},
					Details: &types.PackDetails{Contents: []types.PackContent{
						{ID: types.NewID(), Amount: 1},
					}},
				}
			},
			kind: types.KindNotFound,
		},
		{
			name: "duplicate pack content",
			build: func(db *storage.DB, t *testing.T) *types.Item {
				torch := storagetest.Gear(t, db, "Torch")
				return &types.Item{
					ItemCore: types.ItemCore{Name: "Double Pack", Type: types.ItemEquipmentPack},
					Details: &types.PackDetails{Contents: []types.PackContent{
						{ID: torch, Amount: 1}, {ID: torch, Amount: 2},
					}},
				}
			},
			kind: types.KindInvalidInput,
		},
		{
			name: "negative cost",
			build: func(*storage.DB, *testing.T) *types.Item {
				it := longsword()
				it.CostGP = -1
				return it
			},
			kind: types.KindInvalidInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, repo := setupRepo(t)
			in := tt.build(db, t)
			before := storagetest.Count(t, db, "SELECT COUNT(*) FROM items")

			_, err := repo.Create(context.Background(), in)
			require.Error(t, err)
			assert.Equal(t, tt.kind, types.KindOf(err))
			if tt.cause != nil {
				assert.ErrorIs(t, err, tt.cause)
			}
			assert.Equal(t, before, storagetest.Count(t, db, "SELECT COUNT(*) FROM items"))
			assert.Equal(t, 0, storagetest.Count(t, db, "SELECT COUNT(*) FROM item_properties"))
			assert.Equal(t, 0, storagetest.Count(t, db, "SELECT COUNT(*) FROM items_weapon"))
		})
	}
}

func TestUpdate(t *testing.T) {
	tests := []struct {
		name  string
		check func(t *testing.T, db *storage.DB, repo *item.Repository, created *types.Item)
	}{
		{
			name: "changing type drops the old detail row",
			check: func(t *testing.T, db *storage.DB, repo *item.Repository, created *types.Item) {
				in := &types.Item{
					ItemCore: created.ItemCore,
					Details:  &types.GearDetails{Category: "Wall Decoration"},
				}
				in.Type = types.ItemAdventuringGear

				got, err := repo.Update(context.Background(), in)
				require.NoError(t, err)
				assert.Equal(t, &types.GearDetails{Category: "Wall Decoration"}, got.Details)
				assert.Equal(t, 0, storagetest.Count(t, db, "SELECT COUNT(*) FROM items_weapon"))
				assert.Equal(t, 1, storagetest.Count(t, db, "SELECT COUNT(*) FROM items_adventuring_gear"))
			},
		},
		{
			name: "same type updates the detail row",
			check: func(t *testing.T, db *storage.DB, repo *item.Repository, created *types.Item) {
				in := longsword()
				in.ID = created.ID
				in.Name = "Longsword +1"
				in.Details.(*types.WeaponDetails).DamageDice = "1d8+1"

				got, err := repo.Update(context.Background(), in)
				require.NoError(t, err)
				assert.Equal(t, "Longsword +1", got.Name)
				assert.Equal(t, "1d8+1", got.Details.(*types.WeaponDetails).DamageDice)
				assert.Equal(t, 1, storagetest.Count(t, db, "SELECT COUNT(*) FROM items_weapon"))
			},
		},
		{
			name: "property links are replaced",
			check: func(t *testing.T, db *storage.DB, repo *item.Repository, created *types.Item) {
				finesse := storagetest.Property(t, db, "Finesse")
				light := storagetest.Property(t, db, "Light")
				in := longsword()
				in.ID = created.ID
				in.Properties = []types.ItemProperty{{PropertyID: light}, {PropertyID: finesse}}

				got, err := repo.Update(context.Background(), in)
				require.NoError(t, err)
				require.Len(t, got.Properties, 2)
				assert.Equal(t, "Light", got.Properties[0].Name)
				assert.Equal(t, "Finesse", got.Properties[1].Name)
				assert.Equal(t, 2, storagetest.Count(t, db, "SELECT COUNT(*) FROM item_properties"))
			},
		},
		{
			name: "pack turned into a tool loses its contents",
			check: func(t *testing.T, db *storage.DB, repo *item.Repository, created *types.Item) {
				ctx := context.Background()
				pack, err := repo.Create(ctx, &types.Item{
					ItemCore: types.ItemCore{Name: "Burglar's Pack", Type: types.ItemEquipmentPack},
					Details:  &types.PackDetails{Contents: []types.PackContent{{ID: created.ID, Amount: 1}}},
				})
				require.NoError(t, err)

				_, err = repo.Update(ctx, &types.Item{
					ItemCore: types.ItemCore{ID: pack.ID, Name: "Burglar's Kit", Type: types.ItemTool},
					Details:  &types.ToolDetails{Category: "Kit"},
				})
				require.NoError(t, err)
				assert.Equal(t, 0, storagetest.Count(t, db, "SELECT COUNT(*) FROM items_equipment_packs"))
			},
		},
		{
			name: "a pack may not contain itself",
			check: func(t *testing.T, _ *storage.DB, repo *item.Repository, created *types.Item) {
				_, err := repo.Update(context.Background(), &types.Item{
					ItemCore: types.ItemCore{ID: created.ID, Name: "Klein Bottle", Type: types.ItemEquipmentPack},
					Details:  &types.PackDetails{Contents: []types.PackContent{{ID: created.ID, Amount: 1}}},
				})
				assert.ErrorIs(t, err, types.ErrInvalidInput)
			},
		},
		{
			name: "unknown item is not found",
			check: func(t *testing.T, _ *storage.DB, repo *item.Repository, _ *types.Item) {
				in := longsword()
				in.ID = types.NewID()
				_, err := repo.Update(context.Background(), in)
				assert.ErrorIs(t, err, types.ErrNotFound)
			},
		},
		{
			name: "failed update keeps the previous aggregate",
			check: func(t *testing.T, _ *storage.DB, repo *item.Repository, created *types.Item) {
				in := longsword()
				in.ID = created.ID
				in.Name = "Renamed"
				in.Properties = []types.ItemProperty{{PropertyID: types.NewID()}}

				_, err := repo.Update(context.Background(), in)
				require.ErrorIs(t, err, types.ErrNotFound)
				got, err := repo.Get(context.Background(), created.ID)
				require.NoError(t, err)
				assert.Equal(t, created, got)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, repo := setupRepo(t)
			created, err := repo.Create(context.Background(), longsword())
			require.NoError(t, err)
			tt.check(t, db, repo, created)
		})
	}
}

func TestGet(t *testing.T) {
	db, repo := setupRepo(t)
	ctx := context.Background()

	_, err := repo.Get(ctx, "1234")
	assert.ErrorIs(t, err, types.ErrInvalidID)

	_, err = repo.Get(ctx, types.NewID())
	assert.ErrorIs(t, err, types.ErrNotFound)

	created, err := repo.Create(ctx, longsword())
	require.NoError(t, err)
	storagetest.Exec(t, db, "DELETE FROM items_weapon WHERE item_id = ?", created.ID)
	_, err = repo.Get(ctx, created.ID)
	assert.ErrorIs(t, err, types.ErrMissingChild)
	assert.Equal(t, types.KindStorage, types.KindOf(err))
}

func TestDelete(t *testing.T) {
	db, repo := setupRepo(t)
	ctx := context.Background()
	torch := storagetest.Gear(t, db, "Torch")
	sword, err := repo.Create(ctx, longsword())
	require.NoError(t, err)
	pack, err := repo.Create(ctx, &types.Item{
		ItemCore: types.ItemCore{Name: "Dungeoneer's Pack", Type: types.ItemEquipmentPack},
		Details: &types.PackDetails{Contents: []types.PackContent{
			{ID: torch, Amount: 10}, {ID: sword.ID, Amount: 1},
		}},
	})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, sword.ID))
	assert.Equal(t, 0, storagetest.Count(t, db, "SELECT COUNT(*) FROM items_weapon"))

	got, err := repo.Get(ctx, pack.ID)
	require.NoError(t, err)
	assert.Equal(t, []types.PackContent{{ID: torch, Name: "Torch", Amount: 10}},
		got.Details.(*types.PackDetails).Contents)

	assert.ErrorIs(t, repo.Delete(ctx, sword.ID), types.ErrNotFound)
}

func TestList(t *testing.T) {
	db, repo := setupRepo(t)
	ctx := context.Background()
	for i := 1; i <= 12; i++ {
		storagetest.Gear(t, db, fmt.Sprintf("Potion %02d", i))
	}
	_, err := repo.Create(ctx, longsword())
	require.NoError(t, err)

	got, err := repo.List(ctx, types.Page{Number: 2, Size: 5, Search: "POTION"})
	require.NoError(t, err)
	assert.Equal(t, 12, got.Total)
	require.Len(t, got.Items, 5)
	assert.Equal(t, "Potion 06", got.Items[0].Name)

	got, err = repo.List(ctx, types.DefaultPage())
	require.NoError(t, err)
	assert.Equal(t, 13, got.Total)
	assert.Equal(t, "Longsword", got.Items[0].Name)

	_, err = repo.List(ctx, types.Page{Number: 1, Size: types.MaxPageSize + 1})
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}
