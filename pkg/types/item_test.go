package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemUnmarshalSelectsDetails(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		check func(t *testing.T, it *Item)
	}{
		{
			name: "weapon",
			body: `{"name":"Longbow","type":"Weapon","details":{"category":"Martial Ranged","damage_dice":"1d8","damage_type":"piercing","range_normal":150,"range_long":600}}`,
			check: func(t *testing.T, it *Item) {
				w, ok := it.Details.(*WeaponDetails)
				require.True(t, ok)
				assert.Equal(t, 600, w.RangeLong)
			},
		},
		{
			name: "armor",
			body: `{"name":"Chain Mail","type":"Armor","details":{"category":"Heavy","base_ac":16,"strength_requirement":13,"stealth_disadvantage":true}}`,
			check: func(t *testing.T, it *Item) {
				a, ok := it.Details.(*ArmorDetails)
				require.True(t, ok)
				assert.Equal(t, 16, a.BaseAC)
				assert.True(t, a.StealthDisadvantage)
			},
		},
		{
			name: "gear",
			body: `{"name":"Rope","type":"Adventuring Gear","details":{"category":"Standard Gear"}}`,
			check: func(t *testing.T, it *Item) {
				assert.Equal(t, &GearDetails{Category: "Standard Gear"}, it.Details)
			},
		},
		{
			name: "tool",
			body: `{"name":"Thieves' Tools","type":"Tool","details":{"category":"Kit"}}`,
			check: func(t *testing.T, it *Item) {
				assert.Equal(t, &ToolDetails{Category: "Kit"}, it.Details)
			},
		},
		{
			name: "pack accepts content_id and id",
			body: `{"name":"Explorer's Pack","type":"Equipment Pack","details":{"contents":[{"content_id":"a","amount":1},{"id":"b","name":"Torch","amount":10}]}}`,
			check: func(t *testing.T, it *Item) {
				p, ok := it.Details.(*PackDetails)
				require.True(t, ok)
				assert.Equal(t, []PackContent{{ID: "a", Amount: 1}, {ID: "b", Name: "Torch", Amount: 10}}, p.Contents)
			},
		},
		{
			name: "known type without details gets empty details",
			body: `{"name":"Rope","type":"Adventuring Gear"}`,
			check: func(t *testing.T, it *Item) {
				assert.Equal(t, &GearDetails{}, it.Details)
			},
		},
		{
			name: "unknown type leaves details nil",
			body: `{"name":"Orb","type":"Wondrous","details":{"charges":3}}`,
			check: func(t *testing.T, it *Item) {
				assert.Nil(t, it.Details)
				assert.ErrorIs(t, it.Validate(), ErrInvalidItemType)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var it Item
			require.NoError(t, json.Unmarshal([]byte(tt.body), &it))
			tt.check(t, &it)
		})
	}
}

func TestItemUnmarshalMalformedDetails(t *testing.T) {
	var it Item
	err := json.Unmarshal([]byte(`{"name":"Club","type":"Weapon","details":{"range_normal":"far"}}`), &it)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestItemMarshalKeepsDetailsShape(t *testing.T) {
	it := Item{
		ItemCore: ItemCore{ID: NewID(), Name: "Dagger", Type: ItemWeapon},
		Details:  &WeaponDetails{DamageDice: "1d4"},
	}
	data, err := json.Marshal(&it)
	require.NoError(t, err)

	var back Item
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, it.Details, back.Details)
	assert.Equal(t, it.ItemCore, back.ItemCore)
}

func TestItemValidate(t *testing.T) {
	self := NewID()
	content := NewID()
	prop := NewID()

	tests := []struct {
		name    string
		item    Item
		wantErr error
	}{
		{
			name: "valid weapon",
			item: Item{ItemCore: ItemCore{Name: "Dagger", Type: ItemWeapon}, Details: &WeaponDetails{},
				Properties: []ItemProperty{{PropertyID: prop}}},
		},
		{
			name:    "missing name",
			item:    Item{ItemCore: ItemCore{Type: ItemWeapon}, Details: &WeaponDetails{}},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "unknown type",
			item:    Item{ItemCore: ItemCore{Name: "Orb", Type: "Wondrous"}},
			wantErr: ErrInvalidItemType,
		},
		{
			name:    "details mismatch",
			item:    Item{ItemCore: ItemCore{Name: "Dagger", Type: ItemWeapon}, Details: &ArmorDetails{}},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "nil details",
			item:    Item{ItemCore: ItemCore{Name: "Dagger", Type: ItemWeapon}},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "negative cost",
			item:    Item{ItemCore: ItemCore{Name: "Dagger", Type: ItemWeapon, CostGP: -1}, Details: &WeaponDetails{}},
			wantErr: ErrInvalidInput,
		},
		{
			name: "duplicate property",
			item: Item{ItemCore: ItemCore{Name: "Dagger", Type: ItemWeapon}, Details: &WeaponDetails{},
				Properties: []ItemProperty{{PropertyID: prop}, {PropertyID: prop}}},
			wantErr: ErrInvalidInput,
		},
		{
			name: "malformed property id",
			item: Item{ItemCore: ItemCore{Name: "Dagger", Type: ItemWeapon}, Details: &WeaponDetails{},
				Properties: []ItemProperty{{PropertyID: "finesse"}}},
			wantErr: ErrInvalidID,
		},
		{
			name: "pack content amount",
			item: Item{ItemCore: ItemCore{Name: "Pack", Type: ItemEquipmentPack},
				Details: &PackDetails{Contents: []PackContent{{ID: content, Amount: 0}}}},
			wantErr: ErrInvalidInput,
		},
		{
			name: "pack contains itself",
			item: Item{ItemCore: ItemCore{ID: self, Name: "Pack", Type: ItemEquipmentPack},
				Details: &PackDetails{Contents: []PackContent{{ID: self, Amount: 1}}}},
			wantErr: ErrInvalidInput,
		},
		{
			name: "pack duplicate content",
			item: Item{ItemCore: ItemCore{Name: "Pack", Type: ItemEquipmentPack},
				Details: &PackDetails{Contents: []PackContent{{ID: content, Amount: 1}, {ID: content, Amount: 2}}}},
			wantErr: ErrInvalidInput,
		},
		{
			name: "empty pack",
			item: Item{ItemCore: ItemCore{Name: "Pack", Type: ItemEquipmentPack}, Details: &PackDetails{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestItemTypesAreValid(t *testing.T) {
	for _, typ := range ItemTypes {
		assert.True(t, typ.Valid(), typ)
		require.NotNil(t, NewItemDetails(typ), typ)
		assert.Equal(t, typ, NewItemDetails(typ).ItemType())
	}
	assert.False(t, ItemType("weapon").Valid(), "types are case sensitive")
	assert.Nil(t, NewItemDetails("Spell"))
}
