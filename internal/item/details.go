package item

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/dndb/internal/storage"
	"github.com/mesh-intelligence/dndb/pkg/types"
)

// detailTables lists every table holding type-specific rows for an item.
var detailTables = []string{
	"items_weapon",
	"items_armor",
	"items_adventuring_gear",
	"items_tools",
}

// writeDetails stores d in the place selected by t. The switch is closed:
// a type outside the known set aborts the transaction before any detail
// row is written.
func writeDetails(ctx context.Context, q storage.Querier, id string, t types.ItemType, d types.ItemDetails) error {
	if !t.Valid() {
		return types.Wrap(types.KindInvalidInput, types.ErrInvalidItemType, "invalid item type")
	}
	if d == nil || d.ItemType() != t {
		return types.Invalid("item details do not match type %s", t)
	}

	var (
		query string
		args  []any
	)
	switch t {
	case types.ItemWeapon:
		w := d.(*types.WeaponDetails)
		query = "INSERT INTO items_weapon (item_id, category, damage_dice, damage_type, range_normal, range_long) VALUES (?, ?, ?, ?, ?, ?)"
		args = []any{id, w.Category, w.DamageDice, w.DamageType, w.RangeNormal, w.RangeLong}
	case types.ItemArmor:
		a := d.(*types.ArmorDetails)
		query = `INSERT INTO items_armor (item_id, category, base_ac, dex_bonus, max_dex_bonus,
		         strength_requirement, stealth_disadvantage) VALUES (?, ?, ?, ?, ?, ?, ?)`
		args = []any{id, a.Category, a.BaseAC, a.DexBonus, a.MaxDexBonus, a.StrengthRequirement, a.StealthDisadvantage}
	case types.ItemAdventuringGear:
		query = "INSERT INTO items_adventuring_gear (item_id, category) VALUES (?, ?)"
		args = []any{id, d.(*types.GearDetails).Category}
	case types.ItemTool:
		query = "INSERT INTO items_tools (item_id, category) VALUES (?, ?)"
		args = []any{id, d.(*types.ToolDetails).Category}
	case types.ItemEquipmentPack:
		return insertContents(ctx, q, id, d.(*types.PackDetails).Contents)
	default:
		return types.Wrap(types.KindInvalidInput, types.ErrInvalidItemType, "invalid item type")
	}
	if _, err := q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting %s details: %w", t, err)
	}
	return nil
}

// readDetails loads the detail row, or the pack contents, selected by t.
func readDetails(ctx context.Context, q storage.Querier, id string, t types.ItemType) (types.ItemDetails, error) {
	var (
		query string
		dest  []any
		d     types.ItemDetails
	)
	switch t {
	case types.ItemWeapon:
		w := &types.WeaponDetails{}
		query = "SELECT category, damage_dice, damage_type, range_normal, range_long FROM items_weapon WHERE item_id = ?"
		dest, d = []any{&w.Category, &w.DamageDice, &w.DamageType, &w.RangeNormal, &w.RangeLong}, w
	case types.ItemArmor:
		a := &types.ArmorDetails{}
		query = `SELECT category, base_ac, dex_bonus, max_dex_bonus, strength_requirement, stealth_disadvantage
		           FROM items_armor WHERE item_id = ?`
		dest, d = []any{&a.Category, &a.BaseAC, &a.DexBonus, &a.MaxDexBonus, &a.StrengthRequirement, &a.StealthDisadvantage}, a
	case types.ItemAdventuringGear:
		g := &types.GearDetails{}
		query = "SELECT category FROM items_adventuring_gear WHERE item_id = ?"
		dest, d = []any{&g.Category}, g
	case types.ItemTool:
		tl := &types.ToolDetails{}
		query = "SELECT category FROM items_tools WHERE item_id = ?"
		dest, d = []any{&tl.Category}, tl
	case types.ItemEquipmentPack:
		contents, err := loadContents(ctx, q, id)
		if err != nil {
			return nil, err
		}
		return &types.PackDetails{Contents: contents}, nil
	default:
		return nil, types.Wrap(types.KindStorage, types.ErrInvalidItemType,
			fmt.Sprintf("item %s has unknown type %q", id, t))
	}

	err := q.QueryRow(ctx, query, id).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.Wrap(types.KindStorage, types.ErrMissingChild,
			fmt.Sprintf("item %s is missing its %s details", id, t))
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s details: %w", t, err)
	}
	return d, nil
}

// clearDetails removes every detail row and pack entry of the item,
// whatever its type was.
func clearDetails(ctx context.Context, q storage.Querier, id string) error {
	for _, table := range detailTables {
		if _, err := q.Exec(ctx, "DELETE FROM "+table+" WHERE item_id = ?", id); err != nil {
			return fmt.Errorf("clearing item details: %w", err)
		}
	}
	if _, err := q.Exec(ctx, "DELETE FROM items_equipment_packs WHERE pack_id = ?", id); err != nil {
		return fmt.Errorf("clearing pack contents: %w", err)
	}
	return nil
}

func insertContents(ctx context.Context, q storage.Querier, packID string, contents []types.PackContent) error {
	for i, c := range contents {
		if _, err := q.Exec(ctx,
			"INSERT INTO items_equipment_packs (pack_id, content_id, amount, position) VALUES (?, ?, ?, ?)",
			packID, c.ID, c.Amount, i); err != nil {
			return fmt.Errorf("inserting pack content: %w", err)
		}
	}
	return nil
}

// loadContents lists what a pack holds, with each content's display name.
func loadContents(ctx context.Context, q storage.Querier, packID string) ([]types.PackContent, error) {
	rows, err := q.Query(ctx,
		`SELECT i.id, i.name, p.amount
		   FROM items_equipment_packs p
		   JOIN items i ON i.id = p.content_id
		  WHERE p.pack_id = ?
		  ORDER BY p.position`, packID)
	if err != nil {
		return nil, fmt.Errorf("reading pack contents: %w", err)
	}
	defer rows.Close()
	contents := []types.PackContent{}
	for rows.Next() {
		var c types.PackContent
		if err := rows.Scan(&c.ID, &c.Name, &c.Amount); err != nil {
			return nil, fmt.Errorf("scanning pack content: %w", err)
		}
		contents = append(contents, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading pack contents: %w", err)
	}
	return contents, nil
}
