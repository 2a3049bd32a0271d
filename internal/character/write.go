package character

import (
	"context"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/dndb/internal/storage"
	"github.com/mesh-intelligence/dndb/pkg/types"
)

var abilityColumns = []string{"strength", "dexterity", "constitution", "intelligence", "wisdom", "charisma"}

// sheetRow is one mandatory 1:1 child row of a character.
type sheetRow struct {
	child   string
	table   string
	columns []string
	values  []any
}

// sheetRows flattens the 1:1 children into rows. Skills and their modifiers
// are adjacent so every write touches both tables.
func sheetRows(c *types.Character) []sheetRow {
	s := c.Skills
	p := c.SkillProficiencies
	b := c.Combat
	d := c.Details
	m := c.Money
	return []sheetRow{
		{
			child: "combat",
			table: "characters_combat",
			columns: []string{"armor_class", "initiative", "speed", "hp_max", "hp_current", "hp_temp",
				"hit_dice", "death_save_successes", "death_save_failures"},
			values: []any{b.ArmorClass, b.Initiative, b.Speed, b.HPMax, b.HPCurrent, b.HPTemp,
				b.HitDice, b.DeathSaveSuccesses, b.DeathSaveFailures},
		},
		{
			child:   "skills",
			table:   "characters_skills",
			columns: abilityColumns,
			values: []any{s.Strength.Value, s.Dexterity.Value, s.Condition.Value,
				s.Intelligence.Value, s.Wisdom.Value, s.Charisma.Value},
		},
		{
			child:   "skill modifiers",
			table:   "characters_skills_modifiers",
			columns: abilityColumns,
			values: []any{s.Strength.Modifier, s.Dexterity.Modifier, s.Condition.Modifier,
				s.Intelligence.Modifier, s.Wisdom.Modifier, s.Charisma.Modifier},
		},
		{
			child:   "skill proficiencies",
			table:   "characters_skills_proficiencies",
			columns: abilityColumns,
			values:  []any{p.Str, p.Dex, p.Con, p.Int, p.Wis, p.Cha},
		},
		{
			child:   "details",
			table:   "characters_details",
			columns: []string{"personality_traits", "ideals", "bonds", "flaws", "backstory", "appearance"},
			values:  []any{d.PersonalityTraits, d.Ideals, d.Bonds, d.Flaws, d.Backstory, d.Appearance},
		},
		{
			child:   "money",
			table:   "characters_money",
			columns: []string{"cp", "sp", "ep", "gp", "pp"},
			values:  []any{m.CP, m.SP, m.EP, m.GP, m.PP},
		},
	}
}

func insertCore(ctx context.Context, q storage.Querier, id string, c *types.CharacterCore) error {
	_, err := q.Exec(ctx,
		"INSERT INTO characters ("+coreColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		id, c.Name, c.OwnerID, c.Level, c.Class, c.Race, c.Background, c.Alignment, c.XP)
	if err != nil {
		return fmt.Errorf("inserting character: %w", err)
	}
	return nil
}

func updateCore(ctx context.Context, q storage.Querier, c *types.CharacterCore) error {
	_, err := q.Exec(ctx,
		`UPDATE characters
		    SET name = ?, owner_id = ?, level = ?, class = ?, race = ?,
		        background = ?, alignment = ?, xp = ?
		  WHERE id = ?`,
		c.Name, c.OwnerID, c.Level, c.Class, c.Race, c.Background, c.Alignment, c.XP, c.ID)
	if err != nil {
		return fmt.Errorf("updating character: %w", err)
	}
	return nil
}

func insertSheet(ctx context.Context, q storage.Querier, id string, c *types.Character) error {
	for _, row := range sheetRows(c) {
		query := "INSERT INTO " + row.table + " (character_id, " + strings.Join(row.columns, ", ") +
			") VALUES (" + storage.Placeholders(len(row.columns)+1) + ")"
		args := append([]any{id}, row.values...)
		if _, err := q.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("inserting character %s: %w", row.child, err)
		}
	}
	return nil
}

// updateSheet rewrites the 1:1 rows in place. A row that is not there to
// update means the aggregate was already corrupt.
func updateSheet(ctx context.Context, q storage.Querier, id string, c *types.Character) error {
	for _, row := range sheetRows(c) {
		query := "UPDATE " + row.table + " SET " + strings.Join(row.columns, " = ?, ") +
			" = ? WHERE character_id = ?"
		args := append(append([]any{}, row.values...), id)
		res, err := q.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("updating character %s: %w", row.child, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("updating character %s: %w", row.child, err)
		}
		if n == 0 {
			return types.Wrap(types.KindStorage, types.ErrMissingChild,
				fmt.Sprintf("character %s is missing its %s", id, row.child))
		}
	}
	return nil
}

// The replace functions below are full replacements, not diffs: every
// existing link row of the character is deleted and the new set inserted.
// An empty input leaves the collection empty.

func replaceProficiencies(ctx context.Context, q storage.Querier, id string, links []types.CharacterProficiency) error {
	if _, err := q.Exec(ctx, "DELETE FROM characters_proficiencies WHERE character_id = ?", id); err != nil {
		return fmt.Errorf("clearing character proficiencies: %w", err)
	}
	return insertProficiencies(ctx, q, id, links)
}

func replaceTraits(ctx context.Context, q storage.Querier, id string, links []types.CharacterTrait) error {
	if _, err := q.Exec(ctx, "DELETE FROM characters_traits WHERE character_id = ?", id); err != nil {
		return fmt.Errorf("clearing character traits: %w", err)
	}
	return insertTraits(ctx, q, id, links)
}

func replaceItems(ctx context.Context, q storage.Querier, id string, links []types.CharacterItem) error {
	if _, err := q.Exec(ctx, "DELETE FROM characters_items WHERE character_id = ?", id); err != nil {
		return fmt.Errorf("clearing character items: %w", err)
	}
	return insertItems(ctx, q, id, links)
}

func insertProficiencies(ctx context.Context, q storage.Querier, id string, links []types.CharacterProficiency) error {
	for i, p := range links {
		if _, err := q.Exec(ctx,
			"INSERT INTO characters_proficiencies (character_id, proficiency_id, position) VALUES (?, ?, ?)",
			id, p.ProficiencyID, i); err != nil {
			return fmt.Errorf("inserting character proficiency: %w", err)
		}
	}
	return nil
}

func insertTraits(ctx context.Context, q storage.Querier, id string, links []types.CharacterTrait) error {
	for i, t := range links {
		if _, err := q.Exec(ctx,
			"INSERT INTO characters_traits (character_id, trait_id, position) VALUES (?, ?, ?)",
			id, t.TraitID, i); err != nil {
			return fmt.Errorf("inserting character trait: %w", err)
		}
	}
	return nil
}

func insertItems(ctx context.Context, q storage.Querier, id string, links []types.CharacterItem) error {
	for i, it := range links {
		if _, err := q.Exec(ctx,
			"INSERT INTO characters_items (character_id, item_id, amount, equipped, position) VALUES (?, ?, ?, ?, ?)",
			id, it.ItemID, it.Amount, it.Equipped, i); err != nil {
			return fmt.Errorf("inserting character item: %w", err)
		}
	}
	return nil
}
