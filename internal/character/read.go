package character

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/dndb/internal/storage"
	"github.com/mesh-intelligence/dndb/pkg/types"
)

const coreColumns = "id, name, owner_id, level, class, race, background, alignment, xp"

func coreDest(c *types.CharacterCore) []any {
	return []any{&c.ID, &c.Name, &c.OwnerID, &c.Level, &c.Class, &c.Race, &c.Background, &c.Alignment, &c.XP}
}

// load reads the root and every child of one character.
func load(ctx context.Context, q storage.Querier, id string) (*types.Character, error) {
	c := &types.Character{}
	err := q.QueryRow(ctx, "SELECT "+coreColumns+" FROM characters WHERE id = ?", id).Scan(coreDest(&c.CharacterCore)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.NotFound("character %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading character: %w", err)
	}

	steps := []func(context.Context, storage.Querier, *types.Character) error{
		loadCombat,
		loadSkills,
		loadSkillProficiencies,
		loadDetails,
		loadMoney,
		loadProficiencies,
		loadTraits,
		loadItems,
	}
	for _, step := range steps {
		if err := step(ctx, q, c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// one scans a mandatory 1:1 child row. Absence means the aggregate is
// corrupt.
func one(ctx context.Context, q storage.Querier, c *types.Character, child, query string, dest ...any) error {
	err := q.QueryRow(ctx, query, c.ID).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Wrap(types.KindStorage, types.ErrMissingChild,
			fmt.Sprintf("character %s is missing its %s", c.ID, child))
	}
	if err != nil {
		return fmt.Errorf("reading character %s: %w", child, err)
	}
	return nil
}

func loadCombat(ctx context.Context, q storage.Querier, c *types.Character) error {
	b := &c.Combat
	return one(ctx, q, c, "combat",
		`SELECT armor_class, initiative, speed, hp_max, hp_current, hp_temp,
		        hit_dice, death_save_successes, death_save_failures
		   FROM characters_combat WHERE character_id = ?`,
		&b.ArmorClass, &b.Initiative, &b.Speed, &b.HPMax, &b.HPCurrent, &b.HPTemp,
		&b.HitDice, &b.DeathSaveSuccesses, &b.DeathSaveFailures)
}

// loadSkills reads the score and modifier tables in one statement so the
// pair is never seen half present.
func loadSkills(ctx context.Context, q storage.Querier, c *types.Character) error {
	s := &c.Skills
	return one(ctx, q, c, "skills",
		`SELECT s.strength, m.strength, s.dexterity, m.dexterity,
		        s.constitution, m.constitution, s.intelligence, m.intelligence,
		        s.wisdom, m.wisdom, s.charisma, m.charisma
		   FROM characters_skills s
		   JOIN characters_skills_modifiers m ON m.character_id = s.character_id
		  WHERE s.character_id = ?`,
		&s.Strength.Value, &s.Strength.Modifier, &s.Dexterity.Value, &s.Dexterity.Modifier,
		&s.Condition.Value, &s.Condition.Modifier, &s.Intelligence.Value, &s.Intelligence.Modifier,
		&s.Wisdom.Value, &s.Wisdom.Modifier, &s.Charisma.Value, &s.Charisma.Modifier)
}

func loadSkillProficiencies(ctx context.Context, q storage.Querier, c *types.Character) error {
	p := &c.SkillProficiencies
	return one(ctx, q, c, "skill proficiencies",
		`SELECT strength, dexterity, constitution, intelligence, wisdom, charisma
		   FROM characters_skills_proficiencies WHERE character_id = ?`,
		&p.Str, &p.Dex, &p.Con, &p.Int, &p.Wis, &p.Cha)
}

func loadDetails(ctx context.Context, q storage.Querier, c *types.Character) error {
	d := &c.Details
	return one(ctx, q, c, "details",
		`SELECT personality_traits, ideals, bonds, flaws, backstory, appearance
		   FROM characters_details WHERE character_id = ?`,
		&d.PersonalityTraits, &d.Ideals, &d.Bonds, &d.Flaws, &d.Backstory, &d.Appearance)
}

func loadMoney(ctx context.Context, q storage.Querier, c *types.Character) error {
	m := &c.Money
	return one(ctx, q, c, "money",
		"SELECT cp, sp, ep, gp, pp FROM characters_money WHERE character_id = ?",
		&m.CP, &m.SP, &m.EP, &m.GP, &m.PP)
}

// many runs a link query and hands every row to scan.
func many(ctx context.Context, q storage.Querier, c *types.Character, child, query string, scan func(*sql.Rows) error) error {
	rows, err := q.Query(ctx, query, c.ID)
	if err != nil {
		return fmt.Errorf("reading character %s: %w", child, err)
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("scanning character %s: %w", child, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading character %s: %w", child, err)
	}
	return nil
}

func loadProficiencies(ctx context.Context, q storage.Querier, c *types.Character) error {
	c.Proficiencies = []types.CharacterProficiency{}
	return many(ctx, q, c, "proficiencies",
		`SELECT p.id, p.name, p.type
		   FROM characters_proficiencies cp
		   JOIN proficiencies p ON p.id = cp.proficiency_id
		  WHERE cp.character_id = ?
		  ORDER BY cp.position`,
		func(rows *sql.Rows) error {
			var p types.CharacterProficiency
			if err := rows.Scan(&p.ProficiencyID, &p.Name, &p.Type); err != nil {
				return err
			}
			c.Proficiencies = append(c.Proficiencies, p)
			return nil
		})
}

func loadTraits(ctx context.Context, q storage.Querier, c *types.Character) error {
	c.Traits = []types.CharacterTrait{}
	return many(ctx, q, c, "traits",
		`SELECT t.id, t.name, t.description
		   FROM characters_traits ct
		   JOIN traits t ON t.id = ct.trait_id
		  WHERE ct.character_id = ?
		  ORDER BY ct.position`,
		func(rows *sql.Rows) error {
			var t types.CharacterTrait
			if err := rows.Scan(&t.TraitID, &t.Name, &t.Description); err != nil {
				return err
			}
			c.Traits = append(c.Traits, t)
			return nil
		})
}

func loadItems(ctx context.Context, q storage.Querier, c *types.Character) error {
	c.Items = []types.CharacterItem{}
	return many(ctx, q, c, "items",
		`SELECT i.id, i.name, ci.amount, ci.equipped
		   FROM characters_items ci
		   JOIN items i ON i.id = ci.item_id
		  WHERE ci.character_id = ?
		  ORDER BY ci.position`,
		func(rows *sql.Rows) error {
			var it types.CharacterItem
			if err := rows.Scan(&it.ItemID, &it.Name, &it.Amount, &it.Equipped); err != nil {
				return err
			}
			c.Items = append(c.Items, it)
			return nil
		})
}
