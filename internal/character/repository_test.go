package character_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/dndb/internal/character"
	"github.com/mesh-intelligence/dndb/internal/storage"
	"github.com/mesh-intelligence/dndb/internal/storage/storagetest"
	"github.com/mesh-intelligence/dndb/pkg/types"
)

// fixture is a database with one owner and some reference rows.
type fixture struct {
	db      *storage.DB
	repo    *character.Repository
	owner   string
	athl    string
	stealth string
	brave   string
	lucky   string
	keen    string
	rope    string
	torch   string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := storagetest.Open(t)
	return &fixture{
		db:      db,
		repo:    character.NewRepository(db),
		owner:   storagetest.User(t, db, "tasha"),
		athl:    storagetest.Proficiency(t, db, "Athletics", "Skill"),
		stealth: storagetest.Proficiency(t, db, "Stealth", "Skill"),
		brave:   storagetest.Trait(t, db, "Brave"),
		lucky:   storagetest.Trait(t, db, "Lucky"),
		keen:    storagetest.Trait(t, db, "Keen Senses"),
		rope:    storagetest.Gear(t, db, "Rope, hempen (50 feet)"),
		torch:   storagetest.Gear(t, db, "Torch"),
	}
}

func (f *fixture) sheet(name string) *types.Character {
	return &types.Character{
		CharacterCore: types.CharacterCore{
			Name:       name,
			OwnerID:    f.owner,
			Level:      3,
			Class:      "Rogue",
			Race:       "Halfling",
			Background: "Urchin",
			Alignment:  "Chaotic Good",
			XP:         900,
		},
		Combat: types.Combat{
			ArmorClass: 14, Initiative: 3, Speed: 25,
			HPMax: 21, HPCurrent: 17, HPTemp: 2, HitDice: "3d8",
			DeathSaveSuccesses: 1,
		},
		Skills: types.Skills{
			Strength:     types.AbilityScore{Value: 8, Modifier: -1},
			Dexterity:    types.AbilityScore{Value: 17, Modifier: 3},
			Condition:    types.AbilityScore{Value: 12, Modifier: 1},
			Intelligence: types.AbilityScore{Value: 13, Modifier: 1},
			Wisdom:       types.AbilityScore{Value: 10, Modifier: 0},
			Charisma:     types.AbilityScore{Value: 14, Modifier: 2},
		},
		SkillProficiencies: types.SkillProficiencies{Dex: true, Int: true},
		Details: types.Details{
			PersonalityTraits: "Pockets everything",
			Ideals:            "Freedom",
			Bonds:             "The orphanage",
			Flaws:             "Cannot resist a locked door",
			Backstory:         "Grew up on the docks",
			Appearance:        "Short, quick, grinning",
		},
		Money: types.Money{CP: 12, SP: 5, GP: 30},
		Proficiencies: []types.CharacterProficiency{
			{ProficiencyID: f.stealth},
			{ProficiencyID: f.athl},
		},
		Traits: []types.CharacterTrait{{TraitID: f.brave}, {TraitID: f.lucky}},
		Items: []types.CharacterItem{
			{ItemID: f.torch, Amount: 5},
			{ItemID: f.rope, Amount: 1, Equipped: true},
		},
	}
}

func TestCreateRoundTrip(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	in := f.sheet("Pip")

	got, err := f.repo.Create(ctx, in)
	require.NoError(t, err)
	require.NoError(t, types.ValidateID("character", got.ID))

	want := *in
	want.ID = got.ID
	want.Proficiencies = []types.CharacterProficiency{
		{ProficiencyID: f.stealth, Name: "Stealth", Type: "Skill"},
		{ProficiencyID: f.athl, Name: "Athletics", Type: "Skill"},
	}
	want.Traits = []types.CharacterTrait{
		{TraitID: f.brave, Name: "Brave", Description: "Brave description"},
		{TraitID: f.lucky, Name: "Lucky", Description: "Lucky description"},
	}
	want.Items = []types.CharacterItem{
		{ItemID: f.torch, Name: "Torch", Amount: 5},
		{ItemID: f.rope, Name: "Rope, hempen (50 feet)", Amount: 1, Equipped: true},
	}
	assert.Equal(t, &want, got)

	fetched, err := f.repo.Get(ctx, got.ID)
	require.NoError(t, err)
	assert.Equal(t, got, fetched)
	assert.Equal(t, types.AbilityScore{Value: 12, Modifier: 1}, fetched.Skills.Condition)
}

func TestGetIsIdempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.repo.Create(ctx, f.sheet("Pip"))
	require.NoError(t, err)

	first, err := f.repo.Get(ctx, created.ID)
	require.NoError(t, err)
	second, err := f.repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCreateEmptyCollections(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	in := f.sheet("Bare")
	in.Proficiencies, in.Traits, in.Items = nil, nil, nil

	got, err := f.repo.Create(ctx, in)
	require.NoError(t, err)
	assert.Empty(t, got.Proficiencies)
	assert.NotNil(t, got.Traits)
	assert.Empty(t, got.Items)
	assert.Equal(t, 0, storagetest.Count(t, f.db, "SELECT COUNT(*) FROM characters_traits"))
	assert.Equal(t, 1, storagetest.Count(t, f.db, "SELECT COUNT(*) FROM characters_money"))
}

func TestCreateFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *fixture, c *types.Character)
		kind   types.Kind
	}{
		{
			name:   "missing name",
			mutate: func(_ *fixture, c *types.Character) { c.Name = " " },
			kind:   types.KindInvalidInput,
		},
		{
			name:   "level out of range",
			mutate: func(_ *fixture, c *types.Character) { c.Level = 21 },
			kind:   types.KindInvalidInput,
		},
		{
			name:   "malformed owner id",
			mutate: func(_ *fixture, c *types.Character) { c.OwnerID = "42" },
			kind:   types.KindInvalidInput,
		},
		{
			name:   "duplicate trait link",
			mutate: func(f *fixture, c *types.Character) { c.Traits = append(c.Traits, types.CharacterTrait{TraitID: f.brave}) },
			kind:   types.KindInvalidInput,
		},
		{
			name:   "zero item amount",
			mutate: func(_ *fixture, c *types.Character) { c.Items[0].Amount = 0 },
			kind:   types.KindInvalidInput,
		},
		{
			name:   "unknown owner",
			mutate: func(_ *fixture, c *types.Character) { c.OwnerID = types.NewID() },
			kind:   types.KindNotFound,
		},
		{
			name:   "unknown trait",
			mutate: func(_ *fixture, c *types.Character) { c.Traits[1].TraitID = types.NewID() },
			kind:   types.KindNotFound,
		},
		{
			name:   "unknown item",
			mutate: func(_ *fixture, c *types.Character) { c.Items[1].ItemID = types.NewID() },
			kind:   types.KindNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			in := f.sheet("Broken")
			tt.mutate(f, in)

			got, err := f.repo.Create(context.Background(), in)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.Equal(t, tt.kind, types.KindOf(err))

			for _, table := range []string{"characters", "characters_combat", "characters_skills", "characters_money", "characters_traits"} {
				assert.Equal(t, 0, storagetest.Count(t, f.db, "SELECT COUNT(*) FROM "+table), "rows left in %s", table)
			}
		})
	}
}

func TestCreateNil(t *testing.T) {
	f := setup(t)
	_, err := f.repo.Create(context.Background(), nil)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestGetErrors(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.repo.Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, types.ErrInvalidID)
	assert.Equal(t, types.KindInvalidInput, types.KindOf(err))

	_, err = f.repo.Get(ctx, types.NewID())
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestUppercaseIDsAreRejected(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c, err := f.repo.Create(ctx, f.sheet("Tasha"))
	require.NoError(t, err)

	_, err = f.repo.Get(ctx, strings.ToUpper(c.ID))
	assert.ErrorIs(t, err, types.ErrInvalidID)
	assert.Equal(t, types.KindInvalidInput, types.KindOf(err))

	_, err = f.repo.ListByOwner(ctx, strings.ToUpper(f.owner), types.DefaultPage())
	assert.ErrorIs(t, err, types.ErrInvalidID)

	err = f.repo.Delete(ctx, strings.ToUpper(c.ID))
	assert.ErrorIs(t, err, types.ErrInvalidID)

	got, err := f.repo.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
}

func TestGetMissingChildIsCorruption(t *testing.T) {
	tests := []struct {
		name  string
		table string
	}{
		{"combat", "characters_combat"},
		{"skills", "characters_skills"},
		{"skill modifiers", "characters_skills_modifiers"},
		{"skill proficiencies", "characters_skills_proficiencies"},
		{"details", "characters_details"},
		{"money", "characters_money"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			ctx := context.Background()
			created, err := f.repo.Create(ctx, f.sheet("Pip"))
			require.NoError(t, err)

			storagetest.Exec(t, f.db, "DELETE FROM "+tt.table+" WHERE character_id = ?", created.ID)

			got, err := f.repo.Get(ctx, created.ID)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, types.ErrMissingChild)
			assert.Equal(t, types.KindStorage, types.KindOf(err))
		})
	}
}

func TestUpdate(t *testing.T) {
	tests := []struct {
		name  string
		check func(t *testing.T, f *fixture, created *types.Character)
	}{
		{
			name: "trait list is replaced, not merged",
			check: func(t *testing.T, f *fixture, created *types.Character) {
				in := f.sheet("Pip")
				in.ID = created.ID
				in.Traits = []types.CharacterTrait{{TraitID: f.lucky}, {TraitID: f.keen}}

				got, err := f.repo.Update(context.Background(), in)
				require.NoError(t, err)
				assert.Equal(t, []string{f.lucky, f.keen}, got.TraitIDs())
				assert.Equal(t, 2, storagetest.Count(t, f.db,
					"SELECT COUNT(*) FROM characters_traits WHERE character_id = ?", created.ID))
			},
		},
		{
			name: "one-to-one rows are updated in place",
			check: func(t *testing.T, f *fixture, created *types.Character) {
				in := f.sheet("Pip the Bold")
				in.ID = created.ID
				in.Level = 4
				in.Combat.HPMax = 27
				in.Skills.Condition = types.AbilityScore{Value: 14, Modifier: 2}
				in.SkillProficiencies.Con = true
				in.Money.PP = 1

				got, err := f.repo.Update(context.Background(), in)
				require.NoError(t, err)
				assert.Equal(t, "Pip the Bold", got.Name)
				assert.Equal(t, 4, got.Level)
				assert.Equal(t, 27, got.Combat.HPMax)
				assert.Equal(t, types.AbilityScore{Value: 14, Modifier: 2}, got.Skills.Condition)
				assert.True(t, got.SkillProficiencies.Con)
				assert.Equal(t, 1, got.Money.PP)
				assert.Equal(t, 1, storagetest.Count(t, f.db, "SELECT COUNT(*) FROM characters_skills"))
			},
		},
		{
			name: "emptying collections removes every link",
			check: func(t *testing.T, f *fixture, created *types.Character) {
				in := f.sheet("Pip")
				in.ID = created.ID
				in.Proficiencies, in.Traits, in.Items = nil, nil, nil

				got, err := f.repo.Update(context.Background(), in)
				require.NoError(t, err)
				assert.Empty(t, got.Proficiencies)
				assert.Empty(t, got.Traits)
				assert.Empty(t, got.Items)
			},
		},
		{
			name: "unknown character is not found",
			check: func(t *testing.T, f *fixture, _ *types.Character) {
				in := f.sheet("Ghost")
				in.ID = types.NewID()
				_, err := f.repo.Update(context.Background(), in)
				assert.ErrorIs(t, err, types.ErrNotFound)
			},
		},
		{
			name: "failed reference check leaves the old aggregate",
			check: func(t *testing.T, f *fixture, created *types.Character) {
				in := f.sheet("Renamed")
				in.ID = created.ID
				in.Traits = []types.CharacterTrait{{TraitID: f.keen}, {TraitID: types.NewID()}}

				_, err := f.repo.Update(context.Background(), in)
				require.ErrorIs(t, err, types.ErrNotFound)

				got, err := f.repo.Get(context.Background(), created.ID)
				require.NoError(t, err)
				assert.Equal(t, created, got)
			},
		},
		{
			name: "missing child row aborts the update",
			check: func(t *testing.T, f *fixture, created *types.Character) {
				storagetest.Exec(t, f.db, "DELETE FROM characters_details WHERE character_id = ?", created.ID)
				in := f.sheet("Renamed")
				in.ID = created.ID
				in.Traits = nil

				_, err := f.repo.Update(context.Background(), in)
				require.ErrorIs(t, err, types.ErrMissingChild)
				assert.Equal(t, "Pip", characterName(t, f, created.ID))
				assert.Equal(t, 2, storagetest.Count(t, f.db,
					"SELECT COUNT(*) FROM characters_traits WHERE character_id = ?", created.ID))
			},
		},
		{
			name: "owner changes hands outside any campaign",
			check: func(t *testing.T, f *fixture, created *types.Character) {
				heir := storagetest.User(t, f.db, "vex")
				in := f.sheet("Pip")
				in.ID = created.ID
				in.OwnerID = heir

				got, err := f.repo.Update(context.Background(), in)
				require.NoError(t, err)
				assert.Equal(t, heir, got.OwnerID)
			},
		},
		{
			name: "owner is fixed while the character plays in a campaign",
			check: func(t *testing.T, f *fixture, created *types.Character) {
				dm := storagetest.User(t, f.db, "matt")
				heir := storagetest.User(t, f.db, "vex")
				campaign := types.NewID()
				storagetest.Exec(t, f.db,
					"INSERT INTO campaigns (id, name, max_players, owner_id, password_hash, created_at, notes, archived) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
					campaign, "Vox Machina", 4, dm, nil, 1700000000, nil, false)
				storagetest.Exec(t, f.db,
					"INSERT INTO campaigns_users (campaign_id, user_id, character_id, role, joined_at) VALUES (?, ?, ?, ?, ?)",
					campaign, f.owner, created.ID, types.RolePlayer, 1700000000)

				in := f.sheet("Pip")
				in.ID = created.ID
				in.OwnerID = heir
				_, err := f.repo.Update(context.Background(), in)
				require.ErrorIs(t, err, types.ErrConflict)

				got, err := f.repo.Get(context.Background(), created.ID)
				require.NoError(t, err)
				assert.Equal(t, f.owner, got.OwnerID)

				// Edits that keep the owner still go through.
				in.OwnerID = f.owner
				in.Level = 5
				got, err = f.repo.Update(context.Background(), in)
				require.NoError(t, err)
				assert.Equal(t, 5, got.Level)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			created, err := f.repo.Create(context.Background(), f.sheet("Pip"))
			require.NoError(t, err)
			tt.check(t, f, created)
		})
	}
}

func characterName(t *testing.T, f *fixture, id string) string {
	t.Helper()
	var name string
	require.NoError(t, f.db.View(context.Background(), func(q storage.Querier) error {
		return q.QueryRow(context.Background(), "SELECT name FROM characters WHERE id = ?", id).Scan(&name)
	}))
	return name
}

func TestDelete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created, err := f.repo.Create(ctx, f.sheet("Pip"))
	require.NoError(t, err)

	require.NoError(t, f.repo.Delete(ctx, created.ID))
	_, err = f.repo.Get(ctx, created.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Equal(t, 0, storagetest.Count(t, f.db, "SELECT COUNT(*) FROM characters_combat"))
	assert.Equal(t, 0, storagetest.Count(t, f.db, "SELECT COUNT(*) FROM characters_items"))
	// Reference rows survive.
	assert.Equal(t, 3, storagetest.Count(t, f.db, "SELECT COUNT(*) FROM traits"))

	assert.ErrorIs(t, f.repo.Delete(ctx, created.ID), types.ErrNotFound)
}

func TestListByOwner(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	for i := 1; i <= 25; i++ {
		_, err := f.repo.Create(ctx, f.sheet(fmt.Sprintf("Hero %02d", i)))
		require.NoError(t, err)
	}
	other := storagetest.User(t, f.db, "someone-else")
	stranger := f.sheet("Hero of Elsewhere")
	stranger.OwnerID = other
	_, err := f.repo.Create(ctx, stranger)
	require.NoError(t, err)

	tests := []struct {
		name      string
		page      types.Page
		wantLen   int
		wantTotal int
		wantFirst string
	}{
		{"first page", types.Page{Number: 1, Size: 10}, 10, 25, "Hero 01"},
		{"third page is partial", types.Page{Number: 3, Size: 10}, 5, 25, "Hero 21"},
		{"past the end", types.Page{Number: 4, Size: 10}, 0, 25, ""},
		{"search ignores case", types.Page{Number: 1, Size: 10, Search: "hERO 1"}, 10, 10, "Hero 10"},
		{"search is a substring", types.Page{Number: 1, Size: 10, Search: "o 2"}, 6, 6, "Hero 20"},
		{"wildcards are literal", types.Page{Number: 1, Size: 10, Search: "%"}, 0, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.repo.ListByOwner(ctx, f.owner, tt.page)
			require.NoError(t, err)
			assert.Len(t, got.Characters, tt.wantLen)
			assert.Equal(t, tt.wantTotal, got.Total)
			if tt.wantFirst != "" {
				assert.Equal(t, tt.wantFirst, got.Characters[0].Name)
			}
			for _, c := range got.Characters {
				assert.Equal(t, f.owner, c.OwnerID)
			}
		})
	}

	_, err = f.repo.ListByOwner(ctx, f.owner, types.Page{Number: 0, Size: 10})
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}
