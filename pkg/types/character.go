package types

import "strings"

// Ability names used as keys of the nested skills object. "Condition" is the
// schema's name for the constitution score.
const (
	AbilityStrength     = "Strength"
	AbilityDexterity    = "Dexterity"
	AbilityCondition    = "Condition"
	AbilityIntelligence = "Intelligence"
	AbilityWisdom       = "Wisdom"
	AbilityCharisma     = "Charisma"
)

// MaxLevel is the highest character level accepted on write.
const MaxLevel = 20

// CharacterCore is the character root row.
type CharacterCore struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	OwnerID    string `json:"owner_id"`
	Level      int    `json:"level"`
	Class      string `json:"class"`
	Race       string `json:"race"`
	Background string `json:"background"`
	Alignment  string `json:"alignment"`
	XP         int    `json:"xp"`
}

// Character is the full character sheet aggregate.
type Character struct {
	CharacterCore

	Combat             Combat             `json:"combat"`
	Skills             Skills             `json:"skills"`
	SkillProficiencies SkillProficiencies `json:"skill_proficiencies"`
	Details            Details            `json:"details"`
	Money              Money              `json:"money"`

	Proficiencies []CharacterProficiency `json:"proficiencies"`
	Traits        []CharacterTrait       `json:"traits"`
	Items         []CharacterItem        `json:"items"`
}

// Combat holds hit points, armor class and movement.
type Combat struct {
	ArmorClass         int    `json:"armor_class"`
	Initiative         int    `json:"initiative"`
	Speed              int    `json:"speed"`
	HPMax              int    `json:"hp_max"`
	HPCurrent          int    `json:"hp_current"`
	HPTemp             int    `json:"hp_temp"`
	HitDice            string `json:"hit_dice"`
	DeathSaveSuccesses int    `json:"death_save_successes"`
	DeathSaveFailures  int    `json:"death_save_failures"`
}

// AbilityScore pairs a stored ability value with its stored modifier.
type AbilityScore struct {
	Value    int `json:"value"`
	Modifier int `json:"modifier"`
}

// Skills is the nested per-ability view over the skills and skill modifier
// tables.
type Skills struct {
	Strength     AbilityScore `json:"Strength"`
	Dexterity    AbilityScore `json:"Dexterity"`
	Condition    AbilityScore `json:"Condition"`
	Intelligence AbilityScore `json:"Intelligence"`
	Wisdom       AbilityScore `json:"Wisdom"`
	Charisma     AbilityScore `json:"Charisma"`
}

// SkillProficiencies marks which abilities the character is proficient in.
type SkillProficiencies struct {
	Str bool `json:"str"`
	Dex bool `json:"dex"`
	Con bool `json:"con"`
	Int bool `json:"int"`
	Wis bool `json:"wis"`
	Cha bool `json:"cha"`
}

// Details is free-form background text.
type Details struct {
	PersonalityTraits string `json:"personality_traits"`
	Ideals            string `json:"ideals"`
	Bonds             string `json:"bonds"`
	Flaws             string `json:"flaws"`
	Backstory         string `json:"backstory"`
	Appearance        string `json:"appearance"`
}

// Money holds coin counts per denomination.
type Money struct {
	CP int `json:"cp"`
	SP int `json:"sp"`
	EP int `json:"ep"`
	GP int `json:"gp"`
	PP int `json:"pp"`
}

// CharacterProficiency links a character to a proficiency. Name and Type are
// filled on read and ignored on write.
type CharacterProficiency struct {
	ProficiencyID string `json:"proficiency_id"`
	Name          string `json:"name,omitempty"`
	Type          string `json:"type,omitempty"`
}

// CharacterTrait links a character to a trait. Name and Description are
// filled on read and ignored on write.
type CharacterTrait struct {
	TraitID     string `json:"trait_id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// CharacterItem links a character to an item in its inventory. Name is
// filled on read and ignored on write.
type CharacterItem struct {
	ItemID   string `json:"item_id"`
	Name     string `json:"name,omitempty"`
	Amount   int    `json:"amount"`
	Equipped bool   `json:"equipped"`
}

// CharacterPage is one page of a character listing.
type CharacterPage struct {
	Characters []CharacterCore `json:"characters"`
	Total      int             `json:"total"`
}

// Validate checks the fields a write needs. The root id is not checked;
// Create ignores it and Update validates it separately.
func (c *Character) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return Invalid("character name is required")
	}
	if err := ValidateID("owner", c.OwnerID); err != nil {
		return err
	}
	if c.Level < 1 || c.Level > MaxLevel {
		return Invalid("character level must be between 1 and %d", MaxLevel)
	}
	if c.XP < 0 {
		return Invalid("character xp must not be negative")
	}
	m := c.Money
	if m.CP < 0 || m.SP < 0 || m.EP < 0 || m.GP < 0 || m.PP < 0 {
		return Invalid("money amounts must not be negative")
	}

	if err := ValidateIDs("proficiency", c.ProficiencyIDs()); err != nil {
		return err
	}
	if err := ValidateIDs("trait", c.TraitIDs()); err != nil {
		return err
	}
	if err := ValidateIDs("item", c.ItemIDs()); err != nil {
		return err
	}
	for _, it := range c.Items {
		if it.Amount < 1 {
			return Invalid("item amount must be at least 1")
		}
	}
	return nil
}

// ProficiencyIDs returns the linked proficiency ids in input order.
func (c *Character) ProficiencyIDs() []string {
	ids := make([]string, len(c.Proficiencies))
	for i, p := range c.Proficiencies {
		ids[i] = p.ProficiencyID
	}
	return ids
}

// TraitIDs returns the linked trait ids in input order.
func (c *Character) TraitIDs() []string {
	ids := make([]string, len(c.Traits))
	for i, t := range c.Traits {
		ids[i] = t.TraitID
	}
	return ids
}

// ItemIDs returns the linked item ids in input order.
func (c *Character) ItemIDs() []string {
	ids := make([]string, len(c.Items))
	for i, it := range c.Items {
		ids[i] = it.ItemID
	}
	return ids
}
