package types

import (
	"encoding/json"
	"strings"
)

// ItemType is the discriminator that selects an item's detail schema.
type ItemType string

// Known item types. The set is closed.
const (
	ItemWeapon          ItemType = "Weapon"
	ItemArmor           ItemType = "Armor"
	ItemAdventuringGear ItemType = "Adventuring Gear"
	ItemEquipmentPack   ItemType = "Equipment Pack"
	ItemTool            ItemType = "Tool"
)

// ItemTypes lists the known item types in display order.
var ItemTypes = []ItemType{ItemWeapon, ItemArmor, ItemAdventuringGear, ItemEquipmentPack, ItemTool}

// Valid reports whether t is one of the known item types.
func (t ItemType) Valid() bool {
	switch t {
	case ItemWeapon, ItemArmor, ItemAdventuringGear, ItemEquipmentPack, ItemTool:
		return true
	}
	return false
}

// ItemCore is the item root row.
type ItemCore struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	CostGP      float64  `json:"cost_gp"`
	Type        ItemType `json:"type"`
	WeightLbs   float64  `json:"weight_lbs"`
}

// Item is the polymorphic item aggregate. Details holds exactly one of
// *WeaponDetails, *ArmorDetails, *GearDetails, *ToolDetails or *PackDetails,
// matching Type.
type Item struct {
	ItemCore

	Properties []ItemProperty `json:"properties"`
	Details    ItemDetails    `json:"details"`
}

// ItemDetails is the type-specific part of an item.
type ItemDetails interface {
	ItemType() ItemType
}

// WeaponDetails is the detail row of a Weapon.
type WeaponDetails struct {
	Category    string `json:"category"`
	DamageDice  string `json:"damage_dice"`
	DamageType  string `json:"damage_type"`
	RangeNormal int    `json:"range_normal"`
	RangeLong   int    `json:"range_long"`
}

// ArmorDetails is the detail row of an Armor.
type ArmorDetails struct {
	Category            string `json:"category"`
	BaseAC              int    `json:"base_ac"`
	DexBonus            bool   `json:"dex_bonus"`
	MaxDexBonus         int    `json:"max_dex_bonus"`
	StrengthRequirement int    `json:"strength_requirement"`
	StealthDisadvantage bool   `json:"stealth_disadvantage"`
}

// GearDetails is the detail row of an Adventuring Gear item.
type GearDetails struct {
	Category string `json:"category"`
}

// ToolDetails is the detail row of a Tool.
type ToolDetails struct {
	Category string `json:"category"`
}

// PackDetails lists what an Equipment Pack contains. Packs have no detail
// row; the contents live in their own collection.
type PackDetails struct {
	Contents []PackContent `json:"contents"`
}

// PackContent is one entry of a pack. ID refers to another item; Name is
// filled on read.
type PackContent struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Amount int    `json:"amount"`
}

func (*WeaponDetails) ItemType() ItemType { return ItemWeapon }
func (*ArmorDetails) ItemType() ItemType  { return ItemArmor }
func (*GearDetails) ItemType() ItemType   { return ItemAdventuringGear }
func (*ToolDetails) ItemType() ItemType   { return ItemTool }
func (*PackDetails) ItemType() ItemType   { return ItemEquipmentPack }

// UnmarshalJSON accepts content_id as written by clients and id as returned
// on read.
func (p *PackContent) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        string `json:"id"`
		ContentID string `json:"content_id"`
		Name      string `json:"name"`
		Amount    int    `json:"amount"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.ID = raw.ID
	if raw.ContentID != "" {
		p.ID = raw.ContentID
	}
	p.Name = raw.Name
	p.Amount = raw.Amount
	return nil
}

// ItemProperty links an item to a shared property. Name and Description are
// filled on read.
type ItemProperty struct {
	PropertyID  string `json:"property_id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Details     string `json:"details"`
}

// ItemPage is one page of an item listing.
type ItemPage struct {
	Items []ItemCore `json:"items"`
	Total int        `json:"total"`
}

// NewItemDetails returns an empty detail value for t, or nil if t is not a
// known type.
func NewItemDetails(t ItemType) ItemDetails {
	switch t {
	case ItemWeapon:
		return &WeaponDetails{}
	case ItemArmor:
		return &ArmorDetails{}
	case ItemAdventuringGear:
		return &GearDetails{}
	case ItemTool:
		return &ToolDetails{}
	case ItemEquipmentPack:
		return &PackDetails{}
	}
	return nil
}

// UnmarshalJSON decodes details into the variant selected by type. An
// unknown type leaves Details nil; Validate reports it.
func (it *Item) UnmarshalJSON(data []byte) error {
	var raw struct {
		ItemCore
		Properties []ItemProperty  `json:"properties"`
		Details    json.RawMessage `json:"details"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	it.ItemCore = raw.ItemCore
	it.Properties = raw.Properties
	it.Details = nil

	details := NewItemDetails(raw.Type)
	if details == nil {
		return nil
	}
	if len(raw.Details) > 0 && string(raw.Details) != "null" {
		if err := json.Unmarshal(raw.Details, details); err != nil {
			return Wrap(KindInvalidInput, err, "malformed item details")
		}
	}
	it.Details = details
	return nil
}

// Validate checks the fields a write needs, including that Details matches
// Type. An unknown type fails with ErrInvalidItemType.
func (it *Item) Validate() error {
	if strings.TrimSpace(it.Name) == "" {
		return Invalid("item name is required")
	}
	if !it.Type.Valid() {
		return Wrap(KindInvalidInput, ErrInvalidItemType, "invalid item type")
	}
	if it.CostGP < 0 || it.WeightLbs < 0 {
		return Invalid("item cost and weight must not be negative")
	}
	ids := make([]string, len(it.Properties))
	for i, p := range it.Properties {
		ids[i] = p.PropertyID
	}
	if err := ValidateIDs("property", ids); err != nil {
		return err
	}
	if it.Details == nil {
		return Invalid("item details are required")
	}
	if it.Details.ItemType() != it.Type {
		return Invalid("item details do not match type %s", it.Type)
	}
	if pack, ok := it.Details.(*PackDetails); ok {
		contents := make([]string, len(pack.Contents))
		for i, c := range pack.Contents {
			if c.Amount < 1 {
				return Invalid("pack content amount must be at least 1")
			}
			if it.ID != "" && c.ID == it.ID {
				return Invalid("a pack cannot contain itself")
			}
			contents[i] = c.ID
		}
		if err := ValidateIDs("pack content", contents); err != nil {
			return err
		}
	}
	return nil
}
