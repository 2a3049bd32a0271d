package types

import (
	"strings"
	"time"
)

// Membership roles.
const (
	RoleDungeonMaster = "dungeon_master"
	RolePlayer        = "player"
)

// Campaign is the campaign aggregate: the root row plus every membership.
type Campaign struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	MaxPlayers   int          `json:"max_players"`
	OwnerID      string       `json:"owner_id"`
	PasswordHash string       `json:"-"`
	HasPassword  bool         `json:"has_password"`
	CreatedAt    time.Time    `json:"created_at"`
	Notes        *string      `json:"notes,omitempty"`
	Archived     bool         `json:"archived"`
	Members      []Membership `json:"users"`
}

// Membership binds a user, and for players a character, to a campaign.
type Membership struct {
	UserID      string  `json:"user_id"`
	CharacterID *string `json:"character_id"`
	Role        string  `json:"role"`
}

// Players counts memberships with the player role.
func (c *Campaign) Players() int {
	n := 0
	for _, m := range c.Members {
		if m.Role == RolePlayer {
			n++
		}
	}
	return n
}

// Member returns the membership of userID, if any.
func (c *Campaign) Member(userID string) (Membership, bool) {
	for _, m := range c.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return Membership{}, false
}

// NewCampaign is the input of campaign creation. The owner comes from the
// caller identity, not the body.
type NewCampaign struct {
	Name       string  `json:"name"`
	MaxPlayers int     `json:"max_players"`
	Password   string  `json:"password,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

// Validate checks the creation input.
func (n NewCampaign) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return Invalid("campaign name is required")
	}
	if n.MaxPlayers < 1 {
		return Invalid("max players must be at least 1")
	}
	return nil
}

// JoinRequest asks for userID to join a campaign with one of their
// characters.
type JoinRequest struct {
	CampaignID  string `json:"campaign_id"`
	UserID      string `json:"user_id"`
	CharacterID string `json:"character_id"`
	Password    string `json:"password,omitempty"`
}

// Validate checks that every id is well formed.
func (r JoinRequest) Validate() error {
	if err := ValidateID("campaign", r.CampaignID); err != nil {
		return err
	}
	if err := ValidateID("user", r.UserID); err != nil {
		return err
	}
	if r.CharacterID == "" {
		return Invalid("no character id specified")
	}
	return ValidateID("character", r.CharacterID)
}

// CampaignSummary is one row of a user's campaign listing.
type CampaignSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// CampaignPage is one page of a campaign listing.
type CampaignPage struct {
	Campaigns []CampaignSummary `json:"campaigns"`
	Total     int               `json:"total"`
}
