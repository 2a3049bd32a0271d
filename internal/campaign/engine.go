// Package campaign owns the campaign lifecycle and the join workflow that
// binds a user and one of their characters to a campaign.
package campaign

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mesh-intelligence/dndb/internal/storage"
	"github.com/mesh-intelligence/dndb/pkg/types"
)

// Engine creates, reads, joins and deletes campaigns.
type Engine struct {
	gw   storage.Gateway
	cost int
	now  func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithBcryptCost sets the work factor for campaign password hashes.
func WithBcryptCost(cost int) Option {
	return func(e *Engine) { e.cost = cost }
}

// WithClock replaces time.Now for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine returns an Engine over gw.
func NewEngine(gw storage.Gateway, opts ...Option) *Engine {
	e := &Engine{gw: gw, cost: bcrypt.DefaultCost, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Create inserts the campaign and the owner's dungeon master membership in
// one transaction. The owner is the calling subject.
func (e *Engine) Create(ctx context.Context, owner types.Subject, in types.NewCampaign) (*types.Campaign, error) {
	if owner.Anonymous() {
		return nil, types.Unauthorized("not logged in")
	}
	if err := types.ValidateID("owner", owner.ID); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var hash *string
	if in.Password != "" {
		b, err := bcrypt.GenerateFromPassword([]byte(in.Password), e.cost)
		if err != nil {
			return nil, types.Invalid("campaign password cannot be hashed: %v", err)
		}
		h := string(b)
		hash = &h
	}

	id := types.NewID()
	now := e.now().UTC().UnixMilli()
	err := e.gw.Update(ctx, func(q storage.Querier) error {
		ok, err := storage.Exists(ctx, q, "SELECT 1 FROM users WHERE id = ?", owner.ID)
		if err != nil {
			return fmt.Errorf("checking owner: %w", err)
		}
		if !ok {
			return types.NotFound("user %s not found", owner.ID)
		}
		if _, err := q.Exec(ctx,
			`INSERT INTO campaigns (id, name, max_players, owner_id, password_hash, created_at, notes, archived)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, in.Name, in.MaxPlayers, owner.ID, hash, now, in.Notes, false); err != nil {
			return fmt.Errorf("inserting campaign: %w", err)
		}
		return insertMember(ctx, q, id, owner.ID, nil, types.RoleDungeonMaster, now)
	})
	if err != nil {
		return nil, err
	}
	return e.Get(ctx, id)
}

// Get loads the campaign and all of its memberships.
func (e *Engine) Get(ctx context.Context, id string) (*types.Campaign, error) {
	if err := types.ValidateID("campaign", id); err != nil {
		return nil, err
	}
	var c *types.Campaign
	err := e.gw.View(ctx, func(q storage.Querier) error {
		var err error
		c, err = load(ctx, q, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes the campaign and its memberships. Only the owner may do
// this.
func (e *Engine) Delete(ctx context.Context, subject types.Subject, id string) error {
	if subject.Anonymous() {
		return types.Unauthorized("not logged in")
	}
	if err := types.ValidateID("campaign", id); err != nil {
		return err
	}
	return e.gw.Update(ctx, func(q storage.Querier) error {
		if err := requireOwner(ctx, q, subject, id, "delete"); err != nil {
			return err
		}
		if _, err := q.Exec(ctx, "DELETE FROM campaigns_users WHERE campaign_id = ?", id); err != nil {
			return fmt.Errorf("deleting memberships: %w", err)
		}
		if _, err := q.Exec(ctx, "DELETE FROM campaigns WHERE id = ?", id); err != nil {
			return fmt.Errorf("deleting campaign: %w", err)
		}
		return nil
	})
}

// SetArchived archives or reopens the campaign. Archived campaigns accept no
// new players. Only the owner may do this.
func (e *Engine) SetArchived(ctx context.Context, subject types.Subject, id string, archived bool) (*types.Campaign, error) {
	if subject.Anonymous() {
		return nil, types.Unauthorized("not logged in")
	}
	if err := types.ValidateID("campaign", id); err != nil {
		return nil, err
	}
	err := e.gw.Update(ctx, func(q storage.Querier) error {
		if err := requireOwner(ctx, q, subject, id, "archive"); err != nil {
			return err
		}
		if _, err := q.Exec(ctx, "UPDATE campaigns SET archived = ? WHERE id = ?", archived, id); err != nil {
			return fmt.Errorf("archiving campaign: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return e.Get(ctx, id)
}

// requireOwner fails with NotFound for a missing campaign and Forbidden
// when subject is not its owner.
func requireOwner(ctx context.Context, q storage.Querier, subject types.Subject, id, action string) error {
	var owner string
	err := q.QueryRow(ctx, "SELECT owner_id FROM campaigns WHERE id = ?", id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return types.NotFound("campaign %s not found", id)
	}
	if err != nil {
		return fmt.Errorf("reading campaign owner: %w", err)
	}
	if owner != subject.ID {
		return types.Forbidden("only the campaign owner may %s it", action)
	}
	return nil
}

// ListForUser returns one page of the campaigns userID belongs to, with the
// user's role in each. Search filters on campaign name, ignoring case.
func (e *Engine) ListForUser(ctx context.Context, userID string, page types.Page) (*types.CampaignPage, error) {
	if err := types.ValidateID("user", userID); err != nil {
		return nil, err
	}
	if err := page.Validate(); err != nil {
		return nil, err
	}

	const from = ` FROM campaigns c
		JOIN campaigns_users cu ON cu.campaign_id = c.id
		WHERE cu.user_id = ? AND LOWER(c.name) LIKE ? ESCAPE '\'`
	pattern := page.LikePattern()
	out := &types.CampaignPage{Campaigns: []types.CampaignSummary{}}
	err := e.gw.View(ctx, func(q storage.Querier) error {
		if err := q.QueryRow(ctx, "SELECT COUNT(*)"+from, userID, pattern).Scan(&out.Total); err != nil {
			return fmt.Errorf("counting campaigns: %w", err)
		}
		rows, err := q.Query(ctx,
			"SELECT c.id, c.name, cu.role, c.created_at"+from+" ORDER BY c.created_at DESC, c.id LIMIT ? OFFSET ?",
			userID, pattern, page.Size, page.Offset())
		if err != nil {
			return fmt.Errorf("listing campaigns: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var (
				s       types.CampaignSummary
				created int64
			)
			if err := rows.Scan(&s.ID, &s.Name, &s.Role, &created); err != nil {
				return fmt.Errorf("scanning campaign: %w", err)
			}
			s.CreatedAt = time.UnixMilli(created).UTC()
			out.Campaigns = append(out.Campaigns, s)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func insertMember(ctx context.Context, q storage.Querier, campaignID, userID string, characterID *string, role string, at int64) error {
	if _, err := q.Exec(ctx,
		"INSERT INTO campaigns_users (campaign_id, user_id, character_id, role, joined_at) VALUES (?, ?, ?, ?, ?)",
		campaignID, userID, characterID, role, at); err != nil {
		return fmt.Errorf("inserting membership: %w", err)
	}
	return nil
}

// load reads the campaign root and its memberships, dungeon master first.
func load(ctx context.Context, q storage.Querier, id string) (*types.Campaign, error) {
	var (
		c       types.Campaign
		hash    sql.NullString
		notes   sql.NullString
		created int64
	)
	err := q.QueryRow(ctx,
		`SELECT id, name, max_players, owner_id, password_hash, created_at, notes, archived
		   FROM campaigns WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.MaxPlayers, &c.OwnerID, &hash, &created, &notes, &c.Archived)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.NotFound("campaign %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading campaign: %w", err)
	}
	c.PasswordHash = hash.String
	c.HasPassword = hash.Valid && hash.String != ""
	c.CreatedAt = time.UnixMilli(created).UTC()
	if notes.Valid {
		c.Notes = &notes.String
	}

	rows, err := q.Query(ctx,
		`SELECT user_id, character_id, role FROM campaigns_users
		  WHERE campaign_id = ?
		  ORDER BY CASE role WHEN 'dungeon_master' THEN 0 ELSE 1 END, joined_at, user_id`, id)
	if err != nil {
		return nil, fmt.Errorf("reading memberships: %w", err)
	}
	defer rows.Close()
	c.Members = []types.Membership{}
	for rows.Next() {
		var (
			m    types.Membership
			char sql.NullString
		)
		if err := rows.Scan(&m.UserID, &char, &m.Role); err != nil {
			return nil, fmt.Errorf("scanning membership: %w", err)
		}
		if char.Valid {
			m.CharacterID = &char.String
		}
		c.Members = append(c.Members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading memberships: %w", err)
	}
	return &c, nil
}
