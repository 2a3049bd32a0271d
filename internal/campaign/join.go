package campaign

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mesh-intelligence/dndb/internal/storage"
	"github.com/mesh-intelligence/dndb/pkg/types"
)

// joinState carries what earlier steps learned to later ones.
type joinState struct {
	req      types.JoinRequest
	campaign *types.Campaign
}

// joinStep is one precondition of a join. Steps run in order and the first
// failure ends the join with nothing written.
type joinStep struct {
	name  string
	check func(ctx context.Context, q storage.Querier, s *joinState) error
}

// joinSteps is the ordered join pipeline. The password gates every lookup
// after the campaign itself.
var joinSteps = []joinStep{
	{"load campaign", loadCampaign},
	{"verify password", verifyPassword},
	{"user exists", userExists},
	{"not a member", notAMember},
	{"character owned", characterOwned},
	{"has capacity", hasCapacity},
}

// Join adds the requesting user as a player with the given character. It
// returns the campaign reloaded after the membership is committed.
func (e *Engine) Join(ctx context.Context, req types.JoinRequest) (*types.Campaign, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	err := e.gw.Update(ctx, func(q storage.Querier) error {
		s := &joinState{req: req}
		if err := runSteps(ctx, q, s, joinSteps); err != nil {
			return err
		}
		return insertMember(ctx, q, req.CampaignID, req.UserID, &req.CharacterID,
			types.RolePlayer, e.now().UTC().UnixMilli())
	})
	if err != nil {
		return nil, err
	}
	return e.Get(ctx, req.CampaignID)
}

func runSteps(ctx context.Context, q storage.Querier, s *joinState, steps []joinStep) error {
	for _, step := range steps {
		if err := step.check(ctx, q, s); err != nil {
			var e *types.Error
			if errors.As(err, &e) {
				return err
			}
			return fmt.Errorf("join step %s: %w", step.name, err)
		}
	}
	return nil
}

func loadCampaign(ctx context.Context, q storage.Querier, s *joinState) error {
	c, err := load(ctx, q, s.req.CampaignID)
	if err != nil {
		return err
	}
	s.campaign = c
	return nil
}

func verifyPassword(_ context.Context, _ storage.Querier, s *joinState) error {
	if !s.campaign.HasPassword {
		return nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(s.campaign.PasswordHash), []byte(s.req.Password))
	if err != nil {
		return types.Unauthorized("wrong campaign password")
	}
	return nil
}

func userExists(ctx context.Context, q storage.Querier, s *joinState) error {
	ok, err := storage.Exists(ctx, q, "SELECT 1 FROM users WHERE id = ?", s.req.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return types.NotFound("user %s not found", s.req.UserID)
	}
	return nil
}

// notAMember is scoped to this campaign; membership elsewhere does not
// matter.
func notAMember(_ context.Context, _ storage.Querier, s *joinState) error {
	if _, ok := s.campaign.Member(s.req.UserID); ok {
		return types.Conflict("user is already a member of this campaign")
	}
	return nil
}

func characterOwned(ctx context.Context, q storage.Querier, s *joinState) error {
	var owner string
	err := q.QueryRow(ctx, "SELECT owner_id FROM characters WHERE id = ?", s.req.CharacterID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return types.NotFound("character %s not found", s.req.CharacterID)
	}
	if err != nil {
		return err
	}
	if owner != s.req.UserID {
		return types.Forbidden("character is not owned by the joining user")
	}
	return nil
}

func hasCapacity(_ context.Context, _ storage.Querier, s *joinState) error {
	if s.campaign.Archived {
		return types.Conflict("campaign is archived")
	}
	if s.campaign.Players() >= s.campaign.MaxPlayers {
		return types.Conflict("campaign is full")
	}
	return nil
}
