package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mesh-intelligence/dndb/internal/storage"
	"github.com/mesh-intelligence/dndb/pkg/types"
)

// Users stores accounts. Passwords are kept only as bcrypt hashes.
type Users struct {
	gw   storage.Gateway
	cost int
}

// Get returns the user with the given id.
func (u *Users) Get(ctx context.Context, id string) (*types.User, error) {
	if err := types.ValidateID("user", id); err != nil {
		return nil, err
	}
	var user types.User
	err := u.gw.View(ctx, func(q storage.Querier) error {
		err := q.QueryRow(ctx, "SELECT id, nickname, email FROM users WHERE id = ?", id).
			Scan(&user.ID, &user.Nickname, &user.Email)
		if errors.Is(err, sql.ErrNoRows) {
			return types.NotFound("user %s not found", id)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create registers a user. A taken nickname is a Conflict.
func (u *Users) Create(ctx context.Context, in types.NewUser) (*types.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	hash, err := u.hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &types.User{ID: types.NewID(), Nickname: strings.TrimSpace(in.Nickname), Email: strings.TrimSpace(in.Email)}
	err = u.gw.Update(ctx, func(q storage.Querier) error {
		if err := nicknameFree(ctx, q, user.Nickname, ""); err != nil {
			return err
		}
		if _, err := q.Exec(ctx,
			"INSERT INTO users (id, nickname, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)",
			user.ID, user.Nickname, user.Email, hash, time.Now().UTC().UnixMilli()); err != nil {
			return fmt.Errorf("inserting user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Update changes the fields set in in.
func (u *Users) Update(ctx context.Context, id string, in types.UserUpdate) (*types.User, error) {
	if err := types.ValidateID("user", id); err != nil {
		return nil, err
	}
	var (
		sets []string
		args []any
	)
	if in.Nickname != nil {
		if strings.TrimSpace(*in.Nickname) == "" {
			return nil, types.Invalid("nickname must not be empty")
		}
		sets = append(sets, "nickname = ?")
		args = append(args, strings.TrimSpace(*in.Nickname))
	}
	if in.Email != nil {
		if strings.TrimSpace(*in.Email) == "" {
			return nil, types.Invalid("email must not be empty")
		}
		sets = append(sets, "email = ?")
		args = append(args, strings.TrimSpace(*in.Email))
	}
	if in.Password != nil {
		if *in.Password == "" {
			return nil, types.Invalid("password must not be empty")
		}
		hash, err := u.hash(*in.Password)
		if err != nil {
			return nil, err
		}
		sets = append(sets, "password_hash = ?")
		args = append(args, hash)
	}
	if len(sets) == 0 {
		return u.Get(ctx, id)
	}

	err := u.gw.Update(ctx, func(q storage.Querier) error {
		if in.Nickname != nil {
			if err := nicknameFree(ctx, q, strings.TrimSpace(*in.Nickname), id); err != nil {
				return err
			}
		}
		res, err := q.Exec(ctx, "UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?", append(args, id)...)
		if err != nil {
			return fmt.Errorf("updating user: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("updating user: %w", err)
		}
		if n == 0 {
			return types.NotFound("user %s not found", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u.Get(ctx, id)
}

// Delete removes the user with everything they own.
func (u *Users) Delete(ctx context.Context, id string) error {
	if err := types.ValidateID("user", id); err != nil {
		return err
	}
	return u.gw.Update(ctx, func(q storage.Querier) error {
		return deleteByID(ctx, q, "users", "user", id)
	})
}

// List returns one page of users filtered on nickname.
func (u *Users) List(ctx context.Context, page types.Page) (*types.UserPage, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	out := &types.UserPage{Users: []types.User{}}
	err := u.gw.View(ctx, func(q storage.Querier) error {
		var err error
		out.Total, err = listPage(ctx, q, "users", "id, nickname, email", "nickname", page, func(rows *sql.Rows) error {
			var user types.User
			if err := rows.Scan(&user.ID, &user.Nickname, &user.Email); err != nil {
				return err
			}
			out.Users = append(out.Users, user)
			return nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// VerifyPassword reports whether password matches the stored hash of the
// user with the given nickname. An unknown nickname fails the same way as a
// wrong password.
func (u *Users) VerifyPassword(ctx context.Context, nickname, password string) (*types.User, error) {
	var (
		user types.User
		hash string
	)
	err := u.gw.View(ctx, func(q storage.Querier) error {
		err := q.QueryRow(ctx, "SELECT id, nickname, email, password_hash FROM users WHERE nickname = ?", nickname).
			Scan(&user.ID, &user.Nickname, &user.Email, &hash)
		if errors.Is(err, sql.ErrNoRows) {
			return types.Unauthorized("wrong nickname or password")
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, types.Unauthorized("wrong nickname or password")
	}
	return &user, nil
}

func (u *Users) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), u.cost)
	if err != nil {
		return "", types.Invalid("password cannot be hashed: %v", err)
	}
	return string(b), nil
}

// nicknameFree fails with Conflict when another user already has nickname.
func nicknameFree(ctx context.Context, q storage.Querier, nickname, self string) error {
	taken, err := storage.Exists(ctx, q, "SELECT 1 FROM users WHERE nickname = ? AND id <> ?", nickname, self)
	if err != nil {
		return fmt.Errorf("checking nickname: %w", err)
	}
	if taken {
		return types.Conflict("nickname %q is taken", nickname)
	}
	return nil
}
