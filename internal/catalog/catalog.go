// Package catalog stores the flat reference data characters and items link
// to (traits, proficiencies, properties) and the user accounts that own
// characters and campaigns.
package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/dndb/internal/storage"
	"github.com/mesh-intelligence/dndb/pkg/types"
)

// Catalog groups the reference-data stores over one gateway.
type Catalog struct {
	Users         *Users
	Traits        *Traits
	Proficiencies *Proficiencies
	Properties    *Properties
}

// New returns a Catalog over gw. bcryptCost is the work factor for user
// password hashes.
func New(gw storage.Gateway, bcryptCost int) *Catalog {
	return &Catalog{
		Users:         &Users{gw: gw, cost: bcryptCost},
		Traits:        &Traits{gw: gw},
		Proficiencies: &Proficiencies{gw: gw},
		Properties:    &Properties{gw: gw},
	}
}

// listPage counts and reads one page of table filtered on searchCol. The
// count and the page use the same filter.
func listPage(ctx context.Context, q storage.Querier, table, columns, searchCol string, page types.Page, scan func(*sql.Rows) error) (int, error) {
	where := " FROM " + table + " WHERE LOWER(" + searchCol + ") LIKE ? ESCAPE '\\'"
	pattern := page.LikePattern()

	var total int
	if err := q.QueryRow(ctx, "SELECT COUNT(*)"+where, pattern).Scan(&total); err != nil {
		return 0, fmt.Errorf("counting %s: %w", table, err)
	}
	rows, err := q.Query(ctx,
		"SELECT "+columns+where+" ORDER BY LOWER("+searchCol+"), id LIMIT ? OFFSET ?",
		pattern, page.Size, page.Offset())
	if err != nil {
		return 0, fmt.Errorf("listing %s: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return 0, fmt.Errorf("scanning %s: %w", table, err)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("listing %s: %w", table, err)
	}
	return total, nil
}

// deleteByID removes one row and reports NotFound when nothing matched.
func deleteByID(ctx context.Context, q storage.Querier, table, what, id string) error {
	res, err := q.Exec(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", what, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting %s: %w", what, err)
	}
	if n == 0 {
		return types.NotFound("%s %s not found", what, id)
	}
	return nil
}
