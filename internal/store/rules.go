package store

import (
	"context"
	"fmt"

	"github.com/corkboard/corkboard/internal/acl"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// FetchRules reads the access-control rules for the refresh loop. The
// ORDER BY puts allow rows before deny rows, so under last-writer-wins
// evaluation a deny always has the final say. Implements acl.Source.
func (s *Store) FetchRules(ctx context.Context) ([]acl.RawRule, error) {
	conn, err := s.take(ctx, "fetch rules")
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var out []acl.RawRule
	err = sqlitex.Execute(conn,
		"SELECT route, method, userRoles, match, allow FROM acl ORDER BY allow, id",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				out = append(out, acl.RawRule{
					Route:     stmt.ColumnText(0),
					Method:    stmt.ColumnText(1),
					UserRoles: stmt.ColumnText(2),
					Match:     stmt.ColumnText(3),
					Allow:     stmt.ColumnText(4),
				})
				return nil
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("store: fetch rules: %w", err)
	}
	return out, nil
}

// Ensure Store feeds the rule refresh loop.
var _ acl.Source = (*Store)(nil)
