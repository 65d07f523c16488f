package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/homeroomhq/homeroom/internal/domain"
)

// ChildRepo implements analyzer.ChildStore against PostgreSQL.
type ChildRepo struct{ db *sql.DB }

// NewChildRepo creates a Postgres-backed child profile repository.
func NewChildRepo(db *sql.DB) *ChildRepo { return &ChildRepo{db: db} }

func (r *ChildRepo) ChildProfiles(ctx context.Context, ownerID string, activeOnly bool) ([]domain.ChildProfile, error) {
	q := `
		SELECT id, owner_id, real_name, COALESCE(display_name,''), active
		FROM homeroom_children
		WHERE owner_id = $1`
	if activeOnly {
		q += " AND active = true"
	}
	q += " ORDER BY id ASC"

	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list child profiles: %w", err)
	}
	defer rows.Close()

	var out []domain.ChildProfile
	for rows.Next() {
		var p domain.ChildProfile
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.RealName, &p.DisplayName, &p.Active); err != nil {
			return nil, fmt.Errorf("scan child profile: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
