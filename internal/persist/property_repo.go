package persist

import (
	"context"

	"github.com/worldforge-go/simcore/internal/eid"
)

// PropertyRow is one row of the `properties` table: a named value_blob
// attached to an entity.
type PropertyRow struct {
	EntityID eid.ID
	Name     string
	Value    []byte
}

// PropertyRepo persists the `properties` table.
type PropertyRepo struct {
	db *DB
}

func NewPropertyRepo(db *DB) *PropertyRepo {
	return &PropertyRepo{db: db}
}

// Upsert writes one property's base value, overwriting any prior row — the
// INSERT half of §4.H's "flagSeen"/"flagClean" lifecycle is driven by the
// caller, not by this repo.
func (r *PropertyRepo) Upsert(ctx context.Context, row PropertyRow) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO properties (entity_id, name, value)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (entity_id, name) DO UPDATE SET value = EXCLUDED.value`,
		int64(row.EntityID), row.Name, row.Value,
	)
	return err
}

func (r *PropertyRepo) Delete(ctx context.Context, entityID eid.ID, name string) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM properties WHERE entity_id = $1 AND name = $2`, int64(entityID), name)
	return err
}

// DeleteAllForEntity drops every property row for entityID — called when
// an entity's own row is about to be dropped (cascades would do this too,
// but persistence drives it explicitly so the destroyed queue can report
// one deterministic outcome per id).
func (r *PropertyRepo) DeleteAllForEntity(ctx context.Context, entityID eid.ID) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM properties WHERE entity_id = $1`, int64(entityID))
	return err
}

// ForEntity loads every stored property for entityID, for restore's
// `restoreProperties` pass.
func (r *PropertyRepo) ForEntity(ctx context.Context, entityID eid.ID) ([]PropertyRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT entity_id, name, value FROM properties WHERE entity_id = $1`, int64(entityID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PropertyRow
	for rows.Next() {
		var row PropertyRow
		var id int64
		if err := rows.Scan(&id, &row.Name, &row.Value); err != nil {
			return nil, err
		}
		row.EntityID = eid.ID(uint64(id))
		out = append(out, row)
	}
	return out, rows.Err()
}
