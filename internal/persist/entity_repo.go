package persist

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/worldforge-go/simcore/internal/eid"
)

// pgxRows aliases the pgx.Rows interface so Children/scanEntityRow read
// uniformly regardless of which query produced the result set.
type pgxRows = pgx.Rows

// EntityRow is the persisted form of one entities table row.
type EntityRow struct {
	ID       eid.ID
	ParentID eid.ID // eid.Zero for the world root
	Type     string
	StableID string
	Seq      uint64
	Location []byte // location_blob
}

// EntityRepo persists the `entities` table.
type EntityRepo struct {
	db *DB
}

func NewEntityRepo(db *DB) *EntityRepo {
	return &EntityRepo{db: db}
}

func (r *EntityRepo) Insert(ctx context.Context, row EntityRow) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO entities (id, parent_id, type, stable_id, seq, location)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET
			parent_id = EXCLUDED.parent_id, type = EXCLUDED.type,
			stable_id = EXCLUDED.stable_id, seq = EXCLUDED.seq,
			location = EXCLUDED.location`,
		int64(row.ID), nullableID(row.ParentID), row.Type, row.StableID, int64(row.Seq), row.Location,
	)
	return err
}

func (r *EntityRepo) Update(ctx context.Context, row EntityRow) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE entities SET parent_id = $1, seq = $2, location = $3 WHERE id = $4`,
		nullableID(row.ParentID), int64(row.Seq), row.Location, int64(row.ID),
	)
	return err
}

func (r *EntityRepo) Delete(ctx context.Context, id eid.ID) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM entities WHERE id = $1`, int64(id))
	return err
}

// Children returns the rows whose parent_id is parent, ordered by id, for
// restore's recursive `restoreChildren` pass. Pass eid.Zero
// for the root's own top-level children (parent_id IS NULL).
func (r *EntityRepo) Children(ctx context.Context, parent eid.ID) ([]EntityRow, error) {
	var rows pgxRows
	var err error
	if parent.IsZero() {
		rows, err = r.db.Pool.Query(ctx,
			`SELECT id, parent_id, type, stable_id, seq, location FROM entities WHERE parent_id IS NULL ORDER BY id`)
	} else {
		rows, err = r.db.Pool.Query(ctx,
			`SELECT id, parent_id, type, stable_id, seq, location FROM entities WHERE parent_id = $1 ORDER BY id`,
			int64(parent))
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EntityRow
	for rows.Next() {
		row, err := scanEntityRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func scanEntityRow(rows pgxRows) (EntityRow, error) {
	var row EntityRow
	var id int64
	var parentID *int64
	var seq int64
	if err := rows.Scan(&id, &parentID, &row.Type, &row.StableID, &seq, &row.Location); err != nil {
		return EntityRow{}, err
	}
	row.ID = eid.ID(uint64(id))
	row.Seq = uint64(seq)
	if parentID != nil {
		row.ParentID = eid.ID(uint64(*parentID))
	}
	return row, nil
}

func nullableID(id eid.ID) *int64 {
	if id.IsZero() {
		return nil
	}
	v := int64(id)
	return &v
}
