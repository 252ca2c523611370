package persist

import (
	"context"

	"github.com/worldforge-go/simcore/internal/eid"
)

// CharacterAccountRepo persists the `character_account` association table:
// which characters an account has added or deleted.
type CharacterAccountRepo struct {
	db *DB
}

func NewCharacterAccountRepo(db *DB) *CharacterAccountRepo {
	return &CharacterAccountRepo{db: db}
}

func (r *CharacterAccountRepo) Link(ctx context.Context, entityID eid.ID, accountID int64) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO character_account (entity_id, account_id) VALUES ($1, $2)
		 ON CONFLICT (entity_id) DO UPDATE SET account_id = EXCLUDED.account_id`,
		int64(entityID), accountID,
	)
	return err
}

func (r *CharacterAccountRepo) Unlink(ctx context.Context, entityID eid.ID) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM character_account WHERE entity_id = $1`, int64(entityID))
	return err
}

// ByAccount returns the entity ids of every character linked to accountID.
func (r *CharacterAccountRepo) ByAccount(ctx context.Context, accountID int64) ([]eid.ID, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT entity_id FROM character_account WHERE account_id = $1`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []eid.ID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, eid.ID(uint64(id)))
	}
	return out, rows.Err()
}
