package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/xrprefetch/internal/model"
)

// SimObjectRepository handles simulation snapshot persistence
type SimObjectRepository struct {
	pool *pgxpool.Pool
}

// NewSimObjectRepository creates a new snapshot repository
func NewSimObjectRepository(pool *pgxpool.Pool) *SimObjectRepository {
	return &SimObjectRepository{pool: pool}
}

// LoadAll loads the full snapshot ordered by object ID.
func (r *SimObjectRepository) LoadAll(ctx context.Context) ([]*model.SimObject, error) {
	query := `
		SELECT object_id, section, level_id, x, y, z
		FROM sim_objects
		ORDER BY object_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("loading sim objects: %w", err)
	}
	defer rows.Close()

	objects := make([]*model.SimObject, 0, 256) // pre-allocate for typical count

	for rows.Next() {
		var (
			objectID int32
			section  string
			levelID  int32
			x, y, z  int32
		)

		if err := rows.Scan(&objectID, &section, &levelID, &x, &y, &z); err != nil {
			return nil, fmt.Errorf("scanning sim object row: %w", err)
		}

		obj := model.NewSimObject(
			uint16(objectID),
			section,
			uint16(levelID),
			model.NewLocation(x, y, z),
		)
		objects = append(objects, obj)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sim object rows: %w", err)
	}

	return objects, nil
}

// Insert stores one object. Fails on a duplicate object ID.
func (r *SimObjectRepository) Insert(ctx context.Context, obj *model.SimObject) error {
	loc := obj.Location()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO sim_objects (object_id, section, level_id, x, y, z)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		int32(obj.ID()), obj.Section(), int32(obj.LevelID()), loc.X, loc.Y, loc.Z,
	)
	if err != nil {
		return fmt.Errorf("inserting sim object %d: %w", obj.ID(), err)
	}
	return nil
}

// ReplaceAll atomically swaps the snapshot for the given objects.
func (r *SimObjectRepository) ReplaceAll(ctx context.Context, objects []*model.SimObject) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && err.Error() != "tx is closed" {
			slog.Error("rollback failed", "error", err)
		}
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM sim_objects`); err != nil {
		return fmt.Errorf("clearing sim objects: %w", err)
	}

	if len(objects) > 0 {
		rows := make([][]any, 0, len(objects))
		for _, obj := range objects {
			loc := obj.Location()
			rows = append(rows, []any{
				int32(obj.ID()), obj.Section(), int32(obj.LevelID()), loc.X, loc.Y, loc.Z,
			})
		}

		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"sim_objects"},
			[]string{"object_id", "section", "level_id", "x", "y", "z"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return fmt.Errorf("copying sim objects: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// DeleteAll clears the snapshot table.
func (r *SimObjectRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM sim_objects`); err != nil {
		return fmt.Errorf("deleting sim objects: %w", err)
	}
	return nil
}

// Count returns the number of stored objects.
func (r *SimObjectRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sim_objects`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting sim objects: %w", err)
	}
	return count, nil
}
