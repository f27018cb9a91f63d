package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/sakif/grid-manager/internal/apperror"
	"github.com/sakif/grid-manager/internal/model"
)

const regionColumns = `id, grid_id, name, position_x, position_y, size_x, size_y,
	port, template, status, is_running, owner_id, is_pending_setup`

func scanRegion(row scanner) (*model.Region, error) {
	var (
		r       model.Region
		ownerID sql.NullInt64
	)
	err := row.Scan(
		&r.ID,
		&r.GridID,
		&r.Name,
		&r.PositionX,
		&r.PositionY,
		&r.SizeX,
		&r.SizeY,
		&r.Port,
		&r.Template,
		&r.Status,
		&r.IsRunning,
		&ownerID,
		&r.IsPendingSetup,
	)
	if err != nil {
		return nil, err
	}
	r.OwnerID = int64Ptr(ownerID)
	return &r, nil
}

func (db *DB) GetRegion(ctx context.Context, id int64) (*model.Region, error) {
	r, err := scanRegion(db.conn.QueryRowContext(ctx,
		`SELECT `+regionColumns+` FROM regions WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("region", id)
		}
		return nil, errors.Wrapf(err, "sqlite: getting region %d", id)
	}
	return r, nil
}

func (db *DB) GetRegionsByGrid(ctx context.Context, gridID int64) ([]model.Region, error) {
	return db.listRegions(ctx,
		`SELECT `+regionColumns+` FROM regions WHERE grid_id = ? ORDER BY id`, gridID)
}

func (db *DB) GetAllRegions(ctx context.Context) ([]model.Region, error) {
	return db.listRegions(ctx, `SELECT `+regionColumns+` FROM regions ORDER BY id`)
}

func (db *DB) listRegions(ctx context.Context, query string, args ...any) ([]model.Region, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite: listing regions")
	}
	defer rows.Close()

	regions := []model.Region{}
	for rows.Next() {
		r, err := scanRegion(rows)
		if err != nil {
			return nil, errors.Wrap(err, "sqlite: scanning region")
		}
		regions = append(regions, *r)
	}
	return regions, errors.Wrap(rows.Err(), "sqlite: iterating regions")
}

func (db *DB) CreateRegion(ctx context.Context, in model.InsertRegion) (*model.Region, error) {
	r := model.NewRegion(in)

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO regions (grid_id, name, position_x, position_y, size_x, size_y,
			port, template, status, is_running, owner_id, is_pending_setup)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.GridID,
		r.Name,
		r.PositionX,
		r.PositionY,
		r.SizeX,
		r.SizeY,
		r.Port,
		r.Template,
		r.Status,
		r.IsRunning,
		nullInt64(r.OwnerID),
		r.IsPendingSetup,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "sqlite: inserting region %q", r.Name)
	}

	if r.ID, err = res.LastInsertId(); err != nil {
		return nil, errors.Wrap(err, "sqlite: reading region id")
	}
	return &r, nil
}

// UpdateRegion reads, patches and writes back the row in one transaction.
func (db *DB) UpdateRegion(ctx context.Context, id int64, patch model.RegionPatch) (*model.Region, error) {
	var updated *model.Region

	err := db.inTx(ctx, func(tx *sql.Tx) error {
		r, err := scanRegion(tx.QueryRowContext(ctx,
			`SELECT `+regionColumns+` FROM regions WHERE id = ?`, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperror.NotFound("region", id)
			}
			return errors.Wrapf(err, "sqlite: loading region %d", id)
		}

		r.Apply(patch)

		_, err = tx.ExecContext(ctx,
			`UPDATE regions SET grid_id = ?, name = ?, position_x = ?, position_y = ?,
				size_x = ?, size_y = ?, port = ?, template = ?, status = ?, is_running = ?,
				owner_id = ?, is_pending_setup = ?
			 WHERE id = ?`,
			r.GridID,
			r.Name,
			r.PositionX,
			r.PositionY,
			r.SizeX,
			r.SizeY,
			r.Port,
			r.Template,
			r.Status,
			r.IsRunning,
			nullInt64(r.OwnerID),
			r.IsPendingSetup,
			r.ID,
		)
		if err != nil {
			return errors.Wrapf(err, "sqlite: updating region %d", id)
		}
		updated = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (db *DB) DeleteRegion(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM regions WHERE id = ?`, id)
	if err != nil {
		return errors.Wrapf(err, "sqlite: deleting region %d", id)
	}
	return requireAffected(res, "region", id)
}
