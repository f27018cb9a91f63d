package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/sakif/grid-manager/internal/apperror"
	"github.com/sakif/grid-manager/internal/model"
	"github.com/sakif/grid-manager/internal/repository"
)

const gridColumns = `id, name, nickname, admin_email, external_address, status,
	last_started, port, external_port, is_running`

func scanGrid(row scanner) (*model.Grid, error) {
	var (
		g           model.Grid
		lastStarted sql.NullTime
	)
	err := row.Scan(
		&g.ID,
		&g.Name,
		&g.Nickname,
		&g.AdminEmail,
		&g.ExternalAddress,
		&g.Status,
		&lastStarted,
		&g.Port,
		&g.ExternalPort,
		&g.IsRunning,
	)
	if err != nil {
		return nil, err
	}
	if lastStarted.Valid {
		t := lastStarted.Time
		g.LastStarted = &t
	}
	return &g, nil
}

func (db *DB) GetGrid(ctx context.Context, id int64) (*model.Grid, error) {
	g, err := scanGrid(db.conn.QueryRowContext(ctx,
		`SELECT `+gridColumns+` FROM grids WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("grid", id)
		}
		return nil, errors.Wrapf(err, "sqlite: getting grid %d", id)
	}
	return g, nil
}

func (db *DB) GetAllGrids(ctx context.Context) ([]model.Grid, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+gridColumns+` FROM grids ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite: listing grids")
	}
	defer rows.Close()

	grids := []model.Grid{}
	for rows.Next() {
		g, err := scanGrid(rows)
		if err != nil {
			return nil, errors.Wrap(err, "sqlite: scanning grid")
		}
		grids = append(grids, *g)
	}
	return grids, errors.Wrap(rows.Err(), "sqlite: iterating grids")
}

func (db *DB) CreateGrid(ctx context.Context, in model.InsertGrid) (*model.Grid, error) {
	g := model.NewGrid(in, time.Now())
	if err := repository.CheckGrid(g); err != nil {
		return nil, err
	}

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO grids (name, nickname, admin_email, external_address, status,
			last_started, port, external_port, is_running)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.Name,
		g.Nickname,
		g.AdminEmail,
		g.ExternalAddress,
		g.Status,
		g.LastStarted,
		g.Port,
		g.ExternalPort,
		g.IsRunning,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "sqlite: inserting grid %q", g.Name)
	}

	if g.ID, err = res.LastInsertId(); err != nil {
		return nil, errors.Wrap(err, "sqlite: reading grid id")
	}
	return &g, nil
}

// UpdateGrid reads, patches and writes back the row in one transaction.
func (db *DB) UpdateGrid(ctx context.Context, id int64, patch model.GridPatch) (*model.Grid, error) {
	var updated *model.Grid

	err := db.inTx(ctx, func(tx *sql.Tx) error {
		g, err := scanGrid(tx.QueryRowContext(ctx,
			`SELECT `+gridColumns+` FROM grids WHERE id = ?`, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperror.NotFound("grid", id)
			}
			return errors.Wrapf(err, "sqlite: loading grid %d", id)
		}

		g.Apply(patch)
		if err := repository.CheckGrid(*g); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE grids SET name = ?, nickname = ?, admin_email = ?, external_address = ?,
				status = ?, last_started = ?, port = ?, external_port = ?, is_running = ?
			 WHERE id = ?`,
			g.Name,
			g.Nickname,
			g.AdminEmail,
			g.ExternalAddress,
			g.Status,
			g.LastStarted,
			g.Port,
			g.ExternalPort,
			g.IsRunning,
			g.ID,
		)
		if err != nil {
			return errors.Wrapf(err, "sqlite: updating grid %d", id)
		}
		updated = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (db *DB) DeleteGrid(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM grids WHERE id = ?`, id)
	if err != nil {
		return errors.Wrapf(err, "sqlite: deleting grid %d", id)
	}
	return requireAffected(res, "grid", id)
}

// requireAffected turns a zero-row UPDATE or DELETE into a not-found error.
func requireAffected(res sql.Result, resource string, id any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "sqlite: checking rows affected")
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
