package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/sakif/grid-manager/internal/apperror"
	"github.com/sakif/grid-manager/internal/model"
)

const settingColumns = `id, setting_key, value, last_updated`

func scanSetting(row scanner) (*model.Setting, error) {
	var s model.Setting
	if err := row.Scan(&s.ID, &s.Key, &s.Value, &s.LastUpdated); err != nil {
		return nil, err
	}
	return &s, nil
}

func getSetting(ctx context.Context, q interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}, key string) (*model.Setting, error) {
	s, err := scanSetting(q.QueryRowContext(ctx,
		`SELECT `+settingColumns+` FROM settings WHERE setting_key = ?`, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("setting", key)
		}
		return nil, errors.Wrapf(err, "sqlite: getting setting %q", key)
	}
	return s, nil
}

func (db *DB) GetSetting(ctx context.Context, key string) (*model.Setting, error) {
	return getSetting(ctx, db.conn, key)
}

func (db *DB) GetAllSettings(ctx context.Context) ([]model.Setting, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+settingColumns+` FROM settings ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite: listing settings")
	}
	defer rows.Close()

	settings := []model.Setting{}
	for rows.Next() {
		s, err := scanSetting(rows)
		if err != nil {
			return nil, errors.Wrap(err, "sqlite: scanning setting")
		}
		settings = append(settings, *s)
	}
	return settings, errors.Wrap(rows.Err(), "sqlite: iterating settings")
}

func (db *DB) CreateSetting(ctx context.Context, in model.InsertSetting) (*model.Setting, error) {
	var created *model.Setting

	err := db.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := getSetting(ctx, tx, in.Key); err == nil {
			return apperror.Conflict("setting", in.Key)
		} else if !errors.Is(err, apperror.ErrNotFound) {
			return err
		}

		s, err := insertSetting(ctx, tx, in.Key, in.Value)
		created = s
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (db *DB) UpdateSetting(ctx context.Context, key, value string) (*model.Setting, error) {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE settings SET value = ?, last_updated = ? WHERE setting_key = ?`,
		value, time.Now(), key,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "sqlite: updating setting %q", key)
	}
	if err := requireAffected(res, "setting", key); err != nil {
		return nil, err
	}
	return db.GetSetting(ctx, key)
}

func (db *DB) DeleteSetting(ctx context.Context, key string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM settings WHERE setting_key = ?`, key)
	if err != nil {
		return errors.Wrapf(err, "sqlite: deleting setting %q", key)
	}
	return requireAffected(res, "setting", key)
}

// UpsertSetting uses ON CONFLICT so the row keeps its id across updates.
func (db *DB) UpsertSetting(ctx context.Context, key, value string) (*model.Setting, error) {
	var upserted *model.Setting

	err := db.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO settings (setting_key, value, last_updated) VALUES (?, ?, ?)
			 ON CONFLICT(setting_key) DO UPDATE SET value = excluded.value, last_updated = excluded.last_updated`,
			key, value, time.Now(),
		)
		if err != nil {
			return errors.Wrapf(err, "sqlite: upserting setting %q", key)
		}
		upserted, err = getSetting(ctx, tx, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return upserted, nil
}

func insertSetting(ctx context.Context, tx *sql.Tx, key, value string) (*model.Setting, error) {
	s := model.Setting{Key: key, Value: value, LastUpdated: time.Now()}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO settings (setting_key, value, last_updated) VALUES (?, ?, ?)`,
		s.Key, s.Value, s.LastUpdated,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.Conflict("setting", key)
		}
		return nil, errors.Wrapf(err, "sqlite: inserting setting %q", key)
	}
	if s.ID, err = res.LastInsertId(); err != nil {
		return nil, errors.Wrap(err, "sqlite: reading setting id")
	}
	return &s, nil
}
