package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/sakif/grid-manager/internal/apperror"
	"github.com/sakif/grid-manager/internal/model"
)

func scanAvatar(row scanner) (*model.Avatar, error) {
	var a model.Avatar
	if err := row.Scan(&a.ID, &a.UserID, &a.AvatarType, &a.Name, &a.Created); err != nil {
		return nil, err
	}
	return &a, nil
}

func (db *DB) GetAvatar(ctx context.Context, id int64) (*model.Avatar, error) {
	a, err := scanAvatar(db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, avatar_type, name, created FROM avatars WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("avatar", id)
		}
		return nil, errors.Wrapf(err, "sqlite: getting avatar %d", id)
	}
	return a, nil
}

func (db *DB) GetAvatarsByUser(ctx context.Context, userID int64) ([]model.Avatar, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, avatar_type, name, created FROM avatars WHERE user_id = ? ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "sqlite: listing avatars of user %d", userID)
	}
	defer rows.Close()

	avatars := []model.Avatar{}
	for rows.Next() {
		a, err := scanAvatar(rows)
		if err != nil {
			return nil, errors.Wrap(err, "sqlite: scanning avatar")
		}
		avatars = append(avatars, *a)
	}
	return avatars, errors.Wrap(rows.Err(), "sqlite: iterating avatars")
}

func (db *DB) CreateAvatar(ctx context.Context, in model.InsertAvatar) (*model.Avatar, error) {
	a := model.Avatar{
		UserID:     in.UserID,
		AvatarType: in.AvatarType,
		Name:       in.Name,
		Created:    time.Now(),
	}

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO avatars (user_id, avatar_type, name, created) VALUES (?, ?, ?, ?)`,
		a.UserID, a.AvatarType, a.Name, a.Created,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "sqlite: inserting avatar %q", a.Name)
	}

	if a.ID, err = res.LastInsertId(); err != nil {
		return nil, errors.Wrap(err, "sqlite: reading avatar id")
	}
	return &a, nil
}
