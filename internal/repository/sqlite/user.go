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

const userColumns = `id, username, password_hash, email, is_admin, first_name, last_name, date_joined`

func scanUser(row scanner) (*model.User, error) {
	var (
		u         model.User
		firstName sql.NullString
		lastName  sql.NullString
	)
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.Email,
		&u.IsAdmin,
		&firstName,
		&lastName,
		&u.DateJoined,
	)
	if err != nil {
		return nil, err
	}
	u.FirstName = stringPtr(firstName)
	u.LastName = stringPtr(lastName)
	return &u, nil
}

// getUserWhere looks up a single user; key is only used in the error.
func (db *DB) getUserWhere(ctx context.Context, where string, key any) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where+` ORDER BY id LIMIT 1`, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", key)
		}
		return nil, errors.Wrapf(err, "sqlite: getting user %v", key)
	}
	return u, nil
}

func (db *DB) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return db.getUserWhere(ctx, "id = ?", id)
}

func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.getUserWhere(ctx, "username = ?", username)
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUserWhere(ctx, "email = ?", email)
}

func (db *DB) GetAllUsers(ctx context.Context) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite: listing users")
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errors.Wrap(err, "sqlite: scanning user")
		}
		users = append(users, *u)
	}
	return users, errors.Wrap(rows.Err(), "sqlite: iterating users")
}

// CreateUser inserts the account. Username uniqueness is left to the
// UNIQUE constraint on the column: a lookup before the insert could not stop
// two registrations racing for the same name, while the constraint fails
// exactly one of them. That failure is mapped to the conflict error the
// memory store returns.
func (db *DB) CreateUser(ctx context.Context, in model.InsertUser) (*model.User, error) {
	u := model.NewUser(in, time.Now())

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, email, is_admin, first_name, last_name, date_joined)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.Username,
		u.PasswordHash,
		u.Email,
		u.IsAdmin,
		nullString(u.FirstName),
		nullString(u.LastName),
		u.DateJoined,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.UsernameTaken(u.Username)
		}
		return nil, errors.Wrapf(err, "sqlite: inserting user %q", u.Username)
	}

	if u.ID, err = res.LastInsertId(); err != nil {
		return nil, errors.Wrap(err, "sqlite: reading user id")
	}
	return &u, nil
}
