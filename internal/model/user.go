package model

import "time"

// User is a console account.
//
// PasswordHash holds the bcrypt hash and is never serialized, so every JSON
// response built from a User is already stripped of it.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Email        string    `json:"email"`
	IsAdmin      bool      `json:"isAdmin"`
	FirstName    *string   `json:"firstName"`
	LastName     *string   `json:"lastName"`
	DateJoined   time.Time `json:"dateJoined"`
}

// InsertUser is what the store needs to create an account. Password is the
// plaintext on the way in; the service hashes it before it reaches a store.
type InsertUser struct {
	Username  string  `json:"username" validate:"required,min=3,max=64"`
	Password  string  `json:"password" validate:"required,min=6,max=72"`
	Email     string  `json:"email" validate:"required,email"`
	IsAdmin   *bool   `json:"isAdmin,omitempty"`
	FirstName *string `json:"firstName,omitempty" validate:"omitempty,max=64"`
	LastName  *string `json:"lastName,omitempty" validate:"omitempty,max=64"`
}

// UserRegistration is the self-service signup form. An avatar is created
// alongside the account when both avatar fields are given.
type UserRegistration struct {
	Username        string  `json:"username" validate:"required,min=3,max=64"`
	Password        string  `json:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string  `json:"confirmPassword" validate:"required,eqfield=Password"`
	Email           string  `json:"email" validate:"required,email"`
	FirstName       *string `json:"firstName,omitempty" validate:"omitempty,max=64"`
	LastName        *string `json:"lastName,omitempty" validate:"omitempty,max=64"`
	AvatarName      string  `json:"avatarName,omitempty" validate:"omitempty,max=64"`
	AvatarType      string  `json:"avatarType,omitempty" validate:"omitempty,max=32"`
}

// InsertUser drops the confirmation and avatar fields. Self-registered
// accounts are never admins.
func (r UserRegistration) InsertUser() InsertUser {
	return InsertUser{
		Username:  r.Username,
		Password:  r.Password,
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
	}
}

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// NewUser builds a user from an insert whose Password has already been
// replaced by its hash.
func NewUser(in InsertUser, now time.Time) User {
	u := User{
		Username:     in.Username,
		PasswordHash: in.Password,
		Email:        in.Email,
		DateJoined:   now,
	}
	if in.IsAdmin != nil {
		u.IsAdmin = *in.IsAdmin
	}
	if in.FirstName != nil {
		s := *in.FirstName
		u.FirstName = &s
	}
	if in.LastName != nil {
		s := *in.LastName
		u.LastName = &s
	}
	return u
}

// Clone returns a copy that shares no pointers with u.
func (u User) Clone() User {
	if u.FirstName != nil {
		s := *u.FirstName
		u.FirstName = &s
	}
	if u.LastName != nil {
		s := *u.LastName
		u.LastName = &s
	}
	return u
}
