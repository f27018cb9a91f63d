package model

import "time"

// Avatar is an in-world character belonging to a user.
type Avatar struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	AvatarType string    `json:"avatarType"`
	Name       string    `json:"name"`
	Created    time.Time `json:"created"`
}

// InsertAvatar is the client-supplied shape for creating an avatar.
// UserID is taken from the route when the avatar is created over HTTP.
type InsertAvatar struct {
	UserID     int64  `json:"userId" validate:"required,min=1"`
	AvatarType string `json:"avatarType" validate:"required,max=32"`
	Name       string `json:"name" validate:"required,max=64"`
}
