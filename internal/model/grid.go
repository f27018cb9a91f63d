// Package model defines the entities managed by the grid console and the
// insert/patch shapes clients send for them.
//
// Insert types never carry server-assigned fields (ids, timestamps), so a
// client cannot forge them. Patch types use pointer fields: nil means
// "leave unchanged".
package model

import "time"

// Status is the lifecycle state shared by grids and regions.
type Status string

const (
	StatusOffline    Status = "offline"
	StatusOnline     Status = "online"
	StatusRestarting Status = "restarting"
	StatusError      Status = "error"
)

// Grid defaults applied on creation.
const (
	DefaultGridPort         = 8000
	DefaultGridExternalPort = 8002
)

// Grid is a virtual-world deployment hosting many regions.
//
// IsRunning is only ever true while Status is StatusOnline.
type Grid struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Nickname        string     `json:"nickname"`
	AdminEmail      string     `json:"adminEmail"`
	ExternalAddress string     `json:"externalAddress"`
	Status          Status     `json:"status"`
	LastStarted     *time.Time `json:"lastStarted"`
	Port            int        `json:"port"`
	ExternalPort    int        `json:"externalPort"`
	IsRunning       bool       `json:"isRunning"`
}

// InsertGrid is the client-supplied shape for creating a grid.
type InsertGrid struct {
	Name            string  `json:"name" validate:"required,max=128"`
	Nickname        string  `json:"nickname" validate:"required,max=64"`
	AdminEmail      string  `json:"adminEmail" validate:"required,email"`
	ExternalAddress string  `json:"externalAddress" validate:"required,max=255"`
	Status          *Status `json:"status,omitempty" validate:"omitempty,oneof=offline online restarting error"`
	Port            *int    `json:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	ExternalPort    *int    `json:"externalPort,omitempty" validate:"omitempty,min=1,max=65535"`
	IsRunning       *bool   `json:"isRunning,omitempty"`
}

// GridPatch is a partial update. Only non-nil fields are applied.
type GridPatch struct {
	Name            *string    `json:"name,omitempty" validate:"omitempty,min=1,max=128"`
	Nickname        *string    `json:"nickname,omitempty" validate:"omitempty,min=1,max=64"`
	AdminEmail      *string    `json:"adminEmail,omitempty" validate:"omitempty,email"`
	ExternalAddress *string    `json:"externalAddress,omitempty" validate:"omitempty,min=1,max=255"`
	Status          *Status    `json:"status,omitempty" validate:"omitempty,oneof=offline online restarting error"`
	LastStarted     *time.Time `json:"lastStarted,omitempty"`
	Port            *int       `json:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	ExternalPort    *int       `json:"externalPort,omitempty" validate:"omitempty,min=1,max=65535"`
	IsRunning       *bool      `json:"isRunning,omitempty"`
}

// NewGrid builds a grid from an insert, filling in every creation default.
// The id is left for the store to assign.
func NewGrid(in InsertGrid, now time.Time) Grid {
	g := Grid{
		Name:            in.Name,
		Nickname:        in.Nickname,
		AdminEmail:      in.AdminEmail,
		ExternalAddress: in.ExternalAddress,
		Status:          StatusOffline,
		LastStarted:     &now,
		Port:            DefaultGridPort,
		ExternalPort:    DefaultGridExternalPort,
	}
	if in.Status != nil {
		g.Status = *in.Status
	}
	if in.Port != nil {
		g.Port = *in.Port
	}
	if in.ExternalPort != nil {
		g.ExternalPort = *in.ExternalPort
	}
	if in.IsRunning != nil {
		g.IsRunning = *in.IsRunning
	}
	return g
}

// Apply merges the patch into g field by field.
func (g *Grid) Apply(p GridPatch) {
	if p.Name != nil {
		g.Name = *p.Name
	}
	if p.Nickname != nil {
		g.Nickname = *p.Nickname
	}
	if p.AdminEmail != nil {
		g.AdminEmail = *p.AdminEmail
	}
	if p.ExternalAddress != nil {
		g.ExternalAddress = *p.ExternalAddress
	}
	if p.Status != nil {
		g.Status = *p.Status
	}
	if p.LastStarted != nil {
		t := *p.LastStarted
		g.LastStarted = &t
	}
	if p.Port != nil {
		g.Port = *p.Port
	}
	if p.ExternalPort != nil {
		g.ExternalPort = *p.ExternalPort
	}
	if p.IsRunning != nil {
		g.IsRunning = *p.IsRunning
	}
}

// Clone returns a copy that shares no pointers with g.
func (g Grid) Clone() Grid {
	if g.LastStarted != nil {
		t := *g.LastStarted
		g.LastStarted = &t
	}
	return g
}
