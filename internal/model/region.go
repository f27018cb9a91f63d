package model

// Template is the starting terrain of a region.
type Template string

const (
	TemplateEmpty     Template = "empty"
	TemplateSandbox   Template = "sandbox"
	TemplateWelcome   Template = "welcome"
	TemplateWater     Template = "water"
	TemplateMountains Template = "mountains"
)

// Region defaults and the advisory port range regions are allocated from.
const (
	DefaultRegionSize = 256
	RegionPortMin     = 9000
	RegionPortMax     = 9100
)

// Region is a square tile of a grid, positioned on the grid's coordinate map.
//
// OwnerID is nil for grid-owned regions. GridID is not checked against
// existing grids, so a region can outlive its grid.
type Region struct {
	ID             int64    `json:"id"`
	GridID         int64    `json:"gridId"`
	Name           string   `json:"name"`
	PositionX      int      `json:"positionX"`
	PositionY      int      `json:"positionY"`
	SizeX          int      `json:"sizeX"`
	SizeY          int      `json:"sizeY"`
	Port           int      `json:"port"`
	Template       Template `json:"template"`
	Status         Status   `json:"status"`
	IsRunning      bool     `json:"isRunning"`
	OwnerID        *int64   `json:"ownerId"`
	IsPendingSetup bool     `json:"isPendingSetup"`
}

// InsertRegion is the client-supplied shape for creating a region.
// A nil Port asks the service to pick the next free port of the grid.
type InsertRegion struct {
	GridID         int64     `json:"gridId" validate:"required,min=1"`
	Name           string    `json:"name" validate:"required,max=128"`
	PositionX      int       `json:"positionX" validate:"min=0"`
	PositionY      int       `json:"positionY" validate:"min=0"`
	SizeX          *int      `json:"sizeX,omitempty" validate:"omitempty,min=16,max=8192"`
	SizeY          *int      `json:"sizeY,omitempty" validate:"omitempty,min=16,max=8192"`
	Port           *int      `json:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	Template       *Template `json:"template,omitempty" validate:"omitempty,oneof=empty sandbox welcome water mountains"`
	Status         *Status   `json:"status,omitempty" validate:"omitempty,oneof=offline online restarting error"`
	IsRunning      *bool     `json:"isRunning,omitempty"`
	OwnerID        *int64    `json:"ownerId,omitempty" validate:"omitempty,min=1"`
	IsPendingSetup *bool     `json:"isPendingSetup,omitempty"`
}

// RegionPatch is a partial update. Only non-nil fields are applied.
type RegionPatch struct {
	GridID         *int64    `json:"gridId,omitempty" validate:"omitempty,min=1"`
	Name           *string   `json:"name,omitempty" validate:"omitempty,min=1,max=128"`
	PositionX      *int      `json:"positionX,omitempty" validate:"omitempty,min=0"`
	PositionY      *int      `json:"positionY,omitempty" validate:"omitempty,min=0"`
	SizeX          *int      `json:"sizeX,omitempty" validate:"omitempty,min=16,max=8192"`
	SizeY          *int      `json:"sizeY,omitempty" validate:"omitempty,min=16,max=8192"`
	Port           *int      `json:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	Template       *Template `json:"template,omitempty" validate:"omitempty,oneof=empty sandbox welcome water mountains"`
	Status         *Status   `json:"status,omitempty" validate:"omitempty,oneof=offline online restarting error"`
	IsRunning      *bool     `json:"isRunning,omitempty"`
	OwnerID        *int64    `json:"ownerId,omitempty" validate:"omitempty,min=1"`
	IsPendingSetup *bool     `json:"isPendingSetup,omitempty"`
}

// NewRegion builds a region from an insert, filling in every creation
// default. A nil Port becomes 0; callers that care pick a port first.
func NewRegion(in InsertRegion) Region {
	r := Region{
		GridID:    in.GridID,
		Name:      in.Name,
		PositionX: in.PositionX,
		PositionY: in.PositionY,
		SizeX:     DefaultRegionSize,
		SizeY:     DefaultRegionSize,
		Template:  TemplateEmpty,
		Status:    StatusOffline,
	}
	if in.SizeX != nil {
		r.SizeX = *in.SizeX
	}
	if in.SizeY != nil {
		r.SizeY = *in.SizeY
	}
	if in.Port != nil {
		r.Port = *in.Port
	}
	if in.Template != nil {
		r.Template = *in.Template
	}
	if in.Status != nil {
		r.Status = *in.Status
	}
	if in.IsRunning != nil {
		r.IsRunning = *in.IsRunning
	}
	if in.OwnerID != nil {
		id := *in.OwnerID
		r.OwnerID = &id
	}
	if in.IsPendingSetup != nil {
		r.IsPendingSetup = *in.IsPendingSetup
	}
	return r
}

// Apply merges the patch into r field by field.
func (r *Region) Apply(p RegionPatch) {
	if p.GridID != nil {
		r.GridID = *p.GridID
	}
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.PositionX != nil {
		r.PositionX = *p.PositionX
	}
	if p.PositionY != nil {
		r.PositionY = *p.PositionY
	}
	if p.SizeX != nil {
		r.SizeX = *p.SizeX
	}
	if p.SizeY != nil {
		r.SizeY = *p.SizeY
	}
	if p.Port != nil {
		r.Port = *p.Port
	}
	if p.Template != nil {
		r.Template = *p.Template
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.IsRunning != nil {
		r.IsRunning = *p.IsRunning
	}
	if p.OwnerID != nil {
		id := *p.OwnerID
		r.OwnerID = &id
	}
	if p.IsPendingSetup != nil {
		r.IsPendingSetup = *p.IsPendingSetup
	}
}

// Clone returns a copy that shares no pointers with r.
func (r Region) Clone() Region {
	if r.OwnerID != nil {
		id := *r.OwnerID
		r.OwnerID = &id
	}
	return r
}
