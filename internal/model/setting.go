package model

import "time"

// Setting is a key/value pair. Value is opaque to the store and usually
// holds JSON.
type Setting struct {
	ID          int64     `json:"id"`
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// InsertSetting is the client-supplied shape for creating a setting.
type InsertSetting struct {
	Key   string `json:"key" validate:"required,max=128"`
	Value string `json:"value"`
}

// LoginCustomizationKey is the setting key the login page branding lives under.
const LoginCustomizationKey = "loginCustomization"

// LoginCustomization controls what the login page shows above the form.
type LoginCustomization struct {
	DisplayType string `json:"displayType" validate:"required,oneof=text image"`
	TextValue   string `json:"textValue,omitempty" validate:"max=256"`
	ImageURL    string `json:"imageUrl,omitempty" validate:"omitempty,url"`
}

// DefaultLoginCustomization is served when nothing valid is stored.
func DefaultLoginCustomization() LoginCustomization {
	return LoginCustomization{
		DisplayType: "text",
		TextValue:   "OpenSimulator Grid Manager",
	}
}
