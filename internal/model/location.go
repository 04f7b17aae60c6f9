package model

import "time"

// Store is a retail brand ("Fred Meyer", "WarehouseClub").
type Store struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// StoreLocation is one geocodable outlet of a store. Coordinates are filled
// lazily the first time the planner or a membership needs them.
type StoreLocation struct {
	ID          string    `json:"id"`
	StoreID     string    `json:"store_id"`
	DisplayName string    `json:"display_name"`
	Address     string    `json:"address,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasCoordinates reports whether the location has been geocoded.
func (l *StoreLocation) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// StoreMembership links a user to a store location (loyalty card, wholesale
// membership, ...). The discount engine keys off the owning store's brand.
type StoreMembership struct {
	ID                   string    `json:"id"`
	UserID               string    `json:"user_id"`
	StoreLocationID      string    `json:"store_location_id"`
	MembershipType       string    `json:"membership_type,omitempty"`
	ExternalMembershipID string    `json:"external_membership_id,omitempty"`
	IsActive             bool      `json:"is_active"`
	CreatedAt            time.Time `json:"created_at"`
}

// MembershipInfo is a membership joined with its store and location names.
type MembershipInfo struct {
	ID                   string `json:"id"`
	UserID               string `json:"user_id"`
	StoreName            string `json:"store_name"`
	LocationDisplayName  string `json:"location_display_name,omitempty"`
	MembershipType       string `json:"membership_type,omitempty"`
	ExternalMembershipID string `json:"external_membership_id,omitempty"`
	IsActive             bool   `json:"is_active"`
}
