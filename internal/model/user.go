package model

import "time"

// User plans.
const (
	PlanFree    = "free"
	PlanPremium = "premium"
)

// Default free-tier limits applied at signup.
const (
	DefaultFreeItemsLimit    = 5
	DefaultFreePlanRunsLimit = 5
)

// User is a shopper account. Guest users have no email or password; they are
// created with auth_provider "anonymous" and can attach credentials later.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email,omitempty"`
	Name         string `json:"name,omitempty"`
	ZipCode      string `json:"zip_code,omitempty"`
	AuthProvider string `json:"auth_provider"`
	PasswordHash string `json:"-"`

	Plan                string `json:"plan"`
	HasCostcoMembership bool   `json:"has_costco_membership"`
	HasCostcoAddon      bool   `json:"has_costco_addon"`
	FreeItemsLimit      int    `json:"free_items_limit"`
	FreePlanRunsLimit   int    `json:"free_plan_runs_limit"`
	FreePlanRunsUsed    int    `json:"free_plan_runs_used"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsFree reports whether the user is on the free tier.
func (u *User) IsFree() bool {
	return u.Plan == "" || u.Plan == PlanFree
}

// AllowClubStore reports whether the user may shop at the membership-gated
// club store, either through a real membership or the digital add-on.
func (u *User) AllowClubStore() bool {
	return u.HasCostcoMembership || u.HasCostcoAddon
}
