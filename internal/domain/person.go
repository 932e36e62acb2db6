package domain

import "time"

// Role is the part a person plays in the dispatch operation.
type Role string

// List of possible roles
const (
	RoleCourier   Role = "courier"
	RolePassenger Role = "passenger"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCourier, RolePassenger, RoleAdmin:
		return true
	default:
		return false
	}
}

// Person is anyone known to the dispatch operation.
// Position applies to passengers, VehicleModel/VehiclePlate to couriers.
type Person struct {
	ID                string    `json:"id"`
	ExternalContactID string    `json:"externalContactId"`
	Role              Role      `json:"role"`
	DisplayName       string    `json:"displayName"`
	Phone             string    `json:"phone"`
	HomeAddress       string    `json:"homeAddress"`
	AddressOverride   string    `json:"addressOverride"`
	BranchID          string    `json:"branchId"`
	IsActive          bool      `json:"isActive"`
	Position          string    `json:"position"`
	VehicleModel      string    `json:"vehicleModel"`
	VehiclePlate      string    `json:"vehiclePlate"`
	WorkUntil         string    `json:"workUntil"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// EffectiveAddress returns the address the person travels to today.
func (p Person) EffectiveAddress() string {
	if p.AddressOverride != "" {
		return p.AddressOverride
	}
	return p.HomeAddress
}
