package domain

import "time"

// AssignmentStatus is the state of a route assignment.
type AssignmentStatus string

// List of possible assignment statuses
const (
	AssignmentAssigned  AssignmentStatus = "assigned"
	AssignmentCancelled AssignmentStatus = "cancelled"
	AssignmentCompleted AssignmentStatus = "completed"
)

// Valid reports whether s is a known status.
func (s AssignmentStatus) Valid() bool {
	switch s {
	case AssignmentAssigned, AssignmentCancelled, AssignmentCompleted:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition is allowed from s.
func (s AssignmentStatus) Terminal() bool {
	return s == AssignmentCancelled || s == AssignmentCompleted
}

// Assignment pairs a courier and a passenger for a single route on a date.
type Assignment struct {
	ID                 string           `json:"id"`
	CourierID          string           `json:"courierId"`
	PassengerID        string           `json:"passengerId"`
	BranchID           string           `json:"branchId"`
	PickupAddress      string           `json:"pickupAddress"`
	DropoffAddress     string           `json:"dropoffAddress"`
	AssignedTime       string           `json:"assignedTime"`
	Date               string           `json:"date"`
	Status             AssignmentStatus `json:"status"`
	Notes              string           `json:"notes"`
	CourierConfirmed   bool             `json:"courierConfirmed"`
	PassengerConfirmed bool             `json:"passengerConfirmed"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
}

// Involves reports whether personID is either party of the assignment.
func (a Assignment) Involves(personID string) bool {
	return a.CourierID == personID || a.PassengerID == personID
}

// Counterpart returns the other party's id, or "" if personID is not a party.
func (a Assignment) Counterpart(personID string) string {
	switch personID {
	case a.CourierID:
		return a.PassengerID
	case a.PassengerID:
		return a.CourierID
	default:
		return ""
	}
}
