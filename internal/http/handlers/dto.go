package handlers

import (
	"github.com/y0lz/backend-json/internal/domain"
	"github.com/y0lz/backend-json/internal/service/lifecycle"
)

type switchPrimaryRequest struct {
	Policy domain.Policy `json:"policy"`
}

type syncPeopleRequest struct {
	Direction domain.SyncDirection `json:"direction"`
}

type countResponse struct {
	Removed int `json:"removed,omitempty"`
	Updated int `json:"updated,omitempty"`
}

type openShiftRequest struct {
	PersonID           string `json:"personId"`
	BranchID           string `json:"branchId,omitempty"`
	Date               string `json:"date,omitempty"`
	StartTime          string `json:"startTime,omitempty"`
	EndTime            string `json:"endTime,omitempty"`
	DestinationAddress string `json:"destinationAddress,omitempty"`
}

type createAssignmentRequest struct {
	CourierID      string `json:"courierId"`
	PassengerID    string `json:"passengerId"`
	BranchID       string `json:"branchId,omitempty"`
	Date           string `json:"date,omitempty"`
	AssignedTime   string `json:"assignedTime,omitempty"`
	PickupAddress  string `json:"pickupAddress,omitempty"`
	DropoffAddress string `json:"dropoffAddress,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

func (r openShiftRequest) toInput() lifecycle.OpenShiftInput {
	return lifecycle.OpenShiftInput{
		PersonID:           r.PersonID,
		BranchID:           r.BranchID,
		Date:               r.Date,
		StartTime:          r.StartTime,
		EndTime:            r.EndTime,
		DestinationAddress: r.DestinationAddress,
	}
}

func (r createAssignmentRequest) toModel() domain.Assignment {
	return domain.Assignment{
		CourierID:      r.CourierID,
		PassengerID:    r.PassengerID,
		BranchID:       r.BranchID,
		Date:           r.Date,
		AssignedTime:   r.AssignedTime,
		PickupAddress:  r.PickupAddress,
		DropoffAddress: r.DropoffAddress,
		Notes:          r.Notes,
	}
}
