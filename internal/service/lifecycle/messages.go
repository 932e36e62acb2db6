package lifecycle

import (
	"fmt"

	"github.com/y0lz/backend-json/internal/domain"
)

func msgTripCancelledShiftClosed(a domain.Assignment) string {
	return fmt.Sprintf("Your trip on %s was cancelled: the other party is no longer on shift.", a.Date)
}

func msgRemovedFromShift(s domain.Shift) string {
	return fmt.Sprintf("You have been removed from the shift on %s.", s.Date)
}

func msgTripCancelledPersonRemoved(a domain.Assignment) string {
	return fmt.Sprintf("Your trip on %s was cancelled: the other party was removed from the service.", a.Date)
}

func msgTripAssignedCourier(a domain.Assignment, passenger domain.Person) string {
	return fmt.Sprintf("New trip on %s at %s: pick up %s at %s.",
		a.Date, a.AssignedTime, passenger.DisplayName, a.PickupAddress)
}

func msgTripAssignedPassenger(a domain.Assignment, courier domain.Person) string {
	return fmt.Sprintf("Your trip on %s at %s: courier %s, %s %s.",
		a.Date, a.AssignedTime, courier.DisplayName, courier.VehicleModel, courier.VehiclePlate)
}

func msgTripCancelled(a domain.Assignment) string {
	return fmt.Sprintf("Your trip on %s at %s was cancelled.", a.Date, a.AssignedTime)
}
