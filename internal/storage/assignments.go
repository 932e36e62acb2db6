package storage

import (
	"context"
	"fmt"

	"github.com/y0lz/backend-json/internal/apperr"
	"github.com/y0lz/backend-json/internal/domain"
)

// GetAssignments returns every assignment.
func (v *View) GetAssignments(ctx context.Context) ([]domain.Assignment, error) {
	return list[domain.Assignment](ctx, v, Assignments, nil)
}

// GetAssignmentByID returns one assignment.
func (v *View) GetAssignmentByID(ctx context.Context, id string) (domain.Assignment, error) {
	return get[domain.Assignment](ctx, v, Assignments, id)
}

// GetAssignmentsByDate returns assignments on date, optionally limited to one branch.
func (v *View) GetAssignmentsByDate(ctx context.Context, date, branchID string) ([]domain.Assignment, error) {
	f := Where("date", date)
	if branchID != "" {
		f = f.And("branch_id", branchID)
	}
	return list[domain.Assignment](ctx, v, Assignments, f)
}

// GetTodayAssignments returns today's assignments, optionally limited to one branch.
func (v *View) GetTodayAssignments(ctx context.Context, branchID string) ([]domain.Assignment, error) {
	return v.GetAssignmentsByDate(ctx, v.today(), branchID)
}

// GetAssignmentsForPerson returns assignments where personID is either party.
func (v *View) GetAssignmentsForPerson(ctx context.Context, personID string) ([]domain.Assignment, error) {
	asCourier, err := list[domain.Assignment](ctx, v, Assignments, Where("courier_id", personID))
	if err != nil {
		return nil, err
	}
	asPassenger, err := list[domain.Assignment](ctx, v, Assignments, Where("passenger_id", personID))
	if err != nil {
		return nil, err
	}
	return append(asCourier, asPassenger...), nil
}

// GetOpenAssignmentsForPersonOnDate returns non-terminal assignments of personID on date.
func (v *View) GetOpenAssignmentsForPersonOnDate(ctx context.Context, personID, date string) ([]domain.Assignment, error) {
	onDate, err := list[domain.Assignment](ctx, v, Assignments,
		Where("date", date).And("status", string(domain.AssignmentAssigned)))
	if err != nil {
		return nil, err
	}
	out := onDate[:0]
	for _, a := range onDate {
		if a.Involves(personID) {
			out = append(out, a)
		}
	}
	return out, nil
}

// AddAssignment stores a new assignment. Status always starts at assigned and
// the date defaults to today.
func (v *View) AddAssignment(ctx context.Context, a domain.Assignment) (domain.Assignment, error) {
	if a.CourierID == "" || a.PassengerID == "" {
		return domain.Assignment{}, fmt.Errorf("assignment parties: %w", apperr.ErrInvalid)
	}
	a.Status = domain.AssignmentAssigned
	if a.Date == "" {
		a.Date = v.today()
	}
	if !domain.ValidDate(a.Date) {
		return domain.Assignment{}, fmt.Errorf("assignment date %q: %w", a.Date, apperr.ErrInvalid)
	}
	return insert[domain.Assignment](ctx, v, Assignments, a)
}

// UpdateAssignment overwrites the assignment with a's attributes. Status rules
// are enforced by the lifecycle manager, not here.
func (v *View) UpdateAssignment(ctx context.Context, a domain.Assignment) (domain.Assignment, error) {
	return update[domain.Assignment](ctx, v, Assignments, a.ID, a)
}

// DeleteAssignment removes one assignment.
func (v *View) DeleteAssignment(ctx context.Context, id string) error {
	return remove(ctx, v, Assignments, id)
}

// GetAssignmentsForPersonOnDate returns assignments of any status where personID is a party on date.
func (v *View) GetAssignmentsForPersonOnDate(ctx context.Context, personID, date string) ([]domain.Assignment, error) {
	onDate, err := list[domain.Assignment](ctx, v, Assignments, Where("date", date))
	if err != nil {
		return nil, err
	}
	out := onDate[:0]
	for _, a := range onDate {
		if a.Involves(personID) {
			out = append(out, a)
		}
	}
	return out, nil
}

// DeleteAssignmentsWhere removes assignments matching f (external attribute names).
func (v *View) DeleteAssignmentsWhere(ctx context.Context, f Filter) (int, error) {
	return removeWhere(ctx, v, Assignments, f)
}
