package storage

import (
	"context"
	"fmt"

	"github.com/y0lz/backend-json/internal/apperr"
	"github.com/y0lz/backend-json/internal/domain"
)

// GetShifts returns every shift.
func (v *View) GetShifts(ctx context.Context) ([]domain.Shift, error) {
	return list[domain.Shift](ctx, v, Shifts, nil)
}

// GetShiftByID returns one shift.
func (v *View) GetShiftByID(ctx context.Context, id string) (domain.Shift, error) {
	return get[domain.Shift](ctx, v, Shifts, id)
}

// GetShiftsByDate returns shifts on date, optionally limited to one branch.
func (v *View) GetShiftsByDate(ctx context.Context, date, branchID string) ([]domain.Shift, error) {
	f := Where("date", date)
	if branchID != "" {
		f = f.And("branch_id", branchID)
	}
	return list[domain.Shift](ctx, v, Shifts, f)
}

// GetTodayShifts returns today's shifts, optionally limited to one branch.
func (v *View) GetTodayShifts(ctx context.Context, branchID string) ([]domain.Shift, error) {
	return v.GetShiftsByDate(ctx, v.today(), branchID)
}

// GetShiftsForPerson returns every shift owned by personID.
func (v *View) GetShiftsForPerson(ctx context.Context, personID string) ([]domain.Shift, error) {
	return list[domain.Shift](ctx, v, Shifts, Where("person_id", personID))
}

// GetShiftForPersonOnDate returns the person's shift on date or ErrNotFound.
func (v *View) GetShiftForPersonOnDate(ctx context.Context, personID, date string) (domain.Shift, error) {
	return first[domain.Shift](ctx, v, Shifts, Where("person_id", personID).And("date", date))
}

// HasShiftOnDate reports whether the person has a shift on date.
func (v *View) HasShiftOnDate(ctx context.Context, personID, date string) (bool, error) {
	items, err := list[domain.Shift](ctx, v, Shifts, Where("person_id", personID).And("date", date))
	if err != nil {
		return false, err
	}
	return len(items) > 0, nil
}

// AddShift stores a shift, defaulting the date to today. At most one shift per
// person and date is accepted; a second one fails with ErrConstraintViolation.
func (v *View) AddShift(ctx context.Context, s domain.Shift) (domain.Shift, error) {
	if s.PersonID == "" {
		return domain.Shift{}, fmt.Errorf("shift person id: %w", apperr.ErrInvalid)
	}
	if s.Date == "" {
		s.Date = v.today()
	}
	if !domain.ValidDate(s.Date) {
		return domain.Shift{}, fmt.Errorf("shift date %q: %w", s.Date, apperr.ErrInvalid)
	}
	return insert[domain.Shift](ctx, v, Shifts, s, "person_id", "date")
}

// UpdateShift overwrites the shift with s's attributes.
func (v *View) UpdateShift(ctx context.Context, s domain.Shift) (domain.Shift, error) {
	return update[domain.Shift](ctx, v, Shifts, s.ID, s)
}

// DeleteShift removes one shift.
func (v *View) DeleteShift(ctx context.Context, id string) error {
	return remove(ctx, v, Shifts, id)
}

// DeleteShiftsForPerson removes every shift owned by personID.
func (v *View) DeleteShiftsForPerson(ctx context.Context, personID string) (int, error) {
	return removeWhere(ctx, v, Shifts, Where("person_id", personID))
}

// ResetShifts removes every shift on every date from the backend that owns shifts.
func (v *View) ResetShifts(ctx context.Context) (int, error) {
	return removeWhere(ctx, v, Shifts, nil)
}

// DeleteShiftsWhere removes shifts matching f (external attribute names).
func (v *View) DeleteShiftsWhere(ctx context.Context, f Filter) (int, error) {
	return removeWhere(ctx, v, Shifts, f)
}
