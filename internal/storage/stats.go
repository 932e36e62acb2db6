package storage

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/y0lz/backend-json/internal/domain"
)

// Stats counts records in every collection; date selects the day-scoped counters.
func (v *View) Stats(ctx context.Context, date string) (domain.Stats, error) {
	var (
		st          domain.Stats
		people      []domain.Person
		shifts      []domain.Shift
		assignments []domain.Assignment
		branches    []domain.Branch
	)
	if date == "" {
		date = v.today()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { people, err = v.GetPeople(gctx); return })
	g.Go(func() (err error) { shifts, err = v.GetShifts(gctx); return })
	g.Go(func() (err error) { assignments, err = v.GetAssignments(gctx); return })
	g.Go(func() (err error) { branches, err = v.GetBranches(gctx); return })
	if err := g.Wait(); err != nil {
		return st, err
	}

	st.People.Total = len(people)
	for _, p := range people {
		switch p.Role {
		case domain.RoleCourier:
			st.People.Couriers++
		case domain.RolePassenger:
			st.People.Passengers++
		}
	}
	st.Shifts.Total = len(shifts)
	for _, s := range shifts {
		if s.Date == date {
			st.Shifts.OnDate++
			if s.IsWorking {
				st.Shifts.Working++
			}
		}
	}
	st.Assignments.Total = len(assignments)
	for _, a := range assignments {
		if a.Date == date {
			st.Assignments.OnDate++
		}
		if a.Status == domain.AssignmentCompleted {
			st.Assignments.Completed++
		}
	}
	st.Branches = len(branches)
	return st, nil
}
