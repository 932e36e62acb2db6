// Package availability answers who can be matched on a date: couriers and
// passengers of a branch with an open shift, passengers only while they have
// no trip in progress. Recomputed on every call.
package availability

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/y0lz/backend-json/internal/apperr"
	"github.com/y0lz/backend-json/internal/domain"
	"github.com/y0lz/backend-json/internal/storage"
)

type store interface {
	View() *storage.View
}

// Service computes availability.
type Service struct {
	store            store
	operationTimeout time.Duration
}

// NewService creates a Service. A non-positive timeout defaults to 5s.
func NewService(s store, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{store: s, operationTimeout: timeout}
}

// AvailableCouriers lists couriers of branchID with an open shift on date.
func (s *Service) AvailableCouriers(ctx context.Context, date, branchID string) ([]domain.AvailablePerson, error) {
	return s.Available(ctx, domain.RoleCourier, date, branchID)
}

// AvailablePassengers lists passengers of branchID with an open shift on date
// and no assigned trip that day.
func (s *Service) AvailablePassengers(ctx context.Context, date, branchID string) ([]domain.AvailablePerson, error) {
	return s.Available(ctx, domain.RolePassenger, date, branchID)
}

// Available is the role-generic form. An empty date means today, an empty
// branch means every branch.
func (s *Service) Available(ctx context.Context, role domain.Role, date, branchID string) ([]domain.AvailablePerson, error) {
	if role != domain.RoleCourier && role != domain.RolePassenger {
		return nil, fmt.Errorf("availability role %q: %w", role, apperr.ErrInvalid)
	}
	if date != "" && !domain.ValidDate(date) {
		return nil, fmt.Errorf("availability date %q: %w", date, apperr.ErrInvalid)
	}
	ctx, cancel := context.WithTimeout(ctx, s.operationTimeout)
	defer cancel()

	v := s.store.View()
	if date == "" {
		date = v.Today()
	}

	var (
		people      []domain.Person
		shifts      []domain.Shift
		assignments []domain.Assignment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		people, err = v.GetPeopleByRole(gctx, role, branchID)
		return err
	})
	g.Go(func() (err error) {
		shifts, err = v.GetShiftsByDate(gctx, date, "")
		return err
	})
	if role == domain.RolePassenger {
		g.Go(func() (err error) {
			assignments, err = v.GetAssignmentsByDate(gctx, date, "")
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	openShift := make(map[string]domain.Shift, len(shifts))
	for _, sh := range shifts {
		if sh.IsWorking {
			openShift[sh.PersonID] = sh
		}
	}
	busy := make(map[string]struct{})
	for _, a := range assignments {
		if !a.Status.Terminal() {
			busy[a.PassengerID] = struct{}{}
		}
	}

	out := make([]domain.AvailablePerson, 0, len(people))
	for _, p := range people {
		sh, ok := openShift[p.ID]
		if !ok {
			continue
		}
		if _, taken := busy[p.ID]; taken {
			continue
		}
		out = append(out, domain.AvailablePerson{Person: p, Shift: sh})
	}
	return out, nil
}
