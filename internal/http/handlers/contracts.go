package handlers

import (
	"context"

	"github.com/y0lz/backend-json/internal/domain"
	"github.com/y0lz/backend-json/internal/service/availability"
	"github.com/y0lz/backend-json/internal/service/lifecycle"
	"github.com/y0lz/backend-json/internal/service/migration"
	"github.com/y0lz/backend-json/internal/service/reset"
	"github.com/y0lz/backend-json/internal/storage"
)

type storageAdmin interface {
	Policy() domain.Policy
	Info(ctx context.Context) storage.Info
	SwitchPrimary(ctx context.Context, policy domain.Policy) error
	View() *storage.View
}

// NewStorageAdmin wires the storage facade into a storageAdmin.
func NewStorageAdmin(f *storage.Facade) storageAdmin {
	return f
}

type peopleSyncer interface {
	SyncAllPeople(ctx context.Context, direction domain.SyncDirection) (domain.SyncSummary, error)
}

// NewPeopleSyncer wires the migration engine into a peopleSyncer.
func NewPeopleSyncer(e *migration.Engine) peopleSyncer {
	return e
}

type shiftResetter interface {
	Run(ctx context.Context) (int, error)
}

// NewShiftResetter wires the reset service into a shiftResetter.
func NewShiftResetter(s *reset.Service) shiftResetter {
	return s
}

type availabilityQuery interface {
	Available(ctx context.Context, role domain.Role, date, branchID string) ([]domain.AvailablePerson, error)
}

// NewAvailabilityQuery wires the availability service into an availabilityQuery.
func NewAvailabilityQuery(s *availability.Service) availabilityQuery {
	return s
}

type lifecycleUsecase interface {
	OpenShift(ctx context.Context, in lifecycle.OpenShiftInput) (domain.Shift, error)
	CloseShift(ctx context.Context, shiftID string) (int, error)
	DeletePerson(ctx context.Context, personID string) error
	CreateAssignment(ctx context.Context, a domain.Assignment) (domain.Assignment, error)
	CancelAssignment(ctx context.Context, id string) (domain.Assignment, error)
	CompleteAssignment(ctx context.Context, id string) (domain.Assignment, error)
	RemoveAssignment(ctx context.Context, id string) error
	SyncShiftsWithPeople(ctx context.Context) (int, error)
}

// NewLifecycleUsecase wires the lifecycle manager into a lifecycleUsecase.
func NewLifecycleUsecase(m *lifecycle.Manager) lifecycleUsecase {
	return m
}
