package storage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/y0lz/backend-json/internal/apperr"
	"github.com/y0lz/backend-json/internal/domain"
	"github.com/y0lz/backend-json/internal/storage"
	"github.com/y0lz/backend-json/internal/storage/memstore"
)

var fixedNow = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

type stores struct {
	local, relational, blob *memstore.Store
}

func newFacade(t *testing.T, policy domain.Policy, mirror bool) (*storage.Facade, stores) {
	t.Helper()
	s := stores{local: memstore.New(), relational: memstore.New(), blob: memstore.New()}
	f, err := storage.New(storage.Backends{Local: s.local, Relational: s.relational, Blob: s.blob}, storage.Options{
		Policy:       policy,
		MirrorPeople: mirror,
		Now:          func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return f, s
}

func courier(ext string) domain.Person {
	return domain.Person{ExternalContactID: ext, Role: domain.RoleCourier, DisplayName: ext, BranchID: "B1"}
}

func TestNew_RejectsMissingBackend(t *testing.T) {
	t.Parallel()

	_, err := storage.New(storage.Backends{Local: memstore.New()}, storage.Options{Policy: domain.PolicyHybrid})
	require.ErrorIs(t, err, apperr.ErrBackendUnavailable)

	_, err = storage.New(storage.Backends{}, storage.Options{Policy: "sideways"})
	require.ErrorIs(t, err, apperr.ErrInvalid)
}

func TestFacade_LocalPolicy_StoresExternalNaming(t *testing.T) {
	t.Parallel()

	f, s := newFacade(t, domain.PolicyLocal, false)
	ctx := context.Background()

	p, err := f.View().AddPerson(ctx, courier("tg-1"))
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)
	require.Equal(t, "tg-1", p.ExternalContactID)

	raw, err := s.local.Get(ctx, storage.People, p.ID)
	require.NoError(t, err)
	require.Equal(t, "tg-1", raw["external_contact_id"])
	require.NotContains(t, raw, "externalContactId")
	require.Zero(t, s.relational.Len(storage.People))
}

func TestFacade_HybridRouting(t *testing.T) {
	t.Parallel()

	f, s := newFacade(t, domain.PolicyHybrid, false)
	ctx := context.Background()
	v := f.View()

	p, err := v.AddPerson(ctx, courier("tg-1"))
	require.NoError(t, err)
	_, err = v.AddBranch(ctx, domain.Branch{Name: "North"})
	require.NoError(t, err)
	_, err = v.AddShift(ctx, domain.Shift{PersonID: p.ID, BranchID: "B1", StartTime: "09:00", EndTime: "18:00"})
	require.NoError(t, err)
	_, err = v.AddAssignment(ctx, domain.Assignment{CourierID: p.ID, PassengerID: "x"})
	require.NoError(t, err)

	require.Equal(t, 1, s.relational.Len(storage.People))
	require.Equal(t, 1, s.relational.Len(storage.Branches))
	require.Equal(t, 1, s.blob.Len(storage.Shifts))
	require.Equal(t, 1, s.blob.Len(storage.Assignments))
	require.Zero(t, s.local.Len(storage.Shifts))

	n, err := v.ResetShifts(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Zero(t, s.blob.Len(storage.Shifts))
}

func TestFacade_AddShift_DefaultsAndUniqueness(t *testing.T) {
	t.Parallel()

	f, _ := newFacade(t, domain.PolicyLocal, false)
	ctx := context.Background()
	v := f.View()

	sh, err := v.AddShift(ctx, domain.Shift{PersonID: "P1", BranchID: "B1", StartTime: "09:00", EndTime: "18:00", IsWorking: true})
	require.NoError(t, err)
	require.Equal(t, "2024-01-01", sh.Date)

	_, err = v.AddShift(ctx, domain.Shift{PersonID: "P1", BranchID: "B1", StartTime: "10:00", EndTime: "19:00"})
	require.ErrorIs(t, err, apperr.ErrConstraintViolation)

	has, err := v.HasShiftOnDate(ctx, "P1", "2024-01-01")
	require.NoError(t, err)
	require.True(t, has)

	today, err := v.GetTodayShifts(ctx, "B1")
	require.NoError(t, err)
	require.Len(t, today, 1)
}

func TestFacade_AddAssignment_ForcesAssigned(t *testing.T) {
	t.Parallel()

	f, _ := newFacade(t, domain.PolicyLocal, false)
	ctx := context.Background()

	a, err := f.View().AddAssignment(ctx, domain.Assignment{CourierID: "c", PassengerID: "p", Status: domain.AssignmentCompleted})
	require.NoError(t, err)
	require.Equal(t, domain.AssignmentAssigned, a.Status)
	require.Equal(t, "2024-01-01", a.Date)

	open, err := f.View().GetOpenAssignmentsForPersonOnDate(ctx, "p", "2024-01-01")
	require.NoError(t, err)
	require.Len(t, open, 1)
}

func TestFacade_GetPersonByID_NotFound(t *testing.T) {
	t.Parallel()

	f, _ := newFacade(t, domain.PolicyLocal, false)
	_, err := f.View().GetPersonByID(context.Background(), "missing")
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.View().GetPersonByExternalID(context.Background(), "missing")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestFacade_SwitchPrimary(t *testing.T) {
	t.Parallel()

	f, s := newFacade(t, domain.PolicyLocal, false)
	ctx := context.Background()

	s.relational.Unready = errors.New("dial tcp: refused")
	err := f.SwitchPrimary(ctx, domain.PolicyRemote)
	require.ErrorIs(t, err, apperr.ErrBackendUnavailable)
	require.Equal(t, domain.PolicyLocal, f.Policy())

	s.relational.Unready = nil
	require.NoError(t, f.SwitchPrimary(ctx, domain.PolicyRemote))
	require.Equal(t, domain.PolicyRemote, f.Policy())

	require.ErrorIs(t, f.SwitchPrimary(ctx, "nowhere"), apperr.ErrInvalid)
}

func TestFacade_ViewIsPinnedAcrossSwitch(t *testing.T) {
	t.Parallel()

	f, s := newFacade(t, domain.PolicyLocal, false)
	ctx := context.Background()

	pinned := f.View()
	require.NoError(t, f.SwitchPrimary(ctx, domain.PolicyRemote))

	_, err := pinned.AddPerson(ctx, courier("tg-1"))
	require.NoError(t, err)
	require.Equal(t, 1, s.local.Len(storage.People))
	require.Zero(t, s.relational.Len(storage.People))

	_, err = f.View().AddPerson(ctx, courier("tg-2"))
	require.NoError(t, err)
	require.Equal(t, 1, s.relational.Len(storage.People))
}

func TestFacade_MirrorPeople(t *testing.T) {
	t.Parallel()

	f, s := newFacade(t, domain.PolicyLocal, true)
	ctx := context.Background()
	v := f.View()

	p, err := v.AddPerson(ctx, courier("tg-1"))
	require.NoError(t, err)
	require.Equal(t, 1, s.relational.Len(storage.People))

	p.Phone = "+100"
	_, err = v.UpdatePerson(ctx, p)
	require.NoError(t, err)
	mirrored, err := s.relational.Get(ctx, storage.People, p.ID)
	require.NoError(t, err)
	require.Equal(t, "+100", mirrored["phone"])

	require.NoError(t, v.RemovePerson(ctx, p.ID))
	require.Zero(t, s.relational.Len(storage.People))
}

func TestFacade_MirrorFailureDoesNotFailWrite(t *testing.T) {
	t.Parallel()

	f, s := newFacade(t, domain.PolicyLocal, true)
	s.relational.Validate = func(storage.Collection, storage.Record) error { return errors.New("offline") }

	_, err := f.View().AddPerson(context.Background(), courier("tg-1"))
	require.NoError(t, err)
	require.Equal(t, 1, s.local.Len(storage.People))
}

func TestFacade_Settings(t *testing.T) {
	t.Parallel()

	f, s := newFacade(t, domain.PolicyLocal, false)
	ctx := context.Background()

	got, err := f.View().GetSettings(ctx)
	require.NoError(t, err)
	require.Empty(t, got)

	got, err = f.View().UpdateSettings(ctx, domain.Settings{"dailyResetHour": 3})
	require.NoError(t, err)
	require.Equal(t, 3, got["dailyResetHour"])

	raw, err := s.local.LoadSettings(ctx)
	require.NoError(t, err)
	require.Contains(t, raw, "daily_reset_hour")
}

func TestFacade_Stats(t *testing.T) {
	t.Parallel()

	f, _ := newFacade(t, domain.PolicyLocal, false)
	ctx := context.Background()
	v := f.View()

	c, err := v.AddPerson(ctx, courier("c1"))
	require.NoError(t, err)
	_, err = v.AddPerson(ctx, domain.Person{ExternalContactID: "p1", Role: domain.RolePassenger})
	require.NoError(t, err)
	_, err = v.AddShift(ctx, domain.Shift{PersonID: c.ID, IsWorking: true})
	require.NoError(t, err)
	_, err = v.AddBranch(ctx, domain.Branch{Name: "B"})
	require.NoError(t, err)

	st, err := v.Stats(ctx, "")
	require.NoError(t, err)
	require.Equal(t, 2, st.People.Total)
	require.Equal(t, 1, st.People.Couriers)
	require.Equal(t, 1, st.People.Passengers)
	require.Equal(t, 1, st.Shifts.OnDate)
	require.Equal(t, 1, st.Shifts.Working)
	require.Equal(t, 1, st.Branches)
}

func TestFacade_Info(t *testing.T) {
	t.Parallel()

	local := memstore.New()
	f, err := storage.New(storage.Backends{Local: local}, storage.Options{})
	require.NoError(t, err)

	info := f.Info(context.Background())
	require.Equal(t, domain.PolicyLocal, info.Policy)
	require.Len(t, info.Backends, 3)
	require.True(t, info.Backends[0].Ready)
	require.False(t, info.Backends[1].Configured)
}

func TestUpsert(t *testing.T) {
	t.Parallel()

	b := memstore.New()
	ctx := context.Background()

	created, err := storage.Upsert(ctx, b, storage.People, storage.Record{"id": "p1", "display_name": "A"})
	require.NoError(t, err)
	require.True(t, created)

	created, err = storage.Upsert(ctx, b, storage.People, storage.Record{"id": "p1", "display_name": "B"})
	require.NoError(t, err)
	require.False(t, created)

	got, err := b.Get(ctx, storage.People, "p1")
	require.NoError(t, err)
	require.Equal(t, "B", got["display_name"])

	_, err = storage.Upsert(ctx, b, storage.People, storage.Record{"display_name": "C"})
	require.ErrorIs(t, err, apperr.ErrInvalid)
}

func TestFacade_BranchCRUD(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f, s := newFacade(t, domain.PolicyHybrid, false)
	v := f.View()

	_, err := v.AddBranch(ctx, domain.Branch{Name: "  "})
	require.ErrorIs(t, err, apperr.ErrInvalid)

	b, err := v.AddBranch(ctx, domain.Branch{Name: "North", Address: "1 Main st", IsActive: true})
	require.NoError(t, err)

	got, err := v.GetBranchByID(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, "North", got.Name)

	got.Name = "North-East"
	got.IsActive = false
	upd, err := v.UpdateBranch(ctx, got)
	require.NoError(t, err)
	require.Equal(t, "North-East", upd.Name)
	require.False(t, upd.IsActive)

	raw, err := s.relational.Get(ctx, storage.Branches, b.ID)
	require.NoError(t, err)
	require.Equal(t, "North-East", raw["name"])

	require.NoError(t, v.DeleteBranch(ctx, b.ID))
	_, err = v.GetBranchByID(ctx, b.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	require.ErrorIs(t, v.DeleteBranch(ctx, b.ID), apperr.ErrNotFound)
}

func TestFacade_ShiftQueriesAndBulkDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f, _ := newFacade(t, domain.PolicyLocal, false)
	v := f.View()

	a, err := v.AddShift(ctx, domain.Shift{PersonID: "p1", BranchID: "B1", DestinationAddress: "Office 2"})
	require.NoError(t, err)
	_, err = v.AddShift(ctx, domain.Shift{PersonID: "p2", BranchID: "B2"})
	require.NoError(t, err)
	_, err = v.AddShift(ctx, domain.Shift{PersonID: "p3", BranchID: "B2", Date: "2024-01-02"})
	require.NoError(t, err)

	got, err := v.GetShiftForPersonOnDate(ctx, "p1", "2024-01-01")
	require.NoError(t, err)
	require.Equal(t, a.ID, got.ID)
	_, err = v.GetShiftForPersonOnDate(ctx, "p1", "2024-01-02")
	require.ErrorIs(t, err, apperr.ErrNotFound)

	// пустая строка должна затирать старое значение
	got.DestinationAddress = ""
	_, err = v.UpdateShift(ctx, got)
	require.NoError(t, err)
	reread, err := v.GetShiftByID(ctx, a.ID)
	require.NoError(t, err)
	require.Empty(t, reread.DestinationAddress)

	n, err := v.DeleteShiftsWhere(ctx, storage.Where("branch_id", "B2"))
	require.NoError(t, err)
	require.Equal(t, 2, n)

	left, err := v.GetShifts(ctx)
	require.NoError(t, err)
	require.Len(t, left, 1)
	require.Equal(t, "p1", left[0].PersonID)
}

func TestFacade_GetAssignmentsForPersonOnDate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f, _ := newFacade(t, domain.PolicyLocal, false)
	v := f.View()

	add := func(courierID, passengerID, date string) domain.Assignment {
		a, err := v.AddAssignment(ctx, domain.Assignment{CourierID: courierID, PassengerID: passengerID, Date: date})
		require.NoError(t, err)
		return a
	}
	asCourier := add("c1", "p1", "2024-01-01")
	asPassenger := add("c2", "c1", "2024-01-01")
	add("c1", "p2", "2024-01-02")
	add("c3", "p3", "2024-01-01")

	asCourier.Status = domain.AssignmentCancelled
	_, err := v.UpdateAssignment(ctx, asCourier)
	require.NoError(t, err)

	got, err := v.GetAssignmentsForPersonOnDate(ctx, "c1", "2024-01-01")
	require.NoError(t, err)
	ids := []string{}
	for _, a := range got {
		ids = append(ids, a.ID)
	}
	require.ElementsMatch(t, []string{asCourier.ID, asPassenger.ID}, ids, "terminal assignments are included")

	open, err := v.GetOpenAssignmentsForPersonOnDate(ctx, "c1", "2024-01-01")
	require.NoError(t, err)
	require.Len(t, open, 1)
	require.Equal(t, asPassenger.ID, open[0].ID)
}
