// Package lifecycle owns the rules around shifts and assignments: one shift
// per person and day, cascading removal without orphans, and telling the
// other party when their trip goes away.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/y0lz/backend-json/internal/apperr"
	"github.com/y0lz/backend-json/internal/domain"
	"github.com/y0lz/backend-json/internal/logx"
	"github.com/y0lz/backend-json/internal/storage"
)

type store interface {
	View() *storage.View
}

// DefaultBulkTimeout bounds operations that walk whole collections.
const DefaultBulkTimeout = 2 * time.Minute

// transitionStripes is the number of locks assignment ids are hashed onto.
const transitionStripes = 32

// Manager runs every multi-step operation on one pinned storage view.
type Manager struct {
	store            store
	notifier         Notifier
	logger           logx.Logger
	operationTimeout time.Duration
	bulkTimeout      time.Duration

	// status changes of one assignment are serialised inside the process
	transitions [transitionStripes]sync.Mutex
}

// NewManager creates a Manager. A non-positive timeout defaults to 5s.
func NewManager(s store, n Notifier, logger logx.Logger, timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = logx.Nop()
	}
	bulk := DefaultBulkTimeout
	if timeout > bulk {
		bulk = timeout
	}
	return &Manager{store: s, notifier: n, logger: logger, operationTimeout: timeout, bulkTimeout: bulk}
}

// WithBulkTimeout overrides the budget of SyncShiftsWithPeople.
func (m *Manager) WithBulkTimeout(d time.Duration) *Manager {
	if d > 0 {
		m.bulkTimeout = d
	}
	return m
}

func (m *Manager) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.operationTimeout)
}

func (m *Manager) transitionLock(id string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &m.transitions[h.Sum32()%transitionStripes]
}

// OpenShiftInput describes a shift to open. Date defaults to today and
// BranchID to the person's branch.
type OpenShiftInput struct {
	PersonID           string
	BranchID           string
	Date               string
	StartTime          string
	EndTime            string
	DestinationAddress string
}

func (in OpenShiftInput) validate() error {
	if strings.TrimSpace(in.PersonID) == "" {
		return fmt.Errorf("open shift: person id: %w", apperr.ErrInvalid)
	}
	if in.Date != "" && !domain.ValidDate(in.Date) {
		return fmt.Errorf("open shift: date %q: %w", in.Date, apperr.ErrInvalid)
	}
	for _, c := range []string{in.StartTime, in.EndTime} {
		if c != "" && !domain.ValidClock(c) {
			return fmt.Errorf("open shift: time %q: %w", c, apperr.ErrInvalid)
		}
	}
	return nil
}

// OpenShift creates the person's shift for the day and refreshes the
// person's workUntil and address override. A second shift on the same day
// fails with ErrDuplicateShift.
func (m *Manager) OpenShift(ctx context.Context, in OpenShiftInput) (domain.Shift, error) {
	if err := in.validate(); err != nil {
		return domain.Shift{}, err
	}
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	v := m.store.View()

	person, err := v.GetPersonByID(ctx, in.PersonID)
	if err != nil {
		return domain.Shift{}, err
	}
	if in.Date == "" {
		in.Date = v.Today()
	}
	if in.BranchID == "" {
		in.BranchID = person.BranchID
	}

	has, err := v.HasShiftOnDate(ctx, person.ID, in.Date)
	if err != nil {
		return domain.Shift{}, err
	}
	if has {
		return domain.Shift{}, fmt.Errorf("person %s on %s: %w", person.ID, in.Date, apperr.ErrDuplicateShift)
	}

	shift, err := v.AddShift(ctx, domain.Shift{
		PersonID:           person.ID,
		BranchID:           in.BranchID,
		Date:               in.Date,
		StartTime:          in.StartTime,
		EndTime:            in.EndTime,
		IsWorking:          true,
		DestinationAddress: in.DestinationAddress,
	})
	if err != nil {
		// a concurrent open won the unique key
		if errors.Is(err, apperr.ErrConstraintViolation) {
			if has, herr := v.HasShiftOnDate(ctx, person.ID, in.Date); herr == nil && has {
				return domain.Shift{}, fmt.Errorf("person %s on %s: %w", person.ID, in.Date, apperr.ErrDuplicateShift)
			}
		}
		return domain.Shift{}, err
	}

	fields := map[string]any{"addressOverride": in.DestinationAddress}
	if in.EndTime != "" {
		fields["workUntil"] = in.EndTime
	}
	if _, err := v.PatchPerson(ctx, person.ID, fields); err != nil {
		m.logger.Warn("person shift fields not refreshed",
			logx.String("person_id", person.ID),
			logx.String("shift_id", shift.ID),
			logx.Err(err),
		)
	}

	m.logger.Info("shift opened",
		logx.Event("shift_opened"),
		logx.String("person_id", person.ID),
		logx.String("shift_id", shift.ID),
		logx.String("date", shift.Date),
	)
	return shift, nil
}

// CloseShift removes a shift and every open assignment of its owner on that
// day. The counterpart of each assignment is notified before the assignment
// is deleted, the owner gets one notice, and the shift goes last. It returns
// the number of assignments removed.
func (m *Manager) CloseShift(ctx context.Context, shiftID string) (int, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	v := m.store.View()

	shift, err := v.GetShiftByID(ctx, shiftID)
	if err != nil {
		return 0, err
	}
	owner, err := v.GetPersonByID(ctx, shift.PersonID)
	ownerKnown := err == nil
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return 0, err
	}

	open, err := v.GetOpenAssignmentsForPersonOnDate(ctx, shift.PersonID, shift.Date)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, a := range open {
		m.notifyByID(ctx, v, a.Counterpart(shift.PersonID), msgTripCancelledShiftClosed(a))
		if err := v.DeleteAssignment(ctx, a.ID); err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				continue
			}
			return removed, err
		}
		removed++
	}

	if ownerKnown {
		m.notify(ctx, owner, msgRemovedFromShift(shift))
	}
	if err := v.DeleteShift(ctx, shift.ID); err != nil {
		return removed, err
	}

	m.logger.Info("shift closed",
		logx.Event("shift_closed"),
		logx.String("person_id", shift.PersonID),
		logx.String("shift_id", shift.ID),
		logx.Int("assignments_removed", removed),
	)
	return removed, nil
}

// DeletePerson removes the person's shifts, then every assignment naming them,
// then the person. Counterparts of open assignments are told once each.
// Calling it again fails with ErrNotFound after no-op cascade steps.
func (m *Manager) DeletePerson(ctx context.Context, personID string) error {
	if strings.TrimSpace(personID) == "" {
		return fmt.Errorf("delete person: id: %w", apperr.ErrInvalid)
	}
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	v := m.store.View()

	assignments, err := v.GetAssignmentsForPerson(ctx, personID)
	if err != nil {
		return err
	}
	for _, a := range assignments {
		if !a.Status.Terminal() {
			m.notifyByID(ctx, v, a.Counterpart(personID), msgTripCancelledPersonRemoved(a))
		}
	}

	shifts, err := v.DeleteShiftsForPerson(ctx, personID)
	if err != nil {
		return err
	}
	asCourier, err := v.DeleteAssignmentsWhere(ctx, storage.Where("courier_id", personID))
	if err != nil {
		return err
	}
	asPassenger, err := v.DeleteAssignmentsWhere(ctx, storage.Where("passenger_id", personID))
	if err != nil {
		return err
	}
	if err := v.RemovePerson(ctx, personID); err != nil {
		return err
	}

	m.logger.Info("person deleted",
		logx.Event("person_deleted"),
		logx.String("person_id", personID),
		logx.Int("shifts_removed", shifts),
		logx.Int("assignments_removed", asCourier+asPassenger),
	)
	return nil
}

// CreateAssignment pairs a courier with a passenger and tells both. Branch
// and pickup address default from the courier and the passenger.
func (m *Manager) CreateAssignment(ctx context.Context, a domain.Assignment) (domain.Assignment, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	v := m.store.View()

	courier, err := v.GetPersonByID(ctx, a.CourierID)
	if err != nil {
		return domain.Assignment{}, fmt.Errorf("courier: %w", err)
	}
	passenger, err := v.GetPersonByID(ctx, a.PassengerID)
	if err != nil {
		return domain.Assignment{}, fmt.Errorf("passenger: %w", err)
	}
	if courier.Role != domain.RoleCourier || passenger.Role != domain.RolePassenger {
		return domain.Assignment{}, fmt.Errorf("assignment roles %s/%s: %w", courier.Role, passenger.Role, apperr.ErrInvalid)
	}
	if a.BranchID == "" {
		a.BranchID = courier.BranchID
	}
	if a.PickupAddress == "" {
		a.PickupAddress = passenger.EffectiveAddress()
	}
	if a.Date == "" {
		a.Date = v.Today()
	}

	saved, err := v.AddAssignment(ctx, a)
	if err != nil {
		return domain.Assignment{}, err
	}
	m.notify(ctx, courier, msgTripAssignedCourier(saved, passenger))
	m.notify(ctx, passenger, msgTripAssignedPassenger(saved, courier))

	m.logger.Info("assignment created",
		logx.Event("assignment_created"),
		logx.String("assignment_id", saved.ID),
		logx.String("courier_id", saved.CourierID),
		logx.String("passenger_id", saved.PassengerID),
	)
	return saved, nil
}

// CancelAssignment moves an assigned trip to cancelled and tells both parties.
func (m *Manager) CancelAssignment(ctx context.Context, id string) (domain.Assignment, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	v := m.store.View()

	a, err := m.transition(ctx, v, id, eventCancel)
	if err != nil {
		return domain.Assignment{}, err
	}
	m.notifyByID(ctx, v, a.CourierID, msgTripCancelled(a))
	m.notifyByID(ctx, v, a.PassengerID, msgTripCancelled(a))

	m.logger.Info("assignment cancelled",
		logx.Event("assignment_cancelled"),
		logx.String("assignment_id", a.ID),
	)
	return a, nil
}

// CompleteAssignment moves an assigned trip to completed.
func (m *Manager) CompleteAssignment(ctx context.Context, id string) (domain.Assignment, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	a, err := m.transition(ctx, m.store.View(), id, eventComplete)
	if err != nil {
		return domain.Assignment{}, err
	}
	m.logger.Info("assignment completed",
		logx.Event("assignment_completed"),
		logx.String("assignment_id", a.ID),
	)
	return a, nil
}

// RemoveAssignment deletes an assignment. Both parties of a trip that was
// still assigned are told first.
func (m *Manager) RemoveAssignment(ctx context.Context, id string) error {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	v := m.store.View()

	a, err := v.GetAssignmentByID(ctx, id)
	if err != nil {
		return err
	}
	if !a.Status.Terminal() {
		m.notifyByID(ctx, v, a.CourierID, msgTripCancelled(a))
		m.notifyByID(ctx, v, a.PassengerID, msgTripCancelled(a))
	}
	return v.DeleteAssignment(ctx, a.ID)
}

// SyncShiftsWithPeople moves shifts to their owner's current branch and
// returns how many changed. Shifts of unknown people or people without a
// branch are left alone.
func (m *Manager) SyncShiftsWithPeople(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, m.bulkTimeout)
	defer cancel()
	v := m.store.View()

	people, err := v.GetPeople(ctx)
	if err != nil {
		return 0, err
	}
	branchOf := make(map[string]string, len(people))
	for _, p := range people {
		branchOf[p.ID] = p.BranchID
	}
	shifts, err := v.GetShifts(ctx)
	if err != nil {
		return 0, err
	}
	updated := 0
	for _, s := range shifts {
		branch := branchOf[s.PersonID]
		if branch == "" || branch == s.BranchID {
			continue
		}
		s.BranchID = branch
		if _, err := v.UpdateShift(ctx, s); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// transition reads, checks and writes under the assignment's stripe lock, so
// two concurrent events on one assignment cannot both pass the check. Writers
// in other processes are still last-writer-wins.
func (m *Manager) transition(ctx context.Context, v *storage.View, id, event string) (domain.Assignment, error) {
	mu := m.transitionLock(id)
	mu.Lock()
	defer mu.Unlock()

	a, err := v.GetAssignmentByID(ctx, id)
	if err != nil {
		return domain.Assignment{}, err
	}
	next, err := nextStatus(ctx, a.Status, event)
	if err != nil {
		return domain.Assignment{}, fmt.Errorf("assignment %s: %w", a.ID, err)
	}
	a.Status = next
	return v.UpdateAssignment(ctx, a)
}

// notifyByID resolves the person first; a missing person only gets logged.
func (m *Manager) notifyByID(ctx context.Context, v *storage.View, personID, message string) {
	if personID == "" {
		return
	}
	p, err := v.GetPersonByID(ctx, personID)
	if err != nil {
		m.logger.Warn("notification recipient not resolved",
			logx.Event("notification_failed"),
			logx.String("person_id", personID),
			logx.Err(err),
		)
		return
	}
	m.notify(ctx, p, message)
}

// notify never fails the caller.
func (m *Manager) notify(ctx context.Context, p domain.Person, message string) {
	if m.notifier == nil || p.ExternalContactID == "" {
		return
	}
	if err := m.notifier.Notify(ctx, p.ExternalContactID, message); err != nil {
		m.logger.Warn("notification not sent",
			logx.Event("notification_failed"),
			logx.String("person_id", p.ID),
			logx.Err(err),
		)
	}
}
