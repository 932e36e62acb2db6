package lifecycle

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/y0lz/backend-json/internal/apperr"
	"github.com/y0lz/backend-json/internal/domain"
)

// Assignment events
const (
	eventCancel   = "cancel"
	eventComplete = "complete"
)

var assignmentEvents = fsm.Events{
	{Name: eventCancel, Src: []string{string(domain.AssignmentAssigned)}, Dst: string(domain.AssignmentCancelled)},
	{Name: eventComplete, Src: []string{string(domain.AssignmentAssigned)}, Dst: string(domain.AssignmentCompleted)},
}

// nextStatus applies event to an assignment in status. Both target states are
// terminal, so any event from them fails with ErrInvalidTransition.
func nextStatus(ctx context.Context, status domain.AssignmentStatus, event string) (domain.AssignmentStatus, error) {
	machine := fsm.NewFSM(string(status), assignmentEvents, fsm.Callbacks{})
	if !machine.Can(event) {
		return status, fmt.Errorf("%s from %s: %w", event, status, apperr.ErrInvalidTransition)
	}
	if err := machine.Event(ctx, event); err != nil {
		return status, fmt.Errorf("%s from %s: %w: %w", event, status, apperr.ErrInvalidTransition, err)
	}
	return domain.AssignmentStatus(machine.Current()), nil
}
