package lifecycle

import (
	"errors"
	"fmt"

	"github.com/lucasavelar/agendly/services/booking-service/internal/model"
)

var ErrIllegalTransition = errors.New("illegal status transition")

// Transition table:
//
//	scheduled → confirmed | cancelled
//	confirmed → completed | no_show | cancelled
//
// completed, no_show and cancelled are terminal.
var transitions = map[model.Status][]model.Status{
	model.StatusScheduled: {model.StatusConfirmed, model.StatusCancelled},
	model.StatusConfirmed: {model.StatusCompleted, model.StatusNoShow, model.StatusCancelled},
}

func CanTransition(from, to model.Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Check returns ErrIllegalTransition (wrapped with both statuses) when the
// move is not in the transition table. Callers must leave the stored status
// unchanged on error.
func Check(from, to model.Status) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return nil
}

// EventType maps a reached status to the domain event published for
// downstream consumers (loyalty accrual listens for the completed event).
func EventType(to model.Status) string {
	switch to {
	case model.StatusConfirmed:
		return "booking.appointment.confirmed.v1"
	case model.StatusCompleted:
		return "booking.appointment.completed.v1"
	case model.StatusNoShow:
		return "booking.appointment.no_show.v1"
	case model.StatusCancelled:
		return "booking.appointment.cancelled.v1"
	}
	return ""
}
