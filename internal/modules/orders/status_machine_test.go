package orders

import (
	"errors"
	"testing"

	"ecocollect/internal/models"
)

func TestLegalTransitions(t *testing.T) {
	legal := []struct{ from, to models.OrderStatus }{
		{models.StatusPending, models.StatusConfirmed},
		{models.StatusPending, models.StatusAssigned},
		{models.StatusPending, models.StatusCancelled},
		{models.StatusConfirmed, models.StatusAssigned},
		{models.StatusConfirmed, models.StatusCancelled},
		{models.StatusAssigned, models.StatusInTransit},
		{models.StatusInTransit, models.StatusArrived},
		{models.StatusArrived, models.StatusCompleted},
	}
	for _, tc := range legal {
		if err := ValidateTransition(tc.from, tc.to); err != nil {
			t.Errorf("%s -> %s should be legal, got %v", tc.from, tc.to, err)
		}
	}
}

func TestIllegalTransitions(t *testing.T) {
	illegal := []struct{ from, to models.OrderStatus }{
		{models.StatusCancelled, models.StatusCompleted},
		{models.StatusCompleted, models.StatusCancelled},
		{models.StatusAssigned, models.StatusCancelled},
		{models.StatusAssigned, models.StatusCompleted},
		{models.StatusPending, models.StatusInTransit},
		{models.StatusPending, models.StatusArrived},
		{models.StatusInTransit, models.StatusCompleted},
		{models.StatusArrived, models.StatusInTransit},
		{models.StatusCompleted, models.StatusCompleted},
	}
	for _, tc := range illegal {
		if err := ValidateTransition(tc.from, tc.to); !errors.Is(err, models.ErrIllegalTransition) {
			t.Errorf("%s -> %s should be illegal, got %v", tc.from, tc.to, err)
		}
	}
}

func TestUnknownStatusIsIllegal(t *testing.T) {
	if err := ValidateTransition(models.OrderStatus("driving"), models.StatusArrived); !errors.Is(err, models.ErrIllegalTransition) {
		t.Fatalf("unknown source status accepted: %v", err)
	}
	if err := ValidateTransition(models.StatusPending, models.OrderStatus("done")); !errors.Is(err, models.ErrIllegalTransition) {
		t.Fatalf("unknown target status accepted: %v", err)
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	for _, s := range []models.OrderStatus{models.StatusCompleted, models.StatusCancelled} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
		if n := len(transitions[s]); n != 0 {
			t.Errorf("%s has %d exits, want 0", s, n)
		}
	}
}
