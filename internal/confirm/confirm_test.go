package confirm

import (
	"errors"
	"testing"
)

func TestConfirmRunsArmedCallbackOnce(t *testing.T) {
	var c Confirmer
	confirmed, cancelled := 0, 0

	if err := c.Arm(func() error { confirmed++; return nil }, func() { cancelled++ }); err != nil {
		t.Fatalf("arm: %v", err)
	}
	if !c.Pending() {
		t.Fatal("expected pending after arm")
	}

	if err := c.Confirm(); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed != 1 || cancelled != 0 {
		t.Errorf("confirmed=%d cancelled=%d, want 1/0", confirmed, cancelled)
	}
	if c.Pending() {
		t.Error("expected idle after confirm")
	}

	// Both callbacks are cleared; a second resolution is a no-op error.
	if err := c.Confirm(); !errors.Is(err, ErrNotArmed) {
		t.Errorf("second confirm err = %v, want ErrNotArmed", err)
	}
	if err := c.Cancel(); !errors.Is(err, ErrNotArmed) {
		t.Errorf("cancel after confirm err = %v, want ErrNotArmed", err)
	}
	if confirmed != 1 || cancelled != 0 {
		t.Errorf("callbacks ran again: confirmed=%d cancelled=%d", confirmed, cancelled)
	}
}

func TestCancelRunsCancelCallback(t *testing.T) {
	var c Confirmer
	confirmed, cancelled := 0, 0

	c.Arm(func() error { confirmed++; return nil }, func() { cancelled++ })
	if err := c.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if confirmed != 0 || cancelled != 1 {
		t.Errorf("confirmed=%d cancelled=%d, want 0/1", confirmed, cancelled)
	}
	if c.Pending() {
		t.Error("expected idle after cancel")
	}
}

func TestCancelWithNilCallback(t *testing.T) {
	var c Confirmer
	c.Arm(func() error { return nil }, nil)
	if err := c.Cancel(); err != nil {
		t.Errorf("cancel with nil callback: %v", err)
	}
	if c.Pending() {
		t.Error("expected idle after cancel")
	}
}

func TestArmWhilePendingIsRejected(t *testing.T) {
	var c Confirmer
	first := 0
	c.Arm(func() error { first++; return nil }, nil)

	err := c.Arm(func() error { t.Fatal("second callback must not be stored"); return nil }, nil)
	if !errors.Is(err, ErrPending) {
		t.Fatalf("second arm err = %v, want ErrPending", err)
	}

	// The original decision is still the armed one.
	if err := c.Confirm(); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if first != 1 {
		t.Errorf("first callback ran %d times, want 1", first)
	}
}

func TestConfirmPropagatesCallbackError(t *testing.T) {
	var c Confirmer
	boom := errors.New("boom")
	c.Arm(func() error { return boom }, nil)

	if err := c.Confirm(); !errors.Is(err, boom) {
		t.Errorf("confirm err = %v, want boom", err)
	}
	// A failed confirm still resolves the decision.
	if c.Pending() {
		t.Error("expected idle after failed confirm")
	}
}

func TestArmRequiresConfirmCallback(t *testing.T) {
	var c Confirmer
	if err := c.Arm(nil, nil); err == nil {
		t.Error("expected error arming without confirm callback")
	}
	if c.Pending() {
		t.Error("confirmer must stay idle")
	}
}
