// Package confirm holds a single pending confirm/cancel decision awaiting an
// operator. Destructive operations arm a Confirmer with the action to run on
// approval; a later Confirm or Cancel call resolves it and returns the
// Confirmer to idle.
package confirm

import (
	"errors"
	"sync"
)

var (
	// ErrPending is returned by Arm while an earlier decision is unresolved.
	// Arming is an explicit error rather than a silent overwrite so the
	// earlier prompt's cancel path is never dropped.
	ErrPending = errors.New("confirm: a decision is already pending")

	// ErrNotArmed is returned by Confirm or Cancel when nothing is pending.
	ErrNotArmed = errors.New("confirm: no decision is pending")
)

// Confirmer transitions Idle -> Pending -> (Confirmed | Cancelled) -> Idle.
// There is no timeout transition; an armed decision waits until resolved.
type Confirmer struct {
	mu        sync.Mutex
	onConfirm func() error
	onCancel  func()
	armed     bool
}

// Arm stores the callback pair for the next Confirm or Cancel. onCancel may
// be nil. Returns ErrPending if an earlier decision has not been resolved.
func (c *Confirmer) Arm(onConfirm func() error, onCancel func()) error {
	if onConfirm == nil {
		return errors.New("confirm: onConfirm is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.armed {
		return ErrPending
	}
	c.onConfirm = onConfirm
	c.onCancel = onCancel
	c.armed = true
	return nil
}

// Pending reports whether a decision is armed and unresolved.
func (c *Confirmer) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armed
}

// Confirm runs the armed confirm callback and clears both callbacks. The
// callback's error is returned to the caller; either way the Confirmer is
// idle afterwards.
func (c *Confirmer) Confirm() error {
	c.mu.Lock()
	if !c.armed {
		c.mu.Unlock()
		return ErrNotArmed
	}
	run := c.onConfirm
	c.clearLocked()
	c.mu.Unlock()

	return run()
}

// Cancel runs the armed cancel callback, if any, and clears both callbacks.
// Backdrop dismissal, explicit close, and explicit cancel all route here.
func (c *Confirmer) Cancel() error {
	c.mu.Lock()
	if !c.armed {
		c.mu.Unlock()
		return ErrNotArmed
	}
	run := c.onCancel
	c.clearLocked()
	c.mu.Unlock()

	if run != nil {
		run()
	}
	return nil
}

func (c *Confirmer) clearLocked() {
	c.onConfirm = nil
	c.onCancel = nil
	c.armed = false
}
