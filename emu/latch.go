// Package emu provides the architectural state and functional emulation
// for the RV32I simulator: the two-phase latch primitive, the register
// file, the memory bus, and a one-instruction-per-step reference emulator.
package emu

// Latch is a two-slot storage cell holding a current value and a pending
// next value. It is the primitive behind every piece of clocked state in
// the simulator: writes go to the pending slot and become visible only
// after Commit, which models a clock edge. This keeps combinational
// compute (reads of current values) separate from state update.
type Latch[T any] struct {
	current T
	pending T
}

// NewLatch creates a latch holding v in both slots.
func NewLatch[T any](v T) *Latch[T] {
	return &Latch[T]{current: v, pending: v}
}

// Read returns the current (committed) value.
func (l *Latch[T]) Read() T {
	return l.current
}

// Write stages v as the next value. It is not visible to Read until Commit.
func (l *Latch[T]) Write(v T) {
	l.pending = v
}

// Commit publishes the pending value. Committing without an intervening
// Write re-commits the held value, so an idle latch simply keeps state.
func (l *Latch[T]) Commit() {
	l.current = l.pending
}

// Set writes both slots at once. It exists for initialization and test
// setup only; cycle logic must go through Write/Commit.
func (l *Latch[T]) Set(v T) {
	l.current = v
	l.pending = v
}
