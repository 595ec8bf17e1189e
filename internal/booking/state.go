// Package booking models the booking lifecycle as a closed set of
// states and a transition table.
package booking

import (
	"fmt"

	"github.com/iliyamo/student-services-portal/internal/model"
)

// State is one of Pending, Confirmed or Cancelled.
type State string

const (
	Pending   State = State(model.BookingPending)
	Confirmed State = State(model.BookingConfirmed)
	Cancelled State = State(model.BookingCancelled)
)

type edges struct{ next, prev State }

// transitions lists every legal move.  An empty target means the
// move is not allowed from that state.
var transitions = map[State]edges{
	Pending:   {next: Confirmed},
	Confirmed: {next: Cancelled, prev: Pending},
	Cancelled: {},
}

// Parse converts a stored status into a State.
func Parse(s string) (State, error) {
	st := State(s)
	if _, ok := transitions[st]; !ok {
		return "", fmt.Errorf("unknown booking state %q", s)
	}
	return st, nil
}

// Next returns the state that follows s, or false if s has none.
func (s State) Next() (State, bool) {
	e := transitions[s]
	return e.next, e.next != ""
}

// Prev returns the state before s, or false if s has none.
func (s State) Prev() (State, bool) {
	e := transitions[s]
	return e.prev, e.prev != ""
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	e := transitions[s]
	return e.next == "" && e.prev == ""
}

// Status converts s back to the persisted booking status.
func (s State) Status() model.BookingStatus { return model.BookingStatus(s) }

// Context holds the current state of one booking as it is walked
// through the lifecycle.
type Context struct {
	state State
}

// NewContext starts a context in s.
func NewContext(s State) *Context { return &Context{state: s} }

// State returns the current state.
func (c *Context) State() State { return c.state }

// Next moves forward and reports whether the state changed.
func (c *Context) Next() bool {
	n, ok := c.state.Next()
	if ok {
		c.state = n
	}
	return ok
}

// Prev moves back and reports whether the state changed.
func (c *Context) Prev() bool {
	p, ok := c.state.Prev()
	if ok {
		c.state = p
	}
	return ok
}

// PrintStatus returns the name of the current state.
func (c *Context) PrintStatus() string { return string(c.state) }
