// Package narrative implements the guided "crisis to resolution" demo tour
// as an explicit state machine.
package narrative

import "sync"

// State is a step of the tour.
type State string

const (
	StateWelcome State = "welcome"
	StateAction  State = "action"
	StateResolve State = "resolve"
	StateDone    State = "done"
)

// EventKind names something the user did.
type EventKind string

const (
	EventDismissWelcome  EventKind = "dismiss_welcome"
	EventOpenActionItems EventKind = "open_action_items"
	EventResolveAlert    EventKind = "resolve_alert"
	EventLeaveDemo       EventKind = "leave_demo"
)

// Event is an input to the controller. AlertID is only meaningful for
// EventResolveAlert.
type Event struct {
	Kind    EventKind
	AlertID string
}

// Script names the fixed records the tour is written around.
type Script struct {
	AlertID       string
	TransactionID string
}

type transition struct {
	from State
	on   EventKind
}

// transitions is the complete forward graph. EventLeaveDemo is handled
// separately because it applies from every state.
var transitions = map[transition]State{
	{StateWelcome, EventDismissWelcome}: StateAction,
	{StateAction, EventOpenActionItems}: StateResolve,
	{StateResolve, EventResolveAlert}:   StateDone,
}

// Controller tracks the current tour step. It is safe for concurrent use.
type Controller struct {
	mu      sync.Mutex
	script  Script
	state   State
	history []State
}

// NewController returns a controller positioned at StateWelcome.
func NewController(script Script) *Controller {
	return &Controller{
		script:  script,
		state:   StateWelcome,
		history: []State{StateWelcome},
	}
}

// NewFinished returns a controller that is already done, for sessions that
// never enter the demo.
func NewFinished(script Script) *Controller {
	return &Controller{
		script:  script,
		state:   StateDone,
		history: []State{StateDone},
	}
}

// Script returns the designated alert and transaction ids.
func (c *Controller) Script() Script {
	return c.script
}

// State returns the current step.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// History returns the states visited so far, in order.
func (c *Controller) History() []State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]State(nil), c.history...)
}

// Fire applies ev and reports the resulting state and whether a transition
// happened. Events that do not match the current state are ignored.
func (c *Controller) Fire(ev Event) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateDone {
		return c.state, false
	}

	var next State
	switch {
	case ev.Kind == EventLeaveDemo:
		next = StateDone
	case ev.Kind == EventResolveAlert && ev.AlertID != c.script.AlertID:
		return c.state, false
	default:
		var ok bool
		next, ok = transitions[transition{c.state, ev.Kind}]
		if !ok {
			return c.state, false
		}
	}

	c.state = next
	c.history = append(c.history, next)
	return next, true
}
