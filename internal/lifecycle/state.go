// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"bundlectl/internal/issue"

	"golang.org/x/exp/slices"
)

// State is the lifecycle position of the managed bundle. Operations advance
// it through the transition table; an out-of-order call fails instead of
// silently reusing partially initialized state.
type State int

const (
	StateUninitialized State = iota
	StateUnpacked
	StateConfigured
	StateRendered
	StateRunning
	StateStopped
	StateUninstalled
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateUnpacked:
		return "unpacked"
	case StateConfigured:
		return "configured"
	case StateRendered:
		return "rendered"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateUninstalled:
		return "uninstalled"
	default:
		return "unknown"
	}
}

// transitions lists, per state, the states an operation may advance to.
// Unpack is re-invocable (a second unpack is a reload), and a stopped or
// uninstalled bundle can start a fresh cycle.
var transitions = map[State][]State{
	StateUninitialized: {StateUnpacked},
	StateUnpacked:      {StateUnpacked, StateConfigured},
	StateConfigured:    {StateUnpacked, StateConfigured, StateRendered},
	StateRendered:      {StateRendered, StateRunning, StateStopped},
	StateRunning:       {StateUnpacked, StateStopped},
	StateStopped:       {StateUnpacked, StateUninstalled},
	StateUninstalled:   {StateUninitialized, StateUnpacked},
}

// advance moves the manager to next, or fails with a configuration error
// when the transition table does not allow it.
func (m *Manager) advance(next State) error {
	if slices.Contains(transitions[m.state], next) {
		m.state = next
		return nil
	}
	return issue.NewErrorContext().
		WithKind(issue.KindConfiguration).
		WithOperation("advance lifecycle from " + m.state.String() + " to " + next.String()).
		WithSuggestion("Operations must follow the lifecycle order: unpack, configure, render, run, stop, uninstall, clean").
		BuildError()
}
