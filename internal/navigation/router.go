// Package navigation keeps the client-side view history for the terminal UI.
package navigation

import (
	"strings"
	"sync"

	"github.com/kingrea/orgdesk/internal/routepath"
)

// Location is the view the router currently points at. Revision increases on
// every push and refresh so views can tell stale loads from current ones.
type Location struct {
	Path     string
	Route    routepath.Route
	Revision uint64
}

// Router is a history stack of view paths.
type Router struct {
	mu        sync.Mutex
	history   []string
	revision  uint64
	listeners []func(Location)
}

// NewRouter starts the history at the given path, or at the organization list
// when the path is blank.
func NewRouter(initial string) *Router {
	initial = strings.TrimSpace(initial)
	if initial == "" {
		initial = routepath.Organizations
	}
	return &Router{history: []string{initial}, revision: 1}
}

// Subscribe registers a callback that runs after every push, back, or refresh.
func (r *Router) Subscribe(fn func(Location)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

// Push navigates to path and records it in the history.
func (r *Router) Push(path string) {
	path = strings.TrimSpace(path)
	if path == "" {
		return
	}
	r.mu.Lock()
	r.history = append(r.history, path)
	r.revision++
	loc, listeners := r.snapshotLocked()
	r.mu.Unlock()
	notify(listeners, loc)
}

// Replace swaps the current entry without growing the history.
func (r *Router) Replace(path string) {
	path = strings.TrimSpace(path)
	if path == "" {
		return
	}
	r.mu.Lock()
	r.history[len(r.history)-1] = path
	r.revision++
	loc, listeners := r.snapshotLocked()
	r.mu.Unlock()
	notify(listeners, loc)
}

// Back pops the current entry. It reports false when there is nowhere to go.
func (r *Router) Back() bool {
	r.mu.Lock()
	if len(r.history) < 2 {
		r.mu.Unlock()
		return false
	}
	r.history = r.history[:len(r.history)-1]
	r.revision++
	loc, listeners := r.snapshotLocked()
	r.mu.Unlock()
	notify(listeners, loc)
	return true
}

// Refresh invalidates cached data for the current location.
func (r *Router) Refresh() {
	r.mu.Lock()
	r.revision++
	loc, listeners := r.snapshotLocked()
	r.mu.Unlock()
	notify(listeners, loc)
}

// Current returns the active location.
func (r *Router) Current() Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	loc, _ := r.snapshotLocked()
	return loc
}

// Depth reports how many entries are in the history.
func (r *Router) Depth() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.history)
}

func (r *Router) snapshotLocked() (Location, []func(Location)) {
	path := r.history[len(r.history)-1]
	loc := Location{Path: path, Route: routepath.Parse(path), Revision: r.revision}
	listeners := make([]func(Location), len(r.listeners))
	copy(listeners, r.listeners)
	return loc, listeners
}

func notify(listeners []func(Location), loc Location) {
	for _, fn := range listeners {
		fn(loc)
	}
}
