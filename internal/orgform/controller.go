// Package orgform drives the organization-creation form: it owns the
// submitting/error state, performs the single create round trip, and decides
// between navigating away and showing an inline error.
package orgform

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/kingrea/orgdesk/internal/orgapi"
	"github.com/kingrea/orgdesk/internal/routepath"
)

const (
	// FallbackCreateError is shown when the service rejects the request without
	// an error message.
	FallbackCreateError = "Failed to create organization"
	// FallbackUnknownError is shown when a transport or decode failure carries
	// no message.
	FallbackUnknownError = "An unknown error occurred"
)

// ErrSubmissionInFlight is returned by Submit when a previous submission has
// not settled yet.
var ErrSubmissionInFlight = errors.New("orgform: submission already in flight")

// Creator performs the create call against the organization service.
type Creator interface {
	CreateOrganization(ctx context.Context, req orgapi.CreateOrganizationRequest) (orgapi.Reply, error)
}

// Navigator moves the client to another view and reloads its data.
type Navigator interface {
	Push(path string)
	Refresh()
}

// Logger receives the diagnostic trace for failed submissions.
type Logger interface {
	Error(format string, args ...any)
}

// State is the form's UI state.
type State struct {
	Submitting bool
	Error      string
	hasError   bool
}

// HasError reports whether an error banner should be shown.
func (s State) HasError() bool { return s.hasError }

// Controller owns one form instance.
type Controller struct {
	creator   Creator
	navigator Navigator
	logger    Logger

	mu    sync.Mutex
	state State
}

// Option customizes controller construction.
type Option func(*Controller)

// WithLogger routes failure traces to l.
func WithLogger(l Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// New mounts a controller with the idle state.
func New(creator Creator, navigator Navigator, opts ...Option) *Controller {
	c := &Controller{
		creator:   creator,
		navigator: navigator,
		logger:    nopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// State returns a copy of the current UI state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submitting reports whether a submission is in flight.
func (c *Controller) Submitting() bool {
	return c.State().Submitting
}

// Begin starts a submission: it marks the form as submitting and clears any
// previous error. It returns false and changes nothing while another
// submission is in flight.
func (c *Controller) Begin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Submitting {
		return false
	}
	c.state = State{Submitting: true}
	return true
}

// Resolve sends the create request and interprets the reply. It does not touch
// the UI state, so it is safe to run off the UI goroutine.
func (c *Controller) Resolve(ctx context.Context, fields Fields) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = Failed(panicMessage(r))
		}
	}()
	if c.creator == nil {
		return Failed(FallbackUnknownError)
	}
	reply, err := c.creator.CreateOrganization(ctx, fields.Request())
	if err != nil {
		return Failed(errorMessage(err))
	}
	return Interpret(reply)
}

// Settle applies an outcome: success navigates and refreshes, failure sets the
// error banner. Submitting is cleared last on every path.
func (c *Controller) Settle(outcome Outcome) {
	defer func() {
		c.mu.Lock()
		c.state.Submitting = false
		c.mu.Unlock()
	}()

	if !outcome.OK() {
		c.logger.Error("Error creating organization: %s", outcome.Message())
		c.mu.Lock()
		c.state.Error = outcome.Message()
		c.state.hasError = true
		c.mu.Unlock()
		return
	}
	if c.navigator == nil {
		return
	}
	c.navigator.Push(outcome.Destination())
	c.navigator.Refresh()
}

// Submit runs a whole submission synchronously.
func (c *Controller) Submit(ctx context.Context, fields Fields) Outcome {
	if !c.Begin() {
		return Failed(ErrSubmissionInFlight.Error())
	}
	outcome := Failed(FallbackUnknownError)
	defer func() { c.Settle(outcome) }()
	outcome = c.Resolve(ctx, fields)
	return outcome
}

// Interpret maps an HTTP reply to an outcome. A non-2xx status is a failure
// carrying the body's error text; a 2xx status is a success, with an id only
// when the body says success and includes a usable organization id.
func Interpret(reply orgapi.Reply) Outcome {
	if !reply.OK() {
		msg := reply.Body.Error
		if strings.TrimSpace(msg) == "" {
			msg = FallbackCreateError
		}
		return Failed(msg)
	}
	if id, ok := reply.CreatedID(); ok {
		return Succeeded(id)
	}
	return Succeeded("")
}

func errorMessage(err error) string {
	if err == nil {
		return FallbackUnknownError
	}
	if msg := err.Error(); strings.TrimSpace(msg) != "" {
		return msg
	}
	return FallbackUnknownError
}

func panicMessage(r any) string {
	switch v := r.(type) {
	case error:
		return errorMessage(v)
	case string:
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return FallbackUnknownError
}

// Destination is the view a successful outcome navigates to.
func (o Outcome) Destination() string {
	if o.HasOrganizationID() {
		return routepath.Organization(o.OrganizationID())
	}
	return routepath.Organizations
}

type nopLogger struct{}

func (nopLogger) Error(string, ...any) {}
