package tui

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/orgdesk/internal/logbook"
	"github.com/kingrea/orgdesk/internal/orgapi"
	"github.com/kingrea/orgdesk/internal/orgform"
	"github.com/kingrea/orgdesk/internal/routepath"
	"github.com/kingrea/orgdesk/internal/sandbox"
)

type fakeService struct {
	mu        sync.Mutex
	orgs      []orgapi.Organization
	reply     orgapi.Reply
	createErr error
	requests  []orgapi.CreateOrganizationRequest
	listCalls int
}

func (f *fakeService) CreateOrganization(_ context.Context, req orgapi.CreateOrganizationRequest) (orgapi.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.createErr != nil {
		return orgapi.Reply{}, f.createErr
	}
	if org := f.reply.Body.Organization; org != nil {
		f.orgs = append(f.orgs, *org)
	}
	return f.reply, nil
}

func (f *fakeService) ListOrganizations(context.Context) ([]orgapi.Organization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	out := make([]orgapi.Organization, len(f.orgs))
	copy(out, f.orgs)
	return out, nil
}

func (f *fakeService) GetOrganization(_ context.Context, id string) (orgapi.Organization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, org := range f.orgs {
		if org.ID.String() == id {
			return org, nil
		}
	}
	return orgapi.Organization{}, &orgapi.APIError{StatusCode: http.StatusNotFound, Message: "Organization not found"}
}

func (f *fakeService) createCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func newTestApp(t *testing.T, service OrganizationService, opts ...AppOption) *App {
	t.Helper()
	lb, err := logbook.New(filepath.Join(t.TempDir(), "logs", "orgdesk.log"))
	if err != nil {
		t.Fatalf("logbook: %v", err)
	}
	t.Cleanup(func() { _ = lb.Close() })
	opts = append([]AppOption{WithLogbook(lb)}, opts...)
	app, err := NewApp(nil, service, opts...)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return runCommands(t, app, app.Init())
}

// runCommands feeds command results back into the app until nothing is left.
// Commands that wait on a timer (cursor blink, spinner frames) are dropped.
func runCommands(t *testing.T, model tea.Model, cmd tea.Cmd) *App {
	t.Helper()
	app, ok := model.(*App)
	if !ok {
		t.Fatalf("unexpected model type: %T", model)
	}
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 200 {
			t.Fatalf("commands did not settle")
		}
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg, done := execCmd(next)
		if !done {
			continue
		}
		switch m := msg.(type) {
		case nil, cursor.BlinkMsg:
			continue
		case tea.BatchMsg:
			queue = append(queue, m...)
			continue
		}
		nextModel, nextCmd := app.Update(msg)
		app, ok = nextModel.(*App)
		if !ok {
			t.Fatalf("unexpected model type: %T", nextModel)
		}
		queue = append(queue, nextCmd)
	}
	return app
}

func execCmd(cmd tea.Cmd) (tea.Msg, bool) {
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		return msg, true
	case <-time.After(200 * time.Millisecond):
		return nil, false
	}
}

func press(t *testing.T, app *App, msg tea.KeyMsg) (*App, tea.Cmd) {
	t.Helper()
	model, cmd := app.Update(msg)
	next, ok := model.(*App)
	if !ok {
		t.Fatalf("unexpected model type: %T", model)
	}
	return next, cmd
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func openForm(t *testing.T, app *App) *App {
	t.Helper()
	app, cmd := press(t, app, keyRunes("n"))
	app = runCommands(t, app, cmd)
	if app.route.Kind != routepath.KindNew || app.form == nil {
		t.Fatalf("expected new organization form, route %s", app.route.Kind)
	}
	return app
}

func fillForm(t *testing.T, app *App, f orgform.Fields) *App {
	t.Helper()
	values := []string{f.Name, f.ContactName, f.ContactEmail}
	for i, value := range values {
		if value != "" {
			app, _ = press(t, app, keyRunes(value))
		}
		if i < len(values)-1 {
			app, _ = press(t, app, keyTab)
		}
	}
	return app
}

func acme() orgform.Fields {
	return orgform.Fields{Name: "Acme Corporation", ContactName: "John Doe", ContactEmail: "john@example.com"}
}

func TestListLoadsOrganizationsOnInit(t *testing.T) {
	service := &fakeService{orgs: []orgapi.Organization{
		{ID: "1", Name: "Acme Corporation", ContactName: "John Doe", ContactEmail: "john@example.com"},
		{ID: "2", Name: "Globex", ContactName: "Hank Scorpio", ContactEmail: "hank@globex.test"},
	}}
	app := newTestApp(t, service)
	if app.route.Kind != routepath.KindList {
		t.Fatalf("expected list route, got %s", app.route.Kind)
	}
	if got := len(app.list.list.Items()); got != 2 {
		t.Fatalf("expected 2 organizations, got %d", got)
	}
	if app.statusMsg != "2 organizations" {
		t.Fatalf("status = %q", app.statusMsg)
	}
	if !strings.Contains(app.View(), "⬡ ORGDESK") {
		t.Fatalf("header missing from view")
	}
}

func TestCreateNavigatesToDetail(t *testing.T) {
	service := &fakeService{reply: orgapi.Reply{
		StatusCode: http.StatusCreated,
		Body: orgapi.Envelope{Success: true, Organization: &orgapi.Organization{
			ID: "42", Name: "Acme Corporation", ContactName: "John Doe", ContactEmail: "john@example.com",
		}},
	}}
	app := openForm(t, newTestApp(t, service))
	app = fillForm(t, app, acme())

	app, cmd := press(t, app, keyEnter)
	if !app.form.controller.Submitting() {
		t.Fatalf("expected submission in flight")
	}
	if !strings.Contains(app.View(), "Creating...") {
		t.Fatalf("expected creating label while submitting")
	}
	form := app.form
	app = runCommands(t, app, cmd)

	if form.controller.Submitting() {
		t.Fatalf("submitting flag must clear after the reply")
	}
	if got := app.router.Current().Path; got != "/organizations/42" {
		t.Fatalf("expected detail path, got %s", got)
	}
	if app.detail == nil || app.detail.org == nil || app.detail.org.Name != "Acme Corporation" {
		t.Fatalf("detail view did not load the organization")
	}
	if len(service.requests) != 1 || service.requests[0] != acme().Request() {
		t.Fatalf("unexpected requests: %+v", service.requests)
	}
}

func TestCreateWithoutIDReturnsToList(t *testing.T) {
	service := &fakeService{reply: orgapi.Reply{StatusCode: http.StatusOK, Body: orgapi.Envelope{Success: true}}}
	app := openForm(t, newTestApp(t, service))
	app = fillForm(t, app, acme())
	app, cmd := press(t, app, keyEnter)
	app = runCommands(t, app, cmd)

	if app.route.Kind != routepath.KindList {
		t.Fatalf("expected list route, got %s", app.route.Kind)
	}
	if service.listCalls != 2 {
		t.Fatalf("expected list to reload once after create, got %d loads", service.listCalls)
	}
}

func TestCreateFailureStaysOnForm(t *testing.T) {
	service := &fakeService{reply: orgapi.Reply{
		StatusCode: http.StatusConflict,
		Body:       orgapi.Envelope{Error: "Name already exists"},
	}}
	app := openForm(t, newTestApp(t, service))
	app = fillForm(t, app, acme())
	app, cmd := press(t, app, keyEnter)
	app = runCommands(t, app, cmd)

	if app.route.Kind != routepath.KindNew {
		t.Fatalf("expected to stay on the form, got %s", app.route.Kind)
	}
	state := app.form.controller.State()
	if state.Submitting || state.Error != "Name already exists" {
		t.Fatalf("unexpected form state: %+v", state)
	}
	if !strings.Contains(app.View(), "Name already exists") {
		t.Fatalf("error banner missing from view")
	}
	if got := app.form.inputs[focusName].Value(); got != "Acme Corporation" {
		t.Fatalf("input should keep its value, got %q", got)
	}
	lines, _ := app.logbook.Tail(20)
	if !strings.Contains(strings.Join(lines, "\n"), "Error creating organization: Name already exists") {
		t.Fatalf("expected diagnostic trace in log, got %v", lines)
	}
}

func TestTransportErrorShowsMessage(t *testing.T) {
	service := &fakeService{createErr: errors.New("dial tcp: connection refused")}
	app := openForm(t, newTestApp(t, service))
	app = fillForm(t, app, acme())
	app, cmd := press(t, app, keyEnter)
	app = runCommands(t, app, cmd)

	if got := app.form.controller.State().Error; got != "dial tcp: connection refused" {
		t.Fatalf("error = %q", got)
	}
}

func TestSubmitIgnoredWhileSubmitting(t *testing.T) {
	service := &fakeService{reply: orgapi.Reply{StatusCode: http.StatusOK, Body: orgapi.Envelope{Success: true}}}
	app := openForm(t, newTestApp(t, service))
	app = fillForm(t, app, acme())
	app, first := press(t, app, keyEnter)
	app, second := press(t, app, keyEnter)
	if second != nil {
		t.Fatalf("second submit should be ignored while submitting")
	}
	runCommands(t, app, first)
	if got := service.createCalls(); got != 1 {
		t.Fatalf("expected one request, got %d", got)
	}
}

func TestValidationBlocksSubmission(t *testing.T) {
	service := &fakeService{}
	app := openForm(t, newTestApp(t, service))
	app = fillForm(t, app, orgform.Fields{Name: "Acme Corporation", ContactEmail: "not-an-email"})
	app, cmd := press(t, app, keyEnter)
	app = runCommands(t, app, cmd)

	if service.createCalls() != 0 {
		t.Fatalf("invalid input must not reach the service")
	}
	if app.form.controller.Submitting() {
		t.Fatalf("validation failure must not start a submission")
	}
	if app.form.focus != focusContactName {
		t.Fatalf("expected focus on first invalid field, got %d", app.form.focus)
	}
	view := app.View()
	for _, want := range []string{"Please fill out this field.", "Please enter an email address."} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q", want)
		}
	}
}

func TestCancelReturnsToList(t *testing.T) {
	app := openForm(t, newTestApp(t, &fakeService{}))
	app, cmd := press(t, app, keyEsc)
	app = runCommands(t, app, cmd)
	if app.route.Kind != routepath.KindList {
		t.Fatalf("expected list after cancel, got %s", app.route.Kind)
	}
}

func TestStaleListLoadIsDropped(t *testing.T) {
	service := &fakeService{}
	app := newTestApp(t, service)
	stale := app.shown

	app, cmd := press(t, app, keyRunes("r"))
	if app.shown == stale {
		t.Fatalf("refresh should move to a new revision")
	}
	model, _ := app.Update(organizationsLoadedMsg{
		revision:      stale,
		organizations: []orgapi.Organization{{ID: "9", Name: "Old"}},
	})
	app = model.(*App)
	if got := len(app.list.list.Items()); got != 0 {
		t.Fatalf("stale reply should be dropped, got %d items", got)
	}
	app = runCommands(t, app, cmd)
	if service.listCalls != 2 {
		t.Fatalf("expected a reload after refresh, got %d loads", service.listCalls)
	}
}

func TestUnknownPathFallsBackToList(t *testing.T) {
	app := newTestApp(t, &fakeService{}, WithInitialPath("/nowhere"))
	if got := app.router.Current().Path; got != routepath.Organizations {
		t.Fatalf("expected fallback to list, got %s", got)
	}
	if app.route.Kind != routepath.KindList {
		t.Fatalf("route = %s", app.route.Kind)
	}
}

func TestQuitFromList(t *testing.T) {
	app := newTestApp(t, &fakeService{})
	_, cmd := press(t, app, keyRunes("q"))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestCreateAgainstSandbox(t *testing.T) {
	srv := sandbox.NewServer(sandbox.Settings{})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	client, err := orgapi.NewClient(ts.URL)
	if err != nil {
		t.Fatalf("client: %v", err)
	}

	app := openForm(t, newTestApp(t, client))
	app = fillForm(t, app, acme())
	app, cmd := press(t, app, keyEnter)
	app = runCommands(t, app, cmd)

	if app.route.Kind != routepath.KindDetail {
		t.Fatalf("expected detail route, got %s (status %q)", app.route.Kind, app.statusMsg)
	}
	orgs := srv.Store().List()
	if len(orgs) != 1 || app.route.ID != orgs[0].ID.String() {
		t.Fatalf("route id %q does not match stored %v", app.route.ID, orgs)
	}
	if !strings.Contains(app.View(), "john@example.com") {
		t.Fatalf("detail view missing contact email")
	}

	// A second organization with the same name is rejected by the service.
	app, cmd = press(t, app, keyEsc)
	app = runCommands(t, app, cmd)
	app = openForm(t, app)
	app = fillForm(t, app, orgform.Fields{Name: "acme corporation", ContactName: "Jane Doe", ContactEmail: "jane@example.com"})
	app, cmd = press(t, app, keyEnter)
	app = runCommands(t, app, cmd)
	if got := app.form.controller.State().Error; got != "Name already exists" {
		t.Fatalf("error = %q", got)
	}
}
