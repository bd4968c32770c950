// internal/tui/app.go
//
// This is the main TUI (Terminal User Interface) for orgdesk.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen
//
// Which view is on screen is decided by the router, not by the model. Every
// Update ends with syncRoute, which notices when the router moved (a push, a
// back, or a refresh) and starts the load for the new location.

package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/orgdesk/internal/config"
	"github.com/kingrea/orgdesk/internal/logbook"
	"github.com/kingrea/orgdesk/internal/navigation"
	"github.com/kingrea/orgdesk/internal/orgapi"
	"github.com/kingrea/orgdesk/internal/orgform"
	"github.com/kingrea/orgdesk/internal/routepath"
)

const logPanelLines = 8

// OrganizationService is everything the views ask of the organization service.
// *orgapi.Client satisfies it.
type OrganizationService interface {
	orgform.Creator
	ListOrganizations(ctx context.Context) ([]orgapi.Organization, error)
	GetOrganization(ctx context.Context, id string) (orgapi.Organization, error)
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithLogbook routes session activity to the given logbook and shows its tail.
func WithLogbook(lb *logbook.Logbook) AppOption {
	return func(a *App) {
		if lb != nil {
			a.logbook = lb
		}
	}
}

// WithInitialPath opens the app on a view other than the organization list.
func WithInitialPath(path string) AppOption {
	return func(a *App) {
		if path = strings.TrimSpace(path); path != "" {
			a.initialPath = path
		}
	}
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	config      *config.Config
	service     OrganizationService
	router      *navigation.Router
	logbook     *logbook.Logbook
	initialPath string

	// route and shown describe the location currently on screen
	route routepath.Route
	shown uint64

	list   *listView
	form   *formView
	detail *detailView

	statusMsg string

	// Window size (we get this from bubbletea)
	width  int
	height int
}

// NewApp creates a new App instance
func NewApp(cfg *config.Config, service OrganizationService, opts ...AppOption) (*App, error) {
	if service == nil {
		return nil, fmt.Errorf("tui: organization service is required")
	}
	app := &App{
		config:      cfg,
		service:     service,
		initialPath: routepath.Organizations,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	app.router = navigation.NewRouter(app.initialPath)
	app.router.Subscribe(func(loc navigation.Location) {
		app.logInfo("Navigated to %s (revision %d)", loc.Path, loc.Revision)
	})
	app.list = newListView(app)
	if cfg != nil {
		app.logInfo("Session opened · organization service %s", cfg.APIBaseURL())
	} else {
		app.logInfo("Session opened")
	}
	return app, nil
}

// Router exposes the navigation history backing the views.
func (a *App) Router() *navigation.Router {
	return a.router
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logWarn(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Warn(format, args...)
}

func (a *App) formOptions() []orgform.Option {
	if a.logbook == nil {
		return nil
	}
	return []orgform.Option{orgform.WithLogger(a.logbook)}
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return a.syncRoute()
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.list.setSize(max(20, msg.Width-8), max(5, msg.Height-logPanelLines-12))
		return a, nil

	case organizationsLoadedMsg:
		if msg.revision != a.shown || a.route.Kind != routepath.KindList {
			return a, nil
		}
		a.list.apply(msg)
		return a, nil

	case organizationLoadedMsg:
		if msg.revision != a.shown || a.detail == nil {
			return a, nil
		}
		a.detail.apply(msg)
		return a, nil

	case submissionResolvedMsg:
		// The form that started the submission settles it, even if it is no
		// longer on screen.
		cmd := msg.form.settle(msg.outcome)
		return a, tea.Batch(cmd, a.syncRoute())

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
	}

	var cmd tea.Cmd
	switch a.route.Kind {
	case routepath.KindList:
		cmd = a.list.Update(msg)
	case routepath.KindNew:
		if a.form != nil {
			cmd = a.form.Update(msg)
		}
	case routepath.KindDetail:
		if a.detail != nil {
			cmd = a.detail.Update(msg)
		}
	}
	return a, tea.Batch(cmd, a.syncRoute())
}

// syncRoute switches views when the router location changed since the last
// render and returns the load for the new location.
func (a *App) syncRoute() tea.Cmd {
	loc := a.router.Current()
	if loc.Revision == a.shown {
		return nil
	}
	previous := a.route
	a.shown = loc.Revision
	a.route = loc.Route

	switch loc.Route.Kind {
	case routepath.KindList:
		return a.list.Load(loc.Revision)
	case routepath.KindNew:
		if a.form == nil || previous.Kind != routepath.KindNew {
			a.form = newFormView(a)
		}
		return a.form.Init()
	case routepath.KindDetail:
		if a.detail == nil || previous.Kind != routepath.KindDetail || previous.ID != loc.Route.ID {
			a.detail = newDetailView(a, loc.Route.ID)
		}
		return a.detail.Load(loc.Revision)
	default:
		a.logWarn("Unknown location %s, showing organizations", loc.Path)
		a.statusMsg = fmt.Sprintf("Unknown location %s", loc.Path)
		a.router.Replace(routepath.Organizations)
		return a.syncRoute()
	}
}

// View renders the current state to a string.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	var content string
	switch a.route.Kind {
	case routepath.KindList:
		content = a.list.View()
	case routepath.KindNew:
		if a.form != nil {
			content = a.form.View()
		}
	case routepath.KindDetail:
		if a.detail != nil {
			content = a.detail.View()
		}
	}
	if content == "" {
		content = "Loading..."
	}

	sections := []string{
		headerStyle.Render("⬡ ORGDESK"),
		panelStyle.Width(max(20, width-4)).Render(content),
	}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		MarginTop(1).
		Render(a.statusMsg)
	sections = append(sections, footer)
	return strings.Join(sections, "\n")
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines, total := a.logbook.Tail(logPanelLines)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := titleStyle.Render(fmt.Sprintf("LOG · %s (%d)", fileName, total))
	body := hintStyle.Render(strings.Join(lines, "\n"))
	return panelStyle.Render(fmt.Sprintf("%s\n%s", head, body))
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
