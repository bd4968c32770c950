package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/orgdesk/internal/orgapi"
	"github.com/kingrea/orgdesk/internal/routepath"
)

type organizationsLoadedMsg struct {
	revision      uint64
	organizations []orgapi.Organization
	err           error
}

// orgItem implements list.Item for one organization
type orgItem struct {
	org orgapi.Organization
}

func (i orgItem) Title() string { return i.org.Name }
func (i orgItem) Description() string {
	return fmt.Sprintf("%s · %s", i.org.ContactName, i.org.ContactEmail)
}
func (i orgItem) FilterValue() string { return i.org.Name }

type listView struct {
	app     *App
	list    list.Model
	loading bool
	loaded  bool
	err     error
}

func newListView(app *App) *listView {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Organizations"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	return &listView{app: app, list: l}
}

func (v *listView) setSize(width, height int) {
	v.list.SetSize(width, height)
}

// Load fetches the organizations for the given router revision.
func (v *listView) Load(revision uint64) tea.Cmd {
	v.loading = true
	service := v.app.service
	return func() tea.Msg {
		orgs, err := service.ListOrganizations(context.Background())
		return organizationsLoadedMsg{revision: revision, organizations: orgs, err: err}
	}
}

func (v *listView) apply(msg organizationsLoadedMsg) {
	v.loading = false
	if msg.err != nil {
		v.err = msg.err
		v.app.logWarn("Could not load organizations: %v", msg.err)
		v.app.statusMsg = "Could not load organizations"
		return
	}
	v.err = nil
	v.loaded = true
	items := make([]list.Item, len(msg.organizations))
	for i, org := range msg.organizations {
		items[i] = orgItem{org: org}
	}
	v.list.SetItems(items)
	v.app.statusMsg = fmt.Sprintf("%d organizations", len(items))
}

// Selected returns the highlighted organization.
func (v *listView) Selected() (orgapi.Organization, bool) {
	item, ok := v.list.SelectedItem().(orgItem)
	if !ok {
		return orgapi.Organization{}, false
	}
	return item.org, true
}

func (v *listView) Update(msg tea.Msg) tea.Cmd {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, keys.Quit):
			return tea.Quit
		case key.Matches(km, keys.New):
			v.app.router.Push(routepath.OrganizationsNew)
			return nil
		case key.Matches(km, keys.Refresh):
			v.app.statusMsg = "Refreshing organizations..."
			v.app.router.Refresh()
			return nil
		case key.Matches(km, keys.Open):
			if org, ok := v.Selected(); ok && org.ID != "" {
				v.app.router.Push(routepath.Organization(org.ID.String()))
			}
			return nil
		}
	}
	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return cmd
}

func (v *listView) View() string {
	var body string
	switch {
	case v.err != nil:
		body = fieldErrStyle.Render(fmt.Sprintf("Could not load organizations: %v", v.err))
	case v.loading && !v.loaded:
		body = mutedStyle.Render("Loading organizations...")
	case len(v.list.Items()) == 0:
		body = lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Organizations"),
			mutedStyle.Render("No organizations yet. Press n to add one."),
		)
	default:
		body = v.list.View()
	}
	hint := hintLine(keys.New, keys.Open, keys.Refresh, keys.Quit)
	return lipgloss.JoinVertical(lipgloss.Left, body, "", hint)
}
