package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/orgdesk/internal/orgapi"
	"github.com/kingrea/orgdesk/internal/routepath"
)

type organizationLoadedMsg struct {
	revision     uint64
	organization orgapi.Organization
	err          error
}

type detailView struct {
	app     *App
	id      string
	org     *orgapi.Organization
	loading bool
	err     error
}

func newDetailView(app *App, id string) *detailView {
	return &detailView{app: app, id: id}
}

// Load fetches the organization for the given router revision.
func (v *detailView) Load(revision uint64) tea.Cmd {
	v.loading = true
	service := v.app.service
	id := v.id
	return func() tea.Msg {
		org, err := service.GetOrganization(context.Background(), id)
		return organizationLoadedMsg{revision: revision, organization: org, err: err}
	}
}

func (v *detailView) apply(msg organizationLoadedMsg) {
	v.loading = false
	if msg.err != nil {
		v.err = msg.err
		v.app.logWarn("Could not load organization %s: %v", v.id, msg.err)
		return
	}
	v.err = nil
	org := msg.organization
	v.org = &org
	v.app.statusMsg = org.Name
}

func (v *detailView) Update(msg tea.Msg) tea.Cmd {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch {
	case key.Matches(km, keys.Back):
		v.app.router.Push(routepath.Organizations)
	case key.Matches(km, keys.Refresh):
		v.app.statusMsg = "Refreshing organization..."
		v.app.router.Refresh()
	case key.Matches(km, keys.Quit):
		return tea.Quit
	}
	return nil
}

func (v *detailView) View() string {
	hint := hintLine(keys.Back, keys.Refresh, keys.Quit)
	switch {
	case v.err != nil && errors.Is(v.err, orgapi.ErrNotFound):
		return lipgloss.JoinVertical(lipgloss.Left, fieldErrStyle.Render("Organization not found"), "", hint)
	case v.err != nil:
		return lipgloss.JoinVertical(lipgloss.Left,
			fieldErrStyle.Render(fmt.Sprintf("Could not load organization: %v", v.err)), "", hint)
	case v.org == nil:
		return lipgloss.JoinVertical(lipgloss.Left, mutedStyle.Render("Loading organization..."), "", hint)
	}

	org := v.org
	rows := []string{
		titleStyle.Render(org.Name),
		"",
		detailRow("Contact", org.ContactName),
		detailRow("Email", org.ContactEmail),
	}
	if created := strings.TrimSpace(org.CreatedAt); created != "" {
		rows = append(rows, detailRow("Created", created))
	}
	rows = append(rows, detailRow("ID", org.ID.String()), "", hint)
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func detailRow(label, value string) string {
	return labelStyle.Width(10).Render(label) + detailStyle.Render(value)
}
