package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/orgdesk/internal/orgform"
	"github.com/kingrea/orgdesk/internal/routepath"
)

// Focus order of the form controls.
const (
	focusName = iota
	focusContactName
	focusContactEmail
	focusCancel
	focusSubmit
	focusCount
)

// cancelKey is esc only; backspace edits the focused input.
var cancelKey = key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel"))

type submissionResolvedMsg struct {
	form    *formView
	outcome orgform.Outcome
}

type formField struct {
	key         string
	label       string
	placeholder string
}

var formFields = []formField{
	{key: orgform.FieldName, label: "Organization Name", placeholder: "Acme Corporation"},
	{key: orgform.FieldContactName, label: "Contact Name", placeholder: "John Doe"},
	{key: orgform.FieldContactEmail, label: "Contact Email", placeholder: "john@example.com"},
}

type formView struct {
	app         *App
	controller  *orgform.Controller
	inputs      []textinput.Model
	focus       int
	spinner     spinner.Model
	fieldErrors orgform.ValidationErrors
}

func newFormView(app *App) *formView {
	inputs := make([]textinput.Model, len(formFields))
	for i, field := range formFields {
		in := textinput.New()
		in.Placeholder = field.placeholder
		in.Prompt = "› "
		in.CharLimit = 200
		in.Width = 40
		inputs[i] = in
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = titleStyle
	return &formView{
		app:        app,
		controller: orgform.New(app.service, app.router, app.formOptions()...),
		inputs:     inputs,
		spinner:    s,
	}
}

func (v *formView) Init() tea.Cmd {
	return v.setFocus(focusName)
}

func (v *formView) fields() orgform.Fields {
	return orgform.Fields{
		Name:         v.inputs[focusName].Value(),
		ContactName:  v.inputs[focusContactName].Value(),
		ContactEmail: v.inputs[focusContactEmail].Value(),
	}
}

func (v *formView) setFocus(idx int) tea.Cmd {
	v.focus = (idx%focusCount + focusCount) % focusCount
	var cmd tea.Cmd
	for i := range v.inputs {
		if i == v.focus {
			cmd = v.inputs[i].Focus()
			continue
		}
		v.inputs[i].Blur()
	}
	return cmd
}

func (v *formView) Update(msg tea.Msg) tea.Cmd {
	switch m := msg.(type) {
	case spinner.TickMsg:
		if !v.controller.Submitting() {
			return nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(m)
		return cmd
	case tea.KeyMsg:
		switch {
		case key.Matches(m, keys.Next):
			return v.setFocus(v.focus + 1)
		case key.Matches(m, keys.Prev):
			return v.setFocus(v.focus - 1)
		case key.Matches(m, cancelKey):
			return v.cancel()
		case key.Matches(m, keys.Submit):
			switch v.focus {
			case focusCancel:
				return v.cancel()
			case focusContactEmail, focusSubmit:
				return v.submit()
			default:
				return v.setFocus(v.focus + 1)
			}
		}
	}
	if v.focus < len(v.inputs) {
		var cmd tea.Cmd
		v.inputs[v.focus], cmd = v.inputs[v.focus].Update(msg)
		return cmd
	}
	return nil
}

// submit runs the input checks, then starts one submission. The request runs
// in a command and comes back as submissionResolvedMsg.
func (v *formView) submit() tea.Cmd {
	if v.controller.Submitting() {
		return nil
	}
	fields := v.fields()
	if err := orgform.Validate(fields); err != nil {
		var verrs orgform.ValidationErrors
		if errors.As(err, &verrs) {
			v.fieldErrors = verrs
			for i, field := range formFields {
				if _, bad := verrs[field.key]; bad {
					return v.setFocus(i)
				}
			}
		}
		return nil
	}
	v.fieldErrors = nil
	if !v.controller.Begin() {
		return nil
	}
	v.app.statusMsg = "Creating organization..."
	ctrl := v.controller
	resolve := func() tea.Msg {
		return submissionResolvedMsg{form: v, outcome: ctrl.Resolve(context.Background(), fields)}
	}
	return tea.Batch(resolve, v.spinner.Tick)
}

func (v *formView) settle(outcome orgform.Outcome) tea.Cmd {
	v.controller.Settle(outcome)
	if outcome.OK() {
		v.app.logInfo("Organization created · %s", outcome)
		v.app.statusMsg = "Organization created"
	} else {
		v.app.statusMsg = "Organization was not created"
	}
	return nil
}

func (v *formView) cancel() tea.Cmd {
	v.app.router.Push(routepath.Organizations)
	return nil
}

func (v *formView) View() string {
	state := v.controller.State()
	rows := []string{
		titleStyle.Render("New Organization"),
		hintStyle.Render("Add a new client organization to the system."),
		"",
	}
	if state.HasError() {
		rows = append(rows, errorBanner.Render(state.Error), "")
	}
	for i, field := range formFields {
		rows = append(rows,
			labelStyle.Render(field.label)+requiredStyle.Render(" *"),
			v.inputs[i].View(),
		)
		if msg, bad := v.fieldErrors[field.key]; bad {
			rows = append(rows, fieldErrStyle.Render(msg))
		}
		rows = append(rows, "")
	}
	rows = append(rows, v.renderButtons(state.Submitting), "", hintLine(keys.Next, keys.Prev, keys.Submit, cancelKey))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (v *formView) renderButtons(submitting bool) string {
	cancel := buttonStyle
	if v.focus == focusCancel {
		cancel = buttonFocusedStyle
	}
	var submit string
	switch {
	case submitting:
		submit = buttonDisabledStyle.Render(v.spinner.View() + " Creating...")
	case v.focus == focusSubmit:
		submit = buttonFocusedStyle.Render("Create Organization")
	default:
		submit = primaryButtonStyle.Render("Create Organization")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cancel.Render("Cancel"), " ", submit)
}
