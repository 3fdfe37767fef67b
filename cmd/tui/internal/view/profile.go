package view

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/fiore/internal/profile"
)

type profileFields struct {
	customerType string
	form         profile.SignUpForm
}

type profileLoadedMsg struct {
	fields profileFields
	err    error
}

type profileSavedMsg struct {
	err error
}

type ProfileModel struct {
	CommonModel
	svc *profile.Service

	fields *profileFields
	form   *huh.Form
	saved  bool
	err    error
}

func NewProfileModel(svc *profile.Service) ProfileModel {
	return ProfileModel{svc: svc}
}

func (m ProfileModel) Title() string     { return "Profile" }
func (m ProfileModel) ShortHelp() string { return "Esc: back" }

func (m ProfileModel) Init() tea.Cmd {
	svc := m.svc

	return func() tea.Msg {
		ctx, cancel := APICtx()
		defer cancel()

		var (
			f   profileFields
			err error
		)

		if f.customerType, err = svc.CustomerType(ctx); err != nil {
			return profileLoadedMsg{err: err}
		}

		if f.form, err = svc.SignUpFormData(ctx); err != nil {
			return profileLoadedMsg{err: err}
		}

		return profileLoadedMsg{fields: f}
	}
}

func (m ProfileModel) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Customer type").
				Options(
					huh.NewOption("Business", "business"),
					huh.NewOption("Investor", "investor"),
				).
				Value(&m.fields.customerType),

			huh.NewInput().
				Title("Email").
				Value(&m.fields.form.Email),

			huh.NewInput().
				Title("Business industry").
				Value(&m.fields.form.BusinessIndustry),

			huh.NewInput().
				Title("Investment type").
				Value(&m.fields.form.InvestmentType),

			huh.NewInput().
				Title("Operation period").
				Value(&m.fields.form.OperationPeriod),
		),
	).WithWidth(60).WithShowHelp(false)
}

func (m ProfileModel) save() tea.Cmd {
	svc, fields := m.svc, *m.fields

	return func() tea.Msg {
		ctx := context.Background()

		if err := svc.SaveSignUpForm(ctx, fields.form); err != nil {
			return profileSavedMsg{err: err}
		}

		if err := svc.SetCustomerType(ctx, fields.customerType); err != nil {
			return profileSavedMsg{err: fmt.Errorf("saving customer type: %w", err)}
		}

		return profileSavedMsg{}
	}
}

func (m ProfileModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case profileLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.fields = &msg.fields
		if m.fields.customerType == "" {
			m.fields.customerType = "business"
		}

		m.form = m.buildForm()

		return m, m.form.Init()

	case profileSavedMsg:
		m.err = msg.err
		m.saved = msg.err == nil

		if m.err != nil {
			m.form = m.buildForm()
			return m, m.form.Init()
		}

		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc || m.saved {
			return m, Back
		}
	}

	if m.form == nil {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return m, m.save()
	case huh.StateAborted:
		return m, Back
	}

	return m, cmd
}

func (m ProfileModel) View() string {
	var content string

	switch {
	case m.saved:
		content = activeStyle("Profile saved.") + "\n\n" + faintStyle.Render("Press any key to return.")
	case m.form == nil && m.err != nil:
		content = errorStyle.Render("Error: " + m.err.Error())
	case m.form == nil:
		content = faintStyle.Render("Loading profile...")
	default:
		content = m.form.View()
		if m.err != nil {
			content = errorStyle.Render("Error: "+m.err.Error()) + "\n\n" + content
		}
	}

	return lipgloss.NewStyle().Padding(1).Render(content + "\n\n" + faintStyle.Render(m.ShortHelp()))
}
