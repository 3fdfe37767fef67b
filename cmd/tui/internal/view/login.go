package view

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fiore/internal/auth"
	"github.com/MrJamesThe3rd/fiore/internal/invoicing"
)

type loginState int

const (
	loginStateConfirm loginState = iota
	loginStateWaiting
	loginStateDone
)

type loginDoneMsg struct {
	result auth.Result
	err    error
}

type LoginModel struct {
	CommonModel
	onboarding *invoicing.Onboarding
	handshake  *auth.Handshake
	tokens     invoicing.TokenStore
	timeout    time.Duration

	state   loginState
	form    *huh.Form
	confirm *bool
	spinner spinner.Model
	cancel  context.CancelFunc

	message string
	err     error
}

func NewLoginModel(onboarding *invoicing.Onboarding, handshake *auth.Handshake, tokens invoicing.TokenStore, timeout time.Duration) LoginModel {
	confirm := new(true)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Log in with Fatture in Cloud?").
				Description("A browser window will open to complete the login.").
				Affirmative("Open browser").
				Negative("Cancel").
				Value(confirm),
		),
	).WithWidth(60).WithShowHelp(false)

	return LoginModel{
		onboarding: onboarding,
		handshake:  handshake,
		tokens:     tokens,
		timeout:    timeout,
		form:       form,
		confirm:    confirm,
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

func (m LoginModel) Title() string { return "Log in" }
func (m LoginModel) ShortHelp() string {
	if m.state == loginStateWaiting {
		return "Esc: cancel login"
	}

	return "Esc: back"
}

func (m LoginModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loginDoneMsg:
		m.state = loginStateDone
		m.cancel = nil

		switch {
		case errors.Is(msg.err, context.Canceled):
			m.message = "Login canceled."
		case msg.err != nil:
			m.err = msg.err
		default:
			switch res := msg.result.(type) {
			case auth.Success:
				m.message = "Logged in."
			case auth.Failure:
				m.err = errors.New(res.Message)
			}
		}

		return m, nil

	case spinner.TickMsg:
		if m.state != loginStateWaiting {
			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			if m.state == loginStateWaiting && m.cancel != nil {
				m.cancel()
				return m, nil
			}

			return m, Back
		}

		if m.state == loginStateDone {
			return m, Back
		}
	}

	if m.state != loginStateConfirm {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		if !*m.confirm {
			return m, Back
		}

		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		m.cancel = cancel
		m.state = loginStateWaiting

		return m, tea.Batch(m.spinner.Tick, m.login(ctx, cancel))
	case huh.StateAborted:
		return m, Back
	}

	return m, cmd
}

// login serves a one-off loopback callback, opens the auth window pointing
// back at it and waits for the handshake to settle.
func (m LoginModel) login(ctx context.Context, cancel context.CancelFunc) tea.Cmd {
	onboarding, handshake, tokens := m.onboarding, m.handshake, m.tokens

	return func() tea.Msg {
		defer cancel()

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return loginDoneMsg{err: fmt.Errorf("listening for callback: %w", err)}
		}

		listener := auth.NewListener()
		callbackPath := "/callback/" + uuid.NewString()

		r := chi.NewRouter()
		r.Get(callbackPath, listener.ServeHTTP)
		r.Post(callbackPath, listener.ServeHTTP)

		srv := &http.Server{Handler: r, ReadHeaderTimeout: 10 * time.Second}
		go func() { _ = srv.Serve(ln) }()

		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()

			_ = srv.Shutdown(shutdownCtx)
		}()

		authURL, err := onboarding.StartLogin(ctx)
		if err != nil {
			return loginDoneMsg{err: err}
		}

		state := uuid.NewString()

		authURL, err = withRedirect(authURL, "http://"+ln.Addr().String()+callbackPath, state)
		if err != nil {
			return loginDoneMsg{err: err}
		}

		res, err := handshake.LoginState(ctx, authURL, state, listener.Events())
		if err != nil {
			return loginDoneMsg{err: err}
		}

		if s, ok := res.(auth.Success); ok && s.AccessToken != "" {
			if err := tokens.SetToken(ctx, s.AccessToken); err != nil {
				return loginDoneMsg{err: fmt.Errorf("storing access token: %w", err)}
			}
		}

		return loginDoneMsg{result: res}
	}
}

// withRedirect points authURL back at redirect. The state travels as its own
// parameter and inside redirect_uri.
func withRedirect(authURL, redirect, state string) (string, error) {
	u, err := url.Parse(authURL)
	if err != nil {
		return "", fmt.Errorf("parsing auth url: %w", err)
	}

	q := u.Query()
	q.Set("redirect_uri", redirect+"?"+url.Values{"state": {state}}.Encode())
	q.Set("state", state)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func (m LoginModel) View() string {
	var content string

	switch m.state {
	case loginStateConfirm:
		content = m.form.View()
	case loginStateWaiting:
		content = m.spinner.View() + " Waiting for the browser login to finish..."
	case loginStateDone:
		if m.err != nil {
			content = errorStyle.Render("Error: " + m.err.Error())
		} else {
			content = activeStyle(m.message)
		}

		content += "\n\n" + faintStyle.Render("Press any key to return.")
	}

	return lipgloss.NewStyle().Padding(1).Render(content + "\n\n" + faintStyle.Render(m.ShortHelp()))
}
