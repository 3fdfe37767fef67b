package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/fiore/cmd/tui/internal/browser"
	"github.com/MrJamesThe3rd/fiore/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/fiore/internal/auth"
	"github.com/MrJamesThe3rd/fiore/internal/config"
	"github.com/MrJamesThe3rd/fiore/internal/database"
	"github.com/MrJamesThe3rd/fiore/internal/invoicing"
	"github.com/MrJamesThe3rd/fiore/internal/profile"
	"github.com/MrJamesThe3rd/fiore/internal/profile/store"
	"github.com/MrJamesThe3rd/fiore/internal/record"
)

type model struct {
	cfg        *config.Config
	profile    *profile.Service
	records    *record.Service
	onboarding *invoicing.Onboarding
	handshake  *auth.Handshake

	currentView View

	loginView     view.LoginModel
	dashboardView view.DashboardModel
	profileView   view.ProfileModel

	width, height int
}

type View int

const (
	ViewMenu      View = 0
	ViewLogin     View = 1
	ViewDashboard View = 2
	ViewProfile   View = 3
)

func newProfileStore(cfg *config.Config) (profile.Store, func(), error) {
	if cfg.Profile.Backend == config.BackendPostgres {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		db, err := database.New(ctx, cfg.ConnectionString())
		if err != nil {
			return nil, nil, err
		}

		pg := store.NewPostgres(db)
		if err := pg.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}

		return pg, func() { db.Close() }, nil
	}

	path, err := cfg.ProfilePath()
	if err != nil {
		return nil, nil, err
	}

	return store.NewFile(path), func() {}, nil
}

func initialModel(cfg *config.Config, profileSvc *profile.Service) (model, error) {
	policy, err := auth.NewOriginPolicy(cfg.Auth.AllowedOrigins)
	if err != nil {
		return model{}, err
	}

	opts := invoicing.Options{
		BaseURL:     cfg.APIBaseURL(),
		HTTPClient:  &http.Client{Timeout: cfg.API.Timeout},
		RefreshPath: cfg.API.RefreshPath,
		Tokens:      profileSvc.Tokens(),
		Logger:      slog.Default(),
	}

	handshake, err := auth.NewHandshake(policy, auth.OpenerFunc(browser.Open), slog.Default())
	if err != nil {
		return model{}, err
	}

	return model{
		cfg:         cfg,
		profile:     profileSvc,
		records:     record.NewService(invoicing.NewSession(opts), slog.Default()),
		onboarding:  invoicing.NewOnboarding(opts),
		handshake:   handshake,
		currentView: ViewMenu,
	}, nil
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewLogin
				m.loginView = view.NewLoginModel(m.onboarding, m.handshake, m.profile.Tokens(), m.cfg.Auth.LoginTimeout)

				return m, m.loginView.Init()
			case "2":
				m.currentView = ViewDashboard
				m.dashboardView = view.NewDashboardModel(m.records, time.Now)

				return m, m.sized(m.dashboardView.Init())
			case "3":
				m.currentView = ViewProfile
				m.profileView = view.NewProfileModel(m.profile)

				return m, m.profileView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewLogin:
		var newModel tea.Model
		newModel, cmd = m.loginView.Update(msg)
		m.loginView = newModel.(view.LoginModel)
	case ViewDashboard:
		var newModel tea.Model
		newModel, cmd = m.dashboardView.Update(msg)
		m.dashboardView = newModel.(view.DashboardModel)
	case ViewProfile:
		var newModel tea.Model
		newModel, cmd = m.profileView.Update(msg)
		m.profileView = newModel.(view.ProfileModel)
	}

	return m, cmd
}

// sized replays the last window size so a freshly opened view can lay itself out.
func (m model) sized(cmd tea.Cmd) tea.Cmd {
	if m.width == 0 {
		return cmd
	}

	size := tea.WindowSizeMsg{Width: m.width, Height: m.height}

	return tea.Batch(cmd, func() tea.Msg { return size })
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			m.cfg.App.Name + "\n\n" +
				"1. Log in\n" +
				"2. Dashboard\n" +
				"3. Profile\n\n" +
				"q. Quit",
		)
	case ViewLogin:
		return m.loginView.View()
	case ViewDashboard:
		return m.dashboardView.View()
	case ViewProfile:
		return m.profileView.View()
	}

	return "Unknown View"
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	profileStore, closeStore, err := newProfileStore(cfg)
	if err != nil {
		slog.Error("failed to open profile store", "error", err)
		os.Exit(1)
	}

	m, err := initialModel(cfg, profile.NewService(profileStore))
	if err != nil {
		closeStore()
		slog.Error("failed to set up TUI", "error", err)
		os.Exit(1)
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()

	closeStore()

	if err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
