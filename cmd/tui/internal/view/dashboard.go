package view

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/fiore/internal/dashboard"
	"github.com/MrJamesThe3rd/fiore/internal/invoicing"
	"github.com/MrJamesThe3rd/fiore/internal/record"
)

type dashboardState int

const (
	dashboardStateBrowse dashboardState = iota
	dashboardStateRange
	dashboardStateFilter
)

// filterBinding outlives model copies so huh can write into it.
type filterBinding struct {
	field string
	value string
}

type DashboardModel struct {
	CommonModel
	records *record.Service
	now     func() time.Time

	state   dashboardState
	table   table.Model
	spinner spinner.Model
	picker  TimeframePicker
	form    *huh.Form
	binding *filterBinding

	resourceIdx int
	report      dashboard.ReportType
	rng         dashboard.Range
	view        *dashboard.View

	loading   bool
	err       error
	seq       int
	cancel    context.CancelFunc
	initFetch tea.Cmd
}

func NewDashboardModel(records *record.Service, now func() time.Time) DashboardModel {
	if now == nil {
		now = time.Now
	}

	t := table.New(
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	m := DashboardModel{
		records: records,
		now:     now,
		table:   t,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		report:  dashboard.Weekly,
		view:    dashboard.NewView(),
	}
	m.resetRange()
	m.initFetch = m.fetch()

	return m
}

func (m DashboardModel) Title() string { return "Dashboard" }
func (m DashboardModel) ShortHelp() string {
	switch m.state {
	case dashboardStateRange:
		return "Enter: select | Esc: cancel"
	case dashboardStateFilter:
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | Tab/Shift+Tab: resource | w: weekly/monthly | d: dates | /: filter | ←/→: page | s: page size | r: refresh"
}

func (m DashboardModel) resource() record.Resource {
	return record.Resources[m.resourceIdx]
}

func (m *DashboardModel) resetRange() {
	if m.resource().SupportsDates() {
		m.rng = dashboard.DefaultRange(m.report, m.now())
		return
	}

	m.rng = dashboard.Range{}
}

func (m DashboardModel) params() record.Params {
	if !m.resource().SupportsDates() || !m.rng.Complete() {
		return record.Params{}
	}

	return record.Params{StartDate: m.rng.Start, EndDate: m.rng.End}
}

// Init runs the fetch started by NewDashboardModel, whose cancel func the
// model already holds.
func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.initFetch)
}

// fetch cancels the fetch in flight, if any, and starts a new one. Results
// tagged with an older sequence number are dropped when they arrive.
func (m *DashboardModel) fetch() tea.Cmd {
	if m.cancel != nil {
		m.cancel()
	}

	m.seq++
	m.loading = true
	m.err = nil

	ctx, cancel := APICtx()
	m.cancel = cancel

	return m.fetchWith(ctx, cancel, m.seq)
}

type fetchedMsg struct {
	seq      int
	snapshot record.Snapshot
	canceled bool
}

func (m DashboardModel) fetchWith(ctx context.Context, cancel context.CancelFunc, seq int) tea.Cmd {
	svc, res, params := m.records, m.resource(), m.params()

	return func() tea.Msg {
		defer cancel()

		state := &record.State{}
		svc.Fetch(ctx, res, params, state, invoicing.Request{})

		return fetchedMsg{
			seq:      seq,
			snapshot: state.Snapshot(),
			canceled: errors.Is(ctx.Err(), context.Canceled),
		}
	}
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case fetchedMsg:
		if msg.seq != m.seq || msg.canceled {
			return m, nil
		}

		m.loading = false
		m.cancel = nil
		m.initFetch = nil
		m.err = msg.snapshot.Err

		m.view.SetRecords(msg.snapshot.Data)
		m.refreshTable()

		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case RangeSelectedMsg:
		m.state = dashboardStateBrowse
		m.table.Focus()

		if msg.Report != "" {
			m.report = msg.Report
		}

		m.rng = msg.Range

		return m, m.fetch()

	case RangeCanceledMsg:
		m.state = dashboardStateBrowse
		m.table.Focus()

		return m, nil

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.table.SetHeight(max(5, msg.Height-14))

		return m, nil
	}

	switch m.state {
	case dashboardStateRange:
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)

		return m, cmd
	case dashboardStateFilter:
		return m.updateFilter(msg)
	}

	return m.updateBrowse(msg)
}

func (m DashboardModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok {
		switch keyMsg.String() {
		case "esc":
			if m.cancel != nil {
				m.cancel()
			}

			return m, Back
		case "tab":
			m.resourceIdx = (m.resourceIdx + 1) % len(record.Resources)
			return m.resourceChanged()
		case "shift+tab":
			m.resourceIdx = (m.resourceIdx + len(record.Resources) - 1) % len(record.Resources)
			return m.resourceChanged()
		case "r":
			return m, m.fetch()
		case "w":
			if !m.resource().SupportsDates() {
				return m, nil
			}

			m.report = m.report.Toggle()
			m.resetRange()

			return m, m.fetch()
		case "d":
			if !m.resource().SupportsDates() {
				return m, nil
			}

			m.picker = NewTimeframePicker(m.rng, m.now)
			m.state = dashboardStateRange
			m.table.Blur()

			return m, m.picker.Init()
		case "/":
			return m.enterFilterMode()
		case "right", "n":
			m.view.NextPage()
			m.refreshTable()

			return m, nil
		case "left", "p":
			m.view.PrevPage()
			m.refreshTable()

			return m, nil
		case "s":
			m.view.CyclePageSize()
			m.refreshTable()

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m DashboardModel) resourceChanged() (tea.Model, tea.Cmd) {
	m.view = dashboard.NewView()
	m.resetRange()
	m.refreshTable()

	return m, m.fetch()
}

func (m DashboardModel) enterFilterMode() (tea.Model, tea.Cmd) {
	cols := m.view.Columns()
	if len(cols) == 0 {
		return m, nil
	}

	m.binding = &filterBinding{field: m.view.FilterField(), value: m.view.FilterValue()}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("field").
				Title("Filter by").
				Options(huh.NewOptions(cols...)...).
				Value(&m.binding.field),

			huh.NewInput().
				Key("value").
				Title("Contains").
				Placeholder("Type to filter...").
				Value(&m.binding.value),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = dashboardStateFilter
	m.table.Blur()

	return m, m.form.Init()
}

func (m DashboardModel) updateFilter(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = dashboardStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.view.SetFilter(m.binding.field, m.binding.value)
	m.view.SetPage(1)
	m.state = dashboardStateBrowse
	m.form = nil
	m.table.Focus()
	m.refreshTable()

	return m, nil
}

func (m *DashboardModel) refreshTable() {
	win := m.view.Window()
	cols := m.view.Columns()

	columns := make([]table.Column, 0, len(cols))
	for _, c := range cols {
		columns = append(columns, table.Column{Title: c, Width: columnWidth(c, win.Rows)})
	}

	rows := make([]table.Row, 0, len(win.Rows))
	for _, r := range win.Rows {
		row := make(table.Row, len(cols))
		for i, c := range cols {
			row[i] = FormatCell(r, c)
		}

		rows = append(rows, row)
	}

	// Rows must never have more cells than there are columns.
	m.table.SetRows(nil)
	m.table.SetColumns(columns)
	m.table.SetRows(rows)
	m.table.SetCursor(0)
}

func (m DashboardModel) header() string {
	res := m.resource()
	win := m.view.Window()

	plural := "s"
	if win.TotalItems == 1 {
		plural = ""
	}

	parts := []string{
		fmt.Sprintf("[Tab] %s • %d record%s", activeStyle(res.Label()), win.TotalItems, plural),
	}

	if res.SupportsDates() {
		parts = append(parts,
			"[w] "+activeStyle(strings.ToUpper(string(m.report[:1]))+string(m.report[1:])),
			"[d] "+activeStyle(m.rng.String()),
		)
	}

	if f := m.view.FilterValue(); f != "" {
		parts = append(parts, fmt.Sprintf("[/] %s contains %q", m.view.FilterField(), f))
	}

	return strings.Join(parts, " | ")
}

func (m DashboardModel) footer() string {
	win := m.view.Window()

	pager := fmt.Sprintf("Page %d of %d • page size %d", win.Page, win.TotalPages, win.PageSize)

	totals := m.view.Totals()
	if len(totals) == 0 {
		return faintStyle.Render(pager)
	}

	sums := make([]string, 0, len(totals))
	for _, t := range totals {
		sums = append(sums, fmt.Sprintf("%s %s", t.Column, t.Sum.StringFixed(2)))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		"Totals: "+activeStyle(strings.Join(sums, " | ")),
		faintStyle.Render(pager),
	)
}

func (m DashboardModel) View() string {
	content := lipgloss.NewStyle().PaddingBottom(1).Render(m.header())

	switch {
	case m.loading:
		content += "\n" + m.spinner.View() + " Loading data..."
	case m.err != nil:
		content += "\n" + errorStyle.Render("Error: " + record.Message(m.err))
	case len(m.view.Rows()) == 0:
		content += "\n" + faintStyle.Render("No records found.")
	default:
		tableView := lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Render(m.table.View())

		content = lipgloss.JoinVertical(lipgloss.Left, content, tableView, m.footer())
	}

	switch m.state {
	case dashboardStateRange:
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panelStyle.Width(48).Render(m.picker.View()))
	case dashboardStateFilter:
		if m.form != nil {
			content = lipgloss.JoinHorizontal(lipgloss.Top, content, panelStyle.Width(48).Render("Filter\n\n"+m.form.View()))
		}
	}

	return lipgloss.NewStyle().Padding(1).Render(content + "\n\n" + faintStyle.Render(m.ShortHelp()))
}
