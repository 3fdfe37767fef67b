package view

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/MrJamesThe3rd/fiore/internal/dashboard"
)

// Timeframe is the range preset offered by the picker.
type Timeframe int

const (
	TimeframeWeek   Timeframe = 0
	TimeframeMonth  Timeframe = 1
	TimeframeCustom Timeframe = 2
)

func (t Timeframe) String() string {
	switch t {
	case TimeframeWeek:
		return "This Week"
	case TimeframeMonth:
		return "This Month"
	case TimeframeCustom:
		return "Custom Range"
	}

	return "Unknown"
}

// RangeSelectedMsg is emitted when the user has picked a date range. Report is
// only set for the week and month presets.
type RangeSelectedMsg struct {
	Report dashboard.ReportType
	Range  dashboard.Range
}

type RangeCanceledMsg struct{}

type timeframeState int

const (
	timeframeStateSelect timeframeState = iota
	timeframeStateCustom
)

// TimeframePicker selects a preset or a custom range. Custom bounds are
// clamped so the start never falls after the end.
type TimeframePicker struct {
	state    timeframeState
	selected Timeframe
	current  dashboard.Range
	now      func() time.Time

	startInput textinput.Model
	endInput   textinput.Model
	focusIndex int

	err error
}

func NewTimeframePicker(current dashboard.Range, now func() time.Time) TimeframePicker {
	si := textinput.New()
	si.Placeholder = "YYYY-MM-DD"
	si.CharLimit = 10
	si.Width = 12
	si.Prompt = "Start Date: "
	si.SetValue(current.Start)

	ei := textinput.New()
	ei.Placeholder = "YYYY-MM-DD"
	ei.CharLimit = 10
	ei.Width = 12
	ei.Prompt = "End Date:   "
	ei.SetValue(current.End)

	if now == nil {
		now = time.Now
	}

	return TimeframePicker{
		state:      timeframeStateSelect,
		current:    current,
		now:        now,
		startInput: si,
		endInput:   ei,
	}
}

func (m TimeframePicker) Init() tea.Cmd {
	return nil
}

func (m TimeframePicker) Update(msg tea.Msg) (TimeframePicker, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch m.state {
		case timeframeStateSelect:
			return m.updateSelect(msg)
		case timeframeStateCustom:
			return m.updateCustom(msg)
		}
	}

	if m.state == timeframeStateCustom {
		return m.updateInputs(msg)
	}

	return m, nil
}

func (m TimeframePicker) updateSelect(msg tea.KeyMsg) (TimeframePicker, tea.Cmd) {
	switch msg.Type {
	case tea.KeyUp:
		if m.selected > TimeframeWeek {
			m.selected--
		}
	case tea.KeyDown:
		if m.selected < TimeframeCustom {
			m.selected++
		}
	case tea.KeyEsc:
		return m, func() tea.Msg { return RangeCanceledMsg{} }
	case tea.KeyEnter:
		switch m.selected {
		case TimeframeCustom:
			m.state = timeframeStateCustom
			m.focusIndex = 0
			m.startInput.Focus()

			return m, textinput.Blink
		case TimeframeMonth:
			return m, selectRange(dashboard.Monthly, dashboard.DefaultRange(dashboard.Monthly, m.now()))
		default:
			return m, selectRange(dashboard.Weekly, dashboard.DefaultRange(dashboard.Weekly, m.now()))
		}
	}

	return m, nil
}

func selectRange(rt dashboard.ReportType, rng dashboard.Range) tea.Cmd {
	return func() tea.Msg {
		return RangeSelectedMsg{Report: rt, Range: rng}
	}
}

func (m TimeframePicker) updateCustom(msg tea.KeyMsg) (TimeframePicker, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab":
		m.focusIndex = (m.focusIndex + 1) % 2
		m.startInput.Blur()
		m.endInput.Blur()

		if m.focusIndex == 0 {
			m.startInput.Focus()
			return m, textinput.Blink
		}

		m.endInput.Focus()

		return m, textinput.Blink

	case "enter":
		start, end := m.startInput.Value(), m.endInput.Value()

		if err := dashboard.ValidateDate(start); err != nil {
			m.err = err
			return m, nil
		}

		if err := dashboard.ValidateDate(end); err != nil {
			m.err = err
			return m, nil
		}

		m.err = nil

		// The field that was edited last wins when the bounds cross.
		rng := m.current
		if m.focusIndex == 0 {
			rng = rng.WithEnd(end).WithStart(start)
		} else {
			rng = rng.WithStart(start).WithEnd(end)
		}

		return m, selectRange("", rng)

	case "esc":
		m.state = timeframeStateSelect
		m.err = nil

		return m, nil
	}

	return m.updateInputs(msg)
}

func (m TimeframePicker) updateInputs(msg tea.Msg) (TimeframePicker, tea.Cmd) {
	var cmds []tea.Cmd

	var c tea.Cmd

	m.startInput, c = m.startInput.Update(msg)
	cmds = append(cmds, c)
	m.endInput, c = m.endInput.Update(msg)
	cmds = append(cmds, c)

	return m, tea.Batch(cmds...)
}

func (m TimeframePicker) View() string {
	errStr := ""
	if m.err != nil {
		errStr = errorStyle.Render(fmt.Sprintf("\n\nError: %v", m.err))
	}

	if m.state == timeframeStateCustom {
		return fmt.Sprintf(
			"Enter Custom Range:\n\n%s\n%s\n\n(Enter to confirm, Tab to switch, Esc to back)%s",
			m.startInput.View(),
			m.endInput.View(),
			errStr,
		)
	}

	s := "Select Timeframe:\n\n"

	for i := TimeframeWeek; i <= TimeframeCustom; i++ {
		cursor := " "
		label := i.String()

		if m.selected == i {
			cursor = ">"
			label = activeStyle(label)
		}

		s += fmt.Sprintf("%s %s\n", cursor, label)
	}

	return s + "\n(Enter to select, Esc to cancel)" + errStr
}
