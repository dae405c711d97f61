// Package tui is the interactive terminal front end: today's schedule,
// the calendar and the history, each a tab of one bubbletea program.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	textinput "github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/unowned-ai/pillbox/pkg/medicines"
	"github.com/unowned-ai/pillbox/pkg/session"
	"github.com/unowned-ai/pillbox/pkg/views"
)

type screen int

const (
	screenToday screen = iota
	screenCalendar
	screenHistory
)

var screenNames = []string{"Today", "Calendar", "History"}

// Add form fields, in input order.
const (
	fieldName = iota
	fieldDosage
	fieldTime
	fieldType
	fieldFrequency
	fieldStartDate
	fieldCount
)

var fieldLabels = []string{"Name", "Dosage (mg)", "Time", "Type", "Frequency", "Start date"}

type model struct {
	sess    *session.Session
	updates <-chan []medicines.MedicineRecord
	records []medicines.MedicineRecord

	screen screen
	width  int // Current terminal width (for layout)
	height int // Current terminal height
	err    error
	notice string // One-line feedback, e.g. a denied notification permission

	quitting bool

	todayCursor    int
	calendarCursor int // Index into the sorted calendar days
	historyCursor  int

	adding    bool
	addStep   int
	addError  string
	addInputs []textinput.Model

	deleting         bool
	deleteID         string
	deleteConfirmIdx int // 0 = "Delete" selected, 1 = "Cancel"

	clearing        bool
	clearConfirmIdx int

	searching   bool
	searchInput textinput.Model

	progress progress.Model
}

// Initialize TUI model
func initModel(sess *session.Session, updates <-chan []medicines.MedicineRecord) model {
	inputs := make([]textinput.Model, fieldCount)
	placeholders := []string{"Medicine name", "500", "08:00 AM", "Tablet", "Once Daily", "YYYY-MM-DD"}
	for i := range inputs {
		inputs[i] = textinput.New()
		inputs[i].Placeholder = placeholders[i]
		inputs[i].CharLimit = 128
	}

	search := textinput.New()
	search.Placeholder = "Search by name"
	search.CharLimit = 128

	return model{
		sess:        sess,
		updates:     updates,
		records:     sess.Store().Records(),
		screen:      screenToday,
		addInputs:   inputs,
		searchInput: search,
		progress:    progress.New(progress.WithDefaultGradient()),
	}
}

// Execute commands concurrently with no ordering guarantees during initialization
func (m model) Init() tea.Cmd {
	return tea.Batch(
		loadRecords(m.sess),
		waitForRecords(m.updates),
		clockTick(),
	)
}

// Processes events like window resize, errors, store updates, and key presses
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case error:
		m.err = msg
		return m, nil

	case recordsMsg:
		m.records = msg
		m.clampCursors()
		return m, waitForRecords(m.updates)

	case clockMsg:
		return m, clockTick()

	case tea.KeyMsg:
		switch {
		case m.adding:
			return m.updateAddForm(msg)
		case m.deleting:
			return m.updateDeleteConfirm(msg)
		case m.clearing:
			return m.updateClearConfirm(msg)
		case m.searching:
			return m.updateSearch(msg)
		}
		return m.updateNavigation(msg)
	}

	return m, nil
}

func (m model) updateNavigation(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		// Exit alt screen before quitting so the goodbye message displays
		return m, tea.Sequence(tea.ExitAltScreen, tea.Quit)

	case "tab":
		m.screen = (m.screen + 1) % screen(len(screenNames))
		m.notice = ""
	case "shift+tab":
		m.screen = (m.screen + screen(len(screenNames)) - 1) % screen(len(screenNames))
		m.notice = ""
	case "1", "2", "3":
		m.screen = screen(msg.String()[0] - '1')
		m.notice = ""

	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)

	case "left", "h":
		if m.screen == screenHistory {
			m.cycleFilter(-1)
		}
	case "right", "l":
		if m.screen == screenHistory {
			m.cycleFilter(1)
		}

	case "n":
		m.openAddForm()
		return m, textinput.Blink

	case "enter", " ":
		if rec, ok := m.selectedRecord(); ok && m.screen != screenHistory {
			m.sess.Toggle(rec.ID)
			m.refresh()
		}

	case "d":
		rec, ok := m.selectedRecord()
		if !ok || (m.screen == screenHistory && m.sess.Filter() == views.FilterUpcoming) {
			return m, nil
		}
		m.deleting = true
		m.deleteID = rec.ID
		m.deleteConfirmIdx = 1

	case "c":
		if m.screen == screenHistory && m.sess.Filter().Clearable() && len(m.history()) > 0 {
			m.clearing = true
			m.clearConfirmIdx = 1
		}

	case "/":
		if m.screen == screenHistory {
			m.searching = true
			m.searchInput.SetValue(m.sess.SearchTerm())
			m.searchInput.Focus()
			return m, textinput.Blink
		}
	}
	return m, nil
}

func (m *model) openAddForm() {
	m.adding = true
	m.addStep = fieldName
	m.addError = ""
	for i := range m.addInputs {
		m.addInputs[i].Reset()
		m.addInputs[i].Blur()
	}
	m.addInputs[fieldType].SetValue(string(medicines.TypeTablet))
	m.addInputs[fieldFrequency].SetValue(string(medicines.FrequencyOnceDaily))
	m.addInputs[fieldStartDate].SetValue(medicines.DayKey(m.sess.Now()))
	m.addInputs[fieldName].Focus()
}

func (m model) updateAddForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.adding = false
		return m, nil

	case tea.KeyEnter:
		if m.addStep < fieldCount-1 {
			m.addInputs[m.addStep].Blur()
			m.addStep++
			m.addInputs[m.addStep].Focus()
			return m, nil
		}
		return m.submitAddForm()
	}

	var cmd tea.Cmd
	m.addInputs[m.addStep], cmd = m.addInputs[m.addStep].Update(msg)
	return m, cmd
}

func (m model) submitAddForm() (tea.Model, tea.Cmd) {
	value := func(field int) string { return strings.TrimSpace(m.addInputs[field].Value()) }

	if value(fieldName) == "" || value(fieldDosage) == "" {
		m.addError = "Name and dosage are required"
		return m, nil
	}
	tod, err := medicines.ParseTimeOfDay(value(fieldTime))
	if err != nil {
		m.addError = err.Error()
		return m, nil
	}

	draft := medicines.Draft{
		Name:      value(fieldName),
		Dosage:    value(fieldDosage),
		Type:      medicines.MedicineType(value(fieldType)),
		TimeOfDay: tod,
		Frequency: medicines.Frequency(value(fieldFrequency)),
		StartDate: value(fieldStartDate),
	}
	rec, report, err := m.sess.Add(context.Background(), draft)
	if errors.Is(err, medicines.ErrInvalidDraft) {
		m.addError = err.Error()
		return m, nil
	}

	m.adding = false
	m.refresh()
	switch {
	case err != nil:
		m.notice = fmt.Sprintf("Added %s, but reminders failed: %v", rec.Name, err)
	case report.PermissionDenied:
		m.notice = fmt.Sprintf("Added %s. Notifications are not allowed, so no reminders were set.", rec.Name)
	default:
		m.notice = fmt.Sprintf("Added %s with %d reminder(s).", rec.Name, len(report.Handles()))
	}
	return m, nil
}

func (m model) updateDeleteConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.deleteConfirmIdx = 0
	case "down", "j":
		m.deleteConfirmIdx = 1
	case "enter":
		if m.deleteConfirmIdx == 0 {
			m.sess.Delete(m.deleteID)
			m.refresh()
		}
		m.deleting = false
	case "esc":
		m.deleting = false
	}
	return m, nil
}

func (m model) updateClearConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.clearConfirmIdx = 0
	case "down", "j":
		m.clearConfirmIdx = 1
	case "enter":
		if m.clearConfirmIdx == 0 {
			n, err := m.sess.ClearFiltered(m.sess.Filter())
			if err != nil {
				m.notice = err.Error()
			} else {
				m.notice = fmt.Sprintf("Cleared %d record(s).", n)
			}
			m.refresh()
		}
		m.clearing = false
	case "esc":
		m.clearing = false
	}
	return m, nil
}

func (m model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.sess.SetSearchTerm(m.searchInput.Value())
	m.historyCursor = 0
	return m, cmd
}

// refresh re-reads the store after a local mutation so the next frame
// does not wait for the subscription.
func (m *model) refresh() {
	m.records = m.sess.Store().Records()
	m.clampCursors()
}

func (m *model) cycleFilter(step int) {
	idx := 0
	for i, f := range views.Filters {
		if f == m.sess.Filter() {
			idx = i
		}
	}
	idx = (idx + step + len(views.Filters)) % len(views.Filters)
	m.sess.SetFilter(views.Filters[idx])
	m.historyCursor = 0
}

func (m model) today() views.TodaySchedule {
	return views.Today(m.records, m.sess.Now())
}

func (m model) calendarDays() []string {
	return views.Days(views.Calendar(m.records))
}

func (m model) history() []medicines.MedicineRecord {
	return views.History(m.records, m.sess.Filter(), m.sess.SearchTerm(), m.sess.Now())
}

func (m model) listLen() int {
	switch m.screen {
	case screenToday:
		return len(m.today().Records)
	case screenCalendar:
		return len(m.calendarDays())
	default:
		return len(m.history())
	}
}

func (m *model) moveCursor(step int) {
	n := m.listLen()
	if n == 0 {
		return
	}
	cursor := &m.todayCursor
	switch m.screen {
	case screenCalendar:
		cursor = &m.calendarCursor
	case screenHistory:
		cursor = &m.historyCursor
	}
	*cursor = max(0, min(n-1, *cursor+step))
	if m.screen == screenCalendar {
		_ = m.sess.SelectDate(m.calendarDays()[*cursor])
	}
}

func (m *model) clampCursors() {
	clamp := func(cursor, n int) int { return max(0, min(cursor, n-1)) }
	m.todayCursor = clamp(m.todayCursor, len(m.today().Records))
	m.historyCursor = clamp(m.historyCursor, len(m.history()))
	m.calendarCursor = clamp(m.calendarCursor, len(m.calendarDays()))
}

// selectedRecord returns the record under the cursor of the current
// screen. The calendar screen has days under its cursor, not records.
func (m model) selectedRecord() (medicines.MedicineRecord, bool) {
	var list []medicines.MedicineRecord
	var cursor int
	switch m.screen {
	case screenToday:
		list, cursor = m.today().Records, m.todayCursor
	case screenHistory:
		list, cursor = m.history(), m.historyCursor
	default:
		return medicines.MedicineRecord{}, false
	}
	if cursor < 0 || cursor >= len(list) {
		return medicines.MedicineRecord{}, false
	}
	return list[cursor], true
}

// Assembles the UI string for each frame
func (m model) View() string {
	if m.quitting {
		return "Closing the pillbox... Stay healthy.\n"
	}
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n", m.err)
	}

	titleBar := titleStyle.Width(m.width).Render("Pillbox - medicine reminders")

	tabs := make([]string, len(screenNames))
	for i, name := range screenNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if screen(i) == m.screen {
			tabs[i] = activeTabStyle.Render(label)
		} else {
			tabs[i] = tabStyle.Render(label)
		}
	}
	tabBar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	var body string
	switch {
	case m.adding:
		body = m.viewAddForm()
	case m.deleting:
		body = m.viewDeleteConfirm()
	case m.clearing:
		body = subtitleStyle.Render("Clear All History") + "\n\n" +
			fmt.Sprintf("Delete all %s records?\n\n", strings.ToLower(string(m.sess.Filter()))) +
			confirmOptions(m.clearConfirmIdx, "Clear All")
	case m.screen == screenToday:
		body = m.viewToday()
	case m.screen == screenCalendar:
		body = m.viewCalendar()
	default:
		body = m.viewHistory()
	}

	if m.notice != "" {
		body += "\n\n" + quoteStyle.Render(m.notice)
	}

	panel := lipgloss.NewStyle().Padding(1, 2).Width(m.width).Render(body)

	footerText := "\ntab/1-3 switch • ↑/↓ navigate • enter toggle • n add • d delete • q quit"
	if m.screen == screenHistory {
		footerText = "\n←/→ filter • / search • c clear • d delete • tab switch • q quit"
	}
	footerBar := footerStyle.Width(m.width).Render(footerText)

	return titleBar + "\n" + tabBar + "\n" + panel + footerBar
}

func (m model) contentWidth() int {
	if m.width <= 0 {
		return 80
	}
	return m.width - bordersAndPaddingWidth
}

func (m model) recordLine(r medicines.MedicineRecord, selected bool) string {
	line := fmt.Sprintf("%s %s %s %s • %s • %s %s",
		takenMark(r.Taken), r.Type.Icon(), r.Name, r.Dosage, r.Time, r.Frequency.Icon(), r.Frequency)
	line = truncate(line, m.contentWidth()-2)
	if selected {
		return generateLinePointer(true, 2) + selectedStyle.Render(line)
	}
	return generateLinePointer(false, 2) + inactiveStyle.Render(line)
}

func (m model) viewToday() string {
	now := m.sess.Now()
	today := m.today()

	var b strings.Builder
	b.WriteString(subtitleStyle.Render(views.Greeting(now)) + "\n")
	b.WriteString(quoteStyle.Render(views.Quote(now)) + "\n\n")

	m.progress.Width = min(40, m.contentWidth())
	b.WriteString(m.progress.ViewAs(float64(today.Percent)/100) + "\n")
	b.WriteString(fmt.Sprintf("%d of %d taken today\n\n", today.Taken, today.Total))

	if len(today.Records) == 0 {
		b.WriteString("No medicines for today. Press 'n' to add one.\n")
		return b.String()
	}
	for i, r := range today.Records {
		b.WriteString(m.recordLine(r, i == m.todayCursor) + "\n")
	}
	return b.String()
}

func (m model) viewCalendar() string {
	cal := views.Calendar(m.records)
	days := views.Days(cal)

	var left strings.Builder
	left.WriteString(subtitleStyle.Render("Days") + "\n\n")
	if len(days) == 0 {
		left.WriteString("No medicines scheduled yet.\n")
	}
	for i, day := range days {
		s := cal[day]
		label := statusColorize(fmt.Sprintf("%s  %d/%d", day, s.Taken, s.Total), s.Status)
		left.WriteString(generateLinePointer(i == m.calendarCursor, 2) + label + "\n")
	}

	selected := m.sess.SelectedDate()
	var right strings.Builder
	right.WriteString(subtitleStyle.Render(selected) + "\n\n")
	dayRecords := views.RecordsOn(m.records, selected)
	if len(dayRecords) == 0 {
		right.WriteString("No medicines on this day.\n")
	}
	for _, r := range dayRecords {
		right.WriteString(m.recordLine(r, false) + "\n")
	}

	leftWidth := m.contentWidth() / 3
	leftPanel := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, true, false, false).
		BorderForeground(lipgloss.Color(colorGray)).
		Width(leftWidth).
		Render(left.String())
	rightPanel := lipgloss.NewStyle().Padding(0, 2).Render(right.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, rightPanel)
}

func (m model) viewHistory() string {
	var b strings.Builder

	filters := make([]string, len(views.Filters))
	for i, f := range views.Filters {
		if f == m.sess.Filter() {
			filters[i] = activeTabStyle.Render(string(f))
		} else {
			filters[i] = tabStyle.Render(string(f))
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, filters...) + "\n\n")

	if m.searching {
		b.WriteString("Search: " + m.searchInput.View() + "\n\n")
	} else if term := m.sess.SearchTerm(); term != "" {
		b.WriteString(fmt.Sprintf("Search: %q\n\n", term))
	}

	list := m.history()
	if len(list) == 0 {
		b.WriteString("No records.\n")
		return b.String()
	}
	for i, r := range list {
		b.WriteString(fmt.Sprintf("%s  ", r.StartDate))
		b.WriteString(m.recordLine(r, i == m.historyCursor) + "\n")
	}
	return b.String()
}

func (m model) viewAddForm() string {
	var b strings.Builder
	b.WriteString(subtitleStyle.Render("Add Medicine") + "\n\n")
	for i, input := range m.addInputs {
		input.Width = m.contentWidth() - 16
		b.WriteString(fmt.Sprintf("%-12s %s\n", fieldLabels[i]+":", input.View()))
	}
	b.WriteString("\n(enter for next field / submit, esc to cancel)")
	if m.addError != "" {
		b.WriteString("\n\n" + textRedStyle.Render(m.addError) + "\n")
	}
	return b.String()
}

func (m model) viewDeleteConfirm() string {
	name := m.deleteID
	if rec, ok := m.sess.Store().Get(m.deleteID); ok {
		name = rec.Name
	}
	return subtitleStyle.Render("Delete Entry") + "\n\n" +
		"Are you sure you want to delete " + textRedStyle.Render(name) + "?\n\n" +
		confirmOptions(m.deleteConfirmIdx, "Delete")
}

// ShowTUI creates and runs the bubbletea program until the user quits.
func ShowTUI(sess *session.Session) error {
	updates, unsubscribe := subscribe(sess)
	defer unsubscribe()

	p := tea.NewProgram(initModel(sess, updates), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
