// Package triage is the terminal UI for reviewing applications.
package triage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobboard/internal/model"
)

// StatusSetter changes an application's status.
type StatusSetter interface {
	SetStatus(ctx context.Context, id string, status string) (model.Application, error)
}

// Lines per application in the list view (name + subtitle + blank separator).
const appItemHeight = 3

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39")) // bright blue

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240")) // dim gray

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("39"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	nameStyle = lipgloss.NewStyle().
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	selectedNameStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(14)

	statusColors = map[model.Status]lipgloss.Color{
		model.StatusPending:     lipgloss.Color("220"),
		model.StatusReviewed:    lipgloss.Color("39"),
		model.StatusShortlisted: lipgloss.Color("141"),
		model.StatusRejected:    lipgloss.Color("196"),
		model.StatusHired:       lipgloss.Color("42"),
	}
)

// statusChangedMsg is sent when an async status update completes.
type statusChangedMsg struct {
	app model.Application
	err error
}

type triageModel struct {
	apps    []model.ApplicationView
	setter  StatusSetter
	cursor  int
	focus   int // 0=list, 1=detail
	width   int
	height  int
	ready   bool
	saving  bool
	message string
	failed  bool

	listViewport   viewport.Model
	detailViewport viewport.Model

	wantQuit bool
}

func newTriageModel(apps []model.ApplicationView, setter StatusSetter) triageModel {
	return triageModel{apps: apps, setter: setter}
}

func (m triageModel) Init() tea.Cmd {
	return nil
}

func (m triageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		return m, nil

	case statusChangedMsg:
		m.saving = false
		if msg.err != nil {
			m.failed = true
			m.message = fmt.Sprintf("update failed: %v", msg.err)
			return m, nil
		}
		for i := range m.apps {
			if m.apps[i].ID == msg.app.ID {
				m.apps[i].Status = msg.app.Status
				break
			}
		}
		m.failed = false
		m.message = fmt.Sprintf("%s → %s", msg.app.FullName, msg.app.Status)
		m.recalcContent()
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m triageModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "b":
		m.wantQuit = false
		return m, tea.Quit
	case "tab":
		m.focus = 1 - m.focus
		return m, nil
	case "up", "k":
		if m.focus == 0 {
			m.moveCursor(-1)
			return m, nil
		}
	case "down", "j":
		if m.focus == 0 {
			m.moveCursor(1)
			return m, nil
		}
	case "n", "p":
		if app, ok := m.selected(); ok {
			return m.setStatus(app, cycle(app.Status, key == "n"))
		}
		return m, nil
	case "1", "2", "3", "4", "5":
		if app, ok := m.selected(); ok {
			return m.setStatus(app, model.Statuses()[key[0]-'1'])
		}
		return m, nil
	}

	// Forward other keys (pgup/pgdn/home/end) to the focused viewport.
	var cmd tea.Cmd
	if m.focus == 0 {
		m.listViewport, cmd = m.listViewport.Update(msg)
	} else {
		m.detailViewport, cmd = m.detailViewport.Update(msg)
	}
	return m, cmd
}

func (m triageModel) setStatus(app model.ApplicationView, status model.Status) (tea.Model, tea.Cmd) {
	if m.saving || app.Status == status {
		return m, nil
	}
	m.saving = true
	m.message = "saving..."
	setter := m.setter
	id := app.ID
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		updated, err := setter.SetStatus(ctx, id, string(status))
		return statusChangedMsg{app: updated, err: err}
	}
}

func (m triageModel) selected() (model.ApplicationView, bool) {
	if len(m.apps) == 0 {
		return model.ApplicationView{}, false
	}
	return m.apps[m.cursor], true
}

func (m *triageModel) moveCursor(delta int) {
	m.cursor = clamp(m.cursor+delta, 0, max(len(m.apps)-1, 0))
	m.recalcContent()
	m.ensureCursorVisible()
}

func (m *triageModel) ensureCursorVisible() {
	vp := &m.listViewport
	top := m.cursor * appItemHeight
	bottom := top + appItemHeight - 1

	if top < vp.YOffset {
		vp.SetYOffset(top)
	} else if bottom >= vp.YOffset+vp.Height {
		vp.SetYOffset(bottom - vp.Height + 1)
	}
}

func (m *triageModel) recalcLayout() {
	// 2 border chars per pane + 1 gap between panes.
	paneWidth := max((m.width-5)/2, 20)

	// Header (1 line) + border top/bottom (2) + status bar (1) = 4 lines overhead.
	paneHeight := max(m.height-4, 5)

	if !m.ready {
		m.listViewport = viewport.New(paneWidth, paneHeight)
		m.detailViewport = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		m.listViewport.Width = paneWidth
		m.listViewport.Height = paneHeight
		m.detailViewport.Width = paneWidth
		m.detailViewport.Height = paneHeight
	}
	m.recalcContent()
}

func (m *triageModel) recalcContent() {
	if !m.ready {
		return
	}
	m.listViewport.SetContent(renderApps(m.apps, m.cursor))
	if app, ok := m.selected(); ok {
		m.detailViewport.SetContent(renderDetail(app))
	} else {
		m.detailViewport.SetContent("")
	}
}

func (m triageModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	paneWidth := m.listViewport.Width

	listBorder, detailBorder := activeBorderStyle, inactiveBorderStyle
	if m.focus == 1 {
		listBorder, detailBorder = inactiveBorderStyle, activeBorderStyle
	}

	headerRow := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(paneWidth+2).Render(headerStyle.Render(fmt.Sprintf(" Applications (%d)", len(m.apps)))),
		" ",
		lipgloss.NewStyle().Width(paneWidth+2).Render(headerStyle.Render(" Detail")),
	)
	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		listBorder.Width(paneWidth).Render(m.listViewport.View()),
		" ",
		detailBorder.Width(paneWidth).Render(m.detailViewport.View()),
	)

	statusText := " ↑/↓ move  1-5 set status  n/p cycle  tab focus  esc back  q quit"
	if m.message != "" {
		msg := m.message
		if m.failed {
			msg = errorStyle.Render(msg)
		}
		statusText = " " + msg + "   |" + statusText
	}
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return headerRow + "\n" + panes + "\n" + statusBar
}

func renderApps(apps []model.ApplicationView, cursor int) string {
	if len(apps) == 0 {
		return "  (no applications)"
	}

	var b strings.Builder
	for i, a := range apps {
		nameSt, subSt, prefix := nameStyle, subtitleStyle, "  "
		if i == cursor {
			nameSt, subSt, prefix = selectedNameStyle, selectedSubtitleStyle, "> "
		}

		b.WriteString(prefix)
		b.WriteString(nameSt.Render(a.FullName))
		b.WriteString(" ")
		b.WriteString(statusBadge(a.Status))
		b.WriteByte('\n')

		b.WriteString(prefix)
		b.WriteString(subSt.Render(fmt.Sprintf("%s · %s", a.JobTitle, a.SubmittedAt.Format("2006-01-02"))))
		b.WriteByte('\n')

		if i < len(apps)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func renderDetail(a model.ApplicationView) string {
	var b strings.Builder
	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(value)
		b.WriteByte('\n')
	}

	addField("Name", a.FullName)
	addField("Email", a.Email)
	addField("Phone", a.Phone)
	b.WriteByte('\n')
	addField("Job", a.JobTitle)
	addField("Department", a.JobDepartment)
	addField("Applied", a.SubmittedAt.UTC().Format("2006-01-02 15:04 MST"))
	b.WriteByte('\n')
	addField("Resume", a.ResumeRef)
	addField("Type", a.ResumeType)
	if a.ResumeSize > 0 {
		addField("Size", fmt.Sprintf("%.1f KB", float64(a.ResumeSize)/1024))
	}
	b.WriteByte('\n')
	addField("Status", statusBadge(a.Status))
	addField("ID", a.ID)
	return b.String()
}

func statusBadge(s model.Status) string {
	return lipgloss.NewStyle().Foreground(statusColors[s]).Render("[" + string(s) + "]")
}

// cycle returns the status after (or before) s in review order, wrapping around.
func cycle(s model.Status, forward bool) model.Status {
	all := model.Statuses()
	idx := 0
	for i, st := range all {
		if st == s {
			idx = i
			break
		}
	}
	if forward {
		return all[(idx+1)%len(all)]
	}
	return all[(idx-1+len(all))%len(all)]
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RunTriageTUI launches the split-pane triage view over apps.
// Returns wantQuit=true if the admin pressed q/ctrl+c, false if they pressed
// esc to return to the job picker.
func RunTriageTUI(apps []model.ApplicationView, setter StatusSetter) (bool, error) {
	p := tea.NewProgram(newTriageModel(apps, setter), tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return false, err
	}
	return result.(triageModel).wantQuit, nil
}
