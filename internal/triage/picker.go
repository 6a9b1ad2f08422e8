package triage

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobboard/internal/model"
)

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Padding(1, 0, 1, 2)

	pickerItemStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 4)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 0, 0, 2)

	pickerDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	pickerHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 0, 0, 2)
)

// AllJobs is returned by RunJobPicker when the admin picks "All jobs".
const AllJobs = ""

type pickerModel struct {
	jobs   []model.Job
	cursor int // 0 = all jobs, i+1 = jobs[i]
	chosen int // -1 = no choice yet, -2 = quit
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.chosen = -2
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.jobs) {
				m.cursor++
			}
		case "enter":
			m.chosen = m.cursor
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	s := pickerTitleStyle.Render("Application Triage: select a job")
	s += "\n"

	s += m.renderItem(0, "All jobs")
	for i, j := range m.jobs {
		label := fmt.Sprintf("%s (%d/%d)", j.Title, j.ApplicationCount, j.Capacity())
		if !j.Active {
			label += pickerDimStyle.Render("  closed")
		}
		s += m.renderItem(i+1, label)
	}

	s += pickerHintStyle.Render("↑/↓/j/k navigate  enter select  q quit")
	return s
}

func (m pickerModel) renderItem(i int, label string) string {
	if i == m.cursor {
		return pickerSelectedStyle.Render("> "+label) + "\n"
	}
	return pickerItemStyle.Render(label) + "\n"
}

// result maps the final state to a job id. ok is false when the admin quit.
func (m pickerModel) result() (jobID string, ok bool) {
	switch {
	case m.chosen < 0:
		return "", false
	case m.chosen == 0:
		return AllJobs, true
	default:
		return m.jobs[m.chosen-1].ID, true
	}
}

// RunJobPicker shows an interactive job selector. It returns the chosen job
// id (AllJobs for every job) and false if the admin quit.
func RunJobPicker(jobs []model.Job) (string, bool, error) {
	m := pickerModel{jobs: jobs, chosen: -1}

	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return "", false, err
	}

	id, ok := result.(pickerModel).result()
	return id, ok, nil
}
