package prompt

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	hintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// ----------------- text input -----------------

type textModel struct {
	question string
	input    textinput.Model
	done     bool
	err      error
}

func newTextModel(question string) textModel {
	ti := textinput.New()
	ti.Placeholder = question
	ti.CharLimit = 63
	ti.Width = 40
	ti.Prompt = "› "
	ti.Focus()

	return textModel{question: question, input: ti}
}

func (m textModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m textModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.err = ErrAborted
			return m, tea.Quit
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m textModel) View() string {
	if m.done || m.err != nil {
		return ""
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s\n", titleStyle.Render(m.question), m.input.View(), hintStyle.Render("enter to confirm, esc to cancel"))
}

func runTextInput(in *os.File, out io.Writer, question string) (string, error) {
	model, err := tea.NewProgram(newTextModel(question), tea.WithInput(in), tea.WithOutput(out)).Run()
	if err != nil {
		return "", err
	}

	res, ok := model.(textModel)
	if !ok {
		return "", errors.New("failed to read prompt state")
	}
	if res.err != nil {
		return "", res.err
	}
	return res.input.Value(), nil
}

// ----------------- option list -----------------

type optionItem struct{ opt Option }

func (i optionItem) Title() string       { return i.opt.Name }
func (i optionItem) Description() string { return i.opt.Description }
func (i optionItem) FilterValue() string { return i.opt.Name }

type listModel struct {
	list     list.Model
	selected string
	err      error
}

func newListModel(title string, options []Option) listModel {
	items := make([]list.Item, len(options))
	for i, o := range options {
		items[i] = optionItem{opt: o}
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.Styles.Title = titleStyle
	l.SetFilteringEnabled(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(true)

	return listModel{list: l}
}

func (m listModel) Init() tea.Cmd {
	return nil
}

func (m listModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.err = ErrAborted
			return m, tea.Quit
		case "enter":
			item, ok := m.list.SelectedItem().(optionItem)
			if !ok {
				m.err = errors.New("invalid selection")
				return m, tea.Quit
			}
			m.selected = item.opt.Name
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-2)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m listModel) View() string {
	if m.selected != "" || m.err != nil {
		return ""
	}
	return m.list.View()
}

func runList(in *os.File, out io.Writer, title string, options []Option) (string, error) {
	model, err := tea.NewProgram(newListModel(title, options), tea.WithInput(in), tea.WithOutput(out), tea.WithAltScreen()).Run()
	if err != nil {
		return "", err
	}

	res, ok := model.(listModel)
	if !ok {
		return "", errors.New("failed to read selection state")
	}
	if res.err != nil {
		return "", res.err
	}
	return res.selected, nil
}
