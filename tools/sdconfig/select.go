package main

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/infomedia-iot/iot-provisioner/prompt"
	"github.com/infomedia-iot/iot-provisioner/sdcard"
)

type deviceModel struct {
	devices  []sdcard.Device
	table    table.Model
	selected *sdcard.Device
	err      error
}

func newDeviceModel(devices []sdcard.Device) deviceModel {
	columns := []table.Column{
		{Title: "Name", Width: 10},
		{Title: "Size", Width: 12},
		{Title: "Model", Width: 20},
		{Title: "Path", Width: 14},
	}

	rows := make([]table.Row, 0, len(devices))
	for _, dev := range devices {
		rows = append(rows, table.Row{
			dev.Name,
			sdcard.HumanBytes(int64(dev.SizeBytes)),
			dev.Model,
			dev.Path,
		})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(8),
	)
	t.SetStyles(newTableStyles())

	return deviceModel{devices: devices, table: t}
}

func newTableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	return s
}

func (m deviceModel) Init() tea.Cmd {
	return nil
}

func (m deviceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.err = prompt.ErrAborted
			return m, tea.Quit
		case "up", "k":
			m.table.MoveUp(1)
		case "down", "j":
			m.table.MoveDown(1)
		case "enter":
			cursor := m.table.Cursor()
			if cursor < 0 || cursor >= len(m.devices) {
				m.err = errors.New("invalid selection")
				return m, tea.Quit
			}
			m.selected = &m.devices[cursor]
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.table.SetWidth(max(msg.Width-4, 20))
	}
	return m, nil
}

func (m deviceModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n", m.err)
	}
	if m.selected != nil {
		return ""
	}
	return fmt.Sprintf(
		"Select the card to flash (↑/↓ to navigate, enter to choose)\n\n%s\n\nPress q to cancel.",
		m.table.View(),
	)
}

func runDeviceSelection(devices []sdcard.Device) (sdcard.Device, error) {
	model, err := tea.NewProgram(newDeviceModel(devices)).Run()
	if err != nil {
		return sdcard.Device{}, err
	}

	selection, ok := model.(deviceModel)
	if !ok {
		return sdcard.Device{}, errors.New("failed to read selection state")
	}
	if selection.err != nil {
		return sdcard.Device{}, selection.err
	}
	if selection.selected == nil {
		return sdcard.Device{}, errors.New("no device selected")
	}
	return *selection.selected, nil
}
