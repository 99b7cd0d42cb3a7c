package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dimensionhq/neura/internal/model"
)

type modelItem struct {
	model model.Model
}

func (i modelItem) Title() string {
	return i.model.Label()
}

func (i modelItem) Description() string {
	prompt, completion := i.model.Rates()
	if prompt == 0 && completion == 0 {
		return fmt.Sprintf("%s  not metered", i.model.Code())
	}
	return fmt.Sprintf("%s  $%.3f / $%.3f per 1k prompt / completion tokens", i.model.Code(), prompt, completion)
}

func (i modelItem) FilterValue() string {
	return strings.ToLower(i.model.String() + " " + i.model.Code())
}

type pickerModel struct {
	models   []model.Model
	list     list.Model
	search   textinput.Model
	query    string
	chosen   model.Model
	canceled bool
}

func newPickerModel(models []model.Model, initial model.Model) pickerModel {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	listModel := list.New([]list.Item{}, delegate, 0, 0)
	listModel.Title = "Select a model"
	listModel.SetShowStatusBar(false)
	listModel.SetShowHelp(false)
	listModel.SetFilteringEnabled(false)

	search := textinput.New()
	search.Placeholder = "type to search"
	search.Prompt = "Search: "
	search.Focus()

	m := pickerModel{
		models: models,
		list:   listModel,
		search: search,
	}
	m.applyFilter()
	for idx, item := range m.list.Items() {
		if item.(modelItem).model == initial {
			m.list.Select(idx)
		}
	}
	return m
}

func (m *pickerModel) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(m.search.Value()))
	filtered := make([]list.Item, 0, len(m.models))
	for _, candidate := range m.models {
		item := modelItem{model: candidate}
		if query == "" || strings.Contains(item.FilterValue(), query) {
			filtered = append(filtered, item)
		}
	}
	m.list.SetItems(filtered)
	if len(filtered) > 0 {
		m.list.Select(0)
	}
	m.query = m.search.Value()
}

func (m pickerModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		listHeight := max(msg.Height-lipgloss.Height(m.footerView())-3, 4)
		m.list.SetSize(msg.Width, listHeight)
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.canceled = true
			return m, tea.Quit
		case "enter":
			selected, ok := m.list.SelectedItem().(modelItem)
			if !ok {
				return m, nil
			}
			m.chosen = selected.model
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != m.query {
		m.applyFilter()
	}
	var listCmd tea.Cmd
	m.list, listCmd = m.list.Update(msg)
	return m, tea.Batch(cmd, listCmd)
}

func (m pickerModel) View() string {
	content := m.list.View()
	if len(m.list.Items()) == 0 {
		content = "No models match your search."
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.search.View(), content, m.footerView())
}

func (m pickerModel) footerView() string {
	return "Type to search • ↑/↓ to move • Enter to select • Esc to cancel"
}

func runModelPicker(in io.Reader, out io.Writer, initial model.Model) (model.Model, error) {
	program := tea.NewProgram(newPickerModel(model.All(), initial), tea.WithInput(in), tea.WithOutput(out))
	final, err := program.Run()
	if err != nil {
		return "", err
	}
	picked, ok := final.(pickerModel)
	if !ok {
		return "", fmt.Errorf("unexpected TUI model")
	}
	if picked.canceled || picked.chosen == "" {
		return "", errCanceled
	}
	return picked.chosen, nil
}
