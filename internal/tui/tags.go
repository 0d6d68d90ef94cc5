package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tasklist/internal/importer"
	"github.com/sadopc/tasklist/internal/store"
)

// autoColor in the colour select means "classify by name".
const autoColor = "auto"

var tagColorOptions = []huh.Option[string]{
	huh.NewOption("Auto (from name)", autoColor),
	huh.NewOption("Red", "#ff4d4f"),
	huh.NewOption("Orange", "#faad14"),
	huh.NewOption("Green", "#52c41a"),
	huh.NewOption("Blue", "#1890ff"),
	huh.NewOption("Purple", "#722ed1"),
	huh.NewOption("Teal", "#13c2c2"),
	huh.NewOption("Magenta", "#eb2f96"),
}

type tagsModel struct {
	store  *store.Store
	width  int
	height int

	tags   []store.Tag
	usage  map[string]int
	cursor int

	formActive bool
	form       *huh.Form
	formType   string // "new", "edit"
	editingID  int64

	// Form field pointers (survive value copies)
	formName  *string
	formColor *string
}

func newTagsModel(s *store.Store) tagsModel {
	name, color := "", autoColor
	return tagsModel{
		store:     s,
		formName:  &name,
		formColor: &color,
	}
}

func (m *tagsModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type tagsDataMsg struct {
	tags  []store.Tag
	usage map[string]int
}

func (m tagsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		tags, _ := m.store.ListTags()
		usage := make(map[string]int)
		todos, _ := m.store.ListTodos(store.TodoFilter{})
		for _, t := range todos {
			for _, name := range t.Tags {
				usage[name]++
			}
		}
		return tagsDataMsg{tags: tags, usage: usage}
	}
}

func (m tagsModel) update(msg tea.Msg) (tagsModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tagsDataMsg:
		m.tags = msg.tags
		m.usage = msg.usage
		if m.cursor >= len(m.tags) {
			m.cursor = max(0, len(m.tags)-1)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.tags)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.New):
			return m.showForm(nil)
		case key.Matches(msg, keys.Edit):
			if len(m.tags) > 0 {
				t := m.tags[m.cursor]
				return m.showForm(&t)
			}
		case key.Matches(msg, keys.Delete):
			if len(m.tags) > 0 {
				return m, m.deleteTag(m.tags[m.cursor])
			}
		case key.Matches(msg, keys.Enter):
			if len(m.tags) > 0 {
				name := m.tags[m.cursor].Name
				return m, func() tea.Msg { return tagSelectedMsg{name: name} }
			}
		}
	}
	return m, nil
}

func (m tagsModel) showForm(t *store.Tag) (tagsModel, tea.Cmd) {
	*m.formName = ""
	*m.formColor = autoColor
	m.formType = "new"
	m.editingID = 0
	title := "New Tag"
	options := tagColorOptions
	if t != nil {
		*m.formName = t.Name
		*m.formColor = t.Color
		m.formType = "edit"
		m.editingID = t.ID
		title = "Edit Tag"
		if !hasColorOption(t.Color) {
			options = append([]huh.Option[string]{huh.NewOption("Current ("+t.Color+")", t.Color)}, tagColorOptions...)
		}
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(m.formName).
				Validate(func(s string) error {
					s = strings.TrimSpace(s)
					if s == "" {
						return errors.New("name is required")
					}
					if strings.ContainsAny(s, " \t") {
						return errors.New("tag names cannot contain spaces")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Color").
				Options(options...).
				Value(m.formColor),
		).Title(title),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func hasColorOption(color string) bool {
	for _, o := range tagColorOptions {
		if o.Value == color {
			return true
		}
	}
	return false
}

func (m tagsModel) updateForm(msg tea.Msg) (tagsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		return m, m.saveTag()
	}

	return m, cmd
}

func (m tagsModel) saveTag() tea.Cmd {
	name := strings.TrimPrefix(strings.TrimSpace(*m.formName), "#")
	color := *m.formColor
	if color == autoColor {
		color = importer.ColorFor(name)
	}
	id := m.editingID
	isEdit := m.formType == "edit"
	return func() tea.Msg {
		if isEdit {
			if _, err := m.store.UpdateTag(id, name, color); err != nil {
				if errors.Is(err, store.ErrTagNameTaken) {
					return statusMsg{text: fmt.Sprintf("Tag %q already exists", name), isError: true}
				}
				return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
			}
			return todoSavedMsg{text: fmt.Sprintf("Saved tag %q", name)}
		}
		if _, err := m.store.CreateTag(name, color); err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return todoSavedMsg{text: fmt.Sprintf("Created tag %q", name)}
	}
}

func (m tagsModel) deleteTag(t store.Tag) tea.Cmd {
	return func() tea.Msg {
		if err := m.store.DeleteTag(t.ID); err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return todoSavedMsg{text: fmt.Sprintf("Deleted tag %q", t.Name)}
	}
}

func (m tagsModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		return panelStyle.Width(w).Render(m.form.View())
	}

	title := titleStyle.Render("Tags")
	if len(m.tags) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No tags yet. Press n to create one, or add #tags to a todo."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, t := range m.tags {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		row := fmt.Sprintf("%s%s %s %s %s",
			cursor,
			colorDot(t.Color),
			style.Render(pad(truncate(t.Name, 24), 24)),
			mutedStyle.Render(pad(t.Color, 9)),
			mutedStyle.Render(fmt.Sprintf("%d todos", m.usage[t.Name])),
		)
		rows = append(rows, row)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  e: edit  d: delete  enter: show todos"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
