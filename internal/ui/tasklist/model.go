package tasklist

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/stewardapostol/clientele/internal/keys"
	"github.com/stewardapostol/clientele/internal/model"
	"github.com/stewardapostol/clientele/internal/theme"
)

// TaskSavedMsg is dispatched when the form completes. A zero Task.ID
// means create, any other value means replace.
type TaskSavedMsg struct {
	Task model.Task
}

// TaskToggledMsg asks for the selected task's status to be flipped.
type TaskToggledMsg struct {
	ID     int64
	IsOpen bool
}

// TaskDeletedMsg asks for the selected task to be removed.
type TaskDeletedMsg struct {
	ID int64
}

// statusFilter selects which slice of tasks the list shows.
type statusFilter int

const (
	filterAll statusFilter = iota
	filterOpen
	filterCompleted
)

func (f statusFilter) label() string {
	switch f {
	case filterOpen:
		return "Open"
	case filterCompleted:
		return "Completed"
	default:
		return "All"
	}
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	description string
	status      string
	businessID  int64
	personID    int64
}

// Model is the Bubble Tea model for the task tab: a filterable list
// plus a create/edit form.
type Model struct {
	list       list.Model
	form       *huh.Form
	fb         *formBindings
	formActive bool
	editID     int64

	tasks      []model.TaskWithNames
	businesses []model.Business
	people     []model.Person
	filter     statusFilter

	keys   *keys.KeyMap
	edit   key.Binding
	cycle  key.Binding
	width  int
	height int
}

// New creates the task tab model.
func New(km *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)

	return Model{
		list: l,
		fb:   &formBindings{status: model.TaskStatusOpen},
		keys: km,
		edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		cycle: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "filter"),
		),
		width:  width,
		height: height,
	}
}

// Init returns the initial command for this view.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}

// SetTasks replaces the task snapshot and refreshes the visible list.
func (m *Model) SetTasks(tasks []model.TaskWithNames) {
	m.tasks = tasks
	m.refreshItems()
}

// SetOptions replaces the selector options offered by the form.
func (m *Model) SetOptions(businesses []model.Business, people []model.Person) {
	m.businesses = businesses
	m.people = people
}

// FormActive reports whether the create/edit form owns the keyboard.
func (m Model) FormActive() bool {
	return m.formActive
}

func (m *Model) refreshItems() {
	items := make([]list.Item, 0, len(m.tasks))
	for _, t := range m.tasks {
		switch m.filter {
		case filterOpen:
			if t.Status != model.TaskStatusOpen {
				continue
			}
		case filterCompleted:
			if t.Status != model.TaskStatusCompleted {
				continue
			}
		}
		items = append(items, TaskItem{Task: t})
	}
	m.list.SetItems(items)
	if m.list.Index() >= len(items) && len(items) > 0 {
		m.list.Select(len(items) - 1)
	}
}

// selected returns the task under the cursor, or nil.
func (m Model) selected() *model.TaskWithNames {
	item, ok := m.list.SelectedItem().(TaskItem)
	if !ok {
		return nil
	}
	return &item.Task
}

// Update handles messages for the task tab.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.formActive {
		return m.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.New):
			return m, m.startCreate()

		case key.Matches(msg, m.edit):
			if t := m.selected(); t != nil {
				return m, m.startEdit(t.Task)
			}
			return m, nil

		case key.Matches(msg, m.keys.Select):
			if t := m.selected(); t != nil {
				id := t.ID
				open := t.Status == model.TaskStatusOpen
				return m, func() tea.Msg {
					return TaskToggledMsg{ID: id, IsOpen: open}
				}
			}
			return m, nil

		case key.Matches(msg, m.keys.Delete):
			if t := m.selected(); t != nil {
				id := t.ID
				return m, func() tea.Msg {
					return TaskDeletedMsg{ID: id}
				}
			}
			return m, nil

		case key.Matches(msg, m.cycle):
			m.filter = (m.filter + 1) % 3
			m.refreshItems()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		return m, m.submit()
	}
	if m.form.State == huh.StateAborted {
		m.formActive = false
		return m, nil
	}

	return m, cmd
}

// View renders the task tab.
func (m Model) View() string {
	if m.formActive {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	}

	filterLine := theme.HelpStyle.Render(
		fmt.Sprintf("Filter: %s  (f to cycle)", m.filter.label()))
	return lipgloss.JoinVertical(lipgloss.Left, filterLine, m.list.View())
}

func (m *Model) startCreate() tea.Cmd {
	m.editID = 0
	m.fb.title = ""
	m.fb.description = ""
	m.fb.status = model.TaskStatusOpen
	m.fb.businessID = 0
	m.fb.personID = 0
	m.form = m.buildForm(false)
	m.formActive = true
	return m.form.Init()
}

func (m *Model) startEdit(t model.Task) tea.Cmd {
	m.editID = t.ID
	m.fb.title = t.Title
	m.fb.description = t.Description
	m.fb.status = t.Status
	m.fb.businessID = 0
	if t.RelatedBusinessID != nil {
		m.fb.businessID = *t.RelatedBusinessID
	}
	m.fb.personID = 0
	if t.RelatedPersonID != nil {
		m.fb.personID = *t.RelatedPersonID
	}
	m.form = m.buildForm(true)
	m.formActive = true
	return m.form.Init()
}

func (m *Model) buildForm(edit bool) *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Title("Title").
			Placeholder("What needs doing?").
			Value(&m.fb.title).
			Validate(validateRequired("Title")),
		huh.NewText().
			Title("Description").
			Placeholder("Optional details...").
			Value(&m.fb.description),
		m.businessField(),
		m.personField(),
	}
	if edit {
		fields = append(fields,
			huh.NewSelect[string]().
				Title("Status").
				Options(
					huh.NewOption(model.TaskStatusOpen, model.TaskStatusOpen),
					huh.NewOption(model.TaskStatusCompleted, model.TaskStatusCompleted),
				).
				Value(&m.fb.status),
		)
	}

	return huh.NewForm(huh.NewGroup(fields...)).
		WithWidth(formWidth(m.width)).
		WithHeight(formHeight(m.height))
}

func (m *Model) businessField() huh.Field {
	opts := []huh.Option[int64]{huh.NewOption("None", int64(0))}
	for _, b := range m.businesses {
		opts = append(opts, huh.NewOption(b.Name, b.ID))
	}
	return huh.NewSelect[int64]().
		Title("Business").
		Options(opts...).
		Value(&m.fb.businessID)
}

func (m *Model) personField() huh.Field {
	opts := []huh.Option[int64]{huh.NewOption("None", int64(0))}
	for _, p := range m.people {
		opts = append(opts, huh.NewOption(p.FullName(), p.ID))
	}
	return huh.NewSelect[int64]().
		Title("Person").
		Options(opts...).
		Value(&m.fb.personID)
}

func (m Model) submit() tea.Cmd {
	task := model.Task{
		ID:          m.editID,
		Title:       strings.TrimSpace(m.fb.title),
		Description: m.fb.description,
		Status:      m.fb.status,
	}
	if m.fb.businessID != 0 {
		id := m.fb.businessID
		task.RelatedBusinessID = &id
	}
	if m.fb.personID != 0 {
		id := m.fb.personID
		task.RelatedPersonID = &id
	}
	return func() tea.Msg { return TaskSavedMsg{Task: task} }
}

func formWidth(w int) int {
	w -= 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func formHeight(h int) int {
	h -= 4
	if h < 10 {
		h = 10
	}
	return h
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}
