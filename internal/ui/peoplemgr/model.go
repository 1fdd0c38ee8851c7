// Package peoplemgr implements the people tab: contacts with their
// business and tags, plus a create/edit form.
package peoplemgr

import (
	"fmt"
	"io"
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

// PersonSavedMsg is dispatched when the form completes. The tag links
// replace whatever the person had before.
type PersonSavedMsg struct {
	Person model.Person
	TagIDs []int64
}

// PersonDeletedMsg asks for the selected person to be removed.
type PersonDeletedMsg struct {
	ID int64
}

type formBindings struct {
	firstName   string
	lastName    string
	email       string
	phoneNumber string
	businessID  int64
	tagIDs      []int64
}

// Model is the Bubble Tea model for the people tab.
type Model struct {
	list       list.Model
	form       *huh.Form
	fb         *formBindings
	formActive bool
	editID     int64

	people     []model.PersonWithDetails
	businesses []model.Business
	tags       []model.Tag

	keys   *keys.KeyMap
	edit   key.Binding
	width  int
	height int
}

// New creates the people tab model.
func New(km *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, itemDelegate{}, width, height)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)

	return Model{
		list: l,
		fb:   &formBindings{},
		keys: km,
		edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
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

// SetPeople replaces the detailed people snapshot.
func (m *Model) SetPeople(people []model.PersonWithDetails) {
	m.people = people
	items := make([]list.Item, len(people))
	for i, p := range people {
		items[i] = personItem{Person: p}
	}
	m.list.SetItems(items)
	if m.list.Index() >= len(items) && len(items) > 0 {
		m.list.Select(len(items) - 1)
	}
}

// SetOptions replaces the selector options offered by the form.
func (m *Model) SetOptions(businesses []model.Business, tags []model.Tag) {
	m.businesses = businesses
	m.tags = tags
}

// People returns the latest snapshot.
func (m Model) People() []model.PersonWithDetails {
	return m.people
}

// FormActive reports whether the create/edit form owns the keyboard.
func (m Model) FormActive() bool {
	return m.formActive
}

func (m Model) selected() *model.PersonWithDetails {
	item, ok := m.list.SelectedItem().(personItem)
	if !ok {
		return nil
	}
	return &item.Person
}

// Update handles messages for the people tab.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.formActive {
		return m.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.New):
			return m, m.startCreate()

		case key.Matches(msg, m.edit):
			if p := m.selected(); p != nil {
				return m, m.startEdit(*p)
			}
			return m, nil

		case key.Matches(msg, m.keys.Delete):
			if p := m.selected(); p != nil {
				id := p.ID
				return m, func() tea.Msg {
					return PersonDeletedMsg{ID: id}
				}
			}
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

// View renders the people tab.
func (m Model) View() string {
	if m.formActive {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	}
	return m.list.View()
}

func (m *Model) startCreate() tea.Cmd {
	m.editID = 0
	m.fb.firstName = ""
	m.fb.lastName = ""
	m.fb.email = ""
	m.fb.phoneNumber = ""
	m.fb.businessID = 0
	m.fb.tagIDs = nil
	m.form = m.buildForm()
	m.formActive = true
	return m.form.Init()
}

func (m *Model) startEdit(p model.PersonWithDetails) tea.Cmd {
	m.editID = p.ID
	m.fb.firstName = p.FirstName
	m.fb.lastName = p.LastName
	m.fb.email = p.Email
	m.fb.phoneNumber = p.PhoneNumber
	m.fb.businessID = 0
	if p.BusinessID != nil {
		m.fb.businessID = *p.BusinessID
	}
	m.fb.tagIDs = nil
	for _, t := range p.Tags {
		m.fb.tagIDs = append(m.fb.tagIDs, t.ID)
	}
	m.form = m.buildForm()
	m.formActive = true
	return m.form.Init()
}

func (m *Model) buildForm() *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Title("First name").
			Value(&m.fb.firstName),
		huh.NewInput().
			Title("Last name").
			Value(&m.fb.lastName),
		huh.NewInput().
			Title("Email").
			Placeholder("Optional").
			Value(&m.fb.email),
		huh.NewInput().
			Title("Phone").
			Placeholder("Optional").
			Value(&m.fb.phoneNumber),
		m.businessField(),
	}
	if len(m.tags) > 0 {
		opts := make([]huh.Option[int64], len(m.tags))
		for i, t := range m.tags {
			opts[i] = huh.NewOption(t.Name, t.ID)
		}
		fields = append(fields, huh.NewMultiSelect[int64]().
			Title("Tags").
			Options(opts...).
			Value(&m.fb.tagIDs))
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

func (m Model) submit() tea.Cmd {
	person := model.Person{
		ID:          m.editID,
		FirstName:   strings.TrimSpace(m.fb.firstName),
		LastName:    strings.TrimSpace(m.fb.lastName),
		Email:       strings.TrimSpace(m.fb.email),
		PhoneNumber: strings.TrimSpace(m.fb.phoneNumber),
	}
	if m.fb.businessID != 0 {
		id := m.fb.businessID
		person.BusinessID = &id
	}
	tagIDs := m.fb.tagIDs
	return func() tea.Msg {
		return PersonSavedMsg{Person: person, TagIDs: tagIDs}
	}
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

// personItem adapts a detailed person row to the bubbles list.
type personItem struct {
	Person model.PersonWithDetails
}

func (i personItem) FilterValue() string { return i.Person.FullName() }

// itemDelegate renders one person per line with business and tag chips.
type itemDelegate struct{}

func (d itemDelegate) Height() int  { return 1 }
func (d itemDelegate) Spacing() int { return 0 }

func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	pi, ok := item.(personItem)
	if !ok {
		return
	}
	p := pi.Person

	line := p.FullName()
	if p.Business != nil {
		line += lipgloss.NewStyle().
			Foreground(theme.ColorBlue).
			Render("  @ " + p.Business.Name)
	}
	if p.Email != "" {
		line += lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Render("  <" + p.Email + ">")
	}
	for _, t := range p.Tags {
		line += " " + theme.TagChipStyle(t.Color).Render("#"+t.Name)
	}

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}
