// Package bizmgr implements the business tab: a list of businesses with
// their categories and tags, plus a create/edit form.
package bizmgr

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

// BusinessSavedMsg is dispatched when the form completes. The category
// and tag links replace whatever the business had before.
type BusinessSavedMsg struct {
	Business    model.Business
	CategoryIDs []int64
	TagIDs      []int64
}

// BusinessDeletedMsg asks for the selected business to be removed.
type BusinessDeletedMsg struct {
	Business model.Business
}

type formBindings struct {
	name        string
	email       string
	categoryIDs []int64
	tagIDs      []int64
}

// Model is the Bubble Tea model for the business tab.
type Model struct {
	list       list.Model
	form       *huh.Form
	fb         *formBindings
	formActive bool
	editID     int64

	businesses []model.BusinessWithDetails
	categories []model.Category
	tags       []model.Tag

	keys   *keys.KeyMap
	edit   key.Binding
	width  int
	height int
}

// New creates the business tab model.
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

// SetBusinesses replaces the detailed business snapshot.
func (m *Model) SetBusinesses(businesses []model.BusinessWithDetails) {
	m.businesses = businesses
	items := make([]list.Item, len(businesses))
	for i, b := range businesses {
		items[i] = businessItem{Business: b}
	}
	m.list.SetItems(items)
	if m.list.Index() >= len(items) && len(items) > 0 {
		m.list.Select(len(items) - 1)
	}
}

// SetOptions replaces the taxonomy options offered by the form.
func (m *Model) SetOptions(categories []model.Category, tags []model.Tag) {
	m.categories = categories
	m.tags = tags
}

// Businesses returns the latest snapshot.
func (m Model) Businesses() []model.BusinessWithDetails {
	return m.businesses
}

// FormActive reports whether the create/edit form owns the keyboard.
func (m Model) FormActive() bool {
	return m.formActive
}

func (m Model) selected() *model.BusinessWithDetails {
	item, ok := m.list.SelectedItem().(businessItem)
	if !ok {
		return nil
	}
	return &item.Business
}

// Update handles messages for the business tab.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.formActive {
		return m.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.New):
			return m, m.startCreate()

		case key.Matches(msg, m.edit):
			if b := m.selected(); b != nil {
				return m, m.startEdit(*b)
			}
			return m, nil

		case key.Matches(msg, m.keys.Delete):
			if b := m.selected(); b != nil {
				business := b.Business
				return m, func() tea.Msg {
					return BusinessDeletedMsg{Business: business}
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

// View renders the business tab.
func (m Model) View() string {
	if m.formActive {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	}
	return m.list.View()
}

func (m *Model) startCreate() tea.Cmd {
	m.editID = 0
	m.fb.name = ""
	m.fb.email = ""
	m.fb.categoryIDs = nil
	m.fb.tagIDs = nil
	m.form = m.buildForm()
	m.formActive = true
	return m.form.Init()
}

func (m *Model) startEdit(b model.BusinessWithDetails) tea.Cmd {
	m.editID = b.ID
	m.fb.name = b.Name
	m.fb.email = ""
	if b.Email != nil {
		m.fb.email = *b.Email
	}
	m.fb.categoryIDs = nil
	for _, c := range b.Categories {
		m.fb.categoryIDs = append(m.fb.categoryIDs, c.ID)
	}
	m.fb.tagIDs = nil
	for _, t := range b.Tags {
		m.fb.tagIDs = append(m.fb.tagIDs, t.ID)
	}
	m.form = m.buildForm()
	m.formActive = true
	return m.form.Init()
}

func (m *Model) buildForm() *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Title("Name").
			Placeholder("Business name").
			Value(&m.fb.name).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("Name is required")
				}
				return nil
			}),
		huh.NewInput().
			Title("Email").
			Placeholder("Optional contact email").
			Value(&m.fb.email),
	}
	if len(m.categories) > 0 {
		opts := make([]huh.Option[int64], len(m.categories))
		for i, c := range m.categories {
			opts[i] = huh.NewOption(c.Name, c.ID)
		}
		fields = append(fields, huh.NewMultiSelect[int64]().
			Title("Categories").
			Options(opts...).
			Value(&m.fb.categoryIDs))
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

func (m Model) submit() tea.Cmd {
	business := model.Business{
		ID:   m.editID,
		Name: strings.TrimSpace(m.fb.name),
	}
	if email := strings.TrimSpace(m.fb.email); email != "" {
		business.Email = &email
	}
	categoryIDs := m.fb.categoryIDs
	tagIDs := m.fb.tagIDs
	return func() tea.Msg {
		return BusinessSavedMsg{
			Business:    business,
			CategoryIDs: categoryIDs,
			TagIDs:      tagIDs,
		}
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

// businessItem adapts a detailed business row to the bubbles list.
type businessItem struct {
	Business model.BusinessWithDetails
}

func (i businessItem) FilterValue() string { return i.Business.Name }

// itemDelegate renders one business per line with its taxonomy chips.
type itemDelegate struct{}

func (d itemDelegate) Height() int  { return 1 }
func (d itemDelegate) Spacing() int { return 0 }

func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	bi, ok := item.(businessItem)
	if !ok {
		return
	}
	b := bi.Business

	line := b.Name
	if b.Email != nil {
		line += lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Render("  <" + *b.Email + ">")
	}
	if len(b.Categories) > 0 {
		var names []string
		for _, c := range b.Categories {
			names = append(names, c.Name)
		}
		line += lipgloss.NewStyle().
			Foreground(theme.ColorBlue).
			Render("  [" + strings.Join(names, ", ") + "]")
	}
	for _, t := range b.Tags {
		line += " " + theme.TagChipStyle(t.Color).Render("#"+t.Name)
	}

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}
