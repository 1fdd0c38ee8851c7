// Package taxmgr implements the manage tab: side-by-side category and
// tag lists with add, rename, delete and undo-delete.
package taxmgr

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/stewardapostol/clientele/internal/keys"
	"github.com/stewardapostol/clientele/internal/model"
	"github.com/stewardapostol/clientele/internal/theme"
)

// CategorySavedMsg is dispatched when the name form completes for a
// category. IsNew distinguishes add from rename.
type CategorySavedMsg struct {
	Category model.Category
	IsNew    bool
}

// CategoryDeletedMsg asks for a category to be removed.
type CategoryDeletedMsg struct {
	Category model.Category
}

// UndoCategoryMsg asks for the last deleted category to be restored by
// name.
type UndoCategoryMsg struct {
	Name string
}

// TagSavedMsg is dispatched when the name form completes for a tag.
type TagSavedMsg struct {
	Tag   model.Tag
	IsNew bool
}

// TagDeletedMsg asks for a tag to be removed.
type TagDeletedMsg struct {
	Tag model.Tag
}

// UndoTagMsg asks for the last deleted tag to be restored with its
// old name and color.
type UndoTagMsg struct {
	Tag model.Tag
}

type taxMode int

const (
	modeList taxMode = iota
	modeForm
	modeConfirmDelete
)

// pane identifies which column has focus.
type pane int

const (
	paneCategories pane = iota
	paneTags
)

type formBindings struct {
	name    string
	confirm bool
}

// Model is the Bubble Tea model for the manage tab.
type Model struct {
	mode        taxMode
	pane        pane
	categories  []model.Category
	tags        []model.Tag
	categoryIdx int
	tagIdx      int

	form        *huh.Form
	confirmForm *huh.Form
	fb          *formBindings
	isNew       bool
	editID      int64
	editColor   uint32

	lastDeletedCategory string
	lastDeletedTag      model.Tag

	keys   *keys.KeyMap
	left   key.Binding
	right  key.Binding
	rename key.Binding
	width  int
	height int
}

// New creates the manage tab model.
func New(km *keys.KeyMap, width, height int) Model {
	return Model{
		fb:   &formBindings{},
		keys: km,
		left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "categories"),
		),
		right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "tags"),
		),
		rename: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "rename"),
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
}

// SetCategories replaces the category snapshot.
func (m *Model) SetCategories(categories []model.Category) {
	m.categories = categories
	if m.categoryIdx >= len(categories) && m.categoryIdx > 0 {
		m.categoryIdx = len(categories) - 1
	}
}

// SetTags replaces the tag snapshot.
func (m *Model) SetTags(tags []model.Tag) {
	m.tags = tags
	if m.tagIdx >= len(tags) && m.tagIdx > 0 {
		m.tagIdx = len(tags) - 1
	}
}

// Categories returns the latest category snapshot.
func (m Model) Categories() []model.Category {
	return m.categories
}

// Tags returns the latest tag snapshot.
func (m Model) Tags() []model.Tag {
	return m.tags
}

// FormActive reports whether a form owns the keyboard.
func (m Model) FormActive() bool {
	return m.mode != modeList
}

// Update handles messages for the manage tab.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && m.mode == modeList {
		return m.handleListKey(keyMsg)
	}

	switch m.mode {
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.left):
		m.pane = paneCategories
		return m, nil

	case key.Matches(msg, m.right):
		m.pane = paneTags
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.move(1)
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.move(-1)
		return m, nil

	case key.Matches(msg, m.keys.New):
		m.isNew = true
		m.editID = 0
		m.editColor = 0
		m.fb.name = ""
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case key.Matches(msg, m.rename):
		return m.startRename()

	case key.Matches(msg, m.keys.Delete):
		if !m.hasSelection() {
			return m, nil
		}
		m.fb.confirm = false
		m.confirmForm = m.buildConfirmForm()
		m.mode = modeConfirmDelete
		return m, m.confirmForm.Init()

	case key.Matches(msg, m.keys.Undo):
		return m.undo()
	}
	return m, nil
}

func (m *Model) move(delta int) {
	if m.pane == paneCategories {
		if n := len(m.categories); n > 0 {
			m.categoryIdx = ((m.categoryIdx+delta)%n + n) % n
		}
		return
	}
	if n := len(m.tags); n > 0 {
		m.tagIdx = ((m.tagIdx+delta)%n + n) % n
	}
}

func (m Model) hasSelection() bool {
	if m.pane == paneCategories {
		return m.categoryIdx < len(m.categories)
	}
	return m.tagIdx < len(m.tags)
}

func (m Model) startRename() (Model, tea.Cmd) {
	if !m.hasSelection() {
		return m, nil
	}
	m.isNew = false
	if m.pane == paneCategories {
		c := m.categories[m.categoryIdx]
		m.editID = c.ID
		m.fb.name = c.Name
	} else {
		t := m.tags[m.tagIdx]
		m.editID = t.ID
		m.editColor = t.Color
		m.fb.name = t.Name
	}
	m.form = m.buildForm()
	m.mode = modeForm
	return m, m.form.Init()
}

func (m Model) undo() (Model, tea.Cmd) {
	if m.pane == paneCategories {
		if m.lastDeletedCategory == "" {
			return m, nil
		}
		name := m.lastDeletedCategory
		m.lastDeletedCategory = ""
		return m, func() tea.Msg { return UndoCategoryMsg{Name: name} }
	}
	if m.lastDeletedTag.Name == "" {
		return m, nil
	}
	tag := m.lastDeletedTag
	m.lastDeletedTag = model.Tag{}
	return m, func() tea.Msg { return UndoTagMsg{Tag: tag} }
}

func (m Model) buildForm() *huh.Form {
	title := "Category name"
	if m.pane == paneTags {
		title = "Tag name"
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Value(&m.fb.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildConfirmForm() *huh.Form {
	var title, description string
	if m.pane == paneCategories {
		title = fmt.Sprintf("Delete category %q?", m.categories[m.categoryIdx].Name)
		description = "It will be removed from every business."
	} else {
		title = fmt.Sprintf("Delete tag %q?", m.tags[m.tagIdx].Name)
		description = "It will be removed from every business and person."
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State == huh.StateCompleted {
		m.mode = modeList
		return m, m.submitName()
	}
	if m.form.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) submitName() tea.Cmd {
	name := strings.TrimSpace(m.fb.name)
	isNew := m.isNew
	if m.pane == paneCategories {
		c := model.Category{ID: m.editID, Name: name}
		return func() tea.Msg { return CategorySavedMsg{Category: c, IsNew: isNew} }
	}
	t := model.Tag{ID: m.editID, Name: name, Color: m.editColor}
	return func() tea.Msg { return TagSavedMsg{Tag: t, IsNew: isNew} }
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	if m.confirmForm.State == huh.StateCompleted {
		m.mode = modeList
		if !m.fb.confirm {
			return m, nil
		}
		if m.pane == paneCategories {
			c := m.categories[m.categoryIdx]
			m.lastDeletedCategory = c.Name
			return m, func() tea.Msg { return CategoryDeletedMsg{Category: c} }
		}
		t := m.tags[m.tagIdx]
		m.lastDeletedTag = t
		return m, func() tea.Msg { return TagDeletedMsg{Tag: t} }
	}
	if m.confirmForm.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

// View renders the manage tab.
func (m Model) View() string {
	switch m.mode {
	case modeForm:
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	case modeConfirmDelete:
		return lipgloss.NewStyle().Padding(1, 2).Render(m.confirmForm.View())
	}

	columnWidth := m.width/2 - 2
	if columnWidth < 20 {
		columnWidth = 20
	}

	left := m.renderColumn("Categories", m.pane == paneCategories, columnWidth, m.categoryLines())
	right := m.renderColumn("Tags", m.pane == paneTags, columnWidth, m.tagLines())

	return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
}

func (m Model) categoryLines() []string {
	if len(m.categories) == 0 {
		return []string{theme.HelpStyle.Render("None yet. Press n to add.")}
	}
	lines := make([]string, len(m.categories))
	for i, c := range m.categories {
		line := c.Name
		if m.pane == paneCategories && i == m.categoryIdx {
			line = theme.SelectedItemStyle.Render(line)
		} else {
			line = theme.ListItemStyle.Render(line)
		}
		lines[i] = line
	}
	return lines
}

func (m Model) tagLines() []string {
	if len(m.tags) == 0 {
		return []string{theme.HelpStyle.Render("None yet. Press n to add.")}
	}
	lines := make([]string, len(m.tags))
	for i, t := range m.tags {
		line := theme.TagChipStyle(t.Color).Render("● ") + t.Name
		if m.pane == paneTags && i == m.tagIdx {
			line = theme.SelectedItemStyle.Render(line)
		} else {
			line = theme.ListItemStyle.Render(line)
		}
		lines[i] = line
	}
	return lines
}

func (m Model) renderColumn(title string, focused bool, width int, lines []string) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGray)
	if focused {
		titleStyle = titleStyle.Foreground(theme.ColorBlue)
	}

	body := titleStyle.Render(title) + "\n\n" + strings.Join(lines, "\n")

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		Render(body)
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}
