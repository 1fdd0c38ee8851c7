// Package app contains the root Bubble Tea model. It owns the live
// query subscriptions, routes messages to the tab views and turns their
// intent messages into repository calls.
package app

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/stewardapostol/clientele/internal/keys"
	"github.com/stewardapostol/clientele/internal/model"
	"github.com/stewardapostol/clientele/internal/repository"
	"github.com/stewardapostol/clientele/internal/store"
	"github.com/stewardapostol/clientele/internal/theme"
	"github.com/stewardapostol/clientele/internal/ui"
	"github.com/stewardapostol/clientele/internal/ui/bizmgr"
	"github.com/stewardapostol/clientele/internal/ui/peoplemgr"
	"github.com/stewardapostol/clientele/internal/ui/tasklist"
	"github.com/stewardapostol/clientele/internal/ui/taxmgr"
)

// Tab identifies the active top-level view.
type Tab int

const (
	TabTasks Tab = iota
	TabBusinesses
	TabPeople
	TabManage
)

var tabNames = []string{" Tasks ", " Businesses ", " People ", " Manage "}

// Snapshot messages delivered by the live query subscriptions.
type tasksLoadedMsg struct{ tasks []model.TaskWithNames }
type businessesLoadedMsg struct{ businesses []model.BusinessWithDetails }
type peopleLoadedMsg struct{ people []model.PersonWithDetails }
type categoriesLoadedMsg struct{ categories []model.Category }
type tagsLoadedMsg struct{ tags []model.Tag }

// opDoneMsg reports the outcome of a repository write.
type opDoneMsg struct{ err error }

// subscriptions bundles the live queries the UI stays attached to for
// its whole lifetime.
type subscriptions struct {
	tasks      *store.Subscription[[]model.TaskWithNames]
	businesses *store.Subscription[[]model.BusinessWithDetails]
	people     *store.Subscription[[]model.PersonWithDetails]
	categories *store.Subscription[[]model.Category]
	tags       *store.Subscription[[]model.Tag]
}

// Model is the root Bubble Tea model.
type Model struct {
	ctx     context.Context
	repo    *repository.Repository
	subs    subscriptions
	keys    *keys.KeyMap
	layout  ui.Layout
	ready   bool
	account string

	activeTab Tab
	taskView  tasklist.Model
	bizView   bizmgr.Model
	peekView  peoplemgr.Model
	taxView   taxmgr.Model

	statusMsg string
	showHelp  bool
}

// New creates the root model and opens the live query subscriptions.
// account is shown in the header; pass an empty string when not signed
// in.
func New(ctx context.Context, repo *repository.Repository, account string) (Model, error) {
	var (
		subs subscriptions
		err  error
	)
	if subs.tasks, err = repo.AllTasks(ctx); err != nil {
		return Model{}, err
	}
	if subs.businesses, err = repo.AllBusinessesWithDetails(ctx); err != nil {
		return Model{}, err
	}
	if subs.people, err = repo.AllPeopleWithDetails(ctx); err != nil {
		return Model{}, err
	}
	if subs.categories, err = repo.AllCategories(ctx); err != nil {
		return Model{}, err
	}
	if subs.tags, err = repo.AllTags(ctx); err != nil {
		return Model{}, err
	}

	km := keys.DefaultKeyMap()
	return Model{
		ctx:      ctx,
		repo:     repo,
		subs:     subs,
		keys:     km,
		account:  account,
		taskView: tasklist.New(km, 80, 24),
		bizView:  bizmgr.New(km, 80, 24),
		peekView: peoplemgr.New(km, 80, 24),
		taxView:  taxmgr.New(km, 80, 24),
	}, nil
}

// Init arms a wait command per subscription; each one re-arms itself
// after its snapshot message is handled.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitFor(m.subs.tasks, func(t []model.TaskWithNames) tea.Msg {
			return tasksLoadedMsg{tasks: t}
		}),
		waitFor(m.subs.businesses, func(b []model.BusinessWithDetails) tea.Msg {
			return businessesLoadedMsg{businesses: b}
		}),
		waitFor(m.subs.people, func(p []model.PersonWithDetails) tea.Msg {
			return peopleLoadedMsg{people: p}
		}),
		waitFor(m.subs.categories, func(c []model.Category) tea.Msg {
			return categoriesLoadedMsg{categories: c}
		}),
		waitFor(m.subs.tags, func(t []model.Tag) tea.Msg {
			return tagsLoadedMsg{tags: t}
		}),
	)
}

// waitFor blocks on the subscription's next snapshot and wraps it in a
// view message. A closed channel yields a nil message, which Bubble Tea
// ignores.
func waitFor[T any](sub *store.Subscription[T], wrap func(T) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		snapshot, ok := <-sub.Updates()
		if !ok {
			return nil
		}
		return wrap(snapshot)
	}
}

// Update handles messages and dispatches to the active tab.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w := m.layout.ContentWidth()
		h := m.layout.ContentHeight()
		m.taskView.SetSize(w, h)
		m.bizView.SetSize(w, h)
		m.peekView.SetSize(w, h)
		m.taxView.SetSize(w, h)
		// Forward to the active view so huh forms can re-layout.
		return m.updateActiveView(msg)

	case tasksLoadedMsg:
		m.taskView.SetTasks(msg.tasks)
		return m, waitFor(m.subs.tasks, func(t []model.TaskWithNames) tea.Msg {
			return tasksLoadedMsg{tasks: t}
		})

	case businessesLoadedMsg:
		m.bizView.SetBusinesses(msg.businesses)
		businesses := make([]model.Business, len(msg.businesses))
		for i, b := range msg.businesses {
			businesses[i] = b.Business
		}
		m.taskView.SetOptions(businesses, m.peopleOptions())
		m.peekView.SetOptions(businesses, m.tagOptions())
		return m, waitFor(m.subs.businesses, func(b []model.BusinessWithDetails) tea.Msg {
			return businessesLoadedMsg{businesses: b}
		})

	case peopleLoadedMsg:
		m.peekView.SetPeople(msg.people)
		m.taskView.SetOptions(m.businessOptions(), peopleOf(msg.people))
		return m, waitFor(m.subs.people, func(p []model.PersonWithDetails) tea.Msg {
			return peopleLoadedMsg{people: p}
		})

	case categoriesLoadedMsg:
		m.taxView.SetCategories(msg.categories)
		m.bizView.SetOptions(msg.categories, m.tagOptions())
		return m, waitFor(m.subs.categories, func(c []model.Category) tea.Msg {
			return categoriesLoadedMsg{categories: c}
		})

	case tagsLoadedMsg:
		m.taxView.SetTags(msg.tags)
		m.bizView.SetOptions(m.categoryOptions(), msg.tags)
		m.peekView.SetOptions(m.businessOptions(), msg.tags)
		return m, waitFor(m.subs.tags, func(t []model.Tag) tea.Msg {
			return tagsLoadedMsg{tags: t}
		})

	case tasklist.TaskSavedMsg:
		return m, m.saveTask(msg.Task)

	case tasklist.TaskToggledMsg:
		return m, m.runOp(func(ctx context.Context) error {
			return m.repo.ToggleTaskStatus(ctx, msg.ID, msg.IsOpen)
		})

	case tasklist.TaskDeletedMsg:
		return m, m.runOp(func(ctx context.Context) error {
			return m.repo.DeleteTask(ctx, msg.ID)
		})

	case bizmgr.BusinessSavedMsg:
		return m, m.runOp(func(ctx context.Context) error {
			_, err := m.repo.SaveBusiness(ctx, msg.Business, msg.CategoryIDs, msg.TagIDs)
			return err
		})

	case bizmgr.BusinessDeletedMsg:
		return m, m.runOp(func(ctx context.Context) error {
			return m.repo.DeleteBusiness(ctx, msg.Business)
		})

	case peoplemgr.PersonSavedMsg:
		return m, m.runOp(func(ctx context.Context) error {
			_, err := m.repo.SavePerson(ctx, msg.Person, msg.TagIDs)
			return err
		})

	case peoplemgr.PersonDeletedMsg:
		return m, m.runOp(func(ctx context.Context) error {
			return m.repo.DeletePerson(ctx, msg.ID)
		})

	case taxmgr.CategorySavedMsg:
		return m, m.runOp(func(ctx context.Context) error {
			if msg.IsNew {
				return m.repo.AddCategory(ctx, msg.Category.Name)
			}
			return m.repo.UpdateCategory(ctx, msg.Category)
		})

	case taxmgr.CategoryDeletedMsg:
		return m, m.runOp(func(ctx context.Context) error {
			return m.repo.DeleteCategory(ctx, msg.Category)
		})

	case taxmgr.UndoCategoryMsg:
		return m, m.runOp(func(ctx context.Context) error {
			return m.repo.UndoDeleteCategory(ctx, msg.Name)
		})

	case taxmgr.TagSavedMsg:
		return m, m.runOp(func(ctx context.Context) error {
			if msg.IsNew {
				return m.repo.AddTag(ctx, msg.Tag.Name)
			}
			return m.repo.UpdateTag(ctx, msg.Tag)
		})

	case taxmgr.TagDeletedMsg:
		return m, m.runOp(func(ctx context.Context) error {
			return m.repo.DeleteTag(ctx, msg.Tag)
		})

	case taxmgr.UndoTagMsg:
		return m, m.runOp(func(ctx context.Context) error {
			return m.repo.UndoDeleteTag(ctx, msg.Tag)
		})

	case opDoneMsg:
		if msg.err != nil {
			if errors.Is(msg.err, repository.ErrDuplicateCategory) {
				m.statusMsg = "Category already exists"
			} else {
				m.statusMsg = "Error: " + msg.err.Error()
			}
		} else {
			m.statusMsg = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateActiveView(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// A focused form gets every key, including esc and q.
	if m.formActive() {
		return m.updateActiveView(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.NextTab):
		m.activeTab = (m.activeTab + 1) % Tab(len(tabNames))
		m.statusMsg = ""
		return m, nil

	case key.Matches(msg, m.keys.PrevTab):
		m.activeTab = (m.activeTab + Tab(len(tabNames)) - 1) % Tab(len(tabNames))
		m.statusMsg = ""
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil
	}

	return m.updateActiveView(msg)
}

func (m Model) formActive() bool {
	switch m.activeTab {
	case TabTasks:
		return m.taskView.FormActive()
	case TabBusinesses:
		return m.bizView.FormActive()
	case TabPeople:
		return m.peekView.FormActive()
	case TabManage:
		return m.taxView.FormActive()
	}
	return false
}

func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.activeTab {
	case TabTasks:
		m.taskView, cmd = m.taskView.Update(msg)
	case TabBusinesses:
		m.bizView, cmd = m.bizView.Update(msg)
	case TabPeople:
		m.peekView, cmd = m.peekView.Update(msg)
	case TabManage:
		m.taxView, cmd = m.taxView.Update(msg)
	}
	return m, cmd
}

// saveTask routes a form result to create or full replace.
func (m Model) saveTask(t model.Task) tea.Cmd {
	return m.runOp(func(ctx context.Context) error {
		if t.ID == 0 {
			return m.repo.SaveTask(ctx, t.Title, t.Description,
				t.RelatedBusinessID, t.RelatedPersonID)
		}
		return m.repo.UpdateTask(ctx, t)
	})
}

// runOp executes a repository write off the update loop.
func (m Model) runOp(op func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{err: op(ctx)}
	}
}

// Option slices for the forms, derived from the latest snapshots held
// by the views.

func (m Model) businessOptions() []model.Business {
	details := m.bizView.Businesses()
	businesses := make([]model.Business, len(details))
	for i, b := range details {
		businesses[i] = b.Business
	}
	return businesses
}

func (m Model) peopleOptions() []model.Person {
	return peopleOf(m.peekView.People())
}

func peopleOf(details []model.PersonWithDetails) []model.Person {
	people := make([]model.Person, len(details))
	for i, p := range details {
		people[i] = p.Person
	}
	return people
}

func (m Model) categoryOptions() []model.Category {
	return m.taxView.Categories()
}

func (m Model) tagOptions() []model.Tag {
	return m.taxView.Tags()
}

// View renders the full frame.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Clientele", tabNames, int(m.activeTab), m.account)

	content := lipgloss.NewStyle().
		Height(m.layout.ContentHeight()).
		Render(m.activeView())

	var status string
	switch {
	case m.statusMsg != "":
		status = theme.ErrorStyle.Render(m.statusMsg)
	case m.showHelp:
		status = helpLine(m.keys.FullHelp())
	default:
		status = helpLine([][]key.Binding{m.keys.ShortHelp()})
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		content,
		m.layout.RenderStatusBar(status),
	)
}

func (m Model) activeView() string {
	switch m.activeTab {
	case TabBusinesses:
		return m.bizView.View()
	case TabPeople:
		return m.peekView.View()
	case TabManage:
		return m.taxView.View()
	default:
		return m.taskView.View()
	}
}

// helpLine flattens key binding groups into one hint string.
func helpLine(groups [][]key.Binding) string {
	var out string
	for _, group := range groups {
		for _, b := range group {
			if out != "" {
				out += "  "
			}
			out += b.Help().Key + " " + b.Help().Desc
		}
	}
	return out
}
