package tasklist

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/stewardapostol/clientele/internal/model"
	"github.com/stewardapostol/clientele/internal/theme"
)

// TaskItem wraps a model.TaskWithNames so it can be used in a bubbles/list.
type TaskItem struct {
	Task model.TaskWithNames
}

// FilterValue returns the string used for fuzzy filtering.
func (i TaskItem) FilterValue() string { return i.Task.Title }

// Title returns the task title for the list.
func (i TaskItem) Title() string { return i.Task.Title }

// Description returns a short summary line for the list.
func (i TaskItem) Description() string {
	var parts []string
	if i.Task.BusinessName != nil {
		parts = append(parts, *i.Task.BusinessName)
	}
	if i.Task.PersonName != nil {
		parts = append(parts, *i.Task.PersonName)
	}
	parts = append(parts, i.Task.Status)
	return strings.Join(parts, " | ")
}

// ItemDelegate implements list.ItemDelegate for rendering task lines.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single task line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TaskItem)
	if !ok {
		return
	}

	task := ti.Task
	completed := task.Status == model.TaskStatusCompleted

	prefix := "○"
	if completed {
		prefix = "✓"
	}

	title := task.Title
	if completed {
		title = theme.DoneStyle.Render(title)
	}

	related := ""
	if ref := relatedNames(task); ref != "" {
		related = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Render("  " + ref)
	}

	line := fmt.Sprintf("%s %s%s", prefix, title, related)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// relatedNames joins the resolved business and person names, if any.
func relatedNames(t model.TaskWithNames) string {
	var parts []string
	if t.BusinessName != nil {
		parts = append(parts, *t.BusinessName)
	}
	if t.PersonName != nil {
		parts = append(parts, *t.PersonName)
	}
	return strings.Join(parts, " / ")
}
