package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/lifevault/internal/client/models"
	"github.com/dmitrijs2005/lifevault/internal/common"
)

const tasksUsage = "tasks [add <title> | done <id> | edit <id> | rm <id> | remind <id>]"

// Tasks lists tasks grouped by due date or runs a task subcommand.
func (a *App) Tasks(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.listTasks(ctx)
	}
	rest := args[1:]
	switch args[0] {
	case "add":
		return a.addTask(ctx, rest)
	case "done", "toggle":
		return a.toggleTask(ctx, rest)
	case "edit":
		return a.editTask(ctx, rest)
	case "rm", "delete":
		return a.deleteTask(ctx, rest)
	case "remind":
		return a.remindTask(ctx, rest)
	}
	return usageError(tasksUsage)
}

func (a *App) listTasks(ctx context.Context) error {
	g, err := a.vault.Tasks.Groups(ctx, a.now().In(a.loc))
	if err != nil {
		return err
	}

	sections := []struct {
		name  string
		tasks []models.Task
	}{
		{"Overdue", g.Overdue},
		{"Today", g.Today},
		{"Upcoming", g.Upcoming},
		{"Completed", g.Completed},
	}

	empty := true
	for _, s := range sections {
		if len(s.tasks) == 0 {
			continue
		}
		empty = false
		a.println(Heading.Sprintf("%s (%d)", s.name, len(s.tasks)))
		for _, t := range s.tasks {
			a.println(a.taskLine(t))
		}
	}
	if empty {
		a.println("No tasks yet. Add one with 'tasks add <title>'.")
	}
	return nil
}

func (a *App) taskLine(t models.Task) string {
	box := "[ ]"
	if t.Completed {
		box = "[x]"
	}
	return fmt.Sprintf("  #%-4d %s %s %s", t.ID, box, t.Title, Muted.Sprint("due "+formatDate(t.DueDate, a.loc)))
}

func (a *App) addTask(ctx context.Context, args []string) error {
	title := strings.Join(args, " ")
	if title == "" {
		var err error
		if title, err = a.ask("Title"); err != nil {
			return err
		}
	}

	dueText, err := a.ask("Due date (YYYY-MM-DD, empty for today)")
	if err != nil {
		return err
	}
	due, err := parseDate(dueText, a.now(), a.loc)
	if err != nil {
		return err
	}

	remind, err := a.askReminder(due)
	if err != nil {
		return err
	}

	t, err := a.vault.Tasks.Add(ctx, title, due, remind)
	if err != nil {
		return err
	}
	a.println(Success.Sprintf("Added task #%d.", t.ID))
	return nil
}

// askReminder returns nil when the user leaves the time empty.
func (a *App) askReminder(day time.Time) (*time.Time, error) {
	s, err := a.ask("Reminder time (HH:MM, empty for none)")
	if err != nil || s == "" {
		return nil, err
	}
	at, err := parseClock(s, day)
	if err != nil {
		return nil, err
	}
	return &at, nil
}

func (a *App) toggleTask(ctx context.Context, args []string) error {
	id, err := parseID(args, "tasks done <id>")
	if err != nil {
		return err
	}
	t, err := a.vault.Tasks.Toggle(ctx, id)
	if err != nil {
		return err
	}
	if t.Completed {
		a.println(Success.Sprintf("Task #%d completed.", t.ID))
	} else {
		a.println(Success.Sprintf("Task #%d reopened.", t.ID))
	}
	return nil
}

func (a *App) editTask(ctx context.Context, args []string) error {
	id, err := parseID(args, "tasks edit <id>")
	if err != nil {
		return err
	}
	cur, err := a.findTask(ctx, id)
	if err != nil {
		return err
	}

	title, err := a.askDefault("Title", cur.Title)
	if err != nil {
		return err
	}
	dueText, err := a.askDefault("Due date", formatDate(cur.DueDate, a.loc))
	if err != nil {
		return err
	}
	due, err := parseDate(dueText, a.now(), a.loc)
	if err != nil {
		return err
	}

	if _, err := a.vault.Tasks.Update(ctx, id, models.TaskPatch{Title: &title, DueDate: &due}); err != nil {
		return err
	}
	a.println(Success.Sprintf("Task #%d updated.", id))
	return nil
}

func (a *App) findTask(ctx context.Context, id int64) (*models.Task, error) {
	items, err := a.vault.Tasks.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range items {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("task #%d: %w", id, common.ErrNotFound)
}

func (a *App) deleteTask(ctx context.Context, args []string) error {
	id, err := parseID(args, "tasks rm <id>")
	if err != nil {
		return err
	}
	if err := a.vault.Tasks.Delete(ctx, id); err != nil {
		return err
	}
	a.printDeleted("Task", id)
	return nil
}

func (a *App) remindTask(ctx context.Context, args []string) error {
	id, err := parseID(args, "tasks remind <id>")
	if err != nil {
		return err
	}
	t, err := a.findTask(ctx, id)
	if err != nil {
		return err
	}

	at, err := a.askReminder(t.DueDate.In(a.loc))
	if err != nil {
		return err
	}
	if at == nil {
		if err := a.vault.Reminders.Cancel(ctx, id); err != nil {
			return err
		}
		a.println(Success.Sprintf("Reminder for task #%d removed.", id))
		return nil
	}

	if err := a.vault.Reminders.Set(ctx, id, t.Title, *at); err != nil {
		return err
	}
	a.println(Success.Sprintf("Reminder set for %s.", at.Format("2006-01-02 15:04")))
	return nil
}

func (a *App) printDeleted(kind string, id int64) {
	a.println(Success.Sprintf("%s #%d deleted.", kind, id) + " " +
		Muted.Sprintf("'undo' within %s to restore", a.vault.Undo.Window()))
}
