// Package capture turns short chat commands into dashboard mutations. The
// Telegram and Discord bots share it and differ only in their prefix.
package capture

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mklimuk/focus-pilot/pkg/model"
)

// Board is the slice of the orchestrator the bots need.
type Board interface {
	AddTask(t model.Task) (model.Task, error)
	SetTaskStatus(id string, s model.Status) (model.Task, error)
	Tasks() []model.Task
	UserStats() model.UserState
}

// Command names, without prefix.
const (
	CmdTask   = "task"
	CmdDone   = "done"
	CmdStatus = "status"
	CmdHelp   = "help"
)

// Command is a parsed chat message.
type Command struct {
	Name string
	Args string
}

// ParseCommand extracts a known command from text. Commands taking an argument
// need a space after the name; "status" and "help" must stand alone.
func ParseCommand(prefix, text string) (Command, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, prefix) {
		return Command{}, false
	}
	body := strings.TrimPrefix(text, prefix)
	name, args, _ := strings.Cut(body, " ")
	// Telegram appends the bot name in groups: /status@focus_bot
	name, _, _ = strings.Cut(name, "@")
	args = strings.TrimSpace(args)

	switch name {
	case CmdTask, CmdDone:
		if args == "" {
			return Command{}, false
		}
		return Command{Name: name, Args: args}, true
	case CmdStatus, CmdHelp:
		if args != "" {
			return Command{}, false
		}
		return Command{Name: name}, true
	}
	return Command{}, false
}

// TruncateTitle shortens s to 20 characters, appending "..." when cut.
func TruncateTitle(s string) string {
	r := []rune(s)
	if len(r) > 20 {
		return string(r[:20]) + "..."
	}
	return s
}

// Handler executes commands against a board.
type Handler struct {
	board  Board
	prefix string
}

// NewHandler creates a handler. prefix is only used in help text.
func NewHandler(board Board, prefix string) *Handler {
	return &Handler{board: board, prefix: prefix}
}

// Handle runs cmd and returns the reply text.
func (h *Handler) Handle(cmd Command) string {
	switch cmd.Name {
	case CmdTask:
		t, err := h.board.AddTask(model.Task{Title: cmd.Args, Important: true})
		if err != nil {
			return fmt.Sprintf("Could not add task: %v", err)
		}
		return fmt.Sprintf("Added task: %s", TruncateTitle(t.Title))
	case CmdDone:
		t, err := h.complete(cmd.Args)
		if err != nil {
			return fmt.Sprintf("Could not complete task: %v", err)
		}
		return fmt.Sprintf("Done: %s", TruncateTitle(t.Title))
	case CmdStatus:
		return h.status()
	default:
		return h.help()
	}
}

// ErrAmbiguous is returned when a title prefix matches several open tasks.
var ErrAmbiguous = errors.New("more than one open task matches")

// complete marks the open task with id ref, or the one whose title starts
// with ref, as done.
func (h *Handler) complete(ref string) (model.Task, error) {
	var match *model.Task
	tasks := h.board.Tasks()
	for i := range tasks {
		t := &tasks[i]
		if t.Column() == model.StatusDone {
			continue
		}
		if t.ID == ref {
			match = t
			break
		}
		if strings.HasPrefix(strings.ToLower(t.Title), strings.ToLower(ref)) {
			if match != nil {
				return model.Task{}, ErrAmbiguous
			}
			match = t
		}
	}
	if match == nil {
		return model.Task{}, fmt.Errorf("%q: %w", ref, model.ErrNotFound)
	}
	// The list may be stale: setting the status keeps a task done even if it
	// was completed elsewhere in the meantime.
	return h.board.SetTaskStatus(match.ID, model.StatusDone)
}

func (h *Handler) status() string {
	tasks := h.board.Tasks()
	open := model.FilterTasks(tasks, model.FilterActive)
	v := model.VictoryOrPlaceholder(h.board.UserStats())

	var b strings.Builder
	fmt.Fprintf(&b, "%d open of %d tasks\n", len(open), len(tasks))
	fmt.Fprintf(&b, "Weekly victory: %s (%d%%)", v.Title, v.Progress)
	for _, t := range model.Matrix(open)[model.QuadrantDo] {
		fmt.Fprintf(&b, "\n- %s", t.Title)
	}
	return b.String()
}

func (h *Handler) help() string {
	return fmt.Sprintf("Commands:\n%[1]stask <title>\n%[1]sdone <id or title>\n%[1]sstatus", h.prefix)
}
