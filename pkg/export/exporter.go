package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mklimuk/focus-pilot/pkg/model"
)

// Directory layout under the export root.
const (
	GoalsDir    = "goals"
	TasksDir    = "tasks"
	ProfileFile = "profile.md"
)

// GoalFrontmatter is the frontmatter of a goal note.
type GoalFrontmatter struct {
	Type       string          `yaml:"type"`
	ID         string          `yaml:"id"`
	Category   string          `yaml:"category"`
	Deadline   string          `yaml:"deadline,omitempty"`
	Progress   int             `yaml:"progress"`
	KeyResults []KeyResultItem `yaml:"key_results,omitempty"`
}

// KeyResultItem is a key result in goal frontmatter.
type KeyResultItem struct {
	Text string `yaml:"text"`
	Done bool   `yaml:"done"`
}

// TaskFrontmatter is the frontmatter of a task note.
type TaskFrontmatter struct {
	Type      string   `yaml:"type"`
	ID        string   `yaml:"id"`
	Status    string   `yaml:"status"`
	Quadrant  string   `yaml:"quadrant"`
	Urgent    bool     `yaml:"urgent"`
	Important bool     `yaml:"important"`
	Duration  int      `yaml:"duration"`
	Goal      string   `yaml:"goal,omitempty"`
	Tags      []string `yaml:"tags,omitempty"`
}

// ProfileFrontmatter is the frontmatter of the profile note.
type ProfileFrontmatter struct {
	Type           string `yaml:"type"`
	XP             int    `yaml:"xp"`
	Level          int    `yaml:"level"`
	LastReviewDate string `yaml:"last_review_date,omitempty"`
}

// Exporter renders snapshots into a directory of notes.
type Exporter struct {
	Dir string
}

// NewExporter creates an exporter rooted at dir.
func NewExporter(dir string) *Exporter {
	return &Exporter{Dir: dir}
}

// Export writes every goal and task plus the profile, and removes notes of
// entities that no longer exist. It returns the number of notes written.
func (e *Exporter) Export(snap model.Snapshot) (int, error) {
	keep := map[string]bool{}
	written := 0

	for _, g := range snap.Goals {
		note := goalNote(e.Dir, g)
		if err := WriteNote(note); err != nil {
			return written, fmt.Errorf("goal %s: %w", g.ID, err)
		}
		keep[note.Path] = true
		written++
	}
	for _, t := range snap.Tasks {
		note := taskNote(e.Dir, t, model.GoalTitle(snap.Goals, t.GoalID))
		if err := WriteNote(note); err != nil {
			return written, fmt.Errorf("task %s: %w", t.ID, err)
		}
		keep[note.Path] = true
		written++
	}
	if err := WriteNote(profileNote(e.Dir, snap.UserStats)); err != nil {
		return written, fmt.Errorf("profile: %w", err)
	}
	written++

	for _, dir := range []string{GoalsDir, TasksDir} {
		if err := prune(filepath.Join(e.Dir, dir), keep); err != nil {
			return written, err
		}
	}
	return written, nil
}

func noteName(title, id string) string {
	return fmt.Sprintf("%s (%s).md", SanitizeFilename(title), SanitizeFilename(id))
}

func goalNote(root string, g model.Goal) *Note {
	fm := GoalFrontmatter{
		Type:     "goal",
		ID:       g.ID,
		Category: string(g.Category),
		Deadline: g.Deadline,
		Progress: g.Progress,
	}
	var body strings.Builder
	fmt.Fprintf(&body, "# %s\n\n", g.Title)
	if g.Objective != "" {
		fmt.Fprintf(&body, "%s\n\n", g.Objective)
	}
	if len(g.KeyResults) > 0 {
		body.WriteString("## Key results\n\n")
	}
	for _, kr := range g.KeyResults {
		fm.KeyResults = append(fm.KeyResults, KeyResultItem{Text: kr.Text, Done: kr.Completed})
		fmt.Fprintf(&body, "- [%s] %s\n", check(kr.Completed), kr.Text)
	}

	return &Note{
		Path:        filepath.Join(root, GoalsDir, noteName(g.Title, g.ID)),
		Frontmatter: fm,
		Content:     body.String(),
	}
}

func taskNote(root string, t model.Task, goalTitle string) *Note {
	fm := TaskFrontmatter{
		Type:      "task",
		ID:        t.ID,
		Status:    string(t.Column()),
		Quadrant:  string(model.QuadrantOf(t)),
		Urgent:    t.Urgent,
		Important: t.Important,
		Duration:  t.Duration,
		Goal:      goalTitle,
	}
	if t.Urgent {
		fm.Tags = append(fm.Tags, "urgent")
	}
	if t.Important {
		fm.Tags = append(fm.Tags, "important")
	}

	var body strings.Builder
	fmt.Fprintf(&body, "# %s\n", t.Title)
	if len(t.Subtasks) > 0 {
		body.WriteString("\n")
	}
	for _, st := range t.Subtasks {
		fmt.Fprintf(&body, "- [%s] %s\n", check(st.Completed), st.Title)
	}

	return &Note{
		Path:        filepath.Join(root, TasksDir, noteName(t.Title, t.ID)),
		Frontmatter: fm,
		Content:     body.String(),
	}
}

func profileNote(root string, u model.UserState) *Note {
	var body strings.Builder
	body.WriteString("# Profile\n\n")
	fmt.Fprintf(&body, "## Mission\n\n%s\n\n## Vision\n\n%s\n", u.Mission, u.Vision)
	v := model.VictoryOrPlaceholder(u)
	fmt.Fprintf(&body, "\n## Weekly victory\n\n**%s** (%d%%)\n\n%s\n\nReward: %s\n", v.Title, v.Progress, v.Description, v.Reward)

	return &Note{
		Path: filepath.Join(root, ProfileFile),
		Frontmatter: ProfileFrontmatter{
			Type:           "profile",
			XP:             u.XP,
			Level:          u.Level,
			LastReviewDate: u.LastReviewDate,
		},
		Content: body.String(),
	}
}

func check(done bool) string {
	if done {
		return "x"
	}
	return " "
}

func prune(dir string, keep map[string]bool) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to list %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if keep[path] {
			continue
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove stale note %s: %w", path, err)
		}
	}
	return nil
}

// SnapshotSource provides the state to export.
type SnapshotSource interface {
	Snapshot() model.Snapshot
}

// Committer records the export directory, e.g. in git.
type Committer interface {
	Commit(message string) (bool, error)
}

// Job returns a scheduler action that exports the current state and, when
// archive is non-nil, commits the result.
func Job(src SnapshotSource, exp *Exporter, archive Committer) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		n, err := exp.Export(src.Snapshot())
		if err != nil {
			return "", fmt.Errorf("failed to export notes: %w", err)
		}
		report := fmt.Sprintf("exported %d notes", n)
		if archive == nil {
			return report, nil
		}
		committed, err := archive.Commit(fmt.Sprintf("Export %d notes", n))
		if err != nil {
			return report, err
		}
		if !committed {
			return report + ", nothing to commit", nil
		}
		return report + ", committed", nil
	}
}
