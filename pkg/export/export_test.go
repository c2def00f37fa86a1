package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mklimuk/focus-pilot/pkg/model"
)

func testSnapshot() model.Snapshot {
	tasks := model.DefaultTasks()
	tasks[0].GoalID = "1"
	tasks[0].Subtasks = []model.SubTask{{ID: "s1", Title: "Read the draft", Completed: true}}
	return model.Snapshot{Goals: model.DefaultGoals(), Tasks: tasks, UserStats: model.DefaultUserState()}
}

func TestReadWriteNote(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "note.md")
	note := &Note{
		Path:        path,
		Frontmatter: TaskFrontmatter{Type: "task", ID: "t9", Status: "todo", Duration: 15},
		Content:     "# Body\n",
	}
	if err := WriteNote(note); err != nil {
		t.Fatalf("write note: %v", err)
	}

	read, err := ReadNote(path)
	if err != nil {
		t.Fatalf("read note: %v", err)
	}
	if read.Content != "# Body" {
		t.Errorf("unexpected content %q", read.Content)
	}

	var fm TaskFrontmatter
	if err := read.Decode(&fm); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if fm.ID != "t9" || fm.Duration != 15 || fm.Status != "todo" {
		t.Errorf("unexpected frontmatter %+v", fm)
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	exp := NewExporter(dir)

	n, err := exp.Export(testSnapshot())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if n != 5 {
		t.Errorf("expected 5 notes, got %d", n)
	}

	note, err := ReadNote(filepath.Join(dir, TasksDir, "Review the Q2 plan (t1).md"))
	if err != nil {
		t.Fatalf("read task note: %v", err)
	}
	var fm TaskFrontmatter
	if err := note.Decode(&fm); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if fm.Quadrant != "do" || fm.Goal != "Creative Kids curriculum 2.0" {
		t.Errorf("unexpected task frontmatter %+v", fm)
	}
	if !strings.Contains(note.Content, "- [x] Read the draft") {
		t.Errorf("expected subtask checklist, got %q", note.Content)
	}

	goal, err := ReadNote(filepath.Join(dir, GoalsDir, "Creative Kids curriculum 2.0 (1).md"))
	if err != nil {
		t.Fatalf("read goal note: %v", err)
	}
	var gfm GoalFrontmatter
	if err := goal.Decode(&gfm); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if gfm.Progress != 33 || len(gfm.KeyResults) != 3 || !gfm.KeyResults[0].Done {
		t.Errorf("unexpected goal frontmatter %+v", gfm)
	}

	if _, err := os.Stat(filepath.Join(dir, ProfileFile)); err != nil {
		t.Errorf("expected profile note: %v", err)
	}
}

func TestExportPrunesDeletedEntities(t *testing.T) {
	dir := t.TempDir()
	exp := NewExporter(dir)
	snap := testSnapshot()
	if _, err := exp.Export(snap); err != nil {
		t.Fatal(err)
	}

	snap.Tasks = snap.Tasks[:1]
	if _, err := exp.Export(snap); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, TasksDir))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 task note after prune, got %d", len(entries))
	}
}

type fakeCommitter struct {
	committed bool
	err       error
	message   string
}

func (f *fakeCommitter) Commit(message string) (bool, error) {
	f.message = message
	return f.committed, f.err
}

type staticSource model.Snapshot

func (s staticSource) Snapshot() model.Snapshot { return model.Snapshot(s) }

func TestJob(t *testing.T) {
	src := staticSource(testSnapshot())

	out, err := Job(src, NewExporter(t.TempDir()), nil)(context.Background())
	if err != nil || out != "exported 5 notes" {
		t.Errorf("unexpected result %q, %v", out, err)
	}

	c := &fakeCommitter{committed: true}
	out, err = Job(src, NewExporter(t.TempDir()), c)(context.Background())
	if err != nil || out != "exported 5 notes, committed" {
		t.Errorf("unexpected result %q, %v", out, err)
	}
	if c.message != "Export 5 notes" {
		t.Errorf("unexpected commit message %q", c.message)
	}

	c = &fakeCommitter{err: errors.New("locked")}
	if _, err := Job(src, NewExporter(t.TempDir()), c)(context.Background()); err == nil {
		t.Error("expected commit error")
	}
}

func TestSanitizeFilename(t *testing.T) {
	if got := SanitizeFilename(" a/b:c? "); got != "a-b-c-" {
		t.Errorf("unexpected %q", got)
	}
}
