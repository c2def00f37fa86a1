package drive

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/mklimuk/focus-pilot/pkg/db"
	"github.com/mklimuk/focus-pilot/pkg/model"
)

// mockDriveAPI is a test double for DriveAPI.
type mockDriveAPI struct {
	files   map[string]string // fileID -> content
	uploads int
	updates int
	failing bool
}

func newMockDriveAPI() *mockDriveAPI {
	return &mockDriveAPI{files: make(map[string]string)}
}

func (m *mockDriveAPI) UploadFile(_ context.Context, name string, content io.Reader, existingFileID string) (string, error) {
	if m.failing {
		return "", errors.New("drive unavailable")
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	id := existingFileID
	if id == "" {
		m.uploads++
		id = "drv-" + name
	} else {
		m.updates++
	}
	m.files[id] = string(data)
	return id, nil
}

func (m *mockDriveAPI) DownloadFile(_ context.Context, fileID string) (io.ReadCloser, error) {
	content, ok := m.files[fileID]
	if !ok {
		return nil, errors.New("file not found")
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

func (m *mockDriveAPI) FindFile(_ context.Context, name string) (string, error) {
	id := "drv-" + name
	if _, ok := m.files[id]; !ok {
		return "", nil
	}
	return id, nil
}

func setupTestDB(t *testing.T) *db.Repository {
	t.Helper()
	database, err := db.NewDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := database.InitSchema(); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}
	return db.NewRepository(database)
}

func testSnapshot() model.Snapshot {
	return model.Snapshot{
		Goals:     model.DefaultGoals(),
		Tasks:     model.DefaultTasks(),
		UserStats: model.DefaultUserState(),
	}
}

func TestBackupUploadsOnlyChanges(t *testing.T) {
	repo := setupTestDB(t)
	mock := newMockDriveAPI()
	b := NewBackup(mock, repo, nil)
	b.now = func() time.Time { return time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC) }
	snap := testSnapshot()

	uploaded, err := b.Run(context.Background(), snap)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if !uploaded || mock.uploads != 1 {
		t.Fatalf("expected initial upload, got uploaded=%v uploads=%d", uploaded, mock.uploads)
	}

	uploaded, err = b.Run(context.Background(), snap)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if uploaded {
		t.Error("expected unchanged snapshot to be skipped")
	}

	snap.Tasks[0].Title = "Review the Q3 plan"
	uploaded, err = b.Run(context.Background(), snap)
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if !uploaded || mock.updates != 1 || mock.uploads != 1 {
		t.Errorf("expected an in-place update, got uploads=%d updates=%d", mock.uploads, mock.updates)
	}

	rec, err := repo.GetDriveSyncByName(SnapshotFile)
	if err != nil || rec == nil {
		t.Fatalf("expected drive mapping, got %v, %v", rec, err)
	}
	if rec.DriveFileID != "drv-"+SnapshotFile {
		t.Errorf("unexpected file id %q", rec.DriveFileID)
	}
}

func TestBackupFailureIsNotRecorded(t *testing.T) {
	repo := setupTestDB(t)
	b := NewBackup(&mockDriveAPI{failing: true}, repo, nil)

	if _, err := b.Run(context.Background(), testSnapshot()); err == nil {
		t.Fatal("expected upload error")
	}
	rec, _ := repo.GetDriveSyncByName(SnapshotFile)
	if rec != nil {
		t.Error("expected no mapping after failed upload")
	}
}

func TestRestore(t *testing.T) {
	repo := setupTestDB(t)
	mock := newMockDriveAPI()
	b := NewBackup(mock, repo, nil)

	if _, err := b.Restore(context.Background()); !errors.Is(err, ErrNoBackup) {
		t.Fatalf("expected ErrNoBackup, got %v", err)
	}

	snap := testSnapshot()
	snap.Tasks[1].Subtasks = nil
	if _, err := b.Run(context.Background(), snap); err != nil {
		t.Fatal(err)
	}

	got, err := b.Restore(context.Background())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if len(got.Goals) != 2 || len(got.Tasks) != 2 {
		t.Fatalf("unexpected snapshot %+v", got)
	}
	if got.Tasks[1].Subtasks == nil {
		t.Error("expected subtasks to be sanitized to an empty list")
	}
	if got.UserStats.XP != 1250 {
		t.Errorf("unexpected xp %d", got.UserStats.XP)
	}
}

func TestRestoreOnFreshDatabase(t *testing.T) {
	mock := newMockDriveAPI()
	if _, err := NewBackup(mock, setupTestDB(t), nil).Run(context.Background(), testSnapshot()); err != nil {
		t.Fatal(err)
	}

	got, err := NewBackup(mock, setupTestDB(t), nil).Restore(context.Background())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if len(got.Tasks) != 2 {
		t.Errorf("expected 2 tasks, got %d", len(got.Tasks))
	}

	got.Tasks[0].Title = "changed on the new machine"
	if _, err := NewBackup(mock, setupTestDB(t), nil).Run(context.Background(), got); err != nil {
		t.Fatal(err)
	}
	if mock.uploads != 1 || mock.updates != 1 {
		t.Errorf("expected the existing backup to be overwritten, got uploads=%d updates=%d", mock.uploads, mock.updates)
	}
}

type staticSource model.Snapshot

func (s staticSource) Snapshot() model.Snapshot { return model.Snapshot(s) }

func TestJob(t *testing.T) {
	job := Job(staticSource(testSnapshot()), NewBackup(newMockDriveAPI(), setupTestDB(t), nil))

	if out, err := job(context.Background()); err != nil || out != "uploaded" {
		t.Errorf("unexpected first result %q, %v", out, err)
	}
	if out, err := job(context.Background()); err != nil || out != "unchanged" {
		t.Errorf("unexpected second result %q, %v", out, err)
	}
}
