package drive

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mklimuk/focus-pilot/pkg/db"
	"github.com/mklimuk/focus-pilot/pkg/model"
)

// SnapshotFile is the Drive file name of the backup.
const SnapshotFile = "focus-pilot-snapshot.json"

// ErrNoBackup is returned by Restore when the folder holds no backup.
var ErrNoBackup = errors.New("no backup uploaded yet")

// Mappings stores the Drive file id and checksum of the backup.
type Mappings interface {
	GetDriveSyncByName(name string) (*db.DriveSync, error)
	InsertDriveSync(name, fileID, checksum string, syncedAt time.Time) error
	UpdateDriveSync(name, checksum string, syncedAt time.Time) error
}

// SnapshotSource provides the state to back up.
type SnapshotSource interface {
	Snapshot() model.Snapshot
}

// Backup uploads the dashboard snapshot to Drive when it changed.
type Backup struct {
	service DriveAPI
	repo    Mappings
	logger  *zap.Logger
	now     func() time.Time
}

// NewBackup creates a new Drive backup.
func NewBackup(service DriveAPI, repo Mappings, logger *zap.Logger) *Backup {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backup{service: service, repo: repo, logger: logger, now: time.Now}
}

// Run uploads snap unless its checksum matches the last upload. It reports
// whether an upload happened. A backup already in the folder is overwritten
// rather than duplicated.
func (b *Backup) Run(ctx context.Context, snap model.Snapshot) (bool, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return false, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	sum := sha256.Sum256(data)
	checksum := hex.EncodeToString(sum[:])

	rec, err := b.repo.GetDriveSyncByName(SnapshotFile)
	if err != nil {
		return false, err
	}
	if rec != nil && rec.Checksum == checksum {
		return false, nil
	}

	existing := ""
	if rec != nil {
		existing = rec.DriveFileID
	} else if existing, err = b.service.FindFile(ctx, SnapshotFile); err != nil {
		return false, err
	}
	fileID, err := b.service.UploadFile(ctx, SnapshotFile, bytes.NewReader(data), existing)
	if err != nil {
		return false, fmt.Errorf("failed to upload snapshot: %w", err)
	}

	now := b.now()
	if rec == nil {
		err = b.repo.InsertDriveSync(SnapshotFile, fileID, checksum, now)
	} else {
		err = b.repo.UpdateDriveSync(SnapshotFile, checksum, now)
	}
	if err != nil {
		return true, err
	}
	b.logger.Info("snapshot backed up", zap.String("file", fileID), zap.String("checksum", checksum[:12]))
	return true, nil
}

// Restore downloads the last uploaded snapshot. Without a local record, as on
// a fresh database, the backup is looked up by name in the folder.
func (b *Backup) Restore(ctx context.Context) (model.Snapshot, error) {
	rec, err := b.repo.GetDriveSyncByName(SnapshotFile)
	if err != nil {
		return model.Snapshot{}, err
	}
	fileID := ""
	if rec != nil {
		fileID = rec.DriveFileID
	} else if fileID, err = b.service.FindFile(ctx, SnapshotFile); err != nil {
		return model.Snapshot{}, err
	}
	if fileID == "" {
		return model.Snapshot{}, ErrNoBackup
	}

	body, err := b.service.DownloadFile(ctx, fileID)
	if err != nil {
		return model.Snapshot{}, err
	}
	defer body.Close()

	var snap model.Snapshot
	if err := json.NewDecoder(body).Decode(&snap); err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	snap.Goals = model.SanitizeGoals(snap.Goals)
	snap.Tasks = model.SanitizeTasks(snap.Tasks)
	snap.UserStats = model.SanitizeUserState(snap.UserStats)
	return snap, nil
}

// Job returns a scheduler action backing up the current state.
func Job(src SnapshotSource, b *Backup) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		uploaded, err := b.Run(ctx, src.Snapshot())
		if err != nil {
			return "", err
		}
		if !uploaded {
			return "unchanged", nil
		}
		return "uploaded", nil
	}
}
