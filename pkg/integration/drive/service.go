package drive

import (
	"context"
	"fmt"
	"io"
	"strings"

	gdrive "google.golang.org/api/drive/v3"

	googleauth "github.com/mklimuk/focus-pilot/pkg/integration/google"
)

// DriveAPI is the interface used by Backup for testability.
type DriveAPI interface {
	UploadFile(ctx context.Context, name string, content io.Reader, existingFileID string) (string, error)
	DownloadFile(ctx context.Context, fileID string) (io.ReadCloser, error)
	FindFile(ctx context.Context, name string) (string, error)
}

// Service wraps the Google Drive API.
type Service struct {
	srv      *gdrive.Service
	folderID string
}

// NewService creates a new Drive service using service account credentials.
func NewService(ctx context.Context, credentialsFile, subject, folderID string) (*Service, error) {
	opt, err := googleauth.ClientOption(ctx, credentialsFile, subject, gdrive.DriveFileScope)
	if err != nil {
		return nil, err
	}
	srv, err := gdrive.NewService(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &Service{srv: srv, folderID: folderID}, nil
}

// UploadFile uploads content to the Drive folder. If existingFileID is non-empty,
// it updates the existing file; otherwise it creates a new one. Returns the file ID.
func (s *Service) UploadFile(ctx context.Context, name string, content io.Reader, existingFileID string) (string, error) {
	if existingFileID != "" {
		updated, err := s.srv.Files.Update(existingFileID, &gdrive.File{Name: name}).
			Media(content).
			Context(ctx).
			Do()
		if err != nil {
			return "", fmt.Errorf("update file: %w", err)
		}
		return updated.Id, nil
	}

	file := &gdrive.File{
		Name:     name,
		MimeType: "application/json",
	}
	if s.folderID != "" {
		file.Parents = []string{s.folderID}
	}
	created, err := s.srv.Files.Create(file).
		Media(content).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	return created.Id, nil
}

// FindFile returns the id of the most recently modified file called name in
// the folder, or "" when there is none.
func (s *Service) FindFile(ctx context.Context, name string) (string, error) {
	q := fmt.Sprintf("name = '%s' and trashed = false", strings.ReplaceAll(name, "'", "\\'"))
	if s.folderID != "" {
		q += fmt.Sprintf(" and '%s' in parents", s.folderID)
	}
	list, err := s.srv.Files.List().
		Q(q).
		OrderBy("modifiedTime desc").
		PageSize(1).
		Fields("files(id)").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("list files: %w", err)
	}
	if len(list.Files) == 0 {
		return "", nil
	}
	return list.Files[0].Id, nil
}

// DownloadFile downloads a file from Drive by its ID.
func (s *Service) DownloadFile(ctx context.Context, fileID string) (io.ReadCloser, error) {
	resp, err := s.srv.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	return resp.Body, nil
}
