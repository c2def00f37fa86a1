// Package archive versions the markdown export in a local git repository.
package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"go.uber.org/zap"
)

// GitArchive commits a directory and optionally pushes it.
type GitArchive struct {
	Path        string
	AuthorName  string
	AuthorEmail string
	Push        bool
	SSHKeyPath  string

	logger *zap.Logger
	now    func() time.Time
}

// NewGitArchive creates an archive for path. The repository is initialised on
// first commit when it does not exist yet.
func NewGitArchive(path, authorName, authorEmail string, push bool, logger *zap.Logger) *GitArchive {
	if logger == nil {
		logger = zap.NewNop()
	}
	home, _ := os.UserHomeDir()
	return &GitArchive{
		Path:        path,
		AuthorName:  authorName,
		AuthorEmail: authorEmail,
		Push:        push,
		SSHKeyPath:  filepath.Join(home, ".ssh", "id_rsa"),
		logger:      logger,
		now:         time.Now,
	}
}

func (g *GitArchive) open() (*git.Repository, error) {
	r, err := git.PlainOpen(g.Path)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		if err := os.MkdirAll(g.Path, 0755); err != nil {
			return nil, fmt.Errorf("failed to create archive dir: %w", err)
		}
		r, err = git.PlainInit(g.Path, false)
		if err != nil {
			return nil, fmt.Errorf("failed to init repo: %w", err)
		}
		g.logger.Info("initialised archive repository", zap.String("path", g.Path))
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open repo: %w", err)
	}
	return r, nil
}

// Commit stages every change and commits it. It reports false when the
// worktree was already clean.
func (g *GitArchive) Commit(message string) (bool, error) {
	r, err := g.open()
	if err != nil {
		return false, err
	}

	w, err := r.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to get worktree: %w", err)
	}

	if err := w.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return false, fmt.Errorf("failed to add changes: %w", err)
	}

	status, err := w.Status()
	if err != nil {
		return false, fmt.Errorf("failed to get status: %w", err)
	}
	if status.IsClean() {
		return false, nil
	}

	if message == "" {
		message = fmt.Sprintf("Export: %s", g.now().Format(time.RFC3339))
	}
	hash, err := w.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  g.AuthorName,
			Email: g.AuthorEmail,
			When:  g.now(),
		},
	})
	if err != nil {
		return false, fmt.Errorf("failed to commit: %w", err)
	}
	g.logger.Info("archived export", zap.String("commit", hash.String()))

	if g.Push {
		if err := g.push(r); err != nil {
			return true, err
		}
	}
	return true, nil
}

func (g *GitArchive) push(r *git.Repository) error {
	opts := &git.PushOptions{}
	if auth, err := g.auth(); err != nil {
		g.logger.Warn("could not load SSH key, pushing without explicit auth", zap.Error(err))
	} else {
		opts.Auth = auth
	}

	err := r.Push(opts)
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to push: %w", err)
	}
	return nil
}

func (g *GitArchive) auth() (transport.AuthMethod, error) {
	return ssh.NewPublicKeysFromFile("git", g.SSHKeyPath, "")
}
