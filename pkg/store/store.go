// Package store persists the dashboard collections as independent JSON blobs.
package store

import (
	"encoding/json"
	"fmt"

	"github.com/mklimuk/focus-pilot/pkg/model"
)

// Keys of the persisted blobs. Each is written independently.
const (
	KeyUserStats     = "user_stats"
	KeyGoals         = "goals"
	KeyTasks         = "tasks"
	KeyBackendConfig = "backend_config"
)

// Backend is the key-value storage the store writes to.
type Backend interface {
	PutValue(key string, value []byte) error
	GetValue(key string) ([]byte, error)
}

// Store is the local persistence adapter.
type Store struct {
	backend Backend
}

// New creates a Store over a key-value backend.
func New(backend Backend) *Store {
	return &Store{backend: backend}
}

// Save serializes value under key.
func (s *Store) Save(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.backend.PutValue(key, data); err != nil {
		return err
	}
	return nil
}

// Load decodes the blob under key into dst. It reports false when the key is absent.
func (s *Store) Load(key string, dst any) (bool, error) {
	data, err := s.backend.GetValue(key)
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// LoadSnapshot reads the three collections, falling back to the built-in
// defaults for any key that was never saved. Tasks and goals are sanitized.
func (s *Store) LoadSnapshot() (model.Snapshot, error) {
	snap := model.Snapshot{
		Goals:     model.DefaultGoals(),
		Tasks:     model.DefaultTasks(),
		UserStats: model.DefaultUserState(),
	}

	var user model.UserState
	if ok, err := s.Load(KeyUserStats, &user); err != nil {
		return snap, err
	} else if ok {
		snap.UserStats = user
	}

	var goals []model.Goal
	if ok, err := s.Load(KeyGoals, &goals); err != nil {
		return snap, err
	} else if ok {
		snap.Goals = goals
	}

	var tasks []model.Task
	if ok, err := s.Load(KeyTasks, &tasks); err != nil {
		return snap, err
	} else if ok {
		snap.Tasks = tasks
	}

	snap.Goals = model.SanitizeGoals(snap.Goals)
	snap.Tasks = model.SanitizeTasks(snap.Tasks)
	snap.UserStats = model.SanitizeUserState(snap.UserStats)
	return snap, nil
}

// SaveSnapshot writes the three collections one key at a time. There is no
// cross-key transaction; a failure leaves earlier keys written.
func (s *Store) SaveSnapshot(snap model.Snapshot) error {
	if err := s.Save(KeyUserStats, snap.UserStats); err != nil {
		return err
	}
	if err := s.Save(KeyGoals, snap.Goals); err != nil {
		return err
	}
	return s.Save(KeyTasks, snap.Tasks)
}

// BackendConfig loads the remote sync configuration, defaulting to disabled.
func (s *Store) BackendConfig() (model.BackendConfig, error) {
	cfg := model.DefaultBackendConfig()
	if _, err := s.Load(KeyBackendConfig, &cfg); err != nil {
		return model.DefaultBackendConfig(), err
	}
	return cfg, nil
}

// SaveBackendConfig persists the remote sync configuration.
func (s *Store) SaveBackendConfig(cfg model.BackendConfig) error {
	return s.Save(KeyBackendConfig, cfg)
}
