// Package state owns the dashboard collections and keeps local persistence
// and the remote mirror in step with them.
package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mklimuk/focus-pilot/pkg/db"
	"github.com/mklimuk/focus-pilot/pkg/metrics"
	"github.com/mklimuk/focus-pilot/pkg/model"
	"github.com/mklimuk/focus-pilot/pkg/remote"
)

// DefaultDebounce is the quiet period before a scheduled push fires.
const DefaultDebounce = 2 * time.Second

// Phase of the orchestrator lifecycle.
type Phase string

const (
	PhaseBootstrapping Phase = "bootstrapping"
	PhaseReady         Phase = "ready"
)

// Store loads and saves the collections locally.
type Store interface {
	LoadSnapshot() (model.Snapshot, error)
	SaveSnapshot(snap model.Snapshot) error
}

// Remote is the remote mirror.
type Remote interface {
	Enabled() bool
	Push(ctx context.Context, snap model.Snapshot) (remote.Result, error)
	Pull(ctx context.Context) *model.RemoteSnapshot
}

// Journal records sync attempts.
type Journal interface {
	LogSync(entry db.SyncLog) error
}

// Status is the sync state reported to views.
type Status struct {
	Phase         Phase      `json:"phase"`
	RemoteEnabled bool       `json:"remoteEnabled"`
	Syncing       bool       `json:"syncing"`
	LastSync      *time.Time `json:"lastSync,omitempty"`
	LastError     string     `json:"lastError,omitempty"`
}

// Orchestrator is the single writer of goals, tasks and user stats.
type Orchestrator struct {
	mu    sync.Mutex
	goals []model.Goal
	tasks []model.Task
	user  model.UserState
	phase Phase

	store   Store
	remote  Remote
	journal Journal
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	delay   time.Duration
	timer   *time.Timer
	gen     uint64
	syncing int
	closed  bool
	wg      sync.WaitGroup

	lastSync  time.Time
	lastError string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDebounce overrides the push debounce delay.
func WithDebounce(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.delay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithJournal records every push and pull.
func WithJournal(j Journal) Option {
	return func(o *Orchestrator) { o.journal = j }
}

// WithMetrics enables Prometheus counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an orchestrator seeded from the local store. It starts in the
// bootstrapping phase and does not persist until Bootstrap completes. A
// corrupt local blob is returned as an error.
func New(st Store, rem Remote, opts ...Option) (*Orchestrator, error) {
	seed, err := st.LoadSnapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to load local state: %w", err)
	}
	o := &Orchestrator{
		goals:   model.SanitizeGoals(seed.Goals),
		tasks:   model.SanitizeTasks(seed.Tasks),
		user:    model.SanitizeUserState(seed.UserStats),
		phase:   PhaseBootstrapping,
		store:   st,
		remote:  rem,
		logger:  zap.NewNop(),
		now:     time.Now,
		delay:   DefaultDebounce,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Bootstrap pulls the remote snapshot when sync is enabled and overwrites the
// collections it carries, then enters the ready phase. A snapshot without user
// stats is ignored. Entering ready persists locally and schedules a push.
func (o *Orchestrator) Bootstrap(ctx context.Context) {
	o.mu.Lock()
	if o.phase != PhaseBootstrapping {
		o.mu.Unlock()
		return
	}
	o.mu.Unlock()

	if o.remote.Enabled() {
		snap := o.remote.Pull(ctx)
		status := "empty"
		if snap != nil && snap.UserStats != nil {
			status = "success"
			o.mu.Lock()
			o.applyRemoteLocked(snap)
			o.mu.Unlock()
		}
		o.recordPull(status)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.phase = PhaseReady
	o.logger.Info("state ready",
		zap.Int("goals", len(o.goals)),
		zap.Int("tasks", len(o.tasks)),
	)
	o.changedLocked()
}

func (o *Orchestrator) applyRemoteLocked(snap *model.RemoteSnapshot) {
	o.user = model.SanitizeUserState(*snap.UserStats)
	if snap.Goals != nil {
		o.goals = model.SanitizeGoals(*snap.Goals)
	}
	if snap.Tasks != nil {
		o.tasks = model.SanitizeTasks(*snap.Tasks)
	}
}

// Phase returns the current lifecycle phase.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Goals returns a copy of the goals.
func (o *Orchestrator) Goals() []model.Goal {
	o.mu.Lock()
	defer o.mu.Unlock()
	return model.CloneGoals(o.goals)
}

// Tasks returns a copy of the tasks.
func (o *Orchestrator) Tasks() []model.Task {
	o.mu.Lock()
	defer o.mu.Unlock()
	return model.CloneTasks(o.tasks)
}

// UserStats returns a copy of the user state.
func (o *Orchestrator) UserStats() model.UserState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return model.CloneUserState(o.user)
}

// Snapshot returns a copy of all three collections.
func (o *Orchestrator) Snapshot() model.Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() model.Snapshot {
	return model.Snapshot{
		Goals:     model.CloneGoals(o.goals),
		Tasks:     model.CloneTasks(o.tasks),
		UserStats: model.CloneUserState(o.user),
	}
}

// Status reports the sync state.
func (o *Orchestrator) Status() Status {
	enabled := o.remote.Enabled()
	o.mu.Lock()
	defer o.mu.Unlock()
	s := Status{
		Phase:         o.phase,
		RemoteEnabled: enabled,
		Syncing:       o.syncing > 0,
		LastError:     o.lastError,
	}
	if !o.lastSync.IsZero() {
		t := o.lastSync
		s.LastSync = &t
	}
	return s
}

// UpdateGoals replaces the goals with the result of fn. fn receives a copy.
func (o *Orchestrator) UpdateGoals(fn func([]model.Goal) ([]model.Goal, error)) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	next, err := fn(model.CloneGoals(o.goals))
	if err != nil {
		return err
	}
	o.goals = model.SanitizeGoals(next)
	o.changedLocked()
	return nil
}

// UpdateTasks replaces the tasks with the result of fn. fn receives a copy.
// Completion must be changed through Task.SetStatus or Task.Toggle: the
// status is authoritative and Completed is re-derived from it.
func (o *Orchestrator) UpdateTasks(fn func([]model.Task) ([]model.Task, error)) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	next, err := fn(model.CloneTasks(o.tasks))
	if err != nil {
		return err
	}
	o.tasks = model.SanitizeTasks(next)
	o.changedLocked()
	return nil
}

// UpdateUserStats replaces the user state with the result of fn.
func (o *Orchestrator) UpdateUserStats(fn func(model.UserState) (model.UserState, error)) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	next, err := fn(model.CloneUserState(o.user))
	if err != nil {
		return err
	}
	o.user = model.SanitizeUserState(next)
	o.changedLocked()
	return nil
}

// changedLocked persists the collections and restarts the debounce timer.
// Both are skipped while bootstrapping. After Close only the local write
// happens.
func (o *Orchestrator) changedLocked() {
	if o.phase != PhaseReady {
		return
	}

	if err := o.store.SaveSnapshot(o.snapshotLocked()); err != nil {
		o.logger.Error("local save failed", zap.Error(err))
		o.countSave("error")
	} else {
		o.countSave("success")
	}

	if o.closed {
		return
	}
	o.gen++
	gen := o.gen
	if o.timer != nil && o.timer.Stop() && o.metrics != nil {
		o.metrics.Coalesced.Inc()
	}
	o.timer = time.AfterFunc(o.delay, func() { o.debouncedPush(gen) })
}

func (o *Orchestrator) debouncedPush(gen uint64) {
	o.mu.Lock()
	if gen != o.gen || o.closed {
		o.mu.Unlock()
		return
	}
	snap := o.snapshotLocked()
	o.syncing++
	o.wg.Add(1)
	o.mu.Unlock()
	defer o.wg.Done()

	res, err := o.remote.Push(context.Background(), snap)
	o.finishPush("debounce", res, err)
	if err != nil {
		o.logger.Debug("debounced push failed", zap.Error(err))
	} else if res.Status == remote.StatusSuccess {
		o.logger.Info("auto-sync done")
	}
}

// PushNow pushes the current snapshot immediately. It does not cancel a
// pending debounced push. Failures are returned to the caller.
func (o *Orchestrator) PushNow(ctx context.Context) (remote.Result, error) {
	o.mu.Lock()
	snap := o.snapshotLocked()
	o.syncing++
	o.mu.Unlock()

	res, err := o.remote.Push(ctx, snap)
	o.finishPush("manual", res, err)
	return res, err
}

func (o *Orchestrator) finishPush(source string, res remote.Result, err error) {
	now := o.now()

	o.mu.Lock()
	o.syncing--
	if err != nil {
		o.lastError = res.Message
	} else if res.Status == remote.StatusSuccess {
		o.lastSync = now
		o.lastError = ""
	}
	o.mu.Unlock()

	status := string(res.Status)
	if o.metrics != nil {
		o.metrics.PushTotal.WithLabelValues(source, status).Inc()
		if res.Status == remote.StatusSuccess {
			o.metrics.LastPush.Set(float64(now.Unix()))
		}
	}
	if o.journal != nil && res.Status != remote.StatusDisabled {
		entry := db.SyncLog{Direction: "push", Source: source, Status: status, Message: res.Message, CreatedAt: now}
		if jerr := o.journal.LogSync(entry); jerr != nil {
			o.logger.Warn("failed to journal push", zap.Error(jerr))
		}
	}
}

func (o *Orchestrator) recordPull(status string) {
	if o.metrics != nil {
		o.metrics.PullTotal.WithLabelValues(status).Inc()
	}
	if o.journal != nil {
		entry := db.SyncLog{Direction: "pull", Source: "boot", Status: status, CreatedAt: o.now()}
		if err := o.journal.LogSync(entry); err != nil {
			o.logger.Warn("failed to journal pull", zap.Error(err))
		}
	}
}

func (o *Orchestrator) countSave(status string) {
	if o.metrics != nil {
		o.metrics.LocalSaveTotal.WithLabelValues(status).Inc()
	}
}

// Close cancels a pending debounced push and waits for one in flight. Later
// mutations are still saved locally but never pushed.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.closed = true
	if o.timer != nil {
		o.timer.Stop()
	}
	o.mu.Unlock()
	o.wg.Wait()
}
