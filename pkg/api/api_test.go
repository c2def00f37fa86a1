package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mklimuk/focus-pilot/pkg/ai"
	"github.com/mklimuk/focus-pilot/pkg/auth"
	"github.com/mklimuk/focus-pilot/pkg/automation"
	"github.com/mklimuk/focus-pilot/pkg/db"
	"github.com/mklimuk/focus-pilot/pkg/metrics"
	"github.com/mklimuk/focus-pilot/pkg/model"
	"github.com/mklimuk/focus-pilot/pkg/remote"
	"github.com/mklimuk/focus-pilot/pkg/state"
	"github.com/mklimuk/focus-pilot/pkg/store"
)

// MockGenerator implements ai.Generator for testing
type MockGenerator struct {
	Response string
	Err      error
}

func (m *MockGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	return m.Response, m.Err
}

type testEnv struct {
	srv   *Server
	store *store.Store
	state *state.Orchestrator
	token string
}

func setupTestServer(t *testing.T, gen ai.Generator, jobs Jobs, cfg *Config) *testEnv {
	t.Helper()
	logger := zaptest.NewLogger(t)

	database, err := db.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, database.InitSchema())
	repo := db.NewRepository(database)

	st := store.New(repo)
	o, err := state.New(st, remote.NewClient(st), state.WithLogger(logger), state.WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(o.Close)
	o.Bootstrap(context.Background())

	hash, err := auth.HashPassword("secret")
	require.NoError(t, err)
	verifier, err := auth.NewAllowList(map[string]string{"ana": hash})
	require.NoError(t, err)
	sessions := auth.NewSessions("test-secret", time.Hour)

	deps := Deps{
		State:    o,
		Backend:  st,
		Verifier: verifier,
		Sessions: sessions,
		Jobs:     jobs,
		Metrics:  metrics.New(),
	}
	if gen != nil {
		deps.Advisor = ai.NewAdvisor(gen, logger)
	}
	srv, err := NewServer(deps, logger, cfg)
	require.NoError(t, err)

	token, _, err := sessions.Issue("ana")
	require.NoError(t, err)
	return &testEnv{srv: srv, store: st, state: o, token: token}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return e.doAs(t, e.token, method, path, body)
}

func (e *testEnv) doAs(t *testing.T, token, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestNewServer(t *testing.T) {
	t.Run("returns error when state is nil", func(t *testing.T) {
		_, err := NewServer(Deps{}, zaptest.NewLogger(t), nil)
		assert.Error(t, err)
	})

	t.Run("uses defaults when config is nil", func(t *testing.T) {
		env := setupTestServer(t, nil, nil, nil)
		assert.Equal(t, "localhost", env.srv.config.Host)
		assert.Equal(t, 8080, env.srv.config.Port)
	})
}

func TestHealthAndMetrics(t *testing.T) {
	env := setupTestServer(t, nil, nil, nil)

	rec := env.doAs(t, "", http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	health := decode[HealthResponse](t, rec)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, state.PhaseReady, health.Phase)

	rec = env.doAs(t, "", http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "focus_sync_debounce_coalesced_total")
}

func TestLoginLogout(t *testing.T) {
	env := setupTestServer(t, nil, nil, nil)

	rec := env.doAs(t, "", http.MethodPost, "/api/login", map[string]string{"username": "ana", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.doAs(t, "", http.MethodPost, "/api/login", map[string]string{"username": "ana"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.doAs(t, "", http.MethodPost, "/api/login", map[string]string{"username": "ana", "password": "secret"})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[LoginResponse](t, rec)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, "ana", login.Username)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	assert.Equal(t, http.StatusUnauthorized, env.doAs(t, "", http.MethodGet, "/api/dashboard", nil).Code)
	assert.Equal(t, http.StatusOK, env.doAs(t, login.Token, http.MethodGet, "/api/dashboard", nil).Code)

	// cookie-only clients
	req := httptest.NewRequest(http.MethodGet, "/api/sync/status", nil)
	req.AddCookie(cookie)
	cookieRec := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(cookieRec, req)
	assert.Equal(t, http.StatusOK, cookieRec.Code)

	assert.Equal(t, http.StatusNoContent, env.doAs(t, login.Token, http.MethodPost, "/api/logout", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, env.doAs(t, login.Token, http.MethodGet, "/api/dashboard", nil).Code)
}

func TestDashboard(t *testing.T) {
	env := setupTestServer(t, nil, nil, nil)

	dash := decode[DashboardResponse](t, env.do(t, http.MethodGet, "/api/dashboard", nil))
	assert.Equal(t, 1250, dash.User.XP)
	assert.Equal(t, "Ship the Creative Kids beta", dash.Victory.Title)
	assert.Equal(t, 2, dash.Summary.Goals)
	assert.Equal(t, 2, dash.Summary.Tasks)

	require.NoError(t, env.state.UpdateUserStats(func(u model.UserState) (model.UserState, error) {
		u.WeeklyVictory = nil
		return u, nil
	}))
	dash = decode[DashboardResponse](t, env.do(t, http.MethodGet, "/api/dashboard", nil))
	assert.Equal(t, model.PlaceholderVictory.Title, dash.Victory.Title)
}

func TestProfileAndXP(t *testing.T) {
	env := setupTestServer(t, nil, nil, nil)

	rec := env.do(t, http.MethodPut, "/api/user", map[string]string{"mission": "Calm software"})
	require.Equal(t, http.StatusOK, rec.Code)
	u := decode[model.UserState](t, rec)
	assert.Equal(t, "Calm software", u.Mission)
	assert.Equal(t, model.DefaultUserState().Vision, u.Vision)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/user/xp", map[string]int{"amount": 0}).Code)
	rec = env.do(t, http.MethodPost, "/api/user/xp", map[string]int{"amount": 100})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1350, decode[model.UserState](t, rec).XP)
}

func TestGoalsAPI(t *testing.T) {
	env := setupTestServer(t, nil, nil, nil)

	rec := env.do(t, http.MethodPost, "/api/goals", map[string]any{
		"title":      "Run a marathon",
		"category":   "Personal",
		"keyResults": []string{"10k", "half", "full"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	g := decode[model.Goal](t, rec)
	assert.Equal(t, 0, g.Progress)
	require.Len(t, g.KeyResults, 3)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/goals", map[string]string{"title": "x", "category": "Hobby"}).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/goals", map[string]string{"title": " "}).Code)

	rec = env.do(t, http.MethodPost, "/api/goals/"+g.ID+"/key-results/"+g.KeyResults[0].ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 33, decode[model.Goal](t, rec).Progress)

	rec = env.do(t, http.MethodPost, "/api/goals/"+g.ID+"/key-results", map[string]string{"text": "ultra"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 25, decode[model.Goal](t, rec).Progress)

	rec = env.do(t, http.MethodPut, "/api/goals/"+g.ID, map[string]string{"title": "Run two marathons", "deadline": "2027-04-01"})
	require.Equal(t, http.StatusOK, rec.Code)
	g = decode[model.Goal](t, rec)
	assert.Equal(t, "Run two marathons", g.Title)
	assert.Equal(t, "2027-04-01", g.Deadline)
	assert.Equal(t, model.CategoryPersonal, g.Category)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPut, "/api/goals/"+g.ID, map[string]string{"category": "Hobby"}).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPut, "/api/goals/missing", map[string]string{"title": "x"}).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/goals/"+g.ID+"/key-results/missing/toggle", nil).Code)

	assert.Len(t, decode[[]model.Goal](t, env.do(t, http.MethodGet, "/api/goals", nil)), 3)
	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/goals/"+g.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/api/goals/"+g.ID, nil).Code)
}

func TestTasksAPI(t *testing.T) {
	env := setupTestServer(t, nil, nil, nil)

	rec := env.do(t, http.MethodPost, "/api/tasks", map[string]any{"title": "Write tests", "urgent": true})
	require.Equal(t, http.StatusCreated, rec.Code)
	task := decode[model.Task](t, rec)
	assert.Equal(t, model.StatusTodo, task.Status)
	assert.Equal(t, 30, task.Duration)
	assert.NotNil(t, task.Subtasks)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/tasks", map[string]string{"title": "x", "status": "blocked"}).Code)

	rec = env.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[model.Task](t, rec).Completed)

	completed := decode[[]model.Task](t, env.do(t, http.MethodGet, "/api/tasks?filter=completed", nil))
	require.Len(t, completed, 1)
	assert.Equal(t, task.ID, completed[0].ID)
	assert.Len(t, decode[[]model.Task](t, env.do(t, http.MethodGet, "/api/tasks?filter=active", nil)), 2)
	assert.Len(t, decode[[]model.Task](t, env.do(t, http.MethodGet, "/api/tasks", nil)), 3)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/tasks?filter=soon", nil).Code)

	rec = env.do(t, http.MethodPut, "/api/tasks/"+task.ID+"/status", map[string]string{"status": "in-progress"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[model.Task](t, rec).Completed)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPut, "/api/tasks/"+task.ID+"/status", map[string]string{"status": "blocked"}).Code)

	rec = env.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/priority/important", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[model.Task](t, rec).Important)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/priority/loud", nil).Code)

	rec = env.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/subtasks", map[string]string{"title": "table tests"})
	require.Equal(t, http.StatusCreated, rec.Code)
	task = decode[model.Task](t, rec)
	require.Len(t, task.Subtasks, 1)
	rec = env.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/subtasks/"+task.Subtasks[0].ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[model.Task](t, rec).Subtasks[0].Completed)

	board := decode[map[model.Status][]model.Task](t, env.do(t, http.MethodGet, "/api/board", nil))
	assert.Len(t, board[model.StatusInProgress], 1)
	assert.Len(t, board[model.StatusTodo], 2)
	assert.Empty(t, board[model.StatusDone])

	matrix := decode[map[model.Quadrant][]model.Task](t, env.do(t, http.MethodGet, "/api/matrix", nil))
	assert.Len(t, matrix[model.QuadrantDo], 2)
	assert.Len(t, matrix[model.QuadrantSchedule], 1)
	assert.Empty(t, matrix[model.QuadrantEliminate])

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/tasks/"+task.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/toggle", nil).Code)
}

func TestPlannerAPI(t *testing.T) {
	env := setupTestServer(t, nil, nil, nil)

	rec := env.do(t, http.MethodPost, "/api/planner/tasks", map[string]any{"title": "Outline chapter 6", "goalId": "2"})
	require.Equal(t, http.StatusCreated, rec.Code)
	task := decode[model.Task](t, rec)
	assert.True(t, task.Important)
	assert.Equal(t, "2", task.GoalID)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/planner/tasks", map[string]any{"title": "x", "goalId": "9"}).Code)

	plan := decode[model.Plan](t, env.do(t, http.MethodGet, "/api/planner", nil))
	require.Len(t, plan.Tasks, 3)
	assert.Equal(t, "The Last Hero novel", plan.Tasks[2].GoalTitle)
	assert.Equal(t, 3, plan.Remaining)
	assert.Equal(t, model.DefaultTimeBlocks, plan.TimeBlocks)

	rec = env.do(t, http.MethodPut, "/api/planner/victory", map[string]any{"title": "Finish chapter 6", "progress": 150})
	require.Equal(t, http.StatusOK, rec.Code)
	v := decode[model.WeeklyVictory](t, rec)
	assert.Equal(t, "Finish chapter 6", v.Title)
	assert.Equal(t, 100, v.Progress)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPut, "/api/planner/victory", map[string]string{"title": ""}).Code)
}

func TestAdviceAPI(t *testing.T) {
	t.Run("returns provider advice", func(t *testing.T) {
		gen := &MockGenerator{Response: "```json\n[{\"title\":\"Focus\",\"content\":\"Do the pitch first\"}]\n```"}
		env := setupTestServer(t, gen, nil, nil)

		rec := env.do(t, http.MethodGet, "/api/advice", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[AdviceResponse](t, rec)
		assert.False(t, resp.Fallback)
		require.Len(t, resp.Advice, 1)
		assert.Equal(t, "Focus", resp.Advice[0].Title)
	})

	t.Run("falls back on provider error", func(t *testing.T) {
		env := setupTestServer(t, &MockGenerator{Err: errors.New("quota")}, nil, nil)

		resp := decode[AdviceResponse](t, env.do(t, http.MethodGet, "/api/advice", nil))
		assert.True(t, resp.Fallback)
		assert.Equal(t, ai.FallbackAdvice, resp.Advice)
	})

	t.Run("falls back without provider", func(t *testing.T) {
		env := setupTestServer(t, nil, nil, nil)
		resp := decode[AdviceResponse](t, env.do(t, http.MethodGet, "/api/advice", nil))
		assert.True(t, resp.Fallback)
	})

	t.Run("rate limits", func(t *testing.T) {
		gen := &MockGenerator{Response: `[{"title":"a","content":"b"}]`}
		env := setupTestServer(t, gen, nil, &Config{AdviceRate: 1, AdviceBurst: 1})

		assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/advice", nil).Code)
		assert.Equal(t, http.StatusTooManyRequests, env.do(t, http.MethodGet, "/api/advice", nil).Code)
	})
}

func TestBackendSettings(t *testing.T) {
	env := setupTestServer(t, nil, nil, nil)

	resp := decode[BackendResponse](t, env.do(t, http.MethodGet, "/api/settings/backend", nil))
	assert.False(t, resp.Enabled)
	assert.False(t, resp.HasToken)
	assert.Empty(t, resp.Token)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPut, "/api/settings/backend", map[string]any{"enabled": true}).Code)

	rec := env.do(t, http.MethodPut, "/api/settings/backend", model.BackendConfig{
		BaseURL: "https://sync.example.com/api",
		Token:   "s3cret",
		UserID:  "u1",
		Enabled: true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[BackendResponse](t, rec)
	assert.Equal(t, redacted, resp.Token)
	assert.True(t, resp.HasToken)

	// sending the placeholder back keeps the stored token
	rec = env.do(t, http.MethodPut, "/api/settings/backend", map[string]any{
		"baseUrl": "https://sync.example.com/v2",
		"token":   redacted,
		"userId":  "u1",
		"enabled": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	cfg, err := env.store.BackendConfig()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Token)
	assert.Equal(t, "https://sync.example.com/v2", cfg.BaseURL)
}

func TestSyncAPI(t *testing.T) {
	env := setupTestServer(t, nil, nil, nil)

	rec := env.do(t, http.MethodPost, "/api/sync", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, remote.StatusDisabled, decode[remote.Result](t, rec).Status)

	var fail atomic.Bool
	fail.Store(true)
	remoteSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"quota exceeded"}`))
			return
		}
		w.Write([]byte(`{"status":"success","timestamp":"2026-10-17T09:00:00Z"}`))
	}))
	defer remoteSrv.Close()
	require.NoError(t, env.store.SaveBackendConfig(model.BackendConfig{BaseURL: remoteSrv.URL, Token: "t", UserID: "u", Enabled: true}))

	rec = env.do(t, http.MethodPost, "/api/sync", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	res := decode[remote.Result](t, rec)
	assert.Equal(t, remote.StatusError, res.Status)
	assert.Equal(t, "quota exceeded", res.Message)

	status := decode[state.Status](t, env.do(t, http.MethodGet, "/api/sync/status", nil))
	assert.True(t, status.RemoteEnabled)
	assert.Equal(t, "quota exceeded", status.LastError)

	fail.Store(false)
	rec = env.do(t, http.MethodPost, "/api/sync", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2026-10-17T09:00:00Z", decode[remote.Result](t, rec).Timestamp)

	status = decode[state.Status](t, env.do(t, http.MethodGet, "/api/sync/status", nil))
	assert.NotNil(t, status.LastSync)
	assert.Empty(t, status.LastError)
}

type fakeJobs struct {
	ran []string
}

func (f *fakeJobs) Jobs() []automation.JobInfo {
	return []automation.JobInfo{{Name: "weekly_review"}}
}

func (f *fakeJobs) RunNow(ctx context.Context, name string) (string, error) {
	switch name {
	case "weekly_review":
		f.ran = append(f.ran, name)
		return "reviewed", nil
	case "export":
		return "", errors.New("disk full")
	}
	return "", automation.ErrUnknownJob
}

func TestJobsAPI(t *testing.T) {
	jobs := &fakeJobs{}
	env := setupTestServer(t, nil, jobs, nil)

	list := decode[[]automation.JobInfo](t, env.do(t, http.MethodGet, "/api/jobs", nil))
	require.Len(t, list, 1)

	rec := env.do(t, http.MethodPost, "/api/jobs/weekly_review/run", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "reviewed", decode[JobRunResponse](t, rec).Output)
	assert.Equal(t, []string{"weekly_review"}, jobs.ran)

	rec = env.do(t, http.MethodPost, "/api/jobs/export/run", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "disk full", decode[JobRunResponse](t, rec).Error)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/jobs/nope/run", nil).Code)
}

func TestJobsRoutesAbsentWithoutScheduler(t *testing.T) {
	env := setupTestServer(t, nil, nil, nil)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/jobs", nil).Code)
}
