package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/focus-pilot/pkg/model"
)

type staticConfig struct {
	cfg model.BackendConfig
	err error
}

func (s staticConfig) BackendConfig() (model.BackendConfig, error) { return s.cfg, s.err }

func testSnapshot() model.Snapshot {
	return model.Snapshot{
		Goals:     model.DefaultGoals(),
		Tasks:     model.DefaultTasks(),
		UserStats: model.DefaultUserState(),
	}
}

func TestPushDisabledMakesNoCall(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	for _, cfg := range []model.BackendConfig{
		{Enabled: false, BaseURL: server.URL},
		{Enabled: true, BaseURL: ""},
	} {
		client := NewClient(staticConfig{cfg: cfg})
		res, err := client.Push(context.Background(), testSnapshot())
		require.NoError(t, err)
		assert.Equal(t, StatusDisabled, res.Status)
		assert.Nil(t, client.Pull(context.Background()))
	}
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestPushSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer s3cret", r.Header.Get("Authorization"))

		var req pushRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "s3cret", req.Token)
		assert.Equal(t, "amr", req.UserID)
		assert.Len(t, req.Content.Goals, 2)
		assert.Equal(t, 1250, req.Content.UserStats.XP)

		json.NewEncoder(w).Encode(map[string]string{"message": "saved", "timestamp": "2026-10-17T10:00:00Z"})
	}))
	defer server.Close()

	client := NewClient(staticConfig{cfg: model.BackendConfig{BaseURL: server.URL, Token: "s3cret", UserID: "amr", Enabled: true}})
	res, err := client.Push(context.Background(), testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, Result{Status: StatusSuccess, Message: "saved", Timestamp: "2026-10-17T10:00:00Z"}, res)
}

func TestPushTwiceIsIndependent(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(staticConfig{cfg: model.BackendConfig{BaseURL: server.URL, Enabled: true}})
	snap := testSnapshot()
	before := testSnapshot()
	for i := 0; i < 2; i++ {
		res, err := client.Push(context.Background(), snap)
		require.NoError(t, err)
		assert.Equal(t, StatusSuccess, res.Status)
		assert.NotEmpty(t, res.Timestamp)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, before, snap)
}

func TestPushServerError(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"error field", `{"error":"invalid token"}`, "invalid token"},
		{"message field", `{"message":"quota exceeded"}`, "quota exceeded"},
		{"no body", ``, genericPushError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(staticConfig{cfg: model.BackendConfig{BaseURL: server.URL, Enabled: true}})
			res, err := client.Push(context.Background(), testSnapshot())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrPushFailed))
			assert.Equal(t, StatusError, res.Status)
			assert.Equal(t, tt.wantMsg, res.Message)
		})
	}
}

func TestPushErrorStatusInOKResponse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"message field", `{"status":"error","message":"invalid token"}`, "invalid token"},
		{"error field wins", `{"status":"error","error":"expired","message":"ignored"}`, "expired"},
		{"no message", `{"status":"error"}`, genericPushError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(staticConfig{cfg: model.BackendConfig{BaseURL: server.URL, Enabled: true}})
			res, err := client.Push(context.Background(), testSnapshot())
			assert.ErrorIs(t, err, ErrPushFailed)
			assert.Equal(t, StatusError, res.Status)
			assert.Equal(t, tt.wantMsg, res.Message)
			assert.Empty(t, res.Timestamp)
		})
	}
}

func TestPushTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(staticConfig{cfg: model.BackendConfig{BaseURL: url, Enabled: true}})
	res, err := client.Push(context.Background(), testSnapshot())
	assert.ErrorIs(t, err, ErrPushFailed)
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, genericPushError, res.Message)
}

func TestPull(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "tok en", r.URL.Query().Get("token"))
		assert.Equal(t, "amr", r.URL.Query().Get("userId"))
		w.Write([]byte(`{"userStats":{"xp":10,"level":1,"mission":"m","vision":"v","lastReviewDate":""},"goals":[]}`))
	}))
	defer server.Close()

	client := NewClient(staticConfig{cfg: model.BackendConfig{BaseURL: server.URL, Token: "tok en", UserID: "amr", Enabled: true}})
	snap := client.Pull(context.Background())
	require.NotNil(t, snap)
	require.NotNil(t, snap.UserStats)
	assert.Equal(t, 10, snap.UserStats.XP)
	require.NotNil(t, snap.Goals)
	assert.Empty(t, *snap.Goals)
	assert.Nil(t, snap.Tasks)
}

func TestPullFailuresYieldNil(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) }},
		{"malformed json", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`<html>`)) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()
			client := NewClient(staticConfig{cfg: model.BackendConfig{BaseURL: server.URL, Enabled: true}})
			assert.Nil(t, client.Pull(context.Background()))
		})
	}

	client := NewClient(staticConfig{err: errors.New("db closed")})
	assert.Nil(t, client.Pull(context.Background()))
	assert.False(t, client.Enabled())
}
