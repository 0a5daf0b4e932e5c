package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitrack/digitrack-go/models"
)

// fakeTokens is a TokenSource with a swappable token and instrumented
// refresh/logout counters.
type fakeTokens struct {
	mu           sync.Mutex
	token        string
	next         string
	refreshErr   error
	refreshDelay time.Duration

	refreshCalls atomic.Int32
	logoutCalls  atomic.Int32
}

func (f *fakeTokens) CurrentIDToken(context.Context) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeTokens) RefreshTokens(context.Context) (models.Tokens, error) {
	f.refreshCalls.Add(1)
	if f.refreshDelay > 0 {
		time.Sleep(f.refreshDelay)
	}
	if f.refreshErr != nil {
		return models.Tokens{}, f.refreshErr
	}
	f.mu.Lock()
	f.token = f.next
	f.mu.Unlock()
	return models.Tokens{IDToken: f.next, AccessToken: f.next, RefreshToken: "refresh"}, nil
}

func (f *fakeTokens) ForceLogout(context.Context) {
	f.logoutCalls.Add(1)
}

func TestBearerAndRequestIDAttached(t *testing.T) {
	var auth, requestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		requestID = r.Header.Get("X-Request-ID")
		_, _ = w.Write([]byte(`{"userId": "sub-1", "email": "worker@example.com"}`))
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL}, &fakeTokens{token: "tok-1"})

	profile, err := client.GetProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", auth)
	assert.NotEmpty(t, requestID)
	assert.Equal(t, "sub-1", profile.UserID)
}

func TestRefreshAndReplayOn401(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"userId": "sub-1"}`))
	}))
	defer srv.Close()

	tokens := &fakeTokens{token: "stale", next: "fresh"}
	client := New(Config{BaseURL: srv.URL}, tokens)

	profile, err := client.GetProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sub-1", profile.UserID)

	assert.Equal(t, int32(1), tokens.refreshCalls.Load())
	assert.Equal(t, int32(0), tokens.logoutCalls.Load())
	// One original request, one replay, nothing more.
	assert.Equal(t, int32(2), hits.Load())
}

func TestConcurrent401sShareOneRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"userId": "sub-1"}`))
	}))
	defer srv.Close()

	tokens := &fakeTokens{token: "stale", next: "fresh", refreshDelay: 50 * time.Millisecond}
	client := New(Config{BaseURL: srv.URL}, tokens)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = client.GetProfile(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "worker %d", i)
	}
	assert.Equal(t, int32(1), tokens.refreshCalls.Load())
}

func TestRefreshFailureForcesLogout(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tokens := &fakeTokens{
		token:      "stale",
		refreshErr: models.NewAuthError(models.ErrUnauthorized, "refresh rejected"),
	}
	client := New(Config{BaseURL: srv.URL}, tokens)

	_, err := client.GetProfile(context.Background())
	assert.True(t, models.IsKind(err, models.ErrUnauthorized))
	assert.Equal(t, int32(1), tokens.logoutCalls.Load())
	// No replay after a failed refresh.
	assert.Equal(t, int32(1), hits.Load())
}

func TestSecond401ForcesLogout(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tokens := &fakeTokens{token: "stale", next: "fresh"}
	client := New(Config{BaseURL: srv.URL}, tokens)

	_, err := client.GetProfile(context.Background())
	assert.True(t, models.IsKind(err, models.ErrUnauthorized))
	assert.Equal(t, int32(1), tokens.refreshCalls.Load())
	assert.Equal(t, int32(1), tokens.logoutCalls.Load())
	// Exactly one replay, never a retry loop.
	assert.Equal(t, int32(2), hits.Load())
}

func TestNon401ErrorsMappedWithoutRefresh(t *testing.T) {
	tests := []struct {
		status int
		want   models.ErrorKind
	}{
		{400, models.ErrInvalidInput},
		{404, models.ErrNotFound},
		{500, models.ErrInternal},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tt.status)
		}))

		tokens := &fakeTokens{token: "tok"}
		client := New(Config{BaseURL: srv.URL}, tokens)

		_, err := client.GetProfile(context.Background())
		assert.True(t, models.IsKind(err, tt.want), "status %d", tt.status)
		assert.Equal(t, int32(0), tokens.refreshCalls.Load())

		srv.Close()
	}
}

func TestNetworkErrorSurfaces(t *testing.T) {
	client := New(Config{BaseURL: "http://127.0.0.1:1", Timeout: 100 * time.Millisecond},
		&fakeTokens{token: "tok"})

	_, err := client.GetProfile(context.Background())
	assert.True(t, models.IsKind(err, models.ErrNetwork))
}
