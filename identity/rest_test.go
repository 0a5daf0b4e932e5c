package identity

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/digitrack/digitrack-go/models"
)

func TestSignInSuccess(t *testing.T) {
	idToken := mintToken(t, map[string]interface{}{
		"sub":              "sub-123",
		"email":            "worker@example.com",
		"cognito:username": "worker",
	})

	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth", r.URL.Path)
		gotBody, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"message": "ok",
			"tokens": {"IdToken": "` + idToken + `", "AccessToken": "access", "RefreshToken": "refresh"}
		}`))
	}))
	defer srv.Close()

	client := NewRESTClient(Config{BaseURL: srv.URL})

	res, err := client.SignIn(context.Background(), "  Worker@Example.COM ", "Secret123!")
	require.NoError(t, err)

	assert.Equal(t, "login", gjson.GetBytes(gotBody, "action").String())
	// Email is lower-cased and trimmed before transmission.
	assert.Equal(t, "worker@example.com", gjson.GetBytes(gotBody, "email").String())

	assert.Equal(t, "sub-123", res.User.ID)
	assert.Equal(t, "worker@example.com", res.User.Email)
	assert.Equal(t, idToken, res.Tokens.IDToken)
	assert.Equal(t, "access", res.Tokens.AccessToken)
	assert.Equal(t, "refresh", res.Tokens.RefreshToken)
}

func TestSignInMissingTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"message": "ok", "tokens": {"IdToken": "only-id"}}`))
	}))
	defer srv.Close()

	client := NewRESTClient(Config{BaseURL: srv.URL})

	_, err := client.SignIn(context.Background(), "worker@example.com", "Secret123!")
	assert.True(t, models.IsKind(err, models.ErrInternal))
}

func TestProviderErrorNormalization(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   models.ErrorKind
	}{
		{"account exists", 400, `{"code": "UsernameExistsException", "message": "exists"}`, models.ErrAccountExists},
		{"weak password", 400, `{"code": "InvalidPasswordException"}`, models.ErrWeakPassword},
		{"invalid parameter", 400, `{"code": "InvalidParameterException"}`, models.ErrInvalidInput},
		{"bad credentials", 401, `{"code": "NotAuthorizedException"}`, models.ErrInvalidCredentials},
		{"not confirmed", 400, `{"code": "UserNotConfirmedException"}`, models.ErrAccountNotConfirmed},
		{"code mismatch", 400, `{"code": "CodeMismatchException"}`, models.ErrInvalidCode},
		{"expired code", 400, `{"code": "ExpiredCodeException"}`, models.ErrExpiredCode},
		{"user not found", 404, `{"code": "UserNotFoundException"}`, models.ErrNotFound},
		{"cognito type field", 400, `{"__type": "UsernameExistsException"}`, models.ErrAccountExists},
		{"unmapped 400", 400, `{"message": "bad request"}`, models.ErrInvalidInput},
		{"unmapped 401", 401, `{}`, models.ErrUnauthorized},
		{"unmapped 404", 404, `{}`, models.ErrNotFound},
		{"unmapped 500", 500, `{}`, models.ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeProviderError(tt.status, []byte(tt.body))
			assert.Equal(t, tt.want, got.Kind)
		})
	}
}

func TestSignUpPendingConfirmation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"message": "ok",
			"result": {"UserSub": "sub-456", "UserConfirmed": false}
		}`))
	}))
	defer srv.Close()

	client := NewRESTClient(Config{BaseURL: srv.URL})

	res, err := client.SignUp(context.Background(), "new@example.com", "Secret123!", "New Worker")
	require.NoError(t, err)
	assert.False(t, res.Confirmed)
	assert.Equal(t, "sub-456", res.SubjectID)
}

func TestSignUpWeakPassword(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code": "InvalidPasswordException", "message": "too weak"}`))
	}))
	defer srv.Close()

	client := NewRESTClient(Config{BaseURL: srv.URL})

	_, err := client.SignUp(context.Background(), "a@b.com", "Weak1", "A B")
	assert.True(t, models.IsKind(err, models.ErrWeakPassword))
}

func TestLocalValidationSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewRESTClient(Config{BaseURL: srv.URL})
	ctx := context.Background()

	_, err := client.SignIn(ctx, "not-an-email", "pw")
	assert.True(t, models.IsKind(err, models.ErrInvalidInput))

	_, err = client.SignUp(ctx, "worker@example.com", "", "name")
	assert.True(t, models.IsKind(err, models.ErrInvalidInput))

	err = client.ConfirmSignUp(ctx, "worker@example.com", "")
	assert.True(t, models.IsKind(err, models.ErrInvalidInput))

	err = client.ResendCode(ctx, "")
	assert.True(t, models.IsKind(err, models.ErrInvalidInput))

	assert.Equal(t, int32(0), calls.Load())
}

func TestConfirmAndResend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"message": "ok"}`))
	}))
	defer srv.Close()

	client := NewRESTClient(Config{BaseURL: srv.URL})
	ctx := context.Background()

	assert.NoError(t, client.ConfirmSignUp(ctx, "worker@example.com", "123456"))
	assert.NoError(t, client.ResendCode(ctx, "worker@example.com"))
}

func TestRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"tokens": {"IdToken": "id2", "AccessToken": "access2"}}`))
	}))
	defer srv.Close()

	client := NewRESTClient(Config{BaseURL: srv.URL})

	tokens, err := client.Refresh(context.Background(), "refresh-token")
	require.NoError(t, err)
	assert.Equal(t, "id2", tokens.IDToken)
	assert.Equal(t, "access2", tokens.AccessToken)
	assert.Empty(t, tokens.RefreshToken)
}

func TestRefreshWithoutToken(t *testing.T) {
	client := NewRESTClient(Config{BaseURL: "http://127.0.0.1:0"})

	_, err := client.Refresh(context.Background(), "")
	assert.True(t, models.IsKind(err, models.ErrUnauthorized))
}

func TestNetworkErrorOnTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewRESTClient(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})

	_, err := client.SignIn(context.Background(), "worker@example.com", "Secret123!")
	assert.True(t, models.IsKind(err, models.ErrNetwork))
}
