package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		ProjectURL:   srv.URL,
		AnonKey:      "test-anon-key",
		RedirectBase: "http://localhost:3000",
	})
}

func sessionBody(userID uuid.UUID, email string) map[string]any {
	return map[string]any{
		"access_token":  "at-123",
		"token_type":    "bearer",
		"expires_in":    3600,
		"expires_at":    time.Now().Add(time.Hour).Unix(),
		"refresh_token": "rt-123",
		"user": map[string]any{
			"id":    userID.String(),
			"email": email,
		},
	}
}

func TestSignInWithPassword(t *testing.T) {
	userID := uuid.New()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "test-anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer test-anon-key", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "alice@example.com", body["email"])
		assert.Equal(t, "secret", body["password"])

		_ = json.NewEncoder(w).Encode(sessionBody(userID, "alice@example.com"))
	})

	sess, err := client.SignInWithPassword(context.Background(), "alice@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "at-123", sess.AccessToken)
	assert.Equal(t, "rt-123", sess.RefreshToken)
	require.NotNil(t, sess.User)
	assert.Equal(t, userID, sess.User.ID)
	assert.False(t, sess.Expired(time.Now()))
}

func TestSignInWithPasswordRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
	})

	_, err := client.SignInWithPassword(context.Background(), "alice@example.com", "wrong")
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "invalid_grant", apiErr.Code)
	assert.Equal(t, "Invalid login credentials", apiErr.Message)
}

func TestSignUpConfirmationPending(t *testing.T) {
	userID := uuid.New()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, SignupPath, r.URL.Path)

		// bare user, confirmation email is on its way
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":         userID.String(),
			"email":      "bob@example.com",
			"identities": []map[string]any{{"id": "i1", "provider": "email"}},
		})
	})

	res, err := client.SignUp(context.Background(), "bob@example.com", "secret123", nil)
	require.NoError(t, err)
	require.NotNil(t, res.User)
	assert.Nil(t, res.Session)
	assert.Equal(t, userID, res.User.ID)
	assert.Len(t, res.User.Identities, 1)
}

func TestSignUpExistingEmailHasNoIdentities(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		// obfuscated duplicate: user record with zero identities
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":         uuid.NewString(),
			"email":      "taken@example.com",
			"identities": []map[string]any{},
		})
	})

	res, err := client.SignUp(context.Background(), "taken@example.com", "secret123", nil)
	require.NoError(t, err)
	require.NotNil(t, res.User)
	assert.Empty(t, res.User.Identities)
}

func TestSignOutEmitsEvenOnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, LogoutPath, r.URL.Path)
		assert.Equal(t, "global", r.URL.Query().Get("scope"))
		assert.Equal(t, "Bearer at-123", r.Header.Get("Authorization"))

		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":401,"error_code":"session_not_found","msg":"Session not found"}`))
	})

	var gotEvent Event

	unsubscribe := client.OnAuthStateChange(func(event Event, _ *Session) {
		gotEvent = event
	})
	defer unsubscribe()

	err := client.SignOut(context.Background(), "at-123", ScopeGlobal)
	require.Error(t, err)
	assert.Equal(t, EventSignedOut, gotEvent)
}

func TestRefreshSession(t *testing.T) {
	userID := uuid.New()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "refresh_token", r.URL.Query().Get("grant_type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "rt-old", body["refresh_token"])

		_ = json.NewEncoder(w).Encode(sessionBody(userID, "alice@example.com"))
	})

	sess, err := client.RefreshSession(context.Background(), "rt-old")
	require.NoError(t, err)
	assert.Equal(t, "at-123", sess.AccessToken)
}

func TestGetUserUsesBearerToken(t *testing.T) {
	userID := uuid.New()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, UserPath, r.URL.Path)
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    userID.String(),
			"email": "alice@example.com",
		})
	})

	user, err := client.GetUser(context.Background(), "user-token")
	require.NoError(t, err)
	assert.Equal(t, userID, user.ID)
}

func TestResetPasswordForEmailRedirect(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, RecoverPath, r.URL.Path)
		assert.Equal(t, "http://localhost:3000/auth/reset-password", r.URL.Query().Get("redirect_to"))

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	})

	err := client.ResetPasswordForEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
}

func TestVerifyOTPRecoveryEvent(t *testing.T) {
	userID := uuid.New()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, VerifyPath, r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hash-1", body["token_hash"])
		assert.Equal(t, "recovery", body["type"])

		_ = json.NewEncoder(w).Encode(sessionBody(userID, "alice@example.com"))
	})

	var gotEvent Event

	unsubscribe := client.OnAuthStateChange(func(event Event, _ *Session) {
		gotEvent = event
	})
	defer unsubscribe()

	_, err := client.VerifyOTP(context.Background(), "hash-1", OTPTypeRecovery)
	require.NoError(t, err)
	assert.Equal(t, EventPasswordRecovery, gotEvent)
}

func TestParseAPIErrorUnexpectedBody(t *testing.T) {
	apiErr := parseAPIError(http.StatusBadGateway, []byte("<html>bad gateway</html>"))

	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Contains(t, apiErr.Message, "502")
}

func TestAuthorizeURLUsesRedirectTo(t *testing.T) {
	client := NewClient(Config{
		ProjectURL:   "http://project.example",
		AnonKey:      "test-anon-key",
		RedirectBase: "http://localhost:3000",
	})

	raw, err := client.AuthorizeURL(ProviderGitHub, "state-1", GenerateVerifier())
	require.NoError(t, err)

	consent, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, AuthorizePath, consent.Path)
	assert.Equal(t, "github", consent.Query().Get("provider"))
	assert.Equal(t, "http://localhost:3000/auth/callback", consent.Query().Get("redirect_to"))
	assert.Empty(t, consent.Query().Get("redirect_uri"))
	assert.Equal(t, "S256", consent.Query().Get("code_challenge_method"))
}

func TestExchangeCodePostsJSONPKCEGrant(t *testing.T) {
	userID := uuid.New()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "pkce", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "test-anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "code-1", body["auth_code"])
		assert.Equal(t, "verifier-1", body["code_verifier"])

		_ = json.NewEncoder(w).Encode(sessionBody(userID, "alice@example.com"))
	})

	sess, err := client.ExchangeCode(context.Background(), "code-1", "verifier-1")
	require.NoError(t, err)
	assert.Equal(t, "at-123", sess.AccessToken)
	require.NotNil(t, sess.User)
	assert.Equal(t, userID, sess.User.ID)
}

func TestSignUpAutoconfirmTopLevelSession(t *testing.T) {
	userID := uuid.New()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, SignupPath, r.URL.Path)

		// autoconfirm projects answer the session at the top level
		_ = json.NewEncoder(w).Encode(sessionBody(userID, "alice@example.com"))
	})

	res, err := client.SignUp(context.Background(), "alice@example.com", "secret", nil)
	require.NoError(t, err)
	require.NotNil(t, res.Session)
	assert.Equal(t, "at-123", res.Session.AccessToken)
	require.NotNil(t, res.User)
	assert.Equal(t, userID, res.User.ID)
}
