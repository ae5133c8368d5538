package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 30 * time.Second

// Config holds the Supabase project settings.
type Config struct {
	// ProjectURL is the base URL of the Supabase project API.
	ProjectURL string
	// AnonKey is the public API key sent with every request.
	AnonKey string
	// ServiceKey is the service role key for privileged operations.
	ServiceKey string
	// RedirectBase is the public base URL of this gateway, used to build
	// redirect targets for signup confirmation, recovery and OAuth.
	RedirectBase string
}

// Client is the HTTP client for the Supabase Auth API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	listeners  *listenerSet
}

// NewClient creates a new Supabase Auth client.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: defaultTimeout},
		listeners:  newListenerSet(),
	}
}

// ProjectURL returns the configured project base URL.
func (c *Client) ProjectURL() string {
	return c.cfg.ProjectURL
}

// RedirectBase returns the gateway's public base URL.
func (c *Client) RedirectBase() string {
	return c.cfg.RedirectBase
}

// send performs one request against the auth API and returns the raw
// response body. Non-2xx responses are mapped to *APIError.
func (c *Client) send(ctx context.Context, method, path string, body any, bearer string) ([]byte, error) {
	var reqBody io.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}

		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.ProjectURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("apikey", c.cfg.AnonKey)
	req.Header.Set("Content-Type", "application/json")

	if bearer == "" {
		bearer = c.cfg.AnonKey
	}

	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, parseAPIError(resp.StatusCode, raw)
	}

	return raw, nil
}

// SignInWithPassword authenticates a user with the password grant and
// returns the issued session. Emits EventSignedIn on success.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	raw, err := c.send(ctx, http.MethodPost, PasswordGrantPath, passwordGrantRequest{
		Email:    email,
		Password: password,
	}, "")
	if err != nil {
		return nil, err
	}

	sess := new(Session)
	if err := json.Unmarshal(raw, sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}

	if sess.AccessToken == "" {
		return nil, ErrNoSession
	}

	c.listeners.emit(EventSignedIn, sess)

	return sess, nil
}

// SignUpResult is the provider's answer to a registration request. Session
// is nil when email confirmation is required before sign-in.
type SignUpResult struct {
	User    *User    `json:"user"`
	Session *Session `json:"session"`
}

// SignUp registers a new identity. The provider answers an existing email
// with a user record carrying zero identities rather than an error; the
// caller is expected to treat that as a duplicate account.
func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*SignUpResult, error) {
	raw, err := c.send(ctx, http.MethodPost, SignupPath, signUpRequest{
		Email:    email,
		Password: password,
		Data:     metadata,
	}, "")
	if err != nil {
		return nil, err
	}

	// The signup endpoint answers either a bare user (confirmation
	// pending), a {user, session} envelope, or a top-level session when
	// the project autoconfirms emails.
	var res SignUpResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("failed to decode signup response: %w", err)
	}

	if res.Session == nil {
		sess := new(Session)
		if err := json.Unmarshal(raw, sess); err == nil && sess.AccessToken != "" {
			res.Session = sess

			if res.User == nil {
				res.User = sess.User
			}
		}
	}

	if res.User == nil {
		user := new(User)
		if err := json.Unmarshal(raw, user); err != nil {
			return nil, fmt.Errorf("failed to decode signup response: %w", err)
		}

		res.User = user
	}

	if res.Session != nil {
		c.listeners.emit(EventSignedIn, res.Session)
	}

	return &res, nil
}

// SignOut revokes the session(s) behind the access token. Emits
// EventSignedOut regardless of the provider outcome so local state is
// always torn down.
func (c *Client) SignOut(ctx context.Context, accessToken string, scope SignOutScope) error {
	if scope == "" {
		scope = ScopeGlobal
	}

	_, err := c.send(ctx, http.MethodPost, LogoutPath+"?scope="+string(scope), nil, accessToken)

	c.listeners.emit(EventSignedOut, nil)

	return err
}

// RefreshSession exchanges a refresh token for new session material.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	raw, err := c.send(ctx, http.MethodPost, RefreshGrantPath, refreshGrantRequest{
		RefreshToken: refreshToken,
	}, "")
	if err != nil {
		return nil, err
	}

	sess := new(Session)
	if err := json.Unmarshal(raw, sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}

	if sess.AccessToken == "" {
		return nil, ErrNoSession
	}

	return sess, nil
}

// GetUser fetches the user record behind an access token.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	raw, err := c.send(ctx, http.MethodGet, UserPath, nil, accessToken)
	if err != nil {
		return nil, err
	}

	user := new(User)
	if err := json.Unmarshal(raw, user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}

	return user, nil
}

// UpdateUser updates attributes of the current user, including the
// password after a recovery flow. Emits EventUserUpdated on success.
func (c *Client) UpdateUser(ctx context.Context, accessToken string, attrs UserAttributes) (*User, error) {
	raw, err := c.send(ctx, http.MethodPut, UserPath, attrs, accessToken)
	if err != nil {
		return nil, err
	}

	user := new(User)
	if err := json.Unmarshal(raw, user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}

	c.listeners.emit(EventUserUpdated, &Session{AccessToken: accessToken, User: user})

	return user, nil
}

// ResetPasswordForEmail asks the provider to send a password recovery
// link pointing back at the gateway's reset page.
func (c *Client) ResetPasswordForEmail(ctx context.Context, email string) error {
	path := RecoverPath + "?redirect_to=" + c.cfg.RedirectBase + "/auth/reset-password"

	_, err := c.send(ctx, http.MethodPost, path, recoverRequest{Email: email}, "")

	return err
}

// VerifyOTP redeems a one-time token. Recovery tokens emit
// EventPasswordRecovery, everything else EventSignedIn.
func (c *Client) VerifyOTP(ctx context.Context, tokenHash string, otpType OTPType) (*Session, error) {
	raw, err := c.send(ctx, http.MethodPost, VerifyPath, verifyRequest{
		TokenHash: tokenHash,
		Type:      otpType,
	}, "")
	if err != nil {
		return nil, err
	}

	sess := new(Session)
	if err := json.Unmarshal(raw, sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}

	if sess.AccessToken == "" {
		return nil, ErrNoSession
	}

	if otpType == OTPTypeRecovery {
		c.listeners.emit(EventPasswordRecovery, sess)
	} else {
		c.listeners.emit(EventSignedIn, sess)
	}

	return sess, nil
}

// ResendVerification asks the provider to send the signup confirmation
// email again.
func (c *Client) ResendVerification(ctx context.Context, email string) error {
	_, err := c.send(ctx, http.MethodPost, ResendPath, resendRequest{
		Email: email,
		Type:  "signup",
	}, "")

	return err
}
