package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/stewardapostol/clientele/internal/credential"
)

// expirySlack is how long before the reported expiry a cached ID token
// is considered stale.
const expirySlack = time.Minute

// Client implements Authenticator against an identity-toolkit style
// REST API: JSON POST endpoints keyed by a public API key, with a
// separate token-exchange endpoint for refresh grants.
type Client struct {
	apiKey        string
	endpoint      string
	tokenEndpoint string
	httpClient    *http.Client
	creds         CredentialStore

	mu      sync.Mutex
	idToken string
	expiry  time.Time
	user    *User
}

// NewClient creates an identity client. endpoint and tokenEndpoint are
// the base URLs of the account and token APIs; creds persists the
// session between runs.
func NewClient(apiKey, endpoint, tokenEndpoint string, creds CredentialStore) *Client {
	return &Client{
		apiKey:        apiKey,
		endpoint:      strings.TrimRight(endpoint, "/"),
		tokenEndpoint: strings.TrimRight(tokenEndpoint, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		creds: creds,
	}
}

type sessionResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	LocalID      string `json:"localId"`
	DisplayName  string `json:"displayName"`
	Email        string `json:"email"`
}

// SignIn exchanges email and password for a session and persists the
// refresh token.
func (c *Client) SignIn(ctx context.Context, email, password string) error {
	var resp sessionResponse
	err := c.post(ctx, "/accounts:signInWithPassword", map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return fmt.Errorf("signing in: %w", err)
	}

	c.storeSession(resp)
	return nil
}

// SignUp creates an account, sets its display name, and signs in.
func (c *Client) SignUp(ctx context.Context, name, email, password string) error {
	var resp sessionResponse
	err := c.post(ctx, "/accounts:signUp", map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return fmt.Errorf("signing up: %w", err)
	}

	c.storeSession(resp)

	if name != "" {
		if err := c.UpdateProfile(ctx, name, email); err != nil {
			return fmt.Errorf("setting display name: %w", err)
		}
	}
	return nil
}

// SignOut drops the in-memory session and the persisted credentials.
func (c *Client) SignOut() error {
	c.mu.Lock()
	c.idToken = ""
	c.expiry = time.Time{}
	c.user = nil
	c.mu.Unlock()

	if err := c.creds.Delete(credential.KeyRefreshToken); err != nil {
		return fmt.Errorf("clearing refresh token: %w", err)
	}
	if err := c.creds.Delete(credential.KeyAccountEmail); err != nil {
		return fmt.Errorf("clearing account email: %w", err)
	}
	return nil
}

// CurrentUser returns the signed-in user, or nil when no session can
// be established from memory or the stored refresh token.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	c.mu.Lock()
	cached := c.user
	c.mu.Unlock()
	if cached != nil {
		u := *cached
		return &u, nil
	}

	token, err := c.RefreshToken(ctx, false)
	if err != nil {
		if errors.Is(err, ErrNotSignedIn) {
			return nil, nil
		}
		return nil, err
	}

	var resp struct {
		Users []struct {
			LocalID     string `json:"localId"`
			DisplayName string `json:"displayName"`
			Email       string `json:"email"`
		} `json:"users"`
	}
	err = c.post(ctx, "/accounts:lookup", map[string]interface{}{
		"idToken": token,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("looking up account: %w", err)
	}
	if len(resp.Users) == 0 {
		return nil, nil
	}

	u := &User{
		ID:          resp.Users[0].LocalID,
		DisplayName: resp.Users[0].DisplayName,
		Email:       resp.Users[0].Email,
	}
	c.mu.Lock()
	c.user = u
	c.mu.Unlock()

	out := *u
	return &out, nil
}

// RefreshToken returns a valid ID token. The cached token is reused
// until close to expiry unless force is set; otherwise the stored
// refresh token is exchanged for a new session.
func (c *Client) RefreshToken(ctx context.Context, force bool) (string, error) {
	c.mu.Lock()
	if !force && c.idToken != "" && time.Now().Add(expirySlack).Before(c.expiry) {
		token := c.idToken
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	refreshToken, err := c.creds.Get(credential.KeyRefreshToken)
	if err != nil || refreshToken == "" {
		return "", ErrNotSignedIn
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost,
		c.tokenEndpoint+"/token?key="+url.QueryEscape(c.apiKey),
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return "", fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("exchanging refresh token: %w", err)
	}
	body, readErr := io.ReadAll(httpResp.Body)
	httpResp.Body.Close()
	if readErr != nil {
		return "", fmt.Errorf("reading token response: %w", readErr)
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return "", decodeProviderError(httpResp.StatusCode, body)
	}

	var resp struct {
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    string `json:"expires_in"`
		UserID       string `json:"user_id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unmarshaling token response: %w", err)
	}

	c.mu.Lock()
	c.idToken = resp.IDToken
	c.expiry = time.Now().Add(expiresInDuration(resp.ExpiresIn))
	c.mu.Unlock()

	if resp.RefreshToken != "" {
		if err := c.creds.Set(credential.KeyRefreshToken, resp.RefreshToken); err != nil {
			return "", fmt.Errorf("persisting refresh token: %w", err)
		}
	}
	return resp.IDToken, nil
}

// SendPasswordReset asks the provider to email a reset code.
func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	err := c.post(ctx, "/accounts:sendOobCode", map[string]interface{}{
		"requestType": "PASSWORD_RESET",
		"email":       email,
	}, nil)
	if err != nil {
		return fmt.Errorf("sending password reset: %w", err)
	}
	return nil
}

// UpdatePassword reauthenticates with the current password, then sets
// the new one and adopts the fresh session it returns.
func (c *Client) UpdatePassword(ctx context.Context, currentPassword, newPassword string) error {
	token, err := c.reauthenticate(ctx, currentPassword)
	if err != nil {
		return err
	}

	var resp sessionResponse
	err = c.post(ctx, "/accounts:update", map[string]interface{}{
		"idToken":           token,
		"password":          newPassword,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	c.storeSession(resp)
	return nil
}

// DeleteAccount reauthenticates with the password, deletes the account
// at the provider, and clears the local session.
func (c *Client) DeleteAccount(ctx context.Context, password string) error {
	token, err := c.reauthenticate(ctx, password)
	if err != nil {
		return err
	}

	if err := c.post(ctx, "/accounts:delete", map[string]interface{}{
		"idToken": token,
	}, nil); err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}

	return c.SignOut()
}

// UpdateProfile sets the display name and email of the signed-in user.
func (c *Client) UpdateProfile(ctx context.Context, name, email string) error {
	token, err := c.RefreshToken(ctx, false)
	if err != nil {
		return err
	}

	var resp sessionResponse
	err = c.post(ctx, "/accounts:update", map[string]interface{}{
		"idToken":           token,
		"displayName":       name,
		"email":             email,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}

	if resp.IDToken != "" {
		c.storeSession(resp)
	}

	c.mu.Lock()
	if c.user != nil {
		c.user.DisplayName = name
		c.user.Email = email
	}
	c.mu.Unlock()

	if err := c.creds.Set(credential.KeyAccountEmail, email); err != nil {
		return fmt.Errorf("persisting account email: %w", err)
	}
	return nil
}

// reauthenticate signs in again with the stored account email and the
// given password, as required before sensitive operations.
func (c *Client) reauthenticate(ctx context.Context, password string) (string, error) {
	email, err := c.creds.Get(credential.KeyAccountEmail)
	if err != nil || email == "" {
		return "", ErrNotSignedIn
	}

	var resp sessionResponse
	err = c.post(ctx, "/accounts:signInWithPassword", map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("reauthenticating: %w", err)
	}

	c.storeSession(resp)
	return resp.IDToken, nil
}

// storeSession caches the session and persists its durable parts.
// Credential-store write failures here are not fatal: the in-memory
// session still works for this run.
func (c *Client) storeSession(resp sessionResponse) {
	c.mu.Lock()
	c.idToken = resp.IDToken
	c.expiry = time.Now().Add(expiresInDuration(resp.ExpiresIn))
	if resp.LocalID != "" {
		c.user = &User{
			ID:          resp.LocalID,
			DisplayName: resp.DisplayName,
			Email:       resp.Email,
		}
	}
	c.mu.Unlock()

	if resp.RefreshToken != "" {
		_ = c.creds.Set(credential.KeyRefreshToken, resp.RefreshToken)
	}
	if resp.Email != "" {
		_ = c.creds.Set(credential.KeyAccountEmail, resp.Email)
	}
}

// post sends a JSON POST to the account API and unmarshals the JSON
// response, decoding the provider's error envelope on failure.
func (c *Client) post(ctx context.Context, path string, body, result interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request body: %w", err)
	}

	u := c.endpoint + path + "?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, u, bytes.NewReader(data),
	)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request %s: %w", path, err)
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("reading response body: %w", readErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeProviderError(resp.StatusCode, respBody)
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshaling response from %s: %w", path, err)
	}
	return nil
}

// decodeProviderError extracts the provider's error code from its
// {"error": {"message": ...}} envelope, falling back to the raw body.
func decodeProviderError(status int, body []byte) error {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Error.Message != "" {
		return &ProviderError{Code: envelope.Error.Message, Status: status}
	}
	return fmt.Errorf("unexpected status %d: %s", status, string(body))
}

// expiresInDuration parses the provider's expires-in seconds string,
// defaulting to an hour when absent or malformed.
func expiresInDuration(expiresIn string) time.Duration {
	secs, err := strconv.Atoi(expiresIn)
	if err != nil || secs <= 0 {
		return time.Hour
	}
	return time.Duration(secs) * time.Second
}
