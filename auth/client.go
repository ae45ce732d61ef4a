package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-profile-uploader/sessions"
	"github.com/jrsteele09/go-profile-uploader/tenants"
	"github.com/rs/zerolog/log"
)

// RouteLogin is the marketplace login endpoint
const RouteLogin = "/auth/login"

// Client creates and destroys the device Session against the marketplace API
type Client struct {
	baseURL    string
	httpClient *http.Client
	sessions   *sessions.Repo
	validator  *Validator
	timeout    time.Duration
}

// ClientConfig is the configuration the login client reads
type ClientConfig interface {
	GetAPIBaseURL() string
	GetRequestTimeout() time.Duration
}

type ClientOption func(*Client)

func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func NewClient(cfg ClientConfig, repo *sessions.Repo, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(cfg.GetAPIBaseURL(), "/"),
		httpClient: http.DefaultClient,
		sessions:   repo,
		validator:  NewValidator(),
		timeout:    cfg.GetRequestTimeout(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoginData is the payload of a successful login response
type LoginData struct {
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
	Role         tenants.Type    `json:"role"`
	Profile      json.RawMessage `json:"profile"`
}

type loginResponse struct {
	Success bool      `json:"success"`
	Data    LoginData `json:"data"`
	Message string    `json:"message"`
}

// Login exchanges credentials for tokens and replaces the persisted session.
// The returned profile is cached in the field that belongs to the user's role.
func (c *Client) Login(ctx context.Context, email, password string) (*sessions.Session, error) {
	if err := c.validator.ValidateUserCredentials(email, password); err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]string{"email": strings.TrimSpace(email), "password": password})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+RouteLogin, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("[Login] %w: %w", LoginFailedErr, err)
	}
	defer resp.Body.Close()

	var lr loginResponse
	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("[Login] read response: %w", err)
	}
	_ = json.Unmarshal(payload, &lr)

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, InvalidCredentialsErr
	}
	if resp.StatusCode != http.StatusOK || !lr.Success {
		msg := lr.Message
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %s", LoginFailedErr, msg)
	}
	if !lr.Data.Role.Valid() {
		return nil, fmt.Errorf("%w: %q", UnknownRoleErr, lr.Data.Role)
	}
	if err := c.validator.ValidateBearerToken(lr.Data.AccessToken); err != nil {
		return nil, fmt.Errorf("%w: %w", LoginFailedErr, err)
	}

	s := &sessions.Session{
		AccessToken:  lr.Data.AccessToken,
		RefreshToken: lr.Data.RefreshToken,
		Role:         lr.Data.Role,
	}
	if len(lr.Data.Profile) > 0 {
		if err := s.SetProfile(s.Role, lr.Data.Profile); err != nil {
			return nil, err
		}
	}
	if err := c.sessions.Save(ctx, s); err != nil {
		return nil, err
	}

	log.Info().Str("role", s.Role.String()).Msg("Logged in")
	return s, nil
}

// Logout forgets the persisted session. Tokens are not revoked remotely.
func (c *Client) Logout(ctx context.Context) error {
	return c.sessions.Clear(ctx)
}

// Current returns the persisted session
func (c *Client) Current(ctx context.Context) (*sessions.Session, error) {
	return c.sessions.LoadAuthenticated(ctx)
}
