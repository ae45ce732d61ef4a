package upload

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-profile-uploader/internal/config"
	apperrors "github.com/jrsteele09/go-profile-uploader/internal/errors"
	"github.com/jrsteele09/go-profile-uploader/sessions"
	"github.com/jrsteele09/go-profile-uploader/tenants"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	headerRequestID = "X-Request-ID"
	maxResponseSize = 1 << 20
)

// Config is the subset of application configuration the service reads
type Config interface {
	config.UploadConfig
	GetAPIBaseURL() string
}

// SleepFunc waits between attempts. It returns early with ctx.Err() when ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Service performs single profile picture uploads and removals for any tenant
// and keeps the session's cached profile in line with the server's answer.
// It holds no per-call state and is safe for concurrent use.
type Service struct {
	baseURL     string
	sessions    *sessions.Repo
	httpClient  *http.Client
	maxAttempts int
	retryDelay  time.Duration
	timeout     time.Duration
	sleep       SleepFunc
}

type Option func(*Service)

// WithHTTPClient sets the base client; the bearer token transport wraps its Transport
func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) {
		s.httpClient = c
	}
}

// WithSleep replaces the inter-attempt wait, tests use it to skip wall-clock delays
func WithSleep(fn SleepFunc) Option {
	return func(s *Service) {
		s.sleep = fn
	}
}

func NewService(cfg Config, repo *sessions.Repo, opts ...Option) *Service {
	s := &Service{
		baseURL:     strings.TrimRight(cfg.GetAPIBaseURL(), "/"),
		sessions:    repo,
		httpClient:  http.DefaultClient,
		maxAttempts: cfg.GetMaxAttempts(),
		retryDelay:  cfg.GetRetryDelay(),
		timeout:     cfg.GetRequestTimeout(),
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxAttempts < 1 {
		s.maxAttempts = 1
	}
	return s
}

// UploadProfilePicture sends img to the tenant's endpoint, retrying failed
// attempts after a fixed delay. On success the returned snapshot has already
// been written into the persisted session. Every failure is an *Error.
// onProgress may be nil; it restarts from 0 at the beginning of every attempt.
func (s *Service) UploadProfilePicture(ctx context.Context, img Image, t tenants.Type, onProgress ProgressFunc) (json.RawMessage, error) {
	sess, err := s.sessions.LoadAuthenticated(ctx)
	if err != nil {
		return nil, sessionError(err)
	}
	route, err := tenants.Lookup(t)
	if err != nil {
		return nil, fatal(KindInvalidTenantType, "Invalid user type: "+string(t), err)
	}
	data, err := readImage(img)
	if err != nil {
		return nil, fatal(KindInvalidImage, MsgInvalidImage, err)
	}

	endpoint := s.baseURL + route.Path
	var last *attemptError
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := s.sleep(ctx, s.retryDelay); err != nil {
				return nil, &Error{Kind: KindCanceled, Message: MsgCanceled, Attempts: attempt - 1, Err: err}
			}
		}

		body, contentType, err := multipartBody(data, t)
		if err != nil {
			return nil, fatal(KindInvalidImage, MsgInvalidImage, err)
		}
		if onProgress != nil {
			onProgress(0)
		}

		snapshot, aerr := s.send(ctx, sess.AccessToken, http.MethodPut, endpoint, body, int64(body.Len()), contentType, onProgress, t, attempt)
		if aerr == nil {
			if err := s.sessions.MergeProfile(ctx, sess, t, snapshot); err != nil {
				return nil, &Error{Kind: KindStorage, Message: MsgStorage, Attempts: attempt, Err: err}
			}
			log.Info().Str("tenant", t.String()).Int("attempt", attempt).Msg("Profile picture uploaded")
			return snapshot, nil
		}

		last = aerr
		if ctx.Err() != nil {
			return nil, &Error{Kind: KindCanceled, Message: MsgCanceled, Attempts: attempt, Err: ctx.Err()}
		}
		log.Warn().Err(aerr).Str("tenant", t.String()).Int("attempt", attempt).Int("max_attempts", s.maxAttempts).
			Int("status", aerr.statusCode).Msg("Profile picture upload attempt failed")
	}

	return nil, classify(last, s.maxAttempts)
}

// RemoveProfilePicture deletes the tenant's picture in a single attempt.
// Failures carry the underlying message rather than a retry classification.
func (s *Service) RemoveProfilePicture(ctx context.Context, t tenants.Type) (json.RawMessage, error) {
	sess, err := s.sessions.LoadAuthenticated(ctx)
	if err != nil {
		return nil, sessionError(err)
	}
	route, err := tenants.Lookup(t)
	if err != nil {
		return nil, fatal(KindInvalidTenantType, "Invalid user type: "+string(t), err)
	}

	snapshot, aerr := s.send(ctx, sess.AccessToken, http.MethodDelete, s.baseURL+route.Path, nil, 0, "", nil, t, 1)
	if aerr != nil {
		if ctx.Err() != nil {
			return nil, &Error{Kind: KindCanceled, Message: MsgCanceled, Attempts: 1, Err: ctx.Err()}
		}
		log.Warn().Err(aerr).Str("tenant", t.String()).Int("status", aerr.statusCode).Msg("Profile picture removal failed")
		return nil, raw(aerr)
	}

	if err := s.sessions.MergeProfile(ctx, sess, t, snapshot); err != nil {
		return nil, &Error{Kind: KindStorage, Message: MsgStorage, Attempts: 1, Err: err}
	}
	log.Info().Str("tenant", t.String()).Msg("Profile picture removed")
	return snapshot, nil
}

// envelope is the response shape shared by every marketplace endpoint
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// send performs one authenticated round trip bounded by the service timeout
func (s *Service) send(ctx context.Context, token, method, endpoint string, body io.Reader, size int64, contentType string,
	onProgress ProgressFunc, t tenants.Type, attempt int) (json.RawMessage, *attemptError) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if body != nil {
		body = newProgressReader(body, size, onProgress)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, &attemptError{err: err}
	}
	if body != nil {
		req.ContentLength = size
		req.Header.Set("Content-Type", contentType)
	}
	requestID := uuid.NewString()
	req.Header.Set(headerRequestID, requestID)
	req.Header.Set("Accept", "application/json")

	log.Debug().Str("method", method).Str("url", endpoint).Str("tenant", t.String()).
		Int("attempt", attempt).Str("request_id", requestID).Msg("Sending profile picture request")

	resp, err := s.bearerClient(ctx, token).Do(req)
	if err != nil {
		return nil, &attemptError{err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &attemptError{statusCode: resp.StatusCode, err: err}
	}

	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		log.Debug().Err(err).Str("request_id", requestID).Int("status", resp.StatusCode).Msg("Response body is not an envelope")
	}
	if resp.StatusCode != http.StatusOK || !env.Success {
		return nil, &attemptError{statusCode: resp.StatusCode, serverMessage: env.Message}
	}
	return env.Data, nil
}

// bearerClient attaches the session token to every request sent through the base client
func (s *Service) bearerClient(ctx context.Context, token string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
}

// sessionError separates "no usable session" from a store that could not be read
func sessionError(err error) *Error {
	if errors.Is(err, apperrors.ErrNotLoggedIn) || errors.Is(err, apperrors.ErrMissingToken) {
		return fatal(KindNotAuthenticated, MsgNotAuthenticated, err)
	}
	return fatal(KindStorage, MsgSessionUnavailable, err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
