package upload_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-profile-uploader/sessions"
	fakesessionstore "github.com/jrsteele09/go-profile-uploader/sessions/repofakes"
	"github.com/jrsteele09/go-profile-uploader/upload"
	"github.com/stretchr/testify/require"
)

const (
	testToken   = "test-access-token"
	testSession = `{"accessToken":"test-access-token","refreshToken":"r","role":"provider","providerData":{"profilePic":"old.jpg"}}`
)

var testImage = upload.BytesImage([]byte("\xff\xd8\xff\xe0 not really a jpeg"))

type testConfig struct {
	baseURL string
	timeout time.Duration
}

func (c testConfig) GetAPIBaseURL() string      { return c.baseURL }
func (testConfig) GetMaxAttempts() int          { return 3 }
func (testConfig) GetRetryDelay() time.Duration { return time.Second }
func (c testConfig) GetRequestTimeout() time.Duration {
	if c.timeout == 0 {
		return 30 * time.Second
	}
	return c.timeout
}

// recordedRequest is what the fake backend saw for one call
type recordedRequest struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
	ContentType   string
	FileName      string
	FileType      string
	FileBody      []byte
}

// backend is an httptest server whose response for each call comes from a script
type backend struct {
	server   *httptest.Server
	calls    atomic.Int32
	lock     sync.Mutex
	requests []recordedRequest
	respond  func(call int, w http.ResponseWriter, r *http.Request)
}

func newBackend(t *testing.T, respond func(call int, w http.ResponseWriter, r *http.Request)) *backend {
	t.Helper()
	b := &backend{respond: respond}
	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
			ContentType:   r.Header.Get("Content-Type"),
		}
		if r.Method == http.MethodPut {
			if file, header, err := r.FormFile(upload.FieldName); err == nil {
				rec.FileName = header.Filename
				rec.FileType = header.Header.Get("Content-Type")
				rec.FileBody, _ = io.ReadAll(file)
				file.Close()
			}
		}
		b.lock.Lock()
		b.requests = append(b.requests, rec)
		b.lock.Unlock()

		call := int(b.calls.Add(1))
		b.respond(call, w, r)
	}))
	t.Cleanup(b.server.Close)
	return b
}

func (b *backend) Requests() []recordedRequest {
	b.lock.Lock()
	defer b.lock.Unlock()
	return append([]recordedRequest(nil), b.requests...)
}

func writeEnvelope(w http.ResponseWriter, status int, success bool, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": success,
		"data":    data,
		"message": message,
	})
}

func ok(data any) func(int, http.ResponseWriter, *http.Request) {
	return func(_ int, w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusOK, true, data, "")
	}
}

// sleepRecorder replaces the retry delay so tests never wait
type sleepRecorder struct {
	lock   sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.lock.Lock()
	s.delays = append(s.delays, d)
	s.lock.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) Delays() []time.Duration {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

type fixture struct {
	store   *fakesessionstore.FakeStore
	repo    *sessions.Repo
	backend *backend
	sleeper *sleepRecorder
	service *upload.Service
}

func newFixture(t *testing.T, session string, cfg testConfig, respond func(int, http.ResponseWriter, *http.Request)) *fixture {
	t.Helper()

	store := fakesessionstore.NewFakeStore()
	if session != "" {
		store.Put(sessions.StorageKey, session)
	}
	repo := sessions.NewRepo(store)
	b := newBackend(t, respond)
	if cfg.baseURL == "" {
		cfg.baseURL = b.server.URL
	}
	sleeper := &sleepRecorder{}

	return &fixture{
		store:   store,
		repo:    repo,
		backend: b,
		sleeper: sleeper,
		service: upload.NewService(cfg, repo, upload.WithSleep(sleeper.Sleep), upload.WithHTTPClient(b.server.Client())),
	}
}

func (f *fixture) storedSession(t *testing.T) string {
	t.Helper()
	raw, err := f.store.GetItem(context.Background(), sessions.StorageKey)
	require.NoError(t, err)
	return raw
}

func requireUploadError(t *testing.T, err error, kind upload.Kind) *upload.Error {
	t.Helper()
	require.Error(t, err)
	var uerr *upload.Error
	require.ErrorAs(t, err, &uerr)
	require.Equal(t, kind, uerr.Kind, "got %s: %s", uerr.Kind, uerr.Message)
	return uerr
}
