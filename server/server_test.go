package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-profile-uploader/auth"
	"github.com/jrsteele09/go-profile-uploader/internal/config"
	apperrors "github.com/jrsteele09/go-profile-uploader/internal/errors"
	"github.com/jrsteele09/go-profile-uploader/server"
	"github.com/jrsteele09/go-profile-uploader/server/picturestore"
	"github.com/jrsteele09/go-profile-uploader/sessions"
	fakesessionstore "github.com/jrsteele09/go-profile-uploader/sessions/repofakes"
	"github.com/jrsteele09/go-profile-uploader/tenants"
	tokenfakerepo "github.com/jrsteele09/go-profile-uploader/token/repofake"
	"github.com/jrsteele09/go-profile-uploader/upload"
	fakeuserrepo "github.com/jrsteele09/go-profile-uploader/users/repofake"
	"github.com/stretchr/testify/require"
)

const demoPassword = "Password123"

type testConfig struct {
	config.Config
	maxUpload int64
	rps       float64
	burst     int
}

func (testConfig) GetEnv() string          { return "TEST" }
func (testConfig) GetDemoPassword() string { return demoPassword }
func (testConfig) GetJWTSecret() string    { return "test-secret" }

func (c testConfig) GetMaxUploadBytes() int64 {
	if c.maxUpload > 0 {
		return c.maxUpload
	}
	return c.Config.GetMaxUploadBytes()
}

func (c testConfig) GetRateLimitRPS() float64 {
	if c.rps > 0 {
		return c.rps
	}
	return 1000
}

func (c testConfig) GetRateLimitBurst() int {
	if c.burst > 0 {
		return c.burst
	}
	return 1000
}

type responseBody struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func newRepos() server.Repos {
	return server.Repos{
		Users:         fakeuserrepo.NewFakeUserRepo(),
		RefreshTokens: tokenfakerepo.NewFakeTokensRepo(),
		Pictures:      picturestore.NewInMemoryPictureRepo(),
	}
}

func newTestServer(t *testing.T, cfg testConfig) *httptest.Server {
	t.Helper()
	return newTestServerWithRepos(t, cfg, newRepos())
}

func newTestServerWithRepos(t *testing.T, cfg testConfig, repos server.Repos) *httptest.Server {
	t.Helper()
	if cfg.Config == nil {
		cfg.Config = config.New()
	}
	srv, err := server.New(cfg, repos)
	require.NoError(t, err)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, req *http.Request) (int, responseBody) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body responseBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func loginRequest(t *testing.T, baseURL, email, password string) *http.Request {
	t.Helper()
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, baseURL+server.RouteAuthLogin, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func login(t *testing.T, baseURL string, role tenants.Type) string {
	t.Helper()
	status, body := do(t, loginRequest(t, baseURL, server.DemoEmail(role), demoPassword))
	require.Equal(t, http.StatusOK, status, body.Message)

	var data auth.LoginData
	require.NoError(t, json.Unmarshal(body.Data, &data))
	return data.AccessToken
}

func uploadRequest(t *testing.T, endpoint, accessToken, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename="picture"`, upload.FieldName))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPut, endpoint, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	return req
}

func profilePicURL(t *testing.T, baseURL string, role tenants.Type) string {
	t.Helper()
	route, err := tenants.Lookup(role)
	require.NoError(t, err)
	return baseURL + route.Path
}

func TestHealthcheck(t *testing.T) {
	ts := newTestServer(t, testConfig{})

	req, err := http.NewRequest(http.MethodGet, ts.URL+server.RouteHealthcheck, nil)
	require.NoError(t, err)
	req.Header.Set(server.HeaderRequestID, "req-123")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "req-123", resp.Header.Get(server.HeaderRequestID))
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t, testConfig{})

	t.Run("each demo role can log in", func(t *testing.T) {
		for _, role := range tenants.All() {
			status, body := do(t, loginRequest(t, ts.URL, server.DemoEmail(role), demoPassword))
			require.Equal(t, http.StatusOK, status)
			require.True(t, body.Success)

			var data auth.LoginData
			require.NoError(t, json.Unmarshal(body.Data, &data))
			require.Equal(t, role, data.Role)
			require.NotEmpty(t, data.AccessToken)
			require.NotEmpty(t, data.RefreshToken)
			require.Contains(t, string(data.Profile), `"profilePic":null`)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		status, body := do(t, loginRequest(t, ts.URL, server.DemoEmail(tenants.Admin), "nope"))
		require.Equal(t, http.StatusUnauthorized, status)
		require.False(t, body.Success)
	})

	t.Run("unknown user", func(t *testing.T) {
		status, _ := do(t, loginRequest(t, ts.URL, "ghost@example.com", demoPassword))
		require.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("malformed body", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, ts.URL+server.RouteAuthLogin, strings.NewReader("{"))
		require.NoError(t, err)
		status, _ := do(t, req)
		require.Equal(t, http.StatusBadRequest, status)
	})
}

func TestProfilePicAuthorization(t *testing.T) {
	ts := newTestServer(t, testConfig{})
	image := []byte("\xff\xd8\xff")

	t.Run("missing token", func(t *testing.T) {
		status, _ := do(t, uploadRequest(t, profilePicURL(t, ts.URL, tenants.Customer), "", "image/jpeg", image))
		require.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("forged token", func(t *testing.T) {
		status, _ := do(t, uploadRequest(t, profilePicURL(t, ts.URL, tenants.Customer), "a.b.c", "image/jpeg", image))
		require.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("token not in JWT format", func(t *testing.T) {
		status, body := do(t, uploadRequest(t, profilePicURL(t, ts.URL, tenants.Customer), "opaque-token", "image/jpeg", image))
		require.Equal(t, http.StatusUnauthorized, status)
		require.Equal(t, "Invalid token", body.Message)
	})

	t.Run("other tenant's endpoint", func(t *testing.T) {
		customerToken := login(t, ts.URL, tenants.Customer)
		status, body := do(t, uploadRequest(t, profilePicURL(t, ts.URL, tenants.Admin), customerToken, "image/jpeg", image))
		require.Equal(t, http.StatusForbidden, status)
		require.False(t, body.Success)
	})
}

func TestUploadAndRemove(t *testing.T) {
	ts := newTestServer(t, testConfig{maxUpload: 1024})
	accessToken := login(t, ts.URL, tenants.Provider)
	endpoint := profilePicURL(t, ts.URL, tenants.Provider)
	image := []byte("\xff\xd8\xff\xe0 provider picture")

	status, body := do(t, uploadRequest(t, endpoint, accessToken, "image/jpeg", image))
	require.Equal(t, http.StatusOK, status, body.Message)
	require.True(t, body.Success)

	var profile struct {
		Email      string  `json:"email"`
		ProfilePic *string `json:"profilePic"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &profile))
	require.Equal(t, server.DemoEmail(tenants.Provider), profile.Email)
	require.NotNil(t, profile.ProfilePic)

	picURL, err := url.Parse(*profile.ProfilePic)
	require.NoError(t, err)
	resp, err := http.Get(ts.URL + picURL.Path)
	require.NoError(t, err)
	stored := new(bytes.Buffer)
	_, err = stored.ReadFrom(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	require.Equal(t, image, stored.Bytes())

	t.Run("non image is rejected", func(t *testing.T) {
		status, _ := do(t, uploadRequest(t, endpoint, accessToken, "text/plain", []byte("hello")))
		require.Equal(t, http.StatusUnsupportedMediaType, status)
	})

	t.Run("oversized body is rejected", func(t *testing.T) {
		status, _ := do(t, uploadRequest(t, endpoint, accessToken, "image/jpeg", bytes.Repeat([]byte{0xff}, 4096)))
		require.Equal(t, http.StatusRequestEntityTooLarge, status)
	})

	t.Run("remove clears the picture and the file", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodDelete, endpoint, nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+accessToken)

		status, body := do(t, req)
		require.Equal(t, http.StatusOK, status)
		require.Contains(t, string(body.Data), `"profilePic":null`)

		resp, err := http.Get(ts.URL + picURL.Path)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestConcurrentUploadsKeepOnePicture(t *testing.T) {
	repos := newRepos()
	ts := newTestServerWithRepos(t, testConfig{}, repos)
	accessToken := login(t, ts.URL, tenants.Admin)
	endpoint := profilePicURL(t, ts.URL, tenants.Admin)

	const uploads = 8
	var (
		wg   sync.WaitGroup
		lock sync.Mutex
		urls []string
	)
	requests := make([]*http.Request, uploads)
	for i := range requests {
		requests[i] = uploadRequest(t, endpoint, accessToken, "image/png", []byte(fmt.Sprintf("picture %d", i)))
	}
	for _, req := range requests {
		wg.Add(1)
		go func(req *http.Request) {
			defer wg.Done()
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return
			}
			defer resp.Body.Close()
			var body responseBody
			if json.NewDecoder(resp.Body).Decode(&body) != nil || resp.StatusCode != http.StatusOK {
				return
			}
			var profile struct {
				ProfilePic string `json:"profilePic"`
			}
			if json.Unmarshal(body.Data, &profile) == nil {
				lock.Lock()
				urls = append(urls, profile.ProfilePic)
				lock.Unlock()
			}
		}(req)
	}
	wg.Wait()
	require.Len(t, urls, uploads)

	user, err := repos.Users.GetByEmail(server.DemoEmail(tenants.Admin))
	require.NoError(t, err)

	live := 0
	for _, u := range urls {
		picURL, err := url.Parse(u)
		require.NoError(t, err)
		_, name, _ := strings.Cut(picURL.Path, server.RouteUploadsPrefix)
		if _, err := repos.Pictures.Get(name); err == nil {
			live++
			require.Equal(t, user.ProfilePic, u)
		}
	}
	require.Equal(t, 1, live)
}

func TestLogoutRevokesToken(t *testing.T) {
	repos := newRepos()
	ts := newTestServerWithRepos(t, testConfig{}, repos)
	accessToken := login(t, ts.URL, tenants.Customer)

	user, err := repos.Users.GetByEmail(server.DemoEmail(tenants.Customer))
	require.NoError(t, err)
	_, err = repos.RefreshTokens.GetByUserID(user.ID)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.URL+server.RouteAuthLogout, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	status, _ := do(t, req)
	require.Equal(t, http.StatusOK, status)

	status, body := do(t, uploadRequest(t, profilePicURL(t, ts.URL, tenants.Customer), accessToken, "image/jpeg", []byte{1}))
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "Invalid token", body.Message)

	t.Run("refresh token is dropped", func(t *testing.T) {
		_, err := repos.RefreshTokens.GetByUserID(user.ID)
		require.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, testConfig{rps: 0.001, burst: 1})

	req, err := http.NewRequest(http.MethodGet, ts.URL+server.RouteHealthcheck, nil)
	require.NoError(t, err)
	status, _ := do(t, req)
	require.Equal(t, http.StatusOK, status)

	req, err = http.NewRequest(http.MethodGet, ts.URL+server.RouteHealthcheck, nil)
	require.NoError(t, err)
	status, _ = do(t, req)
	require.Equal(t, http.StatusTooManyRequests, status)
}

// clientConfig satisfies both the login client and the upload service
type clientConfig struct {
	baseURL string
}

func (c clientConfig) GetAPIBaseURL() string            { return c.baseURL }
func (clientConfig) GetMaxAttempts() int              { return 3 }
func (clientConfig) GetRetryDelay() time.Duration     { return 0 }
func (clientConfig) GetRequestTimeout() time.Duration { return 5 * time.Second }

func TestClientAgainstServer(t *testing.T) {
	ts := newTestServer(t, testConfig{})
	cfg := clientConfig{baseURL: ts.URL}
	store := fakesessionstore.NewFakeStore()
	repo := sessions.NewRepo(store)
	ctx := context.Background()

	_, err := auth.NewClient(cfg, repo).Login(ctx, server.DemoEmail(tenants.Admin), demoPassword)
	require.NoError(t, err)

	service := upload.NewService(cfg, repo)
	var (
		lock     sync.Mutex
		progress []int
	)
	snapshot, err := service.UploadProfilePicture(ctx, upload.BytesImage([]byte("\xff\xd8\xff admin")), tenants.Admin, func(p int) {
		lock.Lock()
		defer lock.Unlock()
		progress = append(progress, p)
	})
	require.NoError(t, err)
	lock.Lock()
	require.NotEmpty(t, progress)
	require.Equal(t, 100, progress[len(progress)-1])
	lock.Unlock()

	s, err := repo.Load(ctx)
	require.NoError(t, err)
	cached, err := s.Profile(tenants.Admin)
	require.NoError(t, err)
	require.JSONEq(t, string(snapshot), string(cached))
	require.Contains(t, string(snapshot), server.RouteUploadsPrefix)

	t.Run("wrong tenant exhausts retries", func(t *testing.T) {
		_, err := service.UploadProfilePicture(ctx, upload.BytesImage([]byte{1}), tenants.Customer, nil)
		require.Equal(t, upload.KindServerRejected, upload.KindOf(err))

		var uerr *upload.Error
		require.ErrorAs(t, err, &uerr)
		require.Equal(t, 3, uerr.Attempts)
	})

	t.Run("remove", func(t *testing.T) {
		snapshot, err := service.RemoveProfilePicture(ctx, tenants.Admin)
		require.NoError(t, err)
		require.Contains(t, string(snapshot), `"profilePic":null`)

		s, err := repo.Load(ctx)
		require.NoError(t, err)
		cached, err := s.Profile(tenants.Admin)
		require.NoError(t, err)
		require.Contains(t, string(cached), `"profilePic":null`)
	})
}
