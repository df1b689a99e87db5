package web

import (
	"bytes"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/inkpost/blog/config"
	"github.com/inkpost/blog/web/entity"
	"github.com/inkpost/blog/web/middleware"
	"github.com/inkpost/blog/web/session"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin-password"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &config.Config{
		Port: 8080,
		Database: &config.DatabaseConfig{
			Type:   config.DatabaseTypeSQLite,
			SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "blog.db")},
		},
		Secret:                 "test secret",
		SessionMaxAge:          time.Hour,
		SessionIdle:            30 * time.Minute,
		CookieSecure:           false,
		AdminEmail:             adminEmail,
		AdminPassword:          adminPassword,
		LoginAttemptsPerMinute: 5,
		AuditRetentionDays:     90,
	}
	server := NewServer(cfg)
	require.NoError(t, server.Init())
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = server.Stop()
	})
	return ts
}

type envelope struct {
	Success bool            `json:"success"`
	Msg     string          `json:"msg"`
	Obj     json.RawMessage `json:"obj"`
}

type testClient struct {
	t    *testing.T
	base string
	http *http.Client
	csrf string
}

func newClient(t *testing.T, ts *httptest.Server) *testClient {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testClient{
		t:    t,
		base: ts.URL,
		http: &http.Client{
			Jar: jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *testClient) do(method, path string, body io.Reader, contentType string) *http.Response {
	c.t.Helper()
	req, err := http.NewRequest(method, c.base+path, body)
	require.NoError(c.t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.csrf != "" {
		req.Header.Set(middleware.CSRFHeader, c.csrf)
	}
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (c *testClient) form(method, path string, values url.Values) *http.Response {
	return c.do(method, path, strings.NewReader(values.Encode()), "application/x-www-form-urlencoded")
}

func (c *testClient) json(method, path string, v any) (*http.Response, envelope) {
	c.t.Helper()
	var body io.Reader
	if v != nil {
		data, err := json.Marshal(v)
		require.NoError(c.t, err)
		body = bytes.NewReader(data)
	}
	resp := c.do(method, path, body, "application/json")
	return resp, decode(c.t, resp)
}

func decode(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

// me fetches the identity and remembers the CSRF token.
func (c *testClient) me() entity.Identity {
	c.t.Helper()
	resp := c.do(http.MethodGet, "/me", nil, "")
	require.Equal(c.t, http.StatusOK, resp.StatusCode)
	env := decode(c.t, resp)
	var identity entity.Identity
	require.NoError(c.t, json.Unmarshal(env.Obj, &identity))
	c.csrf = identity.CSRFToken
	return identity
}

func (c *testClient) register(email, name, password string) *http.Response {
	c.me()
	return c.form(http.MethodPost, "/register", url.Values{"email": {email}, "name": {name}, "password": {password}})
}

func (c *testClient) login(email, password string) *http.Response {
	c.me()
	return c.form(http.MethodPost, "/login", url.Values{"email": {email}, "password": {password}})
}

func (c *testClient) sessionCookie() *http.Cookie {
	u, _ := url.Parse(c.base)
	for _, ck := range c.http.Jar.Cookies(u) {
		if ck.Name == session.CookieName {
			return ck
		}
	}
	return nil
}

func countPosts(t *testing.T, c *testClient) int {
	t.Helper()
	resp, env := c.json(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var posts []map[string]any
	require.NoError(t, json.Unmarshal(env.Obj, &posts))
	return len(posts)
}

var samplePost = map[string]string{
	"title":    "Hello",
	"subtitle": "World",
	"imgUrl":   "https://example.com/a.png",
	"body":     "<p>hi</p>",
}

func TestRegisterLogsIn(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t, ts)

	assert.False(t, c.me().Authenticated)

	resp := c.register("ann@example.com", "Ann", "correct horse")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	require.NotNil(t, c.sessionCookie())

	id := c.me()
	assert.True(t, id.Authenticated)
	assert.Equal(t, "ann@example.com", id.Email)
	assert.Equal(t, "user", id.Role)
	assert.Equal(t, []string{"Welcome, Ann!"}, id.Flashes)

	// flashes are shown once
	assert.Empty(t, c.me().Flashes)
}

func TestRegisterDuplicateRedirectsToLogin(t *testing.T) {
	ts := newTestServer(t)
	first := newClient(t, ts)
	require.Equal(t, http.StatusSeeOther, first.register("ann@example.com", "Ann", "correct horse").StatusCode)

	second := newClient(t, ts)
	resp := second.register("ANN@example.com", "Impostor", "other password")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	id := second.me()
	assert.False(t, id.Authenticated)
	require.Len(t, id.Flashes, 1)
	assert.Contains(t, id.Flashes[0], "already signed up")

	resp, env := second.json(http.MethodPost, "/register", map[string]string{
		"email": "ann@example.com", "name": "Impostor", "password": "other password",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.False(t, env.Success)
	assert.JSONEq(t, `{"redirect":"/login"}`, string(env.Obj))
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	ts := newTestServer(t)
	owner := newClient(t, ts)
	require.Equal(t, http.StatusSeeOther, owner.register("bea@example.com", "Bea", "correct horse").StatusCode)

	c := newClient(t, ts)
	c.me()
	unknownResp, unknown := c.json(http.MethodPost, "/login", map[string]string{"email": "nobody@example.com", "password": "correct horse"})
	wrongResp, wrong := c.json(http.MethodPost, "/login", map[string]string{"email": "bea@example.com", "password": "wrong horse"})

	assert.Equal(t, http.StatusUnauthorized, unknownResp.StatusCode)
	assert.Equal(t, unknownResp.StatusCode, wrongResp.StatusCode)
	assert.Equal(t, unknown, wrong)
	assert.False(t, c.me().Authenticated)

	resp := c.login("nobody@example.com", "x")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	resp = c.login("bea@example.com", "x")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	assert.Nil(t, c.sessionCookie())
}

func TestLogoutInvalidatesToken(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t, ts)
	require.Equal(t, http.StatusSeeOther, c.login(adminEmail, adminPassword).StatusCode)
	stolen := c.sessionCookie()
	require.NotNil(t, stolen)

	c.me()
	resp := c.do(http.MethodPost, "/logout", nil, "")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.False(t, c.me().Authenticated)

	// replaying the old cookie does not bring the session back
	replay := newClient(t, ts)
	u, _ := url.Parse(ts.URL)
	replay.http.Jar.SetCookies(u, []*http.Cookie{{Name: stolen.Name, Value: stolen.Value, Path: "/"}})
	assert.False(t, replay.me().Authenticated)

	// logging out again, or anonymously, is harmless
	resp = newClient(t, ts).do(http.MethodGet, "/logout", nil, "")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestLoginRotatesToken(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t, ts)
	require.Equal(t, http.StatusSeeOther, c.register("cid@example.com", "Cid", "correct horse").StatusCode)
	before := c.sessionCookie()
	require.NotNil(t, before)

	require.Equal(t, http.StatusSeeOther, c.login(adminEmail, adminPassword).StatusCode)
	after := c.sessionCookie()
	require.NotNil(t, after)
	assert.NotEqual(t, before.Value, after.Value)
	assert.Equal(t, "admin", c.me().Role)

	replay := newClient(t, ts)
	u, _ := url.Parse(ts.URL)
	replay.http.Jar.SetCookies(u, []*http.Cookie{{Name: before.Name, Value: before.Value, Path: "/"}})
	assert.False(t, replay.me().Authenticated)
}

func TestTamperedCookieIsAnonymous(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t, ts)
	require.Equal(t, http.StatusSeeOther, c.login(adminEmail, adminPassword).StatusCode)
	ck := c.sessionCookie()
	require.NotNil(t, ck)

	forged := newClient(t, ts)
	u, _ := url.Parse(ts.URL)
	forged.http.Jar.SetCookies(u, []*http.Cookie{{Name: ck.Name, Value: ck.Value[:len(ck.Value)-4] + "AAAA", Path: "/"}})
	assert.False(t, forged.me().Authenticated)
}

func TestAnonymousCannotMutate(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t, ts)
	c.me()

	resp, env := c.json(http.MethodPost, "/posts", samplePost)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.False(t, env.Success)

	resp, _ = c.json(http.MethodPost, "/posts/1/comments", map[string]string{"body": "hi"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = c.json(http.MethodDelete, "/posts/1", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	assert.Equal(t, 0, countPosts(t, c))
}

func TestNonAdminIsForbidden(t *testing.T) {
	ts := newTestServer(t)
	admin := newClient(t, ts)
	require.Equal(t, http.StatusSeeOther, admin.login(adminEmail, adminPassword).StatusCode)
	admin.me()
	resp, env := admin.json(http.MethodPost, "/posts", samplePost)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var post struct {
		Id int `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Obj, &post))
	path := "/posts/" + strconv.Itoa(post.Id)

	user := newClient(t, ts)
	require.Equal(t, http.StatusSeeOther, user.register("dan@example.com", "Dan", "correct horse").StatusCode)
	user.me()

	resp, _ = user.json(http.MethodPost, "/posts", map[string]string{"title": "Mine", "subtitle": "s", "imgUrl": "https://e.com/x.png", "body": "b"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = user.json(http.MethodPut, path, samplePost)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = user.json(http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = user.json(http.MethodGet, "/admin/audit", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 1, countPosts(t, user))

	// commenting only needs a login
	resp, _ = user.json(http.MethodPost, path+"/comments", map[string]string{"body": "first!"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, env = user.json(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var shown struct {
		Comments []struct {
			Text       string `json:"text"`
			AuthorName string `json:"authorName"`
		} `json:"comments"`
	}
	require.NoError(t, json.Unmarshal(env.Obj, &shown))
	require.Len(t, shown.Comments, 1)
	assert.Equal(t, "Dan", shown.Comments[0].AuthorName)
}

func TestAdminManagesPosts(t *testing.T) {
	ts := newTestServer(t)
	admin := newClient(t, ts)
	require.Equal(t, http.StatusSeeOther, admin.login(adminEmail, adminPassword).StatusCode)
	admin.me()

	resp, env := admin.json(http.MethodPost, "/posts", samplePost)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var post struct {
		Id int `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Obj, &post))
	path := "/posts/" + strconv.Itoa(post.Id)

	resp, _ = admin.json(http.MethodPost, "/posts", samplePost)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	edited := map[string]string{"title": "Hello again", "subtitle": "s", "imgUrl": "https://e.com/x.png", "body": "b"}
	resp, _ = admin.json(http.MethodPut, path, edited)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// the form fallback for browsers without PUT/DELETE
	resp = admin.form(http.MethodPost, path+"/edit", url.Values{
		"title": {"Hello, form"}, "subtitle": {"s"}, "imgUrl": {"https://e.com/x.png"}, "body": {"b"},
	})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, path, resp.Header.Get("Location"))

	resp = admin.form(http.MethodPost, path+"/delete", url.Values{})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, 0, countPosts(t, admin))

	resp, _ = admin.json(http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, env = admin.json(http.MethodGet, "/admin/audit?action=CREATE", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Obj, &page))
	assert.Equal(t, 1, page.Total)

	resp, env = admin.json(http.MethodGet, "/admin/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var status struct {
		Version  string `json:"version"`
		AppStats struct {
			Goroutines int `json:"goroutines"`
		} `json:"appStats"`
	}
	require.NoError(t, json.Unmarshal(env.Obj, &status))
	assert.NotEmpty(t, status.Version)
	assert.Positive(t, status.AppStats.Goroutines)
}

func TestMutationsNeedCSRFToken(t *testing.T) {
	ts := newTestServer(t)
	admin := newClient(t, ts)
	require.Equal(t, http.StatusSeeOther, admin.login(adminEmail, adminPassword).StatusCode)

	admin.csrf = ""
	resp, _ := admin.json(http.MethodPost, "/posts", samplePost)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	admin.csrf = "forged"
	resp, _ = admin.json(http.MethodPost, "/posts", samplePost)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	assert.Equal(t, 0, countPosts(t, admin))

	// login itself is protected too
	fresh := newClient(t, ts)
	resp = fresh.form(http.MethodPost, "/login", url.Values{"email": {adminEmail}, "password": {adminPassword}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Nil(t, fresh.sessionCookie())
}

func TestLoginThrottle(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t, ts)
	c.me()

	for i := 0; i < 5; i++ {
		resp, _ := c.json(http.MethodPost, "/login", map[string]string{"email": adminEmail, "password": "wrong"})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
	resp, _ := c.json(http.MethodPost, "/login", map[string]string{"email": adminEmail, "password": adminPassword})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Nil(t, c.sessionCookie())
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["ready"])
	assert.Equal(t, "ok", body["database"])
	assert.Equal(t, "ok", body["redis"])
}

func TestDeriveCookieKeys(t *testing.T) {
	a, err := deriveCookieKeys("secret")
	require.NoError(t, err)
	b, err := deriveCookieKeys("secret")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a.sessionHash, 64)
	assert.Len(t, a.sessionBlock, 32)
	assert.NotEqual(t, a.sessionHash, a.flashHash)

	r1, err := deriveCookieKeys("")
	require.NoError(t, err)
	r2, err := deriveCookieKeys("")
	require.NoError(t, err)
	assert.NotEqual(t, r1.sessionHash, r2.sessionHash)
}

func TestTwoFactorRoutes(t *testing.T) {
	ts := newTestServer(t)

	anon := newClient(t, ts)
	anon.me()
	resp, _ := anon.json(http.MethodPost, "/account/2fa", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	c := newClient(t, ts)
	require.Equal(t, http.StatusSeeOther, c.register("eve@example.com", "Eve", "correct horse").StatusCode)
	c.me()

	resp, env := c.json(http.MethodPost, "/account/2fa", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var enabled struct {
		Secret string `json:"secret"`
		URI    string `json:"uri"`
	}
	require.NoError(t, json.Unmarshal(env.Obj, &enabled))
	assert.NotEmpty(t, enabled.Secret)
	assert.True(t, strings.HasPrefix(enabled.URI, "otpauth://totp/"))
	assert.True(t, c.me().TwoFactor)

	resp, _ = c.json(http.MethodPost, "/account/2fa", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = c.json(http.MethodDelete, "/account/2fa", map[string]string{"code": "000000x"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.True(t, c.me().TwoFactor)

	// a password alone no longer logs in
	other := newClient(t, ts)
	other.me()
	resp, _ = other.json(http.MethodPost, "/login", map[string]string{"email": "eve@example.com", "password": "correct horse"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegisterRejectsOverlongPassword(t *testing.T) {
	ts := newTestServer(t)
	c := newClient(t, ts)
	c.me()

	resp, env := c.json(http.MethodPost, "/register", map[string]string{
		"email": "gus@example.com", "name": "Gus", "password": strings.Repeat("é", 40),
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, env.Success)
	assert.False(t, c.me().Authenticated)
}

func TestBlankPostFieldsAreRejected(t *testing.T) {
	ts := newTestServer(t)
	admin := newClient(t, ts)
	require.Equal(t, http.StatusSeeOther, admin.login(adminEmail, adminPassword).StatusCode)
	admin.me()

	resp, _ := admin.json(http.MethodPost, "/posts", map[string]string{
		"title": "   ", "subtitle": "s", "imgUrl": "https://e.com/x.png", "body": "b",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, countPosts(t, admin))
}
