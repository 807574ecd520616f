package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/auth"
	"storefront/internal/auth/credentials"
	"storefront/internal/auth/provider"
	"storefront/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubProvider struct{}

func (stubProvider) Name() string { return "stub" }

func (stubProvider) AuthCodeURL(state, challenge string) string {
	return "https://idp.example/auth?state=" + url.QueryEscape(state) +
		"&code_challenge=" + url.QueryEscape(challenge)
}

func (stubProvider) ExchangeCode(_ context.Context, code, verifier string) (*auth.Identity, error) {
	return &auth.Identity{Provider: "stub", ProviderUserID: code + ":" + verifier, Email: "a@example.com"}, nil
}

type stubResolver struct{ seen *auth.Identity }

func (r *stubResolver) Resolve(_ context.Context, id *auth.Identity) (string, error) {
	r.seen = id
	return "customer-oidc", nil
}

type fixture struct {
	router   *gin.Engine
	sessions *session.MemoryStore
	resolver *stubResolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		sessions: session.NewMemoryStore(),
		resolver: &stubResolver{},
	}
	h := NewHandler(Deps{
		Providers:    provider.NewRegistry(stubProvider{}),
		Resolver:     f.resolver,
		Credentials:  credentials.NewMemoryService(),
		SessionStore: f.sessions,
		Policy:       session.Policy{IdleTTL: time.Hour, AbsoluteTTL: 24 * time.Hour},
	})
	f.router = gin.New()
	h.RegisterRoutes(f.router)
	return f
}

func (f *fixture) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestRegisterThenLoginRotatesSessionAndKeepsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := f.do(jsonRequest(http.MethodPost, "/auth/register",
		`{"name":"Ana","login":"ana","password":"s3cret-pass"}`))
	require.Equal(t, http.StatusCreated, rec.Code)
	registered := cookieNamed(rec, session.CookieName)
	require.NotNil(t, registered)

	// an anonymous session with a cart in it
	anon, err := session.New(time.Now(), session.Policy{IdleTTL: time.Hour, AbsoluteTTL: time.Hour})
	require.NoError(t, err)
	anon.Cart = map[int64]int{7: 2}
	require.NoError(t, f.sessions.Create(ctx, anon))

	rec = f.do(jsonRequest(http.MethodPost, "/auth/login", `{"login":"ana","password":"s3cret-pass"}`),
		&http.Cookie{Name: session.CookieName, Value: anon.SessionID})
	require.Equal(t, http.StatusOK, rec.Code)

	c := cookieNamed(rec, session.CookieName)
	require.NotNil(t, c)
	assert.NotEqual(t, anon.SessionID, c.Value)

	old, err := f.sessions.Get(ctx, anon.SessionID)
	require.NoError(t, err)
	assert.Nil(t, old, "pre-login session is dropped")

	sess, err := f.sessions.Get(ctx, c.Value)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.True(t, sess.Authenticated())
	assert.Equal(t, map[int64]int{7: 2}, sess.Cart)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusCreated, f.do(jsonRequest(http.MethodPost, "/auth/register",
		`{"name":"Ana","login":"ana","password":"s3cret-pass"}`)).Code)

	rec := f.do(jsonRequest(http.MethodPost, "/auth/login", `{"login":"ana","password":"nope-nope"}`))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, cookieNamed(rec, session.CookieName))
}

func TestRegisterErrors(t *testing.T) {
	f := newFixture(t)
	body := `{"name":"Ana","login":"ana","password":"s3cret-pass"}`
	require.Equal(t, http.StatusCreated, f.do(jsonRequest(http.MethodPost, "/auth/register", body)).Code)

	assert.Equal(t, http.StatusConflict, f.do(jsonRequest(http.MethodPost, "/auth/register", body)).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(jsonRequest(http.MethodPost, "/auth/register",
		`{"name":"Bo","login":"bo","password":"short"}`)).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(jsonRequest(http.MethodPost, "/auth/register", `{`)).Code)
}

func TestLogoutDeletesSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := session.New(time.Now(), session.Policy{IdleTTL: time.Hour, AbsoluteTTL: time.Hour})
	require.NoError(t, err)
	sess.CustomerID = "c-1"
	sess.Cart = map[int64]int{1: 1}
	require.NoError(t, f.sessions.Create(ctx, sess))

	rec := f.do(httptest.NewRequest(http.MethodPost, "/auth/logout", nil),
		&http.Cookie{Name: session.CookieName, Value: sess.SessionID})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	cleared := cookieNamed(rec, session.CookieName)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	got, err := f.sessions.Get(ctx, sess.SessionID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// idempotent without a cookie
	assert.Equal(t, http.StatusNoContent, f.do(httptest.NewRequest(http.MethodPost, "/auth/logout", nil)).Code)
}

func TestOAuthFlow(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/oauth/login/stub", nil))
	require.Equal(t, http.StatusFound, rec.Code)

	state := cookieNamed(rec, stateCookieName)
	verifier := cookieNamed(rec, pkceCookieName)
	require.NotNil(t, state)
	require.NotNil(t, verifier)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, state.Value, loc.Query().Get("state"))
	assert.Equal(t, pkceChallenge(verifier.Value), loc.Query().Get("code_challenge"))

	cb := httptest.NewRequest(http.MethodGet, "/oauth/callback/stub?code=abc&state="+url.QueryEscape(state.Value), nil)
	rec = f.do(cb, state, verifier)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, f.resolver.seen)
	assert.Equal(t, "abc:"+verifier.Value, f.resolver.seen.ProviderUserID)

	c := cookieNamed(rec, session.CookieName)
	require.NotNil(t, c)
	sess, err := f.sessions.Get(context.Background(), c.Value)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "customer-oidc", sess.CustomerID)
}

func TestOAuthCallbackRejectsBadState(t *testing.T) {
	f := newFixture(t)

	cb := httptest.NewRequest(http.MethodGet, "/oauth/callback/stub?code=abc&state=forged", nil)
	rec := f.do(cb, &http.Cookie{Name: stateCookieName, Value: "real"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, f.resolver.seen)

	assert.Equal(t, http.StatusNotFound,
		f.do(httptest.NewRequest(http.MethodGet, "/oauth/login/github", nil)).Code)
}
