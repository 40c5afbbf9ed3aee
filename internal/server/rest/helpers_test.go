package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/swengineer/internal/common"
	"github.com/dmitrijs2005/swengineer/internal/logging"
	"github.com/dmitrijs2005/swengineer/internal/server/config"
	"github.com/dmitrijs2005/swengineer/internal/server/mail"
	"github.com/dmitrijs2005/swengineer/internal/server/oauth"
	"github.com/dmitrijs2005/swengineer/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/swengineer/internal/server/services"
)

const testSecret = "test-secret"

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

var (
	linkToken = regexp.MustCompile(`/(?:register|reset)/([0-9a-f]+)`)
	linkURL   = regexp.MustCompile(`https?://\S+`)
)

func (f *fakeMailer) lastToken(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent, "no mail sent")
	m := linkToken.FindStringSubmatch(f.sent[len(f.sent)-1].Text)
	require.Len(t, m, 2)
	return m[1]
}

// lastLink returns the path of the link in the most recent message.
func (f *fakeMailer) lastLink(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent, "no mail sent")
	raw := linkURL.FindString(f.sent[len(f.sent)-1].Text)
	require.NotEmpty(t, raw, "no link in mail")
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u.Path
}

type fakeProvider struct {
	id      oauth.Identity
	err     error
	gotCode string
}

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + url.QueryEscape(state)
}

func (p *fakeProvider) Exchange(_ context.Context, code string) (oauth.Identity, error) {
	p.gotCode = code
	return p.id, p.err
}

// pingFailing is a healthy store that reports itself unreachable.
type pingFailing struct {
	*repomanager.MemoryRepositoryManager
}

func (pingFailing) Ping(context.Context) error { return errors.New("connection refused") }

type env struct {
	srv     *Server
	handler http.Handler
	store   *repomanager.MemoryRepositoryManager
	mailer  *fakeMailer
	google  *fakeProvider
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:     testSecret,
		SessionTTL:    24 * time.Hour,
		SaltRounds:    bcrypt.MinCost,
		CryptoSize:    16,
		ResetTokenTTL: time.Hour,
		PublicURL:     "https://swengineer.dev",
	}
}

type envOption func(*Deps, *env)

func withGoogle() envOption {
	return func(d *Deps, e *env) {
		e.google = &fakeProvider{}
		d.Google = e.google
	}
}

func withStore(m repomanager.RepositoryManager) envOption {
	return func(d *Deps, _ *env) { d.Store = m }
}

func withProduction() envOption {
	return func(d *Deps, _ *env) { d.Production = true }
}

func newEnv(t *testing.T, opts ...envOption) *env {
	t.Helper()

	e := &env{
		store:  repomanager.NewMemoryRepositoryManager(),
		mailer: &fakeMailer{},
	}
	d := Deps{Store: e.store, Logger: logging.Discard()}
	for _, o := range opts {
		o(&d, e)
	}
	d.Accounts = services.NewAccountService(d.Store, testConfig(), e.mailer, d.Logger)

	e.srv = NewServer(d)
	e.handler = e.srv.Handler()
	return e
}

func (e *env) do(t *testing.T, method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req := newRequest(method, target, body)
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func newRequest(method, target, body string) *http.Request {
	if body == "" {
		return httptest.NewRequest(method, target, nil)
	}
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// signup registers and verifies an account through the API.
func (e *env) signup(t *testing.T, email, password string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/register", `{"email":"`+email+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = e.do(t, http.MethodGet, e.mailer.lastLink(t), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

// login signs in and returns the session cookie.
func (e *env) login(t *testing.T, email, password string) *http.Cookie {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/login", `{"email":"`+email+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	c := cookieNamed(rec, common.SessionCookieName)
	require.NotNil(t, c)
	return c
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body messageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Message
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
