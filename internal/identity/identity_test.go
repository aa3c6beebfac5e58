package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/hackfund/server/internal/store"
)

func newTestRepo(t *testing.T) store.Repository {
	t.Helper()
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "identity.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestMiddlewareAssignsAnonymousIdentity(t *testing.T) {
	t.Parallel()
	repo := newTestRepo(t)

	var seen string
	h := Middleware(repo, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if !isValidAnonID(seen) {
		t.Fatalf("handler saw user ID %q, want anon_<32 hex>", seen)
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == AnonCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("anon cookie not set")
	}
	if cookie.Value != seen {
		t.Errorf("cookie value %q != context user ID %q", cookie.Value, seen)
	}
	if !cookie.HttpOnly {
		t.Error("cookie should be HttpOnly")
	}

	// A profile row is created on first contact.
	user, err := repo.GetUser(context.Background(), seen)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if user == nil {
		t.Fatal("middleware should create a profile row")
	}
}

func TestMiddlewareReusesValidCookie(t *testing.T) {
	t.Parallel()
	repo := newTestRepo(t)

	const existing = "anon_0123456789abcdef0123456789abcdef"
	var seen string
	h := Middleware(repo, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AnonCookieName, Value: existing})
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen != existing {
		t.Errorf("user ID = %q, want the existing cookie value", seen)
	}
}

func TestMiddlewareRejectsMalformedCookie(t *testing.T) {
	t.Parallel()
	repo := newTestRepo(t)

	var seen string
	h := Middleware(repo, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AnonCookieName, Value: "anon_../../etc/passwd"})
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen == "anon_../../etc/passwd" {
		t.Error("malformed cookie value must not be trusted")
	}
	if !isValidAnonID(seen) {
		t.Errorf("a fresh ID should be minted, got %q", seen)
	}
}

func TestGenerateAnonID(t *testing.T) {
	t.Parallel()

	a, err := generateAnonID()
	if err != nil {
		t.Fatalf("generateAnonID: %v", err)
	}
	b, err := generateAnonID()
	if err != nil {
		t.Fatalf("generateAnonID: %v", err)
	}
	if !isValidAnonID(a) || !isValidAnonID(b) {
		t.Errorf("ids %q, %q do not match the expected shape", a, b)
	}
	if a == b {
		t.Error("ids should be unique")
	}
}

func TestWithUserIDRoundtrip(t *testing.T) {
	t.Parallel()

	ctx := WithUserID(context.Background(), "anon_x")
	if got := UserIDFromContext(ctx); got != "anon_x" {
		t.Errorf("UserIDFromContext = %q", got)
	}
	if got := UserIDFromContext(context.Background()); got != "" {
		t.Errorf("empty context returned %q", got)
	}
}

func TestAnonCookieAttributes(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	setAnonCookie(rec, "anon_x", false)
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %d", len(cookies))
	}
	c := cookies[0]
	if !c.Secure {
		t.Error("production cookie should be Secure")
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v", c.SameSite)
	}
	if c.Expires.Before(time.Now().Add(29 * 24 * time.Hour)) {
		t.Errorf("cookie expires too soon: %v", c.Expires)
	}
}
