package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aguin/internal/core"
	"aguin/internal/log"
	"aguin/internal/store"
	"aguin/internal/store/memory"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestAuthenticator_Login(t *testing.T) {
	ctx := context.Background()
	users := memory.New()
	_, err := CreateUser(ctx, users, "Admin", "s3cret-pass", core.RoleAdmin)
	require.NoError(t, err)

	a := NewAuthenticator(users, log.Discard())

	u, err := a.Login(ctx, " admin ", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, core.RoleAdmin, u.Role)

	_, err = a.Login(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = a.Login(ctx, "nadie", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = a.Login(ctx, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	users := memory.New()

	_, err := CreateUser(ctx, users, "ana", "corta", core.RoleViewer)
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = CreateUser(ctx, users, "ana", "larga-suficiente", "owner")
	assert.ErrorIs(t, err, core.ErrValidation)

	u, err := CreateUser(ctx, users, "ana", "larga-suficiente", core.RoleViewer)
	require.NoError(t, err)
	assert.NotEqual(t, "larga-suficiente", u.PasswordHash)

	_, err = CreateUser(ctx, users, "ANA", "larga-suficiente", core.RoleViewer)
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	users := memory.New()

	created, err := EnsureAdmin(ctx, users, "admin", "password1")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = EnsureAdmin(ctx, users, "admin", "otra-clave")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestTokenIssuer(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	issuer := NewTokenIssuer(testSecret, time.Hour)
	issuer.now = func() time.Time { return now }

	token, expires, err := issuer.Issue(core.User{ID: 7, Username: "admin", Role: core.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), expires)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID())
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, core.RoleAdmin, claims.Role)
	assert.NotEmpty(t, claims.ID)

	now = now.Add(2 * time.Hour)
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")

	other := NewTokenIssuer(strings.Repeat("x", 32), time.Hour)
	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong secret")
}

func TestTokenIssuer_RejectsOtherAlgorithms(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	claims := Claims{Role: core.RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "aguin",
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = issuer.Parse(hs512)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.Parse(none)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRequireRole(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, _ := SessionFrom(r.Context())
		_, _ = w.Write([]byte("hola " + s.Username))
	})
	h := Sessions(issuer, false)(RequireRole(core.RoleAdmin, "/login", nil)(ok))

	cookieFor := func(role core.Role) *http.Cookie {
		token, _, err := issuer.Issue(core.User{ID: 1, Username: "u", Role: role})
		require.NoError(t, err)
		return &http.Cookie{Name: CookieName, Value: token}
	}

	tests := []struct {
		name     string
		cookie   *http.Cookie
		status   int
		location string
	}{
		{"anonymous", nil, http.StatusSeeOther, "/login?next=%2Fadmin%2Freservas"},
		{"garbage cookie", &http.Cookie{Name: CookieName, Value: "nope"}, http.StatusSeeOther, "/login?next=%2Fadmin%2Freservas"},
		{"viewer", cookieFor(core.RoleViewer), http.StatusSeeOther, "/"},
		{"admin", cookieFor(core.RoleAdmin), http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/reservas", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))
			if tt.status == http.StatusOK {
				assert.Equal(t, "hola u", rec.Body.String())
			}
		})
	}
}

func TestRequireRole_RechecksStoredUser(t *testing.T) {
	ctx := context.Background()
	users := memory.New()
	issuer := NewTokenIssuer(testSecret, time.Hour)
	authn := NewAuthenticator(users, log.Discard())
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := Sessions(issuer, false)(RequireRole(core.RoleAdmin, "/login", authn)(ok))

	admin, err := CreateUser(ctx, users, "ana", "contraseña-segura-1", core.RoleAdmin)
	require.NoError(t, err)
	viewer, err := CreateUser(ctx, users, "luis", "contraseña-segura-2", core.RoleViewer)
	require.NoError(t, err)

	cookieFor := func(u core.User) *http.Cookie {
		token, _, err := issuer.Issue(u)
		require.NoError(t, err)
		return &http.Cookie{Name: CookieName, Value: token}
	}
	demoted := viewer
	demoted.Role = core.RoleAdmin

	tests := []struct {
		name     string
		cookie   *http.Cookie
		status   int
		location string
	}{
		{"stored admin", cookieFor(admin), http.StatusOK, ""},
		{"role changed since login", cookieFor(demoted), http.StatusSeeOther, "/"},
		{"user removed", cookieFor(core.User{ID: 999, Username: "ghost", Role: core.RoleAdmin}), http.StatusSeeOther, "/login?next=%2Fadmin"},
		{"name reused by another account", cookieFor(core.User{ID: admin.ID + 1000, Username: "ana", Role: core.RoleAdmin}), http.StatusSeeOther, "/login?next=%2Fadmin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.AddCookie(tt.cookie)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))
		})
	}
}

func TestSessionCookies(t *testing.T) {
	rec := httptest.NewRecorder()
	SetSessionCookie(rec, "tok", time.Now().Add(time.Hour), true)
	ClearSessionCookie(rec, true)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	assert.Equal(t, "tok", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, -1, cookies[1].MaxAge)
}
