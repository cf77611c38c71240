package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"aguin/internal/core"
	"aguin/internal/log"
)

// CookieName is the session cookie.
const CookieName = "aguin_session"

// Session is the authenticated user of a request.
type Session struct {
	UserID   int64
	Username string
	Role     core.Role
}

func (s Session) IsAdmin() bool { return s.Role == core.RoleAdmin }

type sessionKey struct{}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session stored by Sessions, if any.
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}

// Sessions resolves the session cookie into a Session on the request
// context. Invalid or expired cookies are cleared and the request continues
// anonymously.
func Sessions(issuer *TokenIssuer, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := issuer.Parse(cookie.Value)
			if err != nil {
				log.FromContext(r.Context()).DebugContext(r.Context(), "Discarding session cookie", log.FieldError, err)
				ClearSessionCookie(w, secure)
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithSession(r.Context(), Session{
				UserID:   claims.UserID(),
				Username: claims.Username,
				Role:     claims.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole lets through sessions with role. Anonymous requests are sent
// to loginPath with the original path in "next"; signed-in users without
// the role are sent home. When users is set the role is re-read from the
// store, and sessions of deleted users count as anonymous.
func RequireRole(role core.Role, loginPath string, users *Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			toLogin := func() {
				target := loginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, target, http.StatusSeeOther)
			}

			s, ok := SessionFrom(r.Context())
			if !ok {
				toLogin()
				return
			}
			if users != nil {
				current, err := users.Current(r.Context(), s)
				if errors.Is(err, ErrSessionRevoked) {
					log.FromContext(r.Context()).WarnContext(r.Context(), "Session of removed user",
						log.FieldUsername, s.Username)
					toLogin()
					return
				}
				if err != nil {
					log.FromContext(r.Context()).Fail(r.Context(), "Session check failed", log.OpRead, err)
					http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
					return
				}
				s = current
			}
			if s.Role != role {
				log.FromContext(r.Context()).WarnContext(r.Context(), "Access denied",
					log.FieldUsername, s.Username, "role", s.Role, "required", role)
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

// SetSessionCookie writes the session token.
func SetSessionCookie(w http.ResponseWriter, token string, expires time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
