package http

import (
	"errors"
	"net/http"

	"aguin/internal/auth"
	"aguin/internal/log"
)

const invalidCredentialsMessage = "Credenciales inválidas"

type loginView struct {
	Username string
	Next     string
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if sess, ok := auth.SessionFrom(r.Context()); ok && sess.IsAdmin() {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	view := loginView{Next: safeNext(r.URL.Query().Get("next"), "/admin")}
	s.render(w, r, http.StatusOK, "login", layoutSite, s.page(w, r, "Iniciar sesión", "login", view))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		http.Error(w, "Solicitud inválida", http.StatusBadRequest)
		return
	}
	view := loginView{
		Username: formValue(r, "username"),
		Next:     safeNext(r.PostFormValue("next"), "/admin"),
	}

	user, err := s.deps.Auth.Login(r.Context(), view.Username, r.PostFormValue("password"))
	if err != nil {
		data := s.page(w, r, "Iniciar sesión", "login", view)
		status := http.StatusUnauthorized
		data.Error = invalidCredentialsMessage
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			log.FromContext(r.Context()).Fail(r.Context(), "Login failed", log.OpLogin, err)
			status = http.StatusInternalServerError
			data.Error = "No se pudo iniciar sesión. Intenta nuevamente."
		}
		s.render(w, r, status, "login", layoutSite, data)
		return
	}

	token, expires, err := s.deps.Tokens.Issue(user)
	if err != nil {
		log.FromContext(r.Context()).Fail(r.Context(), "Issue session token", log.OpLogin, err)
		http.Error(w, "No se pudo iniciar sesión", http.StatusInternalServerError)
		return
	}
	auth.SetSessionCookie(w, token, expires, s.opts.CookieSecure)
	log.FromContext(r.Context()).InfoContext(r.Context(), "User signed in", log.FieldUsername, user.Username)
	http.Redirect(w, r, view.Next, http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, s.opts.CookieSecure)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
