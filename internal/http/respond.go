package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"unicode"
	"unicode/utf8"

	"aguin/internal/core"
	"aguin/internal/log"
	"aguin/internal/media"
	"aguin/internal/store"
)

// userMessage maps err to a status code and a message that is safe to show.
// Unexpected errors get fallback.
func userMessage(err error, fallback string) (int, string) {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, capitalize(verr.Message)
	case errors.Is(err, errBadID), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "El registro solicitado no existe."
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict, "El registro está en uso por otros datos y no se puede modificar."
	case errors.Is(err, media.ErrUploadsDisabled):
		return http.StatusUnprocessableEntity, "La carga de fotografías no está configurada. Usa una URL."
	case errors.Is(err, media.ErrUnsupportedFormat):
		return http.StatusUnprocessableEntity, "Formato de imagen no soportado."
	default:
		return http.StatusInternalServerError, fallback
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// finish completes an admin form POST. htmx requests get notification
// triggers and an HX-Redirect; plain requests get a flash and a 303 to back.
func (s *Server) finish(w http.ResponseWriter, r *http.Request, back string, err error, success, fallback string) {
	if err != nil {
		status, msg := userMessage(err, fallback)
		if status == http.StatusInternalServerError {
			log.FromContext(r.Context()).Fail(r.Context(), fallback, r.Method+" "+r.URL.Path, err)
		}
		if isHTMX(r) {
			NewHTMXResponse().
				Status(status).
				TriggerErrorNotification(msg).
				Write(w)
			return
		}
		setFlash(w, NotificationError, msg, s.opts.CookieSecure)
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	if isHTMX(r) {
		NewHTMXResponse().
			TriggerSuccessNotification(success).
			TriggerDashboardRefresh().
			TriggerFormReset().
			Redirect(back).
			Write(w)
		return
	}
	setFlash(w, NotificationSuccess, success, s.opts.CookieSecure)
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Error string `json:"error"`
}
