package http

import (
	"errors"
	"net/http"

	"aguin/internal/auth"
	"aguin/internal/dashboard"
	"aguin/internal/log"
	"aguin/internal/services"
)

type dashboardView struct {
	Summary dashboard.Summary
	Error   string
}

// summaryView loads the dashboard. A failure yields the empty summary
// together with the unavailable message; it is never partially filled.
func (s *Server) summaryView(r *http.Request) dashboardView {
	summary, err := s.deps.Dashboard.Summary(r.Context(), s.now())
	if err != nil {
		log.FromContext(r.Context()).Fail(r.Context(), "Dashboard unavailable", log.OpSummarize, err)
		return dashboardView{Summary: dashboard.Empty(), Error: services.DashboardUnavailableMessage}
	}
	return dashboardView{Summary: summary}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "admin_dashboard", layoutSite,
		s.page(w, r, "Panel administrativo", "dashboard", s.summaryView(r)))
}

// handleSummaryPartial re-renders the summary block on dashboard:refresh.
func (s *Server) handleSummaryPartial(w http.ResponseWriter, r *http.Request) {
	s.renderPartial(w, r, "summary", s.summaryView(r))
}

func (s *Server) handleDashboardAPI(w http.ResponseWriter, r *http.Request) {
	summary, err := s.deps.Dashboard.Summary(r.Context(), s.now())
	if err != nil {
		log.FromContext(r.Context()).Fail(r.Context(), "Dashboard unavailable", log.OpSummarize, err)
		writeJSON(w, http.StatusServiceUnavailable, apiError{Error: services.DashboardUnavailableMessage})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleReviewAverage(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Reviews.Stats(r.Context())
	if err != nil {
		log.FromContext(r.Context()).Fail(r.Context(), "Review stats unavailable", log.OpRead, err)
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "No se pudo calcular el promedio de reseñas."})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// requireAdminAPI answers JSON instead of redirecting to the login page.
func (s *Server) requireAdminAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := auth.SessionFrom(r.Context())
		if ok && s.deps.Auth != nil {
			current, err := s.deps.Auth.Current(r.Context(), sess)
			switch {
			case errors.Is(err, auth.ErrSessionRevoked):
				ok = false
			case err != nil:
				log.FromContext(r.Context()).Fail(r.Context(), "Session check failed", log.OpRead, err)
				writeJSON(w, http.StatusServiceUnavailable, apiError{Error: services.DashboardUnavailableMessage})
				return
			default:
				sess = current
			}
		}
		if !ok {
			writeJSON(w, http.StatusUnauthorized, apiError{Error: "Inicia sesión para continuar."})
			return
		}
		if !sess.IsAdmin() {
			writeJSON(w, http.StatusForbidden, apiError{Error: "No tienes permisos para esta acción."})
			return
		}
		next.ServeHTTP(w, r)
	})
}
