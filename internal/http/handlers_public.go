package http

import (
	"net/http"

	"aguin/internal/core"
	"aguin/internal/log"
	"aguin/internal/services"
)

const (
	bookingSuccessMessage = "Reserva enviada con éxito ✅"
	bookingFailureMessage = "No pudimos guardar tu reserva. Intenta nuevamente más tarde."
	reviewSuccessMessage  = "¡Gracias por compartir tu experiencia! Tu reseña se publicó correctamente."
	reviewFailureMessage  = "No pudimos publicar tu reseña. Intenta nuevamente más tarde."
)

type homeView struct {
	Photos  []core.Photo
	Stats   services.ReviewStats
	Reviews []core.Review
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var view homeView

	// The landing page degrades to static content when the store is down.
	if photos, err := s.deps.Gallery.Portfolio(ctx); err == nil {
		view.Photos = photos[:min(len(photos), 6)]
	} else {
		log.FromContext(ctx).WarnContext(ctx, "Home portfolio unavailable", log.FieldError, err)
	}
	if reviews, err := s.deps.Reviews.List(ctx); err == nil {
		view.Reviews = reviews[:min(len(reviews), 3)]
		view.Stats = services.ReviewStats{Average: core.AverageScore(reviews), Count: len(reviews)}
	} else {
		log.FromContext(ctx).WarnContext(ctx, "Home reviews unavailable", log.FieldError, err)
	}

	s.render(w, r, http.StatusOK, "home", layoutSite, s.page(w, r, "Aguín Fotografía", "home", view))
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	photos, err := s.deps.Gallery.Portfolio(r.Context())
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, "No se pudo cargar el portafolio", err)
		return
	}
	s.render(w, r, http.StatusOK, "portafolio", layoutSite, s.page(w, r, "Portafolio", "portafolio", photos))
}

func (s *Server) handleServices(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Catalog.Services(r.Context())
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, "No se pudieron cargar los servicios", err)
		return
	}
	s.render(w, r, http.StatusOK, "servicios", layoutSite, s.page(w, r, "Servicios", "servicios", list))
}

func (s *Server) handlePackages(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Catalog.Packages(r.Context())
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, "No se pudieron cargar los paquetes", err)
		return
	}
	s.render(w, r, http.StatusOK, "paquetes", layoutSite, s.page(w, r, "Paquetes", "paquetes", list))
}

type reviewsView struct {
	Reviews []core.Review
	Stats   services.ReviewStats
	Score   int
	Comment string
}

func (s *Server) reviewsPage(w http.ResponseWriter, r *http.Request, status int, view reviewsView, errMsg string) {
	reviews, err := s.deps.Reviews.List(r.Context())
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, "No se pudieron cargar las reseñas", err)
		return
	}
	view.Reviews = reviews
	view.Stats = services.ReviewStats{Average: core.AverageScore(reviews), Count: len(reviews)}

	data := s.page(w, r, "Reseñas", "resenas", view)
	data.Error = errMsg
	s.render(w, r, status, "resenas", layoutSite, data)
}

func (s *Server) handleReviews(w http.ResponseWriter, r *http.Request) {
	s.reviewsPage(w, r, http.StatusOK, reviewsView{}, "")
}

// handleCreateReview accepts the public form or a JSON body with
// "puntuacion" and "comentario".
func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	body := NewRequestBodyParser(r)
	if err := body.Parse(); err != nil {
		http.Error(w, "Solicitud inválida", http.StatusBadRequest)
		return
	}
	score := int(body.Int64("puntuacion"))
	comment := body.Get("comentario")

	review, err := s.deps.Reviews.Create(r.Context(), score, comment)
	if body.IsJSON() {
		if err != nil {
			status, msg := userMessage(err, reviewFailureMessage)
			writeJSON(w, status, apiError{Error: msg})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": review.ID, "message": reviewSuccessMessage})
		return
	}

	if err != nil {
		status, msg := userMessage(err, reviewFailureMessage)
		if status == http.StatusInternalServerError {
			log.FromContext(r.Context()).Fail(r.Context(), "Create review", log.OpCreate, err)
		}
		s.reviewsPage(w, r, status, reviewsView{Score: score, Comment: comment}, msg)
		return
	}
	setFlash(w, NotificationSuccess, reviewSuccessMessage, s.opts.CookieSecure)
	http.Redirect(w, r, "/resenas", http.StatusSeeOther)
}

type bookingView struct {
	Packages []core.Package
	Form     services.BookingRequest
}

func (s *Server) bookingPage(w http.ResponseWriter, r *http.Request, status int, form services.BookingRequest, errMsg string) {
	pkgs, err := s.deps.Booking.Packages(r.Context())
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, bookingFailureMessage, err)
		return
	}
	data := s.page(w, r, "Reservar", "reservar", bookingView{Packages: pkgs, Form: form})
	data.Error = errMsg
	s.render(w, r, status, "reservar", layoutSite, data)
}

func (s *Server) handleBookingForm(w http.ResponseWriter, r *http.Request) {
	form := services.BookingRequest{PackageID: parseInt64(r.URL.Query().Get("paquete"))}
	s.bookingPage(w, r, http.StatusOK, form, "")
}

// handleBook creates a client and a pending reservation. JSON clients get a
// JSON answer; the form re-renders with the visitor's input on failure.
func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	body := NewRequestBodyParser(r)
	if err := body.Parse(); err != nil {
		http.Error(w, "Solicitud inválida", http.StatusBadRequest)
		return
	}
	req := services.BookingRequest{
		FullName:      body.Get("nombre"),
		Phone:         body.Get("telefono"),
		Email:         body.Get("correo"),
		PackageID:     body.Int64("paquete"),
		RequestedDate: body.Get("fecha"),
	}

	reservation, err := s.deps.Booking.Book(r.Context(), req)
	if err != nil {
		status, msg := userMessage(err, bookingFailureMessage)
		if status == http.StatusInternalServerError {
			log.FromContext(r.Context()).Fail(r.Context(), "Booking failed", log.OpCreate, err)
		}
		if body.IsJSON() {
			writeJSON(w, status, apiError{Error: msg})
			return
		}
		s.bookingPage(w, r, status, req, msg)
		return
	}

	if body.IsJSON() {
		writeJSON(w, http.StatusCreated, map[string]any{"id": reservation.ID, "message": bookingSuccessMessage})
		return
	}
	setFlash(w, NotificationSuccess, bookingSuccessMessage, s.opts.CookieSecure)
	http.Redirect(w, r, "/reservar", http.StatusSeeOther)
}
