// Package http serves the public studio site, the admin back office and the
// JSON API.
package http

import (
	"context"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aguin/internal/auth"
	"aguin/internal/core"
	"aguin/internal/log"
	"aguin/internal/metrics"
	"aguin/internal/middleware/ratelimit"
	"aguin/internal/middleware/security"
	"aguin/internal/middleware/trace"
	"aguin/internal/services"
	appweb "aguin/web"
)

// HandlerTimeout bounds every request. It matches the dashboard fetch deadline.
const HandlerTimeout = services.DefaultDashboardTimeout

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the handlers call into.
type Deps struct {
	Store        Pinger
	Dashboard    *services.DashboardService
	Booking      *services.BookingService
	Reservations *services.ReservationService
	Directory    *services.DirectoryService
	Payments     *services.PaymentService
	Catalog      *services.CatalogService
	Reviews      *services.ReviewService
	Gallery      *services.GalleryService
	Auth         *auth.Authenticator
	Tokens       *auth.TokenIssuer
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer
	Logger       *log.Logger
}

// Options tune the HTTP layer.
type Options struct {
	Location           *time.Location
	CookieSecure       bool
	CORSAllowedOrigins []string
	RateLimitPerMinute int
	// Now is the clock used for "today". Defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	http.Server
	deps    Deps
	opts    Options
	logger  *log.Logger
	pages   map[string]*template.Template
	limiter *ratelimit.Limiter

	shutdownOnce sync.Once
}

// NewServer parses the embedded templates and wires the router.
func NewServer(addr string, deps Deps, opts Options) (*Server, error) {
	if deps.Logger == nil {
		deps.Logger = log.Discard()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New(prometheus.NewRegistry())
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		deps:   deps,
		opts:   opts,
		logger: deps.Logger.WithComponent(log.ComponentHTTP),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
			Methods:           []string{http.MethodPost},
		}),
	}

	pages, err := parsePages(appweb.TemplatesFS, s.funcs())
	if err != nil {
		s.limiter.Stop()
		return nil, err
	}
	s.pages = pages

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * HandlerTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(log.Middleware(s.deps.Logger.WithComponent(log.ComponentHTTP)))
	r.Use(s.observe)
	r.Use(trace.Middleware(nil))
	r.Use(middleware.Recoverer)
	r.Use(security.Detection(func(r *http.Request, reason string) {
		s.deps.Metrics.Suspicious.WithLabelValues(reason).Inc()
		log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request rejected", "reason", reason, log.FieldPath, r.URL.Path)
	}))
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(s.limiter.Middleware(func(r *http.Request) {
		s.deps.Metrics.RateLimited.Inc()
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded", log.FieldClientIP, r.RemoteAddr)
	}))
	r.Use(middleware.Timeout(HandlerTimeout))
	r.Use(auth.Sessions(s.deps.Tokens, s.opts.CookieSecure))

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		r.With(security.StaticAssets(3600)).
			Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(sub))))
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))

	// Public site
	r.Get("/", s.handleHome)
	r.Get("/portafolio", s.handlePortfolio)
	r.Get("/servicios", s.handleServices)
	r.Get("/paquetes", s.handlePackages)
	r.Get("/resenas", s.handleReviews)
	r.Post("/resenas", s.handleCreateReview)
	r.Get("/reservar", s.handleBookingForm)
	r.Post("/reservar", s.handleBook)
	r.Get("/login", s.handleLoginForm)
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)

	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.RequireRole(core.RoleAdmin, "/login", s.deps.Auth))

		r.Get("/", s.handleDashboard)
		r.Get("/partials/summary", s.handleSummaryPartial)

		r.Route("/reservas", func(r chi.Router) {
			r.Get("/", s.handleReservations)
			r.Post("/", s.handleCreateReservation)
			r.Post("/{id}/editar", s.handleUpdateReservation)
			r.Post("/{id}/estado", s.handleReservationStatus)
			r.Post("/{id}/eliminar", s.handleDeleteReservation)
		})
		r.Route("/clientes", func(r chi.Router) {
			r.Get("/", s.handleClients)
			r.Post("/", s.handleCreateClient)
			r.Post("/{id}/editar", s.handleUpdateClient)
			r.Post("/{id}/eliminar", s.handleDeleteClient)
		})
		r.Route("/fotografos", func(r chi.Router) {
			r.Get("/", s.handlePhotographers)
			r.Post("/", s.handleCreatePhotographer)
			r.Post("/{id}/editar", s.handleUpdatePhotographer)
			r.Post("/{id}/eliminar", s.handleDeletePhotographer)
		})
		r.Route("/servicios", func(r chi.Router) {
			r.Get("/", s.handleAdminServices)
			r.Post("/", s.handleCreateService)
			r.Post("/{id}/editar", s.handleUpdateService)
			r.Post("/{id}/eliminar", s.handleDeleteService)
		})
		r.Route("/paquetes", func(r chi.Router) {
			r.Get("/", s.handleAdminPackages)
			r.Post("/", s.handleCreatePackage)
			r.Post("/{id}/editar", s.handleUpdatePackage)
			r.Post("/{id}/eliminar", s.handleDeletePackage)
		})
		r.Route("/galeria", func(r chi.Router) {
			r.Get("/", s.handleAdminGallery)
			r.Post("/", s.handleCreateGallery)
			r.Post("/{id}/eliminar", s.handleDeleteGallery)
			r.Post("/fotos", s.handleAddPhoto)
			r.Post("/fotos/{id}/eliminar", s.handleDeletePhoto)
		})
		r.Route("/pagos", func(r chi.Router) {
			r.Get("/", s.handlePayments)
			r.Post("/", s.handleRecordPayment)
			r.Get("/{id}/comprobante", s.handleReceipt)
			r.Post("/{id}/eliminar", s.handleDeletePayment)
		})
		r.Route("/resenas", func(r chi.Router) {
			r.Get("/", s.handleAdminReviews)
			r.Post("/{id}/eliminar", s.handleDeleteReview)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.opts.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
		r.Get("/resenas/promedio", s.handleReviewAverage)
		r.With(s.requireAdminAPI).Get("/dashboard", s.handleDashboardAPI)
	})

	r.NotFound(s.handleNotFound)
	return r
}

// observe records request metrics by route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}
		s.deps.Metrics.ObserveRequest(route, r.Method, status, time.Since(start))
	})
}

// Shutdown gracefully shuts down the server and the limiter cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// ListenAndServe treats a graceful shutdown as a clean exit.
func (s *Server) ListenAndServe() error {
	if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// now returns the current time in the studio's location.
func (s *Server) now() time.Time {
	return s.opts.Now().In(s.opts.Location)
}
