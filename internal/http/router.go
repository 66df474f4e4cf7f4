package http

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fixaphone-web/internal/handlers"
	"fixaphone-web/internal/metrics"
	"fixaphone-web/internal/pricing"
	"fixaphone-web/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	ChatService    service.ChatService
	BookingService service.BookingService
	Sessions       handlers.SessionCounter
	Rates          *pricing.Rates
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer // Source for /metrics; nil disables the endpoint
	IndexHTML      string              // Embedded HTML content
	Static         fs.FS               // Assets served under /static/
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	// Add chi middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	if deps.Metrics != nil {
		r.Use(Metrics(deps.Metrics))
	}

	// Add CORS middleware
	r.Use(CORS)

	chatHandler := handlers.NewChatHandler(deps.ChatService)
	socketHandler := handlers.NewChatSocketHandler(deps.ChatService)
	bookingHandler := handlers.NewBookingHandler(deps.BookingService)
	healthHandler := handlers.NewHealthHandler(deps.Sessions, deps.Rates)

	// Register API routes
	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)

		r.Route("/chat", func(r chi.Router) {
			r.Get("/session", chatHandler.OpenSession)
			r.Post("/messages", chatHandler.SendMessage)
			r.Post("/clear", chatHandler.ClearChat)
			r.Method(http.MethodGet, "/ws", socketHandler)
		})

		r.Get("/services", bookingHandler.Rates)

		r.Route("/booking", func(r chi.Router) {
			r.Post("/", bookingHandler.Submit)
			r.Get("/estimate", bookingHandler.Estimate)
			r.Get("/fields", bookingHandler.Fields)
		})
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	if deps.Static != nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(deps.Static))))
	}

	// Serve HTML page at root
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(deps.IndexHTML))
	})

	return r
}
