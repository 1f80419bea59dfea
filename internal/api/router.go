package api

import (
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/eldtechnologies/roomboard/internal/api/middleware"
	"github.com/eldtechnologies/roomboard/internal/handlers"
)

// maxJSONBody bounds every non-upload request body.
const maxJSONBody = 64 * 1024

// Options configures the router.
type Options struct {
	Handlers    handlers.Deps
	Sessions    middleware.SessionOptions
	CORSOrigins []string
	UploadDir   string
	StaticDir   string // Defaults to web/static
}

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger, opts Options) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(maxJSONBody, "/api/upload_file"))
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// The browser front-end sends the session cookie cross-origin when configured
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: len(origins) > 0 && origins[0] != "*",
		MaxAge:           300,
	}))

	h := handlers.NewHandler(opts.Handlers)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Static files and uploads
	static := opts.StaticDir
	if static == "" {
		static = staticDir()
	}
	r.Get("/", serveFile(static+"/index.html"))
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(static))))
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", noListing(http.FileServer(http.Dir(opts.UploadDir)))))

	r.Get("/health", h.Health)
	r.Get("/api", h.Root)

	// Session-bearing routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.Sessions(opts.Sessions))

		r.Post("/api/send_message", h.SendMessage)
		r.Post("/api/upload_file", h.UploadFile)
		r.Get("/api/get_messages/{room_id}", h.GetMessages)

		r.Get("/api/get_rooms", h.ListRooms)
		r.Get("/api/rooms/{room_id}", h.RoomView)
		r.Post("/api/verify_room_password", h.VerifyRoomPassword)

		r.Post("/api/create_room", h.CreateRoom)
		r.Post("/api/update_room", h.UpdateRoom)
		r.Post("/api/delete_room", h.DeleteRoom)

		r.Post("/admin/login", h.AdminLogin)
		r.Post("/admin/logout", h.AdminLogout)
		r.Get("/admin/session", h.AdminSession)
	})

	return r
}

// staticDir returns the path to static files directory.
func staticDir() string {
	// Check if running from app directory (production container)
	if _, err := os.Stat("/app/web/static"); err == nil {
		return "/app/web/static"
	}
	return "web/static"
}

func serveFile(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, path)
	}
}

// noListing hides directory indexes.
func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
