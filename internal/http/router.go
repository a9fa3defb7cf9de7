package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/redmonkez12/places-api/internal/apperror"
	"github.com/redmonkez12/places-api/internal/auth"
	"github.com/redmonkez12/places-api/internal/config"
	"github.com/redmonkez12/places-api/internal/httputil"
	"github.com/redmonkez12/places-api/internal/logging"
	"github.com/redmonkez12/places-api/internal/metrics"
	"github.com/redmonkez12/places-api/internal/place"
	"github.com/redmonkez12/places-api/internal/upload"
	"github.com/redmonkez12/places-api/internal/user"
	"github.com/redmonkez12/places-api/internal/validate"
)

const routeNotFoundMessage = "Could not find this route."

// Handlers groups the endpoint handlers mounted by NewRouter.
type Handlers struct {
	Places *place.Handler
	Users  *user.Handler
	Auth   *auth.Middleware
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, h Handlers, m *metrics.Metrics, logger *logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Origin", "X-Requested-With", "Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: !allowsAnyOrigin(cfg.Server.TrustedOrigins),
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)               // Security headers on all responses
	r.Use(middleware.RequestID)          // Add request ID
	r.Use(middleware.RealIP)             // Set RemoteAddr to real IP
	r.Use(logging.RequestLogger(logger)) // Structured logging with request context
	r.Use(Recoverer)                     // Recover from panics with a JSON 500
	r.Use(m.Middleware)                  // Request count and latency
	r.Use(middleware.Compress(5))        // Compress responses

	r.NotFound(handleRouteNotFound)
	r.MethodNotAllowed(handleRouteNotFound)

	// Public routes
	r.Get("/health", handleHealth)
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	// Swagger UI - only in development
	// Production builds will not have this route at all
	if cfg.Server.IsDevelopment() {
		logger.Info("swagger UI enabled at /swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	} else {
		logger.Info("swagger UI disabled (production mode)")
	}

	// Stored images, only when they live on local disk
	if cfg.Uploads.Driver == config.UploadDriverLocal {
		prefix := "/" + upload.PublicPath + "/"
		images := http.StripPrefix(prefix, http.FileServer(http.Dir(cfg.Uploads.Dir)))
		r.Get(prefix+"*", noDirectoryListing(images))
	}

	if cfg.Server.APIPrefix == "" {
		mountAPI(r, h)
	} else {
		r.Route(cfg.Server.APIPrefix, func(r chi.Router) {
			mountAPI(r, h)
		})
	}

	return r
}

func mountAPI(r chi.Router, h Handlers) {
	r.Route("/places", func(r chi.Router) {
		r.Get("/", httputil.Handle(h.Places.ListPlaces))
		r.Get("/{pid}", httputil.Handle(h.Places.GetPlace))
		r.Get("/user/{uid}", httputil.Handle(h.Places.GetPlacesByUser))
		r.With(validate.Gate(place.CreateSchema)).Post("/", httputil.Handle(h.Places.CreatePlace))

		// Protected routes (require authentication)
		r.Group(func(r chi.Router) {
			r.Use(h.Auth.RequireAuth)
			r.With(h.Places.RequireCreator, validate.Gate(place.UpdateSchema)).Patch("/{pid}", httputil.Handle(h.Places.UpdatePlace))
			r.Delete("/{pid}", httputil.Handle(h.Places.DeletePlace))
		})
	})

	r.Route("/users", func(r chi.Router) {
		r.Get("/", httputil.Handle(h.Users.ListUsers))
		r.With(validate.Gate(user.SignupSchema)).Post("/signup", httputil.Handle(h.Users.Signup))
		r.With(validate.Gate(user.LoginSchema)).Post("/login", httputil.Handle(h.Users.Login))
	})
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Description  Check if the API is running
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}

func handleRouteNotFound(w http.ResponseWriter, r *http.Request) {
	httputil.RespondError(w, r, apperror.NotFound(routeNotFoundMessage))
}

func noDirectoryListing(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			handleRouteNotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	}
}
