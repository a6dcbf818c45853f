package api

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/auth"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	AuthHandlers    *AuthHandlers
	PaymentHandlers *PaymentHandlers
	Tokens          *auth.TokenService
	Logger          *zap.Logger
	// StaticDir, when set, is served for every non-API path with index.html
	// as the fallback.
	StaticDir      string
	AllowedOrigins []string
	RequestTimeout time.Duration
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("http")

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	if cfg.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.RequestTimeout))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/test", Test)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", cfg.AuthHandlers.Register)
			r.Post("/login", cfg.AuthHandlers.Login)
			r.With(middleware.AuthMiddleware(cfg.Tokens)).Get("/user", cfg.AuthHandlers.Me)
		})

		r.Route("/payment", func(r chi.Router) {
			r.Use(middleware.OptionalAuthMiddleware(cfg.Tokens))
			r.Post("/orders", cfg.PaymentHandlers.CreateOrder)
			r.Post("/capture/{orderID}", cfg.PaymentHandlers.Capture)
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			respondJSONError(w, "Not found", http.StatusNotFound)
		})
	})

	// Static files (web UI)
	if cfg.StaticDir != "" {
		r.Handle("/*", staticHandler(cfg.StaticDir))
	}

	return otelhttp.NewHandler(r, "storefront-api")
}

func staticHandler(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			fs.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, index)
	})
}
