// Package httpserver exposes the storefront JSON API over HTTP.
package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/and161185/shopkeeper/internal/service"
)

const (
	sessionCookie = "session_id"
	csrfCookie    = "csrf_token"
)

// Config carries the HTTP-facing knobs.
type Config struct {
	SessionTTL    time.Duration // session cookie lifetime
	CSRFTTL       time.Duration // csrf cookie lifetime
	SecureCookies bool          // false only for local plain-http development
}

// Server wires services into HTTP handlers.
type Server struct {
	auth     service.AuthService
	sessions service.SessionService
	csrf     service.CSRFService
	catalog  service.CatalogService
	checkout service.CheckoutService
	log      *zap.Logger
	cfg      Config
}

// New constructs the HTTP server with injected services.
func New(auth service.AuthService, sessions service.SessionService, csrf service.CSRFService, catalog service.CatalogService, checkout service.CheckoutService, log *zap.Logger, cfg Config) *Server {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.CSRFTTL <= 0 {
		cfg.CSRFTTL = 2 * time.Hour
	}
	return &Server{
		auth:     auth,
		sessions: sessions,
		csrf:     csrf,
		catalog:  catalog,
		checkout: checkout,
		log:      log,
		cfg:      cfg,
	}
}

// Router builds the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(Recover(s.log))
	r.Use(Logging(s.log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/csrf-token", s.handleCSRFToken)

		r.Route("/auth", func(r chi.Router) {
			// anonymous, csrf-protected
			r.Group(func(r chi.Router) {
				r.Use(s.requireCSRF)
				r.Post("/register", s.handleRegister)
				r.Post("/login", s.handleLogin)
			})
			// session-bound
			r.Group(func(r chi.Router) {
				r.Use(s.withSession(true))
				r.Get("/user", s.handleCurrentUser)
				r.Group(func(r chi.Router) {
					r.Use(s.requireCSRF)
					r.Post("/logout", s.handleLogout)
					r.Post("/change-password", s.handleChangePassword)
				})
			})
		})

		// public catalog reads
		r.Get("/products", s.handleListProducts)
		r.Get("/products/{id}", s.handleGetProduct)
		r.Get("/categories", s.handleListCategories)

		// admin catalog writes
		r.Route("/admin", func(r chi.Router) {
			r.Use(s.withSession(true))
			r.Use(s.requireAdmin)
			r.Use(s.requireCSRF)
			r.Post("/products", s.handleCreateProduct)
			r.Put("/products/{id}", s.handleUpdateProduct)
			r.Delete("/products/{id}", s.handleDeleteProduct)
			r.Post("/categories", s.handleCreateCategory)
			r.Delete("/categories/{id}", s.handleDeleteCategory)
		})

		r.Route("/orders", func(r chi.Router) {
			// guest checkout allowed: session optional
			r.Group(func(r chi.Router) {
				r.Use(s.withSession(false))
				r.Use(s.requireCSRF)
				r.Post("/create", s.handleCreateOrder)
				r.Post("/cancel", s.handleCancelOrder)
			})
			r.Get("/return", s.handleOrderReturn)
			r.With(s.withSession(true)).Get("/{id}", s.handleGetOrder)
		})
	})

	return r
}

// setCookie writes an httpOnly SameSite=Strict cookie.
func (s *Server) setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *Server) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}
