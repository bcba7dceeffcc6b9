package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth"
	"github.com/openshelf/bookshare/pkg/bookshare"
)

// RouterConfig carries the collaborators the HTTP surface needs.
type RouterConfig struct {
	Service        bookshare.Service
	TokenAuth      *jwtauth.JWTAuth
	AllowedOrigins []string
	Health         HealthStatus
}

// NewRouter assembles the full HTTP surface. Authenticated subtrees sit
// below the jwtauth verifier and RequireIdentity; the recoverer
// guarantees a response on every path.
func NewRouter(cfg RouterConfig) chi.Router {
	userHandler := NewUserHandler(cfg.Service)
	bookHandler := NewBookHandler(cfg.Service)
	healthHandler := NewHealthHandler(cfg.Health)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With"},
		AllowCredentials: true,
	}))

	r.Get("/health", healthHandler.Check)

	r.Route("/api", func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			r.Use(jwtauth.Verifier(cfg.TokenAuth))
			r.Use(RequireIdentity)

			r.Post("/save", userHandler.SaveProfile)
			r.Get("/profile", userHandler.GetProfile)
			r.Put("/update", userHandler.UpdateProfile)
			r.Delete("/delete", userHandler.DeleteAccount)
		})

		r.Route("/books", func(r chi.Router) {
			r.Get("/all", bookHandler.ListBooks)
			r.Get("/post/{id}", bookHandler.GetBook)

			r.Group(func(r chi.Router) {
				r.Use(jwtauth.Verifier(cfg.TokenAuth))
				r.Use(RequireIdentity)

				r.Post("/post", bookHandler.SubmitBook)
				r.Get("/my-post", bookHandler.ListMyBooks)
				r.Delete("/delete/{id}", bookHandler.DeleteBook)
			})
		})
	})

	return r
}
