// Package http provides HTTP routing and handlers for the FloraFacts API.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/FloraFacts/internal/middleware"
)

// MaxBodyBytes bounds request bodies. Images arrive as data URLs.
const MaxBodyBytes = 32 << 20

// NewRouter constructs the HTTP handler that serves the FloraFacts API.
//
// Routes:
//
//	POST   /api/identify      → identifyHandler.Identify
//	GET    /api/gallery       → galleryHandler.List
//	POST   /api/gallery       → galleryHandler.Add
//	DELETE /api/gallery       → galleryHandler.Clear
//	DELETE /api/gallery/{id}  → galleryHandler.Remove
//	GET    /api/profile       → profileHandler.Get          (identity required)
//	PUT    /api/profile       → profileHandler.SetAvatar    (identity required)
//	DELETE /api/account       → profileHandler.DeleteAccount (identity required)
//	GET    /health
//
// Middleware chain (applied in order):
//  1. RequestID
//  2. WithRequestLogging(logger)
//  3. Recoverer
//  4. Identity(tokens) on /api: bearer token → identity, none → anonymous
//  5. AllowContentType("application/json") on /api
func NewRouter(
	identifyHandler *IdentifyHandler,
	galleryHandler *GalleryHandler,
	profileHandler *ProfileHandler,
	tokens middleware.TokenVerifier,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Identity(tokens))
		r.Use(chiMiddleware.AllowContentType("application/json"))
		r.Use(chiMiddleware.RequestSize(MaxBodyBytes))

		r.Post("/identify", identifyHandler.Identify)

		r.Route("/gallery", func(r chi.Router) {
			r.Get("/", galleryHandler.List)
			r.Post("/", galleryHandler.Add)
			r.Delete("/", galleryHandler.Clear)
			r.Delete("/{id}", galleryHandler.Remove)
		})

		// Protected group: requires an authenticated identity
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireIdentity)
			r.Get("/profile", profileHandler.Get)
			r.Put("/profile", profileHandler.SetAvatar)
			r.Delete("/account", profileHandler.DeleteAccount)
		})
	})

	return r
}
