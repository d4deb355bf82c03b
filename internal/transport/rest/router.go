package rest

import (
	"database/sql"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi"
	"github.com/rs/cors"
	"github.com/smartinstall/field-reports/internal/auth"
	"github.com/smartinstall/field-reports/internal/catalog"
	"github.com/smartinstall/field-reports/internal/document"
	"github.com/smartinstall/field-reports/internal/report"
	"github.com/smartinstall/field-reports/internal/site"
	"github.com/smartinstall/field-reports/internal/transport/middleware"
	"github.com/smartinstall/field-reports/internal/transport/swagger"
	"github.com/smartinstall/field-reports/internal/user"
)

// Handlers bundles every mounted handler so RegisterAllRoutes stays
// readable as the wiring grows.
type Handlers struct {
	Auth     *auth.Handler
	User     *user.Handler
	Report   *report.Handler
	Catalog  *catalog.Handler
	Site     *site.Handler
	Document *document.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, uploadsDir string, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db, uploadsDir)

	// Telegram WebApps load from the telegram.org origin, so CORS has
	// to stay permissive on the API surface.
	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Trace-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	})

	router.Use(corsMiddleware.Handler)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// Swagger UI at root, serving api/openapi.yml alongside it.
	router.Handle("/swagger/*", swagger.Handler("./api/openapi.yml"))

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Uploaded documents. Stored names are generated server-side,
		// so directory traversal cannot reach outside uploadsDir.
		if uploadsDir != "" {
			fileServer := http.StripPrefix("/api/v1/files/", http.FileServer(http.Dir(filepath.Clean(uploadsDir))))
			r.Get("/files/*", fileServer.ServeHTTP)
		}

		if h.Auth != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", h.Auth.Login)
				sr.Post("/refresh", h.Auth.RefreshToken)
				sr.Post("/logout", h.Auth.Logout)
			})
		}

		// Registration works without a token; an admin token upgrades
		// the allowed role.
		if h.User != nil && h.Auth != nil {
			r.Group(func(or chi.Router) {
				or.Use(h.Auth.OptionalAuthMiddleware)
				or.Post("/users", h.User.CreateUser)
			})
		}

		if h.Auth == nil {
			return
		}

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			if h.User != nil {
				pr.Get("/user/me", h.User.GetCurrentUser)
				pr.Group(func(ar chi.Router) {
					ar.Use(middleware.RequireAdmin)
					ar.Get("/users", h.User.ListUsers)
					ar.Put("/users/{userID}", h.User.UpdateUser)
				})
			}

			if h.Report != nil {
				pr.Route("/schedule", func(sr chi.Router) {
					sr.Get("/", h.Report.GetSchedule)
					sr.Post("/complete", h.Report.SubmitReport)
					sr.Post("/draft", h.Report.SaveDraft)
					sr.Put("/{reportID}/edit", h.Report.EditReport)
					sr.Post("/{reportID}/confirm-payment", h.Report.ConfirmPayment)

					sr.Group(func(ar chi.Router) {
						ar.Use(middleware.RequireAdmin)
						ar.Get("/pending", h.Report.GetPending)
						ar.Post("/{reportID}/approve", h.Report.Approve)
						ar.Post("/{reportID}/reject", h.Report.Reject)
						ar.Post("/{reportID}/mark-paid", h.Report.MarkPaid)
					})
				})

				pr.Group(func(ar chi.Router) {
					ar.Use(middleware.RequireAdmin)
					ar.Post("/reports/users/{userID}/export", h.Report.ExportUserReport)
				})
			}

			if h.Catalog != nil {
				pr.Route("/prices", func(cr chi.Router) {
					cr.Get("/", h.Catalog.ListPrices)
					cr.Get("/{priceID}", h.Catalog.GetPrice)
					cr.Post("/", h.Catalog.CreatePrice)
					cr.Put("/{priceID}", h.Catalog.UpdatePrice)
					cr.Delete("/{priceID}", h.Catalog.DeletePrice)
				})
			}

			if h.Site != nil {
				pr.Route("/objects", func(or chi.Router) {
					or.Get("/", h.Site.ListObjects)
					or.Get("/{objectID}", h.Site.GetObject)
					or.Post("/", h.Site.CreateObject)
					or.Put("/{objectID}", h.Site.UpdateObject)
					or.Delete("/{objectID}", h.Site.DeleteObject)
				})
			}

			if h.Document != nil {
				pr.Route("/docs", func(dr chi.Router) {
					dr.Get("/", h.Document.ListDocs)
					dr.Get("/general", h.Document.ListGeneralDocs)
					dr.Get("/{docID}", h.Document.GetDoc)
					dr.Post("/", h.Document.CreateDoc)
					dr.Post("/upload", h.Document.UploadDoc)
					dr.Put("/{docID}", h.Document.UpdateDoc)
					dr.Delete("/{docID}", h.Document.DeleteDoc)
				})
			}
		})
	})
}
