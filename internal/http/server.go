package httpapi

import (
	"context"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"toursite-backend-go/internal/config"
	"toursite-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type Server struct {
	DB     *sqlx.DB
	Config config.Config
	Logger zerolog.Logger

	Settings   *services.SettingsStore
	Content    *services.ContentService
	Bookings   *services.BookingRepository
	Blog       *services.BlogService
	Gallery    *services.GalleryService
	Packages   *services.PackageService
	Newsletter *services.NewsletterRepository
	Images     services.ImageUploader

	Sessions       *services.SessionGuard
	Hub            *services.EventHub
	DashboardStats services.Dashboard

	Registry *prometheus.Registry
	metrics  *HTTPMetrics
}

func NewServer(db *sqlx.DB, cfg config.Config, logger zerolog.Logger, images services.ImageUploader, invalidator services.Invalidator, hub *services.EventHub) *Server {
	settings := services.NewSettingsStore(db)
	bookings := services.NewBookingRepository(db)
	blog := services.NewBlogService(db, images, invalidator, logger)
	gallery := services.NewGalleryService(db, images, invalidator, logger)
	packages := services.NewPackageService(db, images, invalidator, logger)
	newsletter := services.NewNewsletterRepository(db)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Server{
		DB:         db,
		Config:     cfg,
		Logger:     logger.With().Str("component", "http").Logger(),
		Settings:   settings,
		Content:    services.NewContentService(settings, images, invalidator, logger),
		Bookings:   bookings,
		Blog:       blog,
		Gallery:    gallery,
		Packages:   packages,
		Newsletter: newsletter,
		Images:     images,
		Sessions: services.NewSessionGuard(services.SessionConfig{
			Password:     cfg.AdminPassword,
			PasswordHash: cfg.AdminPasswordHash,
			Secret:       []byte(cfg.SessionSecret),
			TTL:          time.Duration(cfg.SessionTTLHours) * time.Hour,
			Secure:       cfg.IsProduction(),
		}),
		Hub: hub,
		DashboardStats: services.Dashboard{
			BookingsByStatus: bookings.CountByStatus,
			Packages:         packages.Count,
			BlogPosts:        blog.Count,
			GalleryItems:     gallery.Count,
			Subscribers:      newsletter.CountActive,
			DiskPath:         cfg.MetricsDiskPath,
		},
		Registry: registry,
		metrics:  NewHTTPMetrics(registry),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(s.Logger))
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", s.Health)
	r.Handle("/metrics", promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(api chi.Router) {
		api.Route("/public", func(pub chi.Router) {
			pub.Get("/pages/{kind}", s.PublicPage)
			pub.Get("/packages", s.PublicPackages)
			pub.Get("/packages/{slug}", s.PublicPackage)
			pub.Get("/blog", s.PublicBlog)
			pub.Get("/blog/featured", s.PublicFeaturedPost)
			pub.Get("/blog/{slug}", s.PublicPost)
			pub.Get("/gallery", s.PublicGallery)
			pub.Get("/gallery/categories", s.PublicGalleryCategories)
			pub.Post("/bookings", s.CreateBooking)
			pub.Post("/newsletter/subscribe", s.Subscribe)
			pub.Post("/newsletter/unsubscribe", s.Unsubscribe)
		})

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/login", s.Login)
			auth.Post("/logout", s.Logout)
			auth.Get("/session", s.Session)
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(RequireSession(s.Sessions))
			admin.Get("/dashboard", s.Dashboard)
			admin.Get("/settings", s.AdminSettings)
			admin.Get("/pages/{kind}", s.AdminGetPage)
			admin.Put("/pages/{kind}", s.AdminSavePage)
			admin.Post("/uploads", s.AdminUpload)

			admin.Route("/bookings", func(b chi.Router) {
				b.Get("/", s.AdminListBookings)
				b.Get("/export", s.AdminExportBookings)
				b.Get("/{bookingId}", s.AdminGetBooking)
				b.Patch("/{bookingId}/status", s.AdminUpdateBookingStatus)
			})
			admin.Route("/blog", func(b chi.Router) {
				b.Get("/", s.AdminListPosts)
				b.Post("/", s.AdminCreatePost)
				b.Get("/{postId}", s.AdminGetPost)
				b.Put("/{postId}", s.AdminUpdatePost)
				b.Delete("/{postId}", s.AdminDeletePost)
			})
			admin.Route("/packages", func(p chi.Router) {
				p.Get("/", s.AdminListPackages)
				p.Post("/", s.AdminCreatePackage)
				p.Get("/{packageId}", s.AdminGetPackage)
				p.Put("/{packageId}", s.AdminUpdatePackage)
				p.Delete("/{packageId}", s.AdminDeletePackage)
			})
			admin.Route("/gallery", func(g chi.Router) {
				g.Get("/", s.AdminListGallery)
				g.Post("/", s.AdminCreateGalleryItem)
				g.Put("/{itemId}", s.AdminUpdateGalleryItem)
				g.Delete("/{itemId}", s.AdminDeleteGalleryItem)
			})
			admin.Route("/newsletter", func(n chi.Router) {
				n.Get("/", s.AdminListSubscribers)
				n.Delete("/{subscriberId}", s.AdminDeleteSubscriber)
			})
		})
	})

	r.Get("/ws/admin", s.AdminSocket)

	console := RedirectToLogin(s.Sessions)(adminConsole(s.Config.AdminAssetsDir))
	r.Handle("/admin", console)
	r.Handle("/admin/*", console)

	if s.Config.ImageStore == "local" {
		r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(s.Config.MediaDir))))
	}
	return r
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		s.Logger.Error().Err(err).Msg("health check failed")
		WriteError(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// adminConsole serves the console bundle. Unknown paths fall back to
// <path>.html and then index.html so client-side routes load.
func adminConsole(dir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rel := strings.TrimPrefix(path.Clean("/"+strings.TrimPrefix(r.URL.Path, "/admin")), "/")
		for _, candidate := range []string{rel, rel + ".html", "index.html"} {
			if candidate == "" || candidate == ".html" {
				continue
			}
			full := filepath.Join(dir, filepath.FromSlash(candidate))
			if info, err := os.Stat(full); err == nil && !info.IsDir() {
				http.ServeFile(w, r, full)
				return
			}
		}
		http.NotFound(w, r)
	})
}
