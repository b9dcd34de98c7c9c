package api

import (
	"net/http"
	"path/filepath"

	"github.com/Rrens/fairway/internal/api/handler"
	customMiddleware "github.com/Rrens/fairway/internal/api/middleware"
	"github.com/Rrens/fairway/internal/config"
	"github.com/Rrens/fairway/internal/dialog"
	"github.com/Rrens/fairway/internal/parser"
	"github.com/Rrens/fairway/internal/repository/postgres"
	"github.com/Rrens/fairway/internal/repository/redis"
	"github.com/Rrens/fairway/internal/security"
	"github.com/Rrens/fairway/internal/service"
	"github.com/Rrens/fairway/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

// deps are the collaborators mounted by the router
type deps struct {
	intake  handler.Intake
	limiter customMiddleware.Limiter
	db      handler.Pinger
	cache   handler.Pinger
}

// NewRouter creates and configures the HTTP router. redisClient may be nil,
// in which case locking and rate limiting stay in process and course lists
// are not cached.
func NewRouter(cfg *config.Config, db *postgres.DB, redisClient *redis.Client) http.Handler {
	// Initialize repositories
	sessionRepo := postgres.NewSessionRepository(db.Pool)
	incidentRepo := postgres.NewIncidentRepository(db.Pool)
	courseRepo := postgres.NewCourseRepository(db.Pool)
	clubRepo := postgres.NewClubRepository(db.Pool)

	d := deps{db: db}

	var (
		courseCache service.CourseCache
		locker      service.SenderLocker
	)
	if redisClient != nil {
		courseCache = redis.NewCourseCache(redisClient)
		locker = redis.NewSessionLock(redisClient, cfg.Session.LockTTL)
		d.limiter = redis.NewRateLimiter(
			redisClient,
			cfg.Webhook.RateLimit.RequestsPerMinute,
			cfg.Webhook.RateLimit.Burst,
		)
		d.cache = redisClient
	} else {
		log.Warn().Msg("Redis disabled: using in-process session lock and rate limiter")
		locker = service.NewKeyedMutex()
		d.limiter = customMiddleware.NewLocalLimiter(
			cfg.Webhook.RateLimit.RequestsPerMinute,
			cfg.Webhook.RateLimit.Burst,
		)
	}

	archiver := storage.NewPhotoArchiver(storage.Config{
		Dir:           cfg.Storage.Dir,
		Bucket:        cfg.Storage.Bucket,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
		FetchTimeout:  cfg.Storage.FetchTimeout,
		MaxBytes:      cfg.Storage.MaxBytes,
		AccountSID:    cfg.Storage.AccountSID,
		AuthToken:     cfg.Storage.AuthToken,
	})
	if err := archiver.EnsureBucket(); err != nil {
		log.Error().Err(err).Msg("Photo bucket unavailable, photos will not be archived")
	}

	// Initialize services
	catalog := service.NewCourseCatalog(courseRepo, courseCache)
	sessionService := service.NewSessionService(sessionRepo, cfg.Session.IdleTimeout)
	engine := dialog.NewEngine(catalog, parser.NewKeywordClassifier())
	d.intake = service.NewIntakeService(
		clubRepo,
		sessionService,
		engine,
		catalog,
		incidentRepo,
		archiver,
		locker,
	)

	r := newRouter(cfg, d)

	// Archived photos
	fileServer := http.FileServer(http.Dir(filepath.Clean(cfg.Storage.Dir)))
	r.Handle("/files/*", http.StripPrefix("/files/", fileServer))

	return r
}

func newRouter(cfg *config.Config, d deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	if cfg.Server.WriteTimeout > 0 {
		r.Use(middleware.Timeout(cfg.Server.WriteTimeout))
	}

	verifier := security.NewSignatureVerifier(cfg.Webhook.AuthToken)
	signatureMiddleware := customMiddleware.NewSignatureMiddleware(verifier, cfg.Webhook.SignatureHeader, cfg.Server.PublicURL)
	rateLimitMiddleware := customMiddleware.NewRateLimitMiddleware(d.limiter)

	webhookHandler := handler.NewWebhookHandler(d.intake)

	// Transport webhook
	r.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", cfg.Webhook.SignatureHeader},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
		r.Use(signatureMiddleware.Verify)
		r.Use(rateLimitMiddleware.Limit)

		r.Post(cfg.Webhook.Path, webhookHandler.Receive)
		r.Get(cfg.Webhook.Path, webhookHandler.Status)
		r.Options(cfg.Webhook.Path, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(d.db, d.cache))

		if !cfg.IsProduction() {
			simulateHandler := handler.NewSimulateHandler(d.intake)
			r.Post("/simulate", simulateHandler.Message)
		}
	})

	return r
}
