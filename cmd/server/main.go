package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"golang.org/x/crypto/bcrypt"

	"Inkwell/internal/api/middleware"
	"Inkwell/internal/api/routes"
	"Inkwell/internal/config"
	"Inkwell/internal/core/attachments"
	"Inkwell/internal/core/auth"
	"Inkwell/internal/core/comments"
	"Inkwell/internal/core/media"
	"Inkwell/internal/core/parents"
	"Inkwell/internal/core/posts"
	"Inkwell/internal/core/reactions"
	"Inkwell/internal/core/users"
	"Inkwell/internal/db/migrations"
	postgresRepo "Inkwell/internal/db/postgres"
	"Inkwell/internal/media/cloudinarystore"
	"Inkwell/internal/media/objectstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Connected to database")

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatal("Failed to set goose dialect:", err)
	}
	if err := goose.Up(db, "."); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	log.Println("Migrations completed successfully")

	store, err := newMediaStore(cfg)
	if err != nil {
		log.Fatal("Failed to initialize media store:", err)
	}
	store = media.WithCircuitBreaker(media.WithTimeout(store, cfg.MediaTimeout), cfg.BreakerThreshold, cfg.BreakerCooldown)

	// Repositories
	txm := postgresRepo.NewTxManager(db)
	userRepo := postgresRepo.NewUserRepository(db)
	postRepo := postgresRepo.NewPostRepository(db)
	commentRepo := postgresRepo.NewCommentRepository(db)
	attachmentRepo := postgresRepo.NewAttachmentRepository(db)
	reactionRepo := postgresRepo.NewReactionRepository(db)

	// Managers
	targets := parents.Targets{Post: postRepo, Comment: commentRepo}
	attachmentManager := attachments.NewManager(attachmentRepo, store, logger)
	reactionManager := reactions.NewManager(reactionRepo, targets, logger)

	// Services
	postService := posts.NewService(txm, postRepo, commentRepo, attachmentRepo, attachmentManager, reactionManager, logger)
	commentService := comments.NewService(txm, commentRepo, postRepo, attachmentRepo, attachmentManager, reactionManager, logger)

	hasher := auth.NewBcryptHasher(bcrypt.DefaultCost)
	// Reactions go first so counters on other users' content are settled
	// before the author's own posts and comments disappear.
	userService := users.NewUserService(userRepo, hasher, logger,
		reactions.NewUserRetractor(txm, reactionRepo, reactionManager),
		postService,
		commentService,
	)

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		AccessSecret:  cfg.AccessSecret,
		RefreshSecret: cfg.RefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	})
	if err != nil {
		log.Fatal("Failed to initialize token service:", err)
	}
	authService := auth.NewService(userService, userRepo, tokens, hasher, logger)
	authMiddleware := middleware.NewAuthMiddleware(tokens)

	r := chi.NewRouter()

	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, 1*time.Minute)
	r.Use(rateLimiter.Middleware)

	routes.RegisterAuthRoutes(r, authService, authMiddleware)
	routes.RegisterUserRoutes(r, userService, authMiddleware)
	routes.RegisterPostRoutes(r, postService, authMiddleware)
	routes.RegisterCommentRoutes(r, commentService, authMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Inkwell starting on port %s (media backend: %s)", cfg.Port, cfg.MediaBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed:", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}

func newMediaStore(cfg *config.Config) (media.Store, error) {
	switch cfg.MediaBackend {
	case config.MediaS3:
		store, err := objectstore.NewStore(objectstore.Config{
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Bucket:          cfg.S3.Bucket,
			PublicURL:       cfg.S3.PublicURL,
			Prefix:          "attachments",
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		store, err := cloudinarystore.NewStore(cloudinarystore.Config{
			CloudName: cfg.Cloudinary.CloudName,
			APIKey:    cfg.Cloudinary.APIKey,
			APISecret: cfg.Cloudinary.APISecret,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}
