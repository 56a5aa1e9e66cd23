package cmd

import (
	"context"
	"fmt"
	"net/http"

	"campus-vibe-backend/internal/compat"
	"campus-vibe-backend/internal/config"
	"campus-vibe-backend/internal/handlers"
	"campus-vibe-backend/internal/middleware"
	"campus-vibe-backend/internal/models"
	"campus-vibe-backend/internal/repository"
	"campus-vibe-backend/internal/repository/memory"
	"campus-vibe-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

// memberStore is what the app needs from the member collection, seeding included
type memberStore interface {
	services.MemberStore
	Upsert(ctx context.Context, m *models.Member) error
}

// app wires stores, services and handlers for one configuration
type app struct {
	cfg *config.Config
	db  *pgxpool.Pool

	members  memberStore
	pools    services.PoolStore
	requests services.RequestStore
	matches  services.MatchStore
	reports  services.ReportStore
	messages services.MessageStore

	hub          *services.WSHub
	authService  *services.AuthService
	poolService  *services.PoolService
	matchService *services.MatchService
	chatService  *services.ChatService
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	switch cfg.Database.Driver {
	case "memory":
		store := memory.New()
		a.members = store.Members()
		a.pools = store.Pools()
		a.requests = store.Requests()
		a.matches = store.Matches()
		a.reports = store.Reports()
		a.messages = store.Messages()
		log.Warn().Msg("Using in-memory storage; state is lost on restart")
	default:
		db, err := connectDB(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.db = db
		if cfg.Database.Migrate {
			if err := repository.Migrate(ctx, db); err != nil {
				db.Close()
				return nil, err
			}
		}
		a.members = repository.NewMemberRepository(db)
		a.pools = repository.NewPoolRepository(db)
		a.requests = repository.NewRequestRepository(db)
		a.matches = repository.NewMatchRepository(db)
		a.reports = repository.NewReportRepository(db)
		a.messages = repository.NewMessageRepository(db)
	}

	if cfg.Database.SeedFile != "" {
		if err := seedMembers(ctx, a.members, cfg.Database.SeedFile); err != nil {
			a.Close()
			return nil, err
		}
	}

	a.hub = services.NewWSHub()
	opts := []services.Option{services.WithNotifier(a.hub)}
	if cfg.AWS.S3Bucket != "" {
		archiver, err := services.NewS3ReportArchiver(ctx, services.S3Options{
			Region:    cfg.AWS.Region,
			Bucket:    cfg.AWS.S3Bucket,
			AccessKey: cfg.AWS.AccessKey,
			SecretKey: cfg.AWS.SecretKey,
			Endpoint:  cfg.AWS.Endpoint,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		opts = append(opts, services.WithArchiver(archiver))
		log.Info().Str("bucket", cfg.AWS.S3Bucket).Msg("Report archiving enabled")
	}

	engine := compat.NewEngine()
	a.authService = services.NewAuthService(cfg.JWT.Secret)
	a.poolService = services.NewPoolService(a.members, a.pools, a.requests, engine, cfg.Matching, opts...)
	a.matchService = services.NewMatchService(a.members, a.pools, a.requests, a.matches, a.reports, a.messages, cfg.Matching, opts...)
	a.chatService = services.NewChatService(a.matches, a.messages, cfg.Matching, opts...)

	return a, nil
}

// connectDB opens the pool and checks the server answers
func connectDB(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	db, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Info().Msg("Database connection established")
	return db, nil
}

// Close releases the database pool, if any
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
}

// routes builds the HTTP handler tree
func (a *app) routes() http.Handler {
	poolHandler := handlers.NewPoolHandler(a.poolService)
	matchHandler := handlers.NewMatchHandler(a.matchService)
	chatHandler := handlers.NewChatHandler(a.chatService)
	wsHandler := handlers.NewWebSocketHandler(a.hub, a.authService, a.matchService)

	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: a.cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler)

	r.Get("/healthz", a.healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(a.authService))
		handlers.MatchRoutes(r, poolHandler, matchHandler, chatHandler)
	})

	r.Get("/ws", wsHandler.HandleWebSocket)

	return r
}

func (a *app) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if a.db != nil {
		if err := a.db.Ping(r.Context()); err != nil {
			log.Error().Err(err).Msg("Health check failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
