package container

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"autoblog-backend/internal/config"
	"autoblog-backend/internal/domains/post"
	postHandler "autoblog-backend/internal/domains/post/handler"
	postRepo "autoblog-backend/internal/domains/post/repository"
	"autoblog-backend/internal/domains/session"
	sessionHandler "autoblog-backend/internal/domains/session/handler"
	"autoblog-backend/internal/infrastructure/database"
	"autoblog-backend/internal/infrastructure/identity"
	"autoblog-backend/internal/infrastructure/realtime"
	"autoblog-backend/pkg/jwt"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container holds every dependency of the application, built in order:
// config, infrastructure, repositories/services, handlers. Everything is
// explicitly constructed and passed by reference; nothing ambient.
type Container struct {
	// Infrastructure
	Config     *config.Config
	DB         *database.PostgresDB
	Store      *realtime.RedisStore
	JWTManager *jwt.Manager
	Provider   identity.Provider

	// Domain services
	Sessions *session.Service
	PostRepo post.Repository

	// HTTP handlers
	PostHandler   *postHandler.PostHandler
	PostStream    *postHandler.StreamHandler
	AuthHandler   *sessionHandler.AuthHandler
	SessionStream *sessionHandler.StreamHandler
}

// NewContainer builds and initializes the whole dependency graph.
func NewContainer() (*Container, error) {
	c := &Container{}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Info().Str("environment", cfg.App.Environment).Msg("Config loaded")

	// Identity-provider account storage
	db := database.NewPostgresDB(cfg.Database)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DB = db

	// Realtime store holding the post collection
	store := realtime.NewRedisStore(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if err := store.Connect(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to realtime store: %w", err)
	}
	c.Store = store
	log.Info().Msg("Realtime store connected")

	// Identity provider + session service
	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, cfg.JWT.ExpiryHours)
	c.Provider = identity.NewPostgresProvider(db, c.JWTManager)
	c.Sessions = session.NewService(c.Provider, cfg.IsAdminEmail)
	c.Sessions.Start()

	// Post repository + handlers
	c.PostRepo = postRepo.NewStoreRepository(store)

	ph, err := postHandler.NewPostHandler(c.PostRepo)
	if err != nil {
		c.Cleanup()
		return nil, fmt.Errorf("failed to open post feed: %w", err)
	}
	c.PostHandler = ph
	c.PostStream = postHandler.NewStreamHandler(c.PostRepo)
	c.AuthHandler = sessionHandler.NewAuthHandler(c.Sessions)
	c.SessionStream = sessionHandler.NewStreamHandler(c.Sessions)

	return c, nil
}

// Cleanup tears the container down in reverse construction order.
func (c *Container) Cleanup() {
	if c.PostHandler != nil {
		c.PostHandler.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.DB != nil {
		c.DB.Close()
	}
}
