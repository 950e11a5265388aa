package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/platefeed/backend/config"
	"github.com/platefeed/backend/internal/api"
	"github.com/platefeed/backend/internal/database"
	"github.com/platefeed/backend/internal/middleware"
	"github.com/platefeed/backend/internal/router"
	"github.com/platefeed/backend/internal/service"
)

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *gorm.DB
	cfg    *config.Config
}

// New wires the database, storage and services together and returns a
// server ready to start.
func New(cfg *config.Config) (*Server, error) {
	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	s3cfg, err := config.NewS3Config(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure s3: %w", err)
	}

	var store service.ImageStore
	mediaDir := ""
	if s3cfg != nil {
		store = &service.S3ImageStore{S3: s3cfg}
	} else {
		store = &service.LocalImageStore{Dir: cfg.MediaDir, BaseURL: cfg.MediaBaseURL}
		mediaDir = cfg.MediaDir
	}

	authService := service.NewAuthService(db, cfg.JWTSecret)
	userService := service.NewUserService(db)
	recipeService := service.NewRecipeService(db, service.NewImageService(store))

	var writeLimits *middleware.RateLimiter
	if redisClient != nil {
		writeLimits = middleware.NewRecipeWriteRateLimiter(redisClient)
	}

	engine := router.SetupRouter(router.Handlers{
		Auth:       api.NewAuthHandler(authService),
		User:       api.NewUserHandler(userService, authService),
		Tag:        api.NewTagHandler(db),
		Ingredient: api.NewIngredientHandler(db),
		Recipe:     api.NewRecipeHandler(recipeService, authService, writeLimits),
	}, mediaDir)

	return &Server{
		router: engine,
		db:     db,
		cfg:    cfg,
	}, nil
}

// Start begins serving and blocks until the listener fails or the server
// is shut down.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:    s.cfg.ServerHost + ":" + s.cfg.ServerPort,
		Handler: s.router,
	}

	log.Printf("Listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http != nil {
		return s.http.Shutdown(ctx)
	}
	return nil
}
