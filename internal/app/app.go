package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/strategiz/core/internal/config"
	"github.com/strategiz/core/internal/database"
	"github.com/strategiz/core/internal/middleware"
	"github.com/strategiz/core/internal/modules/auth/session"
	pkgcron "github.com/strategiz/core/internal/pkg/cron"
	pkgredis "github.com/strategiz/core/internal/pkg/redis"
	"github.com/strategiz/core/internal/pkg/token"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds all application dependencies.
type App struct {
	cfg    *config.AppConfig
	router *gin.Engine
	db     *gorm.DB
	logger *zap.Logger
	cancel context.CancelFunc
	sched  *pkgcron.Scheduler
}

// New initializes the application: DB, redis, session engine, routes,
// background jobs.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	db, err := database.Connect(cfg, true)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	rc, err := pkgredis.Connect(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	key, err := cfg.DecodedTokenKey()
	if err != nil {
		return nil, err
	}
	codec, err := token.NewCodec(key)
	if err != nil {
		return nil, err
	}

	store := session.NewGormStore(db)
	engine := session.NewEngine(store, codec,
		cfg.Auth.AccessTTL.Std(), cfg.Auth.RefreshTTL.Std(),
		logger.Named("session"))

	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	ctx, cancel := context.WithCancel(context.Background())

	sched := pkgcron.New(logger.Named("cron"))
	registerCronJobs(sched, store, cfg, logger)
	sched.Start(ctx)

	app := &App{cfg: cfg, router: router, db: db, logger: logger, cancel: cancel, sched: sched}
	app.registerRoutes(rc, engine)

	return app, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown cleans up background goroutines.
func (a *App) Shutdown() { a.cancel() }
