package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/strategiz/core/internal/middleware"
	"github.com/strategiz/core/internal/modules/auth/auth"
	"github.com/strategiz/core/internal/modules/auth/passkey"
	"github.com/strategiz/core/internal/modules/auth/session"
	"github.com/strategiz/core/internal/modules/device"
	"github.com/strategiz/core/internal/modules/market"
	"github.com/strategiz/core/internal/modules/user"
	pkgredis "github.com/strategiz/core/internal/pkg/redis"
	"github.com/strategiz/core/internal/pkg/response"
)

func (a *App) registerRoutes(rc *pkgredis.Client, engine *session.Engine) {
	r := a.router
	cfg := a.cfg
	logger := a.logger

	r.GET("/health", func(c *gin.Context) {
		response.OK(c, gin.H{"status": "ok"})
	})
	r.NoRoute(func(c *gin.Context) { response.NotFound(c) })

	api := r.Group("/api/v1")
	authMW := middleware.Auth(engine)

	// Credential endpoints carry a per-IP limiter on top of the
	// in-service failure delay.
	loginLimit := middleware.RateLimit(rc, "login", 10, time.Minute, logger)
	ceremonyLimit := middleware.RateLimit(rc, "passkey", 30, time.Minute, logger)

	userSvc := user.NewService(a.db, engine)

	authSvc := auth.NewService(a.db, engine)
	authGroup := api.Group("", loginLimit)
	auth.NewHandler(authSvc, logger.Named("auth")).RegisterRoutes(authGroup, authMW)

	session.NewHandler(engine).RegisterRoutes(api, authMW)

	passkeySvc := passkey.NewService(
		cfg.Passkey,
		cfg.Auth.ChallengeTTL.Std(),
		passkey.NewRedisChallengeStore(rc, cfg.Auth.ChallengeTTL.Std()),
		passkey.NewGormCredentialStore(a.db),
		userSvc,
		engine,
		logger.Named("passkey"),
	)
	passkeyGroup := api.Group("", ceremonyLimit)
	passkey.NewHandler(passkeySvc, logger.Named("passkey")).RegisterRoutes(passkeyGroup, authMW)

	user.NewHandler(userSvc).RegisterRoutes(api, authMW)

	device.NewHandler(device.NewService(a.db)).RegisterRoutes(api, authMW)

	marketSvc := market.NewService(rc, market.NewDemoProvider(), cfg.Market.TickerTTL.Std())
	market.NewHandler(marketSvc).RegisterRoutes(api, authMW)

	a.registerJobRoutes(api, authMW)
}
