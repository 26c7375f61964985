package app

import (
	"github.com/gin-gonic/gin"
	"github.com/strategiz/core/internal/config"
	"github.com/strategiz/core/internal/middleware"
	"github.com/strategiz/core/internal/modules/auth/session"
	pkgcron "github.com/strategiz/core/internal/pkg/cron"
	"github.com/strategiz/core/internal/pkg/response"
	"go.uber.org/zap"
)

// registerCronJobs registers all scheduled background jobs.
func registerCronJobs(sched *pkgcron.Scheduler, store session.Store, cfg *config.AppConfig, logger *zap.Logger) {
	sweeper := session.NewSweeper(store,
		cfg.Auth.ExpiredRetention.Std(),
		cfg.Auth.RevokedRetention.Std(),
		logger.Named("sweeper"))

	sched.Register(pkgcron.Job{
		Name:        "sweep_sessions",
		Description: "delete session records past their retention window",
		Interval:    cfg.Auth.SweepInterval.Std(),
		Fn:          sweeper.Run,
	})
}

// registerJobRoutes exposes the scheduler for operators: list jobs,
// trigger one, poll its outcome. Requires a strong authentication
// context, not just a bare password login.
func (a *App) registerJobRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/jobs", authMW, middleware.RequireACR("2"))

	g.GET("", func(c *gin.Context) {
		response.OK(c, a.sched.List())
	})

	g.POST("/:name/run", func(c *gin.Context) {
		if err := a.sched.Run(c.Request.Context(), c.Param("name")); err != nil {
			response.NotFoundMsg(c, err.Error())
			return
		}
		response.OK(c, gin.H{"started": true})
	})

	g.GET("/:name", func(c *gin.Context) {
		res, err := a.sched.GetTask(c.Param("name"))
		if err != nil {
			response.NotFoundMsg(c, err.Error())
			return
		}
		response.OK(c, res)
	})
}
