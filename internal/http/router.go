package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/relaypoint/rollcall/internal/config"
	"github.com/relaypoint/rollcall/internal/consistency"
	"github.com/relaypoint/rollcall/internal/domain/user"
	"github.com/relaypoint/rollcall/internal/http/handlers"
	"github.com/relaypoint/rollcall/internal/http/middlewares"
	"github.com/relaypoint/rollcall/internal/observability"
	"github.com/relaypoint/rollcall/internal/repo/memory"
	"github.com/relaypoint/rollcall/internal/repo/postgres"
	"github.com/relaypoint/rollcall/internal/security"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func NewRouter(log *slog.Logger, cfg config.Config, pool *pgxpool.Pool) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(1 << 20))
	r.Use(otelgin.Middleware("rollcall"))
	r.Use(prom.GinHandleMiddleware())

	// wire up repositories: postgres when a pool is configured, otherwise
	// the in-memory stores (dev / test mode)

	var (
		usersRepo    handlers.UserStore
		rostersRepo  handlers.RosterStore
		studentsRepo handlers.StudentStore
		sweepRosters consistency.RosterStore
		sweepUsers   consistency.UserStore
	)

	if pool != nil {
		pgUsers := postgres.NewUsersRepo(pool, prom)
		pgRosters := postgres.NewRostersRepo(pool, prom)
		pgStudents := postgres.NewStudentsRepo(pool, prom)

		usersRepo, rostersRepo, studentsRepo = pgUsers, pgRosters, pgStudents
		sweepRosters, sweepUsers = pgRosters, pgUsers
	} else {
		memUsers := memory.NewUsersRepo()
		memRosters := memory.NewRostersRepo()
		memStudents := memory.NewStudentsRepo()

		usersRepo, rostersRepo, studentsRepo = memUsers, memRosters, memStudents
		sweepRosters, sweepUsers = memRosters, memUsers

		seedMemoryAdmin(log, cfg, memUsers)
	}

	sweeper := consistency.NewSweeper(sweepRosters, sweepUsers, log, prom)

	// the reconcile sweep is idempotent, so running it on every boot is safe
	func() {
		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		sweeper.Reconcile(ctx)
	}()

	auth := middlewares.NewAuthMiddleware(usersRepo)
	r.Use(auth.Resolve())

	// health + metrics

	ping := func(ctx context.Context) error {
		if pool == nil {
			return nil
		}

		return pool.Ping(ctx)
	}

	healthHandler := handlers.NewHealthHandler(ping)
	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/readyz", healthHandler.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// wire up handlers

	authHandler := handlers.NewAuthHandler(usersRepo)
	usersHandler := handlers.NewUsersHandler(usersRepo, sweeper)
	rostersHandler := handlers.NewRostersHandler(rostersRepo, usersRepo, cfg.StrictRosterReads, log)
	studentsHandler := handlers.NewStudentsHandler(studentsRepo, rostersRepo, sweeper, log)

	loginLimiter := middlewares.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow)

	r.GET("/locations", handlers.Locations)

	r.POST("/auth/login", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Login)
	r.GET("/auth/me", authHandler.Me)

	admin := r.Group("/admin", auth.RequireAuth(), auth.RequireRole(user.RoleAdmin))
	{
		admin.POST("/users/create", usersHandler.CreateUser)
		admin.GET("/users", usersHandler.ListUsers)
		admin.DELETE("/users/:id", usersHandler.DeleteUser)
	}

	rosters := r.Group("/rosters", auth.RequireAuth())
	{
		rosters.GET("", rostersHandler.ListRosters)
		rosters.POST("", auth.RequireRole(user.RoleAdmin), rostersHandler.CreateRoster)
		rosters.GET("/:id", rostersHandler.GetRoster)
		rosters.DELETE("/:id", auth.RequireRole(user.RoleAdmin), rostersHandler.DeleteRoster)
		rosters.POST("/:id/assign", auth.RequireRole(user.RoleAdmin), rostersHandler.AssignRoster)
		rosters.POST("/:id/students", rostersHandler.AddMembership)
		rosters.PUT("/:id/students/:sid", rostersHandler.UpdateMembership)
		rosters.DELETE("/:id/students/:sid", rostersHandler.RemoveMembership)
	}

	students := r.Group("/students", auth.RequireAuth())
	{
		students.POST("", studentsHandler.CreateStudent)
		students.GET("", studentsHandler.ListStudents)
		students.GET("/:id", studentsHandler.GetStudent)
		students.DELETE("/:id", auth.RequireRole(user.RoleAdmin), studentsHandler.DeleteStudent)
	}

	return r
}

// seedMemoryAdmin mirrors the database admin seed for the in-memory mode.
func seedMemoryAdmin(log *slog.Logger, cfg config.Config, users *memory.UsersRepo) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		log.Error("memory admin seed failed", "err", err)
		return
	}

	ctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	if err := users.Create(ctx, user.New(cfg.AdminEmail, hash, []string{user.RoleAdmin})); err != nil {
		log.Error("memory admin seed failed", "err", err)
	}
}
