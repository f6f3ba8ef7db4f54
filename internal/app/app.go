package app

import (
	"quota-backend/internal/audit"
	"quota-backend/internal/auth"
	"quota-backend/internal/commission"
	"quota-backend/internal/config"
	"quota-backend/internal/database"
	"quota-backend/internal/health"
	"quota-backend/internal/holdings"
	"quota-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// sqlPinger adapts *gorm.DB to the health DBPinger interface.
type sqlPinger struct {
	db *gorm.DB
}

func (p *sqlPinger) Ping() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// CreateApp builds the Fiber app with all global middleware and route
// registration, plus the DB and Redis clients it was wired with (for
// startup pings and shutdown).
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler,
	})

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, err
		}
		rdb = redis.NewClient(opt)
		app.Use(middleware.HealthMarker(rdb))
	}

	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var errDB error
		db, errDB = database.Open(cfg.DatabaseURL)
		if errDB != nil {
			return nil, nil, nil, errDB
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, nil, nil, err
		}
	}

	// Health endpoints (no auth)
	healthHandlers := &health.Handlers{
		Rdb:            rdb,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	if db != nil {
		healthHandlers.DB = &sqlPinger{db: db}
	}
	app.Get("/health/json", healthHandlers.JSON)
	app.Get("/reset", healthHandlers.Reset)

	// Engine routes (service-token auth); db may be nil in config-less test
	// setups, in which case only health is mounted.
	if db != nil {
		verifier := &auth.ServiceVerifier{Tokens: auth.ParseServiceTokens(cfg.ServiceTokens)}
		requireService := middleware.RequireService(verifier)

		holdingsService := &holdings.Service{DB: db}
		holdingsHandlers := &holdings.Handlers{Service: holdingsService}
		quotaGroup := app.Group("/api/v1/quota", requireService)
		quotaGroup.Post("/set-quota", holdingsHandlers.SetQuota)
		quotaGroup.Get("/get-quota", holdingsHandlers.GetQuota)
		quotaGroup.Post("/add-resource-limit", holdingsHandlers.AddResourceLimit)

		commissionService := &commission.Service{DB: db}
		commissionHandlers := &commission.Handlers{Service: commissionService}
		commGroup := app.Group("/api/v1/commissions", requireService)
		commGroup.Post("/issue-commission", commissionHandlers.IssueCommission)
		commGroup.Get("/get-commission/:serial", commissionHandlers.GetCommission)
		commGroup.Get("/get-pending-commissions", commissionHandlers.GetPendingCommissions)
		commGroup.Post("/resolve-pending-commission", commissionHandlers.ResolvePendingCommission)
		commGroup.Post("/resolve-pending-commissions", commissionHandlers.ResolvePendingCommissions)

		auditService := &audit.Service{DB: db}
		auditHandlers := &audit.Handlers{Service: auditService}
		auditGroup := app.Group("/api/v1/audit", requireService)
		auditGroup.Get("/get-logs", auditHandlers.GetLogs)
	}

	return app, db, rdb, nil
}
