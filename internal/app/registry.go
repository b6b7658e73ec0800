package app

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/jdeveloperweb/axonrh-sub004/internal/bootstrap"
	"github.com/jdeveloperweb/axonrh-sub004/internal/messaging/kafka"
	"github.com/jdeveloperweb/axonrh-sub004/internal/middleware"
	"github.com/jdeveloperweb/axonrh-sub004/internal/payroll"
	"github.com/jdeveloperweb/axonrh-sub004/internal/rbac"
	"github.com/jdeveloperweb/axonrh-sub004/internal/shared/counter"
	"github.com/jdeveloperweb/axonrh-sub004/internal/sourceclient"
	"github.com/jdeveloperweb/axonrh-sub004/internal/taxbracket"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
	audit bootstrap.AuditLogger,
) error {
	// --- Repositories ---
	counterRepo := counter.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)
	payrollRepo := payroll.NewRepository(gormDB)
	runRepo := payroll.NewRunRepository(gormDB)
	taxBracketRepo := taxbracket.NewRepository(gormDB)

	// --- RBAC Core ---
	enforcer, err := rbac.NewEnforcer(
		filepath.Join("internal", "rbac", "model.conf"),
		filepath.Join("internal", "rbac", "policy.csv"),
	)
	if err != nil {
		return err
	}

	// --- Collaborator sources ---
	sourceTimeout := 5 * time.Second
	if v := os.Getenv("SOURCE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			sourceTimeout = d
		}
	}
	sources := sourceclient.NewSources(sourceTimeout)

	// --- Services ---
	taxBracketService := taxbracket.NewService(taxBracketRepo)
	aggregator := payroll.NewAggregator(sources, sourceTimeout)
	calculator := payroll.NewCalculator(taxBracketService, payroll.DefaultCalculationParams())
	payrollService := payroll.NewServiceWithOutbox(db, payrollRepo, aggregator, calculator, outboxRepo, rdb)
	runService := payroll.NewRunService(
		db,
		runRepo,
		payrollRepo,
		payrollService,
		sources.Employee,
		counterRepo,
		outboxRepo,
		rdb,
		batchWorkersFromEnv(),
	)

	// --- Handlers ---
	payrollHandler := payroll.NewHandlerWithAudit(payrollService, runService, rdb, audit)
	taxBracketHandler := taxbracket.NewHandler(taxBracketService)

	// --- Middleware & Routes ---
	router.Use(middleware.RequestID())
	router.Use(middleware.ContextLogger(zap.L()))
	router.Use(middleware.RateLimitByTenant(rate.Limit(50), 100))

	api := router.Group("/api/v1")
	{
		payroll.RegisterRoutes(api, payrollHandler, enforcer, rdb)
		taxbracket.RegisterRoutes(api, taxBracketHandler, enforcer)
	}

	return nil
}
