package app

import (
	"os"
	"strconv"

	"github.com/jdeveloperweb/axonrh-sub004/internal/bootstrap"
	"github.com/jdeveloperweb/axonrh-sub004/internal/payroll"
	"github.com/jdeveloperweb/axonrh-sub004/internal/shared/connection"
	"github.com/jdeveloperweb/axonrh-sub004/internal/taxbracket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BuildApp connects the infrastructure and registers every module on the
// router. Called once from cmd/api.
func BuildApp(router *gin.Engine, audit bootstrap.AuditLogger) error {
	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}
	zap.L().Info("database connection established")

	if os.Getenv("DB_AUTO_MIGRATE") == "true" {
		if err := gormDB.AutoMigrate(
			&taxbracket.TaxBracket{},
			&payroll.Payroll{},
			&payroll.PayrollItem{},
			&payroll.PayrollRun{},
			&payroll.RunFailure{},
		); err != nil {
			return err
		}
		zap.L().Info("schema migration applied")
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}

	redisClient, err := connection.ConnectRedisWithRetry(os.Getenv("REDIS_ADDR"), 5)
	if err != nil {
		return err
	}
	zap.L().Info("redis connection established")

	return registerModules(router, sqlDB, gormDB, redisClient, audit)
}

func batchWorkersFromEnv() int {
	if v := os.Getenv("PAYROLL_BATCH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return payroll.DefaultBatchWorkers
}
