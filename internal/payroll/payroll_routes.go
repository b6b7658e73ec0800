package payroll

import (
	"github.com/jdeveloperweb/axonrh-sub004/internal/middleware"
	"github.com/jdeveloperweb/axonrh-sub004/internal/rbac"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	enforcer *casbin.Enforcer,
	rdb ...*redis.Client,
) {
	var redisClient *redis.Client
	if len(rdb) > 0 {
		redisClient = rdb[0]
	}

	payrolls := r.Group("/payrolls")
	payrolls.Use(middleware.AuthMiddleware())
	{
		payrolls.GET("/:id", rbac.Authorize(enforcer, "payroll", "read"), handler.GetById)
		payrolls.GET("/:id/payslip", rbac.Authorize(enforcer, "payroll", "read"), handler.GetPayslip)
		payrolls.GET("", rbac.Authorize(enforcer, "payroll", "read"), handler.ListByCompetency)
		payrolls.GET("/employee/:employeeId", rbac.Authorize(enforcer, "payroll", "read"), handler.ListByEmployee)
		if redisClient != nil {
			payrolls.POST(
				"/process",
				middleware.Idempotency(redisClient),
				rbac.Authorize(enforcer, "payroll", "process"),
				handler.Process,
			)
		} else {
			payrolls.POST("/process", rbac.Authorize(enforcer, "payroll", "process"), handler.Process)
		}
	}

	runs := r.Group("/payroll-runs")
	runs.Use(middleware.AuthMiddleware())
	{
		runs.GET("", rbac.Authorize(enforcer, "payroll_run", "read"), handler.ListRuns)
		runs.GET("/:id", rbac.Authorize(enforcer, "payroll_run", "read"), handler.GetRun)
		if redisClient != nil {
			runs.POST(
				"",
				middleware.Idempotency(redisClient),
				rbac.Authorize(enforcer, "payroll_run", "process"),
				handler.ProcessBatch,
			)
		} else {
			runs.POST("", rbac.Authorize(enforcer, "payroll_run", "process"), handler.ProcessBatch)
		}
		runs.POST("/:id/cancel", rbac.Authorize(enforcer, "payroll_run", "cancel"), handler.CancelRun)
		runs.POST("/close", rbac.Authorize(enforcer, "payroll_run", "close"), handler.CloseCompetency)
	}
}
