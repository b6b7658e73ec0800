package taxbracket

import (
	"github.com/jdeveloperweb/axonrh-sub004/internal/middleware"
	"github.com/jdeveloperweb/axonrh-sub004/internal/rbac"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, enforcer *casbin.Enforcer) {
	brackets := r.Group("/tax-brackets")
	brackets.Use(middleware.AuthMiddleware())
	{
		brackets.GET("", rbac.Authorize(enforcer, "tax_bracket", "read"), handler.GetAll)
		brackets.POST("", rbac.Authorize(enforcer, "tax_bracket", "manage"), handler.Create)
		brackets.PUT("/:id", rbac.Authorize(enforcer, "tax_bracket", "manage"), handler.Update)
		brackets.DELETE("/:id", rbac.Authorize(enforcer, "tax_bracket", "manage"), handler.Deactivate)
	}
}
