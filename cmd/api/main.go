package main

import (
	"os"
	"time"

	"github.com/jdeveloperweb/axonrh-sub004/internal/app"
	"github.com/jdeveloperweb/axonrh-sub004/internal/bootstrap"
	"github.com/jdeveloperweb/axonrh-sub004/internal/shared/apperror"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	apperror.Init()
	r := gin.Default()

	auditLogger := bootstrap.NewStdoutAuditLogger()
	if err := app.BuildApp(r, auditLogger); err != nil {
		logger.Fatal("build app failed", zap.Error(err))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	bootstrap.StartHTTPServer(
		r,
		bootstrap.ServerConfig{
			Port:        port,
			ReadTimeout: 5 * time.Second,
			// batch runs are synchronous; the write timeout has to cover
			// a full competency run
			WriteTimeout: 5 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		auditLogger,
	)
}
