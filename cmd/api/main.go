package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"lifeos/db"
	"lifeos/internal/app"
	"lifeos/internal/config"
	"lifeos/internal/handler"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {

	godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	env := config.Load()

	err := db.Connect()
	if err != nil {
		log.Fatalf("error connecting to DB: %v", err)
	}
	defer db.Close()

	if env.AutoMigrate {
		if err := db.Migrate(context.Background()); err != nil {
			log.Fatalf("error migrating DB: %v", err)
		}
	}

	// Redis is optional; without it every cache lookup is a miss.
	if err := db.ConnectRedis(); err != nil {
		slog.Warn("redis unavailable, caching disabled", "error", err)
		db.CloseRedis()
		db.Redis = nil
	}
	defer db.CloseRedis()

	a := app.New(env, db.DB, db.Redis)

	recordHandler := handler.NewRecordHandler(a.Tracker, a.Records, a.Reports)
	queryHandler := handler.NewQueryHandler(a.Query, a.Reporter)
	adminHandler := handler.NewAdminHandler(a.ConfigRepo, a.Cache, db.DB)

	r := gin.Default()

	allowedOrigins := []string{"http://localhost:3000"}

	if env.FrontendURL != "" {
		allowedOrigins = append(allowedOrigins, env.FrontendURL)
	}

	slog.Info("AllowOrigins URL:", "urls", allowedOrigins)

	r.Use(cors.New(cors.Config{
		AllowOrigins:  allowedOrigins,
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", handler.UserIDHeader, handler.RequestIDHeader},
		ExposeHeaders: []string{handler.RequestIDHeader},
	}))
	r.Use(handler.RequestID())

	r.POST("/track", recordHandler.Track)
	r.GET("/records", recordHandler.GetRecords)
	r.PUT("/records/:id", recordHandler.UpdateRecord)
	r.DELETE("/records/:id", recordHandler.DeleteRecord)
	r.GET("/care", recordHandler.GetCareMessage)
	r.POST("/query", queryHandler.Query)
	r.GET("/report/weekly", queryHandler.WeeklyReport)
	r.GET("/report/monthly", queryHandler.MonthlyReport)
	r.GET("/llm-config", adminHandler.GetLlmConfig)
	r.PUT("/llm-config", adminHandler.PutLlmConfig)
	r.DELETE("/llm-config", adminHandler.DeleteLlmConfig)
	r.DELETE("/cache", adminHandler.ClearCache)
	r.GET("/health", adminHandler.GetHealth)

	err = r.Run(":" + env.Port)
	if err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}
