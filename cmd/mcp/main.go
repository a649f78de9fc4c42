package main

import (
	"log"
	"log/slog"
	"os"

	"lifeos/db"
	"lifeos/internal/app"
	"lifeos/internal/config"
	"lifeos/internal/tools"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
)

func main() {

	godotenv.Load()

	// stdout carries the MCP protocol.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	env := config.Load()

	if os.Getenv("REDIS_URL") != "" {
		if err := db.ConnectRedis(); err != nil {
			slog.Warn("redis unavailable, caching disabled", "error", err)
			db.CloseRedis()
			db.Redis = nil
		}
		defer db.CloseRedis()
	}

	if os.Getenv("DATABASE_URL") != "" {
		if err := db.Connect(); err != nil {
			log.Fatalf("error connecting to DB: %v", err)
		}
		defer db.Close()
	}

	a := app.New(env, db.DB, db.Redis)

	var answerer tools.Answerer
	if a.Query != nil {
		answerer = a.Query
	}

	s := server.NewMCPServer("lifeos", "1.0.0", server.WithToolCapabilities(false))
	tools.Register(s, a.Extractor, answerer)

	if err := server.ServeStdio(s); err != nil {
		log.Fatalf("mcp server error: %v", err)
	}
}
