package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lifeos/db"
	"lifeos/internal/app"
	"lifeos/internal/config"
	"lifeos/internal/report"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
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

	err = db.ConnectRedis()
	if err != nil {
		log.Fatalf("error connecting to Redis: %v", err)
	}
	defer db.CloseRedis()

	a := app.New(env, db.DB, db.Redis)
	scheduler := report.NewScheduler(a.Records, db.NewReportQueue(), a.Reporter)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := cron.New()
	_, err = c.AddFunc(env.ReportSchedule, func() {
		if _, err := scheduler.Enqueue(ctx, report.Weekly); err != nil {
			slog.Error("error enqueueing weekly reports", "error", err)
		}
	})
	if err != nil {
		log.Fatalf("invalid REPORT_SCHEDULE %q: %v", env.ReportSchedule, err)
	}

	c.Start()
	slog.Info("report scheduler started", "schedule", env.ReportSchedule)

	scheduler.Run(ctx, 5*time.Second)

	<-c.Stop().Done()
	slog.Info("report scheduler stopped")
}
