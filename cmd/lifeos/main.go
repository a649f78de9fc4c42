package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"lifeos/db"
	"lifeos/internal/app"
	"lifeos/internal/config"
	"lifeos/internal/report"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var userFlag int64

var rootCmd = &cobra.Command{
	Use:          "lifeos",
	Short:        "Record and query life events from the command line",
	SilenceUsage: true,
}

var parseCmd = &cobra.Command{
	Use:   "parse <text>",
	Short: "Extract a structured record from free text without saving it",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runParse,
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question about a user's records",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var reportCmd = &cobra.Command{
	Use:       "report weekly|monthly",
	Short:     "Print a user's weekly or monthly report",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(report.Weekly), string(report.Monthly)},
	RunE:      runReport,
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the Redis cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete cached parse results and reports",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

func init() {
	askCmd.Flags().Int64VarP(&userFlag, "user", "u", 0, "User id")
	reportCmd.Flags().Int64VarP(&userFlag, "user", "u", 0, "User id")
	askCmd.MarkFlagRequired("user")
	reportCmd.MarkFlagRequired("user")

	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(parseCmd, askCmd, reportCmd, cacheCmd)
}

func main() {
	godotenv.Load()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openApp connects whatever backends are configured. A database is only
// mandatory when needDB is set.
func openApp(needDB bool) (*app.App, func(), error) {
	env := config.Load()
	closers := []func(){}
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	if os.Getenv("REDIS_URL") != "" {
		if err := db.ConnectRedis(); err != nil {
			slog.Warn("redis unavailable, caching disabled", "error", err)
			db.CloseRedis()
			db.Redis = nil
		} else {
			closers = append(closers, db.CloseRedis)
		}
	}

	if needDB || os.Getenv("DATABASE_URL") != "" {
		if err := db.Connect(); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connecting to DB: %w", err)
		}
		closers = append(closers, db.Close)
	}

	return app.New(env, db.DB, db.Redis), cleanup, nil
}

func runParse(cmd *cobra.Command, args []string) error {
	a, cleanup, err := openApp(false)
	if err != nil {
		return err
	}
	defer cleanup()

	result := a.Extractor.Extract(cmd.Context(), strings.Join(args, " "))

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, cleanup, err := openApp(true)
	if err != nil {
		return err
	}
	defer cleanup()

	answer := a.Query.Answer(cmd.Context(), strings.Join(args, " "), userFlag)
	fmt.Fprintln(cmd.OutOrStdout(), answer)
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	period, ok := report.ParsePeriod(args[0])
	if !ok {
		return fmt.Errorf("unknown report period %q, want weekly or monthly", args[0])
	}

	a, cleanup, err := openApp(true)
	if err != nil {
		return err
	}
	defer cleanup()

	text, err := a.Reporter.Generate(cmd.Context(), period, userFlag)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	if os.Getenv("REDIS_URL") == "" {
		return fmt.Errorf("REDIS_URL is not set")
	}

	a, cleanup, err := openApp(false)
	if err != nil {
		return err
	}
	defer cleanup()

	removed, err := a.Cache.ClearAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "removed %d cached entries\n", removed)
	return nil
}
