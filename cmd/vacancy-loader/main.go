// Command vacancy-loader rebuilds a PostgreSQL database of hh.ru employers
// and their vacancies, then answers a fixed set of analytical queries from
// an interactive menu.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"jobmate/vacancy-loader/internal/config"
	"jobmate/vacancy-loader/internal/db"
	"jobmate/vacancy-loader/internal/events"
	"jobmate/vacancy-loader/internal/store"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	exitOK = iota
	exitFailure
	exitSchema
	exitLoad
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err))
}

func rootCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "vacancy-loader",
		Short: "Load hh.ru vacancies into PostgreSQL and query them",
		Long: `vacancy-loader fetches employers and their vacancies from the hh.ru API,
recreates the target PostgreSQL database and loads everything in one
transaction.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. database.ini [postgresql] section (if HH_DB_CONFIG_FILE is set)

Environment variables:
  HH_EMPLOYER_IDS          Comma-separated hh.ru employer ids (default: ten built-in employers)
  HH_BASE_URL              API base URL (default: https://api.hh.ru)
  HH_PAGE_SIZE             Vacancies per page, 1-100 (default: 100)
  HH_MAX_PAGES             Pages per employer, 0 for all (default: 2)
  HH_REQUEST_TIMEOUT       Per-request timeout (default: 15s)
  HH_FETCH_CONCURRENCY     Employers fetched in parallel (default: 1)
  HH_DB_HOST, HH_DB_PORT, HH_DB_USER, HH_DB_PASSWORD, HH_DB_NAME,
  HH_DB_ADMIN_DB, HH_DB_SSL_MODE
                           PostgreSQL connection (default database: hh_info)
  HH_DB_CONFIG_FILE        Optional database.ini path
  REDIS_URL                Publish EVENT_VACANCIES_LOADED after each load
  SYNC_INTERVAL_HOURS      Reload interval for "schedule" (default: 24)
  LOG_LEVEL                DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT               text, json (default: text)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd.Context(), envFile)
		},
	}

	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")

	cmd.AddCommand(runCmd(&envFile))
	cmd.AddCommand(loadCmd(&envFile))
	cmd.AddCommand(scheduleCmd(&envFile))
	cmd.AddCommand(versionCmd())

	return cmd
}

// setup loads configuration and installs the default logger.
func setup(envFile string) (*config.Config, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(newLogger(os.Stderr, cfg.LogFormat, cfg.LogLevel))
	return cfg, nil
}

// publisher connects to Redis when REDIS_URL is set. Events are optional,
// so a connection failure only logs a warning.
func publisher(ctx context.Context, cfg *config.Config) (events.Publisher, func()) {
	if cfg.RedisURL == "" {
		return events.Nop{}, func() {}
	}
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Warn("redis unavailable, load events disabled", "err", err)
		return events.Nop{}, func() {}
	}
	return events.NewRedisPublisher(rdb), func() { _ = rdb.Close() }
}

func exitCode(err error) int {
	if err == nil || errors.Is(err, context.Canceled) {
		return exitOK
	}
	fmt.Fprintln(os.Stderr, "Error:", err)

	var se *store.SchemaError
	var le *store.LoadError
	switch {
	case errors.As(err, &se):
		return exitSchema
	case errors.As(err, &le):
		return exitLoad
	default:
		return exitFailure
	}
}
