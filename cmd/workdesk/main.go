package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rpggio/workdesk/internal/config"
	"github.com/rpggio/workdesk/internal/domain/activity"
	"github.com/rpggio/workdesk/internal/gateway"
	"github.com/rpggio/workdesk/internal/reconcile"
	"github.com/rpggio/workdesk/internal/sqlite"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "workdesk",
	Short:         "Company, department, user and task client with offline fallback",
	Long:          `workdesk talks to the company, department, user, role, project and task services and keeps a local cache that stands in for them when they fail.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if path, _ := cmd.Flags().GetString("config"); path != "" {
			os.Setenv("WORKDESK_CONFIG_PATH", path)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "YAML config file (overrides WORKDESK_CONFIG_PATH)")
	rootCmd.Version = version

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(activityCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds everything a command needs once config is loaded.
type app struct {
	cfg        config.Config
	logger     *slog.Logger
	db         *sqlite.DB
	service    *reconcile.Service
	activity   *activity.Service
	workspaces *reconcile.Workspaces
	closers    []io.Closer
}

// setup loads config and opens storage. Logs go to stdout only when quiet is
// false; commands that print results or speak stdio keep stdout clean.
func setup(quiet bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	a := &app{cfg: cfg}

	logWriter := io.Writer(os.Stdout)
	if quiet {
		logWriter = os.Stderr
	}
	if logPath := os.Getenv("WORKDESK_LOG_PATH"); logPath != "" {
		fileWriter, file, err := newLogFileWriter(logPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			a.closers = append(a.closers, file)
			logWriter = fileWriter
		}
	}
	a.logger = slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	dsn := cfg.DB.Path
	if dsn == "" {
		dsn = ":memory:"
	}
	if err := ensureDBDir(dsn); err != nil {
		a.Close()
		return nil, fmt.Errorf("prepare database path: %w", err)
	}
	a.db, err = sqlite.Open(dsn)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, a.db)

	client := gateway.New(cfg.GatewayConfig(), gateway.WithLogger(a.logger))
	a.activity = activity.NewService(sqlite.NewActivityRepository(a.db), a.logger)
	a.service = reconcile.NewService(client, a.activity, a.logger)
	a.workspaces = reconcile.NewWorkspaces(cfg.GatewayAuth(), sqlite.NewSnapshotRepository(a.db), a.logger)
	return a, nil
}

func (a *app) workspace(ctx context.Context, id string) *reconcile.Workspace {
	return a.workspaces.Get(ctx, id)
}

// Close releases storage and the log file, newest first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i].Close()
	}
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
