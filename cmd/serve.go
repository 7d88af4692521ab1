package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kozaktomas/attendance/internal/attendance"
	"github.com/kozaktomas/attendance/internal/config"
	"github.com/kozaktomas/attendance/internal/notify"
	"github.com/kozaktomas/attendance/internal/web"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the attendance HTTP API.

The server exposes check-in, check-out, attendance queries, geofence
configuration and a server-sent event stream of attendance changes. When
REDIS_ADDR is set, every change is also published to Redis.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides WEB_HOST)")
}

// buildNotifier fans events out to the hub and, when configured, to Redis.
func buildNotifier(ctx context.Context, cfg *config.Config, hub *notify.Hub, logger *zap.Logger) (attendance.Notifier, func(), error) {
	notifiers := notify.Fanout{hub}
	cleanup := func() {}

	if cfg.Redis.Addr != "" {
		client, err := notify.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		notifiers = append(notifiers, notify.NewRedisNotifier(client, cfg.Redis.Channel))
		cleanup = func() {
			if err := client.Close(); err != nil {
				logger.Warn("closing redis client", zap.Error(err))
			}
		}
		logger.Info("publishing attendance events to redis",
			zap.String("addr", cfg.Redis.Addr),
			zap.String("channel_prefix", cfg.Redis.Channel),
		)
	}
	return notifiers, cleanup, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if port := mustGetInt(cmd, "port"); port != 0 {
		cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Web.Host = host
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeBackend(logger)

	hub := notify.NewHub()
	notifier, closeNotifier, err := buildNotifier(ctx, cfg, hub, logger)
	if err != nil {
		return err
	}
	defer closeNotifier()

	loc, err := cfg.Attendance.Location()
	if err != nil {
		return err
	}
	service := attendance.NewService(b.users, b.geofences, b.attendance,
		attendance.WithClock(attendance.NewCivilClock(loc, nil)),
		attendance.WithPolicy(cfg.Attendance.Policy()),
		attendance.WithNotifier(notifier),
		attendance.WithLogger(logger),
	)

	server := web.NewServer(cfg, service, hub, logger)

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("error during shutdown", zap.Error(err))
		}
	}()

	logger.Info("attendance API ready",
		zap.String("civil_zone", loc.String()),
		zap.Float64("face_threshold", cfg.Attendance.FaceThreshold),
		zap.Bool("allow_without_geofence", cfg.Attendance.AllowWithoutGeofence),
	)

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
