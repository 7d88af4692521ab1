package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/attendance/internal/config"
	"github.com/kozaktomas/attendance/internal/database"
	"github.com/kozaktomas/attendance/internal/database/postgres"
	"go.uber.org/zap"
)

// backend holds the registered repositories.
type backend struct {
	users      database.UserWriter
	geofences  database.GeofenceWriter
	attendance database.AttendanceWriter
}

// openBackend connects to PostgreSQL, applies pending migrations and returns
// the registered repositories. The caller closes the pool via closeBackend.
func openBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*backend, error) {
	if cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL environment variable is required")
	}

	logger.Info("connecting to PostgreSQL")
	applied, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	for _, name := range applied {
		logger.Info("applied migration", zap.String("migration", name))
	}

	b := &backend{}
	if b.users, err = database.GetUserWriter(ctx); err != nil {
		return nil, fmt.Errorf("failed to get user repository: %w", err)
	}
	if b.geofences, err = database.GetGeofenceWriter(ctx); err != nil {
		return nil, fmt.Errorf("failed to get geofence repository: %w", err)
	}
	if b.attendance, err = database.GetAttendanceWriter(ctx); err != nil {
		return nil, fmt.Errorf("failed to get attendance repository: %w", err)
	}
	return b, nil
}

func closeBackend(logger *zap.Logger) {
	if pool := postgres.GetGlobalPool(); pool != nil {
		if err := pool.Close(); err != nil {
			logger.Warn("closing database pool", zap.Error(err))
		}
	}
	postgres.SetGlobalPool(nil)
}
