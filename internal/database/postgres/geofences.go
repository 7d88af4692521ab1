package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/attendance/internal/database"
)

const geofenceColumns = `id, admin_id, company_code, latitude, longitude, radius_meters, created_at`

// GeofenceRepository provides PostgreSQL-backed geofence storage.
type GeofenceRepository struct {
	pool *Pool
}

// NewGeofenceRepository creates a new PostgreSQL geofence repository.
func NewGeofenceRepository(pool *Pool) *GeofenceRepository {
	return &GeofenceRepository{pool: pool}
}

// GetGeofence retrieves the geofence of a tenant, returns nil if none is configured.
func (r *GeofenceRepository) GetGeofence(ctx context.Context, companyCode string) (*database.StoredGeofence, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+geofenceColumns+` FROM geofences WHERE company_code = $1`, companyCode)

	var g database.StoredGeofence
	err := row.Scan(&g.ID, &g.AdminID, &g.CompanyCode, &g.Latitude, &g.Longitude, &g.RadiusMeters, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get geofence %s: %w", companyCode, err)
	}
	return &g, nil
}

// SaveGeofence inserts or replaces the geofence of fence.CompanyCode.
func (r *GeofenceRepository) SaveGeofence(ctx context.Context, fence *database.StoredGeofence) (*database.StoredGeofence, error) {
	radius := fence.RadiusMeters
	if radius == 0 {
		radius = database.DefaultGeofenceRadiusMeters
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO geofences (admin_id, company_code, latitude, longitude, radius_meters)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (company_code) DO UPDATE SET
			admin_id = EXCLUDED.admin_id,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			radius_meters = EXCLUDED.radius_meters
		RETURNING `+geofenceColumns,
		fence.AdminID, fence.CompanyCode, fence.Latitude, fence.Longitude, radius)

	var g database.StoredGeofence
	if err := row.Scan(&g.ID, &g.AdminID, &g.CompanyCode, &g.Latitude, &g.Longitude, &g.RadiusMeters, &g.CreatedAt); err != nil {
		return nil, fmt.Errorf("save geofence %s: %w", fence.CompanyCode, err)
	}
	return &g, nil
}
