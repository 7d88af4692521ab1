package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/attendance/internal/database"
	"github.com/pgvector/pgvector-go"
)

const userColumns = `id, email, full_name, role, company_code, face_descriptor, created_at`

// UserRepository provides PostgreSQL-backed user storage.
type UserRepository struct {
	pool *Pool
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(pool *Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetUser retrieves a user by ID, returns nil if not found.
func (r *UserRepository) GetUser(ctx context.Context, id string) (*database.StoredUser, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return user, nil
}

// ListUsersByCompany returns all users of a tenant ordered by ID.
func (r *UserRepository) ListUsersByCompany(ctx context.Context, companyCode string) ([]database.StoredUser, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE company_code = $1 ORDER BY id`, companyCode)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []database.StoredUser
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// SaveUser inserts or updates a user. The reference descriptor is only
// replaced when the given user carries one.
func (r *UserRepository) SaveUser(ctx context.Context, user *database.StoredUser) error {
	var descriptor any
	if len(user.FaceDescriptor) > 0 {
		if len(user.FaceDescriptor) != database.FaceDescriptorDim {
			return fmt.Errorf("face descriptor has %d dimensions, want %d",
				len(user.FaceDescriptor), database.FaceDescriptorDim)
		}
		descriptor = pgvector.NewVector(user.FaceDescriptor)
	}

	var companyCode any
	if user.CompanyCode != "" {
		companyCode = user.CompanyCode
	}

	role := user.Role
	if role == "" {
		role = database.RoleUser
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, email, full_name, role, company_code, face_descriptor)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			full_name = EXCLUDED.full_name,
			role = EXCLUDED.role,
			company_code = EXCLUDED.company_code,
			face_descriptor = COALESCE(EXCLUDED.face_descriptor, users.face_descriptor)
	`, user.ID, user.Email, user.FullName, string(role), companyCode, descriptor)
	if isUniqueViolation(err) {
		return database.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("save user %s: %w", user.ID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*database.StoredUser, error) {
	var (
		user        database.StoredUser
		role        string
		companyCode sql.NullString
		descriptor  *pgvector.Vector
	)
	if err := row.Scan(&user.ID, &user.Email, &user.FullName, &role, &companyCode, &descriptor, &user.CreatedAt); err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context
	}
	user.Role = database.Role(role)
	user.CompanyCode = companyCode.String
	if descriptor != nil {
		user.FaceDescriptor = descriptor.Slice()
	}
	return &user, nil
}
