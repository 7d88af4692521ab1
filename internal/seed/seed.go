// Package seed loads tenants, users and geofences from a YAML file into storage.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/kozaktomas/attendance/internal/attendance"
	"github.com/kozaktomas/attendance/internal/database"
	"gopkg.in/yaml.v3"
)

// File is the root of a seed document.
type File struct {
	Companies []Company `yaml:"companies"`
}

// Company is one tenant with its members and optional geofence.
type Company struct {
	Code     string    `yaml:"code"`
	Geofence *Geofence `yaml:"geofence"`
	Users    []User    `yaml:"users"`
}

// Geofence is a tenant's check-in area. AdminID defaults to the first admin
// listed for the company.
type Geofence struct {
	AdminID      string  `yaml:"admin_id"`
	Latitude     float64 `yaml:"latitude"`
	Longitude    float64 `yaml:"longitude"`
	RadiusMeters int     `yaml:"radius_meters"`
}

// User is a tenant member. A missing ID is generated.
type User struct {
	ID             string    `yaml:"id"`
	Email          string    `yaml:"email"`
	FullName       string    `yaml:"full_name"`
	Role           string    `yaml:"role"`
	FaceDescriptor []float32 `yaml:"face_descriptor"`
}

// Result summarizes an Apply run.
type Result struct {
	Users     int
	Geofences int
	Errors    int
}

// Load parses and validates a seed document. Company codes are normalized and
// missing user IDs are generated.
func Load(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}

	var errs []error
	emails := make(map[string]bool)
	for i := range f.Companies {
		c := &f.Companies[i]
		c.Code = attendance.NormalizeCompanyCode(c.Code)
		if c.Code == "" {
			errs = append(errs, fmt.Errorf("company %d: code is required", i))
			continue
		}
		for j := range c.Users {
			u := &c.Users[j]
			if u.ID == "" {
				u.ID = uuid.NewString()
			}
			if u.Role == "" {
				u.Role = string(database.RoleUser)
			}
			if err := validateUser(u, emails); err != nil {
				errs = append(errs, fmt.Errorf("company %s user %d: %w", c.Code, j, err))
			}
		}
		if c.Geofence != nil {
			if err := resolveGeofence(c); err != nil {
				errs = append(errs, fmt.Errorf("company %s geofence: %w", c.Code, err))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &f, nil
}

func validateUser(u *User, emails map[string]bool) error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if emails[u.Email] {
		return fmt.Errorf("duplicate email %s", u.Email)
	}
	emails[u.Email] = true

	switch database.Role(u.Role) {
	case database.RoleAdmin, database.RoleUser:
	default:
		return fmt.Errorf("unknown role %q", u.Role)
	}
	if u.FaceDescriptor != nil && len(u.FaceDescriptor) != database.FaceDescriptorDim {
		return fmt.Errorf("face descriptor has %d dimensions, want %d", len(u.FaceDescriptor), database.FaceDescriptorDim)
	}
	return nil
}

func resolveGeofence(c *Company) error {
	g := c.Geofence
	if g.AdminID == "" {
		for _, u := range c.Users {
			if database.Role(u.Role) == database.RoleAdmin {
				g.AdminID = u.ID
				break
			}
		}
	}
	if g.AdminID == "" {
		return errors.New("admin_id is required when the company lists no admin")
	}
	if g.Latitude < -90 || g.Latitude > 90 || g.Longitude < -180 || g.Longitude > 180 {
		return fmt.Errorf("invalid center %f,%f", g.Latitude, g.Longitude)
	}
	if g.RadiusMeters < 0 {
		return fmt.Errorf("invalid radius %d", g.RadiusMeters)
	}
	return nil
}

// Count returns the number of users and geofences in f.
func (f *File) Count() int {
	n := 0
	for _, c := range f.Companies {
		n += len(c.Users)
		if c.Geofence != nil {
			n++
		}
	}
	return n
}

// Apply writes f with up to workers concurrent writes. Users are written
// before geofences so geofence admins exist. progress is called once per
// item and may be nil. Failed items are counted and returned joined.
func Apply(ctx context.Context, f *File, users database.UserWriter, geofences database.GeofenceWriter, workers int, progress func()) (Result, error) {
	if workers < 1 {
		workers = 1
	}
	if progress == nil {
		progress = func() {}
	}

	var (
		result   Result
		errMu    sync.Mutex
		errs     []error
		userOK   atomic.Int64
		failures atomic.Int64
	)
	record := func(err error) {
		failures.Add(1)
		errMu.Lock()
		errs = append(errs, err)
		errMu.Unlock()
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for _, c := range f.Companies {
		for _, u := range c.Users {
			wg.Add(1)
			go func(code string, u User) {
				defer wg.Done()
				defer progress()

				sem <- struct{}{}
				defer func() { <-sem }()

				err := users.SaveUser(ctx, &database.StoredUser{
					ID:             u.ID,
					Email:          u.Email,
					FullName:       u.FullName,
					Role:           database.Role(u.Role),
					CompanyCode:    code,
					FaceDescriptor: u.FaceDescriptor,
				})
				if err != nil {
					record(fmt.Errorf("user %s: %w", u.Email, err))
					return
				}
				userOK.Add(1)
			}(c.Code, u)
		}
	}
	wg.Wait()

	for _, c := range f.Companies {
		if c.Geofence == nil {
			continue
		}
		_, err := geofences.SaveGeofence(ctx, &database.StoredGeofence{
			AdminID:      c.Geofence.AdminID,
			CompanyCode:  c.Code,
			Latitude:     c.Geofence.Latitude,
			Longitude:    c.Geofence.Longitude,
			RadiusMeters: c.Geofence.RadiusMeters,
		})
		progress()
		if err != nil {
			record(fmt.Errorf("geofence %s: %w", c.Code, err))
			continue
		}
		result.Geofences++
	}

	result.Users = int(userOK.Load())
	result.Errors = int(failures.Load())
	return result, errors.Join(errs...)
}
