package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kozaktomas/attendance/internal/attendance"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Attendance AttendanceConfig `yaml:"attendance"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Log        LogConfig        `yaml:"log"`
	Web        WebConfig        `yaml:"web"`
}

type AttendanceConfig struct {
	FaceThreshold        float64 `yaml:"face_threshold"`
	DescriptorDim        int     `yaml:"descriptor_dim"`
	DefaultRadiusMeters  int     `yaml:"default_radius_meters"`
	CivilOffset          string  `yaml:"civil_offset"` // fixed UTC offset, e.g. +05:30
	AllowWithoutGeofence bool    `yaml:"allow_without_geofence"`
	HistoryLimit         int     `yaml:"history_limit"`
}

type DatabaseConfig struct {
	URL          string `yaml:"-"`              // PostgreSQL connection URL
	MaxOpenConns int    `yaml:"max_open_conns"` // Maximum open connections (default 25)
	MaxIdleConns int    `yaml:"max_idle_conns"` // Maximum idle connections (default 5)
}

// RedisConfig configures event publishing. Publishing is disabled when Addr is empty.
type RedisConfig struct {
	Addr     string `yaml:"-"`
	Password string `yaml:"-"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

type WebConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"` // empty allows any origin
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envBool reads an environment variable as a bool (1/0, true/false, yes/no).
func envBool(key string, defaultVal bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func envList(key string, defaultVal []string) []string {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Defaults returns the embedded defaults without environment overrides.
func Defaults() *Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return &cfg
}

func Load() *Config {
	cfg := Defaults()

	a := &cfg.Attendance
	a.FaceThreshold = envFloat("ATTENDANCE_FACE_THRESHOLD", a.FaceThreshold)
	a.CivilOffset = envString("ATTENDANCE_CIVIL_OFFSET", a.CivilOffset)
	a.DefaultRadiusMeters = envInt("ATTENDANCE_DEFAULT_RADIUS_METERS", a.DefaultRadiusMeters)
	a.AllowWithoutGeofence = envBool("ATTENDANCE_ALLOW_WITHOUT_GEOFENCE", a.AllowWithoutGeofence)
	a.HistoryLimit = envInt("ATTENDANCE_HISTORY_LIMIT", a.HistoryLimit)

	cfg.Database.URL = os.Getenv("DATABASE_URL")
	cfg.Database.MaxOpenConns = envInt("DATABASE_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = envInt("DATABASE_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns)

	cfg.Redis.Addr = os.Getenv("REDIS_ADDR")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	cfg.Redis.DB = envInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.Channel = envString("REDIS_CHANNEL", cfg.Redis.Channel)

	cfg.Log.Level = envString("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = envString("LOG_FORMAT", cfg.Log.Format)

	cfg.Web.Host = envString("WEB_HOST", cfg.Web.Host)
	cfg.Web.Port = envInt("WEB_PORT", cfg.Web.Port)
	cfg.Web.AllowedOrigins = envList("WEB_ALLOWED_ORIGINS", cfg.Web.AllowedOrigins)

	return cfg
}

// Location returns the fixed civil zone attendance days are keyed by.
func (a *AttendanceConfig) Location() (*time.Location, error) {
	loc, err := attendance.ParseOffset(a.CivilOffset)
	if err != nil {
		return nil, fmt.Errorf("ATTENDANCE_CIVIL_OFFSET: %w", err)
	}
	return loc, nil
}

// Policy returns the attendance policy described by the configuration.
func (a *AttendanceConfig) Policy() attendance.Policy {
	return attendance.Policy{
		FaceThreshold:        a.FaceThreshold,
		DescriptorDim:        a.DescriptorDim,
		DefaultRadiusMeters:  a.DefaultRadiusMeters,
		AllowWithoutGeofence: a.AllowWithoutGeofence,
		HistoryLimit:         a.HistoryLimit,
	}
}

// Validate reports configuration values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Attendance.FaceThreshold <= 0 {
		errs = append(errs, fmt.Errorf("face threshold must be positive, got %v", c.Attendance.FaceThreshold))
	}
	if c.Attendance.DescriptorDim <= 0 {
		errs = append(errs, fmt.Errorf("descriptor dimension must be positive, got %d", c.Attendance.DescriptorDim))
	}
	if c.Attendance.DefaultRadiusMeters <= 0 {
		errs = append(errs, fmt.Errorf("default radius must be positive, got %d", c.Attendance.DefaultRadiusMeters))
	}
	if _, err := c.Attendance.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.Web.Port <= 0 || c.Web.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid web port %d", c.Web.Port))
	}
	return errors.Join(errs...)
}
