package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kozaktomas/attendance/internal/config"
	"github.com/kozaktomas/attendance/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const serviceName = "attendance"

var rootCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Face and geofence verified attendance tracking",
	Long: `Attendance records daily check-ins and check-outs for the members of
multi-tenant companies. A check-in is accepted only when the submitted face
descriptor matches the registered one and the device is inside the company
geofence.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().String("log-level", "", "Log level override (debug, info, warn, error)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// loadConfig loads and validates configuration, applying the --log-level override.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Load()
	if level := mustGetString(cmd, "log-level"); level != "" {
		cfg.Log.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, serviceName)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return logger, nil
}

func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}
