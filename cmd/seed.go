package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/kozaktomas/attendance/internal/constants"
	"github.com/kozaktomas/attendance/internal/seed"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedCmd = &cobra.Command{
	Use:   "seed <file.yaml>",
	Short: "Load companies, users and geofences from a YAML file",
	Long: `Load companies, users and geofences from a YAML file.

Users are upserted by ID (generated when missing), geofences by company
code. Users are written before geofences so that geofence admins exist.

Example file:
  companies:
    - code: ACME
      geofence:
        latitude: 12.9716
        longitude: 77.5946
        radius_meters: 150
      users:
        - id: admin-1
          email: admin@acme.test
          role: admin
        - email: asha@acme.test
          full_name: Asha Rao
          face_descriptor: [0.01, 0.02, ...]   # 128 values

Examples:
  attendance seed companies.yaml
  attendance seed companies.yaml --concurrency 8 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().Int("concurrency", constants.SeedWorkers, "Number of parallel writers")
	seedCmd.Flags().Bool("json", false, "Output as JSON instead of progress bar")
}

// SeedResult is the JSON output of the seed command.
type SeedResult struct {
	Success    bool  `json:"success"`
	Users      int   `json:"users"`
	Geofences  int   `json:"geofences"`
	Errors     int   `json:"errors"`
	DurationMs int64 `json:"duration_ms"`
}

func runSeed(cmd *cobra.Command, args []string) error {
	concurrency := mustGetInt(cmd, "concurrency")
	jsonOutput := mustGetBool(cmd, "json")
	startTime := time.Now()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening seed file: %w", err)
	}
	defer f.Close()

	doc, err := seed.Load(f)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeBackend(logger)

	var progress func()
	var bar *progressbar.ProgressBar
	if !jsonOutput {
		fmt.Printf("Seeding %d companies (%d items)\n\n", len(doc.Companies), doc.Count())
		bar = progressbar.NewOptions(doc.Count(),
			progressbar.OptionSetDescription("Seeding"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionFullWidth(),
		)
		progress = func() { _ = bar.Add(1) }
	}

	result, applyErr := seed.Apply(ctx, doc, b.users, b.geofences, concurrency, progress)
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}
	if applyErr != nil {
		logger.Warn("seed completed with errors", zap.Int("errors", result.Errors), zap.Error(applyErr))
	}

	if jsonOutput {
		return outputJSON(SeedResult{
			Success:    applyErr == nil,
			Users:      result.Users,
			Geofences:  result.Geofences,
			Errors:     result.Errors,
			DurationMs: time.Since(startTime).Milliseconds(),
		})
	}

	fmt.Printf("Users:     %d\n", result.Users)
	fmt.Printf("Geofences: %d\n", result.Geofences)
	if result.Errors > 0 {
		fmt.Printf("Errors:    %d\n", result.Errors)
		return fmt.Errorf("seed finished with %d error(s)", result.Errors)
	}
	fmt.Printf("Completed in %s\n", time.Since(startTime).Round(time.Millisecond))
	return nil
}
