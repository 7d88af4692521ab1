package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/kozaktomas/attendance/internal/attendance"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print a company's attendance",
	Long: `Print a company's attendance for one civil date, or every recorded
day with --all. Members without a record for the date are listed as absent.

Examples:
  attendance report --company ACME
  attendance report --company ACME --date 2026-03-02
  attendance report --company ACME --all --json`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("company", "", "Company code (required)")
	reportCmd.Flags().String("date", "", "Civil date YYYY-MM-DD (default today)")
	reportCmd.Flags().Bool("all", false, "Print every recorded day instead of one date")
	reportCmd.Flags().Bool("json", false, "Output as JSON")
}

func runReport(cmd *cobra.Command, args []string) error {
	all := mustGetBool(cmd, "all")
	jsonOutput := mustGetBool(cmd, "json")

	company, err := companyFlag(cmd)
	if err != nil {
		return err
	}
	date, err := dateFlag(cmd)
	if err != nil {
		return err
	}
	if all && date != "" {
		return errors.New("--date and --all are mutually exclusive")
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

	loc, err := cfg.Attendance.Location()
	if err != nil {
		return err
	}
	service := attendance.NewService(b.users, b.geofences, b.attendance,
		attendance.WithClock(attendance.NewCivilClock(loc, nil)),
		attendance.WithPolicy(cfg.Attendance.Policy()),
		attendance.WithLogger(logger),
	)

	var views []attendance.RecordView
	if all {
		recs, err := b.attendance.ListForCompany(ctx, company)
		if err != nil {
			return fmt.Errorf("listing attendance: %w", err)
		}
		views = attendance.NewRecordViews(recs, loc, service.Now())
	} else {
		recs, err := service.CompanyDay(ctx, company, date)
		if err != nil {
			return err
		}
		views = attendance.NewRecordViews(recs, loc, service.Now())
	}

	if jsonOutput {
		return outputJSON(views)
	}
	printReport(views)
	return nil
}

func printReport(views []attendance.RecordView) {
	if len(views) == 0 {
		fmt.Println("No attendance records found.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tUSER\tSTATUS\tCHECK IN\tCHECK OUT\tHOURS")
	for _, v := range views {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			v.Date, v.UserID, v.Status, clockTime(v.CheckInTime), clockTime(v.CheckOutTime), v.HoursWorked)
	}
	_ = w.Flush()
}

func clockTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("15:04")
}
