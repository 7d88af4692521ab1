package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kozaktomas/attendance/internal/attendance"
	"github.com/kozaktomas/attendance/internal/database"
	"github.com/spf13/cobra"
)

// mustGet reads a flag registered in init(). A lookup error means the flag
// was never defined, so it panics.
func mustGet[T any](name string, get func(string) (T, error)) T {
	val, err := get(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

func mustGetBool(cmd *cobra.Command, name string) bool {
	return mustGet(name, cmd.Flags().GetBool)
}

func mustGetInt(cmd *cobra.Command, name string) int {
	return mustGet(name, cmd.Flags().GetInt)
}

func mustGetString(cmd *cobra.Command, name string) string {
	return mustGet(name, cmd.Flags().GetString)
}

// companyFlag returns the normalized --company value.
func companyFlag(cmd *cobra.Command) (string, error) {
	company := attendance.NormalizeCompanyCode(mustGetString(cmd, "company"))
	if company == "" {
		return "", errors.New("--company is required")
	}
	return company, nil
}

// dateFlag returns --date as a civil date key, or "" for today.
func dateFlag(cmd *cobra.Command) (string, error) {
	date := strings.TrimSpace(mustGetString(cmd, "date"))
	if date == "" {
		return "", nil
	}
	if _, err := time.Parse(database.DateLayout, date); err != nil {
		return "", fmt.Errorf("--date must be YYYY-MM-DD, got %q", date)
	}
	return date, nil
}
