package attendance

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeCompanyCode folds a tenant code to its canonical form: NFKC
// (full-width and compatibility characters to ASCII), trimmed, upper case.
func NormalizeCompanyCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(norm.NFKC.String(code)))
}
