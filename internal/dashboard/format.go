package dashboard

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// UnnamedClient labels reservations whose client could not be resolved.
const UnnamedClient = "Cliente sin nombre"

var shortMonths = [...]string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sept", "oct", "nov", "dic"}

// ClientLabel returns the client's name or UnnamedClient.
func ClientLabel(c *ClientRef) string {
	if c == nil || strings.TrimSpace(c.FullName) == "" {
		return UnnamedClient
	}
	return c.FullName
}

// FormatStatus capitalizes the first letter of a status label.
func FormatStatus(status string) string {
	if status == "" {
		return "Pendiente"
	}
	r, size := utf8.DecodeRuneInString(status)
	return string(unicode.ToUpper(r)) + status[size:]
}

// FormatDate renders a requested date in the studio's medium style
// ("5 mar 2025"). Unparseable values are returned as-is.
func FormatDate(raw string, loc *time.Location) string {
	if strings.TrimSpace(raw) == "" {
		return "—"
	}
	t, ok := ParseRequestedDate(raw, loc)
	if !ok {
		return raw
	}
	return fmt.Sprintf("%d %s %d", t.Day(), shortMonths[t.Month()-1], t.Year())
}

// MonthLabel turns a "YYYY-MM" key into "mar 2025". Invalid keys are returned as-is.
func MonthLabel(key string) string {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return key
	}
	return fmt.Sprintf("%s %d", shortMonths[t.Month()-1], t.Year())
}
