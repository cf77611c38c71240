package storage

import (
	"database/sql/driver"
	"fmt"
	"time"

	"aguin/internal/core"
)

// dateColumn scans a requested date stored as DATE (postgres) or TEXT (sqlite).
type dateColumn struct {
	core.Date
}

func (d *dateColumn) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		d.Date = core.Date{}
		return nil
	case time.Time:
		d.Date = core.NewDate(v.Year(), int(v.Month()), v.Day())
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	default:
		return fmt.Errorf("scan date: unsupported type %T", src)
	}
}

func (d *dateColumn) parse(s string) error {
	if len(s) > len("2006-01-02") {
		s = s[:len("2006-01-02")]
	}
	parsed, err := core.ParseDate(s)
	if err != nil {
		return fmt.Errorf("scan date %q: %w", s, err)
	}
	d.Date = parsed
	return nil
}

// rawDateColumn keeps a requested date as stored so malformed values reach
// the dashboard instead of failing the scan.
type rawDateColumn string

func (d *rawDateColumn) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = ""
	case time.Time:
		*d = rawDateColumn(v.Format("2006-01-02"))
	case string:
		*d = rawDateColumn(v)
	case []byte:
		*d = rawDateColumn(v)
	default:
		return fmt.Errorf("scan raw date: unsupported type %T", src)
	}
	return nil
}

// dateValue stores the zero date as NULL.
func dateValue(d core.Date) driver.Value {
	if d.IsZero() {
		return nil
	}
	return d.String()
}
