// Package dashboard turns joined reservation rows and entity counts into the
// summary shown on the admin landing page.
package dashboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"aguin/internal/core"
)

// PendingStatus is the status assigned to reservations with no status.
const PendingStatus = string(core.StatusPending)

// ClientRef is the client joined onto a reservation row.
type ClientRef struct {
	FullName string `json:"fullName"`
}

// PaymentRef is the payment joined onto a reservation row. Depending on join
// depth the data source returns it as an object, a one-element array, an
// empty array or null; all shapes decode into the same value.
type PaymentRef struct {
	ID      int64
	Present bool
}

// PaymentOf returns a present payment reference.
func PaymentOf(id int64) PaymentRef {
	return PaymentRef{ID: id, Present: true}
}

type paymentObject struct {
	ID int64 `json:"id"`
}

// UnmarshalJSON accepts {"id":1}, [{"id":1}], [] and null.
func (p *PaymentRef) UnmarshalJSON(data []byte) error {
	*p = PaymentRef{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if trimmed[0] == '[' {
		var list []*paymentObject
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return fmt.Errorf("decode payment list: %w", err)
		}
		if len(list) > 0 && list[0] != nil {
			*p = PaymentOf(list[0].ID)
		}
		return nil
	}

	var obj paymentObject
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return fmt.Errorf("decode payment: %w", err)
	}
	*p = PaymentOf(obj.ID)
	return nil
}

// MarshalJSON always emits the object form, or null when absent.
func (p PaymentRef) MarshalJSON() ([]byte, error) {
	if !p.Present {
		return []byte("null"), nil
	}
	return json.Marshal(paymentObject{ID: p.ID})
}

// Reservation is one row of the dashboard query: a reservation joined with its
// client name and optional payment.
type Reservation struct {
	ID            int64      `json:"id"`
	Comments      string     `json:"comments"`
	Status        string     `json:"status"`
	RequestedDate string     `json:"requestedDate"`
	Client        *ClientRef `json:"client"`
	Payment       PaymentRef `json:"payment"`
}

// Counts holds the sizes of the sibling collections shown on the dashboard.
type Counts struct {
	Clients       int `json:"clients"`
	Photographers int `json:"photographers"`
	Services      int `json:"services"`
	Packages      int `json:"packages"`
	Reviews       int `json:"reviews"`
	Payments      int `json:"payments"`
}

// NormalizeStatus lowercases a status label, mapping an empty one to PendingStatus.
// Labels are matched literally otherwise: "en progreso" and "en_progreso"
// stay distinct, and a whitespace-only label is its own bucket.
func NormalizeStatus(status string) string {
	if status == "" {
		return PendingStatus
	}
	return strings.ToLower(status)
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
}

// ParseRequestedDate parses a requested date in loc. Date-only values are taken
// as local calendar dates; timestamps carrying an offset are converted to loc.
func ParseRequestedDate(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, raw, loc)
		if err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
