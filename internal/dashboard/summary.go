package dashboard

import (
	"math"
	"sort"
	"time"
)

const (
	// ListLimit caps the recent and upcoming lists.
	ListLimit = 5
	// MonthWindow is the number of monthly buckets kept.
	MonthWindow = 6
)

// Totals are the headline counters of the dashboard.
type Totals struct {
	ReservationCount  int `json:"reservationCount"`
	PendingCount      int `json:"pendingCount"`
	PaymentCount      int `json:"paymentCount"`
	ClientCount       int `json:"clientCount"`
	PhotographerCount int `json:"photographerCount"`
	ServiceCount      int `json:"serviceCount"`
	PackageCount      int `json:"packageCount"`
	ReviewCount       int `json:"reviewCount"`
}

// Entry is a reservation as listed in the recent and upcoming tables.
type Entry struct {
	ID            int64      `json:"id"`
	Client        string     `json:"client"`
	Comments      string     `json:"comments"`
	Status        string     `json:"status"`
	RequestedDate string     `json:"requestedDate"`
	Date          time.Time  `json:"-"`
	HasDate       bool       `json:"-"`
	Payment       PaymentRef `json:"payment"`
}

// StatusCount is one bar of the status histogram.
type StatusCount struct {
	Status     string `json:"status"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// MonthCount is one bucket of the monthly activity series.
type MonthCount struct {
	MonthKey string `json:"monthKey"`
	Count    int    `json:"count"`
}

// Summary is the complete dashboard payload.
type Summary struct {
	Totals          Totals        `json:"totals"`
	Recent          []Entry       `json:"recent"`
	Upcoming        []Entry       `json:"upcoming"`
	StatusBreakdown []StatusCount `json:"statusBreakdown"`
	MonthlyActivity []MonthCount  `json:"monthlyActivity"`
}

// Empty returns the zero summary, with empty rather than nil lists.
func Empty() Summary {
	return Summary{
		Recent:          []Entry{},
		Upcoming:        []Entry{},
		StatusBreakdown: []StatusCount{},
		MonthlyActivity: []MonthCount{},
	}
}

// Summarize aggregates reservations and counts relative to referenceDate.
// Dates are interpreted in referenceDate's location. The input slice is not
// modified and the result depends only on the arguments.
func Summarize(reservations []Reservation, counts Counts, referenceDate time.Time) Summary {
	loc := referenceDate.Location()
	today := midnight(referenceDate)

	out := Empty()
	out.Totals = Totals{
		ReservationCount:  len(reservations),
		PaymentCount:      counts.Payments,
		ClientCount:       counts.Clients,
		PhotographerCount: counts.Photographers,
		ServiceCount:      counts.Services,
		PackageCount:      counts.Packages,
		ReviewCount:       counts.Reviews,
	}

	entries := make([]Entry, 0, len(reservations))
	for _, r := range reservations {
		entries = append(entries, toEntry(r, loc))
	}

	var (
		statusOrder []string
		statusCount = make(map[string]int)
		monthCount  = make(map[string]int)
		upcoming    []Entry
	)
	for _, e := range entries {
		if e.Status == PendingStatus {
			out.Totals.PendingCount++
		}
		if _, seen := statusCount[e.Status]; !seen {
			statusOrder = append(statusOrder, e.Status)
		}
		statusCount[e.Status]++

		if !e.HasDate {
			continue
		}
		monthCount[e.Date.Format("2006-01")]++
		if !midnight(e.Date).Before(today) {
			upcoming = append(upcoming, e)
		}
	}

	recent := make([]Entry, len(entries))
	copy(recent, entries)
	sort.SliceStable(recent, func(i, j int) bool {
		return sortKey(recent[i]).After(sortKey(recent[j]))
	})
	out.Recent = truncate(recent, ListLimit)

	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].Date.Before(upcoming[j].Date)
	})
	out.Upcoming = truncate(upcoming, ListLimit)

	total := len(reservations)
	for _, status := range statusOrder {
		out.StatusBreakdown = append(out.StatusBreakdown, StatusCount{
			Status:     status,
			Count:      statusCount[status],
			Percentage: Percentage(statusCount[status], total),
		})
	}
	sort.SliceStable(out.StatusBreakdown, func(i, j int) bool {
		return out.StatusBreakdown[i].Count > out.StatusBreakdown[j].Count
	})

	keys := make([]string, 0, len(monthCount))
	for k := range monthCount {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > MonthWindow {
		keys = keys[len(keys)-MonthWindow:]
	}
	for _, k := range keys {
		out.MonthlyActivity = append(out.MonthlyActivity, MonthCount{MonthKey: k, Count: monthCount[k]})
	}

	return out
}

// Percentage returns round(part/total*100), or 0 when total is 0.
func Percentage(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

func toEntry(r Reservation, loc *time.Location) Entry {
	e := Entry{
		ID:            r.ID,
		Client:        ClientLabel(r.Client),
		Comments:      r.Comments,
		Status:        NormalizeStatus(r.Status),
		RequestedDate: r.RequestedDate,
		Payment:       r.Payment,
	}
	e.Date, e.HasDate = ParseRequestedDate(r.RequestedDate, loc)
	return e
}

// sortKey places entries without a usable date at the zero time.
func sortKey(e Entry) time.Time {
	if !e.HasDate {
		return time.Time{}
	}
	return e.Date
}

func truncate(entries []Entry, n int) []Entry {
	if len(entries) > n {
		entries = entries[:n]
	}
	if entries == nil {
		return []Entry{}
	}
	return entries
}
