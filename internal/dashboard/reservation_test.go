package dashboard

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentRef_UnmarshalShapes(t *testing.T) {
	tests := []struct {
		name string
		json string
		want PaymentRef
	}{
		{"object", `{"payment":{"id":7}}`, PaymentOf(7)},
		{"one element array", `{"payment":[{"id":8}]}`, PaymentOf(8)},
		{"empty array", `{"payment":[]}`, PaymentRef{}},
		{"null", `{"payment":null}`, PaymentRef{}},
		{"missing", `{}`, PaymentRef{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Reservation
			require.NoError(t, json.Unmarshal([]byte(tt.json), &r))
			assert.Equal(t, tt.want, r.Payment)
		})
	}
}

func TestReservation_DecodeNullFields(t *testing.T) {
	raw := `{"id":3,"comments":null,"status":null,"requestedDate":null,"client":null,"payment":[{"id":2}]}`

	var r Reservation
	require.NoError(t, json.Unmarshal([]byte(raw), &r))

	assert.Equal(t, int64(3), r.ID)
	assert.Empty(t, r.Status)
	assert.Nil(t, r.Client)
	assert.True(t, r.Payment.Present)
	assert.Equal(t, PendingStatus, NormalizeStatus(r.Status))
}

func TestParseRequestedDate(t *testing.T) {
	loc := time.FixedZone("CST", -6*60*60)

	got, ok := ParseRequestedDate("2025-03-05", loc)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, time.March, 5, 0, 0, 0, 0, loc), got)

	got, ok = ParseRequestedDate("2025-03-05T02:00:00Z", loc)
	require.True(t, ok)
	assert.Equal(t, 4, got.Day(), "UTC early morning is the previous local day")

	_, ok = ParseRequestedDate("not-a-date", loc)
	assert.False(t, ok)
	_, ok = ParseRequestedDate("", loc)
	assert.False(t, ok)
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "Pendiente", FormatStatus(""))
	assert.Equal(t, " ", FormatStatus(" "))
	assert.Equal(t, "En progreso", FormatStatus("en progreso"))
	assert.Equal(t, "Émbargo", FormatStatus("émbargo"))

	assert.Equal(t, UnnamedClient, ClientLabel(nil))
	assert.Equal(t, UnnamedClient, ClientLabel(&ClientRef{FullName: "  "}))
	assert.Equal(t, "Ana López", ClientLabel(&ClientRef{FullName: "Ana López"}))

	assert.Equal(t, "5 mar 2025", FormatDate("2025-03-05", time.UTC))
	assert.Equal(t, "—", FormatDate("", time.UTC))
	assert.Equal(t, "mañana", FormatDate("mañana", time.UTC))

	assert.Equal(t, "sept 2024", MonthLabel("2024-09"))
	assert.Equal(t, "bad", MonthLabel("bad"))
}
