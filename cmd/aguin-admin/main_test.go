package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aguin/internal/dashboard"
)

func TestDashboardFromJSON(t *testing.T) {
	rows := `[
		{"id": 1, "status": "pendiente", "requestedDate": "2025-03-10", "client": {"fullName": "Ana López"}, "payment": null},
		{"id": 2, "status": "pagado", "requestedDate": "2025-02-01", "client": {"fullName": "Luis Pérez"}, "payment": [{"id": 7}]},
		{"id": 3, "status": "", "requestedDate": "", "client": null, "payment": {"id": 8}}
	]`
	path := filepath.Join(t.TempDir(), "rows.json")
	require.NoError(t, os.WriteFile(path, []byte(rows), 0o600))

	var out bytes.Buffer
	err := run(context.Background(), []string{
		"dashboard", "-from-json", path, "-date", "2025-03-01", "-tz", "America/Guatemala",
		"-counts", `{"clients":2,"payments":2}`,
	}, &out)
	require.NoError(t, err)

	var summary dashboard.Summary
	require.NoError(t, json.Unmarshal(out.Bytes(), &summary))
	assert.Equal(t, 3, summary.Totals.ReservationCount)
	assert.Equal(t, 2, summary.Totals.PendingCount)
	assert.Equal(t, 2, summary.Totals.ClientCount)
	require.Len(t, summary.Upcoming, 1)
	assert.Equal(t, int64(1), summary.Upcoming[0].ID)
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	err := run(context.Background(), []string{"backup"}, &bytes.Buffer{})
	assert.ErrorIs(t, err, errUsage)

	err = run(context.Background(), nil, &bytes.Buffer{})
	assert.ErrorIs(t, err, errUsage)
}

func TestReferenceDate(t *testing.T) {
	ref, err := referenceDate("2025-03-01", "America/Guatemala")
	require.NoError(t, err)
	assert.Equal(t, "America/Guatemala", ref.Location().String())
	assert.Equal(t, 0, ref.Hour())

	_, err = referenceDate("01/03/2025", "UTC")
	assert.Error(t, err)

	_, err = referenceDate("", "Mars/Olympus")
	assert.Error(t, err)
}
