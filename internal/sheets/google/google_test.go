package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	ports "aguin/internal/sheets"
)

type fakeSheets struct {
	mu       sync.Mutex
	appended [][]any
	column   [][]any
	paths    []string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, r.URL.Path)
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.appended = append(f.appended, vr.Values...)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"updates": map[string]any{"updatedRange": "Registro!A2:F2", "updatedRows": 1},
		})
	case r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]any{"range": "Registro!A1:A10", "values": f.column})
	default:
		http.Error(w, "unexpected request", http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return NewWithService(svc, "sheet-id", "", nil)
}

func TestConfig_Validate(t *testing.T) {
	if err := (Config{}).Validate(); err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (Config{SpreadsheetID: "x"}).Validate(); err == nil || !strings.Contains(err.Error(), "credentials") {
		t.Errorf("expected credentials error, got %v", err)
	}
	if err := (Config{SpreadsheetID: "x", CredentialsFile: "/tmp/sa.json"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Config{
		SpreadsheetID:   "x",
		CredentialsFile: filepath.Join(t.TempDir(), "missing.json"),
	}, nil)
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestCredentials_PrefersInlineJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(path, []byte(`{"from":"file"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := credentials(Config{CredentialsJSON: `{"from":"env"}`, CredentialsFile: path})
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"from":"env"}` {
		t.Errorf("credentials = %s", got)
	}
	got, err = credentials(Config{CredentialsFile: path})
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"from":"file"}` {
		t.Errorf("credentials = %s", got)
	}
}

func TestClient_AppendReservation(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)

	ref, err := c.AppendReservation(context.Background(), ports.ReservationRow{
		ReservationID: 12, Client: "Ana", RequestedDate: "2025-03-10", Status: "pendiente",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if ref != "Registro!A2:F2" {
		t.Errorf("ref = %q", ref)
	}
	if len(fake.appended) != 1 {
		t.Fatalf("appended %d rows", len(fake.appended))
	}
	row := fake.appended[0]
	if row[0] != "R-12" || row[1] != "reserva" || row[4] != "pendiente" {
		t.Errorf("unexpected row %v", row)
	}
	if !strings.Contains(fake.paths[0], "sheet-id") {
		t.Errorf("path %q does not name the spreadsheet", fake.paths[0])
	}
}

func TestClient_AppendValidatesBeforeCalling(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)
	_, err := c.AppendPayment(context.Background(), ports.PaymentRow{})
	if !errors.Is(err, ports.ErrInvalidRow) {
		t.Fatalf("expected ErrInvalidRow, got %v", err)
	}
	if len(fake.paths) != 0 {
		t.Error("no request expected for an invalid row")
	}
}

func TestClient_ExportedKeys(t *testing.T) {
	fake := &fakeSheets{column: [][]any{{"Clave"}, {"R-1"}, {}, {"P-4"}, {"# nota"}, {" R-9 "}}}
	c := newTestClient(t, fake)

	keys, err := c.ExportedKeys(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 3 {
		t.Fatalf("keys = %v", keys)
	}
	for _, k := range []string{"R-1", "P-4", "R-9"} {
		if _, ok := keys[k]; !ok {
			t.Errorf("missing %s", k)
		}
	}
}

func TestClient_NilService(t *testing.T) {
	c := &Client{}
	if _, err := c.AppendReservation(context.Background(), ports.ReservationRow{ReservationID: 1}); err == nil {
		t.Error("expected error without service")
	}
	if _, err := c.ExportedKeys(context.Background()); err == nil {
		t.Error("expected error without service")
	}
}
