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
	"testing"
	"time"

	goption "google.golang.org/api/option"

	"madrassa/internal/core"
	ports "madrassa/internal/sheets"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{}, nil)
	if err == nil || err.Error() != "missing spreadsheet id" {
		t.Fatalf("expected missing spreadsheet id error, got %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), Options{SpreadsheetID: "sheet"}, nil)
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestLoadCredentials(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sa.json")
	if err := os.WriteFile(path, []byte(`{"type":"service_account"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := loadCredentials(Options{CredentialsJSON: " {\"inline\":true} ", CredentialsFile: path})
	if err != nil || string(got) != `{"inline":true}` {
		t.Errorf("inline JSON should win, got %q, %v", got, err)
	}

	got, err = loadCredentials(Options{CredentialsFile: path})
	if err != nil || !strings.Contains(string(got), "service_account") {
		t.Errorf("file credentials not read: %q, %v", got, err)
	}

	if _, err := loadCredentials(Options{CredentialsFile: filepath.Join(dir, "missing.json")}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestClient_ArchiveNilService(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	if _, err := c.Archive(context.Background(), ports.ArchivedReport{}); err == nil {
		t.Fatal("expected error with nil service")
	}
}

func TestClient_Archive(t *testing.T) {
	var gotPath, gotQuery string
	var gotBody struct {
		Values [][]any `json:"values"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1","updates":{"updatedRange":"Reports!A7:H7","updatedRows":1}}`))
	}))
	defer srv.Close()

	c, err := New(context.Background(), Options{
		SpreadsheetID: "sheet-1",
		SheetName:     "Reports",
		ClientOptions: []goption.ClientOption{
			goption.WithEndpoint(srv.URL + "/"),
			goption.WithoutAuthentication(),
		},
	}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ref, err := c.Archive(context.Background(), ports.ArchivedReport{
		GeneratedAt: time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC),
		Kind:        "daily",
		Period:      "2024-05-01",
		Income:      core.Money{Cents: 550000},
		Expenses:    core.Money{Cents: 120050},
		Net:         core.Money{Cents: 429950},
		Sent:        2,
		Failed:      1,
	})
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
	if ref != "Reports!A7:H7" {
		t.Errorf("ref = %q", ref)
	}
	if !strings.HasPrefix(gotPath, "/v4/spreadsheets/sheet-1/values/") || !strings.HasSuffix(gotPath, ":append") {
		t.Errorf("unexpected path %q", gotPath)
	}
	if !strings.Contains(gotQuery, "valueInputOption=USER_ENTERED") {
		t.Errorf("unexpected query %q", gotQuery)
	}
	if len(gotBody.Values) != 1 || len(gotBody.Values[0]) != 8 {
		t.Fatalf("unexpected body %+v", gotBody)
	}
	row := gotBody.Values[0]
	if row[0] != "2024-05-01T20:00:00Z" || row[1] != "daily" || row[3] != "5500.00" || row[4] != "1200.50" {
		t.Errorf("unexpected row %v", row)
	}
}

func TestClient_ArchiveAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"denied"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	c, err := New(context.Background(), Options{
		SpreadsheetID: "sheet-1",
		ClientOptions: []goption.ClientOption{goption.WithEndpoint(srv.URL + "/"), goption.WithoutAuthentication()},
	}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := c.Archive(context.Background(), ports.ArchivedReport{Kind: "daily"}); err == nil {
		t.Fatal("expected error on 403")
	}
}
