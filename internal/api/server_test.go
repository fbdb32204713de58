package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"fleetbook/internal/db"
	"fleetbook/internal/export"
	"fleetbook/internal/fleet"
	"fleetbook/internal/webhook"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Field   string          `json:"field"`
	Meta    *meta           `json:"meta"`
}

func newTestServer(t *testing.T) (*Server, *fleet.Service) {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	svc, err := fleet.Open(context.Background(), database, nil, webhook.NewClient(time.Second), fleet.Options{
		Org:      "Ansh Tours",
		Currency: "₹",
		Clock:    func() time.Time { return now },
	})
	require.NoError(t, err)
	return NewServer(svc, database), svc
}

func do(t *testing.T, s *Server, method, path string, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec, env := do(t, s, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
}

func TestVehicles(t *testing.T) {
	s, _ := newTestServer(t)

	rec, env := do(t, s, "GET", "/api/v1/vehicles", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.Meta)
	assert.Equal(t, 3, env.Meta.Total)

	rec, env = do(t, s, "POST", "/api/v1/vehicles", `{"name":"Innova","number":"MH05AB1234","currentKm":100}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.NotEmpty(t, created.ID)

	rec, _ = do(t, s, "GET", "/api/v1/vehicles/MH05AB1234", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, s, "PUT", "/api/v1/vehicles/"+created.ID, `{"name":"Innova Crysta","number":"MH05AB1234","currentKm":150}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, s, "DELETE", "/api/v1/vehicles/"+created.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = do(t, s, "GET", "/api/v1/vehicles/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)
}

func TestCreateTrip(t *testing.T) {
	s, svc := newTestServer(t)

	body := `{"date":"2026-03-14","vehicleId":"v1","driverName":"Ramesh","openingKm":12500,"closingKm":12620,
		"tripType":"Local","income":"2400","paymentMode":"Cash"}`
	rec, env := do(t, s, "POST", "/api/v1/trips", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var l struct {
		TotalKm int64 `json:"totalKm"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &l))
	assert.Equal(t, int64(120), l.TotalKm)

	v, err := svc.Vehicle("v1")
	require.NoError(t, err)
	assert.Equal(t, int64(12620), v.CurrentKm)

	rec, env = do(t, s, "GET", "/api/v1/trips?period=daily&vehicle_id=MH05GD3666", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, env.Meta.Total)
}

func TestCreateTrip_Validation(t *testing.T) {
	s, _ := newTestServer(t)

	body := `{"date":"2026-03-14","vehicleId":"v1","driverName":"Ramesh","openingKm":500,"closingKm":400,
		"tripType":"Local","income":0,"paymentMode":"Cash"}`
	rec, env := do(t, s, "POST", "/api/v1/trips", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "closingKm", env.Field)

	rec, _ = do(t, s, "POST", "/api/v1/trips", `{broken`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, s, "POST", "/api/v1/fuel", `{"date":"2026-03-14","vehicleId":"v9","fuelType":"CNG","quantity":5,"cost":300}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, s, "GET", "/api/v1/trips?period=weekly", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFuelAndExpenses(t *testing.T) {
	s, _ := newTestServer(t)

	rec, _ := do(t, s, "POST", "/api/v1/fuel", `{"date":"2026-03-14","vehicleId":"v1","fuelType":"CNG","quantity":8,"cost":640}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec, _ = do(t, s, "POST", "/api/v1/expenses", `{"date":"2026-03-14","vehicleId":"v1","category":"Toll","amount":90}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	_, env := do(t, s, "GET", "/api/v1/fuel", "")
	assert.Equal(t, 1, env.Meta.Total)
	_, env = do(t, s, "GET", "/api/v1/expenses?period=monthly", "")
	assert.Equal(t, 1, env.Meta.Total)
	assert.Equal(t, "Monthly", env.Meta.Period)
}

func TestImport(t *testing.T) {
	s, _ := newTestServer(t)

	csv := "date,vehicle,category,amount\n2026-03-14,v1,Toll,90\n2026-03-14,v1,Bribes,10\n"
	req := httptest.NewRequest("POST", "/api/v1/import?kind=expense&format=csv", strings.NewReader(csv))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var env struct {
		Data fleet.ImportResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, 1, env.Data.Added)
	require.Len(t, env.Data.Skipped, 1)
	assert.True(t, strings.HasPrefix(env.Data.Skipped[0], "line 3: "), env.Data.Skipped[0])

	rec, _ = do(t, s, "POST", "/api/v1/import?kind=cars", "[]")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardAndAlerts(t *testing.T) {
	s, _ := newTestServer(t)
	do(t, s, "POST", "/api/v1/trips", `{"date":"2026-03-14","vehicleId":"v1","driverName":"Ramesh","openingKm":12500,"closingKm":12600,"tripType":"Local","income":100,"paymentMode":"Credit"}`)
	do(t, s, "POST", "/api/v1/expenses", `{"date":"2026-03-14","vehicleId":"v1","category":"Toll","amount":300}`)

	rec, env := do(t, s, "GET", "/api/v1/alerts", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, env.Meta.Total)
	assert.Contains(t, string(env.Data), `"type":"loss"`)

	rec, env = do(t, s, "GET", "/api/v1/dashboard", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"pendingPayments":1`)
}

func TestReports(t *testing.T) {
	s, _ := newTestServer(t)

	rec, env := do(t, s, "GET", "/api/v1/reports/monthly", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"P&L"`)

	rec, _ = do(t, s, "GET", "/api/v1/reports/yearly", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest("GET", "/api/v1/reports/daily/xlsx", nil)
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Ansh_Tours_Daily_Report_2026-03-14.xlsx")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}

func TestBackupRestore(t *testing.T) {
	s, svc := newTestServer(t)

	req := httptest.NewRequest("GET", "/api/v1/backup", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Ansh_Tours_backup_2026-03-14.json")
	backup := rec.Body.String()

	do(t, s, "DELETE", "/api/v1/vehicles/v1", "")
	assert.Len(t, svc.Vehicles(), 2)

	rec, _ = do(t, s, "POST", "/api/v1/restore", backup)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, svc.Vehicles(), 3)

	rec, _ = do(t, s, "POST", "/api/v1/restore", `{"vehicles":[{"name":"no id"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env := do(t, s, "POST", "/api/v1/restore", `{"dailyLogs":[{"id":"t1","date":"2026-03-14","vehicleId":"v1",`+
		`"driverName":"Ramesh","openingKm":150,"closingKm":100,"tripType":"Local","income":0,"paymentMode":"Cash"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "dailyLogs", env.Field)
	assert.Len(t, svc.Vehicles(), 3)
}

func TestSync(t *testing.T) {
	s, svc := newTestServer(t)

	rec, _ := do(t, s, "POST", "/api/v1/sync", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	var (
		mu    sync.Mutex
		types []string
	)
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var rec webhook.Record
		json.NewDecoder(r.Body).Decode(&rec)
		mu.Lock()
		types = append(types, string(rec.Type))
		mu.Unlock()
	}))
	defer sink.Close()

	rec, _ = do(t, s, "PUT", "/api/v1/sync/url", `{"url":"ftp://nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = do(t, s, "PUT", "/api/v1/sync/url", `{"url":"`+sink.URL+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	do(t, s, "POST", "/api/v1/fuel", `{"date":"2026-03-14","vehicleId":"v1","fuelType":"CNG","quantity":8,"cost":640}`)
	do(t, s, "POST", "/api/v1/trips", `{"date":"2026-03-14","vehicleId":"v1","driverName":"Ramesh","openingKm":12500,"closingKm":12600,"tripType":"Local","income":100,"paymentMode":"Cash"}`)

	rec, env := do(t, s, "POST", "/api/v1/sync", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res fleet.SyncResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, fleet.SyncResult{Pushed: 2}, res)
	assert.Equal(t, []string{"trip", "fuel"}, types)
	assert.Equal(t, 0, svc.Dashboard().Unsynced)
}

func TestInsightsAndScanFallbacks(t *testing.T) {
	s, _ := newTestServer(t)

	rec, env := do(t, s, "GET", "/api/v1/insights", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), "Insights are temporarily unavailable.")

	rec, _ = do(t, s, "POST", "/api/v1/scan?vehicle_id=v1", "\xff\xd8\xff\xe0")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = do(t, s, "POST", "/api/v1/scan", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStats(t *testing.T) {
	s, _ := newTestServer(t)

	rec, env := do(t, s, "GET", "/api/v1/stats", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"keys":1`)

	bare := NewServer(nil, nil)
	rec, _ = do(t, bare, "GET", "/api/v1/stats", "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}
