package insight

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fleetbook/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)

func TestSummarize(t *testing.T) {
	s := models.DefaultState()
	s.DailyLogs = []models.DailyLog{
		{OpeningKm: 100, ClosingKm: 150, Income: decimal.NewFromInt(500)},
		{OpeningKm: 10, ClosingKm: 40, Income: decimal.NewFromInt(250)},
	}
	s.FuelLogs = []models.FuelLog{{Cost: decimal.NewFromInt(400)}}
	s.ExpenseLogs = []models.ExpenseLog{{Amount: decimal.NewFromInt(90)}}

	sum := Summarize("Ansh Tours", s)
	assert.Equal(t, "750", sum.DailyIncome.String())
	assert.Equal(t, int64(80), sum.TotalKm)
	assert.Equal(t, "400", sum.FuelSpend.String())
	assert.Equal(t, "90", sum.OtherExpenses.String())
	assert.Equal(t, 3, sum.VehicleCount)
	assert.Equal(t, 2, sum.ActiveRuns)
}

func TestDraft_Fuel(t *testing.T) {
	r := ScannedReceipt{Type: "Fuel", Date: "2026-03-10", Amount: 450.5, Quantity: 6.2, StationName: "Indraprastha CNG"}
	d := r.Draft("v1", today)

	require.NotNil(t, d.Fuel)
	assert.Nil(t, d.Expense)
	assert.Equal(t, models.FuelCNG, d.Fuel.FuelType)
	assert.Equal(t, models.Date("2026-03-10"), d.Fuel.Date)
	assert.Equal(t, "450.5", d.Fuel.Cost.String())
	assert.Equal(t, 6.2, d.Fuel.Quantity)
	assert.Equal(t, "v1", d.Fuel.VehicleID)
}

func TestDraft_ExpenseCategoryMatching(t *testing.T) {
	cases := map[string]models.ExpenseCategory{
		"toll":      models.ExpenseToll,
		"PARKING":   models.ExpenseParking,
		"wash":      models.ExpenseWash,
		"Maint":     models.ExpenseMaintenance,
		"groceries": models.ExpenseOther,
		"":          models.ExpenseOther,
	}
	for hint, want := range cases {
		d := ScannedReceipt{Type: "expense", Date: "garbage", Amount: 80, Category: hint}.Draft("v2", today)
		require.NotNil(t, d.Expense, hint)
		assert.Equal(t, want, d.Expense.Category, hint)
		assert.Equal(t, models.Date("2026-03-14"), d.Expense.Date, "unreadable date falls back to today")
	}
}

func TestDecodeReceipt(t *testing.T) {
	r, err := decodeReceipt("```json\n{\"type\":\"expense\",\"date\":\"2026-03-14\",\"amount\":120,\"category\":\"Toll\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "expense", r.Type)
	assert.Equal(t, 120.0, r.Amount)

	_, err = decodeReceipt(`{"type":"invoice","date":"2026-03-14","amount":1}`)
	assert.Error(t, err)

	_, err = decodeReceipt("not json")
	assert.Error(t, err)
}

func TestDisabled(t *testing.T) {
	var a Advisor = Disabled{}
	_, err := a.Insights(context.Background(), Summary{})
	assert.ErrorIs(t, err, ErrDisabled)

	r, err := a.ScanReceipt(context.Background(), nil, "")
	assert.Nil(t, r)
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = NewGemini(context.Background(), "", "", "")
	assert.ErrorIs(t, err, ErrDisabled)
}

func fakeGemini(t *testing.T, text string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.True(t, strings.Contains(r.URL.Path, "generateContent"), r.URL.Path)
		assert.NotEmpty(t, body)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":`+text+`}]}}]}`)
	}))
}

func TestGemini_Insights(t *testing.T) {
	srv := fakeGemini(t, `"  - Trim idle time\n"`)
	defer srv.Close()

	g, err := NewGemini(context.Background(), "test-key", "", srv.URL+"/")
	require.NoError(t, err)

	text, err := g.Insights(context.Background(), Summary{Org: "Ansh Tours"})
	require.NoError(t, err)
	assert.Equal(t, "- Trim idle time", text)
}

func TestGemini_ScanReceipt(t *testing.T) {
	srv := fakeGemini(t, `"{\"type\":\"fuel\",\"date\":\"2026-03-14\",\"amount\":400,\"quantity\":5}"`)
	defer srv.Close()

	g, err := NewGemini(context.Background(), "test-key", "gemini-test", srv.URL+"/")
	require.NoError(t, err)

	r, err := g.ScanReceipt(context.Background(), []byte{0xff, 0xd8}, "")
	require.NoError(t, err)
	assert.Equal(t, "fuel", r.Type)
	assert.Equal(t, 5.0, r.Quantity)
}

func TestGemini_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":{"code":500,"message":"boom","status":"INTERNAL"}}`)
	}))
	defer srv.Close()

	g, err := NewGemini(context.Background(), "test-key", "", srv.URL+"/")
	require.NoError(t, err)

	_, err = g.Insights(context.Background(), Summary{})
	assert.Error(t, err)
}
