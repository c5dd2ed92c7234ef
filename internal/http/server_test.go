package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"madrassa/internal/core"
	"madrassa/internal/notify"
	"madrassa/internal/services"
	"madrassa/internal/storage/memory"
)

type fakeDispatcher struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeDispatcher) SendToMultiple(_ context.Context, phones []string, message string) notify.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, message)
	return notify.Result{Total: len(phones), Sent: len(phones)}
}

func (f *fakeDispatcher) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return context.DeadlineExceeded }

type testEnv struct {
	srv      *Server
	store    *memory.Store
	dispatch *fakeDispatcher
	notifier *notify.Service
}

func newTestEnv(t *testing.T, adminPhones ...string) *testEnv {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	cfg := core.DefaultConfig()
	cfg.Name = "Darul Uloom"
	cfg.AdminPhones = adminPhones
	require.NoError(t, store.SaveConfig(ctx, cfg))

	st, err := store.AddStudent(ctx, core.Student{
		GRNumber: "GR-1", Name: "Ahmed", Status: core.StatusActive,
		AdmissionDate: core.NewDate(2024, 4, 2), MonthlyFee: core.Rupees(1000),
	})
	require.NoError(t, err)
	_, err = store.AddPayment(ctx, core.Payment{StudentID: st.ID, FeeType: core.FeeMonthly, Amount: core.Rupees(1000), Date: core.NewDate(2024, 4, 5), Month: "2024-04"})
	require.NoError(t, err)
	_, err = store.AddPayment(ctx, core.Payment{StudentID: st.ID, FeeType: core.FeeAdmission, Amount: core.Rupees(500), Date: core.NewDate(2024, 5, 3)})
	require.NoError(t, err)
	_, err = store.AddExpense(ctx, core.Expense{Category: "Utilities", Amount: core.Rupees(200), Date: core.NewDate(2024, 5, 3)})
	require.NoError(t, err)

	d := &fakeDispatcher{}
	notifier := notify.NewService(d, store, time.Minute, nil)
	reportSvc := services.NewReportService(store, notifier, d, nil, nil)

	srv := NewServer(":0", Deps{
		Reports:   reportSvc,
		Notifier:  notifier,
		Config:    store,
		Ready:     store,
		RateLimit: 1000,
	})
	srv.now = func() time.Time { return time.Date(2024, 5, 3, 18, 0, 0, 0, time.UTC) }

	return &testEnv{srv: srv, store: store, dispatch: d, notifier: notifier}
}

func (e *testEnv) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)

	var out map[string]any
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	}
	return rr, out
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr, _ := env.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}

	env.srv.deps.Ready = failingPinger{}
	rr, _ := env.do(t, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestMiddlewareHeaders(t *testing.T) {
	env := newTestEnv(t)
	rr, _ := env.do(t, http.MethodGet, "/healthz", "")
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))

	rr, _ = env.do(t, http.MethodGet, "/.env", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDailyReport(t *testing.T) {
	env := newTestEnv(t)

	rr, body := env.do(t, http.MethodGet, "/api/reports/daily?date=2024-05-03", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "2024-05-03", body["date"])
	assert.Equal(t, false, body["sent"])
	assert.NotContains(t, body, "sendResult")

	report := body["report"].(map[string]any)
	assert.EqualValues(t, 500, report["totalIncome"])
	assert.EqualValues(t, 200, report["totalExpenses"])
	assert.EqualValues(t, 300, report["netAmount"])
	assert.EqualValues(t, 1, report["paymentCount"])
	assert.Equal(t, map[string]any{"Admission": float64(500)}, report["paymentsByType"])
	assert.Equal(t, map[string]any{"Utilities": float64(200)}, report["expensesByCategory"])
	assert.True(t, strings.HasPrefix(body["message"].(string), "📊 *Daily Report - 2024-05-03*"))
}

func TestDailyReport_DefaultsToToday(t *testing.T) {
	env := newTestEnv(t)
	_, body := env.do(t, http.MethodGet, "/api/reports/daily", "")
	assert.Equal(t, "2024-05-03", body["date"])

	env.srv.deps.Location = time.FixedZone("PKT", 5*60*60)
	env.srv.now = func() time.Time { return time.Date(2024, 5, 3, 21, 0, 0, 0, time.UTC) }
	_, body = env.do(t, http.MethodGet, "/api/reports/daily", "")
	assert.Equal(t, "2024-05-04", body["date"])
}

func TestDailyReport_InvalidDate(t *testing.T) {
	env := newTestEnv(t)
	rr, body := env.do(t, http.MethodGet, "/api/reports/daily?date=03-05-2024", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "invalid period")
}

func TestReport_Send(t *testing.T) {
	env := newTestEnv(t, "03001234567", " ")

	rr, body := env.do(t, http.MethodGet, "/api/reports/daily?date=2024-05-03&send=true", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, true, body["sent"])
	assert.Equal(t, map[string]any{"total": float64(1), "sent": float64(1), "failed": float64(0)}, body["sendResult"])
	require.Len(t, env.dispatch.messages(), 1)
	assert.True(t, strings.HasSuffix(env.dispatch.messages()[0], "\n---\n_Darul Uloom_"))
}

func TestReport_SendWithoutAdminPhones(t *testing.T) {
	env := newTestEnv(t)
	rr, body := env.do(t, http.MethodGet, "/api/reports/weekly?endDate=2024-05-04&send=true", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, false, body["sent"])
	assert.NotContains(t, body, "sendResult")
	assert.Empty(t, env.dispatch.messages())
}

func TestWeeklyReport(t *testing.T) {
	env := newTestEnv(t)
	rr, body := env.do(t, http.MethodGet, "/api/reports/weekly?endDate=2024-05-04", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "2024-04-28", body["startDate"])
	assert.Equal(t, "2024-05-04", body["endDate"])

	report := body["report"].(map[string]any)
	assert.EqualValues(t, 500, report["totalIncome"])
	assert.Len(t, report["dailyBreakdown"], 7)
}

func TestMonthlyReport(t *testing.T) {
	env := newTestEnv(t)
	rr, body := env.do(t, http.MethodGet, "/api/reports/monthly?month=2024-04", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "2024-04", body["month"])

	report := body["report"].(map[string]any)
	assert.EqualValues(t, 1000, report["totalIncome"])
	fees := report["feeCollection"].(map[string]any)
	assert.EqualValues(t, 1000, fees["expected"])
	assert.EqualValues(t, 1000, fees["collected"])
	assert.EqualValues(t, 0, fees["pending"])
	assert.EqualValues(t, 100, fees["collectionRate"])
	assert.Contains(t, report, "studentStats")
	assert.Contains(t, report, "topExpenseCategories")
	assert.True(t, strings.HasPrefix(body["message"].(string), "📊 *Monthly Report - April 2024*"))

	rr, _ = env.do(t, http.MethodGet, "/api/reports/monthly?month=2024-13", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSendNotification(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantSuccess bool
		wantError   string
		wantTotal   float64
	}{
		{"single phone", `{"phones":"03001234567","message":"Salaam"}`, http.StatusOK, true, "", 1},
		{"phone list", `{"phones":["03001234567","03007654321"],"message":"Salaam"}`, http.StatusOK, true, "", 2},
		{"blank message", `{"phones":"03001234567","message":"  "}`, http.StatusBadRequest, false, "Message cannot be empty", 0},
		{"no phones", `{"phones":[],"message":"Salaam"}`, http.StatusBadRequest, false, "At least one phone number is required", 0},
		{"bad phones type", `{"phones":12,"message":"Salaam"}`, http.StatusBadRequest, false, "", 0},
		{"malformed body", `{`, http.StatusBadRequest, false, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rr, body := env.do(t, http.MethodPost, "/api/notifications/send", tt.body)
			require.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantSuccess, body["success"])
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
			}
			if tt.wantTotal > 0 {
				result := body["result"].(map[string]any)
				assert.Equal(t, tt.wantTotal, result["total"])
				assert.Equal(t, tt.wantTotal, result["sent"])
			}
		})
	}
}

func TestNotificationEvent(t *testing.T) {
	env := newTestEnv(t)

	rr, body := env.do(t, http.MethodPost, "/api/notifications/events",
		`{"event":"ANNOUNCEMENT","data":{"message":"School closed on Friday","phones":["03001234567"]}}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, true, body["success"])
	result := body["result"].(map[string]any)
	assert.EqualValues(t, 1, result["sent"])
	require.Len(t, env.dispatch.messages(), 1)
	assert.Contains(t, env.dispatch.messages()[0], "School closed on Friday")

	rr, body = env.do(t, http.MethodPost, "/api/notifications/events",
		`{"event":"STUDENT_CREATED","data":{"student":{"name":"Ahmed","grNumber":"GR-1"}}}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, false, body["success"])

	rr, _ = env.do(t, http.MethodPost, "/api/notifications/events", `{"event":"BIRTHDAY","data":{}}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, body = env.do(t, http.MethodPost, "/api/notifications/events",
		`{"event":"FEE_REMINDER","data":{"student":{"grNumber":"GR-1","phone":"03001234567"},"month":"2024-05","dueDate":10}}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, body["error"], "Name")

	rr, _ = env.do(t, http.MethodPost, "/api/notifications/events", `{"data":{}}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestConfig_GetAndUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rr, body := env.do(t, http.MethodGet, "/api/config", "")
	require.Equal(t, http.StatusOK, rr.Code)
	result := body["result"].(map[string]any)
	assert.Equal(t, "Darul Uloom", result["name"])
	assert.Equal(t, "Admin", result["adminName"])
	assert.EqualValues(t, 10, result["monthlyDueDate"])
	assert.Equal(t, []any{}, result["adminPhones"])

	assert.Equal(t, "Darul Uloom", env.notifier.OrgName(ctx))

	rr, body = env.do(t, http.MethodPut, "/api/config",
		`{"name":"Jamia Islamia","adminPhones":["03001234567"],"monthlyDueDate":5}`)
	require.Equal(t, http.StatusOK, rr.Code)
	result = body["result"].(map[string]any)
	assert.Equal(t, "Jamia Islamia", result["name"])
	assert.EqualValues(t, 5, result["monthlyDueDate"])
	assert.Equal(t, "05", result["annualFeeMonth"])

	stored, err := env.store.GetConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"03001234567"}, stored.AdminPhones)
	assert.Equal(t, "Jamia Islamia", env.notifier.OrgName(ctx))
}

func TestConfig_UpdateValidation(t *testing.T) {
	env := newTestEnv(t)
	for _, body := range []string{
		`{"monthlyDueDate":40}`,
		`{"annualFeeMonth":"5"}`,
		`{"annualFee":-10}`,
		`not json`,
	} {
		rr, out := env.do(t, http.MethodPut, "/api/config", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
		assert.Equal(t, false, out["success"], body)
	}
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t)
	env.srv = NewServer(":0", Deps{
		Reports:   env.srv.deps.Reports,
		Notifier:  env.notifier,
		Config:    env.store,
		RateLimit: 2,
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rr, _ := env.do(t, http.MethodGet, "/api/config", "")
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	rr, _ := env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}
