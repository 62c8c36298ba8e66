package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lpstudio/api/middleware"
	"lpstudio/api/models"
	"lpstudio/api/storage"
	"lpstudio/api/store"
)

// newTestRouter wires the full API over an in-memory store with no remote
// backends, the same degraded mode the service runs in without env config.
func newTestRouter(t *testing.T) (*gin.Engine, *store.EventLog) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	localStore := storage.NewMemoryStore()
	tableClient := store.NewTableClient(nil)
	eventLog := store.NewEventLog(localStore, nil)
	identity := store.NewIdentity(localStore)
	orders := store.NewOrderStore(localStore)

	clients := store.NewFallbackRepo(store.TableClients, tableClient, store.NewRepo(localStore, storage.BucketClients))
	pages := store.NewFallbackRepo(store.TablePages, tableClient, store.NewRepo(localStore, storage.BucketPages))
	leads := store.NewFallbackRepo(store.TableLeads, tableClient, store.NewRepo(localStore, storage.BucketLeads))

	analyticsHandlers := NewAnalyticsHandlers(eventLog, identity)
	entityHandlers := NewEntityHandlers(clients, pages, leads)
	orderHandlers := NewOrderHandlers(orders, eventLog)

	r := gin.New()
	r.GET("/payments/callback", orderHandlers.PaymentCallback)

	api := r.Group("/api")
	api.POST("/track", analyticsHandlers.TrackEvent)
	api.POST("/leads", entityHandlers.CreateLead)

	protected := api.Group("/")
	protected.Use(middleware.AuthRequired())
	protected.GET("/stats/summary", analyticsHandlers.GetMetricsSummary)
	protected.POST("/clients", entityHandlers.CreateClient)
	protected.GET("/clients", entityHandlers.ListClients)
	protected.POST("/checkout", orderHandlers.Checkout)
	protected.POST("/coupons", orderHandlers.CreateCoupon)

	return r, eventLog
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, payload any, apiKey string) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-KEY", apiKey)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTrackThenSummary(t *testing.T) {
	t.Setenv("AUTH_DEFAULT", "test-key")
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/track", models.TrackRequest{
		Type:      models.EventPageView,
		URL:       "https://pages.example/lp-1?utm_source=ads",
		LpID:      "lp-1",
		VisitorID: "V1",
		SessionID: "S1",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/stats/summary", nil, "test-key")
	require.Equal(t, http.StatusOK, w.Code)

	var sum models.MetricsSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sum))
	assert.Equal(t, 1, sum.Visitors)
	assert.Equal(t, 1, sum.Sessions)
	assert.Equal(t, 1, sum.PageViews)
	assert.Equal(t, 1.0, sum.BounceRate)
	require.Len(t, sum.Sources, 1)
	assert.Equal(t, "ads", sum.Sources[0].Source)
}

func TestTrack_DerivesIdentityWhenAbsent(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/track", models.TrackRequest{Type: models.EventPageView}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	var ev models.AnalyticsEvent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ev))
	assert.NotEmpty(t, ev.VisitorID)
	assert.NotEmpty(t, ev.SessionID)
}

func TestTrack_RequiresType(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/track", map[string]any{"url": "https://x"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSummary_RejectsBadRange(t *testing.T) {
	t.Setenv("AUTH_DEFAULT", "test-key")
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/stats/summary?start=not-a-time", nil, "test-key")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/stats/summary?start=2025-06-02T00:00:00Z&end=2025-06-01T00:00:00Z", nil, "test-key")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProtectedEndpointsRejectAnonymous(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/stats/summary", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestClientCRUDFallsBackToLocal(t *testing.T) {
	t.Setenv("AUTH_DEFAULT", "test-key")
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/clients", models.ClientRequest{Nome: "Ana"}, "test-key")
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/clients", nil, "test-key")
	require.Equal(t, http.StatusOK, w.Code)

	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Ana", list[0]["nome"])
}

func TestLeadSubmissionIsPublic(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/leads", models.LeadRequest{LpID: "lp-1", Nome: "Bia"}, "")
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCheckoutAndPaymentCallback(t *testing.T) {
	t.Setenv("AUTH_DEFAULT", "test-key")
	r, eventLog := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/checkout", models.CheckoutRequest{
		LpID:       "lp-1",
		ValorTotal: "199.90",
		VisitorID:  "V1",
		SessionID:  "S1",
	}, "test-key")
	require.Equal(t, http.StatusCreated, w.Code)

	var resp models.CheckoutResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.OrderPending, resp.Order.Status)
	assert.Contains(t, resp.RedirectURL, "/payments/callback?order="+resp.Order.IDPedido)

	// Gateway returns with a paid outcome.
	w = doJSON(t, r, http.MethodGet, "/payments/callback?order="+resp.Order.IDPedido+"&status=pago", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var settled models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &settled))
	assert.Equal(t, models.OrderPaid, settled.Status)

	// The paid transition records a conversion event for the page.
	events := eventLog.ReadAll()
	require.Len(t, events, 1)
	assert.Equal(t, models.EventConversion, events[0].EventType)
	assert.Equal(t, "lp-1", events[0].LpID)
	assert.Equal(t, "V1", events[0].VisitorID)

	// A second callback must not settle the order again.
	w = doJSON(t, r, http.MethodGet, "/payments/callback?order="+resp.Order.IDPedido+"&status=falha", nil, "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPaymentCallback_UnknownOrder(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/payments/callback?order=ghost&status=pago", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckout_AppliesCoupon(t *testing.T) {
	t.Setenv("AUTH_DEFAULT", "test-key")
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/coupons", map[string]any{"code": "PROMO10", "percent_off": "10"}, "test-key")
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/checkout", models.CheckoutRequest{
		LpID:        "lp-1",
		ValorTotal:  "100.00",
		CupomCodigo: "promo10",
	}, "test-key")
	require.Equal(t, http.StatusCreated, w.Code)

	var resp models.CheckoutResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Order.ValorTotal.Equal(decimal.NewFromInt(90)),
		"10%% off 100.00 must be 90, got %s", resp.Order.ValorTotal)
}

func TestCheckout_RejectsUnknownCoupon(t *testing.T) {
	t.Setenv("AUTH_DEFAULT", "test-key")
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/checkout", models.CheckoutRequest{
		LpID:        "lp-1",
		ValorTotal:  "100.00",
		CupomCodigo: "nope",
	}, "test-key")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_DefaultAccounts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	authHandlers := NewAuthHandlers()
	r := gin.New()
	r.POST("/api/login", authHandlers.Login)

	w := doJSON(t, r, http.MethodPost, "/api/login", models.LoginRequest{Username: "admin", Password: "admin123"}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/login", models.LoginRequest{Username: "admin", Password: "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
