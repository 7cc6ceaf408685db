package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"pos-order-api/internal/service"
	"pos-order-api/internal/store/memstore"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(ready func() error) (*gin.Engine, *memstore.Store) {
	repo := memstore.New()
	resolver := service.NewResolver(repo, nil, "admin")
	orders := service.NewOrderService(
		repo,
		resolver,
		service.NewPersister(repo),
		service.NewNotifier(service.DefaultStrategies(repo, nil, "admin")...),
		nil,
		"ECommerce",
	)
	handler := NewHandler(
		orders,
		service.NewCatalogService(repo, resolver),
		service.NewDiagnostics(repo, service.NewBroadcastStrategy(repo, nil)),
		ready,
	)

	router := gin.New()
	handler.SetupRoutes(router)
	return router, repo
}

func do(router *gin.Engine, method, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var decoded map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &decoded)
	return w, decoded
}

func TestHealthAndReady(t *testing.T) {
	router, _ := setupRouter(nil)

	w, body := do(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])

	w, _ = do(router, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)

	router, _ = setupRouter(func() error { return errors.New("db down") })
	w, body = do(router, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "db down", body["error"])
}

func TestCreateOrder(t *testing.T) {
	router, repo := setupRouter(nil)

	w, body := do(router, http.MethodPost, "/api/pos/order", `{
		"pos_name": "Downtown",
		"lines": [{
			"product_name": "Burger",
			"qty": 2,
			"price_unit": 5.0,
			"discount": 10,
			"extras": [{"name": "Cheese", "price": 1.0}]
		}]
	}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, true, body["success"])
	assert.Equal(t, "ECommerce Downtown", body["pos_name"])
	assert.NotZero(t, body["order_id"])
	totals, ok := body["calculated_totals"].(map[string]interface{})
	require.True(t, ok)
	assert.InDelta(t, 10.8, totals["amount_total"], 1e-9)
	assert.InDelta(t, 10.8, totals["amount_paid"], 1e-9)
	assert.NotContains(t, body, "warning")

	assert.Len(t, repo.Orders(), 1)
}

func TestCreateOrderValidation(t *testing.T) {
	router, repo := setupRouter(nil)

	w, body := do(router, http.MethodPost, "/api/pos/order", `{"lines": []}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, service.ErrNoLines.Error(), body["error"])

	w, _ = do(router, http.MethodPost, "/api/pos/order", `{"lines": [{"qty": 1}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = do(router, http.MethodPost, "/api/pos/order", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])

	assert.Empty(t, repo.Orders())
}

func TestProductEndpoints(t *testing.T) {
	router, _ := setupRouter(nil)

	w, body := do(router, http.MethodGet, "/api/pos/get_product_by_name?product_name=Fries", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, body["success"])

	w, _ = do(router, http.MethodGet, "/api/pos/get_product_by_name", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = do(router, http.MethodPost, "/api/pos/get_or_create_product", `{"product_name": "Fries", "price_unit": 3.5}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Fries D", body["name"])
	assert.InDelta(t, 3.5, body["list_price"], 1e-9)
	id := body["product_id"]

	w, body = do(router, http.MethodGet, "/api/pos/get_or_create_product?product_name=Fries&price_unit=oops", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, body["product_id"])

	req := httptest.NewRequest(http.MethodGet, "/api/pos/get_product_by_name?product_name=Fries&image_size=128", nil)
	req.Host = "shop.test"
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var info map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, service.ImageURL("https://shop.test", int64(id.(float64)), "128"), info["image_url"])
}

func TestDebugUsers(t *testing.T) {
	router, _ := setupRouter(nil)

	w, body := do(router, http.MethodGet, "/api/pos/debug/users", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 1, body["total_internal_users"])
	groups, ok := body["groups_info"].([]interface{})
	require.True(t, ok)
	assert.Len(t, groups, 6)
}

func TestTestNotificationWithoutBus(t *testing.T) {
	router, _ := setupRouter(nil)

	w, body := do(router, http.MethodPost, "/api/pos/test-notification", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 0, body["notifications_sent"])
	assert.Equal(t, "Test notification sent to 0 users", body["message"])
}
