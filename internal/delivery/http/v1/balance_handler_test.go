package v1_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	v1 "preventa-backend/internal/delivery/http/v1"
	"preventa-backend/internal/domain"
	"preventa-backend/internal/infrastructure/ratetable"
	"preventa-backend/internal/infrastructure/shopify"
	"preventa-backend/internal/infrastructure/shopify/shopifytest"
	"preventa-backend/internal/usecase"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schedule = "ubicacion,peso_kg,tarifa,paqueteria\n" +
	"Estado de Guerrero,5,100,CarrierA\n" +
	"Estado de Guerrero,10,150,CarrierB\n"

const guerreroOrder = `{
	"id": 501,
	"total_weight": 3000,
	"line_items": [{"product_id": 1, "quantity": 1}, {"product_id": 2, "quantity": 4}],
	"shipping_lines": [{"title": "Preventa Envio"}],
	"shipping_address": {"province": "Guerrero"}
}`

func newTestMux(t *testing.T) (http.Handler, *shopifytest.Server) {
	t.Helper()

	srv := shopifytest.NewServer()
	t.Cleanup(srv.Close)
	constant := `{"amount":"500.00","currency_code":"MXN"}`
	srv.AddProduct(1, shopifytest.Product{Tags: "yo, preventa", Constant: &constant})
	srv.AddProduct(2, shopifytest.Product{Tags: "anime"})

	path := filepath.Join(t.TempDir(), "envios.csv")
	require.NoError(t, os.WriteFile(path, []byte(schedule), 0o600))

	client := shopify.NewClient(shopify.Config{BaseURL: srv.URL, AccessToken: shopifytest.Token, Timeout: 2 * time.Second})
	uc := usecase.NewBalanceUsecase(client, ratetable.New(ratetable.NewFileSource(path)), domain.PreSaleContainsAny, domain.EligibilityTag)
	h := v1.NewBalanceHandler(uc)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook/order_created", h.OrderCreated)
	mux.HandleFunc("GET /actualizar_pedido/{order_id}", h.RecalculateOrder)
	mux.HandleFunc("GET /health", v1.Health)
	return mux, srv
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestOrderCreated_DirectAndWrappedPayload(t *testing.T) {
	for name, body := range map[string]string{
		"direct":  guerreroOrder,
		"wrapped": `{"order": ` + guerreroOrder + `}`,
	} {
		t.Run(name, func(t *testing.T) {
			mux, srv := newTestMux(t)

			rec := serve(mux, http.MethodPost, "/webhook/order_created", body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			out := decode(t, rec)
			assert.Equal(t, "Metafields actualizados", out["status"])
			assert.Equal(t, 501.0, out["order_id"])
			assert.Equal(t, 500.0, out["cantidad_pendiente_productos"])
			assert.Equal(t, 100.0, out["envio_pendiente"])
			assert.Equal(t, 600.0, out["pendiente_pago"])
			assert.Equal(t, "CarrierA", out["paqueteria"])

			assert.Len(t, srv.Metafields(501), 4)
		})
	}
}

func TestOrderCreated_BadPayloads(t *testing.T) {
	mux, srv := newTestMux(t)

	tests := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"empty object", "{}"},
		{"not json", "order=1"},
		{"array", "[1,2]"},
		{"missing id", `{"line_items": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(mux, http.MethodPost, "/webhook/order_created", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decode(t, rec)["error"])
		})
	}
	assert.Empty(t, srv.Requests(), "bad payloads never reach the platform")
}

func TestOrderCreated_PersistFailureIs500WithUpstreamBody(t *testing.T) {
	mux, srv := newTestMux(t)
	srv.FailWith("POST /admin/api/2023-10/orders/501/metafields.json", http.StatusInternalServerError)

	rec := serve(mux, http.MethodPost, "/webhook/order_created", guerreroOrder)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	out := decode(t, rec)
	assert.Contains(t, out["error"], domain.KeyPendingProducts)
	assert.Contains(t, out["response_body"], "injected failure")
}

func TestRecalculateOrder(t *testing.T) {
	mux, srv := newTestMux(t)
	srv.AddOrder(501, guerreroOrder)

	rec := serve(mux, http.MethodGet, "/actualizar_pedido/501", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decode(t, rec)
	assert.Equal(t, "Metafields actualizados (manual)", out["status"])
	assert.Equal(t, 600.0, out["pendiente_pago"])

	mf, ok := srv.Metafield(501, domain.KeyCarrier)
	require.True(t, ok)
	assert.Equal(t, "CarrierA", mf.Value)
}

func TestRecalculateOrder_Errors(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := serve(mux, http.MethodGet, "/actualizar_pedido/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(mux, http.MethodGet, "/actualizar_pedido/999", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No se pudo obtener el pedido", decode(t, rec)["error"])
}

func TestHealth(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := serve(mux, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}
