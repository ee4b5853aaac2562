package shopify_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"preventa-backend/internal/domain"
	"preventa-backend/internal/infrastructure/shopify"
	"preventa-backend/internal/infrastructure/shopify/shopifytest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*shopify.Client, *shopifytest.Server) {
	t.Helper()
	srv := shopifytest.NewServer()
	t.Cleanup(srv.Close)
	return shopify.NewClient(shopify.Config{
		BaseURL:     srv.URL,
		AccessToken: shopifytest.Token,
		Timeout:     2 * time.Second,
	}), srv
}

func strPtr(s string) *string { return &s }

func TestFetchOrder(t *testing.T) {
	client, srv := newClient(t)
	srv.AddOrder(1001, `{
		"id": 1001,
		"total_weight": 3000,
		"line_items": [{"product_id": 7, "quantity": 2, "title": "Figura"}],
		"shipping_lines": [{"title": "Preventa Envio", "price": "0.00"}],
		"shipping_address": {"province": "Guerrero", "city": "Acapulco"}
	}`)

	order, err := client.FetchOrder(context.Background(), 1001)
	require.NoError(t, err)

	assert.Equal(t, int64(1001), order.ID)
	assert.Equal(t, 3000.0, order.TotalWeight)
	require.Len(t, order.LineItems, 1)
	assert.Equal(t, domain.LineItem{ProductID: 7, Quantity: 2}, order.LineItems[0])
	assert.Equal(t, "Preventa Envio", order.ShippingLines[0].Title)
	assert.Equal(t, "Guerrero", order.Province())
	assert.Contains(t, srv.Requests(), "GET /admin/api/2023-10/orders/1001.json")
}

func TestFetchOrder_NotFound(t *testing.T) {
	client, _ := newClient(t)

	_, err := client.FetchOrder(context.Background(), 404)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	var upErr *domain.UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusNotFound, upErr.StatusCode)
}

func TestFetchOrder_BadToken(t *testing.T) {
	srv := shopifytest.NewServer()
	defer srv.Close()
	client := shopify.NewClient(shopify.Config{BaseURL: srv.URL, AccessToken: "wrong"})

	_, err := client.FetchOrder(context.Background(), 1)

	var upErr *domain.UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusUnauthorized, upErr.StatusCode)
	assert.Contains(t, upErr.Body, "Invalid API key")
}

func TestFetchProductTags(t *testing.T) {
	client, srv := newClient(t)
	srv.AddProduct(7, shopifytest.Product{Tags: "preventa, yo ,  anime"})

	tags, err := client.FetchProductTags(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"preventa", "yo", "anime"}, tags)

	_, err = client.FetchProductTags(context.Background(), 8)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestFetchProductConstant(t *testing.T) {
	client, srv := newClient(t)
	srv.AddProduct(1, shopifytest.Product{Constant: strPtr(`{"amount":"500.00","currency_code":"MXN"}`)})
	srv.AddProduct(2, shopifytest.Product{Constant: strPtr("250.5")})
	srv.AddProduct(3, shopifytest.Product{})
	srv.AddProduct(4, shopifytest.Product{Constant: strPtr("quinientos")})

	ctx := context.Background()

	got, err := client.FetchProductConstant(ctx, 1)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(500).Equal(got))

	got, err = client.FetchProductConstant(ctx, 2)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("250.5").Equal(got))

	got, err = client.FetchProductConstant(ctx, 3)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = client.FetchProductConstant(ctx, 4)
	var malformed *domain.MalformedDataError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "quinientos", malformed.Value)
}

func TestUpsertMoneyMetafield_CreatesThenUpdates(t *testing.T) {
	client, srv := newClient(t)
	ctx := context.Background()

	require.NoError(t, client.UpsertMoneyMetafield(ctx, 55, domain.KeyPendingTotal, decimal.NewFromInt(100)))
	require.NoError(t, client.UpsertMoneyMetafield(ctx, 55, domain.KeyPendingTotal, decimal.RequireFromString("99.995")))

	all := srv.Metafields(55)
	require.Len(t, all, 1)
	assert.Equal(t, domain.MetafieldNamespace, all[0].Namespace)
	assert.Equal(t, domain.KeyPendingTotal, all[0].Key)
	assert.Equal(t, domain.MetafieldTypeMoney, all[0].Type)
	assert.JSONEq(t, `{"amount":"100.00","currency_code":"MXN"}`, all[0].Value)

	require.NoError(t, client.UpsertMoneyMetafield(ctx, 55, domain.KeyPendingTotal, decimal.RequireFromString("12.5")))
	mf, ok := srv.Metafield(55, domain.KeyPendingTotal)
	require.True(t, ok)
	assert.JSONEq(t, `{"amount":"12.50","currency_code":"MXN"}`, mf.Value)
	assert.Len(t, srv.Metafields(55), 1)
}

func TestUpsertTextMetafield(t *testing.T) {
	client, srv := newClient(t)
	ctx := context.Background()

	require.NoError(t, client.UpsertTextMetafield(ctx, 9, domain.KeyCarrier, "Estafeta"))
	require.NoError(t, client.UpsertTextMetafield(ctx, 9, domain.KeyCarrier, ""))

	all := srv.Metafields(9)
	require.Len(t, all, 1)
	assert.Equal(t, domain.MetafieldTypeText, all[0].Type)
	assert.Equal(t, "", all[0].Value)
}

func TestUpsert_OtherFailurePropagates(t *testing.T) {
	client, srv := newClient(t)
	srv.FailWith("POST /admin/api/2023-10/orders/9/metafields.json", http.StatusInternalServerError)

	err := client.UpsertTextMetafield(context.Background(), 9, domain.KeyCarrier, "DHL")

	var upErr *domain.UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusInternalServerError, upErr.StatusCode)
	assert.Contains(t, upErr.Body, "injected failure")
}

func TestUpsert_UpdateFailurePropagates(t *testing.T) {
	client, srv := newClient(t)
	srv.SeedMetafield(9, domain.Metafield{Namespace: "custom", Key: domain.KeyCarrier, Type: domain.MetafieldTypeText, Value: "DHL"})
	srv.FailWith("PUT /admin/api/2023-10/metafields/", http.StatusForbidden)

	err := client.UpsertTextMetafield(context.Background(), 9, domain.KeyCarrier, "Estafeta")

	var upErr *domain.UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusForbidden, upErr.StatusCode)

	mf, _ := srv.Metafield(9, domain.KeyCarrier)
	assert.Equal(t, "DHL", mf.Value)
}

func TestClient_TimeoutIsUpstreamError(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer slow.Close()

	client := shopify.NewClient(shopify.Config{BaseURL: slow.URL, AccessToken: "x", Timeout: 20 * time.Millisecond})
	_, err := client.FetchOrder(context.Background(), 1)

	var upErr *domain.UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Zero(t, upErr.StatusCode)
}
