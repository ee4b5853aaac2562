package shopify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"preventa-backend/internal/domain"
	"preventa-backend/pkg/logger"
	"preventa-backend/pkg/money"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

const (
	defaultAPIVersion = "2023-10"
	defaultTimeout    = 10 * time.Second
	accessTokenHeader = "X-Shopify-Access-Token"
)

// Config holds the connection settings for the Shopify Admin REST API.
type Config struct {
	// BaseURL is the shop domain ("tienda.myshopify.com") or a full base URL.
	BaseURL     string
	AccessToken string
	APIVersion  string
	Currency    string
	Timeout     time.Duration
}

// Client reads orders and products and writes order metafields through the
// Shopify Admin REST API. It holds no mutable state and is safe for
// concurrent use.
type Client struct {
	baseURL     string
	accessToken string
	apiVersion  string
	currency    string
	httpClient  *http.Client
}

var _ domain.CommerceClient = (*Client)(nil)

// NewClient creates a new Shopify Admin API client
func NewClient(cfg Config) *Client {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}
	if cfg.Currency == "" {
		cfg.Currency = money.DefaultCurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		baseURL:     base,
		accessToken: cfg.AccessToken,
		apiVersion:  cfg.APIVersion,
		currency:    cfg.Currency,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// --- Wire Types ---

type orderEnvelope struct {
	Order *domain.Order `json:"order"`
}

type productEnvelope struct {
	Product struct {
		Tags string `json:"tags"`
	} `json:"product"`
}

type metafieldRecord struct {
	ID    int64           `json:"id"`
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

type metafieldList struct {
	Metafields []metafieldRecord `json:"metafields"`
}

type metafieldPayload struct {
	Metafield domain.Metafield `json:"metafield"`
}

// --- Reads ---

// FetchOrder returns the order with the given id. A missing order yields an
// *domain.UpstreamError matching domain.ErrNotFound.
func (c *Client) FetchOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	op := fmt.Sprintf("fetch order %d", orderID)

	var env orderEnvelope
	if err := c.do(ctx, http.MethodGet, op, c.endpoint(fmt.Sprintf("/orders/%d.json", orderID), nil), nil, &env); err != nil {
		return nil, err
	}
	if env.Order == nil {
		return nil, &domain.UpstreamError{Op: op, StatusCode: http.StatusNotFound, Err: errors.New("response has no order")}
	}
	return env.Order, nil
}

// FetchProductTags returns the product's tags, each trimmed.
func (c *Client) FetchProductTags(ctx context.Context, productID int64) ([]string, error) {
	op := fmt.Sprintf("fetch product %d tags", productID)
	q := url.Values{"fields": {"tags"}}

	var env productEnvelope
	if err := c.do(ctx, http.MethodGet, op, c.endpoint(fmt.Sprintf("/products/%d.json", productID), q), nil, &env); err != nil {
		return nil, err
	}
	return domain.ParseTags(env.Product.Tags), nil
}

// FetchProductConstant returns the product's custom.constante amount, or zero
// when the product has no such metafield. A value that is neither a money
// envelope nor a number yields *domain.MalformedDataError.
func (c *Client) FetchProductConstant(ctx context.Context, productID int64) (decimal.Decimal, error) {
	log := logger.WithContext(ctx)
	op := fmt.Sprintf("fetch product %d constant", productID)
	q := url.Values{"namespace": {domain.MetafieldNamespace}, "key": {domain.KeyProductConstant}}

	var list metafieldList
	if err := c.do(ctx, http.MethodGet, op, c.endpoint(fmt.Sprintf("/products/%d/metafields.json", productID), q), nil, &list); err != nil {
		return decimal.Zero, err
	}

	if len(list.Metafields) == 0 {
		log.Info().Int64("product_id", productID).Msg("Product has no constant metafield")
		return decimal.Zero, nil
	}

	raw := rawValue(list.Metafields[0].Value)
	amount, err := money.Parse(raw)
	if err != nil {
		return decimal.Zero, &domain.MalformedDataError{
			Field: fmt.Sprintf("product %d %s", productID, domain.KeyProductConstant),
			Value: raw,
			Err:   err,
		}
	}

	log.Info().Int64("product_id", productID).Str("constant", amount.String()).Msg("Product constant loaded")
	return amount, nil
}

// rawValue returns a metafield value as text: JSON strings are unquoted,
// anything else (numbers) is kept verbatim.
func rawValue(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return string(v)
}

// --- Writes ---

// UpsertMoneyMetafield stores amount, formatted to two decimals, as a money
// metafield on the order.
func (c *Client) UpsertMoneyMetafield(ctx context.Context, orderID int64, key string, amount decimal.Decimal) error {
	value, err := money.NewEnvelope(amount, c.currency).Encode()
	if err != nil {
		return err
	}
	return c.upsertMetafield(ctx, orderID, domain.Metafield{
		Namespace: domain.MetafieldNamespace,
		Key:       key,
		Type:      domain.MetafieldTypeMoney,
		Value:     value,
	})
}

// UpsertTextMetafield stores value verbatim as a single line text metafield.
func (c *Client) UpsertTextMetafield(ctx context.Context, orderID int64, key, value string) error {
	return c.upsertMetafield(ctx, orderID, domain.Metafield{
		Namespace: domain.MetafieldNamespace,
		Key:       key,
		Type:      domain.MetafieldTypeText,
		Value:     value,
	})
}

// upsertMetafield creates the metafield, or overwrites the existing one when
// the platform rejects the create because the key is already taken.
// Two concurrent upserts of the same new key can still both take the create
// path; the loser then updates the winner's record.
func (c *Client) upsertMetafield(ctx context.Context, orderID int64, mf domain.Metafield) error {
	log := logger.WithContext(ctx)
	payload := metafieldPayload{Metafield: mf}
	collection := fmt.Sprintf("/orders/%d/metafields.json", orderID)

	err := c.do(ctx, http.MethodPost, fmt.Sprintf("create metafield %s on order %d", mf.Key, orderID), c.endpoint(collection, nil), payload, nil)
	if err == nil {
		log.Info().Int64("order_id", orderID).Str("key", mf.Key).Str("value", mf.Value).Msg("Metafield created")
		return nil
	}
	if !isAlreadyExists(err) {
		return err
	}

	id, err := c.findOrderMetafield(ctx, orderID, mf.Namespace, mf.Key)
	if err != nil {
		return err
	}

	op := fmt.Sprintf("update metafield %s on order %d", mf.Key, orderID)
	if err := c.do(ctx, http.MethodPut, op, c.endpoint(fmt.Sprintf("/metafields/%d.json", id), nil), payload, nil); err != nil {
		return err
	}
	log.Info().Int64("order_id", orderID).Str("key", mf.Key).Str("value", mf.Value).Msg("Metafield updated")
	return nil
}

func (c *Client) findOrderMetafield(ctx context.Context, orderID int64, namespace, key string) (int64, error) {
	op := fmt.Sprintf("find metafield %s on order %d", key, orderID)
	q := url.Values{"namespace": {namespace}, "key": {key}}

	var list metafieldList
	if err := c.do(ctx, http.MethodGet, op, c.endpoint(fmt.Sprintf("/orders/%d/metafields.json", orderID), q), nil, &list); err != nil {
		return 0, err
	}
	if len(list.Metafields) == 0 {
		return 0, &domain.UpstreamError{
			Op:         op,
			StatusCode: http.StatusUnprocessableEntity,
			Err:        errors.New("metafield reported as existing but not found"),
		}
	}
	return list.Metafields[0].ID, nil
}

// isAlreadyExists reports whether err is the platform's 422 response to
// creating a metafield whose key is taken.
func isAlreadyExists(err error) bool {
	var upErr *domain.UpstreamError
	return errors.As(err, &upErr) &&
		upErr.StatusCode == http.StatusUnprocessableEntity &&
		strings.Contains(upErr.Body, "already exists")
}

// --- Transport ---

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + "/admin/api/" + c.apiVersion + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do sends one request. Any non-2xx status becomes *domain.UpstreamError
// carrying the response body; transport failures and timeouts become
// *domain.UpstreamError with StatusCode 0.
func (c *Client) do(ctx context.Context, method, op, endpoint string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to marshal request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	req.Header.Set(accessTokenHeader, c.accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.UpstreamError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.UpstreamError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	logger.WithContext(ctx).Debug().
		Str("method", method).
		Str("url", endpoint).
		Int("status", resp.StatusCode).
		Dur("duration_ms", time.Since(start)).
		Msg("Shopify API call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.UpstreamError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return &domain.UpstreamError{Op: op, StatusCode: resp.StatusCode, Body: string(respBody), Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}
