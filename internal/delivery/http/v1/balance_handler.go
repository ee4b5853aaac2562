package v1

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"preventa-backend/internal/domain"
	"preventa-backend/internal/usecase"
	"preventa-backend/pkg/logger"
	"preventa-backend/pkg/utils"

	"github.com/goccy/go-json"
)

const (
	statusUpdated       = "Metafields actualizados"
	statusUpdatedManual = "Metafields actualizados (manual)"

	maxWebhookBodyBytes = 1 << 20
)

type BalanceHandler struct {
	balanceUC *usecase.BalanceUsecase
}

func NewBalanceHandler(uc *usecase.BalanceUsecase) *BalanceHandler {
	return &BalanceHandler{balanceUC: uc}
}

// balanceResponse echoes the stored values. Amounts go out as JSON numbers.
type balanceResponse struct {
	Status          string  `json:"status"`
	OrderID         int64   `json:"order_id"`
	PendingProducts float64 `json:"cantidad_pendiente_productos"`
	PendingShipping float64 `json:"envio_pendiente"`
	PendingTotal    float64 `json:"pendiente_pago"`
	Carrier         string  `json:"paqueteria"`
}

func newBalanceResponse(status string, res *domain.BalanceResult) balanceResponse {
	return balanceResponse{
		Status:          status,
		OrderID:         res.OrderID,
		PendingProducts: res.ProductTotal.InexactFloat64(),
		PendingShipping: res.ShippingTotal.InexactFloat64(),
		PendingTotal:    res.GrandTotal.InexactFloat64(),
		Carrier:         res.Carrier,
	}
}

// OrderCreated handles the order creation webhook. The body is the order
// itself or an object wrapping it under "order".
func (h *BalanceHandler) OrderCreated(w http.ResponseWriter, r *http.Request) {
	log := logger.WithContext(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	order, err := decodeOrder(body)
	if err != nil {
		log.Error().Err(err).Msg("Webhook without usable order data")
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.recalculate(r.Context(), w, order, statusUpdated)
}

// RecalculateOrder fetches the order by id and recomputes its balance.
func (h *BalanceHandler) RecalculateOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(r.PathValue("order_id"), 10, 64)
	if err != nil || orderID <= 0 {
		utils.WriteError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	order, err := h.balanceUC.GetOrder(r.Context(), orderID)
	if err != nil {
		logger.WithContext(r.Context()).Error().Err(err).Int64("order_id", orderID).Msg("Could not fetch order")
		utils.WriteError(w, http.StatusBadRequest, "No se pudo obtener el pedido")
		return
	}

	h.recalculate(r.Context(), w, order, statusUpdatedManual)
}

func (h *BalanceHandler) recalculate(ctx context.Context, w http.ResponseWriter, order *domain.Order, status string) {
	orderLog := logger.WithOrderID(*logger.WithContext(ctx), order.ID)
	ctx = logger.NewContext(ctx, &orderLog)

	res, err := h.balanceUC.Recalculate(ctx, order)
	if err != nil {
		var upErr *domain.UpstreamError
		responseBody := ""
		if errors.As(err, &upErr) {
			responseBody = upErr.Body
		}
		orderLog.Error().Err(err).Str("response_body", responseBody).Msg("Failed to update pending balance")
		utils.WriteErrorBody(w, http.StatusInternalServerError, err.Error(), responseBody)
		return
	}

	utils.WriteJSON(w, http.StatusOK, newBalanceResponse(status, res))
}

var (
	errNoData      = errors.New("no JSON data received")
	errInvalidJSON = errors.New("invalid JSON payload")
	errNoOrderID   = errors.New("order id is required")
)

func decodeOrder(body []byte) (*domain.Order, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("{}")) {
		return nil, errNoData
	}

	var wrapper struct {
		Order json.RawMessage `json:"order"`
	}
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return nil, errInvalidJSON
	}
	payload := trimmed
	if len(wrapper.Order) > 0 && !bytes.Equal(wrapper.Order, []byte("null")) {
		payload = wrapper.Order
	}

	var order domain.Order
	if err := json.Unmarshal(payload, &order); err != nil {
		return nil, errInvalidJSON
	}
	if order.ID == 0 {
		return nil, errNoOrderID
	}
	return &order, nil
}

func Health(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
