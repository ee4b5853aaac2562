package domain

// Metafield is a typed, namespaced key/value record attached to an order.
// At most one exists per (order, namespace, key).
type Metafield struct {
	ID        int64  `json:"id,omitempty"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Type      string `json:"type"`
	Value     string `json:"value"`
}

const MetafieldNamespace = "custom"

// Metafield Types
const (
	MetafieldTypeMoney = "money"
	MetafieldTypeText  = "single_line_text_field"
)

// Order metafield keys written by the balance computation.
const (
	KeyPendingProducts = "cantidad_pendiente_productos"
	KeyPendingShipping = "envio_pendiente"
	KeyPendingTotal    = "pendiente_pago"
	KeyCarrier         = "paqueteria_"
)

// Product metafield holding the per-unit pending amount.
const KeyProductConstant = "constante"
