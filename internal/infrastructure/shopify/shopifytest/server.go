// Package shopifytest provides an in-memory Shopify Admin API for tests.
package shopifytest

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"preventa-backend/internal/domain"

	"github.com/goccy/go-json"
)

const Token = "shpat_test_token"

// Product is a fake catalog entry. A nil Constant means the product has no
// custom.constante metafield.
type Product struct {
	Tags     string
	Constant *string
}

// Server mimics the subset of the Admin REST API the client uses. Order
// metafields are unique per (order, namespace, key): creating a taken key
// answers 422 "already exists" like the real platform.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	orders     map[int64]json.RawMessage
	products   map[int64]Product
	metafields map[int64][]domain.Metafield
	nextID     int64
	failures   map[string]int
	requests   []string
}

func NewServer() *Server {
	s := &Server{
		orders:     map[int64]json.RawMessage{},
		products:   map[int64]Product{},
		metafields: map[int64][]domain.Metafield{},
		failures:   map[string]int{},
		nextID:     1000,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /admin/api/{version}/orders/{file}", s.getOrder)
	mux.HandleFunc("GET /admin/api/{version}/products/{file}", s.getProduct)
	mux.HandleFunc("GET /admin/api/{version}/products/{id}/metafields.json", s.getProductMetafields)
	mux.HandleFunc("GET /admin/api/{version}/orders/{id}/metafields.json", s.listOrderMetafields)
	mux.HandleFunc("POST /admin/api/{version}/orders/{id}/metafields.json", s.createOrderMetafield)
	mux.HandleFunc("PUT /admin/api/{version}/metafields/{file}", s.updateMetafield)

	s.Server = httptest.NewServer(s.auth(mux))
	return s
}

// --- Fixtures ---

// AddOrder registers the raw order JSON (the object under "order").
func (s *Server) AddOrder(id int64, orderJSON string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[id] = json.RawMessage(orderJSON)
}

func (s *Server) AddProduct(id int64, p Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[id] = p
}

// SeedMetafield stores a metafield as if it had been created earlier.
func (s *Server) SeedMetafield(orderID int64, mf domain.Metafield) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	mf.ID = s.nextID
	s.metafields[orderID] = append(s.metafields[orderID], mf)
}

// FailWith makes every request whose "METHOD path" starts with prefix
// answer status.
func (s *Server) FailWith(prefix string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[prefix] = status
}

// --- Inspection ---

// Metafields returns a copy of the order's metafields.
func (s *Server) Metafields(orderID int64) []domain.Metafield {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Metafield(nil), s.metafields[orderID]...)
}

// Metafield returns the order metafield stored under key.
func (s *Server) Metafield(orderID int64, key string) (domain.Metafield, bool) {
	for _, mf := range s.Metafields(orderID) {
		if mf.Key == key {
			return mf, true
		}
	}
	return domain.Metafield{}, false
}

// Requests returns every request seen as "METHOD path".
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// --- Handlers ---

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		line := r.Method + " " + r.URL.Path

		s.mu.Lock()
		s.requests = append(s.requests, line)
		status := 0
		for prefix, code := range s.failures {
			if strings.HasPrefix(line, prefix) {
				status = code
			}
		}
		s.mu.Unlock()

		if r.Header.Get("X-Shopify-Access-Token") != Token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"errors": "[API] Invalid API key or access token"})
			return
		}
		if status != 0 {
			writeJSON(w, status, map[string]string{"errors": "injected failure"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := jsonID(r.PathValue("file"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	s.mu.Lock()
	order, found := s.orders[id]
	s.mu.Unlock()
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"errors": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]json.RawMessage{"order": order})
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := jsonID(r.PathValue("file"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	s.mu.Lock()
	p, found := s.products[id]
	s.mu.Unlock()
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"errors": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"product": map[string]string{"tags": p.Tags}})
}

func (s *Server) getProductMetafields(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	s.mu.Lock()
	p, found := s.products[id]
	s.mu.Unlock()
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"errors": "Not Found"})
		return
	}

	list := []domain.Metafield{}
	if p.Constant != nil && r.URL.Query().Get("key") == domain.KeyProductConstant {
		list = append(list, domain.Metafield{
			ID:        id*10 + 1,
			Namespace: domain.MetafieldNamespace,
			Key:       domain.KeyProductConstant,
			Type:      domain.MetafieldTypeMoney,
			Value:     *p.Constant,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"metafields": list})
}

func (s *Server) listOrderMetafields(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	namespace, key := r.URL.Query().Get("namespace"), r.URL.Query().Get("key")

	list := []domain.Metafield{}
	for _, mf := range s.Metafields(orderID) {
		if (namespace == "" || mf.Namespace == namespace) && (key == "" || mf.Key == key) {
			list = append(list, mf)
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"metafields": list})
}

type metafieldBody struct {
	Metafield domain.Metafield `json:"metafield"`
}

func (s *Server) createOrderMetafield(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	var body metafieldBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"errors": "bad request"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, mf := range s.metafields[orderID] {
		if mf.Namespace == body.Metafield.Namespace && mf.Key == body.Metafield.Key {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"errors": map[string][]string{"key": {"must be unique within this namespace on this resource", "already exists"}},
			})
			return
		}
	}

	s.nextID++
	mf := body.Metafield
	mf.ID = s.nextID
	s.metafields[orderID] = append(s.metafields[orderID], mf)
	writeJSON(w, http.StatusCreated, metafieldBody{Metafield: mf})
}

func (s *Server) updateMetafield(w http.ResponseWriter, r *http.Request) {
	id, ok := jsonID(r.PathValue("file"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	var body metafieldBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"errors": "bad request"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for orderID, list := range s.metafields {
		for i := range list {
			if list[i].ID == id {
				list[i].Value = body.Metafield.Value
				list[i].Type = body.Metafield.Type
				s.metafields[orderID] = list
				writeJSON(w, http.StatusOK, metafieldBody{Metafield: list[i]})
				return
			}
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"errors": "Not Found"})
}

// jsonID parses "123.json" into 123.
func jsonID(file string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSuffix(file, ".json"), 10, 64)
	return id, err == nil && strings.HasSuffix(file, ".json")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
