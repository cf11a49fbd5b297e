// Package httpapi is an in-memory reference implementation of the storefront
// REST API. It backs tests and the CLI's dev-server command; production
// clients talk to the real backend.
package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/R3E-Network/storefront/internal/app/domain/catalog"
	"github.com/R3E-Network/storefront/internal/app/domain/payment"
	"github.com/R3E-Network/storefront/internal/app/domain/recommendation"
	"github.com/R3E-Network/storefront/internal/app/domain/tracking"
	"github.com/R3E-Network/storefront/internal/app/domain/user"
	"github.com/R3E-Network/storefront/pkg/logger"
)

// Route names, usable with Fail and Hold.
const (
	RouteLogin         = "auth.login"
	RouteRegister      = "auth.register"
	RouteVerify        = "auth.verify"
	RouteCartGet       = "cart.get"
	RouteCartAdd       = "cart.add"
	RouteCartUpdate    = "cart.update"
	RouteCartRemove    = "cart.remove"
	RouteProducts      = "products.list"
	RouteProduct       = "products.get"
	RouteCategories    = "categories"
	RouteSearch        = "search"
	RouteRecsUser      = "recommendations.user"
	RouteRecsSession   = "recommendations.session"
	RouteTrackEvent    = "tracking.event"
	RoutePayInitialize = "payments.initialize"
	RoutePayVerify     = "payments.verify"
	RoutePayCrypto     = "payments.crypto"
)

// handler bundles the reference endpoints.
type handler struct {
	state *state
	rec   *recorder
}

// DevOptions configures the standalone reference API.
type DevOptions struct {
	// AllowedOrigins lists browser origins permitted to call the API.
	// "*" allows any origin; "*.example.com" allows subdomains.
	AllowedOrigins []string
	Logger         *logger.Logger
}

// NewHandler returns a router exposing the storefront REST API backed by
// fresh in-memory state.
func NewHandler(opts DevOptions) http.Handler {
	rec := newRecorder()
	rec.keep = devRequestLog
	r := newHandler(newState(), rec).router()
	if opts.Logger != nil {
		r.Use(loggingMiddleware(opts.Logger))
	}
	if len(opts.AllowedOrigins) == 0 {
		return r
	}
	// Preflight requests never match a method-restricted route, so CORS
	// wraps the router instead of being registered with Use.
	return newCORSMiddleware(opts.AllowedOrigins).handler(r)
}

const devRequestLog = 256

func newHandler(st *state, rec *recorder) *handler {
	return &handler{state: st, rec: rec}
}

func (h *handler) router() *mux.Router {
	r := mux.NewRouter()
	r.Use(h.rec.middleware)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/login", h.login).Methods(http.MethodPost).Name(RouteLogin)
	api.HandleFunc("/auth/register", h.register).Methods(http.MethodPost).Name(RouteRegister)
	api.HandleFunc("/auth/verify", h.verify).Methods(http.MethodGet).Name(RouteVerify)

	api.HandleFunc("/cart/remove/{productID}", h.cartRemove).Methods(http.MethodDelete).Name(RouteCartRemove)
	api.HandleFunc("/cart/{userID}", h.cartGet).Methods(http.MethodGet).Name(RouteCartGet)
	api.HandleFunc("/cart/{userID}/items", h.cartAdd).Methods(http.MethodPost).Name(RouteCartAdd)
	api.HandleFunc("/cart/{userID}/items/{productID}", h.cartUpdate).Methods(http.MethodPut).Name(RouteCartUpdate)

	api.HandleFunc("/products", h.products).Methods(http.MethodGet).Name(RouteProducts)
	api.HandleFunc("/products/{productID}", h.product).Methods(http.MethodGet).Name(RouteProduct)
	api.HandleFunc("/categories", h.categories).Methods(http.MethodGet).Name(RouteCategories)
	api.HandleFunc("/search", h.search).Methods(http.MethodGet).Name(RouteSearch)

	api.HandleFunc("/recommendations/session/{sessionID}", h.sessionRecommendations).Methods(http.MethodGet).Name(RouteRecsSession)
	api.HandleFunc("/recommendations/{userID}", h.userRecommendations).Methods(http.MethodGet).Name(RouteRecsUser)

	api.HandleFunc("/tracking/event", h.trackEvent).Methods(http.MethodPost).Name(RouteTrackEvent)

	api.HandleFunc("/payments/initialize", h.initializePayment).Methods(http.MethodPost).Name(RoutePayInitialize)
	api.HandleFunc("/payments/verify/{txID}", h.verifyPayment).Methods(http.MethodGet).Name(RoutePayVerify)
	api.HandleFunc("/payments/crypto/supported", h.supportedCrypto).Methods(http.MethodGet).Name(RoutePayCrypto)
	return r
}

// --- auth -------------------------------------------------------------------

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var creds user.Credentials
	if err := decodeJSON(r.Body, &creds); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if creds.Email == "" || creds.Password == "" {
		writeValidation(w, "email", "field required")
		return
	}

	h.state.mu.Lock()
	u, token, ok := h.state.login(creds.Email, creds.Password)
	h.state.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	writeJSON(w, http.StatusOK, user.AuthResponse{Token: token, User: u})
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var creds user.Credentials
	if err := decodeJSON(r.Body, &creds); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	switch {
	case creds.Email == "":
		writeValidation(w, "email", "field required")
		return
	case creds.Password == "":
		writeValidation(w, "password", "field required")
		return
	case creds.FullName == "":
		writeValidation(w, "full_name", "field required")
		return
	}

	h.state.mu.Lock()
	u, token, ok := h.state.register(creds.Email, creds.Password, creds.FullName)
	h.state.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	writeJSON(w, http.StatusOK, user.AuthResponse{Token: token, User: u})
}

func (h *handler) verify(w http.ResponseWriter, r *http.Request) {
	u, ok := h.bearerUser(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	writeJSON(w, http.StatusOK, user.VerifyResponse{User: u})
}

func (h *handler) bearerUser(r *http.Request) (user.User, bool) {
	token := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	if token == "" {
		return user.User{}, false
	}
	h.state.mu.Lock()
	defer h.state.mu.Unlock()
	return h.state.userByToken(token)
}

// --- cart -------------------------------------------------------------------

func (h *handler) cartGet(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	h.state.mu.Lock()
	c := h.state.cartFor(userID)
	h.state.mu.Unlock()
	writeJSON(w, http.StatusOK, c)
}

func (h *handler) cartAdd(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	productID := r.URL.Query().Get("product_id")
	quantity, err := strconv.Atoi(r.URL.Query().Get("quantity"))
	if productID == "" || err != nil {
		writeValidation(w, "quantity", "value is not a valid integer")
		return
	}
	if quantity <= 0 {
		writeDetail(w, http.StatusBadRequest, "Quantity must be positive")
		return
	}

	h.state.mu.Lock()
	defer h.state.mu.Unlock()
	p, ok := h.state.products[productID]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Product not found")
		return
	}
	h.state.addItem(userID, p, quantity)
	writeJSON(w, http.StatusOK, h.state.cartFor(userID))
}

func (h *handler) cartUpdate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	quantity, err := strconv.Atoi(r.URL.Query().Get("quantity"))
	if err != nil {
		writeValidation(w, "quantity", "value is not a valid integer")
		return
	}

	h.state.mu.Lock()
	defer h.state.mu.Unlock()
	if !h.state.setQuantity(vars["userID"], vars["productID"], quantity) {
		writeDetail(w, http.StatusNotFound, "Item not in cart")
		return
	}
	writeJSON(w, http.StatusOK, h.state.cartFor(vars["userID"]))
}

func (h *handler) cartRemove(w http.ResponseWriter, r *http.Request) {
	u, ok := h.bearerUser(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	productID := mux.Vars(r)["productID"]

	h.state.mu.Lock()
	defer h.state.mu.Unlock()
	if !h.state.setQuantity(u.ID, productID, 0) {
		writeDetail(w, http.StatusNotFound, "Item not in cart")
		return
	}
	writeJSON(w, http.StatusOK, h.state.cartFor(u.ID))
}

// --- catalog ----------------------------------------------------------------

func (h *handler) products(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := intParam(q.Get("limit"), 20)
	skip := intParam(q.Get("skip"), 0)
	minPrice, hasMin := floatParam(q.Get("min_price"))
	maxPrice, hasMax := floatParam(q.Get("max_price"))

	h.state.mu.Lock()
	source := h.state.listProducts()
	if search := q.Get("search"); search != "" {
		source = h.state.search(search)
	}
	h.state.mu.Unlock()

	out := make([]catalog.Product, 0)
	for _, p := range source {
		if c := q.Get("category"); c != "" && p.Category != c {
			continue
		}
		if hasMin && p.Pricing.MinPrice < minPrice {
			continue
		}
		if hasMax && p.Pricing.MaxPrice > maxPrice {
			continue
		}
		out = append(out, p)
	}
	writeJSON(w, http.StatusOK, paginate(out, skip, limit))
}

func (h *handler) product(w http.ResponseWriter, r *http.Request) {
	h.state.mu.Lock()
	p, ok := h.state.products[mux.Vars(r)["productID"]]
	h.state.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "Product not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) categories(w http.ResponseWriter, r *http.Request) {
	h.state.mu.Lock()
	list := h.state.categories()
	h.state.mu.Unlock()
	writeJSON(w, http.StatusOK, catalog.CategoryList{Categories: list})
}

func (h *handler) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		writeValidation(w, "q", "field required")
		return
	}
	limit := intParam(r.URL.Query().Get("limit"), 20)

	h.state.mu.Lock()
	found := paginate(h.state.search(query), 0, limit)
	h.state.mu.Unlock()

	writeJSON(w, http.StatusOK, catalog.SearchResult{Query: query, Products: found, Count: len(found)})
}

// --- recommendations --------------------------------------------------------

func (h *handler) userRecommendations(w http.ResponseWriter, r *http.Request) {
	h.writeRecommendations(w, r, true, "Based on your purchase history")
}

func (h *handler) sessionRecommendations(w http.ResponseWriter, r *http.Request) {
	h.writeRecommendations(w, r, false, "Popular with buyers browsing similar items")
}

func (h *handler) writeRecommendations(w http.ResponseWriter, r *http.Request, personal bool, reason string) {
	limit := intParam(r.URL.Query().Get("limit"), 10)

	h.state.mu.Lock()
	products := h.state.listProducts()
	h.state.mu.Unlock()

	if personal {
		for i, j := 0, len(products)-1; i < j; i, j = i+1, j-1 {
			products[i], products[j] = products[j], products[i]
		}
	}

	out := make([]recommendation.Recommendation, 0, len(products))
	for i, p := range paginate(products, 0, limit) {
		score := 1 - float64(i)*0.1
		rec := recommendation.Recommendation{Product: p, Score: score, Reasons: []string{reason}}
		if personal {
			rec.Confidence = score * 0.9
		}
		out = append(out, rec)
	}
	writeJSON(w, http.StatusOK, recommendation.List{Recommendations: out})
}

// --- tracking ---------------------------------------------------------------

func (h *handler) trackEvent(w http.ResponseWriter, r *http.Request) {
	var event tracking.Event
	if err := decodeJSON(r.Body, &event); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if event.SessionID == "" || !event.EventType.Known() {
		writeValidation(w, "event_type", "value is not a valid enumeration member")
		return
	}
	h.state.mu.Lock()
	h.state.events = append(h.state.events, event)
	h.state.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Event tracked"})
}

// --- payments ---------------------------------------------------------------

func (h *handler) initializePayment(w http.ResponseWriter, r *http.Request) {
	var req payment.Request
	if err := decodeJSON(r.Body, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Amount <= 0 || req.Customer.Email == "" || !req.PaymentMethod.Valid() {
		writeDetail(w, http.StatusBadRequest, "Invalid payment request")
		return
	}

	txID := "tx_" + uuid.NewString()[:8]
	h.state.mu.Lock()
	h.state.payments[txID] = req
	h.state.mu.Unlock()

	if req.PaymentMethod != payment.MethodCrypto {
		writeJSON(w, http.StatusOK, map[string]any{
			"id":           txID,
			"status":       payment.StatusPending,
			"payment_link": "https://checkout.example/pay/" + txID,
			"message":      "Payment link generated successfully",
		})
		return
	}

	if req.CryptoPayment == nil || !req.CryptoPayment.CryptoMethod.Valid() {
		writeDetail(w, http.StatusBadRequest, "Crypto payment method required")
		return
	}
	method := req.CryptoPayment.CryptoMethod
	amount := req.Amount / cryptoRates[method]
	writeJSON(w, http.StatusOK, map[string]any{
		"id":             txID,
		"status":         payment.StatusPending,
		"crypto_address": cryptoAddresses[method],
		"qr_code":        "data:image/png;base64,qr_" + string(method),
		"message":        fmt.Sprintf("Send %g %s to the address", amount, strings.ToUpper(string(method))),
		"provider_response": map[string]any{
			"crypto_amount":          amount,
			"wallet_address":         cryptoAddresses[method],
			"network":                "testnet",
			"confirmations_required": 1,
		},
	})
}

func (h *handler) verifyPayment(w http.ResponseWriter, r *http.Request) {
	txID := mux.Vars(r)["txID"]
	h.state.mu.Lock()
	req, ok := h.state.payments[txID]
	h.state.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"status": "error", "message": "Verification failed"})
		return
	}

	if r.URL.Query().Get("payment_method") == "crypto" {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "success",
			"data": map[string]any{
				"transaction_id":         txID,
				"confirmations":          3,
				"required_confirmations": 3,
				"status":                 "confirmed",
				"network":                "testnet",
			},
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Payment verified",
		"data": map[string]any{
			"id":       txID,
			"amount":   req.Amount,
			"currency": req.Currency,
			"status":   payment.StatusSuccessful,
		},
	})
}

func (h *handler) supportedCrypto(w http.ResponseWriter, r *http.Request) {
	list := payment.CryptoList{}
	for _, m := range []payment.CryptoMethod{payment.Bitcoin, payment.Ethereum, payment.USDT, payment.USDC} {
		minConf := 12
		if m == payment.Bitcoin {
			minConf = 3
		}
		list.Cryptocurrencies = append(list.Cryptocurrencies, payment.Crypto{
			Symbol:           strings.ToUpper(string(m)),
			Name:             strings.ToUpper(string(m[:1])) + string(m[1:]),
			RateUSD:          cryptoRates[m],
			Network:          "testnet",
			MinConfirmations: minConf,
		})
	}
	writeJSON(w, http.StatusOK, list)
}

// --- helpers ----------------------------------------------------------------

func decodeJSON(body io.Reader, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON payload: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeDetail writes a FastAPI-style {"detail": "..."} error.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeValidation writes a FastAPI-style 422 validation error list.
func writeValidation(w http.ResponseWriter, field, msg string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"detail": []map[string]any{{"loc": []string{"body", field}, "msg": msg, "type": "value_error"}},
	})
}

func intParam(raw string, fallback int) int {
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func floatParam(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	return v, err == nil
}

func paginate(list []catalog.Product, skip, limit int) []catalog.Product {
	if skip >= len(list) {
		return []catalog.Product{}
	}
	list = list[skip:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

