package httppresentation

import (
	"encoding/json"
	"errors"
	"net/http"

	appInventory "github.com/marketbay/stockroom/internal/application/inventory"
	appOrder "github.com/marketbay/stockroom/internal/application/order"
	"github.com/marketbay/stockroom/internal/domain/catalog"
	domainInventory "github.com/marketbay/stockroom/internal/domain/inventory"
	domainOrder "github.com/marketbay/stockroom/internal/domain/order"
	"github.com/marketbay/stockroom/internal/domain/quantity"
	"github.com/marketbay/stockroom/internal/observability"
)

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
)

type Handler struct {
	orderService     *appOrder.Service
	inventoryService *appInventory.Service
	log              observability.Logger
	tel              observability.Observability
}

func NewHandler(
	orderSvc *appOrder.Service,
	inventorySvc *appInventory.Service,
	logger observability.Logger,
	tel observability.Observability,
) *Handler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = observability.NopLogger()
	}
	return &Handler{
		orderService:     orderSvc,
		inventoryService: inventorySvc,
		log:              baseLogger.With(observability.F("component", componentHTTPHandler)),
		tel:              tel,
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	h.muxHandle(mux, http.MethodPost, "/order", h.handlePlaceOrder)
	h.muxHandle(mux, http.MethodGet, "/order/status", h.handleGetOrder)
	h.muxHandle(mux, http.MethodPost, "/inventory", h.handleAddItem)
	h.muxHandle(mux, http.MethodPost, "/inventory/deduct", h.handleDeduct)
	h.muxHandle(mux, http.MethodPost, "/inventory/restock", h.handleRestock)
	h.muxHandle(mux, http.MethodGet, "/inventory/check", h.handleCheck)
	h.muxHandle(mux, http.MethodGet, "/health", h.handleHealth)

	return mux
}

func (h *Handler) muxHandle(mux *http.ServeMux, method, route string, handler http.HandlerFunc) {
	mux.HandleFunc(route, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		r = r.WithContext(contextWithRoute(r.Context(), route))

		wrapped := ObservabilityMiddleware(
			h.log,
			func(r *http.Request) string { return r.Header.Get(headerRequestID) },
			h.tel,
		)(handler)

		wrapped.ServeHTTP(w, r)
	})
}

type lineRequest struct {
	ProductID string `json:"product_id"`
	Amount    string `json:"amount"`
	Unit      string `json:"unit"`
	UnitPrice int64  `json:"unit_price"`
}

func (l lineRequest) toDomain() (domainOrder.Line, error) {
	productID, err := catalog.ParseProductID(l.ProductID)
	if err != nil {
		return domainOrder.Line{}, err
	}
	q, err := quantity.Parse(l.Amount, quantity.Unit(l.Unit))
	if err != nil {
		return domainOrder.Line{}, err
	}
	return domainOrder.Line{ProductID: productID, Quantity: q, UnitPrice: l.UnitPrice}, nil
}

type placeOrderRequest struct {
	CustomerID string        `json:"customer_id"`
	Lines      []lineRequest `json:"lines"`
}

type placeOrderResponse struct {
	OrderID string             `json:"order_id"`
	Status  domainOrder.Status `json:"status"`
}

func (h *Handler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	lines := make([]domainOrder.Line, 0, len(req.Lines))
	for _, l := range req.Lines {
		line, err := l.toDomain()
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		lines = append(lines, line)
	}

	result, err := h.orderService.PlaceOrder(r.Context(), appOrder.PlaceOrderInput{
		CustomerID: req.CustomerID,
		Lines:      lines,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, placeOrderResponse{
		OrderID: result.OrderID,
		Status:  result.Status,
	})
}

type getOrderResponse struct {
	OrderID       string             `json:"order_id"`
	Status        domainOrder.Status `json:"status"`
	FailureReason string             `json:"failure_reason,omitempty"`
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, errors.New("id query parameter required"))
		return
	}

	o, err := h.orderService.GetOrder(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, getOrderResponse{
		OrderID:       o.ID,
		Status:        o.Status,
		FailureReason: o.FailureReason,
	})
}

type stockRequest struct {
	ProductID string `json:"product_id"`
	Amount    string `json:"amount"`
	Unit      string `json:"unit"`
}

type stockResponse struct {
	ProductID string `json:"product_id"`
	OnHand    string `json:"on_hand"`
	Unit      string `json:"unit"`
}

func (h *Handler) parseStockRequest(r *http.Request) (catalog.ProductID, quantity.Quantity, error) {
	var req stockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", quantity.None, err
	}
	productID, err := catalog.ParseProductID(req.ProductID)
	if err != nil {
		return "", quantity.None, err
	}
	q, err := quantity.Parse(req.Amount, quantity.Unit(req.Unit))
	if err != nil {
		return "", quantity.None, err
	}
	return productID, q, nil
}

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	productID, q, err := h.parseStockRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	item, err := h.inventoryService.AddItem(r.Context(), productID, q)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, itemResponse(item))
}

func (h *Handler) handleDeduct(w http.ResponseWriter, r *http.Request) {
	productID, q, err := h.parseStockRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	item, err := h.inventoryService.Deduct(r.Context(), productID, q)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, itemResponse(item))
}

func (h *Handler) handleRestock(w http.ResponseWriter, r *http.Request) {
	productID, q, err := h.parseStockRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	item, err := h.inventoryService.Increase(r.Context(), productID, q)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, itemResponse(item))
}

type checkResponse struct {
	ProductID  string `json:"product_id"`
	Demanded   string `json:"demanded"`
	Sufficient bool   `json:"sufficient"`
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	productID, err := catalog.ParseProductID(query.Get("product_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	q, err := quantity.Parse(query.Get("amount"), quantity.Unit(query.Get("unit")))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ok, err := h.inventoryService.HasSufficientQuantity(r.Context(), productID, q)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, checkResponse{
		ProductID:  productID.String(),
		Demanded:   q.String(),
		Sufficient: ok,
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func itemResponse(item *domainInventory.Item) stockResponse {
	if item == nil {
		return stockResponse{}
	}
	return stockResponse{
		ProductID: item.ProductID.String(),
		OnHand:    item.OnHand.Amount().String(),
		Unit:      string(item.OnHand.Unit()),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainOrder.ErrNotFound), errors.Is(err, domainInventory.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domainInventory.ErrDuplicateItem):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, domainInventory.ErrInsufficientStock):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, domainInventory.ErrInvalidQuantity),
		errors.Is(err, domainOrder.ErrNoLines),
		errors.Is(err, domainOrder.ErrInvalidLine),
		errors.Is(err, quantity.ErrUnitMismatch),
		errors.Is(err, quantity.ErrInvalidAmount),
		errors.Is(err, catalog.ErrInvalidProductID):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
