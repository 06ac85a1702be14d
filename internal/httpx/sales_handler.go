package httpx

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kapehan/pos-backend/internal/auth"
	"github.com/kapehan/pos-backend/internal/sales"
)

type SalesService interface {
	CancelledToday(ctx context.Context, cashier string) ([]sales.Order, error)
	Orders(ctx context.Context, caller auth.Identity, cashier string) ([]sales.Order, error)
	AllOrders(ctx context.Context) ([]sales.Order, error)
	CreateOnlineOrder(ctx context.Context, o sales.OnlineOrder) (int64, bool, error)
	UpdateStatus(ctx context.Context, caller auth.Identity, saleID int64, req sales.StatusUpdate) (sales.Status, error)
	CurrentSessionMetrics(ctx context.Context, cashier string) (sales.Metrics, error)
	TodayMetrics(ctx context.Context, cashier string) (sales.Metrics, error)
	TopProductsToday(ctx context.Context, cashier string) ([]sales.TopProduct, error)
}

type SalesHandler struct {
	Sales SalesService
	Auth  Verifier
	Log   *slog.Logger
}

type cashierRequest struct {
	CashierName string `json:"cashierName"`
}

type updateStatusRequest struct {
	NewStatus     string `json:"newStatus"`
	CancelDetails *struct {
		ManagerUsername string `json:"managerUsername"`
	} `json:"cancelDetails"`
}

type onlineOrderResponse struct {
	Message    string `json:"message"`
	PosSaleID  int64  `json:"pos_sale_id"`
	Idempotent bool   `json:"idempotent"`
}

func (h *SalesHandler) Register(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Use(Authenticate(h.Auth, h.Log))

		r.With(Require(auth.OpCancelledOrdersToday)).Post("/cancelled_orders/today", h.cancelledToday)

		r.Route("/purchase_orders", func(r chi.Router) {
			r.With(Require(auth.OpListOrders)).Get("/status/processing", h.listOrders)
			r.With(Require(auth.OpListAllOrders)).Get("/all", h.listAllOrders)
			r.With(Require(auth.OpCreateOnlineOrder)).Post("/online-order", h.createOnlineOrder)
			r.With(Require(auth.OpUpdateOrderStatus)).Patch("/{order_id}/status", h.updateStatus)
		})

		r.Route("/sales_metrics", func(r chi.Router) {
			r.Use(Require(auth.OpSalesMetrics))
			r.Post("/current_session", h.currentSessionMetrics)
			r.Post("/today", h.todayMetrics)
		})

		r.With(Require(auth.OpTopProducts)).Post("/top_products/today", h.topProductsToday)
	})
}

func (h *SalesHandler) cancelledToday(w http.ResponseWriter, r *http.Request) {
	var req cashierRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orders, err := h.Sales.CancelledToday(ctx, req.CashierName)
	if err != nil {
		writeDomainError(w, h.Log, err, "Failed to fetch today's cancelled orders.")
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *SalesHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orders, err := h.Sales.Orders(ctx, identity(r), r.URL.Query().Get("cashierName"))
	if err != nil {
		writeDomainError(w, h.Log, err, "Failed to fetch processing orders.")
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *SalesHandler) listAllOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orders, err := h.Sales.AllOrders(ctx)
	if err != nil {
		writeDomainError(w, h.Log, err, "Failed to fetch all orders.")
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *SalesHandler) createOnlineOrder(w http.ResponseWriter, r *http.Request) {
	var req sales.OnlineOrder
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	saleID, existed, err := h.Sales.CreateOnlineOrder(ctx, req)
	if err != nil {
		writeDomainError(w, h.Log, err, "An error occurred while saving the online order.")
		return
	}
	writeJSON(w, http.StatusCreated, onlineOrderResponse{
		Message:    "Online order successfully saved to POS",
		PosSaleID:  saleID,
		Idempotent: existed,
	})
}

func (h *SalesHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")
	saleID, err := sales.ParseOrderID(orderID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid order ID format.")
		return
	}
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	upd := sales.StatusUpdate{NewStatus: req.NewStatus}
	if req.CancelDetails != nil {
		upd.ManagerUsername = req.CancelDetails.ManagerUsername
	}

	// restock fan-out runs inside this request, so allow for upstream timeouts
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	st, err := h.Sales.UpdateStatus(ctx, identity(r), saleID, upd)
	if err != nil {
		writeDomainError(w, h.Log, err, "Failed to update order status.")
		return
	}
	if st == sales.StatusCancelled {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Order has been cancelled and inventory restock initiated."})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("Order status successfully updated to '%s'.", st)})
}

func (h *SalesHandler) currentSessionMetrics(w http.ResponseWriter, r *http.Request) {
	h.metrics(w, r, h.Sales.CurrentSessionMetrics, "Failed to fetch sales metrics for the current session.")
}

func (h *SalesHandler) todayMetrics(w http.ResponseWriter, r *http.Request) {
	h.metrics(w, r, h.Sales.TodayMetrics, "Failed to fetch sales metrics.")
}

func (h *SalesHandler) metrics(w http.ResponseWriter, r *http.Request, get func(context.Context, string) (sales.Metrics, error), generic string) {
	var req cashierRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	m, err := get(ctx, req.CashierName)
	if err != nil {
		writeDomainError(w, h.Log, err, generic)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *SalesHandler) topProductsToday(w http.ResponseWriter, r *http.Request) {
	var req cashierRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	top, err := h.Sales.TopProductsToday(ctx, req.CashierName)
	if err != nil {
		writeDomainError(w, h.Log, err, "Failed to fetch top selling products.")
		return
	}
	writeJSON(w, http.StatusOK, top)
}
