package handlers

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"lpstudio/api/models"
	"lpstudio/api/store"
)

// OrderHandlers drives the simulated checkout/payment flow. The gateway
// is a redirect back into /payments/callback; the order store owns the
// state machine and this handler records the conversion event when an
// order settles as paid.
type OrderHandlers struct {
	Orders *store.OrderStore
	Log    *store.EventLog
}

func NewOrderHandlers(orders *store.OrderStore, eventLog *store.EventLog) *OrderHandlers {
	return &OrderHandlers{Orders: orders, Log: eventLog}
}

func publicBaseURL() string {
	if v := os.Getenv("PUBLIC_BASE_URL"); v != "" {
		return strings.TrimRight(v, "/")
	}
	return "http://localhost:8080"
}

// Checkout creates a pending order, applying a coupon when one resolves,
// and returns the simulated gateway redirect.
func (h *OrderHandlers) Checkout(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	amount, err := decimal.NewFromString(req.ValorTotal)
	if err != nil || amount.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "valor_total must be a non-negative decimal"})
		return
	}

	couponCode := ""
	if req.CupomCodigo != "" {
		coupon := h.Orders.LookupCoupon(req.CupomCodigo)
		if coupon == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown coupon code"})
			return
		}
		couponCode = coupon.Code
		discount := amount.Mul(coupon.PercentOff).Div(decimal.NewFromInt(100))
		amount = amount.Sub(discount).Round(2)
		if amount.IsNegative() {
			amount = decimal.Zero
		}
	}

	order, err := h.Orders.CreateOrder(req.LpID, amount, req.DescricaoOfer, couponCode, req.VisitorID, req.SessionID)
	if err != nil {
		log.Printf("Error creating order: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		return
	}

	c.JSON(http.StatusCreated, models.CheckoutResponse{
		Order:       order,
		RedirectURL: fmt.Sprintf("%s/payments/callback?order=%s", publicBaseURL(), order.IDPedido),
	})
}

// PaymentCallback is the simulated gateway return leg. On "pago" the
// handler appends the conversion event; the order store itself never
// touches the event log.
func (h *OrderHandlers) PaymentCallback(c *gin.Context) {
	orderID := c.Query("order")
	status := c.Query("status")
	if orderID == "" || status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order and status query parameters are required"})
		return
	}
	if status != models.OrderPaid && status != models.OrderFailed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be 'pago' or 'falha'"})
		return
	}

	order, err := h.Orders.UpdateOrderStatus(orderID, status)
	if err != nil {
		log.Printf("Error updating order %s: %v", orderID, err)
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if order == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	if order.Status == models.OrderPaid {
		device := store.Device{
			UserAgent: c.Request.UserAgent(),
			Referrer:  c.Request.Referer(),
			IPAddress: c.ClientIP(),
		}
		_, err := h.Log.Append(c.Request.Context(), models.EventConversion, "", order.LpID, order.VisitorID, order.SessionID, device, map[string]any{
			"id_pedido":   order.IDPedido,
			"valor_total": order.ValorTotal.String(),
		})
		if err != nil {
			// The payment already settled; losing the event is a warning,
			// not a failed callback.
			log.Printf("WARN: failed to record conversion for order %s: %v", order.IDPedido, err)
		}
	}

	c.JSON(http.StatusOK, order)
}

// GetOrder looks an order up by id.
func (h *OrderHandlers) GetOrder(c *gin.Context) {
	order := h.Orders.FindOrder(c.Param("id"))
	if order == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	c.JSON(http.StatusOK, order)
}

// ListOrders returns all orders, most recent first.
func (h *OrderHandlers) ListOrders(c *gin.Context) {
	c.JSON(http.StatusOK, h.Orders.ListOrders())
}

// CreateCoupon upserts a discount code (admin surface).
func (h *OrderHandlers) CreateCoupon(c *gin.Context) {
	var coupon models.Coupon
	if err := c.ShouldBindJSON(&coupon); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if coupon.PercentOff.IsNegative() || coupon.PercentOff.GreaterThan(decimal.NewFromInt(100)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "percent_off must be between 0 and 100"})
		return
	}

	if err := h.Orders.SaveCoupon(coupon); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, coupon)
}
