package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"
	"go.uber.org/zap"

	"catalog_back_end/internal/apperr"
	"catalog_back_end/internal/logger"
	"catalog_back_end/internal/models"
	"catalog_back_end/internal/orders"
	"catalog_back_end/internal/payment"
)

// CheckoutProvider opens hosted payment sessions.
type CheckoutProvider interface {
	CreateSession(ctx context.Context, items []models.LineItem) (*payment.Session, error)
}

// EventParser reads provider webhook deliveries. Verified reports whether Parse
// checks signatures.
type EventParser interface {
	Parse(payload []byte, signature string) (stripe.Event, error)
	Verified() bool
}

type Notifier interface {
	OrderPaid(ctx context.Context, order models.Order) error
}

type CheckoutHandler struct {
	provider CheckoutProvider
	orders   *orders.Recorder
	events   EventParser
	notifier Notifier
}

func NewCheckoutHandler(provider CheckoutProvider, recorder *orders.Recorder, events EventParser, notifier Notifier) *CheckoutHandler {
	return &CheckoutHandler{provider: provider, orders: recorder, events: events, notifier: notifier}
}

func (h *CheckoutHandler) Register(r gin.IRouter) {
	r.POST("/create-checkout-session", h.CreateSession)
	r.POST("/webhook", h.Webhook)
	r.GET("/orders", h.ListOrders)
}

// CreateSession opens a provider session and records the order. The order log is
// written after the session exists, so a failed write is logged and the client
// still gets its redirect.
func (h *CheckoutHandler) CreateSession(c *gin.Context) {
	var req struct {
		Items []models.LineItem `json:"items"`
	}
	if err := bindJSON(c, &req); err != nil {
		badRequest(c, err)
		return
	}
	if len(req.Items) == 0 {
		respondError(c, apperr.ErrEmptyCart)
		return
	}

	session, err := h.provider.CreateSession(c, req.Items)
	if err != nil {
		logger.Error(c, "❌ Checkout session creation failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": payment.ProviderMessage(err)})
		return
	}

	if _, err := h.orders.Record(c, session.ID, req.Items); err != nil {
		logger.Error(c, "❌ Order not recorded", err, zap.String("session_id", session.ID))
	}
	c.JSON(http.StatusOK, gin.H{"url": session.URL})
}

// =========================
// 🔔 Stripe webhook
// =========================

func (h *CheckoutHandler) Webhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, payment.MaxWebhookBytes)
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable body"})
		return
	}

	event, err := h.events.Parse(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		logger.Warn(c, "⚠️ Webhook rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
		return
	}

	sessionID, ok := payment.CompletedSessionID(event)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	if !h.events.Verified() {
		logger.Warn(c, "⚠️ Unverified checkout event, order left pending", zap.String("session_id", sessionID))
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	order, changed, err := h.orders.MarkPaid(c, sessionID)
	switch {
	case errors.Is(err, apperr.ErrOrderNotFound):
		logger.Warn(c, "⚠️ Paid session has no recorded order", zap.String("session_id", sessionID))
	case err != nil:
		respondError(c, err)
		return
	case changed && h.notifier != nil:
		if err := h.notifier.OrderPaid(c, order); err != nil {
			logger.Error(c, "❌ Order notification failed", err, zap.String("order_number", order.OrderNumber))
		}
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *CheckoutHandler) ListOrders(c *gin.Context) {
	list, err := h.orders.List(c)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
