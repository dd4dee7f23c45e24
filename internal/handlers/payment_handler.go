package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-shop-orderflow/internal/orders"
	"github.com/imrishuroy/go-shop-orderflow/internal/payments"
	"github.com/imrishuroy/go-shop-orderflow/internal/validation"
)

// RegisterPaymentRoutes registers the customer payment routes on api. The
// payment_url returned by checkout points at GET /payment/orders/:orderId.
func RegisterPaymentRoutes(api *gin.RouterGroup, cfg HandlerConfig) {
	cfg.defaults()
	h := &paymentHandler{cfg: cfg}

	api.GET("/payment/methods", h.methods)
	api.GET("/payment/orders/:orderId", h.forOrder)
	api.POST("/payment/process", h.process)
	api.POST("/payment/callback", h.callback)
}

type paymentHandler struct {
	cfg HandlerConfig
}

type paymentResponse struct {
	PaymentID     string          `json:"payment_id"`
	OrderID       string          `json:"order_id"`
	MethodID      string          `json:"method_id"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	TransactionID string          `json:"transaction_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
}

func toPaymentResponse(p *payments.Payment) paymentResponse {
	return paymentResponse{
		PaymentID:     p.ID,
		OrderID:       p.OrderID,
		MethodID:      p.MethodID,
		Amount:        p.Amount,
		Status:        string(p.Status),
		TransactionID: p.TransactionID,
		CreatedAt:     p.CreatedAt,
		CompletedAt:   p.CompletedAt,
	}
}

func (h *paymentHandler) methods(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"methods": h.cfg.Payments.Methods()})
}

func (h *paymentHandler) forOrder(c *gin.Context) {
	o, list, err := h.cfg.Payments.ForOrder(c.Request.Context(), userID(c), c.Param("orderId"))
	if err != nil {
		writeError(c, h.cfg.Logger, err)
		return
	}

	due := decimal.Zero
	if o.PaymentStatus == orders.PaymentUnpaid && !o.Status.Terminal() {
		due = o.FinalTotal
	}
	out := make([]paymentResponse, 0, len(list))
	for i := range list {
		out = append(out, toPaymentResponse(&list[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"order_id":       o.ID,
		"order_number":   o.OrderNumber,
		"payment_method": o.PaymentMethod,
		"payment_status": string(o.PaymentStatus),
		"amount_due":     due,
		"payments":       out,
	})
}

func (h *paymentHandler) process(c *gin.Context) {
	var req validation.ProcessPaymentRequest
	if err := validation.BindAndValidate(c, &req, h.cfg.Validator); err != nil {
		return
	}

	p, err := h.cfg.Payments.Process(c.Request.Context(), userID(c), req.OrderID, req.MethodID)
	if err != nil {
		writeError(c, h.cfg.Logger, err)
		return
	}
	status := http.StatusOK
	if p.Status == payments.StatusPending {
		status = http.StatusAccepted
	}
	c.JSON(status, toPaymentResponse(p))
}

func (h *paymentHandler) callback(c *gin.Context) {
	var req validation.PaymentCallbackRequest
	if err := validation.BindAndValidate(c, &req, h.cfg.Validator); err != nil {
		return
	}

	p, err := h.cfg.Payments.Callback(c.Request.Context(), userID(c), req.PaymentID, payments.Status(req.Status), req.TransactionID)
	if err != nil {
		writeError(c, h.cfg.Logger, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResponse(p))
}
