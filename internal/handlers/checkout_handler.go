package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-shop-orderflow/internal/checkout"
	"github.com/imrishuroy/go-shop-orderflow/internal/idempotency"
	"github.com/imrishuroy/go-shop-orderflow/internal/validation"
)

// RegisterCheckoutRoutes registers checkout and shipping method routes on api.
// api is expected to carry RequireUser.
func RegisterCheckoutRoutes(api *gin.RouterGroup, cfg HandlerConfig) {
	cfg.defaults()
	h := &checkoutHandler{cfg: cfg}

	api.POST("/checkout", h.checkout)
	api.POST("/checkout/validate", h.validate)
	api.POST("/checkout/quote", h.quote)
	api.GET("/shipping/methods", h.shippingMethods)
	api.POST("/shipping/calculate", h.shippingCalculate)
}

type checkoutHandler struct {
	cfg HandlerConfig
}

func toRequest(customerID string, req validation.CheckoutRequest) checkout.Request {
	lines := make([]checkout.Line, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, checkout.Line{ProductID: it.ProductID, VariantID: it.VariantID, Quantity: it.Quantity})
	}
	return checkout.Request{
		CustomerID:        customerID,
		Lines:             lines,
		VoucherCode:       req.VoucherCode,
		ShippingMethod:    req.ShippingMethod,
		PaymentMethod:     req.PaymentMethod,
		ShippingAddressID: req.ShippingAddressID,
		Notes:             req.Notes,
	}
}

func (h *checkoutHandler) quote(c *gin.Context) {
	var req validation.QuoteRequest
	if err := validation.BindAndValidate(c, &req, h.cfg.Validator); err != nil {
		return
	}

	q, err := h.cfg.Checkout.Quote(c.Request.Context(), toRequest(userID(c), validation.CheckoutRequest{QuoteRequest: req}))
	if err != nil {
		writeError(c, h.cfg.Logger, err)
		return
	}
	c.JSON(http.StatusOK, quoteResponse{
		SellerID: q.SellerID,
		Items:    toLineItems(q.Items),
		Totals:   pricingTotals(q.Totals),
	})
}

func (h *checkoutHandler) validate(c *gin.Context) {
	var req validation.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body", "msg": err.Error()})
		return
	}

	// request shape problems are reported alongside business problems
	var shapeErrs []string
	if err := h.cfg.Validator.Struct(req); err != nil {
		shapeErrs = validation.Messages(err)
	}

	res, err := h.cfg.Checkout.Validate(c.Request.Context(), toRequest(userID(c), req))
	if err != nil {
		writeError(c, h.cfg.Logger, err)
		return
	}
	if len(shapeErrs) > 0 {
		res.Errors = append(shapeErrs, res.Errors...)
		res.Valid = false
	}
	c.JSON(http.StatusOK, res)
}

func (h *checkoutHandler) shippingMethods(c *gin.Context) {
	methods := h.cfg.Calculator.ShippingMethods()
	out := make([]gin.H, 0, len(methods))
	for _, m := range methods {
		out = append(out, gin.H{
			"id":             m.ID,
			"name":           m.Name,
			"description":    m.Description,
			"base_fee":       m.BaseFee,
			"estimated_days": m.EstimatedDays,
		})
	}
	c.JSON(http.StatusOK, gin.H{"methods": out})
}

func (h *checkoutHandler) shippingCalculate(c *gin.Context) {
	var req validation.ShippingCalculateRequest
	if err := validation.BindAndValidate(c, &req, h.cfg.Validator); err != nil {
		return
	}

	q, err := h.cfg.Calculator.Shipping().Calculate(req.MethodID, decimal.NewFromFloat(req.Weight), decimal.NewFromFloat(req.Distance))
	if err != nil {
		writeError(c, h.cfg.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"method_id":      q.Method.ID,
		"method_name":    q.Method.Name,
		"estimated_days": q.Method.EstimatedDays,
		"base_fee":       q.BaseFee,
		"weight_fee":     q.WeightFee,
		"distance_fee":   q.DistanceFee,
		"fee":            q.Fee,
		"currency":       "VND",
	})
}

// checkout places an order. With an Idempotency-Key header, a retried request
// replays the first outcome instead of placing a second order.
func (h *checkoutHandler) checkout(c *gin.Context) {
	ctx := c.Request.Context()
	user := userID(c)

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body", "msg": err.Error()})
		return
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	var req validation.CheckoutRequest
	if err := validation.BindAndValidate(c, &req, h.cfg.Validator); err != nil {
		// BindAndValidate already wrote a 400
		return
	}

	clientKey := c.GetHeader(HeaderIdempotencyKey)
	if clientKey == "" || h.cfg.Idempotency == nil {
		status, resp := h.place(c, req)
		c.JSON(status, resp)
		return
	}

	key := idempotency.ScopedKey(user, clientKey)
	hash := idempotency.HashRequest(body)

	created, err := h.cfg.Idempotency.CreateIfNotExists(ctx, key, user, hash)
	if err != nil {
		writeError(c, h.cfg.Logger, fmt.Errorf("create idempotency record: %w", err))
		return
	}
	if !created && !h.resume(c, key, hash) {
		return
	}

	status, resp := h.place(c, req)
	raw, err := json.Marshal(resp)
	if err != nil {
		writeError(c, h.cfg.Logger, fmt.Errorf("marshal response: %w", err))
		return
	}

	if status >= http.StatusInternalServerError {
		// transient: let the client retry with the same key
		if err := h.cfg.Idempotency.MarkFailed(ctx, key, string(raw)); err != nil {
			h.cfg.Logger.ErrorContext(ctx, "mark idempotency failed", slog.String("key", key), slog.Any("error", err))
		}
	} else {
		orderID := ""
		if cr, ok := resp.(checkoutResponse); ok {
			orderID = cr.OrderID
		}
		if err := h.cfg.Idempotency.MarkDone(ctx, key, orderID, string(raw), status); err != nil {
			h.cfg.Logger.ErrorContext(ctx, "mark idempotency done", slog.String("key", key), slog.Any("error", err))
		}
	}
	c.Data(status, "application/json; charset=utf-8", raw)
}

// resume inspects an existing record. It writes the response and returns
// false unless the caller should go ahead and place the order.
func (h *checkoutHandler) resume(c *gin.Context, key, hash string) bool {
	ctx := c.Request.Context()

	rec, err := h.cfg.Idempotency.Get(ctx, key)
	if err != nil {
		writeError(c, h.cfg.Logger, fmt.Errorf("get idempotency record: %w", err))
		return false
	}
	if rec == nil {
		// expired between the create attempt and the read
		c.JSON(http.StatusConflict, gin.H{"error": "idempotency_key_expired"})
		return false
	}
	if rec.RequestHash != hash {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "idempotency_key_reused"})
		return false
	}

	switch rec.Status {
	case idempotency.StatusDone:
		c.Header("Idempotent-Replayed", "true")
		c.Data(rec.ResponseStatus, "application/json; charset=utf-8", []byte(rec.ResponseBody))
		return false
	case idempotency.StatusInProgress:
		c.JSON(http.StatusAccepted, gin.H{"message": "request already in progress"})
		return false
	case idempotency.StatusFailed:
		claimed, err := h.cfg.Idempotency.Retry(ctx, key)
		if err != nil {
			writeError(c, h.cfg.Logger, fmt.Errorf("retry idempotency record: %w", err))
			return false
		}
		if !claimed {
			c.JSON(http.StatusAccepted, gin.H{"message": "request already in progress"})
			return false
		}
		return true
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unknown_idempotency_status"})
		return false
	}
}

// place runs the checkout and returns the status and body to send.
func (h *checkoutHandler) place(c *gin.Context, req validation.CheckoutRequest) (int, any) {
	res, err := h.cfg.Checkout.Checkout(c.Request.Context(), toRequest(userID(c), req))
	if err != nil {
		status, body := errorResponse(err)
		if status >= http.StatusInternalServerError {
			h.cfg.Logger.ErrorContext(c.Request.Context(), "checkout failed", slog.Any("error", err))
		}
		return status, body
	}

	o := res.Order
	totals := orderTotals(o)
	totals.VoucherNote = res.VoucherNote
	c.Header("Location", fmt.Sprintf("/api/orders/%s", o.ID))
	return http.StatusCreated, checkoutResponse{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Status:      string(o.Status),
		Totals:      totals,
		PaymentURL:  res.PaymentURL,
	}
}
