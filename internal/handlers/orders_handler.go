package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-shop-orderflow/internal/orders"
	"github.com/imrishuroy/go-shop-orderflow/internal/validation"
)

// RegisterOrdersRoutes registers customer and seller order routes on api.
// api is expected to carry RequireUser.
func RegisterOrdersRoutes(api *gin.RouterGroup, cfg HandlerConfig) {
	cfg.defaults()
	h := &ordersHandler{cfg: cfg}

	api.GET("/orders", h.listMine)
	api.GET("/orders/:id", h.get)
	api.POST("/orders/:id/cancel", h.cancel)
	api.PUT("/orders/:id/status", h.updateStatus)
	api.GET("/seller/orders", h.listSeller)
}

type ordersHandler struct {
	cfg HandlerConfig
}

// statusFilter reads ?status=; an unknown value is a 400.
func statusFilter(c *gin.Context) (orders.Status, bool) {
	s := orders.Status(c.Query("status"))
	if s != "" && !s.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_status_filter", "msg": fmt.Sprintf("unknown status %q", s)})
		return "", false
	}
	return s, true
}

func (h *ordersHandler) listMine(c *gin.Context) {
	status, ok := statusFilter(c)
	if !ok {
		return
	}
	list, err := h.cfg.Orders.ListByCustomer(c.Request.Context(), userID(c), status)
	if err != nil {
		writeError(c, h.cfg.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": toOrderList(list)})
}

func (h *ordersHandler) listSeller(c *gin.Context) {
	status, ok := statusFilter(c)
	if !ok {
		return
	}
	list, err := h.cfg.Orders.ListBySeller(c.Request.Context(), userID(c), status)
	if err != nil {
		writeError(c, h.cfg.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": toOrderList(list)})
}

// get lets the customer and the seller of an order read it.
func (h *ordersHandler) get(c *gin.Context) {
	o, err := h.cfg.Orders.Get(c.Request.Context(), c.Param("id"), "")
	if err != nil {
		writeError(c, h.cfg.Logger, err)
		return
	}
	if user := userID(c); o.CustomerID != user && o.SellerID != user {
		writeError(c, h.cfg.Logger, fmt.Errorf("order %s: %w", o.ID, orders.ErrForbidden))
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(o))
}

func (h *ordersHandler) cancel(c *gin.Context) {
	o, err := h.cfg.Orders.Cancel(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		writeError(c, h.cfg.Logger, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(o))
}

// updateStatus is restricted to the order's seller. The seller of an order
// never changes, so checking it before the transition is safe.
func (h *ordersHandler) updateStatus(c *gin.Context) {
	var req validation.UpdateStatusRequest
	if err := validation.BindAndValidate(c, &req, h.cfg.Validator); err != nil {
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")

	cur, err := h.cfg.Orders.Get(ctx, id, "")
	if err != nil {
		writeError(c, h.cfg.Logger, err)
		return
	}
	if cur.SellerID != userID(c) {
		writeError(c, h.cfg.Logger, fmt.Errorf("order %s: %w", id, orders.ErrForbidden))
		return
	}

	u := orders.StatusUpdate{Status: orders.Status(req.Status)}
	if req.PaymentStatus != nil {
		p := orders.PaymentStatus(*req.PaymentStatus)
		u.PaymentStatus = &p
	}
	if req.ShippingStatus != nil {
		s := orders.ShippingStatus(*req.ShippingStatus)
		u.ShippingStatus = &s
	}

	o, err := h.cfg.Orders.UpdateStatus(ctx, id, u)
	if err != nil {
		writeError(c, h.cfg.Logger, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(o))
}
