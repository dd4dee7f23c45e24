package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-shop-orderflow/internal/orders"
	"github.com/imrishuroy/go-shop-orderflow/internal/payments"
	"github.com/imrishuroy/go-shop-orderflow/internal/pricing"
	"github.com/imrishuroy/go-shop-orderflow/internal/vouchers"
)

var errorTable = []struct {
	target error
	status int
	code   string
}{
	{pricing.ErrInvalidCart, http.StatusBadRequest, "invalid_cart"},
	{pricing.ErrVoucherNotApplicable, http.StatusBadRequest, "voucher_not_applicable"},
	{pricing.ErrUnknownShippingMethod, http.StatusBadRequest, "unknown_shipping_method"},
	{pricing.ErrInvalidShippingQuery, http.StatusBadRequest, "invalid_shipping_query"},
	{vouchers.ErrNotFound, http.StatusNotFound, "voucher_not_found"},
	{payments.ErrNotFound, http.StatusNotFound, "payment_not_found"},
	{payments.ErrMethodNotFound, http.StatusNotFound, "payment_method_not_found"},
	{payments.ErrNotPayable, http.StatusBadRequest, "payment_not_required"},
	{payments.ErrMethodMismatch, http.StatusBadRequest, "payment_method_mismatch"},
	{payments.ErrInvalidOutcome, http.StatusBadRequest, "invalid_payment_outcome"},
	{payments.ErrAlreadyPaid, http.StatusConflict, "order_already_paid"},
	{payments.ErrAlreadySettled, http.StatusConflict, "payment_already_settled"},
	{orders.ErrNotFound, http.StatusNotFound, "order_not_found"},
	{orders.ErrForbidden, http.StatusForbidden, "forbidden"},
	{orders.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{orders.ErrVersionConflict, http.StatusConflict, "concurrent_update"},
}

// errorResponse maps a service error to its HTTP status and body. Unknown
// errors become an opaque 500.
func errorResponse(err error) (int, gin.H) {
	for _, e := range errorTable {
		if errors.Is(err, e.target) {
			return e.status, gin.H{"error": e.code, "msg": err.Error()}
		}
	}
	return http.StatusInternalServerError, gin.H{"error": "internal_error"}
}

func writeError(c *gin.Context, log *slog.Logger, err error) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		log.ErrorContext(c.Request.Context(), "request failed",
			slog.String("path", c.FullPath()),
			slog.Any("error", err),
		)
	}
	c.JSON(status, body)
}
