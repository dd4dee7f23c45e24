package validation

// CheckoutItem is one requested cart line. Prices come from the catalog,
// never from the client.
type CheckoutItem struct {
	ProductID string `json:"product_id" validate:"required"`
	VariantID string `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=999"`
}

// QuoteRequest is the payload for POST /api/checkout/quote.
type QuoteRequest struct {
	Items          []CheckoutItem `json:"items" validate:"required,min=1,max=100,dive"`
	VoucherCode    string         `json:"voucher_code,omitempty" validate:"omitempty,max=32"`
	ShippingMethod string         `json:"shipping_method" validate:"required"`
}

// CheckoutRequest is the payload for POST /api/checkout and /api/checkout/validate.
type CheckoutRequest struct {
	QuoteRequest
	PaymentMethod     string `json:"payment_method" validate:"required,oneof=cod bank-transfer vnpay momo"`
	ShippingAddressID string `json:"shipping_address_id" validate:"required"`
	Notes             string `json:"notes,omitempty" validate:"max=500"`
}

// UpdateStatusRequest is the payload for PUT /api/orders/:id/status.
type UpdateStatusRequest struct {
	Status         string  `json:"status" validate:"required,order_status"`
	PaymentStatus  *string `json:"payment_status,omitempty" validate:"omitempty,payment_status"`
	ShippingStatus *string `json:"shipping_status,omitempty" validate:"omitempty,shipping_status"`
}

// ProcessPaymentRequest is the payload for POST /api/payment/process. An empty
// method_id pays with the method chosen at checkout.
type ProcessPaymentRequest struct {
	OrderID  string `json:"order_id" validate:"required"`
	MethodID string `json:"method_id,omitempty" validate:"omitempty,oneof=cod bank-transfer vnpay momo"`
}

// PaymentCallbackRequest is the payload for POST /api/payment/callback.
type PaymentCallbackRequest struct {
	PaymentID     string `json:"payment_id" validate:"required"`
	Status        string `json:"status" validate:"required,oneof=SUCCESS FAILED"`
	TransactionID string `json:"transaction_id,omitempty" validate:"max=64"`
}

// ShippingCalculateRequest is the payload for POST /api/shipping/calculate.
// Weight is in kilograms, distance in kilometres.
type ShippingCalculateRequest struct {
	MethodID string  `json:"method_id" validate:"required"`
	Weight   float64 `json:"weight" validate:"gte=0,lte=1000"`
	Distance float64 `json:"distance" validate:"gte=0,lte=5000"`
}
