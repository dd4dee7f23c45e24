package handlers

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-shop-orderflow/internal/orders"
	"github.com/imrishuroy/go-shop-orderflow/internal/pricing"
)

type lineItemResponse struct {
	ProductID   string          `json:"product_id"`
	VariantID   string          `json:"variant_id,omitempty"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type totalsResponse struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	ShippingFee    decimal.Decimal `json:"shipping_fee"`
	Tax            decimal.Decimal `json:"tax"`
	FinalTotal     decimal.Decimal `json:"final_total"`
	VoucherCode    string          `json:"voucher_code,omitempty"`
	VoucherNote    string          `json:"voucher_note,omitempty"`
}

type orderResponse struct {
	OrderID           string             `json:"order_id"`
	OrderNumber       string             `json:"order_number"`
	CustomerID        string             `json:"customer_id"`
	SellerID          string             `json:"seller_id"`
	Status            string             `json:"status"`
	PaymentStatus     string             `json:"payment_status"`
	ShippingStatus    string             `json:"shipping_status"`
	ShippingMethod    string             `json:"shipping_method"`
	PaymentMethod     string             `json:"payment_method"`
	ShippingAddressID string             `json:"shipping_address_id,omitempty"`
	Notes             string             `json:"notes,omitempty"`
	Items             []lineItemResponse `json:"items"`
	Totals            totalsResponse     `json:"totals"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

type checkoutResponse struct {
	OrderID     string         `json:"order_id"`
	OrderNumber string         `json:"order_number"`
	Status      string         `json:"status"`
	Totals      totalsResponse `json:"totals"`
	PaymentURL  string         `json:"payment_url,omitempty"`
}

type quoteResponse struct {
	SellerID string             `json:"seller_id"`
	Items    []lineItemResponse `json:"items"`
	Totals   totalsResponse     `json:"totals"`
}

func toLineItems(items []orders.LineItem) []lineItemResponse {
	out := make([]lineItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, lineItemResponse{
			ProductID:   it.ProductID,
			VariantID:   it.VariantID,
			ProductName: it.ProductName,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			LineTotal:   it.LineTotal,
		})
	}
	return out
}

func orderTotals(o *orders.Order) totalsResponse {
	return totalsResponse{
		Subtotal:       o.Subtotal,
		DiscountAmount: o.DiscountAmount,
		ShippingFee:    o.ShippingFee,
		Tax:            o.Tax,
		FinalTotal:     o.FinalTotal,
		VoucherCode:    o.VoucherCode,
	}
}

func pricingTotals(t pricing.Totals) totalsResponse {
	return totalsResponse{
		Subtotal:       t.Subtotal,
		DiscountAmount: t.DiscountAmount,
		ShippingFee:    t.ShippingFee,
		Tax:            t.Tax,
		FinalTotal:     t.FinalTotal,
		VoucherCode:    t.VoucherCode,
		VoucherNote:    t.VoucherNote,
	}
}

func toOrderResponse(o *orders.Order) orderResponse {
	return orderResponse{
		OrderID:           o.ID,
		OrderNumber:       o.OrderNumber,
		CustomerID:        o.CustomerID,
		SellerID:          o.SellerID,
		Status:            string(o.Status),
		PaymentStatus:     string(o.PaymentStatus),
		ShippingStatus:    string(o.ShippingStatus),
		ShippingMethod:    o.ShippingMethod,
		PaymentMethod:     o.PaymentMethod,
		ShippingAddressID: o.ShippingAddressID,
		Notes:             o.Notes,
		Items:             toLineItems(o.Items),
		Totals:            orderTotals(o),
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

func toOrderList(list []orders.Order) []orderResponse {
	out := make([]orderResponse, 0, len(list))
	for i := range list {
		out = append(out, toOrderResponse(&list[i]))
	}
	return out
}
