package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func validCheckout() CheckoutRequest {
	return CheckoutRequest{
		QuoteRequest: QuoteRequest{
			Items: []CheckoutItem{
				{ProductID: "p1", Quantity: 2},
				{ProductID: "p1", VariantID: "xl", Quantity: 1},
			},
			ShippingMethod: "standard",
		},
		PaymentMethod:     "cod",
		ShippingAddressID: "addr-1",
	}
}

func TestCheckoutRequest_Valid(t *testing.T) {
	v := New()
	if err := v.Struct(validCheckout()); err != nil {
		t.Fatalf("expected valid, got error: %v", err)
	}
}

func TestCheckoutRequest_DuplicateLine(t *testing.T) {
	v := New()
	req := validCheckout()
	req.Items = append(req.Items, CheckoutItem{ProductID: "p1", Quantity: 5})

	err := v.Struct(req)
	if err == nil {
		t.Fatal("expected validation error for duplicate line, got nil")
	}
	fields := FieldErrors(err)
	if msg, ok := fields["items[2]"]; !ok || !strings.Contains(msg, "items[0]") {
		t.Fatalf("expected duplicate reported on items[2], got %v", fields)
	}
}

func TestCheckoutRequest_MissingFields(t *testing.T) {
	v := New()

	err := v.Struct(CheckoutRequest{})
	if err == nil {
		t.Fatal("expected validation errors for missing required fields, got nil")
	}
	fields := FieldErrors(err)
	for _, f := range []string{"items", "shipping_method", "payment_method", "shipping_address_id"} {
		if _, ok := fields[f]; !ok {
			t.Errorf("expected error for %s, got %v", f, fields)
		}
	}
}

func TestCheckoutRequest_BadValues(t *testing.T) {
	v := New()
	req := validCheckout()
	req.PaymentMethod = "cash"
	req.Items[0].Quantity = 0

	fields := FieldErrors(v.Struct(req))
	if _, ok := fields["payment_method"]; !ok {
		t.Errorf("expected payment_method error, got %v", fields)
	}
	if _, ok := fields["items[0].quantity"]; !ok {
		t.Errorf("expected items[0].quantity error, got %v", fields)
	}
}

func TestUpdateStatusRequest(t *testing.T) {
	v := New()
	paid := "PAID"
	bogus := "LOST"

	cases := []struct {
		name  string
		req   UpdateStatusRequest
		valid bool
	}{
		{"status only", UpdateStatusRequest{Status: "CONFIRMED"}, true},
		{"with payment", UpdateStatusRequest{Status: "CONFIRMED", PaymentStatus: &paid}, true},
		{"unknown status", UpdateStatusRequest{Status: "ARCHIVED"}, false},
		{"unknown shipping", UpdateStatusRequest{Status: "SHIPPED", ShippingStatus: &bogus}, false},
		{"missing status", UpdateStatusRequest{PaymentStatus: &paid}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Struct(tc.req)
			if tc.valid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.valid && err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestPaymentAndShippingRequests(t *testing.T) {
	v := New()

	cases := []struct {
		name  string
		req   any
		valid bool
	}{
		{"process with checkout method", ProcessPaymentRequest{OrderID: "o1"}, true},
		{"process explicit method", ProcessPaymentRequest{OrderID: "o1", MethodID: "momo"}, true},
		{"process unknown method", ProcessPaymentRequest{OrderID: "o1", MethodID: "paypal"}, false},
		{"process missing order", ProcessPaymentRequest{}, false},
		{"callback success", PaymentCallbackRequest{PaymentID: "p1", Status: "SUCCESS"}, true},
		{"callback unknown status", PaymentCallbackRequest{PaymentID: "p1", Status: "PENDING"}, false},
		{"shipping estimate", ShippingCalculateRequest{MethodID: "express", Weight: 2.5, Distance: 12}, true},
		{"shipping negative weight", ShippingCalculateRequest{MethodID: "express", Weight: -1}, false},
		{"shipping missing method", ShippingCalculateRequest{Distance: 3}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Struct(tc.req)
			if tc.valid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.valid && err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestBindAndValidate_WritesBadRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	v := New()

	cases := []struct {
		body string
		code string
	}{
		{`{not json`, "invalid_request_body"},
		{`{"items":[]}`, "validation_failed"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
		c.Request.Header.Set("Content-Type", "application/json")

		var req CheckoutRequest
		if err := BindAndValidate(c, &req, v); err == nil {
			t.Fatalf("%s: expected error", tc.body)
		}
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.body, w.Code)
		}
		if !strings.Contains(w.Body.String(), tc.code) {
			t.Fatalf("%s: expected %s in body, got %s", tc.body, tc.code, w.Body.String())
		}
	}
}

func TestMessages_Sorted(t *testing.T) {
	v := New()
	msgs := Messages(v.Struct(CheckoutRequest{}))
	if len(msgs) < 2 {
		t.Fatalf("expected several messages, got %v", msgs)
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i-1] > msgs[i] {
			t.Fatalf("messages not sorted: %v", msgs)
		}
	}
}
