package validation

import (
	"fmt"
	"reflect"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/go-shop-orderflow/internal/orders"
)

// New returns a configured validator with the order status tags and
// struct-level cart rules registered. Field names in errors use json tags.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("order_status", func(fl validatorv10.FieldLevel) bool {
		return orders.Status(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("payment_status", func(fl validatorv10.FieldLevel) bool {
		return orders.PaymentStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("shipping_status", func(fl validatorv10.FieldLevel) bool {
		return orders.ShippingStatus(fl.Field().String()).Valid()
	})

	v.RegisterStructValidation(quoteStructValidation, QuoteRequest{})

	return v
}

// quoteStructValidation rejects carts listing the same product variant twice;
// clients must merge quantities instead.
func quoteStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(QuoteRequest)

	seen := make(map[string]int, len(req.Items))
	for i, it := range req.Items {
		k := it.ProductID + "/" + it.VariantID
		if first, dup := seen[k]; dup {
			sl.ReportError(req.Items, fmt.Sprintf("items[%d]", i), "Items", "unique_line",
				fmt.Sprintf("duplicates items[%d]", first))
			continue
		}
		seen[k] = i
	}
}
