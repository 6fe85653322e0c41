package validation

import (
	"reflect"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/go-checkout-session/internal/checkout"
)

// New returns a configured validator with the checkout struct-level rules registered.
// Field errors report JSON names so they can be echoed back to the client.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	// the cart is an opaque blob; "required" cannot see through json.RawMessage
	v.RegisterStructValidation(createSessionStructValidation, checkout.CreateSessionRequest{})

	return v
}

func createSessionStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(checkout.CreateSessionRequest)
	if !req.HasCart() {
		sl.ReportError(req.CartOrProducts, "cartOrProducts", "CartOrProducts", "required", "")
	}
}
