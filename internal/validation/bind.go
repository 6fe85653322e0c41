package validation

import (
	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/go-checkout-session/internal/apperror"
)

// BindAndValidate binds the JSON body into out and runs validation.
// A malformed body yields a 400 *apperror.Error; rule violations are returned
// as validatorv10.ValidationErrors for the error middleware to phrase.
func BindAndValidate(c *gin.Context, out interface{}, v *validatorv10.Validate) error {
	if err := c.ShouldBindJSON(out); err != nil {
		return apperror.BadRequest("Invalid request body", err)
	}
	return v.Struct(out)
}
