package transport

import (
	"net/http"

	"product-catalog/internal/middleware"

	"github.com/shopspring/decimal"
)

var (
	minPrice = decimal.RequireFromString("0.01")
	maxPrice = decimal.RequireFromString("999999.99")
)

// ProductForm carries the raw create/edit form fields. Price stays a string
// until it passes validation.
type ProductForm struct {
	Name        string `validate:"required,min=3,max=50"`
	Description string `validate:"omitempty,max=255"`
	Price       string `validate:"required"`
	Category    string `validate:"required,max=50"`
}

func parseProductForm(r *http.Request) ProductForm {
	return ProductForm{
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
		Price:       r.PostFormValue("price"),
		Category:    r.PostFormValue("category"),
	}
}

// validateProductForm checks field constraints and parses the price. It
// returns the parsed price and a map of field errors; an empty map means the
// form is valid.
func validateProductForm(form ProductForm) (decimal.Decimal, map[string]string) {
	fieldErrors := map[string]string{}

	if err := middleware.ValidateStruct(form); err != nil {
		for _, ve := range middleware.FormatValidationErrors(err) {
			fieldErrors[ve.Field] = ve.Message
		}
	}

	var price decimal.Decimal
	if _, bad := fieldErrors["Price"]; !bad {
		parsed, err := decimal.NewFromString(form.Price)
		switch {
		case err != nil:
			fieldErrors["Price"] = "Price must be a number"
		case parsed.LessThan(minPrice) || parsed.GreaterThan(maxPrice):
			fieldErrors["Price"] = "Price must be between 0.01 and 999999.99"
		default:
			price = parsed
		}
	}

	return price, fieldErrors
}
