package middleware

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Test struct shaped like the catalog form fields
type testForm struct {
	Name     string `validate:"required,min=3,max=50"`
	Details  string `validate:"omitempty,max=255"`
	Category string `validate:"required,max=50"`
}

func TestProperty_RequiredFieldValidationWorks(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("missing required fields are rejected", prop.ForAll(
		func(includeName bool, includeCategory bool) bool {
			form := testForm{}
			if includeName {
				form.Name = "Widget"
			}
			if includeCategory {
				form.Category = "Tools"
			}

			err := ValidateStruct(form)

			if includeName && includeCategory {
				return err == nil
			}
			return err != nil
		},
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_LengthBoundsAreEnforced(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("names outside the 3-50 range are rejected", prop.ForAll(
		func(length int) bool {
			form := testForm{
				Name:     strings.Repeat("a", length),
				Category: "Tools",
			}

			err := ValidateStruct(form)

			if length >= 3 && length <= 50 {
				return err == nil
			}
			return err != nil
		},
		gen.IntRange(1, 80),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Test that validation errors are properly formatted
func TestProperty_ValidationErrorsAreFormatted(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("validation errors include field information", prop.ForAll(
		func() bool {
			form := testForm{
				Name:     "ab", // too short
				Category: "",   // missing
			}

			err := ValidateStruct(form)
			if err == nil {
				return false
			}

			validationErrors := FormatValidationErrors(err)

			// Should have at least one error
			if len(validationErrors) == 0 {
				return false
			}

			// Each error should have a field and message
			for _, ve := range validationErrors {
				if ve.Field == "" || ve.Message == "" {
					return false
				}
			}

			return true
		},
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestFormatValidationErrors_ProducesReadableMessages(t *testing.T) {
	err := ValidateStruct(testForm{Name: "ab", Category: "Tools"})
	if err == nil {
		t.Fatal("expected a validation error for a short name")
	}

	validationErrors := FormatValidationErrors(err)
	if len(validationErrors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(validationErrors))
	}

	ve := validationErrors[0]
	if ve.Field != "Name" {
		t.Errorf("expected error on Name, got %s", ve.Field)
	}
	if ve.Message != "Must be at least 3 characters" {
		t.Errorf("unexpected message: %q", ve.Message)
	}
}
