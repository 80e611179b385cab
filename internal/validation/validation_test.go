package validation

import (
	"testing"

	"robohub/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Name    string `json:"name" validate:"notblank"`
	Email   string `json:"email" validate:"required,email"`
	Age     int    `json:"age" validate:"gte=0,lte=150"`
	Confirm string `json:"confirm" validate:"eqfield=Email"`
}

// Missing or blank required fields are always reported by JSON name.
func TestProperty_BlankFieldsAreReported(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("blank name is flagged, present name is not", prop.ForAll(
		func(name string) bool {
			err := Struct(signup{Name: name, Email: "a@b.co", Confirm: "a@b.co"}, "invalid")
			blank := len(name) == 0 || isSpace(name)
			if blank {
				ve, ok := err.(*domain.ValidationError)
				return ok && ve.Has("name") && len(ve.Fields) == 1
			}
			return err == nil
		},
		gen.OneGenOf(gen.AlphaString(), gen.OneConstOf("", " ", "\t ", "  \n")),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func isSpace(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' {
			return false
		}
	}
	return true
}

func TestStructReportsEveryField(t *testing.T) {
	err := Struct(signup{Name: "Ada", Email: "nope", Age: 200, Confirm: "x"}, "Please fix the form")

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Please fix the form", ve.Message)
	assert.ElementsMatch(t, []domain.FieldError{
		{Field: "email", Message: "Invalid email format"},
		{Field: "age", Message: "Value must be less than or equal to 150"},
		{Field: "confirm", Message: "Does not match Email"},
	}, ve.Fields)
}

func TestStructPassesValidInput(t *testing.T) {
	assert.NoError(t, Struct(signup{Name: "Ada", Email: "ada@example.com", Age: 36, Confirm: "ada@example.com"}, "x"))
}
