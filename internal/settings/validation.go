package settings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/provide-io/pwakit/pkg/pwa/bundle"
)

// Request is a generation request assembled from flags and stored settings.
type Request struct {
	SourcePath string `validate:"required,file"`
	OutputPath string `validate:"required"`
	Capacity   int    `validate:"gt=0"`
	Metadata   bundle.Metadata
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the host-level fields of r. The metadata is free-form and
// only escaped later, so it is not checked here.
func (r Request) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("invalid request: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "file":
		return fmt.Sprintf("%s %q is not a file", fe.Field(), fe.Value())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
